// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"

	"github.com/taibuivan/authserver/internal/platform/sec"
)

// PasswordHasher is the credential hashing contract, satisfied by [sec.PasswordHasher].
type PasswordHasher interface {
	Hash(ctx context.Context, plainTextPassword string) (string, error)
	Verify(ctx context.Context, plainTextPassword, existingHash string) bool
}

// AccountRepository layers the role partition and account creation rules
// over an [AccountStore].
type AccountRepository struct {
	store  AccountStore
	hasher PasswordHasher
}

// NewAccountRepository constructs an [AccountRepository].
func NewAccountRepository(store AccountStore, hasher PasswordHasher) *AccountRepository {
	return &AccountRepository{store: store, hasher: hasher}
}

// FindUser returns the enabled, non-admin account with email.
func (repository *AccountRepository) FindUser(context context.Context, email string) (*Account, error) {
	return repository.store.FindByEmail(context, email, ScopeUser)
}

// FindAdmin returns the admin account with email. Its disabled flag is not consulted.
func (repository *AccountRepository) FindAdmin(context context.Context, email string) (*Account, error) {
	return repository.store.FindByEmail(context, email, ScopeAdmin)
}

// EmailTaken reports whether any account at all holds email.
func (repository *AccountRepository) EmailTaken(context context.Context, email string) (bool, error) {
	return repository.store.Exists(context, email)
}

/*
Create hashes the password and persists a new ordinary-user account.

Description: The role is always [sec.RoleUser] and the account starts enabled.
The plaintext password is not retained on the returned entity.

Parameters:
  - context: context.Context
  - input: *NewAccount (validated registration)

Returns:
  - *Account: Stored record including ID and CreatedAt
  - error: dberr.ErrConflict if the email was claimed concurrently, or hashing/storage errors
*/
func (repository *AccountRepository) Create(context context.Context, input *NewAccount) (*Account, error) {
	passwordHash, err := repository.hasher.Hash(context, input.Password)
	if err != nil {
		return nil, fmt.Errorf("account_repository_hash_failed: %w", err)
	}

	account := &Account{
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		PasswordHash: passwordHash,
		Role:         sec.RoleUser,
		Disabled:     false,
		Photo:        input.Photo,
		Experience:   input.Experience,
	}

	if err := repository.store.Insert(context, account); err != nil {
		return nil, err
	}

	return account, nil
}
