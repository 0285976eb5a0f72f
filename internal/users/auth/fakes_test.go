// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/authserver/internal/platform/dberr"
	"github.com/taibuivan/authserver/internal/platform/sec"
	"github.com/taibuivan/authserver/internal/users/auth"
)

const testSecret = "test-secret-do-not-use"

// memoryStore is an in-memory [auth.AccountStore] with the same partition
// rules and uniqueness guarantee as the Postgres store.
type memoryStore struct {
	mu       sync.Mutex
	nextID   int64
	accounts map[string]*auth.Account

	// failWith, when set, is returned by every call.
	failWith error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{accounts: make(map[string]*auth.Account)}
}

func (store *memoryStore) FindByEmail(_ context.Context, email string, scope auth.LookupScope) (*auth.Account, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	if store.failWith != nil {
		return nil, store.failWith
	}

	account, ok := store.accounts[email]
	if !ok {
		return nil, auth.ErrAccountNotFound
	}

	switch scope {
	case auth.ScopeUser:
		if account.Disabled || account.Role.IsAdmin() {
			return nil, auth.ErrAccountNotFound
		}
	case auth.ScopeAdmin:
		if !account.Role.IsAdmin() {
			return nil, auth.ErrAccountNotFound
		}
	}

	clone := *account
	return &clone, nil
}

func (store *memoryStore) Exists(_ context.Context, email string) (bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	if store.failWith != nil {
		return false, store.failWith
	}

	_, ok := store.accounts[email]
	return ok, nil
}

func (store *memoryStore) Insert(_ context.Context, account *auth.Account) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if store.failWith != nil {
		return store.failWith
	}

	if _, ok := store.accounts[account.Email]; ok {
		return dberr.ErrConflict
	}

	store.nextID++
	account.ID = store.nextID
	account.CreatedAt = time.Now().UTC()

	clone := *account
	store.accounts[account.Email] = &clone
	return nil
}

// get returns the stored record as-is, bypassing the partition.
func (store *memoryStore) get(email string) *auth.Account {
	store.mu.Lock()
	defer store.mu.Unlock()

	account, ok := store.accounts[email]
	if !ok {
		return nil
	}
	clone := *account
	return &clone
}

func (store *memoryStore) update(email string, mutate func(*auth.Account)) {
	store.mu.Lock()
	defer store.mu.Unlock()

	mutate(store.accounts[email])
}

func (store *memoryStore) delete(email string) {
	store.mu.Lock()
	defer store.mu.Unlock()

	delete(store.accounts, email)
}

// staleExistsStore reports every email as free, so Insert is the only guard.
// It reproduces two registrations passing the existence check together.
type staleExistsStore struct {
	*memoryStore
}

func (staleExistsStore) Exists(context.Context, string) (bool, error) {
	return false, nil
}

// countingHasher records how often the wrapped hasher is used.
type countingHasher struct {
	*sec.PasswordHasher
	hashes   atomic.Int64
	verifies atomic.Int64
}

func (hasher *countingHasher) Hash(ctx context.Context, plainTextPassword string) (string, error) {
	hasher.hashes.Add(1)
	return hasher.PasswordHasher.Hash(ctx, plainTextPassword)
}

func (hasher *countingHasher) Verify(ctx context.Context, plainTextPassword, existingHash string) bool {
	hasher.verifies.Add(1)
	return hasher.PasswordHasher.Verify(ctx, plainTextPassword, existingHash)
}

// # Fixture

type fixture struct {
	store   *memoryStore
	hasher  *sec.PasswordHasher
	tokens  *sec.TokenService
	service *auth.Service
}

func newFixture(t *testing.T, opts ...auth.ServiceOption) *fixture {
	t.Helper()

	store := newMemoryStore()
	hasher := sec.NewPasswordHasher(bcrypt.MinCost, 4)
	tokens := newTokens(t)

	return &fixture{
		store:   store,
		hasher:  hasher,
		tokens:  tokens,
		service: auth.NewService(auth.NewAccountRepository(store, hasher), hasher, tokens, opts...),
	}
}

func newTokens(t *testing.T, opts ...sec.TokenOption) *sec.TokenService {
	t.Helper()

	tokens, err := sec.NewTokenService(sec.TokenConfig{
		Secret:     testSecret,
		Algorithm:  "HS256",
		DefaultTTL: time.Hour,
	}, opts...)
	require.NoError(t, err)
	return tokens
}

// seedAdmin stores an admin account directly, the way operators provision them.
func (f *fixture) seedAdmin(t *testing.T, email, password string, disabled bool) *auth.Account {
	t.Helper()

	hash, err := f.hasher.Hash(context.Background(), password)
	require.NoError(t, err)

	account := &auth.Account{
		FirstName:    "Root",
		LastName:     "Operator",
		Email:        email,
		PasswordHash: hash,
		Role:         sec.RoleAdmin,
		Disabled:     disabled,
	}
	require.NoError(t, f.store.Insert(context.Background(), account))
	return account
}

func (f *fixture) register(t *testing.T, email, password string) *auth.RegisterResult {
	t.Helper()

	result, err := f.service.Register(context.Background(), auth.RegisterInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     email,
		Password:  password,
	})
	require.NoError(t, err)
	return result
}
