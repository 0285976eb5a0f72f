// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/taibuivan/authserver/internal/platform/dberr"
	"github.com/taibuivan/authserver/internal/platform/sec"
)

// querier is the subset of [pgxpool.Pool] used by the store.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// # Account Store

// PostgresAccountStore implements [AccountStore] on the accounts table.
type PostgresAccountStore struct {
	pool querier
}

// NewAccountStore creates a PostgreSQL implementation of [AccountStore].
func NewAccountStore(pool querier) *PostgresAccountStore {
	return &PostgresAccountStore{pool: pool}
}

const selectAccount = `
	SELECT id, first_name, last_name, email, password_hash, role, disabled, created_at, photo, experience
	FROM accounts
	WHERE email = $1`

// scopeFilters holds the role partition for each lookup scope.
var scopeFilters = map[LookupScope]string{
	ScopeUser:  ` AND disabled = FALSE AND role <> 'admin'`,
	ScopeAdmin: ` AND role = 'admin'`,
}

/*
FindByEmail retrieves an account by exact email within a role partition.

Parameters:
  - context: context.Context
  - email: string
  - scope: LookupScope (ScopeUser or ScopeAdmin)

Returns:
  - *Account: Hydrated account entity
  - error: ErrAccountNotFound or database errors
*/
func (repository *PostgresAccountStore) FindByEmail(context context.Context, email string, scope LookupScope) (*Account, error) {
	filter, ok := scopeFilters[scope]
	if !ok {
		return nil, fmt.Errorf("postgres_account_store: unknown lookup scope %d", scope)
	}

	var (
		account Account
		role    string
	)

	err := repository.pool.QueryRow(context, selectAccount+filter, email).Scan(
		&account.ID,
		&account.FirstName,
		&account.LastName,
		&account.Email,
		&account.PasswordHash,
		&role,
		&account.Disabled,
		&account.CreatedAt,
		&account.Photo,
		&account.Experience,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("postgres_account_store_find_failed: %w", dberr.Wrap(err))
	}

	account.Role = sec.UserRole(role)
	if !account.Role.Valid() {
		return nil, fmt.Errorf("postgres_account_store: account %d has unknown role %q", account.ID, role)
	}

	return &account, nil
}

/*
Exists reports whether any account, of any role or state, holds email.
*/
func (repository *PostgresAccountStore) Exists(context context.Context, email string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM accounts WHERE email = $1)`

	var exists bool
	if err := repository.pool.QueryRow(context, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("postgres_account_store_exists_failed: %w", dberr.Wrap(err))
	}

	return exists, nil
}

/*
Insert persists a new account and reads back the store-assigned fields.

Description: ID and CreatedAt are populated from RETURNING. The accounts_email_key
unique constraint surfaces as dberr.ErrConflict.

Parameters:
  - context: context.Context
  - account: *Account (PasswordHash must already be set)

Returns:
  - error: dberr.ErrConflict or database errors
*/
func (repository *PostgresAccountStore) Insert(context context.Context, account *Account) error {
	const query = `
		INSERT INTO accounts (first_name, last_name, email, password_hash, role, disabled, photo, experience)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := repository.pool.QueryRow(context, query,
		account.FirstName,
		account.LastName,
		account.Email,
		account.PasswordHash,
		account.Role.String(),
		account.Disabled,
		account.Photo,
		account.Experience,
	).Scan(&account.ID, &account.CreatedAt)

	if err != nil {
		return fmt.Errorf("postgres_account_store_insert_failed: %w", dberr.Wrap(err))
	}

	return nil
}
