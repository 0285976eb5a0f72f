// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
)

// # Lookup Scopes

// LookupScope partitions account lookups by role.
type LookupScope int

const (
	// ScopeUser matches enabled, non-admin accounts.
	ScopeUser LookupScope = iota + 1

	// ScopeAdmin matches admin accounts. Disabled admins are NOT excluded.
	ScopeAdmin
)

// String returns a short label used in logs.
func (scope LookupScope) String() string {
	switch scope {
	case ScopeUser:
		return "user"
	case ScopeAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// # Storage Contracts

// AccountStore defines the persistence contract for [Account] entities.
type AccountStore interface {
	// FindByEmail returns the account with the exact email that falls inside scope.
	//
	// # Returns
	//   - [ErrAccountNotFound] when no account matches.
	FindByEmail(context context.Context, email string, scope LookupScope) (*Account, error)

	// Exists reports whether any account holds email, regardless of role or state.
	Exists(context context.Context, email string) (bool, error)

	// Insert persists account and fills in its store-assigned ID and CreatedAt.
	//
	// # Returns
	//   - dberr.ErrConflict when the email is already taken.
	Insert(context context.Context, account *Account) error
}
