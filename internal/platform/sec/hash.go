// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// HashPassword hashes a plain-text password using the bcrypt algorithm.
func HashPassword(plainTextPassword string, cost int) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plainTextPassword), cost)
	if err != nil {
		return "", fmt.Errorf("sec: failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// CheckPasswordHash compares a plain-text password with its hashed version.
// A malformed hash never matches.
func CheckPasswordHash(plainTextPassword, existingHash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(existingHash), []byte(plainTextPassword))
	return err == nil
}

// PasswordHasher derives and verifies bcrypt hashes.
//
// # Concurrency
//
// bcrypt is CPU-bound. A weighted semaphore caps the number of hashes computed
// at once so a burst of logins cannot starve the rest of the server.
type PasswordHasher struct {
	cost  int
	slots *semaphore.Weighted
}

// NewPasswordHasher creates a [PasswordHasher].
//
// A cost outside bcrypt's accepted range falls back to [bcrypt.DefaultCost];
// a non-positive concurrency uses one slot per CPU.
func NewPasswordHasher(cost int, concurrency int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	return &PasswordHasher{
		cost:  cost,
		slots: semaphore.NewWeighted(int64(concurrency)),
	}
}

// Hash returns a salted bcrypt hash of plainTextPassword.
// Two calls with the same input return different hashes.
func (hasher *PasswordHasher) Hash(ctx context.Context, plainTextPassword string) (string, error) {
	if err := hasher.slots.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("sec: hash slot unavailable: %w", err)
	}
	defer hasher.slots.Release(1)

	return HashPassword(plainTextPassword, hasher.cost)
}

// Verify reports whether plainTextPassword matches existingHash.
//
// It returns false when the hash is malformed or ctx is done before a slot frees up.
func (hasher *PasswordHasher) Verify(ctx context.Context, plainTextPassword, existingHash string) bool {
	if err := hasher.slots.Acquire(ctx, 1); err != nil {
		return false
	}
	defer hasher.slots.Release(1)

	return CheckPasswordHash(plainTextPassword, existingHash)
}
