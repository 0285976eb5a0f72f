// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

// # Registration Constraints

const (
	FirstNameMinLength = 2
	FirstNameMaxLength = 16

	LastNameMinLength = 3
	LastNameMaxLength = 20

	// EmailMaxLength matches the accounts.email column.
	EmailMaxLength = 254

	PasswordMinLength = 6

	// PasswordMaxBytes is the bcrypt input limit. Longer passwords would be
	// silently truncated, so they are rejected instead.
	PasswordMaxBytes = 72
)
