// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import "github.com/taibuivan/authserver/internal/platform/apperr"

// # Domain Errors

var (
	// ErrDuplicateEmail is returned by Register when the email already has an account.
	ErrDuplicateEmail = apperr.Conflict("Email is already registered").WithCode("EMAIL_TAKEN")

	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	ErrInvalidCredentials = apperr.Unauthorized("Incorrect email or password").WithCode("INVALID_CREDENTIALS")

	// ErrUnauthorized is the single outcome of every failed token resolution.
	ErrUnauthorized = apperr.Unauthorized("Not authenticated")

	// ErrAccountNotFound is returned by lookups that match no account in scope.
	ErrAccountNotFound = apperr.NotFound("Account")
)
