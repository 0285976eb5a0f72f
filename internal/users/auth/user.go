// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements account registration, credential verification and
session token resolution.

It defines the Account entity and the rules that govern how one is created.

# Architecture

  - Store: persistence contract for accounts ([AccountStore]), with a pgx implementation.
  - Repository: role-partitioned lookups and account creation.
  - Service: Register, LoginUser, LoginAdmin and Resolve.
  - Handler: the HTTP surface mounted under /api/v1/auth.

Roles are never chosen by callers. Every account created through this package
is an ordinary user; administrators are provisioned out of band.
*/
package auth

import (
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/taibuivan/authserver/internal/platform/sec"
	"github.com/taibuivan/authserver/internal/platform/validate"
)

// # Domain Entities

// Account is a stored identity.
type Account struct {
	ID           int64        `json:"id"`
	FirstName    string       `json:"first_name"`
	LastName     string       `json:"last_name"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"` // Never serialized.
	Role         sec.UserRole `json:"role"`
	Disabled     bool         `json:"disabled"`
	CreatedAt    time.Time    `json:"created_at"`
	Photo        string       `json:"photo"`
	Experience   *float64     `json:"experience,omitempty"`
}

// Profile is the public projection of an [Account] returned by Resolve.
type Profile struct {
	ID        int64        `json:"id"`
	FirstName string       `json:"first_name"`
	LastName  string       `json:"last_name"`
	Email     string       `json:"email"`
	Role      sec.UserRole `json:"role"`
}

// Profile projects the account onto its public fields.
func (account *Account) Profile() *Profile {
	return &Profile{
		ID:        account.ID,
		FirstName: account.FirstName,
		LastName:  account.LastName,
		Email:     account.Email,
		Role:      account.Role,
	}
}

// # Registration Input

// RegisterInput is what a caller may supply when enrolling.
//
// There is deliberately no Role field: anything a client sends for it is
// dropped at the transport boundary.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string

	// Optional profile attributes, stored as given.
	Photo      string
	Experience *float64
}

// NewAccount is a validated registration ready to be hashed and stored.
type NewAccount struct {
	FirstName  string
	LastName   string
	Email      string
	Password   string
	Photo      string
	Experience *float64
}

/*
NewAccountFromInput validates input and builds a [NewAccount] from the
whitelisted fields only.

Names are NFC-normalized before their length is checked so that composed and
decomposed spellings count the same. The email is trimmed.

Returns:
  - *NewAccount: The normalized registration
  - error: apperr VALIDATION_ERROR listing every failed field
*/
func NewAccountFromInput(input RegisterInput) (*NewAccount, error) {
	firstName := norm.NFC.String(strings.TrimSpace(input.FirstName))
	lastName := norm.NFC.String(strings.TrimSpace(input.LastName))
	email := strings.TrimSpace(input.Email)

	validator := &validate.Validator{}
	validator.
		MinLen(FieldFirstName, firstName, FirstNameMinLength).
		MaxLen(FieldFirstName, firstName, FirstNameMaxLength).
		MinLen(FieldLastName, lastName, LastNameMinLength).
		MaxLen(FieldLastName, lastName, LastNameMaxLength).
		Required(FieldEmail, email).
		MaxLen(FieldEmail, email, EmailMaxLength)

	if email != "" {
		validator.Email(FieldEmail, email)
	}

	validator.
		MinLen(FieldPassword, input.Password, PasswordMinLength).
		MaxBytes(FieldPassword, input.Password, PasswordMaxBytes)

	if err := validator.Err(); err != nil {
		return nil, err
	}

	return &NewAccount{
		FirstName:  firstName,
		LastName:   lastName,
		Email:      email,
		Password:   input.Password,
		Photo:      input.Photo,
		Experience: input.Experience,
	}, nil
}

// # Field Identifiers

const (
	FieldFirstName   = "first_name"
	FieldLastName    = "last_name"
	FieldEmail       = "email"
	FieldPassword    = "password"
	FieldUsername    = "username"
	FieldRole        = "role"
	FieldID          = "id"
	FieldAccessToken = "access_token"
	FieldTokenType   = "token_type"
	FieldUser        = "user"
)
