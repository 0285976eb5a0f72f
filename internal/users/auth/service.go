// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/taibuivan/authserver/internal/platform/ctxutil"
	"github.com/taibuivan/authserver/internal/platform/dberr"
	"github.com/taibuivan/authserver/internal/platform/sec"
)

// # Contracts & Types

// TokenProvider issues and validates signed session tokens, satisfied by [sec.TokenService].
type TokenProvider interface {
	// Issue signs a token for the account. A non-positive timeToLive selects
	// the provider's default.
	Issue(subjectID int64, email string, role sec.UserRole, timeToLive time.Duration) (string, error)

	// Validate checks signature and expiry and returns the decoded claims.
	Validate(token string) (*sec.AuthClaims, error)
}

// RegisterResult is returned by [Service.Register].
type RegisterResult struct {
	ID    int64
	Email string
	Role  sec.UserRole
	Token string
}

// LoginResult is returned by the login operations.
type LoginResult struct {
	ID    int64
	Token string
}

// Service implements registration, login and session resolution.
//
// It is stateless apart from its collaborators and safe for concurrent use.
type Service struct {
	accounts *AccountRepository
	hasher   PasswordHasher
	tokens   TokenProvider
	tokenTTL time.Duration

	decoyOnce sync.Once
	decoyHash string
}

// ServiceOption customizes a [Service].
type ServiceOption func(*Service)

// WithTokenTTL sets the lifetime of issued tokens. Zero keeps the provider default.
func WithTokenTTL(ttl time.Duration) ServiceOption {
	return func(service *Service) {
		service.tokenTTL = ttl
	}
}

// NewService constructs a [Service] with its dependencies.
func NewService(accounts *AccountRepository, hasher PasswordHasher, tokens TokenProvider, opts ...ServiceOption) *Service {
	service := &Service{
		accounts: accounts,
		hasher:   hasher,
		tokens:   tokens,
	}

	for _, opt := range opts {
		opt(service)
	}

	return service
}

// # Registration Flow

/*
Register validates, hashes and persists a new ordinary-user account and
issues its first token.

Description: Two registrations racing on the same email are settled by the
store's unique constraint; the loser receives ErrDuplicateEmail too.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *RegisterResult: ID, email, role (always user) and token
  - error: VALIDATION_ERROR, ErrDuplicateEmail, or storage/signing errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*RegisterResult, error) {
	logger := ctxutil.GetLogger(context)

	newAccount, err := NewAccountFromInput(input)
	if err != nil {
		return nil, err
	}

	taken, err := service.accounts.EmailTaken(context, newAccount.Email)
	if err != nil {
		return nil, fmt.Errorf("auth_service_register_failed: %w", err)
	}
	if taken {
		return nil, ErrDuplicateEmail
	}

	account, err := service.accounts.Create(context, newAccount)
	if err != nil {
		if errors.Is(err, dberr.ErrConflict) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("auth_service_register_failed: %w", err)
	}

	token, err := service.tokens.Issue(account.ID, account.Email, account.Role, service.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_issue_failed: %w", err)
	}

	logger.Info("account_registered", slog.Int64("account_id", account.ID))

	return &RegisterResult{
		ID:    account.ID,
		Email: account.Email,
		Role:  account.Role,
		Token: token,
	}, nil
}

// # Login Flow

// LoginUser authenticates an enabled, non-admin account.
//
// An unknown email and a wrong password are indistinguishable: both yield
// [ErrInvalidCredentials].
func (service *Service) LoginUser(context context.Context, email, password string) (*LoginResult, error) {
	return service.login(context, email, password, ScopeUser)
}

// LoginAdmin authenticates an admin account. It does not consult the disabled flag.
func (service *Service) LoginAdmin(context context.Context, email, password string) (*LoginResult, error) {
	return service.login(context, email, password, ScopeAdmin)
}

func (service *Service) login(context context.Context, email, password string, scope LookupScope) (*LoginResult, error) {
	logger := ctxutil.GetLogger(context)

	account, err := service.find(context, strings.TrimSpace(email), scope)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			// Unknown accounts still cost one bcrypt comparison.
			service.hasher.Verify(context, password, service.decoy(context))
			logger.Warn("login_rejected", slog.String("scope", scope.String()), slog.String("reason", "unknown_account"))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("auth_service_login_failed: %w", err)
	}

	if !service.hasher.Verify(context, password, account.PasswordHash) {
		logger.Warn("login_rejected", slog.String("scope", scope.String()), slog.String("reason", "password_mismatch"))
		return nil, ErrInvalidCredentials
	}

	token, err := service.tokens.Issue(account.ID, account.Email, account.Role, service.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_issue_failed: %w", err)
	}

	logger.Info("login_succeeded", slog.String("scope", scope.String()), slog.Int64("account_id", account.ID))

	return &LoginResult{ID: account.ID, Token: token}, nil
}

// decoy returns a hash of a fixed password at the hasher's cost, computed once.
// It stays empty if hashing fails, in which case Verify rejects immediately.
func (service *Service) decoy(ctx context.Context) string {
	service.decoyOnce.Do(func() {
		hash, err := service.hasher.Hash(context.WithoutCancel(ctx), "decoy-password-never-issued")
		if err != nil {
			ctxutil.GetLogger(ctx).Warn("decoy_hash_failed", slog.String("error", err.Error()))
			return
		}
		service.decoyHash = hash
	})
	return service.decoyHash
}

func (service *Service) find(context context.Context, email string, scope LookupScope) (*Account, error) {
	if scope == ScopeAdmin {
		return service.accounts.FindAdmin(context, email)
	}
	return service.accounts.FindUser(context, email)
}

// # Session Resolution

/*
Resolve maps a bearer token back to the public profile of its account.

Description: The lookup partition follows the token's role claim. Every
failure (bad token, vanished or disabled account, subject mismatch) is
reported as the same ErrUnauthorized. The account is looked up on every call.

Parameters:
  - context: context.Context
  - token: string (raw bearer token)

Returns:
  - *Profile: id, first_name, last_name, email, role
  - error: ErrUnauthorized or storage errors
*/
func (service *Service) Resolve(context context.Context, token string) (*Profile, error) {
	logger := ctxutil.GetLogger(context)

	claims, err := service.tokens.Validate(token)
	if err != nil {
		logger.Debug("token_rejected", slog.String("error", err.Error()))
		return nil, ErrUnauthorized
	}

	subjectID, err := claims.SubjectID()
	if err != nil {
		return nil, ErrUnauthorized
	}

	scope := ScopeUser
	if claims.Role.IsAdmin() {
		scope = ScopeAdmin
	}

	account, err := service.find(context, claims.Email, scope)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("auth_service_resolve_failed: %w", err)
	}

	if account.ID != subjectID {
		logger.Warn("token_subject_mismatch", slog.Int64("account_id", account.ID))
		return nil, ErrUnauthorized
	}

	return account.Profile(), nil
}
