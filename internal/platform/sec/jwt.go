// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing) from
// the domain logic. The auth service consumes it through small interfaces so
// tests can swap in fakes.
package sec

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the lifetime of an access token when the caller does not override it.
const DefaultTokenTTL = 7 * 24 * time.Hour

var (
	// ErrConfigurationMissing is returned at construction when the signing secret
	// or algorithm is absent. It is fatal at startup.
	ErrConfigurationMissing = errors.New("sec: token signing configuration missing")

	// ErrTokenExpired is returned by [TokenService.Validate] for a correctly signed
	// token whose expiry has passed.
	ErrTokenExpired = errors.New("sec: token expired")

	// ErrTokenInvalid covers every other validation failure.
	ErrTokenInvalid = errors.New("sec: token invalid")
)

// AuthClaims represents the payload embedded inside an access token.
//
// Wire format: {"sub": "<id>", "email": ..., "role": ..., "iat": ..., "exp": ...}.
type AuthClaims struct {
	jwt.RegisteredClaims

	Email string   `json:"email"`
	Role  UserRole `json:"role"`
}

// SubjectID decodes the string-encoded account id carried in "sub".
func (claims *AuthClaims) SubjectID() (int64, error) {
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("sec: subject %q is not an account id: %w", claims.Subject, err)
	}
	return id, nil
}

// TokenConfig is the immutable signing configuration, loaded once at startup.
type TokenConfig struct {
	Secret     string
	Algorithm  string
	DefaultTTL time.Duration
}

// TokenService issues and validates HMAC-signed JWT access tokens.
//
// It keeps no token state: validity is decided by signature and expiry alone.
type TokenService struct {
	secret     []byte
	method     *jwt.SigningMethodHMAC
	defaultTTL time.Duration
	now        func() time.Time
}

// TokenOption customizes a [TokenService].
type TokenOption func(*TokenService)

// WithClock overrides the time source used for issuing and validating tokens.
func WithClock(now func() time.Time) TokenOption {
	return func(service *TokenService) {
		service.now = now
	}
}

// NewTokenService creates a [TokenService] from cfg.
//
// Only the HMAC family (HS256, HS384, HS512) is accepted since the service is
// configured with a shared secret.
func NewTokenService(cfg TokenConfig, opts ...TokenOption) (*TokenService, error) {
	if cfg.Secret == "" || cfg.Algorithm == "" {
		return nil, ErrConfigurationMissing
	}

	method, ok := jwt.GetSigningMethod(cfg.Algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("sec: unsupported signing algorithm %q", cfg.Algorithm)
	}

	ttl := cfg.DefaultTTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	service := &TokenService{
		secret:     []byte(cfg.Secret),
		method:     method,
		defaultTTL: ttl,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

// Issue signs a new access token for the given account.
// A non-positive timeToLive falls back to the configured default.
func (service *TokenService) Issue(subjectID int64, email string, role UserRole, timeToLive time.Duration) (string, error) {
	if timeToLive <= 0 {
		timeToLive = service.defaultTTL
	}

	currentTime := service.now()
	claims := AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(subjectID, 10),
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
		},
		Email: email,
		Role:  role,
	}

	token := jwt.NewWithClaims(service.method, claims)
	signedToken, err := token.SignedString(service.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// Validate checks the signature and expiry of tokenString and returns its claims.
//
// Expired tokens yield [ErrTokenExpired]; anything else yields [ErrTokenInvalid].
func (service *TokenService) Validate(tokenString string) (*AuthClaims, error) {
	claims := &AuthClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return service.secret, nil },
		jwt.WithValidMethods([]string{service.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(service.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	if _, err := claims.SubjectID(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	return claims, nil
}
