// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/taibuivan/authserver/internal/platform/apperr"
	"github.com/taibuivan/authserver/internal/platform/sec"
	"github.com/taibuivan/authserver/internal/users/auth"
)

// # Registration

func TestService_Register(t *testing.T) {
	f := newFixture(t)

	result := f.register(t, "ada@example.com", "secret1")

	assert.Equal(t, "ada@example.com", result.Email)
	assert.Equal(t, sec.RoleUser, result.Role)
	assert.NotZero(t, result.ID)

	claims, err := f.tokens.Validate(result.Token)
	require.NoError(t, err)
	subjectID, err := claims.SubjectID()
	require.NoError(t, err)
	assert.Equal(t, result.ID, subjectID)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, sec.RoleUser, claims.Role)

	stored := f.store.get("ada@example.com")
	require.NotNil(t, stored)
	assert.Equal(t, sec.RoleUser, stored.Role)
	assert.False(t, stored.Disabled)
	assert.NotEqual(t, "secret1", stored.PasswordHash)
	assert.True(t, f.hasher.Verify(context.Background(), "secret1", stored.PasswordHash))
}

func TestService_Register_Normalizes(t *testing.T) {
	f := newFixture(t)

	// "Zoë" spelled with a combining diaeresis.
	result, err := f.service.Register(context.Background(), auth.RegisterInput{
		FirstName: "  Zoe\u0308 ",
		LastName:  "Lovelace",
		Email:     " zoe@example.com ",
		Password:  "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, "zoe@example.com", result.Email)

	stored := f.store.get("zoe@example.com")
	require.NotNil(t, stored)
	assert.Equal(t, "Zo\u00eb", stored.FirstName)
}

func TestService_Register_ProfileAttributes(t *testing.T) {
	f := newFixture(t)
	experience := 2.5

	_, err := f.service.Register(context.Background(), auth.RegisterInput{
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Email:      "ada@example.com",
		Password:   "secret1",
		Photo:      "ada.png",
		Experience: &experience,
	})
	require.NoError(t, err)

	stored := f.store.get("ada@example.com")
	assert.Equal(t, "ada.png", stored.Photo)
	assert.Equal(t, &experience, stored.Experience)

	f.register(t, "bare@example.com", "secret1")
	bare := f.store.get("bare@example.com")
	assert.Empty(t, bare.Photo)
	assert.Nil(t, bare.Experience)
}

func TestService_Register_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	original := f.register(t, "ada@example.com", "secret1")
	before := f.store.get("ada@example.com")

	_, err := f.service.Register(context.Background(), auth.RegisterInput{
		FirstName: "Eve",
		LastName:  "Impostor",
		Email:     "ada@example.com",
		Password:  "another1",
	})
	require.ErrorIs(t, err, auth.ErrDuplicateEmail)

	after := f.store.get("ada@example.com")
	assert.Equal(t, before, after)
	assert.Equal(t, original.ID, after.ID)
}

func TestService_Register_AdminEmailIsTaken(t *testing.T) {
	f := newFixture(t)
	f.seedAdmin(t, "root@example.com", "rootpass", true)

	_, err := f.service.Register(context.Background(), auth.RegisterInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "root@example.com",
		Password:  "secret1",
	})
	assert.ErrorIs(t, err, auth.ErrDuplicateEmail)
}

func TestService_Register_StorageConflict(t *testing.T) {
	store := staleExistsStore{memoryStore: newMemoryStore()}
	hasher := sec.NewPasswordHasher(4, 2)
	service := auth.NewService(auth.NewAccountRepository(store, hasher), hasher, newTokens(t))

	input := auth.RegisterInput{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Password: "secret1"}

	_, err := service.Register(context.Background(), input)
	require.NoError(t, err)

	_, err = service.Register(context.Background(), input)
	assert.ErrorIs(t, err, auth.ErrDuplicateEmail)
}

func TestService_Register_Concurrent(t *testing.T) {
	f := newFixture(t)

	const attempts = 8
	results := make([]error, attempts)

	var group errgroup.Group
	for i := range attempts {
		group.Go(func() error {
			_, results[i] = f.service.Register(context.Background(), auth.RegisterInput{
				FirstName: "Ada",
				LastName:  "Lovelace",
				Email:     "ada@example.com",
				Password:  "secret1",
			})
			return nil
		})
	}
	require.NoError(t, group.Wait())

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, auth.ErrDuplicateEmail)
	}
	assert.Equal(t, 1, succeeded)
}

func TestService_Register_Validation(t *testing.T) {
	valid := auth.RegisterInput{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Password: "secret1"}

	tests := []struct {
		name   string
		mutate func(*auth.RegisterInput)
		field  string
	}{
		{name: "first name too short", mutate: func(in *auth.RegisterInput) { in.FirstName = "A" }, field: auth.FieldFirstName},
		{name: "first name too long", mutate: func(in *auth.RegisterInput) { in.FirstName = "Bartholomewsworth" }, field: auth.FieldFirstName},
		{name: "last name too short", mutate: func(in *auth.RegisterInput) { in.LastName = "Li" }, field: auth.FieldLastName},
		{name: "last name too long", mutate: func(in *auth.RegisterInput) { in.LastName = "Wolfeschlegelsteinhausen" }, field: auth.FieldLastName},
		{name: "missing email", mutate: func(in *auth.RegisterInput) { in.Email = "   " }, field: auth.FieldEmail},
		{name: "malformed email", mutate: func(in *auth.RegisterInput) { in.Email = "ada.example.com" }, field: auth.FieldEmail},
		{name: "password too short", mutate: func(in *auth.RegisterInput) { in.Password = "12345" }, field: auth.FieldPassword},
		{name: "password over bcrypt limit", mutate: func(in *auth.RegisterInput) { in.Password = string(make([]byte, 73)) }, field: auth.FieldPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			input := valid
			tt.mutate(&input)

			_, err := f.service.Register(context.Background(), input)

			appError := apperr.As(err)
			require.NotNil(t, appError)
			assert.Equal(t, "VALIDATION_ERROR", appError.Code)

			fields := make([]string, 0, len(appError.Details))
			for _, detail := range appError.Details {
				fields = append(fields, detail.Field)
			}
			assert.Contains(t, fields, tt.field)
			assert.Nil(t, f.store.get(input.Email))
		})
	}
}

// # Login

func TestService_LoginUser(t *testing.T) {
	f := newFixture(t)
	registered := f.register(t, "ada@example.com", "secret1")
	f.register(t, "off@example.com", "secret1")
	f.store.update("off@example.com", func(account *auth.Account) { account.Disabled = true })
	f.seedAdmin(t, "root@example.com", "rootpass", false)

	t.Run("correct credentials", func(t *testing.T) {
		result, err := f.service.LoginUser(context.Background(), "ada@example.com", "secret1")
		require.NoError(t, err)
		assert.Equal(t, registered.ID, result.ID)

		claims, err := f.tokens.Validate(result.Token)
		require.NoError(t, err)
		assert.Equal(t, sec.RoleUser, claims.Role)
	})

	rejected := []struct {
		name     string
		email    string
		password string
	}{
		{name: "wrong password", email: "ada@example.com", password: "secret2"},
		{name: "unknown email", email: "ghost@example.com", password: "secret1"},
		{name: "disabled account", email: "off@example.com", password: "secret1"},
		{name: "admin account", email: "root@example.com", password: "rootpass"},
	}

	for _, tt := range rejected {
		t.Run(tt.name, func(t *testing.T) {
			result, err := f.service.LoginUser(context.Background(), tt.email, tt.password)
			assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
			assert.Nil(t, result)
		})
	}
}

func TestService_LoginAdmin(t *testing.T) {
	f := newFixture(t)
	admin := f.seedAdmin(t, "root@example.com", "rootpass", false)
	disabledAdmin := f.seedAdmin(t, "old@example.com", "oldpass1", true)
	f.register(t, "ada@example.com", "secret1")

	t.Run("admin credentials", func(t *testing.T) {
		result, err := f.service.LoginAdmin(context.Background(), "root@example.com", "rootpass")
		require.NoError(t, err)
		assert.Equal(t, admin.ID, result.ID)

		claims, err := f.tokens.Validate(result.Token)
		require.NoError(t, err)
		assert.Equal(t, sec.RoleAdmin, claims.Role)
	})

	t.Run("disabled admin is still accepted", func(t *testing.T) {
		result, err := f.service.LoginAdmin(context.Background(), "old@example.com", "oldpass1")
		require.NoError(t, err)
		assert.Equal(t, disabledAdmin.ID, result.ID)
	})

	t.Run("ordinary user is rejected", func(t *testing.T) {
		_, err := f.service.LoginAdmin(context.Background(), "ada@example.com", "secret1")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := f.service.LoginAdmin(context.Background(), "root@example.com", "nope1234")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})
}

func TestService_Login_StorageFailure(t *testing.T) {
	f := newFixture(t)
	f.store.failWith = errors.New("connection reset")

	_, err := f.service.LoginUser(context.Background(), "ada@example.com", "secret1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestService_Login_UnknownEmailStillVerifies(t *testing.T) {
	store := newMemoryStore()
	hasher := &countingHasher{PasswordHasher: sec.NewPasswordHasher(bcrypt.MinCost, 4)}
	service := auth.NewService(auth.NewAccountRepository(store, hasher), hasher, newTokens(t))

	for range 3 {
		_, err := service.LoginUser(context.Background(), "ghost@example.com", "secret1")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	}
	_, err := service.LoginAdmin(context.Background(), "nobody@example.com", "rootpass")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	assert.Equal(t, int64(4), hasher.verifies.Load())
	assert.Equal(t, int64(1), hasher.hashes.Load(), "decoy hash is computed once")
}

func TestService_RegisterThenLogin(t *testing.T) {
	f := newFixture(t)

	registered := f.register(t, "a@x.com", "secret1")
	assert.Equal(t, sec.RoleUser, f.store.get("a@x.com").Role)

	login, err := f.service.LoginUser(context.Background(), "a@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, login.ID)

	claims, err := f.tokens.Validate(login.Token)
	require.NoError(t, err)
	assert.Equal(t, sec.RoleUser, claims.Role)

	_, err = f.service.LoginAdmin(context.Background(), "a@x.com", "secret1")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

// # Session Resolution

func TestService_Resolve(t *testing.T) {
	f := newFixture(t)
	registered := f.register(t, "ada@example.com", "secret1")

	profile, err := f.service.Resolve(context.Background(), registered.Token)
	require.NoError(t, err)
	assert.Equal(t, &auth.Profile{
		ID:        registered.ID,
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Role:      sec.RoleUser,
	}, profile)
}

func TestService_Resolve_Admin(t *testing.T) {
	f := newFixture(t)
	f.seedAdmin(t, "root@example.com", "rootpass", false)

	login, err := f.service.LoginAdmin(context.Background(), "root@example.com", "rootpass")
	require.NoError(t, err)

	profile, err := f.service.Resolve(context.Background(), login.Token)
	require.NoError(t, err)
	assert.Equal(t, sec.RoleAdmin, profile.Role)
	assert.Equal(t, login.ID, profile.ID)
}

func TestService_Resolve_Unauthorized(t *testing.T) {
	f := newFixture(t)
	registered := f.register(t, "ada@example.com", "secret1")
	other := f.register(t, "bob@example.com", "secret1")

	pastIssuer := newTokens(t, sec.WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) }))
	expired, err := pastIssuer.Issue(registered.ID, "ada@example.com", sec.RoleUser, time.Minute)
	require.NoError(t, err)

	// Correctly signed, but the subject belongs to another account.
	mismatched, err := f.tokens.Issue(other.ID, "ada@example.com", sec.RoleUser, 0)
	require.NoError(t, err)

	// A user token claiming the admin partition finds no admin row.
	escalated, err := f.tokens.Issue(registered.ID, "ada@example.com", sec.RoleAdmin, 0)
	require.NoError(t, err)

	parts := strings.Split(registered.Token, ".")
	signature := []byte(parts[2])
	if signature[0] == 'A' {
		signature[0] = 'B'
	} else {
		signature[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(signature)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not.a.token"},
		{name: "tampered", token: tampered},
		{name: "expired", token: expired},
		{name: "subject mismatch", token: mismatched},
		{name: "role escalation", token: escalated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile, err := f.service.Resolve(context.Background(), tt.token)
			assert.ErrorIs(t, err, auth.ErrUnauthorized)
			assert.Nil(t, profile)
		})
	}

	t.Run("account disabled after issuance", func(t *testing.T) {
		f.store.update("ada@example.com", func(account *auth.Account) { account.Disabled = true })
		_, err := f.service.Resolve(context.Background(), registered.Token)
		assert.ErrorIs(t, err, auth.ErrUnauthorized)
	})

	t.Run("account removed after issuance", func(t *testing.T) {
		f.store.delete("bob@example.com")
		_, err := f.service.Resolve(context.Background(), other.Token)
		assert.ErrorIs(t, err, auth.ErrUnauthorized)
	})
}

func TestService_Resolve_FollowsAccountState(t *testing.T) {
	f := newFixture(t)
	registered := f.register(t, "ada@example.com", "secret1")

	resolve := func() (*auth.Profile, error) {
		return f.service.Resolve(context.Background(), registered.Token)
	}

	profile, err := resolve()
	require.NoError(t, err)
	assert.Equal(t, registered.ID, profile.ID)

	f.store.update("ada@example.com", func(account *auth.Account) { account.Disabled = true })
	_, err = resolve()
	assert.ErrorIs(t, err, auth.ErrUnauthorized)

	f.store.update("ada@example.com", func(account *auth.Account) { account.Disabled = false })
	_, err = resolve()
	require.NoError(t, err)

	f.store.delete("ada@example.com")
	_, err = resolve()
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
}

func TestService_Resolve_StorageFailure(t *testing.T) {
	f := newFixture(t)
	registered := f.register(t, "ada@example.com", "secret1")
	f.store.failWith = errors.New("connection reset")

	_, err := f.service.Resolve(context.Background(), registered.Token)
	require.Error(t, err)
	assert.NotErrorIs(t, err, auth.ErrUnauthorized)
}

func TestService_WithTokenTTL(t *testing.T) {
	f := newFixture(t, auth.WithTokenTTL(10*time.Minute))
	registered := f.register(t, "ada@example.com", "secret1")

	claims, err := f.tokens.Validate(registered.Token)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}
