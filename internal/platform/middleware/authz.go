// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package middleware provides the HTTP middleware chain for the auth API server.
//
// # Architecture
//
// Middleware intercepts incoming HTTP requests to apply global policies
// before they reach the domain handlers. This includes cross-cutting concerns
// like Logging, bearer extraction, and CORS.
package middleware

import (
	"net/http"

	"github.com/taibuivan/authserver/internal/platform/constants"
	"github.com/taibuivan/authserver/internal/platform/ctxutil"
	requestutil "github.com/taibuivan/authserver/internal/platform/request"
)

// RequireBearer blocks requests that carry no bearer credential.
//
// # Flow
//  1. Read 'Authorization: Bearer <token>'.
//  2. If absent or malformed, abort with HTTP 401 and a Bearer challenge.
//  3. Otherwise store the raw token in the context.
//
// The token is NOT validated here: the session resolver validates it so that
// every failure mode maps to the same unauthorized outcome.
func RequireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		token, ok := requestutil.BearerToken(request)
		if !ok {
			writer.Header().Set(constants.HeaderWWWAuthenticate, constants.BearerChallenge)
			writeError(writer, http.StatusUnauthorized, "UNAUTHORIZED", "Not authenticated")
			return
		}

		ctx := ctxutil.WithBearerToken(request.Context(), token)
		next.ServeHTTP(writer, request.WithContext(ctx))
	})
}
