// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away common body decoding and header parsing patterns, ensuring
consistent error handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/taibuivan/authserver/internal/platform/constants"
	"github.com/taibuivan/authserver/internal/platform/validate"
)

// maxBodyBytes caps decoded request bodies; auth payloads are tiny.
const maxBodyBytes = 64 << 10

/*
DecodeJSON reads the request body and decodes it into the target structure.

Unknown fields are discarded: targets enumerate exactly the fields a handler accepts.

Parameters:
  - request: *http.Request
  - target: any (Pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(request *http.Request, target any) error {
	body := io.LimitReader(request.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
IsForm reports whether the request body is URL-encoded form data.
*/
func IsForm(request *http.Request) bool {
	contentType := request.Header.Get("Content-Type")
	return strings.HasPrefix(strings.ToLower(contentType), "application/x-www-form-urlencoded")
}

/*
DecodeForm parses a URL-encoded body and returns its fields.

The body is capped like DecodeJSON. Query string values are not included.

Returns:
  - url.Values: The posted fields
  - error: validate.ErrInvalidForm if parsing fails
*/
func DecodeForm(request *http.Request) (url.Values, error) {
	request.Body = io.NopCloser(io.LimitReader(request.Body, maxBodyBytes))
	if err := request.ParseForm(); err != nil {
		return nil, validate.ErrInvalidForm
	}
	return request.PostForm, nil
}

/*
BearerToken extracts the token from an "Authorization: Bearer <token>" header.

Returns:
  - string: The raw token
  - bool: false when the header is absent or not a bearer credential
*/
func BearerToken(request *http.Request) (string, bool) {
	header := request.Header.Get(constants.HeaderAuthorization)
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}

	return token, true
}
