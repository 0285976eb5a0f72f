// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/authserver/internal/platform/apperr"
	"github.com/taibuivan/authserver/internal/platform/constants"
	"github.com/taibuivan/authserver/internal/platform/ctxutil"
	"github.com/taibuivan/authserver/internal/platform/middleware"
	requestutil "github.com/taibuivan/authserver/internal/platform/request"
	"github.com/taibuivan/authserver/internal/platform/respond"
	"github.com/taibuivan/authserver/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements the authentication HTTP endpoints.
type Handler struct {
	authService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{authService: service}
}

// Routes returns a [chi.Router] configured with authentication routes.
//
// # Endpoints
//   - POST /register  : Creates an ordinary-user account and returns a token.
//   - POST /token     : User login.
//   - POST /a_token   : Admin login.
//   - GET  /users/me  : Resolves the bearer token to a profile.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/register", handler.register)
	router.Post("/token", handler.loginUser)
	router.Post("/a_token", handler.loginAdmin)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireBearer)
		r.Get("/users/me", handler.me)
	})

	return router
}

// # Request Payloads

// registerRequest lists every field registration reads. A "role" sent by the
// client is discarded by the decoder.
type registerRequest struct {
	FirstName  string   `json:"first_name"`
	LastName   string   `json:"last_name"`
	Email      string   `json:"email"`
	Password   string   `json:"password"`
	Photo      string   `json:"photo"`
	Experience *float64 `json:"experience"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

/*
Register handles the creation of a new account.

POST /api/v1/auth/register

Request:
  - Body: registerRequest (first_name, last_name, email, password, optional photo and experience)

Response:
  - 201: id, email, role, access_token, token_type
  - 400: VALIDATION_ERROR
  - 409: EMAIL_TAKEN
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.authService.Register(request.Context(), RegisterInput{
		FirstName:  input.FirstName,
		LastName:   input.LastName,
		Email:      input.Email,
		Password:   input.Password,
		Photo:      input.Photo,
		Experience: input.Experience,
	})

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, map[string]any{
		FieldID:          result.ID,
		FieldEmail:       result.Email,
		FieldRole:        result.Role,
		FieldAccessToken: result.Token,
		FieldTokenType:   constants.TokenTypeBearer,
	})
}

/*
LoginUser authenticates an ordinary user.

POST /api/v1/auth/token

Request:
  - Body: {"email","password"} as JSON, or OAuth2 password form (username, password)

Response:
  - 200: access_token, token_type, id
  - 401: INVALID_CREDENTIALS with a Bearer challenge
*/
func (handler *Handler) loginUser(writer http.ResponseWriter, request *http.Request) {
	handler.login(writer, request, handler.authService.LoginUser)
}

/*
LoginAdmin authenticates an administrator.

POST /api/v1/auth/a_token

Same payloads and responses as the user login.
*/
func (handler *Handler) loginAdmin(writer http.ResponseWriter, request *http.Request) {
	handler.login(writer, request, handler.authService.LoginAdmin)
}

type loginFunc func(ctx context.Context, email, password string) (*LoginResult, error)

func (handler *Handler) login(writer http.ResponseWriter, request *http.Request, authenticate loginFunc) {
	credentials, err := decodeCredentials(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := authenticate(request.Context(), credentials.Email, credentials.Password)
	if err != nil {
		unauthorized(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		FieldAccessToken: result.Token,
		FieldTokenType:   constants.TokenTypeBearer,
		FieldID:          result.ID,
	})
}

// decodeCredentials reads login credentials from a JSON body or an OAuth2
// password-grant form, where the email travels as "username".
func decodeCredentials(request *http.Request) (*loginRequest, error) {
	var credentials loginRequest

	if requestutil.IsForm(request) {
		form, err := requestutil.DecodeForm(request)
		if err != nil {
			return nil, err
		}
		credentials.Email = form.Get(FieldUsername)
		credentials.Password = form.Get(FieldPassword)
	} else if err := requestutil.DecodeJSON(request, &credentials); err != nil {
		return nil, err
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, credentials.Email).
		Required(FieldPassword, credentials.Password)

	if err := validator.Err(); err != nil {
		return nil, err
	}

	return &credentials, nil
}

/*
Me resolves the caller's bearer token.

GET /api/v1/auth/users/me

Response:
  - 200: user {id, first_name, last_name, email, role}
  - 401: UNAUTHORIZED with a Bearer challenge
*/
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	profile, err := handler.authService.Resolve(request.Context(), ctxutil.GetBearerToken(request.Context()))
	if err != nil {
		unauthorized(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{FieldUser: profile})
}

// unauthorized writes err, adding the Bearer challenge to 401 responses.
func unauthorized(writer http.ResponseWriter, request *http.Request, err error) {
	if appError := apperr.As(err); appError != nil && appError.HTTPStatus == http.StatusUnauthorized {
		writer.Header().Set(constants.HeaderWWWAuthenticate, constants.BearerChallenge)
	}
	respond.Error(writer, request, err)
}
