// Copyright (c) 2026 FitHub. All rights reserved.

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ideafit/fithub/internal/platform/middleware"
	requestutil "github.com/ideafit/fithub/internal/platform/request"
	"github.com/ideafit/fithub/internal/platform/respond"
	"github.com/ideafit/fithub/internal/platform/sec"
)

// Handler implements the HTTP layer for profile access.
type Handler struct {
	accountService *Service
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// Routes returns a [chi.Router] configured with the profile endpoints.
//
// # Endpoints
//   - GET /me    : Authenticated caller's own profile (any role).
//   - GET /users : Full account listing (ADMIN only).
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/me", handler.getMe)
	})

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireRoles(sec.RoleAdmin))
		r.Get("/users", handler.listAccounts)
	})

	return router
}

/*
GetMe returns the authenticated caller's own profile.

GET /api/v1/me

Response:
  - 200: Principal: Fully hydrated profile
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) getMe(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	principal, err := handler.accountService.GetProfile(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, principal)
}

/*
ListAccounts returns every registered account.

GET /api/v1/users

Response:
  - 200: []Principal: All accounts
  - 401: ErrUnauthorized: Authentication required
  - 403: ErrForbidden: Caller is not an ADMIN
*/
func (handler *Handler) listAccounts(writer http.ResponseWriter, request *http.Request) {
	principals, err := handler.accountService.ListAccounts(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, principals)
}
