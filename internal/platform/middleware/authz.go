// Copyright (c) 2026 FitHub. All rights reserved.

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/ideafit/fithub/internal/platform/apperr"
	"github.com/ideafit/fithub/internal/platform/ctxutil"
	"github.com/ideafit/fithub/internal/platform/respond"
	"github.com/ideafit/fithub/internal/platform/sec"
)

// TokenVerifier defines the interface needed to verify bearer tokens.
//
// # Why an interface?
//
// Defining TokenVerifier here decouples the gate from the concrete codec
// implementation, allowing us to easily inject mocks during unit testing.
// Satisfied by [sec.TokenCodec].
type TokenVerifier interface {
	Verify(tokenString string) (*sec.AuthClaims, error)
}

// IdentityResolver re-resolves a verified token subject into a live caller.
//
// A valid signature alone is not enough: the account behind the token may
// have been removed since issuance, so every authenticated request goes back
// to storage. Satisfied by the auth service's principal resolver.
type IdentityResolver interface {
	ResolveIdentity(context context.Context, subject string) (*sec.Identity, error)
}

// Authenticate builds the request authorization gate.
//
// # Flow
//  1. Check for 'Authorization: Bearer <token>' header.
//  2. If absent, the request proceeds as anonymous.
//  3. If present, verify the token and re-resolve the principal by subject.
//  4. Inject [*sec.Identity] into the request context for downstream use.
//
// # Degradation
//
// The gate never rejects a request itself. A malformed header, a bad token,
// or a vanished account all degrade the request to anonymous and let it
// proceed; the per-endpoint checks ([RequireAuth], [RequireRoles]) decide
// whether anonymous is acceptable there. This keeps public endpoints usable
// for clients still carrying a stale cached token.
func Authenticate(verifier TokenVerifier, resolver IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authHeader := request.Header.Get("Authorization")

			// ── 1. Anonymous Access ───────────────────────────────────────────
			if authHeader == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Format Validation ──────────────────────────────────────────
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 3. Token Verification ─────────────────────────────────────────
			claims, err := verifier.Verify(parts[1])
			if err != nil {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 4. Principal Resolution ───────────────────────────────────────
			identity, err := resolver.ResolveIdentity(request.Context(), claims.Subject)
			if err != nil {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 5. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithIdentity(request.Context(), identity)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate].
//
// # Flow
//  1. Check if [*sec.Identity] exists in context.
//  2. If missing, abort with HTTP 401 Unauthorized.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if GetIdentity(request.Context()) == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireRoles blocks requests unless the caller holds one of the allowed roles.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate]. It implies
// [RequireAuth] so you don't need to mount both.
//
// # Flow
//  1. Check if [*sec.Identity] exists in context; abort with 401 if not.
//  2. Check exact membership of the caller's role in the allowed set.
//     There is no role hierarchy: ADMIN passes only where ADMIN is listed.
//  3. If not a member, abort with HTTP 403 Forbidden.
func RequireRoles(allowed ...sec.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			identity := GetIdentity(request.Context())

			// ── 1. Authentication Check ───────────────────────────────────────
			if identity == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			// ── 2. Authorization Check ────────────────────────────────────────
			if !identity.Role.In(allowed...) {
				respond.Error(writer, request, apperr.Forbidden("Insufficient permissions"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// GetIdentity retrieves the [*sec.Identity] from the [context.Context].
//
// # Returns
//   - The resolved caller if the request is authenticated.
//   - nil if the request is anonymous.
func GetIdentity(ctx context.Context) *sec.Identity {
	return ctxutil.GetIdentity(ctx)
}
