// Copyright (c) 2026 FitHub. All rights reserved.

package auth

import (
	"context"
)

// # Principal Data Access

// PrincipalRepository defines the data access contract for principal accounts.
type PrincipalRepository interface {

	/*
		FindByID returns the principal with the given numeric ID.

		Parameters:
		  - context: context.Context
		  - id: int64

		Returns:
		  - *Principal: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByID(context context.Context, id int64) (*Principal, error)

	/*
		FindByEmail returns the principal with the given email.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *Principal: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByEmail(context context.Context, email string) (*Principal, error)

	/*
		ExistsByUsername reports whether a principal already holds the username.

		Parameters:
		  - context: context.Context
		  - username: string

		Returns:
		  - bool: Presence flag
		  - error: Database retrieval failures
	*/
	ExistsByUsername(context context.Context, username string) (bool, error)

	/*
		Create persists a brand-new principal and fills in its generated ID.

		Description: The store enforces the email and username uniqueness
		constraints; a violation surfaces as apperr.Conflict so that
		concurrent federated sign-ins can detect the race and re-fetch.

		Parameters:
		  - context: context.Context
		  - principal: *Principal

		Returns:
		  - error: apperr.Conflict on uniqueness violations, or persistence failures
	*/
	Create(context context.Context, principal *Principal) error

	/*
		UpdatePassword replaces only the principal's password hash.

		Parameters:
		  - context: context.Context
		  - id: int64
		  - newHash: string

		Returns:
		  - error: Persistence failures
	*/
	UpdatePassword(context context.Context, id int64, newHash string) error

	/*
		List returns all principals ordered by ID.

		Description: Serves the operator-only account listing; the token
		flows themselves never iterate principals.

		Parameters:
		  - context: context.Context

		Returns:
		  - []*Principal: Hydrated entities
		  - error: Database retrieval failures
	*/
	List(context context.Context) ([]*Principal, error)
}

// # Volatile Data Access

// ResetTokenRepository defines the contract for storing single-use password
// reset grants keyed by their raw token string.
type ResetTokenRepository interface {

	/*
		Set stores a reset grant under the raw token for the retention window.

		Parameters:
		  - context: context.Context
		  - token: string
		  - grant: PasswordResetToken

		Returns:
		  - error: Persistence failures
	*/
	Set(context context.Context, token string, grant PasswordResetToken) error

	/*
		Get retrieves the grant associated with a raw token.

		Description: Returns apperr.NotFound when the token is unknown,
		already consumed, or past physical retention. Logical expiry is
		the caller's decision.

		Parameters:
		  - context: context.Context
		  - token: string

		Returns:
		  - *PasswordResetToken: The stored grant
		  - error: apperr.NotFound or retrieval failures
	*/
	Get(context context.Context, token string) (*PasswordResetToken, error)

	/*
		Delete removes a grant after successful consumption.

		Parameters:
		  - context: context.Context
		  - token: string

		Returns:
		  - error: Persistence failures
	*/
	Delete(context context.Context, token string) error
}
