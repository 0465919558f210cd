// Copyright (c) 2026 FitHub. All rights reserved.

/*
Package auth implements the credential issuance, session-token management,
and identity-federation subsystem.

It defines the core domain entity (Principal) and the orchestration logic for
sign-up, sign-in, token refresh, federated sign-in, and the password-reset
lifecycle.

# Architecture

This layer is the "Truth" of the identity system. The entity defined here has
no transport or storage dependencies; every collaborator (credential store,
reset-token store, token codec, federation verifier, mail sender) is an
injected interface.
*/
package auth

import (
	"time"

	"github.com/ideafit/fithub/internal/platform/sec"
)

// # Domain Entities

// Gender is a self-reported profile attribute. Not used by any authorization
// decision.
type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"
)

// Status tracks account availability. New and federated accounts start
// AVAILABLE; suspension is managed outside this subsystem.
type Status string

const (
	StatusAvailable Status = "AVAILABLE"
	StatusSuspended Status = "SUSPENDED"
)

// Principal is the authenticated account record.
//
// One flat record with a Role tag replaces the source system's class
// hierarchy of account kinds; role-specific coaching data lives in the
// out-of-scope domain modules, keyed by this ID.
//
// # Invariants
//
// Email and Username are globally unique across every principal kind. Role is
// immutable inside this subsystem.
type Principal struct {
	ID           int64     `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Explicitly omitted from JSON for security.
	Gender       Gender    `json:"gender"`
	PhoneNumber  string    `json:"phoneNumber"`
	Role         sec.Role  `json:"role"`
	Status       Status    `json:"status"`
	Birthday     time.Time `json:"birthday,omitempty"`
	Description  string    `json:"description,omitempty"`
	Photo        string    `json:"photo,omitempty"`
	HeightMeters float64   `json:"height"`
	WeightKilos  float64   `json:"weight"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// PasswordResetToken is the grant behind a single-use reset token string.
//
// The raw token itself is never stored here; it is the lookup key in the
// volatile store. ExpiresAt is the logical 15-minute deadline and is always
// checked by the orchestrator — the store's own retention TTL is merely a
// housekeeping bound.
type PasswordResetToken struct {
	PrincipalID int64     `json:"principal_id"`
	Email       string    `json:"email"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Expired reports whether the grant's logical deadline has passed.
func (t *PasswordResetToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// # Field Identifiers

// Field names for validation and identity mapping in the auth domain.
const (
	FieldFirstName    = "firstName"
	FieldLastName     = "lastName"
	FieldUsername     = "username"
	FieldEmail        = "email"
	FieldPassword     = "password"
	FieldNewPassword  = "newPassword"
	FieldPhoneNumber  = "phoneNumber"
	FieldGender       = "gender"
	FieldRole         = "role"
	FieldHeight       = "height"
	FieldWeight       = "weight"
	FieldToken        = "token"
	FieldIDToken      = "idToken"
	FieldRefreshToken = "refreshToken"
	FieldMessage      = "message"
)
