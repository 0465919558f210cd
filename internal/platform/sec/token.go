// Copyright (c) 2026 FitHub. All rights reserved.

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing) from
// the domain logic. It acts as an Infrastructure service injected into the
// Application layer via the [auth.TokenCodec] interface.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned by [TokenCodec.Verify] for any token that fails
// signature, structure, or expiry validation. Callers translate it into a
// client-safe 401 at the boundary; the underlying parse error stays wrapped
// for server-side logs.
var ErrInvalidToken = errors.New("sec: invalid token")

// minSecretLength is the minimum byte length accepted for the HS256 secret.
const minSecretLength = 32

// AuthClaims is the payload embedded inside a signed session token.
//
// # Access vs Refresh
//
// Access tokens carry UserID and Roles so that role checks can run without a
// database round-trip once the principal has been resolved. Refresh tokens
// deliberately carry neither: a refresh token is a weaker credential that must
// always be re-exchanged through full principal resolution, so a leaked
// refresh token cannot be replayed to assert a role directly.
type AuthClaims struct {
	jwt.RegisteredClaims

	UserID int64    `json:"userId,omitempty"`
	Roles  []string `json:"roles,omitempty"`
}

// TokenCodec signs and verifies compact session tokens using HS256 over a
// symmetric secret. It holds no mutable state and is safe for concurrent use.
type TokenCodec struct {
	secret []byte
	issuer string
}

// NewTokenCodec constructs a [TokenCodec] from the configured signing secret.
func NewTokenCodec(secret, issuer string) (*TokenCodec, error) {
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("sec: signing secret must be at least %d bytes", minSecretLength)
	}
	return &TokenCodec{secret: []byte(secret), issuer: issuer}, nil
}

/*
IssueAccessToken creates a signed short-lived access token.

Description: Embeds the principal's numeric ID and role next to the standard
subject/issued-at/expiry claims. The subject is always the login email.

Parameters:
  - userID: int64
  - email: string (token subject)
  - role: Role
  - timeToLive: time.Duration

Returns:
  - string: Compact signed JWT
  - error: Signing failures
*/
func (codec *TokenCodec) IssueAccessToken(userID int64, email string, role Role, timeToLive time.Duration) (string, error) {
	claims := AuthClaims{
		RegisteredClaims: codec.registeredClaims(email, timeToLive),
		UserID:           userID,
		Roles:            []string{string(role)},
	}
	return codec.sign(claims)
}

/*
IssueRefreshToken creates a signed long-lived refresh token.

Description: Carries only the subject; id and role are intentionally absent
(see [AuthClaims]).

Parameters:
  - email: string (token subject)
  - timeToLive: time.Duration

Returns:
  - string: Compact signed JWT
  - error: Signing failures
*/
func (codec *TokenCodec) IssueRefreshToken(email string, timeToLive time.Duration) (string, error) {
	claims := AuthClaims{
		RegisteredClaims: codec.registeredClaims(email, timeToLive),
	}
	return codec.sign(claims)
}

/*
Verify checks signature integrity and expiry of a token string.

Description: Returns [ErrInvalidToken] (wrapped) for empty input, malformed
structure, tampered payloads, unexpected signing algorithms, and expired
tokens. It never panics on hostile input.

Parameters:
  - tokenString: string

Returns:
  - *AuthClaims: Verified claim set
  - error: ErrInvalidToken wrapping the parser's reason
*/
func (codec *TokenCodec) Verify(tokenString string) (*AuthClaims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Reject alg confusion: only the configured HMAC family is acceptable.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return codec.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: unexpected claims payload", ErrInvalidToken)
	}

	return claims, nil
}

/*
ExtractSubject returns the subject (login email) of a token.

Description: Convenience accessor used by the refresh flow after Verify has
already succeeded. The token is re-validated on the way; an invalid token
yields the same failure as [TokenCodec.Verify].

Parameters:
  - tokenString: string

Returns:
  - string: Subject claim
  - error: ErrInvalidToken on any validation failure
*/
func (codec *TokenCodec) ExtractSubject(tokenString string) (string, error) {
	claims, err := codec.Verify(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// registeredClaims builds the standard claim block shared by both token kinds.
func (codec *TokenCodec) registeredClaims(subject string, timeToLive time.Duration) jwt.RegisteredClaims {
	currentTime := time.Now()
	return jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    codec.issuer,
		IssuedAt:  jwt.NewNumericDate(currentTime),
		ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
	}
}

// sign produces the compact serialized form of the claims.
func (codec *TokenCodec) sign(claims AuthClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(codec.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}
	return signedToken, nil
}
