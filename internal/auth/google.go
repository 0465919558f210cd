// Copyright (c) 2026 FitHub. All rights reserved.

package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// # Google Federation

// googleTokenInfoEndpoint validates an ID token and returns its claims.
// Signature verification is delegated to Google itself: a tampered or
// expired token yields a non-200 response.
const googleTokenInfoEndpoint = "https://oauth2.googleapis.com/tokeninfo"

// googleVerifyTimeout bounds the round-trip to the tokeninfo endpoint so a
// slow upstream cannot stall sign-in requests indefinitely.
const googleVerifyTimeout = 10 * time.Second

// FederatedClaims is the subset of a verified Google ID token consumed by
// the federated sign-in flow. GivenName and FamilyName may be empty; the
// provisioning logic substitutes placeholders.
type FederatedClaims struct {
	Email      string
	GivenName  string
	FamilyName string
}

// GoogleVerifier validates Google-issued ID tokens against the configured
// OAuth client audience.
type GoogleVerifier struct {
	client   *http.Client
	endpoint string
	audience string
}

// NewGoogleVerifier constructs a [GoogleVerifier] for the given OAuth client ID.
func NewGoogleVerifier(audience string) *GoogleVerifier {
	return &GoogleVerifier{
		client:   &http.Client{Timeout: googleVerifyTimeout},
		endpoint: googleTokenInfoEndpoint,
		audience: audience,
	}
}

// googleTokenInfo mirrors the relevant fields of the tokeninfo response.
type googleTokenInfo struct {
	Issuer        string `json:"iss"`
	Audience      string `json:"aud"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
}

/*
Verify checks a raw ID token and extracts its federated claims.

Description: Any failure along the way (network, non-200 status, wrong
audience, unrecognized issuer, unverified or missing email) is an
authentication failure from the caller's perspective; the wrapped cause is
kept for server-side logging only.

Parameters:
  - context: context.Context
  - idToken: string (raw ID token from the client)

Returns:
  - *FederatedClaims: Verified identity attributes
  - error: Verification failures
*/
func (verifier *GoogleVerifier) Verify(context context.Context, idToken string) (*FederatedClaims, error) {
	if idToken == "" {
		return nil, fmt.Errorf("google_verify_empty_token")
	}

	endpoint := verifier.endpoint + "?id_token=" + url.QueryEscape(idToken)
	request, err := http.NewRequestWithContext(context, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("google_verify_request_failed: %w", err)
	}

	response, err := verifier.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("google_verify_round_trip_failed: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google_verify_rejected: status %d", response.StatusCode)
	}

	var info googleTokenInfo
	if err := json.NewDecoder(response.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("google_verify_decode_failed: %w", err)
	}

	if info.Audience != verifier.audience {
		return nil, fmt.Errorf("google_verify_audience_mismatch")
	}

	if info.Issuer != "accounts.google.com" && info.Issuer != "https://accounts.google.com" {
		return nil, fmt.Errorf("google_verify_unexpected_issuer: %s", info.Issuer)
	}

	if info.Email == "" || info.EmailVerified != "true" {
		return nil, fmt.Errorf("google_verify_email_unverified")
	}

	return &FederatedClaims{
		Email:      info.Email,
		GivenName:  info.GivenName,
		FamilyName: info.FamilyName,
	}, nil
}
