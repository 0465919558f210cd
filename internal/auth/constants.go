// Copyright (c) 2026 FitHub. All rights reserved.

package auth

import "time"

// # Authentication Constraints

const (
	// DefaultAccessTokenTTL is the fallback lifetime of an access token.
	// Short-lived so a leaked token has a bounded blast radius.
	DefaultAccessTokenTTL = 15 * time.Minute

	// DefaultRefreshTokenTTL is the fallback lifetime of a refresh token.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour

	// ResetTokenTTL is the logical validity window of a password reset
	// token. Fixed at 15 minutes: long enough to open an email, short
	// enough to bound the damage of a leaked link.
	ResetTokenTTL = 15 * time.Minute

	// ResetTokenRetention is the physical retention of the reset grant in
	// the volatile store. It deliberately exceeds ResetTokenTTL so that a
	// token redeemed after its logical deadline is still found and can be
	// reported as expired rather than unknown.
	ResetTokenRetention = 24 * time.Hour

	// ResetTokenLength is the byte length of the random reset token.
	ResetTokenLength = 32

	// FederatedPasswordLength is the byte length of the random, unusable
	// password assigned to auto-provisioned federated accounts. The raw
	// value is discarded immediately after hashing, so these accounts can
	// never authenticate via the password flow.
	FederatedPasswordLength = 32

	// notifyTimeout bounds the fire-and-forget notification emails sent
	// after sign-up and reset requests.
	notifyTimeout = 10 * time.Second
)
