// Copyright (c) 2026 FitHub. All rights reserved.

package sec

// Identity is the request-scoped resolved caller.
//
// # Lifecycle
//
// The authorization gate builds an Identity after verifying the bearer token
// and re-resolving the principal from storage, then attaches it to the
// request context. It is passed by value through the call chain — there is no
// process-wide security context, so nothing can leak across requests.
type Identity struct {
	// ID is the principal's numeric identifier.
	ID int64

	// Email is the login identifier and token subject.
	Email string

	// Username is the public handle.
	Username string

	// Role drives the per-endpoint allowed-role membership check.
	Role Role
}
