// Copyright (c) 2026 FitHub. All rights reserved.

package sec

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// GenerateSecureToken returns a cryptographically random, URL-safe token
// string built from byteLength bytes of entropy.
//
// Used for single-use credentials (password reset links) and for the
// unusable placeholder passwords assigned to federated accounts.
func GenerateSecureToken(byteLength int) (string, error) {
	buffer := make([]byte, byteLength)
	if _, err := rand.Read(buffer); err != nil {
		return "", fmt.Errorf("sec: failed to generate secure token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buffer), nil
}
