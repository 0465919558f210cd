// Copyright (c) 2026 FitHub. All rights reserved.

package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const googleTestAudience = "fithub-client-id.apps.googleusercontent.com"

// newStubVerifier points a GoogleVerifier at a local tokeninfo stand-in.
func newStubVerifier(t *testing.T, handler http.HandlerFunc) *GoogleVerifier {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	verifier := NewGoogleVerifier(googleTestAudience)
	verifier.endpoint = server.URL
	verifier.client = server.Client()
	return verifier
}

// tokenInfoResponse renders a tokeninfo payload with sane defaults that
// individual tests override.
func tokenInfoResponse(overrides map[string]string) map[string]string {
	payload := map[string]string{
		"iss":            "https://accounts.google.com",
		"aud":            googleTestAudience,
		"email":          "jamie@gmail.com",
		"email_verified": "true",
		"given_name":     "Jamie",
		"family_name":    "Fox",
	}
	for key, value := range overrides {
		payload[key] = value
	}
	return payload
}

func TestGoogleVerifier_Verify(t *testing.T) {
	verifier := newStubVerifier(t, func(writer http.ResponseWriter, request *http.Request) {
		// The raw token must be forwarded for upstream validation.
		assert.Equal(t, "stub-id-token", request.URL.Query().Get("id_token"))
		writeJSON(t, writer, http.StatusOK, tokenInfoResponse(nil))
	})

	claims, err := verifier.Verify(context.Background(), "stub-id-token")
	require.NoError(t, err)

	assert.Equal(t, "jamie@gmail.com", claims.Email)
	assert.Equal(t, "Jamie", claims.GivenName)
	assert.Equal(t, "Fox", claims.FamilyName)
}

func TestGoogleVerifier_Verify_Rejections(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		response map[string]string
	}{
		{
			name:     "upstream rejects the token",
			status:   http.StatusBadRequest,
			response: map[string]string{"error": "invalid_token"},
		},
		{
			name:     "audience belongs to another application",
			status:   http.StatusOK,
			response: tokenInfoResponse(map[string]string{"aud": "someone-else.apps.googleusercontent.com"}),
		},
		{
			name:     "issuer is not google",
			status:   http.StatusOK,
			response: tokenInfoResponse(map[string]string{"iss": "https://evil.example.com"}),
		},
		{
			name:     "email not verified by the provider",
			status:   http.StatusOK,
			response: tokenInfoResponse(map[string]string{"email_verified": "false"}),
		},
		{
			name:     "email missing entirely",
			status:   http.StatusOK,
			response: tokenInfoResponse(map[string]string{"email": ""}),
		},
	}

	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			verifier := newStubVerifier(t, func(writer http.ResponseWriter, request *http.Request) {
				writeJSON(t, writer, testCase.status, testCase.response)
			})

			claims, err := verifier.Verify(context.Background(), "stub-id-token")
			assert.Error(t, err)
			assert.Nil(t, claims)
		})
	}
}

func TestGoogleVerifier_Verify_EmptyToken(t *testing.T) {
	// No request should ever leave the process for an empty token.
	verifier := newStubVerifier(t, func(http.ResponseWriter, *http.Request) {
		t.Fatal("unexpected request to tokeninfo endpoint")
	})

	_, err := verifier.Verify(context.Background(), "")
	assert.Error(t, err)
}

func TestGoogleVerifier_Verify_UnreachableUpstream(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	verifier := NewGoogleVerifier(googleTestAudience)
	verifier.endpoint = server.URL
	verifier.client = server.Client()
	server.Close()

	_, err := verifier.Verify(context.Background(), "stub-id-token")
	assert.Error(t, err)
}
