// Copyright (c) 2026 FitHub. All rights reserved.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

// corsConfig is a minimal AppConfig for exercising the CORS middleware.
type corsConfig struct {
	development bool
	extras      []string
}

func (c corsConfig) IsDevelopment() bool           { return c.development }
func (c corsConfig) ExtraAllowedOrigins() []string { return c.extras }

func serveWithOrigin(t *testing.T, cfg corsConfig, method, origin string) *httptest.ResponseRecorder {
	t.Helper()

	handler := CORS(cfg)(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusOK)
	}))

	request := httptest.NewRequest(method, "/resource", nil)
	if origin != "" {
		request.Header.Set("Origin", origin)
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

func TestCORS_Production(t *testing.T) {
	cfg := corsConfig{extras: []string{"https://staging.fithub.dev", "http://localhost:5173"}}

	cases := []struct {
		name        string
		origin      string
		wantAllowed bool
	}{
		{name: "first-party domain", origin: "https://app.fithub.app", wantAllowed: true},
		{name: "configured extra origin", origin: "https://staging.fithub.dev", wantAllowed: true},
		{name: "second extra origin", origin: "http://localhost:5173", wantAllowed: true},
		{name: "extras are exact matches", origin: "https://evil.fithub.dev", wantAllowed: false},
		{name: "unknown origin", origin: "https://elsewhere.example.com", wantAllowed: false},
	}

	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			recorder := serveWithOrigin(t, cfg, http.MethodGet, testCase.origin)

			allowed := recorder.Header().Get("Access-Control-Allow-Origin")
			if testCase.wantAllowed {
				assert.Equal(t, testCase.origin, allowed)
			} else {
				assert.Empty(t, allowed)
			}
			// Disallowed origins are not blocked here; the browser enforces.
			assert.Equal(t, http.StatusOK, recorder.Code)
		})
	}
}

func TestCORS_DevelopmentAllowsAnyOrigin(t *testing.T) {
	recorder := serveWithOrigin(t, corsConfig{development: true}, http.MethodGet, "http://localhost:3000")
	assert.Equal(t, "http://localhost:3000", recorder.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_Preflight(t *testing.T) {
	cfg := corsConfig{extras: []string{"https://staging.fithub.dev"}}
	recorder := serveWithOrigin(t, cfg, http.MethodOptions, "https://staging.fithub.dev")

	assert.Equal(t, http.StatusNoContent, recorder.Code)
	assert.Equal(t, "https://staging.fithub.dev", recorder.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, recorder.Header().Get("Access-Control-Allow-Methods"))
}
