package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/api/middleware"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/testutil"
)

// TestValidateUUIDMiddleware tests the {uuid} path parameter check.
// WHY: handlers behind it pass the id straight to the archive lookup.
func TestValidateUUIDMiddleware(t *testing.T) {
	cases := []struct {
		name       string
		params     map[string]string
		wantCalled bool
		wantStatus int
		wantError  string
	}{
		{
			name:       "passes through valid UUID",
			params:     map[string]string{"uuid": "550e8400-e29b-41d4-a716-446655440000"},
			wantCalled: true,
			wantStatus: http.StatusOK,
		},
		{
			name:       "rejects malformed UUID",
			params:     map[string]string{"uuid": "invalid-id"},
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid UUID format",
		},
		{
			name:       "rejects empty UUID",
			params:     map[string]string{"uuid": ""},
			wantStatus: http.StatusBadRequest,
			wantError:  "valid UUID is required",
		},
		{
			name:       "rejects request without route context",
			wantStatus: http.StatusBadRequest,
			wantError:  "valid UUID is required",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// Setup
			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			})
			req := testutil.NewRequestWithURLParams(http.MethodPost, "/api/uploads/x/restore", tc.params)
			w := httptest.NewRecorder()

			// Execute
			middleware.ValidateUUIDMiddleware(next).ServeHTTP(w, req)

			// Assert
			assert.Equal(t, tc.wantCalled, called)
			assert.Equal(t, tc.wantStatus, w.Code)
			if tc.wantError != "" {
				var body map[string]interface{}
				require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
				assert.Equal(t, tc.wantError, body["error"])
			}
		})
	}
}
