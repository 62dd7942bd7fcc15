package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Daunny/CRM-AUGU-sub000/internal/http/auth"
)

var secret = []byte("test-secret")

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.RegisteredClaims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)

	return token
}

func TestMiddleware(t *testing.T) {
	actorID := uuid.New()
	valid := jwt.RegisteredClaims{
		Subject:   actorID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{
			name:       "valid token",
			header:     "Bearer " + sign(t, jwt.SigningMethodHS256, secret, valid),
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing header",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "not a bearer token",
			header:     "Basic dXNlcjpwYXNz",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong secret",
			header:     "Bearer " + sign(t, jwt.SigningMethodHS256, []byte("other"), valid),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "expired",
			header: "Bearer " + sign(t, jwt.SigningMethodHS256, secret, jwt.RegisteredClaims{
				Subject:   actorID.String(),
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "no expiry",
			header: "Bearer " + sign(t, jwt.SigningMethodHS256, secret, jwt.RegisteredClaims{
				Subject: actorID.String(),
			}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "subject is not a user id",
			header: "Bearer " + sign(t, jwt.SigningMethodHS256, secret, jwt.RegisteredClaims{
				Subject:   "alice",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			}),
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got uuid.UUID

			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				id, err := auth.ActorFrom(r.Context())
				require.NoError(t, err)

				got = id
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			rec := httptest.NewRecorder()
			auth.Middleware(secret)(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)

			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, actorID, got)
			}
		})
	}
}

func TestActorFrom_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	_, err := auth.ActorFrom(req.Context())
	assert.ErrorIs(t, err, auth.ErrNoActor)
}
