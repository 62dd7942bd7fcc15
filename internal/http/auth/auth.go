package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type ctxKey struct{}

// Middleware verifies HS256 bearer tokens and stores the subject as the
// acting user. Requests without a valid token get 401.
func Middleware(secret []byte) func(http.Handler) http.Handler {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)

	keyFunc := func(*jwt.Token) (any, error) { return secret, nil }

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			var claims jwt.RegisteredClaims
			if _, err := parser.ParseWithClaims(raw, &claims, keyFunc); err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			actorID, err := uuid.Parse(claims.Subject)
			if err != nil {
				http.Error(w, "invalid token subject", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actorID)))
		})
	}
}

func WithActor(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

var ErrNoActor = errors.New("no authenticated user")

// ActorFrom returns the user id stored by Middleware.
func ActorFrom(ctx context.Context) (uuid.UUID, error) {
	id, ok := ctx.Value(ctxKey{}).(uuid.UUID)
	if !ok {
		return uuid.Nil, ErrNoActor
	}

	return id, nil
}
