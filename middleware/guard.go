package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/MrEthical07/credvault"
	"github.com/MrEthical07/credvault/identity"
	"github.com/MrEthical07/credvault/internal/flows"
)

type identityContextKey struct{}
type tokenContextKey struct{}

// IdentityFromContext returns the identity resolved by Guard.
func IdentityFromContext(ctx context.Context) (identity.Public, bool) {
	id, ok := ctx.Value(identityContextKey{}).(identity.Public)
	return id, ok
}

// TokenFromContext returns the raw access envelope Guard accepted. Handlers pass it to
// Engine.Logout.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenContextKey{}).(string)
	return token, ok
}

// Guard rejects requests without a valid bearer envelope. Every authentication
// failure answers 401 with the same body; store outages answer 503.
func Guard(engine *credvault.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := flows.BearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			user, err := engine.Authenticate(r.Context(), token)
			if err != nil {
				if errors.Is(err, credvault.ErrTransient) {
					http.Error(w, "service unavailable", http.StatusServiceUnavailable)
					return
				}
				if errors.Is(err, credvault.ErrUnauthorized) {
					http.Error(w, "unauthorized", http.StatusUnauthorized)
					return
				}
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey{}, user)
			ctx = context.WithValue(ctx, tokenContextKey{}, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
