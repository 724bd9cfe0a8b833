package api

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ajo/internal/auth"
)

// TokenValidator is satisfied by *auth.Manager.
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// RequireUser rejects requests without a valid bearer token and stores the
// token's user in the request context.
func RequireUser(tokens TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				http.Error(w, auth.ErrMissingToken.Error(), http.StatusUnauthorized)
				return
			}

			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
				http.Error(w, auth.ErrInvalidToken.Error(), http.StatusUnauthorized)
				return
			}

			claims, err := tokens.Validate(token)
			if err != nil {
				http.Error(w, auth.ErrInvalidToken.Error(), http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), claims.UserID)))
		})
	}
}

// User returns the caller set by RequireUser. Handlers are only mounted
// behind it, so a missing user is a wiring bug.
func User(r *http.Request) uuid.UUID {
	id, ok := auth.UserFrom(r.Context())
	if !ok {
		panic("api: handler mounted without RequireUser")
	}

	return id
}
