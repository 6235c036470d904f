package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/sentinelid/authcore/internal/core/ports"
)

type contextKey string

const contextKeySubject contextKey = "subject"

// BearerAuth validates the Authorization: Bearer <token> header against
// signer and sets the token subject (the account's user id) in the
// request context.
func BearerAuth(signer ports.TokenSigner) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or malformed authorization header")
				return
			}

			claims, err := signer.VerifyToken(parts[1])
			if err != nil {
				Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired access token")
				return
			}

			ctx := context.WithValue(r.Context(), contextKeySubject, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// subjectFromContext extracts the authenticated account's user id set
// by BearerAuth. Returns an empty string if no token was verified.
func subjectFromContext(ctx context.Context) string {
	v, _ := ctx.Value(contextKeySubject).(string)
	return v
}
