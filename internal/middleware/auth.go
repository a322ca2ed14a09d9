package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/simp/internal/auth"
)

// RevocationChecker reports whether a token id was logged out.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// RequireAuth verifies the bearer token, or the session cookie when no
// Authorization header is sent, and populates AuthContext.
func RequireAuth(tokens *auth.TokenManager, revoked RevocationChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := tokenClaims(r, tokens)
			if err != nil {
				unauthorized(w, err)
				return
			}

			isRevoked, err := revoked.IsRevoked(r.Context(), claims.ID)
			if err != nil {
				logger.Error("check token revocation", "error", err)
				writeError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			if isRevoked {
				unauthorized(w, auth.ErrRevokedToken)
				return
			}

			ac := auth.AuthContext{
				PersonID: claims.PersonID,
				Username: claims.Username,
				TokenID:  claims.ID,
			}
			if claims.ExpiresAt != nil {
				ac.ExpiresAt = claims.ExpiresAt.Time
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tokenClaims(r *http.Request, tokens *auth.TokenManager) (*auth.Claims, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		token, ok := strings.CutPrefix(h, "Bearer ")
		if !ok {
			return nil, auth.ErrInvalidToken
		}
		return tokens.Verify(strings.TrimSpace(token))
	}
	cookie, err := r.Cookie(auth.CookieName)
	if err != nil {
		return nil, auth.ErrMissingToken
	}
	return tokens.VerifyCookie(cookie.Value)
}

func unauthorized(w http.ResponseWriter, err error) {
	msg := auth.ErrInvalidToken.Error()
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		msg = auth.ErrMissingToken.Error()
	case errors.Is(err, auth.ErrRevokedToken):
		msg = auth.ErrRevokedToken.Error()
	}
	w.Header().Set("WWW-Authenticate", `Bearer realm="simp"`)
	writeError(w, http.StatusUnauthorized, msg)
}
