package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/odyssey-erp/stockmanagement/internal/platform/httpx"
)

// Middleware attaches the bearer token's user to the request context.
type Middleware struct {
	Tokens *TokenStore
	Logger *slog.Logger
}

// Authenticate rejects requests without a valid bearer token.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			httpx.RespondError(w, ErrUnauthenticated)
			return
		}
		user, err := m.Tokens.Resolve(r.Context(), token)
		if err != nil {
			if errors.Is(err, ErrUnauthenticated) || errors.Is(err, errInvalidToken) {
				httpx.RespondError(w, ErrUnauthenticated)
				return
			}
			if m.Logger != nil {
				m.Logger.Error("resolve bearer token", slog.Any("error", err))
			}
			httpx.RespondError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
