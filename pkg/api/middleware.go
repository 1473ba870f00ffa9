package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/tauraamui/scandaemon/pkg/api/auth"
	"github.com/tauraamui/scandaemon/pkg/log"
)

type ctxKey int

const userUUIDKey ctxKey = 0

// requireToken accepts a bearer token or, since browsers cannot set
// headers on websocket upgrades, a token query parameter.
func (h *handler) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if len(token) == 0 {
			token = r.URL.Query().Get("token")
		}
		if len(token) == 0 {
			writeError(w, http.StatusUnauthorized, "missing auth token")
			return
		}

		userUUID, err := auth.ValidateToken(h.secret, token)
		if err != nil {
			log.Debug("Rejected request to %s: %v", r.URL.Path, err)
			writeError(w, http.StatusUnauthorized, "invalid auth token")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userUUIDKey, userUUID)))
	})
}

func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}
