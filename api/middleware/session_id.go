package middleware

import (
	"net/http"
	"strings"

	"github.com/mgastelum/storefront-backend/pkg/logger"
)

const sessionIDHeader = "X-Session-Id"

// maxSessionIDLen bounds the opaque client identifier so it cannot be abused
// as a storage vector.
const maxSessionIDLen = 128

// SessionID extracts the anonymous cart identifier from the request header
// and seeds the context with it. The value is client-generated and opaque.
func SessionID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := strings.TrimSpace(r.Header.Get(sessionIDHeader))
			if sessionID == "" || len(sessionID) > maxSessionIDLen {
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithSessionID(r.Context(), sessionID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
