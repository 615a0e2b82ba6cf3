package middleware

import (
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/wudi/paysim/internal/httperr"
	"github.com/wudi/paysim/internal/logging"
)

// Recovery converts handler panics into a 500 JSON error instead of tearing
// down the connection.
func Recovery() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logging.Error("panic recovered",
						zap.Any("error", err),
						zap.String("path", r.URL.Path),
						zap.ByteString("stack", debug.Stack()),
					)

					e := httperr.ErrInternalServer
					if id := RequestIDFromContext(r.Context()); id != "" {
						e = e.WithRequestID(id)
					}
					e.WriteJSON(w)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
