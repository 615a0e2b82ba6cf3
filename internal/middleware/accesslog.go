package middleware

import (
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wudi/paysim/internal/logging"
)

var accessLogRWPool = sync.Pool{
	New: func() any { return &accessLogResponseWriter{} },
}

// accessLogResponseWriter captures status code and bytes written
type accessLogResponseWriter struct {
	http.ResponseWriter
	statusCode int
	bytes      int64
}

func (w *accessLogResponseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *accessLogResponseWriter) Write(b []byte) (int, error) {
	if w.statusCode == 0 {
		w.statusCode = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += int64(n)
	return n, err
}

// AccessLog logs one structured line per completed request.
func AccessLog() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lw := accessLogRWPool.Get().(*accessLogResponseWriter)
			lw.ResponseWriter = w
			lw.statusCode = 0
			lw.bytes = 0

			start := time.Now()
			next.ServeHTTP(lw, r)

			status := lw.statusCode
			if status == 0 {
				status = http.StatusOK
			}
			logging.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Int64("bytes", lw.bytes),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", RequestIDFromContext(r.Context())),
				zap.String("remote_addr", r.RemoteAddr),
			)

			lw.ResponseWriter = nil
			accessLogRWPool.Put(lw)
		})
	}
}
