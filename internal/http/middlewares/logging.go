package middlewares

import (
	"net/http"
	"time"

	"github.com/dropDatabas3/fabula/internal/observability/logger"
)

// statusWriter captura status y bytes escritos para el access log.
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// Logging emite un access log por request y deja el logger (ya anotado con
// el request id) disponible en el contexto para los handlers.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rid := GetRequestID(r.Context())

		log := logger.L().With(logger.RequestID(rid))
		ctx := logger.ToContext(r.Context(), log)

		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r.WithContext(ctx))

		if sw.status == 0 {
			sw.status = http.StatusOK
		}
		log.Info("http request",
			logger.Method(r.Method),
			logger.Path(r.URL.Path),
			logger.Status(sw.status),
			logger.Bytes(sw.bytes),
			logger.DurationMs(time.Since(start).Milliseconds()),
		)
	})
}
