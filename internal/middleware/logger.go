// Package middleware holds the HTTP middleware shared by the hotel API routes.
package middleware

import (
	"log"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Logger writes one access line per request: request id, method, path,
// status, response bytes and latency. Uploads show up with their size.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		id := chimw.GetReqID(r.Context())
		if id == "" {
			id = "-"
		}
		log.Printf("[%s] %s %s %d %dB in=%dB %s",
			id, r.Method, r.URL.Path, status, ww.BytesWritten(), r.ContentLength, time.Since(start))
	})
}
