package middleware

import (
	"net/http"

	"github.com/summora/hotel/internal/locale"
)

// Locale loads the visitor's language session once per request and stores it
// on the request context for handlers to read with locale.FromContext.
func Locale(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := locale.Load(r)
		w.Header().Add("Vary", "Cookie, Accept-Language")
		next.ServeHTTP(w, r.WithContext(locale.WithSession(r.Context(), sess)))
	})
}
