package middleware

import (
	"bytes"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/summora/hotel/internal/locale"
)

const secret = "test-secret"

func signed(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestRequireAuth(t *testing.T) {
	var seen string
	h := RequireAuth(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = AdminFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	exp := time.Now().Add(time.Hour).Unix()
	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + signed(t, jwt.SigningMethodHS256, []byte("other"),
			jwt.MapClaims{"sub": "admin", "role": "admin", "exp": exp}), http.StatusUnauthorized},
		{"expired", "Bearer " + signed(t, jwt.SigningMethodHS256, []byte(secret),
			jwt.MapClaims{"sub": "admin", "role": "admin", "exp": time.Now().Add(-time.Hour).Unix()}), http.StatusUnauthorized},
		{"no expiry", "Bearer " + signed(t, jwt.SigningMethodHS256, []byte(secret),
			jwt.MapClaims{"sub": "admin", "role": "admin"}), http.StatusUnauthorized},
		{"other alg", "Bearer " + signed(t, jwt.SigningMethodHS512, []byte(secret),
			jwt.MapClaims{"sub": "admin", "role": "admin", "exp": exp}), http.StatusUnauthorized},
		{"not admin", "Bearer " + signed(t, jwt.SigningMethodHS256, []byte(secret),
			jwt.MapClaims{"sub": "guest", "role": "guest", "exp": exp}), http.StatusForbidden},
		{"admin", "Bearer " + signed(t, jwt.SigningMethodHS256, []byte(secret),
			jwt.MapClaims{"sub": "ayse", "role": "admin", "exp": exp}), http.StatusNoContent},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/rooms", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Fatalf("status = %d, want %d", w.Code, tc.want)
			}
		})
	}
	if seen != "ayse" {
		t.Fatalf("admin in context = %q", seen)
	}
}

func TestLocale(t *testing.T) {
	var got locale.Language
	h := Locale(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = locale.FromContext(r.Context()).Language()
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if got != locale.English {
		t.Fatalf("language = %q, want en", got)
	}
	if len(w.Result().Cookies()) != 0 {
		t.Fatalf("unchanged session must not set a cookie")
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "en")
	req.AddCookie(&http.Cookie{Name: locale.CookieName, Value: "tr"})
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != locale.Turkish {
		t.Fatalf("cookie should win, got %q", got)
	}
}

func TestLogger_PassesStatus(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("tea"))
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusTeapot {
		t.Fatalf("status = %d", w.Code)
	}
	if line := buf.String(); !strings.Contains(line, "[-] GET /health 418 3B") {
		t.Fatalf("unexpected access line %q", line)
	}
}
