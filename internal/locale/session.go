package locale

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// CookieName is the cookie holding the visitor's language choice.
const CookieName = "language"

const cookieMaxAge = 365 * 24 * time.Hour

type contextKey struct{}

// Session is the language state for one request. It is loaded once when the
// request starts and written back only when it changes. A language guessed
// from the request headers is not persisted until the visitor picks one.
type Session struct {
	lang      Language
	persisted bool
	changed   bool
}

// Load resolves the session language from the language cookie, then the
// localized page named by Referer, then Accept-Language, then Default.
func Load(r *http.Request) *Session {
	if c, err := r.Cookie(CookieName); err == nil {
		if lang, err := Parse(c.Value); err == nil {
			return &Session{lang: lang, persisted: true}
		}
	}
	if ref, err := url.Parse(r.Referer()); err == nil && ref.Path != "" {
		if lang, ok := PathLanguage(ref.Path); ok {
			return &Session{lang: lang}
		}
	}
	for _, part := range strings.Split(r.Header.Get("Accept-Language"), ",") {
		tag, _, _ := strings.Cut(part, ";")
		if lang, err := Parse(tag); err == nil {
			return &Session{lang: lang}
		}
	}
	return &Session{lang: Default}
}

// Language returns the current session language.
func (s *Session) Language() Language {
	return s.lang
}

// SetLanguage records lang as the visitor's choice. It reports whether the
// cookie needs writing: picking the language already saved is a no-op, and
// unsupported languages are ignored.
func (s *Session) SetLanguage(lang Language) bool {
	if !lang.Valid() || (lang == s.lang && s.persisted) {
		return false
	}
	s.lang = lang
	s.changed = true
	return true
}

// Save persists the session to the response when it was changed.
func (s *Session) Save(w http.ResponseWriter) {
	if !s.changed {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    string(s.lang),
		Path:     "/",
		MaxAge:   int(cookieMaxAge.Seconds()),
		HttpOnly: false,
		SameSite: http.SameSiteLaxMode,
	})
	s.changed = false
	s.persisted = true
}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the request session, or a default one when none was loaded.
func FromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(contextKey{}).(*Session); ok {
		return s
	}
	return &Session{lang: Default}
}
