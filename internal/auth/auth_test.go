package auth

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("deniz-2024"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	svc := NewService(Credentials{Username: "admin", PasswordHash: string(hash), JWTSecret: "k"})
	svc.now = func() time.Time { return time.Unix(1_700_000_000, 0) }
	return svc
}

func TestLogin_IssuesAdminToken(t *testing.T) {
	svc := newTestService(t)
	tok, exp, err := svc.Login("admin", "deniz-2024")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if want := time.Unix(1_700_000_000, 0).Add(12 * time.Hour); !exp.Equal(want) {
		t.Fatalf("expiry = %v, want %v", exp, want)
	}

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(tok, claims, func(*jwt.Token) (interface{}, error) { return []byte("k"), nil },
		jwt.WithTimeFunc(func() time.Time { return time.Unix(1_700_000_100, 0) }))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims["sub"] != "admin" || claims["role"] != RoleAdmin {
		t.Fatalf("unexpected claims %v", claims)
	}
}

func TestLogin_Rejects(t *testing.T) {
	svc := newTestService(t)
	for _, c := range [][2]string{{"admin", "wrong"}, {"root", "deniz-2024"}, {"", ""}} {
		if _, _, err := svc.Login(c[0], c[1]); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("Login(%q, %q) = %v", c[0], c[1], err)
		}
	}

	disabled := NewService(Credentials{Username: "admin"})
	if _, _, err := disabled.Login("admin", "x"); !errors.Is(err, ErrLoginDisabled) {
		t.Fatalf("expected ErrLoginDisabled, got %v", err)
	}
}

func TestHandler_Login(t *testing.T) {
	h := NewHandler(newTestService(t), validator.New())

	post := func(body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		h.Login(w, httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(body)))
		return w
	}

	w := post(`{"username":"admin","password":"deniz-2024"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var env struct {
		Data loginData `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil || env.Data.Token == "" {
		t.Fatalf("missing token: %v %s", err, w.Body.String())
	}

	if w := post(`{"username":"admin","password":"nope"}`); w.Code != http.StatusUnauthorized {
		t.Fatalf("bad password status = %d", w.Code)
	}
	if w := post(`{"username":"admin"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("missing password status = %d", w.Code)
	}
	if w := post(`not json`); w.Code != http.StatusBadRequest {
		t.Fatalf("bad body status = %d", w.Code)
	}
}
