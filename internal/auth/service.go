package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// tokenTTL is how long an admin token stays valid.
const tokenTTL = 12 * time.Hour

// RoleAdmin is the role claim carried by admin tokens.
const RoleAdmin = "admin"

// ErrInvalidCredentials is returned for any failed login.
var ErrInvalidCredentials = errors.New("invalid username or password")

// ErrLoginDisabled is returned when no admin password hash is configured.
var ErrLoginDisabled = errors.New("admin login is not configured")

// Credentials is the single admin account, usually read from the environment.
type Credentials struct {
	Username     string
	PasswordHash string
	JWTSecret    string
}

// Service issues admin tokens.
type Service struct {
	creds Credentials
	now   func() time.Time
}

// NewService creates a new auth Service.
func NewService(creds Credentials) *Service {
	return &Service{creds: creds, now: time.Now}
}

// Login checks username and password and returns a signed token with its expiry.
func (s *Service) Login(username, password string) (string, time.Time, error) {
	if s.creds.PasswordHash == "" {
		return "", time.Time{}, ErrLoginDisabled
	}

	// Always run bcrypt so a wrong username costs as much as a wrong password.
	pwErr := bcrypt.CompareHashAndPassword([]byte(s.creds.PasswordHash), []byte(password))
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.creds.Username)) == 1
	if pwErr != nil || !userOK {
		return "", time.Time{}, ErrInvalidCredentials
	}

	expires := s.now().Add(tokenTTL)
	token, err := s.issueToken(username, expires)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("issue token: %w", err)
	}
	return token, expires, nil
}

// issueToken creates a signed JWT for the admin.
func (s *Service) issueToken(username string, expires time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":  username,
		"role": RoleAdmin,
		"iat":  s.now().Unix(),
		"exp":  expires.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.creds.JWTSecret))
}
