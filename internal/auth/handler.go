package auth

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/summora/hotel/internal/response"
)

// Handler holds HTTP handlers for auth endpoints.
type Handler struct {
	svc      *Service
	validate *validator.Validate
}

// NewHandler creates a new auth Handler.
func NewHandler(svc *Service, validate *validator.Validate) *Handler {
	return &Handler{svc: svc, validate: validate}
}

type loginRequest struct {
	Username string `json:"username" validate:"required,max=100" example:"admin"`
	Password string `json:"password" validate:"required,max=72"  example:"s3cret"`
}

type loginData struct {
	Token     string    `json:"token"      example:"eyJhbGci..."`
	ExpiresAt time.Time `json:"expires_at" example:"2026-02-27T14:48:34Z"`
}

// Login godoc
//
//	@Summary		Admin login
//	@Description	Exchange the admin username and password for a bearer token valid for 12 hours.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		loginRequest	true	"Credentials"
//	@Success		200		{object}	response.Envelope{data=loginData}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		503		{object}	response.Envelope
//	@Router			/auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, "username and password are required")
		return
	}

	token, expires, err := h.svc.Login(req.Username, req.Password)
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		response.Unauthorized(w, "invalid username or password")
		return
	case errors.Is(err, ErrLoginDisabled):
		response.Error(w, http.StatusServiceUnavailable, "admin login is not configured")
		return
	case err != nil:
		log.Printf("auth: login: %v", err)
		response.InternalError(w)
		return
	}

	response.OK(w, loginData{Token: token, ExpiresAt: expires})
}
