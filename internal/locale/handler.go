package locale

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/summora/hotel/internal/response"
)

// Handler serves the language switch endpoint.
type Handler struct {
	validate *validator.Validate
}

// NewHandler creates a new locale Handler.
func NewHandler(validate *validator.Validate) *Handler {
	return &Handler{validate: validate}
}

type setLanguageRequest struct {
	Language string `json:"language" validate:"required,oneof=tr en TR EN" example:"en"`
	Path     string `json:"path"     validate:"omitempty,startswith=/" example:"/odalar"`
}

type setLanguageData struct {
	Language Language `json:"language" example:"en"`
	Path     string   `json:"path,omitempty" example:"/rooms"`
}

// SetLanguage godoc
//
//	@Summary		Switch site language
//	@Description	Stores the language choice in the language cookie and returns the current page path mapped into the new language's URL scheme.
//	@Tags			locale
//	@Accept			json
//	@Produce		json
//	@Param			request	body		setLanguageRequest	true	"Language and current path"
//	@Success		200		{object}	response.Envelope{data=setLanguageData}
//	@Failure		400		{object}	response.Envelope
//	@Router			/locale [put]
func (h *Handler) SetLanguage(w http.ResponseWriter, r *http.Request) {
	var req setLanguageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, "language must be one of: tr, en")
		return
	}
	lang, err := Parse(req.Language)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	sess := FromContext(r.Context())
	sess.SetLanguage(lang)
	sess.Save(w)

	data := setLanguageData{Language: lang}
	if req.Path != "" {
		data.Path = MapPath(req.Path, lang)
	}
	response.OK(w, data)
}

// GetLanguage godoc
//
//	@Summary		Current site language
//	@Tags			locale
//	@Produce		json
//	@Success		200	{object}	response.Envelope{data=setLanguageData}
//	@Router			/locale [get]
func (h *Handler) GetLanguage(w http.ResponseWriter, r *http.Request) {
	response.OK(w, setLanguageData{Language: FromContext(r.Context()).Language()})
}
