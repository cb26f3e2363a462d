package photo

import (
	"encoding/json"
	"errors"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/summora/hotel/internal/middleware"
	"github.com/summora/hotel/internal/response"
)

// maxBatchBytes bounds a multipart batch: a full gallery plus form overhead.
const maxBatchBytes = MaxPhotosPerRoom*MaxFileSize + 1<<20

// Handler holds HTTP handlers for room photos.
type Handler struct {
	m        *Manager
	validate *validator.Validate
}

// NewHandler creates a new photo Handler.
func NewHandler(m *Manager, validate *validator.Validate) *Handler {
	return &Handler{m: m, validate: validate}
}

// FileResult reports the outcome for one file of a batch upload.
type FileResult struct {
	Name    string    `json:"name"`
	Success bool      `json:"success"`
	Data    *Uploaded `json:"data,omitempty"`
	Error   string    `json:"error,omitempty"`
	Kind    Kind      `json:"kind,omitempty"`
}

// OrderRequest is the body for reordering a photo.
type OrderRequest struct {
	DisplayOrder *int `json:"displayOrder" validate:"required"`
}

// UploadGallery godoc
//
//	@Summary		Upload gallery photos
//	@Description	Files are processed one at a time in submission order. A failed file does not stop the rest.
//	@Tags			photos
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			roomID	path		int		true	"Room ID"
//	@Param			files	formData	file	true	"Images (JPEG, PNG or WebP, 5MB max each)"
//	@Success		200		{object}	response.Envelope{data=[]FileResult}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		404		{object}	response.Envelope
//	@Failure		413		{object}	response.Envelope
//	@Router			/admin/rooms/{roomID}/photos [post]
func (h *Handler) UploadGallery(w http.ResponseWriter, r *http.Request) {
	roomID, ok := pathID(w, r, "roomID", "invalid room id")
	if !ok {
		return
	}
	form, ok := parseForm(w, r)
	if !ok {
		return
	}
	files := append(form.File["files"], form.File["files[]"]...)
	if len(files) == 0 {
		response.BadRequest(w, "no files provided")
		return
	}

	count, err := h.m.PhotoCount(r.Context(), roomID)
	if err != nil {
		writeError(w, err)
		return
	}

	results := make([]FileResult, 0, len(files))
	uploaded := 0
	for _, fh := range files {
		res := FileResult{Name: fh.Filename}
		out, err := h.uploadOne(r, roomID, fh, count+uploaded)
		if err != nil {
			res.Error = err.Error()
			var pe *Error
			if errors.As(err, &pe) {
				res.Error = pe.Message
				res.Kind = pe.Kind
			}
		} else {
			res.Success = true
			res.Data = out
			uploaded++
		}
		results = append(results, res)
	}
	log.Printf("photo: %s uploaded %d/%d gallery files to room %d",
		middleware.AdminFromContext(r.Context()), uploaded, len(files), roomID)
	response.OK(w, results)
}

func (h *Handler) uploadOne(r *http.Request, roomID int64, fh *multipart.FileHeader, order int) (*Uploaded, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return h.m.UploadGalleryPhoto(r.Context(), roomID, File{
		Name:        fh.Filename,
		Size:        fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
		Body:        f,
	}, order)
}

// UploadFeatured godoc
//
//	@Summary	Upload featured photo
//	@Tags		photos
//	@Accept		multipart/form-data
//	@Produce	json
//	@Security	BearerAuth
//	@Param		roomID	path		int		true	"Room ID"
//	@Param		file	formData	file	true	"Image (JPEG, PNG or WebP, 5MB max)"
//	@Success	200		{object}	response.Envelope{data=Uploaded}
//	@Failure	400		{object}	response.Envelope
//	@Failure	404		{object}	response.Envelope
//	@Failure	502		{object}	response.Envelope
//	@Router		/admin/rooms/{roomID}/photos/featured [post]
func (h *Handler) UploadFeatured(w http.ResponseWriter, r *http.Request) {
	roomID, ok := pathID(w, r, "roomID", "invalid room id")
	if !ok {
		return
	}
	form, ok := parseForm(w, r)
	if !ok {
		return
	}
	headers := form.File["file"]
	if len(headers) == 0 {
		response.BadRequest(w, "file is required")
		return
	}
	fh := headers[0]
	f, err := fh.Open()
	if err != nil {
		response.BadRequest(w, "could not read file")
		return
	}
	defer f.Close()

	out, err := h.m.UploadFeaturedPhoto(r.Context(), roomID, File{
		Name:        fh.Filename,
		Size:        fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
		Body:        f,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	log.Printf("photo: %s replaced featured photo of room %d", middleware.AdminFromContext(r.Context()), roomID)
	response.OK(w, out)
}

// Delete godoc
//
//	@Summary	Delete photo
//	@Tags		photos
//	@Produce	json
//	@Security	BearerAuth
//	@Param		photoID	path		int	true	"Photo ID"
//	@Success	200		{object}	response.Envelope
//	@Failure	404		{object}	response.Envelope
//	@Failure	502		{object}	response.Envelope
//	@Router		/admin/photos/{photoID} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "photoID", "invalid photo id")
	if !ok {
		return
	}
	if err := h.m.DeletePhoto(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	log.Printf("photo: %s deleted photo %d", middleware.AdminFromContext(r.Context()), id)
	response.OK(w, map[string]bool{"deleted": true})
}

// UpdateOrder godoc
//
//	@Summary	Reorder photo
//	@Tags		photos
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		photoID	path		int				true	"Photo ID"
//	@Param		request	body		OrderRequest	true	"New sort key"
//	@Success	200		{object}	response.Envelope
//	@Failure	400		{object}	response.Envelope
//	@Failure	404		{object}	response.Envelope
//	@Router		/admin/photos/{photoID}/order [patch]
func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "photoID", "invalid photo id")
	if !ok {
		return
	}
	var req OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, "displayOrder is required")
		return
	}
	if err := h.m.UpdatePhotoOrder(r.Context(), id, *req.DisplayOrder); err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, map[string]int{"display_order": *req.DisplayOrder})
}

// Stats godoc
//
//	@Summary	Photo storage statistics
//	@Tags		photos
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	response.Envelope{data=Stats}
//	@Router		/admin/photos/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	response.OK(w, h.m.GetStorageStats(r.Context()))
}

// List godoc
//
//	@Summary	List room photos
//	@Tags		rooms
//	@Produce	json
//	@Param		roomID	path		int	true	"Room ID"
//	@Success	200		{object}	response.Envelope{data=[]WithURL}
//	@Failure	400		{object}	response.Envelope
//	@Router		/rooms/{roomID}/photos [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	roomID, ok := pathID(w, r, "roomID", "invalid room id")
	if !ok {
		return
	}
	response.OK(w, h.m.GetRoomPhotos(r.Context(), roomID))
}

// Featured godoc
//
//	@Summary	Featured photo URL
//	@Tags		rooms
//	@Produce	json
//	@Param		roomID	path		int	true	"Room ID"
//	@Success	200		{object}	response.Envelope
//	@Router		/rooms/{roomID}/photos/featured [get]
func (h *Handler) Featured(w http.ResponseWriter, r *http.Request) {
	roomID, ok := pathID(w, r, "roomID", "invalid room id")
	if !ok {
		return
	}
	response.OK(w, map[string]string{"url": h.m.GetFeaturedPhotoURL(r.Context(), roomID)})
}

func parseForm(w http.ResponseWriter, r *http.Request) (*multipart.Form, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBatchBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.PayloadTooLarge(w, "upload too large")
			return nil, false
		}
		response.BadRequest(w, "invalid multipart form")
		return nil, false
	}
	return r.MultipartForm, true
}

func pathID(w http.ResponseWriter, r *http.Request, param, msg string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(w, msg)
		return 0, false
	}
	return id, true
}

// writeError maps a photo error kind to an HTTP status. The kind travels in
// the envelope so clients can tell a full gallery from a bad file.
func writeError(w http.ResponseWriter, err error) {
	var pe *Error
	if !errors.As(err, &pe) {
		log.Printf("photo: %v", err)
		response.InternalError(w)
		return
	}
	status := http.StatusInternalServerError
	switch pe.Kind {
	case KindValidation:
		status = http.StatusBadRequest
	case KindNotFound:
		status = http.StatusNotFound
	case KindLimitExceeded:
		status = http.StatusConflict
	case KindStorage:
		log.Printf("photo: storage: %v", pe.Err)
		status = http.StatusBadGateway
	default:
		log.Printf("photo: %v", pe.Err)
	}
	response.Fail(w, status, string(pe.Kind), pe.Message)
}
