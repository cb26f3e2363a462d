package room

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/summora/hotel/internal/locale"
	"github.com/summora/hotel/internal/response"
)

// Handler holds HTTP handlers for the room catalog.
type Handler struct {
	svc *Service
}

// NewHandler creates a new room Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// List godoc
//
//	@Summary		List rooms
//	@Description	Active rooms, cheapest first, rendered in the session language.
//	@Tags			rooms
//	@Produce		json
//	@Param			room_type		query		string	false	"standard, deluxe, suite or presidential"
//	@Param			min_price		query		number	false	"Minimum nightly price"
//	@Param			max_price		query		number	false	"Maximum nightly price"
//	@Param			min_capacity	query		int		false	"Minimum guests"
//	@Param			max_capacity	query		int		false	"Maximum guests"
//	@Param			amenity			query		[]string	false	"Required amenity (repeatable)"
//	@Success		200				{object}	response.Envelope{data=[]View}
//	@Failure		400				{object}	response.Envelope
//	@Failure		500				{object}	response.Envelope
//	@Router			/rooms [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	h.list(w, r, f)
}

// AdminList godoc
//
//	@Summary	List all rooms including inactive ones
//	@Tags		admin
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	response.Envelope{data=[]View}
//	@Failure	401	{object}	response.Envelope
//	@Router		/admin/rooms [get]
func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	f.IncludeInactive = true
	h.list(w, r, f)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, f Filter) {
	views, err := h.svc.List(r.Context(), f, locale.FromContext(r.Context()).Language())
	if err != nil {
		log.Printf("room: list: %v", err)
		response.InternalError(w)
		return
	}
	response.OK(w, views)
}

// Get godoc
//
//	@Summary	Get room
//	@Tags		rooms
//	@Produce	json
//	@Param		roomID	path		int	true	"Room ID"
//	@Success	200		{object}	response.Envelope{data=View}
//	@Failure	404		{object}	response.Envelope
//	@Router		/rooms/{roomID} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := roomID(w, r)
	if !ok {
		return
	}
	v, err := h.svc.Get(r.Context(), id, locale.FromContext(r.Context()).Language(), false)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, v)
}

// Create godoc
//
//	@Summary	Create room
//	@Tags		admin
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		request	body		CreateInput	true	"Room"
//	@Success	201		{object}	response.Envelope{data=Room}
//	@Failure	400		{object}	response.Envelope
//	@Failure	401		{object}	response.Envelope
//	@Router		/admin/rooms [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	rm, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.Created(w, rm)
}

// Update godoc
//
//	@Summary	Update room
//	@Tags		admin
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		roomID	path		int			true	"Room ID"
//	@Param		request	body		UpdateInput	true	"Changed fields"
//	@Success	200		{object}	response.Envelope{data=Room}
//	@Failure	400		{object}	response.Envelope
//	@Failure	404		{object}	response.Envelope
//	@Router		/admin/rooms/{roomID} [patch]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := roomID(w, r)
	if !ok {
		return
	}
	var in UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	rm, err := h.svc.Update(r.Context(), id, in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, rm)
}

// Delete godoc
//
//	@Summary		Delete room
//	@Description	Rooms that still own photos cannot be deleted; remove the photos first.
//	@Tags			admin
//	@Produce		json
//	@Security		BearerAuth
//	@Param			roomID	path		int	true	"Room ID"
//	@Success		200		{object}	response.Envelope
//	@Failure		404		{object}	response.Envelope
//	@Failure		409		{object}	response.Envelope
//	@Router			/admin/rooms/{roomID} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := roomID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, map[string]bool{"deleted": true})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.NotFound(w, "room not found")
	case errors.Is(err, ErrHasPhotos):
		response.Conflict(w, "room still has photos; delete them first")
	case errors.Is(err, ErrInvalidInput):
		response.BadRequest(w, err.Error())
	default:
		log.Printf("room: %v", err)
		response.InternalError(w)
	}
}

func roomID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "roomID"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(w, "invalid room id")
		return 0, false
	}
	return id, true
}

type filterError string

func (e filterError) Error() string { return string(e) }

func parseFilter(q url.Values) (Filter, error) {
	f := Filter{RoomType: q.Get("room_type"), Amenities: q["amenity"]}
	switch f.RoomType {
	case "", TypeStandard, TypeDeluxe, TypeSuite, TypePresidential:
	default:
		return f, filterError("invalid room_type")
	}

	for key, dst := range map[string]**float64{"min_price": &f.MinPrice, "max_price": &f.MaxPrice} {
		if v := q.Get(key); v != "" {
			n, err := strconv.ParseFloat(v, 64)
			if err != nil || n < 0 {
				return f, filterError("invalid " + key)
			}
			*dst = &n
		}
	}
	for key, dst := range map[string]**int{"min_capacity": &f.MinCapacity, "max_capacity": &f.MaxCapacity} {
		if v := q.Get(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return f, filterError("invalid " + key)
			}
			*dst = &n
		}
	}
	return f, nil
}
