package room

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/summora/hotel/internal/locale"
)

// Store is the persistence the room service depends on. *Repository implements it.
type Store interface {
	List(ctx context.Context, f Filter) ([]Room, error)
	GetByID(ctx context.Context, id int64) (*Room, error)
	Create(ctx context.Context, rm Room) (*Room, error)
	Update(ctx context.Context, id int64, p Patch) (*Room, error)
	Delete(ctx context.Context, id int64) error
}

// URLResolver turns a storage path into a public URL.
type URLResolver interface {
	ResolveURL(path string) string
}

// ErrInvalidInput wraps payload validation failures.
var ErrInvalidInput = errors.New("invalid room input")

// CreateInput is the payload for creating a room.
type CreateInput struct {
	Title       locale.Text `json:"title"`
	Description locale.Text `json:"description"`
	Size        string      `json:"size"        validate:"max=50"`
	Capacity    int         `json:"capacity"    validate:"required,min=1,max=20"`
	Price       float64     `json:"price"       validate:"gte=0"`
	Amenities   []string    `json:"amenities"   validate:"max=50,dive,required,max=100"`
	RoomType    string      `json:"room_type"   validate:"required,oneof=standard deluxe suite presidential"`
	IsActive    *bool       `json:"is_active"`
}

// UpdateInput is the payload for a partial room update.
type UpdateInput struct {
	Title       *locale.Text `json:"title"`
	Description *locale.Text `json:"description"`
	Size        *string      `json:"size"      validate:"omitempty,max=50"`
	Capacity    *int         `json:"capacity"  validate:"omitempty,min=1,max=20"`
	Price       *float64     `json:"price"     validate:"omitempty,gte=0"`
	Amenities   []string     `json:"amenities" validate:"omitempty,max=50,dive,required,max=100"`
	RoomType    *string      `json:"room_type" validate:"omitempty,oneof=standard deluxe suite presidential"`
	IsActive    *bool        `json:"is_active"`
}

// View is a room prepared for display in one language.
type View struct {
	Room
	LocalizedTitle       string `json:"localized_title"`
	LocalizedDescription string `json:"localized_description"`
	RoomTypeLabel        string `json:"room_type_label"`
	FeaturedPhotoURL     string `json:"featured_photo_url,omitempty"`
}

// Service contains business logic for the room catalog.
type Service struct {
	store    Store
	urls     URLResolver
	validate *validator.Validate
}

// NewService creates a new room Service.
func NewService(store Store, urls URLResolver, validate *validator.Validate) *Service {
	return &Service{store: store, urls: urls, validate: validate}
}

// List returns the rooms matching f rendered in lang.
func (s *Service) List(ctx context.Context, f Filter, lang locale.Language) ([]View, error) {
	rooms, err := s.store.List(ctx, f)
	if err != nil {
		return nil, err
	}
	views := make([]View, 0, len(rooms))
	for _, rm := range rooms {
		views = append(views, s.view(rm, lang))
	}
	return views, nil
}

// Get returns one room rendered in lang. Inactive rooms are hidden unless includeInactive.
func (s *Service) Get(ctx context.Context, id int64, lang locale.Language, includeInactive bool) (*View, error) {
	rm, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !rm.IsActive && !includeInactive {
		return nil, ErrNotFound
	}
	v := s.view(*rm, lang)
	return &v, nil
}

// Create validates in and stores a new room. Rooms are active unless stated otherwise.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Room, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := in.Title.Validate(); err != nil {
		return nil, fmt.Errorf("%w: title: %v", ErrInvalidInput, err)
	}
	if err := validateDescription(&in.Description); err != nil {
		return nil, err
	}

	rm := Room{
		Title:       in.Title,
		Description: in.Description,
		Size:        strings.TrimSpace(in.Size),
		Capacity:    in.Capacity,
		Price:       in.Price,
		Amenities:   in.Amenities,
		RoomType:    in.RoomType,
		IsActive:    in.IsActive == nil || *in.IsActive,
	}
	return s.store.Create(ctx, rm)
}

// Update validates in and applies it to the room.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*Room, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if in.Title != nil {
		if err := in.Title.Validate(); err != nil {
			return nil, fmt.Errorf("%w: title: %v", ErrInvalidInput, err)
		}
	}
	if err := validateDescription(in.Description); err != nil {
		return nil, err
	}
	return s.store.Update(ctx, id, Patch{
		Title:       in.Title,
		Description: in.Description,
		Size:        in.Size,
		Capacity:    in.Capacity,
		Price:       in.Price,
		Amenities:   in.Amenities,
		RoomType:    in.RoomType,
		IsActive:    in.IsActive,
	})
}

// Delete removes a room that owns no photos.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.store.Delete(ctx, id)
}

// validateDescription allows an empty description but not a half-translated one.
func validateDescription(d *locale.Text) error {
	if d == nil || d.IsZero() {
		return nil
	}
	if err := d.Validate(); err != nil {
		return fmt.Errorf("%w: description: %v", ErrInvalidInput, err)
	}
	return nil
}

func (s *Service) view(rm Room, lang locale.Language) View {
	v := View{
		Room:                 rm,
		LocalizedTitle:       rm.Title.Get(lang),
		LocalizedDescription: rm.Description.Get(lang),
		RoomTypeLabel:        locale.RoomTypeLabel(rm.RoomType, lang),
	}
	if rm.FeaturedImageURL != "" && s.urls != nil {
		v.FeaturedPhotoURL = s.urls.ResolveURL(rm.FeaturedImageURL)
	}
	return v
}
