// Package room manages the hotel's room catalog and its persistence.
package room

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/summora/hotel/internal/db"
	"github.com/summora/hotel/internal/locale"
)

// Room types offered by the hotel.
const (
	TypeStandard     = "standard"
	TypeDeluxe       = "deluxe"
	TypeSuite        = "suite"
	TypePresidential = "presidential"
)

// Room represents a bookable room as stored in the rooms table.
type Room struct {
	ID               int64       `json:"id"`
	Title            locale.Text `json:"title"`
	Description      locale.Text `json:"description"`
	Size             string      `json:"size"`
	Capacity         int         `json:"capacity"`
	Price            float64     `json:"price"`
	FeaturedImageURL string      `json:"featured_image_url"`
	Amenities        []string    `json:"amenities"`
	RoomType         string      `json:"room_type"`
	IsActive         bool        `json:"is_active"`
	CreatedAt        time.Time   `json:"created_at"`
}

// Filter narrows a room listing. Zero values mean "no constraint".
type Filter struct {
	RoomType    string
	MinPrice    *float64
	MaxPrice    *float64
	MinCapacity *int
	MaxCapacity *int
	Amenities   []string
	// IncludeInactive lists rooms regardless of is_active (admin views).
	IncludeInactive bool
}

// Patch holds the columns an update may change. Nil fields are left alone.
type Patch struct {
	Title       *locale.Text
	Description *locale.Text
	Size        *string
	Capacity    *int
	Price       *float64
	Amenities   []string
	RoomType    *string
	IsActive    *bool
}

// ErrNotFound is returned when a room does not exist.
var ErrNotFound = errors.New("room not found")

// ErrHasPhotos is returned when deleting a room that still owns photos.
var ErrHasPhotos = errors.New("room still has photos")

const roomColumns = `id, title, COALESCE(description, '{}'::jsonb), size, capacity, price,
	featured_image_url, amenities, room_type, is_active, created_at`

// Repository handles all room database operations.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// List returns rooms matching f, cheapest first.
func (r *Repository) List(ctx context.Context, f Filter) ([]Room, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if !f.IncludeInactive {
		where = append(where, "is_active")
	}
	if f.RoomType != "" {
		add("room_type = $%d", f.RoomType)
	}
	if f.MinPrice != nil {
		add("price >= $%d", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		add("price <= $%d", *f.MaxPrice)
	}
	if f.MinCapacity != nil {
		add("capacity >= $%d", *f.MinCapacity)
	}
	if f.MaxCapacity != nil {
		add("capacity <= $%d", *f.MaxCapacity)
	}
	if len(f.Amenities) > 0 {
		add("amenities @> $%d::text[]", f.Amenities)
	}

	q := `SELECT ` + roomColumns + ` FROM rooms`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY price ASC, id ASC`

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	var rooms []Room
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		if err := rm.Title.Validate(); err != nil {
			log.Printf("room: skipping room %d with invalid title: %v", rm.ID, err)
			continue
		}
		rooms = append(rooms, *rm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

// GetByID fetches a room by id.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Room, error) {
	row := r.db.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = $1`, id)
	rm, err := scanRoom(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get room by id: %w", err)
	}
	if err := rm.Title.Validate(); err != nil {
		return nil, fmt.Errorf("room %d has invalid title: %w", id, err)
	}
	return rm, nil
}

// Create inserts a new room and returns the stored record.
func (r *Repository) Create(ctx context.Context, rm Room) (*Room, error) {
	if rm.Amenities == nil {
		rm.Amenities = []string{}
	}
	row := r.db.QueryRow(ctx,
		`INSERT INTO rooms (title, description, size, capacity, price, featured_image_url, amenities, room_type, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+roomColumns,
		rm.Title, rm.Description, rm.Size, rm.Capacity, rm.Price, rm.FeaturedImageURL, rm.Amenities, rm.RoomType, rm.IsActive,
	)
	created, err := scanRoom(row)
	if err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}
	return created, nil
}

// Update applies p to the room and returns the updated record.
func (r *Repository) Update(ctx context.Context, id int64, p Patch) (*Room, error) {
	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if p.Title != nil {
		set("title", *p.Title)
	}
	if p.Description != nil {
		set("description", *p.Description)
	}
	if p.Size != nil {
		set("size", *p.Size)
	}
	if p.Capacity != nil {
		set("capacity", *p.Capacity)
	}
	if p.Price != nil {
		set("price", *p.Price)
	}
	if p.Amenities != nil {
		set("amenities", p.Amenities)
	}
	if p.RoomType != nil {
		set("room_type", *p.RoomType)
	}
	if p.IsActive != nil {
		set("is_active", *p.IsActive)
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	args = append(args, id)
	row := r.db.QueryRow(ctx,
		fmt.Sprintf(`UPDATE rooms SET %s WHERE id = $%d RETURNING `+roomColumns, strings.Join(sets, ", "), len(args)),
		args...,
	)
	updated, err := scanRoom(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update room: %w", err)
	}
	return updated, nil
}

// Delete removes a room. Photos are never cascaded; a room that still owns
// photos yields ErrHasPhotos.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrHasPhotos
		}
		return fmt.Errorf("delete room: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetFeaturedImage points the room's featured image at a storage path.
func (r *Repository) SetFeaturedImage(ctx context.Context, id int64, path string) error {
	tag, err := r.db.Exec(ctx, `UPDATE rooms SET featured_image_url = $1 WHERE id = $2`, path, id)
	if err != nil {
		return fmt.Errorf("set featured image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// FeaturedImage returns the storage path of the room's featured image.
func (r *Repository) FeaturedImage(ctx context.Context, id int64) (string, error) {
	var path string
	err := r.db.QueryRow(ctx, `SELECT featured_image_url FROM rooms WHERE id = $1`, id).Scan(&path)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get featured image: %w", err)
	}
	return path, nil
}

func scanRoom(row pgx.Row) (*Room, error) {
	rm := &Room{}
	err := row.Scan(&rm.ID, &rm.Title, &rm.Description, &rm.Size, &rm.Capacity, &rm.Price,
		&rm.FeaturedImageURL, &rm.Amenities, &rm.RoomType, &rm.IsActive, &rm.CreatedAt)
	if err != nil {
		return nil, err
	}
	return rm, nil
}
