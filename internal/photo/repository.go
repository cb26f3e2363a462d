package photo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/summora/hotel/internal/db"
)

// Photo is one gallery image row in room_photos.
type Photo struct {
	ID           int64     `json:"id"`
	RoomID       int64     `json:"room_id"`
	Path         string    `json:"image_url"`
	Name         string    `json:"image_name"`
	Size         int64     `json:"image_size"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
}

// Intent is a pending gallery upload recorded before its object is written.
type Intent struct {
	ID        int64
	RoomID    int64
	Path      string
	CreatedAt time.Time
}

// Stats summarizes the stored gallery photos. The object fields count what
// the bucket actually holds, featured images and uncommitted uploads included.
type Stats struct {
	TotalSize   int64   `json:"total_size"`
	PhotoCount  int     `json:"photo_count"`
	AverageSize float64 `json:"average_size"`
	ObjectCount int     `json:"object_count"`
	ObjectBytes int64   `json:"object_bytes"`
}

var (
	// ErrNotFound is returned when a photo does not exist.
	ErrNotFound = errors.New("photo not found")
	// ErrRoomNotFound is returned when the owning room does not exist.
	ErrRoomNotFound = errors.New("room not found")
	// ErrLimitExceeded is returned when a room already holds MaxPhotosPerRoom photos.
	ErrLimitExceeded = errors.New("photo limit exceeded")
	// ErrIntentExists is returned when another upload already claimed a path.
	ErrIntentExists = errors.New("upload already pending for path")
)

const photoColumns = `id, room_id, image_url, image_name, COALESCE(image_size, 0), display_order, created_at`

// Repository handles room_photos and photo_uploads persistence.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new photo Repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CountByRoom returns the number of photos the room owns.
func (r *Repository) CountByRoom(ctx context.Context, roomID int64) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM room_photos WHERE room_id = $1`, roomID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count room photos: %w", err)
	}
	return n, nil
}

// CreateIntent records that an object is about to be written at path.
// A path already claimed by another upload yields ErrIntentExists.
func (r *Repository) CreateIntent(ctx context.Context, roomID int64, path string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO photo_uploads (room_id, path) VALUES ($1, $2)`,
		roomID, path,
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrIntentExists
		}
		return fmt.Errorf("record upload intent: %w", err)
	}
	return nil
}

// DeleteIntent forgets the pending upload at path. Deleting twice is harmless.
func (r *Repository) DeleteIntent(ctx context.Context, path string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM photo_uploads WHERE path = $1`, path); err != nil {
		return fmt.Errorf("delete upload intent: %w", err)
	}
	return nil
}

// StaleIntents returns pending uploads created before cutoff, oldest first.
func (r *Repository) StaleIntents(ctx context.Context, cutoff time.Time) ([]Intent, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, room_id, path, created_at FROM photo_uploads
		 WHERE created_at < $1
		 ORDER BY created_at ASC`,
		cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("list stale intents: %w", err)
	}
	defer rows.Close()

	var out []Intent
	for rows.Next() {
		var in Intent
		if err := rows.Scan(&in.ID, &in.RoomID, &in.Path, &in.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan intent: %w", err)
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// Commit inserts p and clears its upload intent in one transaction. When
// limit > 0 the room row is locked and the photo count rechecked first, so
// concurrent uploads cannot push the room past limit. It returns the stored
// photo and the room's photo count after the insert.
func (r *Repository) Commit(ctx context.Context, p Photo, limit int) (*Photo, int, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if limit > 0 {
		var locked int64
		err := tx.QueryRow(ctx, `SELECT id FROM rooms WHERE id = $1 FOR UPDATE`, p.RoomID).Scan(&locked)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, ErrRoomNotFound
		}
		if err != nil {
			return nil, 0, fmt.Errorf("lock room: %w", err)
		}
		var n int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM room_photos WHERE room_id = $1`, p.RoomID).Scan(&n); err != nil {
			return nil, 0, fmt.Errorf("count room photos: %w", err)
		}
		if n >= limit {
			return nil, n, ErrLimitExceeded
		}
	}

	created := &Photo{}
	err = tx.QueryRow(ctx,
		`INSERT INTO room_photos (room_id, image_url, image_name, image_size, display_order)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+photoColumns,
		p.RoomID, p.Path, p.Name, p.Size, p.DisplayOrder,
	).Scan(&created.ID, &created.RoomID, &created.Path, &created.Name, &created.Size, &created.DisplayOrder, &created.CreatedAt)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, 0, ErrRoomNotFound
		}
		return nil, 0, fmt.Errorf("insert photo: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM photo_uploads WHERE path = $1`, p.Path); err != nil {
		return nil, 0, fmt.Errorf("clear upload intent: %w", err)
	}

	var total int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM room_photos WHERE room_id = $1`, p.RoomID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count room photos: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, fmt.Errorf("commit photo: %w", err)
	}
	return created, total, nil
}

// GetByID fetches a photo by id.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Photo, error) {
	p := &Photo{}
	err := r.db.QueryRow(ctx, `SELECT `+photoColumns+` FROM room_photos WHERE id = $1`, id).
		Scan(&p.ID, &p.RoomID, &p.Path, &p.Name, &p.Size, &p.DisplayOrder, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get photo by id: %w", err)
	}
	return p, nil
}

// Delete removes the photo row.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM room_photos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByRoom returns the room's photos ordered by display_order, then id.
func (r *Repository) ListByRoom(ctx context.Context, roomID int64) ([]Photo, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+photoColumns+` FROM room_photos
		 WHERE room_id = $1
		 ORDER BY display_order ASC, id ASC`,
		roomID,
	)
	if err != nil {
		return nil, fmt.Errorf("list room photos: %w", err)
	}
	defer rows.Close()

	var out []Photo
	for rows.Next() {
		var p Photo
		if err := rows.Scan(&p.ID, &p.RoomID, &p.Path, &p.Name, &p.Size, &p.DisplayOrder, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdateOrder sets the photo's display_order.
func (r *Repository) UpdateOrder(ctx context.Context, id int64, order int) error {
	tag, err := r.db.Exec(ctx, `UPDATE room_photos SET display_order = $1 WHERE id = $2`, order, id)
	if err != nil {
		return fmt.Errorf("update photo order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats aggregates size and count over every stored photo.
func (r *Repository) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(image_size), 0), COUNT(*) FROM room_photos`).
		Scan(&s.TotalSize, &s.PhotoCount)
	if err != nil {
		return Stats{}, fmt.Errorf("photo stats: %w", err)
	}
	if s.PhotoCount > 0 {
		s.AverageSize = float64(s.TotalSize) / float64(s.PhotoCount)
	}
	return s, nil
}
