package photo

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/summora/hotel/internal/room"
	"github.com/summora/hotel/internal/storage"
)

// Store is the photo persistence the Manager depends on. *Repository implements it.
type Store interface {
	CountByRoom(ctx context.Context, roomID int64) (int, error)
	CreateIntent(ctx context.Context, roomID int64, path string) error
	DeleteIntent(ctx context.Context, path string) error
	StaleIntents(ctx context.Context, cutoff time.Time) ([]Intent, error)
	Commit(ctx context.Context, p Photo, limit int) (*Photo, int, error)
	GetByID(ctx context.Context, id int64) (*Photo, error)
	Delete(ctx context.Context, id int64) error
	ListByRoom(ctx context.Context, roomID int64) ([]Photo, error)
	UpdateOrder(ctx context.Context, id int64, order int) error
	Stats(ctx context.Context) (Stats, error)
}

// RoomStore is the slice of the room repository the Manager touches.
type RoomStore interface {
	SetFeaturedImage(ctx context.Context, id int64, path string) error
	FeaturedImage(ctx context.Context, id int64) (string, error)
}

// Uploaded is the result of a successful upload.
type Uploaded struct {
	ID   int64  `json:"id"`
	URL  string `json:"url"`
	Path string `json:"path"`
}

// WithURL is a stored photo together with its resolved public URL.
type WithURL struct {
	Photo
	PublicURL string `json:"public_url"`
}

// Options configures a Manager.
type Options struct {
	// ServiceURL is the backend base address public URLs must live under.
	ServiceURL string
	// Bucket names the object store bucket holding room photos.
	Bucket string
	// StrictCap makes the 20 photo limit exact under concurrent uploads.
	StrictCap bool
	// Now is the clock used for gallery names. Defaults to time.Now.
	Now func() time.Time
}

// Manager keeps the object store and the photo tables consistent for each room.
type Manager struct {
	store      Store
	rooms      RoomStore
	objects    storage.Storage
	serviceURL string
	bucket     string
	strict     bool
	clock      *millisClock
}

// NewManager creates a Manager.
func NewManager(store Store, rooms RoomStore, objects storage.Storage, opts Options) *Manager {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{
		store:      store,
		rooms:      rooms,
		objects:    objects,
		serviceURL: strings.TrimRight(opts.ServiceURL, "/"),
		bucket:     opts.Bucket,
		strict:     opts.StrictCap,
		clock:      &millisClock{now: now},
	}
}

// ResolveURL returns the public URL for a storage path. A URL from the object
// store that does not live under the service base is rewritten to the
// canonical <service>/storage/v1/object/public/<bucket>/<path> form.
func (m *Manager) ResolveURL(path string) string {
	if path == "" {
		return ""
	}
	u := m.objects.PublicURL(path)
	if m.serviceURL != "" && !strings.Contains(u, m.serviceURL) {
		return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", m.serviceURL, m.bucket, path)
	}
	return u
}

// UploadFeaturedPhoto replaces the room's featured image with f.
func (m *Manager) UploadFeaturedPhoto(ctx context.Context, roomID int64, f File) (*Uploaded, error) {
	if err := ValidateFile(f); err != nil {
		return nil, err
	}
	if err := m.requireRoom(ctx, roomID); err != nil {
		return nil, err
	}
	path := featuredPath(roomID, extension(f))

	// Old featured files may have any extension; absence is fine.
	if err := m.objects.Delete(ctx, featuredPaths(roomID)...); err != nil {
		log.Printf("photo: clear featured for room %d: %v", roomID, err)
	}

	if err := m.objects.Upload(ctx, path, f.Body, f.Size, mediaType(f.ContentType), true); err != nil {
		return nil, storageError(err)
	}

	if err := m.rooms.SetFeaturedImage(ctx, roomID, path); err != nil {
		if errors.Is(err, room.ErrNotFound) {
			if derr := m.objects.Delete(context.WithoutCancel(ctx), path); derr != nil {
				log.Printf("photo: remove featured %s for missing room: %v", path, derr)
			}
			return nil, notFoundError("Room not found", err)
		}
		return nil, databaseError(err)
	}

	return &Uploaded{ID: roomID, URL: m.ResolveURL(path), Path: path}, nil
}

// UploadGalleryPhoto adds f to the room's gallery at displayOrder.
//
// The upload is two-phase: an intent row is written before the object, and the
// photo row is committed together with the intent's removal. If the commit
// fails the object and intent are cleaned up; whatever cleanup cannot remove
// is left for the Sweeper.
func (m *Manager) UploadGalleryPhoto(ctx context.Context, roomID int64, f File, displayOrder int) (*Uploaded, error) {
	if err := ValidateFile(f); err != nil {
		return nil, err
	}

	if err := m.requireRoom(ctx, roomID); err != nil {
		return nil, err
	}
	count, err := m.store.CountByRoom(ctx, roomID)
	if err != nil {
		return nil, databaseError(err)
	}
	if count >= MaxPhotosPerRoom {
		return nil, limitError()
	}

	path := galleryPath(roomID, m.clock.Next(), extension(f))

	if err := m.store.CreateIntent(ctx, roomID, path); err != nil {
		return nil, databaseError(err)
	}

	if err := m.objects.Upload(ctx, path, f.Body, f.Size, mediaType(f.ContentType), false); err != nil {
		// An existing object belongs to someone else; only our intent goes.
		if errors.Is(err, storage.ErrObjectExists) {
			if derr := m.store.DeleteIntent(context.WithoutCancel(ctx), path); derr != nil {
				log.Printf("photo: drop intent %s: %v", path, derr)
			}
		}
		return nil, storageError(err)
	}

	limit := 0
	if m.strict {
		limit = MaxPhotosPerRoom
	}
	created, total, err := m.store.Commit(ctx, Photo{
		RoomID:       roomID,
		Path:         path,
		Name:         f.Name,
		Size:         f.Size,
		DisplayOrder: displayOrder,
	}, limit)
	if err != nil {
		m.cleanup(context.WithoutCancel(ctx), path)
		switch {
		case errors.Is(err, ErrLimitExceeded):
			return nil, limitError()
		case errors.Is(err, ErrRoomNotFound):
			return nil, notFoundError("Room not found", err)
		default:
			return nil, databaseError(err)
		}
	}

	if total == 1 {
		if err := m.rooms.SetFeaturedImage(ctx, roomID, path); err != nil {
			log.Printf("photo: promote %s to featured for room %d: %v", path, roomID, err)
		}
	}

	return &Uploaded{ID: created.ID, URL: m.ResolveURL(path), Path: path}, nil
}

// requireRoom fails with a not-found error when the room does not exist.
// A room deleted after this check is still caught when the photo commits.
func (m *Manager) requireRoom(ctx context.Context, roomID int64) error {
	if _, err := m.rooms.FeaturedImage(ctx, roomID); err != nil {
		if errors.Is(err, room.ErrNotFound) {
			return notFoundError("Room not found", err)
		}
		return databaseError(err)
	}
	return nil
}

// cleanup removes an uncommitted upload. The intent is kept when the object
// cannot be deleted so the sweep can try again.
func (m *Manager) cleanup(ctx context.Context, path string) bool {
	if err := m.objects.Delete(ctx, path); err != nil {
		log.Printf("photo: cleanup object %s: %v", path, err)
		return false
	}
	if err := m.store.DeleteIntent(ctx, path); err != nil {
		log.Printf("photo: cleanup intent %s: %v", path, err)
		return false
	}
	return true
}

// DeletePhoto removes the photo's object and then its row. A storage failure
// leaves the row in place.
func (m *Manager) DeletePhoto(ctx context.Context, photoID int64) error {
	p, err := m.store.GetByID(ctx, photoID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return notFoundError("Photo not found", err)
		}
		return databaseError(err)
	}

	if err := m.objects.Delete(ctx, p.Path); err != nil {
		return storageError(err)
	}

	if err := m.store.Delete(ctx, photoID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return notFoundError("Photo not found", err)
		}
		return databaseError(err)
	}

	m.repromote(ctx, p)
	return nil
}

// repromote moves the featured image off a deleted photo onto the next one in
// gallery order, or clears it when the gallery is empty.
func (m *Manager) repromote(ctx context.Context, deleted *Photo) {
	featured, err := m.rooms.FeaturedImage(ctx, deleted.RoomID)
	if err != nil || featured != deleted.Path {
		return
	}
	next := ""
	photos, err := m.store.ListByRoom(ctx, deleted.RoomID)
	if err != nil {
		log.Printf("photo: list room %d after delete: %v", deleted.RoomID, err)
		return
	}
	if len(photos) > 0 {
		next = photos[0].Path
	}
	if err := m.rooms.SetFeaturedImage(ctx, deleted.RoomID, next); err != nil {
		log.Printf("photo: repoint featured for room %d: %v", deleted.RoomID, err)
	}
}

// GetRoomPhotos returns the room's photos in display order with public URLs.
// It never fails: errors are logged and an empty list returned.
func (m *Manager) GetRoomPhotos(ctx context.Context, roomID int64) []WithURL {
	photos, err := m.store.ListByRoom(ctx, roomID)
	if err != nil {
		log.Printf("photo: list room %d: %v", roomID, err)
		return []WithURL{}
	}
	out := make([]WithURL, 0, len(photos))
	for _, p := range photos {
		out = append(out, WithURL{Photo: p, PublicURL: m.ResolveURL(p.Path)})
	}
	return out
}

// UpdatePhotoOrder sets the sort key of one photo. Ties and gaps are allowed.
func (m *Manager) UpdatePhotoOrder(ctx context.Context, photoID int64, order int) error {
	if err := m.store.UpdateOrder(ctx, photoID, order); err != nil {
		if errors.Is(err, ErrNotFound) {
			return notFoundError("Photo not found", err)
		}
		return databaseError(err)
	}
	return nil
}

// GetFeaturedPhotoURL returns the room's featured photo URL, or "" when there is none.
func (m *Manager) GetFeaturedPhotoURL(ctx context.Context, roomID int64) string {
	path, err := m.rooms.FeaturedImage(ctx, roomID)
	if err != nil {
		if !errors.Is(err, room.ErrNotFound) {
			log.Printf("photo: featured for room %d: %v", roomID, err)
		}
		return ""
	}
	return m.ResolveURL(path)
}

// GetStorageStats summarizes stored photos. Errors yield zero stats.
func (m *Manager) GetStorageStats(ctx context.Context) Stats {
	s, err := m.store.Stats(ctx)
	if err != nil {
		log.Printf("photo: stats: %v", err)
		return Stats{}
	}
	objects, err := m.objects.List(ctx, "")
	if err != nil {
		log.Printf("photo: list bucket: %v", err)
		return s
	}
	for _, o := range objects {
		s.ObjectCount++
		s.ObjectBytes += o.Size
	}
	return s
}

// PhotoCount returns how many photos the room has. An unknown room is a
// not-found error.
func (m *Manager) PhotoCount(ctx context.Context, roomID int64) (int, error) {
	if err := m.requireRoom(ctx, roomID); err != nil {
		return 0, err
	}
	n, err := m.store.CountByRoom(ctx, roomID)
	if err != nil {
		return 0, databaseError(err)
	}
	return n, nil
}

// ReconcileUploads cleans up every upload intent older than cutoff and
// returns how many were fully removed.
func (m *Manager) ReconcileUploads(ctx context.Context, cutoff time.Time) (int, error) {
	intents, err := m.store.StaleIntents(ctx, cutoff)
	if err != nil {
		return 0, databaseError(err)
	}
	removed := 0
	for _, in := range intents {
		if ctx.Err() != nil {
			return removed, ctx.Err()
		}
		if m.cleanup(ctx, in.Path) {
			removed++
		}
	}
	return removed, nil
}
