// Package photo implements the room photo lifecycle: validation, upload,
// ordering, deletion and public URL resolution.
package photo

import (
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"
)

const (
	// MaxFileSize is the largest accepted upload, in bytes (5 MiB).
	MaxFileSize = 5 * 1024 * 1024
	// MaxPhotosPerRoom caps the gallery size of a single room.
	MaxPhotosPerRoom = 20
)

var allowedTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// featuredExtensions are every extension a featured photo may have been stored under.
var featuredExtensions = []string{"jpg", "jpeg", "png", "webp"}

// File is an upload as received from the client.
type File struct {
	Name        string
	Size        int64
	ContentType string
	Body        io.Reader
}

// ValidateFile checks the declared size and media type of f.
// It never touches the network.
func ValidateFile(f File) error {
	if f.Size > MaxFileSize {
		return validationError(ReasonFileTooLarge, "File size exceeds 5MB limit")
	}
	if _, ok := allowedTypes[mediaType(f.ContentType)]; !ok {
		return validationError(ReasonUnsupportedType, "Invalid file type. Only JPEG, PNG, and WebP are allowed")
	}
	return nil
}

func mediaType(contentType string) string {
	mt, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}

// extension picks the stored extension: the file name's when it is an image
// extension, otherwise the one implied by the media type.
func extension(f File) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(f.Name), "."))
	for _, e := range featuredExtensions {
		if ext == e {
			return ext
		}
	}
	return allowedTypes[mediaType(f.ContentType)]
}

func featuredPath(roomID int64, ext string) string {
	return fmt.Sprintf("%d/featured.%s", roomID, ext)
}

func featuredPaths(roomID int64) []string {
	paths := make([]string, 0, len(featuredExtensions))
	for _, ext := range featuredExtensions {
		paths = append(paths, featuredPath(roomID, ext))
	}
	return paths
}

func galleryPath(roomID, millis int64, ext string) string {
	return fmt.Sprintf("%d/gallery-%d.%s", roomID, millis, ext)
}

// millisClock hands out strictly increasing unix-millisecond stamps, so two
// uploads in the same millisecond still get distinct gallery names.
type millisClock struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
}

func (c *millisClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	ms := c.now().UnixMilli()
	if ms <= c.last {
		ms = c.last + 1
	}
	c.last = ms
	return ms
}
