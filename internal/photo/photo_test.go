package photo

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/summora/hotel/internal/room"
	"github.com/summora/hotel/internal/storage"
)

// memStore is an in-memory Store.
type memStore struct {
	mu        sync.Mutex
	photos    map[int64]*Photo
	intents   map[string]Intent
	nextID    int64
	rooms     map[int64]bool
	countLag  int
	commitErr error
	listErr   error
}

func newMemStore(roomIDs ...int64) *memStore {
	s := &memStore{photos: map[int64]*Photo{}, intents: map[string]Intent{}, nextID: 1, rooms: map[int64]bool{}}
	for _, id := range roomIDs {
		s.rooms[id] = true
	}
	return s
}

func (s *memStore) count(roomID int64) int {
	n := 0
	for _, p := range s.photos {
		if p.RoomID == roomID {
			n++
		}
	}
	return n
}

func (s *memStore) CountByRoom(_ context.Context, roomID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count(roomID) - s.countLag, nil
}

func (s *memStore) CreateIntent(_ context.Context, roomID int64, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.intents[path]; ok {
		return ErrIntentExists
	}
	s.intents[path] = Intent{RoomID: roomID, Path: path, CreatedAt: time.Now()}
	return nil
}

func (s *memStore) DeleteIntent(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.intents, path)
	return nil
}

func (s *memStore) StaleIntents(_ context.Context, cutoff time.Time) ([]Intent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Intent
	for _, in := range s.intents {
		if in.CreatedAt.Before(cutoff) {
			out = append(out, in)
		}
	}
	return out, nil
}

func (s *memStore) Commit(_ context.Context, p Photo, limit int) (*Photo, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.commitErr != nil {
		return nil, 0, s.commitErr
	}
	if !s.rooms[p.RoomID] {
		return nil, 0, ErrRoomNotFound
	}
	if limit > 0 && s.count(p.RoomID) >= limit {
		return nil, s.count(p.RoomID), ErrLimitExceeded
	}
	p.ID = s.nextID
	s.nextID++
	p.CreatedAt = time.Now()
	s.photos[p.ID] = &p
	delete(s.intents, p.Path)
	cp := p
	return &cp, s.count(p.RoomID), nil
}

func (s *memStore) GetByID(_ context.Context, id int64) (*Photo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.photos[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *memStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.photos[id]; !ok {
		return ErrNotFound
	}
	delete(s.photos, id)
	return nil
}

func (s *memStore) ListByRoom(_ context.Context, roomID int64) ([]Photo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []Photo
	for _, p := range s.photos {
		if p.RoomID == roomID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *memStore) UpdateOrder(_ context.Context, id int64, order int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.photos[id]
	if !ok {
		return ErrNotFound
	}
	p.DisplayOrder = order
	return nil
}

func (s *memStore) Stats(_ context.Context) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var st Stats
	for _, p := range s.photos {
		st.TotalSize += p.Size
		st.PhotoCount++
	}
	if st.PhotoCount > 0 {
		st.AverageSize = float64(st.TotalSize) / float64(st.PhotoCount)
	}
	return st, nil
}

// memRooms is an in-memory RoomStore.
type memRooms struct {
	featured map[int64]string
}

func (r *memRooms) SetFeaturedImage(_ context.Context, id int64, path string) error {
	if _, ok := r.featured[id]; !ok {
		return room.ErrNotFound
	}
	r.featured[id] = path
	return nil
}

func (r *memRooms) FeaturedImage(_ context.Context, id int64) (string, error) {
	p, ok := r.featured[id]
	if !ok {
		return "", room.ErrNotFound
	}
	return p, nil
}

// memObjects is an in-memory storage.Storage.
type memObjects struct {
	mu        sync.Mutex
	objects   map[string][]byte
	uploads   int
	deleted   []string
	uploadErr error
	deleteErr error
	base      string
}

func newMemObjects(base string) *memObjects {
	return &memObjects{objects: map[string][]byte{}, base: base}
}

func (o *memObjects) Upload(_ context.Context, key string, r io.Reader, _ int64, _ string, overwrite bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.uploads++
	if o.uploadErr != nil {
		return o.uploadErr
	}
	if _, ok := o.objects[key]; ok && !overwrite {
		return storage.ErrObjectExists
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	o.objects[key] = b
	return nil
}

func (o *memObjects) Delete(_ context.Context, keys ...string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.deleteErr != nil {
		return o.deleteErr
	}
	for _, k := range keys {
		delete(o.objects, k)
		o.deleted = append(o.deleted, k)
	}
	return nil
}

func (o *memObjects) List(_ context.Context, prefix string) ([]storage.Object, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []storage.Object
	for k, b := range o.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, storage.Object{Key: k, Size: int64(len(b))})
		}
	}
	return out, nil
}

func (o *memObjects) PublicURL(key string) string { return o.base + "/" + key }

func (o *memObjects) has(key string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.objects[key]
	return ok
}

const testService = "https://hotel.example.com"

type fixture struct {
	m       *Manager
	store   *memStore
	rooms   *memRooms
	objects *memObjects
}

func newFixture(t *testing.T, strict bool) *fixture {
	t.Helper()
	store := newMemStore(1, 2)
	rooms := &memRooms{featured: map[int64]string{1: "", 2: ""}}
	objects := newMemObjects(testService + "/storage/v1/object/public/room-photos")
	m := NewManager(store, rooms, objects, Options{
		ServiceURL: testService,
		Bucket:     "room-photos",
		StrictCap:  strict,
	})
	return &fixture{m: m, store: store, rooms: rooms, objects: objects}
}

func jpeg(name string, size int) File {
	return File{Name: name, Size: int64(size), ContentType: "image/jpeg", Body: bytes.NewReader(make([]byte, size))}
}

func TestValidateFile(t *testing.T) {
	tests := []struct {
		name   string
		file   File
		reason Reason
	}{
		{"jpeg ok", File{Size: 1024, ContentType: "image/jpeg"}, ""},
		{"jpg alias ok", File{Size: 1024, ContentType: "image/jpg"}, ""},
		{"png ok", File{Size: 1024, ContentType: "image/png"}, ""},
		{"webp with params ok", File{Size: 1024, ContentType: "image/webp; q=1"}, ""},
		{"exactly max ok", File{Size: MaxFileSize, ContentType: "image/png"}, ""},
		{"too large", File{Size: MaxFileSize + 1, ContentType: "image/png"}, ReasonFileTooLarge},
		{"too large wins over type", File{Size: MaxFileSize + 1, ContentType: "application/pdf"}, ReasonFileTooLarge},
		{"gif rejected", File{Size: 10, ContentType: "image/gif"}, ReasonUnsupportedType},
		{"empty type rejected", File{Size: 10}, ReasonUnsupportedType},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateFile(tc.file)
			if tc.reason == "" {
				if err != nil {
					t.Fatalf("expected ok, got %v", err)
				}
				return
			}
			if KindOf(err) != KindValidation || ReasonOf(err) != tc.reason {
				t.Fatalf("expected %s, got %v", tc.reason, err)
			}
		})
	}
}

func TestUploadGallery_LimitSkipsStorage(t *testing.T) {
	f := newFixture(t, false)
	for i := 0; i < MaxPhotosPerRoom; i++ {
		if _, err := f.m.UploadGalleryPhoto(context.Background(), 1, jpeg("p.jpg", 10), i); err != nil {
			t.Fatalf("upload %d: %v", i, err)
		}
	}
	before := f.objects.uploads

	_, err := f.m.UploadGalleryPhoto(context.Background(), 1, jpeg("extra.jpg", 10), 20)
	if KindOf(err) != KindLimitExceeded {
		t.Fatalf("expected limit exceeded, got %v", err)
	}
	if !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("limit error should wrap ErrLimitExceeded")
	}
	if f.objects.uploads != before {
		t.Fatalf("storage was called after the cap was reached")
	}
}

func TestUploadGallery_FirstPhotoBecomesFeatured(t *testing.T) {
	f := newFixture(t, false)
	first, err := f.m.UploadGalleryPhoto(context.Background(), 1, jpeg("a.jpg", 10), 0)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if f.rooms.featured[1] != first.Path {
		t.Fatalf("featured = %q, want %q", f.rooms.featured[1], first.Path)
	}

	if _, err := f.m.UploadGalleryPhoto(context.Background(), 1, jpeg("b.jpg", 10), 1); err != nil {
		t.Fatalf("second upload: %v", err)
	}
	if f.rooms.featured[1] != first.Path {
		t.Fatalf("second photo must not replace featured, got %q", f.rooms.featured[1])
	}
}

func TestUploadGallery_RoundTrip(t *testing.T) {
	f := newFixture(t, false)
	out, err := f.m.UploadGalleryPhoto(context.Background(), 2, jpeg("Pool View.JPG", 4096), 3)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasPrefix(out.Path, "2/gallery-") || !strings.HasSuffix(out.Path, ".jpg") {
		t.Fatalf("unexpected path %q", out.Path)
	}

	photos := f.m.GetRoomPhotos(context.Background(), 2)
	if len(photos) != 1 {
		t.Fatalf("expected 1 photo, got %d", len(photos))
	}
	p := photos[0]
	if p.Name != "Pool View.JPG" || p.Size != 4096 || p.Path != out.Path || p.PublicURL != out.URL {
		t.Fatalf("round trip mismatch: %+v vs %+v", p, out)
	}
	want := testService + "/storage/v1/object/public/room-photos/" + out.Path
	if p.PublicURL != want {
		t.Fatalf("url = %q, want %q", p.PublicURL, want)
	}
	if len(f.store.intents) != 0 {
		t.Fatalf("committed upload left an intent")
	}
}

func TestUploadGallery_UniquePathsWithinMillisecond(t *testing.T) {
	f := newFixture(t, false)
	fixed := time.UnixMilli(1700000000000)
	f.m.clock = &millisClock{now: func() time.Time { return fixed }}

	a, err := f.m.UploadGalleryPhoto(context.Background(), 1, jpeg("a.jpg", 1), 0)
	if err != nil {
		t.Fatalf("upload a: %v", err)
	}
	b, err := f.m.UploadGalleryPhoto(context.Background(), 1, jpeg("b.jpg", 1), 1)
	if err != nil {
		t.Fatalf("upload b: %v", err)
	}
	if a.Path == b.Path {
		t.Fatalf("paths collide: %s", a.Path)
	}
	if a.Path != "1/gallery-1700000000000.jpg" || b.Path != "1/gallery-1700000000001.jpg" {
		t.Fatalf("unexpected paths %s, %s", a.Path, b.Path)
	}
}

func TestUploadGallery_CommitFailureCleansUp(t *testing.T) {
	f := newFixture(t, false)
	f.store.commitErr = errors.New("connection reset")

	out, err := f.m.UploadGalleryPhoto(context.Background(), 1, jpeg("a.jpg", 10), 0)
	if out != nil || KindOf(err) != KindDatabase {
		t.Fatalf("expected database error, got %v", err)
	}
	if len(f.objects.objects) != 0 {
		t.Fatalf("object left behind: %v", f.objects.objects)
	}
	if len(f.store.intents) != 0 {
		t.Fatalf("intent left behind: %v", f.store.intents)
	}
}

func TestUploadGallery_FailedCleanupIsSwept(t *testing.T) {
	f := newFixture(t, false)
	f.store.commitErr = errors.New("connection reset")
	f.objects.deleteErr = errors.New("storage down")

	if _, err := f.m.UploadGalleryPhoto(context.Background(), 1, jpeg("a.jpg", 10), 0); KindOf(err) != KindDatabase {
		t.Fatalf("expected database error, got %v", err)
	}
	if len(f.store.intents) != 1 || len(f.objects.objects) != 1 {
		t.Fatalf("expected intent and object to remain, got %d intents %d objects",
			len(f.store.intents), len(f.objects.objects))
	}

	f.objects.deleteErr = nil
	s, err := NewSweeper(f.m, "@every 1h", -time.Minute)
	if err != nil {
		t.Fatalf("NewSweeper: %v", err)
	}
	if n := s.Run(context.Background()); n != 1 {
		t.Fatalf("sweep removed %d, want 1", n)
	}
	if len(f.store.intents) != 0 || len(f.objects.objects) != 0 {
		t.Fatalf("sweep left %d intents %d objects", len(f.store.intents), len(f.objects.objects))
	}
}

func TestSweeper_RespectsGrace(t *testing.T) {
	f := newFixture(t, false)
	_ = f.store.CreateIntent(context.Background(), 1, "1/gallery-1.jpg")

	s, err := NewSweeper(f.m, "@every 1h", time.Hour)
	if err != nil {
		t.Fatalf("NewSweeper: %v", err)
	}
	if n := s.Run(context.Background()); n != 0 {
		t.Fatalf("fresh intent swept")
	}
	if len(f.store.intents) != 1 {
		t.Fatalf("fresh intent removed")
	}
}

// blockingReconciler holds each reconcile until release is closed or the
// sweep's context ends.
type blockingReconciler struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingReconciler) ReconcileUploads(ctx context.Context, _ time.Time) (int, error) {
	b.once.Do(func() { close(b.started) })
	select {
	case <-b.release:
		return 0, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func TestSweeper_StopWaitsForInitialSweep(t *testing.T) {
	rec := &blockingReconciler{started: make(chan struct{}), release: make(chan struct{})}
	s, err := NewSweeper(rec, "@every 1h", time.Minute)
	if err != nil {
		t.Fatalf("NewSweeper: %v", err)
	}
	s.Start()
	<-rec.started

	stopped := make(chan struct{})
	go func() {
		s.Stop(context.Background())
		close(stopped)
	}()
	select {
	case <-stopped:
		t.Fatal("Stop returned while the initial sweep was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(rec.release)
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after the sweep finished")
	}
}

func TestSweeper_StopCancelsOnDeadline(t *testing.T) {
	rec := &blockingReconciler{started: make(chan struct{}), release: make(chan struct{})}
	s, err := NewSweeper(rec, "@every 1h", time.Minute)
	if err != nil {
		t.Fatalf("NewSweeper: %v", err)
	}
	s.Start()
	<-rec.started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	s.Stop(ctx)
	if s.ctx.Err() == nil {
		t.Fatal("sweep context should be cancelled after a timed out Stop")
	}
}

func TestNewSweeper_BadSchedule(t *testing.T) {
	f := newFixture(t, false)
	if _, err := NewSweeper(f.m, "not a schedule", time.Minute); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}

func TestUploadGallery_StorageFailureKeepsIntent(t *testing.T) {
	f := newFixture(t, false)
	f.objects.uploadErr = errors.New("timeout")

	_, err := f.m.UploadGalleryPhoto(context.Background(), 1, jpeg("a.jpg", 10), 0)
	if KindOf(err) != KindStorage {
		t.Fatalf("expected storage error, got %v", err)
	}
	if len(f.store.photos) != 0 {
		t.Fatalf("row inserted after failed upload")
	}
	if len(f.store.intents) != 1 {
		t.Fatalf("intent should be left for the sweep")
	}
}

func TestUploadGallery_StrictModeRecheckAtCommit(t *testing.T) {
	f := newFixture(t, true)
	for i := 0; i < MaxPhotosPerRoom; i++ {
		if _, err := f.m.UploadGalleryPhoto(context.Background(), 1, jpeg("p.jpg", 1), i); err != nil {
			t.Fatalf("upload %d: %v", i, err)
		}
	}
	// A stale pre-check: a concurrent insert has not been counted yet.
	f.store.countLag = 1

	_, err := f.m.UploadGalleryPhoto(context.Background(), 1, jpeg("late.jpg", 1), 20)
	if KindOf(err) != KindLimitExceeded {
		t.Fatalf("expected limit exceeded at commit, got %v", err)
	}
	if got := f.store.count(1); got != MaxPhotosPerRoom {
		t.Fatalf("room holds %d photos", got)
	}
	if len(f.objects.objects) != MaxPhotosPerRoom || len(f.store.intents) != 0 {
		t.Fatalf("rejected upload was not cleaned up")
	}
}

func TestUploadGallery_LenientModeAllowsOvershoot(t *testing.T) {
	f := newFixture(t, false)
	for i := 0; i < MaxPhotosPerRoom; i++ {
		if _, err := f.m.UploadGalleryPhoto(context.Background(), 1, jpeg("p.jpg", 1), i); err != nil {
			t.Fatalf("upload %d: %v", i, err)
		}
	}
	f.store.countLag = 1
	if _, err := f.m.UploadGalleryPhoto(context.Background(), 1, jpeg("late.jpg", 1), 20); err != nil {
		t.Fatalf("lenient mode should accept on a stale count: %v", err)
	}
}

func TestUploadGallery_UnknownRoom(t *testing.T) {
	f := newFixture(t, false)
	_, err := f.m.UploadGalleryPhoto(context.Background(), 99, jpeg("a.jpg", 1), 0)
	if KindOf(err) != KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if f.objects.uploads != 0 || len(f.store.intents) != 0 {
		t.Fatalf("unknown room reached storage: %d uploads, %d intents", f.objects.uploads, len(f.store.intents))
	}
	if _, err := f.m.PhotoCount(context.Background(), 99); KindOf(err) != KindNotFound {
		t.Fatalf("PhotoCount for unknown room: %v", err)
	}
}

func TestUploadGallery_RoomDeletedBeforeCommit(t *testing.T) {
	f := newFixture(t, false)
	// Known to the room table check but gone by the time the row is inserted.
	f.rooms.featured[3] = ""

	_, err := f.m.UploadGalleryPhoto(context.Background(), 3, jpeg("a.jpg", 1), 0)
	if KindOf(err) != KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(f.objects.objects) != 0 || len(f.store.intents) != 0 {
		t.Fatalf("commit failure left %d objects %d intents", len(f.objects.objects), len(f.store.intents))
	}
}

func TestUploadFeatured(t *testing.T) {
	f := newFixture(t, false)
	f.objects.objects["1/featured.png"] = []byte("old")

	out, err := f.m.UploadFeaturedPhoto(context.Background(), 1, jpeg("cover.JPEG", 100))
	if err != nil {
		t.Fatalf("UploadFeaturedPhoto: %v", err)
	}
	if out.Path != "1/featured.jpeg" || out.ID != 1 {
		t.Fatalf("unexpected result %+v", out)
	}
	if f.objects.has("1/featured.png") {
		t.Fatalf("previous featured file not removed")
	}
	if !f.objects.has("1/featured.jpeg") {
		t.Fatalf("new featured file missing")
	}
	if f.rooms.featured[1] != "1/featured.jpeg" {
		t.Fatalf("room featured = %q", f.rooms.featured[1])
	}
	if got := f.m.GetFeaturedPhotoURL(context.Background(), 1); got != out.URL {
		t.Fatalf("featured url = %q, want %q", got, out.URL)
	}
}

func TestUploadFeatured_ExtensionFromMediaType(t *testing.T) {
	f := newFixture(t, false)
	file := File{Name: "blob", Size: 3, ContentType: "image/webp", Body: strings.NewReader("abc")}
	out, err := f.m.UploadFeaturedPhoto(context.Background(), 2, file)
	if err != nil {
		t.Fatalf("UploadFeaturedPhoto: %v", err)
	}
	if out.Path != "2/featured.webp" {
		t.Fatalf("path = %q", out.Path)
	}
}

func TestUploadFeatured_Failures(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.m.UploadFeaturedPhoto(context.Background(), 1, File{Size: 1, ContentType: "text/plain"})
	if ReasonOf(err) != ReasonUnsupportedType {
		t.Fatalf("expected unsupported type, got %v", err)
	}
	if f.objects.uploads != 0 {
		t.Fatalf("invalid file reached storage")
	}

	_, err = f.m.UploadFeaturedPhoto(context.Background(), 42, jpeg("x.jpg", 1))
	if KindOf(err) != KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if f.objects.uploads != 0 {
		t.Fatalf("missing room reached storage")
	}
	if f.objects.has("42/featured.jpg") {
		t.Fatalf("object kept for missing room")
	}

	f.objects.uploadErr = errors.New("bucket missing")
	_, err = f.m.UploadFeaturedPhoto(context.Background(), 1, jpeg("x.jpg", 1))
	if KindOf(err) != KindStorage || !strings.Contains(err.Error(), "bucket missing") {
		t.Fatalf("expected verbatim storage error, got %v", err)
	}
}

func TestDeletePhoto(t *testing.T) {
	f := newFixture(t, false)
	out, _ := f.m.UploadGalleryPhoto(context.Background(), 1, jpeg("a.jpg", 1), 0)

	// Already gone from storage; Delete reports success for missing keys.
	delete(f.objects.objects, out.Path)
	if err := f.m.DeletePhoto(context.Background(), out.ID); err != nil {
		t.Fatalf("DeletePhoto: %v", err)
	}
	if len(f.store.photos) != 0 {
		t.Fatalf("row not removed")
	}

	if err := f.m.DeletePhoto(context.Background(), out.ID); KindOf(err) != KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeletePhoto_StorageErrorKeepsRow(t *testing.T) {
	f := newFixture(t, false)
	out, _ := f.m.UploadGalleryPhoto(context.Background(), 1, jpeg("a.jpg", 1), 0)
	f.objects.deleteErr = errors.New("permission denied")

	if err := f.m.DeletePhoto(context.Background(), out.ID); KindOf(err) != KindStorage {
		t.Fatalf("expected storage error, got %v", err)
	}
	if _, ok := f.store.photos[out.ID]; !ok {
		t.Fatalf("row removed despite storage failure")
	}
}

func TestDeletePhoto_RepromotesFeatured(t *testing.T) {
	f := newFixture(t, false)
	first, _ := f.m.UploadGalleryPhoto(context.Background(), 1, jpeg("a.jpg", 1), 0)
	second, _ := f.m.UploadGalleryPhoto(context.Background(), 1, jpeg("b.jpg", 1), 1)

	if err := f.m.DeletePhoto(context.Background(), first.ID); err != nil {
		t.Fatalf("DeletePhoto: %v", err)
	}
	if f.rooms.featured[1] != second.Path {
		t.Fatalf("featured = %q, want %q", f.rooms.featured[1], second.Path)
	}
	if err := f.m.DeletePhoto(context.Background(), second.ID); err != nil {
		t.Fatalf("DeletePhoto: %v", err)
	}
	if f.rooms.featured[1] != "" {
		t.Fatalf("featured should be cleared, got %q", f.rooms.featured[1])
	}
}

func TestGetRoomPhotos_OrderAndReorder(t *testing.T) {
	f := newFixture(t, false)
	a, _ := f.m.UploadGalleryPhoto(context.Background(), 1, jpeg("a.jpg", 1), 5)
	b, _ := f.m.UploadGalleryPhoto(context.Background(), 1, jpeg("b.jpg", 1), 1)
	c, _ := f.m.UploadGalleryPhoto(context.Background(), 1, jpeg("c.jpg", 1), 3)

	got := ids(f.m.GetRoomPhotos(context.Background(), 1))
	if want := []int64{b.ID, c.ID, a.ID}; !equal(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}

	if err := f.m.UpdatePhotoOrder(context.Background(), a.ID, 0); err != nil {
		t.Fatalf("UpdatePhotoOrder: %v", err)
	}
	// Ties are allowed.
	if err := f.m.UpdatePhotoOrder(context.Background(), c.ID, 1); err != nil {
		t.Fatalf("UpdatePhotoOrder: %v", err)
	}
	got = ids(f.m.GetRoomPhotos(context.Background(), 1))
	if got[0] != a.ID {
		t.Fatalf("order after reorder = %v", got)
	}

	if err := f.m.UpdatePhotoOrder(context.Background(), 999, 1); KindOf(err) != KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGetRoomPhotos_FailsSoft(t *testing.T) {
	f := newFixture(t, false)
	f.store.listErr = errors.New("db down")
	photos := f.m.GetRoomPhotos(context.Background(), 1)
	if photos == nil || len(photos) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", photos)
	}
}

func TestResolveURL_Normalizes(t *testing.T) {
	f := newFixture(t, false)
	if got := f.m.ResolveURL(""); got != "" {
		t.Fatalf("empty path resolved to %q", got)
	}

	f.objects.base = "http://minio:9000/room-photos"
	want := testService + "/storage/v1/object/public/room-photos/1/a.jpg"
	if got := f.m.ResolveURL("1/a.jpg"); got != want {
		t.Fatalf("ResolveURL = %q, want %q", got, want)
	}
}

func TestGetStorageStats(t *testing.T) {
	f := newFixture(t, false)
	_, _ = f.m.UploadGalleryPhoto(context.Background(), 1, jpeg("a.jpg", 100), 0)
	_, _ = f.m.UploadGalleryPhoto(context.Background(), 2, jpeg("b.jpg", 300), 0)

	st := f.m.GetStorageStats(context.Background())
	if st.PhotoCount != 2 || st.TotalSize != 400 || st.AverageSize != 200 {
		t.Fatalf("unexpected stats %+v", st)
	}
	if st.ObjectCount != 2 || st.ObjectBytes != 400 {
		t.Fatalf("unexpected object stats %+v", st)
	}
}

func TestMillisClock_StrictlyIncreasing(t *testing.T) {
	now := time.UnixMilli(1000)
	c := &millisClock{now: func() time.Time { return now }}
	prev := c.Next()
	for i := 0; i < 100; i++ {
		if i == 50 {
			now = time.UnixMilli(900) // clock stepped back
		}
		n := c.Next()
		if n <= prev {
			t.Fatalf("stamp %d not after %d", n, prev)
		}
		prev = n
	}
}

func ids(ps []WithURL) []int64 {
	out := make([]int64, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func equal(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
