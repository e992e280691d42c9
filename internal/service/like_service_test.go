package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"skymate/internal/infra/database"
	infraKafka "skymate/internal/infra/kafka"
	"skymate/internal/model"
	"skymate/internal/repository"

	"gorm.io/gorm"
)

type fixture struct {
	db     *gorm.DB
	photos *repository.PhotoRepository
	likes  *repository.LikeRepository
	svc    *LikeService
	events *recordingPublisher
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []infraKafka.LikeEvent
	err    error
}

func (p *recordingPublisher) PublishLikeEvent(_ context.Context, event infraKafka.LikeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

type prefixResolver struct{}

func (prefixResolver) ResolvePublicURL(path string) string {
	return "https://cdn.example.com/" + path
}

func newFixture(t *testing.T, withLikes bool) *fixture {
	t.Helper()
	db, err := database.OpenInMemory(withLikes)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })

	f := &fixture{
		db:     db,
		photos: repository.NewPhotoRepository(db),
		likes:  repository.NewLikeRepository(db),
		events: &recordingPublisher{},
	}
	f.svc = NewLikeService(f.photos, f.likes, repository.NewSchemaInspector(db), prefixResolver{}, f.events, time.Second)
	return f
}

func (f *fixture) photo(t *testing.T, userID int64, desc string, createdAt time.Time, likesCount int64) *model.Photo {
	t.Helper()
	p := &model.Photo{
		UserID:      userID,
		Description: desc,
		StoragePath: desc + ".jpg",
		LikesCount:  likesCount,
		CreatedAt:   createdAt,
	}
	if err := f.photos.Create(context.Background(), p); err != nil {
		t.Fatalf("create photo: %v", err)
	}
	return p
}

func (f *fixture) storedCounter(t *testing.T, photoID int64) int64 {
	t.Helper()
	p, err := f.photos.GetByID(context.Background(), photoID)
	if err != nil {
		t.Fatalf("get photo: %v", err)
	}
	return p.LikesCount
}

func TestToggleLikeTwice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	p1 := f.photo(t, 1, "kyoto", time.Now().UTC(), 0)

	res, err := f.svc.ToggleLike(ctx, p1.ID, 100)
	if err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	if res.Likes != 1 || !res.IsLiked {
		t.Fatalf("first toggle = %+v, want {1 true}", res)
	}
	if got := f.storedCounter(t, p1.ID); got != 1 {
		t.Fatalf("stored counter = %d, want 1", got)
	}

	res, err = f.svc.ToggleLike(ctx, p1.ID, 100)
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if res.Likes != 0 || res.IsLiked {
		t.Fatalf("second toggle = %+v, want {0 false}", res)
	}
	if got := f.storedCounter(t, p1.ID); got != 0 {
		t.Fatalf("stored counter = %d, want 0", got)
	}

	if len(f.events.events) != 2 {
		t.Fatalf("published %d events, want 2", len(f.events.events))
	}
	last := f.events.events[1]
	if last.PhotoID != p1.ID || last.UserID != 100 || last.Liked || last.Likes != 0 {
		t.Fatalf("unexpected event %+v", last)
	}
}

func TestToggleLikeTwoUsers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	p1 := f.photo(t, 1, "lisbon", time.Now().UTC(), 0)

	for _, user := range []int64{11, 12} {
		if _, err := f.svc.ToggleLike(ctx, p1.ID, user); err != nil {
			t.Fatalf("toggle by %d: %v", user, err)
		}
	}

	n, err := f.svc.GetLikesCount(ctx, p1.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("count = %d, want 2", n)
	}
}

func TestToggleLikeSymmetry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	p := f.photo(t, 1, "oslo", time.Now().UTC(), 0)
	if err := f.svc.AddLike(ctx, p.ID, 7); err != nil {
		t.Fatalf("seed like: %v", err)
	}

	for _, user := range []int64{7, 8} {
		before, _ := f.svc.GetLikesCount(ctx, p.ID)
		first, err := f.svc.ToggleLike(ctx, p.ID, user)
		if err != nil {
			t.Fatalf("toggle: %v", err)
		}
		second, err := f.svc.ToggleLike(ctx, p.ID, user)
		if err != nil {
			t.Fatalf("toggle: %v", err)
		}
		if first.IsLiked == second.IsLiked {
			t.Fatalf("user %d: toggles returned the same state %v", user, first.IsLiked)
		}
		after, _ := f.svc.GetLikesCount(ctx, p.ID)
		if before != after {
			t.Fatalf("user %d: count before %d after %d", user, before, after)
		}
	}
}

func TestAddLikeIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	p := f.photo(t, 1, "rome", time.Now().UTC(), 0)

	for i := 0; i < 2; i++ {
		if err := f.svc.AddLike(ctx, p.ID, 5); err != nil {
			t.Fatalf("add like #%d: %v", i+1, err)
		}
		n, err := f.svc.GetLikesCount(ctx, p.ID)
		if err != nil || n != 1 {
			t.Fatalf("after add #%d count = %d, err = %v", i+1, n, err)
		}
	}

	liked, err := f.svc.HasUserLiked(ctx, p.ID, 5)
	if err != nil || !liked {
		t.Fatalf("HasUserLiked = %v, %v; want true", liked, err)
	}
}

func TestRemoveLikeNeverLiked(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	p := f.photo(t, 1, "cairo", time.Now().UTC(), 0)
	if err := f.svc.AddLike(ctx, p.ID, 1); err != nil {
		t.Fatalf("add like: %v", err)
	}

	if err := f.svc.RemoveLike(ctx, p.ID, 3); err != nil {
		t.Fatalf("remove like: %v", err)
	}
	n, err := f.svc.GetLikesCount(ctx, p.ID)
	if err != nil || n != 1 {
		t.Fatalf("count = %d, err = %v; want 1", n, err)
	}

	if err := f.svc.RemoveLike(ctx, p.ID, 1); err != nil {
		t.Fatalf("remove like: %v", err)
	}
	if n, _ := f.svc.GetLikesCount(ctx, p.ID); n != 0 {
		t.Fatalf("count = %d, want 0", n)
	}
}

func TestGetLikesCountNeverNegative(t *testing.T) {
	ctx := context.Background()

	f := newFixture(t, true)
	p := f.photo(t, 1, "nara", time.Now().UTC(), 0)
	for _, op := range []func() error{
		func() error { return f.svc.RemoveLike(ctx, p.ID, 1) },
		func() error { _, err := f.svc.ToggleLike(ctx, p.ID, 1); return err },
		func() error { return f.svc.RemoveLike(ctx, p.ID, 1) },
		func() error { return f.svc.RemoveLike(ctx, p.ID, 1) },
	} {
		if err := op(); err != nil {
			t.Fatalf("op: %v", err)
		}
		if n, err := f.svc.GetLikesCount(ctx, p.ID); err != nil || n < 0 {
			t.Fatalf("count = %d, err = %v", n, err)
		}
	}

	degraded := newFixture(t, false)
	broken := degraded.photo(t, 1, "corrupt", time.Now().UTC(), 0)
	if err := degraded.db.Model(&model.Photo{}).Where("id = ?", broken.ID).
		UpdateColumn(model.LikesCountColumn, -4).Error; err != nil {
		t.Fatalf("corrupt counter: %v", err)
	}
	if n, err := degraded.svc.GetLikesCount(ctx, broken.ID); err != nil || n != 0 {
		t.Fatalf("degraded count = %d, err = %v; want 0", n, err)
	}
}

func TestDegradedMode(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	p1 := f.photo(t, 1, "bergen", time.Now().UTC(), 7)

	caps, err := f.svc.Detect(ctx)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if caps.Mode != ModeDegraded || !caps.HasCounter {
		t.Fatalf("caps = %+v, want degraded with counter", caps)
	}

	n, err := f.svc.GetLikesCount(ctx, p1.ID)
	if err != nil || n != 7 {
		t.Fatalf("count = %d, err = %v; want 7", n, err)
	}

	liked, err := f.svc.HasUserLiked(ctx, p1.ID, 1)
	if err != nil || liked {
		t.Fatalf("HasUserLiked = %v, %v; want false", liked, err)
	}

	if err := f.svc.AddLike(ctx, p1.ID, 1); err != nil {
		t.Fatalf("add like: %v", err)
	}
	if err := f.svc.RemoveLike(ctx, p1.ID, 1); err != nil {
		t.Fatalf("remove like: %v", err)
	}

	res, err := f.svc.ToggleLike(ctx, p1.ID, 1)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if res.Likes != 7 || res.IsLiked {
		t.Fatalf("toggle = %+v, want {7 false}", res)
	}
	if len(f.events.events) != 0 {
		t.Fatalf("degraded toggle should not publish, got %d events", len(f.events.events))
	}

	if got := f.svc.GetUserLikedPhotos(ctx, 1); len(got) != 0 {
		t.Fatalf("liked photos = %d, want 0", len(got))
	}

	all := f.svc.GetPhotosWithLikes(ctx, nil)
	if len(all) != 1 || all[0].Likes != 7 || all[0].IsLikedByUser {
		t.Fatalf("photos = %+v", all)
	}
}

func TestGetPhotosWithLikesOrdering(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t1 := f.photo(t, 1, "t1", base, 0)
	t3 := f.photo(t, 2, "t3", base.Add(2*time.Hour), 0)
	t2 := f.photo(t, 1, "t2", base.Add(time.Hour), 0)

	if err := f.svc.AddLike(ctx, t2.ID, 42); err != nil {
		t.Fatalf("add like: %v", err)
	}

	viewer := int64(42)
	got := f.svc.GetPhotosWithLikes(ctx, &viewer)
	want := []int64{t3.ID, t2.ID, t1.ID}
	if len(got) != len(want) {
		t.Fatalf("got %d photos, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: got photo %d, want %d", i, got[i].ID, id)
		}
	}

	if got[1].Likes != 1 || !got[1].IsLikedByUser {
		t.Fatalf("t2 annotations = %+v", got[1])
	}
	if got[0].IsLikedByUser || got[2].IsLikedByUser {
		t.Fatalf("unexpected liked flags: %+v", got)
	}
	if got[0].URL != "https://cdn.example.com/t3.jpg" {
		t.Fatalf("url = %q", got[0].URL)
	}

	anonymous := f.svc.GetPhotosWithLikes(ctx, nil)
	for _, p := range anonymous {
		if p.IsLikedByUser {
			t.Fatalf("anonymous view should not mark photo %d liked", p.ID)
		}
	}
}

func TestGetUserLikedPhotos(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	base := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	older := f.photo(t, 1, "older", base, 0)
	newer := f.photo(t, 1, "newer", base.Add(time.Hour), 0)
	f.photo(t, 1, "ignored", base.Add(2*time.Hour), 0)

	for _, id := range []int64{older.ID, newer.ID} {
		if err := f.svc.AddLike(ctx, id, 9); err != nil {
			t.Fatalf("add like: %v", err)
		}
	}

	got := f.svc.GetUserLikedPhotos(ctx, 9)
	if len(got) != 2 {
		t.Fatalf("got %d photos, want 2", len(got))
	}
	if got[0].ID != newer.ID || got[1].ID != older.ID {
		t.Fatalf("order = [%d %d], want [%d %d]", got[0].ID, got[1].ID, newer.ID, older.ID)
	}
	for _, p := range got {
		if !p.IsLikedByUser || p.Likes != 1 {
			t.Fatalf("unexpected annotation %+v", p)
		}
	}

	if none := f.svc.GetUserLikedPhotos(ctx, 10); len(none) != 0 {
		t.Fatalf("user without likes got %d photos", len(none))
	}
}

func TestPhotoNotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	if _, err := f.svc.GetLikesCount(ctx, 404); !errors.Is(err, ErrPhotoNotFound) {
		t.Fatalf("GetLikesCount err = %v", err)
	}
	if err := f.svc.AddLike(ctx, 404, 1); !errors.Is(err, ErrPhotoNotFound) {
		t.Fatalf("AddLike err = %v", err)
	}
	if _, err := f.svc.ToggleLike(ctx, 404, 1); !errors.Is(err, ErrPhotoNotFound) {
		t.Fatalf("ToggleLike err = %v", err)
	}
}

func TestReconcileCounter(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	p := f.photo(t, 1, "drifted", time.Now().UTC(), 13)

	for _, user := range []int64{1, 2} {
		if err := f.svc.AddLike(ctx, p.ID, user); err != nil {
			t.Fatalf("add like: %v", err)
		}
	}

	n, err := f.svc.ReconcileCounter(ctx, p.ID)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if n != 2 || f.storedCounter(t, p.ID) != 2 {
		t.Fatalf("reconciled = %d, stored = %d; want 2", n, f.storedCounter(t, p.ID))
	}
}

func TestPublishFailureDoesNotFailToggle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	f.events.err = errors.New("broker down")
	p := f.photo(t, 1, "quito", time.Now().UTC(), 0)

	res, err := f.svc.ToggleLike(ctx, p.ID, 1)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !res.IsLiked || res.Likes != 1 {
		t.Fatalf("toggle = %+v", res)
	}
}

// flakyProbe 前 failures 次探测失败
type flakyProbe struct {
	failures int
	calls    int
	schema   repository.Schema
}

func (p *flakyProbe) Inspect(context.Context) (repository.Schema, error) {
	p.calls++
	if p.calls <= p.failures {
		return repository.Schema{}, errors.New("connection refused")
	}
	return p.schema, nil
}

func TestDetectRetriesAfterFailure(t *testing.T) {
	ctx := context.Background()
	probe := &flakyProbe{failures: 1, schema: repository.Schema{HasLikesTable: true, HasLikesCounter: true}}
	svc := NewLikeService(nil, nil, probe, nil, nil, time.Second)

	if _, err := svc.Detect(ctx); !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("first detect err = %v, want ErrBackendUnavailable", err)
	}
	if svc.Capabilities().Mode != ModeUnknown {
		t.Fatalf("failed probe must not be cached")
	}

	caps, err := svc.Detect(ctx)
	if err != nil || caps.Mode != ModeRelational {
		t.Fatalf("second detect = %+v, %v", caps, err)
	}
	if _, err := svc.Detect(ctx); err != nil {
		t.Fatalf("third detect: %v", err)
	}
	if probe.calls != 2 {
		t.Fatalf("probe called %d times, want 2", probe.calls)
	}
}

// failingLikes 模拟点赞存储故障
type failingLikes struct {
	err   error
	delay time.Duration
}

func (l *failingLikes) wait(ctx context.Context) error {
	if l.delay == 0 {
		return l.err
	}
	select {
	case <-time.After(l.delay):
		return l.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *failingLikes) Create(ctx context.Context, _, _ int64) (*model.Like, error) {
	return nil, l.wait(ctx)
}

func (l *failingLikes) Delete(ctx context.Context, _, _ int64) (bool, error) {
	return false, l.wait(ctx)
}

func (l *failingLikes) Exists(ctx context.Context, _, _ int64) (bool, error) {
	return false, l.wait(ctx)
}

func (l *failingLikes) CountByPhoto(ctx context.Context, _ int64) (int64, error) {
	return 0, l.wait(ctx)
}

func (l *failingLikes) CountByPhotos(ctx context.Context, _ []int64) (map[int64]int64, error) {
	return nil, l.wait(ctx)
}

func (l *failingLikes) BatchCheckLiked(ctx context.Context, _ int64, _ []int64) (map[int64]bool, error) {
	return nil, l.wait(ctx)
}

func (l *failingLikes) LikedPhotoIDs(ctx context.Context, _ int64) ([]int64, error) {
	return nil, l.wait(ctx)
}

func TestBackendFailures(t *testing.T) {
	tests := []struct {
		name    string
		likes   *failingLikes
		timeout time.Duration
	}{
		{name: "store error", likes: &failingLikes{err: errors.New("disk I/O error")}, timeout: time.Second},
		{name: "timeout", likes: &failingLikes{delay: time.Second}, timeout: 20 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t, true)
			p := f.photo(t, 1, "lima", time.Now().UTC(), 3)
			svc := NewLikeService(f.photos, tt.likes, repository.NewSchemaInspector(f.db), nil, nil, tt.timeout)

			if _, err := svc.GetLikesCount(ctx, p.ID); !errors.Is(err, ErrBackendUnavailable) {
				t.Fatalf("GetLikesCount err = %v", err)
			}
			if _, err := svc.HasUserLiked(ctx, p.ID, 1); !errors.Is(err, ErrBackendUnavailable) {
				t.Fatalf("HasUserLiked err = %v", err)
			}
			if err := svc.AddLike(ctx, p.ID, 1); !errors.Is(err, ErrBackendUnavailable) {
				t.Fatalf("AddLike err = %v", err)
			}
			if err := svc.RemoveLike(ctx, p.ID, 1); !errors.Is(err, ErrBackendUnavailable) {
				t.Fatalf("RemoveLike err = %v", err)
			}
			if _, err := svc.ToggleLike(ctx, p.ID, 1); !errors.Is(err, ErrBackendUnavailable) {
				t.Fatalf("ToggleLike err = %v", err)
			}

			if got := svc.GetPhotosWithLikes(ctx, nil); len(got) != 0 {
				t.Fatalf("GetPhotosWithLikes should be empty on failure, got %d", len(got))
			}
			if got := svc.GetUserLikedPhotos(ctx, 1); len(got) != 0 {
				t.Fatalf("GetUserLikedPhotos should be empty on failure, got %d", len(got))
			}
		})
	}
}

func TestDatabaseDownIsBackendUnavailable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	p := f.photo(t, 1, "gone", time.Now().UTC(), 0)
	if err := database.Close(f.db); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := f.svc.GetLikesCount(ctx, p.ID); !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("err = %v, want ErrBackendUnavailable", err)
	}
	if got := f.svc.GetPhotosWithLikes(ctx, nil); len(got) != 0 {
		t.Fatalf("got %d photos, want 0", len(got))
	}
}
