package publisher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shouni/go-story-kit/pkg/asset"
	"github.com/shouni/go-story-kit/pkg/storage"
)

var testDate = time.Date(2024, 5, 17, 10, 0, 0, 0, time.UTC)

func TestInsertLink(t *testing.T) {
	got, ok := InsertLink(EmptyIndex, Link{Href: "stories/1.html", Title: "Lucky chạy", Date: testDate})
	if !ok {
		t.Fatal("expected insertion")
	}
	want := "<ul>\n<li><a href=\"stories/1.html\">Lucky chạy (Date: 2024-05-17)</a></li></ul>"
	if !strings.Contains(got, want) {
		t.Fatalf("index missing %q:\n%s", want, got)
	}
}

func TestInsertLinkOnlyFirstList(t *testing.T) {
	index := "<ul></ul><ul></ul>"
	got, _ := InsertLink(index, Link{Href: "h", Title: "t", Date: testDate})
	if strings.Count(got, "<li>") != 1 {
		t.Fatalf("link should be inserted once: %s", got)
	}
	if !strings.HasPrefix(got, "<ul>\n<li>") {
		t.Fatalf("link should follow the first list: %s", got)
	}
}

func TestInsertLinkNewestFirst(t *testing.T) {
	index, _ := InsertLink(EmptyIndex, Link{Href: "stories/1.html", Title: "one", Date: testDate})
	index, _ = InsertLink(index, Link{Href: "stories/2.html", Title: "two", Date: testDate})
	if strings.Index(index, "stories/2.html") > strings.Index(index, "stories/1.html") {
		t.Fatalf("newest link should come first:\n%s", index)
	}
}

func TestInsertLinkWithoutList(t *testing.T) {
	if _, ok := InsertLink("<html></html>", Link{}); ok {
		t.Fatal("expected no insertion without <ul>")
	}
}

func newLocal(t *testing.T) *storage.LocalStore {
	t.Helper()
	s, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	return s
}

func TestIndexUpdaterCreatesIndex(t *testing.T) {
	ctx := context.Background()
	store := newLocal(t)
	u := NewIndexUpdater(store, 3)

	if err := u.Append(ctx, Link{Href: "stories/1.html", Title: "one", Date: testDate}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	obj, err := store.Read(ctx, asset.IndexPath)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !strings.Contains(string(obj.Data), "The Adventures of Lucky") || !strings.Contains(string(obj.Data), "stories/1.html") {
		t.Fatalf("unexpected index:\n%s", obj.Data)
	}
}

func TestIndexUpdaterConcurrentAppendsSurvive(t *testing.T) {
	ctx := context.Background()
	store := newLocal(t)
	const n = 6

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u := NewIndexUpdater(store, 50)
			u.baseDelay = time.Millisecond
			errs <- u.Append(ctx, Link{Href: fmt.Sprintf("stories/%d.html", i), Title: "t", Date: testDate})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	obj, err := store.Read(ctx, asset.IndexPath)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < n; i++ {
		if !strings.Contains(string(obj.Data), fmt.Sprintf("stories/%d.html", i)) {
			t.Errorf("link %d lost:\n%s", i, obj.Data)
		}
	}
}

// racingStore は WriteIf の直前に別の書き込みを割り込ませます。
type racingStore struct {
	storage.Store
	races int
	calls int
}

func (s *racingStore) WriteIf(ctx context.Context, path string, data []byte, contentType string, generation int64) error {
	s.calls++
	if s.races > 0 {
		s.races--
		obj, err := s.Store.Read(ctx, path)
		gen := int64(0)
		current := EmptyIndex
		if err == nil {
			gen, current = obj.Generation, string(obj.Data)
		}
		other, _ := InsertLink(current, Link{Href: fmt.Sprintf("stories/other-%d.html", s.calls), Title: "other", Date: testDate})
		if err := s.Store.WriteIf(ctx, path, []byte(other), contentType, gen); err != nil {
			return err
		}
	}
	return s.Store.WriteIf(ctx, path, data, contentType, generation)
}

func TestIndexUpdaterRetriesAfterConflict(t *testing.T) {
	ctx := context.Background()
	store := &racingStore{Store: newLocal(t), races: 2}
	u := NewIndexUpdater(store, 5)
	u.baseDelay = 0

	if err := u.Append(ctx, Link{Href: "stories/mine.html", Title: "mine", Date: testDate}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if store.calls != 3 {
		t.Fatalf("WriteIf calls = %d, want 3", store.calls)
	}
	obj, _ := store.Read(ctx, asset.IndexPath)
	for _, href := range []string{"stories/mine.html", "stories/other-1.html", "stories/other-2.html"} {
		if !strings.Contains(string(obj.Data), href) {
			t.Errorf("missing %s:\n%s", href, obj.Data)
		}
	}
}

func TestIndexUpdaterGivesUp(t *testing.T) {
	store := &racingStore{Store: newLocal(t), races: 10}
	u := NewIndexUpdater(store, 3)
	u.baseDelay = 0

	err := u.Append(context.Background(), Link{Href: "stories/x.html", Title: "x", Date: testDate})
	if !errors.Is(err, ErrIndexConflict) {
		t.Fatalf("expected ErrIndexConflict, got %v", err)
	}
	if store.calls != 3 {
		t.Fatalf("WriteIf calls = %d, want 3", store.calls)
	}
}

// failingStore は WriteIf を常に失敗させます。
type failingStore struct {
	storage.Store
	err   error
	calls int
}

func (s *failingStore) WriteIf(ctx context.Context, path string, data []byte, contentType string, generation int64) error {
	s.calls++
	return s.err
}

func TestIndexUpdaterRetriesOnlyConflicts(t *testing.T) {
	errDisk := errors.New("disk full")
	tests := []struct {
		name      string
		err       error
		wantCalls int
		wantErr   error
	}{
		{"other errors are not retried", errDisk, 1, errDisk},
		{"conflicts are retried until the limit", storage.ErrPreconditionFailed, 4, ErrIndexConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &failingStore{Store: newLocal(t), err: tt.err}
			u := NewIndexUpdater(store, 4)
			u.baseDelay = 0

			err := u.Append(context.Background(), Link{Href: "stories/x.html", Title: "x", Date: testDate})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if store.calls != tt.wantCalls {
				t.Fatalf("WriteIf calls = %d, want %d", store.calls, tt.wantCalls)
			}
		})
	}
}

func TestIndexUpdaterStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := &failingStore{Store: newLocal(t), err: storage.ErrPreconditionFailed}
	u := NewIndexUpdater(store, 10)
	u.baseDelay = time.Hour

	err := u.Append(ctx, Link{Href: "stories/x.html", Title: "x", Date: testDate})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if store.calls > 1 {
		t.Fatalf("WriteIf calls = %d, want at most 1", store.calls)
	}
}
