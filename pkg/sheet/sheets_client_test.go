package sheet

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/shouni/go-story-kit/pkg/domain"

	"google.golang.org/api/option"
)

// fakeSheetsAPI はワークシート名の取得と値の読み書きだけを返す Sheets API のスタブです。
type fakeSheetsAPI struct {
	title string

	mu       sync.Mutex
	metaGets int
	ranges   []string
	updates  []string
}

func (f *fakeSheetsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const prefix = "/v4/spreadsheets/sheet-1"
	w.Header().Set("Content-Type", "application/json")

	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case r.URL.Path == prefix && r.Method == http.MethodGet:
		f.metaGets++
		_ = json.NewEncoder(w).Encode(map[string]any{
			"sheets": []any{map[string]any{"properties": map[string]any{"title": f.title}}},
		})
	case strings.HasPrefix(r.URL.Path, prefix+"/values/") && r.Method == http.MethodGet:
		rng := strings.TrimPrefix(r.URL.Path, prefix+"/values/")
		f.ranges = append(f.ranges, rng)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"range": rng,
			"values": [][]any{
				header(),
				{"Lucky", "chạy", "ở sân", "mưa", "kiên nhẫn"},
			},
		})
	case strings.HasPrefix(r.URL.Path, prefix+"/values/") && r.Method == http.MethodPut:
		rng := strings.TrimPrefix(r.URL.Path, prefix+"/values/")
		f.updates = append(f.updates, rng)
		_ = json.NewEncoder(w).Encode(map[string]any{"updatedRange": rng})
	default:
		http.NotFound(w, r)
	}
}

func newTestSheetsClient(t *testing.T, api *fakeSheetsAPI) *SheetsClient {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	c, err := NewSheetsClient(context.Background(), "sheet-1",
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
	)
	if err != nil {
		t.Fatalf("NewSheetsClient: %v", err)
	}
	return c
}

func TestSheetsClientConcurrentRows(t *testing.T) {
	api := &fakeSheetsAPI{title: "Sheet1"}
	c := newTestSheetsClient(t, api)

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rows, err := c.Rows(context.Background())
			if err == nil && (len(rows) != 1 || rows[0].Character != "Lucky") {
				t.Errorf("unexpected rows %+v", rows)
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Rows: %v", err)
		}
	}
	if api.metaGets != 1 {
		t.Fatalf("spreadsheet metadata fetched %d times, want 1", api.metaGets)
	}
}

func TestSheetsClientQuotesTitle(t *testing.T) {
	api := &fakeSheetsAPI{title: "Lucky's ideas"}
	c := newTestSheetsClient(t, api)
	ctx := context.Background()

	if _, err := c.Rows(ctx); err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if err := c.UpdateStatus(ctx, 4, domain.StatusProcessing); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	if len(api.ranges) != 1 || api.ranges[0] != "'Lucky''s ideas'" {
		t.Fatalf("read ranges = %q", api.ranges)
	}
	if len(api.updates) != 1 || api.updates[0] != "'Lucky''s ideas'!G4" {
		t.Fatalf("update ranges = %q", api.updates)
	}
}
