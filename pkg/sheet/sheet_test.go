package sheet

import (
	"context"
	"errors"
	"testing"

	"github.com/shouni/go-story-kit/examples"
	"github.com/shouni/go-story-kit/pkg/domain"

	"golang.org/x/text/unicode/norm"
)

func header() []interface{} {
	return []interface{}{
		domain.HeaderCharacter, domain.HeaderActivity, domain.HeaderSetting,
		domain.HeaderTwist, domain.HeaderLesson, "Ghi chú", domain.HeaderStatus,
	}
}

func TestParseRows(t *testing.T) {
	values := [][]interface{}{
		header(),
		{"Lucky", "chạy", "ở sân", "mưa", "kiên nhẫn", "", string(domain.StatusImageRequested)},
		{"Mimi", "nhảy", "trong rừng", "gió", "dũng cảm"},
	}
	rows := ParseRows(values)
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d", len(rows))
	}
	if rows[0].Row != 2 || rows[1].Row != 3 {
		t.Fatalf("row numbers = %d, %d", rows[0].Row, rows[1].Row)
	}
	if rows[0].Character != "Lucky" || rows[0].Status != domain.StatusImageRequested {
		t.Fatalf("unexpected first row %+v", rows[0])
	}
	if rows[1].Status != "" || rows[1].Lesson != "dũng cảm" {
		t.Fatalf("short record should leave status empty: %+v", rows[1])
	}
}

func TestParseRowsEmpty(t *testing.T) {
	if rows := ParseRows(nil); rows != nil {
		t.Fatalf("expected nil, got %v", rows)
	}
}

func TestFindNext(t *testing.T) {
	rows := []domain.IdeaRow{
		{Row: 2, Status: domain.StatusImageRequested},
		{Row: 3, Status: domain.StatusProcessing},
		{Row: 4, Status: domain.StatusUnprocessed},
		{Row: 5, Status: domain.StatusUnprocessed},
	}
	got, ok := FindNext(rows)
	if !ok || got.Row != 4 {
		t.Fatalf("FindNext = %+v, %v", got, ok)
	}

	if _, ok := FindNext(rows[:2]); ok {
		t.Fatal("no unprocessed row should report false")
	}
}

func TestFindNextMatchesDecomposedStatus(t *testing.T) {
	decomposed := norm.NFD.String(string(domain.StatusUnprocessed))
	if decomposed == string(domain.StatusUnprocessed) {
		t.Skip("sentinel has no composed characters")
	}
	values := [][]interface{}{header(), {"a", "b", "c", "d", "e", "", decomposed}}
	got, ok := FindNext(ParseRows(values))
	if !ok || got.Row != 2 {
		t.Fatalf("decomposed sentinel should match, got %+v %v", got, ok)
	}
}

func TestCellA1(t *testing.T) {
	tests := []struct {
		title    string
		row, col int
		want     string
	}{
		{"Sheet1", 5, 7, "'Sheet1'!G5"},
		{"Ý tưởng", 2, 1, "'Ý tưởng'!A2"},
		{"It's", 3, 27, "'It''s'!AA3"},
	}
	for _, tt := range tests {
		if got := CellA1(tt.title, tt.row, tt.col); got != tt.want {
			t.Errorf("CellA1(%q, %d, %d) = %q, want %q", tt.title, tt.row, tt.col, got, tt.want)
		}
	}
}

func TestQuoteSheetTitle(t *testing.T) {
	tests := map[string]string{
		"Sheet1":  `'Sheet1'`,
		"It's":    `'It''s'`,
		"a''b":    `'a''''b'`,
		"Ý tưởng": `'Ý tưởng'`,
	}
	for title, want := range tests {
		if got := quoteSheetTitle(title); got != want {
			t.Errorf("quoteSheetTitle(%q) = %q, want %q", title, got, want)
		}
	}
}

func TestUnavailable(t *testing.T) {
	u := Unavailable{}
	if _, err := u.Rows(context.Background()); !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("Rows error = %v", err)
	}
	err := u.UpdateStatus(context.Background(), 2, domain.StatusProcessing)
	if name, ok := domain.CollaboratorOf(err); !ok || name != domain.CollaboratorSheet {
		t.Fatalf("UpdateStatus error = %v", err)
	}
}

func TestSampleSheet(t *testing.T) {
	grid, err := examples.IdeaGrid()
	if err != nil {
		t.Fatal(err)
	}
	rows := ParseRows(grid)
	next, ok := FindNext(rows)
	if !ok || next.Row != 3 {
		t.Fatalf("FindNext = %+v %v", next, ok)
	}
	want := domain.Draft("Lucky và Mimi xây lâu đài cát trên bãi biển. Bất ngờ, sóng cuốn mất lâu đài. Bài học là cùng nhau làm lại.")
	if next.Draft() != want {
		t.Fatalf("Draft = %q", next.Draft())
	}
}
