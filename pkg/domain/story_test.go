package domain

import (
	"errors"
	"testing"
)

func TestIdeaRowDraft(t *testing.T) {
	row := IdeaRow{
		Row:       3,
		Character: "Lucky",
		Activity:  "đuổi theo quả bóng",
		Setting:   "trong công viên",
		Twist:     "trời đổ mưa",
		Lesson:    "sự kiên nhẫn",
	}
	want := "Lucky đuổi theo quả bóng trong công viên. Bất ngờ, trời đổ mưa. Bài học là sự kiên nhẫn."
	if got := row.Draft().String(); got != want {
		t.Fatalf("Draft() = %q, want %q", got, want)
	}
}

func TestDraftTitle(t *testing.T) {
	tests := []struct {
		name  string
		draft Draft
		want  string
	}{
		{"first sentence", "Lucky chased a ball. Suddenly, it rained. The lesson is patience.", "Lucky chased a ball"},
		{"no period", "Lucky sleeps", "Lucky sleeps"},
		{"leading period", ".hidden", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.draft.Title(); got != tt.want {
				t.Fatalf("Title() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPublishRequestValidate(t *testing.T) {
	if err := (PublishRequest{StoryText: "a", ImageGCSPath: "gs://b/c.png"}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := PublishRequest{StoryText: "a"}.Validate()
	if !errors.Is(err, ErrIncompletePayload) {
		t.Fatalf("expected ErrIncompletePayload, got %v", err)
	}
	err = PublishRequest{ImageGCSPath: "  "}.Validate()
	if !errors.Is(err, ErrIncompletePayload) {
		t.Fatalf("expected ErrIncompletePayload, got %v", err)
	}
}

func TestParseTheme(t *testing.T) {
	tests := []struct {
		raw    string
		want   Theme
		wantOK bool
	}{
		{"sunset_forest", ThemeSunsetForest, true},
		{"  calm_river\n", ThemeCalmRiver, true},
		{`"sunny_day"`, ThemeSunnyDay, true},
		{"'default'", ThemeDefault, true},
		{"stormy_night", ThemeDefault, false},
		{"", ThemeDefault, false},
		{"Sunny_Day", ThemeDefault, false},
	}
	for _, tt := range tests {
		got, ok := ParseTheme(tt.raw)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseTheme(%q) = (%q, %v), want (%q, %v)", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestThemeCSSFallsBackToDefault(t *testing.T) {
	if Theme("unknown").CSS() != ThemeDefault.CSS() {
		t.Fatal("unknown theme should use default CSS")
	}
	for _, th := range Themes() {
		if th.CSS() == "" {
			t.Errorf("theme %q has no CSS", th)
		}
	}
}
