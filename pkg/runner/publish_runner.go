package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/go-story-kit/pkg/asset"
	"github.com/shouni/go-story-kit/pkg/config"
	"github.com/shouni/go-story-kit/pkg/domain"
	"github.com/shouni/go-story-kit/pkg/generator"
	"github.com/shouni/go-story-kit/pkg/prompts"
	"github.com/shouni/go-story-kit/pkg/publisher"

	"github.com/patrickmn/go-cache"
)

// PublishRunner はテーマを選び、物語ページを公開して一覧ページにリンクを追加します。
type PublishRunner struct {
	cfg     config.Config
	prompts prompts.PromptBuilder
	text    generator.TextGenerator
	pages   *publisher.PagePublisher
	index   *publisher.IndexUpdater
	dedupe  *Deduper
	themes  *cache.Cache
	now     Clock
}

// NewPublishRunner は PublishRunner を作成します。
func NewPublishRunner(
	cfg config.Config,
	pb prompts.PromptBuilder,
	text generator.TextGenerator,
	pages *publisher.PagePublisher,
	index *publisher.IndexUpdater,
	dedupe *Deduper,
) *PublishRunner {
	return &PublishRunner{
		cfg:     cfg,
		prompts: pb,
		text:    text,
		pages:   pages,
		index:   index,
		dedupe:  dedupe,
		themes:  cache.New(cfg.DedupeTTL, cacheCleanupInterval),
		now:     time.Now,
	}
}

// Run は Publisher ステージを1回実行します。
// 入力が不足している場合は何もせず成功として扱います。ページの保存に失敗した場合のみエラーを返します。
func (r *PublishRunner) Run(ctx context.Context, req domain.PublishRequest) (Result, error) {
	if err := req.Validate(); err != nil {
		slog.WarnContext(ctx, "Incomplete publishing request", "error", err)
		return Result{Message: "Incomplete payload.", NoWork: true}, nil
	}
	if !r.dedupe.Claim(req.CorrelationID) {
		slog.InfoContext(ctx, "Duplicate publishing request ignored", "correlation_id", req.CorrelationID)
		return Result{Message: "Duplicate delivery ignored.", NoWork: true}, nil
	}

	draft := domain.Draft(req.StoryText)
	theme := r.chooseTheme(ctx, draft)

	now := r.now()
	pagePath := asset.StoryPagePath(now.Unix())
	data := publisher.PageData{
		Title:         draft.Title(),
		ImageURL:      asset.PageImageURL(r.cfg.BucketName, req.ImageGCSPath),
		StoryText:     draft.String(),
		ThemeCSS:      theme.CSS(),
		CorrelationID: req.CorrelationID,
	}
	if err := r.pages.Publish(ctx, pagePath, data); err != nil {
		slog.ErrorContext(ctx, "Failed to publish story page", "path", pagePath, "error", err)
		return Result{Message: "Page publish failed."}, err
	}

	link := publisher.Link{Href: pagePath, Title: data.Title, Date: now}
	if err := r.index.Append(ctx, link); err != nil {
		level := slog.LevelError
		if errors.Is(err, publisher.ErrIndexConflict) {
			level = slog.LevelWarn
		}
		slog.Log(ctx, level, "Failed to update index", "path", pagePath, "error", err)
		return Result{Message: fmt.Sprintf("Story page published at %s; index not updated.", pagePath)}, nil
	}

	return Result{Message: fmt.Sprintf("Story page published at %s with theme %s.", pagePath, theme)}, nil
}

// chooseTheme はテキスト生成でテーマを選びます。失敗時や候補外の応答では default を使います。
// 同じ本文の再配信ではキャッシュした結果を再利用します。
func (r *PublishRunner) chooseTheme(ctx context.Context, draft domain.Draft) domain.Theme {
	if cached, ok := r.themes.Get(draft.String()); ok {
		return cached.(domain.Theme)
	}

	options := make([]string, 0, len(domain.Themes()))
	for _, t := range domain.Themes() {
		options = append(options, string(t))
	}
	instruction, err := r.prompts.Build(prompts.ModeTheme, prompts.TemplateData{InputText: draft.String(), Options: options})
	if err != nil {
		slog.WarnContext(ctx, "Failed to build theme instruction; using default theme", "error", err)
		return domain.ThemeDefault
	}

	raw, err := r.text.GenerateText(ctx, instruction)
	if err != nil {
		slog.WarnContext(ctx, "Theme selection failed; using default theme", "error", err)
		return domain.ThemeDefault
	}
	theme, ok := domain.ParseTheme(raw)
	if !ok {
		slog.WarnContext(ctx, "Theme outside the known set; using default theme", "response", raw)
	}
	slog.InfoContext(ctx, "Theme selected", "theme", string(theme))
	r.themes.SetDefault(draft.String(), theme)
	return theme
}
