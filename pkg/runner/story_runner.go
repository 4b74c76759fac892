package runner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-story-kit/pkg/config"
	"github.com/shouni/go-story-kit/pkg/domain"
	"github.com/shouni/go-story-kit/pkg/messaging"
	"github.com/shouni/go-story-kit/pkg/sheet"

	"github.com/google/uuid"
)

// StoryRunner はスプレッドシートから未処理のアイデアを1件取り出し、下書きをイラストレーターへ送ります。
type StoryRunner struct {
	cfg       config.Config
	ideas     sheet.IdeaSource
	publisher messaging.Publisher
	newID     func() string
}

// NewStoryRunner は StoryRunner を作成します。
func NewStoryRunner(cfg config.Config, ideas sheet.IdeaSource, publisher messaging.Publisher) *StoryRunner {
	return &StoryRunner{
		cfg:       cfg,
		ideas:     ideas,
		publisher: publisher,
		newID:     uuid.NewString,
	}
}

// Run は Story ステージを1回実行します。
// 行の読み込みに失敗した場合のみエラーを返します。ステータス更新と送信の失敗はログに残して続行します。
func (r *StoryRunner) Run(ctx context.Context) (Result, error) {
	slog.InfoContext(ctx, "Story stage starting")

	rows, err := r.ideas.Rows(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to read idea rows", "error", err)
		return Result{Message: "Error reading ideas."}, fmt.Errorf("アイデア行の読み込みに失敗しました: %w", err)
	}

	idea, ok := sheet.FindNext(rows)
	if !ok {
		slog.InfoContext(ctx, "No new story ideas found")
		return Result{Message: "No new ideas found.", NoWork: true}, nil
	}
	slog.InfoContext(ctx, "Processing idea", "row", idea.Row)

	r.updateStatus(ctx, idea.Row, domain.StatusProcessing)

	draft := idea.Draft()
	correlationID := r.newID()
	slog.InfoContext(ctx, "Story draft created", "row", idea.Row, "correlation_id", correlationID, "draft", draft.String())

	msg := messaging.Message{
		Data:       []byte(draft.String()),
		Attributes: map[string]string{messaging.AttrCorrelationID: correlationID},
	}
	if id, err := r.publisher.Publish(ctx, r.cfg.ImageTopic, msg); err != nil {
		// 送信失敗でも処理中ステータスは戻さない
		slog.ErrorContext(ctx, "Failed to publish draft", "topic", r.cfg.ImageTopic, "row", idea.Row, "error", err)
	} else {
		slog.InfoContext(ctx, "Published draft", "topic", r.cfg.ImageTopic, "message_id", id, "correlation_id", correlationID)
	}

	r.updateStatus(ctx, idea.Row, domain.StatusImageRequested)

	return Result{Message: fmt.Sprintf("Story created and image requested for row %d.", idea.Row)}, nil
}

func (r *StoryRunner) updateStatus(ctx context.Context, row int, status domain.Status) {
	if err := r.ideas.UpdateStatus(ctx, row, status); err != nil {
		slog.ErrorContext(ctx, "Failed to update status", "row", row, "status", string(status), "error", err)
	}
}
