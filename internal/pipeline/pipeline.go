package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-story-kit/internal/builder"
	"github.com/shouni/go-story-kit/internal/config"
	"github.com/shouni/go-story-kit/pkg/domain"
	"github.com/shouni/go-story-kit/pkg/runner"
)

// ExecuteStory は Story ステージを1回実行します。
func ExecuteStory(ctx context.Context, cfg *config.Config) (runner.Result, error) {
	appCtx, err := builder.NewAppContext(ctx, cfg)
	if err != nil {
		return runner.Result{}, err
	}
	defer appCtx.Close()

	r, err := appCtx.Workflow.BuildStoryRunner()
	if err != nil {
		return runner.Result{}, fmt.Errorf("Story Runner の構築に失敗しました: %w", err)
	}
	return logResult(ctx, "story")(r.Run(ctx))
}

// ExecuteIllustrate は指定した下書きで Illustrator ステージを1回実行します。
func ExecuteIllustrate(ctx context.Context, cfg *config.Config, text string) (runner.Result, error) {
	appCtx, err := builder.NewAppContext(ctx, cfg)
	if err != nil {
		return runner.Result{}, err
	}
	defer appCtx.Close()

	r, err := appCtx.Workflow.BuildIllustratorRunner()
	if err != nil {
		return runner.Result{}, fmt.Errorf("Illustrator Runner の構築に失敗しました: %w", err)
	}
	return logResult(ctx, "illustrator")(r.Run(ctx, domain.Draft(text), ""))
}

// ExecutePublish は下書きと画像パスを指定して Publisher ステージを1回実行します。
func ExecutePublish(ctx context.Context, cfg *config.Config, text, imagePath string) (runner.Result, error) {
	appCtx, err := builder.NewAppContext(ctx, cfg)
	if err != nil {
		return runner.Result{}, err
	}
	defer appCtx.Close()

	r, err := appCtx.Workflow.BuildPublishRunner()
	if err != nil {
		return runner.Result{}, fmt.Errorf("Publish Runner の構築に失敗しました: %w", err)
	}
	req := domain.PublishRequest{StoryText: text, ImageGCSPath: imagePath}
	return logResult(ctx, "publisher")(r.Run(ctx, req))
}

// ListIdeas はスプレッドシートのアイデア行をすべて読み出します。
func ListIdeas(ctx context.Context, cfg *config.Config) ([]domain.IdeaRow, error) {
	ideas := builder.InitializeIdeaSource(ctx, cfg)
	rows, err := ideas.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("アイデア行の取得に失敗しました: %w", err)
	}
	return rows, nil
}

func logResult(ctx context.Context, stage string) func(runner.Result, error) (runner.Result, error) {
	return func(res runner.Result, err error) (runner.Result, error) {
		if err != nil {
			slog.ErrorContext(ctx, "Stage finished with error", "stage", stage, "message", res.Message, "error", err)
			return res, err
		}
		slog.InfoContext(ctx, "Stage finished", "stage", stage, "message", res.Message, "no_work", res.NoWork)
		return res, nil
	}
}
