package workflow

import (
	"context"

	"github.com/shouni/go-story-kit/pkg/domain"
	"github.com/shouni/go-story-kit/pkg/runner"
)

// Workflow は、パイプラインの各ステージを担当する Runner を構築するためのインターフェースを定義します。
type Workflow interface {
	BuildStoryRunner() (StoryRunner, error)
	BuildIllustratorRunner() (IllustratorRunner, error)
	BuildPublishRunner() (PublishRunner, error)
}

// StoryRunner は、未処理のアイデア行から下書きを作り、イラストレーターへ送る責務を持ちます。
type StoryRunner interface {
	Run(ctx context.Context) (runner.Result, error)
}

// IllustratorRunner は、下書きから画像を生成して保存し、パブリッシャーへ送る責務を持ちます。
type IllustratorRunner interface {
	Run(ctx context.Context, draft domain.Draft, correlationID string) (runner.Result, error)
}

// PublishRunner は、物語ページを公開し一覧ページを更新する責務を持ちます。
type PublishRunner interface {
	Run(ctx context.Context, req domain.PublishRequest) (runner.Result, error)
}
