package workflow

import (
	"fmt"

	"github.com/shouni/go-story-kit/pkg/config"
	"github.com/shouni/go-story-kit/pkg/generator"
	"github.com/shouni/go-story-kit/pkg/messaging"
	"github.com/shouni/go-story-kit/pkg/prompts"
	"github.com/shouni/go-story-kit/pkg/runner"
	"github.com/shouni/go-story-kit/pkg/sheet"
	"github.com/shouni/go-story-kit/pkg/storage"
)

// ManagerArgs は Manager の初期化に必要な依存関係です。
type ManagerArgs struct {
	Config    config.Config
	Ideas     sheet.IdeaSource
	Store     storage.Store
	Publisher messaging.Publisher
	Text      generator.TextGenerator
	Images    generator.ImageGenerator
	// Prompts が nil の場合は組み込みテンプレートの TextPromptBuilder を使用します。
	Prompts prompts.PromptBuilder
}

// Manager は、ワークフローの各工程を担う Runner 群を構築・管理します。
// 重複配信の判定はプロセス内で共有するため、Manager が1つだけ保持します。
type Manager struct {
	cfg       config.Config
	ideas     sheet.IdeaSource
	store     storage.Store
	publisher messaging.Publisher
	text      generator.TextGenerator
	images    generator.ImageGenerator
	prompts   prompts.PromptBuilder
	drafts    *runner.Deduper
	requests  *runner.Deduper
}

// New は、設定と各コラボレーターを基に新しい Manager を初期化します。
func New(args ManagerArgs) (*Manager, error) {
	if args.Ideas == nil {
		return nil, fmt.Errorf("IdeaSource は必須です")
	}
	if args.Store == nil {
		return nil, fmt.Errorf("Store は必須です")
	}
	if args.Publisher == nil {
		return nil, fmt.Errorf("Publisher は必須です")
	}
	if args.Text == nil {
		return nil, fmt.Errorf("TextGenerator は必須です")
	}
	if args.Images == nil {
		return nil, fmt.Errorf("ImageGenerator は必須です")
	}

	pb, err := initializePrompts(args.Prompts)
	if err != nil {
		return nil, err
	}

	return &Manager{
		cfg:       args.Config,
		ideas:     args.Ideas,
		store:     args.Store,
		publisher: args.Publisher,
		text:      args.Text,
		images:    args.Images,
		prompts:   pb,
		drafts:    runner.NewDeduper(args.Config.DedupeTTL),
		requests:  runner.NewDeduper(args.Config.DedupeTTL),
	}, nil
}

// initializePrompts は PromptBuilder を初期化します。
// 引数として既存のビルダーが渡された場合はそれを返し、nil の場合は新規作成します。
func initializePrompts(pb prompts.PromptBuilder) (prompts.PromptBuilder, error) {
	if pb != nil {
		return pb, nil
	}
	builder, err := prompts.NewTextPromptBuilder()
	if err != nil {
		return nil, fmt.Errorf("TextPromptBuilder の新規作成に失敗しました: %w", err)
	}
	return builder, nil
}
