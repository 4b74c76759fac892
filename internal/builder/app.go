package builder

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shouni/go-story-kit/internal/config"
	"github.com/shouni/go-story-kit/pkg/generator"
	"github.com/shouni/go-story-kit/pkg/messaging"
	"github.com/shouni/go-story-kit/pkg/sheet"
	"github.com/shouni/go-story-kit/pkg/storage"
	"github.com/shouni/go-story-kit/pkg/workflow"
)

// AppContext は、アプリケーション実行に必要な共通コンテキストを保持します。
// プロセス起動時に一度だけ初期化され、以降は読み取り専用です。
type AppContext struct {
	Config    *config.Config          // Config は環境変数と設定ファイルから読み込まれた設定です。
	Ideas     sheet.IdeaSource        // Ideas はアイデア行を読み書きするスプレッドシートです。
	Store     storage.Store           // Store は画像とページの保存先です（GCS またはローカル）。
	Publisher messaging.Publisher     // Publisher はステージ間のメッセージ送信先です。
	Text      generator.TextGenerator // Text はプロンプトとテーマの生成に使います。
	Images    generator.ImageGenerator
	Workflow  *workflow.Manager

	closers []func() error
}

// NewAppContext は設定から各コラボレーターを初期化します。
// 生成系とスプレッドシートの初期化に失敗しても起動は続け、呼び出し時に利用不可として扱います。
func NewAppContext(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	app := &AppContext{Config: cfg}

	store, closer, err := InitializeStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.Store = store
	app.addCloser(closer)

	pub, closer, err := InitializePublisher(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Publisher = pub
	app.addCloser(closer)

	app.Ideas = InitializeIdeaSource(ctx, cfg)

	gens := InitializeGenerators(ctx, cfg)
	app.Text, app.Images = gens.Text, gens.Images
	app.closers = append(app.closers, gens.closers...)

	manager, err := workflow.New(workflow.ManagerArgs{
		Config:    stageConfig(cfg),
		Ideas:     app.Ideas,
		Store:     app.Store,
		Publisher: app.Publisher,
		Text:      app.Text,
		Images:    app.Images,
	})
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Workflow = manager
	return app, nil
}

// Close は初期化したクライアントを逆順に閉じます。
func (a *AppContext) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if err := errors.Join(errs...); err != nil {
		slog.Warn("クライアントの終了処理でエラーが発生しました", "error", err)
		return err
	}
	return nil
}

func (a *AppContext) addCloser(fn func() error) {
	if fn != nil {
		a.closers = append(a.closers, fn)
	}
}
