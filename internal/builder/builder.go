package builder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/go-story-kit/internal/config"
	kitcfg "github.com/shouni/go-story-kit/pkg/config"
	"github.com/shouni/go-story-kit/pkg/generator"
	"github.com/shouni/go-story-kit/pkg/messaging"
	"github.com/shouni/go-story-kit/pkg/secret"
	"github.com/shouni/go-story-kit/pkg/sheet"
	"github.com/shouni/go-story-kit/pkg/storage"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// InitializeStore は保存先を初期化します。LocalOutputDir が設定されていればローカル、なければ GCS です。
func InitializeStore(ctx context.Context, cfg *config.Config) (storage.Store, func() error, error) {
	if cfg.LocalOutputDir != "" {
		store, err := storage.NewLocalStore(cfg.LocalOutputDir)
		if err != nil {
			return nil, nil, err
		}
		slog.InfoContext(ctx, "Using local storage", "dir", cfg.LocalOutputDir)
		return store, nil, nil
	}
	if cfg.BucketName == "" {
		return nil, nil, fmt.Errorf("BUCKET_NAME、GCP_PROJECT、LOCAL_OUTPUT_DIR のいずれかを設定してください")
	}
	store, err := storage.NewGCSStore(ctx, cfg.BucketName)
	if err != nil {
		return nil, nil, err
	}
	slog.InfoContext(ctx, "Using GCS storage", "bucket", cfg.BucketName)
	return store, store.Close, nil
}

// InitializePublisher はメッセージの送信先を初期化します。プロジェクト未指定ならログに記録するだけです。
func InitializePublisher(ctx context.Context, cfg *config.Config) (messaging.Publisher, func() error, error) {
	if cfg.ProjectID == "" {
		slog.WarnContext(ctx, "GCP_PROJECT is not set; messages are only logged")
		return &messaging.LogPublisher{}, nil, nil
	}
	pub, err := messaging.NewPubSubPublisher(ctx, cfg.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	return pub, pub.Close, nil
}

// InitializeIdeaSource はスプレッドシートを初期化します。失敗時は利用不可の代役を返します。
func InitializeIdeaSource(ctx context.Context, cfg *config.Config) sheet.IdeaSource {
	if cfg.SheetID == "" {
		slog.WarnContext(ctx, "SHEET_ID is not set; the story stage has no ideas to read")
		return sheet.Unavailable{Cause: fmt.Errorf("SHEET_ID が設定されていません")}
	}
	client, err := sheet.NewSheetsClient(ctx, cfg.SheetID)
	if err != nil {
		slog.ErrorContext(ctx, "Spreadsheet client unavailable", "error", err)
		return sheet.Unavailable{Cause: err}
	}
	return client
}

// Generators は初期化済みの生成系コラボレーターです。
type Generators struct {
	Text    generator.TextGenerator
	Images  generator.ImageGenerator
	closers []func() error
}

// InitializeGenerators は API キーを取得して生成系を初期化します。
// キーの取得やクライアントの作成に失敗した場合は generator.Unavailable を設定します。
func InitializeGenerators(ctx context.Context, cfg *config.Config) Generators {
	gens := Generators{}

	accessor, closer := initializeSecrets(ctx, cfg)
	if closer != nil {
		gens.closers = append(gens.closers, closer)
	}

	var geminiClient *genai.Client
	apiKey, err := accessor.Access(ctx, cfg.SecretName)
	if err != nil {
		slog.ErrorContext(ctx, "Could not retrieve the Gemini API key", "secret", cfg.SecretName, "error", err)
	} else {
		geminiClient, err = generator.NewGeminiClient(ctx, apiKey)
		if err != nil {
			slog.ErrorContext(ctx, "Gemini client unavailable", "error", err)
		}
	}

	if geminiClient != nil {
		gens.Text = generator.NewGeminiTextGenerator(geminiClient, cfg.GeminiModel, newLimiter(cfg.RateInterval))
	} else {
		gens.Text = generator.Unavailable{Cause: err}
	}

	gens.Images = initializeImages(ctx, cfg, geminiClient)
	return gens
}

// initializeImages は Imagen を初期化します。プロジェクトがあれば Vertex AI、なければ Gemini API を使います。
func initializeImages(ctx context.Context, cfg *config.Config, fallback *genai.Client) generator.ImageGenerator {
	client := fallback
	if cfg.ProjectID != "" {
		vertex, err := generator.NewVertexClient(ctx, cfg.ProjectID, cfg.LocationID)
		if err != nil {
			slog.ErrorContext(ctx, "Vertex AI client unavailable", "error", err)
		} else {
			client = vertex
		}
	}
	if client == nil {
		return generator.Unavailable{Cause: fmt.Errorf("画像生成クライアントがありません")}
	}
	return generator.NewImagenGenerator(client, cfg.ImageModel, newLimiter(cfg.RateInterval))
}

// initializeSecrets は API キーの取得元を決めます。GEMINI_API_KEY があればそれを優先します。
func initializeSecrets(ctx context.Context, cfg *config.Config) (secret.Accessor, func() error) {
	if cfg.GeminiAPIKey != "" {
		return secret.Static{cfg.SecretName: cfg.GeminiAPIKey}, nil
	}
	if cfg.ProjectID == "" {
		return secret.Static{}, nil
	}
	sm, err := secret.NewSecretManager(ctx, cfg.ProjectID)
	if err != nil {
		slog.ErrorContext(ctx, "Secret Manager unavailable", "error", err)
		return secret.Static{}, nil
	}
	return secret.NewCached(sm), sm.Close
}

// newLimiter は interval ごとに1回の呼び出しを許可するリミッターを作成します。0 以下なら制限しません。
func newLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

// stageConfig は Runner に渡す設定を返します。ローカル出力時は公開 URL を組み立てないようバケット名を外します。
func stageConfig(cfg *config.Config) kitcfg.Config {
	kc := cfg.Config
	if cfg.LocalOutputDir != "" {
		kc.BucketName = ""
	}
	return kc
}
