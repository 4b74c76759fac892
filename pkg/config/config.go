package config

import (
	"fmt"
	"time"
)

// デフォルト値の定義
const (
	DefaultLocationID       = "asia-southeast1"
	DefaultGeminiModel      = "gemini-2.5-flash"
	DefaultImageModel       = "imagen-3.0-generate-002"
	DefaultSecretName       = "gemini-api-key"
	DefaultImageTopic       = "image_requests"
	DefaultPublishTopic     = "publishing-requests"
	DefaultRateInterval     = 2 * time.Second
	DefaultIndexMaxAttempts = 5
	DefaultImageQuality     = 9
	DefaultAspectRatio      = "1:1"
	DefaultDedupeTTL        = 30 * time.Minute
	bucketNameFormat        = "lucky-story-images-%s"
)

// Config は各ステージの Runner を動作させるための基本設定です。
type Config struct {
	// --- Google Cloud Settings ---
	ProjectID  string
	LocationID string

	// --- AI Model Settings ---
	GeminiAPIKey string
	GeminiModel  string
	ImageModel   string
	ImageQuality int
	AspectRatio  string

	// --- Collaborators ---
	SheetID      string
	BucketName   string
	SecretName   string
	ImageTopic   string
	PublishTopic string

	// LocalOutputDir が設定されている場合は GCS の代わりにローカルへ保存します。
	LocalOutputDir string

	// --- Generation Settings ---
	RateInterval time.Duration

	// --- Publishing ---
	IndexMaxAttempts int
	DedupeTTL        time.Duration
}

// DefaultConfig は推奨されるデフォルト設定を返すヘルパー関数です。
func DefaultConfig() Config {
	return Config{
		LocationID:       DefaultLocationID,
		GeminiModel:      DefaultGeminiModel,
		ImageModel:       DefaultImageModel,
		ImageQuality:     DefaultImageQuality,
		AspectRatio:      DefaultAspectRatio,
		SecretName:       DefaultSecretName,
		ImageTopic:       DefaultImageTopic,
		PublishTopic:     DefaultPublishTopic,
		RateInterval:     DefaultRateInterval,
		IndexMaxAttempts: DefaultIndexMaxAttempts,
		DedupeTTL:        DefaultDedupeTTL,
	}
}

// DefaultBucketName はプロジェクト ID から既定のバケット名を組み立てます。
func DefaultBucketName(projectID string) string {
	if projectID == "" {
		return ""
	}
	return fmt.Sprintf(bucketNameFormat, projectID)
}
