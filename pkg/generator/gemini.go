package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shouni/go-story-kit/pkg/domain"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

const (
	defaultTemperature = float32(0.4)
	defaultImageMime   = "image/png"
	jpegMime           = "image/jpeg"
)

// contentAPI は *genai.Models のうちテキスト生成に使うメソッドです。
type contentAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// imageAPI は *genai.Models のうち画像生成に使うメソッドです。
type imageAPI interface {
	GenerateImages(ctx context.Context, model, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

// NewGeminiClient は API キーで Gemini API バックエンドのクライアントを初期化します。
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("APIキーが空です: %w", domain.ErrUnavailable)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("Gemini クライアントの初期化に失敗しました: %w", err)
	}
	return client, nil
}

// NewVertexClient はサービスアカウント（ADC）で Vertex AI バックエンドのクライアントを初期化します。
func NewVertexClient(ctx context.Context, projectID, location string) (*genai.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("プロジェクトIDが空です: %w", domain.ErrUnavailable)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("Vertex AI クライアントの初期化に失敗しました: %w", err)
	}
	return client, nil
}

// GeminiTextGenerator は Gemini モデルでテキストを生成します。
type GeminiTextGenerator struct {
	api         contentAPI
	model       string
	temperature float32
	limiter     *rate.Limiter
}

// NewGeminiTextGenerator は GeminiTextGenerator を初期化します。limiter が nil の場合は制限しません。
func NewGeminiTextGenerator(client *genai.Client, model string, limiter *rate.Limiter) *GeminiTextGenerator {
	return newGeminiTextGenerator(client.Models, model, limiter)
}

func newGeminiTextGenerator(api contentAPI, model string, limiter *rate.Limiter) *GeminiTextGenerator {
	return &GeminiTextGenerator{
		api:         api,
		model:       model,
		temperature: defaultTemperature,
		limiter:     limiter,
	}
}

// GenerateText はプロンプトを送り、応答テキストを前後の空白を除いて返します。
func (g *GeminiTextGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	if err := wait(ctx, g.limiter); err != nil {
		return "", domain.NewCollaboratorError(domain.CollaboratorText, "rate-limit", err)
	}

	slog.DebugContext(ctx, "Calling Gemini API", "model", g.model)
	resp, err := g.api.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.temperature),
	})
	if err != nil {
		return "", domain.NewCollaboratorError(domain.CollaboratorText, "generate", err)
	}
	if resp == nil {
		return "", domain.NewCollaboratorError(domain.CollaboratorText, "generate", domain.ErrEmptyResponse)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", domain.NewCollaboratorError(domain.CollaboratorText, "generate", domain.ErrEmptyResponse)
	}
	return text, nil
}

// ImagenGenerator は Imagen モデルで画像を生成します。
type ImagenGenerator struct {
	api     imageAPI
	model   string
	limiter *rate.Limiter
}

// NewImagenGenerator は ImagenGenerator を初期化します。
func NewImagenGenerator(client *genai.Client, model string, limiter *rate.Limiter) *ImagenGenerator {
	return newImagenGenerator(client.Models, model, limiter)
}

func newImagenGenerator(api imageAPI, model string, limiter *rate.Limiter) *ImagenGenerator {
	return &ImagenGenerator{
		api:     api,
		model:   model,
		limiter: limiter,
	}
}

// GenerateImage は1件目の生成画像を返します。
func (g *ImagenGenerator) GenerateImage(ctx context.Context, req ImageRequest) (*ImageResponse, error) {
	if err := wait(ctx, g.limiter); err != nil {
		return nil, domain.NewCollaboratorError(domain.CollaboratorImage, "rate-limit", err)
	}

	cfg := imagesConfig(req)
	slog.InfoContext(ctx, "Calling Imagen API",
		"model", g.model,
		"aspect_ratio", cfg.AspectRatio,
		"count", cfg.NumberOfImages,
	)

	resp, err := g.api.GenerateImages(ctx, g.model, req.Prompt, cfg)
	if err != nil {
		return nil, domain.NewCollaboratorError(domain.CollaboratorImage, "generate", err)
	}
	if resp == nil || len(resp.GeneratedImages) == 0 {
		return nil, domain.NewCollaboratorError(domain.CollaboratorImage, "generate", domain.ErrEmptyResponse)
	}

	first := resp.GeneratedImages[0]
	if first == nil || first.Image == nil || len(first.Image.ImageBytes) == 0 {
		reason := ""
		if first != nil {
			reason = first.RAIFilteredReason
		}
		return nil, domain.NewCollaboratorError(domain.CollaboratorImage, "generate",
			fmt.Errorf("%w: filtered=%q", domain.ErrEmptyResponse, reason))
	}

	mimeType := first.Image.MIMEType
	if mimeType == "" {
		mimeType = cfg.OutputMIMEType
	}
	return &ImageResponse{Data: first.Image.ImageBytes, MimeType: mimeType}, nil
}

func imagesConfig(req ImageRequest) *genai.GenerateImagesConfig {
	count := req.NumberOfImages
	if count <= 0 {
		count = 1
	}
	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = defaultImageMime
	}
	cfg := &genai.GenerateImagesConfig{
		NumberOfImages: int32(count),
		AspectRatio:    req.AspectRatio,
		OutputMIMEType: mimeType,
	}
	if mimeType == jpegMime && req.Quality > 0 {
		cfg.OutputCompressionQuality = genai.Ptr(int32(min(req.Quality*10, 100)))
	}
	return cfg
}

func wait(ctx context.Context, limiter *rate.Limiter) error {
	if limiter == nil {
		return nil
	}
	return limiter.Wait(ctx)
}
