package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shouni/go-story-kit/pkg/asset"
	"github.com/shouni/go-story-kit/pkg/config"
	"github.com/shouni/go-story-kit/pkg/domain"
	"github.com/shouni/go-story-kit/pkg/generator"
	"github.com/shouni/go-story-kit/pkg/messaging"
	"github.com/shouni/go-story-kit/pkg/prompts"
	"github.com/shouni/go-story-kit/pkg/storage"
)

const defaultImageMimeType = "image/png"

// IllustratorRunner は下書きから画像プロンプトと画像を生成し、パブリッシャーへ送ります。
type IllustratorRunner struct {
	cfg       config.Config
	prompts   prompts.PromptBuilder
	text      generator.TextGenerator
	images    generator.ImageGenerator
	store     storage.Store
	publisher messaging.Publisher
	dedupe    *Deduper
	now       Clock
}

// NewIllustratorRunner は IllustratorRunner を作成します。
func NewIllustratorRunner(
	cfg config.Config,
	pb prompts.PromptBuilder,
	text generator.TextGenerator,
	images generator.ImageGenerator,
	store storage.Store,
	publisher messaging.Publisher,
	dedupe *Deduper,
) *IllustratorRunner {
	return &IllustratorRunner{
		cfg:       cfg,
		prompts:   pb,
		text:      text,
		images:    images,
		store:     store,
		publisher: publisher,
		dedupe:    dedupe,
		now:       time.Now,
	}
}

// Run は Illustrator ステージを1回実行します。
// 画像の生成または保存に失敗した場合はエラーを返し、後続への送信は行いません。
func (r *IllustratorRunner) Run(ctx context.Context, draft domain.Draft, correlationID string) (Result, error) {
	if strings.TrimSpace(draft.String()) == "" {
		slog.WarnContext(ctx, "Received empty draft; nothing to illustrate")
		return Result{Message: "Empty draft ignored.", NoWork: true}, nil
	}
	if !r.dedupe.Claim(correlationID) {
		slog.InfoContext(ctx, "Duplicate draft delivery ignored", "correlation_id", correlationID)
		return Result{Message: "Duplicate delivery ignored.", NoWork: true}, nil
	}

	prompt := r.imagePrompt(ctx, draft)

	req := generator.ImageRequest{
		Prompt:         prompt,
		NumberOfImages: 1,
		AspectRatio:    r.cfg.AspectRatio,
		Quality:        r.cfg.ImageQuality,
		MimeType:       defaultImageMimeType,
	}
	slog.InfoContext(ctx, "Generating image", "model", r.cfg.ImageModel, "correlation_id", correlationID)
	img, err := r.images.GenerateImage(ctx, req)
	if err != nil {
		slog.ErrorContext(ctx, "Image generation failed", "correlation_id", correlationID, "error", err)
		return Result{Message: "Image generation failed."}, fmt.Errorf("画像の生成に失敗しました: %w", err)
	}

	name := asset.ImageFileName(r.now().Unix())
	contentType := img.MimeType
	if contentType == "" {
		contentType = defaultImageMimeType
	}
	if err := r.store.Write(ctx, name, bytes.NewReader(img.Data), contentType); err != nil {
		slog.ErrorContext(ctx, "Failed to save image", "name", name, "error", err)
		return Result{Message: "Image save failed."}, fmt.Errorf("画像の保存に失敗しました: %w", err)
	}
	imagePath, err := r.store.URI(name)
	if err != nil {
		return Result{Message: "Image save failed."}, fmt.Errorf("画像パスの解決に失敗しました: %w", err)
	}
	slog.InfoContext(ctx, "Image saved", "path", imagePath, "bytes", len(img.Data))

	payload, err := json.Marshal(domain.PublishRequest{
		StoryText:     draft.String(),
		ImageGCSPath:  imagePath,
		CorrelationID: correlationID,
	})
	if err != nil {
		return Result{Message: "Image saved but publish request could not be built."}, fmt.Errorf("送信データの作成に失敗しました: %w", err)
	}

	msg := messaging.Message{Data: payload, Attributes: correlationAttrs(correlationID)}
	id, err := r.publisher.Publish(ctx, r.cfg.PublishTopic, msg)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to publish publishing request", "topic", r.cfg.PublishTopic, "error", err)
		return Result{Message: "Image saved but publish request failed."}, nil
	}
	slog.InfoContext(ctx, "Published publishing request", "topic", r.cfg.PublishTopic, "message_id", id, "correlation_id", correlationID)

	return Result{Message: fmt.Sprintf("Image created: %s", imagePath)}, nil
}

// imagePrompt はテキスト生成で画像プロンプトを作ります。失敗時や空の応答では固定プロンプトを使います。
func (r *IllustratorRunner) imagePrompt(ctx context.Context, draft domain.Draft) string {
	instruction, err := r.prompts.Build(prompts.ModeImagePrompt, prompts.TemplateData{InputText: draft.String()})
	if err != nil {
		slog.WarnContext(ctx, "Failed to build prompt instruction; using fallback prompt", "error", err)
		return prompts.FallbackImagePrompt
	}

	text, err := r.text.GenerateText(ctx, instruction)
	if err != nil {
		slog.WarnContext(ctx, "Image prompt generation failed; using fallback prompt", "error", err)
		return prompts.FallbackImagePrompt
	}
	text = strings.TrimSpace(text)
	if text == "" {
		slog.WarnContext(ctx, "Image prompt generation returned nothing; using fallback prompt")
		return prompts.FallbackImagePrompt
	}
	slog.DebugContext(ctx, "Image prompt generated", "prompt", text)
	return text
}

func correlationAttrs(id string) map[string]string {
	if id == "" {
		return nil
	}
	return map[string]string{messaging.AttrCorrelationID: id}
}
