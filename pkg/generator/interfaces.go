package generator

import (
	"context"
)

// TextGenerator は自由記述のプロンプトからテキストを生成します。
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// ImageGenerator はテキストプロンプトから画像を生成します。
type ImageGenerator interface {
	GenerateImage(ctx context.Context, req ImageRequest) (*ImageResponse, error)
}

// ImageRequest は画像生成リクエストのパラメータです。
type ImageRequest struct {
	Prompt         string
	NumberOfImages int
	AspectRatio    string
	// Quality は 1〜10 の品質指定です。JPEG 出力時の圧縮品質（×10）に対応します。
	Quality  int
	MimeType string
}

// ImageResponse は生成された画像1枚分のデータです。
type ImageResponse struct {
	Data     []byte
	MimeType string
}
