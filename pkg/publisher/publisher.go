package publisher

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"

	"github.com/shouni/go-story-kit/pkg/storage"
)

const (
	// HTMLContentType は公開ページと一覧ページの Content-Type です。
	HTMLContentType = "text/html; charset=utf-8"
	// CorrelationMetaName は公開ページに埋め込む相関 ID の meta 名です。
	CorrelationMetaName = "story-correlation-id"
)

// PageData は物語ページのテンプレートに渡すデータです。
type PageData struct {
	Title         string
	ImageURL      string
	StoryText     string
	ThemeCSS      string
	CorrelationID string
}

const pageTemplate = `<!DOCTYPE html><html lang="vi"><head><meta charset="UTF-8"><title>{{ .Title }}</title>
{{- if .CorrelationID }}
<meta name="` + CorrelationMetaName + `" content="{{ .CorrelationID }}">
{{- end }}
<style>body { font-family: sans-serif; margin: 40px; transition: background-color 0.5s; {{ .ThemeCSS }} } .container { max-width: 800px; margin: auto; background-color: rgba(255,255,255,0.85); padding: 20px; border-radius: 10px; box-shadow: 0 4px 8px rgba(0,0,0,0.1); } img { max-width: 100%; border-radius: 8px; }</style>
</head><body><div class="container"><h1>{{ .Title }}</h1><p><a href="../index.html">Back to Home</a></p>
<img src="{{ .ImageURL }}" alt="{{ .Title }}"><p style="white-space: pre-wrap;">{{ .StoryText }}</p></div></body></html>
`

var page = template.Must(template.New("page").Parse(pageTemplate))

// pageView はテンプレート実行用の値です。テーマ CSS は固定の候補からのみ来るため template.CSS として扱います。
type pageView struct {
	Title         string
	ImageURL      string
	StoryText     string
	ThemeCSS      template.CSS
	CorrelationID string
}

// RenderPage は物語ページの HTML を生成します。本文はエスケープされた上でそのまま埋め込まれます。
func RenderPage(data PageData) ([]byte, error) {
	var buf bytes.Buffer
	view := pageView{
		Title:         data.Title,
		ImageURL:      data.ImageURL,
		StoryText:     data.StoryText,
		ThemeCSS:      template.CSS(data.ThemeCSS),
		CorrelationID: data.CorrelationID,
	}
	if err := page.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("ページテンプレートの実行に失敗しました: %w", err)
	}
	return buf.Bytes(), nil
}

// PagePublisher は物語ページの保存を担います。
type PagePublisher struct {
	writer storage.OutputWriter
}

// NewPagePublisher は PagePublisher を作成します。
func NewPagePublisher(writer storage.OutputWriter) *PagePublisher {
	return &PagePublisher{writer: writer}
}

// Publish はページを描画し、path に保存します。
func (p *PagePublisher) Publish(ctx context.Context, path string, data PageData) error {
	html, err := RenderPage(data)
	if err != nil {
		return err
	}
	if err := p.writer.Write(ctx, path, bytes.NewReader(html), HTMLContentType); err != nil {
		return fmt.Errorf("ページの書き込みに失敗しました %s: %w", path, err)
	}
	slog.InfoContext(ctx, "Story page published", "path", path, "title", data.Title)
	return nil
}
