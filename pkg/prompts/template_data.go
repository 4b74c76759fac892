package prompts

import (
	_ "embed"
)

const (
	ModeImagePrompt = "image_prompt"
	ModeTheme       = "theme"
)

// FallbackImagePrompt はプロンプト生成が使えない場合に画像生成へ渡す固定文です。
const FallbackImagePrompt = "A cute white puppy named Lucky in a beautiful, gentle forest. Children's book illustration style."

// TemplateData はプロンプトテンプレートに渡すデータ構造です。
type TemplateData struct {
	InputText string
	// Options はテーマ選択で提示する候補名です。
	Options []string
}

var (
	//go:embed image_prompt.md
	ImagePromptTemplate string
	//go:embed theme.md
	ThemeTemplate string
)

// allTemplates はモードとテンプレート文字列を紐づけるマップです。
var allTemplates = map[string]string{
	ModeImagePrompt: ImagePromptTemplate,
	ModeTheme:       ThemeTemplate,
}
