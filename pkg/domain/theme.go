package domain

import "strings"

// Theme は公開ページの見た目を決める固定のスタイル名です。
type Theme string

const (
	ThemeDefault      Theme = "default"
	ThemeSunsetForest Theme = "sunset_forest"
	ThemeCalmRiver    Theme = "calm_river"
	ThemeSunnyDay     Theme = "sunny_day"
)

var themeStyles = map[Theme]string{
	ThemeDefault:      "background-color: #f0f8ff; color: #333;",
	ThemeSunsetForest: "background: linear-gradient(120deg, #ff7e5f, #feb47b); color: #ffffff; text-shadow: 1px 1px 2px #583101;",
	ThemeCalmRiver:    "background: linear-gradient(to right, #e0c3fc, #8ec5fc); color: #2c3e50;",
	ThemeSunnyDay:     "background-color: #fffacd; color: #4682b4;",
}

// Themes はプロンプトに列挙する順序でテーマ名を返します。
func Themes() []Theme {
	return []Theme{ThemeSunsetForest, ThemeCalmRiver, ThemeSunnyDay, ThemeDefault}
}

// ParseTheme はモデルの応答からテーマ名を取り出します。
// 空白と引用符を取り除き、候補外の値はすべて ThemeDefault になります。
func ParseTheme(raw string) (Theme, bool) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.NewReplacer("'", "", `"`, "").Replace(cleaned)
	cleaned = strings.TrimSpace(cleaned)
	t := Theme(cleaned)
	if _, ok := themeStyles[t]; !ok {
		return ThemeDefault, false
	}
	return t, true
}

// CSS はテーマに対応するインライン CSS を返します。
func (t Theme) CSS() string {
	if css, ok := themeStyles[t]; ok {
		return css
	}
	return themeStyles[ThemeDefault]
}
