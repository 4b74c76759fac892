package asset

import (
	"fmt"
	"path"
	"strings"

	"github.com/shouni/go-utils/urlpath"
)

const (
	// IndexPath は全公開ページへのリンクを持つ一覧ページのオブジェクトキーです。
	IndexPath = "index.html"
	// StoriesDir は公開ページを格納するディレクトリです。
	StoriesDir = "stories"
	// ImageFilePrefix は生成画像のファイル名の接頭辞です。
	ImageFilePrefix = "lucky-story-"
	// PublicBaseURL はバケットのオブジェクトが公開される URL のベースです。
	PublicBaseURL = "https://storage.googleapis.com"
	gcsScheme     = "gs://"
)

// ImageFileName はタイムスタンプから画像のオブジェクト名を生成します。
// 例: 1700000000 -> "lucky-story-1700000000.png"
func ImageFileName(ts int64) string {
	return fmt.Sprintf("%s%d.png", ImageFilePrefix, ts)
}

// StoryPagePath はタイムスタンプから公開ページのオブジェクトキーを生成します。
// 例: 1700000000 -> "stories/1700000000.html"
func StoryPagePath(ts int64) string {
	return path.Join(StoriesDir, fmt.Sprintf("%d.html", ts))
}

// GCSURI は、バケット名とオブジェクト名から gs:// 形式の URI を生成します。
func GCSURI(bucket, name string) (string, error) {
	if bucket == "" {
		return "", fmt.Errorf("バケット名が空です")
	}
	return urlpath.ResolveOutputPath(gcsScheme+bucket, name)
}

// PublicURL は画像の保存パスを公開 URL に変換します。
// バケットが PublicBaseURL/<bucket>/<object> で配信されていることを前提に、
// 保存パスの最後の要素だけを使用します。
func PublicURL(bucket, storedPath string) string {
	return fmt.Sprintf("%s/%s/%s", PublicBaseURL, bucket, lastSegment(storedPath))
}

// PageImageURL は公開ページから参照する画像の URL を返します。
// バケットが未設定（ローカル出力）の場合は stories/ からの相対パスになります。
func PageImageURL(bucket, storedPath string) string {
	if bucket == "" {
		return "../" + lastSegment(storedPath)
	}
	return PublicURL(bucket, storedPath)
}

func lastSegment(p string) string {
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		return p[i+1:]
	}
	return p
}
