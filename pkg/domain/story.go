package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Status はアイデア行の処理状態（Trạng Thái 列）を表します。
type Status string

const (
	// StatusUnprocessed は人間が追加した直後の未処理状態です。
	StatusUnprocessed Status = "Chưa xử lý"
	// StatusProcessing は Story ステージが行を確保したことを示します。
	StatusProcessing Status = "Đang xử lý (Processing)"
	// StatusImageRequested は下書きをイラストレーターへ引き渡した終端状態です。
	StatusImageRequested Status = "Đã yêu cầu vẽ tranh (Image Requested)"
)

// StatusColumn はステータスセルの列番号（G列、1始まり）です。
const StatusColumn = 7

// スプレッドシートの見出し
const (
	HeaderCharacter = "Nhân Vật Tham Gia"
	HeaderActivity  = "Hoạt Động Chính"
	HeaderSetting   = "Bối Cảnh / Địa Điểm"
	HeaderTwist     = "Tình Huống Bất Ngờ"
	HeaderLesson    = "Cảm Xúc Chủ Đạo / Bài Học Nhỏ"
	HeaderStatus    = "Trạng Thái"
)

// ErrIncompletePayload は受信メッセージに必須フィールドが欠けている場合のエラーです。
var ErrIncompletePayload = errors.New("incomplete payload")

// IdeaRow はスプレッドシート上の物語アイデア1行分です。
// Row はヘッダー行を含むシート上の行番号（1始まり）です。
type IdeaRow struct {
	Row       int
	Character string
	Activity  string
	Setting   string
	Twist     string
	Lesson    string
	Status    Status
}

// Draft は行の各フィールドを固定の接続句で連結した下書き本文を返します。
func (r IdeaRow) Draft() Draft {
	return Draft(fmt.Sprintf("%s %s %s. Bất ngờ, %s. Bài học là %s.",
		r.Character, r.Activity, r.Setting, r.Twist, r.Lesson))
}

// Draft はステージ間で受け渡される物語本文です。
type Draft string

// Title は最初のピリオドより前の部分を返します。ピリオドがなければ全文です。
func (d Draft) Title() string {
	s := string(d)
	if i := strings.Index(s, "."); i >= 0 {
		return s[:i]
	}
	return s
}

func (d Draft) String() string { return string(d) }

// PublishRequest は publishing-requests トピックで送られる JSON ペイロードです。
type PublishRequest struct {
	StoryText     string `json:"story_text"`
	ImageGCSPath  string `json:"image_gcs_path"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// Validate は本文と画像パスの両方が揃っているかを確認します。
func (p PublishRequest) Validate() error {
	var missing []string
	if strings.TrimSpace(p.StoryText) == "" {
		missing = append(missing, "story_text")
	}
	if strings.TrimSpace(p.ImageGCSPath) == "" {
		missing = append(missing, "image_gcs_path")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrIncompletePayload, strings.Join(missing, ", "))
	}
	return nil
}
