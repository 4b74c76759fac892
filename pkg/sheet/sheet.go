package sheet

import (
	"context"
	"fmt"
	"strings"

	"github.com/shouni/go-story-kit/pkg/domain"

	"golang.org/x/text/unicode/norm"
)

// IdeaSource は物語アイデアの行を読み出し、ステータスセルを書き換えるコラボレーターです。
type IdeaSource interface {
	Rows(ctx context.Context) ([]domain.IdeaRow, error)
	UpdateStatus(ctx context.Context, row int, status domain.Status) error
}

// headerRowOffset はデータの添字からシートの行番号への変換量です（ヘッダー1行 + 1始まり）。
const headerRowOffset = 2

// FindNext は上から順に走査し、最初の未処理行を返します。
func FindNext(rows []domain.IdeaRow) (domain.IdeaRow, bool) {
	for _, r := range rows {
		if normalize(string(r.Status)) == normalize(string(domain.StatusUnprocessed)) {
			return r, true
		}
	}
	return domain.IdeaRow{}, false
}

// ParseRows はヘッダー行付きの値グリッドを IdeaRow に変換します。
// 見出しは NFC 正規化して比較するため、分解形のベトナム語でも一致します。
func ParseRows(values [][]interface{}) []domain.IdeaRow {
	if len(values) == 0 {
		return nil
	}

	columns := make(map[string]int, len(values[0]))
	for i, h := range values[0] {
		columns[normalize(cellString(h))] = i
	}
	get := func(record []interface{}, header string) string {
		idx, ok := columns[normalize(header)]
		if !ok || idx >= len(record) {
			return ""
		}
		return normalize(cellString(record[idx]))
	}

	rows := make([]domain.IdeaRow, 0, len(values)-1)
	for i, record := range values[1:] {
		rows = append(rows, domain.IdeaRow{
			Row:       i + headerRowOffset,
			Character: get(record, domain.HeaderCharacter),
			Activity:  get(record, domain.HeaderActivity),
			Setting:   get(record, domain.HeaderSetting),
			Twist:     get(record, domain.HeaderTwist),
			Lesson:    get(record, domain.HeaderLesson),
			Status:    domain.Status(get(record, domain.HeaderStatus)),
		})
	}
	return rows
}

// CellA1 は1始まりの行・列番号を A1 表記（'Sheet1'!G5）に変換します。
func CellA1(sheetTitle string, row, col int) string {
	return fmt.Sprintf("%s!%s%d", quoteSheetTitle(sheetTitle), columnLetters(col), row)
}

// quoteSheetTitle はシート名を A1 表記用に引用符で囲みます。名前中の引用符は2つ重ねてエスケープします。
func quoteSheetTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func columnLetters(col int) string {
	var sb []byte
	for col > 0 {
		col--
		sb = append([]byte{byte('A' + col%26)}, sb...)
		col /= 26
	}
	return string(sb)
}

func cellString(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// Unavailable は初期化に失敗したスプレッドシートの代役です。すべての呼び出しが domain.ErrUnavailable を返します。
type Unavailable struct {
	Cause error
}

func (u Unavailable) Rows(ctx context.Context) ([]domain.IdeaRow, error) {
	return nil, domain.NewCollaboratorError(domain.CollaboratorSheet, "read rows", u.err())
}

func (u Unavailable) UpdateStatus(ctx context.Context, row int, status domain.Status) error {
	return domain.NewCollaboratorError(domain.CollaboratorSheet, "update status", u.err())
}

func (u Unavailable) err() error {
	if u.Cause == nil {
		return domain.ErrUnavailable
	}
	return fmt.Errorf("%w: %w", domain.ErrUnavailable, u.Cause)
}
