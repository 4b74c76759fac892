package publisher

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shouni/go-story-kit/pkg/asset"
	"github.com/shouni/go-story-kit/pkg/storage"
)

// EmptyIndex は一覧ページがまだ存在しない場合の初期内容です。
const EmptyIndex = `<!DOCTYPE html><html lang="vi"><head><title>The Adventures of Lucky</title>
<style>body { font-family: sans-serif; margin: 40px; background-color: #eee; } ul { list-style-type: none; padding: 0; } li { background: white; margin: 5px 0; padding: 15px; border-radius: 5px; box-shadow: 0 2px 4px rgba(0,0,0,0.05); }</style></head>
<body><h1>The Adventures of Lucky</h1><ul></ul></body></html>
`

const (
	listOpenTag      = "<ul>"
	dateLayout       = "2006-01-02"
	defaultBaseDelay = 50 * time.Millisecond
	maxRetryDelay    = 2 * time.Second
)

// ErrIndexConflict は競合による再試行が上限に達したことを示します。
var ErrIndexConflict = errors.New("index update conflict")

// Link は一覧ページに追加する1件分のリンクです。
type Link struct {
	Href  string
	Title string
	Date  time.Time
}

// InsertLink は最初の <ul> の直後にリンク項目を挿入します。
// <ul> がなければ index をそのまま返し、false を返します。
func InsertLink(index string, link Link) (string, bool) {
	if !strings.Contains(index, listOpenTag) {
		return index, false
	}
	item := fmt.Sprintf(`<li><a href="%s">%s (Date: %s)</a></li>`,
		template.HTMLEscapeString(link.Href),
		template.HTMLEscapeString(link.Title),
		link.Date.Format(dateLayout))
	return strings.Replace(index, listOpenTag, listOpenTag+"\n"+item, 1), true
}

// IndexUpdater は一覧ページへのリンク追加を世代番号付きの条件付き書き込みで行います。
// 同時に追加された場合は読み直して再試行するため、どちらのリンクも失われません。
type IndexUpdater struct {
	store       storage.Store
	path        string
	maxAttempts int
	baseDelay   time.Duration
}

// NewIndexUpdater は IndexUpdater を作成します。maxAttempts が 1 未満の場合は 1 とします。
func NewIndexUpdater(store storage.Store, maxAttempts int) *IndexUpdater {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &IndexUpdater{
		store:       store,
		path:        asset.IndexPath,
		maxAttempts: maxAttempts,
		baseDelay:   defaultBaseDelay,
	}
}

// Append はリンクを一覧ページに追加します。
// 世代番号の不一致だけを再試行し、それ以外のエラーは即座に返します。
func (u *IndexUpdater) Append(ctx context.Context, link Link) error {
	attempt := 0
	op := func() error {
		attempt++
		err := u.tryAppend(ctx, link)
		if err == nil {
			return nil
		}
		if !errors.Is(err, storage.ErrPreconditionFailed) {
			return backoff.Permanent(err)
		}
		slog.WarnContext(ctx, "Index changed concurrently, retrying", "attempt", attempt, "max_attempts", u.maxAttempts)
		return err
	}

	err := backoff.Retry(op, u.newBackOff(ctx))
	switch {
	case err == nil:
		slog.InfoContext(ctx, "Index updated", "href", link.Href, "attempt", attempt)
		return nil
	case errors.Is(err, storage.ErrPreconditionFailed):
		return fmt.Errorf("%w: %d 回試行しました: %w", ErrIndexConflict, attempt, err)
	default:
		return err
	}
}

// newBackOff は maxAttempts 回までのジッター付き指数バックオフを返します。
func (u *IndexUpdater) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = u.baseDelay
	b.MaxInterval = maxRetryDelay
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(u.maxAttempts-1)), ctx)
}

func (u *IndexUpdater) tryAppend(ctx context.Context, link Link) error {
	current := EmptyIndex
	var generation int64

	obj, err := u.store.Read(ctx, u.path)
	switch {
	case err == nil:
		current = string(obj.Data)
		generation = obj.Generation
	case errors.Is(err, storage.ErrNotFound):
	default:
		return fmt.Errorf("一覧ページの読み込みに失敗しました: %w", err)
	}

	updated, ok := InsertLink(current, link)
	if !ok {
		return fmt.Errorf("一覧ページ %s に %s がありません", u.path, listOpenTag)
	}
	return u.store.WriteIf(ctx, u.path, []byte(updated), HTMLContentType, generation)
}
