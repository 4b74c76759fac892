package runner

import (
	"time"

	"github.com/patrickmn/go-cache"
)

const cacheCleanupInterval = 15 * time.Minute

// Result は各ステージの実行結果です。Message はトリガー元へ返す短いステータス文字列です。
type Result struct {
	Message string
	// NoWork は処理対象がなかった（重複配信や入力不足を含む）ことを示します。
	NoWork bool
}

// Clock は現在時刻を返す関数です。テストで時刻を固定するために差し替えます。
type Clock func() time.Time

// Deduper は相関 ID ごとの処理済みマークを TTL 付きで保持します。
// Pub/Sub の再配信で同じメッセージが届いた場合に二重処理を防ぎます。
type Deduper struct {
	seen *cache.Cache
}

// NewDeduper は ttl の間だけ処理済みを記憶する Deduper を作成します。
func NewDeduper(ttl time.Duration) *Deduper {
	return &Deduper{seen: cache.New(ttl, cacheCleanupInterval)}
}

// Claim は id を処理済みとして記録し、初回なら true を返します。空の id は常に true です。
func (d *Deduper) Claim(id string) bool {
	if d == nil || id == "" {
		return true
	}
	return d.seen.Add(id, struct{}{}, cache.DefaultExpiration) == nil
}
