package storage

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrNotFound はオブジェクトが存在しないことを示します。
	ErrNotFound = errors.New("object not found")
	// ErrPreconditionFailed は世代番号による条件付き書き込みが競合で失敗したことを示します。
	ErrPreconditionFailed = errors.New("precondition failed")
)

// Object は読み出したオブジェクトの内容と世代番号です。
// Generation はオブジェクトが書き換わるたびに変わる楽観ロック用のトークンです。
type Object struct {
	Data        []byte
	ContentType string
	Generation  int64
}

// OutputWriter はデータを外部ストレージに保存するためのインターフェースです。
type OutputWriter interface {
	Write(ctx context.Context, path string, r io.Reader, contentType string) error
}

// Store はキーで指定するバイト列の保存・取得と、世代番号付きの条件付き上書きを提供します。
type Store interface {
	OutputWriter
	Read(ctx context.Context, path string) (Object, error)
	// WriteIf は現在の世代番号が generation と一致する場合のみ書き込みます。
	// generation が 0 の場合はオブジェクトが存在しないことを条件とします。
	WriteIf(ctx context.Context, path string, data []byte, contentType string, generation int64) error
	// URI は保存先を示す URI（gs://bucket/path やローカルの絶対パス）を返します。
	URI(path string) (string, error)
}
