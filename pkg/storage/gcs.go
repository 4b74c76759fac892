package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/shouni/go-story-kit/pkg/asset"
	"github.com/shouni/go-story-kit/pkg/domain"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// GCSStore は Google Cloud Storage の1バケットを Store として扱います。
type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCSStore は ADC で認証した GCS クライアントを作成します。
func NewGCSStore(ctx context.Context, bucket string) (*GCSStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("バケット名は必須です")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("GCS クライアントの初期化に失敗しました: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

// Close はクライアントを閉じます。
func (s *GCSStore) Close() error {
	return s.client.Close()
}

// Write はオブジェクトを無条件に書き込みます。
func (s *GCSStore) Write(ctx context.Context, path string, r io.Reader, contentType string) error {
	obj := s.client.Bucket(s.bucket).Object(path)
	return s.write(ctx, obj, path, r, contentType)
}

// WriteIf は世代番号を条件にオブジェクトを書き込みます。
func (s *GCSStore) WriteIf(ctx context.Context, path string, data []byte, contentType string, generation int64) error {
	cond := storage.Conditions{GenerationMatch: generation}
	if generation == 0 {
		cond = storage.Conditions{DoesNotExist: true}
	}
	obj := s.client.Bucket(s.bucket).Object(path).If(cond)
	return s.write(ctx, obj, path, bytes.NewReader(data), contentType)
}

func (s *GCSStore) write(ctx context.Context, obj *storage.ObjectHandle, path string, r io.Reader, contentType string) error {
	open := func(ctx context.Context) io.WriteCloser {
		w := obj.NewWriter(ctx)
		w.ContentType = contentType
		return w
	}
	if err := copyObject(ctx, open, r); err != nil {
		return domain.NewCollaboratorError(domain.CollaboratorStorage, "write "+path, translate(err))
	}
	return nil
}

// copyObject は r の内容を open で開いたライターへ書き込みます。
// コピーに失敗した場合はライターのコンテキストを取り消してから閉じるため、途中までの内容は確定しません。
func copyObject(ctx context.Context, open func(context.Context) io.WriteCloser, r io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := open(ctx)
	if _, err := io.Copy(w, r); err != nil {
		cancel()
		_ = w.Close()
		return err
	}
	return w.Close()
}

// Read はオブジェクトの内容と世代番号を取得します。
func (s *GCSStore) Read(ctx context.Context, path string) (Object, error) {
	rc, err := s.client.Bucket(s.bucket).Object(path).NewReader(ctx)
	if err != nil {
		return Object{}, domain.NewCollaboratorError(domain.CollaboratorStorage, "read "+path, translate(err))
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return Object{}, domain.NewCollaboratorError(domain.CollaboratorStorage, "read "+path, err)
	}
	return Object{
		Data:        data,
		ContentType: rc.Attrs.ContentType,
		Generation:  rc.Attrs.Generation,
	}, nil
}

// URI は gs://bucket/path 形式の URI を返します。
func (s *GCSStore) URI(path string) (string, error) {
	return asset.GCSURI(s.bucket, path)
}

func translate(err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusPreconditionFailed:
			return fmt.Errorf("%w: %w", ErrPreconditionFailed, err)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %w", ErrNotFound, err)
		}
	}
	return err
}
