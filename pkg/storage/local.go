package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/shouni/go-story-kit/pkg/domain"

	"github.com/gofrs/flock"
)

// metaDir は世代番号とロックファイルを置く隠しディレクトリです。
const metaDir = ".story-kit"

// LocalStore はローカルディレクトリを Store として扱います。
// 同じディレクトリを共有する別プロセスとはファイルロック（flock）で排他します。
type LocalStore struct {
	root string
	mu   sync.Mutex
}

// NewLocalStore は root を基点とする LocalStore を作成します。
func NewLocalStore(root string) (*LocalStore, error) {
	if root == "" {
		return nil, fmt.Errorf("出力ディレクトリは必須です")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("出力ディレクトリの解決に失敗しました: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("出力ディレクトリの作成に失敗しました: %w", err)
	}
	return &LocalStore{root: abs}, nil
}

// Write はファイルを無条件に書き込みます。
func (s *LocalStore) Write(ctx context.Context, path string, r io.Reader, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.NewCollaboratorError(domain.CollaboratorStorage, "write "+path, err)
	}
	return s.locked(path, false, func() error {
		return s.commit(path, data)
	})
}

// WriteIf は世代番号が一致する場合のみ書き込みます。
func (s *LocalStore) WriteIf(ctx context.Context, path string, data []byte, contentType string, generation int64) error {
	return s.locked(path, false, func() error {
		current, err := s.generation(path)
		if err != nil {
			return err
		}
		if current != generation {
			return fmt.Errorf("%w: %s (want %d, have %d)", ErrPreconditionFailed, path, generation, current)
		}
		return s.commit(path, data)
	})
}

// Read はファイルの内容と世代番号を取得します。
func (s *LocalStore) Read(ctx context.Context, path string) (Object, error) {
	var obj Object
	err := s.locked(path, true, func() error {
		data, err := os.ReadFile(s.dataPath(path))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("%w: %s", ErrNotFound, path)
			}
			return err
		}
		gen, err := s.generation(path)
		if err != nil {
			return err
		}
		obj = Object{
			Data:        data,
			ContentType: mime.TypeByExtension(filepath.Ext(path)),
			Generation:  gen,
		}
		return nil
	})
	return obj, err
}

// URI はファイルの絶対パスを返します。
func (s *LocalStore) URI(path string) (string, error) {
	return s.dataPath(path), nil
}

func (s *LocalStore) locked(path string, shared bool, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lockPath := s.metaPath(path) + ".lock"
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return domain.NewCollaboratorError(domain.CollaboratorStorage, "lock "+path, err)
	}
	fl := flock.New(lockPath)
	var err error
	if shared {
		err = fl.RLock()
	} else {
		err = fl.Lock()
	}
	if err != nil {
		return domain.NewCollaboratorError(domain.CollaboratorStorage, "lock "+path, err)
	}
	defer fl.Unlock()

	if err := fn(); err != nil {
		return domain.NewCollaboratorError(domain.CollaboratorStorage, "access "+path, err)
	}
	return nil
}

// generation は現在の世代番号を返します。ファイルがなければ 0 です。
// 世代ファイルがないまま存在するファイル（外部で置かれたもの）は 1 とみなします。
func (s *LocalStore) generation(path string) (int64, error) {
	if _, err := os.Stat(s.dataPath(path)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	raw, err := os.ReadFile(s.metaPath(path) + ".gen")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 1, nil
		}
		return 0, err
	}
	gen, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("世代番号の解析に失敗しました (%s): %w", path, err)
	}
	return gen, nil
}

func (s *LocalStore) commit(path string, data []byte) error {
	current, err := s.generation(path)
	if err != nil {
		return err
	}
	dst := s.dataPath(path)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if err := writeAtomic(dst, data); err != nil {
		return err
	}
	next := []byte(strconv.FormatInt(current+1, 10))
	return writeAtomic(s.metaPath(path)+".gen", next)
}

func (s *LocalStore) dataPath(path string) string {
	return filepath.Join(s.root, filepath.FromSlash(path))
}

func (s *LocalStore) metaPath(path string) string {
	return filepath.Join(s.root, metaDir, filepath.FromSlash(path))
}

func writeAtomic(dst string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), dst)
}
