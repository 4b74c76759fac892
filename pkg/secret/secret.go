package secret

import (
	"context"
	"fmt"
	"strings"

	"github.com/shouni/go-story-kit/pkg/domain"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// Accessor はシークレットの最新バージョンの値を返します。
type Accessor interface {
	Access(ctx context.Context, name string) (string, error)
}

// SecretManager は Secret Manager からシークレットを読み出します。
type SecretManager struct {
	client    *secretmanager.Client
	projectID string
}

// NewSecretManager は ADC で認証した Secret Manager クライアントを作成します。
func NewSecretManager(ctx context.Context, projectID string) (*SecretManager, error) {
	if projectID == "" {
		return nil, fmt.Errorf("プロジェクトIDは必須です")
	}
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("Secret Manager クライアントの初期化に失敗しました: %w", err)
	}
	return &SecretManager{client: client, projectID: projectID}, nil
}

// Access は projects/<project>/secrets/<name>/versions/latest を読み出します。
func (s *SecretManager) Access(ctx context.Context, name string) (string, error) {
	resp, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: VersionName(s.projectID, name),
	})
	if err != nil {
		return "", domain.NewCollaboratorError(domain.CollaboratorSecret, "access "+name, err)
	}
	value := strings.TrimSpace(string(resp.GetPayload().GetData()))
	if value == "" {
		return "", domain.NewCollaboratorError(domain.CollaboratorSecret, "access "+name, domain.ErrEmptyResponse)
	}
	return value, nil
}

// Close はクライアントを閉じます。
func (s *SecretManager) Close() error {
	return s.client.Close()
}

// VersionName は最新バージョンのリソース名を組み立てます。
func VersionName(projectID, name string) string {
	return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", projectID, name)
}

// Cached は Accessor の結果をプロセスの存続期間中キャッシュします。
// 同時に来た初回の取得要求は1回の呼び出しにまとめられます。
type Cached struct {
	next  Accessor
	cache *cache.Cache
	group singleflight.Group
}

// NewCached は next をキャッシュ付きで包みます。
func NewCached(next Accessor) *Cached {
	return &Cached{
		next:  next,
		cache: cache.New(cache.NoExpiration, 0),
	}
}

func (c *Cached) Access(ctx context.Context, name string) (string, error) {
	if v, ok := c.cache.Get(name); ok {
		return v.(string), nil
	}

	val, err, _ := c.group.Do(name, func() (interface{}, error) {
		if v, ok := c.cache.Get(name); ok {
			return v, nil
		}
		value, err := c.next.Access(ctx, name)
		if err != nil {
			return nil, err
		}
		c.cache.Set(name, value, cache.NoExpiration)
		return value, nil
	})
	if err != nil {
		return "", err
	}

	value, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("unexpected return type from singleflight: %T", val)
	}
	return value, nil
}

// Static は固定値を返す Accessor です。環境変数で直接キーを渡した場合に使います。
type Static map[string]string

func (s Static) Access(ctx context.Context, name string) (string, error) {
	if v, ok := s[name]; ok && v != "" {
		return v, nil
	}
	return "", domain.NewCollaboratorError(domain.CollaboratorSecret, "access "+name, domain.ErrUnavailable)
}
