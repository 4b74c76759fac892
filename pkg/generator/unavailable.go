package generator

import (
	"context"
	"fmt"

	"github.com/shouni/go-story-kit/pkg/domain"
)

// Unavailable は初期化に失敗した生成サービスの代役です。すべての呼び出しが domain.ErrUnavailable を返します。
type Unavailable struct {
	Cause error
}

func (u Unavailable) GenerateText(ctx context.Context, prompt string) (string, error) {
	return "", domain.NewCollaboratorError(domain.CollaboratorText, "generate", u.err())
}

func (u Unavailable) GenerateImage(ctx context.Context, req ImageRequest) (*ImageResponse, error) {
	return nil, domain.NewCollaboratorError(domain.CollaboratorImage, "generate", u.err())
}

func (u Unavailable) err() error {
	if u.Cause == nil {
		return domain.ErrUnavailable
	}
	return fmt.Errorf("%w: %w", domain.ErrUnavailable, u.Cause)
}
