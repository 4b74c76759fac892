package domain

import (
	"errors"
	"fmt"
)

// 外部サービス（コラボレーター）の名前
const (
	CollaboratorSheet   = "spreadsheet"
	CollaboratorSecret  = "secret"
	CollaboratorText    = "text-generation"
	CollaboratorImage   = "image-generation"
	CollaboratorStorage = "storage"
	CollaboratorChannel = "message-channel"
)

var (
	// ErrUnavailable は初期化に失敗したなどの理由でコラボレーターが使えないことを示します。
	ErrUnavailable = errors.New("collaborator unavailable")
	// ErrEmptyResponse は呼び出しは成功したが使える結果がなかったことを示します。
	ErrEmptyResponse = errors.New("empty response")
)

// CollaboratorError は外部サービス境界で発生したエラーを、どのサービスのどの操作かと共に保持します。
type CollaboratorError struct {
	Collaborator string
	Op           string
	Err          error
}

// NewCollaboratorError は err を CollaboratorError で包みます。err が nil なら nil を返します。
func NewCollaboratorError(collaborator, op string, err error) error {
	if err == nil {
		return nil
	}
	return &CollaboratorError{Collaborator: collaborator, Op: op, Err: err}
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Collaborator, e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

// CollaboratorOf は err の連鎖から CollaboratorError を探し、そのサービス名を返します。
func CollaboratorOf(err error) (string, bool) {
	var ce *CollaboratorError
	if errors.As(err, &ce) {
		return ce.Collaborator, true
	}
	return "", false
}
