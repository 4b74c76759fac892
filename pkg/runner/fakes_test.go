package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/shouni/go-story-kit/pkg/domain"
	"github.com/shouni/go-story-kit/pkg/generator"
	"github.com/shouni/go-story-kit/pkg/messaging"
	"github.com/shouni/go-story-kit/pkg/prompts"
	"github.com/shouni/go-story-kit/pkg/storage"
)

var errBoom = errors.New("boom")

type statusWrite struct {
	row    int
	status domain.Status
}

type fakeIdeas struct {
	rows      []domain.IdeaRow
	readErr   error
	updateErr error
	writes    []statusWrite
}

func (f *fakeIdeas) Rows(ctx context.Context) ([]domain.IdeaRow, error) {
	return f.rows, f.readErr
}

func (f *fakeIdeas) UpdateStatus(ctx context.Context, row int, status domain.Status) error {
	f.writes = append(f.writes, statusWrite{row, status})
	return f.updateErr
}

type published struct {
	topic string
	msg   messaging.Message
}

type fakePublisher struct {
	err  error
	sent []published
}

func (f *fakePublisher) Publish(ctx context.Context, topic string, msg messaging.Message) (string, error) {
	f.sent = append(f.sent, published{topic, msg})
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("msg-%d", len(f.sent)), nil
}

type fakeText struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeText) GenerateText(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

type fakeImages struct {
	err  error
	reqs []generator.ImageRequest
}

func (f *fakeImages) GenerateImage(ctx context.Context, req generator.ImageRequest) (*generator.ImageResponse, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return &generator.ImageResponse{Data: []byte("png-bytes"), MimeType: "image/png"}, nil
}

// memStore は世代番号付きのインメモリ Store です。
type memStore struct {
	mu       sync.Mutex
	objects  map[string]storage.Object
	writeErr error
}

func newMemStore() *memStore {
	return &memStore{objects: map[string]storage.Object{}}
}

func (s *memStore) Write(ctx context.Context, path string, r io.Reader, contentType string) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[path] = storage.Object{Data: data, ContentType: contentType, Generation: s.objects[path].Generation + 1}
	return nil
}

func (s *memStore) WriteIf(ctx context.Context, path string, data []byte, contentType string, generation int64) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.objects[path].Generation != generation {
		return storage.ErrPreconditionFailed
	}
	s.objects[path] = storage.Object{Data: data, ContentType: contentType, Generation: generation + 1}
	return nil
}

func (s *memStore) Read(ctx context.Context, path string) (storage.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[path]
	if !ok {
		return storage.Object{}, storage.ErrNotFound
	}
	return obj, nil
}

func (s *memStore) URI(path string) (string, error) {
	return "gs://test-bucket/" + path, nil
}

func newPromptBuilder() prompts.PromptBuilder {
	pb, err := prompts.NewTextPromptBuilder()
	if err != nil {
		panic(err)
	}
	return pb
}
