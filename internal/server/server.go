package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/shouni/go-story-kit/pkg/domain"
	"github.com/shouni/go-story-kit/pkg/messaging"
	"github.com/shouni/go-story-kit/pkg/runner"
	"github.com/shouni/go-story-kit/pkg/workflow"
)

const maxBodyBytes = 1 << 20

// Server は各ステージを HTTP トリガーとして公開します。
// どのハンドラーも失敗時を含めて 200 と短いステータス文字列を返します。
type Server struct {
	story       workflow.StoryRunner
	illustrator workflow.IllustratorRunner
	publish     workflow.PublishRunner
}

// New は Workflow から3つの Runner を構築して Server を作成します。
func New(wf workflow.Workflow) (*Server, error) {
	if wf == nil {
		return nil, errors.New("workflow は必須です")
	}
	story, err := wf.BuildStoryRunner()
	if err != nil {
		return nil, fmt.Errorf("Story Runner の構築に失敗しました: %w", err)
	}
	illustrator, err := wf.BuildIllustratorRunner()
	if err != nil {
		return nil, fmt.Errorf("Illustrator Runner の構築に失敗しました: %w", err)
	}
	publish, err := wf.BuildPublishRunner()
	if err != nil {
		return nil, fmt.Errorf("Publish Runner の構築に失敗しました: %w", err)
	}
	return &Server{story: story, illustrator: illustrator, publish: publish}, nil
}

// Routes はルーティング済みのハンドラーを返します。
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /story", s.handleStory)
	mux.HandleFunc("POST /illustrator", s.handleIllustrator)
	mux.HandleFunc("POST /publisher", s.handlePublisher)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, "ok")
	})
	return logMiddleware(mux)
}

func (s *Server) handleStory(w http.ResponseWriter, r *http.Request) {
	res, err := s.story.Run(r.Context())
	respond(r.Context(), w, "story", res, err)
}

func (s *Server) handleIllustrator(w http.ResponseWriter, r *http.Request) {
	msg, ok := decodePush(w, r)
	if !ok {
		return
	}
	res, err := s.illustrator.Run(r.Context(), domain.Draft(msg.Data), msg.CorrelationID())
	respond(r.Context(), w, "illustrator", res, err)
}

func (s *Server) handlePublisher(w http.ResponseWriter, r *http.Request) {
	msg, ok := decodePush(w, r)
	if !ok {
		return
	}
	var req domain.PublishRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		slog.WarnContext(r.Context(), "Publishing request is not valid JSON", "message_id", msg.ID, "error", err)
		writeStatus(w, "Malformed message ignored.")
		return
	}
	if req.CorrelationID == "" {
		req.CorrelationID = msg.CorrelationID()
	}
	res, err := s.publish.Run(r.Context(), req)
	respond(r.Context(), w, "publisher", res, err)
}

// decodePush はプッシュ配信の本文を読み取ります。解釈できない場合は 200 を返して false を返します。
func decodePush(w http.ResponseWriter, r *http.Request) (messaging.Message, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		slog.WarnContext(r.Context(), "Failed to read request body", "error", err)
		writeStatus(w, "Malformed message ignored.")
		return messaging.Message{}, false
	}
	msg, err := messaging.DecodePush(body)
	if err != nil {
		slog.WarnContext(r.Context(), "Malformed push envelope", "error", err)
		writeStatus(w, "Malformed message ignored.")
		return messaging.Message{}, false
	}
	return msg, true
}

func respond(ctx context.Context, w http.ResponseWriter, stage string, res runner.Result, err error) {
	if err != nil {
		slog.ErrorContext(ctx, "Stage stopped", "stage", stage, "message", res.Message, "error", err)
	}
	msg := res.Message
	if msg == "" {
		msg = "Done."
	}
	writeStatus(w, msg)
}

func writeStatus(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, msg)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		path := r.URL.Path
		if path == "" {
			path = "/"
		}
		slog.InfoContext(r.Context(), "HTTP request",
			"method", r.Method,
			"path", path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
