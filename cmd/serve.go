package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/shouni/go-story-kit/internal/builder"
	"github.com/shouni/go-story-kit/internal/server"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "3つのステージを HTTP トリガーとして待ち受けるのだ。",
	Long: `POST /story（スケジューラー）、POST /illustrator と POST /publisher（Pub/Sub プッシュ）、
GET /healthz を PORT で待ち受けるのだ。`,
	Example: "  story-kit serve",
	RunE:    serveCommand,
}

func serveCommand(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appCtx, err := builder.NewAppContext(ctx, cfg)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	srv, err := server.New(appCtx.Workflow)
	if err != nil {
		return err
	}

	httpServer := newHTTPServer(ctx, cfg.Port, srv.Routes())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Starting HTTP server", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP サーバーの起動に失敗しました: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newHTTPServer はシグナルを受けても処理中のリクエストを取り消さない HTTP サーバーを作るのだ。
// リクエストのコンテキストは ctx の値を引き継ぐが、終了は Shutdown に任せるのだ。
func newHTTPServer(ctx context.Context, port string, handler http.Handler) *http.Server {
	base := context.WithoutCancel(ctx)
	return &http.Server{
		Addr:              net.JoinHostPort("", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return base },
	}
}
