package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/shouni/go-story-kit/internal/config"
	"github.com/shouni/go-story-kit/internal/logging"

	"github.com/spf13/cobra"
)

var (
	configPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "story-kit",
	Short: "スプレッドシートのアイデアから絵本ページを公開する3段パイプラインなのだ。",
	Long: `story-kit は Story → Illustrator → Publisher の3ステージを実行するのだ。
serve で HTTP トリガーとして待ち受けるか、各ステージを1回だけ手元で実行できるのだよ。`,
	SilenceUsage:      true,
	PersistentPreRunE: preRunAppE,
}

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
func addAppFlags(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigFile, "TOML 設定ファイルのパスなのだ（なければ環境変数だけを使うのだ）。")
}

// preRunAppE は、コマンド実行前に設定を読み込み、ロガーを準備するのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	loaded, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	cfg = loaded

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return fmt.Errorf("ロガーの初期化に失敗しました: %w", err)
	}
	slog.SetDefault(logger)
	return nil
}

func init() {
	addAppFlags(rootCmd)
	rootCmd.AddCommand(serveCmd, storyCmd, illustrateCmd, publishCmd, ideasCmd)
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
