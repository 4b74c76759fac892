package cmd

import (
	"fmt"

	"github.com/shouni/go-story-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// storyCmd は、未処理のアイデア行を1件取り出して下書きを送るのだ！
var storyCmd = &cobra.Command{
	Use:     "story",
	Short:   "Story ステージを1回だけ実行するのだ。",
	Example: "  story-kit story",
	RunE:    storyCommand,
}

func storyCommand(cmd *cobra.Command, args []string) error {
	res, err := pipeline.ExecuteStory(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("Story ステージの実行に失敗しました: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Message)
	return nil
}
