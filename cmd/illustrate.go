package cmd

import (
	"fmt"

	"github.com/shouni/go-story-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

var illustrateText string

// illustrateCmd は、下書きを直接渡して挿絵を生成するのだ。
var illustrateCmd = &cobra.Command{
	Use:     "illustrate",
	Short:   "Illustrator ステージを1回だけ実行するのだ。",
	Example: `  LOCAL_OUTPUT_DIR=output story-kit illustrate --text "Lucky chased a ball. Suddenly, it rained."`,
	RunE:    illustrateCommand,
}

func init() {
	illustrateCmd.Flags().StringVarP(&illustrateText, "text", "t", "", "挿絵にする下書き本文なのだ。")
	_ = illustrateCmd.MarkFlagRequired("text")
}

func illustrateCommand(cmd *cobra.Command, args []string) error {
	res, err := pipeline.ExecuteIllustrate(cmd.Context(), cfg, illustrateText)
	if err != nil {
		return fmt.Errorf("Illustrator ステージの実行に失敗しました: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Message)
	return nil
}
