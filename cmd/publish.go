package cmd

import (
	"fmt"

	"github.com/shouni/go-story-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

var (
	publishText  string
	publishImage string
)

// publishCmd は、下書きと画像パスからページを公開して一覧を更新するのだ。
var publishCmd = &cobra.Command{
	Use:     "publish",
	Short:   "Publisher ステージを1回だけ実行するのだ。",
	Example: `  story-kit publish --text "Lucky chased a ball." --image gs://lucky-story-images-demo/lucky-story-1700000000.png`,
	RunE:    publishCommand,
}

func init() {
	publishCmd.Flags().StringVarP(&publishText, "text", "t", "", "公開する下書き本文なのだ。")
	publishCmd.Flags().StringVarP(&publishImage, "image", "i", "", "挿絵の保存パス（gs://... またはファイル名）なのだ。")
	_ = publishCmd.MarkFlagRequired("text")
	_ = publishCmd.MarkFlagRequired("image")
}

func publishCommand(cmd *cobra.Command, args []string) error {
	res, err := pipeline.ExecutePublish(cmd.Context(), cfg, publishText, publishImage)
	if err != nil {
		return fmt.Errorf("Publisher ステージの実行に失敗しました: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Message)
	return nil
}
