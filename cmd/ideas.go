package cmd

import (
	"fmt"
	"strconv"

	"github.com/shouni/go-story-kit/internal/pipeline"
	"github.com/shouni/go-story-kit/pkg/domain"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

// ideasCmd は、スプレッドシートの行とステータスを表で見せるのだ。
var ideasCmd = &cobra.Command{
	Use:     "ideas",
	Short:   "スプレッドシートのアイデア行を一覧表示するのだ。",
	Example: "  SHEET_ID=... story-kit ideas",
	RunE:    ideasCommand,
}

func ideasCommand(cmd *cobra.Command, args []string) error {
	rows, err := pipeline.ListIdeas(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderIdeas(rows))
	return nil
}

func renderIdeas(rows []domain.IdeaRow) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Row", domain.HeaderCharacter, domain.HeaderActivity, domain.HeaderSetting, domain.HeaderStatus})
	for _, r := range rows {
		tw.AppendRow(table.Row{strconv.Itoa(r.Row), r.Character, r.Activity, r.Setting, string(r.Status)})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}
