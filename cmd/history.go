package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"tasnim.dev/datalake-indexer/internal/index"
	"tasnim.dev/datalake-indexer/internal/ledger"
	"tasnim.dev/datalake-indexer/internal/theme"
	"tasnim.dev/datalake-indexer/internal/utils"
)

func NewHistoryCmd() *cobra.Command {
	var (
		flags configFlags
		limit int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs recorded on this machine",
		RunE: func(cmd *cobra.Command, args []string) error {
			vals, err := flags.values(cmd)
			if err != nil {
				return err
			}
			path := vals.Ledger()
			if path == "" {
				return fmt.Errorf("run history is disabled")
			}

			l, err := ledger.Open(cmd.Context(), path)
			if err != nil {
				return err
			}
			defer l.Close()

			entries, err := l.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), renderHistory(entries))
			return nil
		},
	}

	flags.register(cmd, false)
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show (0 for all)")

	return cmd
}

func renderHistory(entries []ledger.Entry) string {
	if len(entries) == 0 {
		return theme.MutedStyle.Render("no runs recorded") + "\n"
	}

	db := utils.NewDetailBuilder(10, theme.SectionStyle)
	for i, e := range entries {
		if i > 0 {
			db.Blank()
		}
		db.Section(e.RunID)
		db.Row("Status", theme.RenderStatus(e.Status))
		db.Row("Started", utils.TimeOrDash(e.StartedAt, utils.DateTimeSec))
		db.Row("Item", e.ItemName)
		db.Row("Source", index.ObjectURL(e.SourceBucket, e.SourcePrefix))
		if e.TargetKey != "" {
			db.Row("Output", index.ObjectURL(e.TargetBucket, e.TargetKey))
		}
		db.Rowf("Rows", "%d", e.Rows)
		db.Row("Size", utils.Bytes(e.Bytes))
		db.Row("Elapsed", utils.Elapsed(e.Elapsed))
		if e.Error != "" {
			db.Row("Error", theme.ErrorStyle.Render(e.Error))
		}
	}
	return db.String()
}
