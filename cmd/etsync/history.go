package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/clinicops/etransfer-sync/internal/cli"
	"github.com/clinicops/etransfer-sync/internal/model"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent sync runs from the local journal",
		Long: `List the most recent sync runs recorded in the local journal,
newest first. The journal is purely local bookkeeping; it never
affects what a sync appends.`,
		RunE: runHistory,
	}

	cmd.Flags().Int("limit", 10, "how many runs to show")
	_ = viper.BindPFlag("history.limit", cmd.Flags().Lookup("limit"))

	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	limit := viper.GetInt("history.limit")

	journal, err := newRunJournal(ctx)
	if err != nil {
		return err
	}
	defer closeJournal(journal)

	runs, err := journal.RecentRuns(ctx, limit)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println(cli.FormatInfo("No sync runs recorded yet."))
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "  %-2s %-17s %-7s %-10s %6s %5s %6s  %s\n",
		"", "Started", "Mode", "Status", "Found", "New", "Added", "Duration")
	for _, run := range runs {
		line := fmt.Sprintf("  %-2s %-17s %-7s %-10s %6d %5d %6d  %s",
			statusIcon(run.Status),
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			run.Mode, run.Status,
			run.MessagesFound, run.NewRows, run.Appended,
			run.Duration().Round(10*time.Millisecond))
		b.WriteString(line + "\n")

		if run.Error != "" {
			b.WriteString(cli.SubtleStyle.Render("      "+run.Error) + "\n")
		}
	}

	fmt.Println(cli.RenderBox(fmt.Sprintf("Recent Runs (%d)", len(runs)), b.String()))
	return nil
}

func statusIcon(status model.RunStatus) string {
	switch status {
	case model.RunStatusSucceeded:
		return cli.SuccessIcon
	case model.RunStatusFailed:
		return cli.ErrorIcon
	case model.RunStatusCancelled:
		return cli.WarningIcon
	default:
		return cli.InfoIcon
	}
}
