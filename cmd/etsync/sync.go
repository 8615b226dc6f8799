package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/clinicops/etransfer-sync/internal/cli"
	"github.com/clinicops/etransfer-sync/internal/engine"
	"github.com/clinicops/etransfer-sync/internal/model"
	"github.com/clinicops/etransfer-sync/internal/tui"
)

func syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Pull new e-Transfer deposits from the inbox into the ledger",
		Long: `Query the Gmail inbox for Interac e-Transfer deposit notifications,
parse out the amount and sender, drop everything already in the
worksheet, and append the rest as new ledger rows.

By default each batch is reviewed interactively before anything is
written. Nothing in the inbox is ever modified, and running sync twice
appends nothing the second time.`,
		RunE: runSync,
	}

	cmd.Flags().Bool("tui", false, "review the batch in a full-screen interface")
	cmd.Flags().Bool("dry-run", false, "show what would be appended without writing anything")
	cmd.Flags().Bool("yes", false, "append without interactive review")

	_ = viper.BindPFlag("sync.tui", cmd.Flags().Lookup("tui"))
	_ = viper.BindPFlag("sync.dry_run", cmd.Flags().Lookup("dry-run"))
	_ = viper.BindPFlag("sync.yes", cmd.Flags().Lookup("yes"))

	return cmd
}

func runSync(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	useTUI := viper.GetBool("sync.tui")
	dryRun := viper.GetBool("sync.dry_run")
	autoYes := viper.GetBool("sync.yes")

	// Until Commit runs, an interrupt costs nothing: unappended mail is
	// simply picked up by the next sync.
	handler := cli.NewInterruptHandler(os.Stdout)
	ctx = handler.HandleInterrupts(ctx, true)

	var bar *progressbar.ProgressBar
	eng, journal, err := newEngine(ctx, engine.Config{
		Mode: model.RunModeManual,
		OnProgress: func(done, total int) {
			if bar == nil {
				bar = cli.NewParseProgressBar(os.Stderr, total)
			}
			_ = bar.Set(done)
		},
	})
	if err != nil {
		return err
	}
	defer closeJournal(journal)

	batch, err := eng.Collect(ctx)
	if err != nil {
		if handler.WasInterrupted() {
			return nil
		}
		return err
	}

	if batch.IsEmpty() {
		run := batch.Run()
		fmt.Println(cli.FormatSuccess("Ledger already up to date. " + cli.LedgerIcon))
		fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf(
			"  %d messages, %d parsed, %d already in the ledger",
			run.MessagesFound, run.Parsed, run.Duplicates)))
		_, err = eng.Commit(ctx, batch)
		return err
	}

	if dryRun {
		fmt.Println(cli.BatchTable(batch))
		eng.Discard(ctx, batch, model.RunStatusDryRun)
		fmt.Println(cli.FormatInfo("Dry run; nothing was written."))
		return nil
	}

	committed := autoYes
	if !autoYes {
		committed, err = reviewBatch(ctx, batch, useTUI)
		if err != nil {
			if errors.Is(err, cli.ErrInputCancelled) || handler.WasInterrupted() {
				committed = false
			} else {
				eng.Discard(ctx, batch, model.RunStatusCancelled)
				return err
			}
		}
	}

	if !committed {
		eng.Discard(ctx, batch, model.RunStatusCancelled)
		if !handler.WasInterrupted() {
			fmt.Println(cli.FormatWarning("Sync cancelled; the ledger is unchanged."))
		}
		return nil
	}

	run, err := eng.Commit(ctx, batch)
	if err != nil {
		return err
	}

	printSyncSummary(run)
	return nil
}

// reviewBatch hands the batch to the chosen review surface and reports
// whether the operator approved the append.
func reviewBatch(ctx context.Context, batch *engine.Batch, useTUI bool) (bool, error) {
	if useTUI {
		return tui.Run(ctx, batch)
	}

	decision, err := cli.NewPrompter(nil, nil).ReviewBatch(ctx, batch)
	if err != nil {
		return false, err
	}
	return decision == cli.DecisionCommit, nil
}

func printSyncSummary(run *model.SyncRun) {
	var b strings.Builder

	counters := []struct {
		label string
		value int
	}{
		{"Messages found", run.MessagesFound},
		{"Parsed", run.Parsed},
		{"Already in ledger", run.Duplicates},
		{"Appended", run.Appended},
	}
	for _, c := range counters {
		fmt.Fprintf(&b, "  %-18s %d\n", c.label, c.value)
	}
	if run.LowConfidence > 0 {
		fmt.Fprintf(&b, "  %-18s %s\n", "Need review",
			cli.WarningStyle.Render(fmt.Sprintf("%d", run.LowConfidence)))
	}
	fmt.Fprintf(&b, "  %-18s %s\n", "Duration", run.Duration().Round(10*time.Millisecond).String())

	fmt.Println(cli.RenderBox("Sync Complete "+cli.MoneyIcon, b.String()))

	if run.Appended > 0 {
		fmt.Println(cli.FormatSuccess(fmt.Sprintf("Appended %d payment(s) to the ledger.", run.Appended)))
	} else {
		fmt.Println(cli.FormatInfo("All rows were dropped during review; nothing was appended."))
	}
}
