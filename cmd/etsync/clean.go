package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/clinicops/etransfer-sync/internal/cli"
	"github.com/clinicops/etransfer-sync/internal/maintenance"
)

func cleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Scan the ledger for junk rows and optionally remove them",
		Long: `Scan the worksheet for rows that should not be there and show what
a cleanup would remove.

Every scan is a preview by default; nothing is rewritten until the
same command is run with --apply.`,
	}

	cmd.PersistentFlags().Bool("apply", false, "rewrite the worksheet without the flagged rows")
	_ = viper.BindPFlag("clean.apply", cmd.PersistentFlags().Lookup("apply"))

	cmd.AddCommand(cleanScanCmd(maintenance.ScanZeroes,
		"Find rows whose amount is zero or unreadable"))
	cmd.AddCommand(cleanScanCmd(maintenance.ScanUnknown,
		"Find rows whose payee was never matched to a doctor"))
	cmd.AddCommand(cleanScanCmd(maintenance.ScanDuplicates,
		"Find same-day duplicate payments, keeping the first of each"))

	return cmd
}

func cleanScanCmd(kind maintenance.ScanKind, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(kind),
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runClean(cmd, kind)
		},
	}
}

func runClean(cmd *cobra.Command, kind maintenance.ScanKind) error {
	ctx := cmd.Context()
	apply := viper.GetBool("clean.apply")

	store, err := newLedgerStore(ctx)
	if err != nil {
		return err
	}

	snapshot, err := store.Snapshot(ctx)
	if err != nil {
		return err
	}

	plan, err := maintenance.PlanFor(kind, snapshot)
	if err != nil {
		return err
	}

	if plan.IsNoop() {
		fmt.Println(cli.FormatSuccess("Nothing to remove; the ledger is clean."))
		return nil
	}

	printPlan(plan)

	if !apply {
		fmt.Println(cli.FormatInfo("Preview only. Run again with --apply to rewrite the worksheet."))
		return nil
	}

	if err := maintenance.Apply(ctx, store, plan); err != nil {
		return err
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Removed %d row(s); %d kept.", len(plan.Removals), len(plan.Keep))))
	return nil
}

// printPlan shows the flagged rows with their worksheet row numbers so
// the operator can double-check against the sheet before applying.
func printPlan(plan *maintenance.Plan) {
	var b strings.Builder

	fmt.Fprintf(&b, "  %-6s %-20s %-24s %10s  %-16s\n", "Row", "Date", "Sender", "Amount", "Payee")
	for _, removal := range plan.Removals {
		fmt.Fprintf(&b, "  %-6d %-20s %-24s %10s  %-16s\n",
			removal.SheetRow(), removal.Row.Date, removal.Row.Sender, removal.Row.Amount, removal.Row.Payee)
	}

	title := fmt.Sprintf("Rows to remove: %s (%d)", plan.Kind, len(plan.Removals))
	fmt.Println(cli.RenderBox(title, b.String()))
}
