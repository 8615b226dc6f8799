package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/clinicops/etransfer-sync/internal/cli"
)

func inspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the ledger's shape and most recent rows",
		Long: `Read the worksheet and print its title, header, row count, and the
most recent rows. Useful for checking what a sync or clean actually
did without opening the spreadsheet.`,
		RunE: runInspect,
	}

	cmd.Flags().Int("rows", 5, "how many recent rows to show")
	_ = viper.BindPFlag("inspect.rows", cmd.Flags().Lookup("rows"))

	return cmd
}

func runInspect(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	limit := viper.GetInt("inspect.rows")

	store, err := newLedgerStore(ctx)
	if err != nil {
		return err
	}

	title, err := store.Title(ctx)
	if err != nil {
		return err
	}

	snapshot, err := store.Snapshot(ctx)
	if err != nil {
		return err
	}

	fmt.Println(cli.FormatTitle(title + " " + cli.LedgerIcon))
	fmt.Println(cli.SubtleStyle.Render("  header: " + strings.Join(snapshot.Header, " | ")))
	fmt.Printf("  %d payment row(s)\n", len(snapshot.Rows))
	if snapshot.RaggedRows > 0 {
		fmt.Println(cli.FormatWarning(fmt.Sprintf("%d row(s) were ragged and padded during the read", snapshot.RaggedRows)))
	}
	fmt.Println()

	if len(snapshot.Rows) == 0 {
		fmt.Println(cli.FormatInfo("The worksheet has no payment rows yet."))
		return nil
	}

	start := len(snapshot.Rows) - limit
	if start < 0 {
		start = 0
	}
	recent := snapshot.Rows[start:]

	var b strings.Builder
	fmt.Fprintf(&b, "  %-6s %-20s %-24s %10s  %-16s\n", "Row", "Date", "Sender", "Amount", "Payee")
	for i, row := range recent {
		// Worksheet numbering: one for 1-based rows, one for the header.
		fmt.Fprintf(&b, "  %-6d %-20s %-24s %10s  %-16s\n",
			start+i+2, row.Date, row.Sender, row.Amount, row.Payee)
	}

	fmt.Println(cli.RenderBox(fmt.Sprintf("Last %d row(s)", len(recent)), b.String()))
	return nil
}
