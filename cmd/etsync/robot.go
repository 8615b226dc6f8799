package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/clinicops/etransfer-sync/internal/common"
	"github.com/clinicops/etransfer-sync/internal/engine"
	"github.com/clinicops/etransfer-sync/internal/model"
)

func robotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "robot",
		Short: "Run one unattended sync for cron and schedulers",
		Long: `Run the full sync pipeline once with no prompts, for cron and CI
schedulers.

Credentials come from the environment: GMAIL_TOKEN holds the OAuth
token JSON and GCP_JSON holds the service account key, though a
configured token file and key path work too. Logs are emitted as JSON
unless --log-format says otherwise, and a failed run exits non-zero so
the scheduler can alert on it.`,
		RunE: runRobot,
	}
}

func runRobot(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	// Schedulers want parseable output, so robot runs default to JSON
	// logs. An explicit --log-format still wins.
	if !cmd.Root().PersistentFlags().Changed("log-format") {
		level, err := parseLogLevel(viper.GetString("logging.level"))
		if err != nil {
			return err
		}
		if err := common.SetupLogger(level, "json"); err != nil {
			return err
		}
	}

	eng, journal, err := newEngine(ctx, engine.Config{Mode: model.RunModeRobot})
	if err != nil {
		slog.Error("robot sync failed", "stage", "setup", "error", err)
		return err
	}
	defer closeJournal(journal)

	batch, err := eng.Collect(ctx)
	if err != nil {
		slog.Error("robot sync failed", "stage", "collect", "error", err)
		return err
	}

	run, err := eng.Commit(ctx, batch)
	if err != nil {
		slog.Error("robot sync failed", "stage", "commit", "error", err)
		return err
	}

	slog.Info("robot sync complete",
		"run_id", run.ID,
		"found", run.MessagesFound,
		"parsed", run.Parsed,
		"duplicates", run.Duplicates,
		"appended", run.Appended,
		"low_confidence", run.LowConfidence,
		"duration", run.Duration().String())

	return nil
}
