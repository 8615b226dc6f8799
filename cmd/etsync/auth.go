package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/clinicops/etransfer-sync/internal/cli"
	"github.com/clinicops/etransfer-sync/internal/common"
	"github.com/clinicops/etransfer-sync/internal/config"
	"github.com/clinicops/etransfer-sync/internal/gauth"
)

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with Gmail and check credential health",
		Long:  `Authenticate with the Google services etsync depends on.`,
	}

	cmd.AddCommand(authGmailCmd())
	cmd.AddCommand(authStatusCmd())

	return cmd
}

func authGmailCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gmail",
		Short: "Authorize read-only access to the deposit inbox",
		Long: `Authorize etsync to read the Gmail inbox that receives Interac
e-Transfer deposit notifications.

This command will:
1. Print a Google consent URL for you to open in a browser
2. Ask you to paste back the authorization code Google displays
3. Save the token so future syncs run without prompting

Access is read-only; etsync never modifies or deletes mail.`,
		RunE: runAuthGmail,
	}

	cmd.Flags().String("client-id", "", "OAuth2 Client ID (overrides config)")
	cmd.Flags().String("client-secret", "", "OAuth2 Client Secret (overrides config)")

	return cmd
}

func runAuthGmail(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg := config.LoadAuthConfig()

	// Override with flags if provided
	flagsUsed := false
	if flagID, _ := cmd.Flags().GetString("client-id"); flagID != "" {
		cfg.ClientID = flagID
		flagsUsed = true
	}
	if flagSecret, _ := cmd.Flags().GetString("client-secret"); flagSecret != "" {
		cfg.ClientSecret = flagSecret
		flagsUsed = true
	}

	session := gauth.NewSession(cfg, slog.Default())

	url, err := session.BeginUserAuth()
	if err != nil {
		return err
	}

	fmt.Println(cli.FormatTitle("Gmail Authorization " + cli.MailIcon))
	fmt.Println()
	fmt.Println("Open this URL in a browser and approve read-only inbox access:")
	fmt.Println()
	fmt.Println(cli.BoldStyle.Render("  " + url))
	fmt.Println()

	reader := cli.NewNonBlockingReader(os.Stdin)
	fmt.Print(cli.FormatPrompt("Paste the authorization code"))

	code, err := reader.ReadLine(ctx)
	if err != nil {
		if errors.Is(err, cli.ErrInputCancelled) {
			fmt.Println()
			fmt.Println(cli.FormatWarning("Authorization cancelled."))
			return nil
		}
		return fmt.Errorf("failed to read authorization code: %w", err)
	}

	if err := session.SubmitCode(ctx, code); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.FormatSuccess("Gmail authorized!"))
	fmt.Println(cli.FormatInfo("Token saved to " + cfg.TokenFile))

	// Credentials that arrived via flags should survive into the next
	// run, so write them back to the config file.
	if flagsUsed {
		viper.Set("gmail.client_id", cfg.ClientID)
		viper.Set("gmail.client_secret", cfg.ClientSecret)
		if err := saveConfig(); err != nil {
			slog.Warn("failed to update config file with OAuth client", "error", err)
			fmt.Println(cli.FormatWarning("Could not save the OAuth client to the config file; add gmail.client_id and gmail.client_secret manually."))
		}
	}

	return nil
}

func authStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the health of stored credentials",
		RunE:  runAuthStatus,
	}
}

func runAuthStatus(cmd *cobra.Command, _ []string) error {
	fmt.Println(cli.FormatTitle("Credential Status"))
	fmt.Println()

	printGmailStatus()
	fmt.Println()
	printLedgerStatus()
	fmt.Println()
	fmt.Println(cli.SubtleStyle.Render("Run journal: " + config.HistoryPath()))

	return nil
}

func printGmailStatus() {
	cfg := config.LoadAuthConfig()
	session := gauth.NewSession(cfg, slog.Default())
	err := session.LoadStoredToken()

	switch {
	case err != nil && errors.Is(err, common.ErrNoCredentials):
		fmt.Println(cli.FormatError("Gmail: no stored token"))
		fmt.Println(cli.SubtleStyle.Render("  run `etsync auth gmail` to authorize inbox access"))
	case err != nil:
		fmt.Println(cli.FormatError("Gmail: stored token is unreadable"))
		fmt.Println(cli.SubtleStyle.Render("  " + err.Error()))
	case session.State() == gauth.StateAuthenticated:
		fmt.Println(cli.FormatSuccess("Gmail: authorized"))
		if token := session.Token(); token != nil && !token.Expiry.IsZero() {
			fmt.Println(cli.SubtleStyle.Render("  access token valid until " + token.Expiry.Local().Format("2006-01-02 15:04")))
		}
	case session.State() == gauth.StateExpired:
		fmt.Println(cli.FormatWarning("Gmail: token expired, will refresh on the next sync"))
	default:
		fmt.Println(cli.FormatError("Gmail: not authorized"))
		fmt.Println(cli.SubtleStyle.Render("  run `etsync auth gmail` to authorize inbox access"))
	}
	fmt.Println(cli.SubtleStyle.Render("  token file: " + cfg.TokenFile))
}

func printLedgerStatus() {
	cfg, err := config.LoadLedgerConfig()
	if err != nil {
		fmt.Println(cli.FormatError("Sheets: service account not configured"))
		if hint := common.UserHint(err); hint != "" {
			fmt.Println(cli.SubtleStyle.Render("  " + hint))
		}
		return
	}

	fmt.Println(cli.FormatSuccess("Sheets: service account configured"))
	fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf("  workbook %q, worksheet %q", cfg.SpreadsheetName, cfg.Worksheet)))
}

func saveConfig() error {
	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		configFile = filepath.Join(home, ".config", "etsync", "config.yaml")
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(configFile), 0750); err != nil {
		return err
	}

	return viper.WriteConfigAs(configFile)
}
