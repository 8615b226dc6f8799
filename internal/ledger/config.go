// Package ledger persists payment rows in the practice's Google Sheets
// workbook.
package ledger

import (
	"fmt"
	"os"
	"time"

	"github.com/clinicops/etransfer-sync/internal/common"
)

// ServiceAccountEnvVar is the environment variable the headless robot
// reads the service-account key JSON from.
const ServiceAccountEnvVar = "GCP_JSON"

// Workbook defaults. The spreadsheet name matches the sheet the practice
// has used since before this tool existed.
const (
	DefaultSpreadsheetName = "EMG Payments Kitchener"
	DefaultWorksheet       = "Payments"
)

// Config holds the settings for the sheets-backed store.
type Config struct {
	ServiceAccountPath string
	ServiceAccountJSON string // Raw key material; takes precedence over the path
	SpreadsheetID      string
	SpreadsheetName    string // Resolved through Drive when no ID is set
	Worksheet          string
	RetryDelay         time.Duration
	RetryAttempts      int
}

// DefaultConfig returns a Config with the workbook defaults.
func DefaultConfig() Config {
	return Config{
		SpreadsheetName: DefaultSpreadsheetName,
		Worksheet:       DefaultWorksheet,
		RetryAttempts:   3,
		RetryDelay:      time.Second,
	}
}

// LoadFromEnv fills credential material from the environment when the
// config file did not provide any.
func (c *Config) LoadFromEnv() {
	if c.ServiceAccountJSON == "" && c.ServiceAccountPath == "" {
		c.ServiceAccountJSON = os.Getenv(ServiceAccountEnvVar)
	}
}

// Validate checks the configuration before a store is built.
func (c *Config) Validate() error {
	if c.ServiceAccountPath == "" && c.ServiceAccountJSON == "" {
		return fmt.Errorf("%w: no service account configured for the ledger", common.ErrNoCredentials)
	}
	if c.SpreadsheetID == "" && c.SpreadsheetName == "" {
		return fmt.Errorf("%w: neither spreadsheet id nor name is set", common.ErrInvalidConfig)
	}
	if c.Worksheet == "" {
		return fmt.Errorf("%w: worksheet name is empty", common.ErrInvalidConfig)
	}
	if c.RetryAttempts < 0 {
		return fmt.Errorf("%w: retry attempts cannot be negative", common.ErrInvalidConfig)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("%w: retry delay cannot be negative", common.ErrInvalidConfig)
	}
	return nil
}
