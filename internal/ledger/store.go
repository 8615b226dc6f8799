package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/clinicops/etransfer-sync/internal/common"
	"github.com/clinicops/etransfer-sync/internal/model"
	"github.com/clinicops/etransfer-sync/internal/service"
)

// Store implements service.LedgerStore over the Sheets API, with the
// workbook located by ID or by name through the Drive API.
type Store struct {
	sheets    *sheets.Service
	drive     *drive.Service
	logger    *slog.Logger
	cfg       Config
	sheetID   string
	retryOpts service.RetryOptions
}

// NewStore builds the store from service-account credentials. Missing
// credentials fail here with a remediation hint, before any pipeline
// work starts.
func NewStore(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := cfg.Validate(); err != nil {
		if errors.Is(err, common.ErrNoCredentials) {
			return nil, common.NewUserErrorWithHint(
				"cannot access the payments ledger",
				"set ledger.service_account_path in the config file or export GCP_JSON",
				err)
		}
		return nil, fmt.Errorf("invalid ledger config: %w", err)
	}

	key, err := cfg.keyMaterial()
	if err != nil {
		return nil, err
	}

	jwtConfig, err := google.JWTConfigFromJSON(key,
		sheets.SpreadsheetsScope,
		drive.DriveMetadataReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse service account key: %w", err)
	}

	httpClient := oauth2.NewClient(ctx, jwtConfig.TokenSource(ctx))

	sheetsSvc, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}
	driveSvc, err := drive.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create drive service: %w", err)
	}

	return &Store{
		sheets:  sheetsSvc,
		drive:   driveSvc,
		logger:  logger.With("component", "ledger"),
		cfg:     cfg,
		sheetID: cfg.SpreadsheetID,
		retryOpts: service.RetryOptions{
			MaxAttempts:  cfg.RetryAttempts,
			InitialDelay: cfg.RetryDelay,
		},
	}, nil
}

// keyMaterial returns the service-account key bytes from the inline JSON
// or the configured path.
func (c Config) keyMaterial() ([]byte, error) {
	if c.ServiceAccountJSON != "" {
		return []byte(c.ServiceAccountJSON), nil
	}
	key, err := os.ReadFile(c.ServiceAccountPath) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("unable to read service account key file: %w", err)
	}
	return key, nil
}

// Title returns the workbook's display name.
func (s *Store) Title(ctx context.Context) (string, error) {
	id, err := s.spreadsheetID(ctx)
	if err != nil {
		return "", err
	}

	var title string
	err = common.WithRetry(ctx, func() error {
		resp, callErr := s.sheets.Spreadsheets.Get(id).
			Fields("properties.title").
			Context(ctx).
			Do()
		if callErr != nil {
			return classifyAPIError(callErr)
		}
		if resp.Properties != nil {
			title = resp.Properties.Title
		}
		return nil
	}, s.retryOpts)
	if err != nil {
		return "", fmt.Errorf("failed to read workbook title: %w", err)
	}
	return title, nil
}

// Snapshot bulk-reads the whole worksheet in one call. The first row is
// the header; every following row is padded to the fixed ledger width.
func (s *Store) Snapshot(ctx context.Context) (*model.LedgerSnapshot, error) {
	id, err := s.spreadsheetID(ctx)
	if err != nil {
		return nil, err
	}

	var resp *sheets.ValueRange
	err = common.WithRetry(ctx, func() error {
		var callErr error
		resp, callErr = s.sheets.Spreadsheets.Values.Get(id, s.cfg.Worksheet).
			Context(ctx).
			Do()
		return classifyAPIError(callErr)
	}, s.retryOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}

	snapshot := &model.LedgerSnapshot{}
	for i, raw := range resp.Values {
		cells := stringCells(raw)
		if i == 0 {
			snapshot.Header = cells
			continue
		}
		if len(cells) < model.LedgerColumns {
			snapshot.RaggedRows++
		}
		snapshot.Rows = append(snapshot.Rows, model.LedgerRowFromCells(cells))
	}

	s.logger.Debug("ledger snapshot read",
		"rows", len(snapshot.Rows),
		"ragged", snapshot.RaggedRows)
	return snapshot, nil
}

// Append writes all rows in a single batch call, so the batch lands
// whole or not at all.
func (s *Store) Append(ctx context.Context, rows []model.LedgerRow) error {
	if len(rows) == 0 {
		return nil
	}
	id, err := s.spreadsheetID(ctx)
	if err != nil {
		return err
	}

	valueRange := &sheets.ValueRange{Values: rowValues(rows)}
	err = common.WithRetry(ctx, func() error {
		_, callErr := s.sheets.Spreadsheets.Values.Append(id, s.cfg.Worksheet, valueRange).
			ValueInputOption("USER_ENTERED").
			InsertDataOption("INSERT_ROWS").
			Context(ctx).
			Do()
		return classifyAPIError(callErr)
	}, s.retryOpts)
	if err != nil {
		return fmt.Errorf("failed to append rows: %w", err)
	}

	s.logger.Info("appended rows to ledger", "rows", len(rows))
	return nil
}

// Replace rewrites the worksheet with the given header and rows. Used
// only by the maintenance commands; the pipeline itself never rewrites.
func (s *Store) Replace(ctx context.Context, header []string, rows []model.LedgerRow) error {
	id, err := s.spreadsheetID(ctx)
	if err != nil {
		return err
	}

	values := make([][]any, 0, len(rows)+1)
	values = append(values, anyCells(header))
	values = append(values, rowValues(rows)...)

	err = common.WithRetry(ctx, func() error {
		if _, callErr := s.sheets.Spreadsheets.Values.Clear(id, s.cfg.Worksheet, &sheets.ClearValuesRequest{}).
			Context(ctx).
			Do(); callErr != nil {
			return classifyAPIError(callErr)
		}
		_, callErr := s.sheets.Spreadsheets.Values.Update(id, s.cfg.Worksheet+"!A1", &sheets.ValueRange{Values: values}).
			ValueInputOption("USER_ENTERED").
			Context(ctx).
			Do()
		return classifyAPIError(callErr)
	}, s.retryOpts)
	if err != nil {
		return fmt.Errorf("failed to rewrite ledger: %w", err)
	}

	s.logger.Info("ledger rewritten", "rows", len(rows))
	return nil
}

// spreadsheetID resolves and caches the workbook id, looking the
// configured name up in Drive the way the old gspread-based tooling
// opened workbooks by name.
func (s *Store) spreadsheetID(ctx context.Context) (string, error) {
	if s.sheetID != "" {
		return s.sheetID, nil
	}

	query := fmt.Sprintf(
		"name = '%s' and mimeType = 'application/vnd.google-apps.spreadsheet' and trashed = false",
		strings.ReplaceAll(s.cfg.SpreadsheetName, `'`, `\'`))

	var list *drive.FileList
	err := common.WithRetry(ctx, func() error {
		var callErr error
		list, callErr = s.drive.Files.List().
			Q(query).
			Fields("files(id, name)").
			PageSize(2).
			Context(ctx).
			Do()
		return classifyAPIError(callErr)
	}, s.retryOpts)
	if err != nil {
		return "", fmt.Errorf("failed to locate spreadsheet %q: %w", s.cfg.SpreadsheetName, err)
	}
	if len(list.Files) == 0 {
		return "", fmt.Errorf("%w: spreadsheet %q", common.ErrNotFound, s.cfg.SpreadsheetName)
	}
	if len(list.Files) > 1 {
		s.logger.Warn("multiple spreadsheets share this name, using the first",
			"name", s.cfg.SpreadsheetName)
	}

	s.sheetID = list.Files[0].Id
	s.logger.Debug("spreadsheet resolved", "name", s.cfg.SpreadsheetName, "id", s.sheetID)
	return s.sheetID, nil
}

// classifyAPIError marks transient provider failures retryable and
// everything else terminal.
func classifyAPIError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 429:
			return &common.RetryableError{Err: fmt.Errorf("%w: %v", common.ErrRateLimit, err), Retryable: true}
		case apiErr.Code >= 500:
			return &common.RetryableError{Err: err, Retryable: true}
		default:
			return &common.RetryableError{Err: err, Retryable: false}
		}
	}
	return err
}
