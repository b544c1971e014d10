// Package sheets implements progress.TabularStore over the Google Sheets
// v4 values API.
package sheets

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/fyrsmithlabs/taskpulse/internal/config"
	"github.com/fyrsmithlabs/taskpulse/internal/logging"
)

// Store reads and writes ranges of a single spreadsheet.
type Store struct {
	svc           *sheetsapi.Service
	spreadsheetID string
	logger        *logging.Logger
}

// NewStore creates a Store. Without opts, credentials come from cfg.AuthMode.
func NewStore(ctx context.Context, cfg config.SheetsConfig, logger *logging.Logger, opts ...option.ClientOption) (*Store, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	if len(opts) == 0 {
		var err error
		opts, err = clientOptions(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
	}

	svc, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &Store{svc: svc, spreadsheetID: cfg.SpreadsheetID, logger: logger}, nil
}

// ReadRange implements progress.TabularStore. Cells are returned as their
// formatted text.
func (s *Store) ReadRange(ctx context.Context, rng string) ([][]string, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read range %s: %w", rng, describe(err))
	}

	rows := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		rows[i] = make([]string, len(row))
		for j, cell := range row {
			if cell != nil {
				rows[i][j] = fmt.Sprint(cell)
			}
		}
	}
	s.logger.Debug(ctx, "read range", zap.String("range", rng), zap.Int("rows", len(rows)))
	return rows, nil
}

// WriteRange implements progress.TabularStore. Values are written RAW.
func (s *Store) WriteRange(ctx context.Context, rng string, values [][]string) error {
	vr := &sheetsapi.ValueRange{Values: make([][]interface{}, len(values))}
	for i, row := range values {
		vr.Values[i] = make([]interface{}, len(row))
		for j, cell := range row {
			vr.Values[i][j] = cell
		}
	}

	resp, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to write range %s: %w", rng, describe(err))
	}
	s.logger.Debug(ctx, "wrote range",
		zap.String("range", rng), zap.Int64("updated_cells", resp.UpdatedCells))
	return nil
}

// describe adds the HTTP status to API errors.
func describe(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("HTTP %d: %w", apiErr.Code, err)
	}
	return err
}
