package sheets

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/legalchicks/coopnet/internal/config"
	"github.com/legalchicks/coopnet/internal/domain/models"
)

const rosterRange = "Roster!A:E"

// Repository defines the roster export operations supported by the Google
// Sheets adapter.
type Repository interface {
	AppendRoster(ctx context.Context, profiles []models.Profile) error
}

// GoogleSheetRepository implements the Repository interface using the official Google Sheets API.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetRepository builds a Google Sheets backed repository instance.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (Repository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// AppendRoster appends one row per profile to the roster sheet, stamped with
// the export time.
func (r *GoogleSheetRepository) AppendRoster(ctx context.Context, profiles []models.Profile) error {
	if len(profiles) == 0 {
		return nil
	}

	exportedAt := time.Now().UTC().Format(time.RFC3339)
	rows := make([][]interface{}, 0, len(profiles))
	for _, p := range profiles {
		rows = append(rows, []interface{}{p.UID, p.Name, p.Email, string(p.Role), exportedAt})
	}

	payload := &sheetsapi.ValueRange{Values: rows}

	call := r.service.Spreadsheets.Values.Append(r.spreadsheetID, rosterRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append roster rows: %w", err)
	}

	r.logger.Debug("roster exported to sheet", zap.Int("rows", len(rows)))
	return nil
}
