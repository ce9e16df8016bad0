package exporter

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"cruisepulse/internal/config"
	"cruisepulse/internal/infrastructure"
	"cruisepulse/pkg/contracts/domain"
)

// Publisher sends a processed result somewhere outside the results directory
type Publisher interface {
	Publish(ctx context.Context, columns []string, records []domain.EnrichedRecord) error
}

// SheetsPublisher replaces the contents of one worksheet with a result
type SheetsPublisher struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
	logger        *slog.Logger
}

// NewSheetsPublisher creates a publisher authenticated with a service account
// credentials file. Extra client options are appended after the credentials.
func NewSheetsPublisher(ctx context.Context, cfg config.SheetsConfig, credentialsFile string, logger *slog.Logger, opts ...option.ClientOption) (*SheetsPublisher, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}

	clientOpts := opts
	if credentialsFile != "" {
		clientOpts = append([]option.ClientOption{option.WithCredentialsFile(credentialsFile)}, opts...)
	}

	service, err := sheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	sheetName := cfg.SheetName
	if sheetName == "" {
		sheetName = "Sheet1"
	}

	return &SheetsPublisher{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     sheetName,
		logger:        infrastructure.WithComponent(logger, "sheets_publisher"),
	}, nil
}

// Publish clears the worksheet and writes the header and every record
func (p *SheetsPublisher) Publish(ctx context.Context, columns []string, records []domain.EnrichedRecord) error {
	logger := infrastructure.ContextLogger(p.logger, ctx)

	if _, err := p.service.Spreadsheets.Values.
		Clear(p.spreadsheetID, p.sheetName, &sheets.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to clear sheet %s: %w", p.sheetName, err)
	}

	values := sheetValues(columns, records)
	resp, err := p.service.Spreadsheets.Values.
		Update(p.spreadsheetID, p.sheetName+"!A1", &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to update sheet %s: %w", p.sheetName, err)
	}

	logger.InfoContext(ctx, "Result published to Google Sheets",
		slog.String("spreadsheet_id", p.spreadsheetID),
		slog.String("sheet", p.sheetName),
		slog.Int64("updated_rows", resp.UpdatedRows))
	return nil
}
