// Package ledger records rendered invoices in a Google Sheet, one row per
// invoice.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"invoicer/internal/logger"
)

var (
	// ErrMissingCredentials is returned when no service account key is configured.
	ErrMissingCredentials = errors.New("neither GOOGLE_APPLICATION_CREDENTIALS nor GOOGLE_CREDENTIALS is set")

	// ErrInvalidSheetURL is returned when the spreadsheet ID cannot be found in the URL.
	ErrInvalidSheetURL = errors.New("invalid Google Sheets URL format")

	// ErrDuplicateInvoice is returned when the invoice number is already recorded.
	ErrDuplicateInvoice = errors.New("invoice number already recorded")
)

var spreadsheetIDExpr = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

// Config locates the ledger sheet and its credentials.
type Config struct {
	SheetURL        string
	Worksheet       string
	CredentialsJSON string
	CredentialsFile string
}

// Service appends invoices to the ledger worksheet.
type Service struct {
	sheetsService *sheets.Service
	spreadsheetID string
	worksheet     string
	log           zerolog.Logger
}

// NewService authenticates with a service account key and prepares the Sheets client.
func NewService(ctx context.Context, cfg Config) (*Service, error) {
	const op = "NewService"

	spreadsheetID, err := extractSpreadsheetID(cfg.SheetURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var creds []byte
	switch {
	case cfg.CredentialsFile != "":
		creds, err = os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to read credentials file: %w", op, err)
		}
	case cfg.CredentialsJSON != "":
		creds = []byte(cfg.CredentialsJSON)
	default:
		return nil, fmt.Errorf("%s: %w", op, ErrMissingCredentials)
	}

	jwtConfig, err := google.JWTConfigFromJSON(creds, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse credentials: %w", op, err)
	}

	sheetsService, err := sheets.NewService(ctx, option.WithHTTPClient(jwtConfig.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create sheets service: %w", op, err)
	}

	worksheet := cfg.Worksheet
	if worksheet == "" {
		worksheet = "Invoices"
	}

	log := logger.WithComponent("ledger")
	log.Debug().Str("spreadsheet_id", spreadsheetID).Str("sheet", worksheet).Msg("Ledger ready")

	return &Service{
		sheetsService: sheetsService,
		spreadsheetID: spreadsheetID,
		worksheet:     worksheet,
		log:           log,
	}, nil
}

func extractSpreadsheetID(url string) (string, error) {
	matches := spreadsheetIDExpr.FindStringSubmatch(url)
	if len(matches) < 2 {
		return "", ErrInvalidSheetURL
	}
	return matches[1], nil
}

// Append records row, creating the worksheet and its header row on first use.
// A row whose invoice number is already present is rejected.
func (s *Service) Append(ctx context.Context, row Row) error {
	const op = "Append"

	if err := s.ensureSheetWithHeaders(ctx); err != nil {
		return fmt.Errorf("%s: failed to ensure sheet exists: %w", op, err)
	}

	recorded, err := s.recordedNumbers(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if number := strings.TrimSpace(row.InvoiceNumber); number != "" && recorded[number] {
		return fmt.Errorf("%s: %w: %s", op, ErrDuplicateInvoice, number)
	}

	valueRange := &sheets.ValueRange{Values: [][]interface{}{row.values()}}
	_, err = s.sheetsService.Spreadsheets.Values.Append(
		s.spreadsheetID,
		s.worksheet+"!A:"+lastColumn,
		valueRange,
	).ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to append values to sheet: %w", op, err)
	}

	s.log.Info().
		Str("invoice_number", row.InvoiceNumber).
		Str("total", row.Total).
		Msg("Invoice recorded in ledger")
	return nil
}

// recordedNumbers reads column A below the header.
func (s *Service) recordedNumbers(ctx context.Context) (map[string]bool, error) {
	resp, err := s.sheetsService.Spreadsheets.Values.Get(s.spreadsheetID, s.worksheet+"!A2:A").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read invoice numbers: %w", err)
	}
	numbers := make(map[string]bool, len(resp.Values))
	for _, r := range resp.Values {
		if len(r) > 0 {
			numbers[strings.TrimSpace(fmt.Sprint(r[0]))] = true
		}
	}
	return numbers, nil
}

func (s *Service) ensureSheetWithHeaders(ctx context.Context) error {
	const op = "ensureSheetWithHeaders"

	spreadsheet, err := s.sheetsService.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to get spreadsheet: %w", op, err)
	}

	var sheetID int64
	found := false
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties.Title == s.worksheet {
			sheetID = sheet.Properties.SheetId
			found = true
			break
		}
	}

	if !found {
		s.log.Info().Str("sheet", s.worksheet).Msg("Creating new sheet")
		req := &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{
				{AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: s.worksheet}}},
			},
		}
		resp, err := s.sheetsService.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("%s: failed to create sheet: %w", op, err)
		}
		sheetID = resp.Replies[0].AddSheet.Properties.SheetId
	}

	headerRange := fmt.Sprintf("%s!A1:%s1", s.worksheet, lastColumn)
	resp, err := s.sheetsService.Spreadsheets.Values.Get(s.spreadsheetID, headerRange).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to get headers: %w", op, err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}

	s.log.Info().Str("sheet", s.worksheet).Msg("Adding headers to sheet")
	header := make([]interface{}, len(Headers))
	for i, h := range Headers {
		header[i] = h
	}
	_, err = s.sheetsService.Spreadsheets.Values.Update(
		s.spreadsheetID,
		headerRange,
		&sheets.ValueRange{Values: [][]interface{}{header}},
	).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to add headers: %w", op, err)
	}

	if err := s.formatHeaders(ctx, sheetID); err != nil {
		s.log.Warn().Err(err).Msg("Failed to format headers, continuing anyway")
	}
	return nil
}

// formatHeaders makes the header row bold and sizes the columns to fit.
func (s *Service) formatHeaders(ctx context.Context, sheetID int64) error {
	columns := int64(len(Headers))
	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   columns,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat:      &sheets.TextFormat{Bold: true},
						BackgroundColor: &sheets.Color{Red: 0.9, Green: 0.9, Blue: 0.9},
					},
				},
				Fields: "userEnteredFormat(textFormat,backgroundColor)",
			},
		},
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   columns,
				},
			},
		},
	}

	_, err := s.sheetsService.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{Requests: requests}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("formatHeaders: %w", err)
	}
	return nil
}
