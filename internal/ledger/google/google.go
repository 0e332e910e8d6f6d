package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"salesledger/internal/core"
	"salesledger/internal/ledger"
)

// Ensure interface conformance
var _ ledger.Source = (*Client)(nil)

// Config selects the spreadsheet holding the sales ledger.
type Config struct {
	SpreadsheetID      string
	SheetName          string // default "Sales Ledger"
	ServiceAccountJSON string
	ServiceAccountFile string
}

// Client reads the sales ledger from a Google Sheets tab.
type Client struct {
	spreadsheetID string
	sheetName     string
	fetch         func(ctx context.Context, rng string) ([][]interface{}, error)
}

// New creates a read-only Sheets client using Service Account credentials.
func New(ctx context.Context, cfg Config) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheetName := strings.TrimSpace(cfg.SheetName)
	if sheetName == "" {
		sheetName = "Sales Ledger"
	}

	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		fetch: func(ctx context.Context, rng string) ([][]interface{}, error) {
			resp, err := svc.Spreadsheets.Values.Get(spreadsheetID, rng).
				ValueRenderOption("UNFORMATTED_VALUE").
				DateTimeRenderOption("FORMATTED_STRING").
				Context(ctx).
				Do()
			if err != nil {
				return nil, err
			}
			return resp.Values, nil
		},
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Falls back to GOOGLE_APPLICATION_CREDENTIALS when neither JSON nor file is configured.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(cfg.ServiceAccountJSON)
	serviceAccountFile := strings.TrimSpace(cfg.ServiceAccountFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsReadonlyScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// LoadTransactions reads every row of the ledger tab.
func (c *Client) LoadTransactions(ctx context.Context) ([]core.Transaction, error) {
	if c.fetch == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("'%s'!A:Z", c.sheetName)
	values, err := c.fetch(ctx, rng)
	if err != nil {
		return nil, fmt.Errorf("read ledger range %s: %w", rng, err)
	}
	txs, stats, err := ledger.ParseRows(ledger.ToStrings(values))
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Loaded ledger from Google Sheets",
		"sheet", c.sheetName,
		"rows", stats.Rows,
		"transactions", len(txs),
		"invalid_rows", stats.InvalidRows)
	return txs, nil
}
