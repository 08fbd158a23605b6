// Package google stores the ledgers as two tabs of a Google spreadsheet.
// It serves as a primary backend (DATA_BACKEND=sheets) and as the mirror
// target of the sync worker.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"igreja/internal/core"
	"igreja/internal/ledger"

	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const (
	DefaultTitheSheet      = "Dizimos"
	DefaultAttendanceSheet = "Presenca"
)

type Client struct {
	svc             *gsheet.Service
	spreadsheetID   string
	titheSheet      string
	attendanceSheet string
}

var _ ledger.Backend = (*Client)(nil)

// Options selects the spreadsheet and tab names.
type Options struct {
	SpreadsheetID   string
	TitheSheet      string
	AttendanceSheet string
}

// New creates a Sheets client. A stored OAuth user token (see Authorize)
// takes precedence over service account credentials. Extra client options
// replace both.
func New(ctx context.Context, opts Options, extra ...goption.ClientOption) (*Client, error) {
	opts.SpreadsheetID = strings.TrimSpace(opts.SpreadsheetID)
	if opts.SpreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	var clientOpts []goption.ClientOption
	if len(extra) == 0 {
		userToken, err := oauthOption(ctx)
		if err != nil {
			return nil, err
		}
		if userToken != nil {
			clientOpts = append(clientOpts, userToken)
		} else {
			creds, err := serviceAccountCredentials(ctx)
			if err != nil {
				return nil, err
			}
			clientOpts = append(clientOpts,
				goption.WithCredentialsJSON(creds),
				goption.WithScopes(gsheet.SpreadsheetsScope))
		}
	}
	clientOpts = append(clientOpts, extra...)

	svc, err := gsheet.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return newClient(svc, opts), nil
}

func newClient(svc *gsheet.Service, opts Options) *Client {
	c := &Client{
		svc:             svc,
		spreadsheetID:   strings.TrimSpace(opts.SpreadsheetID),
		titheSheet:      strings.TrimSpace(opts.TitheSheet),
		attendanceSheet: strings.TrimSpace(opts.AttendanceSheet),
	}
	if c.titheSheet == "" {
		c.titheSheet = DefaultTitheSheet
	}
	if c.attendanceSheet == "" {
		c.attendanceSheet = DefaultAttendanceSheet
	}
	return c
}

// serviceAccountCredentials loads credentials from GOOGLE_SERVICE_ACCOUNT_JSON,
// GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS.
func serviceAccountCredentials(ctx context.Context) ([]byte, error) {
	inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	file := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		slog.DebugContext(ctx, "Using inline service account credentials", "json_length", len(inline))
		return []byte(inline), nil
	case file != "":
		slog.DebugContext(ctx, "Reading service account credentials", "path", file)
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	}
	return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
}

// SheetNames returns the tithe and attendance tab names.
func (c *Client) SheetNames() (string, string) { return c.titheSheet, c.attendanceSheet }

func (c *Client) ReadTithes(ctx context.Context) ([]core.TitheRecord, error) {
	table, err := c.readTable(ctx, c.titheSheet)
	if err != nil {
		return nil, err
	}
	return ledger.DecodeTithes(table)
}

func (c *Client) WriteTithes(ctx context.Context, rows []core.TitheRecord) error {
	return c.writeTable(ctx, c.titheSheet, ledger.EncodeTithes(rows))
}

func (c *Client) ReadAttendance(ctx context.Context) ([]core.AttendanceRecord, error) {
	table, err := c.readTable(ctx, c.attendanceSheet)
	if err != nil {
		return nil, err
	}
	return ledger.DecodeAttendance(table)
}

func (c *Client) WriteAttendance(ctx context.Context, rows []core.AttendanceRecord) error {
	return c.writeTable(ctx, c.attendanceSheet, ledger.EncodeAttendance(rows))
}

func (c *Client) readTable(ctx context.Context, sheet string) ([][]string, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, quoteSheet(sheet)).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		if isMissingSheet(err) {
			return nil, ledger.ErrNotFound
		}
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(resp.Values) == 0 {
		return nil, ledger.ErrNotFound
	}
	return toTable(resp.Values), nil
}

// writeTable replaces the content of the tab, creating it when missing.
func (c *Client) writeTable(ctx context.Context, sheet string, table [][]string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if err := c.ensureSheet(ctx, sheet); err != nil {
		return err
	}
	rng := quoteSheet(sheet)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet %s: %w", sheet, err)
	}
	vr := &gsheet.ValueRange{Values: fromTable(table)}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng+"!A1", vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("update sheet %s: %w", sheet, err)
	}
	return nil
}

func (c *Client) ensureSheet(ctx context.Context, sheet string) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == sheet {
			return nil
		}
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: sheet}},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", sheet, err)
	}
	slog.InfoContext(ctx, "Created sheet", "sheet", sheet)
	return nil
}

func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// isMissingSheet reports the 400 the API returns for a range naming an
// unknown tab.
func isMissingSheet(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	if gerr.Code == http.StatusNotFound {
		return true
	}
	return gerr.Code == http.StatusBadRequest && strings.Contains(gerr.Message, "Unable to parse range")
}
