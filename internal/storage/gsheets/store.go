package gsheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"github.com/sheikh-saqib/subscription-billing-bot/internal/failure"
	interfaces "github.com/sheikh-saqib/subscription-billing-bot/internal/interfaces"
)

// SheetsStore is a SheetStore backed by the Google Sheets v4 API.
// The API client is built on first use and reused for the life of the
// process.
type SheetsStore struct {
	spreadsheetID string
	creds         Credentials
	opts          []goption.ClientOption
	logger        *zap.Logger

	mu  sync.Mutex
	svc *gsheet.Service
}

// NewSheetsStore creates a store for one spreadsheet. Extra client options
// are appended after the service-account credentials.
func NewSheetsStore(spreadsheetID string, creds Credentials, logger *zap.Logger, opts ...goption.ClientOption) *SheetsStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SheetsStore{
		spreadsheetID: spreadsheetID,
		creds:         creds,
		opts:          opts,
		logger:        logger.Named("gsheets"),
	}
}

// service returns the memoized API client, authenticating on first call.
// A failed attempt is not cached.
func (s *SheetsStore) service(ctx context.Context) (*gsheet.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.svc != nil {
		return s.svc, nil
	}

	var opts []goption.ClientOption
	if s.creds.ClientEmail != "" {
		b, err := s.creds.JSON()
		if err != nil {
			return nil, fmt.Errorf("service account: %w", err)
		}
		creds, err := google.CredentialsFromJSON(ctx, b, gsheet.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("service account: %w", err)
		}
		opts = append(opts, goption.WithCredentials(creds))
	}
	opts = append(opts, s.opts...)

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	s.logger.Debug("sheets client initialized", zap.String("spreadsheet_id", s.spreadsheetID))
	s.svc = svc
	return svc, nil
}

// Read returns the values in rng. A range with no data yields an empty slice.
func (s *SheetsStore) Read(ctx context.Context, rng string) ([][]string, error) {
	svc, err := s.service(ctx)
	if err != nil {
		return nil, failure.Wrap(failure.Unclassified, "read", err)
	}

	resp, err := svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		s.logger.Error("error reading sheet", zap.String("range", rng), zap.Error(err))
		return nil, classify("read "+rng, err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = fmt.Sprint(v)
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// WriteCell writes one value into a single cell, letting the sheet parse it
// as if typed by a user.
func (s *SheetsStore) WriteCell(ctx context.Context, rng string, value string) error {
	svc, err := s.service(ctx)
	if err != nil {
		return failure.Wrap(failure.Unclassified, "write", err)
	}

	vr := &gsheet.ValueRange{Values: [][]interface{}{{value}}}
	_, err = svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	if err != nil {
		s.logger.Error("error updating sheet", zap.String("range", rng), zap.Error(err))
		return classify("write "+rng, err)
	}
	return nil
}

// ClearRange blanks every cell in rng. Clearing an empty range is a no-op.
func (s *SheetsStore) ClearRange(ctx context.Context, rng string) error {
	svc, err := s.service(ctx)
	if err != nil {
		return failure.Wrap(failure.Unclassified, "clear", err)
	}

	_, err = svc.Spreadsheets.Values.Clear(s.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do()
	if err != nil {
		s.logger.Error("error clearing sheet range", zap.String("range", rng), zap.Error(err))
		return classify("clear "+rng, err)
	}
	return nil
}

// classify maps API errors onto failure kinds. This is the only place that
// looks at the API's error text.
func classify(op string, err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return failure.Wrap(failure.Unclassified, op, err)
	}
	text := gerr.Message + " " + gerr.Body
	switch {
	case gerr.Code == http.StatusForbidden || strings.Contains(text, "PERMISSION_DENIED"):
		return failure.Wrap(failure.AccessDenied, op, err)
	case gerr.Code == http.StatusNotFound || strings.Contains(text, "Unable to parse range"):
		return failure.Wrap(failure.RangeNotFound, op, err)
	default:
		return failure.Wrap(failure.Unclassified, op, err)
	}
}

var _ interfaces.SheetStore = (*SheetsStore)(nil)
