package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/patmartin03-stack/shadowai-experiment/internal/config"
	"github.com/patmartin03-stack/shadowai-experiment/internal/models"
)

const (
	eventsWorksheet  = "events"
	resultsWorksheet = "results"
)

// SheetsStore persists rows to a Google spreadsheet through a service
// account. The authenticated service handle is cached for a bounded TTL,
// and resolved worksheet tabs (with their header rows ensured) are cached
// per handle; re-authenticating discards all worksheet sub-handles.
type SheetsStore struct {
	log *zap.Logger
	cfg config.SheetsConfig
	ttl time.Duration

	mu         sync.Mutex
	svc        *sheets.Service
	authedAt   time.Time
	worksheets map[string]bool

	// Injected in tests.
	now     func() time.Time
	connect func(ctx context.Context) (*sheets.Service, error)
}

// NewSheetsStore creates the store without authenticating; the first write
// dials out.
func NewSheetsStore(cfg config.SheetsConfig, log *zap.Logger) *SheetsStore {
	ttl := time.Duration(cfg.HandleTTL) * time.Second
	if ttl <= 0 {
		ttl = 300 * time.Second
	}
	s := &SheetsStore{
		log:        log,
		cfg:        cfg,
		ttl:        ttl,
		worksheets: make(map[string]bool),
		now:        time.Now,
	}
	s.connect = s.dial
	return s
}

func (s *SheetsStore) Name() string { return "sheets" }

func (s *SheetsStore) Configured() bool {
	return s.cfg.CredentialsJSON != "" && s.cfg.SpreadsheetID != ""
}

func (s *SheetsStore) Close() error { return nil }

// dial authenticates the service account and builds a Sheets service.
func (s *SheetsStore) dial(ctx context.Context) (*sheets.Service, error) {
	if !s.Configured() {
		return nil, fmt.Errorf("%w: sheets credentials or spreadsheet id not set", ErrUnavailable)
	}
	jwtConf, err := google.JWTConfigFromJSON([]byte(s.cfg.CredentialsJSON), sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing service account credentials: %v", ErrUnavailable, err)
	}
	svc, err := sheets.NewService(ctx, option.WithHTTPClient(jwtConf.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("%w: building sheets service: %v", ErrUnavailable, err)
	}
	return svc, nil
}

// service returns the cached handle while it is younger than the TTL,
// otherwise re-authenticates. A fresh handle invalidates every cached
// worksheet sub-handle. Authentication happens outside the lock.
func (s *SheetsStore) service(ctx context.Context) (*sheets.Service, error) {
	s.mu.Lock()
	if s.svc != nil && s.now().Sub(s.authedAt) < s.ttl {
		svc := s.svc
		s.mu.Unlock()
		return svc, nil
	}
	s.mu.Unlock()

	svc, err := s.connect(ctx)
	if err != nil {
		s.log.Error("Google Sheets authentication failed", zap.Error(err))
		return nil, err
	}

	s.mu.Lock()
	s.svc = svc
	s.authedAt = s.now()
	s.worksheets = make(map[string]bool)
	s.mu.Unlock()

	s.log.Debug("Google Sheets handle refreshed")
	return svc, nil
}

// worksheet makes sure the named tab exists with its header row, resolving
// it at most once per cached handle.
func (s *SheetsStore) worksheet(ctx context.Context, svc *sheets.Service, title string, headers []string) error {
	s.mu.Lock()
	resolved := s.worksheets[title]
	s.mu.Unlock()
	if resolved {
		return nil
	}

	doc, err := svc.Spreadsheets.Get(s.cfg.SpreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%w: fetching spreadsheet: %v", ErrUnavailable, err)
	}

	exists := false
	for _, sheet := range doc.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == title {
			exists = true
			break
		}
	}

	if !exists {
		req := &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: title},
				},
			}},
		}
		if _, err := svc.Spreadsheets.BatchUpdate(s.cfg.SpreadsheetID, req).Context(ctx).Do(); err != nil {
			return fmt.Errorf("%w: creating worksheet %s: %v", ErrUnavailable, title, err)
		}

		header := make([]interface{}, len(headers))
		for i, h := range headers {
			header[i] = h
		}
		if err := s.appendRows(ctx, svc, title, [][]interface{}{header}); err != nil {
			return err
		}
		s.log.Info("Created worksheet", zap.String("worksheet", title))
	}

	s.mu.Lock()
	s.worksheets[title] = true
	s.mu.Unlock()
	return nil
}

func (s *SheetsStore) appendRows(ctx context.Context, svc *sheets.Service, title string, rows [][]interface{}) error {
	rng := title + "!A1"
	_, err := svc.Spreadsheets.Values.
		Append(s.cfg.SpreadsheetID, rng, &sheets.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("%w: appending to %s: %v", ErrUnavailable, title, err)
	}
	return nil
}

// invalidate drops the cached sub-handle for a worksheet so the next write
// re-resolves it.
func (s *SheetsStore) invalidate(title string) {
	s.mu.Lock()
	delete(s.worksheets, title)
	s.mu.Unlock()
}

// AppendEvents bulk-appends the batch to the events worksheet.
func (s *SheetsStore) AppendEvents(ctx context.Context, events []models.Event) error {
	svc, err := s.service(ctx)
	if err != nil {
		return err
	}
	if err := s.worksheet(ctx, svc, eventsWorksheet, models.EventHeaders); err != nil {
		s.invalidate(eventsWorksheet)
		return err
	}

	rows := make([][]interface{}, len(events))
	for i, ev := range events {
		rows[i] = ev.Row()
	}
	if err := s.appendRows(ctx, svc, eventsWorksheet, rows); err != nil {
		s.invalidate(eventsWorksheet)
		return err
	}
	return nil
}

// WriteResult appends one summary row to the results worksheet.
func (s *SheetsStore) WriteResult(ctx context.Context, result models.Result) error {
	svc, err := s.service(ctx)
	if err != nil {
		return err
	}
	if err := s.worksheet(ctx, svc, resultsWorksheet, models.ResultHeaders); err != nil {
		s.invalidate(resultsWorksheet)
		return err
	}
	if err := s.appendRows(ctx, svc, resultsWorksheet, [][]interface{}{result.Row()}); err != nil {
		s.invalidate(resultsWorksheet)
		return err
	}
	return nil
}
