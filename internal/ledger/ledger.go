package ledger

import (
	"context"
	"crypto/subtle"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sheikh-saqib/subscription-billing-bot/internal/failure"
	interfaces "github.com/sheikh-saqib/subscription-billing-bot/internal/interfaces"
	"github.com/sheikh-saqib/subscription-billing-bot/internal/models"
	"github.com/sheikh-saqib/subscription-billing-bot/internal/models/events"
)

// EventsTopic is the topic ledger events are published on.
const EventsTopic = "ledger_events"

// Options configures a Ledger. Zero values fall back to defaults.
type Options struct {
	// ResetSecret guards Reset. An empty secret disables resets.
	ResetSecret string
	// SpecialUser sees the alternate bill cell and stamps payments in G.
	SpecialUser string
	// ViewRanges overrides the range shown by View, keyed by ledger type.
	ViewRanges map[string]string
	Window     Window
	Publisher  interfaces.EventPublisher
	Logger     *zap.Logger
	Now        func() time.Time
}

// Ledger records and reads bill entries kept in a spreadsheet.
// It holds the store and one lock per sheet.
type Ledger struct {
	store  interfaces.SheetStore
	opts   Options
	window Window
	logger *zap.Logger
	muMap  map[string]*sync.Mutex // one lock per sheet name
	mapMu  sync.Mutex             // protects muMap
}

// NewLedger creates a Ledger on top of store.
func NewLedger(store interfaces.SheetStore, opts Options) *Ledger {
	if opts.Window.Size == 0 {
		opts.Window = DefaultWindow
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Ledger{
		store:  store,
		opts:   opts,
		window: opts.Window,
		logger: opts.Logger.Named("ledger"),
		muMap:  make(map[string]*sync.Mutex),
	}
}

// AddBill appends a dated amount to the ledger's billing columns.
func (l *Ledger) AddBill(ctx context.Context, lg models.Ledger, amount decimal.Decimal, by string) (models.LedgerEntry, error) {
	now := l.opts.Now()
	date := now.Format(models.DateLayout)

	row, err := l.Append(ctx, lg.Sheet, BillLayout, date, amount.String())
	if err != nil {
		return models.LedgerEntry{}, fmt.Errorf("add bill to %s: %w", lg.Sheet, err)
	}

	entry := models.LedgerEntry{
		ID:         uuid.NewString(),
		Sheet:      lg.Sheet,
		Row:        row,
		Column:     BillLayout.Columns[0],
		Date:       date,
		Amount:     amount,
		RecordedBy: by,
		CreatedAt:  now,
	}
	l.logger.Info("bill recorded",
		zap.String("sheet", lg.Sheet),
		zap.Int("row", row),
		zap.String("amount", amount.String()),
		zap.String("by", by))
	l.publish(ctx, entryRecorded(entry))
	return entry, nil
}

// PaymentColumn returns the confirmation column username stamps into.
func (l *Ledger) PaymentColumn(username string) string {
	if l.opts.SpecialUser != "" && username == l.opts.SpecialUser {
		return "G"
	}
	return "E"
}

// AddPayment stamps today's date into the next free row of column, which
// must be one of the confirmation columns E or G.
func (l *Ledger) AddPayment(ctx context.Context, lg models.Ledger, column string, by string) (models.LedgerEntry, error) {
	if column != "E" && column != "G" {
		return models.LedgerEntry{}, failure.New(failure.ValidationFailed, "add payment",
			fmt.Sprintf("payment column must be E or G, got %q", column))
	}
	now := l.opts.Now()
	date := now.Format(models.DateLayout)

	row, err := l.Append(ctx, lg.Sheet, PaymentLayout(column), date)
	if err != nil {
		return models.LedgerEntry{}, fmt.Errorf("add payment to %s: %w", lg.Sheet, err)
	}

	entry := models.LedgerEntry{
		ID:         uuid.NewString(),
		Sheet:      lg.Sheet,
		Row:        row,
		Column:     column,
		Date:       date,
		RecordedBy: by,
		CreatedAt:  now,
	}
	l.logger.Info("payment recorded",
		zap.String("sheet", lg.Sheet),
		zap.String("column", column),
		zap.Int("row", row),
		zap.String("by", by))
	l.publish(ctx, entryRecorded(entry))
	return entry, nil
}

// CheckBill returns the bill summary shown to username, or "0" when the
// cell is empty.
func (l *Ledger) CheckBill(ctx context.Context, lg models.Ledger, username string) (string, error) {
	cell := lg.BillCell(username, l.opts.SpecialUser)

	rows, err := l.store.Read(ctx, models.A1(lg.Sheet, cell))
	if err != nil {
		return "", fmt.Errorf("check %s: %w", lg.Sheet, err)
	}
	if len(rows) == 0 || len(rows[0]) == 0 || rows[0][0] == "" {
		return "0", nil
	}
	return rows[0][0], nil
}

// View returns the ledger's whole table.
func (l *Ledger) View(ctx context.Context, lg models.Ledger) ([][]string, error) {
	rng, ok := l.opts.ViewRanges[lg.Type]
	if !ok || rng == "" {
		rng = models.A1(lg.Sheet, "A1:G15")
	}

	rows, err := l.store.Read(ctx, rng)
	if err != nil {
		return nil, fmt.Errorf("view %s: %w", lg.Sheet, err)
	}
	return rows, nil
}

// ResetRanges returns the references Reset clears: the billing columns and
// both confirmation columns of the window.
func (l *Ledger) ResetRanges() []string {
	w := l.window
	return []string{
		models.Span("B", w.Start, "C", w.End()),
		models.Span("E", w.Start, "E", w.End()),
		models.Span("G", w.Start, "G", w.End()),
	}
}

// Reset blanks the ledger's window after checking password against the
// configured secret. A rejected password never touches the store.
func (l *Ledger) Reset(ctx context.Context, lg models.Ledger, password string, by string) ([]string, error) {
	if l.opts.ResetSecret == "" {
		return nil, failure.New(failure.ValidationFailed, "reset", "RESET_PASSWORD is not configured in environment variables.")
	}
	if subtle.ConstantTimeCompare([]byte(password), []byte(l.opts.ResetSecret)) != 1 {
		l.logger.Warn("reset denied", zap.String("sheet", lg.Sheet), zap.String("by", by))
		return nil, failure.New(failure.ValidationFailed, "reset", "Incorrect password. Access denied.")
	}

	mu := l.getSheetLock(lg.Sheet)
	mu.Lock()
	defer mu.Unlock()

	refs := l.ResetRanges()
	for _, ref := range refs {
		if err := l.store.ClearRange(ctx, models.A1(lg.Sheet, ref)); err != nil {
			return nil, fmt.Errorf("reset %s: %w", lg.Sheet, err)
		}
	}

	l.logger.Info("ledger reset", zap.String("sheet", lg.Sheet), zap.Strings("ranges", refs), zap.String("by", by))
	l.publish(ctx, events.LedgerReset{
		EventID:    uuid.NewString(),
		Type:       events.TypeLedgerReset,
		Sheet:      lg.Sheet,
		Ranges:     refs,
		ResetBy:    by,
		OccurredAt: l.opts.Now().UTC(),
	})
	return refs, nil
}

func (l *Ledger) publish(ctx context.Context, event any) {
	if l.opts.Publisher == nil {
		return
	}
	if err := l.opts.Publisher.Publish(ctx, EventsTopic, event); err != nil {
		l.logger.Warn("publish ledger event", zap.Error(err))
	}
}

func entryRecorded(e models.LedgerEntry) events.EntryRecorded {
	return events.EntryRecorded{
		EventID:    e.ID,
		Type:       events.TypeEntryRecorded,
		Sheet:      e.Sheet,
		Row:        e.Row,
		Column:     e.Column,
		Date:       e.Date,
		Amount:     e.Amount,
		RecordedBy: e.RecordedBy,
		OccurredAt: e.CreatedAt.UTC(),
	}
}
