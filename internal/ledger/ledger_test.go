package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/sheikh-saqib/subscription-billing-bot/internal/failure"
	"github.com/sheikh-saqib/subscription-billing-bot/internal/models"
	"github.com/sheikh-saqib/subscription-billing-bot/internal/models/events"
	"github.com/sheikh-saqib/subscription-billing-bot/internal/storage/memory"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var fixedNow = func() time.Time { return time.Date(2026, 3, 7, 9, 30, 0, 0, time.UTC) }

type recordingPublisher struct {
	mu     sync.Mutex
	events []any
}

func (r *recordingPublisher) Publish(_ context.Context, topic string, event any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func newTestLedger(t *testing.T, opts Options) (*Ledger, *memory.MemorySheetStore, models.Ledger) {
	t.Helper()
	store := memory.NewMemorySheetStore("Google", "VPS", "Domain")
	if opts.Now == nil {
		opts.Now = fixedNow
	}
	lg, err := models.LookupLedger("vps")
	require.NoError(t, err)
	return NewLedger(store, opts), store, lg
}

func TestAddBillAllocatesSequentialRows(t *testing.T) {
	l, store, vps := newTestLedger(t, Options{})
	ctx := context.Background()

	for n := 1; n <= 12; n++ {
		entry, err := l.AddBill(ctx, vps, decimal.NewFromInt(int64(n*1000)), "alice")
		require.NoError(t, err)
		assert.Equal(t, 3+n-1, entry.Row)
	}

	rows, err := store.Read(ctx, "VPS!B3:C14")
	require.NoError(t, err)
	require.Len(t, rows, 12)
	assert.Equal(t, []string{"03/07/2026", "1000"}, rows[0])
	assert.Equal(t, []string{"03/07/2026", "12000"}, rows[11])
}

func TestAddBillFullWindow(t *testing.T) {
	l, store, vps := newTestLedger(t, Options{})
	ctx := context.Background()

	for n := 0; n < 12; n++ {
		_, err := l.AddBill(ctx, vps, decimal.NewFromInt(1), "alice")
		require.NoError(t, err)
	}
	writes := store.Writes()

	_, err := l.AddBill(ctx, vps, decimal.NewFromInt(1), "alice")
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.CapacityExceeded))
	assert.Equal(t, "All billing rows (B3:B14) are full. Cannot add more entries.", failure.Message(err))
	assert.Equal(t, writes, store.Writes(), "a full window performs no write")
}

func TestResetThenAddReusesFirstRow(t *testing.T) {
	l, _, vps := newTestLedger(t, Options{ResetSecret: "hunter2"})
	ctx := context.Background()

	for n := 0; n < 5; n++ {
		_, err := l.AddBill(ctx, vps, decimal.NewFromInt(1), "alice")
		require.NoError(t, err)
	}

	cleared, err := l.Reset(ctx, vps, "hunter2", "admin")
	require.NoError(t, err)
	assert.Equal(t, []string{"B3:C14", "E3:E14", "G3:G14"}, cleared)

	entry, err := l.AddBill(ctx, vps, decimal.NewFromInt(1), "alice")
	require.NoError(t, err)
	assert.Equal(t, 3, entry.Row)
}

func TestResetRejectsWrongPassword(t *testing.T) {
	l, store, vps := newTestLedger(t, Options{ResetSecret: "hunter2"})
	ctx := context.Background()

	_, err := l.AddBill(ctx, vps, decimal.NewFromInt(5000), "alice")
	require.NoError(t, err)

	_, err = l.Reset(ctx, vps, "hunter3", "mallory")
	assert.True(t, failure.Is(err, failure.ValidationFailed))
	assert.Equal(t, "Incorrect password. Access denied.", failure.Message(err))
	assert.Zero(t, store.Clears())

	rows, err := store.Read(ctx, "VPS!B3:C3")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"03/07/2026", "5000"}}, rows)
}

func TestResetWithoutSecret(t *testing.T) {
	l, store, vps := newTestLedger(t, Options{})

	_, err := l.Reset(context.Background(), vps, "", "admin")
	assert.True(t, failure.Is(err, failure.ValidationFailed))
	assert.Contains(t, failure.Message(err), "not configured")
	assert.Zero(t, store.Clears())
}

func TestCheckBill(t *testing.T) {
	l, store, vps := newTestLedger(t, Options{SpecialUser: "cucudukun"})
	ctx := context.Background()

	value, err := l.CheckBill(ctx, vps, "alice")
	require.NoError(t, err)
	assert.Equal(t, "0", value, "an empty cell reads as zero")

	require.NoError(t, store.WriteCell(ctx, "VPS!E15", "Rp 250.000"))
	require.NoError(t, store.WriteCell(ctx, "VPS!G15", "Rp 100.000"))

	value, err = l.CheckBill(ctx, vps, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Rp 250.000", value)

	value, err = l.CheckBill(ctx, vps, "cucudukun")
	require.NoError(t, err)
	assert.Equal(t, "Rp 100.000", value)
}

func TestAddPayment(t *testing.T) {
	pub := &recordingPublisher{}
	l, store, vps := newTestLedger(t, Options{SpecialUser: "cucudukun", Publisher: pub})
	ctx := context.Background()

	assert.Equal(t, "G", l.PaymentColumn("cucudukun"))
	assert.Equal(t, "E", l.PaymentColumn("alice"))

	e1, err := l.AddPayment(ctx, vps, "E", "alice")
	require.NoError(t, err)
	e2, err := l.AddPayment(ctx, vps, "E", "alice")
	require.NoError(t, err)
	g1, err := l.AddPayment(ctx, vps, "G", "cucudukun")
	require.NoError(t, err)

	assert.Equal(t, 3, e1.Row)
	assert.Equal(t, 4, e2.Row)
	assert.Equal(t, 3, g1.Row, "each confirmation column has its own cursor")

	rows, err := store.Read(ctx, "VPS!E3:E14")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"03/07/2026"}, {"03/07/2026"}}, rows)

	_, err = l.AddPayment(ctx, vps, "C", "alice")
	assert.True(t, failure.Is(err, failure.ValidationFailed))

	require.Len(t, pub.events, 3)
	ev, ok := pub.events[2].(events.EntryRecorded)
	require.True(t, ok)
	assert.Equal(t, "G", ev.Column)
	assert.Equal(t, "cucudukun", ev.RecordedBy)
}

func TestBlankKeyRowIsTreatedAsFree(t *testing.T) {
	l, store, vps := newTestLedger(t, Options{})
	ctx := context.Background()

	require.NoError(t, store.WriteCell(ctx, "VPS!B3", "01/01/2026"))
	require.NoError(t, store.WriteCell(ctx, "VPS!C4", "999"))

	entry, err := l.AddBill(ctx, vps, decimal.NewFromInt(42), "alice")
	require.NoError(t, err)
	assert.Equal(t, 4, entry.Row)

	rows, err := store.Read(ctx, "VPS!C4")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"42"}}, rows)
}

func TestView(t *testing.T) {
	l, store, vps := newTestLedger(t, Options{ViewRanges: map[string]string{"google": "Google!A1:B2"}})
	ctx := context.Background()

	require.NoError(t, store.WriteCell(ctx, "VPS!A1", "VPS Billing"))
	require.NoError(t, store.WriteCell(ctx, "Google!A1", "Workspace"))
	require.NoError(t, store.WriteCell(ctx, "Google!A5", "outside"))

	rows, err := l.View(ctx, vps)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"VPS Billing"}}, rows)

	google, err := models.LookupLedger("google")
	require.NoError(t, err)
	rows, err = l.View(ctx, google)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Workspace"}}, rows)
}

func TestMissingSheet(t *testing.T) {
	store := memory.NewMemorySheetStore("VPS")
	l := NewLedger(store, Options{Now: fixedNow})
	domain, err := models.LookupLedger("domain")
	require.NoError(t, err)

	_, err = l.AddBill(context.Background(), domain, decimal.NewFromInt(1), "alice")
	assert.True(t, failure.Is(err, failure.RangeNotFound))
}

func TestStoreErrorsPropagate(t *testing.T) {
	l, store, vps := newTestLedger(t, Options{})
	store.FailWith(failure.New(failure.AccessDenied, "read", "PERMISSION_DENIED"))

	_, err := l.CheckBill(context.Background(), vps, "alice")
	assert.True(t, failure.Is(err, failure.AccessDenied))
}

func TestConcurrentAddsGetDistinctRows(t *testing.T) {
	l, _, vps := newTestLedger(t, Options{})
	ctx := context.Background()

	var wg sync.WaitGroup
	rows := make(chan int, 12)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			entry, err := l.AddBill(ctx, vps, decimal.NewFromInt(int64(i)), fmt.Sprintf("user%d", i))
			if assert.NoError(t, err) {
				rows <- entry.Row
			}
		}(i)
	}
	wg.Wait()
	close(rows)

	seen := map[int]bool{}
	for r := range rows {
		assert.False(t, seen[r], "row %d allocated twice", r)
		seen[r] = true
	}
	assert.Len(t, seen, 12)
}

// amountFailingStore fails every write into the amount column.
type amountFailingStore struct {
	*memory.MemorySheetStore
	err error
}

func (s *amountFailingStore) WriteCell(ctx context.Context, rng string, value string) error {
	if s.err != nil && strings.Contains(rng, "!C") {
		return s.err
	}
	return s.MemorySheetStore.WriteCell(ctx, rng, value)
}

func TestPartialWriteIsNotRolledBack(t *testing.T) {
	boom := errors.New("boom")
	mem := memory.NewMemorySheetStore("VPS")
	store := &amountFailingStore{MemorySheetStore: mem, err: boom}
	l := NewLedger(store, Options{Now: fixedNow})
	vps, err := models.LookupLedger("vps")
	require.NoError(t, err)
	ctx := context.Background()

	_, err = l.AddBill(ctx, vps, decimal.NewFromInt(1000), "alice")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "write C3")

	rows, err := mem.Read(ctx, "VPS!B3:C3")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"03/07/2026"}}, rows, "the date stays and the amount is blank")

	store.err = nil
	entry, err := l.AddBill(ctx, vps, decimal.NewFromInt(2000), "alice")
	require.NoError(t, err)
	assert.Equal(t, 4, entry.Row, "the half-written row stays allocated")
}

func TestAppendRejectsMismatchedValues(t *testing.T) {
	l, _, vps := newTestLedger(t, Options{})
	_, err := l.Append(context.Background(), vps.Sheet, BillLayout, "only-date")
	assert.True(t, failure.Is(err, failure.ValidationFailed))
}

func TestFirstFree(t *testing.T) {
	w := Window{Start: 3, Size: 3}

	off, ok := w.firstFree(nil)
	assert.True(t, ok)
	assert.Zero(t, off)

	off, ok = w.firstFree([][]string{{"a"}, {}, {"c"}})
	assert.True(t, ok)
	assert.Equal(t, 1, off)

	off, ok = w.firstFree([][]string{{"a"}, {"b"}})
	assert.True(t, ok)
	assert.Equal(t, 2, off)

	_, ok = w.firstFree([][]string{{"a"}, {"b"}, {"c"}})
	assert.False(t, ok)
	assert.Equal(t, 5, w.End())
}
