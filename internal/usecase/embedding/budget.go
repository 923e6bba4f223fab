package embedding

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/colmap/internal/domain"
	domusage "github.com/kailas-cloud/colmap/internal/domain/usage"
)

// BudgetAction selects what happens once a budget window is used up.
type BudgetAction string

const (
	// BudgetActionWarn logs and lets the request through.
	BudgetActionWarn BudgetAction = "warn"
	// BudgetActionReject fails the request with ErrEmbeddingQuotaExceeded.
	BudgetActionReject BudgetAction = "reject"
)

// persistTimeout bounds the write-behind of one Record call.
const persistTimeout = 2 * time.Second

// BudgetStore persists window counters. IncrBy must be additive.
type BudgetStore interface {
	IncrBy(ctx context.Context, key string, val int64) error
	Get(ctx context.Context, key string) (int64, error)
}

// budgetWindow is one rolling counter. It is reset when the clock leaves the
// period that started it.
type budgetWindow struct {
	period  domusage.Period
	segment string // key segment, kept stable for stored counters
	layout  string
	limit   int64
	used    int64
	start   time.Time
}

func (w *budgetWindow) roll(now time.Time) {
	start, _ := w.period.Bounds(now)
	if start.After(w.start) {
		w.used = 0
		w.start = start
	}
}

func (w *budgetWindow) counter() domusage.Counter {
	c := domusage.Counter{Used: w.used, Limit: w.limit, Remaining: -1}
	if w.limit > 0 {
		c.Remaining = max(w.limit-w.used, 0)
	}
	return c
}

// BudgetTracker enforces daily and monthly token caps for one provider.
// Check never leaves the process; Record updates memory and then writes the
// delta through to the store, if one is attached.
type BudgetTracker struct {
	mu       sync.Mutex
	provider string
	action   BudgetAction
	windows  []*budgetWindow
	store    BudgetStore
	now      func() time.Time
	logger   *zap.Logger
}

// NewBudgetTracker creates a tracker. A zero limit leaves that window unlimited.
func NewBudgetTracker(
	provider string, dailyLimit, monthlyLimit int64,
	action BudgetAction, logger *zap.Logger,
) *BudgetTracker {
	b := &BudgetTracker{
		provider: provider,
		action:   action,
		windows: []*budgetWindow{
			{period: domusage.PeriodDay, segment: "daily", layout: "2006-01-02", limit: dailyLimit},
			{period: domusage.PeriodMonth, segment: "monthly", layout: "2006-01", limit: monthlyLimit},
		},
		logger: logger,
	}
	b.setClock(time.Now)
	return b
}

// WithClock replaces the time source.
func (b *BudgetTracker) WithClock(now func() time.Time) *BudgetTracker {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.setClock(now)
	return b
}

func (b *BudgetTracker) setClock(now func() time.Time) {
	b.now = now
	t := now()
	for _, w := range b.windows {
		w.start, _ = w.period.Bounds(t)
	}
}

// WithStore attaches persistence and seeds the current windows from it.
// Load failures are logged and leave the counters at zero.
func (b *BudgetTracker) WithStore(ctx context.Context, store BudgetStore) *BudgetTracker {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.store = store
	now := b.now()
	for _, w := range b.windows {
		w.roll(now)
		key := b.key(w)
		val, err := store.Get(ctx, key)
		if err != nil {
			b.logger.Warn("Failed to load token budget", zap.String("key", key), zap.Error(err))
			continue
		}
		w.used = val
	}

	b.logger.Info("Token budget loaded",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.windows[0].used),
		zap.Int64("monthly_used", b.windows[1].used),
	)
	return b
}

func (b *BudgetTracker) key(w *budgetWindow) string {
	return domain.KeyPrefix + "budget:" + b.provider + ":" + w.segment + ":" + w.start.Format(w.layout)
}

// Check reports whether another request may be sent.
func (b *BudgetTracker) Check(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	exhausted := b.exhaustedLocked()
	if exhausted == nil {
		return nil
	}
	if b.action == BudgetActionReject {
		return domain.ErrEmbeddingQuotaExceeded
	}

	c := exhausted.counter()
	b.logger.Warn("Token budget exceeded",
		zap.String("provider", b.provider),
		zap.String("period", string(exhausted.period)),
		zap.Int64("used", c.Used),
		zap.Int64("limit", c.Limit),
	)
	return nil
}

// exhaustedLocked returns the first used-up window, or nil.
func (b *BudgetTracker) exhaustedLocked() *budgetWindow {
	now := b.now()
	for _, w := range b.windows {
		w.roll(now)
		if w.counter().Exhausted() {
			return w
		}
	}
	return nil
}

// Record adds consumed tokens to every window.
func (b *BudgetTracker) Record(tokens int64) {
	b.mu.Lock()
	now := b.now()
	keys := make([]string, len(b.windows))
	for i, w := range b.windows {
		w.roll(now)
		w.used += tokens
		keys[i] = b.key(w)
	}
	store := b.store
	b.mu.Unlock()

	if store == nil {
		return
	}

	// Detached from the request so a cancelled caller still gets counted.
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	for _, key := range keys {
		if err := store.IncrBy(ctx, key, tokens); err != nil {
			b.logger.Warn("Failed to persist token budget", zap.String("key", key), zap.Error(err))
		}
	}
}

// Counter returns the current window of period. Unknown periods read as
// the daily window.
func (b *BudgetTracker) Counter(period domusage.Period) domusage.Counter {
	b.mu.Lock()
	defer b.mu.Unlock()

	w := b.windows[0]
	for _, candidate := range b.windows {
		if candidate.period == period {
			w = candidate
		}
	}
	w.roll(b.now())
	return w.counter()
}

// Exhausted reports whether any window is used up.
func (b *BudgetTracker) Exhausted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.exhaustedLocked() != nil
}
