// Package usage tracks the free-tier quota counters: daily site creations
// and per-project edit credits, with a subscription override that bypasses
// all limits.
package usage

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Quota limits for the free tier.
const (
	// DailyCreationLimit is the number of sites a free user may generate
	// per calendar day.
	DailyCreationLimit = 3
	// PerProjectEditLimit is the base number of edit credits per project.
	PerProjectEditLimit = 50
	// EditPackSize is the number of credits added by one purchase.
	EditPackSize = 20
)

// Sentinel values reported for active subscribers. Large enough to read as
// unlimited anywhere they are displayed.
const (
	unlimitedCreations = 9999
	unlimitedEdits     = 10000
)

const dateLayout = "2006-01-02"

// Stats is the user-facing quota summary.
type Stats struct {
	CreationsRemaining int `json:"creationsRemaining"`
	EditsRemaining     int `json:"editsRemaining"`
	MaxEdits           int `json:"maxEdits"`
}

// Ledger is the injectable quota service. All accessors apply the lazy
// day rollover, so callers never observe a stale daily count.
type Ledger struct {
	mu                 sync.Mutex
	store              Store
	subscriptionActive bool
	now                func() time.Time
}

// NewLedger creates a Ledger over the given store.
func NewLedger(store Store) *Ledger {
	return &Ledger{store: store, now: time.Now}
}

// GetStats returns the current quota summary. For active subscribers all
// fields are the unlimited sentinels regardless of persisted counters.
func (l *Ledger) GetStats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.subscriptionActive {
		return Stats{
			CreationsRemaining: unlimitedCreations,
			EditsRemaining:     unlimitedEdits,
			MaxEdits:           unlimitedEdits,
		}
	}

	record := l.record()
	maxEdits := PerProjectEditLimit + record.PurchasedEdits
	return Stats{
		CreationsRemaining: clamp(DailyCreationLimit - record.DailyCreations),
		EditsRemaining:     clamp(maxEdits - record.CurrentProjectEdits),
		MaxEdits:           maxEdits,
	}
}

// CanCreateNewSite reports whether another site generation is allowed today.
func (l *Ledger) CanCreateNewSite() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.subscriptionActive {
		return true
	}
	return l.record().DailyCreations < DailyCreationLimit
}

// IncrementCreationCount records a successful generation. The new project
// starts with a full edit budget. Call only after the pipeline succeeds.
func (l *Ledger) IncrementCreationCount() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.subscriptionActive {
		return
	}
	record := l.record()
	record.DailyCreations++
	record.CurrentProjectEdits = 0
	l.save(record)
}

// CanEditSite reports whether another edit credit is available.
func (l *Ledger) CanEditSite() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.subscriptionActive {
		return true
	}
	record := l.record()
	return record.CurrentProjectEdits < PerProjectEditLimit+record.PurchasedEdits
}

// IncrementEditCount consumes one edit credit. Call only after an applied
// edit; refusals and errors do not consume credits.
func (l *Ledger) IncrementEditCount() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.subscriptionActive {
		return
	}
	record := l.record()
	record.CurrentProjectEdits++
	l.save(record)
}

// PurchaseEdits adds credits to the current and future projects of the day.
// Persisted immediately. No-op for subscribers and non-positive amounts.
func (l *Ledger) PurchaseEdits(amount int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.subscriptionActive || amount <= 0 {
		return
	}
	record := l.record()
	record.PurchasedEdits += amount
	l.save(record)
}

// SetSubscriptionActive updates the process-wide override flag. Persisted
// counters are left untouched so they apply again if the flag drops.
func (l *Ledger) SetSubscriptionActive(active bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.subscriptionActive = active
}

// record loads the persisted state, applying the day rollover: on the
// first read of a new calendar day the daily creation count resets while
// project edits and purchased credits carry over. Callers must hold mu.
func (l *Ledger) record() *Record {
	record, err := l.store.Load()
	if err != nil {
		log.Warn().Err(err).Msg("failed to load usage record, starting fresh")
		record = nil
	}

	today := l.now().Format(dateLayout)
	if record == nil {
		record = &Record{LastResetDate: today}
		l.save(record)
		return record
	}

	if record.LastResetDate != today {
		record.LastResetDate = today
		record.DailyCreations = 0
		l.save(record)
	}
	return record
}

func (l *Ledger) save(record *Record) {
	if err := l.store.Save(record); err != nil {
		log.Warn().Err(err).Msg("failed to persist usage record")
	}
}

func clamp(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
