package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/lcmcoursier/courier-quote/internal/core/domain"
)

// DefaultQuietPeriod is how long typing must pause before a query fires.
const DefaultQuietPeriod = 300 * time.Millisecond

// Timer is a cancellable scheduled callback.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d.
type AfterFunc func(d time.Duration, f func()) Timer

// DebounceOption configures a Debouncer.
type DebounceOption func(*Debouncer)

// WithQuietPeriod overrides DefaultQuietPeriod.
func WithQuietPeriod(d time.Duration) DebounceOption {
	return func(db *Debouncer) { db.quiet = d }
}

// WithAfterFunc replaces time.AfterFunc.
func WithAfterFunc(fn AfterFunc) DebounceOption {
	return func(db *Debouncer) { db.afterFunc = fn }
}

// Debouncer delays suggestion queries until typing pauses. A newer query
// supersedes the pending one and cancels its lookup; only results for the
// latest query are delivered.
//
// The HTTP API answers one query per request, so nothing in the server
// holds a Debouncer. It is meant for clients embedding this package that
// receive keystrokes directly, such as a terminal front end.
type Debouncer struct {
	svc       *Service
	quiet     time.Duration
	afterFunc AfterFunc
	deliver   func(query string, results []domain.Address)

	mu     sync.Mutex
	seq    uint64
	timer  Timer
	cancel context.CancelFunc
}

// NewDebouncer returns a Debouncer that hands results to deliver. A nil
// result slice means the suggestions should be cleared.
func NewDebouncer(svc *Service, deliver func(query string, results []domain.Address), opts ...DebounceOption) *Debouncer {
	db := &Debouncer{
		svc:     svc,
		quiet:   DefaultQuietPeriod,
		deliver: deliver,
		afterFunc: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Type records a keystroke producing query.
func (db *Debouncer) Type(ctx context.Context, query string) {
	q := strings.TrimSpace(query)

	db.mu.Lock()
	db.seq++
	seq := db.seq
	db.stopLocked()
	if !Searchable(q) {
		db.mu.Unlock()
		db.deliver(q, nil)
		return
	}
	reqCtx, cancel := context.WithCancel(ctx)
	db.cancel = cancel
	db.timer = db.afterFunc(db.quiet, func() { db.fire(reqCtx, seq, q) })
	db.mu.Unlock()
}

// Stop cancels the pending query, if any.
func (db *Debouncer) Stop() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.seq++
	db.stopLocked()
}

func (db *Debouncer) stopLocked() {
	if db.timer != nil {
		db.timer.Stop()
		db.timer = nil
	}
	if db.cancel != nil {
		db.cancel()
		db.cancel = nil
	}
}

func (db *Debouncer) fire(ctx context.Context, seq uint64, q string) {
	results, err := db.svc.Suggest(ctx, q)

	db.mu.Lock()
	if seq != db.seq {
		db.mu.Unlock()
		return
	}
	db.timer = nil
	if db.cancel != nil {
		db.cancel()
		db.cancel = nil
	}
	db.mu.Unlock()

	if err != nil {
		results = nil
	}
	db.deliver(q, results)
}
