// Package ratelimit implements the per-client submission limiter.
//
// SlidingWindow keeps the timestamps of accepted requests per key and admits
// a request while fewer than max of them fall inside the trailing window.
// It is an approximation: a burst straddling a boundary can admit up to
// 2*max requests in a span slightly longer than the window.
package ratelimit

import (
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"
)

// Limiter is what the HTTP layer depends on.
type Limiter interface {
	Allow(key string) bool
}

// Timer is a cancellable scheduled callback.
type Timer interface {
	Stop() bool
}

// Clock abstracts time so tests can drive the limiter deterministically.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Option configures a SlidingWindow.
type Option func(*SlidingWindow)

// WithClock replaces the wall clock and timer factory.
func WithClock(c Clock) Option {
	return func(l *SlidingWindow) { l.clock = c }
}

const shardCount = 32

type entry struct {
	hits  []time.Time
	timer Timer
	// seq identifies the live timer; a callback with an older seq is a no-op.
	seq uint64
}

type shard struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// SlidingWindow is an in-memory sliding-window limiter. Each key owns at most
// one cleanup timer, which drops the key once it has been idle for a window.
type SlidingWindow struct {
	window time.Duration
	max    int
	clock  Clock
	closed atomic.Bool
	shards [shardCount]shard
}

// New returns a limiter admitting max requests per key within window.
func New(window time.Duration, max int, opts ...Option) *SlidingWindow {
	if max < 1 {
		max = 1
	}
	l := &SlidingWindow{window: window, max: max, clock: realClock{}}
	for i := range l.shards {
		l.shards[i].entries = make(map[string]*entry)
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow records and admits a request for key, or rejects it when the key
// already has max requests inside the window. Rejected requests are not
// recorded.
func (l *SlidingWindow) Allow(key string) bool {
	sh := l.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	now := l.clock.Now()
	e, ok := sh.entries[key]
	if !ok {
		e = &entry{}
		sh.entries[key] = e
	}
	e.prune(now.Add(-l.window))

	allowed := len(e.hits) < l.max
	if allowed {
		e.hits = append(e.hits, now)
	}
	l.scheduleLocked(sh, key, e)
	return allowed
}

// Hits returns the number of recorded requests for key inside the window.
func (l *SlidingWindow) Hits(key string) int {
	sh := l.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := sh.entries[key]
	if !ok {
		return 0
	}
	e.prune(l.clock.Now().Add(-l.window))
	return len(e.hits)
}

// Len returns the number of tracked keys.
func (l *SlidingWindow) Len() int {
	n := 0
	for i := range l.shards {
		sh := &l.shards[i]
		sh.mu.Lock()
		n += len(sh.entries)
		sh.mu.Unlock()
	}
	return n
}

// Shutdown cancels every pending cleanup timer. Allow keeps answering
// afterwards but no longer schedules cleanups.
func (l *SlidingWindow) Shutdown() {
	l.closed.Store(true)
	for i := range l.shards {
		sh := &l.shards[i]
		sh.mu.Lock()
		for _, e := range sh.entries {
			if e.timer != nil {
				e.timer.Stop()
				e.timer = nil
			}
		}
		sh.mu.Unlock()
	}
}

func (l *SlidingWindow) shard(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &l.shards[h.Sum32()%shardCount]
}

// scheduleLocked replaces the key's cleanup timer. sh.mu must be held.
func (l *SlidingWindow) scheduleLocked(sh *shard, key string, e *entry) {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	if l.closed.Load() {
		return
	}
	e.seq++
	seq := e.seq
	e.timer = l.clock.AfterFunc(l.window, func() { l.cleanup(sh, key, e, seq) })
}

func (l *SlidingWindow) cleanup(sh *shard, key string, e *entry, seq uint64) {
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if sh.entries[key] != e || e.seq != seq {
		return
	}
	e.timer = nil
	e.prune(l.clock.Now().Add(-l.window))
	if len(e.hits) == 0 {
		delete(sh.entries, key)
		return
	}
	l.scheduleLocked(sh, key, e)
}

// prune drops timestamps at or before cutoff. hits is kept in ascending order.
func (e *entry) prune(cutoff time.Time) {
	i := 0
	for i < len(e.hits) && !e.hits[i].After(cutoff) {
		i++
	}
	if i > 0 {
		e.hits = append(e.hits[:0], e.hits[i:]...)
	}
}
