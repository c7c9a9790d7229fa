// Package cache keeps the last fetched source document for a TTL so views
// do not refetch on every request.
package cache

import (
	"context"
	"sync"
	"time"

	"runlens/internal/source"
)

const DefaultTTL = 10 * time.Minute

// Entry is one cached document. ID changes whenever the content is
// replaced.
type Entry struct {
	ID       string
	Doc      *source.Document
	StoredAt time.Time
}

// Fresh reports whether e is younger than ttl at now.
func (e *Entry) Fresh(now time.Time, ttl time.Duration) bool {
	return e != nil && e.Doc != nil && now.Sub(e.StoredAt) < ttl
}

type Cache interface {
	// Get returns the entry while it is fresh.
	Get(ctx context.Context) (*Entry, bool)
	Put(ctx context.Context, e *Entry) error
	Invalidate(ctx context.Context)
	TTL() time.Duration
}

// Memory is an in-process Cache.
type Memory struct {
	mu    sync.Mutex
	ttl   time.Duration
	entry *Entry
	now   func() time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{ttl: ttl, now: time.Now}
}

func (m *Memory) TTL() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ttl
}

// SetTTL applies a reloaded TTL to the current and future entries.
func (m *Memory) SetTTL(ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m.mu.Lock()
	m.ttl = ttl
	m.mu.Unlock()
}

func (m *Memory) Get(ctx context.Context) (*Entry, bool) {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.entry.Fresh(m.now(), m.ttl) {
		return nil, false
	}
	return m.entry, true
}

func (m *Memory) Put(ctx context.Context, e *Entry) error {
	_ = ctx
	if e.StoredAt.IsZero() {
		e.StoredAt = m.now()
	}
	m.mu.Lock()
	m.entry = e
	m.mu.Unlock()
	return nil
}

func (m *Memory) Invalidate(ctx context.Context) {
	_ = ctx
	m.mu.Lock()
	m.entry = nil
	m.mu.Unlock()
}
