// Package loader turns the configured source into a normalized dataset,
// caching the raw document and accepting manual uploads as a fallback.
package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"runlens/internal/cache"
	"runlens/internal/eventbus"
	"runlens/internal/source"
	"runlens/internal/timeline"
	"runlens/pkg/logx"
)

// ErrNoDataset means nothing could be loaded and no previous snapshot
// exists; the user should upload the file.
var ErrNoDataset = errors.New("no dataset available")

const OriginUpload = "upload"

// DefaultRetry is the wait between source attempts after a failed load
// when Options.Retry is unset.
const DefaultRetry = time.Minute

// Options control decoding and normalization.
type Options struct {
	Sheet    string
	Columns  timeline.Columns
	Timeline timeline.Options
	// Retry is the minimum time between source attempts after a failure.
	// Current serves the last outcome until it passes; Refresh ignores it.
	Retry time.Duration
}

// Snapshot is an immutable loaded dataset.
type Snapshot struct {
	ID        string
	Name      string
	Origin    string
	FetchedAt time.Time
	LoadedAt  time.Time
	Dataset   *timeline.Dataset
	Report    timeline.Report

	doc *source.Document
	gen uint64
}

// LoadedEvent is the payload of eventbus.DatasetLoaded.
type LoadedEvent struct {
	ID      string
	Origin  string
	Records int
	Dropped int
	Days    int
}

// FailedEvent is the payload of eventbus.DatasetFailed.
type FailedEvent struct {
	Origin string
	Err    string
}

// Status is what /status reports.
type Status struct {
	Snapshot    *Snapshot
	LastErr     error
	LastAttempt time.Time
	Stale       bool // the snapshot is served after a failed reload
}

type Loader struct {
	cache cache.Cache
	bus   eventbus.Bus
	log   logx.Logger
	now   func() time.Time

	// mu serializes loads so concurrent views trigger one fetch.
	mu          sync.Mutex
	src         source.Source
	opt         Options
	gen         uint64
	cur         *Snapshot
	lastErr     error
	lastAttempt time.Time
	retryAt     time.Time
}

// New creates a loader. src may be nil (uploads only); bus may be nil.
func New(src source.Source, c cache.Cache, bus eventbus.Bus, opt Options, log logx.Logger) *Loader {
	if c == nil {
		c = cache.NewMemory(0)
	}
	return &Loader{src: src, cache: c, bus: bus, opt: opt, log: log.Comp("loader"), now: time.Now}
}

// SetSource swaps the source; the cache is invalidated.
func (l *Loader) SetSource(ctx context.Context, src source.Source) {
	l.mu.Lock()
	l.src = src
	l.retryAt = time.Time{}
	l.mu.Unlock()
	l.cache.Invalidate(ctx)
}

// SetOptions applies new decode/normalize options; the next Current
// re-normalizes the cached document.
func (l *Loader) SetOptions(opt Options) {
	l.mu.Lock()
	l.opt = opt
	l.gen++
	l.mu.Unlock()
}

func (l *Loader) Options() Options {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.opt
}

func (l *Loader) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Status{Snapshot: l.cur, LastErr: l.lastErr, LastAttempt: l.lastAttempt, Stale: l.cur != nil && l.lastErr != nil}
}

// Current returns the dataset for the cached document, fetching it when the
// cache is cold. If the fetch fails the last good snapshot is served with a
// nil error and Status reports it as stale; with no snapshot at all the
// error wraps ErrNoDataset. After a failure the source is not retried until
// Options.Retry has passed.
func (l *Loader) Current(ctx context.Context) (*Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.cache.Get(ctx); ok {
		if l.cur != nil && l.cur.ID == e.ID && l.cur.gen == l.gen {
			return l.cur, nil
		}
		snap, err := l.parseLocked(e.ID, e.Doc)
		if err == nil {
			l.setLocked(snap)
			return snap, nil
		}
		l.log.Warn("cached document rejected", logx.String("id", e.ID), logx.Err(err))
		l.cache.Invalidate(ctx)
	}
	if l.lastErr != nil && l.now().Before(l.retryAt) {
		return l.staleLocked()
	}
	return l.fetchLocked(ctx)
}

// Refresh fetches from the source regardless of the cache. When the fetch
// fails but a previous snapshot exists, both are returned.
func (l *Loader) Refresh(ctx context.Context) (*Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	snap, err := l.fetchLocked(ctx)
	if err == nil && l.lastErr != nil {
		return snap, l.lastErr
	}
	return snap, err
}

// fetchLocked loads from the source. On failure it falls back to the
// current snapshot (re-normalized if options changed).
func (l *Loader) fetchLocked(ctx context.Context) (*Snapshot, error) {
	l.lastAttempt = l.now()
	err := l.tryFetchLocked(ctx)
	if err == nil {
		return l.cur, nil
	}

	l.lastErr = err
	retry := l.opt.Retry
	if retry <= 0 {
		retry = DefaultRetry
	}
	l.retryAt = l.lastAttempt.Add(retry)
	origin := "none"
	if l.src != nil {
		origin = l.src.Name()
	}
	l.publish(eventbus.DatasetFailed, FailedEvent{Origin: origin, Err: err.Error()})

	if l.cur != nil {
		l.log.Warn("reload failed; serving previous snapshot", logx.String("id", l.cur.ID), logx.Err(err))
	}
	return l.staleLocked()
}

// staleLocked serves the current snapshot after a failed load, re-normalized
// if options changed since it was parsed.
func (l *Loader) staleLocked() (*Snapshot, error) {
	if l.cur == nil {
		return nil, fmt.Errorf("%w: %w", ErrNoDataset, l.lastErr)
	}
	if l.cur.gen != l.gen {
		if snap, perr := l.parseLocked(l.cur.ID, l.cur.doc); perr == nil {
			l.cur = snap
		}
	}
	return l.cur, nil
}

func (l *Loader) tryFetchLocked(ctx context.Context) error {
	if l.src == nil {
		return errors.New("no source configured")
	}
	doc, err := l.src.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	id := uuid.NewString()
	snap, err := l.parseLocked(id, doc)
	if err != nil {
		return err
	}
	if err := l.cache.Put(ctx, &cache.Entry{ID: id, Doc: doc}); err != nil {
		l.log.Warn("cache put failed", logx.Err(err))
	}
	l.setLocked(snap)
	return nil
}

// Upload validates and installs a manually supplied document. It replaces
// whatever the cache holds.
func (l *Loader) Upload(ctx context.Context, name string, data []byte) (*Snapshot, error) {
	doc := &source.Document{Name: name, Data: data, Origin: OriginUpload, FetchedAt: l.now()}

	l.mu.Lock()
	defer l.mu.Unlock()

	id := uuid.NewString()
	snap, err := l.parseLocked(id, doc)
	if err != nil {
		l.publish(eventbus.DatasetFailed, FailedEvent{Origin: OriginUpload, Err: err.Error()})
		return nil, err
	}
	l.cache.Invalidate(ctx)
	if err := l.cache.Put(ctx, &cache.Entry{ID: id, Doc: doc}); err != nil {
		l.log.Warn("cache put failed", logx.Err(err))
	}
	l.setLocked(snap)
	return snap, nil
}

func (l *Loader) parseLocked(id string, doc *source.Document) (*Snapshot, error) {
	tb, err := source.Decode(doc, l.opt.Sheet)
	if err != nil {
		return nil, err
	}
	records, err := timeline.FromTable(tb.Header, tb.Rows, l.opt.Columns)
	if err != nil {
		return nil, err
	}
	ds, rep := timeline.Normalize(records, l.opt.Timeline)
	return &Snapshot{
		ID:        id,
		Name:      doc.Name,
		Origin:    doc.Origin,
		FetchedAt: doc.FetchedAt,
		LoadedAt:  l.now(),
		Dataset:   ds,
		Report:    rep,
		doc:       doc,
		gen:       l.gen,
	}, nil
}

func (l *Loader) setLocked(snap *Snapshot) {
	l.cur = snap
	l.lastErr = nil
	rep := snap.Report
	l.log.Info("dataset loaded",
		logx.String("id", snap.ID),
		logx.String("origin", snap.Origin),
		logx.String("name", snap.Name),
		logx.Int("records", rep.Kept),
		logx.Int("dropped", rep.Dropped()),
		logx.Int("inverted", rep.Inverted),
	)
	l.publish(eventbus.DatasetLoaded, LoadedEvent{
		ID:      snap.ID,
		Origin:  snap.Origin,
		Records: rep.Kept,
		Dropped: rep.Dropped(),
		Days:    len(snap.Dataset.Days()),
	})
}

func (l *Loader) publish(typ string, data any) {
	if l.bus != nil {
		l.bus.Publish(eventbus.Event{Type: typ, Data: data})
	}
}
