package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"runlens/internal/source"
	"runlens/internal/storage"
	"runlens/pkg/logx"
)

// Stored is a Memory cache backed by storage: entries are written through
// and a cold Get reads the persisted snapshot, so a restart within the TTL
// serves the previous document without refetching.
type Stored struct {
	*Memory
	store storage.Store
	log   logx.Logger

	mu      sync.Mutex
	dropped string // snapshot id invalidated since it was written
}

func NewStored(ttl time.Duration, store storage.Store, log logx.Logger) *Stored {
	return &Stored{Memory: NewMemory(ttl), store: store, log: log.Comp("cache")}
}

func (s *Stored) Get(ctx context.Context) (*Entry, bool) {
	if e, ok := s.Memory.Get(ctx); ok {
		return e, true
	}
	b, err := s.store.GetSnapshot(ctx)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.log.Warn("snapshot read failed", logx.Err(err))
		}
		return nil, false
	}
	s.mu.Lock()
	dropped := b.ID == s.dropped
	s.mu.Unlock()
	if dropped {
		return nil, false
	}

	e := &Entry{
		ID:       b.ID,
		StoredAt: b.FetchedAt,
		Doc:      &source.Document{Name: b.Name, Data: b.Data, Origin: b.Origin, FetchedAt: b.FetchedAt},
	}
	if !e.Fresh(s.now(), s.TTL()) {
		return nil, false
	}
	_ = s.Memory.Put(ctx, e)
	s.log.Debug("snapshot restored from storage", logx.String("id", e.ID), logx.String("origin", b.Origin))
	return e, true
}

func (s *Stored) Put(ctx context.Context, e *Entry) error {
	if err := s.Memory.Put(ctx, e); err != nil {
		return err
	}
	return s.store.PutSnapshot(ctx, storage.Blob{
		ID:        e.ID,
		Name:      e.Doc.Name,
		Origin:    e.Doc.Origin,
		FetchedAt: e.StoredAt,
		Data:      e.Doc.Data,
	})
}

func (s *Stored) Invalidate(ctx context.Context) {
	s.mu.Lock()
	if e, ok := s.Memory.Get(ctx); ok {
		s.dropped = e.ID
	} else if b, err := s.store.GetSnapshot(ctx); err == nil {
		s.dropped = b.ID
	}
	s.mu.Unlock()
	s.Memory.Invalidate(ctx)
}
