package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"runlens/pkg/logx"
)

// fileStore is a dependency-free persistence backend.
//
// Files:
//   - <prefix>.audit.jsonl     (append-only JSON Lines)
//   - <prefix>.snapshot.json   (snapshot metadata)
//   - <prefix>.snapshot.bin    (snapshot payload)
//
// Snapshot writes go through a temp file and rename; the payload is
// renamed before the metadata so a crash never leaves metadata pointing at
// a partial payload.
type fileStore struct {
	log logx.Logger

	mu sync.Mutex

	auditPath string
	auditFile *os.File
	metaPath  string
	dataPath  string
}

type snapshotMeta struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Origin    string    `json:"origin"`
	FetchedAt time.Time `json:"fetched_at"`
	Size      int       `json:"size"`
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}

	dir := filepath.Dir(path)
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	prefix := filepath.Join(dir, base)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	auditPath := prefix + ".audit.jsonl"
	af, err := os.OpenFile(auditPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	return &fileStore{
		log:       log,
		auditPath: auditPath,
		auditFile: af,
		metaPath:  prefix + ".snapshot.json",
		dataPath:  prefix + ".snapshot.bin",
	}, nil
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.auditFile == nil {
		return nil
	}
	err := s.auditFile.Close()
	s.auditFile = nil
	return err
}

func (s *fileStore) PutSnapshot(ctx context.Context, b Blob) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeAtomic(s.dataPath, b.Data); err != nil {
		return err
	}
	meta, err := json.Marshal(snapshotMeta{ID: b.ID, Name: b.Name, Origin: b.Origin, FetchedAt: b.FetchedAt, Size: len(b.Data)})
	if err != nil {
		return err
	}
	return writeAtomic(s.metaPath, meta)
}

func (s *fileStore) GetSnapshot(ctx context.Context) (Blob, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	mb, err := os.ReadFile(s.metaPath)
	if errors.Is(err, os.ErrNotExist) {
		return Blob{}, ErrNotFound
	}
	if err != nil {
		return Blob{}, err
	}
	var m snapshotMeta
	if err := json.Unmarshal(mb, &m); err != nil {
		return Blob{}, err
	}
	data, err := os.ReadFile(s.dataPath)
	if err != nil {
		return Blob{}, err
	}
	if len(data) != m.Size {
		s.log.Warn("snapshot payload size mismatch", logx.Int("want", m.Size), logx.Int("got", len(data)))
		return Blob{}, ErrNotFound
	}
	return Blob{ID: m.ID, Name: m.Name, Origin: m.Origin, FetchedAt: m.FetchedAt, Data: data}, nil
}

func (s *fileStore) AppendAudit(ctx context.Context, e AuditEntry) error {
	_ = ctx
	if e.At.IsZero() {
		e.At = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.auditFile == nil {
		return errors.New("audit file closed")
	}
	return json.NewEncoder(s.auditFile).Encode(e)
}

func (s *fileStore) RecentAudit(ctx context.Context, n int) ([]AuditEntry, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.auditPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var all []AuditEntry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e AuditEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			continue
		}
		all = append(all, e)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	out := make([]AuditEntry, 0, n)
	for i := len(all) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
