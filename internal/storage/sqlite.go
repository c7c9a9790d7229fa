//go:build sqlite
// +build sqlite

package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"runlens/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

const currentSlot = "current"

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	path := cfg.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	st := &sqliteStore{db: db, log: log}
	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite migrate: %w", err)
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) PutSnapshot(ctx context.Context, b Blob) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshot(slot, id, name, origin, fetched_at, data) VALUES(?,?,?,?,?,?)
		 ON CONFLICT(slot) DO UPDATE SET id=excluded.id, name=excluded.name, origin=excluded.origin,
		   fetched_at=excluded.fetched_at, data=excluded.data`,
		currentSlot, b.ID, b.Name, b.Origin, b.FetchedAt.Format(time.RFC3339Nano), b.Data,
	)
	return err
}

func (s *sqliteStore) GetSnapshot(ctx context.Context) (Blob, error) {
	var (
		b  Blob
		at string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, origin, fetched_at, data FROM snapshot WHERE slot = ?`, currentSlot,
	).Scan(&b.ID, &b.Name, &b.Origin, &at, &b.Data)
	if errors.Is(err, sql.ErrNoRows) {
		return Blob{}, ErrNotFound
	}
	if err != nil {
		return Blob{}, err
	}
	if b.FetchedAt, err = time.Parse(time.RFC3339Nano, at); err != nil {
		s.log.Warn("snapshot has bad timestamp", logx.String("fetched_at", at), logx.Err(err))
	}
	return b, nil
}

func (s *sqliteStore) AppendAudit(ctx context.Context, e AuditEntry) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit(at, actor_id, actor_username, chat_id, action, target, err, took_ms)
		 VALUES(?,?,?,?,?,?,?,?)`,
		e.At.Format(time.RFC3339Nano), e.ActorID, nullStr(e.ActorUsername), e.ChatID,
		e.Action, nullStr(e.Target), nullStr(e.Error), e.TookMS,
	)
	return err
}

func (s *sqliteStore) RecentAudit(ctx context.Context, n int) ([]AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT at, actor_id, actor_username, chat_id, action, target, err, took_ms
		 FROM audit ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AuditEntry
	for rows.Next() {
		var (
			e                    AuditEntry
			at                   string
			user, target, errStr sql.NullString
		)
		if err := rows.Scan(&at, &e.ActorID, &user, &e.ChatID, &e.Action, &target, &errStr, &e.TookMS); err != nil {
			return nil, err
		}
		e.At, _ = time.Parse(time.RFC3339Nano, at)
		e.ActorUsername, e.Target, e.Error = user.String, target.String, errStr.String
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
