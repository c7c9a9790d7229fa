package storage

import (
	"context"
	"errors"
	"strings"

	"runlens/pkg/logx"
)

// Store is the persistence API used by the cache and the bot.
type Store interface {
	PutSnapshot(ctx context.Context, b Blob) error
	// GetSnapshot returns ErrNotFound when nothing was stored yet.
	GetSnapshot(ctx context.Context) (Blob, error)

	AppendAudit(ctx context.Context, e AuditEntry) error
	// RecentAudit returns up to n entries, newest first.
	RecentAudit(ctx context.Context, n int) ([]AuditEntry, error)

	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if storage is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}
