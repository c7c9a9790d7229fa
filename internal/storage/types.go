package storage

import (
	"errors"
	"time"
)

var (
	ErrDisabled = errors.New("storage disabled")
	// ErrNotFound is returned when the snapshot slot is empty.
	ErrNotFound = errors.New("storage: not found")
)

// Config configures storage.
//
// Driver values:
//   - "file": dependency-free file backend (json + jsonl)
//   - "sqlite": SQLite database file (build tag sqlite)
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Blob is a raw source document as it was fetched or uploaded.
type Blob struct {
	ID        string
	Name      string // file name, used to pick the decoder
	Origin    string // source name or "upload"
	FetchedAt time.Time
	Data      []byte
}

// AuditEntry records an operator action (upload, refresh, export).
type AuditEntry struct {
	At            time.Time `json:"at"`
	ActorID       int64     `json:"actor_id"`
	ActorUsername string    `json:"actor_username,omitempty"`
	ChatID        int64     `json:"chat_id"`
	Action        string    `json:"action"`
	Target        string    `json:"target,omitempty"`
	Error         string    `json:"error,omitempty"`
	TookMS        int64     `json:"took_ms"`
}
