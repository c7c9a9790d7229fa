// Package source fetches the execution-log document and decodes it into a
// header + rows table.
package source

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"runlens/pkg/logx"
)

var (
	// ErrUnknownSource is returned by New for an unsupported kind.
	ErrUnknownSource = errors.New("unknown source kind")
	// ErrTooLarge is returned when a document exceeds the size cap.
	ErrTooLarge = errors.New("document too large")
)

const DefaultMaxBytes = 32 << 20

// Document is a raw fetched file.
type Document struct {
	Name        string // file name; its extension selects the decoder
	ContentType string
	Data        []byte
	Origin      string
	FetchedAt   time.Time
}

// Source produces the current document.
type Source interface {
	Name() string
	Fetch(ctx context.Context) (*Document, error)
}

// Config selects and configures one Source.
type Config struct {
	Kind string // http | file | s3

	URL        string
	Timeout    time.Duration
	RatePerMin float64
	MaxBytes   int64

	Path string

	Object ObjectConfig
}

// New builds the Source described by cfg.
func New(cfg Config, log logx.Logger) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Kind)) {
	case "http", "https", "sharepoint":
		return NewHTTP(cfg.URL, HTTPOptions{Timeout: cfg.Timeout, RatePerMin: cfg.RatePerMin, MaxBytes: cfg.MaxBytes}, log)
	case "file":
		return NewFile(cfg.Path, cfg.MaxBytes)
	case "s3", "minio":
		return NewObject(cfg.Object, cfg.MaxBytes, log)
	default:
		return nil, fmt.Errorf("%w: %q (http|file|s3)", ErrUnknownSource, cfg.Kind)
	}
}

func maxBytesOr(n int64) int64 {
	if n <= 0 {
		return DefaultMaxBytes
	}
	return n
}
