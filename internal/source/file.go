package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileSource reads the document from a local path.
type FileSource struct {
	path     string
	maxBytes int64
}

func NewFile(path string, maxBytes int64) (*FileSource, error) {
	if path == "" {
		return nil, fmt.Errorf("source.path is required for file source")
	}
	return &FileSource{path: path, maxBytes: maxBytesOr(maxBytes)}, nil
}

func (s *FileSource) Name() string { return "file" }

func (s *FileSource) Path() string { return s.path }

func (s *FileSource) Fetch(ctx context.Context) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	st, err := os.Stat(s.path)
	if err != nil {
		return nil, err
	}
	if st.Size() > s.maxBytes {
		return nil, fmt.Errorf("%s: %w", s.path, ErrTooLarge)
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	return &Document{Name: filepath.Base(s.path), Data: data, Origin: s.Name(), FetchedAt: time.Now()}, nil
}
