package source

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"runlens/pkg/logx"
)

// WatchFile calls fn after path changes, debounced by delay (default
// 500ms). The parent directory is watched so atomic replaces are seen.
// It blocks until ctx is done.
func WatchFile(ctx context.Context, path string, delay time.Duration, log logx.Logger, fn func()) error {
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	defer w.Close()

	dir, base := filepath.Dir(path), filepath.Base(path)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return fmt.Errorf("watch %s: watcher closed", path)
			}
			if filepath.Base(ev.Name) != base || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(delay, func() {
				if ctx.Err() == nil {
					fn()
				}
			})
			mu.Unlock()
		case err, ok := <-w.Errors:
			if !ok {
				return fmt.Errorf("watch %s: watcher closed", path)
			}
			log.Warn("file watch error", logx.String("path", path), logx.Err(err))
		}
	}
}
