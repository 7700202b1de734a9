package transform

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// WatchDelay is how long Watch waits for changes to settle before calling
// back. WatchMaxDelay bounds the wait when changes never settle.
var (
	WatchDelay    = 200 * time.Millisecond
	WatchMaxDelay = time.Second
)

// Watch calls fn every time any of files changes until ctx is done. Parent
// directories are watched rather than files themselves, so editors which
// replace files on save are noticed too. Bursts of changes result in a single
// call. fn runs on the caller's goroutine.
func Watch(ctx context.Context, files []string, log *zap.Logger, fn func()) error {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("watch")

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("unable to create watcher: %w", err)
	}
	defer w.Close()

	watched := make(map[string]bool, len(files))
	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		watched[abs] = true
		if dir := filepath.Dir(abs); !dirs[dir] {
			if err := w.Add(dir); err != nil {
				return fmt.Errorf("unable to watch %s: %w", dir, err)
			}
			dirs[dir] = true
		}
	}
	log.Debug("Watching", zap.Strings("files", files))

	var (
		timer    *time.Timer
		fire     <-chan time.Time
		deadline time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !watched[filepath.Clean(ev.Name)] || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			log.Debug("Change detected", zap.String("file", ev.Name), zap.Stringer("op", ev.Op))
			delay := WatchDelay
			if fire == nil {
				deadline = time.Now().Add(WatchMaxDelay)
			} else if left := time.Until(deadline); left < delay {
				delay = max(left, 0)
			}
			if timer == nil {
				timer = time.NewTimer(delay)
			} else {
				timer.Reset(delay)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			fn()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("Watcher error", zap.Error(err))
		}
	}
}
