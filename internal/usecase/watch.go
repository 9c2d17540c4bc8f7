package usecase

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"adhan-manager/internal/logging"
)

const (
	watchDebounce      = 250 * time.Millisecond
	restartBackoffBase = 250 * time.Millisecond
	restartBackoffMax  = 5 * time.Second
)

// WatchConfig calls reload whenever the file at path changes. It watches the
// parent directory so editors that replace the file by rename are caught.
// It blocks until ctx is done.
func WatchConfig(ctx context.Context, path string, reload func() error) error {
	return watchConfig(ctx, path, reload, nil)
}

// watchConfig is WatchConfig with a hook called each time the directory
// watch is in place.
func watchConfig(ctx context.Context, path string, reload func() error, ready func()) error {
	dir := filepath.Dir(path)
	file := filepath.Base(path)
	backoff := restartBackoffBase

	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	debounce := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		logging.Debugf("config change detected: %s", path)
		timer = time.AfterFunc(watchDebounce, func() {
			if ctx.Err() != nil {
				return
			}
			if err := reload(); err != nil {
				logging.Warnf("config reload failed: %v", err)
				return
			}
			logging.Infof("config reloaded from %s", path)
		})
	}
	defer func() {
		timerMu.Lock()
		if timer != nil {
			timer.Stop()
		}
		timerMu.Unlock()
	}()

	for {
		if ctx.Err() != nil {
			return nil
		}

		w, err := fsnotify.NewWatcher()
		if err == nil {
			if err = w.Add(dir); err != nil {
				_ = w.Close()
			}
		}
		if err != nil {
			logging.Warnf("config watch init failed for %s: %v", dir, err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			if backoff < restartBackoffMax {
				backoff *= 2
			}
			continue
		}
		backoff = restartBackoffBase
		logging.Debugf("watching %s", path)
		if ready != nil {
			ready()
		}

		if done := watchLoop(ctx, w, file, debounce); done {
			_ = w.Close()
			return nil
		}
		_ = w.Close()
		logging.Warnf("config watcher closed; restarting")
	}
}

// watchLoop returns true when ctx ended and false when the watcher broke.
func watchLoop(ctx context.Context, w *fsnotify.Watcher, file string, onChange func()) bool {
	for {
		select {
		case <-ctx.Done():
			return true
		case ev, ok := <-w.Events:
			if !ok {
				return false
			}
			if !strings.EqualFold(filepath.Base(ev.Name), file) {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove) {
				onChange()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return false
			}
			logging.Warnf("config watch error: %v", err)
		}
	}
}
