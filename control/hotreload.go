// control/hotreload.go
// Author: momentics <momentics@gmail.com>
//
// File watcher that re-reads the settings file and publishes it to a store.

package control

import (
	"context"
	"errors"
	"hash/fnv"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/momentics/hioload-exec/internal/logx"
)

const (
	defaultDebounce    = 250 * time.Millisecond
	restartBackoffBase = 250 * time.Millisecond
	restartBackoffMax  = 5 * time.Second
)

// Watcher reloads a settings file into a SettingsStore whenever it changes.
// Invalid files are logged and ignored; the store keeps the last good
// settings.
type Watcher struct {
	path     string
	store    *SettingsStore
	log      logx.Logger
	debounce time.Duration

	mu       sync.Mutex
	lastHash uint64
}

// NewWatcher creates a watcher for path.
func NewWatcher(path string, store *SettingsStore, log logx.Logger) *Watcher {
	return &Watcher{
		path:     path,
		store:    store,
		log:      log.With(logx.String("component", "settings-watcher")),
		debounce: defaultDebounce,
	}
}

// SetDebounce changes the quiet period after the last file event.
func (w *Watcher) SetDebounce(d time.Duration) {
	if d > 0 {
		w.debounce = d
	}
}

// Reload reads, validates and publishes the file now. Unchanged content is
// not republished.
func (w *Watcher) Reload() error {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return err
	}
	s, err := ParseSettings(data)
	if err != nil {
		return err
	}

	h := hashBytes(data)
	w.mu.Lock()
	unchanged := h != 0 && h == w.lastHash
	w.lastHash = h
	w.mu.Unlock()
	if unchanged {
		w.log.Debug("settings unchanged; skipping publish", logx.String("path", w.path))
		return nil
	}

	w.store.Store(s)
	w.log.Info("settings reloaded", logx.String("path", w.path))
	return nil
}

// Run watches the file's directory until ctx is done. A broken fsnotify
// watcher is recreated with jittered exponential backoff.
func (w *Watcher) Run(ctx context.Context) error {
	dir := filepath.Dir(w.path)
	file := filepath.Base(w.path)

	backoff := restartBackoffBase
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	nextWait := func() time.Duration {
		wait := backoff + time.Duration(rng.Int63n(int64(backoff/2)+1))
		backoff = min(backoff*2, restartBackoffMax)
		return wait
	}

	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	schedule := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(w.debounce, func() {
			if ctx.Err() != nil {
				return
			}
			if err := w.Reload(); err != nil {
				w.log.Warn("settings reload rejected", logx.String("path", w.path), logx.Err(err))
			}
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

		fw, err := fsnotify.NewWatcher()
		if err == nil {
			if err = fw.Add(dir); err != nil {
				_ = fw.Close()
			}
		}
		if err != nil {
			w.log.Warn("settings watch init failed", logx.Err(err), logx.String("dir", dir))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(nextWait()):
				continue
			}
		}

		backoff = restartBackoffBase
		w.log.Debug("settings watcher started", logx.String("dir", dir), logx.String("file", file))

		broken := false
		for !broken {
			select {
			case <-ctx.Done():
				_ = fw.Close()
				return nil
			case ev, ok := <-fw.Events:
				if !ok {
					broken = true
					break
				}
				if strings.EqualFold(filepath.Base(ev.Name), file) &&
					ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					schedule()
				}
			case err, ok := <-fw.Errors:
				if !ok {
					broken = true
					break
				}
				if err == nil {
					continue
				}
				if errors.Is(err, fsnotify.ErrEventOverflow) {
					w.log.Warn("settings watch overflow; forcing reload", logx.String("dir", dir))
					schedule()
					continue
				}
				w.log.Warn("settings watch error", logx.Err(err), logx.String("dir", dir))
			}
		}

		_ = fw.Close()
		wait := nextWait()
		w.log.Warn("settings watcher stopped; restarting", logx.String("dir", dir), logx.Duration("backoff", wait))
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
	}
}

// hashBytes returns a stable 64-bit hash of b. Empty input returns 0.
func hashBytes(b []byte) uint64 {
	if len(b) == 0 {
		return 0
	}
	h := fnv.New64a()
	_, _ = h.Write(b)
	return h.Sum64()
}
