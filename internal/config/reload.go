// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	xglog "github.com/ManuGH/v2m3u/internal/log"
)

const reloadDebounce = 500 * time.Millisecond

// Holder holds the active configuration and reloads it from file on demand
// or when the file changes. A configuration that fails to load or validate
// never replaces the active one.
type Holder struct {
	mu      sync.RWMutex
	current AppConfig
	loader  *Loader
	watcher *fsnotify.Watcher
	logger  zerolog.Logger

	listenersMu sync.RWMutex
	listeners   []chan<- AppConfig
}

// NewHolder creates a Holder with an already loaded initial configuration.
func NewHolder(initial AppConfig, loader *Loader) *Holder {
	return &Holder{
		current: initial,
		loader:  loader,
		logger:  xglog.WithComponent("config"),
	}
}

// Get returns the current configuration.
func (h *Holder) Get() AppConfig {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Reload loads and validates the configuration again and swaps it in.
func (h *Holder) Reload(_ context.Context) error {
	h.logger.Info().Str(xglog.FieldEvent, "config.reload_start").Msg("reloading configuration")

	next, err := h.loader.Load()
	if err != nil {
		h.logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "config.reload_failed").
			Msg("failed to load new configuration, keeping current")
		return fmt.Errorf("load config: %w", err)
	}

	h.mu.Lock()
	prev := h.current
	h.current = next
	h.mu.Unlock()

	h.logChanges(prev, next)
	h.notifyListeners(next)

	h.logger.Info().Str(xglog.FieldEvent, "config.reload_success").Msg("configuration reloaded")
	return nil
}

// StartWatcher watches the configuration file until ctx is done. Without a
// file it does nothing. The parent directory is watched so that editors
// replacing the file by rename are noticed.
func (h *Holder) StartWatcher(ctx context.Context) error {
	path := h.loader.ConfigPath()
	if path == "" {
		h.logger.Info().
			Str(xglog.FieldEvent, "config.watcher_disabled").
			Msg("config file watcher disabled (no config file)")
		return nil
	}
	path = filepath.Clean(path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch config dir: %w", err)
	}
	h.watcher = watcher

	h.logger.Info().
		Str(xglog.FieldEvent, "config.watcher_started").
		Str(xglog.FieldPath, path).
		Msg("watching config file for changes")

	go h.watchLoop(ctx, watcher, path)
	return nil
}

func (h *Holder) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, path string) {
	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
		_ = watcher.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info().Str(xglog.FieldEvent, "config.watcher_stopped").Msg("config watcher stopped")
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			h.logger.Debug().
				Str(xglog.FieldEvent, "config.file_changed").
				Str("op", event.Op.String()).
				Msg("config file changed")

			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(reloadDebounce, func() {
				if ctx.Err() != nil {
					return
				}
				if err := h.Reload(ctx); err != nil {
					h.logger.Error().
						Err(err).
						Str(xglog.FieldEvent, "config.auto_reload_failed").
						Msg("automatic config reload failed")
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().
				Err(err).
				Str(xglog.FieldEvent, "config.watcher_error").
				Msg("config watcher error")
		}
	}
}

// Stop closes the file watcher, if any.
func (h *Holder) Stop() {
	if h.watcher != nil {
		_ = h.watcher.Close()
	}
}

// RegisterListener registers a channel that receives every successfully
// reloaded configuration. Sends never block; a full channel misses updates.
func (h *Holder) RegisterListener(ch chan<- AppConfig) {
	h.listenersMu.Lock()
	defer h.listenersMu.Unlock()
	h.listeners = append(h.listeners, ch)
}

func (h *Holder) notifyListeners(cfg AppConfig) {
	h.listenersMu.RLock()
	defer h.listenersMu.RUnlock()
	for _, ch := range h.listeners {
		select {
		case ch <- cfg:
		default:
			h.logger.Warn().
				Str(xglog.FieldEvent, "config.listener_skip").
				Msg("skipped notifying listener (channel full)")
		}
	}
}

func (h *Holder) logChanges(prev, next AppConfig) {
	if !slices.Equal(prev.Origins, next.Origins) {
		h.logger.Info().
			Strs("old", maskAll(prev.Origins)).
			Strs("new", maskAll(next.Origins)).
			Msg("config changed: origins")
	}
	if !slices.Equal(prev.GuideSources, next.GuideSources) {
		h.logger.Info().
			Strs("old", maskAll(prev.GuideSources)).
			Strs("new", maskAll(next.GuideSources)).
			Msg("config changed: guideSources")
	}
	if prev.DedupPolicy != next.DedupPolicy {
		h.logger.Info().Str("old", prev.DedupPolicy).Str("new", next.DedupPolicy).Msg("config changed: dedupPolicy")
	}
	if prev.OutputDir != next.OutputDir {
		h.logger.Info().Str("old", prev.OutputDir).Str("new", next.OutputDir).Msg("config changed: outputDir")
	}
	if prev.Server.RefreshInterval != next.Server.RefreshInterval {
		h.logger.Info().
			Dur("old", prev.Server.RefreshInterval).
			Dur("new", next.Server.RefreshInterval).
			Msg("config changed: server.refreshInterval")
	}
}
