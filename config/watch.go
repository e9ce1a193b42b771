package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const reloadDelay = 250 * time.Millisecond

// Watch calls fn with the new configuration each time file is modified until
// ctx is done. Invalid configurations are logged and skipped.
func Watch(ctx context.Context, file string, logger zerolog.Logger, fn func(*Config)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	file = filepath.Clean(file)
	// editors often replace the file: watch its directory
	if err := w.Add(filepath.Dir(file)); err != nil {
		return err
	}
	logger = logger.With().Str("component", "config").Str("file", file).Logger()

	var (
		timer  *time.Timer
		reload = make(chan struct{}, 1)
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
		case e, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(e.Name) != file || e.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debug().Str("op", e.Op.String()).Msg("configuration changed")
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(reloadDelay, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})
		case <-reload:
			cfg, err := Load(file)
			if err != nil {
				logger.Error().Err(err).Msg("failed to reload configuration")
				continue
			}
			logger.Info().Msg("configuration reloaded")
			fn(cfg)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error().Err(err).Msg("watcher error")
		}
	}
}
