package run

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 250 * time.Millisecond

// watchConfig reloads hooks when the config file changes. The parent directory
// is watched because editors often replace the file instead of writing it.
func (s *Server) watchConfig(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		s.logger.Warnf("config watch disabled: %v", err)
		return nil
	}
	defer w.Close()

	path, err := filepath.Abs(s.cfg.Paths.ConfigPath)
	if err != nil {
		s.logger.Warnf("config watch disabled: %v", err)
		return nil
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		s.logger.Warnf("config watch disabled: %v", err)
		return nil
	}
	s.logger.Debugf("watching %s", path)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
			} else {
				timer.Reset(reloadDebounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			s.logger.Info("config changed, reloading hooks")
			if err := s.Reload(); err != nil {
				s.logger.Errorf("reload: %v", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Warnf("config watch: %v", err)
		}
	}
}
