package lang

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDelay coalesces the bursts of events editors emit when saving.
const reloadDelay = 100 * time.Millisecond

// Watch reloads dir with LoadDir whenever a definition file in it changes,
// until ctx is done. Reload errors are logged and the previous
// configuration stays in effect.
func (r *Registry) Watch(ctx context.Context, dir string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return err
	}
	go r.watchLoop(ctx, w, dir)
	return nil
}

func (r *Registry) watchLoop(ctx context.Context, w *fsnotify.Watcher, dir string) {
	defer w.Close()

	timer := time.NewTimer(reloadDelay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if _, err := FormatOf(ev.Name); err != nil {
				continue
			}
			if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) ||
				ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				timer.Reset(reloadDelay)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			r.logger.Warn("language watcher error", "dir", dir, "error", err)

		case <-timer.C:
			if err := r.LoadDir(dir); err != nil {
				r.logger.Warn("language reload failed", "dir", dir, "error", err)
			}
		}
	}
}
