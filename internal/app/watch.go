package app

import (
	"context"

	"github.com/dshills/rewind/internal/watcher"
)

// WatchScript runs the script at path, then again every time it changes,
// until ctx is done. Each run's outcome is passed to fn.
func (app *Application) WatchScript(ctx context.Context, path string, fn func(*Report, error)) error {
	w, err := watcher.New(watcher.WithDebounce(app.cfg.Watch.Debounce))
	if err != nil {
		return NewOperationError("watch", path, err)
	}
	defer w.Close()

	if err := w.Add(path); err != nil {
		return NewOperationError("watch", path, err)
	}

	log := app.logger.WithComponent("watch").WithField("script", path)
	fn(app.RunScript(ctx, path))

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events():
			if !ok {
				return nil
			}
			if ev.Op&watcher.OpRemove != 0 && ev.Op&watcher.OpCreate == 0 {
				log.Warn("script removed, waiting for it to return")
				continue
			}
			log.Debug("change detected (%s), rerunning", ev.Op)
			fn(app.RunScript(ctx, path))
		case err, ok := <-w.Errors():
			if ok {
				log.Warn("watch error: %v", err)
			}
		}
	}
}
