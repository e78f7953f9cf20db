package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// WatchCatalog reloads the catalog at path whenever it changes and hands
// each successfully parsed version to onChange. Parse failures go to onErr
// and the previous catalog stays in effect. The parent directory is watched
// because editors usually replace files rather than write them in place.
// WatchCatalog blocks until ctx is done.
func WatchCatalog(ctx context.Context, path string, onChange func(*Catalog), onErr func(error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("catalog watcher: %w", err)
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			c, err := LoadCatalog(abs)
			if err != nil {
				if onErr != nil {
					onErr(err)
				}
				continue
			}
			onChange(c)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			if onErr != nil {
				onErr(err)
			}
		}
	}
}
