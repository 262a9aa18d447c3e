/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package catalog

import (
	"context"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDelay = 250 * time.Millisecond

// Watch reloads c from dir whenever something under it changes, until ctx
// is cancelled. Bursts of events are collapsed into one reload. A reload that
// fails leaves the previous content in place.
func Watch(ctx context.Context, dir, pattern string, c *Catalog, opts ...LoadOption) error {
	l := &loader{logf: log.Printf}
	for _, opt := range opts {
		opt(l)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(p)
		}
		return nil
	})
	if err != nil {
		_ = w.Close()

		return err
	}

	reload := func() {
		next, err := Load(os.DirFS(dir), pattern, opts...)
		if err != nil {
			l.logf("CATALOG: Reload of %s failed, keeping previous content: %v", dir, err)

			return
		}

		c.Replace(next)

		l.logf("CATALOG: Reloaded %d items from %s", next.Stats().Total, dir)
	}

	go func() {
		defer w.Close()

		var timer *time.Timer

		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}

				if event.Has(fsnotify.Create) {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						_ = w.Add(event.Name)
					}
				}

				if event.Op == fsnotify.Chmod {
					continue
				}

				if timer == nil {
					timer = time.AfterFunc(reloadDelay, reload)
				} else {
					timer.Reset(reloadDelay)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}

				l.logf("CATALOG: Watch error: %v", err)
			}
		}
	}()

	return nil
}
