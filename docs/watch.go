package docs

import (
	contextpkg "context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
)

const reloadDelay = 500 * time.Millisecond

var (
	watchedBuiltin     = []string{"modules", "modules/**", "config"}
	watchedCollections = []string{"*", "*/*", "*/*/plugins", "*/*/plugins/modules", "*/*/plugins/modules/**", "*/*/meta"}
)

// Watch reloads the library whenever a file below one of its roots changes,
// until context is done. It only makes sense on the OS filesystem.
func (self *FileLibrary) Watch(context contextpkg.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Errorf("creating watcher: %w", err)
	}

	if self.options.Builtin != "" {
		self.watchTree(watcher, self.options.Builtin, watchedBuiltin)
	}
	for _, root := range self.options.Collections {
		self.watchTree(watcher, root, watchedCollections)
	}

	go self.watch(context, watcher)
	return nil
}

func (self *FileLibrary) watch(context contextpkg.Context, watcher *fsnotify.Watcher) {
	defer watcher.Close()

	var lock sync.Mutex
	var timer *time.Timer
	reload := func() {
		lock.Lock()
		defer lock.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(reloadDelay, func() {
			if err := self.Load(context); err != nil {
				log.Errorf("reloading documentation: %s", err.Error())
			}
		})
	}

	for {
		select {
		case <-context.Done():
			lock.Lock()
			if timer != nil {
				timer.Stop()
			}
			lock.Unlock()
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			log.Debugf("documentation changed: %s", event.String())
			if event.Has(fsnotify.Create) {
				if info, err := self.fs.Stat(event.Name); err == nil && info.IsDir() {
					if err := watcher.Add(event.Name); err != nil {
						log.Warningf("watching %s: %s", event.Name, err.Error())
					}
				}
			}
			reload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Warningf("watcher: %s", err.Error())
		}
	}
}

func (self *FileLibrary) watchTree(watcher *fsnotify.Watcher, root string, patterns []string) {
	err := afero.Walk(self.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil || !info.IsDir() {
			return nil
		}
		relative, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		if relative != "." && !matchesAny(patterns, filepath.ToSlash(relative)) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			log.Warningf("watching %s: %s", path, err.Error())
		}
		return nil
	})
	if err != nil {
		log.Warningf("watching %s: %s", root, err.Error())
	}
}

func matchesAny(patterns []string, path string) bool {
	for _, pattern := range patterns {
		if match, _ := doublestar.Match(pattern, path); match {
			return true
		}
	}
	return false
}
