package store

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/vanzue/toptoolbar-sub001/internal/logging"
)

// Watcher invalidates a cache when the workspace documents change on
// disk. Raw fsnotify events arrive in bursts (several per logical save),
// so they only restart a quiescence timer; onChange fires once per burst
// after debounce elapses with no further activity.
type Watcher struct {
	fs       *fsnotify.Watcher
	files    map[string]bool
	debounce time.Duration
	onChange func()
	reset    chan struct{}
	done     chan struct{}
	log      *logging.Logger
}

// NewWatcher watches the named files inside dir. onChange runs on the
// watcher's own goroutine; callers guard their state with their own lock.
func NewWatcher(dir string, files []string, debounce time.Duration, onChange func(), log *logging.Logger) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fs.Add(dir); err != nil {
		fs.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	watched := make(map[string]bool, len(files))
	for _, f := range files {
		watched[f] = true
	}

	w := &Watcher{
		fs:       fs,
		files:    watched,
		debounce: debounce,
		onChange: onChange,
		reset:    make(chan struct{}, 1),
		done:     make(chan struct{}),
		log:      log,
	}
	go w.eventLoop()
	go w.debounceLoop()
	return w, nil
}

// Close stops both loops and releases the underlying watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fs.Close()
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !w.files[filepath.Base(ev.Name)] {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			select {
			case w.reset <- struct{}{}:
			default:
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn("file watcher error", zap.Error(err))
		case <-w.done:
			return
		}
	}
}

// debounceLoop owns the single debounce timer. Every filtered event
// restarts it; the callback fires only after a full quiet interval.
func (w *Watcher) debounceLoop() {
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	armed := false

	for {
		select {
		case <-w.reset:
			if armed && !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)
			armed = true
		case <-timer.C:
			armed = false
			w.onChange()
		case <-w.done:
			if armed {
				timer.Stop()
			}
			return
		}
	}
}
