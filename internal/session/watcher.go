package session

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultSettle is how long a file must stay quiet before a change is
// reported. Editors and LaTeX builds often write a file several times.
const DefaultSettle = 200 * time.Millisecond

// Watcher reports changes to a single file. It watches the parent
// directory so that files replaced by rename are still seen.
type Watcher struct {
	path   string
	settle time.Duration
	fn     func()
	w      *fsnotify.Watcher

	mu    sync.Mutex
	timer *time.Timer
	done  chan struct{}
}

// Watch starts watching path and calls fn, from the watcher goroutine,
// once per burst of changes. fn is usually Session.RequestReload.
func Watch(ctx context.Context, path string, settle time.Duration, fn func()) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	if settle <= 0 {
		settle = DefaultSettle
	}
	w := &Watcher{path: abs, settle: settle, fn: fn, w: fw, done: make(chan struct{})}
	go w.loop(ctx)
	return w, nil
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			w.stop()
			return
		case ev, ok := <-w.w.Events:
			if !ok {
				w.stop()
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				w.kick()
			}
		case err, ok := <-w.w.Errors:
			if !ok {
				w.stop()
				return
			}
			log.Printf("watch %s: %v", w.path, err)
		}
	}
}

func (w *Watcher) kick() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.settle, w.fn)
}

func (w *Watcher) stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	err := w.w.Close()
	<-w.done
	return err
}
