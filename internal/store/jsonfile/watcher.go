package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

const (
	debounceDelay   = 50 * time.Millisecond
	eventBufferSize = 100
)

// ItemEvent reports that some file of an item changed on disk.
type ItemEvent struct {
	ID        string
	File      string
	Timestamp time.Time
}

// ItemWatcher watches the items directory and each item directory beneath
// it. fsnotify is not recursive, so new item directories are added as they
// appear.
type ItemWatcher struct {
	itemsDir string
	watcher  *fsnotify.Watcher

	mu          sync.Mutex
	subscribers map[string][]chan ItemEvent // id pattern -> channels
	debounce    map[string]*time.Timer      // id -> timer
	lastFile    map[string]string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewItemWatcher starts watching itemsDir, creating it if needed.
func NewItemWatcher(itemsDir string) (*ItemWatcher, error) {
	if err := os.MkdirAll(itemsDir, 0o755); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := watcher.Add(itemsDir); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	entries, err := os.ReadDir(itemsDir)
	if err != nil {
		_ = watcher.Close()
		return nil, err
	}
	for _, e := range entries {
		if e.IsDir() {
			_ = watcher.Add(filepath.Join(itemsDir, e.Name()))
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &ItemWatcher{
		itemsDir:    itemsDir,
		watcher:     watcher,
		subscribers: make(map[string][]chan ItemEvent),
		debounce:    make(map[string]*time.Timer),
		lastFile:    make(map[string]string),
		ctx:         ctx,
		cancel:      cancel,
	}

	w.wg.Add(1)
	go w.run()

	return w, nil
}

// Watch returns a channel receiving events for item ids matching pattern.
// Patterns use doublestar syntax; "" and "*" match every item. The channel
// is closed when ctx is done or the watcher is closed.
func (w *ItemWatcher) Watch(ctx context.Context, pattern string) (<-chan ItemEvent, error) {
	if pattern != "" && !doublestar.ValidatePattern(pattern) {
		return nil, doublestar.ErrBadPattern
	}

	ch := make(chan ItemEvent, eventBufferSize)

	w.mu.Lock()
	w.subscribers[pattern] = append(w.subscribers[pattern], ch)
	w.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			w.unsubscribe(pattern, ch)
		case <-w.ctx.Done():
		}
	}()

	return ch, nil
}

// Close stops watching and closes all subscriber channels.
func (w *ItemWatcher) Close() error {
	w.cancel()

	w.mu.Lock()
	for _, timer := range w.debounce {
		timer.Stop()
	}
	for _, subs := range w.subscribers {
		for _, ch := range subs {
			close(ch)
		}
	}
	w.subscribers = make(map[string][]chan ItemEvent)
	w.mu.Unlock()

	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

func (w *ItemWatcher) unsubscribe(pattern string, ch chan ItemEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()

	subs := w.subscribers[pattern]
	for i, sub := range subs {
		if sub == ch {
			w.subscribers[pattern] = append(subs[:i], subs[i+1:]...)
			close(ch)
			break
		}
	}
	if len(w.subscribers[pattern]) == 0 {
		delete(w.subscribers, pattern)
	}
}

func (w *ItemWatcher) run() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *ItemWatcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}

	rel, err := filepath.Rel(w.itemsDir, event.Name)
	if err != nil {
		return
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")

	var id, file string
	switch len(parts) {
	case 1:
		if !isDir(event.Name) {
			return
		}
		if event.Has(fsnotify.Create) {
			_ = w.watcher.Add(event.Name)
		}
		id = parts[0]
	case 2:
		id, file = parts[0], parts[1]
		if strings.HasSuffix(file, TmpSuffix) || strings.HasSuffix(file, ".lock") {
			return
		}
	default:
		return
	}

	w.mu.Lock()
	if timer, exists := w.debounce[id]; exists {
		timer.Stop()
	}
	w.lastFile[id] = file
	w.debounce[id] = time.AfterFunc(debounceDelay, func() {
		w.notify(id)
	})
	w.mu.Unlock()
}

func (w *ItemWatcher) notify(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	event := ItemEvent{ID: id, File: w.lastFile[id], Timestamp: time.Now()}

	for pattern, subs := range w.subscribers {
		if !matchesPattern(pattern, id) {
			continue
		}
		for _, ch := range subs {
			select {
			case ch <- event:
			default:
				// drop when the subscriber is behind
			}
		}
	}

	delete(w.debounce, id)
	delete(w.lastFile, id)
}

func matchesPattern(pattern, id string) bool {
	if pattern == "" || pattern == "*" {
		return true
	}
	ok, err := doublestar.Match(pattern, id)
	return err == nil && ok
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
