package importer

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ImportedCallback is called after a debounce window with the programs
// created from dropped seed files.
type ImportedCallback func(created int)

// Watcher monitors the import directory for dropped seed files and
// feeds them through the importer.
type Watcher struct {
	watcher  *fsnotify.Watcher
	importer *Importer
	dir      string
	callback ImportedCallback
	debounce time.Duration

	pending map[string]struct{}
	timer   *time.Timer
	mu      sync.Mutex

	cancel context.CancelFunc
}

// NewWatcher creates a watcher over the given import directory. The
// directory must exist.
func NewWatcher(dir string, importer *Importer, callback ImportedCallback) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}

	return &Watcher{
		watcher:  fw,
		importer: importer,
		dir:      dir,
		callback: callback,
		debounce: 500 * time.Millisecond, // batch rapid drops
		pending:  make(map[string]struct{}),
	}, nil
}

// Start begins watching for file changes
func (w *Watcher) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				w.handleEvent(event)
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				log.Printf("import watcher: %v", err)
			}
		}
	}()
}

// Stop stops watching for file changes
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.watcher.Close()
}

// SetDebounce sets the debounce duration for batching file drops
func (w *Watcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.debounce = d
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !isSeedFile(event.Name) {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[event.Name] = struct{}{}

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	pending := w.pending
	w.pending = make(map[string]struct{})
	w.mu.Unlock()

	ctx := context.Background()
	created := 0
	for path := range pending {
		p, err := w.importer.ImportFile(ctx, path)
		if err != nil {
			log.Printf("import %s: %v", path, err)
			continue
		}
		if p != nil {
			created++
			log.Printf("imported program %s (%s)", p.ProgramID, p.Machine)
		}
	}

	if created > 0 && w.callback != nil {
		w.callback(created)
	}
}
