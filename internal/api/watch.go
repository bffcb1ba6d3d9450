package api

import (
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sprite-ai/trawl/internal/repo"
)

// watcher observes the repository tree and announces external artifact
// modifications over the websocket hub. Bursts of events for the same file
// (editors write, rename, chmod in quick succession) are coalesced within
// the debounce window.
type watcher struct {
	fs   *fsnotify.Watcher
	repo *repo.Repo
	hub  *hub

	debounce time.Duration
	mu       sync.Mutex
	pending  map[string]struct{}
	timer    *time.Timer

	done chan struct{}
}

func newWatcher(r *repo.Repo, h *hub, debounce time.Duration) (*watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}

	w := &watcher{
		fs:       fsw,
		repo:     r,
		hub:      h,
		debounce: debounce,
		pending:  make(map[string]struct{}),
		done:     make(chan struct{}),
	}
	if err := w.addTree(r.Root()); err != nil {
		fsw.Close()
		return nil, err
	}

	go w.loop()
	return w, nil
}

// addTree registers every non-excluded directory under root.
func (w *watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if skipDir(d.Name()) && path != root {
			return filepath.SkipDir
		}
		return w.fs.Add(path)
	})
}

func skipDir(name string) bool {
	switch name {
	case ".git", "node_modules", "target", "dist", ".trawl":
		return true
	}
	return false
}

func (w *watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			log.Printf("watcher: %v", err)
		}
	}
}

func (w *watcher) handle(ev fsnotify.Event) {
	name := filepath.Base(ev.Name)
	if skipDir(name) || strings.HasSuffix(ev.Name, ".tmp_save") {
		return
	}

	// New directories need watching too.
	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			_ = w.addTree(ev.Name)
			return
		}
	}

	if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
		return
	}

	// A rename fires on the old name, which usually no longer exists; the
	// new name arrives as its own Create event. Only announce paths a
	// consumer can still read.
	if ev.Op.Has(fsnotify.Rename) {
		if _, err := os.Stat(ev.Name); err != nil {
			return
		}
	}

	rel, err := filepath.Rel(w.repo.Root(), ev.Name)
	if err != nil || strings.HasPrefix(rel, "..") {
		return
	}

	w.mu.Lock()
	w.pending[filepath.ToSlash(rel)] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
	w.mu.Unlock()
}

func (w *watcher) flush() {
	w.mu.Lock()
	paths := w.pending
	w.pending = make(map[string]struct{})
	w.timer = nil
	w.mu.Unlock()

	for path := range paths {
		w.hub.broadcast(wsMsgArtifactChanged, artifactEvent{Path: path})
	}
}

func (w *watcher) stop() {
	close(w.done)
	w.fs.Close()

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()
}
