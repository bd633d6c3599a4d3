// Package inbox turns a directory into a drop folder for voice notes.
// Audio files that land in it are processed one at a time and the result is
// written next to them as <file>.note.json.
package inbox

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/roelfdiedericks/mentalnote/internal/config"
	. "github.com/roelfdiedericks/mentalnote/internal/logging"
	"github.com/roelfdiedericks/mentalnote/internal/pipeline"
)

// SidecarSuffix is appended to an audio file name for its result.
const SidecarSuffix = ".note.json"

// DefaultDebounce is how long a file must be quiet before it is picked up.
const DefaultDebounce = 2 * time.Second

var audioExtensions = map[string]bool{
	".webm": true, ".ogg": true, ".oga": true, ".opus": true,
	".mp3": true, ".m4a": true, ".wav": true, ".mp4": true,
	".mpeg": true, ".mpga": true, ".flac": true,
}

// Handler processes one audio file.
type Handler func(ctx context.Context, path string) (*pipeline.Note, error)

// IsAudio reports whether path has a supported audio extension.
func IsAudio(path string) bool {
	return audioExtensions[strings.ToLower(filepath.Ext(path))]
}

// SidecarPath returns where the result for path is written.
func SidecarPath(path string) string {
	return path + SidecarSuffix
}

// Watcher monitors a directory for new recordings.
type Watcher struct {
	dir      string
	debounce time.Duration
	handle   Handler

	mu      sync.Mutex
	timers  map[string]*time.Timer
	queued  map[string]bool
	queue   chan string
	stopped bool
}

// NewWatcher creates a watcher for dir. A debounce of 0 uses DefaultDebounce.
func NewWatcher(dir string, debounce time.Duration, handle Handler) (*Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("inbox: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("inbox: %s is not a directory", dir)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		dir:      dir,
		debounce: debounce,
		handle:   handle,
		timers:   make(map[string]*time.Timer),
		queued:   make(map[string]bool),
		queue:    make(chan string, 64),
	}, nil
}

// Run scans the directory for unprocessed files, then watches it until ctx
// is cancelled. Files are handled sequentially on a single worker.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("inbox: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("inbox: watch %s: %w", w.dir, err)
	}
	L_info("inbox: watching", "dir", w.dir, "debounce", w.debounce)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.worker(ctx)
	}()

	w.scan()

	for {
		select {
		case <-ctx.Done():
			w.stop()
			wg.Wait()
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				w.stop()
				wg.Wait()
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-fsw.Errors:
			if !ok {
				continue
			}
			L_warn("inbox: watcher error", "error", err)
		}
	}
}

// scan queues every audio file that has no up-to-date sidecar.
func (w *Watcher) scan() {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		L_warn("inbox: scan failed", "dir", w.dir, "error", err)
		return
	}
	for _, e := range entries {
		if e.IsDir() || !IsAudio(e.Name()) {
			continue
		}
		path := filepath.Join(w.dir, e.Name())
		if needsProcessing(path) {
			w.enqueue(path)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !IsAudio(event.Name) {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	L_trace("inbox: event", "path", event.Name, "op", event.Op.String())
	w.schedule(event.Name)
}

// schedule (re)starts the quiet timer for path.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		w.enqueue(path)
	})
}

func (w *Watcher) enqueue(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped || w.queued[path] {
		return
	}
	select {
	case w.queue <- path:
		w.queued[path] = true
	default:
		L_warn("inbox: queue full, file will be picked up on next start", "path", path)
	}
}

func (w *Watcher) stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
}

func (w *Watcher) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case path := <-w.queue:
			w.mu.Lock()
			delete(w.queued, path)
			w.mu.Unlock()
			w.process(ctx, path)
		}
	}
}

func (w *Watcher) process(ctx context.Context, path string) {
	if !needsProcessing(path) {
		L_debug("inbox: already processed", "path", path)
		return
	}

	start := time.Now()
	L_info("inbox: processing", "file", filepath.Base(path))
	note, err := w.handle(ctx, path)
	if err == nil && note == nil {
		err = fmt.Errorf("no result")
	}
	if err != nil {
		L_error("inbox: processing failed", "file", filepath.Base(path), "error", err)
		return
	}

	data, err := json.MarshalIndent(note, "", "  ")
	if err != nil {
		L_error("inbox: encode result", "file", filepath.Base(path), "error", err)
		return
	}
	if err := config.WriteFileAtomic(SidecarPath(path), append(data, '\n'), 0600); err != nil {
		L_error("inbox: write result", "file", filepath.Base(path), "error", err)
		return
	}
	L_elapsed(start, "inbox: done", "file", filepath.Base(path), "title", note.Result.Title, "page", note.PageURL)
}

// needsProcessing reports whether path exists and its sidecar is missing or
// older than the recording.
func needsProcessing(path string) bool {
	audio, err := os.Stat(path)
	if err != nil || audio.IsDir() {
		return false
	}
	sidecar, err := os.Stat(SidecarPath(path))
	if err != nil {
		return true
	}
	return sidecar.ModTime().Before(audio.ModTime())
}
