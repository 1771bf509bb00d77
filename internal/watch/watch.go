// Package watch keeps an almanac in sync with a directory of kernel files.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/litescript/ls-ephem/internal/ephem"
	"github.com/litescript/ls-ephem/internal/logging"
)

// Loader is the part of an almanac the watcher drives.
type Loader interface {
	LoadKernel(path string) (ephem.KernelHandle, error)
	Unload(h ephem.KernelHandle) error
}

// Action says what the watcher did with a file.
type Action int

const (
	Loaded Action = iota
	Reloaded
	Unloaded
	Failed
)

func (a Action) String() string {
	switch a {
	case Loaded:
		return "loaded"
	case Reloaded:
		return "reloaded"
	case Unloaded:
		return "unloaded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// Change reports one applied file change.
type Change struct {
	Action Action
	Path   string
	Handle ephem.KernelHandle
	Err    error
}

// DefaultExtensions are the file suffixes treated as kernels.
var DefaultExtensions = []string{".bsp", ".bpc", ".bsp.zst", ".bpc.zst"}

// Config configures a Watcher.
type Config struct {
	Dir        string
	Debounce   time.Duration
	Extensions []string
	Logger     *logging.Logger
}

// Watcher loads kernels as they appear in a directory, reloads them when
// rewritten and unloads them when removed.
type Watcher struct {
	dir      string
	debounce time.Duration
	exts     []string
	log      *logging.Logger
	loader   Loader
	changes  chan Change
	fw       *fsnotify.Watcher
	handles  map[string]ephem.KernelHandle
}

// New creates a watcher on cfg.Dir. Nothing is loaded until Run.
func New(l Loader, cfg Config) (*Watcher, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("watch: no directory")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 100 * time.Millisecond
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = DefaultExtensions
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	if err := fw.Add(cfg.Dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", cfg.Dir, err)
	}
	return &Watcher{
		dir:      cfg.Dir,
		debounce: cfg.Debounce,
		exts:     cfg.Extensions,
		log:      cfg.Logger,
		loader:   l,
		changes:  make(chan Change, 16),
		fw:       fw,
		handles:  make(map[string]ephem.KernelHandle),
	}, nil
}

// Changes delivers applied changes. It is closed when Run returns.
func (w *Watcher) Changes() <-chan Change {
	return w.changes
}

// Run loads the kernels already in the directory, in name order, then
// applies file events until ctx is done. Kernels loaded by the watcher stay
// loaded when it stops.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.changes)
	defer w.fw.Close()

	if err := w.scan(ctx); err != nil {
		return err
	}

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			if !w.isKernel(ev.Name) {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				pending[ev.Name] = time.Now()
			}

		case <-ticker.C:
			now := time.Now()
			var due []string
			for file, t := range pending {
				if now.Sub(t) >= w.debounce {
					due = append(due, file)
				}
			}
			sort.Strings(due)
			for _, file := range due {
				delete(pending, file)
				if !w.apply(ctx, file) {
					return nil
				}
			}

		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch %s: %v", w.dir, err)
		}
	}
}

func (w *Watcher) scan(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !w.isKernel(e.Name()) {
			continue
		}
		if !w.apply(ctx, filepath.Join(w.dir, e.Name())) {
			return nil
		}
	}
	return nil
}

// apply brings the almanac in line with the file's current state. It
// returns false when ctx ended while reporting.
func (w *Watcher) apply(ctx context.Context, path string) bool {
	old, had := w.handles[path]
	if _, err := os.Stat(path); err != nil {
		if !had {
			return true
		}
		delete(w.handles, path)
		c := Change{Action: Unloaded, Path: path, Handle: old}
		if c.Err = w.loader.Unload(old); c.Err != nil {
			c.Action = Failed
		}
		w.log.Info("unloaded %s", filepath.Base(path))
		return w.emit(ctx, c)
	}

	h, err := w.loader.LoadKernel(path)
	if err != nil {
		w.log.Warn("load %s: %v", filepath.Base(path), err)
		return w.emit(ctx, Change{Action: Failed, Path: path, Err: err})
	}
	w.handles[path] = h
	c := Change{Action: Loaded, Path: path, Handle: h}
	if had {
		c.Action = Reloaded
		if err := w.loader.Unload(old); err != nil {
			w.log.Warn("unload previous %s: %v", filepath.Base(path), err)
		}
	}
	w.log.Info("%s %s as %s", c.Action, filepath.Base(path), h)
	return w.emit(ctx, c)
}

func (w *Watcher) emit(ctx context.Context, c Change) bool {
	select {
	case w.changes <- c:
		return true
	case <-ctx.Done():
		return false
	}
}

func (w *Watcher) isKernel(name string) bool {
	base := strings.ToLower(filepath.Base(name))
	if strings.HasPrefix(base, ".") {
		return false
	}
	for _, ext := range w.exts {
		if strings.HasSuffix(base, ext) {
			return true
		}
	}
	return false
}
