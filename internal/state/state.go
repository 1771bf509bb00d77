// Package state holds the kernel pool: the set of loaded kernels, their
// catalogs and the frame graph built from them.
//
// The pool is published copy-on-write. Readers take one Snapshot and keep
// it for the whole query; writers build the next snapshot privately and
// swap it in. Readers never lock.
package state

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/litescript/ls-ephem/internal/catalog"
	"github.com/litescript/ls-ephem/internal/daf"
	"github.com/litescript/ls-ephem/internal/frames"
	"github.com/litescript/ls-ephem/internal/interp"
)

// ErrNotLoaded is returned when a kernel is not part of the pool.
var ErrNotLoaded = errors.New("kernel not loaded")

// EventType represents the type of pool change.
type EventType string

const (
	EventLoaded   EventType = "LOADED"
	EventUnloaded EventType = "UNLOADED"
	EventMasked   EventType = "MASKED"
)

// Event represents a change in the kernel pool.
type Event struct {
	Type      EventType        `json:"type"`
	Timestamp time.Time        `json:"timestamp"`
	Kernel    catalog.KernelID `json:"kernel"`
	Handle    uuid.UUID        `json:"handle"`
	Path      string           `json:"path,omitempty"`
	Segments  int              `json:"segments,omitempty"`
	Detail    string           `json:"detail,omitempty"`
}

// Kernel is one loaded kernel file.
type Kernel struct {
	ID       catalog.KernelID
	Handle   uuid.UUID
	Path     string
	Size     int
	LoadedAt time.Time
	Catalog  *catalog.Catalog
}

// Kind returns the kernel's file kind.
func (k Kernel) Kind() daf.Kind {
	return k.Catalog.Kind
}

// File returns the kernel's backing file.
func (k Kernel) File() *daf.File {
	return k.Catalog.File
}

// Snapshot is an immutable view of the pool. Never modify a published
// snapshot; derive a new one with WithKernel or WithoutKernel.
type Snapshot struct {
	Seq         uint64
	PublishedAt time.Time
	Kernels     []Kernel // load order
	SPK         *catalog.Stack
	PCK         *catalog.Stack
	Graph       *frames.Graph
	Events      []Event // oldest first
}

// Kernel returns the loaded kernel with the given handle.
func (s *Snapshot) Kernel(h uuid.UUID) (Kernel, bool) {
	for _, k := range s.Kernels {
		if k.Handle == h {
			return k, true
		}
	}
	return Kernel{}, false
}

// Stack returns the stack holding kernels of the given kind.
func (s *Snapshot) Stack(kind daf.Kind) *catalog.Stack {
	if kind == daf.KindPCK {
		return s.PCK
	}
	return s.SPK
}

// HasKernels reports whether at least one kernel is loaded.
func (s *Snapshot) HasKernels() bool {
	return len(s.Kernels) > 0
}

// WithKernel returns a copy of s with k pushed on top of its stack.
func (s *Snapshot) WithKernel(k Kernel) *Snapshot {
	out := s.copy()
	out.Kernels = append(out.Kernels, k)
	if k.Kind() == daf.KindPCK {
		out.PCK = s.PCK.Push(k.Catalog)
	} else {
		out.SPK = s.SPK.Push(k.Catalog)
	}
	out.Events = append(out.Events, Event{
		Type:     EventLoaded,
		Kernel:   k.ID,
		Handle:   k.Handle,
		Path:     k.Path,
		Segments: k.Catalog.Len(),
	})

	// Report earlier kernels that lost segments to the new one.
	before, after := s.Stack(k.Kind()), out.Stack(k.Kind())
	for _, c := range before.Catalogs() {
		if n := len(after.Masked(c.Kernel)); n > len(before.Masked(c.Kernel)) {
			prev, _ := out.byID(c.Kernel)
			out.Events = append(out.Events, Event{
				Type:     EventMasked,
				Kernel:   c.Kernel,
				Handle:   prev.Handle,
				Path:     prev.Path,
				Segments: n,
				Detail:   fmt.Sprintf("%d of %d segments masked", n, c.Len()),
			})
		}
	}
	return out
}

// WithoutKernel returns a copy of s without the kernel with handle h.
func (s *Snapshot) WithoutKernel(h uuid.UUID) (*Snapshot, Kernel, error) {
	k, ok := s.Kernel(h)
	if !ok {
		return nil, Kernel{}, fmt.Errorf("%w: %s", ErrNotLoaded, h)
	}
	out := s.copy()
	out.Kernels = out.Kernels[:0]
	for _, other := range s.Kernels {
		if other.Handle != h {
			out.Kernels = append(out.Kernels, other)
		}
	}
	out.SPK = s.SPK.Remove(k.ID)
	out.PCK = s.PCK.Remove(k.ID)
	out.Events = append(out.Events, Event{
		Type:   EventUnloaded,
		Kernel: k.ID,
		Handle: k.Handle,
		Path:   k.Path,
	})
	return out, k, nil
}

func (s *Snapshot) byID(id catalog.KernelID) (Kernel, bool) {
	for _, k := range s.Kernels {
		if k.ID == id {
			return k, true
		}
	}
	return Kernel{}, false
}

func (s *Snapshot) copy() *Snapshot {
	out := *s
	out.Kernels = append([]Kernel(nil), s.Kernels...)
	out.Events = append([]Event(nil), s.Events...)
	return &out
}

// Config holds configuration for the state manager.
type Config struct {
	MaxEvents int
	Frames    *frames.Graph  // base frame graph; nil means frames.New()
	Engine    *interp.Engine // evaluates kernel frames; nil means no cache
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		MaxEvents: 100,
	}
}

// Manager publishes kernel pool snapshots.
type Manager struct {
	cur atomic.Pointer[Snapshot]
	mu  sync.Mutex // serializes writers

	nextID    atomic.Uint64
	base      *frames.Graph
	engine    *interp.Engine
	maxEvents int
}

// NewManager creates a manager holding an empty pool.
func NewManager(cfg Config) *Manager {
	m := &Manager{
		base:      cfg.Frames,
		engine:    cfg.Engine,
		maxEvents: cfg.MaxEvents,
	}
	if m.base == nil {
		m.base = frames.New()
	}
	if m.engine == nil {
		m.engine = interp.NewEngine(nil)
	}
	if m.maxEvents <= 0 {
		m.maxEvents = DefaultConfig().MaxEvents
	}
	empty := &Snapshot{PublishedAt: time.Now()}
	empty.Graph = m.base.WithKernelFrames(empty.PCK, m.engine)
	m.cur.Store(empty)
	return m
}

// Snapshot returns the current pool. The result is never modified.
func (m *Manager) Snapshot() *Snapshot {
	return m.cur.Load()
}

// NextKernelID reserves a kernel id. Ids are never reused.
func (m *Manager) NextKernelID() catalog.KernelID {
	return catalog.KernelID(m.nextID.Add(1))
}

// Publish derives the next snapshot from the current one with fn and makes
// it current. fn runs under the writer lock and must not retain old. When
// fn fails the pool is unchanged.
func (m *Manager) Publish(fn func(old *Snapshot) (*Snapshot, error)) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	old := m.cur.Load()
	next, err := fn(old)
	if err != nil {
		return old, err
	}
	if next == old {
		return old, nil
	}

	now := time.Now()
	next.Seq = old.Seq + 1
	next.PublishedAt = now
	next.Graph = m.base.WithKernelFrames(next.PCK, m.engine)
	for i := range next.Events {
		if next.Events[i].Timestamp.IsZero() {
			next.Events[i].Timestamp = now
		}
	}
	if over := len(next.Events) - m.maxEvents; over > 0 {
		next.Events = append([]Event(nil), next.Events[over:]...)
	}

	m.cur.Store(next)
	return next, nil
}

// Add publishes a snapshot with k loaded on top of the pool.
func (m *Manager) Add(k Kernel) (*Snapshot, error) {
	return m.Publish(func(old *Snapshot) (*Snapshot, error) {
		if _, dup := old.Kernel(k.Handle); dup {
			return nil, fmt.Errorf("kernel %s already loaded", k.Handle)
		}
		return old.WithKernel(k), nil
	})
}

// Remove publishes a snapshot without the kernel with handle h and returns
// the removed kernel. Its file stays open; closing it is up to the caller.
func (m *Manager) Remove(h uuid.UUID) (Kernel, error) {
	var removed Kernel
	_, err := m.Publish(func(old *Snapshot) (*Snapshot, error) {
		next, k, err := old.WithoutKernel(h)
		removed = k
		return next, err
	})
	return removed, err
}

// RecentEvents returns the last n events.
func (m *Manager) RecentEvents(n int) []Event {
	all := m.Snapshot().Events
	if len(all) <= n {
		return append([]Event(nil), all...)
	}
	return append([]Event(nil), all[len(all)-n:]...)
}

// HasKernels returns true if at least one kernel is loaded.
func (m *Manager) HasKernels() bool {
	return m.Snapshot().HasKernels()
}
