// Package ephem answers ephemeris and orientation queries against a pool
// of loaded kernels. An Almanac is the only entry point: it loads kernels,
// publishes them atomically and evaluates states, frame transforms and
// coverage against consistent snapshots of the pool.
package ephem

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/litescript/ls-ephem/internal/catalog"
	"github.com/litescript/ls-ephem/internal/daf"
	"github.com/litescript/ls-ephem/internal/frames"
	"github.com/litescript/ls-ephem/internal/interp"
	"github.com/litescript/ls-ephem/internal/logging"
	"github.com/litescript/ls-ephem/internal/metrics"
	"github.com/litescript/ls-ephem/internal/state"
	"github.com/litescript/ls-ephem/internal/timescale"
)

// KernelHandle identifies a loaded kernel.
type KernelHandle struct {
	ID   uuid.UUID
	Name string
}

func (h KernelHandle) String() string {
	if h.Name == "" {
		return h.ID.String()
	}
	return fmt.Sprintf("%s (%s)", h.Name, h.ID)
}

// KernelInfo describes a loaded kernel.
type KernelInfo struct {
	Handle       KernelHandle `json:"handle"`
	Path         string       `json:"path"`
	Kind         string       `json:"kind"`
	InternalName string       `json:"internal_name"`
	Size         int          `json:"size_bytes"`
	Segments     int          `json:"segments"`
	Rejected     int          `json:"rejected,omitempty"`
	Masked       int          `json:"masked,omitempty"`
	LoadedAt     time.Time    `json:"loaded_at"`
}

// SegmentSummary describes one segment of a loaded kernel.
type SegmentSummary struct {
	Index    int             `json:"index"`
	Name     string          `json:"name"`
	Target   int             `json:"target"`
	Center   int             `json:"center"` // reference frame for orientation segments
	Frame    int             `json:"frame"`
	Type     string          `json:"type"`
	TypeCode int             `json:"type_code"`
	Start    timescale.Epoch `json:"-"`
	End      timescale.Epoch `json:"-"`
	StartET  float64         `json:"start_et"`
	EndET    float64         `json:"end_et"`
	Words    int             `json:"words"`
	Masked   bool            `json:"masked"`
	Rejected string          `json:"rejected,omitempty"`
}

// Almanac owns the kernel pool. It is safe for concurrent use; queries
// never block on loads.
type Almanac struct {
	opts    options
	log     *logging.Logger
	pool    *state.Manager
	engine  *interp.Engine
	cache   *interp.Cache
	metrics *metrics.Metrics
	bodies  map[int]frames.Body

	mu     sync.Mutex // guards closed
	closed bool
}

// New creates an empty almanac.
func New(opts ...Option) (*Almanac, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	a := &Almanac{
		opts:    o,
		log:     o.logger,
		metrics: metrics.New(o.registerer),
		bodies:  frames.Bodies(o.bodies),
	}
	if o.cacheSize > 0 {
		c, err := interp.NewCache(o.cacheSize, a.metrics.CacheAccess)
		if err != nil {
			return nil, fmt.Errorf("ephem: record cache: %w", err)
		}
		a.cache = c
	}
	a.engine = interp.NewEngine(a.cache)

	cfg := state.DefaultConfig()
	cfg.Engine = a.engine
	if o.maxEvents > 0 {
		cfg.MaxEvents = o.maxEvents
	}
	a.pool = state.NewManager(cfg)
	return a, nil
}

// LeapSeconds returns the leap-second table used for UTC conversions.
func (a *Almanac) LeapSeconds() *timescale.LeapSeconds {
	if a.opts.leapSeconds == nil {
		return timescale.Default()
	}
	return a.opts.leapSeconds
}

// Snapshot returns the current kernel pool.
func (a *Almanac) Snapshot() *state.Snapshot {
	return a.pool.Snapshot()
}

// Events returns the last n pool events.
func (a *Almanac) Events(n int) []state.Event {
	return a.pool.RecentEvents(n)
}

// Body returns the physical constants of a body.
func (a *Almanac) Body(id int) (frames.Body, bool) {
	b, ok := a.bodies[id]
	return b, ok
}

// LoadKernel opens, indexes and publishes the kernel at path. Later loads
// take precedence over earlier ones wherever their coverage overlaps.
func (a *Almanac) LoadKernel(path string) (KernelHandle, error) {
	k, err := a.prepare(path, func() (*daf.File, error) {
		return daf.LoadFile(path, daf.LoadOptions{Mmap: a.opts.mmap})
	})
	if err != nil {
		return KernelHandle{}, err
	}
	if err := a.publish(k); err != nil {
		return KernelHandle{}, err
	}
	return handleOf(k), nil
}

// LoadBytes indexes and publishes a kernel image held in memory.
func (a *Almanac) LoadBytes(name string, b []byte) (KernelHandle, error) {
	k, err := a.prepare(name, func() (*daf.File, error) {
		return daf.Open(b)
	})
	if err != nil {
		return KernelHandle{}, err
	}
	if err := a.publish(k); err != nil {
		return KernelHandle{}, err
	}
	return handleOf(k), nil
}

// LoadKernels decodes the kernels in parallel and publishes them in one
// step, in argument order, so the last path has the highest precedence.
// Nothing is published when any kernel fails.
func (a *Almanac) LoadKernels(ctx context.Context, paths []string) ([]KernelHandle, error) {
	kernels := make([]state.Kernel, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			k, err := a.prepare(p, func() (*daf.File, error) {
				return daf.LoadFile(p, daf.LoadOptions{Mmap: a.opts.mmap})
			})
			if err != nil {
				return err
			}
			kernels[i] = k
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, k := range kernels {
			if k.Catalog != nil {
				_ = k.File().Close()
			}
		}
		return nil, err
	}

	if err := a.publish(kernels...); err != nil {
		return nil, err
	}
	out := make([]KernelHandle, len(kernels))
	for i, k := range kernels {
		out[i] = handleOf(k)
	}
	return out, nil
}

// prepare opens and indexes a kernel without publishing it.
func (a *Almanac) prepare(path string, open func() (*daf.File, error)) (state.Kernel, error) {
	start := time.Now()
	k, err := a.index(path, open)
	a.metrics.ObserveLoad(start, err)
	if err != nil {
		a.log.Warn("load %s failed: %v", path, err)
		return state.Kernel{}, &QueryError{Op: "load", Err: fmt.Errorf("%s: %w", path, err)}
	}
	return k, nil
}

func (a *Almanac) index(path string, open func() (*daf.File, error)) (state.Kernel, error) {
	if a.isClosed() {
		return state.Kernel{}, errors.New("almanac closed")
	}
	f, err := open()
	if err != nil {
		return state.Kernel{}, err
	}
	id := a.pool.NextKernelID()
	c, err := catalog.Build(f, id, a.opts.mode)
	if err != nil {
		_ = f.Close()
		return state.Kernel{}, err
	}
	for _, r := range c.Rejected {
		a.log.Warn("%s: skipped segment %d %q: %v", filepath.Base(path), r.Index, r.Name, r.Err)
	}
	return state.Kernel{
		ID:       id,
		Handle:   uuid.New(),
		Path:     path,
		Size:     f.Len(),
		LoadedAt: time.Now(),
		Catalog:  c,
	}, nil
}

func (a *Almanac) publish(kernels ...state.Kernel) error {
	snap, err := a.pool.Publish(func(old *state.Snapshot) (*state.Snapshot, error) {
		next := old
		for _, k := range kernels {
			next = next.WithKernel(k)
		}
		return next, nil
	})
	if err != nil {
		for _, k := range kernels {
			_ = k.File().Close()
		}
		return err
	}
	for _, k := range kernels {
		a.log.Info("loaded %s: %s, %d segments (kernel %d)",
			filepath.Base(k.Path), k.Kind(), k.Catalog.Len(), k.ID)
	}
	a.logMasking(snap, len(kernels))
	a.updateGauges(snap)
	return nil
}

// logMasking reports the masking events raised by the last publish.
func (a *Almanac) logMasking(snap *state.Snapshot, loaded int) {
	events := snap.Events
	seen := 0
	for i := len(events) - 1; i >= 0 && seen < loaded; i-- {
		switch events[i].Type {
		case state.EventLoaded:
			seen++
		case state.EventMasked:
			a.log.Info("%s: %s", filepath.Base(events[i].Path), events[i].Detail)
		}
	}
}

func (a *Almanac) updateGauges(snap *state.Snapshot) {
	counts := map[string]int{daf.KindSPK.String(): 0, daf.KindPCK.String(): 0}
	segments := 0
	for _, k := range snap.Kernels {
		counts[k.Kind().String()]++
		segments += k.Catalog.Len()
	}
	for kind, n := range counts {
		a.metrics.KernelsLoaded.WithLabelValues(kind).Set(float64(n))
	}
	a.metrics.SegmentsLoaded.Set(float64(segments))
}

// Unload removes a kernel from the pool. Queries already holding an older
// snapshot keep its file reachable; it is released once they finish.
func (a *Almanac) Unload(h KernelHandle) error {
	k, err := a.pool.Remove(h.ID)
	if err != nil {
		return &QueryError{Op: "unload", Err: err}
	}
	if a.cache != nil {
		a.cache.Forget(k.ID)
	}
	a.log.Info("unloaded %s (kernel %d)", filepath.Base(k.Path), k.ID)
	a.updateGauges(a.pool.Snapshot())
	return nil
}

// Close unloads every kernel and releases the files of those still loaded.
// The almanac must not be queried afterwards.
func (a *Almanac) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.mu.Unlock()

	var files []*daf.File
	snap, err := a.pool.Publish(func(old *state.Snapshot) (*state.Snapshot, error) {
		next := old
		for _, k := range old.Kernels {
			var err error
			if next, _, err = next.WithoutKernel(k.Handle); err != nil {
				return nil, err
			}
			files = append(files, k.File())
		}
		return next, nil
	})
	if err != nil {
		return err
	}
	a.updateGauges(snap)

	var errs []error
	for _, f := range files {
		if err := f.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *Almanac) isClosed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closed
}

// Kernels lists the loaded kernels in load order.
func (a *Almanac) Kernels() []KernelInfo {
	snap := a.pool.Snapshot()
	out := make([]KernelInfo, 0, len(snap.Kernels))
	for _, k := range snap.Kernels {
		out = append(out, KernelInfo{
			Handle:       handleOf(k),
			Path:         k.Path,
			Kind:         k.Kind().String(),
			InternalName: k.File().Header.InternalName,
			Size:         k.Size,
			Segments:     k.Catalog.Len(),
			Rejected:     len(k.Catalog.Rejected),
			Masked:       len(snap.Stack(k.Kind()).Masked(k.ID)),
			LoadedAt:     k.LoadedAt,
		})
	}
	return out
}

// Inspect lists the segments of a loaded kernel in file order, flagging
// segments fully masked by later kernels and segments rejected on load.
func (a *Almanac) Inspect(h KernelHandle) ([]SegmentSummary, error) {
	snap := a.pool.Snapshot()
	k, ok := snap.Kernel(h.ID)
	if !ok {
		return nil, &QueryError{Op: "inspect", Err: fmt.Errorf("%w: %s", state.ErrNotLoaded, h)}
	}
	masked := make(map[int]bool)
	for _, s := range snap.Stack(k.Kind()).Masked(k.ID) {
		masked[s.Index] = true
	}

	var out []SegmentSummary
	for _, s := range k.Catalog.Segments() {
		out = append(out, SegmentSummary{
			Index:    s.Index,
			Name:     s.Name,
			Target:   s.Target,
			Center:   s.Center,
			Frame:    s.Frame,
			Type:     s.Type.String(),
			TypeCode: s.Type.Code(),
			Start:    s.Start,
			End:      s.End,
			StartET:  s.StartET,
			EndET:    s.EndET,
			Words:    s.Len(),
			Masked:   masked[s.Index],
		})
	}
	for _, r := range k.Catalog.Rejected {
		out = append(out, SegmentSummary{Index: r.Index, Name: r.Name, Rejected: r.Err.Error()})
	}
	return out, nil
}

// Comments returns the comment area of a loaded kernel.
func (a *Almanac) Comments(h KernelHandle) (string, error) {
	k, ok := a.pool.Snapshot().Kernel(h.ID)
	if !ok {
		return "", &QueryError{Op: "comments", Err: fmt.Errorf("%w: %s", state.ErrNotLoaded, h)}
	}
	return k.File().Comments()
}

// Coverage returns the merged windows over which target has trajectory
// data, whatever the center.
func (a *Almanac) Coverage(target int) []catalog.Window {
	return a.pool.Snapshot().SPK.Coverage(target, catalog.AnyCenter)
}

// Bodies lists every body with trajectory data.
func (a *Almanac) Bodies() []int {
	return a.pool.Snapshot().SPK.Bodies()
}

// CacheStats reports coefficient record cache hits and misses.
func (a *Almanac) CacheStats() (hits, misses uint64) {
	if a.cache == nil {
		return 0, 0
	}
	return a.cache.Stats()
}

func handleOf(k state.Kernel) KernelHandle {
	return KernelHandle{ID: k.Handle, Name: filepath.Base(k.Path)}
}
