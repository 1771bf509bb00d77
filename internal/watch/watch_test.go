package watch

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/litescript/ls-ephem/internal/daf"
	"github.com/litescript/ls-ephem/internal/ephem"
	"github.com/litescript/ls-ephem/internal/interp"
	"github.com/litescript/ls-ephem/internal/timescale"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// kernel returns a one-segment kernel with the body fixed at x km.
func kernel(t *testing.T, x float64) []byte {
	t.Helper()
	fn := func(float64) []float64 { return []float64{x, 0, 0, 0, 0, 0} }
	payload, err := interp.FitChebyshev(fn, 6, -86400, 86400, 1, 1)
	require.NoError(t, err)
	b := daf.NewBuilder(daf.KindSPK, binary.LittleEndian)
	require.NoError(t, b.AddArray("FIXED", []float64{-86400, 86400},
		[]int32{ephem.EarthBarycenter, ephem.SSB, 1, 3}, payload))
	raw, err := b.Bytes()
	require.NoError(t, err)
	return raw
}

// write replaces path atomically so the watcher never sees a partial file.
func write(t *testing.T, path string, data []byte) {
	t.Helper()
	tmp := filepath.Join(filepath.Dir(path), ".tmp-"+filepath.Base(path))
	require.NoError(t, os.WriteFile(tmp, data, 0o644))
	require.NoError(t, os.Rename(tmp, path))
}

func next(t *testing.T, w *Watcher) Change {
	t.Helper()
	select {
	case c, ok := <-w.Changes():
		require.True(t, ok, "changes closed")
		return c
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
		return Change{}
	}
}

func position(t *testing.T, a *ephem.Almanac) float64 {
	t.Helper()
	sv, err := a.State(ephem.EarthBarycenter, ephem.SSB, "J2000", timescale.J2000, ephem.None)
	require.NoError(t, err)
	return sv.Position.X
}

func TestWatcherLifecycle(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "a.bsp")
	write(t, existing, kernel(t, 1))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	a, err := ephem.New()
	require.NoError(t, err)
	defer a.Close()

	w, err := New(a, Config{Dir: dir, Debounce: 20 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	c := next(t, w)
	assert.Equal(t, Loaded, c.Action)
	assert.Equal(t, existing, c.Path)
	assert.Equal(t, 1.0, position(t, a))

	added := filepath.Join(dir, "b.bsp")
	write(t, added, kernel(t, 2))
	c = next(t, w)
	assert.Equal(t, Loaded, c.Action)
	assert.Equal(t, added, c.Path)
	assert.InDelta(t, 2, position(t, a), 1e-9, "newest kernel wins")

	write(t, existing, kernel(t, 3))
	c = next(t, w)
	assert.Equal(t, Reloaded, c.Action)
	assert.InDelta(t, 3, position(t, a), 1e-9, "reload takes precedence")
	assert.Len(t, a.Kernels(), 2)

	require.NoError(t, os.Remove(existing))
	c = next(t, w)
	assert.Equal(t, Unloaded, c.Action)
	assert.InDelta(t, 2, position(t, a), 1e-9)

	write(t, filepath.Join(dir, "bad.bsp"), []byte("not a kernel"))
	c = next(t, w)
	assert.Equal(t, Failed, c.Action)
	assert.Error(t, c.Err)
	assert.Len(t, a.Kernels(), 1)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
	_, ok := <-w.Changes()
	assert.False(t, ok)
}

func TestNewErrors(t *testing.T) {
	a, err := ephem.New()
	require.NoError(t, err)
	defer a.Close()

	_, err = New(a, Config{})
	assert.Error(t, err)
	_, err = New(a, Config{Dir: filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)
}

func TestIsKernel(t *testing.T) {
	w := &Watcher{exts: DefaultExtensions}
	for name, want := range map[string]bool{
		"de440s.bsp":        true,
		"EARTH_LATEST.BPC":  true,
		"de440s.bsp.zst":    true,
		"naif0012.tls":      false,
		".tmp-de440s.bsp":   false,
		"/data/mars.bsp.gz": false,
	} {
		assert.Equal(t, want, w.isKernel(name), name)
	}
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "reloaded", Reloaded.String())
	assert.Equal(t, "Action(9)", Action(9).String())
}
