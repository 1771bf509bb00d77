package daf

import (
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBuilder(order binary.ByteOrder) *Builder {
	b := NewBuilder(KindSPK, order)
	b.InternalName = "TEST KERNEL"
	b.Comments = "first line\nsecond line"
	return b
}

func mustBytes(t *testing.T, b *Builder) []byte {
	t.Helper()
	out, err := b.Bytes()
	require.NoError(t, err)
	return out
}

func TestOpenRoundTrip(t *testing.T) {
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		t.Run(order.String(), func(t *testing.T) {
			b := sampleBuilder(order)
			require.NoError(t, b.AddArray("EARTH", []float64{-100, 100}, []int32{399, 3, 1, 2}, []float64{1, 2, 3, 4, 5}))
			require.NoError(t, b.AddArray("MOON", []float64{-50, 50}, []int32{301, 3, 1, 2}, []float64{6, 7}))

			f, err := Open(mustBytes(t, b))
			require.NoError(t, err)
			assert.Equal(t, KindSPK, f.Header.Kind)
			assert.Equal(t, 2, f.Header.ND)
			assert.Equal(t, 6, f.Header.NI)
			assert.Equal(t, "TEST KERNEL", f.Header.InternalName)
			assert.Equal(t, order == binary.LittleEndian, f.Header.LittleEndian())

			sums, err := f.Summaries()
			require.NoError(t, err)
			require.Len(t, sums, 2)
			assert.Equal(t, "EARTH", sums[0].Name)
			assert.Equal(t, []float64{-100, 100}, sums[0].DC)
			assert.Equal(t, int32(399), sums[0].IC[0])
			assert.Equal(t, 5, sums[0].Len())
			assert.Equal(t, sums[0].EndAddr()+1, sums[1].StartAddr())

			data, err := f.DoubleArray(sums[1].StartAddr(), sums[1].Len())
			require.NoError(t, err)
			assert.Equal(t, []float64{6, 7}, data)
			assert.Equal(t, sums[1].EndAddr()+1, f.Header.Free)

			text, err := f.Comments()
			require.NoError(t, err)
			assert.Equal(t, "first line\nsecond line", text)
		})
	}
}

func TestSummaryChain(t *testing.T) {
	b := NewBuilder(KindSPK, binary.LittleEndian)
	b.PerRecord = 2
	for i := 0; i < 5; i++ {
		require.NoError(t, b.AddArray("A", []float64{0, 1}, []int32{int32(i), 0, 1, 2}, []float64{float64(i)}))
	}
	f, err := Open(mustBytes(t, b))
	require.NoError(t, err)
	assert.Equal(t, f.Header.Forward+4, f.Header.Backward)

	sums, err := f.Summaries()
	require.NoError(t, err)
	require.Len(t, sums, 5)
	for i, s := range sums {
		assert.Equal(t, int32(i), s.IC[0])
		assert.Equal(t, i%2, s.Slot)
	}
}

func TestSummaryChainCycle(t *testing.T) {
	b := NewBuilder(KindSPK, binary.LittleEndian)
	b.PerRecord = 1
	for i := 0; i < 2; i++ {
		require.NoError(t, b.AddArray("A", []float64{0, 1}, []int32{1, 0, 1, 2}, []float64{1}))
	}
	raw := mustBytes(t, b)
	f, err := Open(raw)
	require.NoError(t, err)

	// Point the second summary record's NEXT back at the first.
	second := f.Header.Backward
	binary.LittleEndian.PutUint64(raw[(second-1)*RecordSize:], math.Float64bits(float64(f.Header.Forward)))

	_, err = f.Summaries()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadSummary)
}

func TestOpenErrors(t *testing.T) {
	good := func() []byte {
		b := NewBuilder(KindSPK, binary.LittleEndian)
		_ = b.AddArray("A", []float64{0, 1}, []int32{1, 0, 1, 2}, make([]float64, 300))
		out, _ := b.Bytes()
		return out
	}

	tests := []struct {
		name   string
		mutate func([]byte) []byte
		want   error
	}{
		{"short", func(b []byte) []byte { return b[:100] }, ErrTruncated},
		{"bad id", func(b []byte) []byte { copy(b, "GARBAGE!"); return b }, ErrBadMagic},
		{"declared past end", func(b []byte) []byte { return b[:len(b)-RecordSize] }, ErrTruncated},
		{"bad ftp", func(b []byte) []byte { b[699+8] = '\n'; return b }, ErrBadMagic},
		{"bad nd", func(b []byte) []byte {
			binary.LittleEndian.PutUint32(b[8:], 500)
			return b
		}, ErrBadMagic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(tt.mutate(good()))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			var fe *FormatError
			assert.True(t, errors.As(err, &fe))
		})
	}
}

func TestLegacyByteOrder(t *testing.T) {
	b := NewBuilder(KindSPK, binary.BigEndian)
	require.NoError(t, b.AddArray("A", []float64{0, 1}, []int32{1, 0, 1, 2}, []float64{42}))
	raw := mustBytes(t, b)
	copy(raw[88:96], "        ")

	f, err := Open(raw)
	require.NoError(t, err)
	assert.False(t, f.Header.LittleEndian())
	sums, err := f.Summaries()
	require.NoError(t, err)
	v, err := f.Double(sums[0].StartAddr())
	require.NoError(t, err)
	assert.Equal(t, 42.0, v)
}

func TestOutOfRange(t *testing.T) {
	b := NewBuilder(KindPCK, binary.LittleEndian)
	require.NoError(t, b.AddArray("A", []float64{0, 1}, []int32{1, 0, 1}, []float64{1}))
	f, err := Open(mustBytes(t, b))
	require.NoError(t, err)

	_, err = f.Record(0)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = f.Record(f.Len()/RecordSize + 1)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = f.DoubleArray(f.WordCount(), 2)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = f.DoubleArray(1, -1)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = f.Double(0)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestBuilderRejects(t *testing.T) {
	b := NewBuilder(KindSPK, binary.LittleEndian)
	assert.Error(t, b.AddArray("A", []float64{0}, []int32{1, 0, 1, 2}, []float64{1}))
	assert.Error(t, b.AddArray("A", []float64{0, 1}, []int32{1}, []float64{1}))
	assert.Error(t, b.AddArray("A", []float64{0, 1}, []int32{1, 0, 1, 2}, nil))
}

func TestLoadFile(t *testing.T) {
	b := sampleBuilder(binary.LittleEndian)
	require.NoError(t, b.AddArray("A", []float64{0, 1}, []int32{1, 0, 1, 2}, []float64{1, 2, 3}))
	raw := mustBytes(t, b)
	dir := t.TempDir()

	plain := filepath.Join(dir, "plain.bsp")
	require.NoError(t, os.WriteFile(plain, raw, 0o644))
	packed, err := Compress(raw)
	require.NoError(t, err)
	compressed := filepath.Join(dir, "plain.bsp.zst")
	require.NoError(t, os.WriteFile(compressed, packed, 0o644))

	for _, tc := range []struct {
		path string
		opts LoadOptions
	}{
		{plain, LoadOptions{}},
		{plain, LoadOptions{Mmap: true}},
		{compressed, LoadOptions{}},
	} {
		f, err := LoadFile(tc.path, tc.opts)
		require.NoError(t, err, tc.path)
		sums, err := f.Summaries()
		require.NoError(t, err)
		require.Len(t, sums, 1)
		data, err := f.DoubleArray(sums[0].StartAddr(), 3)
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 2, 3}, data)
		require.NoError(t, f.Close())
	}

	_, err = LoadFile(filepath.Join(dir, "missing.bsp"), LoadOptions{})
	assert.ErrorIs(t, err, os.ErrNotExist)

	f, err := LoadFile(plain, LoadOptions{Mmap: true})
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.NoError(t, f.Close(), "second close")
}
