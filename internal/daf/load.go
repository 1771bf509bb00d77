package daf

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

// zstdMagic prefixes every zstd frame.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// maxDecompressed caps the size of a decompressed kernel.
const maxDecompressed = 4 << 30

// LoadOptions controls how a kernel file is brought into memory.
type LoadOptions struct {
	// Mmap maps uncompressed files read-only instead of reading them.
	Mmap bool
}

// LoadFile opens the kernel at path. Zstandard-compressed kernels are
// decompressed into memory; plain kernels are memory mapped when requested
// and supported, or read fully otherwise.
func LoadFile(path string, opts LoadOptions) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open kernel: %w", err)
	}
	defer fh.Close()

	var head [4]byte
	n, err := io.ReadFull(fh, head[:])
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("read kernel %s: %w", path, err)
	}
	if n == len(head) && bytes.Equal(head[:], zstdMagic) {
		if _, err := fh.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("rewind kernel %s: %w", path, err)
		}
		return loadCompressed(fh)
	}

	if opts.Mmap {
		if f, err := mmapFile(fh); err == nil {
			return f, nil
		} else if err != errMmapUnsupported {
			return nil, fmt.Errorf("map kernel %s: %w", path, err)
		}
	}

	if _, err := fh.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind kernel %s: %w", path, err)
	}
	b, err := io.ReadAll(fh)
	if err != nil {
		return nil, fmt.Errorf("read kernel %s: %w", path, err)
	}
	return Open(b)
}

func loadCompressed(r io.Reader) (*File, error) {
	dec, err := zstd.NewReader(r, zstd.WithDecoderMaxMemory(maxDecompressed))
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	defer dec.Close()

	b, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("decompress kernel: %w", err)
	}
	return Open(b)
}

// Compress returns the zstd-compressed form of a kernel image.
func Compress(b []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd writer: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(b, make([]byte, 0, len(b)/2)), nil
}
