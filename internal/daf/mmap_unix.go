//go:build unix

package daf

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"golang.org/x/sys/unix"
)

var errMmapUnsupported = errors.New("mmap unsupported")

func mmapFile(fh *os.File) (*File, error) {
	st, err := fh.Stat()
	if err != nil {
		return nil, err
	}
	size := st.Size()
	if size < RecordSize {
		return nil, formatErr(ErrTruncated, "file holds %d bytes, file record needs %d", size, RecordSize)
	}
	if int64(int(size)) != size {
		return nil, fmt.Errorf("file too large to map: %d bytes", size)
	}

	b, err := unix.Mmap(int(fh.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, err
	}
	f, err := Open(b)
	if err != nil {
		_ = unix.Munmap(b)
		return nil, err
	}
	cleanup := runtime.AddCleanup(f, func(b []byte) { _ = unix.Munmap(b) }, b)
	f.release = func() error {
		cleanup.Stop()
		return unix.Munmap(b)
	}
	return f, nil
}
