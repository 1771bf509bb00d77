//go:build !unix

package daf

import (
	"errors"
	"os"
)

var errMmapUnsupported = errors.New("mmap unsupported")

func mmapFile(*os.File) (*File, error) {
	return nil, errMmapUnsupported
}
