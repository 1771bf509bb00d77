// Package daf decodes the NAIF Double precision Array File container shared
// by SPK and binary PCK kernels.
//
// A DAF is a sequence of 1024-byte records: a file record, an optional
// comment area, then a doubly linked chain of summary records, each followed
// by its name record, interleaved with data records. Addresses are 1-based
// indices of 8-byte words.
package daf

import (
	"bytes"
	"encoding/binary"
	"math"
	"strings"
)

const (
	// RecordSize is the fixed DAF record length in bytes.
	RecordSize = 1024

	// WordsPerRecord is the number of 8-byte words in a record.
	WordsPerRecord = RecordSize / 8

	// MaxND is the largest number of double components in a summary.
	MaxND = 124

	// maxSummaryWords bounds ND + (NI+1)/2 so a summary fits after the
	// three control words of a summary record.
	maxSummaryWords = WordsPerRecord - 3
)

// Byte order tags stored in the file record.
const (
	LittleEndianTag = "LTL-IEEE"
	BigEndianTag    = "BIG-IEEE"
)

// ftpValidation is the FTP corruption check string embedded in the file
// record by modern toolkits.
const ftpValidation = "FTPSTR:\r:\n:\r\n:\r\x00:\x81:\x10\xce:ENDFTP"

// Kind is the semantic family named by the ID word.
type Kind int

const (
	KindUnknown Kind = iota
	KindSPK
	KindPCK
	KindCK
)

func (k Kind) String() string {
	switch k {
	case KindSPK:
		return "SPK"
	case KindPCK:
		return "PCK"
	case KindCK:
		return "CK"
	default:
		return "DAF"
	}
}

// Header is the decoded file record.
type Header struct {
	IDWord       string
	Kind         Kind
	ND           int
	NI           int
	InternalName string
	Forward      int // first summary record
	Backward     int // last summary record
	Free         int // first free word address
	ByteOrder    binary.ByteOrder
	RecordCount  int // records implied by Free and the summary chain
}

// SummaryWords returns the size of one summary in double words.
func (h Header) SummaryWords() int {
	return h.ND + (h.NI+1)/2
}

// LittleEndian reports whether doubles are stored little-endian.
func (h Header) LittleEndian() bool {
	return h.ByteOrder == binary.LittleEndian
}

// File is an immutable, structurally validated DAF.
type File struct {
	Header Header

	data    []byte
	release func() error
}

// Open validates the file record of b and returns a File backed by b.
// The buffer must not be modified afterwards.
func Open(b []byte) (*File, error) {
	if len(b) < RecordSize {
		return nil, formatErr(ErrTruncated, "buffer holds %d bytes, file record needs %d", len(b), RecordSize)
	}
	rec := b[:RecordSize]

	id := string(rec[0:8])
	kind, ok := parseIDWord(id)
	if !ok {
		return nil, formatErr(ErrBadMagic, "unrecognized ID word %q", id)
	}

	order, err := byteOrder(rec)
	if err != nil {
		return nil, err
	}

	h := Header{
		IDWord:       strings.TrimRight(id, " "),
		Kind:         kind,
		ND:           int(int32(order.Uint32(rec[8:12]))),
		NI:           int(int32(order.Uint32(rec[12:16]))),
		InternalName: strings.TrimRight(string(rec[16:76]), " \x00"),
		Forward:      int(int32(order.Uint32(rec[76:80]))),
		Backward:     int(int32(order.Uint32(rec[80:84]))),
		Free:         int(int32(order.Uint32(rec[84:88]))),
		ByteOrder:    order,
	}

	if h.ND < 0 || h.ND > MaxND || h.NI < 2 || h.SummaryWords() > maxSummaryWords {
		return nil, formatErr(ErrBadMagic, "invalid summary format ND=%d NI=%d", h.ND, h.NI)
	}
	if err := checkFTP(rec); err != nil {
		return nil, err
	}
	if h.Forward < 2 || h.Backward < 2 || h.Free < 1 {
		return nil, formatErr(ErrBadMagic, "invalid pointers FWARD=%d BWARD=%d FREE=%d", h.Forward, h.Backward, h.Free)
	}

	h.RecordCount = max(h.Forward, h.Backward, (h.Free-1+WordsPerRecord-1)/WordsPerRecord)
	if declared := h.RecordCount * RecordSize; declared > len(b) {
		return nil, formatErr(ErrTruncated, "file declares %d records (%d bytes), buffer holds %d bytes",
			h.RecordCount, declared, len(b))
	}

	return &File{Header: h, data: b}, nil
}

func parseIDWord(id string) (Kind, bool) {
	switch {
	case id == "DAF/SPK ":
		return KindSPK, true
	case id == "DAF/PCK ":
		return KindPCK, true
	case id == "DAF/CK  ":
		return KindCK, true
	case id == "NAIF/DAF":
		// Pre-N0046 files; the kind is inferred from the summary shape.
		return KindUnknown, true
	case strings.HasPrefix(id, "DAF/"):
		return KindUnknown, true
	}
	return KindUnknown, false
}

// byteOrder reads LOCFMT, falling back to a plausibility check of ND for
// legacy files that predate the tag.
func byteOrder(rec []byte) (binary.ByteOrder, error) {
	switch string(rec[88:96]) {
	case LittleEndianTag:
		return binary.LittleEndian, nil
	case BigEndianTag:
		return binary.BigEndian, nil
	}
	nd := int32(binary.LittleEndian.Uint32(rec[8:12]))
	if nd >= 0 && nd <= MaxND {
		return binary.LittleEndian, nil
	}
	nd = int32(binary.BigEndian.Uint32(rec[8:12]))
	if nd >= 0 && nd <= MaxND {
		return binary.BigEndian, nil
	}
	return nil, formatErr(ErrBadMagic, "cannot determine byte order")
}

func checkFTP(rec []byte) error {
	i := bytes.Index(rec, []byte("FTPSTR:"))
	if i < 0 {
		return nil
	}
	if !bytes.HasPrefix(rec[i:], []byte(ftpValidation)) {
		return formatErr(ErrBadMagic, "FTP validation string damaged (file transferred in text mode?)")
	}
	return nil
}

// Len returns the size of the backing buffer in bytes.
func (f *File) Len() int {
	return len(f.data)
}

// Close releases the backing memory mapping, if any. The File must not be
// used afterwards. A mapped File that is never closed is unmapped once it
// becomes unreachable.
func (f *File) Close() error {
	if f.release == nil {
		return nil
	}
	err := f.release()
	f.release = nil
	f.data = nil
	return err
}

// Record returns the 1-based n-th record.
func (f *File) Record(n int) ([]byte, error) {
	if n < 1 || n*RecordSize > len(f.data) {
		return nil, formatErr(ErrOutOfRange, "record %d outside 1..%d", n, len(f.data)/RecordSize)
	}
	return f.data[(n-1)*RecordSize : n*RecordSize], nil
}

// DoubleArray decodes count doubles starting at 1-based word address start.
func (f *File) DoubleArray(start, count int) ([]float64, error) {
	if count < 0 {
		return nil, formatErr(ErrOutOfRange, "negative word count %d", count)
	}
	out := make([]float64, count)
	if err := f.ReadDoubles(start, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadDoubles decodes len(dst) doubles starting at word address start.
func (f *File) ReadDoubles(start int, dst []float64) error {
	if start < 1 {
		return formatErr(ErrOutOfRange, "word address %d", start)
	}
	begin := (start - 1) * 8
	end := begin + len(dst)*8
	if end > len(f.data) || end < begin {
		return formatErr(ErrOutOfRange, "words %d..%d beyond %d-byte buffer", start, start+len(dst)-1, len(f.data))
	}
	order := f.Header.ByteOrder
	for i := range dst {
		dst[i] = math.Float64frombits(order.Uint64(f.data[begin+i*8:]))
	}
	return nil
}

// Double decodes a single double at word address addr.
func (f *File) Double(addr int) (float64, error) {
	var v [1]float64
	if err := f.ReadDoubles(addr, v[:]); err != nil {
		return 0, err
	}
	return v[0], nil
}

// WordCount returns the number of complete words in the buffer.
func (f *File) WordCount() int {
	return len(f.data) / 8
}
