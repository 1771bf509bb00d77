package daf

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// Builder assembles a DAF image in memory. It favors a simple, valid layout
// over compactness: comment records, then every summary/name record pair,
// then the array data in insertion order.
type Builder struct {
	IDWord       string
	ND, NI       int
	InternalName string
	Order        binary.ByteOrder
	Comments     string

	// PerRecord caps the number of summaries per summary record. Zero means
	// as many as fit.
	PerRecord int

	arrays []array
}

type array struct {
	name string
	dc   []float64
	ic   []int32
	data []float64
}

// NewBuilder returns a builder with the summary shape of the given kind.
func NewBuilder(kind Kind, order binary.ByteOrder) *Builder {
	b := &Builder{ND: 2, NI: 6, Order: order, IDWord: "DAF/SPK "}
	switch kind {
	case KindPCK:
		b.IDWord, b.NI = "DAF/PCK ", 5
	case KindCK:
		b.IDWord = "DAF/CK  "
	}
	return b
}

// AddArray appends an array. ic holds the NI-2 leading integer components;
// the start and end addresses are assigned by Bytes.
func (b *Builder) AddArray(name string, dc []float64, ic []int32, data []float64) error {
	if len(dc) != b.ND {
		return fmt.Errorf("array %q: %d double components, want %d", name, len(dc), b.ND)
	}
	if len(ic) != b.NI-2 {
		return fmt.Errorf("array %q: %d integer components, want %d", name, len(ic), b.NI-2)
	}
	if len(data) == 0 {
		return fmt.Errorf("array %q: empty", name)
	}
	b.arrays = append(b.arrays, array{name: name, dc: dc, ic: ic, data: data})
	return nil
}

// Bytes renders the DAF image.
func (b *Builder) Bytes() ([]byte, error) {
	ss := b.ND + (b.NI+1)/2
	if b.ND < 0 || b.ND > MaxND || b.NI < 2 || ss > maxSummaryWords {
		return nil, fmt.Errorf("invalid summary format ND=%d NI=%d", b.ND, b.NI)
	}
	if len(b.IDWord) > 8 {
		return nil, fmt.Errorf("ID word %q longer than 8 characters", b.IDWord)
	}
	order := b.Order
	if order == nil {
		order = binary.LittleEndian
	}

	perRec := maxSummaryWords / ss
	if b.PerRecord > 0 && b.PerRecord < perRec {
		perRec = b.PerRecord
	}
	nSumRec := max(1, (len(b.arrays)+perRec-1)/perRec)

	comment := commentArea(b.Comments)
	nCom := (len(comment) + commentChars - 1) / commentChars

	firstSum := 2 + nCom
	dataRec := firstSum + 2*nSumRec
	addr := (dataRec-1)*WordsPerRecord + 1

	type placed struct{ start, end int }
	places := make([]placed, len(b.arrays))
	for i, a := range b.arrays {
		places[i] = placed{start: addr, end: addr + len(a.data) - 1}
		addr += len(a.data)
	}
	free := addr
	nRec := max(dataRec-1, (free-1+WordsPerRecord-1)/WordsPerRecord)

	buf := make([]byte, nRec*RecordSize)

	// File record.
	fr := buf[:RecordSize]
	copy(fr[0:8], padRight(b.IDWord, 8))
	order.PutUint32(fr[8:12], uint32(int32(b.ND)))
	order.PutUint32(fr[12:16], uint32(int32(b.NI)))
	copy(fr[16:76], padRight(b.InternalName, 60))
	order.PutUint32(fr[76:80], uint32(int32(firstSum)))
	order.PutUint32(fr[80:84], uint32(int32(firstSum+2*(nSumRec-1))))
	order.PutUint32(fr[84:88], uint32(int32(free)))
	if order == binary.BigEndian {
		copy(fr[88:96], BigEndianTag)
	} else {
		copy(fr[88:96], LittleEndianTag)
	}
	copy(fr[699:727], ftpValidation)

	// Comment area.
	for i := 0; i < nCom; i++ {
		rec := buf[(1+i)*RecordSize:]
		end := min(len(comment), (i+1)*commentChars)
		copy(rec, comment[i*commentChars:end])
	}

	// Summary and name records.
	for k := 0; k < nSumRec; k++ {
		recno := firstSum + 2*k
		rec := buf[(recno-1)*RecordSize : recno*RecordSize]
		names := buf[recno*RecordSize : (recno+1)*RecordSize]

		next, prev := 0, 0
		if k < nSumRec-1 {
			next = recno + 2
		}
		if k > 0 {
			prev = recno - 2
		}
		lo := k * perRec
		hi := min(len(b.arrays), lo+perRec)
		putWord(order, rec, 0, float64(next))
		putWord(order, rec, 1, float64(prev))
		putWord(order, rec, 2, float64(hi-lo))
		for i := lo; i < hi; i++ {
			a := b.arrays[i]
			off := 3 + (i-lo)*ss
			for j, v := range a.dc {
				putWord(order, rec, off+j, v)
			}
			ib := rec[(off+b.ND)*8:]
			ics := append(append([]int32(nil), a.ic...), int32(places[i].start), int32(places[i].end))
			for j, v := range ics {
				order.PutUint32(ib[j*4:], uint32(v))
			}
			copy(names[(i-lo)*8*ss:], padRight(a.name, 8*ss))
		}
	}

	// Array data.
	for i, a := range b.arrays {
		for j, v := range a.data {
			order.PutUint64(buf[(places[i].start-1+j)*8:], math.Float64bits(v))
		}
	}
	return buf, nil
}

func putWord(order binary.ByteOrder, rec []byte, word int, v float64) {
	order.PutUint64(rec[word*8:], math.Float64bits(v))
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s[:n]
	}
	return s + strings.Repeat(" ", n-len(s))
}

// commentArea encodes text the way NAIF stores it: lines end in NUL and the
// text ends in EOT.
func commentArea(text string) []byte {
	if text == "" {
		return nil
	}
	out := []byte(strings.ReplaceAll(text, "\n", "\x00"))
	return append(out, 0x00, 0x04)
}
