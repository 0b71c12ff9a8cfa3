// Package loader initializes simulated memories directly from host-side data,
// bypassing the write path of the design under test.
package loader

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/sarchlab/tbsim/mem"
)

// DefaultStride is the size of the chunks a Loader writes.
const DefaultStride = 4

// ErrMisaligned is returned when a fill does not start on a stride boundary.
var ErrMisaligned = errors.New("loader: address not aligned to stride")

// Memory is what a Loader writes into.
type Memory interface {
	Capacity() uint64
	Write(address uint64, data []byte) error
}

// Result reports what a fill wrote.
type Result struct {
	Addr  uint64
	Words int
	Bytes int

	// PartialTail is set when the last chunk was shorter than the stride.
	PartialTail bool
}

// A Loader writes byte buffers into memories in fixed-size strides.
type Loader struct {
	stride uint64
}

// NewLoader creates a loader that writes 4-byte chunks.
func NewLoader() *Loader {
	return &Loader{stride: DefaultStride}
}

// WithStride sets the chunk size.
func (l *Loader) WithStride(n uint64) *Loader {
	if n == 0 {
		panic("loader stride cannot be 0")
	}

	l.stride = n

	return l
}

// Stride returns the chunk size.
func (l *Loader) Stride() uint64 {
	return l.stride
}

// Fill writes data to m starting at byte offset loc. Chunk i lands at
// loc+i*stride. A trailing chunk shorter than the stride is written as is,
// leaving the rest of that word untouched. Range and alignment are checked
// before anything is written.
func (l *Loader) Fill(m Memory, loc uint64, data []byte) (Result, error) {
	res := Result{Addr: loc}

	if len(data) == 0 {
		return res, nil
	}

	if loc%l.stride != 0 {
		return res, errors.Wrapf(ErrMisaligned,
			"fill at %#x with stride %d", loc, l.stride)
	}

	length := uint64(len(data))
	if loc > m.Capacity() || length > m.Capacity()-loc {
		return res, errors.Wrapf(mem.ErrOutOfRange,
			"fill of %d bytes at %#x", length, loc)
	}

	for i := uint64(0); i < length; i += l.stride {
		end := i + l.stride
		if end > length {
			end = length
			res.PartialTail = true
		}

		err := m.Write(loc+i, data[i:end])
		if err != nil {
			return res, errors.Wrapf(err, "fill word %d", res.Words)
		}

		res.Words++
		res.Bytes += int(end - i)
	}

	return res, nil
}

// FillMemory writes data to m at loc in 4-byte strides.
func FillMemory(m Memory, loc uint64, data []byte) (Result, error) {
	return NewLoader().Fill(m, loc, data)
}

// LoadWords writes 32-bit words to m at loc, little-endian.
func LoadWords(m Memory, loc uint64, words []uint32) (Result, error) {
	buf := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[4*i:], w)
	}

	return NewLoader().WithStride(4).Fill(m, loc, buf)
}
