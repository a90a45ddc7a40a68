package storage

import (
	"fmt"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// float32Size is the encoded size of one raw float32.
const float32Size = 4

// VectorEntry is the persisted form of one cached embedding. The text is
// kept alongside the vector so that key hash collisions can be detected.
type VectorEntry struct {
	Text   string
	Vector []float32
}

// VectorEntryMUS serializes VectorEntry values in MUS format.
var VectorEntryMUS = vectorEntryMUS{}

type vectorEntryMUS struct{}

// Marshal writes e into bs, which must be at least Size(e) bytes long.
func (vectorEntryMUS) Marshal(e VectorEntry, bs []byte) (n int) {
	n = ord.String.Marshal(e.Text, bs)
	n += varint.Uint64.Marshal(uint64(len(e.Vector)), bs[n:])
	for _, f := range e.Vector {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return n
}

// Unmarshal reads a VectorEntry from bs.
func (vectorEntryMUS) Unmarshal(bs []byte) (e VectorEntry, n int, err error) {
	e.Text, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	length, n1, err := varint.Uint64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	if length > uint64((len(bs)-n)/float32Size) {
		err = fmt.Errorf("%w: vector of %d elements in %d bytes", ErrTruncatedData, length, len(bs)-n)
		return
	}
	e.Vector = make([]float32, length)
	for i := range e.Vector {
		e.Vector[i], n1, err = raw.Float32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

// Size returns the number of bytes Marshal needs for e.
func (vectorEntryMUS) Size(e VectorEntry) (size int) {
	size = ord.String.Size(e.Text)
	size += varint.Uint64.Size(uint64(len(e.Vector)))
	return size + len(e.Vector)*raw.Float32.Size(0)
}

// MarshalVectorEntry serializes a VectorEntry to bytes.
func MarshalVectorEntry(entry *VectorEntry) []byte {
	buf := make([]byte, VectorEntryMUS.Size(*entry))
	VectorEntryMUS.Marshal(*entry, buf)
	return buf
}

// UnmarshalVectorEntry deserializes a VectorEntry from bytes.
func UnmarshalVectorEntry(data []byte) (*VectorEntry, error) {
	entry, _, err := VectorEntryMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &entry, nil
}
