// SPDX-License-Identifier: EPL-2.0

package utils

// BitReader reads most-significant-bit-first fields from a byte slice,
// as used by packed codec configuration records. Like ByteReader it
// latches the first out-of-bounds read.
type BitReader struct {
	data []byte
	pos  int // bit offset from start
	err  error
}

func NewBitReader(data []byte) *BitReader {
	return &BitReader{data: data}
}

func (r *BitReader) Err() error { return r.err }

// Bits reads n bits (0 <= n <= 32) as an unsigned integer.
func (r *BitReader) Bits(n int) uint32 {
	if r.err != nil {
		return 0
	}
	if n < 0 || n > 32 || r.pos+n > len(r.data)*8 {
		if r.err == nil {
			r.err = ErrOutOfBounds
		}
		return 0
	}
	var v uint32
	for i := 0; i < n; i++ {
		byteIdx := r.pos >> 3
		bitIdx := 7 - (r.pos & 7)
		v = v<<1 | uint32(r.data[byteIdx]>>bitIdx)&1
		r.pos++
	}
	return v
}

// Flag reads a single bit as a bool.
func (r *BitReader) Flag() bool {
	return r.Bits(1) != 0
}

// ByteAligned reports whether the cursor sits on a byte boundary.
func (r *BitReader) ByteAligned() bool {
	return r.pos&7 == 0
}

// Rest returns the unread bytes. The cursor must be byte aligned.
func (r *BitReader) Rest() []byte {
	if r.err != nil || !r.ByteAligned() {
		return nil
	}
	return r.data[r.pos>>3:]
}
