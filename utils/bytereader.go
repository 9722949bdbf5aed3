// SPDX-License-Identifier: EPL-2.0

package utils

import "errors"

var ErrOutOfBounds = errors.New("read past end of buffer")

// ByteReader reads big-endian integers from a byte slice with bounds
// checking. The first out-of-bounds read latches the error; every later
// read returns zero values until Err is checked. This keeps box-walking
// code free of per-field error handling.
type ByteReader struct {
	data []byte
	pos  int
	err  error
}

func NewByteReader(data []byte) *ByteReader {
	return &ByteReader{data: data}
}

func (r *ByteReader) Err() error { return r.err }
func (r *ByteReader) Pos() int   { return r.pos }
func (r *ByteReader) Len() int   { return len(r.data) }

// Remaining reports how many unread bytes are left.
func (r *ByteReader) Remaining() int {
	if r.err != nil {
		return 0
	}
	return len(r.data) - r.pos
}

func (r *ByteReader) fail() {
	if r.err == nil {
		r.err = ErrOutOfBounds
	}
}

// SetPos moves the read cursor to an absolute offset.
func (r *ByteReader) SetPos(pos int) {
	if r.err != nil {
		return
	}
	if pos < 0 || pos > len(r.data) {
		r.fail()
		return
	}
	r.pos = pos
}

func (r *ByteReader) Skip(n int) {
	if r.err != nil {
		return
	}
	if n < 0 || r.pos+n > len(r.data) {
		r.fail()
		return
	}
	r.pos += n
}

// Bytes returns the next n bytes as a sub-slice of the underlying
// buffer. The caller must not mutate it.
func (r *ByteReader) Bytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.pos+n > len(r.data) {
		r.fail()
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *ByteReader) U8() uint8 {
	b := r.Bytes(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *ByteReader) U16() uint16 {
	b := r.Bytes(2)
	if b == nil {
		return 0
	}
	return uint16(b[0])<<8 | uint16(b[1])
}

func (r *ByteReader) U24() uint32 {
	b := r.Bytes(3)
	if b == nil {
		return 0
	}
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}

func (r *ByteReader) U32() uint32 {
	b := r.Bytes(4)
	if b == nil {
		return 0
	}
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func (r *ByteReader) U64() uint64 {
	b := r.Bytes(8)
	if b == nil {
		return 0
	}
	return uint64(b[0])<<56 | uint64(b[1])<<48 | uint64(b[2])<<40 | uint64(b[3])<<32 |
		uint64(b[4])<<24 | uint64(b[5])<<16 | uint64(b[6])<<8 | uint64(b[7])
}

// UVar reads an unsigned integer of n bytes where n is 0, 1, 2, 4 or 8.
// Used by iloc fields whose width is declared in the box itself.
func (r *ByteReader) UVar(n int) uint64 {
	switch n {
	case 0:
		return 0
	case 1:
		return uint64(r.U8())
	case 2:
		return uint64(r.U16())
	case 4:
		return uint64(r.U32())
	case 8:
		return r.U64()
	default:
		r.fail()
		return 0
	}
}

// FourCC reads a four-character code as a string.
func (r *ByteReader) FourCC() string {
	b := r.Bytes(4)
	if b == nil {
		return ""
	}
	return string(b)
}

// CString reads a NUL-terminated string, consuming the terminator.
func (r *ByteReader) CString() string {
	if r.err != nil {
		return ""
	}
	for i := r.pos; i < len(r.data); i++ {
		if r.data[i] == 0 {
			s := string(r.data[r.pos:i])
			r.pos = i + 1
			return s
		}
	}
	r.fail()
	return ""
}
