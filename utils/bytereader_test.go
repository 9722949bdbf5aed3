// SPDX-License-Identifier: EPL-2.0

package utils

import (
	"errors"
	"testing"
)

func TestByteReader_Integers(t *testing.T) {
	t.Parallel()

	r := NewByteReader([]byte{
		0x01,
		0x02, 0x03,
		0x04, 0x05, 0x06,
		0x07, 0x08, 0x09, 0x0a,
		0x00, 0x00, 0x00, 0x00, 0x0b, 0x0c, 0x0d, 0x0e,
	})

	if got := r.U8(); got != 0x01 {
		t.Errorf("U8() = %#x, want 0x01", got)
	}
	if got := r.U16(); got != 0x0203 {
		t.Errorf("U16() = %#x, want 0x0203", got)
	}
	if got := r.U24(); got != 0x040506 {
		t.Errorf("U24() = %#x, want 0x040506", got)
	}
	if got := r.U32(); got != 0x0708090a {
		t.Errorf("U32() = %#x, want 0x0708090a", got)
	}
	if got := r.U64(); got != 0x0b0c0d0e {
		t.Errorf("U64() = %#x, want 0x0b0c0d0e", got)
	}
	if err := r.Err(); err != nil {
		t.Fatalf("Err() = %v, want nil", err)
	}
	if got := r.Remaining(); got != 0 {
		t.Errorf("Remaining() = %d, want 0", got)
	}
}

func TestByteReader_StickyError(t *testing.T) {
	t.Parallel()

	r := NewByteReader([]byte{0x01, 0x02})
	_ = r.U32() // past end

	if !errors.Is(r.Err(), ErrOutOfBounds) {
		t.Fatalf("Err() = %v, want ErrOutOfBounds", r.Err())
	}

	// Later reads stay zero and the error stays latched.
	if got := r.U8(); got != 0 {
		t.Errorf("U8() after error = %d, want 0", got)
	}
	if !errors.Is(r.Err(), ErrOutOfBounds) {
		t.Errorf("Err() = %v, want ErrOutOfBounds", r.Err())
	}
}

func TestByteReader_FourCC(t *testing.T) {
	t.Parallel()

	r := NewByteReader([]byte("ftypavif"))
	if got := r.FourCC(); got != "ftyp" {
		t.Errorf("FourCC() = %q, want %q", got, "ftyp")
	}
	if got := r.FourCC(); got != "avif" {
		t.Errorf("FourCC() = %q, want %q", got, "avif")
	}
}

func TestByteReader_UVar(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
		n    int
		want uint64
	}{
		{"zero width", nil, 0, 0},
		{"one byte", []byte{0xff}, 1, 0xff},
		{"two bytes", []byte{0x01, 0x02}, 2, 0x0102},
		{"four bytes", []byte{0x01, 0x02, 0x03, 0x04}, 4, 0x01020304},
		{"eight bytes", []byte{0, 0, 0, 0, 0, 0, 0x01, 0x02}, 8, 0x0102},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := NewByteReader(tt.data)
			if got := r.UVar(tt.n); got != tt.want {
				t.Errorf("UVar(%d) = %#x, want %#x", tt.n, got, tt.want)
			}
			if err := r.Err(); err != nil {
				t.Errorf("Err() = %v, want nil", err)
			}
		})
	}
}

func TestByteReader_UVarBadWidth(t *testing.T) {
	t.Parallel()

	r := NewByteReader([]byte{1, 2, 3})
	_ = r.UVar(3)
	if !errors.Is(r.Err(), ErrOutOfBounds) {
		t.Errorf("Err() = %v, want ErrOutOfBounds", r.Err())
	}
}

func TestByteReader_SetPosSkip(t *testing.T) {
	t.Parallel()

	r := NewByteReader([]byte{1, 2, 3, 4})
	r.Skip(2)
	if got := r.U8(); got != 3 {
		t.Errorf("U8() after Skip(2) = %d, want 3", got)
	}
	r.SetPos(0)
	if got := r.U8(); got != 1 {
		t.Errorf("U8() after SetPos(0) = %d, want 1", got)
	}
	r.SetPos(5)
	if !errors.Is(r.Err(), ErrOutOfBounds) {
		t.Errorf("Err() = %v, want ErrOutOfBounds", r.Err())
	}
}

func TestByteReader_CString(t *testing.T) {
	t.Parallel()

	r := NewByteReader([]byte("av01\x00rest"))
	if got := r.CString(); got != "av01" {
		t.Errorf("CString() = %q, want %q", got, "av01")
	}
	if got := r.Pos(); got != 5 {
		t.Errorf("Pos() = %d, want 5", got)
	}

	r = NewByteReader([]byte("no terminator"))
	_ = r.CString()
	if !errors.Is(r.Err(), ErrOutOfBounds) {
		t.Errorf("Err() = %v, want ErrOutOfBounds", r.Err())
	}
}
