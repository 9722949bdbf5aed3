// SPDX-License-Identifier: EPL-2.0

package pixel

import "fmt"

// Format identifies a supported sink pixel layout.
type Format uint8

const (
	// FormatRGBA8888 is 8 bits per channel, R first in memory.
	FormatRGBA8888 Format = iota
	// FormatRGB565 is a packed little-endian 16-bit pixel with no
	// alpha channel: bits 15..11 red, 10..5 green, 4..0 blue.
	FormatRGB565
	// FormatRGBAF16 is four IEEE 754 half-floats per pixel,
	// little-endian, values normalized to [0,1].
	FormatRGBAF16
)

func (f Format) String() string {
	switch f {
	case FormatRGBA8888:
		return "RGBA8888"
	case FormatRGB565:
		return "RGB565"
	case FormatRGBAF16:
		return "RGBA_F16"
	default:
		return fmt.Sprintf("Format(%d)", uint8(f))
	}
}

// BytesPerPixel returns the size of one packed pixel, or 0 for an
// unknown format.
func (f Format) BytesPerPixel() int {
	switch f {
	case FormatRGBA8888:
		return 4
	case FormatRGB565:
		return 2
	case FormatRGBAF16:
		return 8
	default:
		return 0
	}
}

// HasAlpha reports whether the format stores an alpha channel.
func (f Format) HasAlpha() bool { return f != FormatRGB565 }

// UpsampleMode selects the chroma reconstruction filter.
type UpsampleMode uint8

const (
	UpsampleNearest UpsampleMode = iota
	UpsampleBilinear
)

// RGBImage is a caller-owned pixel sink. The converter only borrows it
// for the duration of one Convert call; it never retains Pix.
//
// Output alpha is always premultiplied. RGBImage deliberately has no
// knob for that.
type RGBImage struct {
	Width  int
	Height int
	Stride int // bytes per row
	Format Format

	// Upsampling selects the chroma filter used when the source image
	// is subsampled.
	Upsampling UpsampleMode

	Pix []byte

	locked bool
}

// NewRGBImage allocates a tightly packed sink of the given geometry.
func NewRGBImage(width, height int, format Format) *RGBImage {
	stride := width * format.BytesPerPixel()
	return &RGBImage{
		Width:  width,
		Height: height,
		Stride: stride,
		Format: format,
		Pix:    make([]byte, stride*height),
	}
}

// Lock acquires the sink for exclusive writing.
func (r *RGBImage) Lock() error {
	if r.locked {
		return ErrTargetLocked
	}
	r.locked = true
	return nil
}

// Unlock releases the sink. Unlocking an unlocked sink is a no-op.
func (r *RGBImage) Unlock() {
	r.locked = false
}

// Locked reports whether the sink is inside a conversion.
func (r *RGBImage) Locked() bool { return r.locked }

// checkCapacity verifies the sink can hold a w x h image. Undersized
// sinks are a hard error; output is never truncated.
func (r *RGBImage) checkCapacity(w, h int) error {
	bpp := r.Format.BytesPerPixel()
	if r.Width < w || r.Height < h {
		return ErrBufferTooSmall
	}
	if r.Stride < w*bpp {
		return ErrBufferTooSmall
	}
	if len(r.Pix) < (h-1)*r.Stride+w*bpp {
		return ErrBufferTooSmall
	}
	return nil
}
