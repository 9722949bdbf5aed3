// SPDX-License-Identifier: EPL-2.0

// Package pixel models decoded sample planes and converts them into
// caller-owned RGB buffers.
//
// # Plane Model
//
// An Image holds up to four planes (Y, U, V, A), each a 2D grid of
// uint16 samples with its own stride. Samples hold 8, 10 or 12
// significant bits per the image depth; 8-bit content still uses
// uint16 storage so every depth flows through one code path.
//
// # Conversion
//
// Convert writes an Image into an RGBImage sink:
//
//	rgb := pixel.NewRGBImage(w, h, pixel.FormatRGBA8888)
//	if err := pixel.Convert(img, rgb); err != nil {
//	    // handle capacity / format / transform errors
//	}
//
// Three sink formats are supported: 8-bit RGBA, packed RGB565 (no
// alpha) and IEEE 754 half-float RGBA. Output alpha is always
// premultiplied; this matches the compositing convention of the
// consuming platforms and is not configurable.
//
// The sink is exclusively locked for the duration of one Convert call
// and unlocked on every path out of it, including failures.
//
// # Color Spaces
//
// The YUV to RGB transform honors the image's CICP matrix
// coefficients (identity, BT.601, BT.709, BT.2020 non-constant
// luminance) and limited/full range coding. Chroma upsampling is
// nearest-neighbor by default; the sink can request bilinear.
package pixel
