// SPDX-License-Identifier: EPL-2.0

package pixel

import (
	"encoding/binary"

	"github.com/x448/float16"

	"github.com/ik5/avifdec/utils"
)

// coefficients maps CICP matrix coefficients to Kr/Kb. Unspecified
// content is treated as BT.601, which is what most AVIF writers mean
// when they leave the matrix blank.
func coefficients(matrix uint16) (kr, kb float32, ok bool) {
	switch matrix {
	case MatrixBT709:
		return 0.2126, 0.0722, true
	case MatrixBT470BG, MatrixBT601, MatrixUnspecified:
		return 0.299, 0.114, true
	case MatrixSMPTE240:
		return 0.212, 0.087, true
	case MatrixBT2020NCL:
		return 0.2627, 0.0593, true
	default:
		return 0, 0, false
	}
}

// Convert writes img into the rgb sink.
//
// Validation order is fixed: sink dimensions first (hard error, output
// is never cropped), then sink format (ErrNotImplemented for unknown
// layouts), then the byte capacity that depends on the pixel size,
// then the transform itself (ErrReformatFailed for unusable sources).
// The sink is locked for the duration of the write and unlocked on
// every exit path.
func Convert(img *Image, rgb *RGBImage) error {
	if img == nil || rgb == nil {
		return ErrReformatFailed
	}
	if rgb.Width < img.Width || rgb.Height < img.Height {
		return ErrBufferTooSmall
	}
	if rgb.Format.BytesPerPixel() == 0 {
		return ErrNotImplemented
	}
	if err := rgb.checkCapacity(img.Width, img.Height); err != nil {
		return err
	}
	if err := rgb.Lock(); err != nil {
		return err
	}
	defer rgb.Unlock()

	return convertLocked(img, rgb)
}

func convertLocked(img *Image, rgb *RGBImage) error {
	if err := img.check(); err != nil {
		return err
	}

	identity := img.Matrix == MatrixIdentity
	mono := img.Subsampling == Subsampling400

	var kr, kb, kg float32
	if identity {
		// Identity carries G/B/R directly in the Y/U/V planes, which
		// only lines up when chroma is full resolution.
		if !mono && img.Subsampling != Subsampling444 {
			return ErrReformatFailed
		}
	} else {
		var ok bool
		kr, kb, ok = coefficients(img.Matrix)
		if !ok {
			return ErrReformatFailed
		}
		kg = 1 - kr - kb
	}

	maxVal := float32(int(1)<<img.Depth - 1)
	center := float32(int(1) << (img.Depth - 1))

	var yOff, yScale, cScale float32
	if img.FullRange {
		yOff, yScale, cScale = 0, maxVal, maxVal
	} else {
		shift := img.Depth - 8
		yOff = float32(int(16) << shift)
		yScale = float32(int(219) << shift)
		cScale = float32(int(224) << shift)
	}

	hasAlpha := img.HasAlpha() && rgb.Format.HasAlpha()

	for y := 0; y < img.Height; y++ {
		row := rgb.Pix[y*rgb.Stride:]
		yRow := img.Y.Data[y*img.Y.Stride:]

		for x := 0; x < img.Width; x++ {
			yv := float32(yRow[x])

			var r, g, b float32
			switch {
			case mono:
				v := utils.Clamp((yv-yOff)/yScale, 0, 1)
				r, g, b = v, v, v
			case identity:
				uv, vv := chromaAt(img, x, y, rgb.Upsampling)
				g = utils.Clamp((yv-yOff)/yScale, 0, 1)
				b = utils.Clamp((uv-yOff)/yScale, 0, 1)
				r = utils.Clamp((vv-yOff)/yScale, 0, 1)
			default:
				uv, vv := chromaAt(img, x, y, rgb.Upsampling)
				yn := (yv - yOff) / yScale
				cb := (uv - center) / cScale
				cr := (vv - center) / cScale
				r = utils.Clamp(yn+2*(1-kr)*cr, 0, 1)
				b = utils.Clamp(yn+2*(1-kb)*cb, 0, 1)
				g = utils.Clamp((yn-kr*r-kb*b)/kg, 0, 1)
			}

			a := float32(1)
			if hasAlpha {
				// Alpha planes are always full range.
				a = utils.Clamp(float32(img.A.Data[y*img.A.Stride+x])/maxVal, 0, 1)
				if !img.AlphaPremultiplied {
					r *= a
					g *= a
					b *= a
				}
			}

			switch rgb.Format {
			case FormatRGBA8888:
				p := row[x*4:]
				p[0] = utils.RoundU8(r)
				p[1] = utils.RoundU8(g)
				p[2] = utils.RoundU8(b)
				p[3] = utils.RoundU8(a)
			case FormatRGB565:
				v := uint16(utils.RoundN(r, 31)<<11 | utils.RoundN(g, 63)<<5 | utils.RoundN(b, 31))
				binary.LittleEndian.PutUint16(row[x*2:], v)
			case FormatRGBAF16:
				p := row[x*8:]
				binary.LittleEndian.PutUint16(p[0:], float16.Fromfloat32(r).Bits())
				binary.LittleEndian.PutUint16(p[2:], float16.Fromfloat32(g).Bits())
				binary.LittleEndian.PutUint16(p[4:], float16.Fromfloat32(b).Bits())
				binary.LittleEndian.PutUint16(p[6:], float16.Fromfloat32(a).Bits())
			}
		}
	}

	return nil
}

// chromaAt returns the raw chroma samples covering output pixel (x, y).
func chromaAt(img *Image, x, y int, mode UpsampleMode) (u, v float32) {
	sx, sy := img.Subsampling.Shifts()
	if sx == 0 && sy == 0 {
		return float32(img.U.Data[y*img.U.Stride+x]), float32(img.V.Data[y*img.V.Stride+x])
	}

	cw, ch := img.ChromaDims()
	if mode == UpsampleNearest {
		cx := min(x>>sx, cw-1)
		cy := min(y>>sy, ch-1)
		return float32(img.U.Data[cy*img.U.Stride+cx]), float32(img.V.Data[cy*img.V.Stride+cx])
	}

	// Bilinear with half-pel chroma siting.
	fx := (float32(x)+0.5)/float32(int(1)<<sx) - 0.5
	fy := (float32(y)+0.5)/float32(int(1)<<sy) - 0.5
	return bilinear(img.U, cw, ch, fx, fy), bilinear(img.V, cw, ch, fx, fy)
}

func bilinear(p Plane, cw, ch int, fx, fy float32) float32 {
	x0 := int(fx)
	if fx < 0 {
		x0 = -1
	}
	y0 := int(fy)
	if fy < 0 {
		y0 = -1
	}
	wx := fx - float32(x0)
	wy := fy - float32(y0)

	clampX := func(x int) int { return max(0, min(x, cw-1)) }
	clampY := func(y int) int { return max(0, min(y, ch-1)) }

	s00 := float32(p.Data[clampY(y0)*p.Stride+clampX(x0)])
	s10 := float32(p.Data[clampY(y0)*p.Stride+clampX(x0+1)])
	s01 := float32(p.Data[clampY(y0+1)*p.Stride+clampX(x0)])
	s11 := float32(p.Data[clampY(y0+1)*p.Stride+clampX(x0+1)])

	top := s00 + (s10-s00)*wx
	bot := s01 + (s11-s01)*wx
	return top + (bot-top)*wy
}
