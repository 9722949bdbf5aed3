// SPDX-License-Identifier: EPL-2.0

// Package imagetest provides fixtures for decoder tests: synthetic
// sample planes, a raw-plane stub codec, and an AVIF container
// builder. None of it ships in production builds.
package imagetest

import (
	"github.com/ik5/avifdec/pixel"
	"github.com/ik5/avifdec/utils"
)

func matrixKrKb(matrix uint16) (kr, kb float32) {
	switch matrix {
	case pixel.MatrixBT709:
		return 0.2126, 0.0722
	case pixel.MatrixBT2020NCL:
		return 0.2627, 0.0593
	case pixel.MatrixSMPTE240:
		return 0.212, 0.087
	default: // BT.601 and unspecified
		return 0.299, 0.114
	}
}

// YUVFromRGB applies the forward transform, producing the coded
// sample values a real encoder would emit for an RGB color.
func YUVFromRGB(r, g, b float32, depth int, fullRange bool, matrix uint16) (y, u, v uint16) {
	kr, kb := matrixKrKb(matrix)
	kg := 1 - kr - kb

	yn := kr*r + kg*g + kb*b
	cb := (b - yn) / (2 * (1 - kb))
	cr := (r - yn) / (2 * (1 - kr))

	maxVal := float32(int(1)<<depth - 1)
	center := float32(int(1) << (depth - 1))
	if fullRange {
		y = uint16(utils.Clamp(yn, 0, 1)*maxVal + 0.5)
		u = uint16(utils.Clamp(center+cb*maxVal, 0, maxVal) + 0.5)
		v = uint16(utils.Clamp(center+cr*maxVal, 0, maxVal) + 0.5)
		return
	}
	shift := depth - 8
	y = uint16(float32(int(16)<<shift) + yn*float32(int(219)<<shift) + 0.5)
	u = uint16(center + cb*float32(int(224)<<shift) + 0.5)
	v = uint16(center + cr*float32(int(224)<<shift) + 0.5)
	return
}

func solidPlane(w, h int, value uint16) pixel.Plane {
	p := pixel.Plane{Data: make([]uint16, w*h), Stride: w}
	for i := range p.Data {
		p.Data[i] = value
	}
	return p
}

// SolidImage builds a uniform color image in YUV form.
func SolidImage(w, h, depth int, sub pixel.Subsampling, fullRange bool, matrix uint16, r, g, b float32) *pixel.Image {
	y, u, v := YUVFromRGB(r, g, b, depth, fullRange, matrix)

	img := &pixel.Image{
		Width:       w,
		Height:      h,
		Depth:       depth,
		Subsampling: sub,
		FullRange:   fullRange,
		Primaries:   1,
		Transfer:    13,
		Matrix:      matrix,
		Y:           solidPlane(w, h, y),
	}
	if sub != pixel.Subsampling400 {
		cw, ch := img.ChromaDims()
		img.U = solidPlane(cw, ch, u)
		img.V = solidPlane(cw, ch, v)
	}
	return img
}

// GrayImage builds a monochrome image from a per-pixel luma function.
func GrayImage(w, h, depth int, fullRange bool, luma func(x, y int) uint16) *pixel.Image {
	img := &pixel.Image{
		Width:       w,
		Height:      h,
		Depth:       depth,
		Subsampling: pixel.Subsampling400,
		FullRange:   fullRange,
		Primaries:   1,
		Transfer:    13,
		Matrix:      pixel.MatrixBT601,
		Y:           pixel.Plane{Data: make([]uint16, w*h), Stride: w},
	}
	for yy := 0; yy < h; yy++ {
		for xx := 0; xx < w; xx++ {
			img.Y.Data[yy*w+xx] = luma(xx, yy)
		}
	}
	return img
}

// WithAlpha attaches an alpha plane from a per-pixel function whose
// values are in coded units of the image depth.
func WithAlpha(img *pixel.Image, alpha func(x, y int) uint16) *pixel.Image {
	img.A = pixel.Plane{Data: make([]uint16, img.Width*img.Height), Stride: img.Width}
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			img.A.Data[y*img.A.Stride+x] = alpha(x, y)
		}
	}
	return img
}
