// SPDX-License-Identifier: EPL-2.0

// Package dav1d decodes AV1 temporal units with libdav1d, loaded
// dynamically at process start. When the library is missing the codec
// registers as unavailable instead of failing the import.
package dav1d

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/ik5/avifdec/codec"
	"github.com/ik5/avifdec/pixel"
)

var errUnavailable = errors.New("libdav1d is not loaded")

type dav1dCodec struct{}

func (dav1dCodec) Name() string { return "dav1d" }

func (dav1dCodec) Version() string {
	if !loaded {
		return "unavailable"
	}
	return dav1dVersion()
}

func (dav1dCodec) Available() bool { return loaded }

func (dav1dCodec) NewInstance(cfg codec.Config) (codec.Instance, error) {
	if !loaded {
		return nil, fmt.Errorf("%w: %w", codec.ErrNoCodec, errUnavailable)
	}
	if cfg.Threads < 1 {
		cfg.Threads = 1
	}

	var settings dav1dSettings
	dav1dDefaultSettings(&settings)
	settings.NThreads = int32(cfg.Threads)
	settings.MaxFrameDelay = 1 // one frame in, one frame out

	var ctx uintptr
	if res := dav1dOpen(&ctx, &settings); res < 0 {
		return nil, fmt.Errorf("%w: dav1d_open: %d", codec.ErrDecodeFailed, res)
	}
	return &instance{ctx: ctx}, nil
}

type instance struct {
	ctx uintptr
	img *pixel.Image
}

func (in *instance) Close() error {
	if in.ctx != 0 {
		dav1dClose(&in.ctx)
		in.ctx = 0
	}
	in.img = nil
	return nil
}

func (in *instance) Decode(obu []byte) (*pixel.Image, error) {
	if in.ctx == 0 {
		return nil, fmt.Errorf("%w: instance closed", codec.ErrDecodeFailed)
	}
	if len(obu) == 0 {
		return nil, fmt.Errorf("%w: empty temporal unit", codec.ErrDecodeFailed)
	}

	var data dav1dData
	if res := dav1dDataWrap(&data, &obu[0], uint(len(obu)), freeCallback, 0); res < 0 {
		return nil, fmt.Errorf("%w: dav1d_data_wrap: %d", codec.ErrDecodeFailed, res)
	}

	var pic dav1dPicture
	got := false
	for {
		if data.Sz > 0 {
			if res := dav1dSendData(in.ctx, &data); res < 0 && res != errAgain {
				dav1dDataUnref(&data)
				return nil, fmt.Errorf("%w: dav1d_send_data: %d", codec.ErrDecodeFailed, res)
			}
		}
		res := dav1dGetPicture(in.ctx, &pic)
		if res == 0 {
			got = true
			break
		}
		if res != errAgain {
			dav1dDataUnref(&data)
			return nil, fmt.Errorf("%w: dav1d_get_picture: %d", codec.ErrDecodeFailed, res)
		}
		if data.Sz == 0 {
			// Backend wants more input but the temporal unit is spent.
			break
		}
	}
	if data.Sz > 0 {
		dav1dDataUnref(&data)
	}
	if !got {
		return nil, fmt.Errorf("%w: no picture produced", codec.ErrDecodeFailed)
	}
	defer dav1dPictureUnref(&pic)

	img, err := pictureToImage(&pic)
	if err != nil {
		return nil, err
	}
	in.img = img
	return img, nil
}

// pictureToImage copies libdav1d's native plane memory into the
// engine's uint16 plane model.
func pictureToImage(pic *dav1dPicture) (*pixel.Image, error) {
	w := int(pic.P.W)
	h := int(pic.P.H)
	depth := int(pic.P.Bpc)
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: bad picture geometry %dx%d", codec.ErrDecodeFailed, w, h)
	}

	var sub pixel.Subsampling
	switch pic.P.Layout {
	case pixelLayoutI400:
		sub = pixel.Subsampling400
	case pixelLayoutI420:
		sub = pixel.Subsampling420
	case pixelLayoutI422:
		sub = pixel.Subsampling422
	case pixelLayoutI444:
		sub = pixel.Subsampling444
	default:
		return nil, fmt.Errorf("%w: unknown pixel layout %d", codec.ErrDecodeFailed, pic.P.Layout)
	}

	img := &pixel.Image{
		Width:       w,
		Height:      h,
		Depth:       depth,
		Subsampling: sub,
	}

	img.Y = copyPlane(pic.Data[0], pic.Stride[0], w, h, depth)
	if sub != pixel.Subsampling400 {
		cw, ch := img.ChromaDims()
		img.U = copyPlane(pic.Data[1], pic.Stride[1], cw, ch, depth)
		img.V = copyPlane(pic.Data[2], pic.Stride[1], cw, ch, depth)
	}
	return img, nil
}

func copyPlane(base uintptr, stride int, w, h, depth int) pixel.Plane {
	p := pixel.Plane{
		Data:   make([]uint16, w*h),
		Stride: w,
	}
	if depth > 8 {
		srcStride := stride / 2
		src := unsafe.Slice((*uint16)(unsafe.Pointer(base)), srcStride*(h-1)+w)
		for y := 0; y < h; y++ {
			copy(p.Data[y*w:(y+1)*w], src[y*srcStride:y*srcStride+w])
		}
		return p
	}
	src := unsafe.Slice((*uint8)(unsafe.Pointer(base)), stride*(h-1)+w)
	for y := 0; y < h; y++ {
		row := src[y*stride : y*stride+w]
		dst := p.Data[y*w : (y+1)*w]
		for x, v := range row {
			dst[x] = uint16(v)
		}
	}
	return p
}

func init() {
	codec.Register(dav1dCodec{})
}
