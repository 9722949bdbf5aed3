// SPDX-License-Identifier: EPL-2.0

package imagetest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ik5/avifdec/codec"
	"github.com/ik5/avifdec/pixel"
	"github.com/ik5/avifdec/utils"
)

// CodecName is the registry name of the stub codec.
const CodecName = "raw"

// Raw payload layout (big endian):
//
//	magic "RAWP" | depth u8 | subsampling u8 | width u16 | height u16 |
//	Y plane | U plane | V plane            (u16 samples, row major)
//
// Chroma planes are present unless subsampling is 4:0:0. A payload
// whose magic is "FAIL" makes Decode fail, for error-path tests.

var errBadPayload = errors.New("imagetest: malformed raw payload")

// EncodePayload serializes an image's planes into the raw format.
func EncodePayload(img *pixel.Image) []byte {
	out := []byte("RAWP")
	out = append(out, byte(img.Depth), byte(img.Subsampling))
	out = append(out, byte(img.Width>>8), byte(img.Width), byte(img.Height>>8), byte(img.Height))

	appendPlane := func(p pixel.Plane, w, h int) {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				v := p.Data[y*p.Stride+x]
				out = append(out, byte(v>>8), byte(v))
			}
		}
	}
	appendPlane(img.Y, img.Width, img.Height)
	if img.Subsampling != pixel.Subsampling400 {
		cw, ch := img.ChromaDims()
		appendPlane(img.U, cw, ch)
		appendPlane(img.V, cw, ch)
	}
	return out
}

// FailPayload returns a payload the stub codec refuses to decode.
func FailPayload() []byte { return []byte("FAIL") }

// RawCodec is a stub codec.Codec decoding the raw payload format. It
// records the Config of every instance it creates so tests can assert
// on resolved thread counts.
type RawCodec struct {
	mu      sync.Mutex
	configs []codec.Config
}

func (c *RawCodec) Name() string    { return CodecName }
func (c *RawCodec) Version() string { return "test" }
func (c *RawCodec) Available() bool { return true }

func (c *RawCodec) NewInstance(cfg codec.Config) (codec.Instance, error) {
	c.mu.Lock()
	c.configs = append(c.configs, cfg)
	c.mu.Unlock()
	return &rawInstance{}, nil
}

// Configs returns the configs of all instances created so far.
func (c *RawCodec) Configs() []codec.Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]codec.Config(nil), c.configs...)
}

type rawInstance struct {
	closed bool
}

func (in *rawInstance) Close() error {
	in.closed = true
	return nil
}

func (in *rawInstance) Decode(obu []byte) (*pixel.Image, error) {
	if in.closed {
		return nil, fmt.Errorf("%w: instance closed", codec.ErrDecodeFailed)
	}
	r := utils.NewByteReader(obu)
	if r.FourCC() != "RAWP" {
		return nil, fmt.Errorf("%w: %w", codec.ErrDecodeFailed, errBadPayload)
	}
	depth := int(r.U8())
	sub := pixel.Subsampling(r.U8())
	w := int(r.U16())
	h := int(r.U16())
	if r.Err() != nil || w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: %w", codec.ErrDecodeFailed, errBadPayload)
	}

	img := &pixel.Image{
		Width:       w,
		Height:      h,
		Depth:       depth,
		Subsampling: sub,
	}

	readPlane := func(w, h int) (pixel.Plane, bool) {
		p := pixel.Plane{Data: make([]uint16, w*h), Stride: w}
		for i := range p.Data {
			p.Data[i] = r.U16()
		}
		return p, r.Err() == nil
	}

	var ok bool
	if img.Y, ok = readPlane(w, h); !ok {
		return nil, fmt.Errorf("%w: %w", codec.ErrDecodeFailed, errBadPayload)
	}
	if sub != pixel.Subsampling400 {
		cw, ch := img.ChromaDims()
		if img.U, ok = readPlane(cw, ch); !ok {
			return nil, fmt.Errorf("%w: %w", codec.ErrDecodeFailed, errBadPayload)
		}
		if img.V, ok = readPlane(cw, ch); !ok {
			return nil, fmt.Errorf("%w: %w", codec.ErrDecodeFailed, errBadPayload)
		}
	}
	return img, nil
}
