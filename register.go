// SPDX-License-Identifier: EPL-2.0

package avifdec

import (
	"image"
	"image/color"
	"io"

	"github.com/ik5/avifdec/pixel"
)

// DecodeImage decodes the first frame of an AVIF stream into an
// image.RGBA, for use with the standard image package.
func DecodeImage(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	d, err := Open(data, Options{})
	if err != nil {
		return nil, err
	}
	defer d.Close()

	if _, err := d.NextImage(); err != nil {
		return nil, err
	}

	info := d.Info()
	out := image.NewRGBA(image.Rect(0, 0, info.Width, info.Height))
	rgb := &pixel.RGBImage{
		Width:  info.Width,
		Height: info.Height,
		Stride: out.Stride,
		Format: pixel.FormatRGBA8888,
		Pix:    out.Pix,
	}
	if err := d.ToRGB(rgb); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeImageConfig reports dimensions and color model without
// decoding pixels.
func DecodeImageConfig(r io.Reader) (image.Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return image.Config{}, err
	}
	info, err := GetInfo(data, Options{})
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{
		ColorModel: color.RGBAModel,
		Width:      info.Width,
		Height:     info.Height,
	}, nil
}

func init() {
	image.RegisterFormat("avif", "????ftypavif", DecodeImage, DecodeImageConfig)
	image.RegisterFormat("avif", "????ftypavis", DecodeImage, DecodeImageConfig)
}
