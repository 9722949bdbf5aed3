// SPDX-License-Identifier: EPL-2.0

package avifdec

import (
	"github.com/ik5/avifdec/container"
	"github.com/ik5/avifdec/pixel"
)

// IsAVIF is a cheap signature sniff. It inspects only the leading ftyp
// box and never parses the rest of the buffer.
func IsAVIF(data []byte) bool {
	return container.PeekCompatibleFileType(data)
}

// GetInfo parses data and returns its static image facts without
// decoding any pixels.
func GetInfo(data []byte, opts Options) (Info, error) {
	d, err := Open(data, opts)
	if err != nil {
		return Info{}, err
	}
	defer d.Close()
	return d.Info(), nil
}

// Decode is the one-shot path: it decodes the first frame of data into
// rgb. Animations decode their first frame only.
func Decode(data []byte, rgb *pixel.RGBImage, opts Options) error {
	d, err := Open(data, opts)
	if err != nil {
		return err
	}
	defer d.Close()

	if _, err := d.NextImage(); err != nil {
		return err
	}
	return d.ToRGB(rgb)
}
