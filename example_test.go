// SPDX-License-Identifier: EPL-2.0

package avifdec_test

import (
	"fmt"
	"os"

	"github.com/ik5/avifdec"
	"github.com/ik5/avifdec/pixel"
)

func Example() {
	data, err := os.ReadFile("testdata/kitten.avif")
	if err != nil {
		return
	}

	d, err := avifdec.Open(data, avifdec.Options{})
	if err != nil {
		return
	}
	defer d.Close()

	info := d.Info()
	rgb := pixel.NewRGBImage(info.Width, info.Height, pixel.FormatRGBA8888)

	for i := 0; i < info.FrameCount; i++ {
		if _, err := d.NextImage(); err != nil {
			return
		}
		if err := d.ToRGB(rgb); err != nil {
			return
		}
		fmt.Printf("frame %d: %.3fs\n", i, info.Durations[i])
	}
}
