// SPDX-License-Identifier: EPL-2.0

package pixel_test

import (
	"fmt"

	"github.com/ik5/avifdec/pixel"
)

func ExampleConvert() {
	// A 2x2 full-range monochrome gradient.
	img := &pixel.Image{
		Width: 2, Height: 2, Depth: 8,
		Subsampling: pixel.Subsampling400,
		FullRange:   true,
		Matrix:      pixel.MatrixBT601,
		Y:           pixel.Plane{Data: []uint16{0, 85, 170, 255}, Stride: 2},
	}

	rgb := pixel.NewRGBImage(2, 2, pixel.FormatRGBA8888)
	if err := pixel.Convert(img, rgb); err != nil {
		panic(err)
	}

	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			p := rgb.Pix[y*rgb.Stride+x*4:]
			fmt.Printf("(%d,%d) = %d %d %d %d\n", x, y, p[0], p[1], p[2], p[3])
		}
	}
	// Output:
	// (0,0) = 0 0 0 255
	// (1,0) = 85 85 85 255
	// (0,1) = 170 170 170 255
	// (1,1) = 255 255 255 255
}
