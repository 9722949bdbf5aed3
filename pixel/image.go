// SPDX-License-Identifier: EPL-2.0

package pixel

// Subsampling describes the chroma decimation of an image.
type Subsampling uint8

const (
	Subsampling444 Subsampling = iota // full-resolution chroma
	Subsampling422                    // chroma halved horizontally
	Subsampling420                    // chroma halved both ways
	Subsampling400                    // no chroma (monochrome)
)

// Shifts returns the horizontal and vertical chroma decimation shifts.
func (s Subsampling) Shifts() (x, y int) {
	switch s {
	case Subsampling422:
		return 1, 0
	case Subsampling420:
		return 1, 1
	default:
		return 0, 0
	}
}

func (s Subsampling) String() string {
	switch s {
	case Subsampling444:
		return "4:4:4"
	case Subsampling422:
		return "4:2:2"
	case Subsampling420:
		return "4:2:0"
	case Subsampling400:
		return "4:0:0"
	default:
		return "unknown"
	}
}

// CICP matrix coefficient codes (ITU-T H.273) understood by Convert.
const (
	MatrixIdentity    uint16 = 0
	MatrixBT709       uint16 = 1
	MatrixUnspecified uint16 = 2
	MatrixBT470BG     uint16 = 5
	MatrixBT601       uint16 = 6
	MatrixSMPTE240    uint16 = 7
	MatrixBT2020NCL   uint16 = 9
)

// Plane is one channel's sample grid. Stride is in samples, not bytes.
// A zero-value Plane means the channel is absent.
type Plane struct {
	Data   []uint16
	Stride int
}

func (p Plane) present() bool { return p.Data != nil }

// fits reports whether the plane holds a w x h grid.
func (p Plane) fits(w, h int) bool {
	if !p.present() || p.Stride < w || w <= 0 || h <= 0 {
		return false
	}
	return len(p.Data) >= (h-1)*p.Stride+w
}

// Image is one reconstructed frame: luma, optional chroma, optional
// alpha, plus the color metadata needed to interpret the samples.
type Image struct {
	Width  int
	Height int
	Depth  int // 8, 10 or 12 significant bits per sample

	Subsampling Subsampling
	FullRange   bool

	// CICP color description.
	Primaries uint16
	Transfer  uint16
	Matrix    uint16

	Y Plane
	U Plane
	V Plane
	A Plane

	// AlphaPremultiplied records how the alpha plane was coded. When
	// false, Convert multiplies color by alpha on the way out.
	AlphaPremultiplied bool
}

// HasAlpha reports whether the image carries an alpha plane.
func (im *Image) HasAlpha() bool { return im.A.present() }

// ChromaDims returns the dimensions of the chroma planes.
func (im *Image) ChromaDims() (w, h int) {
	sx, sy := im.Subsampling.Shifts()
	return (im.Width + (1 << sx) - 1) >> sx, (im.Height + (1 << sy) - 1) >> sy
}

// check validates that every declared plane actually covers the image
// dimensions at the declared depth.
func (im *Image) check() error {
	if im.Width <= 0 || im.Height <= 0 {
		return ErrReformatFailed
	}
	if im.Depth != 8 && im.Depth != 10 && im.Depth != 12 {
		return ErrReformatFailed
	}
	if !im.Y.fits(im.Width, im.Height) {
		return ErrReformatFailed
	}
	if im.Subsampling != Subsampling400 {
		cw, ch := im.ChromaDims()
		if !im.U.fits(cw, ch) || !im.V.fits(cw, ch) {
			return ErrReformatFailed
		}
	}
	if im.A.present() && !im.A.fits(im.Width, im.Height) {
		return ErrReformatFailed
	}
	return nil
}
