// SPDX-License-Identifier: EPL-2.0

package container

import (
	"github.com/ik5/avifdec/pixel"
	"github.com/ik5/avifdec/utils"
)

// StrictFlags is a bitmask of independently toggleable validation
// checks. Flags are resolved once at parse time and never mutate.
type StrictFlags uint32

const (
	// StrictClapValid validates clean-aperture geometry. The crop
	// itself is never applied by this engine.
	StrictClapValid StrictFlags = 1 << iota
	// StrictPixiRequired rejects coded items without a pixi property.
	StrictPixiRequired

	// StrictAll enables every check.
	StrictAll = StrictClapValid | StrictPixiRequired
	// StrictNone disables every check.
	StrictNone StrictFlags = 0
)

// RepetitionInfinite marks a sequence that loops forever.
const RepetitionInfinite = -1

// Properties are the static facts about an image, fixed at parse time.
type Properties struct {
	Width  int
	Height int
	Depth  int // 8, 10 or 12

	Monochrome  bool
	Subsampling pixel.Subsampling
	FullRange   bool

	// CICP color description; 2 (unspecified) when no nclx colr box
	// is present.
	Primaries uint16
	Transfer  uint16
	Matrix    uint16

	AlphaPresent       bool
	AlphaPremultiplied bool
}

// Sample is one coded temporal unit of an image sequence.
type Sample struct {
	// Data aliases the parsed buffer; callers must keep the buffer
	// alive while the parse result is in use.
	Data []byte
	// Duration in seconds, always > 0.
	Duration float64
	// Sync marks a random-access point.
	Sync bool
}

// Sequence is the frame table of an animated image.
type Sequence struct {
	Samples []Sample
	// RepetitionCount is the number of extra loops after the first
	// play-through, or RepetitionInfinite.
	RepetitionCount int
}

// ParsedFile is the result of a successful Parse.
type ParsedFile struct {
	Props Properties

	// ColorOBU / AlphaOBU hold the coded primary item payloads for
	// still images. For sequences they hold the first sample and the
	// frame table lives in Sequence / AlphaSequence.
	ColorOBU []byte
	AlphaOBU []byte

	Sequence      *Sequence
	AlphaSequence *Sequence
}

// FrameCount returns the number of decodable frames.
func (f *ParsedFile) FrameCount() int {
	if f.Sequence != nil {
		return len(f.Sequence.Samples)
	}
	return 1
}

// RepetitionCount returns the loop count: 0 for still images.
func (f *ParsedFile) RepetitionCount() int {
	if f.Sequence != nil {
		return f.Sequence.RepetitionCount
	}
	return 0
}

// Durations returns the per-frame duration table in seconds, one entry
// per frame. Still images report a single nominal 1s entry.
func (f *ParsedFile) Durations() []float64 {
	if f.Sequence == nil {
		return []float64{1}
	}
	out := make([]float64, len(f.Sequence.Samples))
	for i, s := range f.Sequence.Samples {
		out[i] = s.Duration
	}
	return out
}

// brandCompatible reports whether a brand identifies AVIF content.
func brandCompatible(brand string) bool {
	return brand == "avif" || brand == "avis"
}

// PeekCompatibleFileType is a cheap signature sniff: it reads only the
// leading ftyp box and checks the major and compatible brands. It
// never touches the rest of the buffer.
func PeekCompatibleFileType(data []byte) bool {
	r := utils.NewByteReader(data)
	size := int(r.U32())
	typ := r.FourCC()
	if r.Err() != nil || typ != "ftyp" {
		return false
	}
	if size < 16 || size > len(data) || size%4 != 0 {
		return false
	}
	if brandCompatible(r.FourCC()) {
		return true
	}
	r.Skip(4) // minor version
	for r.Pos() < size && r.Err() == nil {
		if brandCompatible(r.FourCC()) {
			return true
		}
	}
	return false
}
