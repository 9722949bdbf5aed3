// SPDX-License-Identifier: EPL-2.0

package avifdec

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ik5/avifdec/codec"
	"github.com/ik5/avifdec/container"
	"github.com/ik5/avifdec/pixel"
)

// Info holds the static facts about an opened file. Everything here is
// known after Open, before any frame is decoded.
type Info struct {
	Width  int
	Height int
	Depth  int // 8, 10 or 12

	Alpha              bool
	AlphaPremultiplied bool

	// FrameCount is 1 for still images.
	FrameCount int
	// RepetitionCount is the number of extra loops after the first
	// play-through, container.RepetitionInfinite for endless ones and
	// 0 for stills.
	RepetitionCount int
	// Durations holds one entry per frame, in seconds. Stills report a
	// single nominal 1s entry.
	Durations []float64
}

// Decoder is one decode session over a parsed file. It walks the frame
// table in display order and supports random access by re-feeding the
// backend from the nearest preceding sync sample.
//
// A Decoder is not safe for concurrent use.
type Decoder struct {
	opts Options
	log  *zap.Logger

	codec  codec.Codec
	parsed *container.ParsedFile
	info   Info

	colorInst codec.Instance
	alphaInst codec.Instance
	// fed is the index of the last sample handed to the instances, or
	// -1 when they are fresh (or not yet created).
	fed int

	image *pixel.Image
	index int // index of the frame held in image, -1 before the first decode

	closed bool
}

// Open parses data and prepares a decode session. The buffer is aliased
// by the session and must stay alive until Close.
func Open(data []byte, opts Options) (*Decoder, error) {
	if opts.Threads < 0 {
		return nil, fmt.Errorf("%w: negative thread count %d", ErrInvalidArgument, opts.Threads)
	}

	log := opts.logger()

	chosen, err := opts.registry().Choose(opts.Codec)
	if err != nil {
		return nil, err
	}

	parsed, err := container.Parse(data, opts.Strict)
	if err != nil {
		return nil, err
	}

	d := &Decoder{
		opts:   opts,
		log:    log,
		codec:  chosen,
		parsed: parsed,
		fed:    -1,
		index:  -1,
	}
	d.info = Info{
		Width:              parsed.Props.Width,
		Height:             parsed.Props.Height,
		Depth:              parsed.Props.Depth,
		Alpha:              parsed.Props.AlphaPresent,
		AlphaPremultiplied: parsed.Props.AlphaPremultiplied,
		FrameCount:         parsed.FrameCount(),
		RepetitionCount:    parsed.RepetitionCount(),
		Durations:          parsed.Durations(),
	}

	log.Debug("session opened",
		zap.String("codec", chosen.Name()),
		zap.Int("width", d.info.Width),
		zap.Int("height", d.info.Height),
		zap.Int("depth", d.info.Depth),
		zap.Int("frames", d.info.FrameCount),
		zap.Bool("alpha", d.info.Alpha))

	return d, nil
}

// Info returns the session's static image facts.
func (d *Decoder) Info() Info { return d.info }

// Image returns the most recently decoded frame, or nil when no frame
// has been decoded yet. The planes stay valid until the next decode
// call or Close.
func (d *Decoder) Image() *pixel.Image { return d.image }

// ImageIndex returns the index of the frame held by Image, or -1.
func (d *Decoder) ImageIndex() int { return d.index }

// NextImageIndex returns the index NextImage would decode.
func (d *Decoder) NextImageIndex() int { return d.index + 1 }

// NextImage decodes the next frame in display order. Past the last
// frame it returns ErrNoImagesRemaining; the session stays usable.
func (d *Decoder) NextImage() (*pixel.Image, error) {
	if d.closed {
		return nil, ErrClosed
	}
	next := d.index + 1
	if next >= d.info.FrameCount {
		return nil, ErrNoImagesRemaining
	}
	return d.decodeAt(next)
}

// NthImage decodes the frame with the given index, re-feeding the
// backend from the nearest preceding sync sample when seeking
// backwards or across a gap. Asking for the current frame is a no-op.
func (d *Decoder) NthImage(n int) (*pixel.Image, error) {
	if d.closed {
		return nil, ErrClosed
	}
	if n < 0 || n >= d.info.FrameCount {
		return nil, ErrNoImagesRemaining
	}
	if n == d.index && d.image != nil {
		return d.image, nil
	}
	return d.decodeAt(n)
}

// ToRGB converts the current frame into rgb. It fails with
// ErrNoImagesRemaining when no frame has been decoded yet.
func (d *Decoder) ToRGB(rgb *pixel.RGBImage) error {
	if d.closed {
		return ErrClosed
	}
	if d.image == nil {
		return ErrNoImagesRemaining
	}
	return pixel.Convert(d.image, rgb)
}

// Close releases backend instances. Idempotent; every later operation
// fails with ErrClosed.
func (d *Decoder) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.resetInstances()
	d.image = nil
	d.log.Debug("session closed")
	return nil
}

func (d *Decoder) resetInstances() {
	if d.colorInst != nil {
		d.colorInst.Close()
		d.colorInst = nil
	}
	if d.alphaInst != nil {
		d.alphaInst.Close()
		d.alphaInst = nil
	}
	d.fed = -1
}

// threads resolves the backend thread count, reading the host CPU
// count at call time when the option is zero.
func (d *Decoder) threads() int {
	if d.opts.Threads > 0 {
		return d.opts.Threads
	}
	n := d.opts.parallelism()
	if n < 1 {
		n = 1
	}
	return n
}

func (d *Decoder) ensureInstances() error {
	if d.colorInst != nil {
		return nil
	}
	cfg := codec.Config{Threads: d.threads()}
	ci, err := d.codec.NewInstance(cfg)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDecodeColor, err)
	}
	d.colorInst = ci
	if d.hasAlpha() {
		ai, err := d.codec.NewInstance(cfg)
		if err != nil {
			d.resetInstances()
			return fmt.Errorf("%w: %w", ErrDecodeAlpha, err)
		}
		d.alphaInst = ai
	}
	d.fed = -1
	return nil
}

func (d *Decoder) hasAlpha() bool {
	if d.parsed.AlphaSequence != nil {
		return true
	}
	return d.parsed.Sequence == nil && d.parsed.AlphaOBU != nil
}

// syncBefore returns the index of the nearest sync sample at or before
// n. Stills and sequences without a sync table treat every sample as a
// random-access point.
func (d *Decoder) syncBefore(n int) int {
	seq := d.parsed.Sequence
	if seq == nil {
		return 0
	}
	for i := n; i > 0; i-- {
		if seq.Samples[i].Sync {
			return i
		}
	}
	return 0
}

// decodeAt brings the session to frame n. When n continues the stream
// the instances are fed exactly one more sample; otherwise they are
// torn down and re-fed from the nearest sync sample.
func (d *Decoder) decodeAt(n int) (*pixel.Image, error) {
	start := n
	if n == d.fed+1 && d.colorInst != nil {
		// Sequential continuation, nothing to rewind.
	} else {
		d.resetInstances()
		start = d.syncBefore(n)
	}
	if err := d.ensureInstances(); err != nil {
		return nil, err
	}

	var img *pixel.Image
	for i := start; i <= n; i++ {
		var err error
		img, err = d.decodeSample(i)
		if err != nil {
			// The backend state no longer matches fed; force a
			// re-feed on the next call.
			d.resetInstances()
			return nil, err
		}
		d.fed = i
	}

	d.image = img
	d.index = n
	d.log.Debug("frame decoded", zap.Int("index", n))
	return img, nil
}

func (d *Decoder) colorSample(i int) []byte {
	if d.parsed.Sequence != nil {
		return d.parsed.Sequence.Samples[i].Data
	}
	return d.parsed.ColorOBU
}

func (d *Decoder) alphaSample(i int) []byte {
	if d.parsed.AlphaSequence != nil {
		return d.parsed.AlphaSequence.Samples[i].Data
	}
	return d.parsed.AlphaOBU
}

// decodeSample feeds sample i to the backend instances and merges the
// results into one frame carrying the container's color metadata.
func (d *Decoder) decodeSample(i int) (*pixel.Image, error) {
	colorImg, err := d.colorInst.Decode(d.colorSample(i))
	if err != nil {
		return nil, fmt.Errorf("%w: sample %d: %w", ErrDecodeColor, i, err)
	}

	props := d.parsed.Props
	out := *colorImg
	out.FullRange = props.FullRange
	out.Primaries = props.Primaries
	out.Transfer = props.Transfer
	out.Matrix = props.Matrix

	if d.alphaInst != nil {
		alphaImg, err := d.alphaInst.Decode(d.alphaSample(i))
		if err != nil {
			return nil, fmt.Errorf("%w: sample %d: %w", ErrDecodeAlpha, i, err)
		}
		if alphaImg.Width != colorImg.Width || alphaImg.Height != colorImg.Height {
			return nil, fmt.Errorf("%w: sample %d: alpha is %dx%d, color is %dx%d",
				ErrDecodeAlpha, i,
				alphaImg.Width, alphaImg.Height, colorImg.Width, colorImg.Height)
		}
		if alphaImg.Depth != colorImg.Depth {
			return nil, fmt.Errorf("%w: sample %d: alpha depth %d does not match color depth %d",
				ErrDecodeAlpha, i, alphaImg.Depth, colorImg.Depth)
		}
		out.A = alphaImg.Y
		out.AlphaPremultiplied = props.AlphaPremultiplied
	}

	return &out, nil
}
