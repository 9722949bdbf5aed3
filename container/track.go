// SPDX-License-Identifier: EPL-2.0

package container

import (
	"fmt"
	"math"

	"github.com/ik5/avifdec/pixel"
	"github.com/ik5/avifdec/utils"
)

type sttsEntry struct {
	count uint32
	delta uint32
}

type stscEntry struct {
	firstChunk      uint32
	samplesPerChunk uint32
}

type track struct {
	id      uint32
	handler string

	timescale     uint32
	mediaDuration uint64

	width, height int
	av1c          av1Config
	nclx          *property

	deltas       []sttsEntry
	sizes        []uint32
	chunkOffsets []uint64
	chunkMap     []stscEntry
	syncSamples  map[uint32]bool
	hasStss      bool

	hasElst         bool
	segmentDuration uint64 // in movie timescale units

	auxlTargets []uint32
}

func (p *parser) parseMoov(r *utils.ByteReader) error {
	return walkBoxes(r, func(typ string, body *utils.ByteReader) error {
		switch typ {
		case "mvhd":
			return p.parseMvhd(body)
		case "trak":
			return p.parseTrak(body)
		}
		return nil
	})
}

func (p *parser) parseMvhd(r *utils.ByteReader) error {
	version, _ := fullBox(r)
	if version == 1 {
		r.Skip(16)
	} else {
		r.Skip(8)
	}
	p.movieScale = r.U32()
	if r.Err() != nil {
		return ErrTruncated
	}
	return nil
}

func (p *parser) parseTrak(r *utils.ByteReader) error {
	t := &track{syncSamples: map[uint32]bool{}}
	err := walkBoxes(r, func(typ string, body *utils.ByteReader) error {
		switch typ {
		case "tkhd":
			return t.parseTkhd(body)
		case "edts":
			return walkBoxes(body, func(typ string, b *utils.ByteReader) error {
				if typ == "elst" {
					return t.parseElst(b)
				}
				return nil
			})
		case "tref":
			return walkBoxes(body, func(typ string, b *utils.ByteReader) error {
				if typ == "auxl" {
					for b.Remaining() >= 4 {
						t.auxlTargets = append(t.auxlTargets, b.U32())
					}
				}
				return nil
			})
		case "mdia":
			return t.parseMdia(body)
		}
		return nil
	})
	if err != nil {
		return err
	}
	p.tracks = append(p.tracks, t)
	return nil
}

func (t *track) parseTkhd(r *utils.ByteReader) error {
	version, _ := fullBox(r)
	if version == 1 {
		r.Skip(16)
	} else {
		r.Skip(8)
	}
	t.id = r.U32()
	r.Skip(4)
	if version == 1 {
		r.Skip(8)
	} else {
		r.Skip(4)
	}
	r.Skip(8 + 2 + 2 + 2 + 2 + 36)
	// width and height are 16.16 fixed point
	t.width = int(r.U32() >> 16)
	t.height = int(r.U32() >> 16)
	if r.Err() != nil {
		return ErrTruncated
	}
	return nil
}

func (t *track) parseElst(r *utils.ByteReader) error {
	version, _ := fullBox(r)
	count := r.U32()
	if count == 0 {
		return nil
	}
	if version == 1 {
		t.segmentDuration = r.U64()
	} else {
		t.segmentDuration = uint64(r.U32())
	}
	if r.Err() != nil {
		return ErrTruncated
	}
	t.hasElst = true
	return nil
}

func (t *track) parseMdia(r *utils.ByteReader) error {
	return walkBoxes(r, func(typ string, body *utils.ByteReader) error {
		switch typ {
		case "mdhd":
			version, _ := fullBox(body)
			if version == 1 {
				body.Skip(16)
				t.timescale = body.U32()
				t.mediaDuration = body.U64()
			} else {
				body.Skip(8)
				t.timescale = body.U32()
				t.mediaDuration = uint64(body.U32())
			}
			if body.Err() != nil {
				return ErrTruncated
			}
		case "hdlr":
			fullBox(body)
			body.Skip(4)
			t.handler = body.FourCC()
			if body.Err() != nil {
				return ErrTruncated
			}
		case "minf":
			return walkBoxes(body, func(typ string, b *utils.ByteReader) error {
				if typ == "stbl" {
					return t.parseStbl(b)
				}
				return nil
			})
		}
		return nil
	})
}

func (t *track) parseStbl(r *utils.ByteReader) error {
	return walkBoxes(r, func(typ string, body *utils.ByteReader) error {
		switch typ {
		case "stsd":
			return t.parseStsd(body)
		case "stts":
			fullBox(body)
			n := body.U32()
			for i := uint32(0); i < n; i++ {
				t.deltas = append(t.deltas, sttsEntry{count: body.U32(), delta: body.U32()})
			}
			if body.Err() != nil {
				return ErrTruncated
			}
		case "stsc":
			fullBox(body)
			n := body.U32()
			for i := uint32(0); i < n; i++ {
				e := stscEntry{firstChunk: body.U32(), samplesPerChunk: body.U32()}
				body.Skip(4) // sample_description_index
				t.chunkMap = append(t.chunkMap, e)
			}
			if body.Err() != nil {
				return ErrTruncated
			}
		case "stsz":
			fullBox(body)
			fixed := body.U32()
			n := body.U32()
			for i := uint32(0); i < n; i++ {
				if fixed != 0 {
					t.sizes = append(t.sizes, fixed)
				} else {
					t.sizes = append(t.sizes, body.U32())
				}
			}
			if body.Err() != nil {
				return ErrTruncated
			}
		case "stco":
			fullBox(body)
			n := body.U32()
			for i := uint32(0); i < n; i++ {
				t.chunkOffsets = append(t.chunkOffsets, uint64(body.U32()))
			}
			if body.Err() != nil {
				return ErrTruncated
			}
		case "co64":
			fullBox(body)
			n := body.U32()
			for i := uint32(0); i < n; i++ {
				t.chunkOffsets = append(t.chunkOffsets, body.U64())
			}
			if body.Err() != nil {
				return ErrTruncated
			}
		case "stss":
			fullBox(body)
			t.hasStss = true
			n := body.U32()
			for i := uint32(0); i < n; i++ {
				t.syncSamples[body.U32()] = true
			}
			if body.Err() != nil {
				return ErrTruncated
			}
		}
		return nil
	})
}

// visualSampleEntryHeader is the fixed-size prefix of a
// VisualSampleEntry before its child boxes.
const visualSampleEntryHeader = 78

func (t *track) parseStsd(r *utils.ByteReader) error {
	fullBox(r)
	r.Skip(4) // entry_count; rely on box walking for the actual entries
	if r.Err() != nil {
		return ErrTruncated
	}
	return walkBoxes(r, func(typ string, body *utils.ByteReader) error {
		if typ != "av01" {
			return nil
		}
		body.Skip(6 + 2 + 16)
		t.width = int(body.U16())
		t.height = int(body.U16())
		body.Skip(visualSampleEntryHeader - body.Pos())
		if body.Err() != nil {
			return ErrTruncated
		}
		return walkBoxes(body, func(typ string, b *utils.ByteReader) error {
			switch typ {
			case "av1C":
				cfg, err := parseAV1Config(b.Bytes(b.Remaining()))
				if err != nil {
					return err
				}
				t.av1c = cfg
			case "colr":
				prop, err := parseProperty("colr", b)
				if err != nil {
					return err
				}
				if prop.nclx {
					t.nclx = &prop
				}
			}
			return nil
		})
	})
}

// samples expands the chunked sample tables into one coded unit per
// frame, bounds-checked against the file buffer.
func (t *track) samples(data []byte) ([]Sample, error) {
	if t.timescale == 0 {
		return nil, fmt.Errorf("%w: track %d has zero timescale", ErrParseFailed, t.id)
	}

	var total uint64
	for _, e := range t.deltas {
		total += uint64(e.count)
	}
	if total == 0 || total != uint64(len(t.sizes)) {
		return nil, fmt.Errorf("%w: track %d sample tables disagree", ErrParseFailed, t.id)
	}
	if len(t.chunkOffsets) == 0 || len(t.chunkMap) == 0 {
		return nil, fmt.Errorf("%w: track %d has no chunks", ErrParseFailed, t.id)
	}

	out := make([]Sample, 0, total)

	// Expand the chunk map: stsc entries apply from firstChunk until
	// the next entry's firstChunk.
	sampleIdx := 0
	for ci := 0; ci < len(t.chunkOffsets) && sampleIdx < len(t.sizes); ci++ {
		perChunk := samplesInChunk(t.chunkMap, uint32(ci+1))
		offset := t.chunkOffsets[ci]
		for s := uint32(0); s < perChunk && sampleIdx < len(t.sizes); s++ {
			size := uint64(t.sizes[sampleIdx])
			end := offset + size
			if end < offset || end > uint64(len(data)) {
				return nil, ErrTruncated
			}
			out = append(out, Sample{Data: data[offset:end]})
			offset = end
			sampleIdx++
		}
	}
	if sampleIdx != len(t.sizes) {
		return nil, fmt.Errorf("%w: track %d chunk map covers %d of %d samples",
			ErrParseFailed, t.id, sampleIdx, len(t.sizes))
	}

	// Durations from stts; every delta must be positive.
	i := 0
	for _, e := range t.deltas {
		if e.delta == 0 {
			return nil, fmt.Errorf("%w: track %d has zero frame duration", ErrParseFailed, t.id)
		}
		for c := uint32(0); c < e.count; c++ {
			out[i].Duration = float64(e.delta) / float64(t.timescale)
			i++
		}
	}

	// Sync samples: stss is 1-based; no stss means every sample syncs.
	for i := range out {
		out[i].Sync = !t.hasStss || t.syncSamples[uint32(i+1)]
	}
	if len(out) > 0 && !out[0].Sync {
		return nil, fmt.Errorf("%w: track %d first sample is not a sync sample", ErrParseFailed, t.id)
	}

	return out, nil
}

func samplesInChunk(entries []stscEntry, chunk uint32) uint32 {
	per := uint32(0)
	for _, e := range entries {
		if e.firstChunk > chunk {
			break
		}
		per = e.samplesPerChunk
	}
	return per
}

// repetitionCount derives the loop count from the edit list. No edit
// list, or a zero segment duration, means loop forever.
func (t *track) repetitionCount(movieScale uint32) int {
	if !t.hasElst || t.segmentDuration == 0 {
		return RepetitionInfinite
	}
	if movieScale == 0 || t.mediaDuration == 0 {
		return RepetitionInfinite
	}
	segment := float64(t.segmentDuration) / float64(movieScale)
	media := float64(t.mediaDuration) / float64(t.timescale)
	reps := int(math.Ceil(segment/media)) - 1
	if reps < 0 {
		reps = 0
	}
	return reps
}

// buildSequence assembles the animated-image result from the parsed
// tracks. Returns (nil, nil) when no usable picture track exists so
// the caller can fall back to the still-image item path.
func (p *parser) buildSequence() (*ParsedFile, error) {
	var color, alpha *track
	for _, t := range p.tracks {
		if t.handler != "pict" || !t.av1c.valid {
			continue
		}
		if len(t.auxlTargets) > 0 {
			continue // auxiliary track; matched to color below
		}
		color = t
		break
	}
	if color == nil {
		return nil, nil
	}
	for _, t := range p.tracks {
		if t == color || !t.av1c.valid {
			continue
		}
		for _, target := range t.auxlTargets {
			if target == color.id {
				alpha = t
			}
		}
	}

	colorSamples, err := color.samples(p.data)
	if err != nil {
		return nil, err
	}
	if color.width <= 0 || color.height <= 0 {
		return nil, fmt.Errorf("%w: track %d has no dimensions", ErrParseFailed, color.id)
	}

	f := &ParsedFile{
		Props: Properties{
			Width:       color.width,
			Height:      color.height,
			Depth:       color.av1c.depth,
			Monochrome:  color.av1c.monochrome,
			Subsampling: color.av1c.subsampling,
			Primaries:   2,
			Transfer:    2,
			Matrix:      pixel.MatrixUnspecified,
		},
		ColorOBU: colorSamples[0].Data,
		Sequence: &Sequence{
			Samples:         colorSamples,
			RepetitionCount: color.repetitionCount(p.movieScale),
		},
	}
	if color.nclx != nil {
		f.Props.Primaries = color.nclx.primaries
		f.Props.Transfer = color.nclx.transfer
		f.Props.Matrix = color.nclx.matrix
		f.Props.FullRange = color.nclx.fullRange
	}

	if alpha != nil {
		alphaSamples, err := alpha.samples(p.data)
		if err != nil {
			return nil, err
		}
		if len(alphaSamples) < len(colorSamples) {
			return nil, fmt.Errorf("%w: alpha track shorter than color track", ErrParseFailed)
		}
		f.Props.AlphaPresent = true
		f.AlphaOBU = alphaSamples[0].Data
		f.AlphaSequence = &Sequence{
			Samples:         alphaSamples[:len(colorSamples)],
			RepetitionCount: f.Sequence.RepetitionCount,
		}
	}

	return f, nil
}
