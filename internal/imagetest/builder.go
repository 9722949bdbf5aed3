// SPDX-License-Identifier: EPL-2.0

package imagetest

import (
	"github.com/ik5/avifdec/pixel"
)

// Container builders producing small but structurally valid AVIF
// buffers whose coded payloads use the raw stub format.

func u16b(v uint16) []byte { return []byte{byte(v >> 8), byte(v)} }
func u32b(v uint32) []byte { return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)} }

func cat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func bx(typ string, parts ...[]byte) []byte {
	body := cat(parts...)
	return cat(u32b(uint32(8+len(body))), []byte(typ), body)
}

func fbx(typ string, version byte, flags uint32, parts ...[]byte) []byte {
	vf := []byte{version, byte(flags >> 16), byte(flags >> 8), byte(flags)}
	return bx(typ, cat(vf, cat(parts...)))
}

func av1cBytes(depth int, sub pixel.Subsampling, mono bool) []byte {
	b2 := byte(0)
	if depth >= 10 {
		b2 |= 0x40
	}
	if depth == 12 {
		b2 |= 0x20
	}
	subX, subY := false, false
	switch sub {
	case pixel.Subsampling420:
		subX, subY = true, true
	case pixel.Subsampling422:
		subX = true
	}
	if mono || sub == pixel.Subsampling400 {
		mono = true
		subX, subY = true, true
	}
	if mono {
		b2 |= 0x10
	}
	if subX {
		b2 |= 0x08
	}
	if subY {
		b2 |= 0x04
	}
	return []byte{0x81, 0x00, b2, 0x00}
}

func ispeBox(w, h int) []byte {
	return fbx("ispe", 0, 0, u32b(uint32(w)), u32b(uint32(h)))
}

func colrBox(img *pixel.Image) []byte {
	rangeByte := byte(0)
	if img.FullRange {
		rangeByte = 0x80
	}
	return bx("colr", []byte("nclx"),
		u16b(img.Primaries), u16b(img.Transfer), u16b(img.Matrix), []byte{rangeByte})
}

const alphaURN = "urn:mpeg:mpegB:cicp:systems:auxiliary:alpha"

// StillOptions tweak the generated container for edge-case tests.
type StillOptions struct {
	// OmitPixi drops the pixi property from the primary item.
	OmitPixi bool
	// InvalidClap associates a clean aperture with a zero denominator.
	InvalidClap bool
	// ValidClap associates a well-formed full-frame clean aperture.
	ValidClap bool
	// Premultiplied adds a prem reference from color to alpha.
	Premultiplied bool
}

// BuildStill serializes img (alpha plane included, if any) as a
// single-item AVIF file.
func BuildStill(img *pixel.Image, opts StillOptions) []byte {
	colorPayload := EncodePayload(img)
	var alphaPayload []byte
	hasAlpha := img.HasAlpha()
	if hasAlpha {
		alphaImg := &pixel.Image{
			Width:       img.Width,
			Height:      img.Height,
			Depth:       img.Depth,
			Subsampling: pixel.Subsampling400,
			Y:           img.A,
		}
		alphaPayload = EncodePayload(alphaImg)
	}

	// ipco property order: 1 ispe, 2 av1C color, 3 pixi, 4 colr,
	// 5 clap, 6 av1C alpha, 7 auxC.
	ipco := bx("ipco",
		ispeBox(img.Width, img.Height),
		bx("av1C", av1cBytes(img.Depth, img.Subsampling, img.Subsampling == pixel.Subsampling400)),
		fbx("pixi", 0, 0, []byte{3, byte(img.Depth), byte(img.Depth), byte(img.Depth)}),
		colrBox(img),
		clapBox(img, opts),
		bx("av1C", av1cBytes(img.Depth, pixel.Subsampling400, true)),
		fbx("auxC", 0, 0, append([]byte(alphaURN), 0)),
	)

	colorAssoc := []byte{1, 2 | 0x80}
	if !opts.OmitPixi {
		colorAssoc = append(colorAssoc, 3)
	}
	colorAssoc = append(colorAssoc, 4)
	if opts.InvalidClap || opts.ValidClap {
		colorAssoc = append(colorAssoc, 5)
	}

	entries := cat(u16b(1), []byte{byte(len(colorAssoc))}, colorAssoc)
	entryCount := uint32(1)
	if hasAlpha {
		alphaAssoc := []byte{1, 6 | 0x80, 7}
		entries = cat(entries, u16b(2), []byte{byte(len(alphaAssoc))}, alphaAssoc)
		entryCount = 2
	}
	ipma := fbx("ipma", 0, 0, u32b(entryCount), entries)
	iprp := bx("iprp", ipco, ipma)

	infes := fbx("infe", 2, 0, u16b(1), u16b(0), []byte("av01"), []byte{0})
	itemCount := uint16(1)
	if hasAlpha {
		infes = cat(infes, fbx("infe", 2, 0, u16b(2), u16b(0), []byte("av01"), []byte{0}))
		itemCount = 2
	}
	iinf := fbx("iinf", 0, 0, u16b(itemCount), infes)

	var iref []byte
	if hasAlpha {
		refs := bx("auxl", u16b(2), u16b(1), u16b(1))
		if opts.Premultiplied {
			refs = cat(refs, bx("prem", u16b(1), u16b(1), u16b(2)))
		}
		iref = fbx("iref", 0, 0, refs)
	}

	build := func(colorOff, alphaOff uint32) []byte {
		ilocItems := cat(u16b(1), u16b(0), u16b(1), u32b(colorOff), u32b(uint32(len(colorPayload))))
		count := uint16(1)
		if hasAlpha {
			ilocItems = cat(ilocItems,
				u16b(2), u16b(0), u16b(1), u32b(alphaOff), u32b(uint32(len(alphaPayload))))
			count = 2
		}
		iloc := fbx("iloc", 0, 0, []byte{0x44, 0x00}, u16b(count), ilocItems)

		meta := fbx("meta", 0, 0,
			fbx("hdlr", 0, 0, u32b(0), []byte("pict"), u32b(0), u32b(0), u32b(0), []byte{0}),
			fbx("pitm", 0, 0, u16b(1)),
			iinf,
			iprp,
			iloc,
			iref,
		)
		ftyp := bx("ftyp", []byte("avif"), u32b(0), []byte("avif"), []byte("mif1"), []byte("miaf"))
		mdat := bx("mdat", colorPayload, alphaPayload)
		return cat(ftyp, meta, mdat)
	}

	// First pass sizes the layout, second pass patches real offsets.
	probe := build(0, 0)
	payloadStart := uint32(len(probe) - len(colorPayload) - len(alphaPayload))
	return build(payloadStart, payloadStart+uint32(len(colorPayload)))
}

func clapBox(img *pixel.Image, opts StillOptions) []byte {
	switch {
	case opts.InvalidClap:
		return bx("clap",
			u32b(uint32(img.Width)), u32b(0), // zero denominator
			u32b(uint32(img.Height)), u32b(1),
			u32b(0), u32b(1), u32b(0), u32b(1))
	default:
		return bx("clap",
			u32b(uint32(img.Width)), u32b(1),
			u32b(uint32(img.Height)), u32b(1),
			u32b(0), u32b(1), u32b(0), u32b(1))
	}
}

// AnimationOptions control the generated image-sequence container.
type AnimationOptions struct {
	// Timescale is the media timescale; defaults to 1000.
	Timescale uint32
	// Deltas are per-frame durations in timescale units; defaults to
	// Timescale/10 each.
	Deltas []uint32
	// Repetitions is the finite loop count; negative omits the edit
	// list which means loop forever.
	Repetitions int
	// SyncSamples lists 1-based sync sample numbers. Nil omits stss
	// (every sample is a sync sample).
	SyncSamples []uint32
}

// BuildAnimation serializes the frames as an avis image sequence.
func BuildAnimation(frames []*pixel.Image, opts AnimationOptions) []byte {
	if opts.Timescale == 0 {
		opts.Timescale = 1000
	}
	if opts.Deltas == nil {
		opts.Deltas = make([]uint32, len(frames))
		for i := range opts.Deltas {
			opts.Deltas[i] = opts.Timescale / 10
		}
	}

	first := frames[0]
	payloads := make([][]byte, len(frames))
	var mediaDuration uint32
	for i, f := range frames {
		payloads[i] = EncodePayload(f)
		mediaDuration += opts.Deltas[i]
	}

	var stts []byte
	for _, d := range opts.Deltas {
		stts = cat(stts, u32b(1), u32b(d))
	}

	var stszEntries []byte
	for _, p := range payloads {
		stszEntries = cat(stszEntries, u32b(uint32(len(p))))
	}

	var stss []byte
	if opts.SyncSamples != nil {
		var nums []byte
		for _, s := range opts.SyncSamples {
			nums = cat(nums, u32b(s))
		}
		stss = fbx("stss", 0, 0, u32b(uint32(len(opts.SyncSamples))), nums)
	}

	var edts []byte
	if opts.Repetitions >= 0 {
		segment := uint32(opts.Repetitions+1) * mediaDuration
		edts = bx("edts", fbx("elst", 0, 0, u32b(1),
			u32b(segment), u32b(0), u16b(1), u16b(0)))
	}

	identityMatrix := cat(
		u32b(0x00010000), u32b(0), u32b(0),
		u32b(0), u32b(0x00010000), u32b(0),
		u32b(0), u32b(0), u32b(0x40000000))

	sampleEntry := bx("av01",
		make([]byte, 6), u16b(1), make([]byte, 16),
		u16b(uint16(first.Width)), u16b(uint16(first.Height)),
		u32b(0x00480000), u32b(0x00480000), u32b(0), u16b(1),
		make([]byte, 32), u16b(0x0018), u16b(0xffff),
		bx("av1C", av1cBytes(first.Depth, first.Subsampling, first.Subsampling == pixel.Subsampling400)),
		colrBox(first),
	)

	build := func(chunkOffset uint32) []byte {
		stbl := bx("stbl",
			fbx("stsd", 0, 0, u32b(1), sampleEntry),
			fbx("stts", 0, 0, u32b(uint32(len(opts.Deltas))), stts),
			fbx("stsc", 0, 0, u32b(1), u32b(1), u32b(uint32(len(frames))), u32b(1)),
			fbx("stsz", 0, 0, u32b(0), u32b(uint32(len(payloads))), stszEntries),
			fbx("stco", 0, 0, u32b(1), u32b(chunkOffset)),
			stss,
		)
		trak := bx("trak",
			fbx("tkhd", 0, 7,
				u32b(0), u32b(0), u32b(1), u32b(0), u32b(mediaDuration),
				u32b(0), u32b(0), u16b(0), u16b(0), u16b(0), u16b(0),
				identityMatrix,
				u32b(uint32(first.Width)<<16), u32b(uint32(first.Height)<<16)),
			edts,
			bx("mdia",
				fbx("mdhd", 0, 0, u32b(0), u32b(0), u32b(opts.Timescale),
					u32b(mediaDuration), u16b(0x55c4), u16b(0)),
				fbx("hdlr", 0, 0, u32b(0), []byte("pict"), u32b(0), u32b(0), u32b(0), []byte{0}),
				bx("minf", stbl),
			),
		)
		moov := bx("moov",
			fbx("mvhd", 0, 0,
				u32b(0), u32b(0), u32b(opts.Timescale), u32b(mediaDuration),
				u32b(0x00010000), u16b(0x0100), u16b(0), u32b(0), u32b(0),
				identityMatrix, make([]byte, 24), u32b(2)),
			trak,
		)
		ftyp := bx("ftyp", []byte("avis"), u32b(0),
			[]byte("avif"), []byte("avis"), []byte("msf1"), []byte("miaf"))
		mdat := bx("mdat", cat(payloads...))
		return cat(ftyp, moov, mdat)
	}

	probe := build(0)
	var payloadLen int
	for _, p := range payloads {
		payloadLen += len(p)
	}
	return build(uint32(len(probe) - payloadLen))
}
