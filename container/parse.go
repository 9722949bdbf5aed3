// SPDX-License-Identifier: EPL-2.0

package container

import (
	"bytes"
	"fmt"

	"github.com/ik5/avifdec/pixel"
	"github.com/ik5/avifdec/utils"
)

// Parse walks the full box tree of an AVIF container and returns the
// image properties, coded payloads and (for sequences) the frame
// table. Parsing is atomic: any structural violation fails the whole
// call and no partial result is returned.
func Parse(data []byte, flags StrictFlags) (*ParsedFile, error) {
	if !PeekCompatibleFileType(data) {
		return nil, ErrInvalidFtyp
	}

	p := &parser{data: data, flags: flags, items: map[uint32]*item{}}
	if err := p.walkTop(); err != nil {
		return nil, err
	}

	// An avis brand with a picture track decodes as a sequence; the
	// still-image item path is the fallback.
	if p.brandAvis {
		if f, err := p.buildSequence(); err != nil {
			return nil, err
		} else if f != nil {
			return f, nil
		}
	}
	if p.hasMeta {
		return p.buildStill()
	}
	return nil, ErrNoContent
}

type extent struct {
	offset uint64
	length uint64
	idat   bool
}

type item struct {
	id      uint32
	typ     string
	extents []extent
	props   []uint16 // 1-based indexes into parser.ipco
	refs    map[string][]uint32
}

type property struct {
	typ string

	// ispe
	width, height uint32
	// av1C
	av1c av1Config
	// colr (nclx)
	nclx                        bool
	primaries, transfer, matrix uint16
	fullRange                   bool
	// pixi
	pixiDepths []uint8
	// auxC
	auxType string
	// clap
	clap clapBox
}

type clapBox struct {
	wN, wD, hN, hD     uint32
	hoN, hoD, voN, voD uint32
}

type av1Config struct {
	valid       bool
	depth       int
	monochrome  bool
	subsampling pixel.Subsampling
}

type parser struct {
	data  []byte
	flags StrictFlags

	brandAvis bool

	hasMeta    bool
	hasPitm    bool
	primaryID  uint32
	items      map[uint32]*item
	ipco       []property
	idat       []byte
	itemOrder  []uint32
	movieScale uint32
	tracks     []*track
}

// walkBoxes iterates sibling boxes until the reader is exhausted,
// handing each box body to fn as a bounded sub-reader.
func walkBoxes(r *utils.ByteReader, fn func(typ string, body *utils.ByteReader) error) error {
	for r.Remaining() > 0 {
		size := uint64(r.U32())
		typ := r.FourCC()
		hdr := uint64(8)
		if size == 1 {
			size = r.U64()
			hdr = 16
		}
		if r.Err() != nil {
			return ErrTruncated
		}

		var bodyLen int
		if size == 0 {
			// Box extends to the end of its parent.
			bodyLen = r.Remaining()
		} else {
			if size < hdr {
				return fmt.Errorf("%w: box %q size %d", ErrParseFailed, typ, size)
			}
			if size-hdr > uint64(r.Remaining()) {
				return ErrTruncated
			}
			bodyLen = int(size - hdr)
		}

		body := utils.NewByteReader(r.Bytes(bodyLen))
		if err := fn(typ, body); err != nil {
			return err
		}
	}
	return nil
}

// fullBox consumes the version/flags header and returns the version.
func fullBox(r *utils.ByteReader) (version uint8, flags uint32) {
	version = r.U8()
	flags = r.U24()
	return
}

func (p *parser) walkTop() error {
	r := utils.NewByteReader(p.data)
	return walkBoxes(r, func(typ string, body *utils.ByteReader) error {
		switch typ {
		case "ftyp":
			p.parseFtyp(body)
		case "meta":
			p.hasMeta = true
			return p.parseMeta(body)
		case "moov":
			return p.parseMoov(body)
		}
		// mdat, free and any unknown top-level boxes are skipped;
		// coded payloads are reached through iloc/stco offsets.
		return nil
	})
}

func (p *parser) parseFtyp(r *utils.ByteReader) {
	if r.FourCC() == "avis" {
		p.brandAvis = true
	}
	r.Skip(4) // minor version
	for r.Remaining() >= 4 {
		if r.FourCC() == "avis" {
			p.brandAvis = true
		}
	}
}

func (p *parser) parseMeta(r *utils.ByteReader) error {
	fullBox(r)
	if r.Err() != nil {
		return ErrTruncated
	}
	return walkBoxes(r, func(typ string, body *utils.ByteReader) error {
		switch typ {
		case "pitm":
			return p.parsePitm(body)
		case "iinf":
			return p.parseIinf(body)
		case "iloc":
			return p.parseIloc(body)
		case "iprp":
			return p.parseIprp(body)
		case "iref":
			return p.parseIref(body)
		case "idat":
			p.idat = body.Bytes(body.Remaining())
		}
		return nil
	})
}

func (p *parser) itemByID(id uint32) *item {
	it, ok := p.items[id]
	if !ok {
		it = &item{id: id, refs: map[string][]uint32{}}
		p.items[id] = it
		p.itemOrder = append(p.itemOrder, id)
	}
	return it
}

func (p *parser) parsePitm(r *utils.ByteReader) error {
	version, _ := fullBox(r)
	if version == 0 {
		p.primaryID = uint32(r.U16())
	} else {
		p.primaryID = r.U32()
	}
	if r.Err() != nil {
		return ErrTruncated
	}
	p.hasPitm = true
	return nil
}

func (p *parser) parseIinf(r *utils.ByteReader) error {
	version, _ := fullBox(r)
	if version == 0 {
		r.Skip(2)
	} else {
		r.Skip(4)
	}
	if r.Err() != nil {
		return ErrTruncated
	}
	return walkBoxes(r, func(typ string, body *utils.ByteReader) error {
		if typ != "infe" {
			return nil
		}
		return p.parseInfe(body)
	})
}

func (p *parser) parseInfe(r *utils.ByteReader) error {
	version, _ := fullBox(r)
	if version < 2 {
		// Pre-HEIF item entries carry no item type; nothing we can
		// reference.
		return nil
	}
	var id uint32
	if version == 2 {
		id = uint32(r.U16())
	} else {
		id = r.U32()
	}
	r.Skip(2) // item_protection_index
	typ := r.FourCC()
	if r.Err() != nil {
		return ErrTruncated
	}
	p.itemByID(id).typ = typ
	return nil
}

func (p *parser) parseIloc(r *utils.ByteReader) error {
	version, _ := fullBox(r)
	sizes := r.U8()
	offsetSize := int(sizes >> 4)
	lengthSize := int(sizes & 0xf)
	sizes = r.U8()
	baseOffsetSize := int(sizes >> 4)
	indexSize := 0
	if version == 1 || version == 2 {
		indexSize = int(sizes & 0xf)
	}

	var count uint32
	if version < 2 {
		count = uint32(r.U16())
	} else {
		count = r.U32()
	}

	for i := uint32(0); i < count; i++ {
		var id uint32
		if version < 2 {
			id = uint32(r.U16())
		} else {
			id = r.U32()
		}

		method := 0
		if version == 1 || version == 2 {
			method = int(r.U16() & 0xf)
		}
		r.Skip(2) // data_reference_index
		baseOffset := r.UVar(baseOffsetSize)
		extentCount := int(r.U16())

		it := p.itemByID(id)
		for e := 0; e < extentCount; e++ {
			if indexSize > 0 {
				r.UVar(indexSize)
			}
			off := r.UVar(offsetSize)
			length := r.UVar(lengthSize)
			it.extents = append(it.extents, extent{
				offset: baseOffset + off,
				length: length,
				idat:   method == 1,
			})
		}
		if method > 1 {
			return fmt.Errorf("%w: iloc construction method %d", ErrParseFailed, method)
		}
	}
	if r.Err() != nil {
		return ErrTruncated
	}
	return nil
}

func (p *parser) parseIprp(r *utils.ByteReader) error {
	return walkBoxes(r, func(typ string, body *utils.ByteReader) error {
		switch typ {
		case "ipco":
			return p.parseIpco(body)
		case "ipma":
			return p.parseIpma(body)
		}
		return nil
	})
}

func (p *parser) parseIpco(r *utils.ByteReader) error {
	return walkBoxes(r, func(typ string, body *utils.ByteReader) error {
		prop, err := parseProperty(typ, body)
		if err != nil {
			return err
		}
		p.ipco = append(p.ipco, prop)
		return nil
	})
}

func parseProperty(typ string, r *utils.ByteReader) (property, error) {
	prop := property{typ: typ}
	switch typ {
	case "ispe":
		fullBox(r)
		prop.width = r.U32()
		prop.height = r.U32()
	case "av1C":
		cfg, err := parseAV1Config(r.Bytes(r.Remaining()))
		if err != nil {
			return prop, err
		}
		prop.av1c = cfg
	case "colr":
		if r.FourCC() == "nclx" {
			prop.nclx = true
			prop.primaries = r.U16()
			prop.transfer = r.U16()
			prop.matrix = r.U16()
			prop.fullRange = r.U8()>>7 == 1
		}
		// ICC profiles (rICC/prof) are preserved upstream, not here.
	case "pixi":
		fullBox(r)
		n := int(r.U8())
		prop.pixiDepths = r.Bytes(n)
	case "auxC":
		fullBox(r)
		rest := r.Bytes(r.Remaining())
		if idx := bytes.IndexByte(rest, 0); idx >= 0 {
			rest = rest[:idx]
		}
		prop.auxType = string(rest)
	case "clap":
		prop.clap = clapBox{
			wN: r.U32(), wD: r.U32(),
			hN: r.U32(), hD: r.U32(),
			hoN: r.U32(), hoD: r.U32(),
			voN: r.U32(), voD: r.U32(),
		}
	default:
		// Unknown properties are recorded by type and skipped.
		return prop, nil
	}
	if r.Err() != nil {
		return prop, ErrTruncated
	}
	return prop, nil
}

// parseAV1Config decodes the AV1CodecConfigurationRecord and derives
// the plane geometry the decoder will produce.
func parseAV1Config(data []byte) (av1Config, error) {
	r := utils.NewBitReader(data)

	marker := r.Bits(1)
	version := r.Bits(7)
	r.Bits(3) // seq_profile
	r.Bits(5) // seq_level_idx_0
	r.Bits(1) // seq_tier_0
	highBitdepth := r.Flag()
	twelveBit := r.Flag()
	monochrome := r.Flag()
	subX := r.Flag()
	subY := r.Flag()
	r.Bits(2) // chroma_sample_position

	if r.Err() != nil {
		return av1Config{}, ErrTruncated
	}
	if marker != 1 || version != 1 {
		return av1Config{}, fmt.Errorf("%w: bad av1C marker/version", ErrParseFailed)
	}

	cfg := av1Config{valid: true, depth: 8, monochrome: monochrome}
	if highBitdepth {
		cfg.depth = 10
		if twelveBit {
			cfg.depth = 12
		}
	}
	switch {
	case monochrome:
		cfg.subsampling = pixel.Subsampling400
	case subX && subY:
		cfg.subsampling = pixel.Subsampling420
	case subX:
		cfg.subsampling = pixel.Subsampling422
	default:
		cfg.subsampling = pixel.Subsampling444
	}
	return cfg, nil
}

func (p *parser) parseIpma(r *utils.ByteReader) error {
	version, flags := fullBox(r)
	count := r.U32()
	for i := uint32(0); i < count; i++ {
		var id uint32
		if version < 1 {
			id = uint32(r.U16())
		} else {
			id = r.U32()
		}
		n := int(r.U8())
		it := p.itemByID(id)
		for a := 0; a < n; a++ {
			var idx uint16
			if flags&1 != 0 {
				idx = r.U16() & 0x7fff
			} else {
				idx = uint16(r.U8() & 0x7f)
			}
			it.props = append(it.props, idx)
		}
	}
	if r.Err() != nil {
		return ErrTruncated
	}
	return nil
}

func (p *parser) parseIref(r *utils.ByteReader) error {
	version, _ := fullBox(r)
	return walkBoxes(r, func(typ string, body *utils.ByteReader) error {
		var from uint32
		if version == 0 {
			from = uint32(body.U16())
		} else {
			from = body.U32()
		}
		n := int(body.U16())
		it := p.itemByID(from)
		for i := 0; i < n; i++ {
			var to uint32
			if version == 0 {
				to = uint32(body.U16())
			} else {
				to = body.U32()
			}
			it.refs[typ] = append(it.refs[typ], to)
		}
		if body.Err() != nil {
			return ErrTruncated
		}
		return nil
	})
}

// itemData concatenates an item's extents, bounds-checked against the
// file buffer (or the idat box for construction method 1).
func (p *parser) itemData(it *item) ([]byte, error) {
	if len(it.extents) == 0 {
		return nil, fmt.Errorf("%w: item %d has no extents", ErrParseFailed, it.id)
	}

	var out []byte
	for _, e := range it.extents {
		src := p.data
		if e.idat {
			src = p.idat
		}
		end := e.offset + e.length
		if end < e.offset || end > uint64(len(src)) {
			return nil, ErrTruncated
		}
		chunk := src[e.offset:end]
		if len(it.extents) == 1 {
			return chunk, nil
		}
		out = append(out, chunk...)
	}
	return out, nil
}

// applyProperties folds an item's associated ipco entries into props.
func (p *parser) applyProperties(it *item, props *Properties) error {
	seenIspe := false
	seenPixi := false

	for _, idx := range it.props {
		if idx == 0 {
			continue
		}
		if int(idx) > len(p.ipco) {
			return fmt.Errorf("%w: ipma index %d out of range", ErrParseFailed, idx)
		}
		prop := p.ipco[idx-1]
		switch prop.typ {
		case "ispe":
			seenIspe = true
			props.Width = int(prop.width)
			props.Height = int(prop.height)
		case "av1C":
			props.Depth = prop.av1c.depth
			props.Monochrome = prop.av1c.monochrome
			props.Subsampling = prop.av1c.subsampling
		case "colr":
			if prop.nclx {
				props.Primaries = prop.primaries
				props.Transfer = prop.transfer
				props.Matrix = prop.matrix
				props.FullRange = prop.fullRange
			}
		case "pixi":
			seenPixi = true
		case "clap":
			if p.flags&StrictClapValid != 0 {
				if err := validateClap(prop.clap, props.Width, props.Height); err != nil {
					return err
				}
			}
			// The crop itself is deliberately not applied.
		}
	}

	if !seenIspe || props.Width <= 0 || props.Height <= 0 {
		return fmt.Errorf("%w: item %d has no valid ispe", ErrParseFailed, it.id)
	}
	if props.Depth == 0 {
		return fmt.Errorf("%w: item %d has no av1C", ErrParseFailed, it.id)
	}
	if !seenPixi && p.flags&StrictPixiRequired != 0 {
		return ErrMissingPixi
	}
	return nil
}

func validateClap(c clapBox, width, height int) error {
	if c.wD == 0 || c.hD == 0 || c.hoD == 0 || c.voD == 0 {
		return ErrInvalidClap
	}
	if c.wN/c.wD > uint32(width) || c.hN/c.hD > uint32(height) {
		return ErrInvalidClap
	}
	return nil
}

const alphaAuxType = "urn:mpeg:mpegB:cicp:systems:auxiliary:alpha"

// auxTypeOf returns the auxC type associated with an item, if any.
func (p *parser) auxTypeOf(it *item) string {
	for _, idx := range it.props {
		if idx == 0 || int(idx) > len(p.ipco) {
			continue
		}
		if prop := p.ipco[idx-1]; prop.typ == "auxC" {
			return prop.auxType
		}
	}
	return ""
}

// findAlphaItem locates the auxiliary alpha item referencing primary.
func (p *parser) findAlphaItem(primary *item) *item {
	for _, id := range p.itemOrder {
		it := p.items[id]
		if it.typ != "av01" || it == primary {
			continue
		}
		if p.auxTypeOf(it) != alphaAuxType {
			continue
		}
		for _, to := range it.refs["auxl"] {
			if to == primary.id {
				return it
			}
		}
	}
	return nil
}

func (p *parser) buildStill() (*ParsedFile, error) {
	if !p.hasPitm {
		return nil, ErrMissingImageItem
	}
	primary, ok := p.items[p.primaryID]
	if !ok || primary.typ != "av01" {
		return nil, ErrMissingImageItem
	}

	f := &ParsedFile{Props: Properties{
		Primaries: 2, Transfer: 2, Matrix: pixel.MatrixUnspecified,
	}}

	if err := p.applyProperties(primary, &f.Props); err != nil {
		return nil, err
	}

	var err error
	f.ColorOBU, err = p.itemData(primary)
	if err != nil {
		return nil, err
	}
	if len(f.ColorOBU) == 0 {
		return nil, ErrNoContent
	}

	if alpha := p.findAlphaItem(primary); alpha != nil {
		f.AlphaOBU, err = p.itemData(alpha)
		if err != nil {
			return nil, err
		}
		f.Props.AlphaPresent = true
		for _, to := range primary.refs["prem"] {
			if to == alpha.id {
				f.Props.AlphaPremultiplied = true
			}
		}
	}

	return f, nil
}
