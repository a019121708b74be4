package tiffraster

import (
	"fmt"
	"math"
)

// Default tile edge for tiled resolutions without explicit block sizes.
const defaultTileSize = 256

// ResolutionDescriptor is one resolution level of a page.
type ResolutionDescriptor struct {
	Width, Height           int
	BlockWidth, BlockHeight int
	Block                   BlockKind
	// Ratio is the full-resolution width over this level's width.
	Ratio  float64
	Pixel  PixelType
	Codec  Codec
	Access AccessMode
	// BlockData holds the encoded strips or tiles in container order.
	BlockData [][]byte
}

// Attributes are the descriptive fields of a page.
type Attributes struct {
	DocumentName string
	Description  string
	Software     string
	DateTime     string
	SampleMin    []float64
	SampleMax    []float64
}

// PageDescriptor is one page: its resolution pyramid, full resolution
// first, plus an optional composed thumbnail.
type PageDescriptor struct {
	Resolutions []ResolutionDescriptor
	Thumbnail   *ResolutionDescriptor
	Geocoding   *Geocoding
	Attributes  Attributes
	// Empty pages carry attributes but no image.
	Empty bool
}

// describeResolution resolves the layout of one directory and checks it
// against the capability registry for ctx.Access.
func describeResolution(t TagAccessor, ctx ResolveContext) (ResolutionDescriptor, error) {
	pt, err := ResolvePixelType(t, ctx)
	if err != nil {
		return ResolutionDescriptor{}, err
	}
	c, err := ResolveCodec(t, ctx)
	if err != nil {
		return ResolutionDescriptor{}, err
	}
	w := int(firstVal(t, TagImageWidth, 0))
	h := int(firstVal(t, TagImageLength, 0))
	r := ResolutionDescriptor{Width: w, Height: h, Ratio: 1, Pixel: pt, Codec: c}
	if tw, ok := t.Uint(TagTileWidth); ok {
		r.Block = BlockTile
		r.BlockWidth = int(tw)
		r.BlockHeight = int(firstVal(t, TagTileLength, tw))
	} else {
		r.Block = BlockStrip
		r.BlockWidth = w
		rps := firstVal(t, TagRowsPerStrip, uint(h))
		if rps == 0 || rps > uint(h) {
			rps = uint(h)
		}
		r.BlockHeight = int(rps)
	}

	a := Registry().Access(pt.Kind, c.Kind, r.Block)
	if a == 0 {
		return ResolutionDescriptor{}, newFault(FaultCodecNotSupported, ctx, "%s with %s in %ss", pt.Kind, c.Kind, r.Block)
	}
	if !a.Includes(ctx.Access) {
		return ResolutionDescriptor{}, newFault(FaultAccessModeNotSupportedForCodec, ctx,
			"%s with %s supports %s, want %s", pt.Kind, c.Kind, a, ctx.Access)
	}
	r.Access = a
	if ctx.Access != 0 {
		r.Access = ctx.Access.normalize()
	}
	return r, nil
}

func describeDirectory(d *Directory, ctx ResolveContext) (ResolutionDescriptor, error) {
	r, err := describeResolution(d, ctx)
	if err != nil {
		return r, err
	}
	r.BlockData = d.Blocks()
	return r, nil
}

// readPage builds the descriptor of page n from the directories of a
// container and their index.
func readPage(dirs []*Directory, x DirectoryIndex, n int, ctx ResolveContext) (*PageDescriptor, error) {
	ctx.Page = n
	i := x.DirectoryIndexOfPage(n)
	if i == NoDirectory {
		if n == 0 && len(dirs) == 0 {
			return &PageDescriptor{Empty: true}, nil
		}
		return nil, newFault(FaultMalformedPageReference, ctx, "page %d of %d", n, x.PageCount())
	}
	d := dirs[i]
	p := &PageDescriptor{Attributes: readAttributes(d), Geocoding: readGeocoding(d)}
	if x.entries[i].Class == ClassEmptyPage {
		p.Empty = true
		return p, nil
	}
	base, err := describeDirectory(d, ctx)
	if err != nil {
		return nil, err
	}
	p.Resolutions = append(p.Resolutions, base)
	for j := i + 1; j <= i+x.SubResolutionCount(i); j++ {
		r, err := describeDirectory(dirs[j], ctx)
		if err != nil {
			return nil, err
		}
		if r.Width > 0 {
			r.Ratio = float64(base.Width) / float64(r.Width)
		}
		if dirs[j].Has(TagThumbnailComposed) {
			p.Thumbnail = &r
			continue
		}
		p.Resolutions = append(p.Resolutions, r)
	}
	return p, nil
}

// pageDirectories encodes p as a run of directories: the full resolution,
// its reduced images, then the thumbnail. The first page of a container
// is written as a plain full image.
func pageDirectories(p *PageDescriptor, first bool) ([]*Directory, error) {
	subfile := uint(subfilePage)
	if first {
		subfile = 0
	}
	if p.Empty {
		d := NewDirectory()
		d.SetUints(TagNewSubfileType, DTLong, subfile)
		p.Attributes.write(d)
		return []*Directory{d}, nil
	}
	if len(p.Resolutions) == 0 {
		return nil, fmt.Errorf("%w: page without resolutions", ErrInvalidDescriptor)
	}

	dirs := make([]*Directory, 0, len(p.Resolutions)+1)
	for i, r := range p.Resolutions {
		sf := subfile
		if i > 0 {
			sf = subfileReduced
		}
		d, err := resolutionDirectory(r, sf)
		if err != nil {
			return nil, fmt.Errorf("resolution %d: %w", i, err)
		}
		if i == 0 {
			p.Attributes.write(d)
			writeGeocoding(d, p.Geocoding)
		}
		dirs = append(dirs, d)
	}
	if p.Thumbnail != nil {
		d, err := resolutionDirectory(*p.Thumbnail, subfileReduced)
		if err != nil {
			return nil, fmt.Errorf("thumbnail: %w", err)
		}
		d.SetUints(TagThumbnailComposed, DTShort, 1)
		dirs = append(dirs, d)
	}
	return dirs, nil
}

// resolutionDirectory encodes one resolution level.
func resolutionDirectory(r ResolutionDescriptor, subfile uint) (*Directory, error) {
	if r.Width <= 0 || r.Height <= 0 {
		return nil, fmt.Errorf("%w: resolution %dx%d", ErrInvalidDescriptor, r.Width, r.Height)
	}
	d := NewDirectory()
	d.SetUints(TagNewSubfileType, DTLong, subfile)
	d.SetUints(TagImageWidth, DTLong, uint(r.Width))
	d.SetUints(TagImageLength, DTLong, uint(r.Height))

	bw, bh := r.BlockWidth, r.BlockHeight
	switch r.Block {
	case BlockTile:
		if bw == 0 {
			bw = defaultTileSize
		}
		if bh == 0 {
			bh = defaultTileSize
		}
		if bw%16 != 0 || bh%16 != 0 {
			return nil, fmt.Errorf("%w: tile %dx%d is not a multiple of 16", ErrInvalidDescriptor, bw, bh)
		}
		d.SetUints(TagTileWidth, DTLong, uint(bw))
		d.SetUints(TagTileLength, DTLong, uint(bh))
	default:
		bw = r.Width
		if bh <= 0 || bh > r.Height {
			bh = r.Height
		}
		d.SetUints(TagRowsPerStrip, DTLong, uint(bh))
	}
	if err := WritePixelTypeAndCodec(d, r.Pixel, r.Codec, bw, bh); err != nil {
		return nil, err
	}
	d.SetUints(TagPlanarConfiguration, DTShort, 1)
	d.SetBlocks(r.BlockData)
	return d, nil
}

func readAttributes(t TagAccessor) Attributes {
	var a Attributes
	a.DocumentName, _ = t.ASCII(TagDocumentName)
	a.Description, _ = t.ASCII(TagImageDescription)
	a.Software, _ = t.ASCII(TagSoftware)
	a.DateTime, _ = t.ASCII(TagDateTime)
	a.SampleMin = readLimits(t, TagMinSampleValue, TagSMinSampleValue)
	a.SampleMax = readLimits(t, TagMaxSampleValue, TagSMaxSampleValue)
	return a
}

// readLimits prefers the extended form of a sample limit.
func readLimits(t TagAccessor, legacy, extended uint16) []float64 {
	if v := t.Float64s(extended); len(v) > 0 {
		return v
	}
	return t.Float64s(legacy)
}

func (a Attributes) write(t TagAccessor) {
	for _, f := range []struct {
		tag uint16
		s   string
	}{
		{TagDocumentName, a.DocumentName},
		{TagImageDescription, a.Description},
		{TagSoftware, a.Software},
		{TagDateTime, a.DateTime},
	} {
		if f.s == "" {
			t.Delete(f.tag)
			continue
		}
		t.SetASCII(f.tag, f.s)
	}
	writeLimits(t, TagMinSampleValue, TagSMinSampleValue, a.SampleMin)
	writeLimits(t, TagMaxSampleValue, TagSMaxSampleValue, a.SampleMax)
}

// writeLimits uses the legacy SHORT form when every value fits it and the
// extended DOUBLE form otherwise.
func writeLimits(t TagAccessor, legacy, extended uint16, v []float64) {
	t.Delete(legacy)
	t.Delete(extended)
	if len(v) == 0 {
		return
	}
	short := make([]uint, len(v))
	for i, x := range v {
		if x != math.Trunc(x) || x < 0 || x > math.MaxUint16 {
			t.SetFloat64s(extended, DTDouble, v...)
			return
		}
		short[i] = uint(x)
	}
	t.SetUints(legacy, DTShort, short...)
}
