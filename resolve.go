package tiffraster

import (
	"image/color"
	"strconv"
	"strings"
)

// ResolveContext identifies the directory being resolved and the access
// the caller wants.
type ResolveContext struct {
	Stream string
	Page   int
	Access AccessMode
	// NoData is an out-of-band no-data sentinel. It takes precedence over
	// the GDAL_NODATA attribute.
	NoData *float64
}

func bitsPerSample(t TagAccessor, spp int) []uint {
	bps := t.Uints(TagBitsPerSample)
	if len(bps) == 0 {
		bps = []uint{1}
	}
	for len(bps) < spp {
		bps = append(bps, bps[0])
	}
	return bps[:spp]
}

func uniformBits(bps []uint) (uint, bool) {
	for _, b := range bps[1:] {
		if b != bps[0] {
			return 0, false
		}
	}
	return bps[0], true
}

func sampleFormat(t TagAccessor) uint {
	return firstVal(t, TagSampleFormat, sfUint)
}

// ResolvePixelType decides which pixel type the directory t holds.
func ResolvePixelType(t TagAccessor, ctx ResolveContext) (PixelType, error) {
	spp := int(firstVal(t, TagSamplesPerPixel, 1))
	if spp < 1 {
		return PixelType{}, newFault(FaultPixelTypeNotSupported, ctx, "samples per pixel %d", spp)
	}
	photometric, ok := t.Uint(TagPhotometricInterpretation)
	if !ok {
		return PixelType{}, newFault(FaultPixelTypeNotSupported, ctx, "photometric interpretation missing")
	}
	// Many writers declare grayscale on multi-sample RGB data.
	if spp > 2 && (photometric == pWhiteIsZero || photometric == pBlackIsZero) {
		photometric = pRGB
	}
	bps := bitsPerSample(t, spp)

	switch photometric {
	case pWhiteIsZero, pBlackIsZero:
		return resolveGray(t, ctx, photometric == pWhiteIsZero, spp, bps)
	case pYCbCr:
		switch codecFromCompression(firstVal(t, TagCompression, cNone)) {
		case CodecJPEG, CodecFixedRatio:
			// The decoder converts to RGB itself.
			return resolveTrueColor(t, ctx, spp, bps)
		case CodecNone, CodecLZW:
			if b, ok := uniformBits(bps); ok && spp == 3 && b == 8 && sampleFormat(t) == sfUint {
				return PixelType{Kind: PixelYCC24}, nil
			}
			return PixelType{}, newFault(FaultPixelTypeNotSupported, ctx, "YCbCr with %d samples of %v bits", spp, bps)
		}
		return PixelType{}, newFault(FaultPixelTypeNotSupported, ctx,
			"YCbCr with compression %d", firstVal(t, TagCompression, cNone))
	case pRGB:
		return resolveTrueColor(t, ctx, spp, bps)
	case pCMYK:
		return resolveSeparated(t, ctx, spp, bps)
	case pPaletted:
		return resolvePaletted(t, ctx, spp, bps)
	}
	return PixelType{}, newFault(FaultPixelTypeNotSupported, ctx, "photometric interpretation %d", photometric)
}

func resolveGray(t TagAccessor, ctx ResolveContext, minIsWhite bool, spp int, bps []uint) (PixelType, error) {
	if t.Has(TagLegacyImageInfo) {
		if spp != 1 || bps[0] != 1 {
			return PixelType{}, newFault(FaultPixelTypeNotSupported, ctx, "legacy bilevel palette with %d samples of %v bits", spp, bps)
		}
		pal, ok := readPalette(t, 1, true)
		if !ok {
			pal = []color.NRGBA{{A: 0xff}, {R: 0xff, G: 0xff, B: 0xff, A: 0xff}}
			if minIsWhite {
				pal[0], pal[1] = pal[1], pal[0]
			}
		}
		return Indexed(1, pal), nil
	}

	sf := sampleFormat(t)
	switch spp {
	case 1:
		b := int(bps[0])
		var pt PixelType
		switch {
		case minIsWhite && sf == sfUint && b != 32:
			pt = Gray(b)
			pt.MinIsWhite = true
		case minIsWhite:
		case sf == sfFloat && b == 32:
			pt = PixelType{Kind: PixelGrayFloat32}
		case sf == sfInt && b == 16:
			pt = PixelType{Kind: PixelGrayInt16}
		case sf == sfUint:
			pt = Gray(b)
		}
		if !pt.Kind.valid() {
			return PixelType{}, newFault(FaultPixelTypeNotSupported, ctx,
				"grayscale with %d bits, sample format %d", b, sf)
		}
		if minIsWhite {
			return pt, nil
		}
		return attachNoData(t, ctx, pt)
	case 2:
		extra := t.Uints(TagExtraSamples)
		if len(extra) == 0 || extra[0] != esAssocAlpha {
			return PixelType{}, newFault(FaultPixelTypeNotSupported, ctx,
				"grayscale extra sample %v is not associated alpha", extra)
		}
		b, ok := uniformBits(bps)
		if !ok || sf != sfUint {
			break
		}
		switch b {
		case 8:
			return PixelType{Kind: PixelGrayAlpha8, MinIsWhite: minIsWhite}, nil
		case 16:
			return PixelType{Kind: PixelGrayAlpha16, MinIsWhite: minIsWhite}, nil
		}
	}
	return PixelType{}, newFault(FaultPixelTypeNotSupported, ctx, "grayscale with %d samples of %v bits", spp, bps)
}

// attachNoData adds the out-of-band or GDAL_NODATA sentinel to pt.
func attachNoData(t TagAccessor, ctx ResolveContext, pt PixelType) (PixelType, error) {
	var v float64
	switch s, ok := t.ASCII(TagGDALNoData); {
	case ctx.NoData != nil:
		v = *ctx.NoData
	case ok:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			fault := newFault(FaultNoDataOutOfRange, ctx, "no-data attribute %q", s)
			fault.Err = err
			return PixelType{}, fault
		}
		v = f
	default:
		return pt, nil
	}
	if !pt.Kind.acceptsNoData() {
		return pt, nil
	}
	withND, err := pt.WithNoData(v)
	if err != nil {
		fault := newFault(FaultNoDataOutOfRange, ctx, "no-data %v for %s", v, pt.Kind)
		fault.Err = err
		return PixelType{}, fault
	}
	return withND, nil
}

func resolveTrueColor(t TagAccessor, ctx ResolveContext, spp int, bps []uint) (PixelType, error) {
	sf := sampleFormat(t)
	switch spp {
	case 1:
		if bps[0] == 8 && sf == sfUint {
			return PixelType{Kind: PixelRGB332}, nil
		}
	case 3:
		switch {
		case bps[0] == 8 && bps[1] == 8 && bps[2] == 8 && sf == sfUint:
			if firstVal(t, TagChannelOrder, 0) == channelOrderBGR {
				return PixelType{Kind: PixelBGR24}, nil
			}
			return PixelType{Kind: PixelRGB24}, nil
		case bps[0] == 5 && bps[1] == 6 && bps[2] == 5 && sf == sfUint:
			return PixelType{Kind: PixelRGB565}, nil
		case bps[0] == 32 && bps[1] == 32 && bps[2] == 32 && sf == sfFloat:
			return PixelType{Kind: PixelRGB96F}, nil
		}
	case 4:
		b, ok := uniformBits(bps)
		if !ok || sf != sfUint || (b != 8 && b != 16) {
			break
		}
		extra := t.Uints(TagExtraSamples)
		if len(extra) == 0 {
			// Older writers omit the declaration on 8-bit RGBA.
			if b == 8 {
				return PixelType{Kind: PixelRGBA32}, nil
			}
			return PixelType{}, newFault(FaultPixelTypeNotSupported, ctx, "16-bit RGBA without extra sample declaration")
		}
		switch extra[0] {
		case esUnassocAlpha:
			if b == 8 {
				return PixelType{Kind: PixelRGBA32}, nil
			}
			return PixelType{Kind: PixelRGBA64}, nil
		case esAssocAlpha:
			if b == 8 {
				return PixelType{Kind: PixelRGBA32Pre}, nil
			}
			return PixelType{}, newFault(FaultPixelTypeNotSupported, ctx, "16-bit premultiplied alpha")
		case esUnspecified:
			if b == 8 {
				return PixelType{Kind: PixelRGBX32}, nil
			}
			return PixelType{Kind: PixelRGBX64}, nil
		}
		return PixelType{}, newFault(FaultPixelTypeNotSupported, ctx, "extra sample %d", extra[0])
	}
	return PixelType{}, newFault(FaultPixelTypeNotSupported, ctx,
		"RGB with %d samples of %v bits, sample format %d", spp, bps, sf)
}

func resolveSeparated(t TagAccessor, ctx ResolveContext, spp int, bps []uint) (PixelType, error) {
	b, ok := uniformBits(bps)
	ink := firstVal(t, TagInkSet, inkSetCMYK)
	if spp == 4 && ok && b == 8 && ink == inkSetCMYK && sampleFormat(t) == sfUint {
		return PixelType{Kind: PixelCMYK32}, nil
	}
	return PixelType{}, newFault(FaultPixelTypeNotSupported, ctx,
		"separated with %d samples of %v bits, ink set %d", spp, bps, ink)
}

func resolvePaletted(t TagAccessor, ctx ResolveContext, spp int, bps []uint) (PixelType, error) {
	if sampleFormat(t) != sfUint {
		return PixelType{}, newFault(FaultPixelTypeNotSupported, ctx, "palette with sample format %d", sampleFormat(t))
	}
	switch spp {
	case 2:
		if bps[0] == 8 && bps[1] == 8 {
			pal, ok := readPalette(t, 8, false)
			if !ok {
				return PixelType{}, newFault(FaultPixelTypeNotSupported, ctx, "bad color map")
			}
			return IndexedAlpha(pal), nil
		}
	case 1:
		switch b := bps[0]; b {
		case 1, 2, 4, 8:
			pal, ok := readPalette(t, int(b), false)
			if !ok {
				return PixelType{}, newFault(FaultPixelTypeNotSupported, ctx, "bad color map")
			}
			return Indexed(int(b), pal), nil
		}
	}
	return PixelType{}, newFault(FaultPixelTypeNotSupported, ctx, "palette with %d samples of %v bits", spp, bps)
}

// readPalette reads the ColorMap of an index of the given width. The map
// stores 16-bit slots; a map whose slots all fit in 8 bits was written by an
// 8-bit writer and is copied as is, otherwise each slot is scaled down.
func readPalette(t TagAccessor, bits int, wide bool) ([]color.NRGBA, bool) {
	cm := t.Uints(TagColorMap)
	numcolors := len(cm) / 3
	if len(cm)%3 != 0 || numcolors <= 0 || numcolors > 1<<bits {
		return nil, false
	}
	if !wide {
		for _, v := range cm {
			if v > 0xff {
				wide = true
				break
			}
		}
	}
	conv := func(v uint) uint8 {
		if wide {
			return uint8(v / 257)
		}
		return uint8(v)
	}
	alpha := t.Bytes(TagPaletteAlpha)
	pal := make([]color.NRGBA, numcolors)
	for i := range pal {
		pal[i] = color.NRGBA{
			R: conv(cm[i]),
			G: conv(cm[i+numcolors]),
			B: conv(cm[i+2*numcolors]),
			A: 0xff,
		}
		if i < len(alpha) {
			pal[i].A = alpha[i]
		}
	}
	return pal, true
}

// ResolveCodec decides which codec the directory t is compressed with.
func ResolveCodec(t TagAccessor, ctx ResolveContext) (Codec, error) {
	id := firstVal(t, TagCompression, cNone)
	k := codecFromCompression(id)
	if !k.valid() {
		return Codec{}, newFault(FaultCodecNotSupported, ctx, "compression %d", id)
	}
	c := Codec{Kind: k}
	switch k {
	case CodecJPEG:
		spp := int(firstVal(t, TagSamplesPerPixel, 1))
		bps := bitsPerSample(t, max(spp, 1))
		if bps[0] == 16 && (spp == 3 || spp == 4) && ctx.Access.writes() {
			return Codec{}, newFault(FaultAccessModeNotSupportedForCodec, ctx,
				"16-bit JPEG with %d samples opened for %s", spp, ctx.Access)
		}
		c.ColorTransform = firstVal(t, TagPhotometricInterpretation, pRGB) == pYCbCr
		c.Quality = int(firstVal(t, TagJPEGQuality, 0))
		c.Optimize = firstVal(t, TagJPEGOptimizeCoding, 0) != 0
		c.EmbedTables = t.Has(TagJPEGTables)
		if f := t.Uints(TagYCbCrSubSampling); len(f) == 2 {
			s, ok := subsamplingFromFactors(f[0], f[1])
			if !ok {
				return Codec{}, newFault(FaultCodecNotSupported, ctx, "JPEG subsampling %v", f)
			}
			c.Subsampling = s
		}
	case CodecLZW, CodecDeflate:
		if p := int(firstVal(t, TagPredictor, prNone)); p > prNone {
			c.Predictor = p
		}
	}
	return c, nil
}
