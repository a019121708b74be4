package tiffraster

import (
	"strconv"
)

// managedTags are owned by WritePixelTypeAndCodec and cleared before it
// writes, so a directory never keeps fields of a previous encoding.
var managedTags = [...]uint16{
	TagPhotometricInterpretation,
	TagSamplesPerPixel,
	TagBitsPerSample,
	TagExtraSamples,
	TagSampleFormat,
	TagColorMap,
	TagInkSet,
	TagCompression,
	TagPredictor,
	TagJPEGTables,
	TagYCbCrSubSampling,
	TagGDALNoData,
	TagLegacyImageInfo,
	TagPaletteAlpha,
	TagChannelOrder,
	TagJPEGQuality,
	TagJPEGOptimizeCoding,
}

// WritePixelTypeAndCodec writes the minimal set of fields from which
// ResolvePixelType and ResolveCodec reconstruct pt and c for blocks of
// blockW by blockH. No field written depends on the block size, JPEG tables
// included.
func WritePixelTypeAndCodec(t TagAccessor, pt PixelType, c Codec, blockW, blockH int) error {
	ctx := ResolveContext{Page: -1}
	if !pt.Kind.valid() {
		return newFault(FaultPixelTypeNotSupported, ctx, "no write rule for %s", pt.Kind)
	}
	if !c.Kind.valid() {
		return newFault(FaultCodecNotSupported, ctx, "no write rule for %s", c.Kind)
	}
	for _, tag := range managedTags {
		t.Delete(tag)
	}
	if err := writePixelType(t, pt, c, ctx); err != nil {
		return err
	}
	return writeCodec(t, pt, c, ctx)
}

func writePixelType(t TagAccessor, pt PixelType, c Codec, ctx ResolveContext) error {
	k := pt.Kind
	info := kinds[k]
	bps := make([]uint, info.samples)
	for i := range bps {
		if info.bits == 0 {
			bps[i] = uint(info.channelBits[i])
		} else {
			bps[i] = uint(info.bits)
		}
	}

	photometric := uint(pBlackIsZero)
	var extra []uint
	sf := uint(sfUint)
	switch {
	case k.IsGray():
		if pt.MinIsWhite {
			switch k {
			case PixelGray32, PixelGrayFloat32, PixelGrayInt16:
				return newFault(FaultPixelTypeNotSupported, ctx, "%s cannot be min-is-white", k)
			}
			photometric = pWhiteIsZero
		}
		switch k {
		case PixelGrayFloat32:
			sf = sfFloat
		case PixelGrayInt16:
			sf = sfInt
		case PixelGrayAlpha8, PixelGrayAlpha16:
			extra = []uint{esAssocAlpha}
		}
		if pt.NoData != nil {
			if _, err := pt.WithNoData(*pt.NoData); err != nil {
				fault := newFault(FaultNoDataOutOfRange, ctx, "no-data %v for %s", *pt.NoData, pt)
				fault.Err = err
				return fault
			}
			t.SetASCII(TagGDALNoData, strconv.FormatFloat(*pt.NoData, 'g', -1, 64))
		}
	case k.IsIndexed():
		photometric = pPaletted
		if k == PixelIndexedAlpha8 {
			extra = []uint{esUnassocAlpha}
		}
		writePalette(t, pt, k.paletteBits())
	default:
		photometric = pRGB
		switch k {
		case PixelRGB24, PixelRGB332, PixelRGB565:
		case PixelBGR24:
			t.SetUints(TagChannelOrder, DTShort, channelOrderBGR)
		case PixelRGBA32, PixelRGBA64:
			extra = []uint{esUnassocAlpha}
		case PixelRGBA32Pre:
			extra = []uint{esAssocAlpha}
		case PixelRGBX32, PixelRGBX64:
			extra = []uint{esUnspecified}
		case PixelRGB96F:
			sf = sfFloat
		case PixelCMYK32:
			photometric = pCMYK
		case PixelYCC24:
			photometric = pYCbCr
			t.SetUints(TagYCbCrSubSampling, DTShort, 1, 1)
		default:
			return newFault(FaultPixelTypeNotSupported, ctx, "no write rule for %s", k)
		}
		if c.Kind == CodecJPEG && c.ColorTransform && k.Family() == FamilyTrueColor8 {
			photometric = pYCbCr
		}
	}

	t.SetUints(TagPhotometricInterpretation, DTShort, photometric)
	t.SetUints(TagSamplesPerPixel, DTShort, uint(info.samples))
	t.SetUints(TagBitsPerSample, DTShort, bps...)
	if extra != nil {
		t.SetUints(TagExtraSamples, DTShort, extra...)
	}
	if sf != sfUint {
		sfs := make([]uint, info.samples)
		for i := range sfs {
			sfs[i] = sf
		}
		t.SetUints(TagSampleFormat, DTShort, sfs...)
	}
	return nil
}

// writePalette stores the palette in 16-bit slots and its alpha, when any
// entry is translucent, in the private palette alpha field.
func writePalette(t TagAccessor, pt PixelType, bits int) {
	pal := normalizePalette(pt.Palette, 1<<bits)
	n := len(pal)
	cm := make([]uint, 3*n)
	alpha := make([]uint, n)
	opaque := true
	for i, c := range pal {
		cm[i] = uint(c.R) * 257
		cm[i+n] = uint(c.G) * 257
		cm[i+2*n] = uint(c.B) * 257
		alpha[i] = uint(c.A)
		if c.A != 0xff {
			opaque = false
		}
	}
	t.SetUints(TagColorMap, DTShort, cm...)
	if !opaque {
		t.SetUints(TagPaletteAlpha, DTByte, alpha...)
	}
}

func writeCodec(t TagAccessor, pt PixelType, c Codec, ctx ResolveContext) error {
	t.SetUints(TagCompression, DTShort, c.Kind.compressionID())
	switch c.Kind {
	case CodecLZW, CodecDeflate:
		if c.Predictor > prNone {
			t.SetUints(TagPredictor, DTShort, uint(c.Predictor))
		}
	case CodecJPEG:
		if c.Quality < 0 || c.Quality > 100 {
			return newFault(FaultCodecNotSupported, ctx, "JPEG quality %d", c.Quality)
		}
		if int(c.Subsampling) >= len(subsamplingFactors) {
			return newFault(FaultCodecNotSupported, ctx, "JPEG subsampling %d", c.Subsampling)
		}
		if c.Subsampling != Subsampling420 {
			f := subsamplingFactors[c.Subsampling]
			t.SetUints(TagYCbCrSubSampling, DTShort, f[0], f[1])
		}
		if c.Quality > 0 {
			t.SetUints(TagJPEGQuality, DTShort, uint(c.Quality))
		}
		if c.Optimize {
			t.SetUints(TagJPEGOptimizeCoding, DTShort, 1)
		}
		if c.EmbedTables {
			tables, err := jpegTables(pt.Kind, c.Quality)
			if err != nil {
				fault := newFault(FaultCodecNotSupported, ctx, "JPEG tables for %s", pt.Kind)
				fault.Err = err
				return fault
			}
			t.SetBytes(TagJPEGTables, tables)
		}
	}
	return nil
}
