package tiffraster

import "fmt"

// CodecKind is a compression family.
type CodecKind uint8

const (
	CodecInvalid CodecKind = iota
	CodecNone
	CodecPackBits
	CodecLZW
	CodecDeflate
	CodecJPEG
	CodecFaxRLE
	CodecFaxG3
	CodecFaxG4
	CodecFixedRatio
	numCodecKinds
)

var codecNames = [numCodecKinds]string{
	CodecNone:       "none",
	CodecPackBits:   "packbits",
	CodecLZW:        "lzw",
	CodecDeflate:    "deflate",
	CodecJPEG:       "jpeg",
	CodecFaxRLE:     "fax-rle",
	CodecFaxG3:      "fax-g3",
	CodecFaxG4:      "fax-g4",
	CodecFixedRatio: "fixed-ratio",
}

func (k CodecKind) valid() bool { return k > CodecInvalid && k < numCodecKinds }

func (k CodecKind) String() string {
	if k.valid() {
		return codecNames[k]
	}
	return fmt.Sprintf("codec(%d)", uint8(k))
}

// ParseCodecKind returns the codec kind named s, as printed by String.
func ParseCodecKind(s string) (CodecKind, bool) {
	for k := CodecKind(1); k < numCodecKinds; k++ {
		if codecNames[k] == s {
			return k, true
		}
	}
	return CodecInvalid, false
}

// CodecKinds returns every codec kind.
func CodecKinds() []CodecKind {
	out := make([]CodecKind, 0, numCodecKinds-1)
	for k := CodecKind(1); k < numCodecKinds; k++ {
		out = append(out, k)
	}
	return out
}

// compressionID is the canonical container value written for k.
func (k CodecKind) compressionID() uint {
	switch k {
	case CodecNone:
		return cNone
	case CodecPackBits:
		return cPackBits
	case CodecLZW:
		return cLZW
	case CodecDeflate:
		return cDeflate
	case CodecJPEG:
		return cJPEG
	case CodecFaxRLE:
		return cCCITT
	case CodecFaxG3:
		return cG3
	case CodecFaxG4:
		return cG4
	case CodecFixedRatio:
		return cFixedRatio
	}
	return 0
}

func codecFromCompression(id uint) CodecKind {
	switch id {
	case cNone:
		return CodecNone
	case cPackBits:
		return CodecPackBits
	case cLZW:
		return CodecLZW
	case cDeflate, cDeflateOld:
		return CodecDeflate
	case cJPEG:
		return CodecJPEG
	case cCCITT:
		return CodecFaxRLE
	case cG3:
		return CodecFaxG3
	case cG4:
		return CodecFaxG4
	case cFixedRatio:
		return CodecFixedRatio
	}
	return CodecInvalid
}

// Subsampling is the chroma subsampling of a JPEG codec.
type Subsampling uint8

const (
	// Subsampling420 is the container default and is never written.
	Subsampling420 Subsampling = iota
	Subsampling444
	Subsampling422
	Subsampling411
)

var subsamplingFactors = [...][2]uint{
	Subsampling420: {2, 2},
	Subsampling444: {1, 1},
	Subsampling422: {2, 1},
	Subsampling411: {4, 1},
}

func (s Subsampling) String() string {
	switch s {
	case Subsampling444:
		return "4:4:4"
	case Subsampling422:
		return "4:2:2"
	case Subsampling411:
		return "4:1:1"
	}
	return "4:2:0"
}

func subsamplingFromFactors(h, v uint) (Subsampling, bool) {
	for s, f := range subsamplingFactors {
		if f[0] == h && f[1] == v {
			return Subsampling(s), true
		}
	}
	return 0, false
}

// Codec is a compression family plus its parameters.
type Codec struct {
	Kind CodecKind

	// JPEG only.
	Quality     int // 1-100, 0 for unset
	Subsampling Subsampling
	EmbedTables bool
	Optimize    bool
	// ColorTransform is set when the data is stored as YCbCr and the
	// decoder converts to RGB itself. It is cleared for data stored as RGB.
	ColorTransform bool

	// LZW and Deflate only; 0 or 1 means no predictor.
	Predictor int
}

func (c Codec) String() string {
	switch c.Kind {
	case CodecJPEG:
		return fmt.Sprintf("jpeg(q=%d, %s, tables=%t)", c.Quality, c.Subsampling, c.EmbedTables)
	case CodecLZW, CodecDeflate:
		if c.Predictor > prNone {
			return fmt.Sprintf("%s(predictor=%d)", c.Kind, c.Predictor)
		}
	}
	return c.Kind.String()
}
