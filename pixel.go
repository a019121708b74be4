package tiffraster

import (
	"fmt"
	"image/color"
	"math"
)

// PixelKind is a concrete pixel layout.
type PixelKind uint8

const (
	PixelInvalid PixelKind = iota
	PixelGray1
	PixelGray2
	PixelGray4
	PixelGray8
	PixelGray16
	PixelGray32
	PixelGrayFloat32
	PixelGrayInt16
	PixelGrayAlpha8
	PixelGrayAlpha16
	PixelIndexed1
	PixelIndexed2
	PixelIndexed4
	PixelIndexed8
	PixelIndexedAlpha8
	PixelRGB24
	PixelBGR24
	PixelRGB332
	PixelRGB565
	PixelRGBA32
	PixelRGBA32Pre
	PixelRGBX32
	PixelRGBA64
	PixelRGBX64
	PixelRGB96F
	PixelCMYK32
	PixelYCC24
	numPixelKinds
)

// PixelFamily groups pixel kinds that share codec and block capabilities.
type PixelFamily uint8

const (
	FamilyBilevel PixelFamily = iota
	FamilyIndexed
	FamilyGrayLow
	FamilyGray8
	FamilyGray16
	FamilyGray32
	FamilyTrueColor8
	FamilyPackedColor
	FamilyTrueColor16
	FamilyTrueColor32
	FamilyCMYK
	FamilyYCC
	numPixelFamilies
)

var familyNames = [...]string{
	FamilyBilevel:     "bilevel",
	FamilyIndexed:     "indexed",
	FamilyGrayLow:     "gray-low",
	FamilyGray8:       "gray8",
	FamilyGray16:      "gray16",
	FamilyGray32:      "gray32",
	FamilyTrueColor8:  "truecolor8",
	FamilyPackedColor: "packed-color",
	FamilyTrueColor16: "truecolor16",
	FamilyTrueColor32: "truecolor32",
	FamilyCMYK:        "cmyk",
	FamilyYCC:         "ycc",
}

func (f PixelFamily) String() string {
	if int(f) < len(familyNames) {
		return familyNames[f]
	}
	return fmt.Sprintf("family(%d)", uint8(f))
}

// kindInfo is the fixed shape of a pixel kind. samples and bits are what
// the container declares; channelBits is the logical channel layout.
type kindInfo struct {
	name        string
	family      PixelFamily
	samples     int
	bits        int
	channelBits []int
}

var kinds = [numPixelKinds]kindInfo{
	PixelGray1:         {"gray1", FamilyBilevel, 1, 1, []int{1}},
	PixelGray2:         {"gray2", FamilyGrayLow, 1, 2, []int{2}},
	PixelGray4:         {"gray4", FamilyGrayLow, 1, 4, []int{4}},
	PixelGray8:         {"gray8", FamilyGray8, 1, 8, []int{8}},
	PixelGray16:        {"gray16", FamilyGray16, 1, 16, []int{16}},
	PixelGray32:        {"gray32", FamilyGray32, 1, 32, []int{32}},
	PixelGrayFloat32:   {"gray-float32", FamilyGray32, 1, 32, []int{32}},
	PixelGrayInt16:     {"gray-int16", FamilyGray16, 1, 16, []int{16}},
	PixelGrayAlpha8:    {"gray-alpha8", FamilyGray8, 2, 8, []int{8, 8}},
	PixelGrayAlpha16:   {"gray-alpha16", FamilyGray16, 2, 16, []int{16, 16}},
	PixelIndexed1:      {"indexed1", FamilyBilevel, 1, 1, []int{1}},
	PixelIndexed2:      {"indexed2", FamilyIndexed, 1, 2, []int{2}},
	PixelIndexed4:      {"indexed4", FamilyIndexed, 1, 4, []int{4}},
	PixelIndexed8:      {"indexed8", FamilyIndexed, 1, 8, []int{8}},
	PixelIndexedAlpha8: {"indexed-alpha8", FamilyIndexed, 2, 8, []int{8, 8}},
	PixelRGB24:         {"rgb24", FamilyTrueColor8, 3, 8, []int{8, 8, 8}},
	PixelBGR24:         {"bgr24", FamilyTrueColor8, 3, 8, []int{8, 8, 8}},
	PixelRGB332:        {"rgb332", FamilyPackedColor, 1, 8, []int{3, 3, 2}},
	PixelRGB565:        {"rgb565", FamilyPackedColor, 3, 0, []int{5, 6, 5}},
	PixelRGBA32:        {"rgba32", FamilyTrueColor8, 4, 8, []int{8, 8, 8, 8}},
	PixelRGBA32Pre:     {"rgba32-premultiplied", FamilyTrueColor8, 4, 8, []int{8, 8, 8, 8}},
	PixelRGBX32:        {"rgbx32", FamilyTrueColor8, 4, 8, []int{8, 8, 8, 8}},
	PixelRGBA64:        {"rgba64", FamilyTrueColor16, 4, 16, []int{16, 16, 16, 16}},
	PixelRGBX64:        {"rgbx64", FamilyTrueColor16, 4, 16, []int{16, 16, 16, 16}},
	PixelRGB96F:        {"rgb96-float", FamilyTrueColor32, 3, 32, []int{32, 32, 32}},
	PixelCMYK32:        {"cmyk32", FamilyCMYK, 4, 8, []int{8, 8, 8, 8}},
	PixelYCC24:         {"ycc24", FamilyYCC, 3, 8, []int{8, 8, 8}},
}

func (k PixelKind) valid() bool { return k > PixelInvalid && k < numPixelKinds }

func (k PixelKind) String() string {
	if k.valid() {
		return kinds[k].name
	}
	return fmt.Sprintf("pixel(%d)", uint8(k))
}

// Family returns the capability family of k.
func (k PixelKind) Family() PixelFamily { return kinds[k].family }

// Samples is the number of samples per pixel stored in the container.
func (k PixelKind) Samples() int { return kinds[k].samples }

// ChannelBits returns the bit width of each logical channel.
func (k PixelKind) ChannelBits() []int { return append([]int(nil), kinds[k].channelBits...) }

// BitsPerPixel is the packed size of one pixel.
func (k PixelKind) BitsPerPixel() int {
	n := 0
	for _, b := range kinds[k].channelBits {
		n += b
	}
	return n
}

// ParsePixelKind returns the kind named s, as printed by String.
func ParsePixelKind(s string) (PixelKind, bool) {
	for k := PixelKind(1); k < numPixelKinds; k++ {
		if kinds[k].name == s {
			return k, true
		}
	}
	return PixelInvalid, false
}

// PixelKinds returns every concrete pixel kind.
func PixelKinds() []PixelKind {
	out := make([]PixelKind, 0, numPixelKinds-1)
	for k := PixelKind(1); k < numPixelKinds; k++ {
		out = append(out, k)
	}
	return out
}

// IsIndexed reports whether k carries a palette.
func (k PixelKind) IsIndexed() bool {
	switch k {
	case PixelIndexed1, PixelIndexed2, PixelIndexed4, PixelIndexed8, PixelIndexedAlpha8:
		return true
	}
	return false
}

// IsGray reports whether k is a single-polarity grayscale layout.
func (k PixelKind) IsGray() bool {
	switch k {
	case PixelGray1, PixelGray2, PixelGray4, PixelGray8, PixelGray16, PixelGray32,
		PixelGrayFloat32, PixelGrayInt16, PixelGrayAlpha8, PixelGrayAlpha16:
		return true
	}
	return false
}

// acceptsNoData reports whether a no-data sentinel may be attached to k.
func (k PixelKind) acceptsNoData() bool {
	switch k {
	case PixelGray8, PixelGray16, PixelGray32, PixelGrayFloat32, PixelGrayInt16:
		return true
	}
	return false
}

// PixelType is a concrete pixel layout plus the data it needs: grayscale
// polarity, a palette, or a no-data sentinel.
type PixelType struct {
	Kind PixelKind
	// MinIsWhite selects the inverted grayscale polarity.
	MinIsWhite bool
	// Palette has exactly 1<<bits entries for indexed kinds.
	Palette []color.NRGBA
	// NoData is the sentinel sample value of min-is-black data layouts.
	NoData *float64
}

// Gray returns the min-is-black grayscale type of the given depth.
func Gray(bits int) PixelType {
	switch bits {
	case 1:
		return PixelType{Kind: PixelGray1}
	case 2:
		return PixelType{Kind: PixelGray2}
	case 4:
		return PixelType{Kind: PixelGray4}
	case 8:
		return PixelType{Kind: PixelGray8}
	case 16:
		return PixelType{Kind: PixelGray16}
	case 32:
		return PixelType{Kind: PixelGray32}
	}
	return PixelType{}
}

// Indexed returns an indexed type of the given index width. The palette is
// padded with opaque black, or truncated, to 1<<bits entries.
func Indexed(bits int, palette []color.NRGBA) PixelType {
	var k PixelKind
	switch bits {
	case 1:
		k = PixelIndexed1
	case 2:
		k = PixelIndexed2
	case 4:
		k = PixelIndexed4
	case 8:
		k = PixelIndexed8
	default:
		return PixelType{}
	}
	return PixelType{Kind: k, Palette: normalizePalette(palette, 1<<bits)}
}

// IndexedAlpha returns the 8-bit index plus 8-bit alpha channel type.
func IndexedAlpha(palette []color.NRGBA) PixelType {
	return PixelType{Kind: PixelIndexedAlpha8, Palette: normalizePalette(palette, 256)}
}

func normalizePalette(p []color.NRGBA, n int) []color.NRGBA {
	out := make([]color.NRGBA, n)
	for i := range out {
		out[i] = color.NRGBA{A: 0xff}
	}
	copy(out, p)
	return out
}

// paletteBits is the container index width of an indexed kind.
func (k PixelKind) paletteBits() int {
	if k == PixelIndexedAlpha8 {
		return 8
	}
	return kinds[k].bits
}

// WithNoData returns a copy of pt carrying the no-data sentinel v. It fails
// when pt cannot carry one or v does not fit the channel's numeric range.
func (pt PixelType) WithNoData(v float64) (PixelType, error) {
	if !pt.Kind.acceptsNoData() || pt.MinIsWhite {
		return pt, fmt.Errorf("%w: %s cannot carry a no-data value", ErrNoDataOutOfRange, pt.Kind)
	}
	if err := checkNoData(pt.Kind, v); err != nil {
		return pt, err
	}
	pt.NoData = &v
	return pt, nil
}

func checkNoData(k PixelKind, v float64) error {
	var lo, hi float64
	integral := true
	switch k {
	case PixelGray8:
		lo, hi = 0, math.MaxUint8
	case PixelGray16:
		lo, hi = 0, math.MaxUint16
	case PixelGray32:
		lo, hi = 0, math.MaxUint32
	case PixelGrayInt16:
		lo, hi = math.MinInt16, math.MaxInt16
	case PixelGrayFloat32:
		if math.IsNaN(v) {
			return nil
		}
		lo, hi = -math.MaxFloat32, math.MaxFloat32
		integral = false
	}
	if math.IsNaN(v) || v < lo || v > hi || (integral && v != math.Trunc(v)) {
		return fmt.Errorf("%w: %v outside %s range [%v, %v]", ErrNoDataOutOfRange, v, k, lo, hi)
	}
	return nil
}

// Equal reports whether pt and o describe the same layout and payload.
func (pt PixelType) Equal(o PixelType) bool {
	if pt.Kind != o.Kind || pt.MinIsWhite != o.MinIsWhite || len(pt.Palette) != len(o.Palette) {
		return false
	}
	for i := range pt.Palette {
		if pt.Palette[i] != o.Palette[i] {
			return false
		}
	}
	switch {
	case pt.NoData == nil && o.NoData == nil:
		return true
	case pt.NoData == nil || o.NoData == nil:
		return false
	case math.IsNaN(*pt.NoData) && math.IsNaN(*o.NoData):
		return true
	}
	return *pt.NoData == *o.NoData
}

func (pt PixelType) String() string {
	s := pt.Kind.String()
	if pt.MinIsWhite {
		s += "/min-is-white"
	}
	if pt.NoData != nil {
		s += fmt.Sprintf("/nodata=%v", *pt.NoData)
	}
	return s
}
