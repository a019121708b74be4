// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tiffraster

// A tiff image file contains one or more images. The metadata
// of each image is contained in an Image File Directory (IFD),
// which contains entries of 12 bytes each and is described
// on page 14-16 of the TIFF 6.0 document. An IFD entry consists of
//
//  - a tag, which describes the signification of the entry,
//  - the data type and length of the entry,
//  - the data itself or a pointer to it if it is more than 4 bytes.
//
// The presence of a length means that each IFD is effectively an array.

const (
	leHeader = "II\x2A\x00" // Header for little-endian files.
	beHeader = "MM\x00\x2A" // Header for big-endian files.

	bigLEHeader = "II\x2B\x00" // BigTIFF, little-endian.
	bigBEHeader = "MM\x00\x2B" // BigTIFF, big-endian.

	ifdLen = 12 // Length of an IFD entry in bytes.
)

// DataType is the field type of an IFD entry (p. 14-16 of TIFF 6.0).
type DataType uint16

const (
	DTByte      DataType = 1
	DTASCII     DataType = 2
	DTShort     DataType = 3
	DTLong      DataType = 4
	DTRational  DataType = 5
	DTSByte     DataType = 6
	DTUndefined DataType = 7
	DTSShort    DataType = 8
	DTSLong     DataType = 9
	DTSRational DataType = 10
	DTFloat     DataType = 11
	DTDouble    DataType = 12
	DTIFD       DataType = 13
)

// The length of one instance of each data type in bytes.
var lengths = [...]uint32{0, 1, 1, 2, 4, 8, 1, 1, 2, 4, 8, 4, 8, 4}

func (t DataType) valid() bool { return t > 0 && int(t) < len(lengths) }

// Tags (see p. 28-41 of TIFF 6.0).
const (
	TagNewSubfileType            uint16 = 254
	TagSubfileType               uint16 = 255
	TagImageWidth                uint16 = 256
	TagImageLength               uint16 = 257
	TagBitsPerSample             uint16 = 258
	TagCompression               uint16 = 259
	TagPhotometricInterpretation uint16 = 262
	TagFillOrder                 uint16 = 266
	TagDocumentName              uint16 = 269
	TagImageDescription          uint16 = 270
	TagStripOffsets              uint16 = 273
	TagSamplesPerPixel           uint16 = 277
	TagRowsPerStrip              uint16 = 278
	TagStripByteCounts           uint16 = 279
	TagMinSampleValue            uint16 = 280
	TagMaxSampleValue            uint16 = 281
	TagPlanarConfiguration       uint16 = 284
	TagT4Options                 uint16 = 292 // CCITT Group 3 options, a set of 32 flag bits.
	TagT6Options                 uint16 = 293 // CCITT Group 4 options, a set of 32 flag bits.
	TagSoftware                  uint16 = 305
	TagDateTime                  uint16 = 306
	TagPredictor                 uint16 = 317
	TagColorMap                  uint16 = 320
	TagTileWidth                 uint16 = 322
	TagTileLength                uint16 = 323
	TagTileOffsets               uint16 = 324
	TagTileByteCounts            uint16 = 325
	TagInkSet                    uint16 = 332
	TagExtraSamples              uint16 = 338
	TagSampleFormat              uint16 = 339
	TagSMinSampleValue           uint16 = 340
	TagSMaxSampleValue           uint16 = 341
	TagJPEGTables                uint16 = 347
	TagYCbCrSubSampling          uint16 = 530

	// Foreign georeferencing (GeoTIFF and vendor variants).
	TagModelPixelScale    uint16 = 33550
	TagVendorRagbag       uint16 = 33918 // Intergraph packet data.
	TagModelTiepoint      uint16 = 33922
	TagModelTransform     uint16 = 34264
	TagGeoKeyDirectory    uint16 = 34735
	TagGDALNoData         uint16 = 42113
	TagVendorImageInfo    uint16 = 65400 // Sibling container marker.
	TagLegacyImageInfo    uint16 = 65401 // Bilevel palette stored as grayscale.
	TagThumbnailComposed  uint16 = 65402
	TagPaletteAlpha       uint16 = 65403
	TagChannelOrder       uint16 = 65404
	TagJPEGQuality        uint16 = 65405
	TagJPEGOptimizeCoding uint16 = 65406
)

// Compression types (defined in various places in TIFF 6.0 and its supplements).
const (
	cNone       = 1
	cCCITT      = 2
	cG3         = 3 // Group 3 Fax.
	cG4         = 4 // Group 4 Fax.
	cLZW        = 5
	cJPEGOld    = 6 // Superseded by cJPEG.
	cJPEG       = 7
	cDeflate    = 8 // zlib compression.
	cPackBits   = 32773
	cDeflateOld = 32946 // Superseded by cDeflate.
	cFixedRatio = 34810 // Vendor fixed-ratio wavelet codec.
)

// Photometric interpretation values (see p. 37 of TIFF 6.0).
const (
	pWhiteIsZero = 0
	pBlackIsZero = 1
	pRGB         = 2
	pPaletted    = 3
	pTransMask   = 4 // transparency mask
	pCMYK        = 5
	pYCbCr       = 6
	pCIELab      = 8
)

// Values for TagExtraSamples.
const (
	esUnspecified  = 0
	esAssocAlpha   = 1
	esUnassocAlpha = 2
)

// Values for TagSampleFormat.
const (
	sfUint  = 1
	sfInt   = 2
	sfFloat = 3
)

// Bits of TagNewSubfileType.
const (
	subfileReduced = 1 << 0
	subfilePage    = 1 << 1
	subfileMask    = 1 << 2
)

// Values of the obsolete TagSubfileType.
const (
	oldSubfileFull    = 1
	oldSubfileReduced = 2
	oldSubfilePage    = 3
)

const (
	inkSetCMYK = 1

	channelOrderBGR = 1

	prNone = 1
)
