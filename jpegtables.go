package tiffraster

import (
	"bytes"
	"image"
	"image/jpeg"
)

// JPEG markers kept in a tables-only stream.
const (
	mSOI = 0xd8
	mEOI = 0xd9
	mSOS = 0xda
	mDQT = 0xdb
	mDHT = 0xc4
)

// jpegTables encodes a small blank image and returns an abbreviated JPEG
// stream holding only its quantization and Huffman tables. The tables
// depend on the quality and channel count, not on the image size.
func jpegTables(k PixelKind, quality int) ([]byte, error) {
	if quality <= 0 {
		quality = jpeg.DefaultQuality
	}
	// One 4:2:0 MCU.
	r := image.Rect(0, 0, 16, 16)
	var img image.Image
	if k.Samples() == 1 {
		img = image.NewGray(r)
	} else {
		img = image.NewRGBA(r)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return extractTables(buf.Bytes())
}

func extractTables(b []byte) ([]byte, error) {
	if len(b) < 4 || b[0] != 0xff || b[1] != mSOI {
		return nil, FormatError("jpeg: missing SOI marker")
	}
	out := []byte{0xff, mSOI}
	for p := 2; p+4 <= len(b); {
		if b[p] != 0xff {
			return nil, FormatError("jpeg: missing marker")
		}
		m := b[p+1]
		if m == mSOS || m == mEOI {
			break
		}
		end := p + 2 + (int(b[p+2])<<8 | int(b[p+3]))
		if end > len(b) {
			return nil, FormatError("jpeg: short segment")
		}
		if m == mDQT || m == mDHT {
			out = append(out, b[p:end]...)
		}
		p = end
	}
	return append(out, 0xff, mEOI), nil
}
