// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tiffraster maps TIFF containers to a typed raster model: pixel
// types, codecs, pages and resolution levels.
//
// The TIFF specification is at http://partners.adobe.com/public/developer/en/tiff/TIFF6.pdf
package tiffraster

import (
	"encoding/binary"
	"errors"
	"io"
	"math"

	"github.com/zeebo/blake3"
)

const (
	maxChunkSize   = 10 << 20 // 10M
	maxDirectories = 1 << 12
)

// safeReadAt is a verbatim copy of internal/saferio.ReadDataAt from the
// standard library, which is used to read data from a reader using a length
// provided by untrusted data, without allocating the entire slice ahead of time
// if it is large (>maxChunkSize). This allows us to avoid allocating giant
// slices before learning that we can't actually read that much data from the
// reader.
func safeReadAt(r io.ReaderAt, n uint64, off int64) ([]byte, error) {
	if int64(n) < 0 || n != uint64(int(n)) {
		// n is too large to fit in int, so we can't allocate
		// a buffer large enough. Treat this as a read failure.
		return nil, io.ErrUnexpectedEOF
	}

	if n < maxChunkSize {
		buf := make([]byte, n)
		_, err := r.ReadAt(buf, off)
		if err != nil {
			// io.SectionReader can return EOF for n == 0,
			// but for our purposes that is a success.
			if err != io.EOF || n > 0 {
				return nil, err
			}
		}
		return buf, nil
	}

	var buf []byte
	buf1 := make([]byte, maxChunkSize)
	for n > 0 {
		next := n
		if next > maxChunkSize {
			next = maxChunkSize
		}
		_, err := r.ReadAt(buf1[:next], off)
		if err != nil {
			return nil, err
		}
		buf = append(buf, buf1[:next]...)
		n -= next
		off += int64(next)
	}
	return buf, nil
}

// Container is a parsed TIFF file: its byte order and the chain of
// directories in file order.
type Container struct {
	ByteOrder binary.ByteOrder
	Dirs      []*Directory

	fingerprint [32]byte
}

// Fingerprint is a BLAKE3 digest of the header, every IFD, every
// out-of-line field value and every block payload as read. It is zero for
// containers built in memory.
func (c *Container) Fingerprint() [32]byte { return c.fingerprint }

// Accessors returns the directories as TagAccessors.
func (c *Container) Accessors() []TagAccessor {
	out := make([]TagAccessor, len(c.Dirs))
	for i, d := range c.Dirs {
		out[i] = d
	}
	return out
}

func (c *Container) insert(at int, d *Directory) {
	c.Dirs = append(c.Dirs, nil)
	copy(c.Dirs[at+1:], c.Dirs[at:])
	c.Dirs[at] = d
}

type tiffdecoder struct {
	r         io.ReaderAt
	byteOrder binary.ByteOrder
	hash      *blake3.Hasher

	// headOnly stops after the first directory and skips block payloads.
	headOnly bool
}

// parseEntry decodes the IFD entry in p. Entries of unknown data type are
// skipped and reported with a nil field.
func (d *tiffdecoder) parseEntry(p []byte) (uint16, *Field, error) {
	var raw []byte
	if len(p) < ifdLen {
		return 0, nil, FormatError("bad IFD entry")
	}

	tag := d.byteOrder.Uint16(p[0:2])
	datatype := DataType(d.byteOrder.Uint16(p[2:4]))
	if !datatype.valid() {
		return tag, nil, nil
	}

	count := d.byteOrder.Uint32(p[4:8])
	if count > math.MaxInt32/lengths[datatype] {
		return 0, nil, FormatError("IFD data too large")
	}
	var err error
	if datalen := lengths[datatype] * count; datalen > 4 {
		// The IFD contains a pointer to the real value.
		raw, err = safeReadAt(d.r, uint64(datalen), int64(d.byteOrder.Uint32(p[8:12])))
		if err != nil {
			return 0, nil, err
		}
		d.hash.Write(raw)
	} else {
		raw = p[8 : 8+datalen]
	}

	f := &Field{Type: datatype}
	bo := d.byteOrder
	switch datatype {
	case DTASCII, DTUndefined:
		f.Raw = append([]byte(nil), raw...)
	case DTByte:
		f.Ints = make([]int64, count)
		for i := uint32(0); i < count; i++ {
			f.Ints[i] = int64(raw[i])
		}
	case DTSByte:
		f.Ints = make([]int64, count)
		for i := uint32(0); i < count; i++ {
			f.Ints[i] = int64(int8(raw[i]))
		}
	case DTShort:
		f.Ints = make([]int64, count)
		for i := uint32(0); i < count; i++ {
			f.Ints[i] = int64(bo.Uint16(raw[2*i : 2*(i+1)]))
		}
	case DTSShort:
		f.Ints = make([]int64, count)
		for i := uint32(0); i < count; i++ {
			f.Ints[i] = int64(int16(bo.Uint16(raw[2*i : 2*(i+1)])))
		}
	case DTLong, DTIFD:
		f.Ints = make([]int64, count)
		for i := uint32(0); i < count; i++ {
			f.Ints[i] = int64(bo.Uint32(raw[4*i : 4*(i+1)]))
		}
	case DTSLong:
		f.Ints = make([]int64, count)
		for i := uint32(0); i < count; i++ {
			f.Ints[i] = int64(int32(bo.Uint32(raw[4*i : 4*(i+1)])))
		}
	case DTRational:
		f.Ints = make([]int64, 2*count)
		for i := uint32(0); i < 2*count; i++ {
			f.Ints[i] = int64(bo.Uint32(raw[4*i : 4*(i+1)]))
		}
	case DTSRational:
		f.Ints = make([]int64, 2*count)
		for i := uint32(0); i < 2*count; i++ {
			f.Ints[i] = int64(int32(bo.Uint32(raw[4*i : 4*(i+1)])))
		}
	case DTFloat:
		f.Floats = make([]float64, count)
		for i := uint32(0); i < count; i++ {
			f.Floats[i] = float64(math.Float32frombits(bo.Uint32(raw[4*i : 4*(i+1)])))
		}
	case DTDouble:
		f.Floats = make([]float64, count)
		for i := uint32(0); i < count; i++ {
			f.Floats[i] = math.Float64frombits(bo.Uint64(raw[8*i : 8*(i+1)]))
		}
	}
	return tag, f, nil
}

// readIFD reads the directory at ifdOffset and returns it together with
// the offset of the next one.
func (d *tiffdecoder) readIFD(ifdOffset int64) (*Directory, int64, error) {
	var p [4]byte
	// The first two bytes contain the number of entries (12 bytes each).
	if _, err := d.r.ReadAt(p[0:2], ifdOffset); err != nil {
		return nil, 0, err
	}
	numItems := int(d.byteOrder.Uint16(p[0:2]))

	// All IFD entries are read in one chunk, together with the next offset.
	buf, err := safeReadAt(d.r, uint64(ifdLen*numItems+4), ifdOffset+2)
	if err != nil {
		return nil, 0, err
	}
	d.hash.Write(buf[:ifdLen*numItems])

	dir := NewDirectory()
	prevTag := -1
	for i := 0; i < ifdLen*numItems; i += ifdLen {
		tag, f, err := d.parseEntry(buf[i : i+ifdLen])
		if err != nil {
			return nil, 0, err
		}
		if int(tag) <= prevTag {
			return nil, 0, FormatError("tags are not sorted in ascending order")
		}
		prevTag = int(tag)
		if f != nil {
			dir.fields[tag] = f
		}
	}
	if !d.headOnly {
		if err := d.readBlocks(dir); err != nil {
			return nil, 0, err
		}
	}
	next := int64(d.byteOrder.Uint32(buf[ifdLen*numItems:]))
	return dir, next, nil
}

// readBlocks loads the strip or tile payloads of dir.
func (d *tiffdecoder) readBlocks(dir *Directory) error {
	offsets, counts := dir.Uints(TagStripOffsets), dir.Uints(TagStripByteCounts)
	if dir.Has(TagTileOffsets) {
		offsets, counts = dir.Uints(TagTileOffsets), dir.Uints(TagTileByteCounts)
	}
	if len(offsets) != len(counts) {
		return FormatError("inconsistent block offsets and byte counts")
	}
	if len(offsets) == 0 {
		return nil
	}
	dir.blocks = make([][]byte, len(offsets))
	for i := range offsets {
		if counts[i] == 0 {
			continue
		}
		b, err := safeReadAt(d.r, uint64(counts[i]), int64(offsets[i]))
		if err != nil {
			return err
		}
		d.hash.Write(b)
		dir.blocks[i] = b
	}
	return nil
}

// ReadContainer parses every directory of the TIFF stream r. The stream
// name is only used in errors.
func ReadContainer(r io.ReaderAt, stream string) (*Container, error) {
	return readContainer(&tiffdecoder{r: r, hash: blake3.New()}, stream)
}

// readHead parses the header and the fields of the first directory only.
// Block payloads and later directories are not read, so damage there goes
// unnoticed. The result has no fingerprint.
func readHead(r io.ReaderAt, stream string) (*Container, error) {
	c, err := readContainer(&tiffdecoder{r: r, hash: blake3.New(), headOnly: true}, stream)
	if c != nil {
		c.fingerprint = [32]byte{}
	}
	return c, err
}

func readContainer(d *tiffdecoder, stream string) (*Container, error) {

	p := make([]byte, 8)
	if _, err := d.r.ReadAt(p, 0); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, &OpenError{Stream: stream, Err: err}
	}
	switch string(p[0:4]) {
	case leHeader:
		d.byteOrder = binary.LittleEndian
	case beHeader:
		d.byteOrder = binary.BigEndian
	case bigLEHeader, bigBEHeader:
		return nil, &OpenError{Stream: stream, Err: UnsupportedError("BigTIFF")}
	default:
		return nil, &OpenError{Stream: stream, Err: FormatError("malformed header")}
	}
	d.hash.Write(p)

	c := &Container{ByteOrder: d.byteOrder}
	seen := make(map[int64]bool)
	for off := int64(d.byteOrder.Uint32(p[4:8])); off != 0; {
		if seen[off] {
			return nil, &OpenError{Stream: stream, Fatal: true, Err: FormatError("IFD chain loops")}
		}
		if len(c.Dirs) >= maxDirectories {
			return nil, &OpenError{Stream: stream, Fatal: true, Err: FormatError("too many IFDs")}
		}
		seen[off] = true
		dir, next, err := d.readIFD(off)
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return nil, &OpenError{Stream: stream, Fatal: true, Err: err}
		}
		c.Dirs = append(c.Dirs, dir)
		if d.headOnly {
			break
		}
		off = next
	}
	copy(c.fingerprint[:], d.hash.Sum(nil))
	return c, nil
}
