// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tiffraster

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
)

type tiffencoder struct {
	buf       bytes.Buffer
	byteOrder binary.ByteOrder
}

func (e *tiffencoder) align() {
	if e.buf.Len()%2 != 0 {
		e.buf.WriteByte(0)
	}
}

func (e *tiffencoder) putUint32At(pos int, v uint32) {
	e.byteOrder.PutUint32(e.buf.Bytes()[pos:pos+4], v)
}

// encodeValue serializes the values of f in the container byte order.
func encodeValue(bo binary.ByteOrder, f *Field) []byte {
	switch f.Type {
	case DTASCII, DTUndefined:
		return f.Raw
	case DTByte, DTSByte:
		b := make([]byte, len(f.Ints))
		for i, v := range f.Ints {
			b[i] = byte(v)
		}
		return b
	case DTShort, DTSShort:
		b := make([]byte, 2*len(f.Ints))
		for i, v := range f.Ints {
			bo.PutUint16(b[2*i:], uint16(v))
		}
		return b
	case DTLong, DTSLong, DTIFD, DTRational, DTSRational:
		b := make([]byte, 4*len(f.Ints))
		for i, v := range f.Ints {
			bo.PutUint32(b[4*i:], uint32(v))
		}
		return b
	case DTFloat:
		b := make([]byte, 4*len(f.Floats))
		for i, v := range f.Floats {
			bo.PutUint32(b[4*i:], math.Float32bits(float32(v)))
		}
		return b
	case DTDouble:
		b := make([]byte, 8*len(f.Floats))
		for i, v := range f.Floats {
			bo.PutUint64(b[8*i:], math.Float64bits(v))
		}
		return b
	}
	return nil
}

// writeBlocks lays out the block payloads of dir and points its offset
// and byte count fields at them.
func (e *tiffencoder) writeBlocks(dir *Directory) {
	offTag, cntTag := TagStripOffsets, TagStripByteCounts
	if dir.Has(TagTileWidth) {
		offTag, cntTag = TagTileOffsets, TagTileByteCounts
		dir.Delete(TagStripOffsets)
		dir.Delete(TagStripByteCounts)
	} else {
		dir.Delete(TagTileOffsets)
		dir.Delete(TagTileByteCounts)
	}
	if len(dir.blocks) == 0 {
		dir.Delete(offTag)
		dir.Delete(cntTag)
		return
	}
	offsets := make([]uint, len(dir.blocks))
	counts := make([]uint, len(dir.blocks))
	for i, b := range dir.blocks {
		if len(b) == 0 {
			continue
		}
		e.align()
		offsets[i] = uint(e.buf.Len())
		counts[i] = uint(len(b))
		e.buf.Write(b)
	}
	dir.SetUints(offTag, DTLong, offsets...)
	dir.SetUints(cntTag, DTLong, counts...)
}

// writeIFD writes dir at the current position and returns the position of
// its next-IFD pointer.
func (e *tiffencoder) writeIFD(dir *Directory) int {
	tags := dir.Tags()
	ifdOffset := e.buf.Len()
	dataOffset := ifdOffset + 2 + ifdLen*len(tags) + 4

	var entries, data bytes.Buffer
	var p [ifdLen]byte
	for _, tag := range tags {
		f := dir.fields[tag]
		v := encodeValue(e.byteOrder, f)
		e.byteOrder.PutUint16(p[0:2], tag)
		e.byteOrder.PutUint16(p[2:4], uint16(f.Type))
		e.byteOrder.PutUint32(p[4:8], f.Count())
		clear(p[8:12])
		if len(v) <= 4 {
			copy(p[8:12], v)
		} else {
			if data.Len()%2 != 0 {
				data.WriteByte(0)
			}
			e.byteOrder.PutUint32(p[8:12], uint32(dataOffset+data.Len()))
			data.Write(v)
		}
		entries.Write(p[:])
	}

	var n [2]byte
	e.byteOrder.PutUint16(n[:], uint16(len(tags)))
	e.buf.Write(n[:])
	e.buf.Write(entries.Bytes())
	nextPos := e.buf.Len()
	e.buf.Write([]byte{0, 0, 0, 0})
	e.buf.Write(data.Bytes())
	return nextPos
}

// EncodeContainer serializes c as a classic TIFF file. Block offset and byte
// count fields of every directory are rewritten to match the new layout.
func EncodeContainer(c *Container) ([]byte, error) {
	e := &tiffencoder{byteOrder: c.ByteOrder}
	if e.byteOrder == nil {
		e.byteOrder = binary.LittleEndian
	}
	if e.byteOrder == binary.BigEndian {
		e.buf.WriteString(beHeader)
	} else {
		e.buf.WriteString(leHeader)
	}
	e.buf.Write([]byte{0, 0, 0, 0})

	nextPos := 4
	for _, dir := range c.Dirs {
		if len(dir.fields) > math.MaxUint16 {
			return nil, UnsupportedError("too many IFD entries")
		}
		e.writeBlocks(dir)
		e.align()
		e.putUint32At(nextPos, uint32(e.buf.Len()))
		nextPos = e.writeIFD(dir)
		if int64(e.buf.Len()) > math.MaxUint32 {
			return nil, UnsupportedError("file exceeds classic TIFF size")
		}
	}
	return e.buf.Bytes(), nil
}

// WriteContainer writes c to w. See EncodeContainer.
func WriteContainer(w io.Writer, c *Container) error {
	b, err := EncodeContainer(c)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}
