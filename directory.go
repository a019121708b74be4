package tiffraster

import (
	"math"
	"sort"
	"strings"
)

// TagAccessor is typed access to the fields of one directory. The resolver
// only talks to directories through it.
type TagAccessor interface {
	Has(tag uint16) bool
	// Uint returns the first value of an integer field.
	Uint(tag uint16) (uint, bool)
	Uints(tag uint16) []uint
	Float64s(tag uint16) []float64
	ASCII(tag uint16) (string, bool)
	Bytes(tag uint16) []byte

	SetUints(tag uint16, typ DataType, v ...uint)
	SetFloat64s(tag uint16, typ DataType, v ...float64)
	SetASCII(tag uint16, s string)
	SetBytes(tag uint16, b []byte)
	Delete(tag uint16)
}

// Field is one decoded IFD entry.
//
// Integer types (and rationals, as numerator/denominator pairs) live in
// Ints, Float and Double in Floats, ASCII and Undefined in Raw.
type Field struct {
	Type   DataType
	Ints   []int64
	Floats []float64
	Raw    []byte
}

// Count is the IFD entry count of f.
func (f *Field) Count() uint32 {
	switch f.Type {
	case DTASCII, DTUndefined:
		return uint32(len(f.Raw))
	case DTFloat, DTDouble:
		return uint32(len(f.Floats))
	case DTRational, DTSRational:
		return uint32(len(f.Ints) / 2)
	}
	return uint32(len(f.Ints))
}

// Directory is the in-memory form of one IFD together with the raw
// strip or tile payloads it points to.
type Directory struct {
	fields map[uint16]*Field
	blocks [][]byte
}

var _ TagAccessor = (*Directory)(nil)

// NewDirectory returns an empty directory.
func NewDirectory() *Directory {
	return &Directory{fields: make(map[uint16]*Field)}
}

// Field returns the raw field for tag.
func (d *Directory) Field(tag uint16) (*Field, bool) {
	f, ok := d.fields[tag]
	return f, ok
}

// Tags returns the tags present in d in ascending order.
func (d *Directory) Tags() []uint16 {
	tags := make([]uint16, 0, len(d.fields))
	for t := range d.fields {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// Blocks returns the strip or tile payloads of d.
func (d *Directory) Blocks() [][]byte { return d.blocks }

// SetBlocks replaces the strip or tile payloads of d. Nil entries are
// written as sparse blocks.
func (d *Directory) SetBlocks(b [][]byte) { d.blocks = b }

func (d *Directory) Has(tag uint16) bool {
	_, ok := d.fields[tag]
	return ok
}

func (d *Directory) Uint(tag uint16) (uint, bool) {
	f := d.fields[tag]
	if f == nil || len(f.Ints) == 0 {
		return 0, false
	}
	return uint(f.Ints[0]), true
}

// firstVal returns the first uint of the field with the given tag,
// or def if the tag does not exist.
func firstVal(t TagAccessor, tag uint16, def uint) uint {
	if v, ok := t.Uint(tag); ok {
		return v
	}
	return def
}

func (d *Directory) Uints(tag uint16) []uint {
	f := d.fields[tag]
	if f == nil || len(f.Ints) == 0 {
		return nil
	}
	u := make([]uint, len(f.Ints))
	for i, v := range f.Ints {
		u[i] = uint(v)
	}
	return u
}

func (d *Directory) Float64s(tag uint16) []float64 {
	f := d.fields[tag]
	if f == nil {
		return nil
	}
	switch f.Type {
	case DTFloat, DTDouble:
		return append([]float64(nil), f.Floats...)
	case DTRational, DTSRational:
		out := make([]float64, 0, len(f.Ints)/2)
		for i := 0; i+1 < len(f.Ints); i += 2 {
			if f.Ints[i+1] == 0 {
				out = append(out, math.NaN())
				continue
			}
			out = append(out, float64(f.Ints[i])/float64(f.Ints[i+1]))
		}
		return out
	case DTASCII, DTUndefined:
		return nil
	}
	out := make([]float64, len(f.Ints))
	for i, v := range f.Ints {
		out[i] = float64(v)
	}
	return out
}

func (d *Directory) ASCII(tag uint16) (string, bool) {
	f := d.fields[tag]
	if f == nil || f.Type != DTASCII {
		return "", false
	}
	return strings.TrimRight(string(f.Raw), "\x00"), true
}

func (d *Directory) Bytes(tag uint16) []byte {
	f := d.fields[tag]
	if f == nil {
		return nil
	}
	if f.Raw != nil {
		return append([]byte(nil), f.Raw...)
	}
	b := make([]byte, len(f.Ints))
	for i, v := range f.Ints {
		b[i] = byte(v)
	}
	return b
}

func (d *Directory) SetUints(tag uint16, typ DataType, v ...uint) {
	ints := make([]int64, len(v))
	for i, x := range v {
		ints[i] = int64(x)
	}
	d.fields[tag] = &Field{Type: typ, Ints: ints}
}

// SetFloat64s stores v as Float or Double. Any other typ is treated as Double.
func (d *Directory) SetFloat64s(tag uint16, typ DataType, v ...float64) {
	if typ != DTFloat {
		typ = DTDouble
	}
	d.fields[tag] = &Field{Type: typ, Floats: append([]float64(nil), v...)}
}

func (d *Directory) SetASCII(tag uint16, s string) {
	d.fields[tag] = &Field{Type: DTASCII, Raw: append([]byte(s), 0)}
}

func (d *Directory) SetBytes(tag uint16, b []byte) {
	d.fields[tag] = &Field{Type: DTUndefined, Raw: append([]byte(nil), b...)}
}

func (d *Directory) Delete(tag uint16) { delete(d.fields, tag) }

func (d *Directory) clone() *Directory {
	c := NewDirectory()
	for t, f := range d.fields {
		c.fields[t] = &Field{
			Type:   f.Type,
			Ints:   append([]int64(nil), f.Ints...),
			Floats: append([]float64(nil), f.Floats...),
			Raw:    append([]byte(nil), f.Raw...),
		}
	}
	c.blocks = append([][]byte(nil), d.blocks...)
	return c
}
