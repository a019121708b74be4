package tiffraster

import (
	"strings"
	"sync"
)

// AccessMode is a set of access rights. Write implies Read and Create
// implies Write.
type AccessMode uint8

const (
	AccessRead AccessMode = 1 << iota
	AccessWrite
	AccessCreate

	ReadOnly        = AccessRead
	ReadWrite       = AccessRead | AccessWrite
	ReadWriteCreate = AccessRead | AccessWrite | AccessCreate
)

func (m AccessMode) normalize() AccessMode {
	if m&AccessCreate != 0 {
		m |= AccessWrite
	}
	if m&AccessWrite != 0 {
		m |= AccessRead
	}
	return m
}

// Includes reports whether m grants every right in o.
func (m AccessMode) Includes(o AccessMode) bool {
	o = o.normalize()
	return m.normalize()&o == o
}

func (m AccessMode) writes() bool { return m&(AccessWrite|AccessCreate) != 0 }

func (m AccessMode) String() string {
	if m == 0 {
		return "none"
	}
	var parts []string
	for _, p := range []struct {
		bit  AccessMode
		name string
	}{{AccessRead, "read"}, {AccessWrite, "write"}, {AccessCreate, "create"}} {
		if m.normalize()&p.bit != 0 {
			parts = append(parts, p.name)
		}
	}
	return strings.Join(parts, "+")
}

// BlockKind is the layout of pixel data blocks.
type BlockKind uint8

const (
	BlockStrip BlockKind = iota
	BlockTile
)

func (b BlockKind) String() string {
	if b == BlockTile {
		return "tile"
	}
	return "strip"
}

type blockNode struct {
	block  BlockKind
	access AccessMode
}

type codecNode struct {
	codec  CodecKind
	blocks []blockNode
}

type familyNode struct {
	family PixelFamily
	codecs []codecNode
}

// Capabilities is the immutable capability tree: pixel family, then codec,
// then block kind, each leaf tagged with the access modes it supports.
type Capabilities struct {
	families [numPixelFamilies]familyNode
}

// Capability is one leaf of the tree.
type Capability struct {
	Family PixelFamily
	Codec  CodecKind
	Block  BlockKind
	Access AccessMode
}

var (
	registryOnce sync.Once
	registry     *Capabilities
)

// Registry returns the process-wide capability tree, building it on first use.
func Registry() *Capabilities {
	registryOnce.Do(func() { registry = buildRegistry() })
	return registry
}

func anyBlock(m AccessMode) []blockNode {
	return []blockNode{{BlockStrip, m}, {BlockTile, m}}
}

func stripOnly(m AccessMode) []blockNode {
	return []blockNode{{BlockStrip, m}}
}

// lossless is the common codec list of every uncompressed-friendly family.
func lossless(packbits bool) []codecNode {
	nodes := []codecNode{{CodecNone, anyBlock(ReadWriteCreate)}}
	if packbits {
		nodes = append(nodes, codecNode{CodecPackBits, anyBlock(ReadWriteCreate)})
	}
	return append(nodes,
		codecNode{CodecLZW, anyBlock(ReadWriteCreate)},
		codecNode{CodecDeflate, anyBlock(ReadWriteCreate)},
	)
}

func buildRegistry() *Capabilities {
	c := &Capabilities{}
	set := func(f PixelFamily, codecs ...codecNode) {
		c.families[f] = familyNode{family: f, codecs: codecs}
	}
	with := func(base []codecNode, extra ...codecNode) []codecNode {
		return append(base, extra...)
	}

	set(FamilyBilevel, with(lossless(true),
		codecNode{CodecFaxRLE, stripOnly(ReadOnly)},
		codecNode{CodecFaxG3, stripOnly(ReadWriteCreate)},
		codecNode{CodecFaxG4, stripOnly(ReadWriteCreate)},
	)...)
	set(FamilyIndexed, lossless(true)...)
	set(FamilyGrayLow, lossless(true)...)
	set(FamilyGray8, with(lossless(true),
		codecNode{CodecJPEG, anyBlock(ReadWriteCreate)},
		codecNode{CodecFixedRatio, anyBlock(ReadOnly)},
	)...)
	set(FamilyGray16, lossless(true)...)
	set(FamilyGray32, lossless(false)...)
	set(FamilyTrueColor8, with(lossless(true),
		codecNode{CodecJPEG, anyBlock(ReadWriteCreate)},
		codecNode{CodecFixedRatio, anyBlock(ReadOnly)},
	)...)
	set(FamilyPackedColor, lossless(true)...)
	// 16-bit JPEG does not round-trip losslessly enough to be written.
	set(FamilyTrueColor16, with(lossless(false),
		codecNode{CodecJPEG, anyBlock(ReadOnly)},
	)...)
	set(FamilyTrueColor32, lossless(false)...)
	set(FamilyCMYK, with(lossless(true),
		codecNode{CodecJPEG, anyBlock(ReadWriteCreate)},
	)...)
	set(FamilyYCC,
		codecNode{CodecNone, anyBlock(ReadWriteCreate)},
		codecNode{CodecLZW, anyBlock(ReadWriteCreate)},
	)
	return c
}

// Access returns the access modes supported for the combination, or 0.
func (c *Capabilities) Access(k PixelKind, codec CodecKind, b BlockKind) AccessMode {
	if !k.valid() {
		return 0
	}
	for _, cn := range c.families[k.Family()].codecs {
		if cn.codec != codec {
			continue
		}
		for _, bn := range cn.blocks {
			if bn.block == b {
				return bn.access
			}
		}
	}
	return 0
}

// Supports reports whether the combination is supported with mode.
func (c *Capabilities) Supports(k PixelKind, codec CodecKind, b BlockKind, mode AccessMode) bool {
	a := c.Access(k, codec, b)
	return a != 0 && a.Includes(mode)
}

// Entries returns every leaf of the tree, family by family.
func (c *Capabilities) Entries() []Capability {
	var out []Capability
	for _, fn := range c.families {
		for _, cn := range fn.codecs {
			for _, bn := range cn.blocks {
				out = append(out, Capability{fn.family, cn.codec, bn.block, bn.access})
			}
		}
	}
	return out
}

// Each calls fn for every supported concrete pixel kind, codec and block
// kind combination.
func (c *Capabilities) Each(fn func(k PixelKind, codec CodecKind, b BlockKind, m AccessMode)) {
	for _, k := range PixelKinds() {
		for _, cn := range c.families[k.Family()].codecs {
			for _, bn := range cn.blocks {
				fn(k, cn.codec, bn.block, bn.access)
			}
		}
	}
}
