package tiffraster

import "testing"

func TestAccessMode(t *testing.T) {
	for _, tt := range []struct {
		m, o AccessMode
		want bool
	}{
		{ReadOnly, AccessRead, true},
		{ReadOnly, AccessWrite, false},
		{AccessWrite, AccessRead, true},
		{AccessCreate, ReadWrite, true},
		{ReadWrite, AccessCreate, false},
		{0, AccessRead, false},
		{ReadOnly, 0, true},
	} {
		if got := tt.m.Includes(tt.o); got != tt.want {
			t.Errorf("%s includes %s = %t", tt.m, tt.o, got)
		}
	}
	for m, want := range map[AccessMode]string{
		0:            "none",
		ReadOnly:     "read",
		AccessWrite:  "read+write",
		AccessCreate: "read+write+create",
	} {
		if got := m.String(); got != want {
			t.Errorf("%d = %q, want %q", m, got, want)
		}
	}
}

func TestRegistryEntries(t *testing.T) {
	if Registry() != Registry() {
		t.Fatal("registry rebuilt")
	}
	seen := make(map[PixelFamily]bool)
	for _, e := range Registry().Entries() {
		seen[e.Family] = true
		if e.Access == 0 || !e.Access.Includes(AccessRead) {
			t.Errorf("%+v: leaf without read access", e)
		}
		if e.Codec == CodecFaxRLE || e.Codec == CodecFaxG3 || e.Codec == CodecFaxG4 {
			if e.Block != BlockStrip || e.Family != FamilyBilevel {
				t.Errorf("%+v: fax outside bilevel strips", e)
			}
		}
	}
	if len(seen) != int(numPixelFamilies) {
		t.Fatalf("%d families in the tree, want %d", len(seen), numPixelFamilies)
	}
}

func TestRegistryAccess(t *testing.T) {
	r := Registry()
	for _, tt := range []struct {
		k    PixelKind
		c    CodecKind
		b    BlockKind
		want AccessMode
	}{
		{PixelGray1, CodecFaxRLE, BlockStrip, ReadOnly},
		{PixelGray1, CodecFaxRLE, BlockTile, 0},
		{PixelGray1, CodecFaxG4, BlockStrip, ReadWriteCreate},
		{PixelIndexed1, CodecFaxG3, BlockStrip, ReadWriteCreate},
		{PixelRGB24, CodecJPEG, BlockTile, ReadWriteCreate},
		{PixelRGBA64, CodecJPEG, BlockTile, ReadOnly},
		{PixelRGBA64, CodecPackBits, BlockStrip, 0},
		{PixelGray8, CodecFixedRatio, BlockStrip, ReadOnly},
		{PixelGray16, CodecJPEG, BlockStrip, 0},
		{PixelYCC24, CodecLZW, BlockTile, ReadWriteCreate},
		{PixelYCC24, CodecDeflate, BlockTile, 0},
		{PixelInvalid, CodecNone, BlockStrip, 0},
		{numPixelKinds, CodecNone, BlockStrip, 0},
		{PixelGray8, CodecInvalid, BlockStrip, 0},
	} {
		if got := r.Access(tt.k, tt.c, tt.b); got != tt.want {
			t.Errorf("%s/%s/%s = %s, want %s", tt.k, tt.c, tt.b, got, tt.want)
		}
	}
	if r.Supports(PixelGray1, CodecFaxRLE, BlockStrip, AccessWrite) {
		t.Error("fax-rle writable")
	}
	if r.Supports(PixelRGB24, CodecFaxG4, BlockStrip, 0) {
		t.Error("missing leaf supported")
	}
}

func TestRegistryEach(t *testing.T) {
	n := 0
	Registry().Each(func(k PixelKind, c CodecKind, b BlockKind, m AccessMode) {
		n++
		if got := Registry().Access(k, c, b); got != m {
			t.Errorf("%s/%s/%s: Each %s, Access %s", k, c, b, m, got)
		}
	})
	if n == 0 {
		t.Fatal("no combinations")
	}
}

func TestParseKinds(t *testing.T) {
	for _, k := range PixelKinds() {
		if got, ok := ParsePixelKind(k.String()); !ok || got != k {
			t.Errorf("ParsePixelKind(%q) = %s, %t", k, got, ok)
		}
	}
	for _, k := range CodecKinds() {
		if got, ok := ParseCodecKind(k.String()); !ok || got != k {
			t.Errorf("ParseCodecKind(%q) = %s, %t", k, got, ok)
		}
	}
	if _, ok := ParsePixelKind("rgb48"); ok {
		t.Error("unknown pixel kind parsed")
	}
	if _, ok := ParseCodecKind("webp"); ok {
		t.Error("unknown codec parsed")
	}
}
