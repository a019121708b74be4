package tiffraster

import "testing"

// subfileDir returns a directory of the given extent and NewSubfileType,
// or without the field when subfile is negative.
func subfileDir(subfile int, w, h uint) TagAccessor {
	d := NewDirectory()
	if subfile >= 0 {
		d.SetUints(TagNewSubfileType, DTLong, uint(subfile))
	}
	if w > 0 {
		d.SetUints(TagImageWidth, DTLong, w)
	}
	if h > 0 {
		d.SetUints(TagImageLength, DTLong, h)
	}
	return d
}

func TestScanDirectories(t *testing.T) {
	dirs := []TagAccessor{
		subfileDir(-1, 100, 100),                         // 0 full
		subfileDir(subfileReduced, 50, 50),               // 1 reduced
		subfileDir(subfileReduced, 25, 25),               // 2 reduced
		subfileDir(subfileMask, 100, 100),                // 3 mask
		subfileDir(subfilePage, 80, 80),                  // 4 page
		subfileDir(subfilePage|subfileReduced, 40, 40),   // 5 page, not reduced
		subfileDir(subfileReduced, 20, 20),               // 6 reduced
		subfileDir(subfilePage, 0, 0),                    // 7 empty page
		subfileDir(subfileReduced|subfileMask, 100, 100), // 8 reduced mask
		subfileDir(subfilePage|subfileMask, 100, 100),    // 9 page mask
		subfileDir(subfilePage|subfileMask, 0, 0),        // 10 page mask, no extent
	}
	x := ScanDirectories(dirs)
	want := []DirectoryClass{
		ClassFullImage, ClassReducedImage, ClassReducedImage, ClassMask, ClassPage,
		ClassPage, ClassReducedImage, ClassEmptyPage, ClassMask, ClassMask, ClassMask,
	}
	if len(x.Entries()) != len(want) {
		t.Fatalf("%d entries", len(x.Entries()))
	}
	for i, e := range x.Entries() {
		if e.Class != want[i] || e.Index != i {
			t.Errorf("entry %d = %s@%d, want %s", i, e.Class, e.Index, want[i])
		}
	}
	if n := x.PageCount(); n != 4 {
		t.Fatalf("page count = %d, want 4", n)
	}
	for n, want := range []int{0, 4, 5, 7} {
		if got := x.DirectoryIndexOfPage(n); got != want {
			t.Errorf("page %d at %d, want %d", n, got, want)
		}
	}
	for _, n := range []int{-1, 4, 100} {
		if got := x.DirectoryIndexOfPage(n); got != NoDirectory {
			t.Errorf("page %d at %d, want NoDirectory", n, got)
		}
	}
	for i, want := range map[int]int{0: 2, 4: 0, 5: 1, 7: 0, 8: 0, -1: 0, 11: 0} {
		if got := x.SubResolutionCount(i); got != want {
			t.Errorf("sub-resolutions of %d = %d, want %d", i, got, want)
		}
	}
}

func TestScanLegacySubfileType(t *testing.T) {
	legacy := func(v uint) TagAccessor {
		d := NewDirectory()
		d.SetUints(TagSubfileType, DTShort, v)
		d.SetUints(TagImageWidth, DTShort, 10)
		d.SetUints(TagImageLength, DTShort, 10)
		return d
	}
	x := ScanDirectories([]TagAccessor{legacy(oldSubfileFull), legacy(oldSubfileReduced), legacy(oldSubfilePage), legacy(9)})
	want := []DirectoryClass{ClassFullImage, ClassReducedImage, ClassPage, ClassFullImage}
	for i, e := range x.Entries() {
		if e.Class != want[i] {
			t.Errorf("entry %d = %s, want %s", i, e.Class, want[i])
		}
	}

	// The new field wins over the legacy one.
	d := legacy(oldSubfileReduced).(*Directory)
	d.SetUints(TagNewSubfileType, DTLong, 0)
	if c := ScanDirectories([]TagAccessor{d}).Entries()[0].Class; c != ClassFullImage {
		t.Errorf("class = %s", c)
	}
}

func TestDirectoryIndexInvariants(t *testing.T) {
	shapes := [][]int{
		{},
		{subfileReduced},
		{subfileReduced, subfileReduced},
		{0, subfileReduced, subfileReduced, subfilePage, subfileMask, subfilePage},
		{subfilePage, subfilePage, subfileReduced, -1, subfileReduced, subfileReduced, subfileReduced},
	}
	for _, shape := range shapes {
		dirs := make([]TagAccessor, len(shape))
		for i, s := range shape {
			dirs[i] = subfileDir(s, 8, 8)
		}
		x := ScanDirectories(dirs)
		n := x.PageCount()
		if n < 1 {
			t.Fatalf("%v: page count %d", shape, n)
		}
		prev := -1
		for p := 0; p < n; p++ {
			i := x.DirectoryIndexOfPage(p)
			if i == NoDirectory {
				// Only the implicit page of a file without pages.
				if p != 0 {
					t.Errorf("%v: page %d missing", shape, p)
				}
				continue
			}
			if i <= prev {
				t.Errorf("%v: page %d at %d after %d", shape, p, i, prev)
			}
			prev = i
			reduced := 0
			for _, e := range x.Entries()[i+1:] {
				if e.Class != ClassReducedImage {
					break
				}
				reduced++
			}
			if got := x.SubResolutionCount(i); got != reduced {
				t.Errorf("%v: page %d has %d sub-resolutions, want %d", shape, p, got, reduced)
			}
		}
	}
}
