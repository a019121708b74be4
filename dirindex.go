package tiffraster

// DirectoryClass is the role of one directory in the page topology.
type DirectoryClass uint8

const (
	ClassFullImage DirectoryClass = iota
	ClassPage
	ClassReducedImage
	ClassMask
	ClassEmptyPage
)

func (c DirectoryClass) String() string {
	switch c {
	case ClassPage:
		return "page"
	case ClassReducedImage:
		return "reduced"
	case ClassMask:
		return "mask"
	case ClassEmptyPage:
		return "empty-page"
	}
	return "full"
}

// pageLevel reports whether c starts a page.
func (c DirectoryClass) pageLevel() bool {
	return c == ClassFullImage || c == ClassPage || c == ClassEmptyPage
}

// DirectoryEntry is one classified directory.
type DirectoryEntry struct {
	Class DirectoryClass
	Index int // position in the container's directory chain
}

// NoDirectory is returned by DirectoryIndexOfPage for a page that does not exist.
const NoDirectory = -1

// DirectoryIndex is the page and resolution topology of a container. It is
// rebuilt from scratch after every structural change and never patched.
type DirectoryIndex struct {
	entries []DirectoryEntry
}

// ScanDirectories classifies every directory once, in chain order.
func ScanDirectories(dirs []TagAccessor) DirectoryIndex {
	entries := make([]DirectoryEntry, len(dirs))
	for i, d := range dirs {
		entries[i] = DirectoryEntry{Class: classify(d), Index: i}
	}
	return DirectoryIndex{entries: entries}
}

func classify(d TagAccessor) DirectoryClass {
	class := ClassFullImage
	if v, ok := d.Uint(TagNewSubfileType); ok {
		switch {
		case v&subfileMask != 0:
			// Transparency masks of pages and of reduced images alike.
			class = ClassMask
		case v&subfilePage != 0:
			// A reduced page is still a page at this level.
			class = ClassPage
		case v&subfileReduced != 0:
			class = ClassReducedImage
		}
	} else if v, ok := d.Uint(TagSubfileType); ok {
		switch v {
		case oldSubfileReduced:
			class = ClassReducedImage
		case oldSubfilePage:
			class = ClassPage
		}
	}
	if class.pageLevel() && (firstVal(d, TagImageWidth, 0) == 0 || firstVal(d, TagImageLength, 0) == 0) {
		class = ClassEmptyPage
	}
	return class
}

// Entries returns the classified directories.
func (x DirectoryIndex) Entries() []DirectoryEntry {
	return append([]DirectoryEntry(nil), x.entries...)
}

// PageCount is the number of page-level directories, and at least 1.
func (x DirectoryIndex) PageCount() int {
	n := 0
	for _, e := range x.entries {
		if e.Class.pageLevel() {
			n++
		}
	}
	return max(n, 1)
}

// DirectoryIndexOfPage returns the chain position of the n-th page-level
// directory, or NoDirectory.
func (x DirectoryIndex) DirectoryIndexOfPage(n int) int {
	if n < 0 {
		return NoDirectory
	}
	for _, e := range x.entries {
		if !e.Class.pageLevel() {
			continue
		}
		if n == 0 {
			return e.Index
		}
		n--
	}
	return NoDirectory
}

// SubResolutionCount counts the reduced images directly following the
// directory at chain position i.
func (x DirectoryIndex) SubResolutionCount(i int) int {
	if i < 0 || i >= len(x.entries) {
		return 0
	}
	n := 0
	for _, e := range x.entries[i+1:] {
		if e.Class != ClassReducedImage {
			break
		}
		n++
	}
	return n
}

// pageEnd returns the chain position just past the page starting at i,
// covering its reduced images and masks.
func (x DirectoryIndex) pageEnd(i int) int {
	j := i + 1
	for j < len(x.entries) && !x.entries[j].Class.pageLevel() {
		j++
	}
	return j
}
