package tiffraster

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// File is a TIFF raster file opened through this package. Its methods may
// be called from several goroutines and take effect in call order. Changes
// stay in memory until Save.
type File struct {
	mu     sync.Mutex
	id     uuid.UUID
	path   string
	access AccessMode
	opts   options
	log    *slog.Logger

	container *Container
	index     DirectoryIndex
	pages     []*PageDescriptor
	dirty     bool
	closed    bool
}

func newFile(path string, access AccessMode, opts []Option) *File {
	f := &File{
		id:     uuid.New(),
		path:   path,
		access: access,
		opts:   buildOptions(opts),
	}
	f.log = f.opts.logger.With("file_id", f.id.String(), "path", path)
	return f
}

// Open opens the file at path. Every page is resolved up front and must
// support access. With AccessCreate a missing file is created instead.
func Open(path string, access AccessMode, opts ...Option) (*File, error) {
	access = access.normalize()
	if access == 0 {
		access = ReadOnly
	}
	if access&AccessCreate != 0 {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return Create(path, opts...)
		}
	}
	f := newFile(path, access, opts)
	if err := f.load(true); err != nil {
		return nil, err
	}
	f.log.Info("opened tiff", "pages", f.index.PageCount(), "access", access.String())
	return f, nil
}

// Create starts a new, empty file at path. Nothing is written until Save.
func Create(path string, opts ...Option) (*File, error) {
	f := newFile(path, ReadWriteCreate, opts)
	f.container = &Container{ByteOrder: binary.LittleEndian}
	f.index = ScanDirectories(nil)
	f.pages = []*PageDescriptor{{Empty: true}}
	f.dirty = true
	f.log.Info("created tiff")
	return f, nil
}

func (f *File) resolveContext() ResolveContext {
	return ResolveContext{Stream: f.path, Page: -1, Access: f.access, NoData: f.opts.noData}
}

// load reads the container under the shared sister lock and rebuilds the
// index. Pages are resolved again when force is set or the container
// changed since the last read.
func (f *File) load(force bool) error {
	var c *Container
	err := withShared(f.path, f.opts.locking, func() error {
		r, err := os.Open(f.path)
		if err != nil {
			return &OpenError{Stream: f.path, Fatal: true, Err: err}
		}
		defer r.Close()
		c, err = ReadContainer(r, f.path)
		return err
	})
	if err != nil {
		return err
	}
	return f.adopt(c, force)
}

func (f *File) adopt(c *Container, force bool) error {
	changed := force || f.container == nil || c.Fingerprint() != f.container.Fingerprint()
	index := ScanDirectories(c.Accessors())
	if !changed {
		f.container, f.index = c, index
		f.log.Debug("tiff unchanged")
		return nil
	}
	pages, err := resolvePages(c, index, f.resolveContext())
	if err != nil {
		return err
	}
	f.container, f.index, f.pages = c, index, pages
	f.dirty = false
	return nil
}

func resolvePages(c *Container, x DirectoryIndex, ctx ResolveContext) ([]*PageDescriptor, error) {
	n := x.PageCount()
	pages := make([]*PageDescriptor, 0, n)
	for i := 0; i < n; i++ {
		p, err := readPage(c.Dirs, x, i, ctx)
		if err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, nil
}

// ID identifies this File in logs.
func (f *File) ID() uuid.UUID { return f.id }

// Path returns the path the file was opened with.
func (f *File) Path() string { return f.path }

// Access returns the access mode the file was opened with.
func (f *File) Access() AccessMode { return f.access }

// Capabilities returns the capability registry.
func (f *File) Capabilities() *Capabilities { return Registry() }

// CountPages returns the number of pages, at least 1.
func (f *File) CountPages() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return 0, ErrClosed
	}
	return f.index.PageCount(), nil
}

// Index returns the current directory index.
func (f *File) Index() (DirectoryIndex, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return DirectoryIndex{}, ErrClosed
	}
	return f.index, nil
}

// Page returns a copy of the descriptor of page n.
func (f *File) Page(n int) (*PageDescriptor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, ErrClosed
	}
	if n < 0 || n >= len(f.pages) {
		ctx := f.resolveContext()
		ctx.Page = n
		return nil, newFault(FaultMalformedPageReference, ctx, "page %d of %d", n, len(f.pages))
	}
	return f.pages[n].clone(), nil
}

func (p *PageDescriptor) clone() *PageDescriptor {
	c := *p
	c.Resolutions = append([]ResolutionDescriptor(nil), p.Resolutions...)
	if p.Thumbnail != nil {
		t := *p.Thumbnail
		c.Thumbnail = &t
	}
	return &c
}

func (f *File) checkWritable() error {
	if f.closed {
		return ErrClosed
	}
	if !f.access.Includes(AccessWrite) {
		return fmt.Errorf("%w: %s", ErrReadOnly, f.path)
	}
	return nil
}

// checkWrite verifies that r can be written.
func (f *File) checkWrite(r ResolutionDescriptor, page int) error {
	ctx := f.resolveContext()
	ctx.Page = page
	a := Registry().Access(r.Pixel.Kind, r.Codec.Kind, r.Block)
	switch {
	case a == 0:
		return newFault(FaultCodecNotSupported, ctx, "%s with %s in %ss", r.Pixel.Kind, r.Codec.Kind, r.Block)
	case !a.Includes(AccessWrite):
		return newFault(FaultAccessModeNotSupportedForCodec, ctx, "%s with %s is read-only", r.Pixel.Kind, r.Codec.Kind)
	}
	return nil
}

// restructure replaces the directory chain and rebuilds everything derived
// from it. The old chain is kept when the new one does not resolve.
func (f *File) restructure(dirs []*Directory) error {
	old := f.container.Dirs
	f.container.Dirs = dirs
	index := ScanDirectories(f.container.Accessors())
	pages, err := resolvePages(f.container, index, f.resolveContext())
	if err != nil {
		f.container.Dirs = old
		return err
	}
	f.index, f.pages = index, pages
	f.dirty = true
	return nil
}

// AddPage appends p as a new page: one directory for the full resolution,
// one per reduced resolution, and one for the thumbnail.
func (f *File) AddPage(p *PageDescriptor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkWritable(); err != nil {
		return err
	}
	page := f.index.PageCount()
	if len(f.container.Dirs) == 0 {
		page = 0
	}
	for _, r := range p.Resolutions {
		if err := f.checkWrite(r, page); err != nil {
			return err
		}
	}
	if p.Thumbnail != nil {
		if err := f.checkWrite(*p.Thumbnail, page); err != nil {
			return err
		}
	}
	dirs, err := pageDirectories(p, len(f.container.Dirs) == 0)
	if err != nil {
		return err
	}
	chain := append(append([]*Directory(nil), f.container.Dirs...), dirs...)
	if err := f.restructure(chain); err != nil {
		return err
	}
	f.log.Debug("added page", "page", page, "directories", len(dirs))
	return nil
}

// AddResolution appends a reduced resolution to the pyramid of page n.
func (f *File) AddResolution(n int, r ResolutionDescriptor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkWritable(); err != nil {
		return err
	}
	ctx := f.resolveContext()
	ctx.Page = n
	i := f.index.DirectoryIndexOfPage(n)
	if i == NoDirectory || f.index.entries[i].Class == ClassEmptyPage {
		return newFault(FaultMalformedPageReference, ctx, "page %d has no pyramid", n)
	}
	if err := f.checkWrite(r, n); err != nil {
		return err
	}
	d, err := resolutionDirectory(r, subfileReduced)
	if err != nil {
		return err
	}
	// Reduced images go before the page's thumbnail.
	at := i + 1
	for at < len(f.index.entries) && f.index.entries[at].Class == ClassReducedImage &&
		!f.container.Dirs[at].Has(TagThumbnailComposed) {
		at++
	}
	c := &Container{Dirs: append([]*Directory(nil), f.container.Dirs...)}
	c.insert(at, d)
	if err := f.restructure(c.Dirs); err != nil {
		return err
	}
	f.log.Debug("added resolution", "page", n, "directory", at, "width", r.Width, "height", r.Height)
	return nil
}

// Save writes the file under the exclusive sister lock. The new content
// replaces the old one by rename, so concurrent readers see either.
func (f *File) Save() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkWritable(); err != nil {
		return err
	}
	b, err := EncodeContainer(f.container)
	if err != nil {
		return err
	}
	err = withExclusive(f.path, f.opts.locking, func() error {
		return writeFileAtomic(f.path, b)
	})
	if err != nil {
		return err
	}
	c, err := ReadContainer(bytes.NewReader(b), f.path)
	if err != nil {
		return err
	}
	if err := f.adopt(c, true); err != nil {
		return err
	}
	f.log.Info("saved tiff", "pages", f.index.PageCount(), "bytes", len(b))
	return nil
}

// writeFileAtomic replaces path with b, keeping the permissions of the
// file it replaces.
func writeFileAtomic(path string, b []byte) error {
	perm := fs.FileMode(0o644)
	if fi, err := os.Stat(path); err == nil {
		perm = fi.Mode().Perm()
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), perm); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Refresh rereads the file, for use after another process changed it.
// The index is always rebuilt; pages are resolved again only when the
// container changed. Unsaved changes are discarded.
func (f *File) Refresh() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	if f.dirty {
		f.log.Warn("refresh discards unsaved changes")
	}
	if err := f.load(f.dirty); err != nil {
		return err
	}
	f.log.Debug("refreshed tiff", "pages", f.index.PageCount())
	return nil
}

// Close releases the file. Unsaved changes are dropped.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	if f.dirty && f.access.Includes(AccessWrite) {
		f.log.Warn("closing tiff with unsaved changes")
	}
	f.closed = true
	f.container, f.pages = nil, nil
	f.log.Debug("closed tiff")
	return nil
}
