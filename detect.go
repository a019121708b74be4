package tiffraster

import (
	"errors"
	"io"
	"log/slog"
	"os"
)

// hasSiblingMarker reports whether d carries the image information tags of
// a compatible sibling container.
func hasSiblingMarker(d TagAccessor) bool {
	return d.Has(TagVendorImageInfo) || d.Has(TagLegacyImageInfo)
}

// hasGeoMarker reports whether d carries foreign georeferencing.
func hasGeoMarker(d TagAccessor) bool {
	return d.Has(TagModelTransform) ||
		(d.Has(TagModelTiepoint) && d.Has(TagModelPixelScale)) ||
		d.Has(TagGeoKeyDirectory) ||
		d.Has(TagVendorRagbag)
}

// readForDetection parses the first directory of r, turning non-fatal open
// errors into a nil container.
func readForDetection(r io.ReaderAt, stream string) (*Container, error) {
	c, err := readHead(r, stream)
	if err != nil {
		var oe *OpenError
		if errors.As(err, &oe) && !oe.Fatal {
			return nil, nil
		}
		return nil, err
	}
	if len(c.Dirs) == 0 {
		return nil, nil
	}
	return c, nil
}

// Detect reports whether r holds a plain TIFF container whose first
// directory this package can read. Only fatal container errors are
// returned; any other rejection is false.
func Detect(r io.ReaderAt) (bool, error) {
	return detect(r, "", slog.Default())
}

func detect(r io.ReaderAt, stream string, log *slog.Logger) (bool, error) {
	c, err := readForDetection(r, stream)
	if c == nil || err != nil {
		return false, err
	}
	d := c.Dirs[0]
	switch {
	case hasSiblingMarker(d):
		log.Debug("tiff detection: sibling image information", "stream", stream)
		return false, nil
	case hasGeoMarker(d):
		log.Debug("tiff detection: foreign georeferencing", "stream", stream)
		return false, nil
	}
	if _, err := describeResolution(d, ResolveContext{Stream: stream, Access: AccessRead}); err != nil {
		log.Debug("tiff detection: directory 0 rejected", "stream", stream, "err", err)
		return false, nil
	}
	return true, nil
}

// IsKindOfFile is Detect with every error reported as false.
func IsKindOfFile(r io.ReaderAt) bool {
	ok, _ := Detect(r)
	return ok
}

// IsKindOfPath runs the detector on the file at path while holding its
// shared sister lock.
func IsKindOfPath(path string, opts ...Option) bool {
	o := buildOptions(opts)
	var ok bool
	err := withShared(path, o.locking, func() error {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		ok, err = detect(f, path, o.logger)
		return err
	})
	if err != nil {
		o.logger.Debug("tiff detection failed", "path", path, "err", err)
		return false
	}
	return ok
}

func detectGeoTIFF(r io.ReaderAt) (bool, error) {
	c, err := readForDetection(r, "")
	if c == nil || err != nil {
		return false, err
	}
	return !hasSiblingMarker(c.Dirs[0]) && hasGeoMarker(c.Dirs[0]), nil
}

func detectVendorTIFF(r io.ReaderAt) (bool, error) {
	c, err := readForDetection(r, "")
	if c == nil || err != nil {
		return false, err
	}
	return hasSiblingMarker(c.Dirs[0]), nil
}
