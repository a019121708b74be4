package tiffraster

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
)

// ErrFormat indicates that detection found no registered format.
var ErrFormat = errors.New("tiffraster: unknown format")

// A format holds a container variant's name, magic header and detector.
type format struct {
	name, magic string
	detect      func(io.ReaderAt) (bool, error)
}

var (
	formatsMu     sync.Mutex
	atomicFormats atomic.Value
)

// RegisterFormat registers a container variant for use by DetectFormat.
// Name is the name of the variant, like "tiff" or "geotiff".
// Magic is the magic prefix that identifies the variant's encoding. The magic
// string can contain "?" wildcards that each match any one byte.
// Detect reports whether a stream with a matching prefix is of the variant.
func RegisterFormat(name, magic string, detect func(io.ReaderAt) (bool, error)) {
	formatsMu.Lock()
	formats, _ := atomicFormats.Load().([]format)
	atomicFormats.Store(append(formats, format{name, magic, detect}))
	formatsMu.Unlock()
}

// match reports whether magic matches b. Magic may contain "?" wildcards.
func match(magic string, b []byte) bool {
	if len(magic) != len(b) {
		return false
	}
	for i, c := range b {
		if magic[i] != c && magic[i] != '?' {
			return false
		}
	}
	return true
}

// DetectFormat returns the name of the first registered variant whose
// magic and detector both accept r. Fatal container errors are returned
// as they are.
func DetectFormat(r io.ReaderAt) (string, error) {
	formats, _ := atomicFormats.Load().([]format)
	for _, f := range formats {
		b := make([]byte, len(f.magic))
		if n, _ := r.ReadAt(b, 0); n != len(b) || !match(f.magic, b) {
			continue
		}
		ok, err := f.detect(r)
		if err != nil {
			return "", err
		}
		if ok {
			return f.name, nil
		}
	}
	return "", ErrFormat
}
