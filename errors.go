package tiffraster

import (
	"errors"
	"fmt"
)

// A FormatError reports that the input is not a valid TIFF image.
type FormatError string

func (e FormatError) Error() string {
	return "tiff: invalid format: " + string(e)
}

// An UnsupportedError reports that the input uses a valid but
// unimplemented container feature.
type UnsupportedError string

func (e UnsupportedError) Error() string {
	return "tiff: unsupported feature: " + string(e)
}

// Sentinel errors for each fault kind.
var (
	ErrPixelTypeNotSupported          = errors.New("tiffraster: pixel type not supported")
	ErrCodecNotSupported              = errors.New("tiffraster: codec not supported")
	ErrAccessModeNotSupportedForCodec = errors.New("tiffraster: access mode not supported for codec")
	ErrMalformedPageReference         = errors.New("tiffraster: malformed page reference")
	ErrNoDataOutOfRange               = errors.New("tiffraster: no-data value out of range")
	ErrContainerOpen                  = errors.New("tiffraster: container could not be opened")
	ErrReadOnly                       = errors.New("tiffraster: file not opened for writing")
	ErrClosed                         = errors.New("tiffraster: file closed")
	ErrInvalidDescriptor              = errors.New("tiffraster: invalid page descriptor")
)

// FaultKind classifies a Fault.
type FaultKind uint8

const (
	FaultPixelTypeNotSupported FaultKind = iota + 1
	FaultCodecNotSupported
	FaultAccessModeNotSupportedForCodec
	FaultMalformedPageReference
	FaultNoDataOutOfRange
)

var faultSentinels = map[FaultKind]error{
	FaultPixelTypeNotSupported:          ErrPixelTypeNotSupported,
	FaultCodecNotSupported:              ErrCodecNotSupported,
	FaultAccessModeNotSupportedForCodec: ErrAccessModeNotSupportedForCodec,
	FaultMalformedPageReference:         ErrMalformedPageReference,
	FaultNoDataOutOfRange:               ErrNoDataOutOfRange,
}

// Fault is a definitive rejection of a directory's encoding or of a page
// reference. Faults are never transient.
type Fault struct {
	Kind   FaultKind
	Stream string // stream identity, usually a path
	Page   int    // page or directory index, -1 when unknown
	Detail string // offending field values
	Err    error  // underlying error, if any
}

func (e *Fault) Error() string {
	msg := "tiffraster: fault"
	if err, ok := faultSentinels[e.Kind]; ok {
		msg = err.Error()
	}
	if e.Stream != "" {
		msg += fmt.Sprintf(" (%s", e.Stream)
		if e.Page >= 0 {
			msg += fmt.Sprintf(", page %d", e.Page)
		}
		msg += ")"
	} else if e.Page >= 0 {
		msg += fmt.Sprintf(" (page %d)", e.Page)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Fault) Unwrap() error { return e.Err }

// Is matches the sentinel error of the fault kind.
func (e *Fault) Is(target error) bool {
	err, ok := faultSentinels[e.Kind]
	return ok && err == target
}

func newFault(kind FaultKind, ctx ResolveContext, format string, args ...any) *Fault {
	return &Fault{
		Kind:   kind,
		Stream: ctx.Stream,
		Page:   ctx.Page,
		Detail: fmt.Sprintf(format, args...),
	}
}

// OpenError reports a container that could not be parsed. A non-fatal
// OpenError means the stream is simply not a TIFF container; a fatal one
// means it looked like one but is corrupt or unreadable.
type OpenError struct {
	Stream string
	Fatal  bool
	Err    error
}

func (e *OpenError) Error() string {
	kind := "not a tiff container"
	if e.Fatal {
		kind = "corrupt tiff container"
	}
	if e.Stream != "" {
		return fmt.Sprintf("tiffraster: %s %s: %v", kind, e.Stream, e.Err)
	}
	return fmt.Sprintf("tiffraster: %s: %v", kind, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

func (e *OpenError) Is(target error) bool { return target == ErrContainerOpen }
