package tiffraster

import (
	"errors"
	"io"
	"testing"
)

func TestFaultError(t *testing.T) {
	for _, tt := range []struct {
		f    *Fault
		want string
	}{
		{&Fault{Kind: FaultCodecNotSupported, Stream: "a.tif", Page: 2, Detail: "lzw"},
			"tiffraster: codec not supported (a.tif, page 2): lzw"},
		{&Fault{Kind: FaultNoDataOutOfRange, Stream: "a.tif", Page: -1},
			"tiffraster: no-data value out of range (a.tif)"},
		{&Fault{Kind: FaultMalformedPageReference, Page: 7, Err: io.ErrUnexpectedEOF},
			"tiffraster: malformed page reference (page 7): unexpected EOF"},
		{&Fault{Page: -1}, "tiffraster: fault"},
		{&Fault{Kind: 99, Page: -1, Detail: "x"}, "tiffraster: fault: x"},
	} {
		if got := tt.f.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}

	unknown := &Fault{Page: -1}
	for _, sentinel := range []error{ErrPixelTypeNotSupported, ErrCodecNotSupported, nil} {
		if errors.Is(unknown, sentinel) {
			t.Errorf("unknown fault matches %v", sentinel)
		}
	}
	if !errors.Is(&Fault{Kind: FaultPixelTypeNotSupported}, ErrPixelTypeNotSupported) {
		t.Error("fault does not match its sentinel")
	}
}
