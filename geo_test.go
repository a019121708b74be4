package tiffraster

import "testing"

func TestWriteGeocoding(t *testing.T) {
	rotated := [6]float64{1, 0.5, 10, 0.5, -1, 20}
	scaled := [6]float64{0.5, 0, 99, 0, -0.25, 50.75}
	three := []ControlPoint{
		{X: 0, Y: 0, MX: 10, MY: 20},
		{X: 10, Y: 0, MX: 30, MY: 20},
		{X: 0, Y: 10, MX: 10, MY: 0},
	}
	for _, tt := range []struct {
		name       string
		g          *Geocoding
		tags       []uint16
		wantAffine *[6]float64
	}{
		{"none", nil, nil, nil},
		{"one tie point", &Geocoding{ControlPoints: three[:1]}, []uint16{TagModelTiepoint}, nil},
		{"two tie points", &Geocoding{ControlPoints: three[:2]}, []uint16{TagModelTiepoint}, nil},
		{"three tie points", &Geocoding{ControlPoints: three},
			[]uint16{TagModelTiepoint, TagModelTransform}, &[6]float64{2, 0, 10, 0, -2, 20}},
		{"affine only", &Geocoding{Affine: &rotated}, []uint16{TagModelTransform}, &rotated},
		{"scale and tie point", &Geocoding{Affine: &scaled, ControlPoints: []ControlPoint{{X: 2, Y: 3, MX: 100, MY: 50}}},
			[]uint16{TagModelTiepoint, TagModelPixelScale}, &scaled},
		{"rotated with tie point", &Geocoding{Affine: &rotated, ControlPoints: three[:1]},
			[]uint16{TagModelTiepoint, TagModelTransform}, &rotated},
	} {
		d := NewDirectory()
		d.SetFloat64s(TagModelPixelScale, DTDouble, 9, 9, 0)
		writeGeocoding(d, tt.g)

		var present []uint16
		for _, tag := range []uint16{TagModelPixelScale, TagModelTiepoint, TagModelTransform} {
			if d.Has(tag) {
				present = append(present, tag)
			}
		}
		want := map[uint16]bool{}
		for _, tag := range tt.tags {
			want[tag] = true
		}
		if len(present) != len(tt.tags) {
			t.Errorf("%s: tags %v, want %v", tt.name, present, tt.tags)
		}
		for _, tag := range present {
			if !want[tag] {
				t.Errorf("%s: unexpected tag %d", tt.name, tag)
			}
		}

		got := readGeocoding(d)
		if tt.g == nil {
			if got != nil {
				t.Errorf("%s: read back %+v", tt.name, got)
			}
			continue
		}
		if got == nil {
			t.Errorf("%s: nothing read back", tt.name)
			continue
		}
		if len(got.ControlPoints) != len(tt.g.ControlPoints) {
			t.Errorf("%s: %d control points, want %d", tt.name, len(got.ControlPoints), len(tt.g.ControlPoints))
		}
		for i := range got.ControlPoints {
			if i < len(tt.g.ControlPoints) && got.ControlPoints[i] != tt.g.ControlPoints[i] {
				t.Errorf("%s: control point %d = %+v", tt.name, i, got.ControlPoints[i])
			}
		}
		switch {
		case tt.wantAffine == nil && got.Affine != nil:
			t.Errorf("%s: affine %v", tt.name, *got.Affine)
		case tt.wantAffine != nil && (got.Affine == nil || *got.Affine != *tt.wantAffine):
			t.Errorf("%s: affine %v, want %v", tt.name, got.Affine, *tt.wantAffine)
		}
	}
}
