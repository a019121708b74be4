package tiffraster

import (
	"errors"
	"math"
)

// ControlPoint ties a raster position to a model position.
type ControlPoint struct {
	X, Y   float64 // raster
	MX, MY float64 // model
}

// Geocoding is the raster-to-model transform of a page.
type Geocoding struct {
	// Affine maps raster (x, y) to model coordinates:
	// mx = a[0]*x + a[1]*y + a[2], my = a[3]*x + a[4]*y + a[5].
	Affine        *[6]float64
	ControlPoints []ControlPoint
}

var errNoTransform = errors.New("tiffraster: geocoding has no affine transform")

// Transform returns the affine model of g. Without an explicit one it is
// solved from the first three control points.
func (g *Geocoding) Transform() ([6]float64, error) {
	if g.Affine != nil {
		return *g.Affine, nil
	}
	if len(g.ControlPoints) < 3 {
		return [6]float64{}, errNoTransform
	}
	p1, p2, p3 := g.ControlPoints[0], g.ControlPoints[1], g.ControlPoints[2]
	det := p1.X*(p2.Y-p3.Y) + p2.X*(p3.Y-p1.Y) + p3.X*(p1.Y-p2.Y)
	if math.Abs(det) < 1e-9 {
		return [6]float64{}, errors.New("tiffraster: collinear control points")
	}
	a, b, c := solveAffine(p1.X, p1.Y, p2.X, p2.Y, p3.X, p3.Y, p1.MX, p2.MX, p3.MX, det)
	d, e, f := solveAffine(p1.X, p1.Y, p2.X, p2.Y, p3.X, p3.Y, p1.MY, p2.MY, p3.MY, det)
	return [6]float64{a, b, c, d, e, f}, nil
}

func solveAffine(x1, y1, x2, y2, x3, y3, z1, z2, z3, det float64) (float64, float64, float64) {
	a := (z1*(y2-y3) + z2*(y3-y1) + z3*(y1-y2)) / det
	b := (z1*(x3-x2) + z2*(x1-x3) + z3*(x2-x1)) / det
	c := (z1*(x2*y3-x3*y2) + z2*(x3*y1-x1*y3) + z3*(x1*y2-x2*y1)) / det
	return a, b, c
}

// readGeocoding collects the model transform, tie points and pixel scale
// of a directory. It returns nil when none are present.
func readGeocoding(t TagAccessor) *Geocoding {
	g := &Geocoding{}
	if m := t.Float64s(TagModelTransform); len(m) == 16 {
		g.Affine = &[6]float64{m[0], m[1], m[3], m[4], m[5], m[7]}
	}
	tp := t.Float64s(TagModelTiepoint)
	for i := 0; i+6 <= len(tp); i += 6 {
		g.ControlPoints = append(g.ControlPoints, ControlPoint{X: tp[i], Y: tp[i+1], MX: tp[i+3], MY: tp[i+4]})
	}
	if s := t.Float64s(TagModelPixelScale); g.Affine == nil && len(s) >= 2 && len(g.ControlPoints) == 1 {
		p := g.ControlPoints[0]
		g.Affine = &[6]float64{s[0], 0, p.MX - p.X*s[0], 0, -s[1], p.MY + p.Y*s[1]}
	}
	if g.Affine == nil && g.ControlPoints == nil {
		return nil
	}
	return g
}

// writeGeocoding stores the control points of g as tie points and its
// affine transform, when it has one, as a pixel scale or a 4x4 model
// transform. The pixel scale form is used when a single tie point and an
// unrotated transform agree.
func writeGeocoding(t TagAccessor, g *Geocoding) {
	t.Delete(TagModelTransform)
	t.Delete(TagModelTiepoint)
	t.Delete(TagModelPixelScale)
	if g == nil {
		return
	}
	if len(g.ControlPoints) > 0 {
		tp := make([]float64, 0, 6*len(g.ControlPoints))
		for _, p := range g.ControlPoints {
			tp = append(tp, p.X, p.Y, 0, p.MX, p.MY, 0)
		}
		t.SetFloat64s(TagModelTiepoint, DTDouble, tp...)
	}
	a, err := g.Transform()
	if err != nil {
		// Tie points alone still locate the raster.
		return
	}
	if len(g.ControlPoints) == 1 && a[1] == 0 && a[3] == 0 {
		p := g.ControlPoints[0]
		if near(a[2], p.MX-p.X*a[0]) && near(a[5], p.MY-p.Y*a[4]) {
			t.SetFloat64s(TagModelPixelScale, DTDouble, a[0], -a[4], 0)
			return
		}
	}
	t.SetFloat64s(TagModelTransform, DTDouble,
		a[0], a[1], 0, a[2],
		a[3], a[4], 0, a[5],
		0, 0, 0, 0,
		0, 0, 0, 1,
	)
}

func near(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}
