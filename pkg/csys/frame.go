// Package csys builds local element coordinate systems from two reference
// points and certifies them as orthonormal.
//
// Only the origin and the X-axis end point drive the axis math. Rotation
// about the local X axis cannot be recovered from two points, so the Y and
// Z end points are kept on the Frame for traceability only.
package csys

import (
	"fmt"
	"math"

	"github.com/chazu/csysgen/pkg/geom"
)

// SeedTolerance is the length below which cross(Ax, AyCandidate) is treated
// as parallel and the Y candidate is reseeded from another canonical axis.
const SeedTolerance = 1e-6

// Corners are the reference points of a frame.
type Corners struct {
	Origin geom.Point // P0
	XEnd   geom.Point // P1, end of the local X axis
	YEnd   geom.Point // P2, traceability only
	ZEnd   geom.Point // P3, traceability only
}

// Frame is a local coordinate system anchored at Origin.
// Frames are computed once and never mutated afterwards.
type Frame struct {
	Origin geom.Point `json:"origin"`
	XEnd   geom.Point `json:"x_end"`
	YEnd   geom.Point `json:"y_end"`
	ZEnd   geom.Point `json:"z_end"`

	Ax geom.Vec3 `json:"ax"`
	Ay geom.Vec3 `json:"ay"`
	Az geom.Vec3 `json:"az"`

	// Fallback is set when the Y candidate had to be reseeded.
	Fallback bool `json:"fallback,omitempty"`
}

// Axes derives the basis (Ax, Ay, Az) from the origin p0 and the X-axis end
// point p1. The returned flag reports whether the reseed branch was taken.
func Axes(p0, p1 geom.Point) (ax, ay, az geom.Vec3, fallback bool, err error) {
	ax, err = geom.Normalize(geom.Sub(p1, p0))
	if err != nil {
		return ax, ay, az, false, fmt.Errorf("x axis from %v to %v: %w", p0, p1, err)
	}

	diff := geom.Sub(geom.UnitX, ax)
	candidate, err := geom.Normalize(geom.Add(geom.UnitY, diff))
	if err != nil {
		// |(1,1,0) - Ax| >= sqrt(2) - 1 for any unit Ax, so this is unreachable
		// unless the input holds NaN or Inf.
		return ax, ay, az, false, fmt.Errorf("y candidate: %w", err)
	}

	z := geom.Cross(ax, candidate)
	if geom.Norm(z) < SeedTolerance {
		candidate = leastAligned(ax)
		z = geom.Cross(ax, candidate)
		fallback = true
	}

	az, err = geom.Normalize(z)
	if err != nil {
		return ax, ay, az, fallback, fmt.Errorf("z axis: %w", err)
	}
	ay, err = geom.Normalize(geom.Cross(az, ax))
	if err != nil {
		return ax, ay, az, fallback, fmt.Errorf("y axis: %w", err)
	}
	return ax, ay, az, fallback, nil
}

// leastAligned returns the canonical axis with the smallest absolute
// component along v. Ties prefer Z, then Y.
func leastAligned(v geom.Vec3) geom.Vec3 {
	x, y, z := math.Abs(v.X), math.Abs(v.Y), math.Abs(v.Z)
	switch {
	case z <= x && z <= y:
		return geom.UnitZ
	case y <= x:
		return geom.UnitY
	default:
		return geom.UnitX
	}
}

// New computes the frame for c without validating it.
func New(c Corners) (Frame, error) {
	ax, ay, az, fallback, err := Axes(c.Origin, c.XEnd)
	if err != nil {
		return Frame{}, err
	}
	return Frame{
		Origin:   c.Origin,
		XEnd:     c.XEnd,
		YEnd:     c.YEnd,
		ZEnd:     c.ZEnd,
		Ax:       ax,
		Ay:       ay,
		Az:       az,
		Fallback: fallback,
	}, nil
}

// Build computes and validates the frame for c. A frame that fails
// validation is returned alongside a *ValidationError so callers can report
// it, but it must not be published.
func Build(c Corners) (Frame, error) {
	f, err := New(c)
	if err != nil {
		return Frame{}, err
	}
	if issues := Check(f); len(issues) > 0 {
		return f, &ValidationError{Issues: issues}
	}
	return f, nil
}

// Values returns the six floats an orientation field stores per element:
// Ax followed by Ay. Consumers derive Az themselves.
func (f Frame) Values() [6]float64 {
	return [6]float64{f.Ax.X, f.Ax.Y, f.Ax.Z, f.Ay.X, f.Ay.Y, f.Ay.Z}
}

// Axis returns the basis vector for a.
func (f Frame) Axis(a Axis) geom.Vec3 {
	switch a {
	case AxisX:
		return f.Ax
	case AxisY:
		return f.Ay
	default:
		return f.Az
	}
}
