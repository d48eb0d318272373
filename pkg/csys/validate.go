package csys

import (
	"fmt"
	"math"
	"strings"

	"github.com/chazu/csysgen/pkg/geom"
)

const (
	// RoundDigits is the number of decimals norms and dot products are
	// rounded to before comparison.
	RoundDigits = 5
	// OrthoTolerance is the exclusive upper bound on a rounded |dot| between
	// two basis vectors.
	OrthoTolerance = 1e-4
)

// Axis names a basis vector of a Frame.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "Ax"
	case AxisY:
		return "Ay"
	case AxisZ:
		return "Az"
	default:
		return fmt.Sprintf("Axis(%d)", int(a))
	}
}

// Pair names two basis vectors checked for orthogonality.
type Pair [2]Axis

func (p Pair) String() string {
	return p[0].String() + "/" + p[1].String()
}

// Checked pairs, in check order.
var (
	PairXY = Pair{AxisX, AxisY}
	PairXZ = Pair{AxisX, AxisZ}
	PairYZ = Pair{AxisY, AxisZ}
)

// IssueKind classifies a validation failure.
type IssueKind int

const (
	NormNotUnit IssueKind = iota
	NotOrthogonal
)

func (k IssueKind) String() string {
	switch k {
	case NormNotUnit:
		return "norm-not-unit"
	case NotOrthogonal:
		return "not-orthogonal"
	default:
		return fmt.Sprintf("IssueKind(%d)", int(k))
	}
}

// Issue is one failed orthonormality check.
type Issue struct {
	Kind  IssueKind
	Axis  Axis    // set for NormNotUnit
	Pair  Pair    // set for NotOrthogonal
	Value float64 // offending norm or |dot|, unrounded
}

func (i Issue) String() string {
	switch i.Kind {
	case NormNotUnit:
		return fmt.Sprintf("%s norm is %.8f, not 1", i.Axis, i.Value)
	case NotOrthogonal:
		return fmt.Sprintf("%s are not orthogonal (|dot| = %.8f)", i.Pair, i.Value)
	default:
		return i.Kind.String()
	}
}

// ValidationError reports every failed check of a frame.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		parts[i] = is.String()
	}
	return "local csys is not an orthonormal base: " + strings.Join(parts, "; ")
}

// roundTo rounds x to the given number of decimals.
func roundTo(x float64, digits int) float64 {
	p := math.Pow10(digits)
	return math.Round(x*p) / p
}

// Check runs the six orthonormality checks on f and returns the failures in
// check order: norms of Ax, Ay, Az, then |Ax·Ay|, |Ax·Az|, |Ay·Az|.
func Check(f Frame) []Issue {
	var issues []Issue

	for _, a := range []Axis{AxisX, AxisY, AxisZ} {
		n := geom.Norm(f.Axis(a))
		if roundTo(n, RoundDigits) != 1.0 {
			issues = append(issues, Issue{Kind: NormNotUnit, Axis: a, Value: n})
		}
	}

	for _, p := range []Pair{PairXY, PairXZ, PairYZ} {
		d := math.Abs(geom.Dot(f.Axis(p[0]), f.Axis(p[1])))
		if roundTo(d, RoundDigits) >= OrthoTolerance {
			issues = append(issues, Issue{Kind: NotOrthogonal, Pair: p, Value: d})
		}
	}

	return issues
}

// Validate reports whether f passes all six checks.
func Validate(f Frame) bool {
	return len(Check(f)) == 0
}
