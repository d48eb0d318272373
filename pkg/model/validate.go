package model

import (
	"fmt"

	"github.com/chazu/csysgen/pkg/geom"
	"gonum.org/v1/gonum/mat"
)

// ValidationSeverity indicates whether a finding blocks frame generation
// or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // no frame can be built
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Part     string             // part name (empty if model-level)
	Element  int                // element label (0 if part-level)
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	switch {
	case e.Part == "":
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	case e.Element == 0:
		return fmt.Sprintf("[%s] part %s: %s", e.Severity, e.Part, e.Message)
	default:
		return fmt.Sprintf("[%s] part %s element %d: %s", e.Severity, e.Part, e.Element, e.Message)
	}
}

// ValidationResult bundles errors (blocking) and warnings (advisory).
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// OK reports whether no blocking errors were found.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// Validate runs the structural checks on every part of m, in definition
// order. An empty slice means the model is structurally sound.
func Validate(m *Model) []ValidationError {
	var errs []ValidationError
	if len(m.Order) == 0 {
		errs = append(errs, ValidationError{Message: "model has no parts", Severity: SeverityError})
	}
	for _, p := range m.PartList() {
		errs = append(errs, ValidatePart(p)...)
	}
	return errs
}

// ValidatePart runs the structural checks on a single part.
func ValidatePart(p *Part) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateNotEmpty(p)...)
	errs = append(errs, validateElementLabels(p)...)
	errs = append(errs, validateConnectivity(p)...)
	return errs
}

// ValidateAll runs structural and geometric checks and separates errors
// from warnings. Geometric checks use the given corner mapping.
func ValidateAll(m *Model, corners CornerMap) ValidationResult {
	var result ValidationResult
	for _, e := range Validate(m) {
		if e.Severity == SeverityWarning {
			result.Warnings = append(result.Warnings, e)
		} else {
			result.Errors = append(result.Errors, e)
		}
	}
	for _, p := range m.PartList() {
		errs, warnings := ValidateGeometry(p, corners)
		result.Errors = append(result.Errors, errs...)
		result.Warnings = append(result.Warnings, warnings...)
	}
	return result
}

func validateNotEmpty(p *Part) []ValidationError {
	if len(p.Elements) == 0 {
		return []ValidationError{{Part: p.Name, Message: "part has no elements", Severity: SeverityError}}
	}
	return nil
}

// validateElementLabels checks that element labels are positive and unique
// within the part.
func validateElementLabels(p *Part) []ValidationError {
	var errs []ValidationError
	seen := make(map[int]bool)
	for _, e := range p.Elements {
		if e.Label <= 0 {
			errs = append(errs, ValidationError{
				Part:     p.Name,
				Element:  e.Label,
				Message:  fmt.Sprintf("element label %d must be positive", e.Label),
				Severity: SeverityError,
			})
		}
		if seen[e.Label] {
			errs = append(errs, ValidationError{
				Part:     p.Name,
				Element:  e.Label,
				Message:  fmt.Sprintf("duplicate element label %d", e.Label),
				Severity: SeverityError,
			})
		}
		seen[e.Label] = true
	}
	return errs
}

// validateConnectivity checks element types, node counts and node
// references.
func validateConnectivity(p *Part) []ValidationError {
	var errs []ValidationError
	for _, e := range p.Elements {
		if !IsHexType(e.Type) {
			errs = append(errs, ValidationError{
				Part:     p.Name,
				Element:  e.Label,
				Message:  fmt.Sprintf("unsupported element type %q, expected an 8-node hexahedron", e.Type),
				Severity: SeverityError,
			})
		}
		if len(e.Connectivity) != HexNodeCount {
			errs = append(errs, ValidationError{
				Part:     p.Name,
				Element:  e.Label,
				Message:  fmt.Sprintf("element has %d nodes, want %d", len(e.Connectivity), HexNodeCount),
				Severity: SeverityError,
			})
		}
		used := make(map[int]bool)
		for _, label := range e.Connectivity {
			if _, ok := p.Nodes[label]; !ok {
				errs = append(errs, ValidationError{
					Part:     p.Name,
					Element:  e.Label,
					Message:  fmt.Sprintf("references non-existent node %d", label),
					Severity: SeverityError,
				})
			}
			if used[label] {
				errs = append(errs, ValidationError{
					Part:     p.Name,
					Element:  e.Label,
					Message:  fmt.Sprintf("node %d appears more than once", label),
					Severity: SeverityError,
				})
			}
			used[label] = true
		}
	}
	return errs
}

// ValidateGeometry flags elements whose origin and X-end corners coincide
// (no frame can be built) and warns about inverted or collapsed corners.
// Elements that failed structural checks are skipped.
func ValidateGeometry(p *Part, corners CornerMap) ([]ValidationError, []ValidationError) {
	var errs, warnings []ValidationError
	if err := corners.Validate(); err != nil {
		errs = append(errs, ValidationError{Part: p.Name, Message: err.Error(), Severity: SeverityError})
		return errs, warnings
	}

	for _, e := range p.Elements {
		h, err := p.Hex(e)
		if err != nil {
			continue
		}
		c := corners.Corners(h.Nodes)
		if c.Origin == c.XEnd {
			errs = append(errs, ValidationError{
				Part:     p.Name,
				Element:  e.Label,
				Message:  fmt.Sprintf("origin and x-end corners coincide at %v", c.Origin),
				Severity: SeverityError,
			})
			continue
		}
		if det := cornerJacobian(h); det <= 0 {
			warnings = append(warnings, ValidationError{
				Part:     p.Name,
				Element:  e.Label,
				Message:  fmt.Sprintf("corner jacobian is %.4g; element is inverted or collapsed", det),
				Severity: SeverityWarning,
			})
		}
	}
	return errs, warnings
}

// cornerJacobian returns the determinant of the three edges leaving node 0
// of a hexahedron (towards nodes 1, 3 and 4). It is positive for elements
// numbered counter-clockwise on the first face with the second face above.
func cornerJacobian(h Hex) float64 {
	e1 := geom.Sub(h.Nodes[1], h.Nodes[0])
	e2 := geom.Sub(h.Nodes[3], h.Nodes[0])
	e3 := geom.Sub(h.Nodes[4], h.Nodes[0])
	j := mat.NewDense(3, 3, []float64{
		e1.X, e2.X, e3.X,
		e1.Y, e2.Y, e3.Y,
		e1.Z, e2.Z, e3.Z,
	})
	return mat.Det(j)
}
