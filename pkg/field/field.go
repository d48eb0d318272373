// Package field turns per-part frame results into discrete orientation
// field requests and writes them out.
//
// A Request bundles the two host objects a part needs: a DiscreteField that
// stores Ax and Ay per element, and a MaterialOrientation that assigns the
// field to the part. Sinks decide where requests go.
package field

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chazu/csysgen/pkg/orient"
)

// DataWidth is the number of values stored per element: Ax then Ay.
const DataWidth = 6

// DefaultPrefix is prepended to the part name to form the field name.
const DefaultPrefix = "DiscField_"

// DefaultValues applies to elements without an entry: the global X and Y
// axes.
var DefaultValues = [DataWidth]float64{1, 0, 0, 0, 1, 0}

// Host enumeration values.
const (
	LocationElements     = "ELEMENTS"
	FieldTypeOrientation = "ORIENTATION"
	OrientationCartesian = "CARTESIAN"
	OrientationField     = "FIELD"
	Axis1                = "AXIS_1"
	RotationNone         = "ROTATION_NONE"
	StackDirection3      = "STACK_3"
)

// ErrFailedResult is returned by NewRequest for a failed result when
// partial output was not allowed.
var ErrFailedResult = errors.New("field: result has failed elements")

// ErrNoFrames is returned by NewRequest when a result has no records.
var ErrNoFrames = errors.New("field: result has no frames")

// DiscreteField is an element-located orientation field.
type DiscreteField struct {
	Name            string               `json:"name" yaml:"name"`
	Description     string               `json:"description" yaml:"description"`
	Location        string               `json:"location" yaml:"location"`
	FieldType       string               `json:"fieldType" yaml:"field_type"`
	OrientationType string               `json:"orientationType" yaml:"orientation_type"`
	PartLevel       bool                 `json:"partLevel" yaml:"part_level"`
	DataWidth       int                  `json:"dataWidth" yaml:"data_width"`
	DefaultValues   [DataWidth]float64   `json:"defaultValues" yaml:"default_values"`
	Labels          []int                `json:"labels" yaml:"labels"`
	Values          [][DataWidth]float64 `json:"values" yaml:"values"`
}

// Len returns the number of element entries.
func (f DiscreteField) Len() int {
	return len(f.Labels)
}

// MaterialOrientation assigns a discrete field to a part.
type MaterialOrientation struct {
	Part               string  `json:"part" yaml:"part"`
	FieldName          string  `json:"fieldName" yaml:"field_name"`
	OrientationType    string  `json:"orientationType" yaml:"orientation_type"`
	Axis               string  `json:"axis" yaml:"axis"`
	AdditionalRotation string  `json:"additionalRotation" yaml:"additional_rotation"`
	Angle              float64 `json:"angle" yaml:"angle"`
	StackDirection     string  `json:"stackDirection" yaml:"stack_direction"`
}

// Request is everything needed to publish one part's orientation field.
// Partial is set when failed elements were left out; those elements fall
// back to DefaultValues and are listed in Skipped.
type Request struct {
	Part        string              `json:"part" yaml:"part"`
	Field       DiscreteField       `json:"field" yaml:"field"`
	Orientation MaterialOrientation `json:"orientation" yaml:"orientation"`
	Partial     bool                `json:"partial,omitempty" yaml:"partial,omitempty"`
	Skipped     []int               `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// Options control request construction.
type Options struct {
	Prefix       string // defaults to DefaultPrefix
	Description  string
	AllowPartial bool
}

// Name returns the field name for part.
func Name(prefix, part string) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return prefix + part
}

// NewRequest builds the request for a part result. A failed result is
// refused unless opts.AllowPartial is set; only validated frames are ever
// emitted.
func NewRequest(res orient.Result, opts Options) (Request, error) {
	if !res.OK && !opts.AllowPartial {
		return Request{}, fmt.Errorf("%w: %v", ErrFailedResult, res.Err())
	}
	if len(res.Records) == 0 {
		return Request{}, fmt.Errorf("%w: part %s", ErrNoFrames, res.Part)
	}

	name := Name(opts.Prefix, res.Part)
	df := DiscreteField{
		Name:            name,
		Description:     opts.Description,
		Location:        LocationElements,
		FieldType:       FieldTypeOrientation,
		OrientationType: OrientationCartesian,
		PartLevel:       true,
		DataWidth:       DataWidth,
		DefaultValues:   DefaultValues,
		Labels:          make([]int, 0, len(res.Records)),
		Values:          make([][DataWidth]float64, 0, len(res.Records)),
	}
	for _, r := range res.Records {
		df.Labels = append(df.Labels, r.Element)
		df.Values = append(df.Values, r.Values())
	}

	req := Request{
		Part:  res.Part,
		Field: df,
		Orientation: MaterialOrientation{
			Part:               res.Part,
			FieldName:          name,
			OrientationType:    OrientationField,
			Axis:               Axis1,
			AdditionalRotation: RotationNone,
			StackDirection:     StackDirection3,
		},
	}
	if !res.OK {
		req.Partial = true
		for _, f := range res.Failures {
			req.Skipped = append(req.Skipped, f.Element)
		}
	}
	return req, nil
}

// Validate checks the internal consistency of a request, e.g. one read
// back from storage.
func (r Request) Validate() error {
	var problems []string
	if r.Field.Name == "" {
		problems = append(problems, "field name is empty")
	}
	if r.Field.DataWidth != DataWidth {
		problems = append(problems, fmt.Sprintf("data width %d, want %d", r.Field.DataWidth, DataWidth))
	}
	if len(r.Field.Labels) != len(r.Field.Values) {
		problems = append(problems, fmt.Sprintf("%d labels but %d value rows", len(r.Field.Labels), len(r.Field.Values)))
	}
	if r.Orientation.FieldName != r.Field.Name {
		problems = append(problems, fmt.Sprintf("orientation references %q, field is %q", r.Orientation.FieldName, r.Field.Name))
	}
	seen := make(map[int]bool, len(r.Field.Labels))
	for _, l := range r.Field.Labels {
		if seen[l] {
			problems = append(problems, fmt.Sprintf("duplicate element %d", l))
		}
		seen[l] = true
	}
	if len(problems) > 0 {
		return fmt.Errorf("field %s: %s", r.Field.Name, strings.Join(problems, "; "))
	}
	return nil
}

// Sink receives field requests.
type Sink interface {
	Publish(ctx context.Context, req Request) error
}

// Multi publishes to every sink in order and stops at the first error.
type Multi []Sink

// Publish implements Sink.
func (m Multi) Publish(ctx context.Context, req Request) error {
	for _, s := range m {
		if err := s.Publish(ctx, req); err != nil {
			return err
		}
	}
	return nil
}
