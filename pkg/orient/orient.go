// Package orient derives one local coordinate system per hexahedral element
// of a part and collects the results in element order.
//
// The outcome of a run is an explicit Result value: the records that were
// produced, whether the run succeeded, and the per-element diagnostics.
package orient

import (
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/chazu/csysgen/pkg/csys"
	"github.com/chazu/csysgen/pkg/model"
)

// Policy decides what happens after an element fails.
type Policy int

const (
	// HaltOnFailure stops at the first failing element in element order.
	HaltOnFailure Policy = iota
	// ContinueOnFailure skips failing elements and reports all of them.
	ContinueOnFailure
)

func (p Policy) String() string {
	switch p {
	case HaltOnFailure:
		return "halt"
	case ContinueOnFailure:
		return "continue"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy converts "halt" or "continue" to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "halt", "stop":
		return HaltOnFailure, nil
	case "continue", "skip":
		return ContinueOnFailure, nil
	}
	return 0, fmt.Errorf("invalid policy %q, expected halt or continue", s)
}

// Options configure an aggregation run.
type Options struct {
	Policy  Policy
	Workers int             // <= 1 runs sequentially
	Corners model.CornerMap // zero value means model.C3D8Corners
}

func (o Options) corners() model.CornerMap {
	if o.Corners == (model.CornerMap{}) {
		return model.C3D8Corners
	}
	return o.Corners
}

// Record pairs an element label with its validated frame.
type Record struct {
	Element int        `json:"element"`
	Frame   csys.Frame `json:"frame"`
}

// Values returns Ax followed by Ay.
func (r Record) Values() [6]float64 {
	return r.Frame.Values()
}

// Failure is a diagnostic for one element. Element is 0 for failures that
// concern the whole part, such as an invalid corner map.
type Failure struct {
	Element int
	Err     error
}

func (f Failure) String() string {
	if f.Element == 0 {
		return f.Err.Error()
	}
	return fmt.Sprintf("element %d: %v", f.Element, f.Err)
}

// Result is the outcome of aggregating one part.
type Result struct {
	Part      string
	Records   []Record
	OK        bool
	Failures  []Failure
	Processed int // elements examined, including failures
	Total     int // elements in the input
	Policy    Policy
}

// Err returns an *AggregateFailure when the run failed, nil otherwise.
func (r Result) Err() error {
	if r.OK {
		return nil
	}
	return &AggregateFailure{Part: r.Part, Policy: r.Policy, Failures: r.Failures}
}

// AggregateFailure reports the failing elements of a part.
type AggregateFailure struct {
	Part     string
	Policy   Policy
	Failures []Failure
}

func (e *AggregateFailure) Error() string {
	lines := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		lines[i] = f.String()
	}
	return fmt.Sprintf("part %s: %d element(s) failed: %s", e.Part, len(e.Failures), strings.Join(lines, "; "))
}

// outcome is the per-element result of a frame computation.
type outcome struct {
	frame csys.Frame
	err   error
}

// Aggregate computes frames for the hexahedra of a part, in order.
// Elements that cannot be resolved to hexahedra fail like elements whose
// frame is degenerate or invalid.
func Aggregate(p *model.Part, opts Options) Result {
	hexes := make([]model.Hex, len(p.Elements))
	resolveErrs := make([]error, len(p.Elements))
	for i, e := range p.Elements {
		hexes[i], resolveErrs[i] = p.Hex(e)
		hexes[i].Label = e.Label
	}
	return aggregate(p.Name, hexes, resolveErrs, opts)
}

// AggregateHexes computes frames for already-resolved hexahedra.
func AggregateHexes(part string, hexes []model.Hex, opts Options) Result {
	return aggregate(part, hexes, nil, opts)
}

func aggregate(part string, hexes []model.Hex, resolveErrs []error, opts Options) Result {
	res := Result{Part: part, Total: len(hexes), Policy: opts.Policy}

	corners := opts.corners()
	if err := corners.Validate(); err != nil {
		res.Failures = []Failure{{Err: err}}
		return res
	}

	build := func(i int) outcome {
		if resolveErrs != nil && resolveErrs[i] != nil {
			return outcome{err: resolveErrs[i]}
		}
		f, err := csys.Build(corners.Corners(hexes[i].Nodes))
		return outcome{frame: f, err: err}
	}

	var outcomes []outcome
	if opts.Workers > 1 {
		outcomes = buildParallel(len(hexes), opts.Workers, build)
	} else {
		outcomes = make([]outcome, 0, len(hexes))
		for i := range hexes {
			o := build(i)
			outcomes = append(outcomes, o)
			if o.err != nil && opts.Policy == HaltOnFailure {
				break
			}
		}
	}

	// Scan in element order so both paths agree on which records precede
	// the first failure.
	for i, o := range outcomes {
		res.Processed++
		if o.err != nil {
			res.Failures = append(res.Failures, Failure{Element: hexes[i].Label, Err: o.err})
			if opts.Policy == HaltOnFailure {
				break
			}
			continue
		}
		res.Records = append(res.Records, Record{Element: hexes[i].Label, Frame: o.frame})
	}

	res.OK = len(res.Failures) == 0
	return res
}

// buildParallel computes every outcome with at most workers goroutines.
// Each index is written by exactly one goroutine.
func buildParallel(n, workers int, build func(int) outcome) []outcome {
	outcomes := make([]outcome, n)
	var g errgroup.Group
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			outcomes[i] = build(i)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}
