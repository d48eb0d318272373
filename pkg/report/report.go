// Package report summarizes orientation results per part.
package report

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/chazu/csysgen/pkg/csys"
	"github.com/chazu/csysgen/pkg/geom"
	"github.com/chazu/csysgen/pkg/orient"
)

// Summary is the audit of one part. Angles are between each element's Ax
// and the global X axis, in degrees.
type Summary struct {
	Part        string    `json:"part"`
	Elements    int       `json:"elements"`
	Processed   int       `json:"processed"`
	Frames      int       `json:"frames"`
	Failures    int       `json:"failures"`
	Fallbacks   int       `json:"fallbacks"`
	RightHanded int       `json:"rightHanded"`
	AngleMean   float64   `json:"angleMean"`
	AngleStdDev float64   `json:"angleStdDev"`
	AngleMin    float64   `json:"angleMin"`
	AngleMax    float64   `json:"angleMax"`
	Angles      []float64 `json:"-"`
}

// Summarize computes the audit of res.
func Summarize(res orient.Result) Summary {
	s := Summary{
		Part:      res.Part,
		Elements:  res.Total,
		Processed: res.Processed,
		Frames:    len(res.Records),
		Failures:  len(res.Failures),
	}
	if len(res.Records) == 0 {
		return s
	}

	s.Angles = make([]float64, len(res.Records))
	for i, r := range res.Records {
		f := r.Frame
		if f.Fallback {
			s.Fallbacks++
		}
		if Handedness(f) > 0 {
			s.RightHanded++
		}
		s.Angles[i] = AngleToX(f.Ax)
	}

	s.AngleMean = stat.Mean(s.Angles, nil)
	if len(s.Angles) > 1 {
		s.AngleStdDev = stat.StdDev(s.Angles, nil)
	}
	s.AngleMin = floats.Min(s.Angles)
	s.AngleMax = floats.Max(s.Angles)
	return s
}

// Handedness returns the determinant of the matrix whose columns are
// Ax, Ay and Az: +1 for a right-handed orthonormal frame.
func Handedness(f csys.Frame) float64 {
	m := mat.NewDense(3, 3, nil)
	for col, a := range []csys.Axis{csys.AxisX, csys.AxisY, csys.AxisZ} {
		v := f.Axis(a)
		m.SetCol(col, []float64{v.X, v.Y, v.Z})
	}
	return mat.Det(m)
}

// AngleToX returns the angle between v and the global X axis in degrees.
func AngleToX(v geom.Vec3) float64 {
	n := geom.Norm(v)
	if n == 0 {
		return 0
	}
	c := geom.Dot(v, geom.UnitX) / n
	c = math.Max(-1, math.Min(1, c))
	return math.Acos(c) * 180 / math.Pi
}

// Write prints summaries as an aligned table.
func Write(w io.Writer, sums []Summary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PART\tELEMENTS\tFRAMES\tFAILED\tFALLBACK\tRIGHT-HANDED\tAX-X MEAN\tAX-X SD\tAX-X MIN\tAX-X MAX")
	for _, s := range sums {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%.2f\t%.2f\t%.2f\t%.2f\n",
			s.Part, s.Elements, s.Frames, s.Failures, s.Fallbacks, s.RightHanded,
			s.AngleMean, s.AngleStdDev, s.AngleMin, s.AngleMax)
	}
	return tw.Flush()
}
