package csys

import (
	"errors"
	"strings"
	"testing"

	"github.com/chazu/csysgen/pkg/geom"
)

func TestCheckValidFrame(t *testing.T) {
	f := Frame{Ax: geom.UnitX, Ay: geom.UnitY, Az: geom.UnitZ}
	if issues := Check(f); len(issues) != 0 {
		t.Errorf("Check = %v, want none", issues)
	}
	if !Validate(f) {
		t.Error("Validate = false, want true")
	}
}

func TestCheckFailures(t *testing.T) {
	tests := []struct {
		name  string
		frame Frame
		want  []Issue
	}{
		{
			name:  "Ax too long",
			frame: Frame{Ax: geom.Vec3{X: 1.001}, Ay: geom.UnitY, Az: geom.UnitZ},
			want:  []Issue{{Kind: NormNotUnit, Axis: AxisX}},
		},
		{
			name:  "Az zero",
			frame: Frame{Ax: geom.UnitX, Ay: geom.UnitY},
			want:  []Issue{{Kind: NormNotUnit, Axis: AxisZ}},
		},
		{
			name:  "Ay leaning toward Ax",
			frame: Frame{Ax: geom.UnitX, Ay: geom.Vec3{X: 0.6, Y: 0.8}, Az: geom.UnitZ},
			want:  []Issue{{Kind: NotOrthogonal, Pair: PairXY}},
		},
		{
			name:  "all axes equal",
			frame: Frame{Ax: geom.UnitX, Ay: geom.UnitX, Az: geom.UnitX},
			want: []Issue{
				{Kind: NotOrthogonal, Pair: PairXY},
				{Kind: NotOrthogonal, Pair: PairXZ},
				{Kind: NotOrthogonal, Pair: PairYZ},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Check(tt.frame)
			if len(got) != len(tt.want) {
				t.Fatalf("Check = %v, want %d issues", got, len(tt.want))
			}
			for i := range got {
				if got[i].Kind != tt.want[i].Kind || got[i].Axis != tt.want[i].Axis || got[i].Pair != tt.want[i].Pair {
					t.Errorf("issue %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
			if Validate(tt.frame) {
				t.Error("Validate = true, want false")
			}
		})
	}
}

func TestCheckRoundingBoundaries(t *testing.T) {
	tests := []struct {
		name  string
		frame Frame
		valid bool
	}{
		{"norm rounds to one", Frame{Ax: geom.Vec3{X: 1.000004}, Ay: geom.UnitY, Az: geom.UnitZ}, true},
		{"norm rounds away from one", Frame{Ax: geom.Vec3{X: 1.00002}, Ay: geom.UnitY, Az: geom.UnitZ}, false},
		{"dot below tolerance", Frame{Ax: geom.UnitX, Ay: geom.Vec3{X: 0.00008, Y: 1}, Az: geom.UnitZ}, true},
		{"dot at tolerance", Frame{Ax: geom.UnitX, Ay: geom.Vec3{X: 0.0001, Y: 1}, Az: geom.UnitZ}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Validate(tt.frame); got != tt.valid {
				t.Errorf("Validate = %v, want %v (issues %v)", got, tt.valid, Check(tt.frame))
			}
		})
	}
}

func TestValidationErrorMessage(t *testing.T) {
	f := Frame{Ax: geom.UnitX, Ay: geom.UnitX, Az: geom.Vec3{Z: 2}}
	err := error(&ValidationError{Issues: Check(f)})
	msg := err.Error()
	for _, want := range []string{"Az norm", "Ax/Ay are not orthogonal"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q missing %q", msg, want)
		}
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatal("errors.As failed")
	}
}

func TestAxisAndKindStrings(t *testing.T) {
	if AxisY.String() != "Ay" || PairYZ.String() != "Ay/Az" {
		t.Errorf("unexpected names %s %s", AxisY, PairYZ)
	}
	if NotOrthogonal.String() != "not-orthogonal" || NormNotUnit.String() != "norm-not-unit" {
		t.Error("unexpected kind names")
	}
}
