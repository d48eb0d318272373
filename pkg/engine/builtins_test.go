package engine

import (
	"strings"
	"testing"

	"github.com/chazu/csysgen/pkg/model"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(cylinder :height 10)`,
			expect: `(cylinder "__kw_height" 10)`,
		},
		{
			name:   "multiple keywords",
			input:  `(hexmesh s :cell 1 :type "C3D8")`,
			expect: `(hexmesh s "__kw_cell" 1 "__kw_type" "C3D8")`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "escaped quote inside string",
			input:  `"a \" :b"`,
			expect: `"a \" :b"`,
		},
		{
			name:   "backtick string preserved",
			input:  "`raw :kw a-b`",
			expect: "`raw :kw a-b`",
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(cell-size :at ref)`,
			expect: `(cell_size "__kw_at" ref)`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "negative literal preserved",
			input:  `(vec3 -5 0 1e-3)`,
			expect: `(vec3 -5 0 1e-3)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "single semicolon comment",
			input:  `; simple comment`,
			expect: `// simple comment`,
		},
		{
			name:   "keyword with digits",
			input:  `:C3D8R`,
			expect: `"__kw_C3D8R"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// evalOK evaluates source and fails the test on any error.
func evalOK(t *testing.T, source string) *model.Model {
	t.Helper()
	m, evalErrs, err := NewEngine(nil).Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if m == nil {
		t.Fatal("expected non-nil model")
	}
	return m
}

const unitCube = `
(defpart "Block"
  (node 1 0 0 0) (node 2 1 0 0) (node 3 1 1 0) (node 4 0 1 0)
  (node 5 0 0 1) (node 6 1 0 1) (node 7 1 1 1) (node 8 0 1 1)
  (hex 1 1 2 3 4 5 6 7 8))
`

// ---------------------------------------------------------------------------
// Explicit nodes and hexes
// ---------------------------------------------------------------------------

func TestExplicitHexPart(t *testing.T) {
	m := evalOK(t, unitCube)

	block := m.Lookup("Block")
	if block == nil {
		t.Fatal("expected part named 'Block'")
	}
	if len(block.Nodes) != 8 {
		t.Errorf("expected 8 nodes, got %d", len(block.Nodes))
	}
	if len(block.Elements) != 1 {
		t.Fatalf("expected 1 element, got %d", len(block.Elements))
	}
	e := block.Elements[0]
	if e.Type != model.DefaultElementType {
		t.Errorf("expected type %s, got %s", model.DefaultElementType, e.Type)
	}
	if got := block.Nodes[7].Pos; got.X != 1 || got.Y != 1 || got.Z != 1 {
		t.Errorf("node 7 = %v, want (1,1,1)", got)
	}
	if errs := model.Validate(m); len(errs) != 0 {
		t.Errorf("unexpected validation errors: %v", errs)
	}
}

func TestHexListFormAndType(t *testing.T) {
	m := evalOK(t, `
(defpart "P"
  (node 1 (vec3 0 0 0)) (node 2 (vec3 2 0 0)) (node 3 (vec3 2 2 0)) (node 4 (vec3 0 2 0))
  (node 5 (vec3 0 0 2)) (node 6 (vec3 2 0 2)) (node 7 (vec3 2 2 2)) (node 8 (vec3 0 2 2))
  (hex 10 (list 1 2 3 4 5 6 7 8) :type :c3d8i)
  (hex 11 [1 2 3 4 5 6 7 8] :type "C3D8"))
`)
	p := m.Lookup("P")
	if p == nil || len(p.Elements) != 2 {
		t.Fatalf("expected part P with 2 elements, got %+v", p)
	}
	if p.Elements[0].Label != 10 || p.Elements[0].Type != "C3D8I" {
		t.Errorf("first element = %+v", p.Elements[0])
	}
	if p.Elements[1].Type != "C3D8" || len(p.Elements[1].Connectivity) != 8 {
		t.Errorf("second element = %+v", p.Elements[1])
	}
}

func TestVariableReference(t *testing.T) {
	m := evalOK(t, `
(def s 4)
(defpart "V"
  (node 1 0 0 0) (node 2 s 0 0))
`)
	p := m.Lookup("V")
	if p == nil {
		t.Fatal("expected part V")
	}
	if got := p.Nodes[2].Pos.X; got != 4 {
		t.Errorf("node 2 x = %g, want 4", got)
	}
}

func TestListItemsAreFlattened(t *testing.T) {
	m := evalOK(t, `
(defpart "L"
  (list (node 1 0 0 0) (list (node 2 1 0 0) (node 3 1 1 0)))
  [(node 4 0 1 0)])
`)
	if got := len(m.Lookup("L").Nodes); got != 4 {
		t.Errorf("expected 4 nodes, got %d", got)
	}
}

func TestPartOrderAndUnits(t *testing.T) {
	m := evalOK(t, `
(units :m)
(defpart "B" (node 1 0 0 0))
(defpart "A" (node 1 0 0 0))
`)
	if m.Units != "m" {
		t.Errorf("units = %q, want m", m.Units)
	}
	if len(m.Order) != 2 || m.Order[0] != "B" || m.Order[1] != "A" {
		t.Errorf("part order = %v, want [B A]", m.Order)
	}
}

// ---------------------------------------------------------------------------
// Solids and meshing
// ---------------------------------------------------------------------------

func TestHexmeshBox(t *testing.T) {
	m := evalOK(t, `(defpart "Plate" (hexmesh (box :size (vec3 3 2 1)) :cell 1))`)
	p := m.Lookup("Plate")
	if p == nil {
		t.Fatal("expected part Plate")
	}
	if len(p.Elements) != 6 {
		t.Errorf("expected 6 elements, got %d", len(p.Elements))
	}
	if len(p.Nodes) != 24 {
		t.Errorf("expected 24 nodes, got %d", len(p.Nodes))
	}
	if errs := model.ValidatePart(p); len(errs) != 0 {
		t.Errorf("unexpected validation errors: %v", errs)
	}
}

func TestHexmeshLabelsFollowExplicitItems(t *testing.T) {
	m := evalOK(t, `
(defpart "Mixed"
  (node 1 0 0 0) (node 2 1 0 0) (node 3 1 1 0) (node 4 0 1 0)
  (node 5 0 0 1) (node 6 1 0 1) (node 7 1 1 1) (node 8 0 1 1)
  (hex 1 1 2 3 4 5 6 7 8)
  (hexmesh (box 1 1 1) :cell 1 :at (vec3 5 0 0) :type "C3D8"))
`)
	p := m.Lookup("Mixed")
	if len(p.Elements) != 2 {
		t.Fatalf("expected 2 elements, got %d", len(p.Elements))
	}
	meshed := p.Elements[1]
	if meshed.Label != 2 || meshed.Type != "C3D8" {
		t.Errorf("meshed element = %+v", meshed)
	}
	if meshed.Connectivity[0] != 9 {
		t.Errorf("meshed connectivity starts at %d, want 9", meshed.Connectivity[0])
	}
	if got := p.Nodes[9].Pos.X; got != 5 {
		t.Errorf("translated node x = %g, want 5", got)
	}
}

func TestBooleanSolids(t *testing.T) {
	m := evalOK(t, `
(def plate (box 10 10 2))
(def hole (translate (cylinder :height 10 :radius 3) (vec3 5 5 1)))
(defpart "Full" (hexmesh plate :cell 1))
(defpart "Holed" (hexmesh (difference plate hole) :cell 1))
(defpart "Joined" (hexmesh (union (box 2 1 1) (translate (box 2 1 1) (vec3 1 0 0))) :cell 1))
(defpart "Common" (hexmesh (intersection (box 2 1 1) (translate (box 2 1 1) (vec3 1 0 0))) :cell 1))
(defpart "Turned" (hexmesh (rotate (box 4 1 1) (vec3 0 0 90)) :cell 1))
`)
	full := len(m.Lookup("Full").Elements)
	holed := len(m.Lookup("Holed").Elements)
	if holed >= full {
		t.Errorf("difference should remove cells: full=%d holed=%d", full, holed)
	}
	if got := len(m.Lookup("Joined").Elements); got != 3 {
		t.Errorf("union elements = %d, want 3", got)
	}
	if got := len(m.Lookup("Common").Elements); got != 1 {
		t.Errorf("intersection elements = %d, want 1", got)
	}
	if got := len(m.Lookup("Turned").Elements); got != 4 {
		t.Errorf("rotated box elements = %d, want 4", got)
	}
}

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

func TestBuiltinErrors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantMsg string
	}{
		{"vec3 arity", `(vec3 1 2)`, "exactly 3"},
		{"node label", `(node "a" 0 0 0)`, "integer label"},
		{"node negative label", `(node -1 0 0 0)`, "positive"},
		{"hex missing nodes", `(hex 1)`, "node labels"},
		{"box negative", `(box 1 -1 1)`, "must be positive"},
		{"box missing size", `(box)`, ":size"},
		{"cylinder missing radius", `(cylinder :height 1)`, ":radius"},
		{"union single operand", `(union (box 1 1 1))`, "at least two"},
		{"hexmesh without cell", `(hexmesh (box 1 1 1))`, ":cell"},
		{"hexmesh of vec3", `(hexmesh (vec3 1 1 1) :cell 1)`, "expected solid"},
		{"empty hexmesh", `(hexmesh (difference (box 1 1 1) (box 1 1 1)) :cell 1)`, "no cells"},
		{"defpart without items", `(defpart "X")`, "at least one item"},
		{"defpart bad item", `(defpart "X" 42)`, "expected node"},
		{"duplicate part", `(defpart "X" (node 1 0 0 0)) (defpart "X" (node 1 0 0 0))`, "already defined"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, evalErrs, err := NewEngine(nil).Evaluate(tt.source)
			if err != nil {
				t.Fatalf("fatal error: %v", err)
			}
			if m != nil {
				t.Error("expected nil model")
			}
			if len(evalErrs) == 0 {
				t.Fatal("expected eval errors")
			}
			if !strings.Contains(evalErrs[0].Message, tt.wantMsg) {
				t.Errorf("message %q does not contain %q", evalErrs[0].Message, tt.wantMsg)
			}
		})
	}
}

// Structural problems are left to model validation rather than rejected
// during evaluation.
func TestStructuralProblemsReachValidation(t *testing.T) {
	m := evalOK(t, `
(defpart "Short"
  (node 1 0 0 0) (node 2 1 0 0)
  (hex 1 1 2 3))
`)
	errs := model.Validate(m)
	if len(errs) == 0 {
		t.Fatal("expected validation errors for a 3-node hex")
	}
}

// ---------------------------------------------------------------------------
// Regressions
// ---------------------------------------------------------------------------

func TestEmptySourceStillWorks(t *testing.T) {
	m := evalOK(t, "")
	if len(m.Parts) != 0 {
		t.Errorf("expected empty model, got %d parts", len(m.Parts))
	}
}

func TestArithmeticStillWorks(t *testing.T) {
	evalOK(t, "(+ 1 2)")
}
