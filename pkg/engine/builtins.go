package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/chazu/csysgen/pkg/geom"
	"github.com/chazu/csysgen/pkg/kernel"
	"github.com/chazu/csysgen/pkg/mesher"
	"github.com/chazu/csysgen/pkg/model"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

type sexpVec3 struct {
	vec geom.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpNode is a node waiting to be placed into a part by defpart.
type sexpNode struct {
	node model.Node
}

func (n *sexpNode) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(node %d %g %g %g)", n.node.Label, n.node.Pos.X, n.node.Pos.Y, n.node.Pos.Z)
}
func (n *sexpNode) Type() *zygo.RegisteredType { return nil }

// sexpHex is an element waiting to be placed into a part by defpart.
type sexpHex struct {
	elem model.Element
}

func (h *sexpHex) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(hex %d %v :type %q)", h.elem.Label, h.elem.Connectivity, h.elem.Type)
}
func (h *sexpHex) Type() *zygo.RegisteredType { return nil }

// sexpSolid wraps a kernel solid built by box, cylinder and the boolean ops.
type sexpSolid struct {
	solid kernel.Solid
	desc  string
}

func (s *sexpSolid) SexpString(ps *zygo.PrintState) string {
	return "(" + s.desc + ")"
}
func (s *sexpSolid) Type() *zygo.RegisteredType { return nil }

// sexpMesh is a meshed solid plus the placement applied when it joins a part.
type sexpMesh struct {
	mesh      *kernel.HexMesh
	elemType  string
	placement mesher.Placement
}

func (m *sexpMesh) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(hexmesh %d elements)", m.mesh.ElementCount())
}
func (m *sexpMesh) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// isKW reports whether s is a preprocessed keyword and returns its name.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toPositive extracts a finite number greater than zero.
func toPositive(s zygo.Sexp) (float64, error) {
	f, err := toFloat64(s)
	if err != nil {
		return 0, err
	}
	if !(f > 0) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("expected a positive number, got %g", f)
	}
	return f, nil
}

// toLabel extracts a positive integer label.
func toLabel(s zygo.Sexp) (int, error) {
	v, ok := s.(*zygo.SexpInt)
	if !ok {
		return 0, fmt.Errorf("expected integer label, got %T (%s)", s, s.SexpString(nil))
	}
	if v.Val <= 0 {
		return 0, fmt.Errorf("labels must be positive, got %d", v.Val)
	}
	return int(v.Val), nil
}

func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString accepts both :keyword and "string".
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	return strings.TrimPrefix(str.S, kwPrefix), nil
}

func toVec3(s zygo.Sexp) (geom.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return geom.Vec3{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

func toSolid(s zygo.Sexp) (kernel.Solid, error) {
	if v, ok := s.(*sexpSolid); ok {
		return v.solid, nil
	}
	return nil, fmt.Errorf("expected solid, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a list or array to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

func isSequence(s zygo.Sexp) bool {
	switch s.(type) {
	case *zygo.SexpPair, *zygo.SexpArray:
		return true
	}
	return s == zygo.SexpNull
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// builder holds the model being populated during one evaluation.
type builder struct {
	model  *model.Model
	kernel kernel.Kernel
}

// registerBuiltins installs the mesh-description builtins into env.
// Source must go through preprocessSource first so keywords are recognizable.
func registerBuiltins(env *zygo.Zlisp, b *builder) {
	env.AddFunction("vec3", b.vec3)
	env.AddFunction("node", b.node)
	env.AddFunction("hex", b.hex)
	env.AddFunction("box", b.box)
	env.AddFunction("cylinder", b.cylinder)
	env.AddFunction("union", b.boolean("union", b.kernel.Union))
	env.AddFunction("difference", b.boolean("difference", b.kernel.Difference))
	env.AddFunction("intersection", b.boolean("intersection", b.kernel.Intersection))
	env.AddFunction("translate", b.transform("translate", b.kernel.Translate))
	env.AddFunction("rotate", b.transform("rotate", b.kernel.Rotate))
	env.AddFunction("hexmesh", b.hexmesh)
	env.AddFunction("defpart", b.defpart)
	env.AddFunction("units", b.units)
}

// (vec3 1 2 3)
func (b *builder) vec3(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 3 {
		return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
	}
	var c [3]float64
	for i, axis := range []string{"x", "y", "z"} {
		f, err := toFloat64(args[i])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: %s: %w", axis, err)
		}
		c[i] = f
	}
	return &sexpVec3{vec: geom.FromArray(c)}, nil
}

// (node 1 0 0 0) or (node 1 (vec3 0 0 0))
func (b *builder) node(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 2 && len(args) != 4 {
		return zygo.SexpNull, fmt.Errorf("node requires a label and a position, got %d arguments", len(args))
	}
	label, err := toLabel(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("node: label: %w", err)
	}

	var pos geom.Point
	if len(args) == 2 {
		pos, err = toVec3(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("node %d: position: %w", label, err)
		}
	} else {
		v, err := b.vec3(env, "vec3", args[1:])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("node %d: %w", label, err)
		}
		pos = v.(*sexpVec3).vec
	}
	return &sexpNode{node: model.Node{Label: label, Pos: pos}}, nil
}

// (hex 1 1 2 3 4 5 6 7 8 :type "C3D8") or (hex 1 (list 1 2 3 4 5 6 7 8))
func (b *builder) hex(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	if len(pa.positional) < 2 {
		return zygo.SexpNull, fmt.Errorf("hex requires a label and node labels")
	}
	label, err := toLabel(pa.positional[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("hex: label: %w", err)
	}

	refs := pa.positional[1:]
	if len(refs) == 1 && isSequence(refs[0]) {
		if refs, err = sexpListToSlice(refs[0]); err != nil {
			return zygo.SexpNull, fmt.Errorf("hex %d: nodes: %w", label, err)
		}
	}
	elem := model.Element{Label: label, Type: model.DefaultElementType}
	for i, r := range refs {
		n, err := toLabel(r)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("hex %d: node %d: %w", label, i+1, err)
		}
		elem.Connectivity = append(elem.Connectivity, n)
	}

	if v, ok := pa.kw["type"]; ok {
		t, err := toKeywordString(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("hex %d: type: %w", label, err)
		}
		elem.Type = strings.ToUpper(t)
	}
	return &sexpHex{elem: elem}, nil
}

// (box :size (vec3 10 5 2)) or (box 10 5 2)
func (b *builder) box(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)

	var dims [3]float64
	switch {
	case pa.kw["size"] != nil:
		v, err := toVec3(pa.kw["size"])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("box: size: %w", err)
		}
		dims = v.Array()
	case len(pa.positional) == 3:
		for i, a := range pa.positional {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("box: dimension %d: %w", i+1, err)
			}
			dims[i] = f
		}
	default:
		return zygo.SexpNull, fmt.Errorf("box requires :size (vec3 x y z) or three dimensions")
	}
	for i, d := range dims {
		if !(d > 0) || math.IsInf(d, 0) {
			return zygo.SexpNull, fmt.Errorf("box: dimension %d must be positive, got %g", i+1, d)
		}
	}

	return &sexpSolid{
		solid: b.kernel.Box(dims[0], dims[1], dims[2]),
		desc:  fmt.Sprintf("box %gx%gx%g", dims[0], dims[1], dims[2]),
	}, nil
}

// (cylinder :height 10 :radius 3)
func (b *builder) cylinder(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	hv, ok := pa.kw["height"]
	if !ok {
		return zygo.SexpNull, fmt.Errorf("cylinder requires :height")
	}
	rv, ok := pa.kw["radius"]
	if !ok {
		return zygo.SexpNull, fmt.Errorf("cylinder requires :radius")
	}
	h, err := toPositive(hv)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("cylinder: height: %w", err)
	}
	r, err := toPositive(rv)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("cylinder: radius: %w", err)
	}
	return &sexpSolid{
		solid: b.kernel.Cylinder(h, r),
		desc:  fmt.Sprintf("cylinder h=%g r=%g", h, r),
	}, nil
}

// boolean returns a builtin folding op over two or more solids:
// (union a b c) is (union (union a b) c).
func (b *builder) boolean(op string, fn func(a, b kernel.Solid) kernel.Solid) zygo.ZlispUserFunction {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 2 {
			return zygo.SexpNull, fmt.Errorf("%s requires at least two solids, got %d", op, len(args))
		}
		acc, err := toSolid(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: operand 1: %w", op, err)
		}
		for i, a := range args[1:] {
			s, err := toSolid(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: operand %d: %w", op, i+2, err)
			}
			acc = fn(acc, s)
		}
		return &sexpSolid{solid: acc, desc: op}, nil
	}
}

// transform returns a builtin such as (translate s (vec3 1 0 0)) or
// (rotate s (vec3 0 0 90)).
func (b *builder) transform(op string, fn func(s kernel.Solid, x, y, z float64) kernel.Solid) zygo.ZlispUserFunction {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("%s requires a solid and a vec3", op)
		}
		s, err := toSolid(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %w", op, err)
		}
		v, err := toVec3(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %w", op, err)
		}
		return &sexpSolid{solid: fn(s, v.X, v.Y, v.Z), desc: op}, nil
	}
}

// (hexmesh solid :cell 1 :at (vec3 0 0 10) :rotate (vec3 0 90 0) :type "C3D8")
func (b *builder) hexmesh(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	if len(pa.positional) != 1 {
		return zygo.SexpNull, fmt.Errorf("hexmesh requires exactly one solid")
	}
	s, err := toSolid(pa.positional[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("hexmesh: %w", err)
	}
	cv, ok := pa.kw["cell"]
	if !ok {
		return zygo.SexpNull, fmt.Errorf("hexmesh requires :cell")
	}
	cell, err := toPositive(cv)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("hexmesh: cell: %w", err)
	}

	m := &sexpMesh{elemType: model.DefaultElementType}
	if v, ok := pa.kw["at"]; ok {
		at, err := toVec3(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("hexmesh: at: %w", err)
		}
		m.placement.Translation = &at
	}
	if v, ok := pa.kw["rotate"]; ok {
		rot, err := toVec3(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("hexmesh: rotate: %w", err)
		}
		m.placement.Rotation = &rot
	}
	if v, ok := pa.kw["type"]; ok {
		t, err := toKeywordString(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("hexmesh: type: %w", err)
		}
		m.elemType = strings.ToUpper(t)
	}

	m.mesh, err = b.kernel.ToHexMesh(s, cell)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("hexmesh: %w", err)
	}
	if m.mesh.IsEmpty() {
		return zygo.SexpNull, fmt.Errorf("hexmesh: solid produced no cells at cell size %g", cell)
	}
	return m, nil
}

// (defpart "Plate" (node ...) (hex ...) (hexmesh ...) (list ...))
//
// Items are added in order. Meshed solids are labelled after the largest
// node and element labels present when they are reached.
func (b *builder) defpart(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) < 2 {
		return zygo.SexpNull, fmt.Errorf("defpart requires a name and at least one item")
	}
	partName, err := toString(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("defpart: name: %w", err)
	}
	if strings.TrimSpace(partName) == "" {
		return zygo.SexpNull, fmt.Errorf("defpart: name must not be empty")
	}
	if b.model.Lookup(partName) != nil {
		return zygo.SexpNull, fmt.Errorf("defpart: part %q already defined", partName)
	}

	part := model.NewPart(partName)
	if err := b.addItems(part, args[1:]); err != nil {
		return zygo.SexpNull, fmt.Errorf("defpart %q: %w", partName, err)
	}
	b.model.AddPart(part)

	return &zygo.SexpStr{S: partName}, nil
}

func (b *builder) addItems(part *model.Part, items []zygo.Sexp) error {
	for _, item := range items {
		switch v := item.(type) {
		case *sexpNode:
			part.AddNode(v.node)
		case *sexpHex:
			part.AddElement(v.elem)
		case *sexpMesh:
			ts := mesher.NewTransformStack()
			ts.Push(v.placement)
			if _, err := mesher.Append(part, v.mesh, v.elemType, ts); err != nil {
				return err
			}
		default:
			if !isSequence(item) {
				return fmt.Errorf("expected node, hex, hexmesh or list, got %T (%s)", item, item.SexpString(nil))
			}
			nested, err := sexpListToSlice(item)
			if err != nil {
				return err
			}
			if err := b.addItems(part, nested); err != nil {
				return err
			}
		}
	}
	return nil
}

// (units "mm") or (units :m)
func (b *builder) units(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 1 {
		return zygo.SexpNull, fmt.Errorf("units requires exactly one argument")
	}
	u, err := toKeywordString(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("units: %w", err)
	}
	b.model.Units = u
	return &zygo.SexpStr{S: u}, nil
}
