// Package mesher turns kernel hexahedral meshes into labelled part nodes
// and elements. Placement transforms are applied to node positions, so the
// elements themselves are rotated and their local frames follow.
package mesher

import (
	"fmt"

	"github.com/chazu/csysgen/pkg/geom"
	"github.com/chazu/csysgen/pkg/kernel"
	"github.com/chazu/csysgen/pkg/kernel/sdfx"
	"github.com/chazu/csysgen/pkg/model"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Placement positions a meshed solid: rotation (Euler degrees, X then Y
// then Z) is applied before translation.
type Placement struct {
	Translation *geom.Vec3 `json:"translation,omitempty"`
	Rotation    *geom.Vec3 `json:"rotation,omitempty"`
}

// matrix returns the homogeneous transform of the placement.
func (pl Placement) matrix() sdf.M44 {
	m := sdf.Identity3d()
	if pl.Rotation != nil {
		m = sdfx.RotationMatrix(pl.Rotation.X, pl.Rotation.Y, pl.Rotation.Z)
	}
	if pl.Translation != nil {
		m = sdf.Translate3d(v3.Vec{X: pl.Translation.X, Y: pl.Translation.Y, Z: pl.Translation.Z}).Mul(m)
	}
	return m
}

// TransformStack accumulates placements; the most recently pushed placement
// is applied first.
type TransformStack struct {
	placements []Placement
}

// NewTransformStack returns an empty stack.
func NewTransformStack() *TransformStack {
	return &TransformStack{}
}

// Push adds a placement.
func (ts *TransformStack) Push(p Placement) {
	ts.placements = append(ts.placements, p)
}

// Pop removes the most recent placement.
func (ts *TransformStack) Pop() {
	if len(ts.placements) > 0 {
		ts.placements = ts.placements[:len(ts.placements)-1]
	}
}

// Matrix returns the composed transform: outer placements wrap inner ones.
func (ts *TransformStack) Matrix() sdf.M44 {
	m := sdf.Identity3d()
	for _, p := range ts.placements {
		m = m.Mul(p.matrix())
	}
	return m
}

// Apply transforms a point by the composed stack.
func (ts *TransformStack) Apply(p geom.Point) geom.Point {
	r := ts.Matrix().MulPosition(v3.Vec{X: p.X, Y: p.Y, Z: p.Z})
	return geom.Point{X: r.X, Y: r.Y, Z: r.Z}
}

// Append adds the nodes and elements of hm to part, labelling them after
// the part's current maximum node and element labels. It returns the number
// of elements added.
func Append(part *model.Part, hm *kernel.HexMesh, elemType string, ts *TransformStack) (int, error) {
	if hm == nil || hm.IsEmpty() {
		return 0, fmt.Errorf("mesher: part %q: mesh has no elements", part.Name)
	}
	if elemType == "" {
		elemType = model.DefaultElementType
	}
	if !model.IsHexType(elemType) {
		return 0, fmt.Errorf("mesher: part %q: element type %q is not a hexahedron", part.Name, elemType)
	}
	if ts == nil {
		ts = NewTransformStack()
	}

	m := ts.Matrix()
	nodeBase := part.MaxNodeLabel()
	elemBase := part.MaxElementLabel()

	for i := 0; i < hm.NodeCount(); i++ {
		c := hm.Node(i)
		r := m.MulPosition(v3.Vec{X: c[0], Y: c[1], Z: c[2]})
		part.AddNode(model.Node{
			Label: nodeBase + i + 1,
			Pos:   geom.Point{X: r.X, Y: r.Y, Z: r.Z},
		})
	}

	for i := 0; i < hm.ElementCount(); i++ {
		idx := hm.Element(i)
		conn := make([]int, kernel.NodesPerHex)
		for j, n := range idx {
			conn[j] = nodeBase + int(n) + 1
		}
		part.AddElement(model.Element{
			Label:        elemBase + i + 1,
			Type:         elemType,
			Connectivity: conn,
		})
	}

	return hm.ElementCount(), nil
}

// MeshSolid meshes s with the kernel and appends the result to part.
func MeshSolid(k kernel.Kernel, part *model.Part, s kernel.Solid, cell float64, elemType string, ts *TransformStack) (int, error) {
	hm, err := k.ToHexMesh(s, cell)
	if err != nil {
		return 0, fmt.Errorf("mesher: part %q: %w", part.Name, err)
	}
	return Append(part, hm, elemType, ts)
}
