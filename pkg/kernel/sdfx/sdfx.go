// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
package sdfx

import (
	"fmt"
	"math"

	"github.com/chazu/csysgen/pkg/kernel"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// MaxCells bounds the number of grid cells ToHexMesh will visit.
const MaxCells = 4_000_000

// sdfxSolid wraps an sdf.SDF3 to implement kernel.Solid.
type sdfxSolid struct {
	s sdf.SDF3
}

// BoundingBox returns the axis-aligned bounding box.
func (s *sdfxSolid) BoundingBox() (min, max [3]float64) {
	bb := s.s.BoundingBox()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// Contains reports whether the signed distance at p is not positive.
func (s *sdfxSolid) Contains(p [3]float64) bool {
	return s.s.Evaluate(v3.Vec{X: p[0], Y: p[1], Z: p[2]}) <= 0
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct{}

// New returns a new SdfxKernel.
func New() *SdfxKernel {
	return &SdfxKernel{}
}

// unwrap extracts the underlying sdf.SDF3 from a kernel.Solid.
func unwrap(s kernel.Solid) sdf.SDF3 {
	return s.(*sdfxSolid).s
}

// wrap creates a kernel.Solid from an sdf.SDF3.
func wrap(s sdf.SDF3) kernel.Solid {
	return &sdfxSolid{s: s}
}

// Box creates a box with the given dimensions. The resulting solid has its
// minimum corner at the origin (0,0,0), so a mesh of the box starts at the
// origin too. sdf.Box3D centers the box at the origin, so we translate by
// half-dimensions.
func (k *SdfxKernel) Box(x, y, z float64) kernel.Solid {
	s, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Box3D: %v", err))
	}
	m := sdf.Translate3d(v3.Vec{X: x / 2, Y: y / 2, Z: z / 2})
	return wrap(sdf.Transform3D(s, m))
}

// Cylinder creates a cylinder along Z, centered at the origin.
func (k *SdfxKernel) Cylinder(height, radius float64) kernel.Solid {
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Cylinder3D: %v", err))
	}
	return wrap(s)
}

// Union returns the union of two solids.
func (k *SdfxKernel) Union(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Union3D(unwrap(a), unwrap(b)))
}

// Difference returns the difference a - b.
func (k *SdfxKernel) Difference(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Difference3D(unwrap(a), unwrap(b)))
}

// Intersection returns the intersection of two solids.
func (k *SdfxKernel) Intersection(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Intersect3D(unwrap(a), unwrap(b)))
}

// Translate moves a solid by (x, y, z).
func (k *SdfxKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	m := sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z})
	return wrap(sdf.Transform3D(unwrap(s), m))
}

// Rotate rotates a solid by Euler angles (degrees) around X, Y, Z axes.
func (k *SdfxKernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	return wrap(sdf.Transform3D(unwrap(s), RotationMatrix(x, y, z)))
}

// RotationMatrix returns the rotation for Euler angles in degrees, applied
// about X first, then Y, then Z.
func RotationMatrix(x, y, z float64) sdf.M44 {
	xRad := x * math.Pi / 180.0
	yRad := y * math.Pi / 180.0
	zRad := z * math.Pi / 180.0
	return sdf.RotateZ(zRad).Mul(sdf.RotateY(yRad)).Mul(sdf.RotateX(xRad))
}

// ToHexMesh meshes a solid with a structured grid of hexahedra. The grid
// spans the bounding box with cells no larger than cell along each axis; a
// cell is kept when its center lies inside the solid. Nodes shared by
// neighbouring cells are emitted once.
func (k *SdfxKernel) ToHexMesh(s kernel.Solid, cell float64) (*kernel.HexMesh, error) {
	if cell <= 0 || math.IsNaN(cell) || math.IsInf(cell, 0) {
		return nil, fmt.Errorf("cell size must be positive, got %g", cell)
	}
	min, max := s.BoundingBox()

	var n [3]int
	var h [3]float64
	total := 1
	for i := 0; i < 3; i++ {
		size := max[i] - min[i]
		if size <= 0 {
			return nil, fmt.Errorf("solid has zero extent along axis %d", i)
		}
		n[i] = int(math.Ceil(size/cell - 1e-9))
		if n[i] < 1 {
			n[i] = 1
		}
		h[i] = size / float64(n[i])
		total *= n[i]
		if total > MaxCells {
			return nil, fmt.Errorf("grid needs more than %d cells; increase the cell size", MaxCells)
		}
	}

	mesh := &kernel.HexMesh{}
	index := make(map[[3]int]uint32)
	node := func(i, j, l int) uint32 {
		key := [3]int{i, j, l}
		if id, ok := index[key]; ok {
			return id
		}
		id := uint32(len(mesh.Nodes) / 3)
		mesh.Nodes = append(mesh.Nodes,
			min[0]+float64(i)*h[0],
			min[1]+float64(j)*h[1],
			min[2]+float64(l)*h[2],
		)
		index[key] = id
		return id
	}

	// X varies fastest, then Y, then Z, so element order follows layers.
	for l := 0; l < n[2]; l++ {
		for j := 0; j < n[1]; j++ {
			for i := 0; i < n[0]; i++ {
				center := [3]float64{
					min[0] + (float64(i)+0.5)*h[0],
					min[1] + (float64(j)+0.5)*h[1],
					min[2] + (float64(l)+0.5)*h[2],
				}
				if !s.Contains(center) {
					continue
				}
				mesh.Elements = append(mesh.Elements,
					node(i, j, l), node(i+1, j, l), node(i+1, j+1, l), node(i, j+1, l),
					node(i, j, l+1), node(i+1, j, l+1), node(i+1, j+1, l+1), node(i, j+1, l+1),
				)
			}
		}
	}

	return mesh, nil
}
