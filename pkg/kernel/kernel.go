// Package kernel defines the abstract solid kernel used to mesh parts
// bottom-up. Implementations (sdfx) provide solid modeling and structured
// hexahedral meshing behind this interface, so the rest of the system does
// not depend on a particular geometry library.
package kernel

// Solid is an opaque handle to a kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
	// Contains reports whether p lies inside or on the surface.
	Contains(p [3]float64) bool
}

// Kernel is the abstract solid kernel interface.
type Kernel interface {
	// Primitives
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64) Solid

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees

	// Mesh output
	ToHexMesh(s Solid, cell float64) (*HexMesh, error)
}
