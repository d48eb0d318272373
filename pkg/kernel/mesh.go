package kernel

// NodesPerHex is the number of connectivity entries per element.
const NodesPerHex = 8

// HexMesh is a structured hexahedral mesh.
// All arrays are flat: nodes has 3 floats per node (x,y,z) and elements has
// 8 zero-based node indices per hexahedron, numbered counter-clockwise on
// the bottom face (-Z) and then the top face.
type HexMesh struct {
	Nodes    []float64 `json:"nodes"`    // [x0,y0,z0, x1,y1,z1, ...]
	Elements []uint32  `json:"elements"` // [n0..n7, n0..n7, ...]
}

// NodeCount returns the number of nodes.
func (m *HexMesh) NodeCount() int {
	return len(m.Nodes) / 3
}

// ElementCount returns the number of hexahedra.
func (m *HexMesh) ElementCount() int {
	return len(m.Elements) / NodesPerHex
}

// IsEmpty returns true if the mesh has no elements.
func (m *HexMesh) IsEmpty() bool {
	return len(m.Elements) == 0
}

// Node returns the coordinates of node i.
func (m *HexMesh) Node(i int) [3]float64 {
	return [3]float64{m.Nodes[3*i], m.Nodes[3*i+1], m.Nodes[3*i+2]}
}

// Element returns the node indices of element i.
func (m *HexMesh) Element(i int) [NodesPerHex]uint32 {
	var e [NodesPerHex]uint32
	copy(e[:], m.Elements[NodesPerHex*i:NodesPerHex*(i+1)])
	return e
}
