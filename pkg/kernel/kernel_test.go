package kernel

import "testing"

// --- HexMesh helper method tests ---

func TestHexMeshNodeCount(t *testing.T) {
	tests := []struct {
		name  string
		nodes []float64
		want  int
	}{
		{"empty", nil, 0},
		{"one node", []float64{1, 2, 3}, 1},
		{"four nodes", []float64{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &HexMesh{Nodes: tt.nodes}
			if got := m.NodeCount(); got != tt.want {
				t.Errorf("NodeCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestHexMeshElementCount(t *testing.T) {
	tests := []struct {
		name     string
		elements []uint32
		want     int
	}{
		{"empty", nil, 0},
		{"one hex", []uint32{0, 1, 2, 3, 4, 5, 6, 7}, 1},
		{"two hexes", []uint32{0, 1, 2, 3, 4, 5, 6, 7, 1, 8, 9, 2, 5, 10, 11, 6}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &HexMesh{Elements: tt.elements}
			if got := m.ElementCount(); got != tt.want {
				t.Errorf("ElementCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestHexMeshAccessors(t *testing.T) {
	m := &HexMesh{
		Nodes:    []float64{0, 0, 0, 1, 2, 3},
		Elements: []uint32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15},
	}
	if got := m.Node(1); got != [3]float64{1, 2, 3} {
		t.Errorf("Node(1) = %v", got)
	}
	if got := m.Element(1); got != [NodesPerHex]uint32{8, 9, 10, 11, 12, 13, 14, 15} {
		t.Errorf("Element(1) = %v", got)
	}
	if m.IsEmpty() {
		t.Error("IsEmpty() = true for non-empty mesh")
	}
	if !(&HexMesh{}).IsEmpty() {
		t.Error("IsEmpty() = false for empty mesh")
	}
}

// --- Compile-time interface check with a stub kernel ---

// stubSolid is a minimal Solid implementation for testing.
type stubSolid struct {
	minBB, maxBB [3]float64
}

func (s *stubSolid) BoundingBox() (min, max [3]float64) {
	return s.minBB, s.maxBB
}

func (s *stubSolid) Contains(p [3]float64) bool {
	for i := 0; i < 3; i++ {
		if p[i] < s.minBB[i] || p[i] > s.maxBB[i] {
			return false
		}
	}
	return true
}

// stubKernel is a minimal Kernel implementation that proves the interface
// is satisfiable. All methods return trivial results.
type stubKernel struct{}

func (k *stubKernel) Box(x, y, z float64) Solid {
	return &stubSolid{maxBB: [3]float64{x, y, z}}
}

func (k *stubKernel) Cylinder(height, radius float64) Solid {
	return &stubSolid{
		minBB: [3]float64{-radius, -radius, -height / 2},
		maxBB: [3]float64{radius, radius, height / 2},
	}
}

func (k *stubKernel) Union(a, _ Solid) Solid        { return a }
func (k *stubKernel) Difference(a, _ Solid) Solid   { return a }
func (k *stubKernel) Intersection(a, _ Solid) Solid { return a }

func (k *stubKernel) Translate(s Solid, _, _, _ float64) Solid { return s }
func (k *stubKernel) Rotate(s Solid, _, _, _ float64) Solid    { return s }

func (k *stubKernel) ToHexMesh(_ Solid, _ float64) (*HexMesh, error) {
	return &HexMesh{}, nil
}

// Compile-time checks that the stubs implement the interfaces.
var _ Solid = (*stubSolid)(nil)
var _ Kernel = (*stubKernel)(nil)

func TestStubKernelBox(t *testing.T) {
	var k Kernel = &stubKernel{}
	s := k.Box(10, 20, 30)
	min, max := s.BoundingBox()
	if min != [3]float64{0, 0, 0} {
		t.Errorf("Box min = %v, want [0 0 0]", min)
	}
	if max != [3]float64{10, 20, 30} {
		t.Errorf("Box max = %v, want [10 20 30]", max)
	}
	if !s.Contains([3]float64{5, 5, 5}) || s.Contains([3]float64{11, 5, 5}) {
		t.Error("Contains mismatch")
	}
}
