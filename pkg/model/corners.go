package model

import (
	"fmt"

	"github.com/chazu/csysgen/pkg/csys"
	"github.com/chazu/csysgen/pkg/geom"
)

// CornerMap assigns a frame corner role to a position in an element's
// connectivity list.
type CornerMap struct {
	Origin int `json:"origin" yaml:"origin"`
	XEnd   int `json:"x_end" yaml:"x_end"`
	YEnd   int `json:"y_end" yaml:"y_end"`
	ZEnd   int `json:"z_end" yaml:"z_end"`
}

// C3D8Corners is the mapping for linear hexahedra meshed bottom-up: the
// first node is the origin, the node above it on the opposite face (index
// 4) ends the X axis, and its neighbours on the first face (indices 1 and
// 3) end the Y and Z axes.
var C3D8Corners = CornerMap{Origin: 0, XEnd: 4, YEnd: 1, ZEnd: 3}

// Validate checks that every role points to a distinct hexahedron node.
func (c CornerMap) Validate() error {
	idx := []int{c.Origin, c.XEnd, c.YEnd, c.ZEnd}
	names := []string{"origin", "x_end", "y_end", "z_end"}
	seen := make(map[int]string)
	for i, v := range idx {
		if v < 0 || v >= HexNodeCount {
			return fmt.Errorf("corner map: %s index %d out of range [0,%d)", names[i], v, HexNodeCount)
		}
		if other, dup := seen[v]; dup {
			return fmt.Errorf("corner map: %s and %s both use index %d", other, names[i], v)
		}
		seen[v] = names[i]
	}
	return nil
}

// Corners picks the frame reference points from an element's node
// positions.
func (c CornerMap) Corners(nodes [HexNodeCount]geom.Point) csys.Corners {
	return csys.Corners{
		Origin: nodes[c.Origin],
		XEnd:   nodes[c.XEnd],
		YEnd:   nodes[c.YEnd],
		ZEnd:   nodes[c.ZEnd],
	}
}
