package model

import (
	"fmt"

	"github.com/chazu/csysgen/pkg/geom"
)

// Hex is an element resolved to the coordinates of its eight nodes.
type Hex struct {
	Label int
	Nodes [HexNodeCount]geom.Point
}

// Hex resolves element e of p into node coordinates. It fails when e is not
// an 8-node hexahedron or references a missing node.
func (p *Part) Hex(e Element) (Hex, error) {
	if !IsHexType(e.Type) {
		return Hex{}, fmt.Errorf("element %d: unsupported element type %q", e.Label, e.Type)
	}
	if len(e.Connectivity) != HexNodeCount {
		return Hex{}, fmt.Errorf("element %d: has %d nodes, want %d", e.Label, len(e.Connectivity), HexNodeCount)
	}
	pts, err := p.Coordinates(e)
	if err != nil {
		return Hex{}, err
	}
	h := Hex{Label: e.Label}
	copy(h.Nodes[:], pts)
	return h, nil
}
