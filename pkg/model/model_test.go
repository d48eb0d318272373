package model

import (
	"strings"
	"testing"

	"github.com/chazu/csysgen/pkg/geom"
)

// unitCubeNodes returns the eight corners of a unit cube in C3D8 order,
// shifted by off along X.
func unitCubeNodes(off float64) [HexNodeCount]geom.Point {
	return [HexNodeCount]geom.Point{
		{X: off, Y: 0, Z: 0}, {X: off + 1, Y: 0, Z: 0}, {X: off + 1, Y: 1, Z: 0}, {X: off, Y: 1, Z: 0},
		{X: off, Y: 0, Z: 1}, {X: off + 1, Y: 0, Z: 1}, {X: off + 1, Y: 1, Z: 1}, {X: off, Y: 1, Z: 1},
	}
}

// cubePart builds a part with one unit cube element per offset.
func cubePart(name string, n int) *Part {
	p := NewPart(name)
	label := 1
	for i := 0; i < n; i++ {
		var conn []int
		for _, pos := range unitCubeNodes(float64(i) * 2) {
			p.AddNode(Node{Label: label, Pos: pos})
			conn = append(conn, label)
			label++
		}
		p.AddElement(Element{Label: i + 1, Connectivity: conn})
	}
	return p
}

func TestModelPartsKeepOrder(t *testing.T) {
	m := New()
	for _, name := range []string{"skin", "core", "flange"} {
		m.AddPart(NewPart(name))
	}
	m.AddPart(NewPart("core")) // replace keeps position

	var got []string
	for _, p := range m.PartList() {
		got = append(got, p.Name)
	}
	if strings.Join(got, ",") != "skin,core,flange" {
		t.Errorf("PartList order = %v", got)
	}
	if m.Lookup("core") == nil || m.Lookup("missing") != nil {
		t.Error("Lookup mismatch")
	}
	if m.Units != DefaultUnits {
		t.Errorf("Units = %q, want %q", m.Units, DefaultUnits)
	}
}

func TestPartCounters(t *testing.T) {
	p := cubePart("plate", 3)
	if got := p.MaxNodeLabel(); got != 24 {
		t.Errorf("MaxNodeLabel = %d, want 24", got)
	}
	if got := p.MaxElementLabel(); got != 3 {
		t.Errorf("MaxElementLabel = %d, want 3", got)
	}
	labels := p.NodeLabels()
	if len(labels) != 24 || labels[0] != 1 || labels[23] != 24 {
		t.Errorf("NodeLabels = %v", labels)
	}
	m := New()
	m.AddPart(p)
	if m.ElementCount() != 3 {
		t.Errorf("ElementCount = %d, want 3", m.ElementCount())
	}
}

func TestAddElementDefaultsType(t *testing.T) {
	p := NewPart("p")
	p.AddElement(Element{Label: 1})
	if p.Elements[0].Type != DefaultElementType {
		t.Errorf("Type = %q, want %q", p.Elements[0].Type, DefaultElementType)
	}
}

func TestPartHex(t *testing.T) {
	p := cubePart("plate", 1)
	h, err := p.Hex(p.Elements[0])
	if err != nil {
		t.Fatalf("Hex error: %v", err)
	}
	if h.Label != 1 || h.Nodes != unitCubeNodes(0) {
		t.Errorf("Hex = %+v", h)
	}

	bad := Element{Label: 9, Type: "C3D4", Connectivity: []int{1, 2, 3, 4}}
	if _, err := p.Hex(bad); err == nil || !strings.Contains(err.Error(), "unsupported element type") {
		t.Errorf("Hex(C3D4) error = %v", err)
	}
	short := Element{Label: 10, Type: "C3D8", Connectivity: []int{1, 2, 3}}
	if _, err := p.Hex(short); err == nil || !strings.Contains(err.Error(), "has 3 nodes") {
		t.Errorf("Hex(short) error = %v", err)
	}
	dangling := Element{Label: 11, Type: "C3D8", Connectivity: []int{1, 2, 3, 4, 5, 6, 7, 99}}
	if _, err := p.Hex(dangling); err == nil || !strings.Contains(err.Error(), "node 99 not found") {
		t.Errorf("Hex(dangling) error = %v", err)
	}
}

func TestCornerMap(t *testing.T) {
	if err := C3D8Corners.Validate(); err != nil {
		t.Fatalf("C3D8Corners invalid: %v", err)
	}
	c := C3D8Corners.Corners(unitCubeNodes(0))
	if c.Origin != (geom.Point{}) || c.XEnd != (geom.Point{Z: 1}) ||
		c.YEnd != (geom.Point{X: 1}) || c.ZEnd != (geom.Point{Y: 1}) {
		t.Errorf("Corners = %+v", c)
	}

	tests := []struct {
		name string
		m    CornerMap
		want string
	}{
		{"out of range", CornerMap{Origin: 0, XEnd: 8, YEnd: 1, ZEnd: 3}, "out of range"},
		{"negative", CornerMap{Origin: -1, XEnd: 4, YEnd: 1, ZEnd: 3}, "out of range"},
		{"duplicate", CornerMap{Origin: 0, XEnd: 0, YEnd: 1, ZEnd: 3}, "both use index 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.m.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want %q", err, tt.want)
			}
		})
	}
}
