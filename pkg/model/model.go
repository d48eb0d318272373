// Package model defines the finite-element mesh model that frames are
// derived from: parts made of labelled nodes and hexahedral elements.
// A Model is produced once per evaluation and is not mutated afterwards.
package model

import (
	"fmt"
	"sort"

	"github.com/chazu/csysgen/pkg/geom"
)

// DefaultElementType is assumed when an element does not name its type.
const DefaultElementType = "C3D8R"

// DefaultUnits is the length unit of a new model.
const DefaultUnits = "mm"

// HexNodeCount is the number of nodes of a linear hexahedron.
const HexNodeCount = 8

// hexTypes lists the element types with 8-node hexahedral connectivity.
var hexTypes = map[string]bool{
	"C3D8":  true,
	"C3D8R": true,
	"C3D8I": true,
	"C3D8H": true,
	"SC8R":  true,
}

// IsHexType reports whether t names an 8-node hexahedral element.
func IsHexType(t string) bool {
	return hexTypes[t]
}

// Node is a labelled mesh vertex.
type Node struct {
	Label int        `json:"label"`
	Pos   geom.Point `json:"pos"`
}

// Element is a labelled mesh cell. Connectivity holds node labels in the
// element's local node order.
type Element struct {
	Label        int    `json:"label"`
	Type         string `json:"type"`
	Connectivity []int  `json:"connectivity"`
}

// Part is a named mesh. Elements keep insertion order, which is the order
// frames are produced in.
type Part struct {
	Name     string       `json:"name"`
	Nodes    map[int]Node `json:"nodes"`
	Elements []Element    `json:"elements"`
}

// NewPart creates an empty part.
func NewPart(name string) *Part {
	return &Part{Name: name, Nodes: make(map[int]Node)}
}

// AddNode adds or replaces a node.
func (p *Part) AddNode(n Node) {
	p.Nodes[n.Label] = n
}

// AddElement appends an element. Duplicates are reported by validation.
func (p *Part) AddElement(e Element) {
	if e.Type == "" {
		e.Type = DefaultElementType
	}
	p.Elements = append(p.Elements, e)
}

// MaxNodeLabel returns the largest node label, or 0 for an empty part.
func (p *Part) MaxNodeLabel() int {
	max := 0
	for l := range p.Nodes {
		if l > max {
			max = l
		}
	}
	return max
}

// MaxElementLabel returns the largest element label, or 0.
func (p *Part) MaxElementLabel() int {
	max := 0
	for _, e := range p.Elements {
		if e.Label > max {
			max = e.Label
		}
	}
	return max
}

// NodeLabels returns the node labels in ascending order.
func (p *Part) NodeLabels() []int {
	labels := make([]int, 0, len(p.Nodes))
	for l := range p.Nodes {
		labels = append(labels, l)
	}
	sort.Ints(labels)
	return labels
}

// Coordinates resolves the connectivity of e into node positions.
func (p *Part) Coordinates(e Element) ([]geom.Point, error) {
	pts := make([]geom.Point, len(e.Connectivity))
	for i, label := range e.Connectivity {
		n, ok := p.Nodes[label]
		if !ok {
			return nil, fmt.Errorf("element %d: node %d not found in part %q", e.Label, label, p.Name)
		}
		pts[i] = n.Pos
	}
	return pts, nil
}

// Model is the set of parts produced by one evaluation.
type Model struct {
	Parts map[string]*Part `json:"parts"`
	Order []string         `json:"order"` // definition order of part names
	Units string           `json:"units"`
}

// New creates an empty model.
func New() *Model {
	return &Model{
		Parts: make(map[string]*Part),
		Units: DefaultUnits,
	}
}

// AddPart registers p. A part with the same name is replaced in place.
func (m *Model) AddPart(p *Part) {
	if _, exists := m.Parts[p.Name]; !exists {
		m.Order = append(m.Order, p.Name)
	}
	m.Parts[p.Name] = p
}

// Lookup returns the part with the given name, or nil.
func (m *Model) Lookup(name string) *Part {
	return m.Parts[name]
}

// PartList returns the parts in definition order.
func (m *Model) PartList() []*Part {
	parts := make([]*Part, 0, len(m.Order))
	for _, name := range m.Order {
		if p := m.Parts[name]; p != nil {
			parts = append(parts, p)
		}
	}
	return parts
}

// ElementCount returns the number of elements across all parts.
func (m *Model) ElementCount() int {
	n := 0
	for _, p := range m.Parts {
		n += len(p.Elements)
	}
	return n
}
