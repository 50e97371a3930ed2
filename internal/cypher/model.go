// Package cypher compiles GraphQL `where`/`options` arguments into Cypher
// against a static description of the graph: node labels, their scalar
// properties and the relationships between them.
package cypher

import (
	"fmt"
	"sort"
)

// Kind is the type of a scalar node property. It decides which filter
// operators a property accepts.
type Kind int

const (
	KindString Kind = iota
	KindStringList
	KindBool
	KindInt
	KindFloat
)

// Direction of a relationship relative to the node that declares it.
type Direction int

const (
	Out Direction = iota
	In
)

// Relationship is a traversable field on a node, e.g.
// Cohort.hasCohortSampleSamples -> (Cohort)-[:HAS_COHORT_SAMPLE]->(Sample).
type Relationship struct {
	Field     string
	Type      string
	Direction Direction
	Target    string
}

// Pattern renders the relationship as a path pattern from `from` to a
// target node bound to `to`.
func (r Relationship) Pattern(from, to string) string {
	if r.Direction == In {
		return fmt.Sprintf("(%s)<-[:%s]-(%s:%s)", from, r.Type, to, r.Target)
	}
	return fmt.Sprintf("(%s)-[:%s]->(%s:%s)", from, r.Type, to, r.Target)
}

// Node describes one label.
type Node struct {
	Label         string
	Fields        map[string]Kind
	Relationships map[string]Relationship
}

// FieldNames returns the scalar property names in sorted order.
func (n *Node) FieldNames() []string {
	names := make([]string, 0, len(n.Fields))
	for name := range n.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RelationshipNames returns the relationship fields in sorted order.
func (n *Node) RelationshipNames() []string {
	names := make([]string, 0, len(n.Relationships))
	for name := range n.Relationships {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Model is the set of nodes the gateway can query.
type Model struct {
	nodes map[string]*Node
}

// NewModel validates that every relationship points at a known label.
func NewModel(nodes ...*Node) (*Model, error) {
	m := &Model{nodes: make(map[string]*Node, len(nodes))}
	for _, n := range nodes {
		if _, dup := m.nodes[n.Label]; dup {
			return nil, fmt.Errorf("duplicate node label %q", n.Label)
		}
		m.nodes[n.Label] = n
	}
	for _, n := range nodes {
		for field, rel := range n.Relationships {
			if _, ok := m.nodes[rel.Target]; !ok {
				return nil, fmt.Errorf("%s.%s targets unknown label %q", n.Label, field, rel.Target)
			}
			if _, clash := n.Fields[field]; clash {
				return nil, fmt.Errorf("%s.%s is both a property and a relationship", n.Label, field)
			}
		}
	}
	return m, nil
}

// Node returns the node for label, or nil.
func (m *Model) Node(label string) *Node {
	return m.nodes[label]
}

// Labels returns every label in sorted order.
func (m *Model) Labels() []string {
	labels := make([]string, 0, len(m.nodes))
	for label := range m.nodes {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}
