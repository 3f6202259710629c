package multitype

import (
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/multitype/pkg/types"
)

// Spec is the document form of a multi-type tree. Children are listed left
// first; a spec node has zero or two children.
type Spec struct {
	ID       string   `json:"id,omitempty" yaml:"id,omitempty"`
	Height   float64  `json:"height" yaml:"height"`
	Type     int      `json:"type" yaml:"type"`
	Changes  []Change `json:"changes,omitempty" yaml:"changes,omitempty"`
	Children []*Spec  `json:"children,omitempty" yaml:"children,omitempty"`
}

// ParseSpec decodes a YAML multi-type tree document.
func ParseSpec(data []byte) (*Spec, error) {
	var s Spec
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding multi-type tree: %w", err)
	}
	return &s, nil
}

// Marshal encodes the document as YAML.
func (s *Spec) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}

// FromSpec builds a tree from its document form. Leaves are numbered from 0
// in pre-order, internal nodes from the leaf count, also in pre-order.
func FromSpec(cfg types.Config, s *Spec, opts ...Option) (*Tree, error) {
	var leaves, internals []*Spec
	var collect func(*Spec) error
	collect = func(sp *Spec) error {
		if sp == nil {
			return fmt.Errorf("empty spec node: %w", types.ErrInconsistentTopology)
		}
		switch len(sp.Children) {
		case 0:
			leaves = append(leaves, sp)
		case 2:
			internals = append(internals, sp)
			for _, c := range sp.Children {
				if err := collect(c); err != nil {
					return err
				}
			}
		default:
			return fmt.Errorf("spec node %q has %d children: %w", sp.ID, len(sp.Children), types.ErrInconsistentTopology)
		}
		return nil
	}
	if err := collect(s); err != nil {
		return nil, err
	}

	nrs := make(map[*Spec]int, len(leaves)+len(internals))
	for i, sp := range leaves {
		nrs[sp] = i
	}
	for i, sp := range internals {
		nrs[sp] = len(leaves) + i
	}

	nodes := make([]Node, 0, len(nrs))
	for _, sp := range slices.Concat(leaves, internals) {
		n := NewNode(nrs[sp], sp.ID, sp.Height, sp.Type)
		n.changes = append([]Change(nil), sp.Changes...)
		if len(sp.Children) == 2 {
			n.left = nrs[sp.Children[0]]
			n.right = nrs[sp.Children[1]]
		}
		nodes = append(nodes, n)
	}
	for _, sp := range internals {
		for _, c := range sp.Children {
			nodes[nrs[c]].parent = nrs[sp]
		}
	}
	return New(cfg, nodes, nrs[s], opts...)
}

// Spec returns the document form of the live tree.
func (t *Tree) Spec() *Spec {
	var build func(nr int) *Spec
	build = func(nr int) *Spec {
		n := &t.nodes[nr]
		s := &Spec{ID: n.id, Height: n.height, Type: n.nodeType}
		if len(n.changes) > 0 {
			s.Changes = n.Changes()
		}
		if !n.IsLeaf() {
			s.Children = []*Spec{build(n.left), build(n.right)}
		}
		return s
	}
	return build(t.root)
}
