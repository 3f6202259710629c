package plain

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/multitype/pkg/types"
)

// Spec is the document form of a plain tree, used for YAML input and output.
type Spec struct {
	ID       string         `yaml:"id,omitempty"`
	Height   float64        `yaml:"height"`
	Meta     map[string]any `yaml:"meta,omitempty"`
	Children []*Spec        `yaml:"children,omitempty"`
}

// ParseSpec decodes a YAML plain tree document.
func ParseSpec(data []byte) (*Spec, error) {
	var s Spec
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding plain tree: %w", err)
	}
	return &s, nil
}

// Marshal encodes the document as YAML.
func (s *Spec) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}

// Build creates a tree from the document. Leaves are numbered from 0 in
// pre-order; all other nodes follow, also in pre-order.
func (s *Spec) Build() (*Tree, error) {
	leaves := s.leafCount()
	nextLeaf, nextInner := 0, leaves
	var build func(*Spec) (*Node, error)
	build = func(sp *Spec) (*Node, error) {
		if sp == nil {
			return nil, fmt.Errorf("empty node: %w", types.ErrInconsistentTopology)
		}
		if len(sp.Children) > 2 {
			return nil, fmt.Errorf("node %q has %d children: %w", sp.ID, len(sp.Children), types.ErrInvalidIndex)
		}
		n := &Node{id: sp.ID, height: sp.Height}
		for k, v := range sp.Meta {
			n.SetMetaData(k, v)
		}
		if len(sp.Children) == 0 {
			n.nr = nextLeaf
			nextLeaf++
			return n, nil
		}
		n.nr = nextInner
		nextInner++
		for _, cs := range sp.Children {
			c, err := build(cs)
			if err != nil {
				return nil, err
			}
			if err := n.AddChild(c); err != nil {
				return nil, err
			}
		}
		return n, nil
	}
	root, err := build(s)
	if err != nil {
		return nil, err
	}
	return NewTree(root), nil
}

func (s *Spec) leafCount() int {
	if s == nil {
		return 0
	}
	if len(s.Children) == 0 {
		return 1
	}
	c := 0
	for _, cs := range s.Children {
		c += cs.leafCount()
	}
	return c
}

// Spec returns the document form of the tree.
func (t *Tree) Spec() *Spec {
	if t.root == nil {
		return nil
	}
	return t.root.spec()
}

func (n *Node) spec() *Spec {
	s := &Spec{ID: n.id, Height: n.height}
	if len(n.metadata) > 0 {
		s.Meta = make(map[string]any, len(n.metadata))
		for k, v := range n.metadata {
			s.Meta[k] = v
		}
	}
	for _, c := range []*Node{n.left, n.right} {
		if c != nil {
			s.Children = append(s.Children, c.spec())
		}
	}
	return s
}
