package plain

import (
	"fmt"

	"github.com/mesh-intelligence/multitype/pkg/types"
)

// Node is a vertex of a plain tree. The parent link is a back reference used
// for navigation only; a node owns its children.
type Node struct {
	nr       int
	id       string
	height   float64
	parent   *Node
	left     *Node
	right    *Node
	metadata map[string]any

	// metaString is written verbatim inside the Newick comment of the node.
	metaString string
}

// NewNode returns a detached node with the given number and height.
func NewNode(nr int, height float64) *Node {
	return &Node{nr: nr, height: height}
}

// Nr returns the node number.
func (n *Node) Nr() int { return n.nr }

// SetNr sets the node number.
func (n *Node) SetNr(nr int) { n.nr = nr }

// ID returns the node identifier.
func (n *Node) ID() string { return n.id }

// SetID sets the node identifier.
func (n *Node) SetID(id string) { n.id = id }

// Height returns the node's time coordinate.
func (n *Node) Height() float64 { return n.height }

// SetHeight sets the node's time coordinate.
func (n *Node) SetHeight(h float64) { n.height = h }

// Parent returns the parent, or nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// SetParent sets the parent back reference without touching child slots.
func (n *Node) SetParent(p *Node) { n.parent = p }

// Left returns the left child, or nil.
func (n *Node) Left() *Node { return n.left }

// Right returns the right child, or nil.
func (n *Node) Right() *Node { return n.right }

// IsRoot reports whether the node has no parent.
func (n *Node) IsRoot() bool { return n.parent == nil }

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool { return n.left == nil && n.right == nil }

// MetaString returns the text written inside the node's Newick comment.
func (n *Node) MetaString() string { return n.metaString }

// SetMetaString sets the text written inside the node's Newick comment,
// e.g. "deme=1".
func (n *Node) SetMetaString(s string) { n.metaString = s }

// SetLeft replaces the left child. The new child's parent is set to n.
func (n *Node) SetLeft(c *Node) {
	n.left = c
	if c != nil {
		c.parent = n
	}
}

// SetRight replaces the right child. The new child's parent is set to n.
func (n *Node) SetRight(c *Node) {
	n.right = c
	if c != nil {
		c.parent = n
	}
}

// AddChild attaches c in the first free child slot, left before right.
func (n *Node) AddChild(c *Node) error {
	switch {
	case n.left == nil:
		n.SetLeft(c)
	case n.right == nil:
		n.SetRight(c)
	default:
		return fmt.Errorf("node %d already has two children: %w", n.nr, types.ErrInvalidIndex)
	}
	return nil
}

// ReplaceChild swaps old for c in whichever slot holds old.
func (n *Node) ReplaceChild(old, c *Node) error {
	switch old {
	case n.left:
		n.SetLeft(c)
	case n.right:
		n.SetRight(c)
	default:
		return fmt.Errorf("node %d is not a child of node %d: %w", old.nr, n.nr, types.ErrInconsistentTopology)
	}
	return nil
}

// Child returns the i-th child, 0 for left and 1 for right.
func (n *Node) Child(i int) (*Node, error) {
	switch {
	case i == 0 && n.left != nil:
		return n.left, nil
	case i == 1 && n.right != nil:
		return n.right, nil
	}
	return nil, fmt.Errorf("child %d of node %d: %w", i, n.nr, types.ErrInvalidIndex)
}

// ChildCount returns the number of attached children (0, 1 or 2).
func (n *Node) ChildCount() int {
	c := 0
	if n.left != nil {
		c++
	}
	if n.right != nil {
		c++
	}
	return c
}

// OnlyChild returns the single child of a degree-one node, whichever slot it
// occupies.
func (n *Node) OnlyChild() *Node {
	if n.left != nil {
		return n.left
	}
	return n.right
}

// MetaData returns the metadata value stored under key.
func (n *Node) MetaData(key string) (any, bool) {
	v, ok := n.metadata[key]
	return v, ok
}

// SetMetaData stores a metadata value under key.
func (n *Node) SetMetaData(key string, v any) {
	if n.metadata == nil {
		n.metadata = make(map[string]any)
	}
	n.metadata[key] = v
}

// MetaDataLen returns the number of metadata entries on the node.
func (n *Node) MetaDataLen() int { return len(n.metadata) }

// LeafCount returns the number of leaves in the subtree rooted at n.
func (n *Node) LeafCount() int {
	if n.IsLeaf() {
		return 1
	}
	c := 0
	if n.left != nil {
		c += n.left.LeafCount()
	}
	if n.right != nil {
		c += n.right.LeafCount()
	}
	return c
}

// NodeCount returns the number of nodes in the subtree rooted at n, single
// child nodes included.
func (n *Node) NodeCount() int {
	c := 1
	if n.left != nil {
		c += n.left.NodeCount()
	}
	if n.right != nil {
		c += n.right.NodeCount()
	}
	return c
}

// Walk visits the subtree rooted at n in pre-order, left before right.
// Returning false from fn skips the children of the visited node.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	if n.left != nil {
		n.left.Walk(fn)
	}
	if n.right != nil {
		n.right.Walk(fn)
	}
}
