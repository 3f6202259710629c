package multitype

import (
	"fmt"

	"github.com/mesh-intelligence/multitype/pkg/types"
)

// NoNode marks an absent parent or child link.
const NoNode = -1

// Change is a type transition on the branch above a node. Moving up the
// branch, the lineage switches to Type at Time.
type Change struct {
	Time float64 `json:"time" yaml:"time"`
	Type int     `json:"type" yaml:"type"`
}

// Node is a vertex of a multi-type tree. Changes are kept oldest first, i.e.
// in increasing time from the node towards its parent.
type Node struct {
	nr       int
	id       string
	height   float64
	nodeType int
	changes  []Change

	parent int
	left   int
	right  int
}

// NewNode returns an unlinked node.
func NewNode(nr int, id string, height float64, nodeType int) Node {
	return Node{
		nr:       nr,
		id:       id,
		height:   height,
		nodeType: nodeType,
		parent:   NoNode,
		left:     NoNode,
		right:    NoNode,
	}
}

// Nr returns the node number, its index in the tree's arena.
func (n *Node) Nr() int { return n.nr }

// ID returns the taxon identifier; internal nodes usually have none.
func (n *Node) ID() string { return n.id }

// SetID sets the taxon identifier.
func (n *Node) SetID(id string) { n.id = id }

// Height returns the node's time coordinate.
func (n *Node) Height() float64 { return n.height }

// SetHeight sets the node's time coordinate.
func (n *Node) SetHeight(h float64) { n.height = h }

// Type returns the type at the node itself.
func (n *Node) Type() int { return n.nodeType }

// SetType sets the type at the node itself.
func (n *Node) SetType(t int) { n.nodeType = t }

// Parent returns the parent's number, or NoNode for the root.
func (n *Node) Parent() int { return n.parent }

// Left returns the left child's number, or NoNode for a leaf.
func (n *Node) Left() int { return n.left }

// Right returns the right child's number, or NoNode for a leaf.
func (n *Node) Right() int { return n.right }

// IsRoot reports whether the node has no parent.
func (n *Node) IsRoot() bool { return n.parent == NoNode }

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool { return n.left == NoNode && n.right == NoNode }

// SetParent relinks the node to parent p by number. The tree checks the
// resulting topology on the next RebuildArrays, Store or CheckTopology.
func (n *Node) SetParent(p int) { n.parent = p }

// SetLeft sets the left child by number.
func (n *Node) SetLeft(c int) { n.left = c }

// SetRight sets the right child by number.
func (n *Node) SetRight(c int) { n.right = c }

// ChildCount returns the number of linked children.
func (n *Node) ChildCount() int {
	c := 0
	if n.left != NoNode {
		c++
	}
	if n.right != NoNode {
		c++
	}
	return c
}

// ChangeCount returns the number of type changes on the branch above n.
func (n *Node) ChangeCount() int { return len(n.changes) }

// Change returns the i-th change, counting from the oldest.
func (n *Node) Change(i int) (Change, error) {
	if i < 0 || i >= len(n.changes) {
		return Change{}, fmt.Errorf("change %d of node %d (count %d): %w", i, n.nr, len(n.changes), types.ErrInvalidIndex)
	}
	return n.changes[i], nil
}

// ChangeTime returns the time of the i-th change.
func (n *Node) ChangeTime(i int) (float64, error) {
	c, err := n.Change(i)
	return c.Time, err
}

// ChangeType returns the type adopted at the i-th change.
func (n *Node) ChangeType(i int) (int, error) {
	c, err := n.Change(i)
	return c.Type, err
}

// Changes returns a copy of the change list.
func (n *Node) Changes() []Change {
	out := make([]Change, len(n.changes))
	copy(out, n.changes)
	return out
}

// AddChange appends a change above the current youngest one. Callers keep
// the list ordered; Tree.Validate reports violations.
func (n *Node) AddChange(newType int, time float64) {
	n.changes = append(n.changes, Change{Time: time, Type: newType})
}

// SetChange overwrites the i-th change.
func (n *Node) SetChange(i int, c Change) error {
	if i < 0 || i >= len(n.changes) {
		return fmt.Errorf("change %d of node %d (count %d): %w", i, n.nr, len(n.changes), types.ErrInvalidIndex)
	}
	n.changes[i] = c
	return nil
}

// RemoveChange deletes the i-th change, keeping the order of the rest.
func (n *Node) RemoveChange(i int) error {
	if i < 0 || i >= len(n.changes) {
		return fmt.Errorf("change %d of node %d (count %d): %w", i, n.nr, len(n.changes), types.ErrInvalidIndex)
	}
	n.changes = append(n.changes[:i], n.changes[i+1:]...)
	return nil
}

// ClearChanges removes every change on the branch above n.
func (n *Node) ClearChanges() { n.changes = n.changes[:0] }

// FinalType returns the type entering the parent: the type of the youngest
// change, or the node's own type when the branch has none.
func (n *Node) FinalType() int {
	if len(n.changes) == 0 {
		return n.nodeType
	}
	return n.changes[len(n.changes)-1].Type
}

// Copy returns a copy of n with its own change list. Child links are kept;
// the parent link is cleared and must be set by the caller.
func (n *Node) Copy() Node {
	c := *n
	c.changes = append([]Change(nil), n.changes...)
	c.parent = NoNode
	return c
}

// assign copies every field of src into n, reusing n's change storage.
func (n *Node) assign(src *Node) {
	n.nr = src.nr
	n.id = src.id
	n.height = src.height
	n.nodeType = src.nodeType
	n.changes = append(n.changes[:0], src.changes...)
	n.parent = src.parent
	n.left = src.left
	n.right = src.right
}
