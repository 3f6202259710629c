package multitype

import (
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/multitype/pkg/types"
)

// Tree is a multi-type tree. The live node array is indexed by node number;
// a second array holds the last stored checkpoint.
type Tree struct {
	cfg    types.Config
	logger *slog.Logger

	root      int
	nodes     []Node
	leafCount int

	storedRoot int
	stored     []Node
}

// Option configures a Tree.
type Option func(*Tree)

// WithLogger sets the logger used for checkpoint and rebuild events.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tree) {
		if l != nil {
			t.logger = l
		}
	}
}

// New assembles a tree from nodes linked by number. The slice may be in any
// order; each node is placed at the index given by its number. The config is
// validated and the arrays are built.
func New(cfg types.Config, nodes []Node, root int, opts ...Option) (*Tree, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	t := &Tree{cfg: cfg, logger: slog.Default(), root: root}
	for _, o := range opts {
		o(t)
	}
	t.nodes = make([]Node, len(nodes))
	placed := make([]bool, len(nodes))
	for i := range nodes {
		nr := nodes[i].nr
		if nr < 0 || nr >= len(nodes) {
			return nil, fmt.Errorf("node number %d outside [0, %d): %w", nr, len(nodes), types.ErrInconsistentTopology)
		}
		if placed[nr] {
			return nil, fmt.Errorf("node number %d assigned twice: %w", nr, types.ErrInconsistentTopology)
		}
		placed[nr] = true
		t.nodes[nr] = nodes[i].Copy()
		t.nodes[nr].parent = nodes[i].parent
	}
	if err := t.RebuildArrays(); err != nil {
		return nil, err
	}
	return t, nil
}

// Config returns the tree's configuration.
func (t *Tree) Config() types.Config { return t.cfg }

// TypeCount returns the number of allowed types.
func (t *Tree) TypeCount() int { return t.cfg.TypeCount }

// TypeLabel returns the metadata key used for type tags.
func (t *Tree) TypeLabel() string { return t.cfg.TypeLabel }

// NodeCount returns the number of nodes in the arena.
func (t *Tree) NodeCount() int { return len(t.nodes) }

// LeafCount returns the leaf count found by the last RebuildArrays.
func (t *Tree) LeafCount() int { return t.leafCount }

// InternalNodeCount returns NodeCount minus LeafCount.
func (t *Tree) InternalNodeCount() int { return len(t.nodes) - t.leafCount }

// Root returns the live root node.
func (t *Tree) Root() *Node { return &t.nodes[t.root] }

// SetRoot makes nr the root. Call RebuildArrays afterwards.
func (t *Tree) SetRoot(nr int) error {
	if nr < 0 || nr >= len(t.nodes) {
		return fmt.Errorf("root %d outside [0, %d): %w", nr, len(t.nodes), types.ErrInvalidIndex)
	}
	t.root = nr
	return nil
}

// Node returns the live node numbered nr. The pointer is invalidated by
// Restore, AssignFrom and RebuildArrays.
func (t *Tree) Node(nr int) (*Node, error) {
	if nr < 0 || nr >= len(t.nodes) {
		return nil, fmt.Errorf("node %d outside [0, %d): %w", nr, len(t.nodes), types.ErrInvalidIndex)
	}
	return &t.nodes[nr], nil
}

// Nodes returns the live nodes in number order.
func (t *Tree) Nodes() []*Node {
	out := make([]*Node, len(t.nodes))
	for i := range t.nodes {
		out[i] = &t.nodes[i]
	}
	return out
}

// Link makes left and right the children of parent, updating the children's
// parent links. Either child may be NoNode only if both are.
func (t *Tree) Link(parent, left, right int) error {
	for _, nr := range []int{parent, left, right} {
		if nr != NoNode && (nr < 0 || nr >= len(t.nodes)) {
			return fmt.Errorf("node %d outside [0, %d): %w", nr, len(t.nodes), types.ErrInvalidIndex)
		}
	}
	if parent == NoNode || (left == NoNode) != (right == NoNode) {
		return fmt.Errorf("link %d -> (%d, %d): %w", parent, left, right, types.ErrInconsistentTopology)
	}
	p := &t.nodes[parent]
	p.left, p.right = left, right
	if left != NoNode {
		t.nodes[left].parent = parent
		t.nodes[right].parent = parent
	}
	return nil
}

// RebuildArrays checks the topology reachable from the root and rebuilds the
// stored checkpoint as an independent deep copy of the live nodes. It must be
// called after any change to node count or topology.
func (t *Tree) RebuildArrays() error {
	leaves, err := t.checkTopology(t.nodes, t.root)
	if err != nil {
		return err
	}
	t.leafCount = leaves

	t.stored = make([]Node, len(t.nodes))
	for i := range t.nodes {
		t.stored[i] = t.nodes[i].Copy()
		t.stored[i].parent = t.nodes[i].parent
	}
	t.storedRoot = t.root

	t.logger.Debug("rebuilt tree arrays", "nodes", len(t.nodes), "leaves", leaves)
	return nil
}

// CheckTopology reports ErrInconsistentTopology if the live links do not
// form a strictly binary tree numbered the way RebuildArrays requires. Use it
// before walking a tree that may have been relinked without a rebuild.
func (t *Tree) CheckTopology() error {
	_, err := t.checkTopology(t.nodes, t.root)
	return err
}

// checkTopology walks the tree from root and verifies that every node is
// reached exactly once, sits at the index of its number, is strictly binary
// and is linked back to its parent. It returns the leaf count.
func (t *Tree) checkTopology(nodes []Node, root int) (int, error) {
	if len(nodes) == 0 {
		return 0, fmt.Errorf("empty tree: %w", types.ErrInconsistentTopology)
	}
	if root < 0 || root >= len(nodes) {
		return 0, fmt.Errorf("root %d outside [0, %d): %w", root, len(nodes), types.ErrInconsistentTopology)
	}
	if nodes[root].parent != NoNode {
		return 0, fmt.Errorf("root %d has parent %d: %w", root, nodes[root].parent, types.ErrInconsistentTopology)
	}

	visited := make([]bool, len(nodes))
	var leafNrs, internalNrs []int
	stack := []int{root}
	for len(stack) > 0 {
		nr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited[nr] {
			return 0, fmt.Errorf("node %d reached twice: %w", nr, types.ErrInconsistentTopology)
		}
		visited[nr] = true
		n := &nodes[nr]
		if n.nr != nr {
			return 0, fmt.Errorf("node at index %d is numbered %d: %w", nr, n.nr, types.ErrInconsistentTopology)
		}

		switch n.ChildCount() {
		case 0:
			leafNrs = append(leafNrs, nr)
			continue
		case 2:
			internalNrs = append(internalNrs, nr)
		default:
			return 0, fmt.Errorf("node %d has a single child: %w", nr, types.ErrInconsistentTopology)
		}

		for _, c := range []int{n.right, n.left} {
			if c < 0 || c >= len(nodes) {
				return 0, fmt.Errorf("node %d links child %d: %w", nr, c, types.ErrInconsistentTopology)
			}
			if nodes[c].parent != nr {
				return 0, fmt.Errorf("child %d of node %d points to parent %d: %w", c, nr, nodes[c].parent, types.ErrInconsistentTopology)
			}
			stack = append(stack, c)
		}
	}

	if reached := len(leafNrs) + len(internalNrs); reached != len(nodes) {
		return 0, fmt.Errorf("%d of %d nodes reachable from root: %w", reached, len(nodes), types.ErrInconsistentTopology)
	}
	leaves := len(leafNrs)
	for _, nr := range leafNrs {
		if nr >= leaves {
			return 0, fmt.Errorf("leaf numbered %d outside [0, %d): %w", nr, leaves, types.ErrInconsistentTopology)
		}
	}
	for _, nr := range internalNrs {
		if nr < leaves {
			return 0, fmt.Errorf("internal node numbered %d inside leaf range [0, %d): %w", nr, leaves, types.ErrInconsistentTopology)
		}
	}
	return leaves, nil
}

// Copy returns a deep copy of the tree with freshly built arrays.
func (t *Tree) Copy() *Tree {
	c := &Tree{
		cfg:       t.cfg,
		logger:    t.logger,
		root:      t.root,
		leafCount: t.leafCount,
		nodes:     make([]Node, len(t.nodes)),
		stored:    make([]Node, len(t.nodes)),
	}
	for i := range t.nodes {
		c.nodes[i].assign(&t.nodes[i])
		c.stored[i].assign(&t.nodes[i])
	}
	c.storedRoot = c.root
	return c
}

// AssignFrom replaces the structure of t with a deep copy of other's live
// nodes. The configuration of t is kept.
func (t *Tree) AssignFrom(other *Tree) error {
	nodes := make([]Node, len(other.nodes))
	for i := range other.nodes {
		nodes[i].assign(&other.nodes[i])
	}
	if _, err := t.checkTopology(nodes, other.root); err != nil {
		return err
	}
	t.nodes = nodes
	t.root = other.root
	return t.RebuildArrays()
}

// Validate checks the topology, then the per-branch invariants: every type lies in
// [0, TypeCount), parents are no younger than their children, the root
// carries no changes, and each branch's change times increase strictly
// within the open interval between the node and its parent.
func (t *Tree) Validate() error {
	if err := t.CheckTopology(); err != nil {
		return err
	}
	for i := range t.nodes {
		n := &t.nodes[i]
		if !t.cfg.ValidType(n.nodeType) {
			return fmt.Errorf("node %d has type %d: %w", n.nr, n.nodeType, types.ErrTypeOutOfRange)
		}
		if n.IsRoot() {
			if len(n.changes) > 0 {
				return fmt.Errorf("root %d carries %d changes: %w", n.nr, len(n.changes), types.ErrChangeOrder)
			}
			continue
		}
		p := &t.nodes[n.parent]
		if p.height < n.height {
			return fmt.Errorf("node %d at %g is older than its parent at %g: %w", n.nr, n.height, p.height, types.ErrChangeOrder)
		}
		last := n.height
		for j, c := range n.changes {
			if !t.cfg.ValidType(c.Type) {
				return fmt.Errorf("change %d of node %d has type %d: %w", j, n.nr, c.Type, types.ErrTypeOutOfRange)
			}
			if c.Time <= last || c.Time >= p.height {
				return fmt.Errorf("change %d of node %d at %g outside (%g, %g): %w", j, n.nr, c.Time, last, p.height, types.ErrChangeOrder)
			}
			last = c.Time
		}
	}
	return nil
}

// TotalChangeCount returns the number of changes over all branches.
func (t *Tree) TotalChangeCount() int {
	c := 0
	for i := range t.nodes {
		c += len(t.nodes[i].changes)
	}
	return c
}
