package plain

// Tree is a plain rooted tree.
type Tree struct {
	root *Node
}

// NewTree returns a tree rooted at root. The root's parent link is cleared.
func NewTree(root *Node) *Tree {
	if root != nil {
		root.parent = nil
	}
	return &Tree{root: root}
}

// Root returns the root node, or nil for an empty tree.
func (t *Tree) Root() *Node { return t.root }

// SetRoot replaces the root node.
func (t *Tree) SetRoot(root *Node) {
	if root != nil {
		root.parent = nil
	}
	t.root = root
}

// NodeCount returns the number of nodes, single-child nodes included.
func (t *Tree) NodeCount() int {
	if t.root == nil {
		return 0
	}
	return t.root.NodeCount()
}

// LeafCount returns the number of leaves.
func (t *Tree) LeafCount() int {
	if t.root == nil {
		return 0
	}
	return t.root.LeafCount()
}

// Nodes returns every node in pre-order.
func (t *Tree) Nodes() []*Node {
	var out []*Node
	if t.root == nil {
		return out
	}
	t.root.Walk(func(n *Node) bool {
		out = append(out, n)
		return true
	})
	return out
}

// Newick returns the Newick string of the whole tree, terminated by ';'.
func (t *Tree) Newick(opts NewickOptions) string {
	if t.root == nil {
		return ";"
	}
	return t.root.Newick(opts) + ";"
}
