package flatten

import (
	"fmt"
	"strconv"

	"github.com/mesh-intelligence/multitype/pkg/multitype"
	"github.com/mesh-intelligence/multitype/pkg/plain"
)

// Flatten returns a plain tree equivalent to t. Original nodes keep their
// numbers; the node for the i-th synthesized change is numbered from
// t.NodeCount() upwards. Reading a branch from child to parent gives the
// child, its changes oldest first, then the parent.
//
// A tree relinked without RebuildArrays is checked first and rejected with
// ErrInconsistentTopology if its links are corrupt.
func Flatten(t *multitype.Tree) (*plain.Tree, error) {
	if err := t.CheckTopology(); err != nil {
		return nil, fmt.Errorf("flattening: %w", err)
	}
	label := t.TypeLabel()
	src := t.Nodes()

	flat := make([]*plain.Node, len(src))
	for i, n := range src {
		fn := plain.NewNode(n.Nr(), n.Height())
		fn.SetID(n.ID())
		flat[i] = fn
	}
	for i, n := range src {
		if n.IsLeaf() {
			continue
		}
		flat[i].SetLeft(flat[n.Left()])
		flat[i].SetRight(flat[n.Right()])
	}

	nextNr := len(src)
	for i, n := range src {
		node := flat[i]

		if n.IsRoot() {
			continue
		}

		setType(node, label, n.Type())
		parent := node.Parent()
		setType(parent, label, src[n.Parent()].Type())

		branch := node
		for j := 0; j < n.ChangeCount(); j++ {
			c, err := n.Change(j)
			if err != nil {
				return nil, err
			}
			cn := plain.NewNode(nextNr, c.Time)
			cn.SetID(strconv.Itoa(nextNr))
			nextNr++
			setType(cn, label, c.Type)

			if err := cn.AddChild(branch); err != nil {
				return nil, err
			}
			branch = cn
		}

		if branch != node {
			if err := parent.ReplaceChild(node, branch); err != nil {
				return nil, fmt.Errorf("splicing changes above node %d: %w", n.Nr(), err)
			}
		}
	}

	// The root has no branch of its own; it takes the type entering it from
	// the left. Tagged last so that its children cannot overwrite it.
	root := t.Root()
	if !root.IsLeaf() {
		setType(flat[root.Nr()], label, src[root.Left()].FinalType())
	} else {
		setType(flat[root.Nr()], label, root.Type())
	}
	return plain.NewTree(flat[root.Nr()]), nil
}

// setType tags n with its type, both as a metadata value and as the Newick
// metadata string.
func setType(n *plain.Node, label string, t int) {
	n.SetMetaData(label, t)
	n.SetMetaString(label + "=" + strconv.Itoa(t))
}

// Newick returns the flattened Newick string of t.
func Newick(t *multitype.Tree, opts plain.NewickOptions) (string, error) {
	flat, err := Flatten(t)
	if err != nil {
		return "", err
	}
	return flat.Newick(opts), nil
}
