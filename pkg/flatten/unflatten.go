package flatten

import (
	"fmt"
	"math"
	"slices"

	"github.com/spf13/cast"

	"github.com/mesh-intelligence/multitype/pkg/multitype"
	"github.com/mesh-intelligence/multitype/pkg/plain"
	"github.com/mesh-intelligence/multitype/pkg/types"
)

// TrueNodeCount returns the number of nodes under n that are not single-child
// nodes, i.e. the node count of the multi-type tree n collapses to.
func TrueNodeCount(n *plain.Node) int {
	switch n.ChildCount() {
	case 0:
		return 1
	case 1:
		return TrueNodeCount(n.OnlyChild())
	default:
		return 1 + TrueNodeCount(n.Left()) + TrueNodeCount(n.Right())
	}
}

// frontier pairs a plain node at the top of a branch with the multi-type node
// that will receive it.
type frontier struct {
	flat   *plain.Node
	parent int
	left   bool
}

// Unflatten rebuilds a multi-type tree from a flat tree whose single-child
// nodes mark type changes. Every node must carry a numeric type tag under
// cfg.TypeLabel; tags are rounded to the nearest integer.
//
// Leaves take numbers from [0, leafCount) and internal nodes from
// [leafCount, nodeCount), both in breadth-first order, left before right.
// Leaf identifiers are carried over.
func Unflatten(cfg types.Config, flat *plain.Tree, opts ...multitype.Option) (*multitype.Tree, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	root := flat.Root()
	if root == nil {
		return nil, fmt.Errorf("flat tree has no root: %w", types.ErrMalformedFlatTree)
	}
	if err := checkAcyclic(root); err != nil {
		return nil, err
	}
	if root.ChildCount() == 1 {
		return nil, fmt.Errorf("flat root %d has a single child: %w", root.Nr(), types.ErrMalformedFlatTree)
	}

	nodeCount := TrueNodeCount(root)
	leafCount := root.LeafCount()
	nextLeaf, nextInternal := 0, leafCount

	nodes := make([]multitype.Node, nodeCount)
	rootNr := multitype.NoNode

	active := []frontier{{flat: root, parent: multitype.NoNode}}
	for len(active) > 0 {
		var next []frontier
		for _, f := range active {
			// Walk down the run of single-child nodes. The walk meets the
			// youngest change last, so the collected list is reversed.
			var changes []multitype.Change
			base := f.flat
			for base.ChildCount() == 1 {
				typ, err := readType(base, cfg)
				if err != nil {
					return nil, err
				}
				changes = append(changes, multitype.Change{Time: base.Height(), Type: typ})
				base = base.OnlyChild()
			}
			slices.Reverse(changes)

			nodeType, err := readType(base, cfg)
			if err != nil {
				return nil, err
			}

			var nr int
			switch base.ChildCount() {
			case 0:
				nr = nextLeaf
				nextLeaf++
			case 2:
				nr = nextInternal
				nextInternal++
				next = append(next,
					frontier{flat: base.Left(), parent: nr, left: true},
					frontier{flat: base.Right(), parent: nr},
				)
			}

			id := ""
			if base.IsLeaf() {
				id = base.ID()
			}
			n := multitype.NewNode(nr, id, base.Height(), nodeType)
			for _, c := range changes {
				n.AddChange(c.Type, c.Time)
			}

			if f.parent == multitype.NoNode {
				rootNr = nr
			} else {
				n.SetParent(f.parent)
				if f.left {
					nodes[f.parent].SetLeft(nr)
				} else {
					nodes[f.parent].SetRight(nr)
				}
			}
			// Children are placed on the next level and link themselves in.
			nodes[nr] = n
		}
		active = next
	}

	t, err := multitype.New(cfg, nodes, rootNr, opts...)
	if err != nil {
		return nil, fmt.Errorf("assembling unflattened tree: %w", err)
	}
	return t, nil
}

// InitFromFlat replaces the structure of t with the multi-type tree encoded
// by flat, keeping t's configuration.
func InitFromFlat(t *multitype.Tree, flat *plain.Tree) error {
	u, err := Unflatten(t.Config(), flat)
	if err != nil {
		return err
	}
	return t.AssignFrom(u)
}

// readType returns the rounded type tag of n.
func readType(n *plain.Node, cfg types.Config) (int, error) {
	v, ok := n.MetaData(cfg.TypeLabel)
	if !ok || v == nil {
		return 0, fmt.Errorf("node %d has no %q tag: %w", n.Nr(), cfg.TypeLabel, types.ErrMalformedFlatTree)
	}
	if _, isBool := v.(bool); isBool {
		return 0, fmt.Errorf("node %d has boolean %q tag: %w", n.Nr(), cfg.TypeLabel, types.ErrMalformedFlatTree)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("node %d has non-numeric %q tag %v: %w", n.Nr(), cfg.TypeLabel, v, types.ErrMalformedFlatTree)
	}
	t := int(math.Round(f))
	if !cfg.ValidType(t) {
		return 0, fmt.Errorf("node %d has type %d, want [0, %d): %w", n.Nr(), t, cfg.TypeCount, types.ErrTypeOutOfRange)
	}
	return t, nil
}

// checkAcyclic rejects flat trees in which a node is reachable twice.
func checkAcyclic(root *plain.Node) error {
	seen := make(map[*plain.Node]bool)
	stack := []*plain.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[n] {
			return fmt.Errorf("flat node %d reached twice: %w", n.Nr(), types.ErrMalformedFlatTree)
		}
		seen[n] = true
		for _, c := range []*plain.Node{n.Left(), n.Right()} {
			if c != nil {
				stack = append(stack, c)
			}
		}
	}
	return nil
}
