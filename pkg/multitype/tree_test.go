package multitype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/multitype/pkg/types"
)

// threeLeafSpec is ((A,B):1,C):2 with one change to type 2 at 0.5 on A's branch.
func threeLeafSpec() *Spec {
	return &Spec{
		Height: 2,
		Type:   2,
		Children: []*Spec{
			{
				Height: 1,
				Type:   2,
				Children: []*Spec{
					{ID: "A", Type: 0, Changes: []Change{{Time: 0.5, Type: 2}}},
					{ID: "B", Type: 2},
				},
			},
			{ID: "C", Type: 2},
		},
	}
}

func newThreeLeafTree(t *testing.T) *Tree {
	t.Helper()
	tree, err := FromSpec(types.NewConfig(3), threeLeafSpec())
	require.NoError(t, err)
	return tree
}

func mustNode(t *testing.T, tree *Tree, nr int) *Node {
	t.Helper()
	n, err := tree.Node(nr)
	require.NoError(t, err)
	return n
}

func TestFromSpec_Numbering(t *testing.T) {
	tree := newThreeLeafTree(t)

	assert.Equal(t, 5, tree.NodeCount())
	assert.Equal(t, 3, tree.LeafCount())
	assert.Equal(t, 2, tree.InternalNodeCount())
	assert.Equal(t, 3, tree.TypeCount())
	assert.Equal(t, "deme", tree.TypeLabel())

	for i, n := range tree.Nodes() {
		assert.Equal(t, i, n.Nr())
		if i < tree.LeafCount() {
			assert.True(t, n.IsLeaf(), "node %d should be a leaf", i)
		} else {
			assert.False(t, n.IsLeaf(), "node %d should be internal", i)
		}
	}

	assert.Equal(t, 3, tree.Root().Nr())
	assert.True(t, tree.Root().IsRoot())
	assert.Equal(t, "A", mustNode(t, tree, 0).ID())
	assert.Equal(t, 4, mustNode(t, tree, 0).Parent())
	assert.Equal(t, threeLeafSpec(), tree.Spec())
	assert.Equal(t, 1, tree.TotalChangeCount())
	assert.NoError(t, tree.Validate())
}

func TestFromSpec_Errors(t *testing.T) {
	_, err := FromSpec(types.Config{TypeLabel: "deme"}, threeLeafSpec())
	assert.ErrorIs(t, err, types.ErrTypeCountMissing)

	unary := &Spec{Height: 1, Children: []*Spec{{ID: "A"}}}
	_, err = FromSpec(types.NewConfig(2), unary)
	assert.ErrorIs(t, err, types.ErrInconsistentTopology)
}

func TestNew_Errors(t *testing.T) {
	cfg := types.NewConfig(2)

	t.Run("duplicate number", func(t *testing.T) {
		nodes := []Node{NewNode(0, "A", 0, 0), NewNode(0, "B", 0, 0), NewNode(2, "", 1, 0)}
		_, err := New(cfg, nodes, 2)
		assert.ErrorIs(t, err, types.ErrInconsistentTopology)
	})

	t.Run("number out of range", func(t *testing.T) {
		nodes := []Node{NewNode(5, "A", 0, 0)}
		_, err := New(cfg, nodes, 0)
		assert.ErrorIs(t, err, types.ErrInconsistentTopology)
	})

	t.Run("unreachable node", func(t *testing.T) {
		nodes := []Node{NewNode(0, "A", 0, 0), NewNode(1, "B", 0, 0)}
		_, err := New(cfg, nodes, 0)
		assert.ErrorIs(t, err, types.ErrInconsistentTopology)
	})

	t.Run("leaf numbered in internal range", func(t *testing.T) {
		root := NewNode(0, "", 1, 0)
		root.SetLeft(1)
		root.SetRight(2)
		a, b := NewNode(1, "A", 0, 0), NewNode(2, "B", 0, 0)
		a.SetParent(0)
		b.SetParent(0)
		_, err := New(cfg, []Node{root, a, b}, 0)
		assert.ErrorIs(t, err, types.ErrInconsistentTopology)
	})

	t.Run("valid cherry", func(t *testing.T) {
		root := NewNode(2, "", 1, 0)
		root.SetLeft(0)
		root.SetRight(1)
		a, b := NewNode(0, "A", 0, 0), NewNode(1, "B", 0, 0)
		a.SetParent(2)
		b.SetParent(2)
		tree, err := New(cfg, []Node{root, a, b}, 2)
		require.NoError(t, err)
		assert.Equal(t, 2, tree.LeafCount())
	})
}

func TestNode_Changes(t *testing.T) {
	tree := newThreeLeafTree(t)
	a := mustNode(t, tree, 0)

	assert.Equal(t, 1, a.ChangeCount())
	tm, err := a.ChangeTime(0)
	require.NoError(t, err)
	assert.Equal(t, 0.5, tm)
	typ, err := a.ChangeType(0)
	require.NoError(t, err)
	assert.Equal(t, 2, typ)
	assert.Equal(t, 2, a.FinalType())
	assert.Equal(t, 2, mustNode(t, tree, 1).FinalType())

	_, err = a.ChangeTime(1)
	assert.ErrorIs(t, err, types.ErrInvalidIndex)
	_, err = a.ChangeType(-1)
	assert.ErrorIs(t, err, types.ErrInvalidIndex)
	assert.ErrorIs(t, a.RemoveChange(3), types.ErrInvalidIndex)
	assert.ErrorIs(t, a.SetChange(1, Change{}), types.ErrInvalidIndex)

	a.AddChange(1, 0.8)
	assert.Equal(t, []Change{{Time: 0.5, Type: 2}, {Time: 0.8, Type: 1}}, a.Changes())
	assert.Equal(t, 1, a.FinalType())

	require.NoError(t, a.RemoveChange(0))
	assert.Equal(t, []Change{{Time: 0.8, Type: 1}}, a.Changes())

	a.ClearChanges()
	assert.Equal(t, 0, a.ChangeCount())
	assert.Equal(t, 0, a.FinalType())
}

func TestNode_Copy(t *testing.T) {
	tree := newThreeLeafTree(t)
	a := mustNode(t, tree, 0)

	c := a.Copy()
	assert.Equal(t, NoNode, c.Parent())
	assert.Equal(t, a.Changes(), c.Changes())

	c.AddChange(1, 0.9)
	require.NoError(t, c.SetChange(0, Change{Time: 0.1, Type: 1}))
	assert.Equal(t, []Change{{Time: 0.5, Type: 2}}, a.Changes(), "copy must not share changes")

	inner := mustNode(t, tree, 4).Copy()
	assert.Equal(t, 0, inner.Left())
	assert.Equal(t, 1, inner.Right())
}

func TestLink_RebuildArrays(t *testing.T) {
	tree := newThreeLeafTree(t)

	// Swap B and C: ((A,C),B).
	require.NoError(t, tree.Link(4, 0, 2))
	require.NoError(t, tree.Link(3, 4, 1))
	require.NoError(t, tree.RebuildArrays())

	assert.Equal(t, 4, mustNode(t, tree, 2).Parent())
	assert.Equal(t, 3, mustNode(t, tree, 1).Parent())
	assert.NoError(t, tree.Validate())

	assert.ErrorIs(t, tree.Link(3, 4, NoNode), types.ErrInconsistentTopology)
	assert.ErrorIs(t, tree.Link(9, 0, 1), types.ErrInvalidIndex)
	assert.ErrorIs(t, tree.SetRoot(7), types.ErrInvalidIndex)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *Spec)
		wantErr error
	}{
		{
			name:    "node type out of range",
			mutate:  func(s *Spec) { s.Children[1].Type = 3 },
			wantErr: types.ErrTypeOutOfRange,
		},
		{
			name:    "change type out of range",
			mutate:  func(s *Spec) { s.Children[0].Children[0].Changes[0].Type = -1 },
			wantErr: types.ErrTypeOutOfRange,
		},
		{
			name:    "change above parent",
			mutate:  func(s *Spec) { s.Children[0].Children[0].Changes[0].Time = 1.5 },
			wantErr: types.ErrChangeOrder,
		},
		{
			name:    "change at node height",
			mutate:  func(s *Spec) { s.Children[0].Children[0].Changes[0].Time = 0 },
			wantErr: types.ErrChangeOrder,
		},
		{
			name: "changes not increasing",
			mutate: func(s *Spec) {
				a := s.Children[0].Children[0]
				a.Changes = append(a.Changes, Change{Time: 0.4, Type: 1})
			},
			wantErr: types.ErrChangeOrder,
		},
		{
			name:    "root with changes",
			mutate:  func(s *Spec) { s.Changes = []Change{{Time: 3, Type: 1}} },
			wantErr: types.ErrChangeOrder,
		},
		{
			name:    "child older than parent",
			mutate:  func(s *Spec) { s.Children[1].Height = 2.5 },
			wantErr: types.ErrChangeOrder,
		},
		{
			name:   "valid tree",
			mutate: func(*Spec) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := threeLeafSpec()
			tt.mutate(s)
			tree, err := FromSpec(types.NewConfig(3), s)
			require.NoError(t, err)

			err = tree.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidate_RelinkedWithoutRebuild(t *testing.T) {
	tree := newThreeLeafTree(t)
	require.NoError(t, tree.Link(3, 0, 2))
	assert.ErrorIs(t, tree.Validate(), types.ErrInconsistentTopology)
	assert.ErrorIs(t, tree.CheckTopology(), types.ErrInconsistentTopology)

	tree = newThreeLeafTree(t)
	mustNode(t, tree, 1).SetParent(9)
	assert.ErrorIs(t, tree.Validate(), types.ErrInconsistentTopology)
}

func TestTreeCopy(t *testing.T) {
	tree := newThreeLeafTree(t)
	c := tree.Copy()

	mustNode(t, c, 0).AddChange(1, 0.7)
	mustNode(t, c, 2).SetHeight(0.1)

	assert.Equal(t, threeLeafSpec(), tree.Spec())
	assert.NotEqual(t, tree.Spec(), c.Spec())
	assert.Equal(t, tree.Config(), c.Config())
}

func TestAssignFrom(t *testing.T) {
	tree := newThreeLeafTree(t)

	other, err := FromSpec(types.NewConfig(3), &Spec{
		Height:   3,
		Children: []*Spec{{ID: "X"}, {ID: "Y", Changes: []Change{{Time: 1, Type: 1}}}},
	})
	require.NoError(t, err)

	require.NoError(t, tree.AssignFrom(other))
	assert.Equal(t, 3, tree.NodeCount())
	assert.Equal(t, 2, tree.LeafCount())
	assert.Equal(t, other.Spec(), tree.Spec())

	mustNode(t, tree, 1).ClearChanges()
	assert.Equal(t, 1, mustNode(t, other, 1).ChangeCount(), "assigned tree must not share nodes")
}
