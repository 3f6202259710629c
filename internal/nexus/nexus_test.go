package nexus

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/multitype/pkg/multitype"
	"github.com/mesh-intelligence/multitype/pkg/types"
)

func newTree(t *testing.T) *multitype.Tree {
	t.Helper()
	tree, err := multitype.FromSpec(types.NewConfig(3), &multitype.Spec{
		Height: 2,
		Type:   2,
		Children: []*multitype.Spec{
			{
				Height: 1,
				Type:   2,
				Children: []*multitype.Spec{
					{ID: "A", Type: 0, Changes: []multitype.Change{{Time: 0.5, Type: 2}}},
					{ID: "B", Type: 2},
				},
			},
			{ID: "C", Type: 2},
		},
	})
	require.NoError(t, err)
	return tree
}

func TestLogger_Stream(t *testing.T) {
	lg := NewLogger(newTree(t))

	var buf bytes.Buffer
	require.NoError(t, lg.Init(&buf))
	require.NoError(t, lg.Log(0, &buf))
	require.NoError(t, lg.Log(1000, &buf))
	require.NoError(t, lg.Close(&buf))

	want := "#NEXUS\n\n" +
		"Begin taxa;\n" +
		"\tDimensions ntax=3;\n" +
		"\t\tTaxlabels\n" +
		"\t\t\tA\n" +
		"\t\t\tB\n" +
		"\t\t\tC\n" +
		"\t\t\t;\n" +
		"End;\n" +
		"Begin trees;\n" +
		"\tTranslate\n" +
		"\t\t\t1 A,\n" +
		"\t\t\t2 B,\n" +
		"\t\t\t3 C\n" +
		"\t\t\t;\n" +
		"tree STATE_0 = (((1[&deme=0]:0.5)[&deme=2]:0.5,2[&deme=2]:1)[&deme=2]:1,3[&deme=2]:2)[&deme=2];\n" +
		"tree STATE_1000 = (((1[&deme=0]:0.5)[&deme=2]:0.5,2[&deme=2]:1)[&deme=2]:1,3[&deme=2]:2)[&deme=2];\n" +
		"End;\n"
	assert.Equal(t, want, buf.String())
}

func TestLogger_RecordTracksLiveTree(t *testing.T) {
	tree := newTree(t)
	lg := NewLogger(tree)

	before, err := lg.Record(1)
	require.NoError(t, err)

	require.NoError(t, tree.Store())
	a, err := tree.Node(0)
	require.NoError(t, err)
	a.ClearChanges()
	a.SetType(2)

	during, err := lg.Record(1)
	require.NoError(t, err)
	assert.NotEqual(t, before, during)

	tree.Restore()
	after, err := lg.Record(1)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestLogger_WriteErrors(t *testing.T) {
	lg := NewLogger(newTree(t))
	assert.Error(t, lg.Init(failingWriter{}))
	assert.Error(t, lg.Log(0, failingWriter{}))
	assert.Error(t, lg.Close(failingWriter{}))
}

func TestLogger_QuotesTaxa(t *testing.T) {
	tree, err := multitype.FromSpec(types.NewConfig(1), &multitype.Spec{
		Height:   1,
		Children: []*multitype.Spec{{ID: "Homo sapiens"}, {ID: "Pan"}},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, NewLogger(tree).Init(&buf))
	assert.Contains(t, buf.String(), "\t\t\t'Homo sapiens'\n")
	assert.Contains(t, buf.String(), "\t\t\t1 'Homo sapiens',\n")
}

func TestLogger_RecordCorruptTree(t *testing.T) {
	tree := newTree(t)
	require.NoError(t, tree.Link(tree.Root().Nr(), 0, 2))

	_, err := NewLogger(tree).Record(0)
	assert.ErrorIs(t, err, types.ErrInconsistentTopology)
}
