package multitype

import (
	"fmt"

	"github.com/mesh-intelligence/multitype/pkg/types"
)

// Store checkpoints the live tree into the stored array. Stored nodes are
// overwritten field by field and their change lists reuse existing storage;
// no node is allocated. Links in the stored array are numbers and therefore
// resolve against stored nodes only.
//
// Store fails with ErrInconsistentTopology if the live topology is corrupt or
// the node count changed since the last RebuildArrays.
func (t *Tree) Store() error {
	if len(t.stored) != len(t.nodes) {
		return fmt.Errorf("stored array holds %d nodes, live tree %d: %w", len(t.stored), len(t.nodes), types.ErrInconsistentTopology)
	}
	if _, err := t.checkTopology(t.nodes, t.root); err != nil {
		return err
	}

	// The root has no parent; every other index links to its parent by number.
	t.storedRoot = t.root
	t.stored[t.root].assign(&t.nodes[t.root])
	t.stored[t.root].parent = NoNode
	for i := range t.nodes {
		if i == t.root {
			continue
		}
		t.stored[i].assign(&t.nodes[i])
	}

	t.logger.Debug("stored tree", "nodes", len(t.nodes), "root", t.root)
	return nil
}

// Restore makes the last stored checkpoint live again. The live and stored
// arrays swap roles, then the new stored array is resynchronised with the
// restored state so that a second Restore is a no-op.
func (t *Tree) Restore() {
	t.nodes, t.stored = t.stored, t.nodes
	t.root, t.storedRoot = t.storedRoot, t.root

	for i := range t.nodes {
		t.stored[i].assign(&t.nodes[i])
	}
	t.storedRoot = t.root

	t.logger.Debug("restored tree", "nodes", len(t.nodes), "root", t.root)
}
