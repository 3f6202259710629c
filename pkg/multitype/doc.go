// Package multitype implements a rooted binary tree whose branches carry an
// ordered history of type changes.
//
// Nodes live in an arena indexed by node number. Leaves occupy numbers
// [0, LeafCount) and internal nodes [LeafCount, NodeCount). Parent and child
// links are numbers too, so the stored checkpoint array has its own linkage
// and never aliases live nodes.
//
// A sampler brackets each proposed edit with Store and, on rejection,
// Restore:
//
//	if err := tree.Store(); err != nil { ... }
//	propose(tree)
//	if !accept {
//		tree.Restore()
//	}
package multitype
