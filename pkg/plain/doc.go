// Package plain provides an untyped rooted tree whose nodes carry a height, a
// number, an identifier and string-keyed metadata.
//
// Nodes have at most two children. A node with exactly one child is legal;
// flattened multi-type trees use such nodes to mark type changes along a
// branch.
package plain
