// Package flatten converts between multi-type trees and plain trees in which
// every type change is an explicit single-child node.
//
// Flatten splices one node per change event into the branch it lies on and
// tags every node with its type under the tree's type label. Unflatten
// collapses runs of single-child nodes back into per-branch change lists.
// The two are inverse up to node renumbering.
package flatten
