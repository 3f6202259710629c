// Package types defines the configuration and the standard error types shared
// by the multi-type tree packages.
//
// A multi-type tree is a rooted binary tree whose branches carry an ordered
// history of type changes. The tree itself lives in package multitype; the
// conversion to and from plain single-child-node trees lives in package
// flatten.
package types
