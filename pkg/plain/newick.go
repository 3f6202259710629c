package plain

import (
	"strconv"
	"strings"
)

// NewickOptions controls how node labels are written.
type NewickOptions struct {
	// LeafNumbers writes leaves as nr+1 instead of their identifier, for use
	// with a NEXUS Translate table.
	LeafNumbers bool
}

// Newick returns the Newick representation of the subtree rooted at n. Each
// node's metadata string is written as a [&...] comment and each non-root
// node carries its branch length, the height difference to its parent.
func (n *Node) Newick(opts NewickOptions) string {
	var b strings.Builder
	n.writeNewick(&b, opts)
	return b.String()
}

func (n *Node) writeNewick(b *strings.Builder, opts NewickOptions) {
	if n.IsLeaf() {
		b.WriteString(n.label(opts))
	} else {
		b.WriteByte('(')
		first := true
		for _, c := range []*Node{n.left, n.right} {
			if c == nil {
				continue
			}
			if !first {
				b.WriteByte(',')
			}
			first = false
			c.writeNewick(b, opts)
		}
		b.WriteByte(')')
	}
	if n.metaString != "" {
		b.WriteString("[&")
		b.WriteString(n.metaString)
		b.WriteByte(']')
	}
	if n.parent != nil {
		b.WriteByte(':')
		b.WriteString(formatFloat(n.parent.height - n.height))
	}
}

func (n *Node) label(opts NewickOptions) string {
	if opts.LeafNumbers || n.id == "" {
		return strconv.Itoa(n.nr + 1)
	}
	return QuoteLabel(n.id)
}

// newickSpecial holds the characters that end an unquoted Newick label.
const newickSpecial = "()[]':;, \t\r\n"

// QuoteLabel wraps label in single quotes, doubling embedded quotes, when it
// contains a character with meaning in Newick.
func QuoteLabel(label string) string {
	if !strings.ContainsAny(label, newickSpecial) {
		return label
	}
	return "'" + strings.ReplaceAll(label, "'", "''") + "'"
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
