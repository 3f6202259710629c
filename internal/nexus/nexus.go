// Package nexus writes multi-type tree samples as a NEXUS trees block.
//
// A log is opened with Init, which writes the taxa block and a Translate
// table, receives one Log call per sample, and is terminated by Close.
// Each sample is the flattened tree in Newick form with leaves written by
// number.
package nexus

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/mesh-intelligence/multitype/pkg/flatten"
	"github.com/mesh-intelligence/multitype/pkg/multitype"
	"github.com/mesh-intelligence/multitype/pkg/plain"
)

// Logger writes NEXUS records for a tree.
type Logger struct {
	tree   *multitype.Tree
	logger *slog.Logger
}

// Option configures a Logger.
type Option func(*Logger)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(lg *Logger) {
		if l != nil {
			lg.logger = l
		}
	}
}

// NewLogger returns a Logger for tree.
func NewLogger(tree *multitype.Tree, opts ...Option) *Logger {
	lg := &Logger{tree: tree, logger: slog.Default()}
	for _, o := range opts {
		o(lg)
	}
	return lg
}

// Init writes the NEXUS header: the taxa block listing leaf identifiers and
// the opening of the trees block with a Translate table mapping nr+1 to each
// leaf identifier.
func (lg *Logger) Init(w io.Writer) error {
	leaves := lg.tree.Nodes()[:lg.tree.LeafCount()]

	var b strings.Builder
	b.WriteString("#NEXUS\n\n")
	b.WriteString("Begin taxa;\n")
	fmt.Fprintf(&b, "\tDimensions ntax=%d;\n", len(leaves))
	b.WriteString("\t\tTaxlabels\n")
	for _, n := range leaves {
		fmt.Fprintf(&b, "\t\t\t%s\n", plain.QuoteLabel(n.ID()))
	}
	b.WriteString("\t\t\t;\n")
	b.WriteString("End;\n")

	b.WriteString("Begin trees;\n")
	b.WriteString("\tTranslate\n")
	for i, n := range leaves {
		fmt.Fprintf(&b, "\t\t\t%d %s", n.Nr()+1, plain.QuoteLabel(n.ID()))
		if i < len(leaves)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString("\t\t\t;\n")

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("writing nexus header: %w", err)
	}
	lg.logger.Debug("nexus log opened", "taxa", len(leaves))
	return nil
}

// Record returns the tree statement for one sample.
func (lg *Logger) Record(sample int) (string, error) {
	newick, err := flatten.Newick(lg.tree, plain.NewickOptions{LeafNumbers: true})
	if err != nil {
		return "", fmt.Errorf("flattening sample %d: %w", sample, err)
	}
	return fmt.Sprintf("tree STATE_%d = %s", sample, newick), nil
}

// Log writes the current tree as sample number sample.
func (lg *Logger) Log(sample int, w io.Writer) error {
	rec, err := lg.Record(sample)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, rec+"\n"); err != nil {
		return fmt.Errorf("writing sample %d: %w", sample, err)
	}
	return nil
}

// Close terminates the trees block.
func (lg *Logger) Close(w io.Writer) error {
	if _, err := io.WriteString(w, "End;\n"); err != nil {
		return fmt.Errorf("closing nexus log: %w", err)
	}
	return nil
}
