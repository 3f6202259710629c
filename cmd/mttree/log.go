package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/multitype/internal/nexus"
	"github.com/mesh-intelligence/multitype/internal/sqlite"
	"github.com/mesh-intelligence/multitype/pkg/multitype"
	"github.com/mesh-intelligence/multitype/pkg/types"
)

func newLogCmd(a *app) *cobra.Command {
	var every int
	var outPath string
	var record bool

	cmd := &cobra.Command{
		Use:   "log FILE...",
		Short: "Write multi-type tree samples as a NEXUS tree log",
		Long: `Treats each FILE as one successive state of a sampled multi-type tree and
writes them as a NEXUS trees block, one "tree STATE_<n>" statement per file.
All files must share the same leaves under the same numbers. With --record,
each sample is also stored in the trace store under a new run.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if every <= 0 {
				return fmt.Errorf("--every must be positive: %w", errUsage)
			}

			tree, err := a.loadTypedTree(cmd, args[0])
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if outPath != "" {
				f, ferr := os.Create(outPath)
				if ferr != nil {
					return ferr
				}
				defer func() {
					if cerr := f.Close(); err == nil {
						err = cerr
					}
				}()
				w = f
			}

			var backend *sqlite.Backend
			var runID string
			if record {
				backend, err = a.attachBackend()
				if err != nil {
					return err
				}
				defer backend.Detach()
				if runID, err = backend.StartRun(tree.Config()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.ErrOrStderr(), "run", runID)
			}

			lg := nexus.NewLogger(tree, nexus.WithLogger(a.logger))
			if err := lg.Init(w); err != nil {
				return err
			}
			for i, path := range args {
				if i > 0 {
					next, err := a.loadTypedTree(cmd, path)
					if err != nil {
						return err
					}
					if err := sameLeaves(tree, next); err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
					if err := tree.AssignFrom(next); err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
				}
				sample := i * every
				if err := lg.Log(sample, w); err != nil {
					return err
				}
				if backend != nil {
					if err := backend.Record(runID, sample, tree); err != nil {
						return err
					}
				}
				a.logger.Debug("logged sample", "sample", sample, "file", path)
			}
			return lg.Close(w)
		},
	}
	cmd.Flags().IntVar(&every, "every", 1, "sample interval between successive files")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write the log to this file instead of stdout")
	cmd.Flags().BoolVar(&record, "record", false, "also record each sample in the trace store")
	return cmd
}

// sameLeaves checks that next numbers its leaves exactly as tree does, so the
// Translate table written for tree stays valid.
func sameLeaves(tree, next *multitype.Tree) error {
	if tree.LeafCount() != next.LeafCount() {
		return fmt.Errorf("%d leaves, want %d: %w", next.LeafCount(), tree.LeafCount(), types.ErrInconsistentTopology)
	}
	want, got := tree.Nodes(), next.Nodes()
	for i := 0; i < tree.LeafCount(); i++ {
		if want[i].ID() != got[i].ID() {
			return fmt.Errorf("leaf %d is %q, want %q: %w", i, got[i].ID(), want[i].ID(), types.ErrInconsistentTopology)
		}
	}
	return nil
}
