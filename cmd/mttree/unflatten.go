package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/multitype/pkg/flatten"
	"github.com/mesh-intelligence/multitype/pkg/multitype"
	"github.com/mesh-intelligence/multitype/pkg/plain"
)

func newUnflattenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "unflatten FILE",
		Short: "Convert a plain tree with single-child change nodes to a multi-type tree",
		Long: `Reads a plain tree document (YAML, "-" for stdin) in which every node
carries a numeric type tag under the configured type label, collapses runs of
single-child nodes into branch change lists and writes the multi-type tree as
YAML.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.treeConfig()
			if err != nil {
				return err
			}
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			spec, err := plain.ParseSpec(data)
			if err != nil {
				return err
			}
			flat, err := spec.Build()
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			tree, err := flatten.Unflatten(cfg, flat, multitype.WithLogger(a.logger))
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			a.logger.Info("unflattened tree",
				"flat_nodes", flat.NodeCount(),
				"nodes", tree.NodeCount(),
				"changes", tree.TotalChangeCount())

			out, err := tree.Spec().Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
