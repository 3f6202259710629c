package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newTraceCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect and manage recorded sampler runs",
	}
	cmd.AddCommand(
		newTraceListCmd(a),
		newTraceShowCmd(a),
		newTraceExportCmd(a),
		newTraceImportCmd(a),
		newTraceDeleteCmd(a),
	)
	return cmd
}

func newTraceListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list [RUN_ID]",
		Short: "List runs, or the samples of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := a.attachBackend()
			if err != nil {
				return err
			}
			defer backend.Detach()

			tbl := table.NewWriter()
			tbl.SetOutputMirror(cmd.OutOrStdout())
			tbl.SetStyle(table.StyleLight)

			if len(args) == 0 {
				runs, err := backend.Runs()
				if err != nil {
					return err
				}
				if a.jsonOut {
					return writeJSON(cmd, runs)
				}
				tbl.AppendHeader(table.Row{"RUN", "LABEL", "TYPES", "SAMPLES", "CREATED"})
				for _, r := range runs {
					tbl.AppendRow(table.Row{r.RunID, r.Config.TypeLabel, r.Config.TypeCount, r.Samples, r.CreatedAt.Format(time.RFC3339)})
				}
				tbl.Render()
				return nil
			}

			samples, err := backend.Samples(args[0])
			if err != nil {
				return err
			}
			if a.jsonOut {
				return writeJSON(cmd, samples)
			}
			tbl.AppendHeader(table.Row{"SAMPLE", "NEWICK"})
			for _, s := range samples {
				tbl.AppendRow(table.Row{s.Sample, s.Newick})
			}
			tbl.Render()
			return nil
		},
	}
}

func newTraceShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show RUN_ID SAMPLE",
		Short: "Print a recorded sample as a multi-type tree document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sample, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("sample %q: %w", args[1], errUsage)
			}
			backend, err := a.attachBackend()
			if err != nil {
				return err
			}
			defer backend.Detach()

			tree, err := backend.LoadSample(args[0], sample)
			if err != nil {
				return err
			}
			out, err := tree.Spec().Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

func newTraceExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export RUN_ID PATH",
		Short: "Export the samples of a run as JSONL",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := a.attachBackend()
			if err != nil {
				return err
			}
			defer backend.Detach()
			return backend.ExportRun(args[0], args[1])
		},
	}
}

func newTraceImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import PATH",
		Short: "Import exported samples as a new run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.treeConfig()
			if err != nil {
				return err
			}
			backend, err := a.attachBackend()
			if err != nil {
				return err
			}
			defer backend.Detach()

			runID, err := backend.ImportRun(cfg, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), runID)
			return nil
		},
	}
}

func newTraceDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete RUN_ID",
		Short: "Delete a run and its samples",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := a.attachBackend()
			if err != nil {
				return err
			}
			defer backend.Detach()
			return backend.DeleteRun(args[0])
		},
	}
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
