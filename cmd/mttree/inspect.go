package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/multitype/pkg/multitype"
)

// nodeRow is the JSON form of one row of the node array.
type nodeRow struct {
	Nr      int                `json:"nr"`
	ID      string             `json:"id,omitempty"`
	Height  float64            `json:"height"`
	Type    int                `json:"type"`
	Parent  int                `json:"parent"`
	Left    int                `json:"left"`
	Right   int                `json:"right"`
	Changes []multitype.Change `json:"changes,omitempty"`
}

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect FILE",
		Short: "Print the node array of a multi-type tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := a.loadTypedTree(cmd, args[0])
			if err != nil {
				return err
			}

			rows := make([]nodeRow, 0, tree.NodeCount())
			for _, n := range tree.Nodes() {
				rows = append(rows, nodeRow{
					Nr:      n.Nr(),
					ID:      n.ID(),
					Height:  n.Height(),
					Type:    n.Type(),
					Parent:  n.Parent(),
					Left:    n.Left(),
					Right:   n.Right(),
					Changes: n.Changes(),
				})
			}

			if a.jsonOut {
				return writeJSON(cmd, rows)
			}

			tbl := table.NewWriter()
			tbl.SetOutputMirror(cmd.OutOrStdout())
			tbl.SetStyle(table.StyleLight)
			tbl.AppendHeader(table.Row{"NR", "ID", "HEIGHT", "TYPE", "PARENT", "LEFT", "RIGHT", "CHANGES"})
			for _, r := range rows {
				tbl.AppendRow(table.Row{r.Nr, r.ID, r.Height, r.Type, link(r.Parent), link(r.Left), link(r.Right), formatChanges(r.Changes)})
			}
			tbl.AppendFooter(table.Row{"", "", "", "", "", "", "leaves", tree.LeafCount()})
			tbl.Render()
			return nil
		},
	}
}

func link(nr int) string {
	if nr == multitype.NoNode {
		return "-"
	}
	return strconv.Itoa(nr)
}

func formatChanges(cs []multitype.Change) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = fmt.Sprintf("%g->%d", c.Time, c.Type)
	}
	return strings.Join(parts, " ")
}
