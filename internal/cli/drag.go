package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/havenrise/internal/transfer"
)

func newDragCmd() *cobra.Command {
	var drop bool

	cmd := &cobra.Command{
		Use:   "drag <add|remove> <id>",
		Short: "Drag a property between the listing and favourites",
		Long: `Start a drag of a property and print the payload the server wrote.
With --drop the payload is delivered to the matching target: an add drag drops
on favourites and a remove drag drops on the listing.`,
		Example: `  hr drag add prop1 --drop
  hr drag remove prop1 --drop`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDrag(cmd, args[0], args[1], drop)
		},
	}

	cmd.Flags().BoolVar(&drop, "drop", false, "deliver the payload to its drop target")

	return cmd
}

// dropTarget is the API drop target that accepts kind.
func dropTarget(kind transfer.Kind) string {
	if kind == transfer.RemoveRequest {
		return "listing"
	}
	return "favourites"
}

func runDrag(cmd *cobra.Command, intent, id string, drop bool) error {
	kind, err := transfer.ParseKind(intent)
	if err != nil {
		return err
	}

	c := newAPIClient()
	data, err := c.StartTransfer(cmd.Context(), kind, id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !drop {
		if isJSON() {
			return printJSON(out, map[string]interface{}{"data": data})
		}
		_, err = fmt.Fprintf(out, "%s: %s\n", kind.Channel(), data.GetData(kind.Channel()))
		return err
	}

	resp, err := c.Drop(cmd.Context(), dropTarget(kind), data)
	if err != nil {
		return err
	}
	if isJSON() {
		return printJSON(out, resp)
	}

	warnNotPersisted(out, resp)
	switch {
	case resp.Applied && kind == transfer.AddRequest:
		_, err = fmt.Fprintf(out, "Dropped %s on favourites (%d total).\n", id, resp.Count)
	case resp.Applied:
		_, err = fmt.Fprintf(out, "Dropped %s on the listing (%d favourites left).\n", id, resp.Count)
	default:
		_, err = fmt.Fprintf(out, "Drop had no effect (%s).\n", resp.Result)
	}
	return err
}
