package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFavCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "fav",
		Aliases: []string{"favourites"},
		Short:   "Manage favourites",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List favourites in the order they were added",
			Args:  cobra.NoArgs,
			RunE:  runFavList,
		},
		&cobra.Command{
			Use:   "add <id>",
			Short: "Add a property to favourites",
			Args:  cobra.ExactArgs(1),
			RunE:  runFavAdd,
		},
		&cobra.Command{
			Use:   "remove <id>",
			Short: "Remove a property from favourites",
			Args:  cobra.ExactArgs(1),
			RunE:  runFavRemove,
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove all favourites",
			Args:  cobra.NoArgs,
			RunE:  runFavClear,
		},
	)

	return cmd
}

func runFavList(cmd *cobra.Command, args []string) error {
	resp, err := newAPIClient().ListFavourites(cmd.Context())
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), resp)
	}
	return printFavourites(cmd.OutOrStdout(), resp.Favourites)
}

func runFavAdd(cmd *cobra.Command, args []string) error {
	resp, err := newAPIClient().AddFavourite(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), resp)
	}
	out := cmd.OutOrStdout()
	warnNotPersisted(out, resp)
	if resp.Added {
		_, err = fmt.Fprintf(out, "Added %s to favourites (%d total).\n", args[0], resp.Count)
	} else {
		_, err = fmt.Fprintf(out, "%s is already in your favourites.\n", args[0])
	}
	return err
}

func runFavRemove(cmd *cobra.Command, args []string) error {
	resp, err := newAPIClient().RemoveFavourite(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), resp)
	}
	out := cmd.OutOrStdout()
	warnNotPersisted(out, resp)
	if resp.Removed {
		_, err = fmt.Fprintf(out, "Removed %s from favourites (%d left).\n", args[0], resp.Count)
	} else {
		_, err = fmt.Fprintf(out, "%s is not in your favourites.\n", args[0])
	}
	return err
}

func runFavClear(cmd *cobra.Command, args []string) error {
	resp, err := newAPIClient().ClearFavourites(cmd.Context())
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), resp)
	}
	out := cmd.OutOrStdout()
	warnNotPersisted(out, resp)
	_, err = fmt.Fprintln(out, "Favourites cleared.")
	return err
}
