// Package cli defines the cobra command tree for havenrise.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/havenrise/internal/client"
)

var (
	flagFormat string
	flagConfig string
	flagDB     string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "hr",
		Short:         "Search property listings and keep a shortlist",
		Long:          "HavenRise searches a catalog of properties for sale and keeps a shortlist of favourites. Run the API with 'hr serve' and use the other commands against it.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if flagFormat != "text" && flagFormat != "json" {
				return fmt.Errorf("invalid --format %q (must be text or json)", flagFormat)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "server config file (default: ./config.yaml or ~/.havenrise/config.yaml)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path for favourites (default: ~/.havenrise/havenrise.db)")

	root.AddCommand(
		newServeCmd(),
		newSearchCmd(),
		newShowCmd(),
		newFavCmd(),
		newDragCmd(),
		newConfigCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)

	return root
}

// newAPIClient creates an HTTP client for the havenrise API.
func newAPIClient() *client.Client {
	return client.New(getServerURL())
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}
