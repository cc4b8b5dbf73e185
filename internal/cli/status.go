package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the connection to the server",
		Long:  "Tests the connection to the configured API server.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd)
		},
	}
}

func runStatus(cmd *cobra.Command) error {
	serverURL := getServerURL()
	out := cmd.OutOrStdout()

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()
	err := newAPIClient().Health(ctx)

	if isJSON() {
		status := map[string]interface{}{"server": serverURL, "reachable": err == nil}
		if err != nil {
			status["error"] = err.Error()
		}
		return printJSON(out, status)
	}

	if _, werr := fmt.Fprintf(out, "Server:  %s\n", serverURL); werr != nil {
		return werr
	}
	if err != nil {
		_, werr := fmt.Fprintf(out, "Status:  ✗ cannot reach server (%v)\n\nRun 'hr serve' or 'hr config set-server <url>'.\n", err)
		return werr
	}
	_, werr := fmt.Fprintln(out, "Status:  ✓ connected")
	return werr
}
