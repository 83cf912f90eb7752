package commands

import (
	"github.com/spf13/cobra"

	"github.com/iitdistribution/falconprep/cmd/falconprep/handlers"
)

// Preflight returns the standalone connectivity-check command.
func Preflight() *cobra.Command {
	var region string

	cmd := &cobra.Command{
		Use:   "preflight",
		Short: "Check that a region's required domains are reachable",
		Long: `Check that the selected region's required domains accept TLS
connections on port 443. The same check runs automatically at the start
of prepare; this command runs it on its own, e.g. to validate firewall
changes.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Preflight(cmd.Context(), region)
		},
	}

	cmd.Flags().StringVar(&region, "region", "", "Falcon cloud region (default: saved config, then eu-1)")

	return cmd
}
