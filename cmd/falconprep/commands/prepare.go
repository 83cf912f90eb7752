package commands

import (
	"github.com/spf13/cobra"

	"github.com/iitdistribution/falconprep/cmd/falconprep/handlers"
)

// Prepare returns the command for the main deployment-preparation flow.
//
// Flags override saved answers and wizard defaults; environment variables
// (FALCON_CID, FALCON_CLIENT_ID, FALCON_CLIENT_SECRET, ...) sit between
// the two.
func Prepare() *cobra.Command {
	var opts handlers.PrepareOptions

	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Mirror the sensor image and emit the deployment commands",
		Long: `Prepare a Falcon sensor deployment.

The command walks through these steps:

  1. Check that helm and kubectl are installed and recent enough
  2. Collect configuration (saved answers, environment, wizard)
  3. Verify the region's required domains are reachable on port 443
  4. Exchange API credentials for an OAuth token
  5. Fetch registry pull credentials from the Falcon API
  6. Mirror the sensor image into your local registry
  7. Detect whether a sensor release is already installed
  8. Render the Helm values file and print the commands to run

Saved answers live under the per-user config directory and are offered
for reuse on the next run. The client secret is never saved unless
--persist-secret is given.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Prepare(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.Action, "action", "install", "Requested action: install or upgrade")
	cmd.Flags().StringVar(&opts.Region, "region", "", "Falcon cloud region (us-1, us-2, eu-1, us-gov-1, us-gov-2)")
	cmd.Flags().StringVar(&opts.Registry, "registry", "", "Local registry host the image is mirrored into")
	cmd.Flags().StringVar(&opts.Tag, "tag", "", "Sensor image tag, or \"latest\" to resolve the newest")
	cmd.Flags().StringVarP(&opts.Namespace, "namespace", "n", "", "Target namespace for the sensor")
	cmd.Flags().StringVar(&opts.Backend, "backend", "", "Sensor backend: bpf or kernel")
	cmd.Flags().StringVar(&opts.Kubeconfig, "kubeconfig", "", "Path to kubeconfig (default: standard loading rules)")
	cmd.Flags().BoolVar(&opts.NonInteractive, "non-interactive", false, "Never prompt; all answers must come from flags, environment or saved config")
	cmd.Flags().BoolVar(&opts.PersistSecret, "persist-secret", false, "Also save the API client secret in the config file")

	return cmd
}
