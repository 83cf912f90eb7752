package commands

import (
	"github.com/spf13/cobra"

	"github.com/iitdistribution/falconprep/cmd/falconprep/handlers"
)

// Uninstall returns the command that emits the sensor removal plan.
func Uninstall() *cobra.Command {
	var opts handlers.UninstallOptions

	cmd := &cobra.Command{
		Use:   "uninstall",
		Short: "Emit the commands that remove the sensor release",
		Long: `Emit the commands that remove the sensor release.

If no sensor release is installed the command reports that there is
nothing to do and exits successfully. With confirmation (or
--remove-namespace in non-interactive mode) the plan also deletes the
sensor namespace and the saved configuration.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Uninstall(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Namespace, "namespace", "n", "", "Namespace the sensor is installed in")
	cmd.Flags().StringVar(&opts.Kubeconfig, "kubeconfig", "", "Path to kubeconfig (default: standard loading rules)")
	cmd.Flags().BoolVar(&opts.NonInteractive, "non-interactive", false, "Never prompt")
	cmd.Flags().BoolVar(&opts.RemoveNamespace, "remove-namespace", false, "Also plan namespace removal and delete the saved configuration")

	return cmd
}
