// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument
// parsing, flag binding, and validation. Command execution is delegated
// to handler functions in the handlers package.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the falconprep CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "falconprep",
		Short: "Prepare a Falcon sensor deployment for Kubernetes",
		Long: `falconprep prepares a CrowdStrike Falcon sensor deployment.

It collects tenant and registry settings, verifies network reachability
for the selected cloud region, mirrors the sensor image into a registry
you control, detects whether the sensor is already installed, and prints
the Helm and kubectl commands to run. The tool never touches the cluster
itself; every change goes through the commands it emits.`,
	}

	cmd.AddCommand(Prepare())
	cmd.AddCommand(Uninstall())
	cmd.AddCommand(Preflight())
	cmd.AddCommand(Version())
	cmd.AddCommand(Completion())

	return cmd
}
