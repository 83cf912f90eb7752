// Package main is the entry point for the falconprep CLI.
//
// falconprep prepares a CrowdStrike Falcon sensor deployment onto a
// Kubernetes cluster: it mirrors the sensor image into an
// operator-controlled registry, renders a Helm values file, and prints
// the exact commands to run. It never mutates the cluster itself.
//
// Commands: prepare, uninstall, preflight, version, completion.
//
// For detailed usage information, run:
//
//	falconprep --help
package main

import (
	"fmt"
	"os"

	"github.com/iitdistribution/falconprep/cmd/falconprep/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
