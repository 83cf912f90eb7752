package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/iitdistribution/falconprep/internal/config"
	"github.com/iitdistribution/falconprep/internal/k8s"
	"github.com/iitdistribution/falconprep/internal/plan"
)

// UninstallOptions are the uninstall command's flag values.
type UninstallOptions struct {
	Namespace       string
	Kubeconfig      string
	NonInteractive  bool
	RemoveNamespace bool

	// ConfigDir overrides the per-user config directory, for tests.
	ConfigDir string
}

// Uninstall detects the sensor release and prints the removal plan. With
// no release installed it reports a no-op and exits successfully.
func Uninstall(ctx context.Context, opts UninstallOptions) error {
	if err := checkDefaultPrereqs().Error(); err != nil {
		return err
	}

	dir := opts.ConfigDir
	if dir == "" {
		dir = config.DefaultDir()
	}
	store := newStore(dir)

	namespace := opts.Namespace
	if namespace == "" {
		saved, err := store.Load()
		if err != nil && !errors.Is(err, config.ErrCorrupt) {
			return err
		}
		if saved != nil {
			namespace = saved.Namespace
		}
	}
	if namespace == "" {
		namespace = config.DefaultNamespace
	}

	cluster, err := newClusterClient(opts.Kubeconfig)
	if err != nil {
		return err
	}
	if err := cluster.Ping(ctx); err != nil {
		return err
	}

	state, err := newDetector(opts.Kubeconfig).ReleaseState(namespace, k8s.ReleaseName)
	if err != nil {
		return err
	}
	log.Printf("Sensor release in namespace %s: %s", namespace, state)

	effective, _, err := plan.Decide(config.ActionUninstall, state)
	if err != nil {
		return err
	}
	if effective == plan.ActionNone {
		fmt.Println(plan.NewNoopPlan().Render())
		return nil
	}

	removeNamespace := opts.RemoveNamespace
	if !opts.NonInteractive && stdinIsTerminal() {
		removeNamespace, err = confirmUninstallCleanup(ctx, namespace)
		if err != nil {
			return err
		}
	}

	fmt.Println(plan.NewUninstallPlan(namespace, removeNamespace).Render())

	if removeNamespace {
		return store.Delete()
	}
	return nil
}
