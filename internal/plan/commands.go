package plan

import (
	"fmt"

	"github.com/iitdistribution/falconprep/internal/k8s"
)

// Helm chart coordinates for the sensor.
const (
	HelmRepoName = "crowdstrike"
	HelmRepoURL  = "https://crowdstrike.github.io/falcon-helm"
	ChartName    = HelmRepoName + "/falcon-sensor"
)

// Pod-security labels the sensor namespace needs: the sensor runs
// privileged.
var podSecurityLabels = []string{
	"pod-security.kubernetes.io/enforce=privileged",
	"pod-security.kubernetes.io/audit=privileged",
	"pod-security.kubernetes.io/warn=privileged",
}

const (
	rolloutTimeout = "120s"
	logTailLines   = 50
)

// NewDeployPlan builds the install or upgrade plan. Namespace setup
// commands are included only for a fresh install; creation is skipped
// when the namespace already exists, the labels are applied either way.
func NewDeployPlan(action Action, warning, namespace, valuesPath string, namespaceExists bool) *Plan {
	p := &Plan{Action: action, Warning: warning, ValuesPath: valuesPath}

	p.add("Add the CrowdStrike Helm repository",
		fmt.Sprintf("helm repo add %s %s", HelmRepoName, HelmRepoURL))
	p.add("Refresh Helm repositories", "helm repo update")

	if action == ActionInstall {
		if !namespaceExists {
			p.add("Create the sensor namespace",
				fmt.Sprintf("kubectl create namespace %s", namespace))
		}
		for _, label := range podSecurityLabels {
			p.add("Label namespace for privileged pods",
				fmt.Sprintf("kubectl label ns --overwrite %s %s", namespace, label))
		}
	}

	p.add(fmt.Sprintf("Deploy the sensor (%s)", action),
		fmt.Sprintf("helm upgrade --install %s %s -n %s --create-namespace -f %s",
			k8s.ReleaseName, ChartName, namespace, valuesPath))

	p.verify("Wait for the sensor daemonset to roll out",
		fmt.Sprintf("kubectl rollout status daemonset/%s -n %s --timeout=%s",
			k8s.ReleaseName, namespace, rolloutTimeout))
	p.verify("Check sensor logs",
		fmt.Sprintf("kubectl logs -n %s -l app.kubernetes.io/name=%s --tail=%d",
			namespace, k8s.ReleaseName, logTailLines))

	return p
}

// NewUninstallPlan builds the uninstall plan. Namespace removal is
// appended only when the operator confirmed the cleanup.
func NewUninstallPlan(namespace string, removeNamespace bool) *Plan {
	p := &Plan{Action: ActionUninstall}

	p.add("Uninstall the sensor release",
		fmt.Sprintf("helm uninstall %s -n %s", k8s.ReleaseName, namespace))
	if removeNamespace {
		p.add("Delete the sensor namespace",
			fmt.Sprintf("kubectl delete namespace %s --ignore-not-found", namespace))
	}

	return p
}

// NewNoopPlan is the uninstall-with-nothing-installed case.
func NewNoopPlan() *Plan {
	return &Plan{Action: ActionNone}
}

func (p *Plan) add(description, cmd string) {
	p.Commands = append(p.Commands, Command{Description: description, Cmd: cmd})
}

func (p *Plan) verify(description, cmd string) {
	p.Commands = append(p.Commands, Command{Description: description, Cmd: cmd, Verification: true})
}
