// Package k8s queries the target cluster for existing-release state. It
// never mutates the cluster; all changes go through the emitted command
// plan.
package k8s

import (
	"context"
	"fmt"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"
)

// Client wraps read-only Kubernetes API access.
type Client struct {
	clientset kubernetes.Interface
}

// NewClient creates a client from a kubeconfig file. An empty path uses
// the default loading rules (KUBECONFIG, ~/.kube/config).
func NewClient(kubeconfigPath string) (*Client, error) {
	config, err := clientcmd.BuildConfigFromFlags("", kubeconfigPath)
	if err != nil {
		return nil, fmt.Errorf("build kubeconfig: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("create clientset: %w", err)
	}

	return &Client{clientset: clientset}, nil
}

// NewClientForTesting wraps an existing clientset, e.g. a fake.
func NewClientForTesting(clientset kubernetes.Interface) *Client {
	return &Client{clientset: clientset}
}

// Ping verifies the cluster is reachable by asking for its version.
func (c *Client) Ping(_ context.Context) error {
	if _, err := c.clientset.Discovery().ServerVersion(); err != nil {
		return fmt.Errorf("cluster unreachable, check KUBECONFIG: %w", err)
	}
	return nil
}

// NamespaceExists reports whether the namespace is already present.
func (c *Client) NamespaceExists(ctx context.Context, namespace string) (bool, error) {
	_, err := c.clientset.CoreV1().Namespaces().Get(ctx, namespace, metav1.GetOptions{})
	if err != nil {
		return false, nil
	}
	return true, nil
}
