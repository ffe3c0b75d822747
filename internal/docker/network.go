package docker

import (
	"fmt"
	"strings"
)

// Network represents a Docker network
type Network struct {
	ID     string
	Name   string
	Driver string
	Scope  string
}

// NetworkManager handles network operations used by the deployment
// coordinator to give each project its own isolated bridge network and
// to attach the dual DNS aliases a blue-green switch depends on.
type NetworkManager struct {
	client *Client
}

// NewNetworkManager creates a new network manager
func NewNetworkManager(client *Client) *NetworkManager {
	return &NetworkManager{client: client}
}

// Exists checks whether a network already exists on the host
func (m *NetworkManager) Exists(host, name string) (bool, error) {
	result, err := m.client.Execute(host, "network", "inspect", name, "--format", "'{{.Id}}'")
	if err != nil {
		return false, err
	}
	return result.ExitCode == 0, nil
}

// EnsureProjectNetwork creates the project-scoped bridge network if it
// doesn't already exist. Idempotent: safe to call on every deploy.
func (m *NetworkManager) EnsureProjectNetwork(host, name string) error {
	exists, err := m.Exists(host, name)
	if err != nil {
		return fmt.Errorf("checking network %s: %w", name, err)
	}
	if exists {
		return nil
	}

	result, err := m.client.Execute(host, "network", "create", "--driver", "bridge", name)
	if err != nil {
		return err
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("failed to create network %s: %s", name, result.Stderr)
	}
	return nil
}

// Remove removes a network
func (m *NetworkManager) Remove(host, name string) error {
	result, err := m.client.Execute(host, "network", "rm", name)
	if err != nil {
		return err
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("failed to remove network %s: %s", name, result.Stderr)
	}
	return nil
}

// List lists networks on a host
func (m *NetworkManager) List(host string) ([]Network, error) {
	result, err := m.client.Execute(host, "network", "ls", "--format", "'{{.ID}}|{{.Name}}|{{.Driver}}|{{.Scope}}'")
	if err != nil {
		return nil, err
	}
	if result.ExitCode != 0 {
		return nil, fmt.Errorf("failed to list networks: %s", result.Stderr)
	}

	var networks []Network
	for _, line := range strings.Split(strings.TrimSpace(result.Stdout), "\n") {
		line = strings.Trim(line, "'")
		if line == "" {
			continue
		}
		parts := strings.Split(line, "|")
		if len(parts) < 4 {
			continue
		}
		networks = append(networks, Network{ID: parts[0], Name: parts[1], Driver: parts[2], Scope: parts[3]})
	}
	return networks, nil
}

// connectWithAliasesArgs builds the `docker network connect` argument
// list for attaching container to network under the given aliases,
// preserving alias order so the project-scoped alias and the app-local
// alias are always requested in the same order they're documented in
// (spec.md §3: "<app> ... and <project>-<app>").
func connectWithAliasesArgs(network, container string, aliases []string) []string {
	args := []string{"network", "connect"}
	for _, alias := range aliases {
		args = append(args, "--alias", alias)
	}
	return append(args, network, container)
}

// ConnectWithAliases attaches a container to a network with one or more
// DNS aliases. Blue-green traffic switching is implemented entirely by
// which color currently holds the project-scoped alias on this network;
// see ReconnectWithAliases for the atomic re-attach step.
func (m *NetworkManager) ConnectWithAliases(host, network, container string, aliases []string) error {
	args := connectWithAliasesArgs(network, container, aliases)

	result, err := m.client.Execute(host, args...)
	if err != nil {
		return err
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("failed to connect %s to %s with aliases %v: %s", container, network, aliases, result.Stderr)
	}
	return nil
}

// Disconnect removes a container from a network entirely, dropping
// whatever aliases it held.
func (m *NetworkManager) Disconnect(host, network, container string) error {
	result, err := m.client.Execute(host, "network", "disconnect", network, container)
	if err != nil {
		return err
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("failed to disconnect %s from %s: %s", container, network, result.Stderr)
	}
	return nil
}

// ReconnectWithAliases is the atomic-enough traffic switch primitive:
// disconnect then reconnect with a new alias set. Docker networking has
// no single "retarget alias" verb, so the switch is two calls; the
// window between them is covered by the proxy's own cached-upstream TTL
// rather than by any transactional guarantee at the Docker level.
func (m *NetworkManager) ReconnectWithAliases(host, network, container string, aliases []string) error {
	if err := m.Disconnect(host, network, container); err != nil {
		return err
	}
	return m.ConnectWithAliases(host, network, container, aliases)
}
