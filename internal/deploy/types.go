// Package deploy implements the Deployment Coordinator: it orchestrates
// a release across one or more SSH-reachable Docker hosts, driving the
// Host Executor (internal/docker + internal/ssh) to build infrastructure
// and containers, and the Management API (internal/api, reached over an
// SSH-tunneled curl call) to perform the atomic blue-green traffic
// switch once the new color is healthy.
package deploy

import (
	"fmt"
	"time"
)

// reservedNames are app/service names the coordinator refuses to deploy
// under, since they collide with ridgectl's own subcommands.
var reservedNames = map[string]bool{
	"init":   true,
	"status": true,
	"proxy":  true,
}

// ProjectSpec is one project's deployment configuration: its name, the
// hosts it can be deployed to, and the apps and services that make it
// up. Loaded from a project YAML file by Load.
type ProjectSpec struct {
	Name     string        `yaml:"name"`
	Hosts    []string      `yaml:"hosts"`
	SSH      SSHSpec       `yaml:"ssh"`
	Apps     []AppSpec     `yaml:"apps"`
	Services []ServiceSpec `yaml:"services"`
}

// SSHSpec configures how ridgectl dials the project's hosts, the same
// fields the daemon's internal/config.SSHConfig carries, but living in
// the project file since ridgectl never reads the daemon's own config.
type SSHSpec struct {
	User           string        `yaml:"user,omitempty"`
	KeyPath        string        `yaml:"key_path,omitempty"`
	Port           int           `yaml:"port,omitempty"`
	ConnectTimeout time.Duration `yaml:"connect_timeout,omitempty"`

	// APIToken authenticates against each host's Management API,
	// mirroring the daemon's APIConfig.Token. Resolved via
	// RIDGE_API_TOKEN first if set.
	APIToken string `yaml:"api_token,omitempty"`
}

// AppSpec describes one application requiring zero-downtime, TLS-fronted
// deployment.
type AppSpec struct {
	Name     string    `yaml:"name"`
	Image    string    `yaml:"image"`
	Build    BuildSpec `yaml:"build"`
	Hosts    []string  `yaml:"hosts,omitempty"`
	Replicas int       `yaml:"replicas,omitempty"`
	Env      EnvSpec   `yaml:"env"`
	Proxy    ProxySpec `yaml:"proxy"`

	// HealthPath is probed on the container's app port before a switch
	// is allowed to proceed. Defaults to "/up".
	HealthPath string `yaml:"health_path,omitempty"`
}

// ServiceSpec describes an auxiliary container (database, cache, ...).
// It has the same deployable shape as an AppSpec minus Build, plus port
// bindings and volumes. A ServiceSpec with a non-empty Proxy is deployed
// blue-green like an app; otherwise it is deployed stop-start.
type ServiceSpec struct {
	Name     string    `yaml:"name"`
	Image    string    `yaml:"image"`
	Hosts    []string  `yaml:"hosts,omitempty"`
	Replicas int       `yaml:"replicas,omitempty"`
	Env      EnvSpec   `yaml:"env"`
	Proxy    ProxySpec `yaml:"proxy,omitempty"`
	Ports    []string  `yaml:"ports,omitempty"`
	Volumes  []string  `yaml:"volumes,omitempty"`

	HealthPath string `yaml:"health_path,omitempty"`
}

// HasProxy reports whether this service has a proxy spec and therefore
// deploys blue-green instead of stop-start.
func (s ServiceSpec) HasProxy() bool {
	return s.Proxy.Hostname != ""
}

// BuildSpec configures the external build collaborator invoked once per
// app before transfer; ridge never builds images itself (spec.md 4.G
// step 3: "external collaborator").
type BuildSpec struct {
	Context    string            `yaml:"context,omitempty"`
	Dockerfile string            `yaml:"dockerfile,omitempty"`
	Args       map[string]string `yaml:"args,omitempty"`
}

// EnvSpec separates plaintext env from secret references, matching the
// fingerprint contract's distinction between "sorted env plain" and
// "sorted secret values" (spec.md 4.G).
type EnvSpec struct {
	Plain  map[string]string `yaml:"plain,omitempty"`
	Secret []string          `yaml:"secret,omitempty"`
}

// ProxySpec is the routing configuration for one hostname fronting an
// app or service.
type ProxySpec struct {
	Hostname        string        `yaml:"hostname"`
	Port            int           `yaml:"port"`
	SSL             bool          `yaml:"ssl,omitempty"`
	SSLRedirect     bool          `yaml:"ssl_redirect,omitempty"`
	ForwardHeaders  bool          `yaml:"forward_headers,omitempty"`
	ResponseTimeout time.Duration `yaml:"response_timeout,omitempty"`
}

// effectiveHealthPath returns path, defaulting to "/up" per spec.md's
// data model default for apps.
func effectiveHealthPath(path string) string {
	if path == "" {
		return "/up"
	}
	return path
}

// effectiveReplicas returns n, defaulting to 1.
func effectiveReplicas(n int) int {
	if n <= 0 {
		return 1
	}
	return n
}

// validateName rejects reserved and malformed app/service names, the
// first half of spec.md 4.G step 2's configuration validation.
func validateName(kind, name string) error {
	if name == "" {
		return NewError(KindConfig, fmt.Sprintf("%s name is required", kind))
	}
	if reservedNames[name] {
		return NewError(KindConfig, fmt.Sprintf("%s name %q is reserved", kind, name))
	}
	return nil
}
