package deploy

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads and validates a project deployment spec from path, the
// config.Load(path)-equivalent for the coordinator's own YAML document
// (distinct from the daemon's internal/config, which governs ridged
// itself rather than what it deploys).
func Load(path string) (*ProjectSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewError(KindConfig, fmt.Sprintf("reading project spec %s: %v", path, err))
	}

	var spec ProjectSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, NewError(KindConfig, fmt.Sprintf("parsing project spec %s: %v", path, err))
	}

	if spec.SSH.Port == 0 {
		spec.SSH.Port = 22
	}
	if spec.SSH.ConnectTimeout == 0 {
		spec.SSH.ConnectTimeout = 10 * time.Second
	}
	if v := os.Getenv("RIDGE_API_TOKEN"); v != "" {
		spec.SSH.APIToken = v
	}

	if err := spec.Validate(); err != nil {
		return nil, err
	}

	return &spec, nil
}

// Validate rejects reserved names, malformed port specs, and intra-
// project host-port conflicts, matching spec.md 4.G step 2.
func (p *ProjectSpec) Validate() error {
	if p.Name == "" {
		return NewError(KindConfig, "project name is required")
	}

	seen := make(map[string]bool)
	for _, app := range p.Apps {
		if err := validateName("app", app.Name); err != nil {
			return err
		}
		if seen[app.Name] {
			return NewError(KindConflict, fmt.Sprintf("duplicate app name %q", app.Name))
		}
		seen[app.Name] = true
		if app.Image == "" && app.Build.Context == "" {
			return NewError(KindConfig, fmt.Sprintf("app %q needs an image or a build context", app.Name))
		}
	}
	for _, svc := range p.Services {
		if err := validateName("service", svc.Name); err != nil {
			return err
		}
		if seen[svc.Name] {
			return NewError(KindConflict, fmt.Sprintf("duplicate app/service name %q", svc.Name))
		}
		seen[svc.Name] = true
		if svc.Image == "" {
			return NewError(KindConfig, fmt.Sprintf("service %q requires an image", svc.Name))
		}
		for _, port := range svc.Ports {
			if err := validatePortSpec(port); err != nil {
				return err
			}
		}
	}

	if err := checkHostPortConflicts(p); err != nil {
		return err
	}

	return nil
}

// validatePortSpec rejects malformed "host:container" or
// "ip:host:container" port bindings before any remote action runs.
func validatePortSpec(spec string) error {
	parts := strings.Split(spec, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return NewError(KindConfig, fmt.Sprintf("malformed port spec %q", spec))
	}
	for _, p := range parts {
		if p == "" {
			return NewError(KindConfig, fmt.Sprintf("malformed port spec %q", spec))
		}
	}
	return nil
}

// checkHostPortConflicts detects two services in the same project
// claiming the same host-side port binding, which would collide on any
// host both are deployed to.
func checkHostPortConflicts(p *ProjectSpec) error {
	type binding struct {
		host string
		port string
	}
	claimed := make(map[binding]string)

	for _, svc := range p.Services {
		hosts := svc.Hosts
		if len(hosts) == 0 {
			hosts = p.Hosts
		}
		for _, port := range svc.Ports {
			hostPort := hostPortOf(port)
			if hostPort == "" {
				continue
			}
			for _, h := range hosts {
				b := binding{host: h, port: hostPort}
				if owner, ok := claimed[b]; ok && owner != svc.Name {
					return NewError(KindConflict, fmt.Sprintf(
						"host port %s on %s is claimed by both %q and %q", hostPort, h, owner, svc.Name))
				}
				claimed[b] = svc.Name
			}
		}
	}
	return nil
}

// hostPortOf extracts the host-side port from a "host:container" or
// "ip:host:container" binding.
func hostPortOf(spec string) string {
	parts := strings.Split(spec, ":")
	switch len(parts) {
	case 2:
		return parts[0]
	case 3:
		return parts[1]
	default:
		return ""
	}
}
