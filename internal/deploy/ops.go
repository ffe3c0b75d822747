package deploy

import (
	"net/http"

	"github.com/ridgehq/ridge/internal/docker"
)

// HostEntry is the CLI-facing view of one routing entry tracked by a
// host's Management API, returned by ListHosts.
type HostEntry struct {
	Project  string
	App      string
	Hostname string
	Target   string
	Healthy  bool
}

// ListHosts queries host's Management API for every routing entry it
// tracks, backing `ridgectl proxy status` and `ridgectl status`.
func (c *Coordinator) ListHosts(host string) ([]HostEntry, error) {
	entries, err := c.api.ListHosts(host)
	if err != nil {
		return nil, err
	}
	out := make([]HostEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, HostEntry{
			Project:  e.Project,
			App:      e.App,
			Hostname: e.Hostname,
			Target:   e.Target,
			Healthy:  e.Healthy,
		})
	}
	return out, nil
}

// UpdateHost switches hostname's traffic target on host, backing
// `ridgectl proxy update`.
func (c *Coordinator) UpdateHost(host, hostname, target string) error {
	return c.api.Switch(host, hostname, target)
}

// DeleteHost removes hostname's routing entry on host, backing
// `ridgectl proxy delete-host`.
func (c *Coordinator) DeleteHost(host, hostname string) error {
	_, err := c.api.request(host, http.MethodDelete, "/api/hosts/"+hostname, nil)
	return err
}

// ProxyLogs tails the edge proxy container's logs on host, backing
// `ridgectl proxy logs`.
func (c *Coordinator) ProxyLogs(host string, tail string, follow bool) (string, error) {
	cfg := &docker.LogsConfig{
		Container: edgeProxyContainerName,
		Tail:      tail,
		Follow:    follow,
	}
	result, err := c.containers.Logs(host, cfg)
	if err != nil {
		return "", wrapErr(KindDocker, host, "proxy-logs", err)
	}
	if result.ExitCode != 0 {
		return "", wrapErr(KindDocker, host, "proxy-logs", NewError(KindDocker, result.Stderr))
	}
	return result.Stdout, nil
}
