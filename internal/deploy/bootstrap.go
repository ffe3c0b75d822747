package deploy

import (
	"fmt"

	"github.com/ridgehq/ridge/internal/docker"
)

// EdgeProxyImage is the image tag installed as the edge proxy container
// on every target host. Overridable for tests and for pinning a
// specific ridged release.
var EdgeProxyImage = "ridgehq/ridge:latest"

// edgeProxyStateDir is the volume mount backing the edge proxy's own
// state store and certificate directory on the host.
const edgeProxyStateDir = "/var/lib/ridge"

// ensureInfrastructure is spec.md 4.G step (a): the project network
// exists (create if missing) and the edge proxy container is running,
// connected to the project network. A missing proxy is installed from
// EdgeProxyImage and a stopped one is started; an existing proxy is
// never compared against EdgeProxyImage, so an out-of-date one is not
// replaced.
func (c *Coordinator) ensureInfrastructure(host, project string) error {
	netName := networkName(project)
	if err := c.networks.EnsureProjectNetwork(host, netName); err != nil {
		return wrapErr(KindDocker, host, "ensure-network", err)
	}

	running, err := c.containers.IsRunning(host, edgeProxyContainerName)
	if err != nil {
		return wrapErr(KindDocker, host, "ensure-proxy", err)
	}
	if running {
		return c.ensureProxyOnNetwork(host, netName)
	}

	exists, err := c.containers.Exists(host, edgeProxyContainerName)
	if err != nil {
		return wrapErr(KindDocker, host, "ensure-proxy", err)
	}
	if exists {
		// Present but stopped: a prior crash or manual stop. Restart
		// rather than recreate so its state directory mount survives.
		if err := c.containers.Start(host, edgeProxyContainerName); err != nil {
			return wrapErr(KindDocker, host, "ensure-proxy", err)
		}
		return c.ensureProxyOnNetwork(host, netName)
	}

	cfg := &docker.ContainerConfig{
		Name:  edgeProxyContainerName,
		Image: EdgeProxyImage,
		Ports: []string{"80:80", "443:443"},
		Volumes: []string{
			fmt.Sprintf("%s:%s", edgeProxyStateDir, edgeProxyStateDir),
			"/var/run/docker.sock:/var/run/docker.sock",
		},
		Network: netName,
		Restart: "unless-stopped",
		Detach:  true,
		Labels:  map[string]string{"project": "ridge", "component": "edge-proxy"},
	}

	if _, err := c.containers.Run(host, cfg); err != nil {
		return wrapErr(KindDocker, host, "install-proxy", err)
	}

	return nil
}

// ensureProxyOnNetwork attaches an already-running edge proxy to a
// newly created project network; a proxy installed before this
// project existed won't be a member of its network yet.
func (c *Coordinator) ensureProxyOnNetwork(host, netName string) error {
	if err := c.containers.ConnectNetwork(host, edgeProxyContainerName, netName); err != nil {
		// Already connected is not an error; docker returns non-zero for
		// a redundant connect, which ConnectNetwork already surfaces as
		// an error string we can't structurally distinguish here, so
		// treat it as best-effort and proceed.
		return nil
	}
	return nil
}
