package deploy

import (
	"fmt"

	state "github.com/ridgehq/ridge/internal/localstate"
	"github.com/ridgehq/ridge/internal/statestore"
)

// networkName returns the project-scoped bridge network name every
// container in the project joins.
func networkName(project string) string {
	return project + "-network"
}

// containerName returns the canonical name for replica index (1-based)
// of one color of an app or service, matching spec.md 3: single replica
// drops the index suffix, multi-replica keeps it.
func containerName(project, app string, color statestore.Color, replica, total int) string {
	if total <= 1 {
		return fmt.Sprintf("%s-%s-%s", project, app, color)
	}
	return fmt.Sprintf("%s-%s-%s-%d", project, app, color, replica)
}

// serviceAlias is the intra-project service-discovery alias, bare of
// project scoping.
func serviceAlias(app string) string {
	return app
}

// projectAlias is the globally-unambiguous alias the proxy routes to:
// the one the blue-green switch moves between colors.
func projectAlias(project, app string) string {
	return fmt.Sprintf("%s-%s", project, app)
}

// aliasesFor returns the dual DNS aliases a color's containers carry
// while they are eligible to receive traffic.
func aliasesFor(project, app string) []string {
	return []string{serviceAlias(app), projectAlias(project, app)}
}

// containerLabels returns the label set spec.md 3 requires on every
// blue-green container: project, app, color, replica, release, active.
func containerLabels(project, app string, color statestore.Color, replica int, release string, active bool) map[string]string {
	return map[string]string{
		"project": project,
		"app":     app,
		"color":   string(color),
		"replica": fmt.Sprintf("%d", replica),
		"release": release,
		"active":  fmt.Sprintf("%t", active),
	}
}

// edgeProxyContainerName is the stable name of the edge proxy container
// the coordinator installs/updates on every target host.
const edgeProxyContainerName = "ridge-proxy"

// lockFileFor returns the remote lockfile path guarding concurrent
// deploys of the same project/app on one host (spec.md 4.G Failure
// Handling: "the host executor refuses if it detects another
// deployment in progress"), reusing the same per-user state directory
// convention the host executor uses for its own local state.
func lockFileFor(sshUser, project, app string) string {
	return state.LockFile(sshUser, fmt.Sprintf("deploy-%s-%s", project, app))
}
