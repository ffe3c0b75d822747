package deploy

import (
	"fmt"

	"github.com/ridgehq/ridge/internal/docker"
	"github.com/ridgehq/ridge/internal/statestore"
)

// currentColor queries container labels on host to find which color is
// currently active for project/app, per spec.md 4.G step (c): "query
// container labels on host; next color is the opposite. On first
// deploy, default to blue."
func currentColor(containers *docker.ContainerManager, host, project, app string) (statestore.Color, bool, error) {
	running, err := containers.List(host, true, map[string]string{
		"label": fmt.Sprintf("project=%s", project),
	})
	if err != nil {
		return "", false, wrapErr(KindDocker, host, "determine-color", err)
	}

	for _, c := range running {
		if labelMatches(c, "app", app) && labelMatches(c, "active", "true") {
			if color, ok := c.Labels["color"]; ok {
				return statestore.Color(color), true, nil
			}
		}
	}

	// No active color found: first deploy for this project/app on host.
	return statestore.Blue, false, nil
}

func labelMatches(c docker.Container, key, value string) bool {
	v, ok := c.Labels[key]
	return ok && v == value
}
