package deploy

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/ridgehq/ridge/internal/docker"
)

// localBuilder runs the external build collaborator (plain `docker
// build`) on the operator's own machine — spec.md 4.G step 3 names the
// builder "external collaborator", so the coordinator only shells out
// to it and never re-implements image construction. It reuses
// docker.BuildConfig's argument assembly (the same flags the host
// executor would pass over SSH) but executes the command locally via
// os/exec instead of through an ssh.Client.
type localBuilder struct{}

// Build invokes `docker build` locally, tagging the image
// <name>:<release>, and returns the resolved image reference.
func (localBuilder) Build(appName, release string, spec BuildSpec) (string, error) {
	tag := fmt.Sprintf("%s:%s", appName, release)

	cfg := &docker.BuildConfig{
		Context:    spec.Context,
		Dockerfile: spec.Dockerfile,
		Tag:        tag,
		Args:       spec.Args,
	}
	if cfg.Context == "" {
		cfg.Context = "."
	}

	cmdline := strings.TrimPrefix(cfg.BuildCommand(), "docker ")
	cmd := exec.Command("docker", strings.Fields(cmdline)...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", NewError(KindConfig, fmt.Sprintf("building %s: %v: %s", appName, err, string(output)))
	}

	return tag, nil
}

// Save writes a locally-present image to a tar file via `docker save`,
// returning its path. Saving once to a temp file (rather than a single
// in-memory pipe) lets the coordinator stream the same tar to every
// target host in parallel via docker.ImageManager.LoadFromStdin,
// satisfying spec.md 4.G step (b) ("stream + decompress over SSH; no
// registry") without serializing the fan-out on one pipe.
func (localBuilder) Save(imageRef string) (path string, cleanup func(), err error) {
	f, err := os.CreateTemp("", "ridge-image-*.tar")
	if err != nil {
		return "", nil, NewError(KindConfig, fmt.Sprintf("creating temp tar: %v", err))
	}
	tarPath := f.Name()
	_ = f.Close()

	cmd := exec.Command("docker", "save", "-o", tarPath, imageRef)
	output, err := cmd.CombinedOutput()
	if err != nil {
		_ = os.Remove(tarPath)
		return "", nil, NewError(KindConfig, fmt.Sprintf("docker save %s: %v: %s", imageRef, err, string(output)))
	}

	return tarPath, func() { _ = os.Remove(tarPath) }, nil
}
