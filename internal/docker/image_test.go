package docker

import (
	"strings"
	"testing"
)

func TestBuildCommand_Basic(t *testing.T) {
	cfg := &BuildConfig{
		Context: ".",
		Tag:     "myapp:latest",
	}

	cmd := cfg.BuildCommand()

	if !strings.HasPrefix(cmd, "docker ") {
		t.Errorf("expected command to start with 'docker ', got: %s", cmd)
	}
	if !strings.Contains(cmd, "build") {
		t.Error("expected 'build' in command")
	}
	if !strings.Contains(cmd, "-t myapp:latest") {
		t.Error("expected '-t myapp:latest'")
	}
	if !strings.HasSuffix(cmd, ".") {
		t.Errorf("expected context to be last, got: %s", cmd)
	}
}

func TestBuildCommand_WithDockerfile(t *testing.T) {
	cfg := &BuildConfig{
		Context:    ".",
		Dockerfile: "Dockerfile.prod",
	}

	cmd := cfg.BuildCommand()

	if !strings.Contains(cmd, "-f Dockerfile.prod") {
		t.Error("expected '-f Dockerfile.prod'")
	}
}

func TestBuildCommand_WithBuildArgs(t *testing.T) {
	cfg := &BuildConfig{
		Context: ".",
		Args:    map[string]string{"RELEASE": "a1b2c3d"},
	}

	cmd := cfg.BuildCommand()

	if !strings.Contains(cmd, "--build-arg RELEASE=a1b2c3d") {
		t.Error("expected '--build-arg RELEASE=a1b2c3d'")
	}
}

func TestBuildCommand_WithPlatform(t *testing.T) {
	cfg := &BuildConfig{
		Context:  ".",
		Platform: "linux/arm64",
	}

	cmd := cfg.BuildCommand()

	if !strings.Contains(cmd, "--platform linux/arm64") {
		t.Error("expected '--platform linux/arm64'")
	}
}

func TestBuildCommand_NoCacheAndPull(t *testing.T) {
	cfg := &BuildConfig{
		Context: ".",
		NoCache: true,
		Pull:    true,
	}

	cmd := cfg.BuildCommand()

	if !strings.Contains(cmd, "--no-cache") {
		t.Error("expected '--no-cache'")
	}
	if !strings.Contains(cmd, "--pull") {
		t.Error("expected '--pull'")
	}
}

func TestBuildCommand_DefaultsContextToDot(t *testing.T) {
	cfg := &BuildConfig{Tag: "myapp:latest"}

	cmd := cfg.BuildCommand()

	if !strings.HasSuffix(cmd, " .") {
		t.Errorf("expected empty context to default to '.', got: %s", cmd)
	}
}

func TestBuildxCommand_Basic(t *testing.T) {
	cfg := &BuildxConfig{
		BuildConfig: BuildConfig{Context: ".", Tag: "myapp:latest"},
		Push:        true,
	}

	cmd := cfg.BuildxCommand()

	if !strings.HasPrefix(cmd, "docker buildx build") {
		t.Errorf("expected command to start with 'docker buildx build', got: %s", cmd)
	}
	if !strings.Contains(cmd, "--push") {
		t.Error("expected '--push'")
	}
	if !strings.Contains(cmd, "-t myapp:latest") {
		t.Error("expected '-t myapp:latest'")
	}
}

func TestBuildxCommand_WithBuilderAndLoad(t *testing.T) {
	cfg := &BuildxConfig{
		BuildConfig: BuildConfig{Context: "."},
		Builder:     "ridge-builder",
		Load:        true,
	}

	cmd := cfg.BuildxCommand()

	if !strings.Contains(cmd, "--builder ridge-builder") {
		t.Error("expected '--builder ridge-builder'")
	}
	if !strings.Contains(cmd, "--load") {
		t.Error("expected '--load'")
	}
}

func TestParseImageRef(t *testing.T) {
	tests := []struct {
		name           string
		image          string
		wantRegistry   string
		wantRepository string
		wantTag        string
	}{
		{
			name:           "official image no tag",
			image:          "nginx",
			wantRegistry:   "docker.io",
			wantRepository: "library/nginx",
			wantTag:        "latest",
		},
		{
			name:           "namespaced image with tag",
			image:          "myproject/web:a1b2c3d",
			wantRegistry:   "docker.io",
			wantRepository: "myproject/web",
			wantTag:        "a1b2c3d",
		},
		{
			name:           "custom registry with tag",
			image:          "ghcr.io/acme/web:v2",
			wantRegistry:   "ghcr.io",
			wantRepository: "acme/web",
			wantTag:        "v2",
		},
		{
			name:           "digest reference splits on the last colon",
			image:          "myproject/web@sha256:abcdef",
			wantRegistry:   "docker.io",
			wantRepository: "myproject/web@sha256",
			wantTag:        "abcdef",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry, repository, tag := ParseImageRef(tt.image)
			if registry != tt.wantRegistry {
				t.Errorf("registry: want %q got %q", tt.wantRegistry, registry)
			}
			if repository != tt.wantRepository {
				t.Errorf("repository: want %q got %q", tt.wantRepository, repository)
			}
			if tag != tt.wantTag {
				t.Errorf("tag: want %q got %q", tt.wantTag, tag)
			}
		})
	}
}

func TestBuildImageRef(t *testing.T) {
	tests := []struct {
		name       string
		registry   string
		repository string
		tag        string
		want       string
	}{
		{
			name:       "docker hub official image omits registry and library prefix",
			registry:   "docker.io",
			repository: "library/nginx",
			tag:        "latest",
			want:       "nginx",
		},
		{
			name:       "docker hub namespaced image keeps tag",
			registry:   "docker.io",
			repository: "myproject/web",
			tag:        "a1b2c3d",
			want:       "myproject/web:a1b2c3d",
		},
		{
			name:       "custom registry always included",
			registry:   "ghcr.io",
			repository: "acme/web",
			tag:        "v2",
			want:       "ghcr.io/acme/web:v2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildImageRef(tt.registry, tt.repository, tt.tag)
			if got != tt.want {
				t.Fatalf("want %q got %q", tt.want, got)
			}
		})
	}
}
