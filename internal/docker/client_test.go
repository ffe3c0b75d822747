package docker

import (
	"strings"
	"testing"
)

func TestBuildRunCommand_Basic(t *testing.T) {
	cfg := &ContainerConfig{
		Name:   "myapp",
		Image:  "myapp:latest",
		Detach: true,
	}

	cmd := cfg.BuildRunCommand()

	if !strings.HasPrefix(cmd, "docker ") {
		t.Errorf("expected command to start with 'docker ', got: %s", cmd)
	}
	if !strings.Contains(cmd, "run") {
		t.Error("expected 'run' in command")
	}
	if !strings.Contains(cmd, "-d") {
		t.Error("expected '-d' flag for detach")
	}
	if !strings.Contains(cmd, "--name myapp") {
		t.Error("expected '--name myapp'")
	}
	if !strings.Contains(cmd, "myapp:latest") {
		t.Error("expected image 'myapp:latest'")
	}
}

func TestBuildRunCommand_WithPorts(t *testing.T) {
	cfg := &ContainerConfig{
		Image: "nginx:latest",
		Ports: []string{"8080:80", "8443:443"},
	}

	cmd := cfg.BuildRunCommand()

	if !strings.Contains(cmd, "-p 8080:80") {
		t.Error("expected '-p 8080:80'")
	}
	if !strings.Contains(cmd, "-p 8443:443") {
		t.Error("expected '-p 8443:443'")
	}
}

func TestBuildRunCommand_WithVolumes(t *testing.T) {
	cfg := &ContainerConfig{
		Image:   "nginx:latest",
		Volumes: []string{"/data:/app/data"},
	}

	cmd := cfg.BuildRunCommand()

	if !strings.Contains(cmd, "-v /data:/app/data") {
		t.Error("expected '-v /data:/app/data'")
	}
}

func TestBuildRunCommand_WithNetwork(t *testing.T) {
	cfg := &ContainerConfig{
		Image:   "nginx:latest",
		Network: "ridge-network",
	}

	cmd := cfg.BuildRunCommand()

	if !strings.Contains(cmd, "--network ridge-network") {
		t.Error("expected '--network ridge-network'")
	}
}

func TestBuildRunCommand_WithRestart(t *testing.T) {
	cfg := &ContainerConfig{
		Image:   "nginx:latest",
		Restart: "unless-stopped",
	}

	cmd := cfg.BuildRunCommand()

	if !strings.Contains(cmd, "--restart unless-stopped") {
		t.Error("expected '--restart unless-stopped'")
	}
}

func TestBuildRunCommand_WithResources(t *testing.T) {
	cfg := &ContainerConfig{
		Image:  "nginx:latest",
		Memory: "512m",
		CPUs:   "0.5",
	}

	cmd := cfg.BuildRunCommand()

	if !strings.Contains(cmd, "--memory 512m") {
		t.Error("expected '--memory 512m'")
	}
	if !strings.Contains(cmd, "--cpus 0.5") {
		t.Error("expected '--cpus 0.5'")
	}
}

func TestBuildRunCommand_WithRemove(t *testing.T) {
	cfg := &ContainerConfig{
		Image:  "nginx:latest",
		Remove: true,
	}

	cmd := cfg.BuildRunCommand()

	if !strings.Contains(cmd, "--rm") {
		t.Error("expected '--rm' flag")
	}
}

func TestBuildRunCommand_WithLabels(t *testing.T) {
	cfg := &ContainerConfig{
		Image:  "nginx:latest",
		Labels: map[string]string{"project": "demo", "active": "true"},
	}

	cmd := cfg.BuildRunCommand()

	if !strings.Contains(cmd, "-l project=demo") {
		t.Error("expected '-l project=demo'")
	}
	if !strings.Contains(cmd, "-l active=true") {
		t.Error("expected '-l active=true'")
	}
}

func TestBuildRunCommand_WithCommand(t *testing.T) {
	cfg := &ContainerConfig{
		Image:   "ruby:latest",
		Command: []string{"rails", "server"},
	}

	cmd := cfg.BuildRunCommand()

	if !strings.HasSuffix(cmd, "ruby:latest rails server") {
		t.Errorf("expected command to end with 'ruby:latest rails server', got: %s", cmd)
	}
}

func TestBuildRunCommand_WithHealthcheck(t *testing.T) {
	cfg := &ContainerConfig{
		Image:          "myapp:latest",
		HealthCmd:      "curl -f http://localhost:3000/up",
		HealthInterval: "10s",
		HealthTimeout:  "5s",
		HealthRetries:  3,
	}

	cmd := cfg.BuildRunCommand()

	if !strings.Contains(cmd, "--health-cmd") {
		t.Error("expected '--health-cmd'")
	}
	if !strings.Contains(cmd, "--health-interval 10s") {
		t.Error("expected '--health-interval 10s'")
	}
	if !strings.Contains(cmd, "--health-timeout 5s") {
		t.Error("expected '--health-timeout 5s'")
	}
	if !strings.Contains(cmd, "--health-retries 3") {
		t.Error("expected '--health-retries 3'")
	}
}

func TestBuildExecCommand_Basic(t *testing.T) {
	cfg := &ExecConfig{
		Container: "myapp",
		Command:   []string{"ls", "-la"},
	}

	cmd := cfg.BuildExecCommand()

	if !strings.HasPrefix(cmd, "docker ") {
		t.Errorf("expected command to start with 'docker ', got: %s", cmd)
	}
	if !strings.Contains(cmd, "exec") {
		t.Error("expected 'exec' in command")
	}
	if !strings.Contains(cmd, "myapp") {
		t.Error("expected container name 'myapp'")
	}
	if !strings.HasSuffix(cmd, "ls -la") {
		t.Errorf("expected command to end with 'ls -la', got: %s", cmd)
	}
}

func TestBuildExecCommand_Interactive(t *testing.T) {
	cfg := &ExecConfig{
		Container:   "myapp",
		Command:     []string{"/bin/sh"},
		Interactive: true,
		TTY:         true,
	}

	cmd := cfg.BuildExecCommand()

	if !strings.Contains(cmd, "-i") {
		t.Error("expected '-i' flag for interactive")
	}
	if !strings.Contains(cmd, "-t") {
		t.Error("expected '-t' flag for TTY")
	}
}

func TestBuildExecCommand_WithWorkDirAndUser(t *testing.T) {
	cfg := &ExecConfig{
		Container: "myapp",
		Command:   []string{"ls"},
		User:      "app",
		WorkDir:   "/srv/app",
	}

	cmd := cfg.BuildExecCommand()

	if !strings.Contains(cmd, "-u app") {
		t.Error("expected '-u app'")
	}
	if !strings.Contains(cmd, "-w /srv/app") {
		t.Error("expected '-w /srv/app'")
	}
}

func TestBuildLogsCommand_Basic(t *testing.T) {
	cfg := &LogsConfig{
		Container: "myapp",
	}

	cmd := cfg.BuildLogsCommand()

	if !strings.HasPrefix(cmd, "docker ") {
		t.Errorf("expected command to start with 'docker ', got: %s", cmd)
	}
	if !strings.Contains(cmd, "logs") {
		t.Error("expected 'logs' in command")
	}
}

func TestBuildLogsCommand_WithFollow(t *testing.T) {
	cfg := &LogsConfig{
		Container: "myapp",
		Follow:    true,
		Tail:      "100",
	}

	cmd := cfg.BuildLogsCommand()

	if !strings.Contains(cmd, "-f") {
		t.Error("expected '-f' flag for follow")
	}
	if !strings.Contains(cmd, "--tail 100") {
		t.Error("expected '--tail 100'")
	}
}

func TestBuildLogsCommand_WithSinceUntil(t *testing.T) {
	cfg := &LogsConfig{
		Container: "myapp",
		Since:     "10m",
		Until:     "1m",
	}

	cmd := cfg.BuildLogsCommand()

	if !strings.Contains(cmd, "--since 10m") {
		t.Error("expected '--since 10m'")
	}
	if !strings.Contains(cmd, "--until 1m") {
		t.Error("expected '--until 1m'")
	}
}
