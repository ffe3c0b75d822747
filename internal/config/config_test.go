package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "ridge.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeTempConfig(t, `
acme:
  email: ops@example.com
hosts:
  - name: host-a
    address: 10.0.0.1
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Listen.HTTP != ":80" || cfg.Listen.HTTPS != ":443" {
		t.Fatalf("expected default listeners, got %+v", cfg.Listen)
	}
	if cfg.API.Addr != "127.0.0.1:8080" {
		t.Fatalf("expected default api addr, got %q", cfg.API.Addr)
	}
	if cfg.SSH.Port != 22 {
		t.Fatalf("expected default ssh port 22, got %d", cfg.SSH.Port)
	}
}

func TestLoadRejectsMissingEmail(t *testing.T) {
	path := writeTempConfig(t, `
hosts:
  - name: host-a
    address: 10.0.0.1
`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for missing acme.email")
	}
}

func TestValidateRejectsListenerCollision(t *testing.T) {
	cfg := defaults()
	cfg.ACME.Email = "ops@example.com"
	cfg.Listen.HTTPS = cfg.Listen.HTTP

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for colliding listeners")
	}
}

func TestValidateRejectsDuplicateHost(t *testing.T) {
	cfg := defaults()
	cfg.ACME.Email = "ops@example.com"
	cfg.Hosts = []HostConfig{
		{Name: "a", Address: "10.0.0.1"},
		{Name: "a", Address: "10.0.0.2"},
	}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for duplicate host name")
	}
}

func TestGetSecretOrEnvFallsBackToEnvironment(t *testing.T) {
	SetLoadedSecrets(map[string]string{"FOO": "bar"})
	defer SetLoadedSecrets(map[string]string{})

	if v := GetSecretOrEnv("FOO"); v != "bar" {
		t.Fatalf("expected secret table value, got %q", v)
	}

	t.Setenv("RIDGE_ENV_ONLY", "from-env")
	if v := GetSecretOrEnv("RIDGE_ENV_ONLY"); v != "from-env" {
		t.Fatalf("expected env fallback, got %q", v)
	}
}
