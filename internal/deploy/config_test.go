package deploy

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeTempSpec(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "project.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("writing temp project spec: %v", err)
	}
	return path
}

func TestLoadValidSpec(t *testing.T) {
	path := writeTempSpec(t, `
name: acme
hosts:
  - host-a
apps:
  - name: web
    image: acme/web:latest
    proxy:
      hostname: acme.example.com
      port: 8080
services:
  - name: redis
    image: redis:7
    ports:
      - "6379:6379"
`)

	spec, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if spec.Name != "acme" {
		t.Fatalf("expected project name acme, got %q", spec.Name)
	}
	if len(spec.Apps) != 1 || spec.Apps[0].Name != "web" {
		t.Fatalf("unexpected apps: %+v", spec.Apps)
	}
}

func TestValidateRejectsReservedName(t *testing.T) {
	spec := &ProjectSpec{
		Name: "acme",
		Apps: []AppSpec{{Name: "status", Image: "acme/web:latest"}},
	}
	err := spec.Validate()
	if err == nil {
		t.Fatal("expected error for reserved app name")
	}
	var derr *Error
	if !errors.As(err, &derr) || derr.Kind != KindConfig {
		t.Fatalf("expected KindConfig error, got %v", err)
	}
}

func TestValidateRejectsMissingImageAndBuild(t *testing.T) {
	spec := &ProjectSpec{
		Name: "acme",
		Apps: []AppSpec{{Name: "web"}},
	}
	if err := spec.Validate(); err == nil {
		t.Fatal("expected error when app has neither image nor build context")
	}
}

func TestValidateRejectsDuplicateNames(t *testing.T) {
	spec := &ProjectSpec{
		Name: "acme",
		Apps: []AppSpec{
			{Name: "web", Image: "acme/web:latest"},
		},
		Services: []ServiceSpec{
			{Name: "web", Image: "redis:7"},
		},
	}
	if err := spec.Validate(); err == nil {
		t.Fatal("expected error for duplicate app/service name")
	}
}

func TestValidatePortSpec(t *testing.T) {
	cases := map[string]bool{
		"80:8080":         true,
		"127.0.0.1:80:8080": true,
		"8080":            false,
		"80::8080":        false,
		"":                false,
	}
	for spec, wantOK := range cases {
		err := validatePortSpec(spec)
		if (err == nil) != wantOK {
			t.Errorf("validatePortSpec(%q): err=%v, want ok=%v", spec, err, wantOK)
		}
	}
}

func TestCheckHostPortConflicts(t *testing.T) {
	spec := &ProjectSpec{
		Name:  "acme",
		Hosts: []string{"host-a"},
		Services: []ServiceSpec{
			{Name: "redis", Image: "redis:7", Ports: []string{"6379:6379"}},
			{Name: "valkey", Image: "valkey:8", Ports: []string{"6379:6380"}},
		},
	}
	if err := spec.Validate(); err == nil {
		t.Fatal("expected host-port conflict error")
	}
}

func TestCheckHostPortConflictsDistinctHosts(t *testing.T) {
	spec := &ProjectSpec{
		Name: "acme",
		Services: []ServiceSpec{
			{Name: "redis", Image: "redis:7", Hosts: []string{"host-a"}, Ports: []string{"6379:6379"}},
			{Name: "valkey", Image: "valkey:8", Hosts: []string{"host-b"}, Ports: []string{"6379:6380"}},
		},
	}
	if err := spec.Validate(); err != nil {
		t.Fatalf("unexpected error for non-conflicting hosts: %v", err)
	}
}
