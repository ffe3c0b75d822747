package docker

import "testing"

func TestNormalizeRegistry(t *testing.T) {
	tests := []struct {
		name   string
		server string
		want   string
	}{
		{name: "docker.io maps to index host", server: "docker.io", want: "https://index.docker.io/v1/"},
		{name: "registry-1.docker.io maps to index host", server: "registry-1.docker.io", want: "https://index.docker.io/v1/"},
		{name: "empty string maps to index host", server: "", want: "https://index.docker.io/v1/"},
		{name: "strips https prefix", server: "https://ghcr.io", want: "ghcr.io"},
		{name: "strips http prefix", server: "http://ghcr.io", want: "ghcr.io"},
		{name: "strips trailing slash", server: "ghcr.io/", want: "ghcr.io"},
		{name: "custom registry passes through", server: "quay.io", want: "quay.io"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeRegistry(tt.server)
			if got != tt.want {
				t.Fatalf("want %q got %q", tt.want, got)
			}
		})
	}
}

func TestResolveRegistry(t *testing.T) {
	tests := []struct {
		name  string
		alias string
		want  string
	}{
		{name: "dockerhub alias", alias: "dockerhub", want: "docker.io"},
		{name: "docker alias", alias: "docker", want: "docker.io"},
		{name: "ghcr alias", alias: "ghcr", want: "ghcr.io"},
		{name: "github alias", alias: "github", want: "ghcr.io"},
		{name: "gcr alias", alias: "gcr", want: "gcr.io"},
		{name: "ecr alias", alias: "ecr", want: "amazonaws.com"},
		{name: "acr alias", alias: "acr", want: "azurecr.io"},
		{name: "quay alias", alias: "quay", want: "quay.io"},
		{name: "gitlab alias", alias: "gitlab", want: "registry.gitlab.com"},
		{name: "alias is case-insensitive", alias: "GHCR", want: "ghcr.io"},
		{name: "unknown name passes through lowercased", alias: "Registry.Example.Com", want: "registry.example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveRegistry(tt.alias)
			if got != tt.want {
				t.Fatalf("want %q got %q", tt.want, got)
			}
		})
	}
}

func TestGetAuthToken(t *testing.T) {
	m := NewRegistryManager(&Client{})

	token := m.GetAuthToken(&RegistryConfig{Username: "deploy", Password: "s3cret"})

	// base64("deploy:s3cret")
	want := "ZGVwbG95OnMzY3JldA=="
	if token != want {
		t.Fatalf("want %q got %q", want, token)
	}
}

func TestGetAuthToken_EmptyCredentials(t *testing.T) {
	m := NewRegistryManager(&Client{})

	token := m.GetAuthToken(&RegistryConfig{})

	// base64(":")
	want := "Og=="
	if token != want {
		t.Fatalf("want %q got %q", want, token)
	}
}
