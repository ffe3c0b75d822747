package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a new project deployment file",
	Long: `Create a starter ridge.yaml in the current directory.

Example:
  ridgectl init`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	if existing := findProjectFile(); existing != "" {
		return usageError{fmt.Errorf("project file already exists at %s", existing)}
	}

	if err := os.WriteFile("ridge.yaml", []byte(projectTemplate), 0o644); err != nil {
		return fmt.Errorf("writing ridge.yaml: %w", err)
	}

	fmt.Println("Created ridge.yaml")
	fmt.Println()
	fmt.Println("Edit it to name your hosts, apps, and services, then run:")
	fmt.Println("  ridgectl deploy")
	return nil
}

const projectTemplate = `name: myproj

hosts:
  - h1.example.com

ssh:
  user: root
  # key_path: ~/.ssh/id_ed25519

apps:
  - name: web
    image: myproj/web:latest
    replicas: 1
    proxy:
      hostname: example.com
      port: 3000
      ssl: true
      ssl_redirect: true
    health_path: /up
    env:
      plain:
        RAILS_ENV: production
      secret:
        - DATABASE_URL

services:
  - name: redis
    image: redis:7
    volumes:
      - redis-data:/data
`
