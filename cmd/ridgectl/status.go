package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ridgehq/ridge/internal/deploy"
	"github.com/ridgehq/ridge/internal/output"
	"github.com/ridgehq/ridge/internal/rlog"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show routing state across every host in the project",
	Long: `Query each host's Management API for its tracked routing
entries and print the active target and health for every app and
service.

Example:
  ridgectl status`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	log := output.DefaultLogger
	log.Header("ridgectl status: %s", spec.Name)

	sshClient := newSSHClient()
	defer sshClient.Close()

	coordinator := deploy.New(sshClient, spec.SSH.User, spec.SSH.APIToken, rlog.New(cmd.ErrOrStderr(), verbose).Component("status"))

	hosts := spec.Hosts
	if len(hostFilter) > 0 {
		hosts = hostFilter
	}

	rows := [][]string{}
	var anyErr error
	for _, host := range hosts {
		entries, err := coordinator.ListHosts(host)
		if err != nil {
			log.HostError(host, "%v", err)
			anyErr = err
			continue
		}
		for _, e := range entries {
			healthy := "unhealthy"
			if e.Healthy {
				healthy = "healthy"
			}
			rows = append(rows, []string{host, e.Project, e.App, e.Hostname, e.Target, healthy})
		}
	}

	log.Table([]string{"HOST", "PROJECT", "APP", "HOSTNAME", "TARGET", "STATUS"}, rows)

	if anyErr != nil {
		return fmt.Errorf("failed to query one or more hosts: %w", anyErr)
	}
	return nil
}
