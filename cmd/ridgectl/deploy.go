package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ridgehq/ridge/internal/deploy"
	"github.com/ridgehq/ridge/internal/output"
	"github.com/ridgehq/ridge/internal/rlog"
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy the project (the default action)",
	Long: `Deploy every app and service the project file names, blue-green
across every host it's scoped to:

  1. Build images locally (apps with a build context)
  2. Ensure the edge proxy and project network exist on each host
  3. Transfer the image and start the new color
  4. Health-gate the new color before any traffic reaches it
  5. Atomically switch traffic, then drain and remove the old color

Example:
  ridgectl deploy
  ridgectl deploy --host h1.example.com
  ridgectl deploy --force`,
	RunE: runDeploy,
}

func runDeploy(cmd *cobra.Command, args []string) error {
	log := output.DefaultLogger
	log.Header("ridgectl deploy: %s", spec.Name)

	sshClient := newSSHClient()
	defer sshClient.Close()

	coordinator := deploy.New(sshClient, spec.SSH.User, spec.SSH.APIToken, rlog.New(cmd.ErrOrStderr(), verbose).Component("deploy"))

	result, err := coordinator.Deploy(runCtx, spec, deploy.Options{
		Hosts:        hostFilter,
		ServicesOnly: servicesOnly,
		Force:        forceDeploy,
	})
	if err != nil {
		return err
	}

	for _, hr := range result.Hosts {
		switch {
		case hr.Err != nil:
			log.HostError(hr.Host, "%s: %v", hr.Name, hr.Err)
		case hr.Skipped:
			log.Host(hr.Host, "%s: unchanged, skipped", hr.Name)
		default:
			log.HostSuccess(hr.Host, "%s: deployed release %s", hr.Name, hr.Release)
		}
	}

	if result.Failed() {
		return fmt.Errorf("deployment %s had failures, see above", result.Release)
	}

	log.Success("Deployment %s complete", result.Release)
	return nil
}
