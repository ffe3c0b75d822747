package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ridgehq/ridge/internal/deploy"
	"github.com/ridgehq/ridge/internal/output"
	"github.com/ridgehq/ridge/internal/ssh"
)

var (
	configPath   string
	verbose      bool
	forceDeploy  bool
	servicesOnly bool
	hostFilter   []string

	spec *deploy.ProjectSpec

	runCtx, cancelRun = context.WithCancel(context.Background())
	interrupted       bool

	rootCmd = &cobra.Command{
		Use:   "ridgectl",
		Short: "Deploy apps and manage routing for a ridge-fronted fleet",
		Long: `ridgectl drives blue-green deployments and edge-proxy routing
across a fleet of SSH-reachable Docker hosts running ridged.

Get started:
  ridgectl init     Create a new project deployment file
  ridgectl deploy   Deploy the project (the default action)
  ridgectl status   Show routing state across the fleet
  ridgectl proxy    Inspect or edit one host's routing entries`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runDeploy,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "init" || cmd.Name() == "version" || cmd.Name() == "help" {
				return nil
			}

			output.DefaultLogger.SetVerbose(verbose)

			path := configPath
			if path == "" {
				path = findProjectFile()
			}
			if path == "" {
				return usageError{fmt.Errorf("no project file found; run 'ridgectl init' to create one")}
			}

			var err error
			spec, err = deploy.Load(path)
			return err
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the project deployment file (default: ridge.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&forceDeploy, "force", "f", false, "bypass the fingerprint skip and redeploy unconditionally")
	rootCmd.PersistentFlags().BoolVar(&servicesOnly, "services-only", false, "deploy only services, skipping apps")
	rootCmd.PersistentFlags().StringSliceVar(&hostFilter, "host", nil, "restrict the action to these hosts (repeatable)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(deployCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(proxyCmd)
}

// Execute runs the root command.
func Execute() error {
	// Deploy actions honor operator interrupt by canceling the
	// coordinator's context; spec.md §5 requires in-flight stages to
	// finish or abort cleanly rather than leaving a torn deploy behind.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		interrupted = true
		cancelRun()
	}()

	return rootCmd.Execute()
}

func findProjectFile() string {
	for _, p := range []string{"ridge.yaml", "ridge.yml", ".ridge/ridge.yaml"} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// newSSHClient builds the shared SSH client used to reach every host
// spec names, from the project file's SSH block.
func newSSHClient() *ssh.Client {
	cfg := &ssh.Config{
		User:           spec.SSH.User,
		Port:           spec.SSH.Port,
		ConnectTimeout: spec.SSH.ConnectTimeout,
	}
	if spec.SSH.KeyPath != "" {
		cfg.Keys = []string{spec.SSH.KeyPath}
	}
	return ssh.NewClient(cfg)
}

// usageError marks an error as a CLI usage mistake (exit code 2)
// instead of a general failure (exit code 1), per spec.md §6.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// exitCodeFor maps a returned error to spec.md §6's exit codes: 0
// success, 1 general failure, 2 usage error, 130 interrupt.
func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	if interrupted {
		return 130
	}
	var uerr usageError
	if errors.As(err, &uerr) {
		return 2
	}
	fmt.Fprintln(os.Stderr, "ridgectl:", err)
	return 1
}
