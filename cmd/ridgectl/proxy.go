package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ridgehq/ridge/internal/deploy"
	"github.com/ridgehq/ridge/internal/output"
	"github.com/ridgehq/ridge/internal/rlog"
)

var proxyCmd = &cobra.Command{
	Use:   "proxy",
	Short: "Inspect or edit one host's edge proxy routing entries",
}

var proxyHost string

var proxyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "List the routing entries tracked on --host",
	RunE:  runProxyStatus,
}

var proxyUpdateCmd = &cobra.Command{
	Use:   "update <hostname> <target>",
	Short: "Manually switch a hostname's traffic target on --host",
	Args:  cobra.ExactArgs(2),
	RunE:  runProxyUpdate,
}

var proxyDeleteHostCmd = &cobra.Command{
	Use:   "delete-host <hostname>",
	Short: "Remove a routing entry from --host",
	Args:  cobra.ExactArgs(1),
	RunE:  runProxyDeleteHost,
}

var proxyLogsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Tail the edge proxy container's logs on --host",
	RunE:  runProxyLogs,
}

var (
	proxyLogsTail   string
	proxyLogsFollow bool
)

func init() {
	proxyCmd.PersistentFlags().StringVar(&proxyHost, "host", "", "host to query (required)")
	_ = proxyCmd.MarkPersistentFlagRequired("host")

	proxyLogsCmd.Flags().StringVar(&proxyLogsTail, "tail", "200", "number of lines to show from the end of the log")
	proxyLogsCmd.Flags().BoolVar(&proxyLogsFollow, "follow", false, "stream new log lines")

	proxyCmd.AddCommand(proxyStatusCmd, proxyUpdateCmd, proxyDeleteHostCmd, proxyLogsCmd)
}

func newProxyCoordinator(cmd *cobra.Command) (*deploy.Coordinator, func()) {
	sshClient := newSSHClient()
	coordinator := deploy.New(sshClient, spec.SSH.User, spec.SSH.APIToken, rlog.New(cmd.ErrOrStderr(), verbose).Component("proxy"))
	return coordinator, func() { sshClient.Close() }
}

func runProxyStatus(cmd *cobra.Command, args []string) error {
	coordinator, closeFn := newProxyCoordinator(cmd)
	defer closeFn()

	entries, err := coordinator.ListHosts(proxyHost)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		healthy := "unhealthy"
		if e.Healthy {
			healthy = "healthy"
		}
		rows = append(rows, []string{e.Project, e.App, e.Hostname, e.Target, healthy})
	}

	output.DefaultLogger.Table([]string{"PROJECT", "APP", "HOSTNAME", "TARGET", "STATUS"}, rows)
	return nil
}

func runProxyUpdate(cmd *cobra.Command, args []string) error {
	coordinator, closeFn := newProxyCoordinator(cmd)
	defer closeFn()

	hostname, target := args[0], args[1]
	if err := coordinator.UpdateHost(proxyHost, hostname, target); err != nil {
		return err
	}

	output.DefaultLogger.Success("switched %s to %s on %s", hostname, target, proxyHost)
	return nil
}

func runProxyDeleteHost(cmd *cobra.Command, args []string) error {
	coordinator, closeFn := newProxyCoordinator(cmd)
	defer closeFn()

	hostname := args[0]
	if err := coordinator.DeleteHost(proxyHost, hostname); err != nil {
		return err
	}

	output.DefaultLogger.Success("removed routing entry for %s on %s", hostname, proxyHost)
	return nil
}

func runProxyLogs(cmd *cobra.Command, args []string) error {
	coordinator, closeFn := newProxyCoordinator(cmd)
	defer closeFn()

	logs, err := coordinator.ProxyLogs(proxyHost, proxyLogsTail, proxyLogsFollow)
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), logs)
	return nil
}
