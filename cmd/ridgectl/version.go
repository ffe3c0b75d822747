package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/ridgehq/ridge/pkg/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the ridgectl version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ridgectl %s\n", version.Version)
		fmt.Printf("  Commit: %s\n", version.Commit)
		fmt.Printf("  Built:  %s\n", version.BuildDate)
		fmt.Printf("  Go:     %s\n", runtime.Version())
		fmt.Printf("  OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}
