// Command ridgectl is the operator-facing CLI: it loads a project's
// deployment spec, drives the Deployment Coordinator across every
// SSH-reachable host it names, and inspects or edits routing state via
// each host's loopback Management API.
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(exitCodeFor(err))
	}
}
