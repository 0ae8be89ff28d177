// Command crewctl is a minimal operator harness over the engine and
// transport packages: validate a crew file, run it locally, or serve a
// node over the transport. It is deliberately thin — a convenience
// wrapper, not a specified module — following the teacher repo's
// cmd/relurpify pattern of one root cobra.Command with a handful of
// subcommands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "crewctl",
		Short: "Operate task-graph crews defined in YAML crew files",
	}
	root.AddCommand(newValidateCmd(), newRunCmd(), newNodeCmd())
	return root
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
