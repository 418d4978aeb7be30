// Command skillprompt composes skill prompt sections from the command line.
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
		Use:   "skillprompt",
		Short: "Compose budget-aware skill prompts",
		Long: `skillprompt packs skills into a system prompt section under a token budget.

Examples:
  skillprompt compose --dir ./skills --budget 3000
  skillprompt fetch --server http://localhost:8080 --workspace team-42`,
		SilenceUsage: true,
	}
	root.AddCommand(newComposeCmd(), newFetchCmd())
	return root
}
