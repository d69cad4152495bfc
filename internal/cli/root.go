package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "quizbattle",
		Short:        "1v1 quiz battles against simulated opponents",
		SilenceUsage: true,
	}

	catalogPath := os.Getenv("CATALOG_PATH")
	cmd.PersistentFlags().StringVar(&catalogPath, "catalog", catalogPath, "path to a YAML question catalog (default: embedded)")

	cmd.AddCommand(newServeCmd(&catalogPath))
	cmd.AddCommand(newSimulateCmd(&catalogPath))
	cmd.AddCommand(newCatalogCmd(&catalogPath))
	return cmd
}
