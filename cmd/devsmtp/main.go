// Command devsmtp runs the development mail-catcher: an SMTP server
// that captures everything clients send, an HTTP API to query the
// captured mailbox, plus migrate and export utilities.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "devsmtp",
		Short: "Development SMTP mail-catcher",
		Long: "devsmtp accepts SMTP traffic, captures every message instead of " +
			"delivering it, and serves the captured mailbox over HTTP.",
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to YAML config file")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newExportCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
