package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version    = "dev"
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "kquota",
	Short: "Usage quotas for applications and websites",
	Long: `kquota enforces daily time quotas on chosen applications and websites on
this device. Blocked targets get a negotiation screen, a timed session, a
cooldown screen or an outright block, and the allowance refills on a fixed
interval with an occasional random bonus.

Run without a subcommand to start the daemon.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServer,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "/etc/kquota/config.yaml", "Path to configuration file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "kquota: %v\n", err)
		os.Exit(1)
	}
}
