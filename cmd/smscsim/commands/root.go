// Package commands implements the smscsim command line.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	// Global flags.
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "smscsim",
	Short: "SMPP SMSC protocol-conformance simulator",
	Long: `smscsim accepts SMPP connections, negotiates binds, accepts submit_sm,
and sends delivery receipts and mobile-originated messages back to bound ESMEs
once the scheduled delivery time has passed.

All configuration options can be overridden with SMSCSIM_<SECTION>_<KEY>
environment variables, e.g. SMSCSIM_SERVER_PORT=2776.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion records build information shown by the version command.
func SetVersion(version, commit, date string) {
	Version, Commit, Date = version, commit, date
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./smscsim.yaml if present)")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}
