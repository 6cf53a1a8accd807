// Command mysqladm is the CLI front end over the broker's RPC protocol:
// each subcommand maps directly onto one request kind, so the bootstrap and
// protocol layers have a real caller exercising them end to end. It is
// deliberately thin — no colour, no shell completion, and no interactive
// prompts beyond the $EDITOR handoff for privilege editing and the password
// prompt of "user passwd".
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagSocketPath string
	flagConfigPath string
	flagJSON       bool
)

var rootCmd = &cobra.Command{
	Use:           "mysqladm",
	Short:         "Administer your own MySQL/MariaDB databases and users",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagSocketPath, "socket", "", "connect to this control socket instead of resolving one")
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "start a short-lived server from this server config instead of resolving a socket")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "emit machine-readable JSON instead of a table")

	rootCmd.AddCommand(
		dbCmd,
		userCmd,
		privilegeCmd,
		whoamiCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "mysqladm:", err)
		os.Exit(1)
	}
}
