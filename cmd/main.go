package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	logLevel string
	timeout  time.Duration
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "upsolve",
	Short: "Codeforces upsolve tracker",
	Long: `upsolve finds the Codeforces problems a user left unsolved in contests
they took part in, and scrapes problem statements into raw and HTML form.

Available subcommands:
  serve   - Run the HTTP API, NATS worker and resync scheduler
  resolve - Print the upsolve set for a handle
  extract - Print the scraped statement of a problem URL`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 15*time.Minute, "Operation timeout for one-shot commands")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(extractCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
