// Package cmd implements the travel-scout command-line interface.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// Version is overridden at build time with -ldflags
var Version = "dev"

var (
	// cfgFile is an optional YAML config file layered under the environment
	cfgFile string

	// debug forces debug logging regardless of LOG_LEVEL
	debug bool

	rootCmd = &cobra.Command{
		Use:   "travel-scout",
		Short: "Flight booking links and ranked accommodation recommendations",
		Long: `travel-scout resolves flight searches into booking links with a headless browser
and ranks nearby listings by price, rating and review sentiment.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "travel-scout version %s\n", Version)
		},
	})

	rootCmd.AddCommand(serveCommand())
	rootCmd.AddCommand(flightCommand())
	rootCmd.AddCommand(recommendCommand())
}
