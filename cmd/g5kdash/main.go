// Package main provides the entry point for the g5kdash CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/numpex/exa-di-g5k-dashboard/cmd/g5kdash/commands"
	"github.com/numpex/exa-di-g5k-dashboard/pkg/version"
)

var (
	configPath string
	verbose    bool
	quiet      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "g5kdash",
		Short: "G5K Dashboard - Benchmark results explorer for the Grid'5000 testing repository",
		Long: `g5kdash reads benchmark results committed to a GitLab repository and
presents them as tables, timing charts and step trend reports.

Commands:
  apps      List applications with published results
  results   Show the current results of one application
  history   Reconstruct the revision history of one result file
  render    Render the timing charts of one result file to HTML
  serve     Serve results over HTTP
  validate  Validate a result file against the schema
  mcp       Run the MCP stdio server`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output")

	// Add commands.
	rootCmd.AddCommand(commands.NewAppsCommand())
	rootCmd.AddCommand(commands.NewResultsCommand())
	rootCmd.AddCommand(commands.NewHistoryCommand())
	rootCmd.AddCommand(commands.NewRenderCommand())
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewMCPCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "g5kdash %s\n", version.String())
		},
	}
}
