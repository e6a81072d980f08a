package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/plain-reactive/plain/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		errors.Fprint(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "plain",
		Short: "Encapsulated widgets with incremental reconciliation",
		Long: `Plain renders custom-element widgets on the server and keeps
browsers in sync by streaming minimal edit scripts.

  • serve   run the development host for a project
  • diff    print the edit script between two markup files
  • render  render a markup or markdown page through a widget`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		serveCmd(),
		diffCmd(),
		renderCmd(),
		versionCmd(),
	)
	return root
}

// success prints a success message.
func success(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", fmt.Sprintf(format, args...))
}
