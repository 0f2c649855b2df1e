// Package cmd contains all CLI commands for the sheetchat binary.
package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/sheetchat/cmd/ask"
	"github.com/klytics/sheetchat/cmd/batch"
	"github.com/klytics/sheetchat/cmd/completion"
	cmdconfig "github.com/klytics/sheetchat/cmd/config"
	"github.com/klytics/sheetchat/cmd/doctor"
	cmdhistory "github.com/klytics/sheetchat/cmd/history"
	"github.com/klytics/sheetchat/cmd/read"
	"github.com/klytics/sheetchat/cmd/shell"
	"github.com/klytics/sheetchat/cmd/version"
	cmdwatch "github.com/klytics/sheetchat/cmd/watch"
	"github.com/klytics/sheetchat/internal/config"
)

var (
	jsonOutput bool
	verbose    bool
	noColor    bool
	format     string
)

// NewRootCommand creates and returns the root cobra command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sheetchat",
		Short: "Ask questions about a spreadsheet from your terminal",
		Long: `SheetChat — plain-language questions over .xlsx and .csv files.

Filter rows, average and total numeric columns, count values, and draw
bar charts or histograms without writing a formula.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if cfg, err := config.Load(); err == nil && !cfg.Output.Color {
				color.NoColor = true
			}
			if noColor {
				color.NoColor = true
			}
			if jsonOutput {
				os.Setenv("SHEETCHAT_JSON", "true")
			}
		},
	}

	// Global persistent flags
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as machine-readable JSON")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable ANSI color output")
	rootCmd.PersistentFlags().StringVar(&format, "format", "text", "Output format: text | json | csv (default from output.format)")

	rootCmd.AddCommand(ask.NewCommand())
	rootCmd.AddCommand(read.NewCommand())
	rootCmd.AddCommand(shell.NewCommand())
	rootCmd.AddCommand(batch.NewCommand())
	rootCmd.AddCommand(cmdwatch.NewCommand())
	rootCmd.AddCommand(cmdhistory.NewCommand())
	rootCmd.AddCommand(cmdconfig.NewCommand())
	rootCmd.AddCommand(doctor.NewCommand())
	rootCmd.AddCommand(completion.NewCommand(rootCmd))
	rootCmd.AddCommand(version.NewCommand())

	return rootCmd
}

// Execute runs the root command and handles any returned errors.
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %s\n", color.New(color.FgRed).Sprint("Error:"), err)
		os.Exit(1)
	}
}
