/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/fulmenhq/docbridge/pkg/buildinfo"
	"github.com/fulmenhq/docbridge/pkg/exitcode"
	"github.com/fulmenhq/docbridge/pkg/logger"
)

// newRootCommand creates a fresh root command instance.
// This factory pattern allows tests to create isolated command trees without shared state.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docbridge",
		Short: "Managed documentation region engine",
		Long: `Docbridge reconciles machine-owned marker-delimited spans inside
host Markdown files with generated content, without touching anything
a human wrote around them.

Examples:
   docbridge diagnose           # Classify every managed section
   docbridge diff --section adr_index
   docbridge repair             # Bring drifted sections back in line
   docbridge adopt --section architecture_overview
   docbridge rollback --section adr_index --timestamp <key>`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			initializeLogger(cmd)
		},
	}

	cmd.PersistentFlags().String("config", "", "Path to bridge config (default: .docbridge/bridge.yaml)")
	cmd.PersistentFlags().String("log-level", "info", "Set log level (debug|info|warn|error)")
	cmd.PersistentFlags().Bool("json", false, "Emit the structured report envelope instead of tables")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	cmd.Version = buildinfo.BinaryVersion
	cmd.SetVersionTemplate("docbridge {{.Version}}\n")

	return cmd
}

// registerSubcommands adds all subcommands to the root command.
// This is called from init() for production and can be called explicitly in tests.
func registerSubcommands(cmd *cobra.Command) {
	cmd.AddCommand(newDiagnoseCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newDiffCmd())
	cmd.AddCommand(newRepairCmd())
	cmd.AddCommand(newSyncCmd())
	cmd.AddCommand(newAdoptCmd())
	cmd.AddCommand(newRollbackCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newVersionCmd())
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCommand()

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		code := exitcode.GeneralError
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			code = exitErr.code
		} else {
			logger.Error("command failed", logger.Err(err))
		}
		os.Exit(code)
	}
}

func init() {
	registerSubcommands(rootCmd)
}

// initializeLogger sets up the logger based on command flags. In JSON report
// mode only errors reach stderr, keeping stdout parseable and stderr quiet.
func initializeLogger(cmd *cobra.Command) {
	levelStr, _ := cmd.Flags().GetString("log-level")
	jsonReport, _ := cmd.Flags().GetBool("json")
	noColor, _ := cmd.Flags().GetBool("no-color")

	level := logger.ParseLevel(levelStr)
	if jsonReport && level < logger.ErrorLevel {
		level = logger.ErrorLevel
	}
	logger.Initialize(logger.Config{
		Level:    level,
		UseColor: !noColor,
		JSON:     jsonReport,
	})
}
