/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fulmenhq/docbridge/internal/bridge"
)

func newDiagnoseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diagnose [section|glob ...]",
		Short: "Classify every managed section without touching anything",
		Long: `Diagnose renders the desired content for each section, scans its
target file, and reports one of: match, drift, missing_file,
missing_marker, duplicate_marker, corrupted. Drift and missing_marker
are warnings; structural breakage is an error. Nothing is written.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(eng *bridge.Engine) (*bridge.Report, error) {
				return eng.Diagnose(args)
			})
		},
	}
}
