/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fulmenhq/docbridge/internal/bridge"
)

func newRepairCmd() *cobra.Command {
	var baseline map[string]string
	cmd := &cobra.Command{
		Use:   "repair [section|glob ...]",
		Short: "Rewrite drifted sections and insert missing markers",
		Long: `Repair backs up every file it is about to change, then atomically
rewrites drifted spans and inserts markers where the region is absent.
Files with structural breakage (missing, duplicate or corrupted
markers) are refused with a remediation hint.

Pass --expect section=hash (from a prior diagnose) to abort with a
conflict error if the file changed since it was diagnosed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(eng *bridge.Engine) (*bridge.Report, error) {
				return eng.Repair(args, baseline)
			})
		},
	}
	cmd.Flags().StringToStringVar(&baseline, "expect", nil,
		"Expected section=hash pairs observed at diagnose time")
	return cmd
}
