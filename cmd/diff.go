/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fulmenhq/docbridge/internal/bridge"
)

func newDiffCmd() *cobra.Command {
	var section string
	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Show a unified diff between the on-disk span and the desired content",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, func(eng *bridge.Engine) (*bridge.Report, error) {
				return eng.Diff(section)
			})
		},
	}
	cmd.Flags().StringVar(&section, "section", "", "Section to diff (required)")
	_ = cmd.MarkFlagRequired("section")
	return cmd
}
