/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fulmenhq/docbridge/internal/bridge"
)

func newAdoptCmd() *cobra.Command {
	var section string
	cmd := &cobra.Command{
		Use:   "adopt",
		Short: "Freeze the current on-disk span as the desired baseline",
		Long: `Adopt reverses the direction of truth for one section: the text
currently between its markers becomes the new desired content, so the
next diagnose reports match. Only sections in match or drift can be
adopted; broken markers must be fixed first.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, func(eng *bridge.Engine) (*bridge.Report, error) {
				return eng.Adopt(section)
			})
		},
	}
	cmd.Flags().StringVar(&section, "section", "", "Section to adopt (required)")
	_ = cmd.MarkFlagRequired("section")
	return cmd
}
