/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fulmenhq/docbridge/internal/bridge"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [section|glob ...]",
		Short: "List configured sections with their current status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(eng *bridge.Engine) (*bridge.Report, error) {
				return eng.List(args)
			})
		},
	}
}
