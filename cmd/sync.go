/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fulmenhq/docbridge/internal/bridge"
)

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync [section|glob ...]",
		Short: "Diff then repair in one pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(eng *bridge.Engine) (*bridge.Report, error) {
				return eng.Sync(args)
			})
		},
	}
}
