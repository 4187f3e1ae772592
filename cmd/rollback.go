/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fulmenhq/docbridge/internal/bridge"
)

func newRollbackCmd() *cobra.Command {
	var section, timestamp string
	cmd := &cobra.Command{
		Use:   "rollback",
		Short: "Restore a section's target file from a backup snapshot",
		Long: `Rollback restores the target file exactly as it was captured in the
named snapshot. The pre-rollback state is snapshotted first, so a
rollback can itself be rolled back. Use 'docbridge history' to list
snapshot timestamps.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, func(eng *bridge.Engine) (*bridge.Report, error) {
				return eng.Rollback(section, timestamp)
			})
		},
	}
	cmd.Flags().StringVar(&section, "section", "", "Section to restore (required)")
	cmd.Flags().StringVar(&timestamp, "timestamp", "", "Snapshot timestamp to restore from (required)")
	_ = cmd.MarkFlagRequired("section")
	_ = cmd.MarkFlagRequired("timestamp")
	return cmd
}
