/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fulmenhq/docbridge/pkg/buildinfo"
)

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			extended, _ := cmd.Flags().GetBool("extended")
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "docbridge %s\n", buildinfo.BinaryVersion)
			if extended {
				fmt.Fprintf(out, "module: %s\n", buildinfo.ModuleVersion())
			}
			return nil
		},
	}
	cmd.Flags().Bool("extended", false, "Include module build information")
	return cmd
}
