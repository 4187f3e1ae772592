/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fulmenhq/docbridge/pkg/config"
	"github.com/fulmenhq/docbridge/pkg/logger"
	"github.com/fulmenhq/docbridge/pkg/safeio"
)

const starterConfig = `version: 1
root: docs
sections:
  architecture_overview:
    mode: managed
    target: architecture/overview.md
    marker: docbridge-architecture-overview
  adr_index:
    mode: managed
    target: adr/index.md
    marker: docbridge-adr-index
  rfc_index:
    mode: managed
    target: rfc/index.md
    marker: docbridge-rfc-index
`

func newInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter bridge config",
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := os.Getwd()
			if err != nil {
				return err
			}
			path := filepath.Join(root, filepath.FromSlash(config.DefaultConfigRelative))
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", config.DefaultConfigRelative)
			}
			if _, err := config.Parse([]byte(starterConfig), path); err != nil {
				return fmt.Errorf("starter config failed validation: %w", err)
			}
			if err := safeio.WriteFileAtomic(path, []byte(starterConfig)); err != nil {
				return err
			}
			logger.Info("bridge config written", logger.String("path", config.DefaultConfigRelative))
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", config.DefaultConfigRelative)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config")
	return cmd
}
