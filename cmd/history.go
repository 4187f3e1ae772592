/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fulmenhq/docbridge/pkg/logger"
)

func newHistoryCmd() *cobra.Command {
	var prune int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List backup snapshots (and optionally prune old ones)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, err := newEngine(cmd)
			if err != nil {
				return err
			}
			store := eng.Store()
			if prune > 0 {
				removed, err := store.Prune(prune)
				if err != nil {
					return err
				}
				for _, ts := range removed {
					logger.Info("snapshot pruned", logger.String("timestamp", ts))
				}
			}
			manifests, err := store.List()
			if err != nil {
				return err
			}
			jsonOut, _ := cmd.Flags().GetBool("json")
			out := cmd.OutOrStdout()
			if jsonOut {
				data, err := json.MarshalIndent(manifests, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
				return nil
			}
			if len(manifests) == 0 {
				fmt.Fprintln(out, "no snapshots")
				return nil
			}
			for _, m := range manifests {
				fmt.Fprintf(out, "%s  %-8s  %d file(s)", m.Timestamp, m.Command, len(m.Entries))
				if m.GitSHA != "" {
					fmt.Fprintf(out, "  git:%s", m.GitSHA)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&prune, "prune", 0, "Keep only the newest N snapshots")
	return cmd
}
