// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func RunDeleteSyncCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deletesync",
		Short: "Delete-sync operations",
	}

	cmd.AddCommand(runDeleteSyncRunCommand())
	return cmd
}

func runDeleteSyncRunCommand() *cobra.Command {
	var (
		configPath string
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one reconciliation pass and print the summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApplication(configPath)
			if err != nil {
				return err
			}
			defer app.Close()

			result, err := app.deleteSync.Run(cmd.Context(), dryRun)
			if err != nil {
				return err
			}

			// The run enqueues its summary; deliver it before exiting.
			app.notifier.Flush()

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			cmd.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to configuration file or directory")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute and report decisions without deleting")

	return cmd
}
