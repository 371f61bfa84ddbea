// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/autobrr/sweeparr/internal/buildinfo"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "sweeparr",
		Short:        "Watchlist-driven delete sync for Sonarr and Radarr",
		Long:         "sweeparr reconciles Plex watchlists against Sonarr and Radarr libraries and removes media no longer wanted by any user.",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(RunServeCommand())
	rootCmd.AddCommand(RunDeleteSyncCommand())
	rootCmd.AddCommand(RunVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func RunVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Print(buildinfo.String())
		},
	}
}
