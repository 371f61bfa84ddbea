// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/autobrr/sweeparr/internal/api"
)

func RunServeCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the sweeparr server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, err := newApplication(configPath)
			if err != nil {
				return err
			}
			defer app.Close()

			app.cfg.WatchConfig()
			app.notifier.Start(ctx)
			app.deleteSync.Start(ctx)

			server := api.NewServer(api.Dependencies{
				Config:        app.cfg.Config,
				DeleteSync:    app.deleteSync,
				UserStore:     app.users,
				InstanceStore: app.instances,
			})

			return server.Serve(ctx)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to configuration file or directory")

	return cmd
}
