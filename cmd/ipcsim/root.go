package main

import (
	"github.com/spf13/cobra"
)

const version = "0.1.0"

type rootOptions struct {
	logLevel string
	dev      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "ipcsim",
		Short: "IPC and deadlock simulator",
		Long: `ipcsim simulates processes exchanging messages over pipes, message
queues and shared memory while contending for per-channel locks, and detects
deadlocks in the resulting wait-for graph.

Scenarios are scripted command sequences in YAML, TOML or JSON. Run them
offline with "run", or start the HTTP and WebSocket server with "serve".`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&opts.dev, "dev", false, "Console log output")

	cmd.AddCommand(
		newRunCmd(opts),
		newValidateCmd(),
		newServeCmd(opts),
	)
	return cmd
}
