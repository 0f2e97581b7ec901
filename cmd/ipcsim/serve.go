package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/GriffinCanCode/ipcsim/internal/infrastructure/config"
	"github.com/GriffinCanCode/ipcsim/internal/infrastructure/server"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var (
		port string
		host string
		tick time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and WebSocket server",
		Long: `Start the server. Configuration comes from the environment (PORT,
LOG_LEVEL, EVENTLOG_PATH, SIM_TICK_INTERVAL, ...); flags that are set
override it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("port") {
				cfg.Server.Port = port
			}
			if flags.Changed("host") {
				cfg.Server.Host = host
			}
			if flags.Changed("tick") {
				cfg.Simulator.TickInterval = tick
			}
			if flags.Changed("log-level") {
				cfg.Logging.Level = root.logLevel
			}
			if flags.Changed("dev") {
				cfg.Logging.Development = root.dev
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			srv, err := server.NewServer(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return multierr.Append(srv.Run(ctx), srv.Close())
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "Server port")
	cmd.Flags().StringVar(&host, "host", "", "Server host")
	cmd.Flags().DurationVar(&tick, "tick", 0, "Auto-step interval, 0 disables")
	return cmd
}
