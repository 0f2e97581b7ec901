package main

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/ipcsim/internal/domain/events"
	"github.com/GriffinCanCode/ipcsim/internal/domain/scenario"
	"github.com/GriffinCanCode/ipcsim/internal/domain/sim"
	"github.com/GriffinCanCode/ipcsim/internal/infrastructure/logging"
)

var errDeadlock = errors.New("deadlock detected")

type runOptions struct {
	events         bool
	state          bool
	bufferSize     int
	failOnDeadlock bool
}

// runOutput is what "run" prints.
type runOutput struct {
	Report *scenario.Report `json:"report"`
	Error  string           `json:"error,omitempty"`
	Events []events.Event   `json:"events,omitempty"`
	State  *sim.State       `json:"state,omitempty"`
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run <scenario>",
		Short: "Replay a scenario file and print the report as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := scenario.Load(args[0])
			if err != nil {
				return err
			}

			logger, err := logging.New(logging.Config{
				Level:       root.logLevel,
				Development: root.dev,
				OutputPaths: []string{"stderr"},
			})
			if err != nil {
				return err
			}
			defer logger.Close()

			rec := events.NewRecorder()
			s := sim.New(
				sim.WithSink(events.NewFanout(rec, logging.NewEventSink(logger))),
				sim.WithLogger(logger.Named("sim")),
			)

			report, runErr := scenario.Run(cmd.Context(), s, sc,
				scenario.WithDefaultBufferSize(opts.bufferSize),
			)

			out := runOutput{Report: report}
			if runErr != nil {
				out.Error = runErr.Error()
			}
			if opts.events {
				out.Events = rec.Events()
			}
			if opts.state {
				st := s.State()
				out.State = &st
			}

			data, err := sonic.MarshalIndent(out, "", "  ")
			if err != nil {
				return fmt.Errorf("encode report: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))

			if runErr != nil {
				return runErr
			}
			if opts.failOnDeadlock && report.Deadlocked() {
				return errDeadlock
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.events, "events", false, "Include every emitted event")
	cmd.Flags().BoolVar(&opts.state, "state", false, "Include the final simulator state")
	cmd.Flags().IntVar(&opts.bufferSize, "buffer-size", sim.DefaultBufferSize, "Capacity of channels that omit bufferSize")
	cmd.Flags().BoolVar(&opts.failOnDeadlock, "fail-on-deadlock", false, "Exit non-zero when any deadlock is found")
	return cmd
}
