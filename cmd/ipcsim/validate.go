package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/GriffinCanCode/ipcsim/internal/domain/scenario"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <scenario>...",
		Short: "Check scenario files without running them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			for _, path := range args {
				sc, loadErr := scenario.Load(path)
				if loadErr != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s\n", path)
					err = multierr.Append(err, loadErr)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ok   %s (%s, %d steps)\n", path, sc.Name, len(sc.Steps))
			}
			return err
		},
	}
}
