package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lexcodex/swarmcrew/config"
	"github.com/lexcodex/swarmcrew/engine"
)

func newRunCmd() *cobra.Command {
	var parallel bool

	cmd := &cobra.Command{
		Use:   "run <crew-file>",
		Short: "Run a crew locally to completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := config.LoadCrewFile(args[0])
			if err != nil {
				return err
			}
			builder, err := file.ToBuilder()
			if err != nil {
				return err
			}
			crew, err := builder.Build()
			if err != nil {
				return err
			}

			evaluator := engine.NewEvaluator()
			crew.Scheduler.SetTelemetry(evaluator)

			ctx := context.Background()
			evaluator.StartEvaluation(time.Now())
			var runErr error
			if parallel {
				runErr = crew.RunParallel(ctx)
			} else {
				runErr = crew.Run(ctx)
			}
			evaluator.EndEvaluation(time.Now())
			if runErr != nil {
				return runErr
			}

			fmt.Fprintln(cmd.OutOrStdout(), evaluator.Report().String())
			for key, value := range crew.Results() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", key, value)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&parallel, "parallel", false, "Use dependency-ready batch scheduling instead of sequential rotation")
	return cmd
}
