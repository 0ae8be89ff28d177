package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lexcodex/swarmcrew/config"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <crew-file>",
		Short: "Load a crew file and report structural errors",
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
			if err := builder.Validate(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), builder.Describe())
			fmt.Fprintln(cmd.OutOrStdout(), "crew is valid")
			return nil
		},
	}
	return cmd
}
