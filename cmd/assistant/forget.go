package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newForgetCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "forget <session-id>",
		Short: "Delete all stored state of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := opts.newKernel(cmd)
			if err != nil {
				return err
			}
			defer k.Close()

			if err := k.Reset(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "forgot session %s\n", args[0])
			return nil
		},
	}
}
