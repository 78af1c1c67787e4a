package main

import (
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newAskCmd(opts *options) *cobra.Command {
	var (
		sessionID string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask one question and print the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := opts.newKernel(cmd)
			if err != nil {
				return err
			}
			defer k.Close()

			if sessionID == "" {
				sessionID = uuid.NewString()
			}

			res, err := k.Run(cmd.Context(), sessionID, strings.Join(args, " "))
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(cmd.OutOrStdout(), res)
			}
			printResult(cmd.OutOrStdout(), res, opts.verbose)
			return nil
		},
	}

	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "Session id to continue (default: a new session)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full turn result as JSON")
	return cmd
}
