package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/assistant/kernel"
)

func newChatCmd(opts *options) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation",
		Long: `Start an interactive conversation. Type /reset to forget the
conversation, /history to list it and /quit (or end input) to leave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			k, err := opts.newKernel(cmd)
			if err != nil {
				return err
			}
			defer k.Close()

			if sessionID == "" {
				sessionID = uuid.NewString()
			}
			return chatLoop(cmd, k, sessionID, opts.verbose)
		},
	}

	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "Session id to continue (default: a new session)")
	return cmd
}

func chatLoop(cmd *cobra.Command, k *kernel.Kernel, sessionID string, verbose bool) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	in := bufio.NewScanner(cmd.InOrStdin())

	fmt.Fprintf(out, "Session %s. Type /quit to leave.\n", sessionID)

	for {
		fmt.Fprint(out, "> ")
		if !in.Scan() {
			fmt.Fprintln(out)
			return in.Err()
		}
		line := strings.TrimSpace(in.Text())

		switch line {
		case "/quit", "/exit":
			return nil
		case "/reset":
			if err := k.Reset(ctx, sessionID); err != nil {
				return err
			}
			fmt.Fprintln(out, "Conversation forgotten.")
			continue
		case "/history":
			snap, err := k.History(ctx, sessionID)
			if err != nil {
				fmt.Fprintln(out, "No history yet.")
				continue
			}
			for _, msg := range snap.Messages {
				fmt.Fprintf(out, "  %-9s %s\n", msg.Role, msg.Content)
			}
			continue
		}

		res, err := k.Run(ctx, sessionID, line)
		if err != nil {
			if errors.Is(err, kernel.ErrAnswerGeneration) {
				fmt.Fprintf(out, "Sorry, I could not answer that: %v\n", err)
				continue
			}
			return err
		}
		printResult(out, res, verbose)
	}
}
