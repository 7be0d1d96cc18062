package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

func newQueueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Matchmaking queue commands",
		Long: `Join or leave the matchmaking queue with a connection opened elsewhere,
for example by "quizctl events". Use "quizctl play" to connect and queue in one step.`,
	}

	cmd.AddCommand(newQueueActionCmd("join", "Join the matchmaking queue"))
	cmd.AddCommand(newQueueActionCmd("leave", "Leave the matchmaking queue"))

	return cmd
}

func newQueueActionCmd(action, short string) *cobra.Command {
	var socket string

	cmd := &cobra.Command{
		Use:   action,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			if socket == "" {
				return fmt.Errorf("--socket is required")
			}

			var result Message
			path := fmt.Sprintf("/api/v1/queue/%s?socketId=%s", action, url.QueryEscape(socket))
			if err := client.Post(path, nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage(result.Message)
			return nil
		},
	}

	cmd.Flags().StringVar(&socket, "socket", "", "Connection id (required)")
	_ = cmd.MarkFlagRequired("socket")

	return cmd
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show matchmaking status",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Status

			if err := client.Get("/api/v1/matchmaking/status", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
