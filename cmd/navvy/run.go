package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/navvy-ai/navvy/agent"
	"github.com/navvy-ai/navvy/config"
	"github.com/navvy-ai/navvy/core"
)

func runCmd() *cobra.Command {
	var (
		conversationID string
		message        string
		modelName      string
		projectID      string
		userID         string
		systemPrompt   string
		thinking       bool
		compaction     bool
	)
	cmd := &cobra.Command{
		Use:   "run [message]",
		Short: "Start a run and stream its fragments as JSON lines",
		Args:  cobra.ArbitraryArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()
			if message == "" {
				message = strings.Join(args, " ")
			}
			if message == "" {
				fmt.Fprintln(os.Stderr, "Error: no message given (use --message or positional args)")
				os.Exit(1)
			}
			if conversationID == "" {
				conversationID = core.NewID()
				fmt.Fprintf(os.Stderr, "conversation: %s\n", conversationID)
			}
			if !cmd.Flags().Changed("compaction") {
				compaction = cfg.Run.Compaction
			}

			req := core.RunRequest{
				ProjectID:               projectID,
				ConversationID:          conversationID,
				UserID:                  userID,
				Message:                 message,
				ModelName:               modelName,
				SystemPrompt:            systemPrompt,
				EnableThinking:          thinking,
				EnableContextCompaction: compaction,
			}
			os.Exit(runRun(cfg, req))
		},
	}

	cmd.Flags().StringVar(&conversationID, "conversation", "", "conversation to continue (default: new)")
	cmd.Flags().StringVarP(&message, "message", "m", "", "user message for the run")
	cmd.Flags().StringVar(&modelName, "model", "", "model name (default from config)")
	cmd.Flags().StringVar(&projectID, "project", "", "project identifier")
	cmd.Flags().StringVar(&userID, "user", "", "user identifier for authorization")
	cmd.Flags().StringVar(&systemPrompt, "system-prompt", "", "override the system prompt")
	cmd.Flags().BoolVar(&thinking, "thinking", false, "enable extended thinking")
	cmd.Flags().BoolVar(&compaction, "compaction", false, "compact history before each model call")
	return cmd
}

func runRun(cfg *config.Config, req core.RunRequest) int {
	n, err := buildNavvy(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if closer, ok := n.Store().(io.Closer); ok {
		defer closer.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	run, err := n.Run(ctx, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	enc := json.NewEncoder(os.Stdout)
	for f := range run.Fragments() {
		if err := enc.Encode(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing fragment: %v\n", err)
		}
	}

	outcome := run.Outcome()
	fmt.Fprintf(os.Stderr, "run %s: %s after %d attempt(s)", run.ID(), outcome.State, outcome.Attempts)
	if outcome.Marker != "" {
		fmt.Fprintf(os.Stderr, " (marker: %s)", outcome.Marker)
	}
	if outcome.Reason != "" {
		fmt.Fprintf(os.Stderr, " (%s)", outcome.Reason)
	}
	fmt.Fprintln(os.Stderr)

	if outcome.State == agent.StateStoppedByMarker {
		return 0
	}
	return 1
}
