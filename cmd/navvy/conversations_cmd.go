package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/navvy-ai/navvy/core"
)

func conversationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "conversations",
		Short: "View stored conversations",
	}
	cmd.AddCommand(conversationsShowCmd())
	return cmd
}

func conversationsShowCmd() *cobra.Command {
	var jsonOutput bool
	var modelOnly bool
	cmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Show a conversation's message log",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			runConversationsShow(args[0], jsonOutput, modelOnly)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	cmd.Flags().BoolVar(&modelOnly, "model-visible", false, "only records the model sees")
	return cmd
}

func runConversationsShow(id string, jsonOutput, modelOnly bool) {
	cfg := loadConfig()
	store, err := newStore(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		os.Exit(1)
	}
	if closer, ok := store.(io.Closer); ok {
		defer closer.Close()
	}

	ctx := context.Background()
	var msgs []core.Message
	if modelOnly {
		msgs, err = store.ModelHistory(ctx, id)
	} else {
		msgs, err = store.Messages(ctx, id)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		for _, msg := range msgs {
			if err := enc.Encode(msg); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tTYPE\tROLE\tVISIBLE\tCONTENT")
	for _, msg := range msgs {
		content := strings.ReplaceAll(msg.Content, "\n", " ")
		fmt.Fprintf(w, "%s\t%s\t%s\t%v\t%s\n",
			msg.CreatedAt.Format("15:04:05"),
			msg.Type,
			msg.Role,
			msg.ModelVisible,
			truncate(content, 80),
		)
	}
	w.Flush()
}
