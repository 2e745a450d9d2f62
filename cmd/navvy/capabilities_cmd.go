package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/navvy-ai/navvy/capabilities"
)

func capabilitiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capabilities",
		Short: "Inspect the capability set",
	}
	cmd.AddCommand(capabilitiesListCmd())
	return cmd
}

func capabilitiesListCmd() *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the standard capabilities",
		Run: func(cmd *cobra.Command, args []string) {
			runCapabilitiesList(jsonOutput)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

type capabilityListEntry struct {
	Name        string `json:"name"`
	MarkupTag   string `json:"markup_tag,omitempty"`
	Description string `json:"description"`
}

func runCapabilitiesList(jsonOutput bool) {
	var entries []capabilityListEntry
	for _, c := range capabilities.Default() {
		entry := capabilityListEntry{
			Name:        c.Name(),
			Description: c.Description(),
		}
		if spec := c.Markup(); spec != nil {
			entry.MarkupTag = spec.Tag
		}
		entries = append(entries, entry)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(entries); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTAG\tDESCRIPTION")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.Name, e.MarkupTag, truncate(e.Description, 72))
	}
	w.Flush()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
