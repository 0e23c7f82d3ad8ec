package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"docmate/internal/helper"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer one question and exit",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().Bool("json", false, "print the full response as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	jsonOutput, _ := cmd.Flags().GetBool("json")

	r, cleanup, err := buildRAG(ctx, cfg)
	if err != nil {
		return fatalIfConfig(err)
	}
	defer cleanup()

	resp := r.Answer(ctx, strings.Join(args, " "))
	out := cmd.OutOrStdout()
	if jsonOutput {
		helper.PrettyPrint(out, resp)
		return nil
	}

	fmt.Fprintln(out, resp.Answer)
	if verbose && len(resp.Sources) > 0 {
		fmt.Fprintf(out, "\nSources: %s\n", strings.Join(resp.Sources, ", "))
	}
	return nil
}
