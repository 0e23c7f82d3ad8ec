package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"docmate/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive chat about the ingested document",
	Args:  cobra.NoArgs,
	RunE:  runChat,
}

var transcriptPath string

func init() {
	chatCmd.Flags().StringVar(&transcriptPath, "transcript", tui.DefaultTranscriptPath, "file Ctrl+S saves the conversation to")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	if cfg.Log.File != "" {
		closeLog, err := redirectLogs(cfg.Log.File)
		if err != nil {
			return err
		}
		defer closeLog()
	}

	r, cleanup, err := buildRAG(ctx, cfg)
	if err != nil {
		return fatalIfConfig(err)
	}
	defer cleanup()

	m := tui.New(ctx, r, "DocuMate", transcriptPath)
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
