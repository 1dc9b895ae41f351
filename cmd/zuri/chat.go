package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/tui"
)

var chatLogFile string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the knowledge base in the terminal",
	Long: `Opens an interactive chat. Type a question and press Enter; type
/upload <path> to make a file available to the model's add_new_paper tool.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatLogFile, "log-file", "", "append logs to this file (logs are discarded otherwise)")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	agent, err := a.agent()
	if err != nil {
		return err
	}
	summary := fmt.Sprintf("Collection %s · model %s · uploads go to %s", cfg.VectorStore.Collection, cfg.LLM.Model, a.registry.Dir())
	m := tui.New(cmd.Context(), agent, a.registry, summary)
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
	return err
}
