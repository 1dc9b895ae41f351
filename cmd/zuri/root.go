package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/config"
	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/logging"
)

var (
	cfgPath  string
	logLevel string

	cfg     *config.AppConfig
	logger  *slog.Logger
	logFile *os.File
)

var rootCmd = &cobra.Command{
	Use:   "zuri",
	Short: "Chat with a knowledge base of research papers",
	Long: `Zuri indexes PDF papers into a vector store and answers questions about them
through a language model that can search the index and add newly uploaded papers.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config file (default ./config.yaml or ~/.config/zuri/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	cobra.OnFinalize(closeLogFile)
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	logger, err = logging.New(logOutput(cmd), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}

// logOutput keeps logs off the terminal while the chat UI owns it.
func logOutput(cmd *cobra.Command) io.Writer {
	if cmd.Name() == chatCmd.Name() {
		if chatLogFile == "" {
			return io.Discard
		}
		f, err := os.OpenFile(chatLogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: logs are discarded, cannot open log file: %v\n", err)
			return io.Discard
		}
		logFile = f
		return f
	}
	return cmd.ErrOrStderr()
}

// closeLogFile runs once the command has finished, successful or not.
func closeLogFile() {
	if logFile == nil {
		return
	}
	if err := logFile.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to close log file: %v\n", err)
	}
	logFile = nil
}
