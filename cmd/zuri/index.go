package main

import (
	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index [dir]",
	Short: "Build the index from a directory of papers",
	Long: `Loads every PDF, text and markdown file in the directory (default: data.papers_dir),
replaces the collection with their chunks and prints a short summary of the corpus.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	dir := cfg.Data.PapersDir
	if len(args) == 1 {
		dir = args[0]
	}
	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.indexer.BuildIndex(cmd.Context(), dir)
	if err != nil {
		return err
	}
	cmd.Println("Successfully built and registered the index")
	cmd.Printf("Indexed %d documents into %d chunks (collection %s)\n", report.Documents, report.Chunks, cfg.VectorStore.Collection)
	if report.Summary != "" {
		cmd.Println()
		cmd.Println(report.Summary)
	}
	return nil
}
