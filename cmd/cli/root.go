package main

import (
	"github.com/spf13/cobra"
)

var configDir string

var rootCmd = &cobra.Command{
	Use:   "repodigest-cli",
	Short: "repodigest-cli is a one-shot CLI for the repository digest service",
	Long:  `A command-line interface that runs the Repository Extractor, Context-Budget Processor, and LLM Gateway pipeline against a single GitHub repository.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() { //nolint:gochecknoinits // cobra's init function for command registration
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "./config", "directory containing runtime.json and non-informative-files.json")
	rootCmd.AddCommand(summarizeCmd)
}
