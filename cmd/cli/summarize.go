package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/sevigo/repodigest/internal/app"
	"github.com/sevigo/repodigest/internal/config"
	"github.com/sevigo/repodigest/internal/core"
	"github.com/sevigo/repodigest/internal/logger"
)

var (
	writeMarkdownPath string
	outputAsJSON      bool
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize <github_url>",
	Short: "Summarize a single GitHub repository",
	Args:  cobra.ExactArgs(1),
	RunE:  runSummarize,
}

func init() { //nolint:gochecknoinits // cobra's init function for command registration
	summarizeCmd.Flags().StringVar(&writeMarkdownPath, "write-markdown", "", "write the summary, rendered as markdown, to this path after summarizing (the extracted digest itself is not written)")
	summarizeCmd.Flags().BoolVar(&outputAsJSON, "json", false, "print the raw JSON summary instead of a rendered preview")
}

func runSummarize(cmd *cobra.Command, args []string) error {
	githubURL := args[0]

	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.NewLogger(cfg.Logging, os.Stderr)

	orch, _, err := app.BuildOrchestrator(cfg, configDir, log)
	if err != nil {
		return fmt.Errorf("failed to initialize pipeline: %w", err)
	}

	run := func(ctx context.Context) (*core.SummaryResult, error) {
		return orch.Summarize(ctx, githubURL)
	}

	var result *core.SummaryResult
	if isatty.IsTerminal(os.Stdout.Fd()) {
		result, err = runWithSpinner(githubURL, run)
	} else {
		result, err = runWithProgressBar(run)
	}
	if err != nil {
		return fmt.Errorf("summarize failed: %w", err)
	}

	if writeMarkdownPath != "" {
		if err := os.WriteFile(writeMarkdownPath, []byte(renderSummaryMarkdown(result)), 0o644); err != nil {
			return fmt.Errorf("failed to write summary markdown to %s: %w", writeMarkdownPath, err)
		}
		slog.Info("wrote summary markdown", "path", writeMarkdownPath, "bytes", humanize.Bytes(uint64(len(renderSummaryMarkdown(result)))))
	}

	if outputAsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	return printRenderedSummary(result)
}

func runWithSpinner(githubURL string, run summarizeFunc) (*core.SummaryResult, error) {
	m := newSpinnerModel(githubURL, run)
	p := tea.NewProgram(m)
	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	fm := final.(spinnerModel)
	return fm.result, fm.err
}

// runWithProgressBar is the non-interactive fallback for piped/CI output, grounded on
// kraklabs-cie's cmd/cie/progress.go NewSpinner (indeterminate progressbar.ProgressBar).
func runWithProgressBar(run summarizeFunc) (*core.SummaryResult, error) {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("summarizing repository"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	defer bar.Close()

	done := make(chan struct{})
	var result *core.SummaryResult
	var runErr error

	go func() {
		defer close(done)
		result, runErr = run(context.Background())
	}()

	ticker := time.NewTicker(150 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			_ = bar.Finish()
			return result, runErr
		case <-ticker.C:
			_ = bar.Add(1)
		}
	}
}

func renderSummaryMarkdown(result *core.SummaryResult) string {
	var b strings.Builder
	b.WriteString("# Repository Summary\n\n")
	b.WriteString(result.Summary)
	b.WriteString("\n\n## Technologies\n\n")
	for _, t := range result.Technologies {
		b.WriteString("- " + t + "\n")
	}
	b.WriteString("\n## Structure\n\n")
	b.WriteString(result.Structure)
	b.WriteString("\n")
	return b.String()
}

func printRenderedSummary(result *core.SummaryResult) error {
	rendered, err := glamour.Render(renderSummaryMarkdown(result), "dark")
	if err != nil {
		// Fall back to the unstyled markdown rather than failing the whole command: the
		// pipeline already succeeded, only the terminal preview couldn't be styled.
		fmt.Println(renderSummaryMarkdown(result))
		return nil
	}
	fmt.Print(rendered)
	fmt.Println(color.New(color.FgGreen).Sprint("done"))
	return nil
}
