package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/garagon/yarara/internal/config"
	"github.com/garagon/yarara/internal/output"
	"github.com/garagon/yarara/internal/source"
)

var (
	flagFailUnder  float64
	flagMaxArgs    int
	flagMaxNesting int
	flagIgnore     []string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "Analyze a Python file or directory",
	Long: `Analyze runs the security and structure analyzers over a file or
directory tree and prints a scored report.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().Float64Var(&flagFailUnder, "fail-under", 0, "Exit with an error if the score falls below this threshold")
	analyzeCmd.Flags().IntVar(&flagMaxArgs, "max-args", 0, "Maximum function arguments before a warning")
	analyzeCmd.Flags().IntVar(&flagMaxNesting, "max-nesting", 0, "Maximum nesting depth before a warning")
	analyzeCmd.Flags().StringSliceVar(&flagIgnore, "ignore", nil, "Glob patterns to skip during discovery")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}

	cfg, err := loadAnalyzeConfig(cmd, path)
	if err != nil {
		return err
	}

	ctx, cancel := contextWithInterrupt()
	defer cancel()

	var spinner *output.Spinner
	if flagFormat == "terminal" && flagOutput == "" && !flagNoColor {
		spinner = output.NewSpinner(os.Stderr)
		spinner.Start(fmt.Sprintf("Analyzing %s...", path))
	}

	loader := source.NewLoader()
	loader.MaxFileSize = cfg.Analysis.MaxFileSize
	loader.IgnorePatterns = cfg.Analysis.Ignore
	files, err := loader.Discover(path)
	if err != nil {
		if spinner != nil {
			spinner.Stop()
		}
		return fmt.Errorf("discovering files in %s: %w", path, err)
	}

	result := buildEngine(cfg).AnalyzeFiles(ctx, files)
	if spinner != nil {
		spinner.Stop()
	}

	if err := writeOutput(result); err != nil {
		return err
	}
	if cmd.Flags().Changed("fail-under") && result.Summary.Score < flagFailUnder {
		return fmt.Errorf("score %.3f is below the threshold %.3f", result.Summary.Score, flagFailUnder)
	}
	return nil
}

// loadAnalyzeConfig loads .yarara.yml from the analyzed path and applies
// command-line overrides. Flags win over file values only when explicitly
// set.
func loadAnalyzeConfig(cmd *cobra.Command, path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if cmd.Flags().Changed("max-args") {
		cfg.Analysis.MaxArgs = flagMaxArgs
	}
	if cmd.Flags().Changed("max-nesting") {
		cfg.Analysis.MaxNestingDepth = flagMaxNesting
	}
	if cmd.Flags().Changed("ignore") {
		cfg.Analysis.Ignore = flagIgnore
	}
	if !cmd.Root().PersistentFlags().Changed("format") && cfg.Format != "" {
		flagFormat = cfg.Format
	}
	return cfg, nil
}

// contextWithInterrupt returns a context cancelled on the first interrupt
// signal so a long analysis can be aborted cleanly.
func contextWithInterrupt() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	go func() {
		select {
		case <-ch:
			fmt.Fprintln(os.Stderr, "\ninterrupted, finishing up...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(ch)
	}()
	return ctx, cancel
}
