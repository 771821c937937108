package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/garagon/yarara/internal/analyzer/security"
	"github.com/garagon/yarara/internal/analyzer/structure"
	"github.com/garagon/yarara/internal/config"
	"github.com/garagon/yarara/internal/engine"
	"github.com/garagon/yarara/internal/output"
)

var (
	flagFormat  string
	flagOutput  string
	flagNoColor bool
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "yarara",
	Short: "Quality and risk review for Python code and pull requests",
	Long: `Yarara analyzes Python source for security risks and structural smells,
scores the result, and can post the review back to a pull request.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "terminal", "Output format (terminal, json, markdown, sarif)")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "", "Output file path (default: stdout)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Show suggestions for each finding")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// buildEngine assembles the analysis engine from the loaded configuration.
func buildEngine(cfg config.Config) *engine.Engine {
	return engine.New(
		security.New(security.Config{Enabled: cfg.Analysis.Security}),
		structure.New(structure.Config{
			Enabled:         cfg.Analysis.Structure,
			MaxArgs:         cfg.Analysis.MaxArgs,
			MaxNestingDepth: cfg.Analysis.MaxNestingDepth,
		}),
	)
}

// writeOutput renders the result with the selected formatter, to stdout or
// the --output file.
func writeOutput(result *engine.Result) error {
	formatter, err := output.For(flagFormat)
	if err != nil {
		return err
	}
	if tf, ok := formatter.(*output.TerminalFormatter); ok {
		tf.NoColor = flagNoColor || os.Getenv("NO_COLOR") != ""
		tf.Verbose = flagVerbose
	}

	w := os.Stdout
	if flagOutput != "" {
		f, err := os.Create(flagOutput)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	return formatter.Format(w, result)
}
