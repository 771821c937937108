// Package output formats analysis results for terminal (ANSI), JSON,
// SARIF, and Markdown output.
package output

import (
	"fmt"
	"io"

	"github.com/garagon/yarara/internal/engine"
)

// Formatter is the interface for rendering analysis results.
type Formatter interface {
	Format(w io.Writer, result *engine.Result) error
}

// For returns the formatter registered under the given name. An empty name
// selects the terminal formatter.
func For(name string) (Formatter, error) {
	switch name {
	case "", "terminal":
		return &TerminalFormatter{}, nil
	case "json":
		return &JSONFormatter{}, nil
	case "markdown", "md":
		return &MarkdownFormatter{}, nil
	case "sarif":
		return &SARIFFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", name)
	}
}
