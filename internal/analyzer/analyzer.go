// Package analyzer defines the contract every rule engine implements and
// the fault-tolerant batch helper the analysis engine drives them through.
package analyzer

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/garagon/yarara/internal/types"
)

// File is one unit of input: a path (used for extension filtering and
// finding attribution) and its full content.
type File struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Analyzer is the capability every rule engine implements. Analyze must not
// mutate content and must report findings in source order.
type Analyzer interface {
	// Name identifies the analyzer for registration and removal.
	Name() string
	// Category is the default finding category the analyzer reports under.
	Category() string
	// Enabled reports whether the analyzer should run at all.
	Enabled() bool
	// Extensions lists the file extensions (lowercase, dot included)
	// the analyzer understands.
	Extensions() []string
	// Analyze inspects one file. A returned error means the file could
	// not be analyzed at all; recoverable conditions (parse failures)
	// are reported as findings instead.
	Analyze(ctx context.Context, path, content string) ([]types.Finding, error)
}

// Supports reports whether the analyzer is enabled and declares the file's
// extension. Extension matching is case-insensitive.
func Supports(a Analyzer, path string) bool {
	if !a.Enabled() {
		return false
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range a.Extensions() {
		if e == ext {
			return true
		}
	}
	return false
}

// AnalyzeBatch runs the analyzer over every supported file in the batch,
// concatenating results in input order. A failure on one file is converted
// into a single analysis_error finding so the remaining files still get
// analyzed; only context cancellation stops the loop.
func AnalyzeBatch(ctx context.Context, a Analyzer, files []File) ([]types.Finding, error) {
	var findings []types.Finding
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return findings, err
		}
		if !Supports(a, f.Path) {
			continue
		}
		results, err := a.Analyze(ctx, f.Path, f.Content)
		if err != nil {
			findings = append(findings, types.Finding{
				FilePath:   f.Path,
				Severity:   types.SeverityError,
				Category:   "analysis_error",
				Message:    "Analysis failed: " + err.Error(),
				Suggestion: "Check file format and try again",
				Confidence: 0.5,
			})
			continue
		}
		findings = append(findings, results...)
	}
	return findings, nil
}
