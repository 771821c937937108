// Package yarara provides a public API for quality and risk analysis of
// Python source files: security rules, structural smells, and a weighted
// quality score.
//
// This is the library entry point. For the CLI tool, see cmd/yarara/.
package yarara

import (
	"context"
	"fmt"

	"github.com/garagon/yarara/internal/analyzer"
	"github.com/garagon/yarara/internal/analyzer/security"
	"github.com/garagon/yarara/internal/analyzer/structure"
	"github.com/garagon/yarara/internal/engine"
	"github.com/garagon/yarara/internal/source"
	"github.com/garagon/yarara/internal/types"
)

// Re-export core types from internal packages so consumers don't need to
// import them.
type (
	Severity = types.Severity
	Grade    = types.Grade
	Finding  = types.Finding
	Summary  = types.Summary
	File     = analyzer.File
	Result   = engine.Result
)

const (
	SeverityInfo     = types.SeverityInfo
	SeverityWarning  = types.SeverityWarning
	SeverityError    = types.SeverityError
	SeverityCritical = types.SeverityCritical
)

const (
	GradeExcellent        = types.GradeExcellent
	GradeGood             = types.GradeGood
	GradeNeedsImprovement = types.GradeNeedsImprovement
	GradePoor             = types.GradePoor
)

// AnalyzeFiles runs the configured analyzers over in-memory files. It never
// fails: unanalyzable files surface as findings, not errors.
func AnalyzeFiles(ctx context.Context, files []File, opts ...Option) *Result {
	cfg := applyOpts(opts)
	return buildEngine(cfg).AnalyzeFiles(ctx, files)
}

// AnalyzePath analyzes a file or directory on disk.
func AnalyzePath(ctx context.Context, path string, opts ...Option) (*Result, error) {
	cfg := applyOpts(opts)

	loader := source.NewLoader()
	loader.MaxFileSize = cfg.maxFileSize
	loader.IgnorePatterns = cfg.ignorePatterns
	files, err := loader.Discover(path)
	if err != nil {
		return nil, fmt.Errorf("discovering files in %s: %w", path, err)
	}
	return buildEngine(cfg).AnalyzeFiles(ctx, files), nil
}

// AnalyzeContent analyzes inline content without touching disk. filename is
// a hint for analyzer selection and finding attribution.
func AnalyzeContent(ctx context.Context, content, filename string, opts ...Option) *Result {
	if filename == "" {
		filename = "source.py"
	}
	return AnalyzeFiles(ctx, []File{{Path: filename, Content: content}}, opts...)
}

func buildEngine(cfg *analyzeConfig) *engine.Engine {
	structCfg := structure.Config{
		Enabled:         cfg.structureEnabled,
		MaxArgs:         cfg.maxArgs,
		MaxNestingDepth: cfg.maxNestingDepth,
	}
	return engine.New(
		security.New(security.Config{Enabled: cfg.securityEnabled}),
		structure.New(structCfg),
	)
}
