package analyzer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/garagon/yarara/internal/analyzer"
	"github.com/garagon/yarara/internal/types"
	"github.com/stretchr/testify/require"
)

// stub is a scriptable analyzer for contract tests.
type stub struct {
	name    string
	enabled bool
	exts    []string
	analyze func(path, content string) ([]types.Finding, error)
}

func (s *stub) Name() string         { return s.name }
func (s *stub) Category() string     { return "stub" }
func (s *stub) Enabled() bool        { return s.enabled }
func (s *stub) Extensions() []string { return s.exts }
func (s *stub) Analyze(_ context.Context, path, content string) ([]types.Finding, error) {
	return s.analyze(path, content)
}

func TestSupports(t *testing.T) {
	a := &stub{name: "s", enabled: true, exts: []string{".py"}}
	require.True(t, analyzer.Supports(a, "app.py"))
	require.True(t, analyzer.Supports(a, "APP.PY"), "extension match is case-insensitive")
	require.False(t, analyzer.Supports(a, "main.go"))
	require.False(t, analyzer.Supports(a, "noext"))

	a.enabled = false
	require.False(t, analyzer.Supports(a, "app.py"), "disabled analyzer supports nothing")
}

func TestAnalyzeBatchSkipsUnsupported(t *testing.T) {
	var seen []string
	a := &stub{
		name: "s", enabled: true, exts: []string{".py"},
		analyze: func(path, _ string) ([]types.Finding, error) {
			seen = append(seen, path)
			return nil, nil
		},
	}
	files := []analyzer.File{
		{Path: "a.py", Content: "x = 1"},
		{Path: "b.go", Content: "package b"},
		{Path: "c.py", Content: "y = 2"},
	}
	findings, err := analyzer.AnalyzeBatch(context.Background(), a, files)
	require.NoError(t, err)
	require.Empty(t, findings)
	require.Equal(t, []string{"a.py", "c.py"}, seen)
}

func TestAnalyzeBatchConvertsPerFileFailure(t *testing.T) {
	a := &stub{
		name: "s", enabled: true, exts: []string{".py"},
		analyze: func(path, _ string) ([]types.Finding, error) {
			if path == "bad.py" {
				return nil, errors.New("boom")
			}
			return []types.Finding{{FilePath: path, Severity: types.SeverityInfo, Category: "stub", Confidence: 0.5}}, nil
		},
	}
	files := []analyzer.File{
		{Path: "good.py"},
		{Path: "bad.py"},
		{Path: "also_good.py"},
	}
	findings, err := analyzer.AnalyzeBatch(context.Background(), a, files)
	require.NoError(t, err)
	require.Len(t, findings, 3)

	require.Equal(t, "good.py", findings[0].FilePath)

	bad := findings[1]
	require.Equal(t, "bad.py", bad.FilePath)
	require.Equal(t, "analysis_error", bad.Category)
	require.Equal(t, types.SeverityError, bad.Severity)
	require.Contains(t, bad.Message, "boom")

	require.Equal(t, "also_good.py", findings[2].FilePath)
}

func TestAnalyzeBatchHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	a := &stub{
		name: "s", enabled: true, exts: []string{".py"},
		analyze: func(_, _ string) ([]types.Finding, error) {
			calls++
			return nil, nil
		},
	}
	_, err := analyzer.AnalyzeBatch(ctx, a, []analyzer.File{{Path: "a.py"}})
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, calls)
}
