package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/garagon/yarara/internal/analyzer"
	"github.com/garagon/yarara/internal/engine"
	"github.com/garagon/yarara/internal/types"
	"github.com/stretchr/testify/require"
)

// stub is a scriptable analyzer for engine tests.
type stub struct {
	name    string
	enabled bool
	delay   time.Duration
	emit    func(path string) []types.Finding
}

func (s *stub) Name() string         { return s.name }
func (s *stub) Category() string     { return s.name }
func (s *stub) Enabled() bool        { return s.enabled }
func (s *stub) Extensions() []string { return []string{".py"} }
func (s *stub) Analyze(_ context.Context, path, _ string) ([]types.Finding, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.emit == nil {
		return nil, nil
	}
	return s.emit(path), nil
}

func finding(path string, sev types.Severity, category string, conf float64) types.Finding {
	return types.Finding{
		FilePath:   path,
		Severity:   sev,
		Category:   category,
		Message:    "issue",
		Confidence: conf,
	}
}

func TestEmptyBatch(t *testing.T) {
	e := engine.New(&stub{name: "a", enabled: true})
	result := e.AnalyzeFiles(context.Background(), nil)
	require.NotNil(t, result)
	require.Empty(t, result.Findings)
	require.Zero(t, result.Summary.TotalFiles)
	require.InDelta(t, 1.0, result.Summary.Score, 1e-9)
	require.Equal(t, types.GradeExcellent, result.Summary.Grade)
}

func TestCleanFilesScorePerfect(t *testing.T) {
	e := engine.New(&stub{name: "a", enabled: true})
	result := e.AnalyzeFiles(context.Background(), []analyzer.File{{Path: "a.py"}, {Path: "b.py"}})
	require.Equal(t, 2, result.Summary.TotalFiles)
	require.Zero(t, result.Summary.TotalIssues)
	require.InDelta(t, 1.0, result.Summary.Score, 1e-9)
}

func TestKnownScore(t *testing.T) {
	// One warning at confidence 0.5 costs 0.3*0.5 = 0.15 on a single file.
	e := engine.New(&stub{
		name: "a", enabled: true,
		emit: func(path string) []types.Finding {
			return []types.Finding{finding(path, types.SeverityWarning, "a", 0.5)}
		},
	})
	result := e.AnalyzeFiles(context.Background(), []analyzer.File{{Path: "a.py"}})
	require.InDelta(t, 0.85, result.Summary.Score, 1e-9)
	require.Equal(t, types.GradeGood, result.Summary.Grade)
}

func TestPerFilePenaltyCapped(t *testing.T) {
	// Five criticals at confidence 1.0 on one file cap at 1.0, so the
	// clean second file still rescues half the score.
	e := engine.New(&stub{
		name: "a", enabled: true,
		emit: func(path string) []types.Finding {
			if path != "bad.py" {
				return nil
			}
			var out []types.Finding
			for i := 0; i < 5; i++ {
				out = append(out, finding(path, types.SeverityCritical, "a", 1.0))
			}
			return out
		},
	})
	result := e.AnalyzeFiles(context.Background(), []analyzer.File{{Path: "bad.py"}, {Path: "ok.py"}})
	require.InDelta(t, 0.5, result.Summary.Score, 1e-9)
	require.Equal(t, types.GradeNeedsImprovement, result.Summary.Grade)
}

func TestUnknownSeverityWeight(t *testing.T) {
	e := engine.New(&stub{
		name: "a", enabled: true,
		emit: func(path string) []types.Finding {
			return []types.Finding{finding(path, types.Severity(99), "a", 1.0)}
		},
	})
	result := e.AnalyzeFiles(context.Background(), []analyzer.File{{Path: "a.py"}})
	require.InDelta(t, 0.5, result.Summary.Score, 1e-9)
}

func TestRegistrationOrderPreserved(t *testing.T) {
	// The slow analyzer registered first still reports first.
	first := &stub{
		name: "first", enabled: true, delay: 20 * time.Millisecond,
		emit: func(path string) []types.Finding {
			return []types.Finding{finding(path, types.SeverityInfo, "first", 0.5)}
		},
	}
	second := &stub{
		name: "second", enabled: true,
		emit: func(path string) []types.Finding {
			return []types.Finding{finding(path, types.SeverityInfo, "second", 0.5)}
		},
	}
	e := engine.New(first, second)
	result := e.AnalyzeFiles(context.Background(), []analyzer.File{{Path: "a.py"}})
	require.Len(t, result.Findings, 2)
	require.Equal(t, "first", result.Findings[0].Category)
	require.Equal(t, "second", result.Findings[1].Category)
}

func TestPanickingAnalyzerIsolated(t *testing.T) {
	panicky := &stub{
		name: "panicky", enabled: true,
		emit: func(string) []types.Finding { panic("boom") },
	}
	steady := &stub{
		name: "steady", enabled: true,
		emit: func(path string) []types.Finding {
			return []types.Finding{finding(path, types.SeverityInfo, "steady", 0.5)}
		},
	}
	e := engine.New(panicky, steady)
	result := e.AnalyzeFiles(context.Background(), []analyzer.File{{Path: "a.py"}})
	require.Len(t, result.Findings, 1)
	require.Equal(t, "steady", result.Findings[0].Category)
}

func TestDisabledAnalyzerSkipped(t *testing.T) {
	off := &stub{
		name: "off", enabled: false,
		emit: func(path string) []types.Finding {
			return []types.Finding{finding(path, types.SeverityCritical, "off", 1.0)}
		},
	}
	e := engine.New(off)
	result := e.AnalyzeFiles(context.Background(), []analyzer.File{{Path: "a.py"}})
	require.Empty(t, result.Findings)
	require.InDelta(t, 1.0, result.Summary.Score, 1e-9)
}

func TestSummaryCounts(t *testing.T) {
	e := engine.New(&stub{
		name: "a", enabled: true,
		emit: func(path string) []types.Finding {
			return []types.Finding{
				finding(path, types.SeverityWarning, "security", 0.5),
				finding(path, types.SeverityWarning, "structure", 0.5),
				finding(path, types.SeverityCritical, "security", 0.5),
			}
		},
	})
	result := e.AnalyzeFiles(context.Background(), []analyzer.File{{Path: "a.py"}})
	require.Equal(t, 3, result.Summary.TotalIssues)
	require.Equal(t, map[string]int{"warning": 2, "critical": 1}, result.Summary.IssuesBySeverity)
	require.Equal(t, map[string]int{"security": 2, "structure": 1}, result.Summary.IssuesByCategory)
}

func TestAddRemove(t *testing.T) {
	e := engine.New(&stub{name: "a", enabled: true})
	e.Add(&stub{name: "b", enabled: true})
	require.Equal(t, []string{"a", "b"}, e.Names())

	require.True(t, e.Remove("a"))
	require.False(t, e.Remove("a"))
	require.Equal(t, []string{"b"}, e.Names())
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := engine.New(&stub{
		name: "a", enabled: true,
		emit: func(path string) []types.Finding {
			return []types.Finding{finding(path, types.SeverityCritical, "a", 1.0)}
		},
	})
	result := e.AnalyzeFiles(ctx, []analyzer.File{{Path: "a.py"}})
	require.NotNil(t, result, "cancellation never turns into a failure")
	require.Empty(t, result.Findings)
}

func TestDeterministicAcrossRuns(t *testing.T) {
	emit := func(path string) []types.Finding {
		return []types.Finding{
			finding(path, types.SeverityWarning, "a", 0.5),
			finding(path, types.SeverityInfo, "a", 0.5),
		}
	}
	e := engine.New(
		&stub{name: "a", enabled: true, emit: emit},
		&stub{name: "b", enabled: true, emit: emit},
	)
	files := []analyzer.File{{Path: "a.py"}, {Path: "b.py"}}
	first := e.AnalyzeFiles(context.Background(), files)
	second := e.AnalyzeFiles(context.Background(), files)
	require.Equal(t, first, second)
}
