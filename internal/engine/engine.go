// Package engine fans analysis out across the registered analyzers and
// folds their findings into a scored summary.
package engine

import (
	"context"
	"math"
	"sync"

	"github.com/garagon/yarara/internal/analyzer"
	"github.com/garagon/yarara/internal/types"
)

// Result is the outcome of one analysis run.
type Result struct {
	Findings []types.Finding `json:"findings"`
	Summary  types.Summary   `json:"summary"`
}

// Engine runs an ordered set of analyzers over file batches. The zero value
// is usable; analyzers run in registration order as far as output ordering
// is concerned, concurrently in execution.
type Engine struct {
	mu        sync.Mutex
	analyzers []analyzer.Analyzer
}

// New creates an engine with the given analyzers, in order.
func New(analyzers ...analyzer.Analyzer) *Engine {
	return &Engine{analyzers: analyzers}
}

// Add appends an analyzer to the end of the run order.
func (e *Engine) Add(a analyzer.Analyzer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.analyzers = append(e.analyzers, a)
}

// Remove drops the analyzer with the given name. It reports whether an
// analyzer was removed.
func (e *Engine) Remove(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, a := range e.analyzers {
		if a.Name() == name {
			e.analyzers = append(e.analyzers[:i], e.analyzers[i+1:]...)
			return true
		}
	}
	return false
}

// Names returns the registered analyzer names in run order.
func (e *Engine) Names() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	names := make([]string, len(e.analyzers))
	for i, a := range e.analyzers {
		names[i] = a.Name()
	}
	return names
}

// AnalyzeFiles runs every enabled analyzer over the batch and aggregates
// the results. It never fails: a panicking analyzer loses its findings,
// everything else proceeds. Findings are concatenated in registration
// order regardless of which analyzer finishes first.
func (e *Engine) AnalyzeFiles(ctx context.Context, files []analyzer.File) *Result {
	e.mu.Lock()
	active := make([]analyzer.Analyzer, 0, len(e.analyzers))
	for _, a := range e.analyzers {
		if a.Enabled() {
			active = append(active, a)
		}
	}
	e.mu.Unlock()

	slots := make([][]types.Finding, len(active))
	var wg sync.WaitGroup
	for i, a := range active {
		wg.Add(1)
		go func(i int, a analyzer.Analyzer) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					slots[i] = nil
				}
			}()
			// AnalyzeBatch only errors on cancellation; the partial
			// findings gathered before the cut are kept.
			findings, _ := analyzer.AnalyzeBatch(ctx, a, files)
			slots[i] = findings
		}(i, a)
	}
	wg.Wait()

	var findings []types.Finding
	for _, slot := range slots {
		findings = append(findings, slot...)
	}
	return &Result{
		Findings: findings,
		Summary:  summarize(files, findings),
	}
}

func summarize(files []analyzer.File, findings []types.Finding) types.Summary {
	s := types.Summary{
		TotalFiles:       len(files),
		TotalIssues:      len(findings),
		IssuesBySeverity: map[string]int{},
		IssuesByCategory: map[string]int{},
	}
	for _, f := range findings {
		s.IssuesBySeverity[f.Severity.String()]++
		s.IssuesByCategory[f.Category]++
	}
	s.Score = score(files, findings)
	s.Grade = types.GradeForScore(s.Score)
	return s
}

// score computes the quality score: each file accumulates weight*confidence
// per finding, capped at 1.0, and the mean penalty across the batch is
// subtracted from a perfect score.
func score(files []analyzer.File, findings []types.Finding) float64 {
	if len(files) == 0 || len(findings) == 0 {
		return 1.0
	}
	perFile := map[string]float64{}
	for _, f := range findings {
		perFile[f.FilePath] += severityWeight(f.Severity) * f.Confidence
	}
	total := 0.0
	for _, penalty := range perFile {
		total += math.Min(1.0, penalty)
	}
	s := 1.0 - total/float64(len(files))
	if s < 0 {
		s = 0
	}
	return math.Round(s*1000) / 1000
}

func severityWeight(sev types.Severity) float64 {
	switch sev {
	case types.SeverityInfo:
		return 0.1
	case types.SeverityWarning:
		return 0.3
	case types.SeverityError:
		return 0.7
	case types.SeverityCritical:
		return 1.0
	default:
		return 0.5
	}
}
