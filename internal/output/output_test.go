package output_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/garagon/yarara/internal/engine"
	"github.com/garagon/yarara/internal/output"
	"github.com/garagon/yarara/internal/types"
	"github.com/stretchr/testify/require"
)

func sampleResult() *engine.Result {
	return &engine.Result{
		Findings: []types.Finding{
			{
				FilePath:    "app.py",
				Line:        3,
				Severity:    types.SeverityCritical,
				Category:    "security",
				Message:     "Use of dangerous function 'eval'",
				Suggestion:  "Avoid eval/exec - use safer alternatives",
				CodeSnippet: "result = eval(user_input)",
				Confidence:  0.5,
			},
			{
				FilePath:   "app.py",
				Line:       10,
				Severity:   types.SeverityWarning,
				Category:   "structure",
				Message:    "Bare except clause catches all exceptions",
				Confidence: 0.7,
			},
			{
				FilePath:   "util.py",
				Severity:   types.SeverityInfo,
				Category:   "structure",
				Message:    "print() call in code",
				Confidence: 0.5,
			},
		},
		Summary: types.Summary{
			TotalFiles:  2,
			TotalIssues: 3,
			IssuesBySeverity: map[string]int{
				"critical": 1, "warning": 1, "info": 1,
			},
			IssuesByCategory: map[string]int{
				"security": 1, "structure": 2,
			},
			Score: 0.55,
			Grade: types.GradeNeedsImprovement,
		},
	}
}

func emptyResult() *engine.Result {
	return &engine.Result{
		Summary: types.Summary{
			TotalFiles:       1,
			IssuesBySeverity: map[string]int{},
			IssuesByCategory: map[string]int{},
			Score:            1.0,
			Grade:            types.GradeExcellent,
		},
	}
}

func TestFor(t *testing.T) {
	for _, name := range []string{"", "terminal", "json", "markdown", "md", "sarif"} {
		f, err := output.For(name)
		require.NoError(t, err, name)
		require.NotNil(t, f)
	}
	_, err := output.For("xml")
	require.Error(t, err)
}

func TestTerminalFormat(t *testing.T) {
	var buf bytes.Buffer
	f := &output.TerminalFormatter{NoColor: true}
	require.NoError(t, f.Format(&buf, sampleResult()))

	out := buf.String()
	require.Contains(t, out, "YARARA ANALYSIS RESULTS")
	require.Contains(t, out, "NEEDS_IMPROVEMENT")
	require.Contains(t, out, "CRITICAL (1)")
	require.Contains(t, out, "app.py:3")
	require.Contains(t, out, "dangerous function")
	require.Contains(t, out, "TOP AFFECTED FILES")
	require.NotContains(t, out, "\033[", "NoColor output carries no ANSI codes")
}

func TestTerminalFormatClean(t *testing.T) {
	var buf bytes.Buffer
	f := &output.TerminalFormatter{NoColor: true}
	require.NoError(t, f.Format(&buf, emptyResult()))
	require.Contains(t, buf.String(), "No issues found")
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&output.JSONFormatter{}).Format(&buf, sampleResult()))

	var decoded engine.Result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded.Findings, 3)
	require.Equal(t, types.SeverityCritical, decoded.Findings[0].Severity)
	require.InDelta(t, 0.55, decoded.Summary.Score, 1e-9)
	require.Equal(t, types.GradeNeedsImprovement, decoded.Summary.Grade)
}

func TestMarkdownFormat(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&output.MarkdownFormatter{}).Format(&buf, sampleResult()))

	out := buf.String()
	require.Contains(t, out, "Yarara Review — 3 findings")
	require.Contains(t, out, "| Category | Message | File | Line |")
	require.Contains(t, out, "`security`")
	require.Contains(t, out, "<details open>")
	require.Contains(t, out, "Top affected files")
}

func TestMarkdownFormatClean(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&output.MarkdownFormatter{}).Format(&buf, emptyResult()))
	require.Contains(t, buf.String(), "No issues found")
}

func TestMarkdownEscapesTableCells(t *testing.T) {
	result := &engine.Result{
		Findings: []types.Finding{{
			FilePath:    "a.py",
			Line:        1,
			Severity:    types.SeverityWarning,
			Category:    "security",
			Message:     "pipe | and <tag> here",
			CodeSnippet: "x | y",
			Confidence:  0.5,
		}},
		Summary: types.Summary{TotalFiles: 1, TotalIssues: 1},
	}
	var buf bytes.Buffer
	require.NoError(t, (&output.MarkdownFormatter{}).Format(&buf, result))

	out := buf.String()
	require.Contains(t, out, `pipe \| and &lt;tag&gt; here`)
}

func TestSARIFFormat(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&output.SARIFFormatter{}).Format(&buf, sampleResult()))

	var log struct {
		Version string `json:"version"`
		Runs    []struct {
			Tool struct {
				Driver struct {
					Name  string `json:"name"`
					Rules []struct {
						ID string `json:"id"`
					} `json:"rules"`
				} `json:"driver"`
			} `json:"tool"`
			Results []struct {
				RuleID    string `json:"ruleId"`
				Level     string `json:"level"`
				Locations []struct {
					PhysicalLocation struct {
						ArtifactLocation struct {
							URI string `json:"uri"`
						} `json:"artifactLocation"`
						Region struct {
							StartLine int `json:"startLine"`
						} `json:"region"`
					} `json:"physicalLocation"`
				} `json:"locations"`
			} `json:"results"`
		} `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &log))
	require.Equal(t, "2.1.0", log.Version)
	require.Len(t, log.Runs, 1)
	require.Equal(t, "yarara", log.Runs[0].Tool.Driver.Name)
	require.Len(t, log.Runs[0].Tool.Driver.Rules, 2, "one rule per category")
	require.Len(t, log.Runs[0].Results, 3)

	first := log.Runs[0].Results[0]
	require.Equal(t, "security", first.RuleID)
	require.Equal(t, "error", first.Level)
	require.Equal(t, "app.py", first.Locations[0].PhysicalLocation.ArtifactLocation.URI)
	require.Equal(t, 3, first.Locations[0].PhysicalLocation.Region.StartLine)

	last := log.Runs[0].Results[2]
	require.Equal(t, "note", last.Level)
	require.Equal(t, 1, last.Locations[0].PhysicalLocation.Region.StartLine, "zero line clamps to 1")
}
