// Package types defines shared data structures (Finding, Severity, Summary)
// used across analyzer, engine, and output packages to prevent import cycles.
package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Severity represents the severity level of a finding.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "critical"
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// ParseSeverity converts a string to a Severity level.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "critical":
		return SeverityCritical, nil
	case "error":
		return SeverityError, nil
	case "warning":
		return SeverityWarning, nil
	case "info":
		return SeverityInfo, nil
	default:
		return SeverityInfo, fmt.Errorf("unknown severity: %q", s)
	}
}

// MarshalJSON serializes severities as their lowercase names.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts the lowercase severity names.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	sev, err := ParseSeverity(str)
	if err != nil {
		return err
	}
	*s = sev
	return nil
}

// Grade is the coarse human-facing quality label derived from the score.
type Grade string

const (
	GradeExcellent        Grade = "EXCELLENT"
	GradeGood             Grade = "GOOD"
	GradeNeedsImprovement Grade = "NEEDS_IMPROVEMENT"
	GradePoor             Grade = "POOR"
)

// GradeForScore maps a score in [0,1] to its grade band.
func GradeForScore(score float64) Grade {
	switch {
	case score >= 0.9:
		return GradeExcellent
	case score >= 0.7:
		return GradeGood
	case score >= 0.5:
		return GradeNeedsImprovement
	default:
		return GradePoor
	}
}

// SnippetLimit is the maximum length of a code snippet attached to a finding.
const SnippetLimit = 100

// TruncateSnippet bounds a snippet to SnippetLimit characters, appending an
// ellipsis marker when the original was longer.
func TruncateSnippet(s string) string {
	if len(s) <= SnippetLimit {
		return s
	}
	// Back up to a rune boundary so the cut never splits a multi-byte
	// character.
	end := SnippetLimit
	for end > 0 && !utf8.RuneStart(s[end]) {
		end--
	}
	return s[:end] + "..."
}

// Finding represents a single reported issue. Findings are produced during
// one analysis pass and never mutated afterward.
type Finding struct {
	FilePath    string   `json:"file_path"`
	Line        int      `json:"line,omitempty"`
	Column      int      `json:"column,omitempty"`
	Severity    Severity `json:"severity"`
	Category    string   `json:"category"`
	Message     string   `json:"message"`
	Suggestion  string   `json:"suggestion,omitempty"`
	CodeSnippet string   `json:"code_snippet,omitempty"`
	Confidence  float64  `json:"confidence"`
}

// Summary aggregates the findings of one batch analysis run.
type Summary struct {
	TotalFiles       int            `json:"total_files"`
	TotalIssues      int            `json:"total_issues"`
	IssuesBySeverity map[string]int `json:"issues_by_severity"`
	IssuesByCategory map[string]int `json:"issues_by_category"`
	Score            float64        `json:"score"`
	Grade            Grade          `json:"grade"`
}
