package output

import (
	"encoding/json"
	"io"

	"github.com/garagon/yarara/internal/engine"
	"github.com/garagon/yarara/internal/types"
)

// ToolVersion is the yarara version reported in SARIF output.
var ToolVersion = "dev"

// SARIFFormatter emits findings in SARIF 2.1.0 format for GitHub Code
// Scanning. Rules are derived from finding categories.
type SARIFFormatter struct{}

type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool       sarifTool      `json:"tool"`
	Results    []sarifResult  `json:"results"`
	Properties map[string]any `json:"properties,omitempty"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	InformationURI string      `json:"informationUri"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	ShortDescription sarifMessage `json:"shortDescription"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifResult struct {
	RuleID     string          `json:"ruleId"`
	RuleIndex  int             `json:"ruleIndex"`
	Level      string          `json:"level"`
	Message    sarifMessage    `json:"message"`
	Locations  []sarifLocation `json:"locations"`
	Properties map[string]any  `json:"properties,omitempty"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           sarifRegion           `json:"region"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine   int `json:"startLine"`
	StartColumn int `json:"startColumn,omitempty"`
}

func (f *SARIFFormatter) Format(w io.Writer, result *engine.Result) error {
	// Collect unique categories as rules, in order
	ruleIndex := map[string]int{}
	var rules []sarifRule
	for _, finding := range result.Findings {
		if _, ok := ruleIndex[finding.Category]; !ok {
			ruleIndex[finding.Category] = len(rules)
			rules = append(rules, sarifRule{
				ID:               finding.Category,
				Name:             finding.Category,
				ShortDescription: sarifMessage{Text: finding.Category + " finding"},
			})
		}
	}

	var results []sarifResult
	for _, finding := range result.Findings {
		r := sarifResult{
			RuleID:    finding.Category,
			RuleIndex: ruleIndex[finding.Category],
			Level:     severityToLevel(finding.Severity),
			Message:   sarifMessage{Text: finding.Message},
			Locations: []sarifLocation{
				{
					PhysicalLocation: sarifPhysicalLocation{
						ArtifactLocation: sarifArtifactLocation{URI: finding.FilePath},
						Region: sarifRegion{
							StartLine:   max(finding.Line, 1),
							StartColumn: max(finding.Column, 1),
						},
					},
				},
			},
			Properties: map[string]any{"confidence": finding.Confidence},
		}
		results = append(results, r)
	}

	log := sarifLog{
		Schema:  "https://docs.oasis-open.org/sarif/sarif/v2.1.0/sarif-schema-2.1.0.json",
		Version: "2.1.0",
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:           "yarara",
						Version:        ToolVersion,
						InformationURI: "https://github.com/garagon/yarara",
						Rules:          rules,
					},
				},
				Results: results,
				Properties: map[string]any{
					"score": result.Summary.Score,
					"grade": result.Summary.Grade,
				},
			},
		},
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(log)
}

func severityToLevel(sev types.Severity) string {
	switch sev {
	case types.SeverityCritical, types.SeverityError:
		return "error"
	case types.SeverityWarning:
		return "warning"
	case types.SeverityInfo:
		return "note"
	default:
		return "none"
	}
}
