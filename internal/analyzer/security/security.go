// Package security implements the security rule engine for Python sources:
// syntax-tree checks for dangerous calls and imports, a regex bank for
// hardcoded secrets, and string-literal injection heuristics.
package security

import (
	"context"
	"errors"
	"strings"

	"github.com/garagon/yarara/internal/pyast"
	"github.com/garagon/yarara/internal/types"
)

// Config holds the analyzer's construction-time options.
type Config struct {
	Enabled bool
}

// DefaultConfig returns the default security analyzer configuration.
func DefaultConfig() Config {
	return Config{Enabled: true}
}

// Analyzer is the security rule engine.
type Analyzer struct {
	cfg Config
}

// New creates a security analyzer with the given configuration.
func New(cfg Config) *Analyzer {
	return &Analyzer{cfg: cfg}
}

func (a *Analyzer) Name() string         { return "security" }
func (a *Analyzer) Category() string     { return "security" }
func (a *Analyzer) Enabled() bool        { return a.cfg.Enabled }
func (a *Analyzer) Extensions() []string { return []string{".py"} }

// Analyze runs all three passes over one file. A parse failure downgrades
// to a warning finding and disables the tree-based passes; the raw-text
// pattern scan still runs.
func (a *Analyzer) Analyze(_ context.Context, path, content string) ([]types.Finding, error) {
	var findings []types.Finding
	lines := strings.Split(content, "\n")

	mod, err := pyast.Parse(content, path)
	if err != nil {
		var perr *pyast.ParseError
		if !errors.As(err, &perr) {
			return nil, err
		}
		findings = append(findings, types.Finding{
			FilePath:   path,
			Line:       perr.Line,
			Column:     perr.Col,
			Severity:   types.SeverityWarning,
			Category:   "security",
			Message:    "Syntax error in Python code: " + perr.Error(),
			Suggestion: "Fix syntax errors before security analysis",
			Confidence: 0.5,
		})
	} else {
		findings = append(findings, a.treeChecks(mod, path, lines)...)
	}

	findings = append(findings, a.patternChecks(content, path)...)

	if mod != nil {
		findings = append(findings, a.literalChecks(mod, path)...)
	}
	return findings, nil
}

var dangerousModules = map[string]bool{
	"subprocess": true,
	"os.system":  true,
	"commands":   true,
	"shutil":     true,
	"glob":       true,
}

var deserializerModules = map[string]bool{
	"pickle":  true,
	"cPickle": true,
	"marshal": true,
}

// treeChecks walks the syntax tree for dangerous calls and imports.
func (a *Analyzer) treeChecks(mod *pyast.Module, path string, lines []string) []types.Finding {
	var findings []types.Finding
	add := func(n pyast.Node, sev types.Severity, msg, suggestion string) {
		findings = append(findings, types.Finding{
			FilePath:    path,
			Line:        n.Pos().Line,
			Column:      n.Pos().Col,
			Severity:    sev,
			Category:    "security",
			Message:     msg,
			Suggestion:  suggestion,
			CodeSnippet: snippetAt(lines, n.Pos().Line),
			Confidence:  0.5,
		})
	}

	pyast.Walk(mod, func(n pyast.Node) bool {
		switch node := n.(type) {
		case *pyast.Call:
			switch fn := node.Func.(type) {
			case *pyast.Name:
				switch fn.ID {
				case "eval", "exec":
					add(node, types.SeverityCritical,
						"Use of dangerous function '"+fn.ID+"'",
						"Avoid eval/exec - use safer alternatives")
				case "input":
					add(node, types.SeverityWarning,
						"Use of input() function without validation",
						"Validate and sanitize user input")
				}
			case *pyast.Attribute:
				if base, ok := fn.Value.(*pyast.Name); ok &&
					deserializerModules[base.ID] &&
					(fn.Attr == "load" || fn.Attr == "loads") {
					add(node, types.SeverityWarning,
						"Use of "+base.ID+"."+fn.Attr+"() - potential deserialization vulnerability",
						"Use safer serialization formats like JSON")
				}
			}
		case *pyast.Import:
			for _, alias := range node.Names {
				if dangerousModules[alias.Name] {
					add(node, types.SeverityInfo,
						"Import of potentially dangerous module '"+alias.Name+"'",
						"Review usage for security implications")
				}
			}
		case *pyast.ImportFrom:
			if node.Module == "os" {
				for _, alias := range node.Names {
					if alias.Name == "system" || alias.Name == "popen" || strings.HasPrefix(alias.Name, "spawn") {
						add(node, types.SeverityWarning,
							"Import of dangerous os functions",
							"Use safer alternatives for system operations")
						break
					}
				}
			}
		}
		return true
	})
	return findings
}

// patternChecks runs the hardcoded-secret regex bank over the raw content.
func (a *Analyzer) patternChecks(content, path string) []types.Finding {
	var findings []types.Finding
	for _, rule := range secretRules {
		for _, loc := range rule.re.FindAllStringIndex(content, -1) {
			line := 1 + strings.Count(content[:loc[0]], "\n")
			findings = append(findings, types.Finding{
				FilePath:    path,
				Line:        line,
				Severity:    types.SeverityCritical,
				Category:    "security",
				Message:     rule.message,
				Suggestion:  "Move sensitive data to environment variables or secure configuration",
				CodeSnippet: types.TruncateSnippet(content[loc[0]:loc[1]]),
				Confidence:  0.5,
			})
		}
	}
	return findings
}

// literalChecks applies the injection heuristics to every string literal.
func (a *Analyzer) literalChecks(mod *pyast.Module, path string) []types.Finding {
	var findings []types.Finding
	add := func(n pyast.Node, sev types.Severity, msg, suggestion, snippet string) {
		findings = append(findings, types.Finding{
			FilePath:    path,
			Line:        n.Pos().Line,
			Severity:    sev,
			Category:    "security",
			Message:     msg,
			Suggestion:  suggestion,
			CodeSnippet: types.TruncateSnippet(snippet),
			Confidence:  0.5,
		})
	}

	pyast.Walk(mod, func(n pyast.Node) bool {
		if bin, ok := n.(*pyast.BinOp); ok && bin.Op == "+" {
			// Query text glued together with '+' is the classic
			// injection shape even when the literal itself holds
			// no concatenation marker.
			for _, side := range []pyast.Expr{bin.Left, bin.Right} {
				if s, ok := side.(*pyast.Str); ok && sqlQueryRe.MatchString(s.Value) {
					add(s, types.SeverityWarning,
						"Potential SQL injection vulnerability",
						"Use parameterized queries or an ORM", s.Value)
				}
			}
			return true
		}
		str, ok := n.(*pyast.Str)
		if !ok {
			return true
		}
		if isSQLRisk(str.Value) {
			add(str, types.SeverityWarning,
				"Potential SQL injection vulnerability",
				"Use parameterized queries or an ORM", str.Value)
		}
		if isCmdRisk(str.Value) {
			add(str, types.SeverityCritical,
				"Potential command injection vulnerability",
				"Avoid shell=True or validate/sanitize input", str.Value)
		}
		if isPathTraversalRisk(str.Value) {
			add(str, types.SeverityWarning,
				"Potential path traversal vulnerability",
				"Validate and sanitize file paths", str.Value)
		}
		return true
	})
	return findings
}

func isPathTraversalRisk(s string) bool {
	for _, seq := range pathTraversalSeqs {
		if strings.Contains(s, seq) {
			return true
		}
	}
	return false
}

func snippetAt(lines []string, line int) string {
	if line < 1 || line > len(lines) {
		return ""
	}
	return types.TruncateSnippet(strings.TrimSpace(lines[line-1]))
}
