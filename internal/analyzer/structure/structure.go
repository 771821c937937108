// Package structure implements the maintainability rule engine for Python
// sources: oversized signatures, mutable defaults, bare excepts, builtin
// shadowing and deep nesting.
package structure

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/garagon/yarara/internal/pyast"
	"github.com/garagon/yarara/internal/types"
)

// Config holds the analyzer's construction-time options.
type Config struct {
	Enabled         bool
	MaxArgs         int
	MaxNestingDepth int
}

// DefaultConfig returns the default structure analyzer configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:         true,
		MaxArgs:         6,
		MaxNestingDepth: 8,
	}
}

// Analyzer is the structure rule engine.
type Analyzer struct {
	cfg Config
}

// New creates a structure analyzer with the given configuration.
func New(cfg Config) *Analyzer {
	return &Analyzer{cfg: cfg}
}

func (a *Analyzer) Name() string         { return "structure" }
func (a *Analyzer) Category() string     { return "structure" }
func (a *Analyzer) Enabled() bool        { return a.cfg.Enabled }
func (a *Analyzer) Extensions() []string { return []string{".py"} }

// Analyze runs the structural checks over one file. Unlike the security
// analyzer there is no raw-text fallback: a file that does not parse gets
// exactly one finding and nothing else.
func (a *Analyzer) Analyze(_ context.Context, path, content string) ([]types.Finding, error) {
	mod, err := pyast.Parse(content, path)
	if err != nil {
		var perr *pyast.ParseError
		if !errors.As(err, &perr) {
			return nil, err
		}
		return []types.Finding{{
			FilePath:   path,
			Line:       perr.Line,
			Column:     perr.Col,
			Severity:   types.SeverityError,
			Category:   "structure",
			Message:    "Syntax error prevents structural analysis: " + perr.Error(),
			Suggestion: "Fix syntax errors first",
			Confidence: 0.9,
		}}, nil
	}

	lines := strings.Split(content, "\n")
	findings := a.nodeChecks(mod, path, lines)
	findings = append(findings, a.shadowingChecks(mod, path)...)
	findings = append(findings, a.nestingCheck(mod, path)...)
	return findings, nil
}

// nodeChecks covers everything attributable to a single node: signatures,
// defaults, exception handlers and calls.
func (a *Analyzer) nodeChecks(mod *pyast.Module, path string, lines []string) []types.Finding {
	var findings []types.Finding
	add := func(n pyast.Node, sev types.Severity, conf float64, msg, suggestion string) {
		findings = append(findings, types.Finding{
			FilePath:    path,
			Line:        n.Pos().Line,
			Column:      n.Pos().Col,
			Severity:    sev,
			Category:    "structure",
			Message:     msg,
			Suggestion:  suggestion,
			CodeSnippet: snippetAt(lines, n.Pos().Line),
			Confidence:  conf,
		})
	}

	pyast.Walk(mod, func(n pyast.Node) bool {
		switch node := n.(type) {
		case *pyast.FunctionDef:
			if count := node.Params.Count(); count > a.cfg.MaxArgs {
				add(node, types.SeverityWarning, 0.6,
					fmt.Sprintf("Function '%s' has too many arguments (%d)", node.Name, count),
					"Group related arguments into an object")
			}
			for _, p := range append(node.Params.Positional, node.Params.KwOnly...) {
				if isMutableLiteral(p.Default) {
					add(node, types.SeverityWarning, 0.8,
						fmt.Sprintf("Mutable default argument in function '%s'", node.Name),
						"Use None as default and create the object inside the function")
				}
			}
		case *pyast.ExceptHandler:
			if node.Type == nil {
				add(node, types.SeverityWarning, 0.7,
					"Bare except clause catches all exceptions",
					"Catch specific exception types")
			}
		case *pyast.Call:
			if fn, ok := node.Func.(*pyast.Name); ok {
				switch fn.ID {
				case "eval", "exec":
					add(node, types.SeverityError, 0.9,
						fmt.Sprintf("Use of '%s' makes code hard to maintain and debug", fn.ID),
						"Refactor to avoid dynamic code execution")
				case "print":
					add(node, types.SeverityInfo, 0.5,
						"print() call in code",
						"Use the logging module instead of print")
				}
			}
		}
		return true
	})
	return findings
}

// shadowingChecks reports assignments that rebind a Python builtin anywhere
// in the file. The finding is file-wide, so it carries no line.
func (a *Analyzer) shadowingChecks(mod *pyast.Module, path string) []types.Finding {
	assigned := map[string]bool{}
	collect := func(target pyast.Expr) {
		switch t := target.(type) {
		case *pyast.Name:
			assigned[t.ID] = true
		case *pyast.TupleExpr:
			for _, e := range t.Elts {
				if name, ok := e.(*pyast.Name); ok {
					assigned[name.ID] = true
				}
			}
		case *pyast.ListExpr:
			for _, e := range t.Elts {
				if name, ok := e.(*pyast.Name); ok {
					assigned[name.ID] = true
				}
			}
		}
	}
	pyast.Walk(mod, func(n pyast.Node) bool {
		switch node := n.(type) {
		case *pyast.Assign:
			for _, t := range node.Targets {
				collect(t)
			}
		case *pyast.AnnAssign:
			collect(node.Target)
		case *pyast.For:
			collect(node.Target)
		}
		return true
	})

	var shadowed []string
	for name := range assigned {
		if pythonBuiltins[name] {
			shadowed = append(shadowed, name)
		}
	}
	sort.Strings(shadowed)

	var findings []types.Finding
	for _, name := range shadowed {
		findings = append(findings, types.Finding{
			FilePath:   path,
			Severity:   types.SeverityWarning,
			Category:   "structure",
			Message:    fmt.Sprintf("Variable '%s' shadows a Python builtin", name),
			Suggestion: "Rename the variable to avoid confusion",
			Confidence: 0.6,
		})
	}
	return findings
}

// nestingCheck reports once per file when block nesting exceeds the limit.
func (a *Analyzer) nestingCheck(mod *pyast.Module, path string) []types.Finding {
	depth := maxNesting(mod.Body)
	if depth <= a.cfg.MaxNestingDepth {
		return nil
	}
	return []types.Finding{{
		FilePath:   path,
		Severity:   types.SeverityWarning,
		Category:   "structure",
		Message:    fmt.Sprintf("Nesting depth %d exceeds maximum of %d", depth, a.cfg.MaxNestingDepth),
		Suggestion: "Extract helper functions to reduce nesting",
		Confidence: 0.6,
	}}
}

// maxNesting returns the deepest chain of block-introducing statements.
// Each def, class, if, loop, with, try or except level counts as one.
func maxNesting(stmts []pyast.Stmt) int {
	depth := 0
	for _, s := range stmts {
		if d := stmtDepth(s); d > depth {
			depth = d
		}
	}
	return depth
}

func stmtDepth(s pyast.Stmt) int {
	switch n := s.(type) {
	case *pyast.FunctionDef:
		return 1 + maxNesting(n.Body)
	case *pyast.ClassDef:
		return 1 + maxNesting(n.Body)
	case *pyast.If:
		return 1 + maxInt(maxNesting(n.Body), maxNesting(n.Orelse))
	case *pyast.While:
		return 1 + maxInt(maxNesting(n.Body), maxNesting(n.Orelse))
	case *pyast.For:
		return 1 + maxInt(maxNesting(n.Body), maxNesting(n.Orelse))
	case *pyast.With:
		return 1 + maxNesting(n.Body)
	case *pyast.Try:
		depth := maxNesting(n.Body)
		for _, h := range n.Handlers {
			depth = maxInt(depth, 1+maxNesting(h.Body))
		}
		depth = maxInt(depth, maxNesting(n.Orelse))
		depth = maxInt(depth, maxNesting(n.Finally))
		return 1 + depth
	default:
		return 0
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func isMutableLiteral(e pyast.Expr) bool {
	switch e.(type) {
	case *pyast.ListExpr, *pyast.DictExpr, *pyast.SetExpr:
		return true
	default:
		return false
	}
}

func snippetAt(lines []string, line int) string {
	if line < 1 || line > len(lines) {
		return ""
	}
	return types.TruncateSnippet(strings.TrimSpace(lines[line-1]))
}

// pythonBuiltins is the set of builtin names worth protecting from
// accidental rebinding.
var pythonBuiltins = map[string]bool{
	"abs": true, "all": true, "any": true, "ascii": true, "bin": true,
	"bool": true, "bytearray": true, "bytes": true, "callable": true,
	"chr": true, "classmethod": true, "compile": true, "complex": true,
	"dict": true, "dir": true, "divmod": true, "enumerate": true,
	"eval": true, "exec": true, "filter": true, "float": true,
	"format": true, "frozenset": true, "getattr": true, "globals": true,
	"hasattr": true, "hash": true, "help": true, "hex": true, "id": true,
	"input": true, "int": true, "isinstance": true, "issubclass": true,
	"iter": true, "len": true, "list": true, "locals": true, "map": true,
	"max": true, "memoryview": true, "min": true, "next": true,
	"object": true, "oct": true, "open": true, "ord": true, "pow": true,
	"print": true, "property": true, "range": true, "repr": true,
	"reversed": true, "round": true, "set": true, "setattr": true,
	"slice": true, "sorted": true, "staticmethod": true, "str": true,
	"sum": true, "super": true, "tuple": true, "type": true, "vars": true,
	"zip": true,
}
