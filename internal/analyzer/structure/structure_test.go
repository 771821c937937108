package structure_test

import (
	"context"
	"strings"
	"testing"

	"github.com/garagon/yarara/internal/analyzer/security"
	"github.com/garagon/yarara/internal/analyzer/structure"
	"github.com/garagon/yarara/internal/types"
	"github.com/stretchr/testify/require"
)

func analyze(t *testing.T, content string) []types.Finding {
	t.Helper()
	a := structure.New(structure.DefaultConfig())
	findings, err := a.Analyze(context.Background(), "test.py", content)
	require.NoError(t, err)
	return findings
}

func filterMsg(findings []types.Finding, substr string) []types.Finding {
	var out []types.Finding
	for _, f := range findings {
		if strings.Contains(f.Message, substr) {
			out = append(out, f)
		}
	}
	return out
}

func TestTooManyArguments(t *testing.T) {
	findings := analyze(t, "def handler(a, b, c, d, e, f, g):\n    pass\n")
	warns := filterMsg(findings, "too many arguments")
	require.Len(t, warns, 1)
	require.Equal(t, types.SeverityWarning, warns[0].Severity)
	require.Contains(t, warns[0].Message, "(7)")
	require.Equal(t, 1, warns[0].Line)
	require.InEpsilon(t, 0.6, warns[0].Confidence, 1e-9)
}

func TestArgumentCountAtLimit(t *testing.T) {
	findings := analyze(t, "def handler(a, b, c, d, e, f):\n    pass\n")
	require.Empty(t, filterMsg(findings, "too many arguments"))
}

func TestStarArgsCountTowardLimit(t *testing.T) {
	findings := analyze(t, "def handler(a, b, c, d, e, *args, **kwargs):\n    pass\n")
	warns := filterMsg(findings, "too many arguments")
	require.Len(t, warns, 1)
	require.Contains(t, warns[0].Message, "(7)")
}

func TestMutableDefaults(t *testing.T) {
	findings := analyze(t, "def collect(items=[], seen={}):\n    pass\n")
	warns := filterMsg(findings, "Mutable default")
	require.Len(t, warns, 2)
	for _, w := range warns {
		require.Equal(t, types.SeverityWarning, w.Severity)
		require.Equal(t, 1, w.Line, "finding points at the def line")
		require.InEpsilon(t, 0.8, w.Confidence, 1e-9)
	}
}

func TestBareExcept(t *testing.T) {
	src := "try:\n    risky()\nexcept:\n    pass\n"
	findings := analyze(t, src)
	warns := filterMsg(findings, "Bare except")
	require.Len(t, warns, 1)
	require.Equal(t, 3, warns[0].Line)
	require.InEpsilon(t, 0.7, warns[0].Confidence, 1e-9)

	typed := analyze(t, "try:\n    risky()\nexcept ValueError:\n    pass\n")
	require.Empty(t, filterMsg(typed, "Bare except"))
}

func TestEvalIsStructureError(t *testing.T) {
	findings := analyze(t, "result = eval(data)\n")
	errs := filterMsg(findings, "'eval'")
	require.Len(t, errs, 1)
	require.Equal(t, types.SeverityError, errs[0].Severity)
	require.Equal(t, "structure", errs[0].Category)
	require.InEpsilon(t, 0.9, errs[0].Confidence, 1e-9)
}

// Both analyzers flag the same eval call, under their own category and
// severity.
func TestEvalFlaggedByBothAnalyzers(t *testing.T) {
	src := "result = eval(data)\n"

	structFindings := analyze(t, src)
	require.Len(t, filterMsg(structFindings, "'eval'"), 1)

	sec := security.New(security.DefaultConfig())
	secFindings, err := sec.Analyze(context.Background(), "test.py", src)
	require.NoError(t, err)

	var secEval []types.Finding
	for _, f := range secFindings {
		if strings.Contains(f.Message, "eval") {
			secEval = append(secEval, f)
		}
	}
	require.Len(t, secEval, 1)
	require.Equal(t, types.SeverityCritical, secEval[0].Severity)
	require.Equal(t, "security", secEval[0].Category)
	require.Equal(t, secEval[0].Line, structFindings[0].Line)
}

func TestPrintIsInfo(t *testing.T) {
	findings := analyze(t, "print('processing')\n")
	infos := filterMsg(findings, "print()")
	require.Len(t, infos, 1)
	require.Equal(t, types.SeverityInfo, infos[0].Severity)
	require.Contains(t, infos[0].Suggestion, "logging")
	require.InEpsilon(t, 0.5, infos[0].Confidence, 1e-9)
}

func TestBuiltinShadowing(t *testing.T) {
	src := "list = load()\nid = 5\nvalue = 7\n"
	findings := analyze(t, src)
	warns := filterMsg(findings, "shadows a Python builtin")
	require.Len(t, warns, 2)
	require.Contains(t, warns[0].Message, "'id'")
	require.Contains(t, warns[1].Message, "'list'")
	for _, w := range warns {
		require.Zero(t, w.Line, "file-wide finding carries no line")
		require.InEpsilon(t, 0.6, w.Confidence, 1e-9)
	}
}

func TestShadowingInForTarget(t *testing.T) {
	findings := analyze(t, "for type in rows:\n    pass\n")
	require.Len(t, filterMsg(findings, "'type'"), 1)
}

func nestedIfs(depth int) string {
	var b strings.Builder
	for i := 0; i < depth; i++ {
		b.WriteString(strings.Repeat("    ", i))
		b.WriteString("if x:\n")
	}
	b.WriteString(strings.Repeat("    ", depth))
	b.WriteString("pass\n")
	return b.String()
}

func TestNestingDepthExceeded(t *testing.T) {
	findings := analyze(t, nestedIfs(9))
	warns := filterMsg(findings, "Nesting depth")
	require.Len(t, warns, 1)
	require.Contains(t, warns[0].Message, "9")
	require.Zero(t, warns[0].Line)
	require.InEpsilon(t, 0.6, warns[0].Confidence, 1e-9)
}

func TestNestingDepthAtLimit(t *testing.T) {
	findings := analyze(t, nestedIfs(8))
	require.Empty(t, filterMsg(findings, "Nesting depth"))
}

func TestParseFailureSingleFinding(t *testing.T) {
	findings := analyze(t, "def broken(:\n")
	require.Len(t, findings, 1)
	require.Equal(t, types.SeverityError, findings[0].Severity)
	require.Equal(t, "structure", findings[0].Category)
	require.InEpsilon(t, 0.9, findings[0].Confidence, 1e-9)
}

func TestCleanFileHasNoFindings(t *testing.T) {
	src := "def add(a, b):\n    return a + b\n"
	require.Empty(t, analyze(t, src))
}

func TestGroupedContextManagersAreClean(t *testing.T) {
	src := "def copy(src, dst):\n    with (open(src) as fin, open(dst) as fout):\n        fout.write(fin.read())\n"
	require.Empty(t, analyze(t, src))
}

func TestConfigurableLimits(t *testing.T) {
	cfg := structure.DefaultConfig()
	cfg.MaxArgs = 2
	a := structure.New(cfg)
	findings, err := a.Analyze(context.Background(), "test.py", "def f(a, b, c):\n    pass\n")
	require.NoError(t, err)
	require.Len(t, filterMsg(findings, "too many arguments"), 1)
}

func TestDisabledAnalyzer(t *testing.T) {
	a := structure.New(structure.Config{Enabled: false})
	require.False(t, a.Enabled())
	require.Equal(t, "structure", a.Name())
	require.Equal(t, []string{".py"}, a.Extensions())
}
