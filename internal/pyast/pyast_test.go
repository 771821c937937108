package pyast_test

import (
	"errors"
	"testing"

	"github.com/garagon/yarara/internal/pyast"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src string) *pyast.Module {
	t.Helper()
	mod, err := pyast.Parse(src, "test.py")
	require.NoError(t, err)
	return mod
}

func TestParseFunctionDef(t *testing.T) {
	src := "def handler(req, ctx, *args, timeout=30, **kwargs):\n    return req\n"
	mod := mustParse(t, src)
	require.Len(t, mod.Body, 1)

	fn, ok := mod.Body[0].(*pyast.FunctionDef)
	require.True(t, ok)
	require.Equal(t, "handler", fn.Name)
	require.Equal(t, 1, fn.Pos().Line)
	require.Len(t, fn.Params.Positional, 2)
	require.Len(t, fn.Params.KwOnly, 1)
	require.NotNil(t, fn.Params.Vararg)
	require.NotNil(t, fn.Params.Kwarg)
	require.Equal(t, 5, fn.Params.Count())
	require.Len(t, fn.Body, 1)
}

func TestParseMutableDefault(t *testing.T) {
	mod := mustParse(t, "def add(item, seen=[]):\n    seen.append(item)\n")
	fn := mod.Body[0].(*pyast.FunctionDef)
	def := fn.Params.Positional[1].Default
	_, ok := def.(*pyast.ListExpr)
	require.True(t, ok, "default should be a list literal, got %T", def)
}

func TestParseCallPositions(t *testing.T) {
	src := "x = 1\nresult = eval(data)\n"
	mod := mustParse(t, src)

	var call *pyast.Call
	pyast.Walk(mod, func(n pyast.Node) bool {
		if c, ok := n.(*pyast.Call); ok {
			call = c
		}
		return true
	})
	require.NotNil(t, call)
	name, ok := call.Func.(*pyast.Name)
	require.True(t, ok)
	require.Equal(t, "eval", name.ID)
	require.Equal(t, 2, call.Pos().Line)
	require.Equal(t, 10, call.Pos().Col)
}

func TestParseImports(t *testing.T) {
	src := "import subprocess\nimport os.path as p\nfrom os import system, popen\nfrom . import sibling\n"
	mod := mustParse(t, src)
	require.Len(t, mod.Body, 4)

	imp := mod.Body[0].(*pyast.Import)
	require.Equal(t, "subprocess", imp.Names[0].Name)

	imp2 := mod.Body[1].(*pyast.Import)
	require.Equal(t, "os.path", imp2.Names[0].Name)
	require.Equal(t, "p", imp2.Names[0].As)

	from := mod.Body[2].(*pyast.ImportFrom)
	require.Equal(t, "os", from.Module)
	require.Equal(t, []pyast.ImportAlias{{Name: "system"}, {Name: "popen"}}, from.Names)

	rel := mod.Body[3].(*pyast.ImportFrom)
	require.Equal(t, "", rel.Module)
	require.Equal(t, "sibling", rel.Names[0].Name)
}

func TestParseTryExcept(t *testing.T) {
	src := `try:
    risky()
except ValueError as e:
    handle(e)
except:
    pass
finally:
    cleanup()
`
	mod := mustParse(t, src)
	tr := mod.Body[0].(*pyast.Try)
	require.Len(t, tr.Handlers, 2)
	require.NotNil(t, tr.Handlers[0].Type)
	require.Equal(t, "e", tr.Handlers[0].Name)
	require.Nil(t, tr.Handlers[1].Type, "bare except should have nil type")
	require.Equal(t, 5, tr.Handlers[1].Pos().Line)
	require.Len(t, tr.Finally, 1)
}

func TestParseStringLiterals(t *testing.T) {
	src := "a = 'single'\nb = \"double\"\nc = '''triple\nspans lines'''\nd = f\"formatted {x}\"\n"
	mod := mustParse(t, src)

	var strs []*pyast.Str
	pyast.Walk(mod, func(n pyast.Node) bool {
		if s, ok := n.(*pyast.Str); ok {
			strs = append(strs, s)
		}
		return true
	})
	require.Len(t, strs, 4)
	require.Equal(t, "single", strs[0].Value)
	require.Equal(t, "triple\nspans lines", strs[2].Value)
	require.Equal(t, "f", strs[3].Prefix)
}

func TestParseAdjacentStringConcat(t *testing.T) {
	mod := mustParse(t, "q = 'SELECT * ' 'FROM users'\n")
	assign := mod.Body[0].(*pyast.Assign)
	s, ok := assign.Value.(*pyast.Str)
	require.True(t, ok)
	require.Equal(t, "SELECT * FROM users", s.Value)
}

func TestParseNestedBlocks(t *testing.T) {
	src := `def outer():
    if a:
        for i in items:
            while True:
                with open(f) as fh:
                    process(fh)
`
	mod := mustParse(t, src)
	fn := mod.Body[0].(*pyast.FunctionDef)
	ifStmt := fn.Body[0].(*pyast.If)
	forStmt := ifStmt.Body[0].(*pyast.For)
	whileStmt := forStmt.Body[0].(*pyast.While)
	withStmt := whileStmt.Body[0].(*pyast.With)
	require.Len(t, withStmt.Body, 1)
}

func TestParseToleratesModernSyntax(t *testing.T) {
	// Constructs outside the modeled subset must not fail the parse.
	srcs := []string{
		"values = [x * 2 for x in range(10) if x > 2]\n",
		"pairs = {k: v for k, v in items.items()}\n",
		"total = sum(x for x in data)\n",
		"fn = lambda a, b=2: a + b\n",
		"@decorator(option=True)\ndef wrapped():\n    pass\n",
		"async def fetch(url):\n    data = await client.get(url)\n    return data\n",
		"x: dict[str, int] = {}\n",
		"if (n := len(items)) > 10:\n    pass\n",
		"result = value if flag else fallback\n",
		"a, b = b, a\n",
		"print(*args, sep=', ')\n",
		"long = (1 +\n        2 +\n        3)\n",
		"cont = 1 + \\\n    2\n",
		"with (open(a) as fa, open(b) as fb):\n    process(fa, fb)\n",
		"with (open(a) as fa,):\n    pass\n",
		"with (open(a), open(b)):\n    pass\n",
	}
	for _, src := range srcs {
		_, err := pyast.Parse(src, "test.py")
		require.NoError(t, err, "source: %s", src)
	}
}

func TestParseGroupedWithItems(t *testing.T) {
	// Parenthesized with-items keep their expressions visible to Walk.
	src := "with (open(a) as fa, open(b) as fb):\n    fa.read()\n"
	mod := mustParse(t, src)
	withStmt := mod.Body[0].(*pyast.With)

	var calls []string
	pyast.Walk(withStmt, func(n pyast.Node) bool {
		if c, ok := n.(*pyast.Call); ok {
			if name, ok := c.Func.(*pyast.Name); ok {
				calls = append(calls, name.ID)
			}
		}
		return true
	})
	require.Contains(t, calls, "open")
}

func TestParsePositionsCountRunes(t *testing.T) {
	// Columns are rune offsets, so non-ASCII identifiers don't shift
	// positions of what follows.
	mod := mustParse(t, "naïve = eval(x)\n")
	assign := mod.Body[0].(*pyast.Assign)
	call := assign.Value.(*pyast.Call)
	require.Equal(t, 9, call.Pos().Col)
}

func TestParseErrorPositions(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
	}{
		{"missing block", "if x:\nprint(1)\n", 2},
		{"bad dedent", "def f():\n        a = 1\n      b = 2\n", 3},
		{"unterminated string", "a = 'oops\n", 1},
		{"unclosed bracket", "a = (1, 2\n", 1},
		{"missing colon", "def f()\n    pass\n", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pyast.Parse(tt.src, "test.py")
			require.Error(t, err)
			var perr *pyast.ParseError
			require.True(t, errors.As(err, &perr), "want *ParseError, got %T", err)
			require.Equal(t, tt.line, perr.Line)
			require.Positive(t, perr.Col)
		})
	}
}

func TestParseCommentsAndBlankLines(t *testing.T) {
	src := "# leading comment\n\nx = 1  # trailing\n\n# another\n\ny = 2\n"
	mod := mustParse(t, src)
	require.Len(t, mod.Body, 2)
	require.Equal(t, 3, mod.Body[0].Pos().Line)
	require.Equal(t, 7, mod.Body[1].Pos().Line)
}

func TestParseDeterministic(t *testing.T) {
	src := "import os\n\ndef f(a, b=[]):\n    eval(a)\n    return b\n"
	first := mustParse(t, src)
	second := mustParse(t, src)

	var a, b []string
	collect := func(dst *[]string) func(pyast.Node) bool {
		return func(n pyast.Node) bool {
			*dst = append(*dst, nodeKey(n))
			return true
		}
	}
	pyast.Walk(first, collect(&a))
	pyast.Walk(second, collect(&b))
	require.Equal(t, a, b)
}

func nodeKey(n pyast.Node) string {
	p := n.Pos()
	return string(rune('0'+p.Line)) + ":" + string(rune('0'+p.Col))
}

func TestWalkPruning(t *testing.T) {
	mod := mustParse(t, "def f():\n    eval(x)\n")
	var sawCall bool
	pyast.Walk(mod, func(n pyast.Node) bool {
		if _, ok := n.(*pyast.FunctionDef); ok {
			return false // prune
		}
		if _, ok := n.(*pyast.Call); ok {
			sawCall = true
		}
		return true
	})
	require.False(t, sawCall, "pruned subtree should not be visited")
}
