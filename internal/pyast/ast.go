// Package pyast parses Python source into a lightweight syntax tree.
//
// The tree is a tagged-variant representation: every node kind is its own
// struct implementing Node, and traversal is an explicit pre-order walk
// rather than visitor dispatch. The parser covers the statement and
// expression forms the analyzers inspect (definitions, imports, calls,
// literals, exception handlers) and degrades gracefully on everything else:
// constructs outside that subset become opaque nodes instead of errors.
package pyast

// Pos is a 1-based source position.
type Pos struct {
	Line int
	Col  int
}

// Node is implemented by every syntax tree node.
type Node interface {
	Pos() Pos
	Children() []Node
}

type pos struct {
	pp Pos
}

func at(line, col int) pos { return pos{pp: Pos{Line: line, Col: col}} }

func (p pos) Pos() Pos { return p.pp }

// Module is the root node of a parsed file.
type Module struct {
	pos
	Body []Stmt
}

// Stmt is a statement node.
type Stmt interface{ Node }

// Expr is an expression node.
type Expr interface{ Node }

// Param is a single function parameter with its optional default.
type Param struct {
	pos
	Name    string
	Default Expr
}

// Params groups a function's parameters by kind.
type Params struct {
	Positional []*Param
	KwOnly     []*Param
	Vararg     *Param // *args
	Kwarg      *Param // **kwargs
}

// Count returns the total parameter count: positional + keyword-only,
// plus one each for *args and **kwargs when present.
func (p Params) Count() int {
	n := len(p.Positional) + len(p.KwOnly)
	if p.Vararg != nil {
		n++
	}
	if p.Kwarg != nil {
		n++
	}
	return n
}

// FunctionDef is a def (or async def) statement.
type FunctionDef struct {
	pos
	Name   string
	Params Params
	Body   []Stmt
}

// ClassDef is a class statement.
type ClassDef struct {
	pos
	Name  string
	Bases []Expr
	Body  []Stmt
}

// If is an if statement; elif chains nest inside Orelse.
type If struct {
	pos
	Cond   Expr
	Body   []Stmt
	Orelse []Stmt
}

// While is a while loop.
type While struct {
	pos
	Cond   Expr
	Body   []Stmt
	Orelse []Stmt
}

// For is a for loop.
type For struct {
	pos
	Target Expr
	Iter   Expr
	Body   []Stmt
	Orelse []Stmt
}

// With is a with statement; Items holds the context expressions.
type With struct {
	pos
	Items []Expr
	Body  []Stmt
}

// Try is a try statement.
type Try struct {
	pos
	Body     []Stmt
	Handlers []*ExceptHandler
	Orelse   []Stmt
	Finally  []Stmt
}

// ExceptHandler is one except clause. A nil Type means a bare except.
type ExceptHandler struct {
	pos
	Type Expr
	Name string
	Body []Stmt
}

// ImportAlias is one name in an import statement.
type ImportAlias struct {
	Name string
	As   string
}

// Import is an import statement.
type Import struct {
	pos
	Names []ImportAlias
}

// ImportFrom is a from-import statement.
type ImportFrom struct {
	pos
	Module string
	Names  []ImportAlias // Name "*" for star imports
}

// Assign is an assignment, possibly chained (a = b = expr).
type Assign struct {
	pos
	Targets []Expr
	Value   Expr
}

// AnnAssign is an annotated assignment (x: T = expr).
type AnnAssign struct {
	pos
	Target     Expr
	Annotation Expr
	Value      Expr
}

// AugAssign is an augmented assignment (x += expr).
type AugAssign struct {
	pos
	Target Expr
	Op     string
	Value  Expr
}

// ExprStmt is an expression used as a statement.
type ExprStmt struct {
	pos
	Value Expr
}

// Return is a return statement.
type Return struct {
	pos
	Value Expr
}

// Raise is a raise statement.
type Raise struct {
	pos
	Exc Expr
}

// Pass is a pass statement.
type Pass struct {
	pos
}

// OpaqueStmt covers statements the parser recognizes but does not model
// structurally (del, assert, global, yield, break, ...). Any expressions
// on the line are retained so literal scans still see them.
type OpaqueStmt struct {
	pos
	Keyword string
	Exprs   []Expr
}

// Name is an identifier reference.
type Name struct {
	pos
	ID string
}

// Attribute is a dotted access (Value.Attr).
type Attribute struct {
	pos
	Value Expr
	Attr  string
}

// Keyword is a keyword argument in a call. An empty Arg means **expr.
type Keyword struct {
	pos
	Arg   string
	Value Expr
}

// Call is a call expression.
type Call struct {
	pos
	Func     Expr
	Args     []Expr
	Keywords []*Keyword
}

// Str is a string literal. Adjacent literals are merged. Value holds the
// text between the quotes with escape sequences left untouched.
type Str struct {
	pos
	Value  string
	Prefix string // lowercased prefix letters, e.g. "f", "rb"
}

// Num is a numeric literal.
type Num struct {
	pos
	Lit string
}

// ListExpr is a list display.
type ListExpr struct {
	pos
	Elts []Expr
}

// SetExpr is a set display.
type SetExpr struct {
	pos
	Elts []Expr
}

// DictExpr is a dict display. Keys and Values are parallel.
type DictExpr struct {
	pos
	Keys   []Expr
	Values []Expr
}

// TupleExpr is a tuple display.
type TupleExpr struct {
	pos
	Elts []Expr
}

// BinOp is a binary operation. Operator precedence is not modeled; chains
// fold left, which is sufficient for syntax-level checks.
type BinOp struct {
	pos
	Left  Expr
	Op    string
	Right Expr
}

// UnaryOp is a unary operation (-, +, ~, not, and star-unpacking).
type UnaryOp struct {
	pos
	Op      string
	Operand Expr
}

// IfExp is a conditional expression (a if cond else b).
type IfExp struct {
	pos
	Body   Expr
	Cond   Expr
	Orelse Expr
}

// Subscript is an indexing or slicing expression.
type Subscript struct {
	pos
	Value Expr
	Index []Expr
}

// Lambda is a lambda expression. Parameters are not modeled.
type Lambda struct {
	pos
	Body Expr
}

// Comprehension is a list/set/dict/generator comprehension. Only the
// element expression is retained.
type Comprehension struct {
	pos
	Elt Expr
}

// Opaque is an expression the parser could not model.
type Opaque struct {
	pos
}

func (n *Module) Children() []Node      { return stmtNodes(n.Body) }
func (n *FunctionDef) Children() []Node { return append(paramNodes(n.Params), stmtNodes(n.Body)...) }
func (n *ClassDef) Children() []Node {
	return append(exprNodes(n.Bases), stmtNodes(n.Body)...)
}
func (n *If) Children() []Node {
	out := []Node{n.Cond}
	out = append(out, stmtNodes(n.Body)...)
	return append(out, stmtNodes(n.Orelse)...)
}
func (n *While) Children() []Node {
	out := []Node{n.Cond}
	out = append(out, stmtNodes(n.Body)...)
	return append(out, stmtNodes(n.Orelse)...)
}
func (n *For) Children() []Node {
	out := []Node{n.Target, n.Iter}
	out = append(out, stmtNodes(n.Body)...)
	return append(out, stmtNodes(n.Orelse)...)
}
func (n *With) Children() []Node {
	out := exprNodes(n.Items)
	return append(out, stmtNodes(n.Body)...)
}
func (n *Try) Children() []Node {
	out := stmtNodes(n.Body)
	for _, h := range n.Handlers {
		out = append(out, h)
	}
	out = append(out, stmtNodes(n.Orelse)...)
	return append(out, stmtNodes(n.Finally)...)
}
func (n *ExceptHandler) Children() []Node {
	var out []Node
	if n.Type != nil {
		out = append(out, n.Type)
	}
	return append(out, stmtNodes(n.Body)...)
}
func (n *Import) Children() []Node     { return nil }
func (n *ImportFrom) Children() []Node { return nil }
func (n *Assign) Children() []Node     { return append(exprNodes(n.Targets), n.Value) }
func (n *AnnAssign) Children() []Node {
	out := []Node{n.Target, n.Annotation}
	if n.Value != nil {
		out = append(out, n.Value)
	}
	return out
}
func (n *AugAssign) Children() []Node { return []Node{n.Target, n.Value} }
func (n *ExprStmt) Children() []Node  { return []Node{n.Value} }
func (n *Return) Children() []Node {
	if n.Value == nil {
		return nil
	}
	return []Node{n.Value}
}
func (n *Raise) Children() []Node {
	if n.Exc == nil {
		return nil
	}
	return []Node{n.Exc}
}
func (n *Pass) Children() []Node       { return nil }
func (n *OpaqueStmt) Children() []Node { return exprNodes(n.Exprs) }
func (n *Name) Children() []Node       { return nil }
func (n *Attribute) Children() []Node  { return []Node{n.Value} }
func (n *Keyword) Children() []Node    { return []Node{n.Value} }
func (n *Call) Children() []Node {
	out := []Node{n.Func}
	out = append(out, exprNodes(n.Args)...)
	for _, kw := range n.Keywords {
		out = append(out, kw)
	}
	return out
}
func (n *Str) Children() []Node      { return nil }
func (n *Num) Children() []Node      { return nil }
func (n *ListExpr) Children() []Node { return exprNodes(n.Elts) }
func (n *SetExpr) Children() []Node  { return exprNodes(n.Elts) }
func (n *DictExpr) Children() []Node {
	out := exprNodes(n.Keys)
	return append(out, exprNodes(n.Values)...)
}
func (n *TupleExpr) Children() []Node { return exprNodes(n.Elts) }
func (n *BinOp) Children() []Node     { return []Node{n.Left, n.Right} }
func (n *UnaryOp) Children() []Node   { return []Node{n.Operand} }
func (n *IfExp) Children() []Node     { return []Node{n.Body, n.Cond, n.Orelse} }
func (n *Subscript) Children() []Node {
	out := []Node{n.Value}
	return append(out, exprNodes(n.Index)...)
}
func (n *Lambda) Children() []Node {
	if n.Body == nil {
		return nil
	}
	return []Node{n.Body}
}
func (n *Comprehension) Children() []Node {
	if n.Elt == nil {
		return nil
	}
	return []Node{n.Elt}
}
func (n *Opaque) Children() []Node { return nil }

func stmtNodes(stmts []Stmt) []Node {
	out := make([]Node, 0, len(stmts))
	for _, s := range stmts {
		out = append(out, s)
	}
	return out
}

func exprNodes(exprs []Expr) []Node {
	var out []Node
	for _, e := range exprs {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

func paramNodes(p Params) []Node {
	var out []Node
	add := func(prm *Param) {
		if prm != nil {
			out = append(out, prm)
		}
	}
	for _, prm := range p.Positional {
		add(prm)
	}
	for _, prm := range p.KwOnly {
		add(prm)
	}
	add(p.Vararg)
	add(p.Kwarg)
	return out
}

func (n *Param) Children() []Node {
	if n.Default == nil {
		return nil
	}
	return []Node{n.Default}
}

// Walk traverses the tree in pre-order, calling fn for each node. If fn
// returns false the node's children are skipped.
func Walk(n Node, fn func(Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children() {
		Walk(c, fn)
	}
}
