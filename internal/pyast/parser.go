package pyast

import "strings"

// Parse parses Python source into a Module. Failures (indentation errors,
// unterminated strings, malformed compound statements) are reported as
// *ParseError with the offending line and column. Simple statements the
// parser cannot model are degraded to opaque nodes instead of failing.
func Parse(src, filename string) (*Module, error) {
	toks, err := lex(src, filename)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, filename: filename}
	mod := &Module{pos: at(1, 1)}
	for !p.at(tokEOF) {
		stmts, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		mod.Body = append(mod.Body, stmts...)
	}
	return mod, nil
}

type parser struct {
	toks     []token
	i        int
	filename string
	noIn     bool // treat 'in' as a terminator (for-loop targets)
}

func (p *parser) cur() token  { return p.toks[p.i] }
func (p *parser) next() token { t := p.toks[p.i]; p.i++; return t }

func (p *parser) at(kind tokenKind) bool { return p.cur().kind == kind }

func (p *parser) atOp(val string) bool {
	t := p.cur()
	return t.kind == tokOp && t.val == val
}

func (p *parser) atName(val string) bool {
	t := p.cur()
	return t.kind == tokName && t.val == val
}

func (p *parser) acceptOp(val string) bool {
	if p.atOp(val) {
		p.i++
		return true
	}
	return false
}

func (p *parser) acceptName(val string) bool {
	if p.atName(val) {
		p.i++
		return true
	}
	return false
}

func (p *parser) errf(t token, msg string) error {
	return &ParseError{Filename: p.filename, Line: t.pos.Line, Col: t.pos.Col, Msg: msg}
}

func (p *parser) expectOp(val string) error {
	if !p.acceptOp(val) {
		return p.errf(p.cur(), "expected "+quoted(val))
	}
	return nil
}

func quoted(s string) string { return "'" + s + "'" }

// skipLine consumes tokens through the next NEWLINE. The lexer only emits
// NEWLINE outside brackets, so this lands on a statement boundary.
func (p *parser) skipLine() {
	for !p.at(tokEOF) {
		if p.next().kind == tokNewline {
			return
		}
	}
}

// parseStatement parses one logical line, which may hold several simple
// statements separated by semicolons, or one compound statement.
func (p *parser) parseStatement() ([]Stmt, error) {
	t := p.cur()
	switch t.kind {
	case tokNewline, tokIndent, tokDedent:
		// Stray structure tokens at module level; the lexer should not
		// produce these here, but skipping keeps the parser total.
		p.i++
		return nil, nil
	case tokName:
		switch t.val {
		case "def":
			s, err := p.parseFunctionDef()
			return one(s, err)
		case "class":
			s, err := p.parseClassDef()
			return one(s, err)
		case "if":
			s, err := p.parseIf()
			return one(s, err)
		case "while":
			s, err := p.parseWhile()
			return one(s, err)
		case "for":
			s, err := p.parseFor()
			return one(s, err)
		case "with":
			s, err := p.parseWith()
			return one(s, err)
		case "try":
			s, err := p.parseTry()
			return one(s, err)
		case "async":
			return p.parseAsync()
		case "import":
			return p.parseSimpleLine()
		case "from":
			return p.parseSimpleLine()
		}
	case tokOp:
		if t.val == "@" {
			// Decorator: consume the decorator expression line; the
			// decorated definition follows on the next line.
			p.i++
			if _, err := p.parseExpr(); err != nil {
				p.skipLine()
				return nil, nil
			}
			if p.at(tokNewline) {
				p.i++
			}
			return nil, nil
		}
	}
	return p.parseSimpleLine()
}

func one(s Stmt, err error) ([]Stmt, error) {
	if err != nil {
		return nil, err
	}
	return []Stmt{s}, nil
}

func (p *parser) parseAsync() ([]Stmt, error) {
	p.i++ // async
	switch {
	case p.atName("def"):
		s, err := p.parseFunctionDef()
		return one(s, err)
	case p.atName("for"):
		s, err := p.parseFor()
		return one(s, err)
	case p.atName("with"):
		s, err := p.parseWith()
		return one(s, err)
	}
	return p.parseSimpleLine()
}

// parseSimpleLine parses semicolon-separated simple statements up to the
// NEWLINE. Statements it cannot model become opaque nodes.
func (p *parser) parseSimpleLine() ([]Stmt, error) {
	var stmts []Stmt
	for {
		s := p.parseSimple()
		if s != nil {
			stmts = append(stmts, s)
		}
		if p.acceptOp(";") {
			if p.at(tokNewline) {
				p.i++
				return stmts, nil
			}
			continue
		}
		if p.at(tokNewline) {
			p.i++
			return stmts, nil
		}
		if p.at(tokEOF) || p.at(tokDedent) {
			return stmts, nil
		}
		// Unexpected trailing tokens: tolerate by skipping the line.
		p.skipLine()
		return stmts, nil
	}
}

var opaqueKeywords = map[string]bool{
	"del": true, "assert": true, "global": true, "nonlocal": true,
	"yield": true, "break": true, "continue": true, "await": true,
}

func (p *parser) parseSimple() Stmt {
	t := p.cur()
	if t.kind == tokName {
		switch t.val {
		case "pass":
			p.i++
			return &Pass{pos: at(t.pos.Line, t.pos.Col)}
		case "return":
			p.i++
			ret := &Return{pos: at(t.pos.Line, t.pos.Col)}
			if !p.atLineEnd() {
				ret.Value = p.parseExprListTolerant()
			}
			return ret
		case "raise":
			p.i++
			r := &Raise{pos: at(t.pos.Line, t.pos.Col)}
			if !p.atLineEnd() {
				r.Exc = p.parseExprListTolerant()
			}
			return r
		case "import":
			return p.parseImport()
		case "from":
			return p.parseImportFrom()
		}
		if opaqueKeywords[t.val] {
			p.i++
			op := &OpaqueStmt{pos: at(t.pos.Line, t.pos.Col), Keyword: t.val}
			for !p.atLineEnd() {
				e, err := p.parseExpr()
				if err != nil {
					p.skipToLineEnd()
					return op
				}
				op.Exprs = append(op.Exprs, e)
				if !p.acceptOp(",") {
					break
				}
			}
			return op
		}
	}
	return p.parseAssignOrExpr()
}

func (p *parser) atLineEnd() bool {
	return p.at(tokNewline) || p.at(tokEOF) || p.atOp(";")
}

// skipToLineEnd consumes tokens up to (not including) the NEWLINE.
func (p *parser) skipToLineEnd() {
	for !p.atLineEnd() && !p.at(tokDedent) {
		p.i++
	}
}

func (p *parser) parseExprListTolerant() Expr {
	start := p.cur().pos
	var elts []Expr
	for !p.atLineEnd() {
		e, err := p.parseExpr()
		if err != nil {
			p.skipToLineEnd()
			break
		}
		elts = append(elts, e)
		if !p.acceptOp(",") {
			break
		}
	}
	switch len(elts) {
	case 0:
		return &Opaque{pos: at(start.Line, start.Col)}
	case 1:
		return elts[0]
	default:
		return &TupleExpr{pos: at(start.Line, start.Col), Elts: elts}
	}
}

var augOps = map[string]bool{
	"+=": true, "-=": true, "*=": true, "/=": true, "//=": true,
	"%=": true, "**=": true, ">>=": true, "<<=": true,
	"&=": true, "|=": true, "^=": true, "@=": true,
}

func (p *parser) parseAssignOrExpr() Stmt {
	start := p.cur().pos
	first := p.parseTargetList()
	if first == nil {
		p.skipToLineEnd()
		return &OpaqueStmt{pos: at(start.Line, start.Col)}
	}

	if p.atOp(":") && !p.atLineEnd() {
		// Annotated assignment: target ':' annotation ['=' value]
		p.i++
		ann, err := p.parseExpr()
		if err != nil {
			p.skipToLineEnd()
			return &AnnAssign{pos: at(start.Line, start.Col), Target: first, Annotation: &Opaque{pos: at(start.Line, start.Col)}}
		}
		st := &AnnAssign{pos: at(start.Line, start.Col), Target: first, Annotation: ann}
		if p.acceptOp("=") {
			st.Value = p.parseExprListTolerant()
		}
		return st
	}

	if t := p.cur(); t.kind == tokOp && augOps[t.val] {
		p.i++
		return &AugAssign{pos: at(start.Line, start.Col), Target: first, Op: t.val, Value: p.parseExprListTolerant()}
	}

	if p.atOp("=") {
		targets := []Expr{first}
		var value Expr
		for p.acceptOp("=") {
			value = p.parseExprListTolerant()
			if p.atOp("=") {
				targets = append(targets, value)
			}
		}
		return &Assign{pos: at(start.Line, start.Col), Targets: targets, Value: value}
	}

	return &ExprStmt{pos: at(start.Line, start.Col), Value: first}
}

// parseTargetList parses a comma-separated expression list, returning a
// tuple node when more than one element is present. Returns nil when the
// leading expression cannot be parsed.
func (p *parser) parseTargetList() Expr {
	start := p.cur().pos
	e, err := p.parseExpr()
	if err != nil {
		return nil
	}
	if !p.atOp(",") {
		return e
	}
	elts := []Expr{e}
	for p.acceptOp(",") {
		if p.atLineEnd() || p.atOp("=") {
			break
		}
		el, err := p.parseExpr()
		if err != nil {
			p.skipToLineEnd()
			break
		}
		elts = append(elts, el)
	}
	return &TupleExpr{pos: at(start.Line, start.Col), Elts: elts}
}

func (p *parser) parseImport() Stmt {
	t := p.next() // import
	imp := &Import{pos: at(t.pos.Line, t.pos.Col)}
	for {
		name := p.parseDottedName()
		if name == "" {
			p.skipToLineEnd()
			return imp
		}
		alias := ImportAlias{Name: name}
		if p.acceptName("as") {
			if p.cur().kind == tokName {
				alias.As = p.next().val
			}
		}
		imp.Names = append(imp.Names, alias)
		if !p.acceptOp(",") {
			return imp
		}
	}
}

func (p *parser) parseImportFrom() Stmt {
	t := p.next() // from
	imp := &ImportFrom{pos: at(t.pos.Line, t.pos.Col)}
	for p.acceptOp(".") || p.acceptOp("...") {
	}
	if p.cur().kind == tokName && p.cur().val != "import" {
		imp.Module = p.parseDottedName()
	}
	if !p.acceptName("import") {
		p.skipToLineEnd()
		return imp
	}
	if p.acceptOp("*") {
		imp.Names = append(imp.Names, ImportAlias{Name: "*"})
		return imp
	}
	paren := p.acceptOp("(")
	for {
		if p.cur().kind != tokName {
			break
		}
		alias := ImportAlias{Name: p.next().val}
		if p.acceptName("as") {
			if p.cur().kind == tokName {
				alias.As = p.next().val
			}
		}
		imp.Names = append(imp.Names, alias)
		if !p.acceptOp(",") {
			break
		}
	}
	if paren {
		p.acceptOp(")")
	}
	return imp
}

func (p *parser) parseDottedName() string {
	if p.cur().kind != tokName {
		return ""
	}
	var b strings.Builder
	b.WriteString(p.next().val)
	for p.atOp(".") && p.toks[p.i+1].kind == tokName {
		p.i++
		b.WriteByte('.')
		b.WriteString(p.next().val)
	}
	return b.String()
}

// --- compound statements ---

// parseSuite parses the ':' block of a compound statement: either inline
// simple statements, or NEWLINE INDENT statements DEDENT.
func (p *parser) parseSuite() ([]Stmt, error) {
	if err := p.expectOp(":"); err != nil {
		return nil, err
	}
	if !p.at(tokNewline) {
		return p.parseSimpleLine()
	}
	p.i++ // newline
	if !p.at(tokIndent) {
		return nil, p.errf(p.cur(), "expected an indented block")
	}
	p.i++
	var body []Stmt
	for !p.at(tokDedent) && !p.at(tokEOF) {
		stmts, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		body = append(body, stmts...)
	}
	if p.at(tokDedent) {
		p.i++
	}
	return body, nil
}

func (p *parser) parseFunctionDef() (Stmt, error) {
	t := p.next() // def
	fn := &FunctionDef{pos: at(t.pos.Line, t.pos.Col)}
	if p.cur().kind != tokName {
		return nil, p.errf(p.cur(), "expected function name")
	}
	fn.Name = p.next().val
	if err := p.expectOp("("); err != nil {
		return nil, err
	}
	params, err := p.parseParams()
	if err != nil {
		return nil, err
	}
	fn.Params = params
	if p.acceptOp("->") {
		if _, err := p.parseExpr(); err != nil {
			return nil, err
		}
	}
	body, err := p.parseSuite()
	if err != nil {
		return nil, err
	}
	fn.Body = body
	return fn, nil
}

func (p *parser) parseParams() (Params, error) {
	var params Params
	kwonly := false
	for !p.atOp(")") {
		if p.at(tokEOF) {
			return params, p.errf(p.cur(), "unexpected EOF in parameter list")
		}
		switch {
		case p.acceptOp("**"):
			prm, err := p.parseParam()
			if err != nil {
				return params, err
			}
			params.Kwarg = prm
		case p.acceptOp("*"):
			kwonly = true
			if p.cur().kind == tokName {
				prm, err := p.parseParam()
				if err != nil {
					return params, err
				}
				params.Vararg = prm
			}
		case p.acceptOp("/"):
			// Positional-only marker; no parameter of its own.
		default:
			prm, err := p.parseParam()
			if err != nil {
				return params, err
			}
			if kwonly {
				params.KwOnly = append(params.KwOnly, prm)
			} else {
				params.Positional = append(params.Positional, prm)
			}
		}
		if !p.acceptOp(",") {
			break
		}
	}
	if err := p.expectOp(")"); err != nil {
		return params, err
	}
	return params, nil
}

func (p *parser) parseParam() (*Param, error) {
	t := p.cur()
	if t.kind != tokName {
		return nil, p.errf(t, "expected parameter name")
	}
	p.i++
	prm := &Param{pos: at(t.pos.Line, t.pos.Col), Name: t.val}
	if p.acceptOp(":") {
		if _, err := p.parseExpr(); err != nil {
			return nil, err
		}
	}
	if p.acceptOp("=") {
		def, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		prm.Default = def
	}
	return prm, nil
}

func (p *parser) parseClassDef() (Stmt, error) {
	t := p.next() // class
	cls := &ClassDef{pos: at(t.pos.Line, t.pos.Col)}
	if p.cur().kind != tokName {
		return nil, p.errf(p.cur(), "expected class name")
	}
	cls.Name = p.next().val
	if p.acceptOp("(") {
		for !p.atOp(")") && !p.at(tokEOF) {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			// Metaclass and other keyword arguments in the bases list.
			if p.acceptOp("=") {
				if _, err := p.parseExpr(); err != nil {
					return nil, err
				}
			}
			cls.Bases = append(cls.Bases, e)
			if !p.acceptOp(",") {
				break
			}
		}
		if err := p.expectOp(")"); err != nil {
			return nil, err
		}
	}
	body, err := p.parseSuite()
	if err != nil {
		return nil, err
	}
	cls.Body = body
	return cls, nil
}

func (p *parser) parseIf() (Stmt, error) {
	t := p.next() // if or elif
	st := &If{pos: at(t.pos.Line, t.pos.Col)}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	st.Cond = cond
	st.Body, err = p.parseSuite()
	if err != nil {
		return nil, err
	}
	switch {
	case p.atName("elif"):
		nested, err := p.parseIf()
		if err != nil {
			return nil, err
		}
		st.Orelse = []Stmt{nested}
	case p.acceptName("else"):
		st.Orelse, err = p.parseSuite()
		if err != nil {
			return nil, err
		}
	}
	return st, nil
}

func (p *parser) parseWhile() (Stmt, error) {
	t := p.next()
	st := &While{pos: at(t.pos.Line, t.pos.Col)}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	st.Cond = cond
	st.Body, err = p.parseSuite()
	if err != nil {
		return nil, err
	}
	if p.acceptName("else") {
		st.Orelse, err = p.parseSuite()
		if err != nil {
			return nil, err
		}
	}
	return st, nil
}

func (p *parser) parseFor() (Stmt, error) {
	t := p.next()
	st := &For{pos: at(t.pos.Line, t.pos.Col)}
	target := p.parseForTargets()
	if target == nil {
		return nil, p.errf(p.cur(), "expected loop target")
	}
	st.Target = target
	if !p.acceptName("in") {
		return nil, p.errf(p.cur(), "expected 'in'")
	}
	iter := p.parseExprListTolerant()
	st.Iter = iter
	var err error
	st.Body, err = p.parseSuite()
	if err != nil {
		return nil, err
	}
	if p.acceptName("else") {
		st.Orelse, err = p.parseSuite()
		if err != nil {
			return nil, err
		}
	}
	return st, nil
}

// parseForTargets parses loop targets, stopping before the 'in' keyword.
func (p *parser) parseForTargets() Expr {
	p.noIn = true
	defer func() { p.noIn = false }()
	start := p.cur().pos
	var elts []Expr
	for !p.atName("in") && !p.atLineEnd() {
		e, err := p.parseExpr()
		if err != nil {
			return nil
		}
		elts = append(elts, e)
		if !p.acceptOp(",") {
			break
		}
	}
	switch len(elts) {
	case 0:
		return nil
	case 1:
		return elts[0]
	default:
		return &TupleExpr{pos: at(start.Line, start.Col), Elts: elts}
	}
}

func (p *parser) parseWith() (Stmt, error) {
	t := p.next()
	st := &With{pos: at(t.pos.Line, t.pos.Col)}
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.acceptName("as") {
			if _, err := p.parseExpr(); err != nil {
				return nil, err
			}
		}
		st.Items = append(st.Items, e)
		if !p.acceptOp(",") {
			break
		}
	}
	body, err := p.parseSuite()
	if err != nil {
		return nil, err
	}
	st.Body = body
	return st, nil
}

func (p *parser) parseTry() (Stmt, error) {
	t := p.next()
	st := &Try{pos: at(t.pos.Line, t.pos.Col)}
	var err error
	st.Body, err = p.parseSuite()
	if err != nil {
		return nil, err
	}
	for p.atName("except") {
		ht := p.next()
		h := &ExceptHandler{pos: at(ht.pos.Line, ht.pos.Col)}
		p.acceptOp("*") // except* groups
		if !p.atOp(":") {
			typ, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			h.Type = typ
			if p.acceptName("as") {
				if p.cur().kind == tokName {
					h.Name = p.next().val
				}
			}
		}
		h.Body, err = p.parseSuite()
		if err != nil {
			return nil, err
		}
		st.Handlers = append(st.Handlers, h)
	}
	if p.acceptName("else") {
		st.Orelse, err = p.parseSuite()
		if err != nil {
			return nil, err
		}
	}
	if p.acceptName("finally") {
		st.Finally, err = p.parseSuite()
		if err != nil {
			return nil, err
		}
	}
	if len(st.Handlers) == 0 && st.Finally == nil {
		return nil, p.errf(p.cur(), "expected 'except' or 'finally' block")
	}
	return st, nil
}
