package pyast

import "strings"

// Binary operators handled as flat left-associative chains.
var binOps = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "//": true, "%": true,
	"@": true, "**": true, "<<": true, ">>": true, "&": true, "|": true,
	"^": true, "<": true, ">": true, "<=": true, ">=": true, "==": true,
	"!=": true, ":=": true,
}

func (p *parser) parseExpr() (Expr, error) {
	e, err := p.parseBinary()
	if err != nil {
		return nil, err
	}
	if p.atName("if") && !p.noIn {
		// Conditional expression: body if cond else orelse.
		t := p.next()
		cond, err := p.parseBinary()
		if err != nil {
			return nil, err
		}
		if !p.acceptName("else") {
			return nil, p.errf(p.cur(), "expected 'else' in conditional expression")
		}
		orelse, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &IfExp{pos: at(t.pos.Line, t.pos.Col), Body: e, Cond: cond, Orelse: orelse}, nil
	}
	return e, nil
}

func (p *parser) parseBinary() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.peekBinOp()
		if !ok {
			return left, nil
		}
		pos := p.cur().pos
		p.consumeBinOp(op)
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinOp{pos: at(pos.Line, pos.Col), Left: left, Op: op, Right: right}
	}
}

func (p *parser) peekBinOp() (string, bool) {
	t := p.cur()
	if t.kind == tokOp && binOps[t.val] {
		return t.val, true
	}
	if t.kind == tokName {
		switch t.val {
		case "and", "or":
			return t.val, true
		case "in":
			if p.noIn {
				return "", false
			}
			return "in", true
		case "is":
			if p.toks[p.i+1].kind == tokName && p.toks[p.i+1].val == "not" {
				return "is not", true
			}
			return "is", true
		case "not":
			if p.toks[p.i+1].kind == tokName && p.toks[p.i+1].val == "in" && !p.noIn {
				return "not in", true
			}
		}
	}
	return "", false
}

func (p *parser) consumeBinOp(op string) {
	switch op {
	case "is not", "not in":
		p.i += 2
	default:
		p.i++
	}
}

func (p *parser) parseUnary() (Expr, error) {
	t := p.cur()
	if t.kind == tokOp {
		switch t.val {
		case "-", "+", "~", "*", "**":
			p.i++
			operand, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			return &UnaryOp{pos: at(t.pos.Line, t.pos.Col), Op: t.val, Operand: operand}, nil
		}
	}
	if t.kind == tokName {
		switch t.val {
		case "not":
			p.i++
			operand, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			return &UnaryOp{pos: at(t.pos.Line, t.pos.Col), Op: "not", Operand: operand}, nil
		case "lambda":
			return p.parseLambda(), nil
		case "await", "yield":
			p.i++
			return p.parseUnary()
		}
	}
	return p.parsePostfix()
}

// parseLambda skips the parameter list (up to the ':' at bracket depth
// zero) and parses the body expression.
func (p *parser) parseLambda() Expr {
	t := p.next() // lambda
	depth := 0
	for !p.at(tokEOF) && !p.at(tokNewline) {
		c := p.cur()
		if c.kind == tokOp {
			switch c.val {
			case "(", "[", "{":
				depth++
			case ")", "]", "}":
				if depth == 0 {
					return &Lambda{pos: at(t.pos.Line, t.pos.Col)}
				}
				depth--
			case ":":
				if depth == 0 {
					p.i++
					body, err := p.parseExpr()
					if err != nil {
						body = &Opaque{pos: at(t.pos.Line, t.pos.Col)}
						p.skipToLineEnd()
					}
					return &Lambda{pos: at(t.pos.Line, t.pos.Col), Body: body}
				}
			}
		}
		p.i++
	}
	return &Lambda{pos: at(t.pos.Line, t.pos.Col)}
}

func (p *parser) parsePostfix() (Expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.atOp("("):
			call, err := p.parseCall(e)
			if err != nil {
				return nil, err
			}
			e = call
		case p.atOp(".") && p.toks[p.i+1].kind == tokName:
			t := p.next() // .
			e = &Attribute{pos: at(t.pos.Line, t.pos.Col), Value: e, Attr: p.next().val}
		case p.atOp("["):
			sub, err := p.parseSubscript(e)
			if err != nil {
				return nil, err
			}
			e = sub
		default:
			return e, nil
		}
	}
}

func (p *parser) parseCall(fn Expr) (Expr, error) {
	p.i++ // (
	call := &Call{pos: at(fn.Pos().Line, fn.Pos().Col), Func: fn}
	for !p.atOp(")") {
		if p.at(tokEOF) {
			return nil, p.errf(p.cur(), "unexpected EOF in call")
		}
		if p.acceptOp("**") {
			kt := p.toks[p.i-1]
			val, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			call.Keywords = append(call.Keywords, &Keyword{pos: at(kt.pos.Line, kt.pos.Col), Value: val})
		} else if p.cur().kind == tokName && p.toks[p.i+1].kind == tokOp && p.toks[p.i+1].val == "=" {
			kt := p.next()
			p.i++ // =
			val, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			call.Keywords = append(call.Keywords, &Keyword{pos: at(kt.pos.Line, kt.pos.Col), Arg: kt.val, Value: val})
		} else {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if p.atName("for") {
				// Sole generator-expression argument.
				arg = &Comprehension{pos: at(arg.Pos().Line, arg.Pos().Col), Elt: arg}
				p.skipToCloser()
				call.Args = append(call.Args, arg)
				break
			}
			call.Args = append(call.Args, arg)
		}
		if !p.acceptOp(",") {
			break
		}
	}
	if err := p.expectOp(")"); err != nil {
		return nil, err
	}
	return call, nil
}

func (p *parser) parseSubscript(val Expr) (Expr, error) {
	t := p.next() // [
	sub := &Subscript{pos: at(t.pos.Line, t.pos.Col), Value: val}
	for !p.atOp("]") {
		if p.at(tokEOF) {
			return nil, p.errf(p.cur(), "unexpected EOF in subscript")
		}
		if p.acceptOp(":") || p.acceptOp(",") {
			continue
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		sub.Index = append(sub.Index, e)
	}
	p.i++ // ]
	return sub, nil
}

// skipToCloser consumes tokens up to, but not including, the bracket that
// closes the currently open one.
func (p *parser) skipToCloser() {
	depth := 0
	for !p.at(tokEOF) {
		t := p.cur()
		if t.kind == tokOp {
			switch t.val {
			case "(", "[", "{":
				depth++
			case ")", "]", "}":
				if depth == 0 {
					return
				}
				depth--
			}
		}
		p.i++
	}
}

func (p *parser) parsePrimary() (Expr, error) {
	t := p.cur()
	switch t.kind {
	case tokName:
		p.i++
		return &Name{pos: at(t.pos.Line, t.pos.Col), ID: t.val}, nil
	case tokNumber:
		p.i++
		return &Num{pos: at(t.pos.Line, t.pos.Col), Lit: t.val}, nil
	case tokString:
		return p.parseString(), nil
	case tokOp:
		switch t.val {
		case "(":
			return p.parseParenExpr()
		case "[":
			return p.parseListExpr()
		case "{":
			return p.parseDictOrSet()
		case "...":
			p.i++
			return &Opaque{pos: at(t.pos.Line, t.pos.Col)}, nil
		}
	}
	return nil, p.errf(t, "unexpected token")
}

// parseString consumes a string literal, merging adjacent literals the way
// Python implicitly concatenates them.
func (p *parser) parseString() Expr {
	t := p.next()
	var b strings.Builder
	b.WriteString(t.val)
	prefix := strings.ToLower(t.prefix)
	for p.at(tokString) {
		nt := p.next()
		b.WriteString(nt.val)
		if prefix == "" {
			prefix = strings.ToLower(nt.prefix)
		}
	}
	return &Str{pos: at(t.pos.Line, t.pos.Col), Value: b.String(), Prefix: prefix}
}

func (p *parser) parseParenExpr() (Expr, error) {
	t := p.next() // (
	if p.acceptOp(")") {
		return &TupleExpr{pos: at(t.pos.Line, t.pos.Col)}, nil
	}
	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.atName("for") {
		c := &Comprehension{pos: at(t.pos.Line, t.pos.Col), Elt: first}
		p.skipToCloser()
		if err := p.expectOp(")"); err != nil {
			return nil, err
		}
		return c, nil
	}
	if err := p.skipContextAlias(); err != nil {
		return nil, err
	}
	if p.atOp(",") {
		tup := &TupleExpr{pos: at(t.pos.Line, t.pos.Col), Elts: []Expr{first}}
		for p.acceptOp(",") {
			if p.atOp(")") {
				break
			}
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.skipContextAlias(); err != nil {
				return nil, err
			}
			tup.Elts = append(tup.Elts, e)
		}
		if err := p.expectOp(")"); err != nil {
			return nil, err
		}
		return tup, nil
	}
	if err := p.expectOp(")"); err != nil {
		return nil, err
	}
	return first, nil
}

// skipContextAlias consumes the "as target" suffix of a parenthesized
// with-item, so grouped context managers parse as a tuple of their
// expressions.
func (p *parser) skipContextAlias() error {
	if !p.atName("as") {
		return nil
	}
	p.i++
	_, err := p.parseExpr()
	return err
}

func (p *parser) parseListExpr() (Expr, error) {
	t := p.next() // [
	lst := &ListExpr{pos: at(t.pos.Line, t.pos.Col)}
	if p.acceptOp("]") {
		return lst, nil
	}
	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.atName("for") {
		c := &Comprehension{pos: at(t.pos.Line, t.pos.Col), Elt: first}
		p.skipToCloser()
		if err := p.expectOp("]"); err != nil {
			return nil, err
		}
		return c, nil
	}
	lst.Elts = append(lst.Elts, first)
	for p.acceptOp(",") {
		if p.atOp("]") {
			break
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		lst.Elts = append(lst.Elts, e)
	}
	if err := p.expectOp("]"); err != nil {
		return nil, err
	}
	return lst, nil
}

func (p *parser) parseDictOrSet() (Expr, error) {
	t := p.next() // {
	if p.acceptOp("}") {
		return &DictExpr{pos: at(t.pos.Line, t.pos.Col)}, nil
	}
	if p.atOp("**") {
		// Dict with a leading **spread.
		d := &DictExpr{pos: at(t.pos.Line, t.pos.Col)}
		return p.parseDictItems(d)
	}
	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.atOp(":") {
		p.i++
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.atName("for") {
			c := &Comprehension{pos: at(t.pos.Line, t.pos.Col), Elt: first}
			p.skipToCloser()
			if err := p.expectOp("}"); err != nil {
				return nil, err
			}
			return c, nil
		}
		d := &DictExpr{pos: at(t.pos.Line, t.pos.Col), Keys: []Expr{first}, Values: []Expr{val}}
		if !p.acceptOp(",") {
			if err := p.expectOp("}"); err != nil {
				return nil, err
			}
			return d, nil
		}
		return p.parseDictItems(d)
	}
	if p.atName("for") {
		c := &Comprehension{pos: at(t.pos.Line, t.pos.Col), Elt: first}
		p.skipToCloser()
		if err := p.expectOp("}"); err != nil {
			return nil, err
		}
		return c, nil
	}
	set := &SetExpr{pos: at(t.pos.Line, t.pos.Col), Elts: []Expr{first}}
	for p.acceptOp(",") {
		if p.atOp("}") {
			break
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		set.Elts = append(set.Elts, e)
	}
	if err := p.expectOp("}"); err != nil {
		return nil, err
	}
	return set, nil
}

// parseDictItems parses remaining `key: value` and `**spread` items.
func (p *parser) parseDictItems(d *DictExpr) (Expr, error) {
	for !p.atOp("}") {
		if p.at(tokEOF) {
			return nil, p.errf(p.cur(), "unexpected EOF in dict display")
		}
		if p.acceptOp("**") {
			val, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			d.Keys = append(d.Keys, nil)
			d.Values = append(d.Values, val)
		} else {
			key, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expectOp(":"); err != nil {
				return nil, err
			}
			val, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			d.Keys = append(d.Keys, key)
			d.Values = append(d.Values, val)
		}
		if !p.acceptOp(",") {
			break
		}
	}
	if err := p.expectOp("}"); err != nil {
		return nil, err
	}
	return d, nil
}
