package shader

import (
	"strconv"
)

type parser struct {
	toks []Token
	i    int
}

// parse builds the untyped AST. Internally the parser bails out of deep
// recursion with a panic carrying the *CompileError; parse recovers it at
// the boundary.
func parse(toks []Token) (decls []topDecl, err error) {
	p := &parser{toks: toks}
	defer func() {
		if r := recover(); r != nil {
			if ce, ok := r.(*CompileError); ok {
				decls, err = nil, ce
				return
			}
			panic(r)
		}
	}()
	for p.peek().Kind != TokEOF {
		decls = append(decls, p.topLevel())
	}
	return decls, nil
}

func (p *parser) peek() Token     { return p.toks[p.i] }
func (p *parser) peekAt(n int) Token {
	if p.i+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i+n]
}
func (p *parser) next() Token { t := p.toks[p.i]; p.i++; return t }

func (p *parser) fail(pos Pos, format string, args ...interface{}) {
	panic(errAt(pos, format, args...))
}

func (p *parser) expect(kind TokenKind) Token {
	t := p.peek()
	if t.Kind != kind {
		p.fail(t.Pos, "expected %s, found %s", kind, describe(t))
	}
	return p.next()
}

func describe(t Token) string {
	switch t.Kind {
	case TokIdent, TokIntLit, TokFloatLit, TokType:
		return "'" + t.Lexeme + "'"
	default:
		return t.Kind.String()
	}
}

func (p *parser) topLevel() topDecl {
	start := p.peek().Pos
	isConst := false
	if p.peek().Kind == TokConst {
		isConst = true
		p.next()
	}
	typTok := p.expect(TokType)
	nameTok := p.expect(TokIdent)
	if p.peek().Kind == TokLParen {
		if isConst {
			p.fail(start, "functions cannot be declared const")
		}
		return p.funcDecl(typTok, nameTok)
	}
	if typTok.Type == TVoid {
		p.fail(typTok.Pos, "variables cannot have type void")
	}
	g := &globalDecl{P: start, Type: typTok.Type, Const: isConst}
	g.Items = p.declItems(nameTok)
	return g
}

// declItems parses "name [= expr] (, name [= expr])* ;" given the first
// name token already consumed.
func (p *parser) declItems(first Token) []DeclItem {
	items := []DeclItem{p.declItem(first)}
	for p.peek().Kind == TokComma {
		p.next()
		items = append(items, p.declItem(p.expect(TokIdent)))
	}
	p.expect(TokSemi)
	return items
}

func (p *parser) declItem(name Token) DeclItem {
	item := DeclItem{P: name.Pos, Name: name.Lexeme}
	if p.peek().Kind == TokLBracket {
		p.fail(p.peek().Pos, "array declarations are not supported")
	}
	if p.peek().Kind == TokAssign {
		p.next()
		item.Init = p.assignExpr()
	}
	return item
}

func (p *parser) funcDecl(typTok, nameTok Token) *FuncDecl {
	fn := &FuncDecl{P: typTok.Pos, Name: nameTok.Lexeme, Ret: typTok.Type}
	p.expect(TokLParen)
	if p.peek().Kind != TokRParen {
		// "void" as a lone parameter list means no parameters
		if p.peek().Kind == TokType && p.peek().Type == TVoid && p.peekAt(1).Kind == TokRParen {
			p.next()
		} else {
			fn.Params = append(fn.Params, p.param())
			for p.peek().Kind == TokComma {
				p.next()
				fn.Params = append(fn.Params, p.param())
			}
		}
	}
	p.expect(TokRParen)
	if p.peek().Kind == TokSemi {
		p.fail(p.peek().Pos, "forward declarations are not supported; define %q before its first use", fn.Name)
	}
	fn.Body = p.block()
	return fn
}

func (p *parser) param() Param {
	prm := Param{P: p.peek().Pos, Qual: QualIn}
	switch p.peek().Kind {
	case TokIn:
		p.next()
	case TokOut:
		prm.Qual = QualOut
		p.next()
	case TokInout:
		prm.Qual = QualInout
		p.next()
	case TokConst:
		p.next() // const in parameters is accepted and ignored
	}
	typTok := p.expect(TokType)
	if typTok.Type == TVoid {
		p.fail(typTok.Pos, "parameters cannot have type void")
	}
	prm.Type = typTok.Type
	prm.Name = p.expect(TokIdent).Lexeme
	return prm
}

// --- statements ---

func (p *parser) block() *Block {
	b := &Block{P: p.expect(TokLBrace).Pos}
	for p.peek().Kind != TokRBrace {
		if p.peek().Kind == TokEOF {
			p.fail(p.peek().Pos, "unexpected end of source, expected '}'")
		}
		b.List = append(b.List, p.stmt())
	}
	p.next()
	return b
}

func (p *parser) stmt() Stmt {
	t := p.peek()
	switch t.Kind {
	case TokLBrace:
		return p.block()
	case TokIf:
		return p.ifStmt()
	case TokFor:
		return p.forStmt()
	case TokReturn:
		p.next()
		s := &ReturnStmt{P: t.Pos}
		if p.peek().Kind != TokSemi {
			s.X = p.expr()
		}
		p.expect(TokSemi)
		return s
	case TokBreak, TokContinue:
		p.next()
		p.expect(TokSemi)
		return &BranchStmt{P: t.Pos, Tok: t.Kind}
	case TokConst, TokType:
		return p.declStmt()
	case TokSemi:
		p.next()
		return &Block{P: t.Pos}
	default:
		x := p.expr()
		p.expect(TokSemi)
		return &ExprStmt{P: t.Pos, X: x}
	}
}

func (p *parser) declStmt() Stmt {
	start := p.peek().Pos
	isConst := false
	if p.peek().Kind == TokConst {
		isConst = true
		p.next()
	}
	typTok := p.expect(TokType)
	if typTok.Type == TVoid {
		p.fail(typTok.Pos, "variables cannot have type void")
	}
	if typTok.Type == TSampler2D {
		p.fail(typTok.Pos, "sampler variables cannot be declared; use iChannel0..iChannel3")
	}
	nameTok := p.expect(TokIdent)
	return &DeclStmt{P: start, Type: typTok.Type, Const: isConst, Items: p.declItems(nameTok)}
}

func (p *parser) ifStmt() Stmt {
	s := &IfStmt{P: p.expect(TokIf).Pos}
	p.expect(TokLParen)
	s.Cond = p.expr()
	p.expect(TokRParen)
	s.Then = p.stmt()
	if p.peek().Kind == TokElse {
		p.next()
		s.Else = p.stmt()
	}
	return s
}

func (p *parser) forStmt() Stmt {
	s := &ForStmt{P: p.expect(TokFor).Pos}
	p.expect(TokLParen)
	switch p.peek().Kind {
	case TokSemi:
		p.next()
	case TokConst, TokType:
		s.Init = p.declStmt()
	default:
		x := p.expr()
		p.expect(TokSemi)
		s.Init = &ExprStmt{P: x.Pos(), X: x}
	}
	if p.peek().Kind != TokSemi {
		s.Cond = p.expr()
	}
	p.expect(TokSemi)
	if p.peek().Kind != TokRParen {
		s.Post = p.expr()
	}
	p.expect(TokRParen)
	s.Body = p.stmt()
	return s
}

// --- expressions, standard precedence climbing ---

func (p *parser) expr() Expr {
	x := p.assignExpr()
	if p.peek().Kind == TokComma {
		p.fail(p.peek().Pos, "the comma operator is not supported")
	}
	return x
}

func (p *parser) assignExpr() Expr {
	x := p.ternaryExpr()
	switch op := p.peek(); op.Kind {
	case TokAssign, TokAddAssign, TokSubAssign, TokMulAssign, TokDivAssign:
		p.next()
		rhs := p.assignExpr()
		return &Assign{P: op.Pos, Op: op.Kind, LHS: x, RHS: rhs}
	}
	return x
}

func (p *parser) ternaryExpr() Expr {
	cond := p.orExpr()
	if p.peek().Kind != TokQuestion {
		return cond
	}
	pos := p.next().Pos
	then := p.assignExpr()
	p.expect(TokColon)
	els := p.assignExpr()
	return &Ternary{P: pos, Cond: cond, Then: then, Else: els}
}

func (p *parser) orExpr() Expr {
	x := p.andExpr()
	for p.peek().Kind == TokOrOr {
		op := p.next()
		x = &Binary{P: op.Pos, Op: op.Kind, L: x, R: p.andExpr()}
	}
	return x
}

func (p *parser) andExpr() Expr {
	x := p.equalityExpr()
	for p.peek().Kind == TokAndAnd {
		op := p.next()
		x = &Binary{P: op.Pos, Op: op.Kind, L: x, R: p.equalityExpr()}
	}
	return x
}

func (p *parser) equalityExpr() Expr {
	x := p.relationalExpr()
	for p.peek().Kind == TokEq || p.peek().Kind == TokNeq {
		op := p.next()
		x = &Binary{P: op.Pos, Op: op.Kind, L: x, R: p.relationalExpr()}
	}
	return x
}

func (p *parser) relationalExpr() Expr {
	x := p.additiveExpr()
	for {
		switch p.peek().Kind {
		case TokLt, TokGt, TokLeq, TokGeq:
			op := p.next()
			x = &Binary{P: op.Pos, Op: op.Kind, L: x, R: p.additiveExpr()}
		default:
			return x
		}
	}
}

func (p *parser) additiveExpr() Expr {
	x := p.multiplicativeExpr()
	for p.peek().Kind == TokAdd || p.peek().Kind == TokSub {
		op := p.next()
		x = &Binary{P: op.Pos, Op: op.Kind, L: x, R: p.multiplicativeExpr()}
	}
	return x
}

func (p *parser) multiplicativeExpr() Expr {
	x := p.unaryExpr()
	for {
		switch p.peek().Kind {
		case TokMul, TokDiv, TokMod:
			op := p.next()
			x = &Binary{P: op.Pos, Op: op.Kind, L: x, R: p.unaryExpr()}
		default:
			return x
		}
	}
}

func (p *parser) unaryExpr() Expr {
	t := p.peek()
	switch t.Kind {
	case TokSub, TokAdd, TokNot:
		p.next()
		return &Unary{P: t.Pos, Op: t.Kind, X: p.unaryExpr()}
	case TokInc, TokDec:
		p.next()
		return &IncDec{P: t.Pos, X: p.unaryExpr(), Decr: t.Kind == TokDec}
	}
	return p.postfixExpr()
}

func (p *parser) postfixExpr() Expr {
	x := p.primaryExpr()
	for {
		switch t := p.peek(); t.Kind {
		case TokDot:
			p.next()
			sel := p.expect(TokIdent)
			x = &Swizzle{P: sel.Pos, X: x, Sel: sel.Lexeme}
		case TokLBracket:
			p.next()
			idx := p.expr()
			p.expect(TokRBracket)
			x = &Index{P: t.Pos, X: x, I: idx}
		case TokInc, TokDec:
			p.next()
			x = &IncDec{P: t.Pos, X: x, Decr: t.Kind == TokDec, Post: true}
		default:
			return x
		}
	}
}

func (p *parser) primaryExpr() Expr {
	t := p.peek()
	switch t.Kind {
	case TokIntLit:
		p.next()
		v, err := strconv.ParseInt(t.Lexeme, 0, 64)
		if err != nil {
			p.fail(t.Pos, "malformed integer literal %q", t.Lexeme)
		}
		return &IntLit{P: t.Pos, V: int32(v)}
	case TokFloatLit:
		p.next()
		v, err := strconv.ParseFloat(t.Lexeme, 64)
		if err != nil {
			p.fail(t.Pos, "malformed float literal %q", t.Lexeme)
		}
		return &FloatLit{P: t.Pos, V: v}
	case TokTrue, TokFalse:
		p.next()
		return &BoolLit{P: t.Pos, V: t.Kind == TokTrue}
	case TokIdent:
		p.next()
		if p.peek().Kind == TokLParen {
			return p.callArgs(&Call{P: t.Pos, Name: t.Lexeme})
		}
		return &Ident{P: t.Pos, Name: t.Lexeme}
	case TokType:
		p.next()
		if p.peek().Kind != TokLParen {
			p.fail(t.Pos, "type %s used as a value", t.Lexeme)
		}
		return p.callArgs(&Call{P: t.Pos, Name: t.Lexeme})
	case TokLParen:
		p.next()
		x := p.expr()
		p.expect(TokRParen)
		return x
	default:
		p.fail(t.Pos, "unexpected %s in expression", describe(t))
		return nil
	}
}

func (p *parser) callArgs(c *Call) Expr {
	p.expect(TokLParen)
	if p.peek().Kind != TokRParen {
		c.Args = append(c.Args, p.assignExpr())
		for p.peek().Kind == TokComma {
			p.next()
			c.Args = append(c.Args, p.assignExpr())
		}
	}
	p.expect(TokRParen)
	return c
}
