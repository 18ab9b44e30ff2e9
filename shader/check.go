package shader

import "strings"

type localSym struct {
	typ     Type
	slot    int
	isConst bool
}

type checker struct {
	funcs     map[string][]*FuncDecl
	funcList  []*FuncDecl
	globals   []*GlobalVar
	globalMap map[string]*GlobalVar
	scopes    []map[string]*localSym
	cur       *FuncDecl
	slotCount int
	loopDepth int
}

// check resolves names, types every expression, assigns frame slots and
// picks the entry point. Like the parser it bails out with a panic carrying
// the *CompileError.
func check(decls []topDecl) (prog *Program, err error) {
	c := &checker{
		funcs:     map[string][]*FuncDecl{},
		globalMap: map[string]*GlobalVar{},
	}
	defer func() {
		if r := recover(); r != nil {
			if ce, ok := r.(*CompileError); ok {
				prog, err = nil, ce
				return
			}
			panic(r)
		}
	}()

	for _, d := range decls {
		switch d := d.(type) {
		case *globalDecl:
			c.globalDecl(d)
		case *FuncDecl:
			c.funcDecl(d)
		}
	}

	entry := c.findEntry()
	return &Program{funcs: c.funcList, entry: entry, globals: c.globals}, nil
}

func (c *checker) fail(pos Pos, format string, args ...interface{}) {
	panic(errAt(pos, format, args...))
}

func (c *checker) findEntry() *FuncDecl {
	cands := c.funcs["mainImage"]
	if len(cands) == 0 {
		c.fail(Pos{}, "no mainImage entry function; expected 'void mainImage(out vec4 fragColor, in vec2 fragCoord)'")
	}
	for _, fn := range cands {
		if fn.Ret == TVoid && len(fn.Params) == 2 &&
			fn.Params[0].Type == TVec4 && fn.Params[0].Qual != QualIn &&
			fn.Params[1].Type == TVec2 {
			return fn
		}
	}
	c.fail(cands[0].P, "mainImage has the wrong signature; expected 'void mainImage(out vec4 fragColor, in vec2 fragCoord)'")
	return nil
}

func (c *checker) checkNameFree(pos Pos, name string) {
	if _, ok := uniformSymbols[name]; ok {
		c.fail(pos, "%q is a built-in uniform and cannot be declared", name)
	}
	if _, ok := channelSymbols[name]; ok {
		c.fail(pos, "%q is a built-in sampler and cannot be declared", name)
	}
	if name == "gl_FragCoord" {
		c.fail(pos, "gl_FragCoord cannot be declared")
	}
}

func (c *checker) globalDecl(d *globalDecl) {
	for i := range d.Items {
		item := &d.Items[i]
		c.checkNameFree(item.P, item.Name)
		if _, dup := c.globalMap[item.Name]; dup {
			c.fail(item.P, "global %q redeclared", item.Name)
		}
		if d.Const && item.Init == nil {
			c.fail(item.P, "const global %q needs an initializer", item.Name)
		}
		g := &GlobalVar{P: item.P, Name: item.Name, Type: d.Type, Const: d.Const, Slot: len(c.globals)}
		if item.Init != nil {
			init := c.expr(item.Init)
			conv, ok := c.conv(init, d.Type)
			if !ok {
				c.fail(item.P, "cannot initialize %s %q with %s", d.Type, item.Name, init.ResultType())
			}
			g.Init = conv
		}
		c.globals = append(c.globals, g)
		c.globalMap[item.Name] = g
	}
}

func (c *checker) funcDecl(fn *FuncDecl) {
	c.checkNameFree(fn.P, fn.Name)
	if _, ok := builtinTable[fn.Name]; ok {
		c.fail(fn.P, "%q redefines a built-in function", fn.Name)
	}
	if _, ok := c.globalMap[fn.Name]; ok {
		c.fail(fn.P, "%q already declared as a global", fn.Name)
	}
	for _, prev := range c.funcs[fn.Name] {
		if sameSignature(prev, fn) {
			c.fail(fn.P, "function %q redeclared with the same parameter types", fn.Name)
		}
	}

	c.cur = fn
	c.slotCount = 0
	c.loopDepth = 0
	c.pushScope()
	for i := range fn.Params {
		p := &fn.Params[i]
		if p.Type == TSampler2D {
			c.fail(p.P, "sampler parameters are not supported; use iChannel0..iChannel3 directly")
		}
		p.Slot = c.newSlot()
		c.declare(p.P, p.Name, p.Type, p.Slot, false)
	}
	c.stmts(fn.Body.List)
	c.popScope()
	fn.NumSlots = c.slotCount
	c.cur = nil

	c.funcs[fn.Name] = append(c.funcs[fn.Name], fn)
	c.funcList = append(c.funcList, fn)
}

func sameSignature(a, b *FuncDecl) bool {
	if len(a.Params) != len(b.Params) {
		return false
	}
	for i := range a.Params {
		if a.Params[i].Type != b.Params[i].Type {
			return false
		}
	}
	return true
}

// --- scopes ---

func (c *checker) pushScope() { c.scopes = append(c.scopes, map[string]*localSym{}) }
func (c *checker) popScope()  { c.scopes = c.scopes[:len(c.scopes)-1] }

func (c *checker) newSlot() int {
	s := c.slotCount
	c.slotCount++
	return s
}

func (c *checker) declare(pos Pos, name string, t Type, slot int, isConst bool) {
	top := c.scopes[len(c.scopes)-1]
	if _, dup := top[name]; dup {
		c.fail(pos, "%q redeclared in this scope", name)
	}
	top[name] = &localSym{typ: t, slot: slot, isConst: isConst}
}

func (c *checker) lookup(name string) *localSym {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if s, ok := c.scopes[i][name]; ok {
			return s
		}
	}
	return nil
}

// --- statements ---

func (c *checker) stmts(list []Stmt) {
	for _, s := range list {
		c.stmt(s)
	}
}

func (c *checker) stmt(s Stmt) {
	switch s := s.(type) {
	case *Block:
		c.pushScope()
		c.stmts(s.List)
		c.popScope()
	case *DeclStmt:
		c.declStmt(s)
	case *ExprStmt:
		s.X = c.expr(s.X)
	case *IfStmt:
		s.Cond = c.boolExpr(s.Cond, "if condition")
		c.stmt(s.Then)
		if s.Else != nil {
			c.stmt(s.Else)
		}
	case *ForStmt:
		c.pushScope()
		if s.Init != nil {
			c.stmt(s.Init)
		}
		if s.Cond != nil {
			s.Cond = c.boolExpr(s.Cond, "for condition")
		}
		if s.Post != nil {
			s.Post = c.expr(s.Post)
		}
		c.loopDepth++
		c.stmt(s.Body)
		c.loopDepth--
		c.popScope()
	case *ReturnStmt:
		if c.cur.Ret == TVoid {
			if s.X != nil {
				c.fail(s.P, "void function %q cannot return a value", c.cur.Name)
			}
			return
		}
		if s.X == nil {
			c.fail(s.P, "function %q must return a %s", c.cur.Name, c.cur.Ret)
		}
		x := c.expr(s.X)
		conv, ok := c.conv(x, c.cur.Ret)
		if !ok {
			c.fail(s.P, "cannot return %s from function returning %s", x.ResultType(), c.cur.Ret)
		}
		s.X = conv
	case *BranchStmt:
		if c.loopDepth == 0 {
			word := "break"
			if s.Tok == TokContinue {
				word = "continue"
			}
			c.fail(s.P, "%s outside a loop", word)
		}
	}
}

func (c *checker) declStmt(s *DeclStmt) {
	for i := range s.Items {
		item := &s.Items[i]
		c.checkNameFree(item.P, item.Name)
		if s.Const && item.Init == nil {
			c.fail(item.P, "const %q needs an initializer", item.Name)
		}
		if item.Init != nil {
			init := c.expr(item.Init)
			conv, ok := c.conv(init, s.Type)
			if !ok {
				c.fail(item.P, "cannot initialize %s %q with %s", s.Type, item.Name, init.ResultType())
			}
			item.Init = conv
		}
		item.Slot = c.newSlot()
		c.declare(item.P, item.Name, s.Type, item.Slot, s.Const)
	}
}

func (c *checker) boolExpr(e Expr, what string) Expr {
	x := c.expr(e)
	if x.ResultType() != TBool {
		c.fail(e.Pos(), "%s must be bool, found %s", what, x.ResultType())
	}
	return x
}

// --- expressions ---

// conv returns e adapted to the wanted type, inserting the implicit
// int-to-float widening the dialect permits. Reports false when the types
// are incompatible.
func (c *checker) conv(e Expr, want Type) (Expr, bool) {
	t := e.ResultType()
	if t == want {
		return e, true
	}
	if t == TInt && want == TFloat {
		return &Convert{P: e.Pos(), X: e, T: TFloat}, true
	}
	return e, false
}

func (c *checker) expr(e Expr) Expr {
	switch e := e.(type) {
	case *IntLit:
		e.T = TInt
		return e
	case *FloatLit:
		e.T = TFloat
		return e
	case *BoolLit:
		e.T = TBool
		return e
	case *Ident:
		c.ident(e)
		return e
	case *Call:
		return c.call(e)
	case *Unary:
		e.X = c.expr(e.X)
		t := e.X.ResultType()
		if e.Op == TokNot {
			if t != TBool {
				c.fail(e.P, "operator ! needs a bool operand, found %s", t)
			}
		} else if !IsNumeric(t) {
			c.fail(e.P, "operator %s needs a numeric operand, found %s", e.Op, t)
		}
		e.T = t
		return e
	case *IncDec:
		e.X = c.expr(e.X)
		c.requireLvalue(e.X)
		t := e.X.ResultType()
		if t != TInt && t != TFloat {
			c.fail(e.P, "++/-- needs an int or float operand, found %s", t)
		}
		e.T = t
		return e
	case *Binary:
		return c.binary(e)
	case *Ternary:
		e.Cond = c.boolExpr(e.Cond, "conditional")
		e.Then = c.expr(e.Then)
		e.Else = c.expr(e.Else)
		if x, ok := c.conv(e.Else, e.Then.ResultType()); ok {
			e.Else = x
		} else if x, ok := c.conv(e.Then, e.Else.ResultType()); ok {
			e.Then = x
		} else {
			c.fail(e.P, "mismatched conditional branches: %s vs %s",
				e.Then.ResultType(), e.Else.ResultType())
		}
		e.T = e.Then.ResultType()
		return e
	case *Index:
		return c.index(e)
	case *Swizzle:
		return c.swizzle(e)
	case *Assign:
		return c.assign(e)
	}
	c.fail(e.Pos(), "internal: unhandled expression")
	return nil
}

func (c *checker) ident(e *Ident) {
	if s := c.lookup(e.Name); s != nil {
		e.Ref, e.Slot, e.T = RefLocal, s.slot, s.typ
		return
	}
	if g, ok := c.globalMap[e.Name]; ok {
		e.Ref, e.Slot, e.T = RefGlobal, g.Slot, g.Type
		return
	}
	if u, ok := uniformSymbols[e.Name]; ok {
		e.Ref, e.Slot, e.T = RefUniform, u.Slot, u.Type
		return
	}
	if ch, ok := channelSymbols[e.Name]; ok {
		e.Ref, e.Slot, e.T = RefChannel, ch, TSampler2D
		return
	}
	if e.Name == "gl_FragCoord" {
		e.Ref, e.Slot, e.T = RefUniform, UniformFragCoord, TVec4
		return
	}
	c.fail(e.P, "undefined identifier %q", e.Name)
}

func (c *checker) binary(e *Binary) Expr {
	e.L = c.expr(e.L)
	e.R = c.expr(e.R)
	lt, rt := e.L.ResultType(), e.R.ResultType()

	switch e.Op {
	case TokOrOr, TokAndAnd:
		if lt != TBool || rt != TBool {
			c.fail(e.P, "operator %s needs bool operands, found %s and %s", e.Op, lt, rt)
		}
		e.T = TBool
		return e
	case TokEq, TokNeq:
		c.promotePair(e)
		lt = e.L.ResultType()
		if lt != e.R.ResultType() || lt == TSampler2D || lt == TVoid {
			c.fail(e.P, "cannot compare %s and %s", e.L.ResultType(), e.R.ResultType())
		}
		e.T = TBool
		return e
	case TokLt, TokGt, TokLeq, TokGeq:
		c.promotePair(e)
		lt, rt = e.L.ResultType(), e.R.ResultType()
		if lt != rt || (lt != TInt && lt != TFloat) {
			c.fail(e.P, "operator %s needs matching scalar operands, found %s and %s", e.Op, lt, rt)
		}
		e.T = TBool
		return e
	case TokMod:
		if lt != TInt || rt != TInt {
			c.fail(e.P, "operator %% is integer-only; use mod() for floats")
		}
		e.T = TInt
		return e
	default:
		l, r, t := c.arith(e.Op, e.L, e.R)
		if t == TInvalid {
			c.fail(e.P, "invalid operands to %s: %s and %s", e.Op, lt, rt)
		}
		e.L, e.R, e.T = l, r, t
		return e
	}
}

// promotePair widens an int operand when the other side is float.
func (c *checker) promotePair(e *Binary) {
	if e.L.ResultType() == TInt && e.R.ResultType() == TFloat {
		e.L, _ = c.conv(e.L, TFloat)
	}
	if e.R.ResultType() == TInt && e.L.ResultType() == TFloat {
		e.R, _ = c.conv(e.R, TFloat)
	}
}

// arith types +, -, *, / over scalars, vectors and matrices, returning the
// operands with int-to-float widening applied. The result type is TInvalid
// on mismatch.
func (c *checker) arith(op TokenKind, l, r Expr) (Expr, Expr, Type) {
	lt, rt := l.ResultType(), r.ResultType()
	if !IsNumeric(lt) || !IsNumeric(rt) {
		return l, r, TInvalid
	}
	if lt == TInt && rt == TInt {
		return l, r, TInt
	}
	if lt == TInt {
		l, _ = c.conv(l, TFloat)
		lt = TFloat
	}
	if rt == TInt {
		r, _ = c.conv(r, TFloat)
		rt = TFloat
	}

	switch {
	case lt == rt:
		// matrix * matrix is a matrix product, everything else (including
		// matrix +/-) is componentwise and keeps the type
		return l, r, lt
	case lt == TFloat:
		return l, r, rt
	case rt == TFloat:
		return l, r, lt
	case op == TokMul && IsMatrix(lt) && IsVector(rt) && MatDim(lt) == Components(rt):
		return l, r, rt
	case op == TokMul && IsVector(lt) && IsMatrix(rt) && MatDim(rt) == Components(lt):
		return l, r, lt
	}
	return l, r, TInvalid
}

func (c *checker) index(e *Index) Expr {
	e.X = c.expr(e.X)
	e.I = c.expr(e.I)
	if e.I.ResultType() != TInt {
		c.fail(e.P, "index must be an int, found %s", e.I.ResultType())
	}
	t := e.X.ResultType()
	switch {
	case IsVector(t):
		e.T = TFloat
	case IsMatrix(t), t == TFloatArr4, t == TVec3Arr4:
		e.T = ElemType(t)
	default:
		c.fail(e.P, "type %s cannot be indexed", t)
	}
	return e
}

var swizzleSets = []string{"xyzw", "rgba", "stpq"}

func (c *checker) swizzle(e *Swizzle) Expr {
	e.X = c.expr(e.X)
	t := e.X.ResultType()
	if !IsVector(t) {
		c.fail(e.P, "type %s has no components to select", t)
	}
	if len(e.Sel) == 0 || len(e.Sel) > 4 {
		c.fail(e.P, "invalid swizzle %q", e.Sel)
	}
	e.Idx = make([]int, len(e.Sel))
	chosen := ""
	for _, s := range swizzleSets {
		if strings.IndexByte(s, e.Sel[0]) >= 0 {
			chosen = s
			break
		}
	}
	if chosen == "" {
		c.fail(e.P, "invalid swizzle %q", e.Sel)
	}
	n := Components(t)
	for i := 0; i < len(e.Sel); i++ {
		idx := strings.IndexByte(chosen, e.Sel[i])
		if idx < 0 {
			c.fail(e.P, "invalid swizzle %q: components must come from one of xyzw, rgba, stpq", e.Sel)
		}
		if idx >= n {
			c.fail(e.P, "swizzle %q selects component %c beyond %s", e.Sel, e.Sel[i], t)
		}
		e.Idx[i] = idx
	}
	e.T = VecType(len(e.Sel))
	return e
}

func (c *checker) assign(e *Assign) Expr {
	e.LHS = c.expr(e.LHS)
	e.RHS = c.expr(e.RHS)
	c.requireLvalue(e.LHS)
	lt := e.LHS.ResultType()

	if e.Op == TokAssign {
		conv, ok := c.conv(e.RHS, lt)
		if !ok {
			c.fail(e.P, "cannot assign %s to %s", e.RHS.ResultType(), lt)
		}
		e.RHS = conv
		e.T = lt
		return e
	}

	// compound assignment follows the matching binary operator and must
	// land back in the left-hand type
	var op TokenKind
	switch e.Op {
	case TokAddAssign:
		op = TokAdd
	case TokSubAssign:
		op = TokSub
	case TokMulAssign:
		op = TokMul
	case TokDivAssign:
		op = TokDiv
	}
	_, r, rt := c.arith(op, e.LHS, e.RHS)
	if rt != lt {
		c.fail(e.P, "invalid compound assignment: %s %s %s", lt, e.Op, e.RHS.ResultType())
	}
	e.RHS = r
	e.T = lt
	return e
}

// requireLvalue checks that e designates writable storage: a non-const
// variable, possibly through swizzles (no repeated components) and indexing.
func (c *checker) requireLvalue(e Expr) {
	switch e := e.(type) {
	case *Ident:
		switch e.Ref {
		case RefLocal:
			if s := c.lookup(e.Name); s != nil && s.isConst {
				c.fail(e.P, "cannot assign to const %q", e.Name)
			}
		case RefGlobal:
			if c.globalMap[e.Name].Const {
				c.fail(e.P, "cannot assign to const %q", e.Name)
			}
		default:
			c.fail(e.P, "cannot assign to built-in %q", e.Name)
		}
	case *Swizzle:
		seen := map[int]bool{}
		for _, i := range e.Idx {
			if seen[i] {
				c.fail(e.P, "swizzle %q repeats a component and cannot be assigned", e.Sel)
			}
			seen[i] = true
		}
		c.requireLvalue(e.X)
	case *Index:
		t := e.X.ResultType()
		if t == TFloatArr4 || t == TVec3Arr4 {
			c.fail(e.P, "cannot assign to a built-in uniform")
		}
		c.requireLvalue(e.X)
	default:
		c.fail(e.Pos(), "expression is not assignable")
	}
}

// --- calls ---

func (c *checker) call(e *Call) Expr {
	for i := range e.Args {
		e.Args[i] = c.expr(e.Args[i])
	}

	if t, ok := typeKeywords[e.Name]; ok {
		c.ctor(e, t)
		return e
	}

	if def, ok := builtinTable[e.Name]; ok {
		c.builtinCall(e, def)
		return e
	}

	if cands := c.funcs[e.Name]; len(cands) > 0 {
		c.userCall(e, cands)
		return e
	}

	if c.cur != nil && e.Name == c.cur.Name {
		c.fail(e.P, "recursive call to %q; recursion is not supported", e.Name)
	}
	c.fail(e.P, "call to undefined function %q (functions must be defined before use)", e.Name)
	return nil
}

func (c *checker) builtinCall(e *Call, def builtinDef) {
	// builtins are defined over the float family; widen int arguments
	// except the sampler slots
	for i, a := range e.Args {
		if a.ResultType() == TInt {
			e.Args[i], _ = c.conv(a, TFloat)
		}
	}
	types := argTypes(e.Args)
	ret, ok := def.Sig(types)
	if !ok {
		c.fail(e.P, "no overload of %s matches (%s)", e.Name, typeList(types))
	}
	e.Kind = CallBuiltin
	e.Builtin = def.ID
	e.T = ret
}

func (c *checker) userCall(e *Call, cands []*FuncDecl) {
	types := argTypes(e.Args)

	// exact match wins; otherwise a unique match under int-to-float
	// widening is accepted
	var exact, loose []*FuncDecl
	for _, fn := range cands {
		if len(fn.Params) != len(types) {
			continue
		}
		ok, widened := true, false
		for i, p := range fn.Params {
			if types[i] == p.Type {
				continue
			}
			if types[i] == TInt && p.Type == TFloat && p.Qual == QualIn {
				widened = true
				continue
			}
			ok = false
			break
		}
		if !ok {
			continue
		}
		if widened {
			loose = append(loose, fn)
		} else {
			exact = append(exact, fn)
		}
	}

	var fn *FuncDecl
	switch {
	case len(exact) == 1:
		fn = exact[0]
	case len(exact) > 1:
		c.fail(e.P, "ambiguous call to %q", e.Name)
	case len(loose) == 1:
		fn = loose[0]
	case len(loose) > 1:
		c.fail(e.P, "ambiguous call to %q", e.Name)
	default:
		c.fail(e.P, "no overload of %q matches (%s)", e.Name, typeList(types))
	}

	for i, p := range fn.Params {
		if p.Qual != QualIn {
			c.requireLvalue(e.Args[i])
			if e.Args[i].ResultType() != p.Type {
				c.fail(e.Args[i].Pos(), "out parameter %q needs a %s argument, found %s",
					p.Name, p.Type, e.Args[i].ResultType())
			}
			continue
		}
		e.Args[i], _ = c.conv(e.Args[i], p.Type)
	}
	e.Kind = CallUser
	e.Fn = fn
	e.T = fn.Ret
}

func (c *checker) ctor(e *Call, t Type) {
	e.Kind = CallCtor
	e.Ctor = t
	e.T = t

	switch {
	case t == TVoid || t == TSampler2D:
		c.fail(e.P, "cannot construct a %s", t)
	case t == TFloat || t == TInt || t == TBool:
		if len(e.Args) != 1 {
			c.fail(e.P, "%s() takes exactly one argument", t)
		}
		at := e.Args[0].ResultType()
		if at != TBool && at != TInt && at != TFloat {
			c.fail(e.P, "cannot convert %s to %s", at, t)
		}
	case IsVector(t):
		c.vectorCtor(e, t)
	case IsMatrix(t):
		c.matrixCtor(e, t)
	}
}

func (c *checker) vectorCtor(e *Call, t Type) {
	want := Components(t)
	if len(e.Args) == 0 {
		c.fail(e.P, "%s() needs arguments", t)
	}
	// single scalar splat
	if len(e.Args) == 1 && Components(e.Args[0].ResultType()) == 1 {
		e.Args[0] = c.numericArg(e.Args[0])
		return
	}
	total := 0
	for i, a := range e.Args {
		at := a.ResultType()
		n := Components(at)
		if n == 0 || at == TBool {
			c.fail(a.Pos(), "invalid %s constructor argument of type %s", t, at)
		}
		if total >= want {
			c.fail(a.Pos(), "too many arguments to %s constructor", t)
		}
		e.Args[i] = c.numericArg(a)
		total += n
	}
	if total < want {
		c.fail(e.P, "not enough components for %s constructor (have %d)", t, total)
	}
}

func (c *checker) matrixCtor(e *Call, t Type) {
	dim := MatDim(t)
	if len(e.Args) == 1 && Components(e.Args[0].ResultType()) == 1 && e.Args[0].ResultType() != TBool {
		e.Args[0] = c.numericArg(e.Args[0])
		return // scalar on the diagonal
	}
	total := 0
	for i, a := range e.Args {
		n := Components(a.ResultType())
		if n == 0 || a.ResultType() == TBool {
			c.fail(a.Pos(), "invalid %s constructor argument of type %s", t, a.ResultType())
		}
		e.Args[i] = c.numericArg(a)
		total += n
	}
	if total != dim*dim {
		c.fail(e.P, "%s constructor needs %d components, have %d", t, dim*dim, total)
	}
}

// numericArg widens a lone int to float inside vector/matrix constructors.
func (c *checker) numericArg(a Expr) Expr {
	if a.ResultType() == TInt {
		x, _ := c.conv(a, TFloat)
		return x
	}
	return a
}

func argTypes(args []Expr) []Type {
	types := make([]Type, len(args))
	for i, a := range args {
		types[i] = a.ResultType()
	}
	return types
}

func typeList(types []Type) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}
