package eval

import (
	inputs "github.com/richinsley/shadertoyarcana/inputs"
	shader "github.com/richinsley/shadertoyarcana/shader"
)

// exec runs one shader program for one worker. A single exec is reused
// across the pixels of a row range; it carries no state between pixels
// beyond the reusable global frame.
type exec struct {
	prog     *shader.Program
	u        *Uniforms
	channels [4]inputs.IChannel
	globals  []Value
	fragX    float64
	fragY    float64
	steps    int
	depth    int
}

type ctrl uint8

const (
	ctrlNone ctrl = iota
	ctrlBreak
	ctrlContinue
	ctrlReturn
)

func newExec(prog *shader.Program, u *Uniforms, channels [4]inputs.IChannel) *exec {
	return &exec{
		prog:     prog,
		u:        u,
		channels: channels,
		globals:  make([]Value, len(prog.Globals())),
	}
}

// runPixel evaluates the entry function at one fragment coordinate,
// re-initializing globals so pixels stay independent.
func (e *exec) runPixel(fragX, fragY float64) [4]float64 {
	e.fragX, e.fragY = fragX, fragY
	e.steps = 0
	e.depth = 0
	for _, g := range e.prog.Globals() {
		if g.Init != nil {
			e.globals[g.Slot] = e.evalExpr(nil, g.Init)
		} else {
			e.globals[g.Slot] = zeroValue(g.Type)
		}
	}

	entry := e.prog.Entry()
	frame := make([]Value, entry.NumSlots)
	frame[entry.Params[0].Slot] = zeroValue(shader.TVec4)
	frame[entry.Params[1].Slot] = Vec2(fragX, fragY)
	e.execStmts(frame, entry.Body.List)
	return frame[entry.Params[0].Slot].X
}

// --- statements ---

func (e *exec) execStmts(frame []Value, list []shader.Stmt) (ctrl, Value) {
	for _, s := range list {
		if c, v := e.execStmt(frame, s); c != ctrlNone {
			return c, v
		}
	}
	return ctrlNone, Value{}
}

func (e *exec) execStmt(frame []Value, s shader.Stmt) (ctrl, Value) {
	switch s := s.(type) {
	case *shader.Block:
		return e.execStmts(frame, s.List)
	case *shader.DeclStmt:
		for i := range s.Items {
			item := &s.Items[i]
			if item.Init != nil {
				frame[item.Slot] = e.evalExpr(frame, item.Init)
			} else {
				frame[item.Slot] = zeroValue(s.Type)
			}
		}
	case *shader.ExprStmt:
		e.evalExpr(frame, s.X)
	case *shader.IfStmt:
		if e.evalExpr(frame, s.Cond).isTrue() {
			return e.execStmt(frame, s.Then)
		} else if s.Else != nil {
			return e.execStmt(frame, s.Else)
		}
	case *shader.ForStmt:
		return e.execFor(frame, s)
	case *shader.ReturnStmt:
		if s.X != nil {
			return ctrlReturn, e.evalExpr(frame, s.X)
		}
		return ctrlReturn, Value{}
	case *shader.BranchStmt:
		if s.Tok == shader.TokBreak {
			return ctrlBreak, Value{}
		}
		return ctrlContinue, Value{}
	}
	return ctrlNone, Value{}
}

func (e *exec) execFor(frame []Value, s *shader.ForStmt) (ctrl, Value) {
	if s.Init != nil {
		e.execStmt(frame, s.Init)
	}
	for {
		e.steps++
		if e.steps > maxLoopSteps {
			e.fault("loop iteration budget (%d) exceeded", maxLoopSteps)
		}
		if s.Cond != nil && !e.evalExpr(frame, s.Cond).isTrue() {
			return ctrlNone, Value{}
		}
		c, v := e.execStmt(frame, s.Body)
		switch c {
		case ctrlBreak:
			return ctrlNone, Value{}
		case ctrlReturn:
			return ctrlReturn, v
		}
		if s.Post != nil {
			e.evalExpr(frame, s.Post)
		}
	}
}

// --- expressions ---

func (e *exec) evalExpr(frame []Value, x shader.Expr) Value {
	switch x := x.(type) {
	case *shader.IntLit:
		return Int(x.V)
	case *shader.FloatLit:
		return Float(x.V)
	case *shader.BoolLit:
		return Bool(x.V)
	case *shader.Ident:
		return e.evalIdent(frame, x)
	case *shader.Convert:
		v := e.evalExpr(frame, x.X)
		v.T = shader.TFloat
		return v
	case *shader.Unary:
		return e.evalUnary(frame, x)
	case *shader.IncDec:
		return e.evalIncDec(frame, x)
	case *shader.Binary:
		return e.evalBinary(frame, x)
	case *shader.Ternary:
		if e.evalExpr(frame, x.Cond).isTrue() {
			return e.convertTo(e.evalExpr(frame, x.Then), x.T)
		}
		return e.convertTo(e.evalExpr(frame, x.Else), x.T)
	case *shader.Index:
		return e.evalIndex(frame, x)
	case *shader.Swizzle:
		v := e.evalExpr(frame, x.X)
		out := Value{T: x.T}
		for i, idx := range x.Idx {
			out.X[i] = v.X[idx]
		}
		return out
	case *shader.Assign:
		return e.evalAssign(frame, x)
	case *shader.Call:
		return e.evalCall(frame, x)
	}
	e.fault("internal: unhandled expression")
	return Value{}
}

func (e *exec) convertTo(v Value, t shader.Type) Value {
	if v.T != t && v.T == shader.TInt && t == shader.TFloat {
		v.T = shader.TFloat
	}
	return v
}

func (e *exec) evalIdent(frame []Value, x *shader.Ident) Value {
	switch x.Ref {
	case shader.RefLocal:
		return frame[x.Slot]
	case shader.RefGlobal:
		return e.globals[x.Slot]
	case shader.RefChannel:
		return Value{T: shader.TSampler2D, X: [4]float64{float64(x.Slot)}}
	case shader.RefUniform:
		return e.uniformValue(x.Slot)
	}
	e.fault("internal: unresolved identifier %q", x.Name)
	return Value{}
}

func (e *exec) uniformValue(slot int) Value {
	u := e.u
	switch slot {
	case shader.UniformResolution:
		return Vec3(u.Resolution[0], u.Resolution[1], u.Resolution[2])
	case shader.UniformTime:
		return Float(u.Time)
	case shader.UniformTimeDelta:
		return Float(u.TimeDelta)
	case shader.UniformFrameRate:
		return Float(u.FrameRate)
	case shader.UniformFrame:
		return Int(u.Frame)
	case shader.UniformMouse:
		return Vec4(u.Mouse[0], u.Mouse[1], u.Mouse[2], u.Mouse[3])
	case shader.UniformDate:
		return Vec4(u.Date[0], u.Date[1], u.Date[2], u.Date[3])
	case shader.UniformSampleRate:
		return Float(u.SampleRate)
	case shader.UniformFragCoord:
		return Vec4(e.fragX, e.fragY, 0, 1)
	}
	e.fault("internal: uniform slot %d read as a value", slot)
	return Value{}
}

func (e *exec) evalUnary(frame []Value, x *shader.Unary) Value {
	v := e.evalExpr(frame, x.X)
	switch x.Op {
	case shader.TokNot:
		return Bool(!v.isTrue())
	case shader.TokAdd:
		return v
	}
	// negation
	if v.T == shader.TInt {
		return Int(-v.asInt())
	}
	if shader.IsMatrix(v.T) {
		out := Value{T: v.T, M: make([]float64, len(v.M))}
		for i, m := range v.M {
			out.M[i] = -m
		}
		return out
	}
	return mapComp(v, func(f float64) float64 { return -f })
}

func (e *exec) evalIncDec(frame []Value, x *shader.IncDec) Value {
	old := e.evalExpr(frame, x.X)
	var next Value
	if old.T == shader.TInt {
		if x.Decr {
			next = Int(old.asInt() - 1)
		} else {
			next = Int(old.asInt() + 1)
		}
	} else {
		d := 1.0
		if x.Decr {
			d = -1.0
		}
		next = Float(old.X[0] + d)
	}
	e.store(frame, x.X, next)
	if x.Post {
		return old
	}
	return next
}

func (e *exec) evalBinary(frame []Value, x *shader.Binary) Value {
	switch x.Op {
	case shader.TokAndAnd:
		if !e.evalExpr(frame, x.L).isTrue() {
			return Bool(false)
		}
		return Bool(e.evalExpr(frame, x.R).isTrue())
	case shader.TokOrOr:
		if e.evalExpr(frame, x.L).isTrue() {
			return Bool(true)
		}
		return Bool(e.evalExpr(frame, x.R).isTrue())
	}

	l := e.evalExpr(frame, x.L)
	r := e.evalExpr(frame, x.R)

	switch x.Op {
	case shader.TokEq:
		return Bool(valuesEqual(l, r))
	case shader.TokNeq:
		return Bool(!valuesEqual(l, r))
	case shader.TokLt:
		return Bool(l.X[0] < r.X[0])
	case shader.TokGt:
		return Bool(l.X[0] > r.X[0])
	case shader.TokLeq:
		return Bool(l.X[0] <= r.X[0])
	case shader.TokGeq:
		return Bool(l.X[0] >= r.X[0])
	case shader.TokMod:
		d := r.asInt()
		if d == 0 {
			e.fault("integer modulo by zero")
		}
		return Int(l.asInt() % d)
	}
	return e.arith(x.Op, l, r)
}

func valuesEqual(l, r Value) bool {
	if shader.IsMatrix(l.T) {
		for i := range l.M {
			if l.M[i] != r.M[i] {
				return false
			}
		}
		return true
	}
	for i := 0; i < l.comps(); i++ {
		if l.X[i] != r.X[i] {
			return false
		}
	}
	return true
}

// arith implements +, -, *, / for every checked operand combination.
func (e *exec) arith(op shader.TokenKind, l, r Value) Value {
	if l.T == shader.TInt && r.T == shader.TInt {
		a, b := l.asInt(), r.asInt()
		switch op {
		case shader.TokAdd:
			return Int(a + b)
		case shader.TokSub:
			return Int(a - b)
		case shader.TokMul:
			return Int(a * b)
		default:
			if b == 0 {
				e.fault("integer division by zero")
			}
			return Int(a / b)
		}
	}

	lm, rm := shader.IsMatrix(l.T), shader.IsMatrix(r.T)
	if lm || rm {
		return e.matArith(op, l, r)
	}

	switch op {
	case shader.TokAdd:
		return zipComp(l, r, func(a, b float64) float64 { return a + b })
	case shader.TokSub:
		return zipComp(l, r, func(a, b float64) float64 { return a - b })
	case shader.TokMul:
		return zipComp(l, r, func(a, b float64) float64 { return a * b })
	default:
		return zipComp(l, r, func(a, b float64) float64 { return a / b })
	}
}

func (e *exec) matArith(op shader.TokenKind, l, r Value) Value {
	lm, rm := shader.IsMatrix(l.T), shader.IsMatrix(r.T)

	// matrix product forms
	if op == shader.TokMul {
		switch {
		case lm && rm:
			return matMul(l, r)
		case lm && shader.IsVector(r.T):
			return matVecMul(l, r)
		case shader.IsVector(l.T) && rm:
			return vecMatMul(l, r)
		}
	}

	// scalar against matrix, or componentwise matrix op
	apply := func(a, b float64) float64 {
		switch op {
		case shader.TokAdd:
			return a + b
		case shader.TokSub:
			return a - b
		case shader.TokMul:
			return a * b
		default:
			return a / b
		}
	}
	switch {
	case lm && rm:
		out := Value{T: l.T, M: make([]float64, len(l.M))}
		for i := range l.M {
			out.M[i] = apply(l.M[i], r.M[i])
		}
		return out
	case lm:
		out := Value{T: l.T, M: make([]float64, len(l.M))}
		for i := range l.M {
			out.M[i] = apply(l.M[i], r.X[0])
		}
		return out
	default:
		out := Value{T: r.T, M: make([]float64, len(r.M))}
		for i := range r.M {
			out.M[i] = apply(l.X[0], r.M[i])
		}
		return out
	}
}

func matMul(l, r Value) Value {
	d := shader.MatDim(l.T)
	out := Value{T: l.T, M: make([]float64, d*d)}
	for c := 0; c < d; c++ {
		for row := 0; row < d; row++ {
			var sum float64
			for k := 0; k < d; k++ {
				sum += l.M[k*d+row] * r.M[c*d+k]
			}
			out.M[c*d+row] = sum
		}
	}
	return out
}

func matVecMul(m, v Value) Value {
	d := shader.MatDim(m.T)
	out := Value{T: v.T}
	for row := 0; row < d; row++ {
		var sum float64
		for k := 0; k < d; k++ {
			sum += m.M[k*d+row] * v.X[k]
		}
		out.X[row] = sum
	}
	return out
}

func vecMatMul(v, m Value) Value {
	d := shader.MatDim(m.T)
	out := Value{T: v.T}
	for c := 0; c < d; c++ {
		var sum float64
		for k := 0; k < d; k++ {
			sum += v.X[k] * m.M[c*d+k]
		}
		out.X[c] = sum
	}
	return out
}

func (e *exec) evalIndex(frame []Value, x *shader.Index) Value {
	// the uniform arrays are read straight out of the uniform block
	if id, ok := x.X.(*shader.Ident); ok && id.Ref == shader.RefUniform {
		i := int(e.evalExpr(frame, x.I).asInt())
		if i < 0 || i > 3 {
			e.fault("channel index %d out of range", i)
		}
		if id.Slot == shader.UniformChannelTime {
			return Float(e.u.ChannelTime[i])
		}
		res := e.u.ChannelRes[i]
		return Vec3(res[0], res[1], res[2])
	}

	v := e.evalExpr(frame, x.X)
	i := int(e.evalExpr(frame, x.I).asInt())
	if shader.IsMatrix(v.T) {
		if i < 0 || i >= shader.MatDim(v.T) {
			e.fault("matrix column %d out of range for %s", i, v.T)
		}
		return column(v, i)
	}
	if i < 0 || i >= v.comps() {
		e.fault("component %d out of range for %s", i, v.T)
	}
	return Float(v.X[i])
}

func (e *exec) evalAssign(frame []Value, x *shader.Assign) Value {
	rhs := e.evalExpr(frame, x.RHS)
	var v Value
	if x.Op == shader.TokAssign {
		v = rhs
	} else {
		cur := e.evalExpr(frame, x.LHS)
		var op shader.TokenKind
		switch x.Op {
		case shader.TokAddAssign:
			op = shader.TokAdd
		case shader.TokSubAssign:
			op = shader.TokSub
		case shader.TokMulAssign:
			op = shader.TokMul
		default:
			op = shader.TokDiv
		}
		v = e.arith(op, cur, rhs)
	}
	e.store(frame, x.LHS, v)
	return v
}

// store writes v through an lvalue expression, rebuilding aggregates on the
// way back up so partial writes (swizzles, indexed components) land in the
// right storage.
func (e *exec) store(frame []Value, lhs shader.Expr, v Value) {
	switch lhs := lhs.(type) {
	case *shader.Ident:
		if lhs.Ref == shader.RefGlobal {
			e.globals[lhs.Slot] = v
		} else {
			frame[lhs.Slot] = v
		}
	case *shader.Swizzle:
		base := e.evalExpr(frame, lhs.X)
		for k, idx := range lhs.Idx {
			base.X[idx] = v.X[k]
		}
		e.store(frame, lhs.X, base)
	case *shader.Index:
		base := e.evalExpr(frame, lhs.X)
		i := int(e.evalExpr(frame, lhs.I).asInt())
		if shader.IsMatrix(base.T) {
			if i < 0 || i >= shader.MatDim(base.T) {
				e.fault("matrix column %d out of range for %s", i, base.T)
			}
			base = setColumn(base, i, v)
		} else {
			if i < 0 || i >= base.comps() {
				e.fault("component %d out of range for %s", i, base.T)
			}
			base.X[i] = v.X[0]
		}
		e.store(frame, lhs.X, base)
	default:
		e.fault("internal: store through non-lvalue")
	}
}

// --- calls ---

func (e *exec) evalCall(frame []Value, x *shader.Call) Value {
	switch x.Kind {
	case shader.CallBuiltin:
		return e.evalBuiltin(frame, x)
	case shader.CallUser:
		return e.evalUserCall(frame, x)
	case shader.CallCtor:
		return e.evalCtor(frame, x)
	}
	e.fault("internal: unresolved call to %q", x.Name)
	return Value{}
}

func (e *exec) evalUserCall(frame []Value, x *shader.Call) Value {
	e.depth++
	if e.depth > maxCallDepth {
		e.fault("call depth budget (%d) exceeded", maxCallDepth)
	}
	fn := x.Fn
	callee := make([]Value, fn.NumSlots)
	for i, p := range fn.Params {
		if p.Qual == shader.QualOut {
			callee[p.Slot] = zeroValue(p.Type)
			continue
		}
		callee[p.Slot] = e.evalExpr(frame, x.Args[i])
	}

	c, ret := e.execStmts(callee, fn.Body.List)

	for i, p := range fn.Params {
		if p.Qual != shader.QualIn {
			e.store(frame, x.Args[i], callee[p.Slot])
		}
	}
	e.depth--

	if c == ctrlReturn && fn.Ret != shader.TVoid {
		return e.convertTo(ret, fn.Ret)
	}
	return zeroValue(fn.Ret)
}

func (e *exec) evalCtor(frame []Value, x *shader.Call) Value {
	t := x.Ctor
	switch t {
	case shader.TFloat:
		return Float(e.evalExpr(frame, x.Args[0]).X[0])
	case shader.TInt:
		return Int(int32(e.evalExpr(frame, x.Args[0]).X[0]))
	case shader.TBool:
		return Bool(e.evalExpr(frame, x.Args[0]).X[0] != 0)
	}

	if shader.IsVector(t) {
		n := shader.Components(t)
		if len(x.Args) == 1 && shader.Components(x.Args[0].ResultType()) == 1 {
			return splat(t, e.evalExpr(frame, x.Args[0]).X[0])
		}
		out := Value{T: t}
		k := 0
		for _, a := range x.Args {
			v := e.evalExpr(frame, a)
			for i := 0; i < v.comps() && k < n; i++ {
				out.X[k] = v.X[i]
				k++
			}
		}
		return out
	}

	// matrix constructor
	d := shader.MatDim(t)
	out := matVal(t)
	if len(x.Args) == 1 && shader.Components(x.Args[0].ResultType()) == 1 {
		s := e.evalExpr(frame, x.Args[0]).X[0]
		for i := 0; i < d; i++ {
			out.M[i*d+i] = s
		}
		return out
	}
	k := 0
	for _, a := range x.Args {
		v := e.evalExpr(frame, a)
		for i := 0; i < v.comps(); i++ {
			out.M[k] = v.X[i]
			k++
		}
	}
	return out
}
