package shader

// The AST is produced untyped by the parser; the checker fills in result
// types, reference kinds and slot numbers in place. The evaluator walks the
// checked tree directly.

type Node interface {
	Pos() Pos
}

// Expr is any expression node. ResultType is TInvalid until checked.
type Expr interface {
	Node
	ResultType() Type
}

type Stmt interface {
	Node
	stmtNode()
}

// RefKind says what an identifier resolved to.
type RefKind uint8

const (
	RefUnresolved RefKind = iota
	RefLocal              // function parameter or local; Slot indexes the call frame
	RefGlobal             // shader global; Slot indexes the global frame
	RefUniform            // built-in uniform; Slot is a Uniform* constant
	RefChannel            // iChannelN sampler; Slot is the channel index
)

// Uniform slots, the Slot values carried by RefUniform identifiers.
const (
	UniformResolution = iota // vec3
	UniformTime              // float
	UniformTimeDelta         // float
	UniformFrameRate         // float
	UniformFrame             // int
	UniformMouse             // vec4
	UniformDate              // vec4
	UniformSampleRate        // float
	UniformChannelTime       // float[4]
	UniformChannelResolution // vec3[4]
	UniformFragCoord         // vec4, gl_FragCoord
)

type Ident struct {
	P    Pos
	Name string
	Ref  RefKind
	Slot int
	T    Type
}

type IntLit struct {
	P Pos
	V int32
	T Type
}

type FloatLit struct {
	P Pos
	V float64
	T Type
}

type BoolLit struct {
	P Pos
	V bool
	T Type
}

// CallKind discriminates what a call expression resolved to.
type CallKind uint8

const (
	CallUnresolved CallKind = iota
	CallBuiltin             // builtin function; Builtin is set
	CallUser                // user function; Fn is set
	CallCtor                // type constructor (vecN, matN, float, int, bool)
)

type Call struct {
	P       Pos
	Name    string
	Args    []Expr
	Kind    CallKind
	Builtin BuiltinID
	Fn      *FuncDecl
	Ctor    Type
	T       Type
}

type Unary struct {
	P  Pos
	Op TokenKind // TokSub, TokAdd, TokNot
	X  Expr
	T  Type
}

type IncDec struct {
	P    Pos
	X    Expr
	Decr bool
	Post bool
	T    Type
}

type Binary struct {
	P  Pos
	Op TokenKind
	L  Expr
	R  Expr
	T  Type
}

type Ternary struct {
	P    Pos
	Cond Expr
	Then Expr
	Else Expr
	T    Type
}

type Index struct {
	P Pos
	X Expr
	I Expr
	T Type
}

// Swizzle is member access on a vector: .x, .rgb, .xxyy and friends.
// Idx holds the component indices the selector resolved to.
type Swizzle struct {
	P   Pos
	X   Expr
	Sel string
	Idx []int
	T   Type
}

type Assign struct {
	P   Pos
	Op  TokenKind // TokAssign, TokAddAssign, ...
	LHS Expr
	RHS Expr
	T   Type
}

// Convert is an implicit int-to-float widening inserted by the checker.
type Convert struct {
	P Pos
	X Expr
	T Type
}

func (e *Ident) Pos() Pos   { return e.P }
func (e *IntLit) Pos() Pos  { return e.P }
func (e *FloatLit) Pos() Pos { return e.P }
func (e *BoolLit) Pos() Pos { return e.P }
func (e *Call) Pos() Pos    { return e.P }
func (e *Unary) Pos() Pos   { return e.P }
func (e *IncDec) Pos() Pos  { return e.P }
func (e *Binary) Pos() Pos  { return e.P }
func (e *Ternary) Pos() Pos { return e.P }
func (e *Index) Pos() Pos   { return e.P }
func (e *Swizzle) Pos() Pos { return e.P }
func (e *Assign) Pos() Pos  { return e.P }
func (e *Convert) Pos() Pos { return e.P }

func (e *Ident) ResultType() Type   { return e.T }
func (e *IntLit) ResultType() Type  { return e.T }
func (e *FloatLit) ResultType() Type { return e.T }
func (e *BoolLit) ResultType() Type { return e.T }
func (e *Call) ResultType() Type    { return e.T }
func (e *Unary) ResultType() Type   { return e.T }
func (e *IncDec) ResultType() Type  { return e.T }
func (e *Binary) ResultType() Type  { return e.T }
func (e *Ternary) ResultType() Type { return e.T }
func (e *Index) ResultType() Type   { return e.T }
func (e *Swizzle) ResultType() Type { return e.T }
func (e *Assign) ResultType() Type  { return e.T }
func (e *Convert) ResultType() Type { return e.T }

// --- statements ---

type Block struct {
	P    Pos
	List []Stmt
}

type DeclItem struct {
	P    Pos
	Name string
	Slot int
	Init Expr // may be nil
}

type DeclStmt struct {
	P     Pos
	Type  Type
	Const bool
	Items []DeclItem
}

type ExprStmt struct {
	P Pos
	X Expr
}

type IfStmt struct {
	P    Pos
	Cond Expr
	Then Stmt
	Else Stmt // may be nil
}

type ForStmt struct {
	P    Pos
	Init Stmt // DeclStmt or ExprStmt, may be nil
	Cond Expr // may be nil (treated as true)
	Post Expr // may be nil
	Body Stmt
}

type ReturnStmt struct {
	P Pos
	X Expr // nil for bare return
}

type BranchStmt struct {
	P   Pos
	Tok TokenKind // TokBreak or TokContinue
}

func (s *Block) Pos() Pos      { return s.P }
func (s *DeclStmt) Pos() Pos   { return s.P }
func (s *ExprStmt) Pos() Pos   { return s.P }
func (s *IfStmt) Pos() Pos     { return s.P }
func (s *ForStmt) Pos() Pos    { return s.P }
func (s *ReturnStmt) Pos() Pos { return s.P }
func (s *BranchStmt) Pos() Pos { return s.P }

func (*Block) stmtNode()      {}
func (*DeclStmt) stmtNode()   {}
func (*ExprStmt) stmtNode()   {}
func (*IfStmt) stmtNode()     {}
func (*ForStmt) stmtNode()    {}
func (*ReturnStmt) stmtNode() {}
func (*BranchStmt) stmtNode() {}

// --- top level ---

// Qualifier is a parameter passing mode.
type Qualifier uint8

const (
	QualIn Qualifier = iota
	QualOut
	QualInout
)

type Param struct {
	P    Pos
	Name string
	Type Type
	Qual Qualifier
	Slot int
}

type FuncDecl struct {
	P        Pos
	Name     string
	Ret      Type
	Params   []Param
	Body     *Block
	NumSlots int // call frame size, assigned by the checker
}

type GlobalVar struct {
	P     Pos
	Name  string
	Type  Type
	Slot  int
	Const bool
	Init  Expr // may be nil; zero value applies
}

// topDecl is either a *FuncDecl or a *GlobalDecl group.
type topDecl interface{ topDeclNode() }

type globalDecl struct {
	P     Pos
	Type  Type
	Const bool
	Items []DeclItem
}

func (*FuncDecl) topDeclNode()   {}
func (*globalDecl) topDeclNode() {}
