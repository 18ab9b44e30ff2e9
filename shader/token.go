package shader

import "fmt"

// Pos is a source position within the preprocessed compilation unit. The
// preprocessor preserves line structure, so positions match the input the
// caller handed to Compile.
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string { return fmt.Sprintf("%d:%d", p.Line, p.Col) }

type TokenKind uint8

const (
	TokEOF TokenKind = iota
	TokIdent
	TokIntLit
	TokFloatLit

	// keywords
	TokConst
	TokIf
	TokElse
	TokFor
	TokReturn
	TokBreak
	TokContinue
	TokIn
	TokOut
	TokInout
	TokTrue
	TokFalse
	TokType // any type keyword; the Type value rides in Token.Type

	// punctuation and operators
	TokLParen
	TokRParen
	TokLBrace
	TokRBrace
	TokLBracket
	TokRBracket
	TokComma
	TokSemi
	TokDot
	TokQuestion
	TokColon

	TokAssign
	TokAddAssign
	TokSubAssign
	TokMulAssign
	TokDivAssign
	TokAdd
	TokSub
	TokMul
	TokDiv
	TokMod
	TokInc
	TokDec
	TokEq
	TokNeq
	TokLt
	TokGt
	TokLeq
	TokGeq
	TokAndAnd
	TokOrOr
	TokNot
)

// Token is one lexical unit. Lexeme holds the literal text for identifiers
// and numbers; Type is set for type keywords.
type Token struct {
	Kind   TokenKind
	Lexeme string
	Type   Type
	Pos    Pos
}

var keywords = map[string]TokenKind{
	"const":    TokConst,
	"if":       TokIf,
	"else":     TokElse,
	"for":      TokFor,
	"return":   TokReturn,
	"break":    TokBreak,
	"continue": TokContinue,
	"in":       TokIn,
	"out":      TokOut,
	"inout":    TokInout,
	"true":     TokTrue,
	"false":    TokFalse,
}

var typeKeywords = map[string]Type{
	"void":      TVoid,
	"bool":      TBool,
	"int":       TInt,
	"float":     TFloat,
	"vec2":      TVec2,
	"vec3":      TVec3,
	"vec4":      TVec4,
	"mat2":      TMat2,
	"mat3":      TMat3,
	"mat4":      TMat4,
	"sampler2D": TSampler2D,
}

// reserved are language constructs outside the supported subset. Seeing one
// is a compile error up front, which gives a much better diagnostic than a
// generic parse failure later.
var reserved = map[string]string{
	"while":     "while loops are not supported, use for",
	"do":        "do/while loops are not supported, use for",
	"switch":    "switch statements are not supported",
	"case":      "switch statements are not supported",
	"default":   "switch statements are not supported",
	"struct":    "struct types are not supported",
	"uniform":   "uniform declarations are implicit; remove the declaration",
	"varying":   "varying declarations are not supported",
	"attribute": "attribute declarations are not supported",
	"discard":   "discard is not supported in an image pass",
	"uint":      "unsigned integer types are not supported",
	"ivec2":     "integer vector types are not supported",
	"ivec3":     "integer vector types are not supported",
	"ivec4":     "integer vector types are not supported",
	"uvec2":     "unsigned vector types are not supported",
	"uvec3":     "unsigned vector types are not supported",
	"uvec4":     "unsigned vector types are not supported",
	"bvec2":     "boolean vector types are not supported",
	"bvec3":     "boolean vector types are not supported",
	"bvec4":     "boolean vector types are not supported",
	"sampler3D": "volume samplers are not supported",
	"samplerCube": "cubemap samplers are not supported",
}

func (k TokenKind) String() string {
	if s, ok := tokenKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("token(%d)", k)
}

var tokenKindNames = map[TokenKind]string{
	TokEOF: "end of source", TokIdent: "identifier", TokIntLit: "integer literal",
	TokFloatLit: "float literal", TokConst: "'const'", TokIf: "'if'", TokElse: "'else'",
	TokFor: "'for'", TokReturn: "'return'", TokBreak: "'break'", TokContinue: "'continue'",
	TokIn: "'in'", TokOut: "'out'", TokInout: "'inout'", TokTrue: "'true'", TokFalse: "'false'",
	TokType: "type name", TokLParen: "'('", TokRParen: "')'", TokLBrace: "'{'", TokRBrace: "'}'",
	TokLBracket: "'['", TokRBracket: "']'", TokComma: "','", TokSemi: "';'", TokDot: "'.'",
	TokQuestion: "'?'", TokColon: "':'", TokAssign: "'='", TokAddAssign: "'+='",
	TokSubAssign: "'-='", TokMulAssign: "'*='", TokDivAssign: "'/='", TokAdd: "'+'",
	TokSub: "'-'", TokMul: "'*'", TokDiv: "'/'", TokMod: "'%'", TokInc: "'++'", TokDec: "'--'",
	TokEq: "'=='", TokNeq: "'!='", TokLt: "'<'", TokGt: "'>'", TokLeq: "'<='", TokGeq: "'>='",
	TokAndAnd: "'&&'", TokOrOr: "'||'", TokNot: "'!'",
}
