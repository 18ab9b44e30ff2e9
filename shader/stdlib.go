package shader

// BuiltinID identifies one intrinsic function. The evaluator dispatches on
// it directly.
type BuiltinID uint8

const (
	BRadians BuiltinID = iota
	BDegrees
	BSin
	BCos
	BTan
	BAsin
	BAcos
	BAtan  // one or two arguments
	BSinh
	BCosh
	BTanh
	BPow
	BExp
	BLog
	BExp2
	BLog2
	BSqrt
	BInversesqrt
	BAbs
	BSign
	BFloor
	BCeil
	BFract
	BTrunc
	BRound
	BMod
	BMin
	BMax
	BClamp
	BMix
	BStep
	BSmoothstep
	BLength
	BDistance
	BDot
	BCross
	BNormalize
	BReflect
	BRefract
	BFaceforward
	BDFdx
	BDFdy
	BFwidth
	BTexture
	BTextureLod
	NumBuiltins
)

// uniformSymbols are the identifiers every compilation unit sees without
// declaring them, matching the preamble the Shadertoy site (and the GL
// pipeline this replaces) provides.
var uniformSymbols = map[string]struct {
	Slot int
	Type Type
}{
	"iResolution":        {UniformResolution, TVec3},
	"iTime":              {UniformTime, TFloat},
	"iTimeDelta":         {UniformTimeDelta, TFloat},
	"iFrameRate":         {UniformFrameRate, TFloat},
	"iFrame":             {UniformFrame, TInt},
	"iMouse":             {UniformMouse, TVec4},
	"iDate":              {UniformDate, TVec4},
	"iSampleRate":        {UniformSampleRate, TFloat},
	"iChannelTime":       {UniformChannelTime, TFloatArr4},
	"iChannelResolution": {UniformChannelResolution, TVec3Arr4},
}

// channelSymbols maps the four sampler uniforms to channel indices.
var channelSymbols = map[string]int{
	"iChannel0": 0,
	"iChannel1": 1,
	"iChannel2": 2,
	"iChannel3": 3,
}

// builtinSig reports the result type of a builtin applied to arg types, or
// false when no overload matches. Integer arguments are widened to float
// before matching, so signatures only deal in the genType family.
type builtinSig func(args []Type) (Type, bool)

type builtinDef struct {
	ID  BuiltinID
	Sig builtinSig
}

// sameGen matches n arguments of one shared genType.
func sameGen(n int) builtinSig {
	return func(args []Type) (Type, bool) {
		if len(args) != n || !IsGen(args[0]) {
			return TInvalid, false
		}
		for _, a := range args[1:] {
			if a != args[0] {
				return TInvalid, false
			}
		}
		return args[0], true
	}
}

// genAndScalar matches f(gen, gen) and f(gen, float).
func genAndScalar(args []Type) (Type, bool) {
	if len(args) != 2 || !IsGen(args[0]) {
		return TInvalid, false
	}
	if args[1] == args[0] || args[1] == TFloat {
		return args[0], true
	}
	return TInvalid, false
}

func anyOf(sigs ...builtinSig) builtinSig {
	return func(args []Type) (Type, bool) {
		for _, s := range sigs {
			if t, ok := s(args); ok {
				return t, true
			}
		}
		return TInvalid, false
	}
}

var builtinTable = map[string]builtinDef{
	"radians":     {BRadians, sameGen(1)},
	"degrees":     {BDegrees, sameGen(1)},
	"sin":         {BSin, sameGen(1)},
	"cos":         {BCos, sameGen(1)},
	"tan":         {BTan, sameGen(1)},
	"asin":        {BAsin, sameGen(1)},
	"acos":        {BAcos, sameGen(1)},
	"atan":        {BAtan, anyOf(sameGen(1), sameGen(2))},
	"sinh":        {BSinh, sameGen(1)},
	"cosh":        {BCosh, sameGen(1)},
	"tanh":        {BTanh, sameGen(1)},
	"pow":         {BPow, sameGen(2)},
	"exp":         {BExp, sameGen(1)},
	"log":         {BLog, sameGen(1)},
	"exp2":        {BExp2, sameGen(1)},
	"log2":        {BLog2, sameGen(1)},
	"sqrt":        {BSqrt, sameGen(1)},
	"inversesqrt": {BInversesqrt, sameGen(1)},
	"abs":         {BAbs, sameGen(1)},
	"sign":        {BSign, sameGen(1)},
	"floor":       {BFloor, sameGen(1)},
	"ceil":        {BCeil, sameGen(1)},
	"fract":       {BFract, sameGen(1)},
	"trunc":       {BTrunc, sameGen(1)},
	"round":       {BRound, sameGen(1)},
	"mod":         {BMod, genAndScalar},
	"min":         {BMin, genAndScalar},
	"max":         {BMax, genAndScalar},
	"clamp": {BClamp, func(args []Type) (Type, bool) {
		if len(args) != 3 || !IsGen(args[0]) {
			return TInvalid, false
		}
		if args[1] == args[0] && args[2] == args[0] {
			return args[0], true
		}
		if args[1] == TFloat && args[2] == TFloat {
			return args[0], true
		}
		return TInvalid, false
	}},
	"mix": {BMix, func(args []Type) (Type, bool) {
		if len(args) != 3 || !IsGen(args[0]) || args[1] != args[0] {
			return TInvalid, false
		}
		if args[2] == args[0] || args[2] == TFloat {
			return args[0], true
		}
		return TInvalid, false
	}},
	"step": {BStep, func(args []Type) (Type, bool) {
		if len(args) != 2 || !IsGen(args[1]) {
			return TInvalid, false
		}
		if args[0] == args[1] || args[0] == TFloat {
			return args[1], true
		}
		return TInvalid, false
	}},
	"smoothstep": {BSmoothstep, func(args []Type) (Type, bool) {
		if len(args) != 3 || !IsGen(args[2]) {
			return TInvalid, false
		}
		if (args[0] == args[2] && args[1] == args[2]) || (args[0] == TFloat && args[1] == TFloat) {
			return args[2], true
		}
		return TInvalid, false
	}},
	"length": {BLength, func(args []Type) (Type, bool) {
		if len(args) == 1 && IsGen(args[0]) {
			return TFloat, true
		}
		return TInvalid, false
	}},
	"distance": {BDistance, func(args []Type) (Type, bool) {
		if len(args) == 2 && IsGen(args[0]) && args[1] == args[0] {
			return TFloat, true
		}
		return TInvalid, false
	}},
	"dot": {BDot, func(args []Type) (Type, bool) {
		if len(args) == 2 && IsGen(args[0]) && args[1] == args[0] {
			return TFloat, true
		}
		return TInvalid, false
	}},
	"cross": {BCross, func(args []Type) (Type, bool) {
		if len(args) == 2 && args[0] == TVec3 && args[1] == TVec3 {
			return TVec3, true
		}
		return TInvalid, false
	}},
	"normalize":   {BNormalize, sameGen(1)},
	"reflect":     {BReflect, sameGen(2)},
	"refract": {BRefract, func(args []Type) (Type, bool) {
		if len(args) == 3 && IsGen(args[0]) && args[1] == args[0] && args[2] == TFloat {
			return args[0], true
		}
		return TInvalid, false
	}},
	"faceforward": {BFaceforward, sameGen(3)},
	// This evaluator has no 2x2 pixel quads, so derivatives are a flat
	// surface: dFdx/dFdy/fwidth all return zero.
	"dFdx":   {BDFdx, sameGen(1)},
	"dFdy":   {BDFdy, sameGen(1)},
	"fwidth": {BFwidth, sameGen(1)},
	"texture": {BTexture, func(args []Type) (Type, bool) {
		if len(args) == 2 && args[0] == TSampler2D && args[1] == TVec2 {
			return TVec4, true
		}
		// the optional bias argument is accepted and ignored
		if len(args) == 3 && args[0] == TSampler2D && args[1] == TVec2 && args[2] == TFloat {
			return TVec4, true
		}
		return TInvalid, false
	}},
	"textureLod": {BTextureLod, func(args []Type) (Type, bool) {
		if len(args) == 3 && args[0] == TSampler2D && args[1] == TVec2 && args[2] == TFloat {
			return TVec4, true
		}
		return TInvalid, false
	}},
}
