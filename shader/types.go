package shader

// Type identifies one of the shading-language types. The two array types at
// the end exist only for the iChannelTime/iChannelResolution uniforms; they
// cannot be declared in user code.
type Type uint8

const (
	TInvalid Type = iota
	TVoid
	TBool
	TInt
	TFloat
	TVec2
	TVec3
	TVec4
	TMat2
	TMat3
	TMat4
	TSampler2D
	TFloatArr4
	TVec3Arr4
)

var typeNames = map[Type]string{
	TInvalid:   "<invalid>",
	TVoid:      "void",
	TBool:      "bool",
	TInt:       "int",
	TFloat:     "float",
	TVec2:      "vec2",
	TVec3:      "vec3",
	TVec4:      "vec4",
	TMat2:      "mat2",
	TMat3:      "mat3",
	TMat4:      "mat4",
	TSampler2D: "sampler2D",
	TFloatArr4: "float[4]",
	TVec3Arr4:  "vec3[4]",
}

func (t Type) String() string { return typeNames[t] }

// IsVector reports whether t is vec2, vec3 or vec4.
func IsVector(t Type) bool { return t >= TVec2 && t <= TVec4 }

// IsMatrix reports whether t is mat2, mat3 or mat4.
func IsMatrix(t Type) bool { return t >= TMat2 && t <= TMat4 }

// IsNumeric reports whether t participates in arithmetic.
func IsNumeric(t Type) bool { return t == TInt || t == TFloat || IsVector(t) || IsMatrix(t) }

// IsGen reports whether t is float or a float vector, the "genType" family
// most builtins are defined over.
func IsGen(t Type) bool { return t == TFloat || IsVector(t) }

// Components returns the number of scalar components of a scalar or vector
// type, or 0 for anything else.
func Components(t Type) int {
	switch t {
	case TBool, TInt, TFloat:
		return 1
	case TVec2:
		return 2
	case TVec3:
		return 3
	case TVec4:
		return 4
	}
	return 0
}

// VecType returns the float vector type with n components; n == 1 yields
// float.
func VecType(n int) Type {
	switch n {
	case 1:
		return TFloat
	case 2:
		return TVec2
	case 3:
		return TVec3
	case 4:
		return TVec4
	}
	return TInvalid
}

// MatDim returns the column/row count of a matrix type, or 0.
func MatDim(t Type) int {
	switch t {
	case TMat2:
		return 2
	case TMat3:
		return 3
	case TMat4:
		return 4
	}
	return 0
}

// MatType returns the square matrix type of dimension n.
func MatType(n int) Type {
	switch n {
	case 2:
		return TMat2
	case 3:
		return TMat3
	case 4:
		return TMat4
	}
	return TInvalid
}

// ElemType returns the element type of the uniform array types, the column
// type of a matrix, or float for a vector.
func ElemType(t Type) Type {
	switch t {
	case TFloatArr4:
		return TFloat
	case TVec3Arr4:
		return TVec3
	case TMat2:
		return TVec2
	case TMat3:
		return TVec3
	case TMat4:
		return TVec4
	case TVec2, TVec3, TVec4:
		return TFloat
	}
	return TInvalid
}
