package eval

import (
	shader "github.com/richinsley/shadertoyarcana/shader"
)

// Value is one runtime value. Scalars and vectors live in X (bool as 0/1,
// int as an exact int32 stored in a float64); matrices carry their
// column-major elements in M. Samplers store the channel index in X[0].
type Value struct {
	T shader.Type
	X [4]float64
	M []float64
}

func Float(v float64) Value { return Value{T: shader.TFloat, X: [4]float64{v}} }

func Int(v int32) Value { return Value{T: shader.TInt, X: [4]float64{float64(v)}} }

func Bool(b bool) Value {
	if b {
		return Value{T: shader.TBool, X: [4]float64{1}}
	}
	return Value{T: shader.TBool}
}

func Vec2(x, y float64) Value { return Value{T: shader.TVec2, X: [4]float64{x, y}} }

func Vec3(x, y, z float64) Value { return Value{T: shader.TVec3, X: [4]float64{x, y, z}} }

func Vec4(x, y, z, w float64) Value { return Value{T: shader.TVec4, X: [4]float64{x, y, z, w}} }

func (v Value) isTrue() bool { return v.X[0] != 0 }

func (v Value) asInt() int32 { return int32(v.X[0]) }

// comps returns the scalar component count for scalar/vector values.
func (v Value) comps() int { return shader.Components(v.T) }

// splat builds a vector of type t with every component set to s.
func splat(t shader.Type, s float64) Value {
	v := Value{T: t}
	for i := 0; i < shader.Components(t); i++ {
		v.X[i] = s
	}
	return v
}

// zeroValue is the implicit initializer for declarations without one.
func zeroValue(t shader.Type) Value {
	if shader.IsMatrix(t) {
		d := shader.MatDim(t)
		return Value{T: t, M: make([]float64, d*d)}
	}
	return Value{T: t}
}

// matVal allocates a matrix value of dimension d.
func matVal(t shader.Type) Value {
	d := shader.MatDim(t)
	return Value{T: t, M: make([]float64, d*d)}
}

// column extracts column i of a matrix as a vector.
func column(m Value, i int) Value {
	d := shader.MatDim(m.T)
	out := Value{T: shader.VecType(d)}
	for r := 0; r < d; r++ {
		out.X[r] = m.M[i*d+r]
	}
	return out
}

// setColumn writes vector v into column i of matrix m, returning a copy so
// stored matrices never alias.
func setColumn(m Value, i int, v Value) Value {
	d := shader.MatDim(m.T)
	out := Value{T: m.T, M: append([]float64(nil), m.M...)}
	for r := 0; r < d; r++ {
		out.M[i*d+r] = v.X[r]
	}
	return out
}

// mapComp applies f to every component of a float/vector value.
func mapComp(v Value, f func(float64) float64) Value {
	out := Value{T: v.T}
	for i := 0; i < v.comps(); i++ {
		out.X[i] = f(v.X[i])
	}
	return out
}

// zipComp applies f componentwise across a and b, which share a type, or
// where one side is a scalar broadcast over the other.
func zipComp(a, b Value, f func(x, y float64) float64) Value {
	if a.T == shader.TFloat && b.T != shader.TFloat {
		a = splat(b.T, a.X[0])
	}
	if b.T == shader.TFloat && a.T != shader.TFloat {
		b = splat(a.T, b.X[0])
	}
	out := Value{T: a.T}
	for i := 0; i < a.comps(); i++ {
		out.X[i] = f(a.X[i], b.X[i])
	}
	return out
}
