package eval

import (
	"math"

	shader "github.com/richinsley/shadertoyarcana/shader"
)

func (e *exec) evalBuiltin(frame []Value, x *shader.Call) Value {
	args := make([]Value, len(x.Args))
	for i, a := range x.Args {
		args[i] = e.evalExpr(frame, a)
	}

	switch x.Builtin {
	case shader.BRadians:
		return mapComp(args[0], func(v float64) float64 { return v * math.Pi / 180 })
	case shader.BDegrees:
		return mapComp(args[0], func(v float64) float64 { return v * 180 / math.Pi })
	case shader.BSin:
		return mapComp(args[0], math.Sin)
	case shader.BCos:
		return mapComp(args[0], math.Cos)
	case shader.BTan:
		return mapComp(args[0], math.Tan)
	case shader.BAsin:
		return mapComp(args[0], math.Asin)
	case shader.BAcos:
		return mapComp(args[0], math.Acos)
	case shader.BAtan:
		if len(args) == 2 {
			return zipComp(args[0], args[1], math.Atan2)
		}
		return mapComp(args[0], math.Atan)
	case shader.BSinh:
		return mapComp(args[0], math.Sinh)
	case shader.BCosh:
		return mapComp(args[0], math.Cosh)
	case shader.BTanh:
		return mapComp(args[0], math.Tanh)
	case shader.BPow:
		return zipComp(args[0], args[1], math.Pow)
	case shader.BExp:
		return mapComp(args[0], math.Exp)
	case shader.BLog:
		return mapComp(args[0], math.Log)
	case shader.BExp2:
		return mapComp(args[0], math.Exp2)
	case shader.BLog2:
		return mapComp(args[0], math.Log2)
	case shader.BSqrt:
		return mapComp(args[0], math.Sqrt)
	case shader.BInversesqrt:
		return mapComp(args[0], func(v float64) float64 { return 1 / math.Sqrt(v) })
	case shader.BAbs:
		return mapComp(args[0], math.Abs)
	case shader.BSign:
		return mapComp(args[0], func(v float64) float64 {
			switch {
			case v > 0:
				return 1
			case v < 0:
				return -1
			}
			return 0
		})
	case shader.BFloor:
		return mapComp(args[0], math.Floor)
	case shader.BCeil:
		return mapComp(args[0], math.Ceil)
	case shader.BFract:
		return mapComp(args[0], func(v float64) float64 { return v - math.Floor(v) })
	case shader.BTrunc:
		return mapComp(args[0], math.Trunc)
	case shader.BRound:
		return mapComp(args[0], math.Round)
	case shader.BMod:
		return zipComp(args[0], args[1], func(a, b float64) float64 { return a - b*math.Floor(a/b) })
	case shader.BMin:
		return zipComp(args[0], args[1], math.Min)
	case shader.BMax:
		return zipComp(args[0], args[1], math.Max)
	case shader.BClamp:
		lo := zipComp(args[0], args[1], math.Max)
		return zipComp(lo, args[2], math.Min)
	case shader.BMix:
		t := args[2]
		if t.T == shader.TFloat && args[0].T != shader.TFloat {
			t = splat(args[0].T, t.X[0])
		}
		out := Value{T: args[0].T}
		for i := 0; i < args[0].comps(); i++ {
			out.X[i] = args[0].X[i]*(1-t.X[i]) + args[1].X[i]*t.X[i]
		}
		return out
	case shader.BStep:
		edge := args[0]
		if edge.T == shader.TFloat && args[1].T != shader.TFloat {
			edge = splat(args[1].T, edge.X[0])
		}
		out := Value{T: args[1].T}
		for i := 0; i < args[1].comps(); i++ {
			if args[1].X[i] < edge.X[i] {
				out.X[i] = 0
			} else {
				out.X[i] = 1
			}
		}
		return out
	case shader.BSmoothstep:
		e0, e1, v := args[0], args[1], args[2]
		if e0.T == shader.TFloat && v.T != shader.TFloat {
			e0 = splat(v.T, e0.X[0])
			e1 = splat(v.T, e1.X[0])
		}
		out := Value{T: v.T}
		for i := 0; i < v.comps(); i++ {
			t := (v.X[i] - e0.X[i]) / (e1.X[i] - e0.X[i])
			t = math.Min(math.Max(t, 0), 1)
			out.X[i] = t * t * (3 - 2*t)
		}
		return out
	case shader.BLength:
		return Float(vecLength(args[0]))
	case shader.BDistance:
		d := zipComp(args[0], args[1], func(a, b float64) float64 { return a - b })
		return Float(vecLength(d))
	case shader.BDot:
		return Float(dot(args[0], args[1]))
	case shader.BCross:
		a, b := args[0], args[1]
		return Vec3(
			a.X[1]*b.X[2]-a.X[2]*b.X[1],
			a.X[2]*b.X[0]-a.X[0]*b.X[2],
			a.X[0]*b.X[1]-a.X[1]*b.X[0],
		)
	case shader.BNormalize:
		l := vecLength(args[0])
		return mapComp(args[0], func(v float64) float64 { return v / l })
	case shader.BReflect:
		i, n := args[0], args[1]
		k := 2 * dot(n, i)
		out := Value{T: i.T}
		for c := 0; c < i.comps(); c++ {
			out.X[c] = i.X[c] - k*n.X[c]
		}
		return out
	case shader.BRefract:
		i, n, eta := args[0], args[1], args[2].X[0]
		d := dot(n, i)
		k := 1 - eta*eta*(1-d*d)
		out := Value{T: i.T}
		if k < 0 {
			return out
		}
		s := eta*d + math.Sqrt(k)
		for c := 0; c < i.comps(); c++ {
			out.X[c] = eta*i.X[c] - s*n.X[c]
		}
		return out
	case shader.BFaceforward:
		n, i, nref := args[0], args[1], args[2]
		if dot(nref, i) < 0 {
			return n
		}
		return mapComp(n, func(v float64) float64 { return -v })
	case shader.BDFdx, shader.BDFdy, shader.BFwidth:
		// no pixel-quad neighborhood exists here; the surface is flat
		return splat(args[0].T, 0)
	case shader.BTexture, shader.BTextureLod:
		uv := args[1]
		return e.sampleChannel(int(args[0].X[0]), uv.X[0], uv.X[1])
	}
	e.fault("internal: unhandled builtin %q", x.Name)
	return Value{}
}

func (e *exec) sampleChannel(idx int, u, v float64) Value {
	ch := e.channels[idx]
	if ch == nil {
		return Vec4(0, 0, 0, 1)
	}
	c := ch.Sample(u, v)
	return Vec4(c[0], c[1], c[2], c[3])
}

func vecLength(v Value) float64 {
	var sum float64
	for i := 0; i < v.comps(); i++ {
		sum += v.X[i] * v.X[i]
	}
	return math.Sqrt(sum)
}

func dot(a, b Value) float64 {
	var sum float64
	for i := 0; i < a.comps(); i++ {
		sum += a.X[i] * b.X[i]
	}
	return sum
}
