package shader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreprocessDefine(t *testing.T) {
	_, err := Compile(`
#define SCALE 2.0
#define HALF (SCALE * 0.25)
void mainImage(out vec4 fragColor, in vec2 fragCoord) {
    fragColor = vec4(SCALE, HALF, 0.0, 1.0);
}
`)
	assert.NoError(t, err)
}

func TestPreprocessUndef(t *testing.T) {
	_, err := Compile(`
#define X 1.0
#undef X
void mainImage(out vec4 fragColor, in vec2 fragCoord) {
    fragColor = vec4(X);
}
`)
	require.Error(t, err)
}

func TestPreprocessIfdef(t *testing.T) {
	_, err := Compile(`
#define FANCY
#ifdef FANCY
float tint() { return 0.5; }
#else
this is not glsl and must never be compiled
#endif
void mainImage(out vec4 fragColor, in vec2 fragCoord) {
    fragColor = vec4(tint());
}
`)
	assert.NoError(t, err)
}

func TestPreprocessIfndef(t *testing.T) {
	_, err := Compile(`
#ifndef MISSING
float v() { return 1.0; }
#endif
void mainImage(out vec4 fragColor, in vec2 fragCoord) {
    fragColor = vec4(v());
}
`)
	assert.NoError(t, err)
}

func TestPreprocessUnterminatedConditional(t *testing.T) {
	_, err := Compile(`
#ifdef A
void mainImage(out vec4 fragColor, in vec2 fragCoord) {}
`)
	require.Error(t, err)
}

func TestPreprocessFunctionLikeMacroRejected(t *testing.T) {
	_, err := Compile(`
#define SQR(x) ((x)*(x))
void mainImage(out vec4 fragColor, in vec2 fragCoord) {
    fragColor = vec4(SQR(2.0));
}
`)
	require.Error(t, err)
}

func TestPreprocessVersionDropped(t *testing.T) {
	_, err := Compile(`#version 300 es
void mainImage(out vec4 fragColor, in vec2 fragCoord) {
    fragColor = vec4(0.0);
}
`)
	assert.NoError(t, err)
}

func TestPreprocessCommentsKeepLineNumbers(t *testing.T) {
	// The block comment spans two lines; the error must still land on the
	// line where the bad identifier appears.
	src := "/* a\nb */\nvoid mainImage(out vec4 fragColor, in vec2 fragCoord) {\n    fragColor = nope;\n}\n"
	_, err := Compile(src)
	require.Error(t, err)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 4, ce.Pos.Line)
}
