package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inputs "github.com/richinsley/shadertoyarcana/inputs"
	shader "github.com/richinsley/shadertoyarcana/shader"
)

func compileSrc(t *testing.T, src string) *shader.Program {
	t.Helper()
	prog, err := shader.Compile(src)
	require.NoError(t, err)
	return prog
}

func renderSrc(t *testing.T, src string, width, height int, u Uniforms) ([]byte, *Diag) {
	t.Helper()
	u.Resolution = [3]float64{float64(width), float64(height), 1}
	pix, diag, err := Render(compileSrc(t, src), width, height, u, [4]inputs.IChannel{})
	require.NoError(t, err)
	require.Len(t, pix, width*height*4)
	return pix, diag
}

func TestRenderSolidRed(t *testing.T) {
	pix, diag := renderSrc(t, `
void mainImage(out vec4 fragColor, in vec2 fragCoord) {
    fragColor = vec4(1.0, 0.0, 0.0, 1.0);
}
`, 4, 4, Uniforms{})

	assert.Zero(t, diag.Faults())
	for i := 0; i < len(pix); i += 4 {
		assert.Equal(t, byte(255), pix[i+0])
		assert.Equal(t, byte(0), pix[i+1])
		assert.Equal(t, byte(0), pix[i+2])
		assert.Equal(t, byte(255), pix[i+3])
	}
}

func TestRenderOrientation(t *testing.T) {
	// Red encodes the fragment's y. Row 0 of the buffer is the top
	// scanline, which evaluates at the largest y.
	pix, _ := renderSrc(t, `
void mainImage(out vec4 fragColor, in vec2 fragCoord) {
    fragColor = vec4(fragCoord.y / iResolution.y, 0.0, 0.0, 1.0);
}
`, 4, 4, Uniforms{})

	topRed := pix[0]
	bottomRed := pix[3*4*4]
	assert.Greater(t, topRed, bottomRed)
	// Pixel centers: top row samples y=3.5, bottom row y=0.5.
	assert.Equal(t, quantize(3.5/4.0), topRed)
	assert.Equal(t, quantize(0.5/4.0), bottomRed)
}

func TestRenderClampsAboveOne(t *testing.T) {
	pix, _ := renderSrc(t, `
void mainImage(out vec4 fragColor, in vec2 fragCoord) {
    fragColor = vec4(2.0, -3.0, 0.5, 1.0);
}
`, 2, 2, Uniforms{})

	assert.Equal(t, byte(255), pix[0])
	assert.Equal(t, byte(0), pix[1])
	assert.Equal(t, byte(128), pix[2])
}

func TestRenderNaNGoesBlack(t *testing.T) {
	pix, diag := renderSrc(t, `
void mainImage(out vec4 fragColor, in vec2 fragCoord) {
    fragColor = vec4(sqrt(-1.0), 1.0 / 0.0, 0.5, 1.0);
}
`, 1, 1, Uniforms{})

	// NaN and Inf are data, not faults: the pixel quantizes to black
	// components rather than the sentinel.
	assert.Zero(t, diag.Faults())
	assert.Equal(t, byte(0), pix[0])
	assert.Equal(t, byte(0), pix[1])
	assert.Equal(t, byte(128), pix[2])
}

func TestRenderLoopBudgetFaults(t *testing.T) {
	pix, diag := renderSrc(t, `
void mainImage(out vec4 fragColor, in vec2 fragCoord) {
    float acc = 0.0;
    for (int i = 0; i < 100000; i++) { acc += 1.0; }
    fragColor = vec4(acc);
}
`, 2, 2, Uniforms{})

	assert.Equal(t, 4, diag.Faults())
	assert.NotEmpty(t, diag.First())
	for i := 0; i < len(pix); i += 4 {
		assert.Equal(t, byte(0xFF), pix[i+0])
		assert.Equal(t, byte(0x00), pix[i+1])
		assert.Equal(t, byte(0xFF), pix[i+2])
		assert.Equal(t, byte(0xFF), pix[i+3])
	}
}

func TestRenderIntDivisionByZeroFaults(t *testing.T) {
	pix, diag := renderSrc(t, `
void mainImage(out vec4 fragColor, in vec2 fragCoord) {
    int z = 0;
    int x = 1 / z;
    fragColor = vec4(float(x));
}
`, 1, 1, Uniforms{})

	assert.Equal(t, 1, diag.Faults())
	assert.Equal(t, byte(0xFF), pix[0])
	assert.Equal(t, byte(0x00), pix[1])
	assert.Equal(t, byte(0xFF), pix[2])
}

func TestRenderFaultDoesNotPoisonNeighbors(t *testing.T) {
	// Only the left column divides by zero; the rest of the frame must
	// still render normally.
	pix, diag := renderSrc(t, `
void mainImage(out vec4 fragColor, in vec2 fragCoord) {
    if (fragCoord.x < 1.0) {
        int z = 0;
        fragColor = vec4(float(1 / z));
    } else {
        fragColor = vec4(0.0, 1.0, 0.0, 1.0);
    }
}
`, 2, 1, Uniforms{})

	assert.Equal(t, 1, diag.Faults())
	assert.Equal(t, byte(0xFF), pix[0]) // sentinel
	assert.Equal(t, byte(0), pix[4])    // healthy green pixel
	assert.Equal(t, byte(255), pix[5])
}

func TestRenderDeterministic(t *testing.T) {
	src := `
void mainImage(out vec4 fragColor, in vec2 fragCoord) {
    vec2 uv = fragCoord / iResolution.xy;
    float v = sin(uv.x * 40.0 + iTime) * cos(uv.y * 17.0);
    fragColor = vec4(abs(v), fract(v * 9.0), smoothstep(0.2, 0.8, uv.x), 1.0);
}
`
	u := Uniforms{Time: 1.25}
	a, _ := renderSrc(t, src, 16, 16, u)
	b, _ := renderSrc(t, src, 16, 16, u)
	assert.Equal(t, a, b)
}

func TestRenderUniforms(t *testing.T) {
	pix, _ := renderSrc(t, `
void mainImage(out vec4 fragColor, in vec2 fragCoord) {
    fragColor = vec4(iTime / 4.0, float(iFrame) / 255.0, iMouse.x / 255.0, 1.0);
}
`, 1, 1, Uniforms{Time: 2, Frame: 7, Mouse: [4]float64{9, 0, 0, 0}})

	assert.Equal(t, byte(128), pix[0])
	assert.Equal(t, byte(7), pix[1])
	assert.Equal(t, byte(9), pix[2])
}

func TestRenderNilChannelSamplesBlack(t *testing.T) {
	pix, _ := renderSrc(t, `
void mainImage(out vec4 fragColor, in vec2 fragCoord) {
    fragColor = texture(iChannel0, vec2(0.5, 0.5));
}
`, 1, 1, Uniforms{})

	assert.Equal(t, []byte{0, 0, 0, 255}, pix[:4])
}

func TestRenderOutParamCopyBack(t *testing.T) {
	pix, _ := renderSrc(t, `
void split(in float v, out float lo, inout float hi) {
    lo = v * 0.25;
    hi += v;
}
void mainImage(out vec4 fragColor, in vec2 fragCoord) {
    float lo = 9.0;
    float hi = 0.25;
    split(1.0, lo, hi);
    fragColor = vec4(lo, hi / 2.5, 0.0, 1.0);
}
`, 1, 1, Uniforms{})

	assert.Equal(t, quantize(0.25), pix[0])
	assert.Equal(t, quantize(0.5), pix[1])
}

func TestRenderBuiltins(t *testing.T) {
	pix, _ := renderSrc(t, `
void mainImage(out vec4 fragColor, in vec2 fragCoord) {
    float m = mod(-1.0, 3.0) / 4.0;            // GLSL mod: 2.0 / 4.0
    float mx = mix(0.0, 1.0, 0.25);
    float st = step(0.5, 0.75);
    float ln = length(vec2(3.0, 4.0)) / 10.0;
    fragColor = vec4(m, mx, st * ln, 1.0);
}
`, 1, 1, Uniforms{})

	assert.Equal(t, quantize(0.5), pix[0])
	assert.Equal(t, quantize(0.25), pix[1])
	assert.Equal(t, quantize(0.5), pix[2])
}

func TestRenderSwizzleWriteback(t *testing.T) {
	pix, _ := renderSrc(t, `
void mainImage(out vec4 fragColor, in vec2 fragCoord) {
    vec4 c = vec4(0.0);
    c.zy = vec2(1.0, 0.5);
    c.w = 1.0;
    fragColor = c;
}
`, 1, 1, Uniforms{})

	assert.Equal(t, byte(0), pix[0])
	assert.Equal(t, byte(128), pix[1])
	assert.Equal(t, byte(255), pix[2])
	assert.Equal(t, byte(255), pix[3])
}

func TestRenderWorkerOverride(t *testing.T) {
	old := Workers()
	defer SetWorkers(old)
	SetWorkers(2)

	src := `
void mainImage(out vec4 fragColor, in vec2 fragCoord) {
    fragColor = vec4(fragCoord.x / iResolution.x, 0.0, 0.0, 1.0);
}
`
	a, _ := renderSrc(t, src, 33, 17, Uniforms{})
	SetWorkers(old)
	b, _ := renderSrc(t, src, 33, 17, Uniforms{})
	assert.Equal(t, a, b)
}

func TestRenderInvalidSize(t *testing.T) {
	prog := compileSrc(t, `void mainImage(out vec4 fragColor, in vec2 fragCoord) { fragColor = vec4(0.0); }`)
	_, _, err := Render(prog, 0, 4, Uniforms{}, [4]inputs.IChannel{})
	assert.Error(t, err)
}
