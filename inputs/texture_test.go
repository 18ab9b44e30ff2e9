package inputs

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	api "github.com/richinsley/shadertoyarcana/api"
)

// checker2x2 has a red top-left, green top-right, blue bottom-left, white
// bottom-right.
func checker2x2() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	img.Set(1, 0, color.RGBA{0, 255, 0, 255})
	img.Set(0, 1, color.RGBA{0, 0, 255, 255})
	img.Set(1, 1, color.RGBA{255, 255, 255, 255})
	return img
}

func TestTextureNearestSampling(t *testing.T) {
	ch, err := NewTextureChannel(0, checker2x2(), api.Sampler{Filter: "nearest", Wrap: "clamp"})
	require.NoError(t, err)

	assert.Equal(t, [4]float64{1, 0, 0, 1}, ch.Sample(0.25, 0.25))
	assert.Equal(t, [4]float64{0, 1, 0, 1}, ch.Sample(0.75, 0.25))
	assert.Equal(t, [4]float64{0, 0, 1, 1}, ch.Sample(0.25, 0.75))
	assert.Equal(t, [4]float64{1, 1, 1, 1}, ch.Sample(0.75, 0.75))
}

func TestTextureBilinearAtCenters(t *testing.T) {
	ch, err := NewTextureChannel(0, checker2x2(), api.Sampler{Filter: "linear", Wrap: "clamp"})
	require.NoError(t, err)

	// Sampling exactly at a texel center returns that texel untouched.
	assert.Equal(t, [4]float64{1, 0, 0, 1}, ch.Sample(0.25, 0.25))

	// Halfway between the two top texels blends them evenly.
	mid := ch.Sample(0.5, 0.25)
	assert.InDelta(t, 0.5, mid[0], 1e-9)
	assert.InDelta(t, 0.5, mid[1], 1e-9)
	assert.InDelta(t, 0.0, mid[2], 1e-9)
}

func TestTextureWrapRepeat(t *testing.T) {
	ch, err := NewTextureChannel(0, checker2x2(), api.Sampler{Filter: "nearest", Wrap: "repeat"})
	require.NoError(t, err)

	// One full period to the right lands on the same texel.
	assert.Equal(t, ch.Sample(0.25, 0.25), ch.Sample(1.25, 0.25))
	assert.Equal(t, ch.Sample(0.25, 0.25), ch.Sample(-0.75, 0.25))
}

func TestTextureWrapClamp(t *testing.T) {
	ch, err := NewTextureChannel(0, checker2x2(), api.Sampler{Filter: "nearest", Wrap: "clamp"})
	require.NoError(t, err)

	assert.Equal(t, ch.Sample(0.75, 0.25), ch.Sample(5.0, 0.25))
	assert.Equal(t, ch.Sample(0.25, 0.25), ch.Sample(-5.0, 0.25))
}

func TestTextureVFlip(t *testing.T) {
	plain, err := NewTextureChannel(0, checker2x2(), api.Sampler{Filter: "nearest", Wrap: "clamp"})
	require.NoError(t, err)
	flipped, err := NewTextureChannel(0, checker2x2(), api.Sampler{Filter: "nearest", Wrap: "clamp", VFlip: "true"})
	require.NoError(t, err)

	assert.Equal(t, plain.Sample(0.25, 0.25), flipped.Sample(0.25, 0.75))
	assert.Equal(t, plain.Sample(0.75, 0.75), flipped.Sample(0.75, 0.25))
}

func TestTextureNilImage(t *testing.T) {
	_, err := NewTextureChannel(0, nil, api.Sampler{})
	assert.Error(t, err)
}

func TestTextureChannelRes(t *testing.T) {
	ch, err := NewTextureChannel(0, image.NewRGBA(image.Rect(0, 0, 7, 3)), api.Sampler{})
	require.NoError(t, err)
	assert.Equal(t, [3]float32{7, 3, 1}, ch.ChannelRes())
}

func TestNullChannel(t *testing.T) {
	var ch NullChannel
	assert.Equal(t, [4]float64{0, 0, 0, 1}, ch.Sample(0.3, 0.9))
}
