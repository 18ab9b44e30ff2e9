package inputs

import (
	"fmt"
	"image"
	"image/draw"
	"math"

	api "github.com/richinsley/shadertoyarcana/api"
)

// TextureChannel is a static image input sampled with the channel's wrap
// and filter settings.
type TextureChannel struct {
	index  int
	ctype  string
	pix    []uint8
	width  int
	height int
	wrap   string
	filter string
}

// vflip vertically flips the provided RGBA image. Shadertoy's vflip flag
// requests the GL texture orientation.
func vflip(src *image.RGBA) *image.RGBA {
	bounds := src.Bounds()
	flipped := image.NewRGBA(bounds)
	height := bounds.Dy()

	rowSize := bounds.Dx() * 4
	for y := 0; y < height; y++ {
		srcRow := src.Pix[((height-1)-y)*src.Stride:]
		dstRow := flipped.Pix[y*flipped.Stride:]
		copy(dstRow, srcRow[:rowSize])
	}
	return flipped
}

// NewTextureChannel builds a CPU-sampled texture from an image.
func NewTextureChannel(index int, img image.Image, sampler api.Sampler) (*TextureChannel, error) {
	if img == nil {
		return nil, fmt.Errorf("input image for channel %d is nil", index)
	}

	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, image.Point{}, draw.Src)
	if sampler.VFlip == "true" {
		rgba = vflip(rgba)
	}

	return &TextureChannel{
		index:  index,
		ctype:  "texture",
		pix:    rgba.Pix,
		width:  rgba.Rect.Dx(),
		height: rgba.Rect.Dy(),
		wrap:   sampler.Wrap,
		filter: sampler.Filter,
	}, nil
}

// wrapCoord folds a texel index into [0, n) per the channel's wrap mode.
// Shadertoy's default is repeat.
func (c *TextureChannel) wrapCoord(i, n int) int {
	if c.wrap == "clamp" {
		if i < 0 {
			return 0
		}
		if i >= n {
			return n - 1
		}
		return i
	}
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

func (c *TextureChannel) texel(x, y int) [4]float64 {
	x = c.wrapCoord(x, c.width)
	y = c.wrapCoord(y, c.height)
	o := (y*c.width + x) * 4
	return [4]float64{
		float64(c.pix[o+0]) / 255,
		float64(c.pix[o+1]) / 255,
		float64(c.pix[o+2]) / 255,
		float64(c.pix[o+3]) / 255,
	}
}

// Sample reads the texture at (u, v). The mipmap filter degrades to
// bilinear: there is only one level on the CPU path.
func (c *TextureChannel) Sample(u, v float64) [4]float64 {
	if c.filter == "nearest" {
		return c.texel(int(math.Floor(u*float64(c.width))), int(math.Floor(v*float64(c.height))))
	}

	fx := u*float64(c.width) - 0.5
	fy := v*float64(c.height) - 0.5
	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	t00 := c.texel(x0, y0)
	t10 := c.texel(x0+1, y0)
	t01 := c.texel(x0, y0+1)
	t11 := c.texel(x0+1, y0+1)

	var out [4]float64
	for i := 0; i < 4; i++ {
		top := t00[i]*(1-tx) + t10[i]*tx
		bot := t01[i]*(1-tx) + t11[i]*tx
		out[i] = top*(1-ty) + bot*ty
	}
	return out
}

// --- IChannel interface implementation ---

func (c *TextureChannel) GetCType() string { return c.ctype }

func (c *TextureChannel) Update(uniforms *Uniforms) {
	// No-op for static images.
}

func (c *TextureChannel) ChannelRes() [3]float32 {
	return [3]float32{float32(c.width), float32(c.height), 1}
}

func (c *TextureChannel) Destroy() {}
