package inputs

// Uniforms holds the global shader values that dynamic channels might need.
type Uniforms struct {
	Time  float64
	Frame int32
}

// IChannel defines the contract for any Shadertoy input channel
// (iChannel0-3). Channels are sampled on the CPU: Sample must be safe to
// call from multiple render workers at once, and Update is called once per
// frame before any sampling starts.
type IChannel interface {
	// GetCType returns the ctype of the input.
	GetCType() string

	// Update is called once per frame, passing in the global uniforms.
	Update(uniforms *Uniforms)

	// Sample evaluates the channel at texture coordinate (u, v), u and v
	// in [0,1] with wrap behavior owned by the channel. Components are
	// normalized to [0,1].
	Sample(u, v float64) [4]float64

	// ChannelRes returns the resolution of the input channel as a vec3.
	ChannelRes() [3]float32

	// Destroy releases any resources held by the channel.
	Destroy()
}
