package inputs

// NullChannel is an opaque black input, used where a shader references a
// channel this build cannot provide.
type NullChannel struct{}

func (NullChannel) GetCType() string            { return "null" }
func (NullChannel) Update(uniforms *Uniforms)   {}
func (NullChannel) Sample(u, v float64) [4]float64 { return [4]float64{0, 0, 0, 1} }
func (NullChannel) ChannelRes() [3]float32      { return [3]float32{1, 1, 1} }
func (NullChannel) Destroy()                    {}
