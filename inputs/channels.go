package inputs

import (
	"fmt"

	arcana "github.com/richinsley/shadertoyarcana"
	api "github.com/richinsley/shadertoyarcana/api"
	audio "github.com/richinsley/shadertoyarcana/audio"
	options "github.com/richinsley/shadertoyarcana/options"
)

const defaultSampleRate = 44100

// GetChannels builds the four input channels from the processed shader
// description. Unsupported channel types fail provisioning; a missing
// slot stays nil and samples as black.
func GetChannels(chans []*api.ShadertoyChannel, opts *options.Options) ([4]IChannel, error) {
	var out [4]IChannel
	for i, ch := range chans {
		if ch == nil {
			continue
		}
		switch ch.CType {
		case "texture":
			tc, err := NewTextureChannel(i, ch.Data, ch.Sampler)
			if err != nil {
				destroyAll(out)
				return out, fmt.Errorf("channel %d: %w", i, err)
			}
			out[i] = tc
		case "mic", "music", "musicstream":
			out[i] = NewAudioChannel(ch.CType, newAudioSource(opts))
		default:
			destroyAll(out)
			return out, fmt.Errorf("channel %d: %w: input type %q", i, api.ErrUnsupportedShader, ch.CType)
		}
	}
	return out, nil
}

// newAudioSource picks the configured audio input: a WAV file for
// deterministic offline renders, the microphone for live preview, silence
// otherwise. Failures fall back to silence the way the site's mic input
// goes silent without permission.
func newAudioSource(opts *options.Options) audio.Source {
	if opts != nil && opts.AudioInputFile != "" {
		src, err := audio.OpenWavFile(opts.AudioInputFile)
		if err == nil {
			return src
		}
		arcana.Logger().Warn("audio input file unavailable, using silence",
			"path", opts.AudioInputFile, "err", err)
	}
	if opts != nil && opts.UseMicrophone {
		src, err := audio.NewMicrophone(defaultSampleRate)
		if err == nil {
			return src
		}
		arcana.Logger().Warn("microphone unavailable, using silence", "err", err)
	}
	return audio.NewNullSource(defaultSampleRate)
}

// UpdateAll runs the per-frame update on every non-nil channel.
func UpdateAll(chans [4]IChannel, uniforms *Uniforms) {
	for _, ch := range chans {
		if ch != nil {
			ch.Update(uniforms)
		}
	}
}

func destroyAll(chans [4]IChannel) {
	for _, ch := range chans {
		if ch != nil {
			ch.Destroy()
		}
	}
}
