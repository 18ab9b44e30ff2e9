package inputs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	api "github.com/richinsley/shadertoyarcana/api"
)

func TestGetChannelsEmpty(t *testing.T) {
	chans, err := GetChannels(make([]*api.ShadertoyChannel, 4), nil)
	require.NoError(t, err)
	for _, ch := range chans {
		assert.Nil(t, ch)
	}
}

func TestGetChannelsTexture(t *testing.T) {
	descs := make([]*api.ShadertoyChannel, 4)
	descs[2] = &api.ShadertoyChannel{
		CType:   "texture",
		Channel: 2,
		Data:    checker2x2(),
		Sampler: api.Sampler{Filter: "nearest", Wrap: "repeat"},
	}

	chans, err := GetChannels(descs, nil)
	require.NoError(t, err)
	require.NotNil(t, chans[2])
	assert.Equal(t, "texture", chans[2].GetCType())
	assert.Nil(t, chans[0])
}

func TestGetChannelsMusicDefaultsToSilence(t *testing.T) {
	descs := make([]*api.ShadertoyChannel, 4)
	descs[0] = &api.ShadertoyChannel{CType: "music", Channel: 0}

	chans, err := GetChannels(descs, nil)
	require.NoError(t, err)
	require.NotNil(t, chans[0])
	ac, ok := chans[0].(*AudioChannel)
	require.True(t, ok)
	defer ac.Destroy()

	ac.Update(&Uniforms{Time: 0.25})
	assert.InDelta(t, 0.5, ac.Sample(0.5, 1.0)[0], 1e-9)
}

func TestGetChannelsUnsupportedType(t *testing.T) {
	descs := make([]*api.ShadertoyChannel, 4)
	descs[1] = &api.ShadertoyChannel{CType: "cubemap", Channel: 1}

	_, err := GetChannels(descs, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrUnsupportedShader)
}

func TestGetChannelsTextureWithoutImage(t *testing.T) {
	descs := make([]*api.ShadertoyChannel, 4)
	descs[0] = &api.ShadertoyChannel{CType: "texture", Channel: 0}

	_, err := GetChannels(descs, nil)
	assert.Error(t, err)
}

func TestUpdateAllSkipsNil(t *testing.T) {
	var chans [4]IChannel
	chans[1] = NullChannel{}
	UpdateAll(chans, &Uniforms{Time: 1})
}
