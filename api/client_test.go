package api

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(srv *httptest.Server) *Client {
	return &Client{
		apiKey:     "testkey",
		useCache:   false,
		httpClient: srv.Client(),
		baseURL:    srv.URL,
		mediaURL:   srv.URL,
	}
}

func shaderJSON(passes ...RenderPass) []byte {
	resp := ShadertoyResponse{Shader: &Shader{
		Info:       ShaderInfo{ID: "AbCdEf", Name: "Test", Username: "tester"},
		RenderPass: passes,
	}}
	data, _ := json.Marshal(resp)
	return data
}

func TestValidateKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "testkey", r.URL.Query().Get("key"))
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	assert.NoError(t, testClient(srv).validateKey())
}

func TestValidateKeyRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Error": "invalid key"}`))
	}))
	defer srv.Close()

	assert.ErrorIs(t, testClient(srv).validateKey(), ErrUnauthorized)
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrUnauthorized},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusInternalServerError, ErrUnavailable},
		{http.StatusBadGateway, ErrUnavailable},
	}
	for _, tc := range cases {
		assert.ErrorIs(t, statusErr(tc.status, "x"), tc.want)
	}
	assert.NoError(t, statusErr(http.StatusOK, "x"))
}

func TestShaderFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(shaderJSON(
			RenderPass{Type: "common", Code: "float k;"},
			RenderPass{Type: "image", Code: "void mainImage..."},
		))
	}))
	defer srv.Close()

	args, err := testClient(srv).Shader("AbCdEf")
	require.NoError(t, err)
	assert.Equal(t, "void mainImage...", args.ShaderCode)
	assert.Equal(t, "float k;", args.CommonCode)
	assert.Equal(t, `"Test" by tester`, args.Title)
}

func TestShaderNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := testClient(srv).Shader("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestShaderServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := testClient(srv).Shader("AbCdEf")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestShaderBufferPassUnsupported(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(shaderJSON(
			RenderPass{Type: "buffer", Name: "Buffer A", Code: "..."},
			RenderPass{Type: "image", Code: "..."},
		))
	}))
	defer srv.Close()

	_, err := testClient(srv).Shader("AbCdEf")
	assert.ErrorIs(t, err, ErrUnsupportedShader)
}

func TestShaderVolumeInputUnsupported(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(shaderJSON(RenderPass{
			Type: "image",
			Code: "...",
			Inputs: []Input{
				{Channel: 0, CType: "volume", Src: "/media/a/vol.bin"},
			},
		}))
	}))
	defer srv.Close()

	_, err := testClient(srv).Shader("AbCdEf")
	assert.ErrorIs(t, err, ErrUnsupportedShader)
}

func TestShaderTextureDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/media/a/tex.png" {
			img := image.NewRGBA(image.Rect(0, 0, 3, 2))
			img.Set(0, 0, color.RGBA{10, 20, 30, 255})
			var buf bytes.Buffer
			require.NoError(t, png.Encode(&buf, img))
			w.Write(buf.Bytes())
			return
		}
		w.Write(shaderJSON(RenderPass{
			Type: "image",
			Code: "...",
			Inputs: []Input{
				{Channel: 1, CType: "texture", Src: "/media/a/tex.png",
					Sampler: Sampler{Filter: "linear", Wrap: "repeat"}},
			},
		}))
	}))
	defer srv.Close()

	args, err := testClient(srv).Shader("AbCdEf")
	require.NoError(t, err)
	require.NotNil(t, args.Inputs[1])
	assert.Equal(t, "texture", args.Inputs[1].CType)
	require.NotNil(t, args.Inputs[1].Data)
	assert.Equal(t, 3, args.Inputs[1].Data.Bounds().Dx())
	assert.Nil(t, args.Inputs[0])
}

func TestShaderMusicInputKept(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(shaderJSON(RenderPass{
			Type: "image",
			Code: "...",
			Inputs: []Input{
				{Channel: 0, CType: "music", Src: "/media/a/song.mp3"},
			},
		}))
	}))
	defer srv.Close()

	args, err := testClient(srv).Shader("AbCdEf")
	require.NoError(t, err)
	require.NotNil(t, args.Inputs[0])
	assert.Equal(t, "music", args.Inputs[0].CType)
	assert.Nil(t, args.Inputs[0].Data)
}

func TestFileProvider(t *testing.T) {
	dir := t.TempDir()
	shaderPath := filepath.Join(dir, "plasma.glsl")
	commonPath := filepath.Join(dir, "common.glsl")
	require.NoError(t, os.WriteFile(shaderPath, []byte("void mainImage..."), 0644))
	require.NoError(t, os.WriteFile(commonPath, []byte("float k;"), 0644))

	p := &FileProvider{Path: shaderPath, CommonPath: commonPath}
	args, err := p.Shader("")
	require.NoError(t, err)
	assert.Equal(t, "void mainImage...", args.ShaderCode)
	assert.Equal(t, "float k;", args.CommonCode)
	assert.Equal(t, "plasma", args.Title)
}

func TestFileProviderMissing(t *testing.T) {
	p := &FileProvider{Path: filepath.Join(t.TempDir(), "missing.glsl")}
	_, err := p.Shader("")
	assert.ErrorIs(t, err, ErrNotFound)
}
