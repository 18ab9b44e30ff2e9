package api

import (
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	// Blank imports for image decoders so image.Decode can handle them.
	_ "image/jpeg"
	_ "image/png"

	arcana "github.com/richinsley/shadertoyarcana"
)

const (
	shadertoyAPIURL   = "https://www.shadertoy.com/api/v1"
	shadertoyMediaURL = "https://www.shadertoy.com"
)

// --- Structs for Shadertoy API Response ---

type ShadertoyResponse struct {
	Shader *Shader `json:"Shader"`
	Error  string  `json:"Error,omitempty"`
	IsAPI  bool    `json:"isAPI,omitempty"`
}

type Shader struct {
	Info       ShaderInfo   `json:"info"`
	RenderPass []RenderPass `json:"renderpass"`
}

type ShaderInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

type RenderPass struct {
	Inputs  []Input  `json:"inputs"`
	Outputs []Output `json:"outputs"`
	Code    string   `json:"code"`
	Name    string   `json:"name"`
	Type    string   `json:"type"`
}

type Input struct {
	Channel int     `json:"channel"`
	CType   string  `json:"ctype"`
	Src     string  `json:"src"`
	Sampler Sampler `json:"sampler"`
}

type Output struct {
	Id      int `json:"id"`
	Channel int `json:"channel"`
}

type Sampler struct {
	Filter   string `json:"filter"`
	Wrap     string `json:"wrap"`
	VFlip    string `json:"vflip"`
	SRGB     string `json:"srgb"`
	Internal string `json:"internal"`
}

// raw shader data is ever so slightly different from the API response.
type rawShaderResponse []rawShader

type rawShader struct {
	Info          ShaderInfo      `json:"info"`
	RawRenderPass []rawRenderPass `json:"renderpass"`
}

type rawRenderPass struct {
	Inputs  []rawInput  `json:"inputs"`
	Outputs []rawOutput `json:"outputs"`
	Code    string      `json:"code"`
	Name    string      `json:"name"`
	Type    string      `json:"type"`
}

type rawInput struct {
	Id          string  `json:"id"`
	Filepath    string  `json:"filepath"`
	PreviewFile string  `json:"previewfilepath"`
	Type        string  `json:"type"`
	Channel     int     `json:"channel"`
	Sampler     Sampler `json:"sampler"`
	Published   int     `json:"published"`
}

type rawOutput struct {
	Id      string `json:"id"`
	Channel int    `json:"channel"`
}

func rawShaderToShader(raw rawShader) *Shader {
	shader := &Shader{
		Info:       raw.Info,
		RenderPass: make([]RenderPass, len(raw.RawRenderPass)),
	}

	for i, rPass := range raw.RawRenderPass {
		shader.RenderPass[i] = RenderPass{
			Inputs:  make([]Input, len(rPass.Inputs)),
			Outputs: make([]Output, len(rPass.Outputs)),
			Code:    rPass.Code,
			Name:    rPass.Name,
			Type:    rPass.Type,
		}
		for j, inp := range rPass.Inputs {
			shader.RenderPass[i].Inputs[j] = Input{
				Channel: inp.Channel,
				CType:   inp.Type,
				Src:     inp.Filepath,
				Sampler: inp.Sampler,
			}
		}
		for j, out := range rPass.Outputs {
			shader.RenderPass[i].Outputs[j] = Output{
				Channel: out.Channel,
			}
		}
	}
	return shader
}

// --- Structs for Processed Shader Data ---

// ShadertoyChannel is a processed input channel: its type, sampler state,
// and the decoded texture image when the channel carries one.
type ShadertoyChannel struct {
	CType   string
	Channel int
	Sampler Sampler
	Data    image.Image
}

// ShaderArgs holds the final, processed arguments for rendering a shader.
type ShaderArgs struct {
	ShaderCode string
	CommonCode string
	Inputs     []*ShadertoyChannel
	Title      string
}

// Provider yields processed shader arguments for an ID. The HTTP client
// and the local-file loader both satisfy it, so the renderer does not care
// where shader source comes from.
type Provider interface {
	Shader(idOrURL string) (*ShaderArgs, error)
}

// Client fetches shaders and media from shadertoy.com, optionally caching
// JSON and textures in the OS cache directory.
type Client struct {
	apiKey     string
	useCache   bool
	httpClient *http.Client
	baseURL    string
	mediaURL   string
}

type headerTransport struct {
	transport http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", "https://github.com/richinsley/shadertoyarcana")
	return t.transport.RoundTrip(req)
}

// NewClient validates the API key (falling back to the SHADERTOY_KEY
// environment variable when apikey is empty) and returns a ready client.
func NewClient(apikey string, useCache bool) (*Client, error) {
	c := &Client{
		apiKey:   apikey,
		useCache: useCache,
		httpClient: &http.Client{
			Transport: &headerTransport{transport: http.DefaultTransport},
		},
		baseURL:  shadertoyAPIURL,
		mediaURL: shadertoyMediaURL,
	}
	if c.apiKey == "" {
		c.apiKey = os.Getenv("SHADERTOY_KEY")
	}
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: no key given and SHADERTOY_KEY not set, see https://www.shadertoy.com/howto#q2", ErrUnauthorized)
	}
	if err := c.validateKey(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) validateKey() error {
	testURL := fmt.Sprintf("%s/shaders/query/test?key=%s", c.baseURL, c.apiKey)
	resp, err := c.httpClient.Get(testURL)
	if err != nil {
		return fmt.Errorf("%w: key validation request failed: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if err := statusErr(resp.StatusCode, "key validation"); err != nil {
		return err
	}

	var probe ShadertoyResponse
	if err := json.NewDecoder(resp.Body).Decode(&probe); err != nil {
		return fmt.Errorf("%w: malformed key validation response: %v", ErrUnavailable, err)
	}
	if probe.Error != "" {
		return fmt.Errorf("%w: %s", ErrUnauthorized, probe.Error)
	}
	return nil
}

// statusErr maps an HTTP status to one of the sentinel errors, or nil for 200.
func statusErr(code int, what string) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%w: %s returned status %d", ErrUnauthorized, what, code)
	case code == http.StatusNotFound:
		return fmt.Errorf("%w: %s returned status %d", ErrNotFound, what, code)
	default:
		return fmt.Errorf("%w: %s returned status %d", ErrUnavailable, what, code)
	}
}

// getCacheDir determines the appropriate OS-specific cache directory.
func getCacheDir(subdir string) (string, error) {
	var baseCacheDir string
	var err error

	switch runtime.GOOS {
	case "windows":
		baseCacheDir = os.Getenv("LOCALAPPDATA")
		if baseCacheDir == "" {
			err = fmt.Errorf("LOCALAPPDATA environment variable not set")
		}
	case "darwin":
		homeDir := os.Getenv("HOME")
		if homeDir == "" {
			err = fmt.Errorf("HOME environment variable not set")
		} else {
			baseCacheDir = filepath.Join(homeDir, "Library", "Caches")
		}
	default: // linux, bsd, etc.
		baseCacheDir = os.Getenv("XDG_CACHE_HOME")
		if baseCacheDir == "" {
			homeDir := os.Getenv("HOME")
			if homeDir == "" {
				err = fmt.Errorf("HOME environment variable not set")
			} else {
				baseCacheDir = filepath.Join(homeDir, ".cache")
			}
		}
	}

	if err != nil {
		return "", err
	}

	cacheDir := filepath.Join(baseCacheDir, "shadertoyarcana", subdir)
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create cache directory at %s: %w", cacheDir, err)
	}

	return cacheDir, nil
}

// Shader fetches the named shader and processes it into ShaderArgs,
// downloading any texture media it references. Shaders with buffer,
// cubemap, or sound passes are rejected with ErrUnsupportedShader.
func (c *Client) Shader(idOrURL string) (*ShaderArgs, error) {
	shaderID := idOrURL
	if strings.Contains(shaderID, "/") {
		shaderID = filepath.Base(strings.TrimSuffix(shaderID, "/"))
	}

	resp, err := c.fetch(shaderID)
	if err != nil {
		return nil, err
	}
	return c.process(resp)
}

// fetch returns the shader JSON, consulting the on-disk cache first.
func (c *Client) fetch(shaderID string) (*ShadertoyResponse, error) {
	var cachePath string
	if c.useCache {
		cacheDir, err := getCacheDir("shaders")
		if err != nil {
			return nil, fmt.Errorf("could not get cache directory: %w", err)
		}
		cachePath = filepath.Join(cacheDir, shaderID+".json")
		if data, err := os.ReadFile(cachePath); err == nil {
			var cached ShadertoyResponse
			if err := json.Unmarshal(data, &cached); err == nil && cached.Shader != nil {
				arcana.Logger().Debug("shader loaded from cache", "id", shaderID, "path", cachePath)
				return &cached, nil
			}
			arcana.Logger().Warn("ignoring corrupt cached shader", "path", cachePath)
		}
	}

	apiURL := fmt.Sprintf("%s/shaders/%s?key=%s", c.baseURL, shaderID, c.apiKey)
	httpResp, err := c.httpClient.Get(apiURL)
	if err != nil {
		return nil, fmt.Errorf("%w: shader request failed: %v", ErrUnavailable, err)
	}
	defer httpResp.Body.Close()

	if err := statusErr(httpResp.StatusCode, "shader "+shaderID); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading shader response: %v", ErrUnavailable, err)
	}

	var shaderResp ShadertoyResponse
	if err := json.Unmarshal(body, &shaderResp); err != nil {
		return nil, fmt.Errorf("failed to decode shader JSON: %w", err)
	}

	if shaderResp.Error != "" {
		// Shaders published without the api flag are invisible to the
		// official endpoint; try the site's own endpoint before giving up.
		arcana.Logger().Info("api rejected shader, trying raw endpoint",
			"id", shaderID, "apiError", shaderResp.Error)
		rawData, err := c.rawShaderData(shaderID)
		if err != nil {
			return nil, fmt.Errorf("%w: %s (api error: %s)", ErrNotFound, shaderID, shaderResp.Error)
		}
		var rawResp rawShaderResponse
		if err := json.Unmarshal([]byte(rawData), &rawResp); err != nil {
			return nil, fmt.Errorf("failed to decode raw shader JSON: %w", err)
		}
		if len(rawResp) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, shaderID)
		}
		shaderResp = ShadertoyResponse{
			Shader: rawShaderToShader(rawResp[0]),
			IsAPI:  false,
		}
	} else {
		shaderResp.IsAPI = true
	}

	if shaderResp.Shader == nil {
		return nil, fmt.Errorf("invalid JSON response: 'Shader' key is missing")
	}

	if c.useCache && cachePath != "" {
		data, err := json.Marshal(&shaderResp)
		if err == nil {
			if err := os.WriteFile(cachePath, data, 0644); err != nil {
				arcana.Logger().Warn("failed to cache shader", "path", cachePath, "err", err)
			}
		}
	}
	return &shaderResp, nil
}

// process distills the render passes into ShaderArgs. Only a single image
// pass (plus an optional common pass) is renderable here.
func (c *Client) process(shaderData *ShadertoyResponse) (*ShaderArgs, error) {
	args := &ShaderArgs{
		Inputs: make([]*ShadertoyChannel, 4),
	}

	if shaderData.Shader == nil {
		return nil, fmt.Errorf("shader data must have a 'Shader' key")
	}

	for _, rPass := range shaderData.Shader.RenderPass {
		switch rPass.Type {
		case "image":
			args.ShaderCode = rPass.Code
			inputs, err := c.mediaChannels(rPass.Inputs)
			if err != nil {
				return nil, fmt.Errorf("image pass inputs: %w", err)
			}
			args.Inputs = inputs
		case "common":
			args.CommonCode = rPass.Code
		default:
			return nil, fmt.Errorf("%w: render pass type %q", ErrUnsupportedShader, rPass.Type)
		}
	}

	if args.ShaderCode == "" {
		return nil, fmt.Errorf("%w: no image pass", ErrUnsupportedShader)
	}

	info := shaderData.Shader.Info
	args.Title = fmt.Sprintf(`"%s" by %s`, info.Name, info.Username)

	return args, nil
}

// mediaChannels processes input descriptions, downloading textures as needed.
func (c *Client) mediaChannels(inputs []Input) ([]*ShadertoyChannel, error) {
	channels := make([]*ShadertoyChannel, 4)

	for _, inp := range inputs {
		if inp.Channel < 0 || inp.Channel > 3 {
			continue
		}
		channel := &ShadertoyChannel{
			CType:   inp.CType,
			Channel: inp.Channel,
			Sampler: inp.Sampler,
		}

		switch inp.CType {
		case "texture":
			img, err := c.fetchTexture(inp.Src)
			if err != nil {
				return nil, err
			}
			channel.Data = img
		case "mic", "music", "musicstream":
			// The audio texture is generated locally from the configured
			// source; nothing to download.
		default:
			return nil, fmt.Errorf("%w: input type %q on channel %d", ErrUnsupportedShader, inp.CType, inp.Channel)
		}

		channels[inp.Channel] = channel
	}

	return channels, nil
}

// fetchTexture downloads and decodes one media asset, caching the encoded
// bytes when caching is enabled.
func (c *Client) fetchTexture(src string) (image.Image, error) {
	var cachePath string
	if c.useCache {
		cacheDir, err := getCacheDir("media")
		if err != nil {
			return nil, fmt.Errorf("could not get cache directory: %w", err)
		}
		cachePath = filepath.Join(cacheDir, filepath.Base(src))
		if f, err := os.Open(cachePath); err == nil {
			img, _, err := image.Decode(f)
			f.Close()
			if err == nil {
				return img, nil
			}
			arcana.Logger().Warn("could not decode cached image, redownloading",
				"path", cachePath, "err", err)
		}
	}

	mediaURL := c.mediaURL + src
	resp, err := c.httpClient.Get(mediaURL)
	if err != nil {
		return nil, fmt.Errorf("%w: downloading %s: %v", ErrUnavailable, mediaURL, err)
	}
	defer resp.Body.Close()

	if err := statusErr(resp.StatusCode, "media "+src); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading media %s: %v", ErrUnavailable, mediaURL, err)
	}

	img, _, err := image.Decode(strings.NewReader(string(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image from %s: %w", mediaURL, err)
	}

	if c.useCache && cachePath != "" {
		if err := os.WriteFile(cachePath, data, 0644); err != nil {
			arcana.Logger().Warn("failed to cache media", "path", cachePath, "err", err)
		}
	}
	return img, nil
}
