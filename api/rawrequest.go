package api

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// rawShaderData fetches shader JSON from the site's own endpoint, the one
// the browser uses. It works for shaders published as public but not
// public+api, which the official API refuses to serve. The payload is a
// JSON string inside a URL-encoded form value: s={"shaders":["4lSGRV"]}
func (c *Client) rawShaderData(shaderID string) (string, error) {
	rawURL := c.mediaURL + "/shadertoy"

	data := url.Values{}
	data.Set("s", fmt.Sprintf(`{"shaders":["%s"]}`, shaderID))

	req, err := http.NewRequest("POST", rawURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	// The endpoint rejects requests that don't look like the site's own.
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_10_3) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/43.0.2357.124 Safari/537.36")
	req.Header.Set("Origin", "https://www.shadertoy.com")
	req.Header.Set("Referer", "https://www.shadertoy.com/browse")
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.8")
	req.Header.Set("Cache-Control", "max-age=0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: raw shader request failed: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if err := statusErr(resp.StatusCode, "raw shader "+shaderID); err != nil {
		return "", err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading raw shader response: %v", ErrUnavailable, err)
	}

	return string(body), nil
}
