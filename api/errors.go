package api

import "errors"

// Sentinel errors for shader acquisition. Callers match with errors.Is to
// distinguish a bad ID from a bad key from a flaky network.
var (
	// ErrNotFound means the shader ID does not exist or is not visible
	// to the API (not published as public+api).
	ErrNotFound = errors.New("shader not found")

	// ErrUnauthorized means the API key was rejected or missing.
	ErrUnauthorized = errors.New("shadertoy api key rejected")

	// ErrUnavailable means the service could not be reached or returned
	// a server-side failure; the request may succeed later.
	ErrUnavailable = errors.New("shadertoy service unavailable")

	// ErrUnsupportedShader means the shader was fetched fine but uses
	// features this renderer does not implement, such as buffer passes
	// or cubemap inputs.
	ErrUnsupportedShader = errors.New("unsupported shader")
)
