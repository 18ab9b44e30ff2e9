// Package renderer manages shader render contexts behind opaque handles
// and drives frame production, for both the Go API and the C bridge.
package renderer

import (
	"errors"
	"fmt"
	"os"
	"sync"

	arcana "github.com/richinsley/shadertoyarcana"
	api "github.com/richinsley/shadertoyarcana/api"
	options "github.com/richinsley/shadertoyarcana/options"
)

// ErrInvalidHandle is returned for handles that were never issued or have
// already been closed.
var ErrInvalidHandle = errors.New("invalid render context handle")

// Manager issues handles for render contexts. Handles are opaque uint64s;
// zero is never a valid handle. A Manager is safe for concurrent use, and
// renders on distinct handles proceed in parallel.
type Manager struct {
	mu   sync.RWMutex
	next uint64
	ctxs map[uint64]*RenderContext
}

func NewManager() *Manager {
	return &Manager{ctxs: make(map[uint64]*RenderContext)}
}

// Create fetches the shader named by opts, compiles it, and returns a new
// handle. The provider is usually an api.Client or api.FileProvider.
func (m *Manager) Create(provider api.Provider, opts *options.Options) (uint64, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return 0, fmt.Errorf("invalid frame size %dx%d", opts.Width, opts.Height)
	}

	args, err := provider.Shader(opts.ShaderID)
	if err != nil {
		return 0, err
	}

	ctx, err := newContext(args, opts)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	m.next++
	handle := m.next
	m.ctxs[handle] = ctx
	m.mu.Unlock()

	arcana.Logger().Info("render context created",
		"handle", handle, "title", ctx.title,
		"width", ctx.width, "height", ctx.height)
	return handle, nil
}

// Get returns the context for a handle.
func (m *Manager) Get(handle uint64) (*RenderContext, error) {
	m.mu.RLock()
	ctx, ok := m.ctxs[handle]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrInvalidHandle
	}
	return ctx, nil
}

// Render produces the frame at time t for a handle.
func (m *Manager) Render(handle uint64, t float64) ([]byte, error) {
	ctx, err := m.Get(handle)
	if err != nil {
		return nil, err
	}
	return ctx.RenderFrame(t)
}

// Close releases a handle and its context. Closing an unknown or already
// closed handle returns ErrInvalidHandle.
func (m *Manager) Close(handle uint64) error {
	m.mu.Lock()
	ctx, ok := m.ctxs[handle]
	if ok {
		delete(m.ctxs, handle)
	}
	m.mu.Unlock()
	if !ok {
		return ErrInvalidHandle
	}
	ctx.close()
	arcana.Logger().Info("render context closed", "handle", handle)
	return nil
}

// ProviderFor picks the shader source for an ID: a local file when the ID
// names one on disk, the shadertoy.com API otherwise.
func ProviderFor(shaderID, apikey string, useCache bool) (api.Provider, error) {
	if fileExists(shaderID) {
		return &api.FileProvider{Path: shaderID}, nil
	}
	return api.NewClient(apikey, useCache)
}

// CloseAll releases every live handle.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	ctxs := m.ctxs
	m.ctxs = make(map[uint64]*RenderContext)
	m.mu.Unlock()
	for _, ctx := range ctxs {
		ctx.close()
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
