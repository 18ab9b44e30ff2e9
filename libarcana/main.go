// Package main builds as a c-archive exposing the render context manager
// to C callers, primarily the FFmpeg shadertoy video source filter.
//
// Build with:
//
//	go build -buildmode=c-archive -o libshadertoyarcana.a ./libarcana
package main

/*
#include <stdlib.h>
#include <stdint.h>
*/
import "C"

import (
	"sync"
	"unsafe"

	options "github.com/richinsley/shadertoyarcana/options"
	renderer "github.com/richinsley/shadertoyarcana/renderer"

	arcana "github.com/richinsley/shadertoyarcana"
)

var (
	manager = renderer.NewManager()

	// Each context owns one C-allocated frame buffer, reused between
	// renders so the caller can hold the pointer until the next call.
	buffersMu sync.Mutex
	buffers   = make(map[uint64]unsafe.Pointer)
)

//export createShadertoyContext
func createShadertoyContext(width, height C.int, shaderid, apikey *C.char) C.uint64_t {
	opts := options.Defaults()
	opts.Width = int(width)
	opts.Height = int(height)
	opts.ShaderID = C.GoString(shaderid)

	provider, err := renderer.ProviderFor(opts.ShaderID, C.GoString(apikey), opts.UseCache)
	if err != nil {
		arcana.Logger().Error("creating shader provider", "err", err)
		return 0
	}

	handle, err := manager.Create(provider, opts)
	if err != nil {
		arcana.Logger().Error("creating render context", "shader", opts.ShaderID, "err", err)
		return 0
	}

	buf := C.malloc(C.size_t(opts.Width * opts.Height * 4))
	buffersMu.Lock()
	buffers[handle] = buf
	buffersMu.Unlock()

	return C.uint64_t(handle)
}

// renderShadertoy renders the frame at the given time and returns a pointer
// to tightly packed RGBA pixels, row 0 at the top. The buffer belongs to
// the context and stays valid until the next render or close on the same
// handle. Returns 0 on failure.
//
//export renderShadertoy
func renderShadertoy(handle C.uint64_t, time C.float) C.uint64_t {
	pix, err := manager.Render(uint64(handle), float64(time))
	if err != nil {
		arcana.Logger().Error("rendering frame", "handle", uint64(handle), "err", err)
		return 0
	}

	buffersMu.Lock()
	buf := buffers[uint64(handle)]
	buffersMu.Unlock()
	if buf == nil {
		return 0
	}

	dst := unsafe.Slice((*byte)(buf), len(pix))
	copy(dst, pix)
	return C.uint64_t(uintptr(buf))
}

// closeShadertoyContext releases the context and its frame buffer. Closing
// an unknown handle is a no-op; the filter's uninit path may run twice.
//
//export closeShadertoyContext
func closeShadertoyContext(handle C.uint64_t) {
	if err := manager.Close(uint64(handle)); err != nil {
		return
	}
	buffersMu.Lock()
	buf := buffers[uint64(handle)]
	delete(buffers, uint64(handle))
	buffersMu.Unlock()
	if buf != nil {
		C.free(buf)
	}
}

func main() {}
