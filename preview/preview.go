// Package preview shows CPU-rendered frames in a GLFW window. The GPU is
// used only to blit the finished frame; all shading happens on the CPU.
package preview

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
	glfw "github.com/go-gl/glfw/v3.3/glfw"

	arcana "github.com/richinsley/shadertoyarcana"
	renderer "github.com/richinsley/shadertoyarcana/renderer"
)

const vertexSource = `#version 410 core
layout(location = 0) in vec2 pos;
layout(location = 1) in vec2 uv;
out vec2 vUV;
void main() {
    vUV = uv;
    gl_Position = vec4(pos, 0.0, 1.0);
}
` + "\x00"

const fragmentSource = `#version 410 core
in vec2 vUV;
out vec4 fragColor;
uniform sampler2D frame;
void main() {
    fragColor = texture(frame, vUV);
}
` + "\x00"

// Positions plus texture coordinates. The frame buffer stores row 0 at the
// top, so v is flipped here to keep the image upright.
var quadVertices = []float32{
	// x, y, u, v
	-1, 1, 0, 0,
	-1, -1, 0, 1,
	1, -1, 1, 1,
	-1, 1, 0, 0,
	1, -1, 1, 1,
	1, 1, 1, 0,
}

// Window is an interactive preview for one render context.
type Window struct {
	rc  *renderer.RenderContext
	win *glfw.Window

	prog uint32
	vao  uint32
	vbo  uint32
	tex  uint32

	paused    bool
	timeBase  float64
	pausedAt  float64
	mouseDown bool
	clickX    float64
	clickY    float64
}

// Run opens a window and plays the shader until it is closed. Escape
// closes the window, space pauses the clock. Must be called from the main
// goroutine; it locks the OS thread for GLFW.
func Run(rc *renderer.RenderContext) error {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("initializing glfw: %w", err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Resizable, glfw.False)

	win, err := glfw.CreateWindow(rc.Width(), rc.Height(), rc.Title(), nil, nil)
	if err != nil {
		return fmt.Errorf("creating window: %w", err)
	}
	defer win.Destroy()

	win.MakeContextCurrent()
	glfw.SwapInterval(1)

	if err := gl.Init(); err != nil {
		return fmt.Errorf("initializing opengl: %w", err)
	}

	w := &Window{rc: rc, win: win}
	if err := w.setupGL(); err != nil {
		return err
	}
	defer w.teardownGL()

	win.SetKeyCallback(w.onKey)

	arcana.Logger().Info("preview started", "title", rc.Title(),
		"width", rc.Width(), "height", rc.Height())
	return w.loop()
}

func (w *Window) onKey(win *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if action != glfw.Press {
		return
	}
	switch key {
	case glfw.KeyEscape:
		win.SetShouldClose(true)
	case glfw.KeySpace:
		now := glfw.GetTime()
		if w.paused {
			w.timeBase += now - w.pausedAt
		} else {
			w.pausedAt = now
		}
		w.paused = !w.paused
	}
}

func (w *Window) loop() error {
	w.timeBase = glfw.GetTime()
	for !w.win.ShouldClose() {
		var t float64
		if w.paused {
			t = w.pausedAt - w.timeBase
		} else {
			t = glfw.GetTime() - w.timeBase
		}

		w.updateMouse()

		pix, err := w.rc.RenderFrame(t)
		if err != nil {
			return err
		}
		w.blit(pix)

		w.win.SwapBuffers()
		glfw.PollEvents()
	}
	return nil
}

// updateMouse feeds the cursor state into the iMouse uniform using the
// site's convention: xy is the drag position, zw the press position with
// signs flipped while the button is up.
func (w *Window) updateMouse() {
	height := float64(w.rc.Height())

	cursorX, cursorY := w.win.GetCursorPos()
	x := cursorX
	y := height - cursorY

	down := w.win.GetMouseButton(glfw.MouseButtonLeft) == glfw.Press
	if down && !w.mouseDown {
		w.clickX = x
		w.clickY = y
	}
	w.mouseDown = down

	clickX, clickY := w.clickX, w.clickY
	if !down {
		clickX, clickY = -clickX, -clickY
	}
	w.rc.SetMouse(x, y, clickX, clickY)
}

func (w *Window) setupGL() error {
	prog, err := buildProgram(vertexSource, fragmentSource)
	if err != nil {
		return err
	}
	w.prog = prog

	gl.GenVertexArrays(1, &w.vao)
	gl.BindVertexArray(w.vao)
	gl.GenBuffers(1, &w.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, w.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(quadVertices)*4, gl.Ptr(quadVertices), gl.STATIC_DRAW)
	gl.VertexAttribPointerWithOffset(0, 2, gl.FLOAT, false, 4*4, 0)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 2, gl.FLOAT, false, 4*4, 2*4)
	gl.EnableVertexAttribArray(1)

	gl.GenTextures(1, &w.tex)
	gl.BindTexture(gl.TEXTURE_2D, w.tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8,
		int32(w.rc.Width()), int32(w.rc.Height()), 0,
		gl.RGBA, gl.UNSIGNED_BYTE, nil)
	return nil
}

func (w *Window) blit(pix []byte) {
	gl.BindTexture(gl.TEXTURE_2D, w.tex)
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0,
		int32(w.rc.Width()), int32(w.rc.Height()),
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pix))

	fbWidth, fbHeight := w.win.GetFramebufferSize()
	gl.Viewport(0, 0, int32(fbWidth), int32(fbHeight))
	gl.Clear(gl.COLOR_BUFFER_BIT)
	gl.UseProgram(w.prog)
	gl.BindVertexArray(w.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 6)
}

func (w *Window) teardownGL() {
	gl.DeleteTextures(1, &w.tex)
	gl.DeleteBuffers(1, &w.vbo)
	gl.DeleteVertexArrays(1, &w.vao)
	gl.DeleteProgram(w.prog)
}

func buildProgram(vsSource, fsSource string) (uint32, error) {
	vs, err := compileShader(gl.VERTEX_SHADER, vsSource)
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vs)
	fs, err := compileShader(gl.FRAGMENT_SHADER, fsSource)
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(fs)

	prog := gl.CreateProgram()
	gl.AttachShader(prog, vs)
	gl.AttachShader(prog, fs)
	gl.LinkProgram(prog)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(prog, logLen, nil, gl.Str(log))
		gl.DeleteProgram(prog)
		return 0, fmt.Errorf("linking blit program: %s", log)
	}
	return prog, nil
}

func compileShader(kind uint32, source string) (uint32, error) {
	sh := gl.CreateShader(kind)
	csources, free := gl.Strs(source)
	gl.ShaderSource(sh, 1, csources, nil)
	free()
	gl.CompileShader(sh)

	var status int32
	gl.GetShaderiv(sh, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(sh, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(sh, logLen, nil, gl.Str(log))
		gl.DeleteShader(sh)
		return 0, fmt.Errorf("compiling blit shader: %s", log)
	}
	return sh, nil
}
