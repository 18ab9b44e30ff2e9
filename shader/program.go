package shader

import "fmt"

// CompileError describes a problem in the shader source. Where the failure
// maps to a source location, Pos carries it (Line 0 means no location).
type CompileError struct {
	Msg string
	Pos Pos
}

func (e *CompileError) Error() string {
	if e.Pos.Line == 0 {
		return "shader: " + e.Msg
	}
	return fmt.Sprintf("shader: %s: %s", e.Pos, e.Msg)
}

func errAt(pos Pos, format string, args ...interface{}) *CompileError {
	return &CompileError{Msg: fmt.Sprintf(format, args...), Pos: pos}
}

// Program is the compiled, immutable form of one image-pass shader.
// Compilation is pure: the same source always produces a program that
// renders identically. A Program carries no mutable state and may be read
// from any number of goroutines at once.
type Program struct {
	funcs   []*FuncDecl
	entry   *FuncDecl
	globals []*GlobalVar
}

// Entry returns the mainImage function.
func (p *Program) Entry() *FuncDecl { return p.entry }

// Globals returns the program's global variable declarations in source
// order. Slot indices are dense, so len(Globals()) is the global frame size.
func (p *Program) Globals() []*GlobalVar { return p.globals }

// Assemble joins a common pass and the image pass into one compilation
// unit, the same concatenation the Shadertoy site performs.
func Assemble(common, image string) string {
	if common == "" {
		return image
	}
	return common + "\n" + image
}

// Compile parses and type-checks shader source, producing an executable
// Program. The language is a GLSL-ES-shaped subset; constructs outside the
// subset fail with a *CompileError naming the construct rather than
// degrading silently.
func Compile(source string) (*Program, error) {
	src, err := preprocess(source)
	if err != nil {
		return nil, err
	}
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	decls, err := parse(toks)
	if err != nil {
		return nil, err
	}
	return check(decls)
}
