package api

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileProvider serves shader source from local GLSL files, for offline work
// and tests. It yields no input channels; textures come from the API path.
type FileProvider struct {
	// Path is the fragment shader source file (the image pass).
	Path string
	// CommonPath optionally holds source prepended as a common pass.
	CommonPath string
}

// Shader implements Provider. The argument is ignored; the provider always
// serves its configured files.
func (p *FileProvider) Shader(string) (*ShaderArgs, error) {
	code, err := os.ReadFile(p.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, p.Path)
		}
		return nil, fmt.Errorf("reading shader file: %w", err)
	}

	args := &ShaderArgs{
		ShaderCode: string(code),
		Inputs:     make([]*ShadertoyChannel, 4),
		Title:      strings.TrimSuffix(filepath.Base(p.Path), filepath.Ext(p.Path)),
	}

	if p.CommonPath != "" {
		common, err := os.ReadFile(p.CommonPath)
		if err != nil {
			return nil, fmt.Errorf("reading common file: %w", err)
		}
		args.CommonCode = string(common)
	}

	return args, nil
}
