package shader

import (
	"strings"
)

// preprocess strips comments and executes the directive subset the dialect
// supports: object-like #define/#undef and #ifdef/#ifndef/#else/#endif.
// #version/#precision/#extension lines are accepted and dropped. Line
// structure is preserved so later diagnostics point at the caller's source.
func preprocess(src string) (string, error) {
	stripped, err := stripComments(src)
	if err != nil {
		return "", err
	}

	macros := map[string]string{}
	var out strings.Builder
	// condStack tracks nested #ifdef blocks; each entry records whether the
	// current branch is live and whether #else was already seen.
	type cond struct {
		live     bool
		seenElse bool
		wasLive  bool
	}
	var condStack []cond
	liveNow := func() bool {
		for _, c := range condStack {
			if !c.live {
				return false
			}
		}
		return true
	}

	lines := strings.Split(stripped, "\n")
	for i, line := range lines {
		lineNo := i + 1
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "#") {
			if liveNow() {
				out.WriteString(expandMacros(line, macros))
			}
			out.WriteByte('\n')
			continue
		}

		fields := strings.Fields(strings.TrimPrefix(trimmed, "#"))
		directive := ""
		if len(fields) > 0 {
			directive = fields[0]
		}
		switch directive {
		case "version", "precision", "extension", "":
			// accepted and dropped; the evaluator has one numeric model
		case "define":
			if !liveNow() {
				break
			}
			if len(fields) < 2 {
				return "", errAt(Pos{Line: lineNo, Col: 1}, "#define requires a name")
			}
			name := fields[1]
			if j := strings.Index(name, "("); j >= 0 {
				return "", errAt(Pos{Line: lineNo, Col: 1},
					"function-like macro %q is not supported", name[:j])
			}
			body := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(strings.TrimPrefix(trimmed, "#")), "define"))
			body = strings.TrimSpace(strings.TrimPrefix(body, name))
			macros[name] = body
		case "undef":
			if !liveNow() {
				break
			}
			if len(fields) < 2 {
				return "", errAt(Pos{Line: lineNo, Col: 1}, "#undef requires a name")
			}
			delete(macros, fields[1])
		case "ifdef", "ifndef":
			if len(fields) < 2 {
				return "", errAt(Pos{Line: lineNo, Col: 1}, "#%s requires a name", directive)
			}
			_, defined := macros[fields[1]]
			live := defined
			if directive == "ifndef" {
				live = !defined
			}
			condStack = append(condStack, cond{live: live, wasLive: live})
		case "else":
			if len(condStack) == 0 {
				return "", errAt(Pos{Line: lineNo, Col: 1}, "#else without #ifdef")
			}
			c := &condStack[len(condStack)-1]
			if c.seenElse {
				return "", errAt(Pos{Line: lineNo, Col: 1}, "duplicate #else")
			}
			c.seenElse = true
			c.live = !c.wasLive
		case "endif":
			if len(condStack) == 0 {
				return "", errAt(Pos{Line: lineNo, Col: 1}, "#endif without #ifdef")
			}
			condStack = condStack[:len(condStack)-1]
		default:
			return "", errAt(Pos{Line: lineNo, Col: 1}, "unsupported preprocessor directive #%s", directive)
		}
		out.WriteByte('\n')
	}
	if len(condStack) != 0 {
		return "", errAt(Pos{Line: len(lines), Col: 1}, "unterminated #ifdef")
	}
	// Split/Join round trip adds a trailing newline; harmless to the lexer.
	return out.String(), nil
}

// stripComments blanks // and /* */ comments, keeping every newline so
// positions stay stable.
func stripComments(src string) (string, error) {
	var out strings.Builder
	out.Grow(len(src))
	line := 1
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '\n':
			line++
			out.WriteByte('\n')
			i++
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			start := line
			i += 2
			for {
				if i+1 >= len(src) {
					return "", errAt(Pos{Line: start, Col: 1}, "unterminated block comment")
				}
				if src[i] == '\n' {
					line++
					out.WriteByte('\n')
					i++
					continue
				}
				if src[i] == '*' && src[i+1] == '/' {
					i += 2
					break
				}
				i++
			}
			out.WriteByte(' ')
		default:
			out.WriteByte(c)
			i++
		}
	}
	return out.String(), nil
}

// expandMacros substitutes object-like macros, re-scanning the replacement
// so macros may reference each other. The pass limit guards against
// self-referential definitions.
func expandMacros(line string, macros map[string]string) string {
	if len(macros) == 0 {
		return line
	}
	for pass := 0; pass < 16; pass++ {
		replaced := expandOnce(line, macros)
		if replaced == line {
			return line
		}
		line = replaced
	}
	return line
}

func expandOnce(line string, macros map[string]string) string {
	var out strings.Builder
	out.Grow(len(line))
	for i := 0; i < len(line); {
		c := line[i]
		if !isIdentStart(c) {
			out.WriteByte(c)
			i++
			continue
		}
		j := i + 1
		for j < len(line) && isIdentPart(line[j]) {
			j++
		}
		word := line[i:j]
		if body, ok := macros[word]; ok {
			out.WriteString(body)
		} else {
			out.WriteString(word)
		}
		i = j
	}
	return out.String()
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
