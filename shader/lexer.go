package shader

// lex tokenizes a preprocessed compilation unit. Numbers follow GLSL rules:
// a literal with a '.', exponent or 'f'/'F' suffix is a float, anything
// else is a (decimal or hex) int.
func lex(src string) ([]Token, error) {
	var toks []Token
	line, col := 1, 1
	i := 0
	emit := func(kind TokenKind, lexeme string, startCol int) {
		toks = append(toks, Token{Kind: kind, Lexeme: lexeme, Pos: Pos{Line: line, Col: startCol}})
	}

	for i < len(src) {
		c := src[i]
		switch {
		case c == '\n':
			line++
			col = 1
			i++
		case c == ' ' || c == '\t' || c == '\r':
			col++
			i++
		case isIdentStart(c):
			start, startCol := i, col
			for i < len(src) && isIdentPart(src[i]) {
				i++
				col++
			}
			word := src[start:i]
			if msg, bad := reserved[word]; bad {
				return nil, errAt(Pos{Line: line, Col: startCol}, "%s", msg)
			}
			if t, ok := typeKeywords[word]; ok {
				toks = append(toks, Token{Kind: TokType, Lexeme: word, Type: t, Pos: Pos{Line: line, Col: startCol}})
			} else if kw, ok := keywords[word]; ok {
				emit(kw, word, startCol)
			} else {
				emit(TokIdent, word, startCol)
			}
		case c >= '0' && c <= '9', c == '.' && i+1 < len(src) && src[i+1] >= '0' && src[i+1] <= '9':
			tok, n, err := lexNumber(src[i:], Pos{Line: line, Col: col})
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)
			i += n
			col += n
		default:
			startCol := col
			kind, n := lexOperator(src[i:])
			if kind == TokEOF {
				return nil, errAt(Pos{Line: line, Col: col}, "unexpected character %q", string(c))
			}
			emit(kind, src[i:i+n], startCol)
			i += n
			col += n
		}
	}
	toks = append(toks, Token{Kind: TokEOF, Pos: Pos{Line: line, Col: col}})
	return toks, nil
}

func lexNumber(s string, pos Pos) (Token, int, error) {
	i := 0
	isFloat := false
	if len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		i = 2
		for i < len(s) && isHexDigit(s[i]) {
			i++
		}
		if i == 2 {
			return Token{}, 0, errAt(pos, "malformed hex literal")
		}
		return Token{Kind: TokIntLit, Lexeme: s[:i], Pos: pos}, i, nil
	}
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i < len(s) && s[i] == '.' {
		isFloat = true
		i++
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if j < len(s) && s[j] >= '0' && s[j] <= '9' {
			isFloat = true
			i = j
			for i < len(s) && s[i] >= '0' && s[i] <= '9' {
				i++
			}
		}
	}
	if i < len(s) && (s[i] == 'f' || s[i] == 'F') {
		isFloat = true
		i++
		// the suffix is not part of the numeric text
		kind := TokFloatLit
		return Token{Kind: kind, Lexeme: s[:i-1], Pos: pos}, i, nil
	}
	kind := TokIntLit
	if isFloat {
		kind = TokFloatLit
	}
	return Token{Kind: kind, Lexeme: s[:i], Pos: pos}, i, nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// lexOperator matches the longest operator at the head of s. Returns TokEOF
// for no match.
func lexOperator(s string) (TokenKind, int) {
	if len(s) >= 2 {
		switch s[:2] {
		case "+=":
			return TokAddAssign, 2
		case "-=":
			return TokSubAssign, 2
		case "*=":
			return TokMulAssign, 2
		case "/=":
			return TokDivAssign, 2
		case "++":
			return TokInc, 2
		case "--":
			return TokDec, 2
		case "==":
			return TokEq, 2
		case "!=":
			return TokNeq, 2
		case "<=":
			return TokLeq, 2
		case ">=":
			return TokGeq, 2
		case "&&":
			return TokAndAnd, 2
		case "||":
			return TokOrOr, 2
		}
	}
	switch s[0] {
	case '(':
		return TokLParen, 1
	case ')':
		return TokRParen, 1
	case '{':
		return TokLBrace, 1
	case '}':
		return TokRBrace, 1
	case '[':
		return TokLBracket, 1
	case ']':
		return TokRBracket, 1
	case ',':
		return TokComma, 1
	case ';':
		return TokSemi, 1
	case '.':
		return TokDot, 1
	case '?':
		return TokQuestion, 1
	case ':':
		return TokColon, 1
	case '=':
		return TokAssign, 1
	case '+':
		return TokAdd, 1
	case '-':
		return TokSub, 1
	case '*':
		return TokMul, 1
	case '/':
		return TokDiv, 1
	case '%':
		return TokMod, 1
	case '<':
		return TokLt, 1
	case '>':
		return TokGt, 1
	case '!':
		return TokNot, 1
	}
	return TokEOF, 0
}
