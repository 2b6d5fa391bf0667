package filter

type tokenKind int

const (
	tkEOF tokenKind = iota
	tkIdent
	tkString // значение в кавычках
	tkOp
	tkLParen
	tkRParen
	tkComma
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func lex(input string) ([]token, error) {
	var tokens []token

	i := 0
	for i < len(input) {
		c := input[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			tokens = append(tokens, token{tkLParen, "(", i})
			i++
		case c == ')':
			tokens = append(tokens, token{tkRParen, ")", i})
			i++
		case c == ',':
			tokens = append(tokens, token{tkComma, ",", i})
			i++
		case c == ':':
			tokens = append(tokens, token{tkOp, ":", i})
			i++
		case c == '~':
			tokens = append(tokens, token{tkOp, "~", i})
			i++
		case c == '!':
			if i+1 >= len(input) || input[i+1] != ':' {
				return nil, malformed("expected ':' after '!' at position %d", i)
			}
			tokens = append(tokens, token{tkOp, "!:", i})
			i += 2
		case c == '>' || c == '<':
			op := string(c)
			if i+1 < len(input) && input[i+1] == '=' {
				op += "="
				i++
			}
			tokens = append(tokens, token{tkOp, op, i})
			i++
		case c == '\'' || c == '"':
			quote := c
			j := i + 1
			for j < len(input) && input[j] != quote {
				j++
			}
			if j >= len(input) {
				return nil, malformed("unterminated string starting at position %d", i)
			}
			tokens = append(tokens, token{tkString, input[i+1 : j], i})
			i = j + 1
		case isBareChar(c):
			j := i
			for j < len(input) && isBareChar(input[j]) {
				j++
			}
			tokens = append(tokens, token{tkIdent, input[i:j], i})
			i = j
		default:
			return nil, malformed("unexpected character %q at position %d", string(c), i)
		}
	}

	tokens = append(tokens, token{tkEOF, "", len(input)})
	return tokens, nil
}

// isBareChar определяет символы токенов без кавычек: имена полей,
// числа и ключевые слова AND/OR/NOT/IN.
func isBareChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '_' || c == '.' || c == '-':
		return true
	default:
		return false
	}
}
