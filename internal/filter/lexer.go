package filter

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokWord tokenKind = iota
	tokKeyword
	tokNumber
	tokString
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
}

var keywords = map[string]bool{
	"and":      true,
	"or":       true,
	"contains": true,
}

func lex(input string) ([]token, error) {
	var tokens []token
	runes := []rune(input)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++

		case r == '(':
			tokens = append(tokens, token{kind: tokLParen, text: "("})
			i++
		case r == ')':
			tokens = append(tokens, token{kind: tokRParen, text: ")"})
			i++

		case r == '\'' || r == '"':
			quote := r
			j := i + 1
			var sb strings.Builder
			closed := false
			for j < len(runes) {
				if runes[j] == quote {
					// doubled quote is an escaped quote
					if j+1 < len(runes) && runes[j+1] == quote {
						sb.WriteRune(quote)
						j += 2
						continue
					}
					closed = true
					j++
					break
				}
				sb.WriteRune(runes[j])
				j++
			}
			if !closed {
				return nil, fmt.Errorf("unterminated string in filter: %s", input[i:])
			}
			tokens = append(tokens, token{kind: tokString, text: sb.String()})
			i = j

		case r == '=':
			tokens = append(tokens, token{kind: tokOp, text: "="})
			i++
		case r == '!':
			if i+1 < len(runes) && runes[i+1] == '=' {
				tokens = append(tokens, token{kind: tokOp, text: "!="})
				i += 2
			} else {
				return nil, fmt.Errorf("unexpected character %q in filter", string(r))
			}
		case r == '<':
			if i+1 < len(runes) && runes[i+1] == '>' {
				tokens = append(tokens, token{kind: tokOp, text: "<>"})
				i += 2
			} else if i+1 < len(runes) && runes[i+1] == '=' {
				tokens = append(tokens, token{kind: tokOp, text: "<="})
				i += 2
			} else {
				tokens = append(tokens, token{kind: tokOp, text: "<"})
				i++
			}
		case r == '>':
			if i+1 < len(runes) && runes[i+1] == '=' {
				tokens = append(tokens, token{kind: tokOp, text: ">="})
				i += 2
			} else {
				tokens = append(tokens, token{kind: tokOp, text: ">"})
				i++
			}

		default:
			j := i
			for j < len(runes) && isWordRune(runes[j]) {
				j++
			}
			if j == i {
				return nil, fmt.Errorf("unexpected character %q in filter", string(r))
			}
			text := string(runes[i:j])
			kind := tokWord
			if keywords[strings.ToLower(text)] {
				kind = tokKeyword
			}
			tokens = append(tokens, token{kind: kind, text: text})
			i = j
		}
	}
	return tokens, nil
}

// isWordRune accepts field names, bare string values and numbers
// (including signs and decimal points).
func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || r == '.' || r == '+'
}
