// Package dump reads and writes the wrapper's line-oriented dump format.
//
// Each line of a dump is one wrapper invocation, for example
//
//	C:\tools\nssm.exe set Foo AppDirectory "C:\Program Files\Foo"
//
// Tokens are separated by whitespace and double quotes group a token.
// Quote characters stay in the token; the parser strips a surrounding
// pair when it assigns a value, so quotes inside a value survive.
// Backslashes are ordinary characters so Windows paths survive unchanged.
package dump

import (
	"errors"
	"strings"
)

// ErrUnterminatedQuote is returned by Tokenize when a line opens a quote
// it never closes.
var ErrUnterminatedQuote = errors.New("unterminated quote")

// Tokenize splits one dump line into tokens. Whitespace inside quotes does
// not split, and the quote characters are kept: "" yields the token `""`.
func Tokenize(line string) ([]string, error) {
	var (
		tokens  []string
		cur     strings.Builder
		inQuote bool
		started bool
	)

	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
			cur.WriteRune(r)
			started = true
		case !inQuote && (r == ' ' || r == '\t'):
			if started {
				tokens = append(tokens, cur.String())
				cur.Reset()
				started = false
			}
		default:
			cur.WriteRune(r)
			started = true
		}
	}

	if inQuote {
		return nil, ErrUnterminatedQuote
	}
	if started {
		tokens = append(tokens, cur.String())
	}
	return tokens, nil
}

// Unquote strips one pair of double quotes enclosing the whole of s.
// Values such as `-c "C:\my dir\x.ini"` or `"a" "b"` are left alone.
func Unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' && strings.Count(s, `"`) == 2 {
		return s[1 : len(s)-1]
	}
	return s
}
