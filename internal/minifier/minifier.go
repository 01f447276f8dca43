// Package minifier strips whitespace from JSON-like text while leaving the
// contents of double-quoted string literals untouched.
//
// The same rules apply to every input, whatever its file type. Plain text
// containing a stray double quote is therefore treated as if a string
// literal started there, and its remaining whitespace is preserved.
package minifier

import "strings"

// State is the scanner state between two characters.
type State int

const (
	// Outside means the scanner is not inside a string literal.
	Outside State = iota
	// InString means the scanner is inside a string literal.
	InString
	// InStringEscaped means the previous character was a backslash inside
	// a string literal, so the next character is taken literally.
	InStringEscaped
)

func (s State) String() string {
	switch s {
	case Outside:
		return "outside"
	case InString:
		return "in-string"
	case InStringEscaped:
		return "in-string-escaped"
	}
	return "unknown"
}

// Result is the outcome of a scan.
type Result struct {
	Text string
	// State is the scanner state at end of input.
	State State
	// OpenQuote is the byte offset in the input of the quote that opened an
	// unterminated string literal, or -1.
	OpenQuote int
}

// Unterminated reports whether input ended inside a string literal.
func (r Result) Unterminated() bool {
	return r.State != Outside
}

// Minify returns text with all whitespace outside string literals removed.
// text must be valid UTF-8: invalid bytes come out as U+FFFD. Callers
// reading files decode them first (see textenc.Decode), which rejects such
// input.
func Minify(text string) string {
	return Scan(text).Text
}

// Scan minifies text and reports the final scanner state. Like Minify it
// expects valid UTF-8.
func Scan(text string) Result {
	var out strings.Builder
	out.Grow(len(text))

	state := Outside
	openQuote := -1

	for i, ch := range text {
		switch state {
		case InStringEscaped:
			out.WriteRune(ch)
			state = InString
		case InString:
			out.WriteRune(ch)
			if ch == '\\' {
				state = InStringEscaped
			} else if ch == '"' {
				state = Outside
				openQuote = -1
			}
		default:
			if ch == '"' {
				out.WriteRune(ch)
				state = InString
				openQuote = i
			} else if !IsWhitespace(ch) {
				out.WriteRune(ch)
			}
		}
	}

	return Result{Text: out.String(), State: state, OpenQuote: openQuote}
}

// IsWhitespace reports whether ch is removed outside string literals.
// Only space, tab, carriage return and newline qualify.
func IsWhitespace(ch rune) bool {
	return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n'
}
