// Package textenc detects, decodes and re-encodes the two text encodings
// skysheet supports: UTF-8 and UTF-16 little endian.
package textenc

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

var (
	// ErrUnsupportedEncoding indicates the bytes are neither UTF-8 nor UTF-16LE.
	ErrUnsupportedEncoding = errors.New("unsupported encoding")
)

// Encoding identifies one of the supported text encodings.
type Encoding int

const (
	UTF8 Encoding = iota
	UTF16LE
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
)

// String returns the name used in reports.
func (e Encoding) String() string {
	switch e {
	case UTF8:
		return "UTF-8"
	case UTF16LE:
		return "UTF-16-LE"
	}
	return fmt.Sprintf("Encoding(%d)", int(e))
}

// codec returns the x/text encoding. BOMs are handled by this package,
// so the UTF-16 codec ignores them.
func (e Encoding) codec() (encoding.Encoding, error) {
	switch e {
	case UTF8:
		return unicode.UTF8, nil
	case UTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnsupportedEncoding, e)
}

func (e Encoding) bom() []byte {
	if e == UTF16LE {
		return bomUTF16LE
	}
	return bomUTF8
}

// Document is a decoded source file.
type Document struct {
	Raw      []byte
	Encoding Encoding
	// BOM is set when Raw starts with a byte-order mark. Text never
	// contains it.
	BOM  bool
	Text string
}

// Detect picks the encoding of raw.
func Detect(raw []byte) (Encoding, bool, error) {
	switch {
	case bytes.HasPrefix(raw, bomUTF8):
		return UTF8, true, nil
	case bytes.HasPrefix(raw, bomUTF16LE):
		return UTF16LE, true, nil
	case len(raw) == 0:
		return UTF8, false, nil
	case looksLikeUTF16LE(raw) && validUTF16LE(raw):
		return UTF16LE, false, nil
	case utf8.Valid(raw):
		return UTF8, false, nil
	case validUTF16LE(raw):
		return UTF16LE, false, nil
	}
	return UTF8, false, &DecodeError{Offset: firstInvalidUTF8(raw), Err: ErrUnsupportedEncoding}
}

// Decode detects the encoding of raw and decodes it.
func Decode(raw []byte) (*Document, error) {
	enc, bom, err := Detect(raw)
	if err != nil {
		return nil, err
	}

	body := raw
	if bom {
		body = raw[len(enc.bom()):]
	}

	if enc == UTF8 && !utf8.Valid(body) {
		return nil, &DecodeError{Offset: len(raw) - len(body) + firstInvalidUTF8(body), Err: ErrUnsupportedEncoding}
	}
	if enc == UTF16LE && !validUTF16LE(body) {
		return nil, &DecodeError{Offset: -1, Err: ErrUnsupportedEncoding}
	}

	codec, err := enc.codec()
	if err != nil {
		return nil, err
	}
	text, err := codec.NewDecoder().Bytes(body)
	if err != nil {
		return nil, fmt.Errorf("decode %v: %w", enc, err)
	}

	return &Document{Raw: raw, Encoding: enc, BOM: bom, Text: string(text)}, nil
}

// Encode encodes text with enc, prefixed by a byte-order mark if bom is set.
func Encode(text string, enc Encoding, bom bool) ([]byte, error) {
	codec, err := enc.codec()
	if err != nil {
		return nil, err
	}
	body, err := codec.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("encode %v: %w", enc, err)
	}
	if !bom {
		return body, nil
	}
	return append(append([]byte{}, enc.bom()...), body...), nil
}

// DecodeError reports where undecodable input was found. Offset is a
// byte offset into the raw input, BOM included, or -1 when unknown.
type DecodeError struct {
	Offset int
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Offset < 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v: invalid byte at offset %d", e.Err, e.Offset)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// LineAt returns the 1-based line number of a byte offset in s. Offsets
// past the end count the lines of the whole string.
func LineAt(s string, offset int) int {
	if offset < 0 {
		return 0
	}
	if offset > len(s) {
		offset = len(s)
	}
	return strings.Count(s[:offset], "\n") + 1
}

// looksLikeUTF16LE reports whether raw has the zero high bytes typical of
// mostly-ASCII UTF-16LE text. Such text is also valid UTF-8, so it has to
// be recognised before the UTF-8 check.
func looksLikeUTF16LE(raw []byte) bool {
	if len(raw)%2 != 0 {
		return false
	}
	units := len(raw) / 2
	var zeroHigh, zeroLow int
	for i := 0; i < len(raw); i += 2 {
		if raw[i+1] == 0 {
			zeroHigh++
		}
		if raw[i] == 0 {
			zeroLow++
		}
	}
	return zeroHigh*2 > units && zeroLow*4 < units
}

// validUTF16LE reports whether raw is a sequence of well-formed UTF-16LE
// code units without unpaired surrogates.
func validUTF16LE(raw []byte) bool {
	if len(raw)%2 != 0 {
		return false
	}
	for i := 0; i < len(raw); i += 2 {
		u := rune(raw[i]) | rune(raw[i+1])<<8
		if !utf16.IsSurrogate(u) {
			continue
		}
		if u >= 0xDC00 || i+3 >= len(raw) {
			return false
		}
		next := rune(raw[i+2]) | rune(raw[i+3])<<8
		if next < 0xDC00 || next > 0xDFFF {
			return false
		}
		i += 2
	}
	return true
}

func firstInvalidUTF8(raw []byte) int {
	for i := 0; i < len(raw); {
		r, size := utf8.DecodeRune(raw[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return -1
}
