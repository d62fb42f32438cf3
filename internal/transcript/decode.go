package transcript

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// DefaultEncodings is the order tried when none is configured.
var DefaultEncodings = []string{"utf-8", "windows-1252", "iso-8859-1"}

var errUndecodable = errors.New("input is not valid in this encoding")

type decodeFunc func([]byte) (string, error)

var decoders = map[string]decodeFunc{
	"utf-8":        decodeUTF8,
	"utf8":         decodeUTF8,
	"windows-1252": decodeCharmap(charmap.Windows1252),
	"cp1252":       decodeCharmap(charmap.Windows1252),
	"iso-8859-1":   decodeCharmap(charmap.ISO8859_1),
	"latin-1":      decodeCharmap(charmap.ISO8859_1),
	"latin1":       decodeCharmap(charmap.ISO8859_1),
}

// DecodeError reports a file none of the configured encodings could read.
type DecodeError struct {
	Path  string
	Tried []string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: no encoding succeeded (tried %s)", e.Path, strings.Join(e.Tried, ", "))
}

// ValidateEncodings reports the first unknown encoding name.
func ValidateEncodings(names []string) error {
	for _, n := range names {
		if _, ok := decoders[strings.ToLower(n)]; !ok {
			return fmt.Errorf("unknown encoding %q", n)
		}
	}
	return nil
}

// Decode converts data to a string using the first encoding that accepts all of it.
// It returns the name of the encoding used.
func Decode(path string, data []byte, encodings []string) (string, string, error) {
	for _, name := range encodings {
		dec, ok := decoders[strings.ToLower(name)]
		if !ok {
			continue
		}
		if text, err := dec(data); err == nil {
			return text, name, nil
		}
	}
	return "", "", &DecodeError{Path: path, Tried: encodings}
}

func decodeUTF8(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", errUndecodable
	}
	return strings.TrimPrefix(string(data), "\ufeff"), nil
}

// decodeCharmap rejects input containing bytes the code page leaves undefined;
// the charmap decoder maps those to U+FFFD, which a single-byte source can't
// otherwise produce.
func decodeCharmap(cm *charmap.Charmap) decodeFunc {
	return func(data []byte) (string, error) {
		out, err := cm.NewDecoder().Bytes(data)
		if err != nil {
			return "", err
		}
		if bytes.ContainsRune(out, utf8.RuneError) {
			return "", errUndecodable
		}
		return string(out), nil
	}
}
