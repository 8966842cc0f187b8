package sitesheet

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var errUndecodable = errors.New("bytes not valid in encoding")

type decodeFunc func([]byte) (string, error)

func decoderFor(name string) (decodeFunc, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-") {
	case "utf-8-sig", "utf8-sig":
		return strictUTF8(unicode.UTF8BOM), nil
	case "utf-8", "utf8":
		return strictUTF8(unicode.UTF8), nil
	case "windows-1255", "cp1255":
		return codePage(charmap.Windows1255), nil
	case "iso-8859-8", "iso8859-8", "hebrew":
		return codePage(charmap.ISO8859_8), nil
	case "latin1", "latin-1", "iso-8859-1", "iso8859-1":
		return codePage(charmap.ISO8859_1), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}

// strictUTF8 rejects invalid sequences instead of substituting U+FFFD.
func strictUTF8(enc encoding.Encoding) decodeFunc {
	return func(data []byte) (string, error) {
		if !utf8.Valid(data) {
			return "", errUndecodable
		}
		out, _, err := transform.Bytes(enc.NewDecoder(), data)
		if err != nil {
			return "", err
		}
		return string(out), nil
	}
}

// codePage fails on bytes the code page leaves undefined.
func codePage(cm *charmap.Charmap) decodeFunc {
	return func(data []byte) (string, error) {
		out, _, err := transform.Bytes(cm.NewDecoder(), data)
		if err != nil {
			return "", err
		}
		if bytes.ContainsRune(out, utf8.RuneError) {
			return "", errUndecodable
		}
		return string(out), nil
	}
}
