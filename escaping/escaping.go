// Package escaping implements the Vorbis-comment-style backslash escaping
// used when displaying or accepting comment values on a terminal: NUL, LF,
// CR, and backslash itself are not safe to print or type literally.
package escaping

import (
	"bytes"

	"github.com/skystar-p/zoog"
)

const (
	nul       = 0x00
	lf        = 0x0A
	cr        = 0x0D
	backslash = '\\'
)

// needsEscape is the set of bytes Escape rewrites.
var needsEscape = []byte{nul, lf, cr, backslash}

// Escape maps NUL, LF, CR, and backslash to \0, \n, \r, \\ respectively and
// leaves every other byte unchanged. If s contains none of those bytes the
// input is returned without allocating.
func Escape(s []byte) []byte {
	if !bytes.ContainsAny(s, string(needsEscape)) {
		return s
	}

	out := make([]byte, 0, len(s)+4)
	for _, b := range s {
		switch b {
		case nul:
			out = append(out, backslash, '0')
		case lf:
			out = append(out, backslash, 'n')
		case cr:
			out = append(out, backslash, 'r')
		case backslash:
			out = append(out, backslash, backslash)
		default:
			out = append(out, b)
		}
	}
	return out
}

// Unescape reverses Escape. It fails with an EscapeDecode error of kind
// TrailingBackslash if the input ends in a lone backslash, or InvalidEscape
// if a backslash is followed by any byte other than '0', 'n', 'r', '\\'.
func Unescape(s []byte) ([]byte, error) {
	if bytes.IndexByte(s, backslash) == -1 {
		return s, nil
	}

	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b != backslash {
			out = append(out, b)
			continue
		}
		if i+1 >= len(s) {
			return nil, &zoog.Error{Kind: zoog.EscapeDecode, Escape: zoog.TrailingBackslash}
		}
		i++
		switch s[i] {
		case '0':
			out = append(out, nul)
		case 'n':
			out = append(out, lf)
		case 'r':
			out = append(out, cr)
		case backslash:
			out = append(out, backslash)
		default:
			return nil, &zoog.Error{Kind: zoog.EscapeDecode, Escape: zoog.InvalidEscape, EscapeByte: s[i]}
		}
	}
	return out, nil
}
