// Package mailparser holds small helpers for decoding message headers
// from inbound mail.
package mailparser

import (
	"io"
	"mime"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
)

var charsets = map[string]encoding.Encoding{
	"iso-2022-jp": japanese.ISO2022JP,
	"shift_jis":   japanese.ShiftJIS,
	"euc-jp":      japanese.EUCJP,
}

// DecodeHeader decodes an RFC 2047 encoded-word header value. Japanese
// legacy charsets are handled; unknown charsets pass through undecoded.
func DecodeHeader(header string) (string, error) {
	dec := new(mime.WordDecoder)
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		if enc, ok := charsets[strings.ToLower(charset)]; ok {
			return enc.NewDecoder().Reader(input), nil
		}
		return input, nil
	}
	return dec.DecodeHeader(header)
}
