// Package decoder recovers text from fetched bytes of unknown charset.
package decoder

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/aluiziolira/go-novel-spider/models"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
)

// FallbackCharset names the forced decode used when every candidate fails.
const FallbackCharset = "utf-8"

var replacement = []byte(string(utf8.RuneError))

type candidate struct {
	label    string
	enc      encoding.Encoding
	validate func([]byte) bool
}

// Decoder tries an ordered list of charsets and keeps the first clean decode.
type Decoder struct {
	candidates []candidate
}

// New builds a decoder over labels in priority order. Labels are WHATWG names
// such as "utf-8", "gbk", "gb2312" or "big5".
func New(labels ...string) (*Decoder, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("decoder needs at least one charset")
	}
	d := &Decoder{candidates: make([]candidate, 0, len(labels))}
	for _, label := range labels {
		label = normalizeLabel(label)
		enc, _ := charset.Lookup(label)
		if enc == nil {
			return nil, fmt.Errorf("unknown charset %q", label)
		}
		d.candidates = append(d.candidates, candidate{
			label:    label,
			enc:      enc,
			validate: validators[label],
		})
	}
	return d, nil
}

// Decode returns the first candidate that decodes b cleanly. When none does,
// b is forced through UTF-8 with invalid sequences dropped and the result is
// marked lossy. Decode never fails.
func (d *Decoder) Decode(b []byte) models.DecodedDocument {
	for _, c := range d.candidates {
		if text, ok := c.decode(b); ok {
			return models.DecodedDocument{Text: text, Charset: c.label}
		}
	}
	return models.DecodedDocument{
		Text:    strings.ToValidUTF8(string(b), ""),
		Charset: FallbackCharset,
		Lossy:   true,
	}
}

func (c candidate) decode(b []byte) (string, bool) {
	if c.label == "utf-8" || c.label == "utf8" {
		if !utf8.Valid(b) {
			return "", false
		}
		return string(b), true
	}
	if c.validate != nil && !c.validate(b) {
		return "", false
	}
	out, err := c.enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", false
	}
	// x/text decoders substitute U+FFFD instead of failing.
	if bytes.Contains(out, replacement) {
		return "", false
	}
	return string(out), true
}

func normalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}
