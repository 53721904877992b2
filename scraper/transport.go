package scraper

import (
	"bufio"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
)

// browserHeaders is the header profile sent with every request. The
// User-Agent is filled in per request.
var browserHeaders = http.Header{
	"Accept":                    {"text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"},
	"Accept-Language":           {"zh-CN,zh;q=0.9,en;q=0.8"},
	"Accept-Encoding":           {"gzip, deflate, br"},
	"Connection":                {"keep-alive"},
	"Upgrade-Insecure-Requests": {"1"},
	"Cache-Control":             {"max-age=0"},
}

// newIdentity returns the client identification for a single request.
// Each call picks a fresh random User-Agent.
func newIdentity(agents []string) http.Header {
	h := browserHeaders.Clone()
	if len(agents) > 0 {
		h.Set("User-Agent", agents[randIndex(len(agents))])
	}
	return h
}

// decompressingTransport undoes the encodings advertised in browserHeaders.
// net/http only decompresses gzip when it set Accept-Encoding itself.
type decompressingTransport struct {
	base http.RoundTripper
}

func (t *decompressingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	encoding := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))
	switch encoding {
	case "gzip":
		reader, err = gzip.NewReader(resp.Body)
	case "deflate":
		reader, err = newDeflateReader(resp.Body)
	case "br":
		reader = brotli.NewReader(resp.Body)
	default:
		return resp, nil
	}
	if err != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("open %s body: %w", encoding, err)
	}

	resp.Body = &decodedBody{Reader: reader, raw: resp.Body}
	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	resp.Uncompressed = true
	return resp, nil
}

// newDeflateReader accepts both zlib-wrapped and raw DEFLATE streams; servers
// disagree on what "deflate" means.
func newDeflateReader(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	header, err := br.Peek(2)
	if err == nil && isZlibHeader(header) {
		return zlib.NewReader(br)
	}
	return flate.NewReader(br), nil
}

// isZlibHeader checks the CMF/FLG pair defined by RFC 1950.
func isZlibHeader(b []byte) bool {
	return b[0]&0x0f == 8 && (uint16(b[0])<<8|uint16(b[1]))%31 == 0
}

type decodedBody struct {
	io.Reader
	raw io.ReadCloser
}

func (b *decodedBody) Close() error {
	if c, ok := b.Reader.(io.Closer); ok {
		c.Close()
	}
	return b.raw.Close()
}
