package scraper

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/jarcoal/httpmock"
)

func compress(t *testing.T, encoding string, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	var w io.WriteCloser
	switch encoding {
	case "gzip":
		w = gzip.NewWriter(&buf)
	case "deflate":
		w = zlib.NewWriter(&buf)
	case "raw-deflate":
		fw, err := flate.NewWriter(&buf, flate.DefaultCompression)
		if err != nil {
			t.Fatalf("flate writer: %v", err)
		}
		w = fw
	case "br":
		w = brotli.NewWriter(&buf)
	default:
		t.Fatalf("unknown encoding %q", encoding)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatalf("compress: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close compressor: %v", err)
	}
	return buf.Bytes()
}

func TestDecompressingTransport(t *testing.T) {
	payload := []byte("第一章 plain text body")

	tests := []struct {
		name     string
		encoding string
		format   string
	}{
		{name: "gzip", encoding: "gzip", format: "gzip"},
		{name: "zlib deflate", encoding: "deflate", format: "deflate"},
		{name: "raw deflate", encoding: "deflate", format: "raw-deflate"},
		{name: "brotli", encoding: "br", format: "br"},
		{name: "identity"},
	}

	for _, tt := range tests {
		encoding := tt.encoding
		t.Run(tt.name, func(t *testing.T) {
			body := payload
			if tt.format != "" {
				body = compress(t, tt.format, payload)
			}

			mock := httpmock.NewMockTransport()
			mock.RegisterResponder(http.MethodGet, "http://example.test/file.txt",
				func(req *http.Request) (*http.Response, error) {
					resp := httpmock.NewBytesResponse(http.StatusOK, body)
					if encoding != "" {
						resp.Header.Set("Content-Encoding", encoding)
					}
					return resp, nil
				})

			rt := &decompressingTransport{base: mock}
			req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, "http://example.test/file.txt", nil)
			if err != nil {
				t.Fatalf("new request: %v", err)
			}
			resp, err := rt.RoundTrip(req)
			if err != nil {
				t.Fatalf("round trip: %v", err)
			}
			defer resp.Body.Close()

			got, err := io.ReadAll(resp.Body)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if !bytes.Equal(got, payload) {
				t.Fatalf("body=%q, want %q", got, payload)
			}
			if resp.Header.Get("Content-Encoding") != "" {
				t.Fatalf("Content-Encoding should be removed, got %q", resp.Header.Get("Content-Encoding"))
			}
		})
	}
}

func TestDecompressingTransportCorruptGzip(t *testing.T) {
	mock := httpmock.NewMockTransport()
	mock.RegisterResponder(http.MethodGet, "http://example.test/bad",
		func(req *http.Request) (*http.Response, error) {
			resp := httpmock.NewStringResponse(http.StatusOK, "not gzip at all")
			resp.Header.Set("Content-Encoding", "gzip")
			return resp, nil
		})

	rt := &decompressingTransport{base: mock}
	req, _ := http.NewRequest(http.MethodGet, "http://example.test/bad", nil)
	if _, err := rt.RoundTrip(req); err == nil {
		t.Fatal("expected error for corrupt gzip body")
	}
}

func TestDownloadThroughCompression(t *testing.T) {
	f, transport, _ := newTestFetcher(t)
	payload := []byte("chapter text")
	transport.RegisterResponder(http.MethodGet, "http://example.test/book.txt",
		func(req *http.Request) (*http.Response, error) {
			resp := httpmock.NewBytesResponse(http.StatusOK, compress(t, "br", payload))
			resp.Header.Set("Content-Encoding", "br")
			return resp, nil
		})

	got, err := f.Download(context.Background(), "http://example.test/book.txt")
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("body=%q", got)
	}
}

func TestNewIdentity(t *testing.T) {
	agents := []string{"agent-a", "agent-b"}
	for i := 0; i < 20; i++ {
		h := newIdentity(agents)
		ua := h.Get("User-Agent")
		if ua != "agent-a" && ua != "agent-b" {
			t.Fatalf("unexpected user agent %q", ua)
		}
		if h.Get("Accept-Encoding") == "" {
			t.Fatal("missing Accept-Encoding")
		}
	}
	if browserHeaders.Get("User-Agent") != "" {
		t.Fatal("newIdentity must not mutate the shared header profile")
	}
}
