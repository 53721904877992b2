package resolver

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aluiziolira/go-novel-spider/config"
)

type fakePages struct {
	pages    map[string]string
	requests []string
}

func (f *fakePages) FetchPage(_ context.Context, url string) (string, error) {
	f.requests = append(f.requests, url)
	html, ok := f.pages[url]
	if !ok {
		return "", errors.New("page unavailable")
	}
	return html, nil
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.SiteRoot = "http://example.test"
	cfg.DownloadURLTemplate = "http://example.test/modules/article/txtarticle.php?id={id}"
	cfg.ReadingURLTemplate = "http://example.test/read/{id}/"
	return cfg
}

func newTestResolver(t *testing.T, pages *fakePages) *Resolver {
	t.Helper()
	r, err := NewDefault(pages, testConfig())
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	return r
}

func TestResolveDownloadAnchor(t *testing.T) {
	pages := &fakePages{pages: map[string]string{
		"http://example.test/book/123/": `<div><a href="/read/123/">在线阅读</a><a class="btn-dl" href="/x.txt">下载</a></div>`,
	}}

	target, err := newTestResolver(t, pages).Resolve(context.Background(), "http://example.test/book/123/")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if target.URI != "http://example.test/x.txt" {
		t.Fatalf("uri = %q, want http://example.test/x.txt", target.URI)
	}
	if target.Strategy != StrategyAnchor {
		t.Fatalf("strategy = %q, want %q", target.Strategy, StrategyAnchor)
	}
}

func TestAnchorStrategyMatching(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "download class case insensitive",
			html: `<a class="Big-DOWNLOAD-button" href="files/a.txt">get</a>`,
			want: "http://example.test/files/a.txt",
		},
		{
			name: "absolute href kept",
			html: `<a class="btn-dl" href="https://cdn.test/a.txt">get</a>`,
			want: "https://cdn.test/a.txt",
		},
		{
			name: "localized text",
			html: `<a href="/down/9.txt">txt下载</a>`,
			want: "http://example.test/down/9.txt",
		},
		{
			name: "class match preferred over text",
			html: `<a href="/by-text.txt">TXT下载</a><a class="download" href="/by-class.txt">x</a>`,
			want: "http://example.test/by-class.txt",
		},
		{
			name: "empty href skipped",
			html: `<a class="btn-dl">x</a><a class="btn-dl" href="/second.txt">y</a>`,
			want: "http://example.test/second.txt",
		},
		{
			name: "no match",
			html: `<a href="/other">read online</a>`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages := &fakePages{pages: map[string]string{"http://example.test/book/1/": tt.html}}
			s, err := NewAnchorStrategy(pages, "http://example.test")
			if err != nil {
				t.Fatalf("new strategy: %v", err)
			}
			got, ok := s.Resolve(context.Background(), "http://example.test/book/1/")
			if ok != (tt.want != "") || got != tt.want {
				t.Fatalf("Resolve() = %q/%v, want %q", got, ok, tt.want)
			}
		})
	}
}

func TestResolveTemplateFallback(t *testing.T) {
	pages := &fakePages{pages: map[string]string{
		"http://example.test/book/123/": `<html><body><p>no links</p></body></html>`,
	}}

	target, err := newTestResolver(t, pages).Resolve(context.Background(), "http://example.test/book/123/")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !strings.Contains(target.URI, "id=123") {
		t.Fatalf("uri = %q, want templated endpoint with id 123", target.URI)
	}
	if target.URI != "http://example.test/modules/article/txtarticle.php?id=123" {
		t.Fatalf("uri = %q", target.URI)
	}
	if target.Strategy != StrategyTemplate {
		t.Fatalf("strategy = %q, want %q", target.Strategy, StrategyTemplate)
	}
}

func TestResolveTemplateWhenDetailPageUnavailable(t *testing.T) {
	pages := &fakePages{pages: map[string]string{}}

	target, err := newTestResolver(t, pages).Resolve(context.Background(), "http://example.test/book/77")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if target.Strategy != StrategyTemplate || !strings.HasSuffix(target.URI, "id=77") {
		t.Fatalf("target = %+v", target)
	}
}

func TestResolveMiss(t *testing.T) {
	pages := &fakePages{pages: map[string]string{
		"http://example.test/novel/abc.html": `<p>nothing</p>`,
	}}

	_, err := newTestResolver(t, pages).Resolve(context.Background(), "http://example.test/novel/abc.html")
	if !errors.Is(err, ErrNoDownloadLink) {
		t.Fatalf("err = %v, want ErrNoDownloadLink", err)
	}
}

func TestResolveFallbackReadingPage(t *testing.T) {
	pages := &fakePages{pages: map[string]string{
		"http://example.test/read/55/": `<a href="chapter1.html">1</a><a href="../../files/55/full.TXT?src=read">txt</a>`,
	}}

	target, err := newTestResolver(t, pages).ResolveFallback(context.Background(), "http://example.test/book/55/")
	if err != nil {
		t.Fatalf("resolve fallback: %v", err)
	}
	if target.URI != "http://example.test/files/55/full.TXT?src=read" {
		t.Fatalf("uri = %q", target.URI)
	}
	if target.Strategy != StrategyReadingPage {
		t.Fatalf("strategy = %q", target.Strategy)
	}
	if len(pages.requests) != 1 || pages.requests[0] != "http://example.test/read/55/" {
		t.Fatalf("requests = %v", pages.requests)
	}
}

func TestResolveFallbackIgnoresTxtInQuery(t *testing.T) {
	pages := &fakePages{pages: map[string]string{
		"http://example.test/read/56/": `<a href="/search?q=a.txt">search</a>`,
	}}

	_, err := newTestResolver(t, pages).ResolveFallback(context.Background(), "http://example.test/book/56/")
	if !errors.Is(err, ErrNoDownloadLink) {
		t.Fatalf("err = %v, want ErrNoDownloadLink", err)
	}
}

func TestResolveStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pages := &fakePages{pages: map[string]string{}}
	_, err := newTestResolver(t, pages).Resolve(ctx, "http://example.test/book/1/")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(pages.requests) != 0 {
		t.Fatalf("no page should be fetched after cancellation, got %v", pages.requests)
	}
}

func TestBookID(t *testing.T) {
	tests := []struct {
		url    string
		want   string
		wantOK bool
	}{
		{url: "https://www.qishuxia.com/book/123/", want: "123", wantOK: true},
		{url: "https://www.qishuxia.com/book/4567", want: "4567", wantOK: true},
		{url: "https://www.qishuxia.com/books/abc/", wantOK: false},
		{url: "", wantOK: false},
	}
	for _, tt := range tests {
		got, ok := BookID(tt.url)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("BookID(%q) = %q/%v, want %q/%v", tt.url, got, ok, tt.want, tt.wantOK)
		}
	}
}
