package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/aluiziolira/go-novel-spider/config"
	"github.com/gocolly/colly/v2"
	"golang.org/x/sync/semaphore"
)

// Request context keys shared with the collector callbacks.
const (
	ctxKind    = "kind"
	ctxCharset = "charset"
	ctxStart   = "start"
	ctxStatus  = "status"
	ctxBody    = "body"
)

// Request kinds, used as metric labels.
const (
	kindPage     = "page"
	kindDownload = "download"
)

// Fetcher issues paced, retried GET requests, one at a time.
type Fetcher struct {
	cfg       *config.Config
	pages     *colly.Collector
	downloads *colly.Collector
	inflight  *semaphore.Weighted
	pacer     *pacer
	metrics   *Metrics
}

// NewFetcher builds a fetcher whose page and download collectors differ
// only in their request timeout.
func NewFetcher(cfg *config.Config, metrics *Metrics) *Fetcher {
	f := &Fetcher{
		cfg:      cfg,
		inflight: semaphore.NewWeighted(1),
		pacer:    newPacer(),
		metrics:  metrics,
	}
	f.pages = f.newCollector(cfg.Timeout)
	f.downloads = f.newCollector(cfg.DownloadTimeout)
	f.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})
	return f
}

// WithTransport replaces the round tripper of both collectors.
func (f *Fetcher) WithTransport(rt http.RoundTripper) {
	wrapped := &decompressingTransport{base: rt}
	f.pages.WithTransport(wrapped)
	f.downloads.WithTransport(wrapped)
}

func (f *Fetcher) newCollector(timeout time.Duration) *colly.Collector {
	c := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.UserAgent(f.cfg.UserAgents[0]),
	)
	c.SetRequestTimeout(timeout)
	c.IgnoreRobotsTxt = true
	c.ParseHTTPErrorResponse = true
	c.MaxBodySize = f.cfg.MaxBodySize

	c.OnRequest(func(r *colly.Request) {
		r.Ctx.Put(ctxStart, time.Now())
		if cs := r.Ctx.Get(ctxCharset); cs != "" {
			r.ResponseCharacterEncoding = cs
		}
		f.metrics.IncRequest(r.Ctx.Get(ctxKind))
	})

	c.OnResponse(func(r *colly.Response) {
		r.Ctx.Put(ctxStatus, r.StatusCode)
		r.Ctx.Put(ctxBody, r.Body)
		if start, ok := r.Ctx.GetAny(ctxStart).(time.Time); ok {
			f.metrics.ObserveDuration(time.Since(start))
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.Ctx != nil {
			r.Ctx.Put(ctxStatus, r.StatusCode)
		}
	})
	return c
}

// FetchPage fetches a listing, detail or reading page. The body is decoded
// with the configured regional page charset regardless of what the server
// declares.
func (f *Fetcher) FetchPage(ctx context.Context, url string) (string, error) {
	body, err := f.fetch(ctx, f.pages, url, kindPage, f.cfg.PageCharset)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Download fetches content bytes. A charset the server declares is already
// applied by the collector; otherwise the bytes are returned untouched.
func (f *Fetcher) Download(ctx context.Context, url string) ([]byte, error) {
	body, err := f.fetch(ctx, f.downloads, url, kindDownload, "")
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("download %s: %w", url, ErrEmptyContent)
	}
	// The collector stops reading at MaxBodySize without reporting it.
	if f.cfg.MaxBodySize > 0 && len(body) >= f.cfg.MaxBodySize {
		f.metrics.IncError(errorTypeLabel(ErrTruncated))
		return nil, fmt.Errorf("download %s: %d bytes: %w", url, len(body), ErrTruncated)
	}
	return body, nil
}

func (f *Fetcher) fetch(ctx context.Context, c *colly.Collector, url, kind, charset string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= f.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			f.metrics.IncRetries()
			if err := f.pacer.wait(ctx, f.cfg.RetryDelay); err != nil {
				return nil, err
			}
		}
		if err := f.pacer.wait(ctx, f.cfg.PreRequestDelay); err != nil {
			return nil, err
		}

		body, err := f.do(ctx, c, url, kind, charset, newIdentity(f.cfg.UserAgents))
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		lastErr = err
		category := errorTypeLabel(err)
		f.metrics.IncError(category)
		slog.Warn("request failed",
			slog.String("url", url),
			slog.String("kind", kind),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", f.cfg.MaxAttempts),
			slog.String("category", category),
			slog.Any("error", err),
		)
	}
	return nil, &FetchError{URL: url, Attempts: f.cfg.MaxAttempts, Err: lastErr}
}

// do performs exactly one request while holding the in-flight slot.
func (f *Fetcher) do(ctx context.Context, c *colly.Collector, url, kind, charset string, identity http.Header) ([]byte, error) {
	if err := f.inflight.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer f.inflight.Release(1)

	rc := colly.NewContext()
	rc.Put(ctxKind, kind)
	rc.Put(ctxCharset, charset)

	err := c.Request(http.MethodGet, url, nil, rc, identity)
	status, _ := rc.GetAny(ctxStatus).(int)
	if err != nil {
		return nil, classifyError(err, status)
	}
	if status != http.StatusOK {
		return nil, classifyError(fmt.Errorf("unexpected status from %s", url), status)
	}
	body, _ := rc.GetAny(ctxBody).([]byte)
	return body, nil
}
