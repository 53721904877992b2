package resolver

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/go-novel-spider/config"
)

var (
	downloadClassPattern = regexp.MustCompile(`(?i)btn-dl|download`)
	downloadTextPattern  = regexp.MustCompile(`(?i)TXT下载`)
	bookIDPattern        = regexp.MustCompile(`/book/(\d+)/?`)
)

// Strategy names, reported on DownloadTarget.
const (
	StrategyAnchor      = "detail_anchor"
	StrategyTemplate    = "id_template"
	StrategyReadingPage = "reading_page"
)

// BookID extracts the numeric work id from a detail URL.
func BookID(detailURL string) (string, bool) {
	m := bookIDPattern.FindStringSubmatch(detailURL)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// AnchorStrategy scans the detail page for a download anchor.
type AnchorStrategy struct {
	pages PageSource
	root  *url.URL
}

// NewAnchorStrategy resolves relative hrefs against siteRoot.
func NewAnchorStrategy(pages PageSource, siteRoot string) (*AnchorStrategy, error) {
	root, err := url.Parse(siteRoot)
	if err != nil {
		return nil, fmt.Errorf("parse site root: %w", err)
	}
	if root.Host == "" {
		return nil, fmt.Errorf("site root must include a host")
	}
	return &AnchorStrategy{pages: pages, root: root}, nil
}

func (s *AnchorStrategy) Name() string { return StrategyAnchor }

func (s *AnchorStrategy) Resolve(ctx context.Context, detailURL string) (string, bool) {
	html, err := s.pages.FetchPage(ctx, detailURL)
	if err != nil {
		return "", false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false
	}

	anchors := doc.Find("a").FilterFunction(func(_ int, a *goquery.Selection) bool {
		class, _ := a.Attr("class")
		return downloadClassPattern.MatchString(class)
	})
	if anchors.Length() == 0 {
		anchors = doc.Find("a").FilterFunction(func(_ int, a *goquery.Selection) bool {
			return downloadTextPattern.MatchString(a.Text())
		})
	}

	var found string
	anchors.EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if abs, ok := resolveHref(s.root, href); ok {
			found = abs
			return false
		}
		return true
	})
	return found, found != ""
}

// TemplateStrategy builds the canonical endpoint from the work id.
type TemplateStrategy struct {
	template string
}

// NewTemplateStrategy substitutes the id into template's {id} placeholder.
func NewTemplateStrategy(template string) *TemplateStrategy {
	return &TemplateStrategy{template: template}
}

func (s *TemplateStrategy) Name() string { return StrategyTemplate }

func (s *TemplateStrategy) Resolve(_ context.Context, detailURL string) (string, bool) {
	id, ok := BookID(detailURL)
	if !ok {
		return "", false
	}
	return strings.ReplaceAll(s.template, config.IDPlaceholder, id), true
}

// ReadingPageStrategy scans the reading page of the same work for a .txt link.
type ReadingPageStrategy struct {
	pages    PageSource
	template string
}

// NewReadingPageStrategy builds reading page URLs from template's {id} placeholder.
func NewReadingPageStrategy(pages PageSource, template string) *ReadingPageStrategy {
	return &ReadingPageStrategy{pages: pages, template: template}
}

func (s *ReadingPageStrategy) Name() string { return StrategyReadingPage }

func (s *ReadingPageStrategy) Resolve(ctx context.Context, detailURL string) (string, bool) {
	id, ok := BookID(detailURL)
	if !ok {
		return "", false
	}
	readURL := strings.ReplaceAll(s.template, config.IDPlaceholder, id)
	base, err := url.Parse(readURL)
	if err != nil {
		return "", false
	}

	html, err := s.pages.FetchPage(ctx, readURL)
	if err != nil {
		return "", false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false
	}

	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil || !strings.HasSuffix(strings.ToLower(ref.Path), ".txt") {
			return true
		}
		found = base.ResolveReference(ref).String()
		return false
	})
	return found, found != ""
}

func resolveHref(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(strings.ToLower(href), "javascript:") || href == "#" {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	return base.ResolveReference(ref).String(), true
}
