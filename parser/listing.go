// Package parser extracts catalog entries from listing pages.
package parser

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/go-novel-spider/models"
)

// Region selectors on the listing page.
const (
	FeaturedSelector = "div.item"
	ListSelector     = "ul.txt-list.txt-list-row5"
)

// Skip describes a listing item that could not be turned into an entry.
type Skip struct {
	Region string
	Index  int
	Reason string
}

func (s Skip) Error() string {
	return fmt.Sprintf("%s item %d: %s", s.Region, s.Index, s.Reason)
}

// Listing is the result of parsing one listing page.
type Listing struct {
	Entries []models.ListingEntry
	Skips   []Skip
}

// ParseListing runs the featured pass then the full-list pass over html.
// Relative detail links are resolved against pageURL. No deduplication
// happens here.
func ParseListing(html, pageURL string, page int) (Listing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Listing{}, fmt.Errorf("parse listing html: %w", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		base = nil
	}

	var out Listing
	doc.Find(FeaturedSelector).Each(func(i int, item *goquery.Selection) {
		entry, skip := extractFeatured(item, base)
		out.add(entry, skip, models.SourceFeatured, i, page)
	})
	doc.Find(ListSelector).First().Find("li").Each(func(i int, row *goquery.Selection) {
		entry, skip := extractRow(row, base)
		out.add(entry, skip, models.SourceList, i, page)
	})
	return out, nil
}

func (l *Listing) add(entry models.ListingEntry, reason, source string, index, page int) {
	if reason == "" {
		if err := ValidateEntry(&entry); err != nil {
			reason = err.Error()
		}
	}
	if reason != "" {
		l.Skips = append(l.Skips, Skip{Region: source, Index: index, Reason: reason})
		return
	}
	entry.Source = source
	entry.Page = page
	l.Entries = append(l.Entries, entry)
}

// extractFeatured reads <dt><a href>title</a><span>author</span></dt>.
func extractFeatured(item *goquery.Selection, base *url.URL) (models.ListingEntry, string) {
	dt := item.Find("dt").First()
	if dt.Length() == 0 {
		return models.ListingEntry{}, "missing dt"
	}
	link := dt.Find("a").First()
	if link.Length() == 0 {
		return models.ListingEntry{}, "missing title link"
	}
	author := dt.Find("span").First()
	if author.Length() == 0 {
		return models.ListingEntry{}, "missing author"
	}
	return newEntry(link, author, base), ""
}

// extractRow reads <span class="s2"><a/></span> ... <span class="s4">author</span>.
func extractRow(row *goquery.Selection, base *url.URL) (models.ListingEntry, string) {
	link := row.Find("span.s2 a").First()
	if link.Length() == 0 {
		return models.ListingEntry{}, "missing title link"
	}
	author := row.Find("span.s4").First()
	if author.Length() == 0 {
		return models.ListingEntry{}, "missing author"
	}
	return newEntry(link, author, base), ""
}

func newEntry(link, author *goquery.Selection, base *url.URL) models.ListingEntry {
	href, _ := link.Attr("href")
	return models.ListingEntry{
		Title:     NormalizeText(link.Text()),
		Author:    NormalizeAuthor(author.Text()),
		DetailURL: absoluteURL(base, href),
	}
}

func absoluteURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
