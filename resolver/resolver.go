// Package resolver turns a detail page reference into a download URI
// through an ordered chain of independent strategies.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aluiziolira/go-novel-spider/config"
	"github.com/aluiziolira/go-novel-spider/models"
)

// ErrNoDownloadLink is returned when every strategy misses.
var ErrNoDownloadLink = errors.New("resolver: no download link")

// PageSource fetches a page as decoded text.
type PageSource interface {
	FetchPage(ctx context.Context, url string) (string, error)
}

// Strategy is one heuristic mapping a detail URL to an optional URI.
type Strategy interface {
	Name() string
	Resolve(ctx context.Context, detailURL string) (string, bool)
}

// Resolver runs the primary chain and, on request, the fallback chain.
type Resolver struct {
	primary  []Strategy
	fallback []Strategy
}

// New builds a resolver from explicit chains.
func New(primary []Strategy, fallback []Strategy) *Resolver {
	return &Resolver{primary: primary, fallback: fallback}
}

// NewDefault wires the detail-page anchor scan and the id template as the
// primary chain, and the reading page scan as the fallback chain.
func NewDefault(pages PageSource, cfg *config.Config) (*Resolver, error) {
	anchor, err := NewAnchorStrategy(pages, cfg.SiteRoot)
	if err != nil {
		return nil, err
	}
	primary := []Strategy{anchor, NewTemplateStrategy(cfg.DownloadURLTemplate)}

	var fallback []Strategy
	if cfg.ReadingURLTemplate != "" {
		fallback = append(fallback, NewReadingPageStrategy(pages, cfg.ReadingURLTemplate))
	}
	return New(primary, fallback), nil
}

// Resolve tries the primary chain; the first hit wins.
func (r *Resolver) Resolve(ctx context.Context, detailURL string) (models.DownloadTarget, error) {
	return run(ctx, r.primary, detailURL)
}

// ResolveFallback tries the secondary chain, used when the primary URI
// could not be downloaded.
func (r *Resolver) ResolveFallback(ctx context.Context, detailURL string) (models.DownloadTarget, error) {
	return run(ctx, r.fallback, detailURL)
}

func run(ctx context.Context, chain []Strategy, detailURL string) (models.DownloadTarget, error) {
	for _, s := range chain {
		if err := ctx.Err(); err != nil {
			return models.DownloadTarget{}, err
		}
		uri, ok := s.Resolve(ctx, detailURL)
		if !ok {
			slog.Debug("resolver strategy missed",
				slog.String("strategy", s.Name()),
				slog.String("detail_url", detailURL),
			)
			continue
		}
		return models.DownloadTarget{URI: uri, Strategy: s.Name()}, nil
	}
	if err := ctx.Err(); err != nil {
		return models.DownloadTarget{}, err
	}
	return models.DownloadTarget{}, fmt.Errorf("%w for %s", ErrNoDownloadLink, detailURL)
}
