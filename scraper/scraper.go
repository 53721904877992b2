package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aluiziolira/go-novel-spider/config"
	"github.com/aluiziolira/go-novel-spider/decoder"
	"github.com/aluiziolira/go-novel-spider/models"
	"github.com/aluiziolira/go-novel-spider/parser"
	"github.com/aluiziolira/go-novel-spider/resolver"
)

// Store persists decoded documents and records download outcomes.
type Store interface {
	Save(entry models.ListingEntry, doc models.DecodedDocument) (string, error)
	Record(rec models.DownloadRecord) error
}

// Scraper drives pagination, deduplication and the download sequence.
type Scraper struct {
	cfg      *config.Config
	fetcher  *Fetcher
	resolver *resolver.Resolver
	decoder  *decoder.Decoder
	store    Store
	pacer    *pacer
	Metrics  *Metrics

	// ProgressOutput receives the progress bar when cfg.ShowProgress is set.
	ProgressOutput io.Writer
}

// NewScraper builds a scraper instance configured from cfg.
func NewScraper(cfg *config.Config, store Store) (*Scraper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}

	dec, err := decoder.New(cfg.DecodeCharsets...)
	if err != nil {
		return nil, fmt.Errorf("configure decoder: %w", err)
	}

	metrics := NewMetrics()
	fetcher := NewFetcher(cfg, metrics)
	res, err := resolver.NewDefault(fetcher, cfg)
	if err != nil {
		return nil, fmt.Errorf("configure resolver: %w", err)
	}

	return &Scraper{
		cfg:      cfg,
		fetcher:  fetcher,
		resolver: res,
		decoder:  dec,
		store:    store,
		pacer:    fetcher.pacer,
		Metrics:  metrics,
	}, nil
}

// Fetcher exposes the underlying fetcher, e.g. to swap its transport.
func (s *Scraper) Fetcher() *Fetcher {
	return s.fetcher
}

// Run crawls the listing pages, then downloads every unique entry. The
// returned session is valid even when err is non-nil; err is only set when
// ctx is cancelled.
func (s *Scraper) Run(ctx context.Context) (*models.CrawlSession, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	session := models.NewCrawlSession()
	log := slog.With(slog.String("session", session.ID))

	if err := s.crawlPages(ctx, session, log); err != nil {
		session.Finish()
		return session, err
	}

	unique, err := deduplicate(session.RawEntries, s.cfg.DedupeMaxSize)
	if err != nil {
		session.Finish()
		return session, err
	}
	session.UniqueEntries = unique
	log.Info("listing collected",
		slog.Int("pages", session.PagesVisited),
		slog.Int("failed_pages", session.PagesFailed),
		slog.Int("entries", len(session.RawEntries)),
		slog.Int("unique", len(unique)),
	)

	err = s.downloadAll(ctx, session, log)
	session.Finish()
	log.Info("crawl complete",
		slog.Int("succeeded", session.Succeeded),
		slog.Int("attempted", session.Attempted),
		slog.Duration("duration", session.Duration()),
	)
	return session, err
}

func (s *Scraper) crawlPages(ctx context.Context, session *models.CrawlSession, log *slog.Logger) error {
	for i := 0; i < s.cfg.MaxPages; i++ {
		page := s.cfg.StartPage + i
		pageURL := s.cfg.PageURL(page)
		log.Info("fetching listing page", slog.Int("page", page), slog.String("url", pageURL))

		html, err := s.fetcher.FetchPage(ctx, pageURL)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			session.PagesFailed++
			s.Metrics.IncPage("failed")
			log.Warn("listing page unavailable", slog.Int("page", page), slog.Any("error", err))
			continue
		}

		listing, err := parser.ParseListing(html, pageURL, page)
		if err != nil {
			session.PagesFailed++
			s.Metrics.IncPage("unparsable")
			log.Warn("listing page unparsable", slog.Int("page", page), slog.Any("error", err))
			continue
		}
		for _, skip := range listing.Skips {
			log.Debug("listing item skipped", slog.Int("page", page), slog.Any("skip", skip))
		}

		session.AddPage(listing.Entries)
		s.Metrics.IncPage("ok")
		s.Metrics.AddEntries(len(listing.Entries))
		log.Info("listing page parsed",
			slog.Int("page", page),
			slog.Int("entries", len(listing.Entries)),
			slog.Int("skipped", len(listing.Skips)),
		)

		if i < s.cfg.MaxPages-1 {
			if err := s.pacer.wait(ctx, s.cfg.PageDelay); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Scraper) downloadAll(ctx context.Context, session *models.CrawlSession, log *slog.Logger) error {
	total := len(session.UniqueEntries)
	bar := newProgress(s.cfg.ShowProgress, total, s.ProgressOutput)
	defer bar.finish()

	for i, entry := range session.UniqueEntries {
		rec := s.download(ctx, session.ID, entry)
		if ctx.Err() != nil && rec.Status != models.StatusSucceeded {
			return ctx.Err()
		}

		session.RecordAttempt(rec.Status)
		s.Metrics.IncDownload(rec.Status)
		bar.step()
		if err := s.store.Record(rec); err != nil {
			log.Error("record download", slog.String("title", entry.Title), slog.Any("error", err))
		}

		attrs := []any{
			slog.String("progress", fmt.Sprintf("%d/%d", i+1, total)),
			slog.String("title", entry.Title),
			slog.String("author", entry.Author),
		}
		if rec.Status == models.StatusSucceeded {
			log.Info("download succeeded", append(attrs,
				slog.String("file", rec.File),
				slog.String("charset", rec.Charset),
				slog.Bool("lossy", rec.Lossy),
			)...)
		} else {
			log.Warn("download failed", append(attrs,
				slog.String("status", rec.Status),
				slog.String("error", rec.Error),
			)...)
		}

		if i < total-1 {
			if err := s.pacer.wait(ctx, s.cfg.ItemDelay); err != nil {
				return err
			}
		}
	}
	return nil
}

// download runs resolve, fetch, decode and persist for one entry. Every
// failure is reported in the record; nothing here aborts the session.
func (s *Scraper) download(ctx context.Context, sessionID string, entry models.ListingEntry) models.DownloadRecord {
	rec := models.DownloadRecord{
		SessionID: sessionID,
		Title:     entry.Title,
		Author:    entry.Author,
		DetailURL: entry.DetailURL,
		At:        time.Now(),
	}

	body, target, err := s.fetchContent(ctx, entry)
	rec.DownloadURL = target.URI
	rec.Strategy = target.Strategy
	if err != nil {
		rec.Error = err.Error()
		rec.Status = models.StatusFetch
		if errors.Is(err, resolver.ErrNoDownloadLink) {
			rec.Status = models.StatusNoLink
		}
		return rec
	}

	doc := s.decoder.Decode(body)
	rec.Charset = doc.Charset
	rec.Lossy = doc.Lossy
	rec.Bytes = len(body)

	path, err := s.store.Save(entry, doc)
	if err != nil {
		rec.Status = models.StatusWrite
		rec.Error = err.Error()
		return rec
	}
	rec.File = path
	rec.Status = models.StatusSucceeded
	return rec
}

// fetchContent resolves and downloads the entry, falling back to the
// reading page chain when the primary chain misses or its URI fails.
func (s *Scraper) fetchContent(ctx context.Context, entry models.ListingEntry) ([]byte, models.DownloadTarget, error) {
	target, err := s.resolver.Resolve(ctx, entry.DetailURL)
	if err == nil {
		body, derr := s.fetcher.Download(ctx, target.URI)
		if derr == nil {
			return body, target, nil
		}
		err = derr
	}
	if ctx.Err() != nil {
		return nil, target, ctx.Err()
	}
	primaryErr := err

	fallback, ferr := s.resolver.ResolveFallback(ctx, entry.DetailURL)
	if ferr != nil || fallback.URI == target.URI {
		return nil, target, primaryErr
	}

	slog.Debug("trying reading page fallback",
		slog.String("title", entry.Title),
		slog.String("uri", fallback.URI),
		slog.Any("primary_error", primaryErr),
	)
	body, err := s.fetcher.Download(ctx, fallback.URI)
	if err != nil {
		return nil, fallback, err
	}
	return body, fallback, nil
}
