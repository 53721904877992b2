package models

import (
	"time"

	"github.com/google/uuid"
)

// CrawlSession is owned by a single run and never persisted.
type CrawlSession struct {
	ID            string
	StartTime     time.Time
	EndTime       time.Time
	PagesVisited  int
	PagesFailed   int
	RawEntries    []ListingEntry
	UniqueEntries []ListingEntry
	Attempted     int
	Succeeded     int
	Failures      map[string]int
}

// NewCrawlSession starts a session with a fresh id.
func NewCrawlSession() *CrawlSession {
	return &CrawlSession{
		ID:        uuid.New().String(),
		StartTime: time.Now(),
		Failures:  make(map[string]int),
	}
}

// AddPage records a fetched page and appends its entries in order.
func (s *CrawlSession) AddPage(entries []ListingEntry) {
	s.PagesVisited++
	s.RawEntries = append(s.RawEntries, entries...)
}

// RecordAttempt counts one download attempt; status is a Status* constant.
func (s *CrawlSession) RecordAttempt(status string) {
	s.Attempted++
	if status == StatusSucceeded {
		s.Succeeded++
		return
	}
	s.Failures[status]++
}

// Finish stamps the end time.
func (s *CrawlSession) Finish() {
	s.EndTime = time.Now()
}

// Duration is the wall time of the session so far.
func (s *CrawlSession) Duration() time.Duration {
	end := s.EndTime
	if end.IsZero() {
		end = time.Now()
	}
	return end.Sub(s.StartTime)
}
