// Package models defines data structures for the spider.
package models

import "time"

// Listing regions an entry can come from.
const (
	SourceFeatured = "featured"
	SourceList     = "list"
)

// ListingEntry is one catalog row. DetailURL is its identity.
type ListingEntry struct {
	Title     string `csv:"title" json:"title"`
	Author    string `csv:"author" json:"author"`
	DetailURL string `csv:"detail_url" json:"detail_url"`
	Source    string `csv:"source" json:"source"`
	Page      int    `csv:"page" json:"page"`
}

// DownloadTarget is the resolved content location for one entry.
type DownloadTarget struct {
	URI      string
	Strategy string
}

// DecodedDocument is fetched content after charset recovery.
type DecodedDocument struct {
	Text    string
	Charset string
	Lossy   bool
}

// Download outcomes recorded in the manifest.
const (
	StatusSucceeded = "succeeded"
	StatusNoLink    = "no_link"
	StatusFetch     = "fetch_failed"
	StatusWrite     = "write_failed"
)

// DownloadRecord is one manifest row per attempted entry.
type DownloadRecord struct {
	SessionID   string    `csv:"session_id" json:"session_id"`
	Title       string    `csv:"title" json:"title"`
	Author      string    `csv:"author" json:"author"`
	DetailURL   string    `csv:"detail_url" json:"detail_url"`
	DownloadURL string    `csv:"download_url" json:"download_url,omitempty"`
	Strategy    string    `csv:"strategy" json:"strategy,omitempty"`
	File        string    `csv:"file" json:"file,omitempty"`
	Charset     string    `csv:"charset" json:"charset,omitempty"`
	Lossy       bool      `csv:"lossy" json:"lossy"`
	Bytes       int       `csv:"bytes" json:"bytes"`
	Status      string    `csv:"status" json:"status"`
	Error       string    `csv:"error" json:"error,omitempty"`
	At          time.Time `csv:"at" json:"at"`
}
