package main

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/aluiziolira/go-novel-spider/config"
	"github.com/aluiziolira/go-novel-spider/models"
)

func printSummary(w io.Writer, session *models.CrawlSession, cfg *config.Config, metrics map[string]int) {
	if session == nil {
		return
	}
	separator := "--------------------------------------------------"
	fmt.Fprintln(w, "\n"+separator)
	fmt.Fprintln(w, "Crawl complete")
	fmt.Fprintf(w, "  Session:       %s\n", session.ID)
	fmt.Fprintf(w, "  Pages:         %d visited, %d failed\n", session.PagesVisited, session.PagesFailed)
	fmt.Fprintf(w, "  Entries:       %d listed, %d unique\n", len(session.RawEntries), len(session.UniqueEntries))
	fmt.Fprintf(w, "  Downloaded:    %d/%d\n", session.Succeeded, session.Attempted)

	successRate := 0.0
	if session.Attempted > 0 {
		successRate = float64(session.Succeeded) / float64(session.Attempted) * 100
	}
	fmt.Fprintf(w, "  Success rate:  %.2f%%\n", successRate)
	for _, status := range slices.Sorted(maps.Keys(session.Failures)) {
		fmt.Fprintf(w, "  Failed (%s): %d\n", status, session.Failures[status])
	}
	if n := metrics["write_errors"]; n > 0 {
		fmt.Fprintf(w, "  Write errors:  %d\n", n)
	}
	fmt.Fprintf(w, "  Duration:      %v\n", session.Duration())
	fmt.Fprintf(w, "  Output dir:    %s\n", cfg.OutputDir)
	if cfg.ManifestFormat != "none" {
		fmt.Fprintf(w, "  Manifest:      %s (%s)\n", cfg.ManifestFile, cfg.ManifestFormat)
	}
	fmt.Fprintln(w, separator)
}
