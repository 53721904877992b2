package scraper

import (
	"fmt"

	"github.com/aluiziolira/go-novel-spider/models"
	lru "github.com/hashicorp/golang-lru/v2"
)

// deduplicate keeps the first entry for each detail URL, in order. The seen
// set is sized to hold every raw entry so nothing is evicted mid-session.
func deduplicate(entries []models.ListingEntry, maxSize int) ([]models.ListingEntry, error) {
	size := maxSize
	if len(entries) > size {
		size = len(entries)
	}
	if size <= 0 {
		size = 1
	}

	seen, err := lru.New[string, struct{}](size)
	if err != nil {
		return nil, fmt.Errorf("create dedup set: %w", err)
	}

	unique := make([]models.ListingEntry, 0, len(entries))
	for _, entry := range entries {
		if seen.Contains(entry.DetailURL) {
			continue
		}
		seen.Add(entry.DetailURL, struct{}{})
		unique = append(unique, entry)
	}
	return unique, nil
}
