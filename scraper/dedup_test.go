package scraper

import (
	"testing"

	"github.com/aluiziolira/go-novel-spider/models"
)

func TestDeduplicate(t *testing.T) {
	entry := func(url, title string) models.ListingEntry {
		return models.ListingEntry{Title: title, DetailURL: url}
	}

	tests := []struct {
		name    string
		in      []models.ListingEntry
		maxSize int
		want    []string
	}{
		{
			name: "first occurrence wins",
			in:   []models.ListingEntry{entry("u1", "a"), entry("u2", "b"), entry("u2", "b2"), entry("u3", "c")},
			want: []string{"a", "b", "c"},
		},
		{
			name: "title is not identity",
			in:   []models.ListingEntry{entry("u1", "same"), entry("u2", "same")},
			want: []string{"same", "same"},
		},
		{
			name:    "no eviction past max size",
			in:      []models.ListingEntry{entry("u1", "a"), entry("u2", "b"), entry("u3", "c"), entry("u1", "a2")},
			maxSize: 1,
			want:    []string{"a", "b", "c"},
		},
		{
			name: "empty",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			maxSize := tt.maxSize
			if maxSize == 0 {
				maxSize = 100
			}
			got, err := deduplicate(tt.in, maxSize)
			if err != nil {
				t.Fatalf("deduplicate: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d entries, want %d: %+v", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i].Title != tt.want[i] {
					t.Errorf("entry %d title=%q, want %q", i, got[i].Title, tt.want[i])
				}
			}
		})
	}
}
