package parser

import (
	"fmt"
	"strings"

	"github.com/aluiziolira/go-novel-spider/models"
)

// ValidateEntry ensures the parser captured the identity fields.
func ValidateEntry(e *models.ListingEntry) error {
	if e == nil {
		return fmt.Errorf("entry is nil")
	}
	if strings.TrimSpace(e.Title) == "" {
		return fmt.Errorf("entry missing title")
	}
	if strings.TrimSpace(e.DetailURL) == "" {
		return fmt.Errorf("entry missing detail link for %s", e.Title)
	}
	return nil
}

// NormalizeText collapses internal whitespace runs and trims the result.
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// NormalizeAuthor strips the label some listings prefix author names with.
func NormalizeAuthor(text string) string {
	text = NormalizeText(text)
	for _, prefix := range []string{"作者：", "作者:", "作者"} {
		if strings.HasPrefix(text, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(text, prefix))
		}
	}
	return text
}
