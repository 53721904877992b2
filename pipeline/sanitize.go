package pipeline

import "strings"

// reservedChars cannot appear in file names on common filesystems.
const reservedChars = `<>:"/\|?*`

// Sanitize replaces every reserved character with an underscore and leaves
// all other characters in place.
func Sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(reservedChars, r) {
			return '_'
		}
		return r
	}, name)
}

// FileName composes {title}_{author}.txt from sanitized parts.
func FileName(title, author string) string {
	return Sanitize(title) + "_" + Sanitize(author) + ".txt"
}
