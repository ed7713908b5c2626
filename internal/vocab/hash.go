package vocab

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/Prygunov-Andrei/anki-cards-sub000/internal/domain"
)

// Normalize concatenates the word's content after cleaning each part.
// It trims whitespace, lowercases, and normalizes line endings for each field
// before joining them.
func Normalize(w domain.Word) string {
	normalizePart := func(part string) string {
		p := strings.ToLower(part)
		p = strings.TrimSpace(p)
		p = strings.ReplaceAll(p, "\r\n", "\n")
		return p
	}

	text := normalizePart(w.Text)
	translation := normalizePart(w.Translation)
	example := normalizePart(w.Example)

	// Join with a newline to keep the fields separated; "sol" + "sun" must
	// not collide with "so" + "lsun".
	return strings.Join([]string{text, translation, example}, "\n")
}

// Hash normalizes a word and returns its SHA-256 hash as a hex string.
// The hash identifies the same entry across repeated source scans.
func Hash(w domain.Word) string {
	normalized := Normalize(w)
	hashBytes := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", hashBytes)
}
