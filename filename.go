package memorycard

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/digitorus/memorycard/card"
)

const (
	// FilenamePrefix starts every exported filename.
	FilenamePrefix = "concert-memory"
	// UnknownDate stands in for an empty date.
	UnknownDate = "unknown-date"
	// Separator joins the filename parts and replaces runs of other
	// characters.
	Separator = "-"
)

// Filename derives the document name from the card:
// concert-memory-<artist>-<venue>-<date>.pdf, all parts slugged.
func Filename(c card.MemoryCard) string {
	date := Slug(c.Date)
	if date == "" {
		date = UnknownDate
	}
	parts := []string{FilenamePrefix, orUnknown(Slug(c.Artist)), orUnknown(Slug(c.Venue)), date}
	return strings.Join(parts, Separator) + ".pdf"
}

// SheetFilename is Filename with a -setlist suffix.
func SheetFilename(c card.MemoryCard) string {
	return strings.TrimSuffix(Filename(c), ".pdf") + Separator + "setlist.pdf"
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// Slug lower-cases s, folds accents and collapses every run of characters
// other than a-z and 0-9 into a single separator.
func Slug(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pending && b.Len() > 0 {
				b.WriteString(Separator)
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	return b.String()
}
