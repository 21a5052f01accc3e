package layout

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-openapi/strfmt"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/digitorus/memorycard/fonts"
)

// ThumbnailLimit is the number of runes kept from notes and highlights in
// thumbnail renders.
const ThumbnailLimit = 60

// Ellipsis is appended to truncated text.
const Ellipsis = "..."

// DateLayout is the display format of concert dates.
const DateLayout = "January 2, 2006"

// Placeholders for empty fields.
const (
	PlaceholderArtist = "ARTIST NAME"
	PlaceholderVenue  = "VENUE NAME"
	PlaceholderDate   = "TBD"
)

var upper = cases.Upper(language.Und)

// Upper upper-cases s with full Unicode case mapping.
func Upper(s string) string {
	return upper.String(s)
}

// Truncate keeps the first n runes of s and appends an ellipsis when s was
// longer.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + Ellipsis
}

// FormatDate renders an ISO date for display. Empty dates render as TBD and
// dates that do not parse are shown as typed.
func FormatDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return PlaceholderDate
	}
	var d strfmt.Date
	if err := d.UnmarshalText([]byte(s)); err != nil {
		return s
	}
	return time.Time(d).Format(DateLayout)
}

// Year returns the year of an ISO date, or "" when it does not parse.
func Year(s string) string {
	var d strfmt.Date
	if strings.TrimSpace(s) == "" || d.UnmarshalText([]byte(strings.TrimSpace(s))) != nil {
		return ""
	}
	return strconv.Itoa(time.Time(d).Year())
}

// SetlistLine is one rendered setlist row.
type SetlistLine struct {
	Number  int // 0 for headings
	Text    string
	Heading bool
}

func (l SetlistLine) String() string {
	if l.Heading {
		return l.Text
	}
	return strconv.Itoa(l.Number) + ". " + l.Text
}

var numberPrefix = regexp.MustCompile(`^\d+\s*[.)]\s*`)

// FormatSetlist filters blank entries, strips existing numbering and numbers
// songs from 1. Entries ending with a colon are set names and are not
// numbered.
func FormatSetlist(entries []string) []SetlistLine {
	var out []SetlistLine
	n := 0
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if strings.HasSuffix(e, ":") {
			out = append(out, SetlistLine{Text: e, Heading: true})
			continue
		}
		if s := strings.TrimSpace(numberPrefix.ReplaceAllString(e, "")); s != "" {
			e = s
		}
		n++
		out = append(out, SetlistLine{Number: n, Text: e})
	}
	return out
}

// Wrap breaks text into lines no wider than width. Explicit line breaks are
// kept and words longer than a line are split between runes.
func Wrap(f *fonts.Font, text string, size, width float64) []string {
	var lines []string
	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		var cur string
		for _, w := range words {
			candidate := w
			if cur != "" {
				candidate = cur + " " + w
			}
			if f.Width(candidate, size) <= width {
				cur = candidate
				continue
			}
			if cur != "" {
				lines = append(lines, cur)
				cur = ""
			}
			for f.Width(w, size) > width {
				head, tail := splitAt(f, w, size, width)
				lines = append(lines, head)
				w = tail
			}
			cur = w
		}
		lines = append(lines, cur)
	}
	return lines
}

// splitAt returns the longest prefix of w that fits width, and the rest. At
// least one rune is always taken.
func splitAt(f *fonts.Font, w string, size, width float64) (string, string) {
	r := []rune(w)
	i := 1
	for i < len(r) && f.Width(string(r[:i+1]), size) <= width {
		i++
	}
	return string(r[:i]), string(r[i:])
}
