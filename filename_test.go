package memorycard

import (
	"testing"

	"github.com/digitorus/memorycard/card"
)

func TestFilename(t *testing.T) {
	tests := []struct {
		artist, venue, date string
		want                string
	}{
		{"Dead Kennedys", "CBGB", "1981-06-15", "concert-memory-dead-kennedys-cbgb-1981-06-15.pdf"},
		{"Dead Kennedys", "CBGB", "", "concert-memory-dead-kennedys-cbgb-unknown-date.pdf"},
		{"Björk", "Café Oto", "2001-09-01", "concert-memory-bjork-cafe-oto-2001-09-01.pdf"},
		{"  The  Clash!! ", "Bonds  (NYC)", "1981-05-28", "concert-memory-the-clash-bonds-nyc-1981-05-28.pdf"},
		{"AC/DC", "9:30 Club", "1979-08-04", "concert-memory-ac-dc-9-30-club-1979-08-04.pdf"},
		{"ニルヴァーナ", "Paradiso", "1991-11-25", "concert-memory-unknown-paradiso-1991-11-25.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			c := card.New().WithArtist(tt.artist).WithVenue(tt.venue).WithDate(tt.date)
			if got := Filename(c); got != tt.want {
				t.Errorf("Filename() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFilenameIsDeterministic(t *testing.T) {
	c := card.New().WithArtist("Minor Threat").WithVenue("Wilson Center").WithDate("1983-09-23")
	if Filename(c) != Filename(c.WithNotes("changed notes")) {
		t.Error("filename depends on fields other than artist, venue and date")
	}
}

func TestSheetFilename(t *testing.T) {
	c := card.New().WithArtist("Dead Kennedys").WithVenue("CBGB")
	want := "concert-memory-dead-kennedys-cbgb-unknown-date-setlist.pdf"
	if got := SheetFilename(c); got != want {
		t.Errorf("SheetFilename() = %q, want %q", got, want)
	}
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"":              "",
		"---":           "",
		"Motörhead":     "motorhead",
		"Sigur Rós":     "sigur-ros",
		"a  --  b":      "a-b",
		"2024-01-02":    "2024-01-02",
		"Señor & Ñandú": "senor-nandu",
	}
	for in, want := range tests {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}
