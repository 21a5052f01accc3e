// Package card defines the content record of a concert memory and the
// customization options that control how it is drawn.
//
// All types are values. Edits return a new record instead of mutating the
// receiver so a renderer or an export can hold a consistent snapshot while
// the user keeps typing.
package card

import (
	"strings"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
)

// Field names used in validation errors.
const (
	FieldArtist = "artist"
	FieldVenue  = "venue"
)

// DefaultMoodRating is the mood of a freshly created card.
const DefaultMoodRating = 3

// Photo is an uploaded picture, already decoded to a data URI by the upload
// collaborator.
type Photo struct {
	ID       string `json:"id" toml:"id"`
	Source   string `json:"source" toml:"source"` // data:image/...;base64,...
	Filename string `json:"filename" toml:"filename"`
}

// NewPhoto returns a Photo with a fresh unique id.
func NewPhoto(source, filename string) Photo {
	return Photo{
		ID:       uuid.NewString(),
		Source:   source,
		Filename: filename,
	}
}

// MemoryCard is the authoritative content of one concert memory.
type MemoryCard struct {
	Artist     string   `json:"artist" toml:"artist"`
	Venue      string   `json:"venue" toml:"venue"`
	Date       string   `json:"date" toml:"date"` // YYYY-MM-DD or empty
	City       string   `json:"city" toml:"city"`
	Genre      string   `json:"genre" toml:"genre"`
	Notes      string   `json:"notes" toml:"notes"`
	Highlights string   `json:"highlights" toml:"highlights"`
	Setlist    []string `json:"setlist" toml:"setlist"`
	Emotions   []string `json:"emotions" toml:"emotions"`
	MoodRating int      `json:"mood_rating" toml:"mood_rating"`
	Intensity  int      `json:"intensity" toml:"intensity"` // 0 = not rated
	Photos     []Photo  `json:"photos" toml:"photos"`
}

// New returns an empty card with default values.
func New() MemoryCard {
	return MemoryCard{MoodRating: DefaultMoodRating}
}

// Normalize clamps ratings into their scales and returns the result.
func (c MemoryCard) Normalize() MemoryCard {
	c = c.clone()
	c.MoodRating = MoodScale.Clamp(c.MoodRating)
	if c.Intensity != 0 {
		c.Intensity = IntensityScale.Clamp(c.Intensity)
	}
	return c
}

// Missing returns the required fields that are empty, in a stable order.
func (c MemoryCard) Missing() []string {
	var missing []string
	if strings.TrimSpace(c.Artist) == "" {
		missing = append(missing, FieldArtist)
	}
	if strings.TrimSpace(c.Venue) == "" {
		missing = append(missing, FieldVenue)
	}
	return missing
}

// HasValidDate reports whether Date is empty or a calendar date.
func (c MemoryCard) HasValidDate() bool {
	return c.Date == "" || strfmt.IsDate(c.Date)
}

// WithArtist returns a copy with the artist replaced.
func (c MemoryCard) WithArtist(artist string) MemoryCard {
	c = c.clone()
	c.Artist = artist
	return c
}

// WithVenue returns a copy with the venue replaced.
func (c MemoryCard) WithVenue(venue string) MemoryCard {
	c = c.clone()
	c.Venue = venue
	return c
}

// WithDate returns a copy with the date replaced.
func (c MemoryCard) WithDate(date string) MemoryCard {
	c = c.clone()
	c.Date = strings.TrimSpace(date)
	return c
}

// WithNotes returns a copy with the notes replaced.
func (c MemoryCard) WithNotes(notes string) MemoryCard {
	c = c.clone()
	c.Notes = notes
	return c
}

// WithHighlights returns a copy with the best moments replaced.
func (c MemoryCard) WithHighlights(highlights string) MemoryCard {
	c = c.clone()
	c.Highlights = highlights
	return c
}

// WithSetlist returns a copy with the songs replaced.
func (c MemoryCard) WithSetlist(songs []string) MemoryCard {
	c = c.clone()
	c.Setlist = append([]string(nil), songs...)
	return c
}

// WithSetlistText parses a free text setlist and returns a copy using it.
func (c MemoryCard) WithSetlistText(text string) MemoryCard {
	return c.WithSetlist(ParseSetlist(text))
}

// WithMoodRating returns a copy with the mood clamped to [1,5].
func (c MemoryCard) WithMoodRating(rating int) MemoryCard {
	c = c.clone()
	c.MoodRating = MoodScale.Clamp(rating)
	return c
}

// WithIntensity returns a copy with the intensity clamped to [1,10].
func (c MemoryCard) WithIntensity(intensity int) MemoryCard {
	c = c.clone()
	c.Intensity = IntensityScale.Clamp(intensity)
	return c
}

// WithEmotion toggles an emotion tag.
func (c MemoryCard) WithEmotion(emotion string) MemoryCard {
	c = c.clone()
	for i, e := range c.Emotions {
		if e == emotion {
			c.Emotions = append(c.Emotions[:i:i], c.Emotions[i+1:]...)
			return c
		}
	}
	c.Emotions = append(c.Emotions, emotion)
	return c
}

// WithPhoto returns a copy with the photo appended.
func (c MemoryCard) WithPhoto(p Photo) MemoryCard {
	c = c.clone()
	c.Photos = append(c.Photos, p)
	return c
}

// WithoutPhoto returns a copy without the photo with the given id.
func (c MemoryCard) WithoutPhoto(id string) MemoryCard {
	c = c.clone()
	for i, p := range c.Photos {
		if p.ID == id {
			c.Photos = append(c.Photos[:i:i], c.Photos[i+1:]...)
			break
		}
	}
	return c
}

// Prefill applies the values of a lookup result. Empty values are ignored so
// a partial result does not wipe typed input.
func (c MemoryCard) Prefill(artist, venue, city, date, genre string) MemoryCard {
	c = c.clone()
	for _, f := range []struct {
		dst *string
		v   string
	}{
		{&c.Artist, artist},
		{&c.Venue, venue},
		{&c.City, city},
		{&c.Date, date},
		{&c.Genre, genre},
	} {
		if f.v != "" {
			*f.dst = f.v
		}
	}
	return c
}

func (c MemoryCard) clone() MemoryCard {
	c.Setlist = append([]string(nil), c.Setlist...)
	c.Emotions = append([]string(nil), c.Emotions...)
	c.Photos = append([]Photo(nil), c.Photos...)
	return c
}

// ParseSetlist splits a free text setlist into entries, one per line.
// Entries are returned verbatim (including blanks); filtering and numbering
// is done by the layout engine.
func ParseSetlist(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
