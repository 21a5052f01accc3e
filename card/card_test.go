package card

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitorus/memorycard/decor"
)

func TestMissing(t *testing.T) {
	tests := []struct {
		name   string
		artist string
		venue  string
		want   []string
	}{
		{"complete", "Dead Kennedys", "CBGB", nil},
		{"no artist", "", "CBGB", []string{FieldArtist}},
		{"blank venue", "Bad Brains", "   ", []string{FieldVenue}},
		{"both", "", "", []string{FieldArtist, FieldVenue}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New().WithArtist(tt.artist).WithVenue(tt.venue)
			assert.Equal(t, tt.want, c.Missing())
		})
	}
}

func TestWithDoesNotMutate(t *testing.T) {
	orig := New().WithSetlist([]string{"a", "b"}).WithPhoto(NewPhoto("data:image/png;base64,", "a.png"))
	edited := orig.WithSetlist([]string{"c"}).WithoutPhoto(orig.Photos[0].ID).WithArtist("x")

	assert.Equal(t, []string{"a", "b"}, orig.Setlist)
	assert.Len(t, orig.Photos, 1)
	assert.Empty(t, orig.Artist)
	assert.Equal(t, []string{"c"}, edited.Setlist)
	assert.Empty(t, edited.Photos)
}

func TestNewPhotoUniqueIDs(t *testing.T) {
	a := NewPhoto("", "a.png")
	b := NewPhoto("", "a.png")
	assert.NotEqual(t, a.ID, b.ID)
}

func TestWithEmotionToggles(t *testing.T) {
	c := New().WithEmotion("euphoric").WithEmotion("sweaty")
	assert.Equal(t, []string{"euphoric", "sweaty"}, c.Emotions)
	c = c.WithEmotion("euphoric")
	assert.Equal(t, []string{"sweaty"}, c.Emotions)
}

func TestParseSetlist(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"Song A\n\nSong B\n", []string{"Song A", "", "Song B", ""}},
		{"One\r\nTwo", []string{"One", "Two"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseSetlist(tt.in), "ParseSetlist(%q)", tt.in)
	}
}

func TestPrefillKeepsTypedValues(t *testing.T) {
	c := New().WithArtist("Typed").WithVenue("Typed Venue")
	c = c.Prefill("", "Lookup Venue", "Berlin", "1990-01-02", "")
	assert.Equal(t, "Typed", c.Artist)
	assert.Equal(t, "Lookup Venue", c.Venue)
	assert.Equal(t, "Berlin", c.City)
	assert.Equal(t, "1990-01-02", c.Date)
}

func TestHasValidDate(t *testing.T) {
	assert.True(t, New().HasValidDate())
	assert.True(t, New().WithDate("1981-06-15").HasValidDate())
	assert.False(t, New().WithDate("15/06/1981").HasValidDate())
}

func TestIntensityScale(t *testing.T) {
	assert.Equal(t, "7/10", IntensityScale.Format(7))
	require.NoError(t, IntensityScale.Validate(7))
	assert.Error(t, IntensityScale.Validate(0))
	assert.Error(t, IntensityScale.Validate(11))
	assert.Equal(t, 1, IntensityScale.Clamp(0))
	assert.Equal(t, 10, IntensityScale.Clamp(11))

	c := New().WithIntensity(11).WithMoodRating(-3)
	assert.Equal(t, 10, c.Intensity)
	assert.Equal(t, 1, c.MoodRating)
}

func TestNormalizeLeavesUnsetIntensity(t *testing.T) {
	c := MemoryCard{MoodRating: 9}.Normalize()
	assert.Equal(t, 5, c.MoodRating)
	assert.Equal(t, 0, c.Intensity)
}

func TestApplyTemplateAtomic(t *testing.T) {
	base := DefaultOptions().With(func(o *Options) {
		o.Layout = LayoutCollage
		o.Border = BorderDotted
		o.PhotoSize = SizeLarge
		o.TextSize = SizeSmall
		o.Background = PatternGrunge
		o.Decorations = []decor.Decoration{{ID: 1, Symbol: "*", X: 10, Y: 20}}
	})

	for _, tmpl := range Templates() {
		t.Run(string(tmpl.ID), func(t *testing.T) {
			got := base.ApplyTemplate(tmpl.ID)

			assert.Equal(t, tmpl.ID, got.Template)
			assert.Equal(t, tmpl.Scheme, got.Scheme)
			assert.Equal(t, tmpl.Font, got.Font)
			assert.Equal(t, tmpl.PolaroidFrame, got.PolaroidFrame)

			assert.Equal(t, base.Layout, got.Layout)
			assert.Equal(t, base.Border, got.Border)
			assert.Equal(t, base.PhotoSize, got.PhotoSize)
			assert.Equal(t, base.TextSize, got.TextSize)
			assert.Equal(t, base.Background, got.Background)
			assert.Equal(t, base.Decorations, got.Decorations)
		})
	}
}

func TestApplyTemplateUnknown(t *testing.T) {
	got := DefaultOptions().ApplyTemplate("does-not-exist")
	assert.Equal(t, TemplateClassicPunk, got.Template)
	assert.Equal(t, SchemeClassicPunk, got.Scheme)
	assert.Equal(t, FontTypewriter, got.Font)
}

func TestPolaroidTemplate(t *testing.T) {
	got := DefaultOptions().ApplyTemplate(TemplatePolaroidMemories)
	assert.True(t, got.PolaroidFrame)
	assert.Equal(t, FontHandwritten, got.Font)
}

func TestParseFallbacks(t *testing.T) {
	assert.Equal(t, DefaultFont, ParseFontStyle("comic-sans"))
	assert.Equal(t, FontCreepy, ParseFontStyle(" Creepy "))
	assert.Equal(t, DefaultLayout, ParseLayout(""))
	assert.Equal(t, LayoutCollage, ParseLayout("collage"))
	assert.Equal(t, DefaultBorder, ParseBorderStyle("wavy"))
	assert.Equal(t, SizeMedium, ParseSize("normal"))
	assert.Equal(t, DefaultSize, ParseSize("huge"))
	assert.Equal(t, DefaultPattern, ParsePattern("plaid"))
	assert.Equal(t, DefaultScheme, ParseColorScheme("sepia"))
}

func TestEveryTemplateSchemeHasPalette(t *testing.T) {
	for _, tmpl := range Templates() {
		_, ok := palettes[tmpl.Scheme]
		assert.True(t, ok, "template %s uses scheme %s without palette", tmpl.ID, tmpl.Scheme)
	}
	for _, s := range ColorSchemes() {
		p := s.Palette()
		assert.NotEmpty(t, p.Background, s)
		assert.NotEmpty(t, p.Accent, s)
		assert.Positive(t, p.BorderWidth, s)
	}
	assert.Equal(t, palettes[DefaultScheme], ColorScheme("nope").Palette())
}

func TestOptionsNormalize(t *testing.T) {
	o := Options{
		Template:    "x",
		Scheme:      "y",
		Layout:      "HORIZONTAL",
		TextSize:    "normal",
		Decorations: []decor.Decoration{{X: 140, Y: -5}},
	}.Normalize()

	assert.Equal(t, TemplateClassicPunk, o.Template)
	assert.Equal(t, SchemeClassicPunk, o.Scheme)
	assert.Equal(t, LayoutHorizontal, o.Layout)
	assert.True(t, o.Layout.Landscape())
	assert.Equal(t, SizeMedium, o.TextSize)
	assert.Equal(t, 100.0, o.Decorations[0].X)
	assert.Equal(t, 0.0, o.Decorations[0].Y)
}
