package cli

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/digitorus/memorycard"
	"github.com/digitorus/memorycard/card"
	"github.com/digitorus/memorycard/images"
)

// cardFile is the TOML form of a card:
//
//	photo_files = ["stage.jpg"]
//
//	[card]
//	artist = "Dead Kennedys"
//	venue = "CBGB"
//	date = "1981-06-15"
//	setlist = ["Holiday in Cambodia", "California Über Alles"]
//
//	[options]
//	template = "horror-punk"
//	layout = "horizontal"
//
//	[[options.decorations]]
//	symbol = "★"
//	x = 10
//	y = 85
type cardFile struct {
	// PhotoFiles are read relative to the card file.
	PhotoFiles []string        `toml:"photo_files"`
	Card       card.MemoryCard `toml:"card"`
	Options    card.Options    `toml:"options"`
}

// loadCard reads a card file. The template is applied before the other
// options so that explicit font or scheme values win.
func loadCard(path string) (memorycard.Request, error) {
	var head struct {
		Options struct {
			Template card.TemplateID `toml:"template"`
		} `toml:"options"`
	}
	if _, err := toml.DecodeFile(path, &head); err != nil {
		return memorycard.Request{}, fmt.Errorf("failed to parse card %s: %w", path, err)
	}

	f := cardFile{
		Card:    card.New(),
		Options: card.DefaultOptions().ApplyTemplate(head.Options.Template),
	}
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return memorycard.Request{}, fmt.Errorf("failed to parse card %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return memorycard.Request{}, fmt.Errorf("unknown keys in %s: %v", path, undecoded)
	}
	if !f.Card.HasValidDate() {
		return memorycard.Request{}, fmt.Errorf("date %q is not YYYY-MM-DD", f.Card.Date)
	}

	for _, p := range f.PhotoFiles {
		if !filepath.IsAbs(p) {
			p = filepath.Join(filepath.Dir(path), p)
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return memorycard.Request{}, fmt.Errorf("failed to read photo: %w", err)
		}
		mediaType := http.DetectContentType(data)
		if !strings.HasPrefix(mediaType, "image/") {
			return memorycard.Request{}, fmt.Errorf("photo %s is %s, not an image", p, mediaType)
		}
		uri := images.EncodeDataURI(mediaType, data)
		f.Card = f.Card.WithPhoto(card.NewPhoto(uri, filepath.Base(p)))
	}

	return memorycard.Request{Card: f.Card, Options: f.Options}, nil
}
