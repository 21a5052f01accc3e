// Package config loads exporter settings: built-in defaults, then an
// optional TOML file, then MEMORYCARD_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/asaskevich/govalidator"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	govalidator.SetFieldsRequiredByDefault(true)
}

// EnvPrefix prefixes every environment override, e.g. MEMORYCARD_PAGE_FORMAT.
const EnvPrefix = "MEMORYCARD"

// DefaultLocation is read when no file is given and it exists.
var DefaultLocation = "./memorycard.toml"

// Config is the root of the config.
type Config struct {
	PageFormat   string  `toml:"page_format" envconfig:"PAGE_FORMAT" valid:"in(a4|letter)"`
	MarginMM     float64 `toml:"margin_mm" envconfig:"MARGIN_MM" valid:"optional"`
	Scale        float64 `toml:"scale" envconfig:"SCALE" valid:"optional"`
	MaxScale     float64 `toml:"max_scale" envconfig:"MAX_SCALE" valid:"optional"`
	TargetDPI    float64 `toml:"target_dpi" envconfig:"TARGET_DPI" valid:"optional"`
	ImageFormat  string  `toml:"image_format" envconfig:"IMAGE_FORMAT" valid:"in(jpeg|png)"`
	ImageQuality int     `toml:"image_quality" envconfig:"IMAGE_QUALITY" valid:"range(1|100)"`
	OutputDir    string  `toml:"output_dir" envconfig:"OUTPUT_DIR" valid:"required"`
	Title        string  `toml:"title" envconfig:"TITLE" valid:"optional"`
	Subject      string  `toml:"subject" envconfig:"SUBJECT" valid:"optional"`
	Author       string  `toml:"author" envconfig:"AUTHOR" valid:"optional"`
	Creator      string  `toml:"creator" envconfig:"CREATOR" valid:"optional"`
	LogLevel     string  `toml:"log_level" envconfig:"LOG_LEVEL" valid:"in(trace|debug|info|warn|error)"`
	LogFormat    string  `toml:"log_format" envconfig:"LOG_FORMAT" valid:"in(json|console)"`

	Lookup Lookup `toml:"lookup" envconfig:"LOOKUP" valid:"optional"`
}

// Lookup configures the music database collaborator.
type Lookup struct {
	MusicBrainzURL  string        `toml:"musicbrainz_url" envconfig:"MUSICBRAINZ_URL" valid:"url,optional"`
	SetlistFMURL    string        `toml:"setlistfm_url" envconfig:"SETLISTFM_URL" valid:"url,optional"`
	SetlistFMAPIKey string        `toml:"setlistfm_api_key" envconfig:"SETLISTFM_API_KEY" valid:"optional"`
	UserAgent       string        `toml:"user_agent" envconfig:"USER_AGENT" valid:"optional"`
	Timeout         time.Duration `toml:"timeout" envconfig:"TIMEOUT" valid:"optional"`
	MaxRetries      int           `toml:"max_retries" envconfig:"MAX_RETRIES" valid:"optional"`
}

// Default returns the built-in settings: A4, 15mm margin, 2x capture scale
// raised as needed to reach 300 DPI, JPEG quality 95.
func Default() Config {
	return Config{
		PageFormat:   "a4",
		MarginMM:     15,
		Scale:        2,
		MaxScale:     8,
		TargetDPI:    300,
		ImageFormat:  "jpeg",
		ImageQuality: 95,
		OutputDir:    ".",
		Title:        "Concert Memory - {{Artist}}",
		Subject:      "Concert at {{Venue}}",
		Author:       "Concert Memory Maker",
		Creator:      "Concert Memory Maker - DIY Punk Style",
		LogLevel:     "info",
		LogFormat:    "console",
		Lookup: Lookup{
			MusicBrainzURL: "https://musicbrainz.org/ws/2",
			SetlistFMURL:   "https://api.setlist.fm/rest/1.0",
			Timeout:        10 * time.Second,
			MaxRetries:     2,
		},
	}
}

// ValidateFields validates all the fields of the config.
func (c Config) ValidateFields() error {
	if _, err := govalidator.ValidateStruct(c); err != nil {
		return err
	}
	switch {
	case c.MarginMM < 0 || c.MarginMM > 50:
		return fmt.Errorf("margin_mm: %v not in [0, 50]", c.MarginMM)
	case c.Scale <= 0 || c.Scale > 16:
		return fmt.Errorf("scale: %v not in (0, 16]", c.Scale)
	case c.MaxScale < c.Scale || c.MaxScale > 16:
		return fmt.Errorf("max_scale: %v not in [scale, 16]", c.MaxScale)
	case c.TargetDPI < 0:
		return fmt.Errorf("target_dpi: %v is negative", c.TargetDPI)
	case c.Lookup.MaxRetries < 0:
		return fmt.Errorf("lookup.max_retries: %d is negative", c.Lookup.MaxRetries)
	}
	return nil
}

// Load reads the config. An empty path reads DefaultLocation when present;
// a given path must exist.
func Load(path string) (Config, error) {
	c := Default()

	file := path
	if file == "" {
		if _, err := os.Stat(DefaultLocation); err == nil {
			file = DefaultLocation
		}
	}
	if file != "" {
		if _, err := toml.DecodeFile(file, &c); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return c, fmt.Errorf("config file is missing: %s", file)
			}
			return c, fmt.Errorf("failed to parse config %s: %w", file, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &c); err != nil {
		return c, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := c.ValidateFields(); err != nil {
		return c, fmt.Errorf("config is not valid: %w", err)
	}
	return c, nil
}
