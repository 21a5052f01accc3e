package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "memorycard.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().ValidateFields())
}

func TestDecode(t *testing.T) {
	const configContent = `
page_format = "letter"
margin_mm = 10.5
image_format = "png"

[lookup]
timeout = "3s"
setlistfm_api_key = "secret"
`
	c := Default()
	_, err := toml.Decode(configContent, &c)
	require.NoError(t, err)

	assert.Equal(t, "letter", c.PageFormat)
	assert.Equal(t, 10.5, c.MarginMM)
	assert.Equal(t, "png", c.ImageFormat)
	assert.Equal(t, 3*time.Second, c.Lookup.Timeout)
	assert.Equal(t, "secret", c.Lookup.SetlistFMAPIKey)
	// untouched keys keep their defaults
	assert.Equal(t, 95, c.ImageQuality)
	assert.NoError(t, c.ValidateFields())
}

func TestLoadLayers(t *testing.T) {
	path := writeConfig(t, `
page_format = "letter"
scale = 3
`)
	t.Setenv("MEMORYCARD_SCALE", "4")
	t.Setenv("MEMORYCARD_LOOKUP_MAX_RETRIES", "5")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "letter", c.PageFormat)
	assert.Equal(t, 4.0, c.Scale)
	assert.Equal(t, 5, c.Lookup.MaxRetries)
	assert.Equal(t, 15.0, c.MarginMM)
}

func TestLoadWithoutFile(t *testing.T) {
	old := DefaultLocation
	DefaultLocation = filepath.Join(t.TempDir(), "absent.toml")
	defer func() { DefaultLocation = old }()

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), c)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*Config)
	}{
		{"page format", func(c *Config) { c.PageFormat = "tabloid" }},
		{"image format", func(c *Config) { c.ImageFormat = "gif" }},
		{"quality", func(c *Config) { c.ImageQuality = 101 }},
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
		{"output dir", func(c *Config) { c.OutputDir = "" }},
		{"margin", func(c *Config) { c.MarginMM = -1 }},
		{"scale", func(c *Config) { c.Scale = 0 }},
		{"max scale", func(c *Config) { c.MaxScale = 1 }},
		{"musicbrainz url", func(c *Config) { c.Lookup.MusicBrainzURL = "not a url" }},
		{"retries", func(c *Config) { c.Lookup.MaxRetries = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mut(&c)
			assert.Error(t, c.ValidateFields())
		})
	}
}

func TestLoadInvalidFile(t *testing.T) {
	_, err := Load(writeConfig(t, `page_format = `))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, `image_quality = 0`))
	assert.Error(t, err)
}
