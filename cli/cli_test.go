package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/pem"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitorus/memorycard"
	"github.com/digitorus/memorycard/card"
	"github.com/digitorus/memorycard/internal/testpki"
)

const cardTOML = `
photo_files = ["stage.png"]

[card]
artist = "Dead Kennedys"
venue = "CBGB"
date = "1981-06-15"
setlist = ["Holiday in Cambodia", "", "California Über Alles"]
mood_rating = 5

[options]
template = "horror-punk"
border = "dashed"

[[options.decorations]]
symbol = "★"
x = 10
y = 85
`

// run executes the command line with a fast capture configuration.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("MEMORYCARD_SCALE", "1")
	t.Setenv("MEMORYCARD_TARGET_DPI", "0")
	t.Setenv("MEMORYCARD_LOG_LEVEL", "error")

	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeCard(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	m := image.NewRGBA(image.Rect(0, 0, 8, 6))
	for i := range m.Pix {
		m.Pix[i] = 0xff
	}
	m.Set(2, 2, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, m))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stage.png"), buf.Bytes(), 0o600))

	path := filepath.Join(dir, "card.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadCard(t *testing.T) {
	req, err := loadCard(writeCard(t, cardTOML))
	require.NoError(t, err)

	assert.Equal(t, "Dead Kennedys", req.Card.Artist)
	assert.Equal(t, 5, req.Card.MoodRating)
	require.Len(t, req.Card.Photos, 1)
	assert.Equal(t, "stage.png", req.Card.Photos[0].Filename)
	assert.True(t, strings.HasPrefix(req.Card.Photos[0].Source, "data:image/png;base64,"))

	// the template is applied, explicit options win
	tmpl := card.LookupTemplate(card.TemplateHorrorPunk)
	assert.Equal(t, tmpl.Font, req.Options.Font)
	assert.Equal(t, tmpl.Scheme, req.Options.Scheme)
	assert.Equal(t, card.BorderDashed, req.Options.Border)
	require.Len(t, req.Options.Decorations, 1)
	assert.Equal(t, 85.0, req.Options.Decorations[0].Y)
}

func TestLoadCardErrors(t *testing.T) {
	tests := map[string]string{
		"syntax":      `[card`,
		"unknown key": "[card]\nband = \"x\"\n",
		"bad date":    "[card]\ndate = \"15/06/1981\"\n",
		"no photo":    "photo_files = [\"missing.jpg\"]\n",
		"not image":   "photo_files = [\"card.toml\"]\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := loadCard(writeCard(t, content))
			assert.Error(t, err)
		})
	}
}

func TestTemplates(t *testing.T) {
	out, err := run(t, "templates")
	require.NoError(t, err)
	for _, tmpl := range card.Templates() {
		assert.Contains(t, out, string(tmpl.ID))
	}
}

func TestRenderAndInspect(t *testing.T) {
	path := writeCard(t, cardTOML)
	outDir := t.TempDir()

	out, err := run(t, "render", "-o", outDir, path)
	require.NoError(t, err)
	assert.Contains(t, out, "PDF Generated!")

	pdfPath := filepath.Join(outDir, "concert-memory-dead-kennedys-cbgb-1981-06-15.pdf")
	assert.FileExists(t, pdfPath)

	out, err = run(t, "inspect", pdfPath)
	require.NoError(t, err)
	var v memorycard.Verification
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, "Concert Memory - Dead Kennedys", v.Document.Title)
	assert.Len(t, v.Pages, 1)
	assert.Nil(t, v.Seal)
}

func TestRenderSheet(t *testing.T) {
	outDir := t.TempDir()
	_, err := run(t, "render", "--sheet", "--page-border", "-o", outDir, writeCard(t, cardTOML))
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(outDir, "concert-memory-dead-kennedys-cbgb-1981-06-15-setlist.pdf"))
}

func TestRenderMissingInformation(t *testing.T) {
	out, err := run(t, "render", "-o", t.TempDir(), writeCard(t, "[card]\nvenue = \"CBGB\"\n"))
	require.Error(t, err)
	assert.Contains(t, out, "Missing Information")
}

func TestRenderSealed(t *testing.T) {
	pki := testpki.New(t)
	key, cert := pki.IssueLeaf("Concert Memory Maker")
	keyDir := t.TempDir()
	certPath, keyPath := pki.WritePEM(keyDir, key, cert)
	rootsPath := filepath.Join(keyDir, "root.pem")
	require.NoError(t, os.WriteFile(rootsPath, pemCert(pki), 0o600))

	outDir := t.TempDir()
	_, err := run(t, "render", "-o", outDir, "--sign-cert", certPath, "--sign-key", keyPath, writeCard(t, cardTOML))
	require.NoError(t, err)

	pdfPath := filepath.Join(outDir, "concert-memory-dead-kennedys-cbgb-1981-06-15.pdf")
	assert.FileExists(t, pdfPath+memorycard.SealSuffix)

	out, err := run(t, "inspect", "--roots", rootsPath, pdfPath)
	require.NoError(t, err)
	var v memorycard.Verification
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	require.NotNil(t, v.Seal)
	assert.True(t, v.Seal.Valid)

	_, err = run(t, "render", "-o", outDir, "--sign-cert", certPath, writeCard(t, cardTOML))
	assert.Error(t, err)
}

func TestPreview(t *testing.T) {
	output := filepath.Join(t.TempDir(), "card.png")
	_, err := run(t, "preview", "--thumbnail", "-o", output, writeCard(t, cardTOML))
	require.NoError(t, err)

	f, err := os.Open(output)
	require.NoError(t, err)
	defer f.Close()
	m, err := png.Decode(f)
	require.NoError(t, err)
	assert.Greater(t, m.Bounds().Dx(), 0)
}

func TestLookupArtist(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"artists":[{"id":"a1","name":"Dead Kennedys","country":"US"}]}`))
	}))
	defer srv.Close()
	t.Setenv("MEMORYCARD_LOOKUP_MUSICBRAINZ_URL", srv.URL)

	out, err := run(t, "lookup", "artist", "dead kennedys")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "Dead Kennedys"`)

	_, err = run(t, "lookup", "setlist", "Dead Kennedys", "1981-06-15")
	assert.Error(t, err, "no api key configured")
}

func TestInvalidConfig(t *testing.T) {
	t.Setenv("MEMORYCARD_PAGE_FORMAT", "tabloid")
	_, err := run(t, "templates")
	assert.Error(t, err)
}

func TestParseDigest(t *testing.T) {
	for _, s := range []string{"", "sha256", "sha384", "sha512"} {
		_, err := parseDigest(s)
		assert.NoError(t, err, s)
	}
	_, err := parseDigest("md5")
	assert.Error(t, err)
}

func pemCert(pki *testpki.TestPKI) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: pki.RootCert.Raw})
}
