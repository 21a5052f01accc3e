package memorycard

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitorus/memorycard/card"
	"github.com/digitorus/memorycard/compose"
	"github.com/digitorus/memorycard/config"
	"github.com/digitorus/memorycard/internal/render"
	"github.com/digitorus/memorycard/internal/testpki"
	"github.com/digitorus/memorycard/preview"
	"github.com/digitorus/memorycard/raster"
)

var fixedClock = func() time.Time { return time.Date(2024, 6, 15, 21, 0, 0, 0, time.UTC) }

type fakeCapturer struct {
	calls   atomic.Int32
	err     error
	started chan struct{}
	release chan struct{}

	// before runs first, e.g. to land an edit during capture
	before func()
	tree   *render.Tree
}

func (f *fakeCapturer) CaptureTree(ctx context.Context, reg *preview.Registry, h preview.Handle, tree *render.Tree, scale float64) (*raster.Bitmap, error) {
	f.calls.Add(1)
	if f.before != nil {
		f.before()
	}
	f.tree = tree
	if f.started != nil {
		f.started <- struct{}{}
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	if _, ok := reg.Lookup(h); !ok {
		return nil, raster.ErrRenderTargetMissing
	}
	m := image.NewRGBA(image.Rect(0, 0, 40, 60))
	draw.Draw(m, m.Bounds(), &image.Uniform{C: color.RGBA{R: 200, G: 20, B: 90, A: 255}}, image.Point{}, draw.Src)
	return &raster.Bitmap{Image: m, Scale: scale}, nil
}

type memDeliverer struct {
	mu    sync.Mutex
	files map[string][]byte
}

func (m *memDeliverer) Deliver(_ context.Context, name string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.files == nil {
		m.files = make(map[string][]byte)
	}
	m.files[name] = append([]byte(nil), data...)
	return "mem://" + name, nil
}

func (m *memDeliverer) get(name string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.files[name]
}

// fastSettings keeps real captures small.
func fastSettings() Settings {
	s := DefaultSettings()
	s.Scale = 1
	s.TargetDPI = 0
	return s
}

func validCard() card.MemoryCard {
	return card.New().
		WithArtist("Dead Kennedys").
		WithVenue("CBGB").
		WithDate("1981-06-15").
		WithSetlistText("Holiday in Cambodia\n\nCalifornia Über Alles\n")
}

func mountedExporter(t *testing.T, opts ...Option) (*Exporter, *memDeliverer) {
	t.Helper()
	d := &memDeliverer{}
	e := New(append([]Option{WithDeliverer(d), WithClock(fixedClock)}, opts...)...)
	tree := &render.Tree{Width: 400, Height: 600, Background: render.White}
	e.Registry().Mount(e.Handle(), preview.NewSurface(tree))
	return e, d
}

func TestExportValidationGate(t *testing.T) {
	tests := []struct {
		name   string
		card   card.MemoryCard
		fields []string
	}{
		{"artist", card.New().WithVenue("CBGB"), []string{card.FieldArtist}},
		{"venue", card.New().WithArtist("Dead Kennedys"), []string{card.FieldVenue}},
		{"both", card.New(), []string{card.FieldArtist, card.FieldVenue}},
		{"blank", card.New().WithArtist("  ").WithVenue("CBGB"), []string{card.FieldArtist}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeCapturer{}
			reg := prometheus.NewRegistry()
			e, d := mountedExporter(t, WithCapturer(fake), WithRegisterer(reg))

			var states []State
			e.Subscribe(func(s State) { states = append(states, s) })

			res, err := e.Export(context.Background(), Request{Card: tt.card, Options: card.DefaultOptions()})
			assert.Nil(t, res)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.fields, verr.Fields)

			assert.Zero(t, fake.calls.Load(), "capture must not run")
			assert.Empty(t, d.files)
			assert.Empty(t, states)
			assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.exports.WithLabelValues(resultInvalid)))

			n := NoticeFor(res, err)
			assert.Equal(t, "Missing Information", n.Title)
			assert.Equal(t, SeverityWarning, n.Severity)
		})
	}
}

func TestExportWithFakeCapture(t *testing.T) {
	fake := &fakeCapturer{}
	reg := prometheus.NewRegistry()
	e, d := mountedExporter(t, WithCapturer(fake), WithRegisterer(reg))

	var states []State
	unsubscribe := e.Subscribe(func(s State) { states = append(states, s) })
	defer unsubscribe()

	res, err := e.Export(context.Background(), Request{Card: validCard(), Options: card.DefaultOptions()})
	require.NoError(t, err)
	assert.Equal(t, []State{Generating, Idle}, states)
	assert.Equal(t, Idle, e.State())
	assert.Equal(t, int32(1), fake.calls.Load())

	assert.Equal(t, "concert-memory-dead-kennedys-cbgb-1981-06-15.pdf", res.Filename)
	assert.Equal(t, "mem://"+res.Filename, res.Location)
	assert.Len(t, res.JobID, 26)
	assert.Equal(t, 1, res.Pages)
	assert.Equal(t, "Concert Memory - Dead Kennedys", res.Meta.Title)
	assert.Equal(t, "Concert at CBGB", res.Meta.Subject)
	assert.Equal(t, DefaultAuthor, res.Meta.Author)
	assert.Equal(t, DefaultCreator, res.Meta.Creator)
	assert.Equal(t, "concert, Dead Kennedys, CBGB", res.Meta.Keywords)

	data := d.get(res.Filename)
	require.NotEmpty(t, data)
	assert.Equal(t, int64(len(data)), res.Size)

	v, err := Verify(data, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Concert Memory - Dead Kennedys", v.Document.Title)
	assert.Equal(t, "Concert at CBGB", v.Document.Subject)
	assert.Equal(t, DefaultCreator, v.Document.Creator)
	assert.True(t, v.Document.CreationDate.Equal(fixedClock()))
	require.Len(t, v.Pages, 1)
	w, h := compose.A4.Size(compose.Portrait)
	assert.InDelta(t, w, v.Pages[0].Width, 0.01)
	assert.InDelta(t, h, v.Pages[0].Height, 0.01)
	require.Len(t, v.Pages[0].Images, 1)
	assert.Equal(t, 40, v.Pages[0].Images[0].Width)
	assert.Nil(t, v.Seal)

	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.exports.WithLabelValues(resultSuccess)))
}

func TestExportLandscape(t *testing.T) {
	e, d := mountedExporter(t, WithCapturer(&fakeCapturer{}))
	o := card.DefaultOptions().With(func(o *card.Options) { o.Layout = card.LayoutHorizontal })

	res, err := e.Export(context.Background(), Request{Card: validCard(), Options: o})
	require.NoError(t, err)

	v, err := Verify(d.get(res.Filename), nil, nil)
	require.NoError(t, err)
	require.Len(t, v.Pages, 1)
	assert.Greater(t, v.Pages[0].Width, v.Pages[0].Height)
}

func TestExportIsIdempotent(t *testing.T) {
	now := fixedClock()
	clock := func() time.Time { return now }
	e, d := mountedExporter(t, WithCapturer(&fakeCapturer{}), WithClock(clock))
	req := Request{Card: validCard(), Options: card.DefaultOptions()}

	res, err := e.Export(context.Background(), req)
	require.NoError(t, err)
	first := d.get(res.Filename)

	_, err = e.Export(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(first, d.get(res.Filename)), "same input and clock must give the same bytes")

	// only the creation date changes with the clock
	now = now.Add(time.Hour)
	_, err = e.Export(context.Background(), req)
	require.NoError(t, err)
	later := d.get(res.Filename)
	assert.False(t, bytes.Equal(first, later))

	a, err := Verify(first, nil, nil)
	require.NoError(t, err)
	b, err := Verify(later, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, a.Document.ID, b.Document.ID)
	assert.NotEqual(t, a.Document.CreationDate, b.Document.CreationDate)
}

func TestExportTargetMissing(t *testing.T) {
	reg := prometheus.NewRegistry()
	e := New(WithDeliverer(&memDeliverer{}), WithRegisterer(reg), WithCapturer(&fakeCapturer{}))

	n := e.Trigger(context.Background(), Request{Card: validCard(), Options: card.DefaultOptions()})
	assert.Equal(t, "Preview Unavailable", n.Title)
	assert.Equal(t, SeverityError, n.Severity)
	assert.ErrorIs(t, n.Err, raster.ErrRenderTargetMissing)
	assert.Equal(t, Idle, e.State())
	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.exports.WithLabelValues(resultMissing)))
}

func TestExportCaptureFailure(t *testing.T) {
	fake := &fakeCapturer{err: &raster.CaptureError{Handle: "concert-preview", Err: errors.New("bad photo")}}
	e, d := mountedExporter(t, WithCapturer(fake))

	var states []State
	e.Subscribe(func(s State) { states = append(states, s) })

	n := e.Trigger(context.Background(), Request{Card: validCard(), Options: card.DefaultOptions()})
	assert.Equal(t, "Generation Failed", n.Title)
	var cerr *raster.CaptureError
	assert.ErrorAs(t, n.Err, &cerr)
	assert.Equal(t, []State{Generating, Idle}, states)
	assert.Empty(t, d.files)

	// a retry after the failure goes through
	fake.err = nil
	n = e.Trigger(context.Background(), Request{Card: validCard(), Options: card.DefaultOptions()})
	assert.Equal(t, "PDF Generated!", n.Title)
	require.NotNil(t, n.Result)
}

func TestExportIsSerialized(t *testing.T) {
	fake := &fakeCapturer{started: make(chan struct{}), release: make(chan struct{})}
	e, _ := mountedExporter(t, WithCapturer(fake))
	req := Request{Card: validCard(), Options: card.DefaultOptions()}

	done := make(chan error, 1)
	go func() {
		_, err := e.Export(context.Background(), req)
		done <- err
	}()
	<-fake.started
	assert.Equal(t, Generating, e.State())

	_, err := e.Export(context.Background(), req)
	assert.ErrorIs(t, err, ErrExportInProgress)
	assert.Equal(t, "Export Busy", NoticeFor(nil, err).Title)

	close(fake.release)
	require.NoError(t, <-done)
	assert.Equal(t, Idle, e.State())
	assert.Equal(t, int32(1), fake.calls.Load())
}

func TestExportDeliveryFailure(t *testing.T) {
	failing := DelivererFunc(func(context.Context, string, []byte) (string, error) {
		return "", errors.New("disk full")
	})
	e, _ := mountedExporter(t, WithCapturer(&fakeCapturer{}), WithDeliverer(failing))

	_, err := e.Export(context.Background(), Request{Card: validCard(), Options: card.DefaultOptions()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, Idle, e.State())
}

func TestCaptureScale(t *testing.T) {
	e, _ := mountedExporter(t)
	page := compose.PageOf(compose.A4, compose.Portrait)
	margin := compose.MMToPt(compose.DefaultMargin)

	// a 400pt wide box needs more than 2x to reach 300 DPI on A4
	scale := e.captureScale(page, margin, nil)
	assert.Greater(t, scale, 2.0)
	assert.LessOrEqual(t, scale, e.settings.MaxScale)

	pl, err := compose.Fit(int(400*scale), int(600*scale), page, margin)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, pl.EffectiveDPI, 300.0)

	e.settings.MaxScale = 3
	assert.Equal(t, 3.0, e.captureScale(page, margin, nil))

	e.settings.TargetDPI = 0
	assert.Equal(t, 2.0, e.captureScale(page, margin, nil))

	// a pinned tree that is no longer shown is measured by its own size
	tall := &render.Tree{Width: 448, Height: 12066}
	scale = e.captureScale(page, margin, tall)
	assert.Less(t, scale, 2.0)
	assert.LessOrEqual(t, int(math.Round(tall.Height*scale)), raster.MaxDimension)
}

func TestSettingsFrom(t *testing.T) {
	c := config.Default()
	c.PageFormat = "letter"
	c.ImageFormat = "png"
	c.MarginMM = 20
	c.Author = ""

	s, err := SettingsFrom(c)
	require.NoError(t, err)
	assert.Equal(t, compose.Letter, s.Format)
	assert.Equal(t, render.EncodingPNG, s.Compose.Encoding.Format)
	assert.Equal(t, 20.0, s.Compose.Margin)
	assert.Equal(t, DefaultAuthor, s.Author)

	c.PageFormat = "tabloid"
	_, err = SettingsFrom(c)
	assert.Error(t, err)
}

func TestSessionExport(t *testing.T) {
	dir := t.TempDir()
	e := New(WithSettings(fastSettings()), WithDeliverer(FileDeliverer{Dir: dir}), WithClock(fixedClock))
	s := NewSession(e)
	defer s.Close()

	n := s.Trigger(context.Background())
	assert.Equal(t, "Missing Information", n.Title)
	assert.Contains(t, n.Message, "artist and venue")

	s.SetCard(validCard())
	s.AddDecoration("★")

	res, err := s.Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "concert-memory-dead-kennedys-cbgb-1981-06-15.pdf"), res.Location)
	assert.Equal(t, 1.0, res.Scale)

	w, h := s.Surface().Box()
	assert.InDelta(t, w*res.Scale, float64(res.Placement.EffectiveDPI*res.Placement.W/72), 1)
	assert.Greater(t, h, 0.0)

	data, err := os.ReadFile(res.Location)
	require.NoError(t, err)
	v, err := Verify(data, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Concert Memory - Dead Kennedys", v.Document.Title)
	require.Len(t, v.Pages, 1)
	require.Len(t, v.Pages[0].Images, 1)
	assert.Equal(t, int(math.Round(w)), v.Pages[0].Images[0].Width)
}

func TestSessionExportSheet(t *testing.T) {
	e, d := mountedExporter(t)
	s := NewSession(e)
	defer s.Close()

	songs := make([]string, 120)
	for i := range songs {
		songs[i] = "Song " + string(rune('A'+i%26))
	}
	s.SetCard(validCard().WithSetlist(songs).WithNotes("first line\nsecond line"))

	res, err := s.ExportSheet(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "concert-memory-dead-kennedys-cbgb-1981-06-15-setlist.pdf", res.Filename)
	assert.Greater(t, res.Pages, 1)

	v, err := Verify(d.get(res.Filename), nil, nil)
	require.NoError(t, err)
	assert.Len(t, v.Pages, res.Pages)
}

func TestSheetLines(t *testing.T) {
	c := validCard().WithIntensity(7).WithHighlights("stage dive")
	lines := SheetLines(c)
	assert.Equal(t, "DEAD KENNEDYS", lines[0])
	assert.Contains(t, lines, "June 15, 1981")
	assert.Contains(t, lines, "Mood: 3/5")
	assert.Contains(t, lines, "Intensity: 7/10")
	assert.Contains(t, lines, "1. Holiday in Cambodia")
	assert.Contains(t, lines, "2. California Über Alles")
	assert.Contains(t, lines, "HIGHLIGHTS")
	assert.NotContains(t, lines, "NOTES")
}

func TestExportSealed(t *testing.T) {
	pki := testpki.New(t)
	key, cert := pki.IssueLeaf("Concert Memory Maker")
	certPath, keyPath := pki.WritePEM(t.TempDir(), key, cert)

	sealer, err := LoadSealer(SealConfig{CertificatePath: certPath, KeyPath: keyPath})
	require.NoError(t, err)

	e, d := mountedExporter(t, WithCapturer(&fakeCapturer{}), WithSealer(sealer))
	res, err := e.Export(context.Background(), Request{Card: validCard(), Options: card.DefaultOptions()})
	require.NoError(t, err)
	require.NotEmpty(t, res.Seal)
	assert.Equal(t, res.Seal, d.get(res.Filename+SealSuffix))

	v, err := Verify(d.get(res.Filename), res.Seal, pki.Roots())
	require.NoError(t, err)
	require.NotNil(t, v.Seal)
	assert.True(t, v.Seal.Valid, v.Seal.Error)
	assert.Equal(t, "Concert Memory Maker", v.Seal.Signer)

	_, err = LoadSealer(SealConfig{CertificatePath: keyPath, KeyPath: keyPath})
	assert.Error(t, err)
}

func TestSessionExportLongSetlist(t *testing.T) {
	settings := DefaultSettings()
	settings.TargetDPI = 0
	e, d := mountedExporter(t, WithSettings(settings))
	s := NewSession(e)
	defer s.Close()

	songs := make([]string, 500)
	for i := range songs {
		songs[i] = "Holiday in Cambodia"
	}
	s.SetCard(validCard().WithSetlist(songs))
	w, h := s.Surface().Box()
	require.Greater(t, h*settings.Scale, float64(raster.MaxDimension), "the card must outgrow the bitmap at the default scale")

	n := s.Trigger(context.Background())
	require.Equal(t, "PDF Generated!", n.Title, "%v", n.Err)
	assert.Less(t, n.Result.Scale, settings.Scale)

	v, err := Verify(d.get(n.Result.Filename), nil, nil)
	require.NoError(t, err)
	require.Len(t, v.Pages, 1)
	require.Len(t, v.Pages[0].Images, 1)
	img := v.Pages[0].Images[0]
	assert.LessOrEqual(t, img.Height, raster.MaxDimension)
	assert.InDelta(t, w/h, float64(img.Width)/float64(img.Height), 0.01)
}

func TestSessionExportPinsSnapshot(t *testing.T) {
	fake := &fakeCapturer{}
	e, d := mountedExporter(t, WithCapturer(fake))
	s := NewSession(e)
	defer s.Close()
	s.SetCard(validCard())
	pinned := s.Surface().Tree()

	// edits land after the export was triggered but before capture
	fake.before = func() {
		s.Update(func(c card.MemoryCard) card.MemoryCard { return c.WithArtist("") })
		s.Customize(func(o card.Options) card.Options { o.Layout = card.LayoutHorizontal; return o })
	}

	res, err := s.Export(context.Background())
	require.NoError(t, err)
	assert.Same(t, pinned, fake.tree, "capture must use the render of the exported snapshot")
	assert.Greater(t, fake.tree.Height, fake.tree.Width)
	assert.NotSame(t, pinned, s.Surface().Tree())
	assert.Empty(t, s.Snapshot().Card.Artist)

	assert.Equal(t, "concert-memory-dead-kennedys-cbgb-1981-06-15.pdf", res.Filename)
	assert.Equal(t, "Concert Memory - Dead Kennedys", res.Meta.Title)
	v, err := Verify(d.get(res.Filename), nil, nil)
	require.NoError(t, err)
	require.Len(t, v.Pages, 1)
	assert.Less(t, v.Pages[0].Width, v.Pages[0].Height, "the vertical snapshot is placed on a portrait page")

	// the next export sees the edits
	fake.before = nil
	n := s.Trigger(context.Background())
	assert.Equal(t, "Missing Information", n.Title)
}

func TestExportSheetFollowsLayout(t *testing.T) {
	e, d := mountedExporter(t)
	o := card.DefaultOptions().With(func(o *card.Options) { o.Layout = card.LayoutHorizontal })

	res, err := e.ExportSheet(context.Background(), Request{Card: validCard(), Options: o})
	require.NoError(t, err)
	v, err := Verify(d.get(res.Filename), nil, nil)
	require.NoError(t, err)
	require.NotEmpty(t, v.Pages)
	assert.Greater(t, v.Pages[0].Width, v.Pages[0].Height)

	res, err = e.ExportSheet(context.Background(), Request{Card: validCard(), Options: card.DefaultOptions()})
	require.NoError(t, err)
	v, err = Verify(d.get(res.Filename), nil, nil)
	require.NoError(t, err)
	assert.Less(t, v.Pages[0].Width, v.Pages[0].Height)
}
