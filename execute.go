package memorycard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/oklog/ulid/v2"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/digitorus/memorycard/card"
	"github.com/digitorus/memorycard/compose"
	"github.com/digitorus/memorycard/internal/render"
	"github.com/digitorus/memorycard/layout"
	"github.com/digitorus/memorycard/raster"
)

// SealSuffix is appended to the document name for the detached seal.
const SealSuffix = ".p7s"

// Export captures the mounted card, composes it on a page and delivers it.
//
// The card must be mounted under the exporter's handle. When req.Tree is
// set that render is captured; otherwise the surface's current tree is, and
// req must be the snapshot it was rendered from. A card without artist or venue fails with
// a *ValidationError before anything is captured. A second export while one
// is running fails with ErrExportInProgress.
func (e *Exporter) Export(ctx context.Context, req Request) (*Result, error) {
	return e.run(ctx, req, Filename(req.Card), e.exportCard)
}

// ExportSheet delivers the card as paginated text instead of an image.
func (e *Exporter) ExportSheet(ctx context.Context, req Request) (*Result, error) {
	return e.run(ctx, req, SheetFilename(req.Card), e.exportSheet)
}

type composeFunc func(ctx context.Context, log zerolog.Logger, req Request, res *Result) (*compose.Document, error)

func (e *Exporter) run(ctx context.Context, req Request, name string, fn composeFunc) (*Result, error) {
	if missing := req.Card.Missing(); len(missing) > 0 {
		e.metrics.exports.WithLabelValues(resultInvalid).Inc()
		return nil, &ValidationError{Fields: missing}
	}
	if !e.busy.TryLock() {
		e.metrics.exports.WithLabelValues(resultBusy).Inc()
		return nil, ErrExportInProgress
	}
	defer e.busy.Unlock()

	e.setState(Generating)
	defer e.setState(Idle)

	start := e.now()
	res := &Result{
		JobID:    ulid.MustNew(ulid.Timestamp(start), ulid.DefaultEntropy()).String(),
		Filename: name,
	}
	log := e.log.With().Str("job", res.JobID).Str("file", name).Logger()
	log.Debug().Msg("export started")

	err := e.execute(ctx, log, req, res, fn)
	switch {
	case err == nil:
		res.Duration = e.now().Sub(start)
		e.metrics.exports.WithLabelValues(resultSuccess).Inc()
		e.metrics.duration.Observe(res.Duration.Seconds())
		e.metrics.pages.Observe(float64(res.Pages))
		log.Info().
			Str("location", res.Location).
			Int64("size", res.Size).
			Float64("scale", res.Scale).
			Dur("duration", res.Duration).
			Msg("export delivered")
		return res, nil
	case errors.Is(err, raster.ErrRenderTargetMissing):
		e.metrics.exports.WithLabelValues(resultMissing).Inc()
	default:
		e.metrics.exports.WithLabelValues(resultFailed).Inc()
	}
	log.Error().Stack().Err(err).Msg("export failed")
	return nil, err
}

func (e *Exporter) execute(ctx context.Context, log zerolog.Logger, req Request, res *Result, fn composeFunc) error {
	req.Card = req.Card.Normalize()
	req.Options = req.Options.Normalize()

	doc, err := fn(ctx, log, req, res)
	if err != nil {
		return err
	}
	doc.Meta = e.metadata(req.Card)
	res.Meta = doc.Meta
	res.Pages = len(doc.Pages)

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return pkgerrors.Wrap(err, "failed to write document")
	}
	data := buf.Bytes()
	res.Size = int64(len(data))

	if e.sealer != nil {
		sig, err := e.sealer.Seal(ctx, data)
		if err != nil {
			return pkgerrors.Wrap(err, "failed to seal document")
		}
		res.Seal = sig
	}

	if res.Location, err = e.deliverer.Deliver(ctx, res.Filename, data); err != nil {
		return pkgerrors.Wrap(err, "failed to deliver document")
	}
	if res.Seal != nil {
		if _, err := e.deliverer.Deliver(ctx, res.Filename+SealSuffix, res.Seal); err != nil {
			return pkgerrors.Wrap(err, "failed to deliver seal")
		}
	}
	return nil
}

func (e *Exporter) exportCard(ctx context.Context, log zerolog.Logger, req Request, res *Result) (*compose.Document, error) {
	orientation := compose.OrientationFor(req.Options.Layout)
	page := compose.PageOf(e.settings.Format, orientation)
	opts := e.composeOptions(req.Options)

	backend, err := e.backend(ctx)
	if err != nil {
		return nil, err
	}

	res.Scale = e.captureScale(page, compose.MMToPt(opts.Margin), req.Tree)
	bitmap, err := backend.CaptureTree(ctx, e.registry, e.handle, req.Tree, res.Scale)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Int("width", bitmap.Width()).
		Int("height", bitmap.Height()).
		Msg("card captured")

	doc, err := compose.Compose(bitmap.Image, orientation, e.settings.Format, opts)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to compose document")
	}
	res.Placement = doc.Placement
	if dpi := e.settings.TargetDPI; dpi > 0 && doc.Placement.EffectiveDPI < dpi {
		log.Warn().
			Float64("dpi", doc.Placement.EffectiveDPI).
			Float64("target", dpi).
			Msg("capture below target resolution")
	}
	return doc, nil
}

func (e *Exporter) exportSheet(_ context.Context, _ zerolog.Logger, req Request, _ *Result) (*compose.Document, error) {
	sheet := compose.Sheet{Lines: SheetLines(req.Card)}
	orientation := compose.OrientationFor(req.Options.Layout)
	doc, err := compose.ComposeSheet(sheet, orientation, e.settings.Format, e.composeOptions(req.Options))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to compose sheet")
	}
	return doc, nil
}

func (e *Exporter) composeOptions(o card.Options) compose.Options {
	opts := e.settings.Compose
	if e.settings.PageBorder {
		opts.Border = o.Border
	}
	return opts
}

// captureScale is the configured scale raised until the captured box
// reaches the target DPI when placed on page, capped at MaxScale. Boxes too
// large for a bitmap at that scale get the largest scale that fits; Fit
// shrinks them on the page anyway.
func (e *Exporter) captureScale(page compose.Page, margin float64, tree *render.Tree) float64 {
	scale := e.settings.Scale
	if scale <= 0 {
		scale = 1
	}
	var w, h float64
	if s, ok := e.registry.Lookup(e.handle); ok {
		w, h = s.BoxOf(tree)
	} else if tree != nil {
		w, h = tree.Width, tree.Height
	}
	if w > 0 && h > 0 {
		scale = math.Max(scale, compose.ScaleFor(w, h, page, margin, e.settings.TargetDPI))
	}
	if limit := e.settings.MaxScale; limit > 0 && scale > limit {
		scale = limit
	}
	if limit := raster.ScaleLimit(w, h); scale > limit {
		e.log.Warn().
			Float64("width", w).
			Float64("height", h).
			Float64("scale", limit).
			Msg("card too large for the requested scale")
		scale = limit
	}
	return scale
}

func (e *Exporter) metadata(c card.MemoryCard) compose.Metadata {
	var keywords []string
	for _, k := range []string{"concert", c.Artist, c.Venue, c.City, c.Genre} {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	vars := render.TemplateContext{
		Artist: c.Artist,
		Venue:  c.Venue,
		City:   c.City,
		Date:   layout.FormatDate(c.Date),
		Year:   layout.Year(c.Date),
	}
	return compose.Metadata{
		Title:        render.ExpandTemplateVariables(e.settings.Title, vars),
		Subject:      render.ExpandTemplateVariables(e.settings.Subject, vars),
		Author:       e.settings.Author,
		Creator:      e.settings.Creator,
		Keywords:     strings.Join(keywords, ", "),
		CreationDate: e.now(),
	}
}

// SheetLines is the text rendition of a card used by ExportSheet.
func SheetLines(c card.MemoryCard) []string {
	lines := []string{layout.Upper(c.Artist), c.Venue}
	if c.City != "" {
		lines = append(lines, c.City)
	}
	if c.Date != "" {
		lines = append(lines, layout.FormatDate(c.Date))
	}
	lines = append(lines, "Mood: "+card.MoodScale.Format(card.MoodScale.Clamp(c.MoodRating)))
	if c.Intensity != 0 {
		lines = append(lines, "Intensity: "+card.IntensityScale.Format(card.IntensityScale.Clamp(c.Intensity)))
	}
	if len(c.Emotions) > 0 {
		lines = append(lines, "Feelings: "+strings.Join(c.Emotions, ", "))
	}

	if setlist := layout.FormatSetlist(c.Setlist); len(setlist) > 0 {
		lines = append(lines, "", "SETLIST")
		for _, l := range setlist {
			lines = append(lines, l.String())
		}
	}
	for _, section := range []struct{ title, text string }{
		{"NOTES", c.Notes},
		{"HIGHLIGHTS", c.Highlights},
	} {
		if strings.TrimSpace(section.text) == "" {
			continue
		}
		lines = append(lines, "", section.title)
		lines = append(lines, strings.Split(strings.ReplaceAll(section.text, "\r\n", "\n"), "\n")...)
	}
	return lines
}

// Trigger runs Export and converts the outcome into a notice. It never
// panics or returns an error; the state is idle again when it returns.
func (e *Exporter) Trigger(ctx context.Context, req Request) Notice {
	res, err := e.Export(ctx, req)
	return NoticeFor(res, err)
}

// NoticeFor converts an export outcome into a notice.
func NoticeFor(res *Result, err error) Notice {
	var verr *ValidationError
	switch {
	case err == nil:
		return Notice{
			Severity: SeverityInfo,
			Title:    "PDF Generated!",
			Message:  fmt.Sprintf("Your concert memory card has been saved as %s.", res.Filename),
			Result:   res,
		}
	case errors.As(err, &verr):
		return Notice{
			Severity: SeverityWarning,
			Title:    "Missing Information",
			Message:  fmt.Sprintf("Please fill in the %s name before generating PDF.", strings.Join(verr.Fields, " and ")),
			Err:      err,
		}
	case errors.Is(err, ErrExportInProgress):
		return Notice{
			Severity: SeverityInfo,
			Title:    "Export Busy",
			Message:  "A PDF is already being generated. Please wait for it to finish.",
			Err:      err,
		}
	case errors.Is(err, raster.ErrRenderTargetMissing):
		return Notice{
			Severity: SeverityError,
			Title:    "Preview Unavailable",
			Message:  "The card preview is not ready, so there is nothing to export.",
			Err:      err,
		}
	default:
		return Notice{
			Severity: SeverityError,
			Title:    "Generation Failed",
			Message:  "There was an error generating your PDF. Please try again.",
			Err:      err,
		}
	}
}
