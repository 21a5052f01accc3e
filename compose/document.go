package compose

import (
	"compress/zlib"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/digitorus/memorycard/card"
	"github.com/digitorus/memorycard/internal/pdf"
	"github.com/digitorus/memorycard/internal/render"
)

// Producer is written into every document.
const Producer = "memorycard"

// Options controls page geometry and image embedding.
type Options struct {
	// Margin in millimetres.
	Margin   float64
	Encoding render.ImageEncoding

	// Border draws a page frame when set.
	Border      card.BorderStyle
	BorderColor render.Color
	BorderWidth float64
}

// DefaultOptions returns a 15mm margin and JPEG quality 95.
func DefaultOptions() Options {
	return Options{
		Margin: DefaultMargin,
		Encoding: render.ImageEncoding{
			Format:        render.EncodingJPEG,
			Quality:       95,
			CompressLevel: zlib.BestCompression,
		},
		BorderColor: render.Black,
		BorderWidth: 1,
	}
}

func (o Options) marginPt() float64 {
	if o.Margin < 0 {
		return 0
	}
	return MMToPt(o.Margin)
}

// Metadata is the document information.
type Metadata struct {
	Title        string
	Subject      string
	Author       string
	Creator      string
	Keywords     string
	CreationDate time.Time
}

// Document is a composed, not yet serialized, PDF.
type Document struct {
	Format      PageFormat
	Orientation Orientation
	Pages       []render.Page
	Meta        Metadata

	// Placement of the card image on the first page, zero for sheets.
	Placement Placement

	encoding render.ImageEncoding
}

// Compose places a captured card on a single page.
func Compose(bitmap image.Image, o Orientation, f PageFormat, opts Options) (*Document, error) {
	if bitmap == nil {
		return nil, fmt.Errorf("no bitmap to compose")
	}
	page := PageOf(f, o)
	b := bitmap.Bounds()
	pl, err := Fit(b.Dx(), b.Dy(), page, opts.marginPt())
	if err != nil {
		return nil, err
	}

	els := border(page, opts.marginPt(), opts)
	els = append(els, render.ImageElement{
		Bitmap: bitmap,
		X:      pl.X,
		Y:      pl.Y,
		Width:  pl.W,
		Height: pl.H,
	})

	return &Document{
		Format:      f,
		Orientation: o,
		Pages:       []render.Page{{Width: page.Width, Height: page.Height, Elements: els}},
		Placement:   pl,
		encoding:    opts.Encoding,
	}, nil
}

// WriteTo serializes the document. The file identifier is derived from the
// page content and metadata other than the creation date, so identical
// documents differ only in that date.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	pw := pdf.NewWriter()

	pages := make([]pdf.PageObject, 0, len(d.Pages))
	for i, p := range d.Pages {
		pc, err := render.RenderPage(pw, p, d.encoding)
		if err != nil {
			return 0, fmt.Errorf("failed to render page %d: %w", i+1, err)
		}
		pages = append(pages, pdf.PageObject{
			Width:     p.Width,
			Height:    p.Height,
			Content:   pc.Stream,
			Resources: pc.Resources,
		})
	}

	level := d.encoding.CompressLevel
	if level == 0 {
		level = zlib.DefaultCompression
	}
	root, err := pw.WritePages(pages, level)
	if err != nil {
		return 0, err
	}

	info := pdf.Info{
		Title:    d.Meta.Title,
		Subject:  d.Meta.Subject,
		Author:   d.Meta.Author,
		Creator:  d.Meta.Creator,
		Producer: Producer,
		Keywords: d.Meta.Keywords,
	}
	// the identifier covers everything but the creation date
	pw.Seal(info.Dict())
	info.CreationDate = d.Meta.CreationDate
	infoID, err := pw.AddObject(info.Dict())
	if err != nil {
		return 0, err
	}
	if err := pw.Close(root, infoID); err != nil {
		return 0, err
	}
	return pw.WriteTo(w)
}
