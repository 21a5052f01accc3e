package render

import (
	"bytes"
	"compress/zlib"
	"encoding/hex"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/digitorus/memorycard/fonts"
)

// Registrar stores indirect objects and returns their object numbers.
type Registrar interface {
	AddObject(data []byte) (uint32, error)
}

// Image encodings.
const (
	EncodingJPEG = "jpeg"
	EncodingPNG  = "png"
)

// ImageEncoding controls how bitmaps are embedded.
type ImageEncoding struct {
	Format        string // EncodingJPEG or EncodingPNG
	Quality       int    // JPEG quality, 1..100
	CompressLevel int    // zlib level for Flate streams
}

// PageContent is a rendered page: the content stream and the resource
// dictionary it refers to.
type PageContent struct {
	Stream    []byte
	Resources []byte
}

// RenderPage renders page elements to PDF operators. Element coordinates use
// a top-left origin; the y axis is flipped here.
func RenderPage(reg Registrar, p Page, enc ImageEncoding) (*PageContent, error) {
	var xobjects bytes.Buffer
	var fontsBuf bytes.Buffer
	hasXObjects := false
	hasFonts := false

	var stream bytes.Buffer

	imgCount := 0
	fontCount := 0
	fontMap := make(map[string]string)
	flip := func(y float64) float64 { return p.Height - y }

	for _, el := range p.Elements {
		switch e := el.(type) {
		case ImageElement:
			if e.Bitmap == nil {
				return nil, fmt.Errorf("page image has no bitmap")
			}
			imgCount++
			imgName := fmt.Sprintf("Im%d", imgCount)

			imgObjID, err := RegisterImage(reg, e.Bitmap, enc)
			if err != nil {
				return nil, err
			}

			if !hasXObjects {
				xobjects.WriteString("    /XObject <<\n")
				hasXObjects = true
			}
			fmt.Fprintf(&xobjects, "      /%s %d 0 R\n", imgName, imgObjID)

			fmt.Fprintf(&stream, "q\n")
			fmt.Fprintf(&stream, "  %.4f 0 0 %.4f %.4f %.4f cm\n", e.Width, e.Height, e.X, flip(e.Y+e.Height))
			fmt.Fprintf(&stream, "  /%s Do\n", imgName)
			fmt.Fprintf(&stream, "Q\n")

		case TextElement:
			font := e.Font
			if font == nil {
				font = fonts.Standard(fonts.Courier)
			}

			fontName, ok := fontMap[font.Name]
			if !ok {
				fontCount++
				fontName = fmt.Sprintf("F%d", fontCount)
				fontMap[font.Name] = fontName

				if !hasFonts {
					fontsBuf.WriteString("    /Font <<\n")
					hasFonts = true
				}
				fontObjID, err := RegisterFont(reg, font)
				if err != nil {
					return nil, err
				}
				fmt.Fprintf(&fontsBuf, "      /%s %d 0 R\n", fontName, fontObjID)
			}

			x := e.X
			if e.Width > 0 && e.Align != AlignLeft {
				textWidth := font.Width(e.Content, e.Size)
				switch e.Align {
				case AlignCenter:
					x += (e.Width - textWidth) / 2
				case AlignRight:
					x += e.Width - textWidth
				}
			}

			stream.WriteString("q\nBT\n")
			fmt.Fprintf(&stream, "  /%s %.2f Tf\n", fontName, e.Size)
			fmt.Fprintf(&stream, "  %s rg\n", rgb(e.Color))
			fmt.Fprintf(&stream, "  %.4f %.4f Td\n", x, flip(e.Y))
			fmt.Fprintf(&stream, "  <%s> Tj\n", hex.EncodeToString(winAnsi(e.Content)))
			stream.WriteString("ET\nQ\n")

		case LineElement:
			stream.WriteString("q\n")
			fmt.Fprintf(&stream, "%.2f w\n", e.StrokeWidth)
			fmt.Fprintf(&stream, "%s RG\n", rgb(e.StrokeColor))
			writeDash(&stream, e.Dash)
			fmt.Fprintf(&stream, "%.4f %.4f m\n", e.X1, flip(e.Y1))
			fmt.Fprintf(&stream, "%.4f %.4f l\n", e.X2, flip(e.Y2))
			stream.WriteString("S\nQ\n")

		case ShapeElement:
			// pages carry frames only; other shapes are painted into bitmaps
			if e.ShapeType != "rect" {
				return nil, fmt.Errorf("shape %q cannot be placed on a page", e.ShapeType)
			}
			stream.WriteString("q\n")
			fmt.Fprintf(&stream, "%.2f w\n", e.StrokeWidth)
			if e.FillColor != nil {
				fmt.Fprintf(&stream, "%s rg\n", rgb(*e.FillColor))
			}
			if e.StrokeColor != nil {
				fmt.Fprintf(&stream, "%s RG\n", rgb(*e.StrokeColor))
			}
			writeDash(&stream, e.Dash)
			fmt.Fprintf(&stream, "%.4f %.4f %.4f %.4f re\n", e.X, flip(e.Y+e.Height), e.Width, e.Height)
			if e.FillColor != nil && e.StrokeColor != nil {
				stream.WriteString("B\n")
			} else if e.FillColor != nil {
				stream.WriteString("f\n")
			} else if e.StrokeColor != nil {
				stream.WriteString("S\n")
			} else {
				stream.WriteString("n\n")
			}
			stream.WriteString("Q\n")

		default:
			return nil, fmt.Errorf("element %T cannot be placed on a page", el)
		}
	}

	var res bytes.Buffer
	res.WriteString("<<\n")
	if hasXObjects {
		xobjects.WriteString("    >>\n")
		res.Write(xobjects.Bytes())
	}
	if hasFonts {
		fontsBuf.WriteString("    >>\n")
		res.Write(fontsBuf.Bytes())
	}
	res.WriteString("  >>")

	return &PageContent{Stream: stream.Bytes(), Resources: res.Bytes()}, nil
}

// RegisterImage encodes and registers an image object in the PDF.
func RegisterImage(reg Registrar, srcImg image.Image, enc ImageEncoding) (uint32, error) {
	if srcImg == nil {
		return 0, fmt.Errorf("invalid image data")
	}
	bounds := srcImg.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return 0, fmt.Errorf("invalid image data: empty bounds")
	}

	var rgbBuf, alphaBuf bytes.Buffer
	compressLevel := enc.CompressLevel

	var rgbWriter, alphaWriter io.Writer = &rgbBuf, &alphaBuf
	var zlibRgb, zlibAlpha *zlib.Writer
	useCompression := compressLevel != zlib.NoCompression

	if useCompression {
		var err error
		if zlibRgb, err = zlib.NewWriterLevel(&rgbBuf, compressLevel); err != nil {
			return 0, fmt.Errorf("failed to create compressor: %w", err)
		}
		if zlibAlpha, err = zlib.NewWriterLevel(&alphaBuf, compressLevel); err != nil {
			return 0, fmt.Errorf("failed to create compressor: %w", err)
		}
		rgbWriter, alphaWriter = zlibRgb, zlibAlpha
	}

	hasAlpha := false
	row := make([]byte, 0, width*3)
	alphaRow := make([]byte, 0, width)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row, alphaRow = row[:0], alphaRow[:0]
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := srcImg.At(x, y).RGBA()
			a8 := uint8(a >> 8)
			if a8 < 255 {
				hasAlpha = true
			}
			alphaRow = append(alphaRow, a8)
			row = append(row, uint8(r>>8), uint8(g>>8), uint8(b>>8))
		}
		if _, err := rgbWriter.Write(row); err != nil {
			return 0, err
		}
		if _, err := alphaWriter.Write(alphaRow); err != nil {
			return 0, err
		}
	}

	if useCompression {
		if err := zlibRgb.Close(); err != nil {
			return 0, err
		}
		if err := zlibAlpha.Close(); err != nil {
			return 0, err
		}
	}

	var smaskID uint32
	if hasAlpha {
		smaskDict := fmt.Sprintf("<< /Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /DeviceGray /BitsPerComponent 8 %s /Length %d >>\nstream\n",
			width, height, ifElse(useCompression, "/Filter /FlateDecode", ""), alphaBuf.Len())
		smaskData := append([]byte(smaskDict), alphaBuf.Bytes()...)
		smaskData = append(smaskData, []byte("\nendstream")...)
		var err error
		if smaskID, err = reg.AddObject(smaskData); err != nil {
			return 0, err
		}
	}

	var objBuf bytes.Buffer
	objBuf.WriteString("<< /Type /XObject /Subtype /Image\n")
	fmt.Fprintf(&objBuf, "  /Width %d /Height %d /ColorSpace /DeviceRGB /BitsPerComponent 8\n", width, height)
	if smaskID != 0 {
		fmt.Fprintf(&objBuf, "  /SMask %d 0 R\n", smaskID)
	}

	if enc.Format == EncodingJPEG && !hasAlpha {
		var jpg bytes.Buffer
		if err := jpeg.Encode(&jpg, opaqueRGBA(srcImg), &jpeg.Options{Quality: enc.Quality}); err != nil {
			return 0, fmt.Errorf("failed to encode jpeg: %w", err)
		}
		fmt.Fprintf(&objBuf, "  /Filter /DCTDecode /Length %d >>\nstream\n", jpg.Len())
		objBuf.Write(jpg.Bytes())
	} else {
		fmt.Fprintf(&objBuf, "  %s /Length %d >>\nstream\n", ifElse(useCompression, "/Filter /FlateDecode", ""), rgbBuf.Len())
		objBuf.Write(rgbBuf.Bytes())
	}
	objBuf.WriteString("\nendstream")

	return reg.AddObject(objBuf.Bytes())
}

// opaqueRGBA makes sure the JPEG encoder writes three color components.
func opaqueRGBA(m image.Image) image.Image {
	switch m.(type) {
	case *image.RGBA, *image.NRGBA, *image.YCbCr:
		return m
	}
	b := m.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.Set(x, y, m.At(x, y))
		}
	}
	return out
}

// RegisterFont registers a standard Type1 font in the PDF. Pages only carry
// text in the standard fonts; the card itself is a raster image.
func RegisterFont(reg Registrar, f *fonts.Font) (uint32, error) {
	baseFont := "Courier"
	if f != nil && f.Name != "" && !f.Embedded {
		baseFont = f.Name
	}
	fontDict := fmt.Sprintf("<< /Type /Font /Subtype /Type1 /BaseFont /%s /Encoding /WinAnsiEncoding >>", baseFont)
	return reg.AddObject([]byte(fontDict))
}

// winAnsi encodes text for a WinAnsiEncoding font. Runes outside the code
// page become '?'.
func winAnsi(text string) []byte {
	out := make([]byte, 0, len(text))
	for _, r := range text {
		b, ok := charmap.Windows1252.EncodeRune(r)
		if !ok {
			b = '?'
		}
		out = append(out, b)
	}
	return out
}

func writeDash(w io.Writer, dash []float64) {
	if len(dash) == 0 {
		return
	}
	parts := make([]string, len(dash))
	for i, d := range dash {
		parts[i] = fmt.Sprintf("%.2f", d)
	}
	fmt.Fprintf(w, "[%s] 0 d\n", strings.Join(parts, " "))
}

func rgb(c Color) string {
	return fmt.Sprintf("%.3f %.3f %.3f", float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0)
}

func ifElse(cond bool, a, b string) string {
	if cond {
		return a
	}
	return b
}
