package render

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/digitorus/memorycard/fonts"
)

type objectStore struct {
	objects [][]byte
}

func (s *objectStore) AddObject(data []byte) (uint32, error) {
	s.objects = append(s.objects, data)
	return uint32(len(s.objects)), nil
}

func solid(w, h int, c color.Color) *image.RGBA {
	m := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.Set(x, y, c)
		}
	}
	return m
}

func TestRenderPage_Image(t *testing.T) {
	tests := []struct {
		name       string
		enc        ImageEncoding
		img        image.Image
		wantFilter string
		wantObjs   int
	}{
		{"jpeg opaque", ImageEncoding{Format: EncodingJPEG, Quality: 95, CompressLevel: zlib.DefaultCompression}, solid(4, 4, color.RGBA{255, 0, 0, 255}), "/DCTDecode", 1},
		{"png opaque", ImageEncoding{Format: EncodingPNG, CompressLevel: zlib.DefaultCompression}, solid(4, 4, color.RGBA{255, 0, 0, 255}), "/FlateDecode", 1},
		{"jpeg with alpha falls back to flate", ImageEncoding{Format: EncodingJPEG, Quality: 95, CompressLevel: zlib.DefaultCompression}, solid(4, 4, color.NRGBA{255, 0, 0, 128}), "/FlateDecode", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := &objectStore{}
			page := Page{Width: 200, Height: 100, Elements: []Element{
				ImageElement{Bitmap: tt.img, X: 10, Y: 20, Width: 40, Height: 30},
			}}
			pc, err := RenderPage(reg, page, tt.enc)
			if err != nil {
				t.Fatalf("RenderPage() error: %v", err)
			}
			if len(reg.objects) != tt.wantObjs {
				t.Fatalf("registered %d objects, want %d", len(reg.objects), tt.wantObjs)
			}
			last := string(reg.objects[len(reg.objects)-1])
			if !strings.Contains(last, tt.wantFilter) {
				t.Errorf("image object missing %s: %.120s", tt.wantFilter, last)
			}
			// y is flipped: 100 - (20 + 30) = 50
			if !strings.Contains(string(pc.Stream), "40.0000 0 0 30.0000 10.0000 50.0000 cm") {
				t.Errorf("unexpected placement:\n%s", pc.Stream)
			}
			if !strings.Contains(string(pc.Resources), fmt.Sprintf("/Im1 %d 0 R", len(reg.objects))) {
				t.Errorf("resources do not reference image: %s", pc.Resources)
			}
		})
	}
}

func TestRenderPage_TextAndStrokes(t *testing.T) {
	reg := &objectStore{}
	page := Page{Width: 100, Height: 100, Elements: []Element{
		TextElement{Content: "Café", Size: 10, X: 5, Y: 15, Color: Black},
		TextElement{Content: "again", Size: 10, X: 5, Y: 30, Color: Black},
		LineElement{X1: 0, Y1: 0, X2: 100, Y2: 0, StrokeColor: Black, StrokeWidth: 1, Dash: []float64{6, 3}},
		ShapeElement{ShapeType: "rect", X: 10, Y: 10, Width: 80, Height: 80, StrokeColor: Black.Ptr(), StrokeWidth: 0.5},
		ShapeElement{ShapeType: "rect", X: 20, Y: 20, Width: 5, Height: 5, FillColor: White.Ptr()},
	}}
	pc, err := RenderPage(reg, page, ImageEncoding{})
	if err != nil {
		t.Fatal(err)
	}
	s := string(pc.Stream)
	for _, want := range []string{
		"<436166e9> Tj", // WinAnsi é
		"[6.00 3.00] 0 d",
		"10.0000 10.0000 80.0000 80.0000 re",
		"20.0000 75.0000 5.0000 5.0000 re\nf\n",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("stream missing %q:\n%s", want, s)
		}
	}
	// one font object for both text elements
	if len(reg.objects) != 1 || !bytes.Contains(reg.objects[0], []byte("/BaseFont /Courier")) {
		t.Errorf("unexpected font objects: %q", reg.objects)
	}
}

func TestRenderPage_CenteredText(t *testing.T) {
	reg := &objectStore{}
	courier := fonts.Standard(fonts.Courier)
	page := Page{Width: 100, Height: 100, Elements: []Element{
		TextElement{Content: "abcd", Font: courier, Size: 10, X: 0, Y: 50, Width: 100, Align: AlignCenter},
	}}
	pc, err := RenderPage(reg, page, ImageEncoding{})
	if err != nil {
		t.Fatal(err)
	}
	// 4 glyphs * 6pt = 24pt wide, so x = (100-24)/2
	if !strings.Contains(string(pc.Stream), "38.0000 50.0000 Td") {
		t.Errorf("text not centered:\n%s", pc.Stream)
	}
}

func TestRenderPage_Negatives(t *testing.T) {
	reg := &objectStore{}
	if _, err := RenderPage(reg, Page{Elements: []Element{ImageElement{}}}, ImageEncoding{}); err == nil {
		t.Error("expected error for image without bitmap")
	}
	if _, err := RenderPage(reg, Page{Elements: []Element{DecorationElement{}}}, ImageEncoding{}); err == nil {
		t.Error("expected error for decoration on a page")
	}
	if _, err := RenderPage(reg, Page{Elements: []Element{ShapeElement{ShapeType: "circle", R: 5}}}, ImageEncoding{}); err == nil {
		t.Error("expected error for a circle on a page")
	}
	if _, err := RegisterImage(reg, image.NewRGBA(image.Rect(0, 0, 0, 0)), ImageEncoding{}); err == nil {
		t.Error("expected error for empty image")
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in      string
		want    Color
		wantErr bool
	}{
		{"#ff0080", Color{255, 0, 128}, false},
		{"#fff", Color{255, 255, 255}, false},
		{"00ffff", Color{0, 255, 255}, false},
		{"#zzzzzz", Color{}, true},
		{"#12345", Color{}, true},
	}
	for _, tt := range tests {
		got, err := ParseHex(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseHex(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseHex(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestExpandTemplateVariables(t *testing.T) {
	ctx := TemplateContext{Artist: "Dead Kennedys", Venue: "CBGB", Year: "1981"}
	tests := []struct {
		in, want string
	}{
		{"Concert Memory - {{Artist}}", "Concert Memory - Dead Kennedys"},
		{"Concert at {{Venue}}", "Concert at CBGB"},
		{"{{Initials}} {{Year}}", "DK 1981"},
		{"{{Unknown}}", "{{Unknown}}"},
	}
	for _, tt := range tests {
		if got := ExpandTemplateVariables(tt.in, ctx); got != tt.want {
			t.Errorf("ExpandTemplateVariables(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTreeWalkers(t *testing.T) {
	tree := &Tree{Elements: []Element{
		TextElement{Content: "A"},
		Group{Elements: []Element{
			TextElement{Content: "B"},
			ImageElement{PhotoID: "p1", Source: "data:x"},
		}},
		ImageElement{PhotoID: "p2", Source: "data:y"},
		DecorationElement{ID: 1},
		DecorationElement{ID: 2},
	}}
	if got := tree.Texts(); strings.Join(got, ",") != "A,B" {
		t.Errorf("Texts() = %v", got)
	}
	if got := tree.Photos(); len(got) != 2 || got[0].PhotoID != "p1" {
		t.Errorf("Photos() = %v", got)
	}
	if got := tree.Decorations(); len(got) != 2 || got[1].ID != 2 {
		t.Errorf("Decorations() = %v", got)
	}
}
