package canvasrenderer

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/ByLCY/inkwell/fonts"
	"github.com/ByLCY/inkwell/layout"
	"github.com/ByLCY/inkwell/library"
	"github.com/ByLCY/inkwell/renderer"
)

var white = library.Color{R: 255, G: 255, B: 255, A: 255}

func near(got, want int) bool { return got >= want-1 && got <= want+1 }

func TestRenderMergesPagesVertically(t *testing.T) {
	doc := &layout.Document{Pages: []layout.Page{
		{Width: 10, Height: 10, Fill: &white},
		{Width: 20, Height: 5},
	}}
	img, err := NewRenderer().Render(doc, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b := img.Bounds()
	if !near(b.Dx(), 40) || !near(b.Dy(), 30) {
		t.Fatalf("expected about 40x30 pixels, got %dx%d", b.Dx(), b.Dy())
	}
	if a := img.RGBAAt(5, 5).A; a != 255 {
		t.Fatalf("filled page should be opaque, alpha=%d", a)
	}
	if a := img.RGBAAt(30, 5).A; a != 0 {
		t.Fatalf("area right of a narrow page should stay transparent, alpha=%d", a)
	}
	if a := img.RGBAAt(30, 25).A; a != 0 {
		t.Fatalf("page without fill should be transparent, alpha=%d", a)
	}
}

func TestRenderDrawsText(t *testing.T) {
	fs, err := fonts.Load()
	if err != nil {
		t.Fatalf("加载字体失败: %v", err)
	}
	doc := &layout.Document{Pages: []layout.Page{{
		Width: 60, Height: 20,
		Texts: []layout.TextItem{{
			X: 2, Y: 15, Text: "Hello", Font: fs[0], Face: fs[0].Name(), Size: 12,
			Color: library.Color{A: 255},
		}},
	}}}
	img, err := NewRenderer().Render(doc, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	inked := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.RGBAAt(x, y).A > 0 {
				inked++
			}
		}
	}
	if inked == 0 {
		t.Fatalf("expected glyph pixels to be drawn")
	}
}

func TestRenderRejectsBadInput(t *testing.T) {
	r := NewRenderer()
	if _, err := r.Render(nil, 1); err == nil {
		t.Fatalf("nil document should fail")
	}
	if _, err := r.Render(&layout.Document{}, 1); err == nil {
		t.Fatalf("document without pages should fail")
	}
	doc := &layout.Document{Pages: []layout.Page{{Width: 1, Height: 1}}}
	if _, err := r.Render(doc, 0); err == nil {
		t.Fatalf("zero scale should fail")
	}
}

func TestEncodePNG(t *testing.T) {
	doc := &layout.Document{Pages: []layout.Page{{Width: 4, Height: 3, Fill: &white}}}
	img, err := NewRenderer().Render(doc, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := renderer.EncodePNG(img)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	if decoded.Bounds() != img.Bounds() {
		t.Fatalf("bounds changed: %v vs %v", decoded.Bounds(), img.Bounds())
	}
}

func TestRenderEveryEmbeddedGlyph(t *testing.T) {
	fs, err := fonts.Load()
	if err != nil {
		t.Fatalf("load fonts: %v", err)
	}
	const ascii = "ABCDEFGHIJKLMNOPQRSTUVWXYZ abcdefghijklmnopqrstuvwxyz 0123456789 .,:;!?()[]{}<>/\\|@#$%^&*_-+=~`'\""
	for _, f := range fs {
		page := layout.Page{Width: 900, Height: 30, Texts: []layout.TextItem{
			{X: 5, Y: 20, Text: ascii, Font: f, Face: f.Name(), Size: 11, Color: library.Color{A: 255}},
		}}
		img, err := NewRenderer().Render(&layout.Document{Pages: []layout.Page{page}}, 1)
		if err != nil {
			t.Fatalf("%s: %v", f.Name(), err)
		}
		inked := false
		b := img.Bounds()
		for y := b.Min.Y; y < b.Max.Y && !inked; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				if img.RGBAAt(x, y).A > 0 {
					inked = true
					break
				}
			}
		}
		if !inked {
			t.Fatalf("%s: nothing was drawn", f.Name())
		}
	}
}

func TestRenderRecoversFromDrawPanics(t *testing.T) {
	page := layout.Page{Width: 10, Height: 10, Texts: []layout.TextItem{
		{X: 1, Y: 5, Text: "x", Font: &fonts.Font{}, Size: 11},
	}}
	img, err := NewRenderer().Render(&layout.Document{Pages: []layout.Page{page}}, 1)
	if err == nil || img != nil {
		t.Fatalf("a broken font must surface as an error")
	}
}
