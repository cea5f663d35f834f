package snippet

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"reflect"
	"strings"
	"sync"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/ByLCY/inkwell/diag"
	"github.com/ByLCY/inkwell/layout"
	"github.com/ByLCY/inkwell/source"
)

var (
	sharedEnv  *Environment
	sharedOnce sync.Once
)

func testEnv(t *testing.T) *Environment {
	t.Helper()
	sharedOnce.Do(func() { sharedEnv = MustSetup() })
	return sharedEnv
}

func compile(t *testing.T, text string, opts Options) *CompileResult {
	t.Helper()
	if opts.Scale == 0 {
		opts.Scale = 1
	}
	res, err := Compile(testEnv(t), text, opts)
	if err != nil {
		t.Fatalf("unexpected fault: %v", err)
	}
	if (res.Image != nil) == res.HasErrors() {
		t.Fatalf("image presence must negate error presence: image=%v diags=%v", res.Image != nil, res.Diagnostics)
	}
	for _, d := range res.Diagnostics {
		if d.Range != nil && (d.Range.Start < 0 || d.Range.Start > d.Range.End) {
			t.Fatalf("malformed range %+v", *d.Range)
		}
	}
	return res
}

func TestSetupBuildsEnvironment(t *testing.T) {
	env := testEnv(t)
	if env.Fonts() == 0 || env.Book().Len() != env.Fonts() {
		t.Fatalf("font catalog should index every parsed font")
	}
	if env.Root().Path() != "/root" {
		t.Fatalf("unexpected root path %q", env.Root().Path())
	}
}

func TestBuildSource(t *testing.T) {
	cases := []struct {
		autosize, transparent bool
		want                  string
	}{
		{false, false, "x"},
		{true, false, autosizePrefix + "x"},
		{false, true, transparentPrefix + "x"},
		{true, true, autosizePrefix + transparentPrefix + "x"},
	}
	for _, c := range cases {
		got, n := BuildSource("x", c.autosize, c.transparent)
		if got != c.want {
			t.Fatalf("BuildSource(%v, %v) = %q", c.autosize, c.transparent, got)
		}
		if n != len(c.want)-1 {
			t.Fatalf("prefix length %d, want %d", n, len(c.want)-1)
		}
	}
}

func TestScenarioValidParagraph(t *testing.T) {
	res := compile(t, "Hello *world*, this is a _snippet_.", Options{Scale: 2, Autosize: true})
	if res.Image == nil || len(res.Diagnostics) != 0 {
		t.Fatalf("expected clean image, got diagnostics %v", res.Diagnostics)
	}
	img, err := png.Decode(bytes.NewReader(res.Image))
	if err != nil {
		t.Fatalf("image is not a PNG: %v", err)
	}
	if img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		t.Fatalf("empty image")
	}
}

func TestScenarioUnterminatedMarkup(t *testing.T) {
	text := "some *bold text"
	res := compile(t, text, Options{Autosize: true})
	if res.Image != nil {
		t.Fatalf("broken markup must not produce an image")
	}
	var found bool
	for _, d := range res.Diagnostics {
		if d.Severity != SeverityError {
			continue
		}
		found = true
		if d.Range != nil && (d.Range.Start >= len(text) || d.Range.End > len(text)) {
			t.Fatalf("range %+v outside of the user text", *d.Range)
		}
	}
	if !found {
		t.Fatalf("expected an error diagnostic, got %v", res.Diagnostics)
	}
	first := res.Diagnostics[0]
	if first.Message != "unclosed delimiter" || *first.Range != (Range{Start: 5, End: 6}) {
		t.Fatalf("unexpected diagnostic %+v", first)
	}
}

func TestScenarioWarningOnly(t *testing.T) {
	text := "#set text(font: \"Nope\")\nhi"
	res := compile(t, text, Options{Autosize: true, Transparent: true})
	if res.Image == nil {
		t.Fatalf("warnings must not suppress the image")
	}
	if len(res.Diagnostics) != 1 || res.Diagnostics[0].Severity != SeverityWarning {
		t.Fatalf("expected exactly one warning, got %v", res.Diagnostics)
	}
	r := res.Diagnostics[0].Range
	if r == nil || text[r.Start:r.End] != "\"Nope\"" {
		t.Fatalf("warning should point at the font name, got %+v", r)
	}
}

func TestScenarioEmptyInput(t *testing.T) {
	_, n := BuildSource("", true, true)
	if n != len(autosizePrefix)+len(transparentPrefix) {
		t.Fatalf("unexpected prefix length %d", n)
	}
	res, err := Compile(testEnv(t), "", Options{Scale: 1, Autosize: true, Transparent: true})
	if err != nil {
		t.Fatalf("unexpected fault: %v", err)
	}
	if res.Image == nil {
		for _, d := range res.Diagnostics {
			if d.Range != nil && *d.Range != (Range{}) {
				t.Fatalf("diagnostic outside the prefix: %+v", d)
			}
		}
	}
}

func TestErrorsFollowWarnings(t *testing.T) {
	res := compile(t, "a ** b #nope", Options{})
	if len(res.Diagnostics) != 2 {
		t.Fatalf("expected warning and error, got %v", res.Diagnostics)
	}
	if res.Diagnostics[0].Severity != SeverityWarning || res.Diagnostics[1].Severity != SeverityError {
		t.Fatalf("warnings must precede errors: %v", res.Diagnostics)
	}
}

func TestIdentityWithoutPrefix(t *testing.T) {
	res := compile(t, "ok #nope", Options{})
	if len(res.Diagnostics) != 1 {
		t.Fatalf("unexpected diagnostics %v", res.Diagnostics)
	}
	if r := res.Diagnostics[0].Range; r == nil || *r != (Range{Start: 4, End: 8}) {
		t.Fatalf("range should equal the engine span, got %+v", r)
	}
}

func TestPrefixShiftsRanges(t *testing.T) {
	res := compile(t, "ok #nope", Options{Autosize: true})
	if r := res.Diagnostics[0].Range; r == nil || *r != (Range{Start: 4, End: 8}) {
		t.Fatalf("range should be relative to the user text, got %+v", r)
	}
}

func TestTranslateSaturates(t *testing.T) {
	env := testEnv(t)
	full, n := BuildSource("x", true, false)
	w := NewWorld(env, full)

	inPrefix := translate(w, n, diag.Error(source.NewSpan(env.Root(), 3, 10), "inside"))
	if *inPrefix.Range != (Range{}) {
		t.Fatalf("span inside prefix should clamp to (0,0), got %+v", *inPrefix.Range)
	}
	straddle := translate(w, n, diag.Error(source.NewSpan(env.Root(), 3, n+1), "straddle"))
	if *straddle.Range != (Range{Start: 0, End: 1}) {
		t.Fatalf("straddling span should clamp its start, got %+v", *straddle.Range)
	}
	detached := translate(w, n, diag.Warning(source.Detached(), "nowhere"))
	if detached.Range != nil || detached.Severity != SeverityWarning || detached.Message != "nowhere" {
		t.Fatalf("unexpected translation %+v", detached)
	}
	foreign := translate(w, n, diag.Error(source.NewSpan(source.NewFakeID("/other"), 0, 1), "foreign"))
	if foreign.Range != nil {
		t.Fatalf("spans of other files cannot be located")
	}
}

func TestWorldPolicy(t *testing.T) {
	env := testEnv(t)
	w := NewWorld(env, "text")

	src, err := w.Source(w.Main())
	if err != nil || src.Text() != "text" {
		t.Fatalf("main source should resolve, got %v", err)
	}
	other := source.IDFor(source.NewVirtualPath("/other.typ"))
	if _, err := w.Source(other); !errors.Is(err, diag.ErrAccessDenied) {
		t.Fatalf("other sources must be denied, got %v", err)
	}
	if _, err := w.File(w.Main()); !errors.Is(err, diag.ErrAccessDenied) {
		t.Fatalf("binary files must be denied, got %v", err)
	}
	if _, ok := w.Today(nil); ok {
		t.Fatalf("today must be unavailable")
	}
	if w.Font(0) == nil || w.Font(-1) != nil || w.Font(env.Fonts()) != nil {
		t.Fatalf("font lookup must be bounds checked")
	}
}

func TestDeniedResourcesAreDiagnostics(t *testing.T) {
	res := compile(t, "#image(\"x.png\") #include(\"y.typ\") #today()", Options{})
	msgs := make([]string, 0, len(res.Diagnostics))
	for _, d := range res.Diagnostics {
		msgs = append(msgs, d.Message)
	}
	want := "failed to load file (access denied)|failed to load file (access denied)|unable to get the current date"
	if got := strings.Join(msgs, "|"); got != want {
		t.Fatalf("unexpected diagnostics:\n got %s\nwant %s", got, want)
	}
}

func TestInvalidScaleIsFault(t *testing.T) {
	for _, scale := range []float64{0, -1} {
		_, err := Compile(testEnv(t), "x", Options{Scale: scale})
		var f *Fault
		if !errors.As(err, &f) || f.Kind != KindInvalidInput || f.Phase != PhaseInput {
			t.Fatalf("scale %g: expected invalid input fault, got %v", scale, err)
		}
	}
}

func TestCompileIsIdempotent(t *testing.T) {
	opts := Options{Scale: 1.5, Autosize: true}
	a := compile(t, "Same *input* #nope", opts)
	b := compile(t, "Same *input* #nope", opts)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("results differ between identical calls")
	}
	c := compile(t, "Same *input*", opts)
	d := compile(t, "Same *input*", opts)
	if !bytes.Equal(c.Image, d.Image) {
		t.Fatalf("images differ between identical calls")
	}
}

func TestConcurrentCompiles(t *testing.T) {
	env := testEnv(t)
	inputs := []string{"one", "two *bold*", "#nope", "= Title\n\n- item"}
	results := make([]*CompileResult, len(inputs)*4)
	var g errgroup.Group
	for i := range results {
		g.Go(func() error {
			res, err := Compile(env, inputs[i%len(inputs)], Options{Scale: 1, Autosize: true})
			results[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("unexpected fault: %v", err)
	}
	for i, res := range results {
		first := results[i%len(inputs)]
		if !reflect.DeepEqual(res, first) {
			t.Fatalf("input %d: concurrent result differs", i%len(inputs))
		}
	}
}

func TestTypesetReturnsDocument(t *testing.T) {
	doc, diags, err := Typeset(testEnv(t), "hi", Options{Autosize: true, Transparent: true})
	if err != nil || len(diags) != 0 {
		t.Fatalf("unexpected result: %v %v", err, diags)
	}
	if len(doc.Pages) != 1 || doc.Pages[0].Fill != nil {
		t.Fatalf("transparent snippet should produce one unfilled page")
	}
}

func decodeImage(t *testing.T, res *CompileResult) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(res.Image))
	if err != nil {
		t.Fatalf("image is not a PNG: %v", err)
	}
	return img
}

func TestDefaultPageIsA4(t *testing.T) {
	res := compile(t, "hi", Options{Scale: 1})
	b := decodeImage(t, res).Bounds()
	if b.Dx() < 594 || b.Dx() > 596 || b.Dy() < 841 || b.Dy() > 843 {
		t.Fatalf("expected an A4 page of about 595x842 px, got %dx%d", b.Dx(), b.Dy())
	}
	small := decodeImage(t, compile(t, "hi", Options{Scale: 1, Autosize: true})).Bounds()
	if small.Dx() >= b.Dx() || small.Dy() >= b.Dy() {
		t.Fatalf("autosize should shrink the page to its content, got %dx%d", small.Dx(), small.Dy())
	}
}

func TestRendersEveryLetterInEveryStyle(t *testing.T) {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ abcdefghijklmnopqrstuvwxyz 0123456789 .,:;!?()"
	text := letters + "\n\n*" + letters + "*\n\n_" + letters + "_\n\n*_" + letters + "_*\n\n`" + letters + "`"
	for _, scale := range []float64{0.25, 0.5, 1, 1.5, 2, 3} {
		res := compile(t, text, Options{Scale: scale, Autosize: true})
		if len(res.Diagnostics) != 0 || res.Image == nil {
			t.Fatalf("scale %g: expected a clean image, got %v", scale, res.Diagnostics)
		}
	}
	res := compile(t, "The quick brown fox jumps over the lazy dog", Options{Scale: 1})
	if res.Image == nil {
		t.Fatalf("pangram failed to render: %v", res.Diagnostics)
	}
}

type panicRenderer struct{}

func (panicRenderer) Render(*layout.Document, float64) (*image.RGBA, error) { panic("boom") }

func TestRendererPanicBecomesFault(t *testing.T) {
	prev := defaultRenderer
	defaultRenderer = panicRenderer{}
	t.Cleanup(func() { defaultRenderer = prev })

	res, err := Compile(testEnv(t), "hi", Options{Scale: 1})
	var f *Fault
	if res != nil || !errors.As(err, &f) || f.Phase != PhaseRender || f.Kind != KindRender {
		t.Fatalf("expected a render fault, got %v %v", res, err)
	}
	if !strings.Contains(f.Detail, "boom") {
		t.Fatalf("fault should carry the panic value, got %q", f.Detail)
	}
}
