package library

import "testing"

func TestDefaultLibrary(t *testing.T) {
	lib := NewBuilder().Build()

	page, ok := lib.Element("page")
	if !ok {
		t.Fatalf("page element missing")
	}
	width, ok := page.Param("width")
	if !ok || !width.Allows(KindAuto) || !width.Allows(KindLength) || width.Allows(KindString) {
		t.Fatalf("unexpected width param: %+v", width)
	}
	if _, ok := lib.Function("pagebreak"); !ok {
		t.Fatalf("pagebreak missing")
	}
	v, _ := lib.Function("v")
	if p, ok := v.Positional(0); !ok || p.Name != "amount" {
		t.Fatalf("v should take a positional amount, got %+v", p)
	}
	if c, ok := lib.Color("white"); !ok || c != (Color{255, 255, 255, 255}) {
		t.Fatalf("unexpected white: %+v", c)
	}
	if lib.Defines("nope") {
		t.Fatalf("nope must not be defined")
	}
}

func TestBuilderCustomizationDoesNotLeak(t *testing.T) {
	b := NewBuilder()
	lib := b.Build()
	b.WithColor("brand", Color{R: 1, A: 255}).WithoutFunction("today")

	if _, ok := lib.Color("brand"); ok {
		t.Fatalf("built library must not see later builder changes")
	}
	if _, ok := lib.Function("today"); !ok {
		t.Fatalf("today should still exist in the earlier build")
	}
	custom := b.Build()
	if _, ok := custom.Function("today"); ok {
		t.Fatalf("today should be removed")
	}
}

func TestParseHex(t *testing.T) {
	cases := []struct {
		in   string
		want Color
		ok   bool
	}{
		{"#fff", Color{255, 255, 255, 255}, true},
		{"#102030", Color{0x10, 0x20, 0x30, 0xff}, true},
		{"#10203040", Color{0x10, 0x20, 0x30, 0x40}, true},
		{"#12", Color{}, false},
		{"#gggggg", Color{}, false},
	}
	for _, c := range cases {
		got, err := ParseHex(c.in)
		if (err == nil) != c.ok {
			t.Fatalf("%s: unexpected err %v", c.in, err)
		}
		if c.ok && got != c.want {
			t.Fatalf("%s: got %+v want %+v", c.in, got, c.want)
		}
	}
}

func TestDescribe(t *testing.T) {
	if got := Describe([]Kind{KindLength, KindAuto}); got != "length or auto" {
		t.Fatalf("unexpected: %s", got)
	}
	if got := Describe([]Kind{KindColor, KindNone, KindString}); got != "color, none or string" {
		t.Fatalf("unexpected: %s", got)
	}
}
