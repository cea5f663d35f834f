package source

import "testing"

func TestFakeIDsAreUnique(t *testing.T) {
	p := NewVirtualPath("/root")
	a := NewFakeID(p)
	b := NewFakeID(p)
	if a == b {
		t.Fatalf("fake ids must differ: %v == %v", a, b)
	}
	if IDFor(p) == a || IDFor(p) == b {
		t.Fatalf("interned id must not collide with fake ids")
	}
	if IDFor(p) != IDFor(p) {
		t.Fatalf("interned id must be stable")
	}
	if a.Path() != p {
		t.Fatalf("path mismatch: %q", a.Path())
	}
}

func TestVirtualPathJoin(t *testing.T) {
	root := NewVirtualPath("root")
	if root != "/root" {
		t.Fatalf("unexpected root: %q", root)
	}
	if got := root.Join("img/logo.png"); got != "/img/logo.png" {
		t.Fatalf("unexpected join: %q", got)
	}
	if got := root.Join("../../etc/passwd"); got != "/etc/passwd" {
		t.Fatalf("unexpected join: %q", got)
	}
}

func TestNewSpanClamps(t *testing.T) {
	f := IDFor(NewVirtualPath("/f"))
	s := NewSpan(f, -4, -1)
	if s.Start != 0 || s.End != 0 {
		t.Fatalf("negative offsets must clamp to zero: %+v", s)
	}
	s = NewSpan(f, 10, 3)
	if s.Start != 10 || s.End != 10 {
		t.Fatalf("end must not precede start: %+v", s)
	}
	if got := NewSpan(f, 2, 5).Shift(3); got.Start != 5 || got.End != 8 {
		t.Fatalf("unexpected shift: %+v", got)
	}
}

func TestSourceRangeAndLines(t *testing.T) {
	id := NewFakeID(NewVirtualPath("/doc"))
	src := New(id, "ab\ncd\r\nef")
	if src.LineCount() != 3 {
		t.Fatalf("expected 3 lines, got %d", src.LineCount())
	}
	if got := src.Line(1); got != "cd" {
		t.Fatalf("expected line cd, got %q", got)
	}
	line, col := src.LineCol(8)
	if line != 2 || col != 1 {
		t.Fatalf("unexpected line/col: %d:%d", line, col)
	}
	if _, _, ok := src.Range(NewSpan(NewFakeID(NewVirtualPath("/doc")), 0, 1)); ok {
		t.Fatalf("foreign span must not resolve")
	}
	start, end, ok := src.Range(NewSpan(id, 3, 100))
	if !ok || start != 3 || end != src.Len() {
		t.Fatalf("unexpected range: %d %d %v", start, end, ok)
	}
}

func TestIDForKeepsNoState(t *testing.T) {
	p := NewVirtualPath("images/logo.png")
	if allocs := testing.AllocsPerRun(100, func() { _ = IDFor(p).Path() }); allocs != 0 {
		t.Fatalf("resolving an id should not allocate, got %g allocs", allocs)
	}
	if got := IDFor(p).Path(); got != "/images/logo.png" {
		t.Fatalf("unexpected path %q", got)
	}
	if !(FileID{}).IsDetached() || IDFor(p).IsDetached() {
		t.Fatalf("only the zero id is detached")
	}
}

func TestFakeIDsAreUniqueAcrossGoroutines(t *testing.T) {
	const n = 64
	ids := make(chan FileID, n)
	for i := 0; i < n; i++ {
		go func() { ids <- NewFakeID("/root") }()
	}
	seen := map[FileID]bool{}
	for i := 0; i < n; i++ {
		id := <-ids
		if seen[id] {
			t.Fatalf("duplicate fake id %v", id)
		}
		seen[id] = true
	}
}
