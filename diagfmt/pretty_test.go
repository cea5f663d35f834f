package diagfmt

import (
	"bytes"
	"testing"

	"github.com/ByLCY/inkwell/snippet"
)

func TestPrettyPlain(t *testing.T) {
	text := "first line\nsay #nope here"
	diags := []snippet.Diagnostic{
		{Range: &snippet.Range{Start: 16, End: 20}, Message: "unknown variable: nope", Severity: snippet.SeverityError},
		{Message: "detached", Severity: snippet.SeverityWarning},
	}
	var buf bytes.Buffer
	if err := Pretty(&buf, "doc.typ", text, diags, PrettyOpts{Context: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "doc.typ:2:6: error: unknown variable: nope\n" +
		"  |\n" +
		"2 | say #nope here\n" +
		"  |      ^~~~\n" +
		"doc.typ: warning: detached\n"
	if buf.String() != want {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestPrettyWideColumns(t *testing.T) {
	text := "你好 *x"
	diags := []snippet.Diagnostic{{Range: &snippet.Range{Start: 7, End: 8}, Message: "unclosed delimiter", Severity: snippet.SeverityError}}
	var buf bytes.Buffer
	if err := Pretty(&buf, "s", text, diags, PrettyOpts{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := buf.String(); got != "s:1:6: error: unclosed delimiter\n" {
		t.Fatalf("column should count display width, got %q", got)
	}
}

func TestSummary(t *testing.T) {
	diags := []snippet.Diagnostic{{Severity: snippet.SeverityError}, {Severity: snippet.SeverityWarning}, {Severity: snippet.SeverityWarning}}
	if got := Summary(diags); got != "1 error, 2 warnings" {
		t.Fatalf("unexpected summary %q", got)
	}
}
