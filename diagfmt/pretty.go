// Package diagfmt 把编译诊断渲染成终端可读的文本。
package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/ByLCY/inkwell/snippet"
	"github.com/ByLCY/inkwell/source"
)

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color   bool
	Context bool // 是否打印源码行与下划线
}

type palette struct {
	err, warn, gutter, bold *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		gutter: color.New(color.FgBlue, color.Bold),
		bold:   color.New(color.Bold),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.gutter, p.bold} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Pretty 逐条打印诊断：
//
//	<name>:<line>:<col>: <severity>: <message>
//
// 之后（Context 为真时）打印对应源码行并用 ^~~~ 标出区间。列号按显示宽度计算。
func Pretty(w io.Writer, name, text string, diags []snippet.Diagnostic, opts PrettyOpts) error {
	src := source.New(source.FileID{}, text)
	pal := newPalette(opts.Color)
	for _, d := range diags {
		if err := prettyOne(w, name, src, d, pal, opts); err != nil {
			return err
		}
	}
	return nil
}

func prettyOne(w io.Writer, name string, src *source.Source, d snippet.Diagnostic, pal palette, opts PrettyOpts) error {
	sev := pal.err
	if d.Severity == snippet.SeverityWarning {
		sev = pal.warn
	}
	if d.Range == nil {
		_, err := fmt.Fprintf(w, "%s: %s: %s\n", name, sev.Sprint(string(d.Severity)), pal.bold.Sprint(d.Message))
		return err
	}

	line, col := src.LineCol(d.Range.Start)
	text := src.Line(line)
	prefix := text[:min(col, len(text))]
	column := runewidth.StringWidth(prefix) + 1
	if _, err := fmt.Fprintf(w, "%s:%d:%d: %s: %s\n", name, line+1, column, sev.Sprint(string(d.Severity)), pal.bold.Sprint(d.Message)); err != nil {
		return err
	}
	if !opts.Context {
		return nil
	}

	endLine, endCol := src.LineCol(d.Range.End)
	if endLine != line {
		endCol = len(text)
	}
	marked := text[min(col, len(text)):min(max(endCol, col), len(text))]
	width := max(runewidth.StringWidth(marked), 1)

	num := strconv.Itoa(line + 1)
	pad := strings.Repeat(" ", len(num))
	underline := strings.Repeat(" ", column-1) + "^" + strings.Repeat("~", width-1)
	_, err := fmt.Fprintf(w, "%s %s\n%s %s %s\n%s %s %s\n",
		pad, pal.gutter.Sprint("|"),
		pal.gutter.Sprint(num), pal.gutter.Sprint("|"), text,
		pad, pal.gutter.Sprint("|"), sev.Sprint(underline))
	return err
}

// Summary 返回形如 "1 error, 2 warnings" 的统计。
func Summary(diags []snippet.Diagnostic) string {
	var errs, warns int
	for _, d := range diags {
		if d.Severity == snippet.SeverityError {
			errs++
		} else {
			warns++
		}
	}
	return plural(errs, "error") + ", " + plural(warns, "warning")
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return strconv.Itoa(n) + " " + word + "s"
}
