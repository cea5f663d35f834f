package layout

import (
	"math"
	"strings"

	"github.com/ByLCY/inkwell/fonts"
)

type pieceKind uint8

const (
	pieceText pieceKind = iota
	pieceSpace
	pieceBreak
	pieceGlue
)

// piece 是段落内容的最小单位：一段同样式文本、空白、强制换行或固定宽度的水平间距。
type piece struct {
	kind  pieceKind
	text  string
	width float64 // 仅 pieceGlue
	style textStyle
	hard  bool // 原样保留的空白（raw），不与相邻空白合并
}

// frag 是落在某一行上的已定位片段，x 相对行首。
type frag struct {
	x     float64
	width float64
	text  string
	font  *fonts.Font
	style textStyle
	word  int // 所在单词在本行中的序号，用于两端对齐
}

type line struct {
	frags   []frag
	width   float64
	ascent  float64
	descent float64
}

// segment 是单词中同样式的一部分；一个单词可以跨越多种样式（如 a*b*）。
type segment struct {
	text  string
	width float64
	font  *fonts.Font
	style textStyle
}

type token struct {
	kind  pieceKind // pieceText 表示单词
	segs  []segment
	width float64
	space float64
}

// tokenize 把片段合并成单词、空白与换行。
func (e *engine) tokenize(pieces []piece) []token {
	var (
		tokens []token
		word   *token
	)
	flush := func() {
		if word != nil {
			tokens = append(tokens, *word)
			word = nil
		}
	}
	for _, p := range pieces {
		switch p.kind {
		case pieceText, pieceGlue:
			if word == nil {
				word = &token{kind: pieceText}
			}
			seg := segment{style: p.style, width: p.width}
			if p.kind == pieceText {
				seg.text = p.text
				seg.font = e.fontFor(p.style)
				if seg.font != nil {
					seg.width = seg.font.Measure(p.text, p.style.size)
				}
			}
			word.segs = append(word.segs, seg)
			word.width += seg.width
		case pieceSpace:
			flush()
			w := e.spaceWidth(p.style)
			if n := len(tokens); n > 0 && tokens[n-1].kind == pieceSpace && !p.hard {
				tokens[n-1].space = math.Max(tokens[n-1].space, w)
				continue
			}
			tokens = append(tokens, token{kind: pieceSpace, space: w})
		case pieceBreak:
			flush()
			tokens = append(tokens, token{kind: pieceBreak, segs: []segment{{style: p.style}}})
		}
	}
	flush()
	return tokens
}

func (e *engine) spaceWidth(style textStyle) float64 {
	if f := e.fontFor(style); f != nil {
		return f.Measure(" ", style.size)
	}
	return style.size / 4
}

// breakLines 贪心折行：优先在空白处断开，单词超过行宽时按字符拆分。
// limit 为 +Inf 时只在强制换行处断开。justify 对除段末及强制换行前的行生效。
func (e *engine) breakLines(pieces []piece, limit float64, justify bool) []line {
	tokens := e.tokenize(pieces)
	if limit <= 0 {
		limit = math.Inf(1)
	}

	var (
		lines  []line
		cur    line
		x      float64
		space  float64
		words  int // 当前行已放置单词的最大序号
		filled bool
	)
	emit := func(wrapped bool, fallback textStyle) {
		if !filled {
			cur = e.lineFor(fallback)
		} else {
			cur.width = x
			if wrapped && justify && !math.IsInf(limit, 1) && words > 0 {
				stretch(&cur, limit, words)
			}
		}
		lines = append(lines, cur)
		cur, x, space, words, filled = line{}, 0, 0, 0, false
	}
	place := func(seg segment) {
		cur.frags = append(cur.frags, frag{
			x: x, width: seg.width, text: seg.text, font: seg.font,
			style: seg.style, word: words,
		})
		e.growLine(&cur, seg)
		x += seg.width
		filled = true
	}
	last := e.text

	for _, tok := range tokens {
		switch tok.kind {
		case pieceSpace:
			if filled {
				space = math.Max(space, tok.space)
			}
		case pieceBreak:
			emit(false, tok.segs[0].style)
		case pieceText:
			last = tok.segs[0].style
			if filled && x+space+tok.width > limit {
				emit(true, last)
			}
			if filled {
				x += space
				words++
			}
			space = 0
			if tok.width <= limit {
				for _, seg := range tok.segs {
					place(seg)
				}
				continue
			}
			for _, seg := range tok.segs {
				for _, chunk := range e.splitSegment(seg, limit) {
					if x > 0 && x+chunk.width > limit {
						emit(true, chunk.style)
					}
					place(chunk)
				}
			}
		}
	}
	if filled {
		emit(false, last)
	}
	return lines
}

// splitSegment 按宽度拆分一个过长的片段。
func (e *engine) splitSegment(seg segment, limit float64) []segment {
	if seg.font == nil || seg.text == "" || math.IsInf(limit, 1) {
		return []segment{seg}
	}
	var (
		parts []segment
		b     strings.Builder
	)
	measure := func(s string) float64 { return seg.font.Measure(s, seg.style.size) }
	for _, r := range seg.text {
		b.WriteRune(r)
		if measure(b.String()) > limit && b.Len() > 1 {
			runes := []rune(b.String())
			head := string(runes[:len(runes)-1])
			parts = append(parts, segment{text: head, width: measure(head), font: seg.font, style: seg.style})
			b.Reset()
			b.WriteRune(r)
		}
	}
	if b.Len() > 0 {
		parts = append(parts, segment{text: b.String(), width: measure(b.String()), font: seg.font, style: seg.style})
	}
	return parts
}

// stretch 把行尾剩余宽度平均分配到 gaps 个单词间隙。
func stretch(ln *line, limit float64, gaps int) {
	extra := limit - ln.width
	if extra <= 0 || gaps < 1 {
		return
	}
	gap := extra / float64(gaps)
	for i := range ln.frags {
		ln.frags[i].x += gap * float64(ln.frags[i].word)
	}
	ln.width = limit
}

func (e *engine) growLine(ln *line, seg segment) {
	m := e.metrics(seg.font, seg.style)
	ln.ascent = math.Max(ln.ascent, m.Ascent)
	ln.descent = math.Max(ln.descent, m.Descent)
}

func (e *engine) metrics(f *fonts.Font, style textStyle) fonts.Metrics {
	if f == nil {
		return fonts.Metrics{Ascent: style.size * 0.8, Descent: style.size * 0.2, LineHeight: style.size}
	}
	return f.Metrics(style.size)
}

// lineFor 返回一个只具有行高的空行。
func (e *engine) lineFor(style textStyle) line {
	m := e.metrics(e.fontFor(style), style)
	return line{ascent: m.Ascent, descent: m.Descent}
}

func (e *engine) emptyLine() line { return e.lineFor(e.text) }
