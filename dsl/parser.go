package dsl

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/alecthomas/participle/v2"

	"github.com/ByLCY/inkwell/diag"
	"github.com/ByLCY/inkwell/source"
)

// NodeKind 区分标记树中的节点类型。
type NodeKind uint8

const (
	NodeText NodeKind = iota
	NodeSpace
	NodeParbreak
	NodeLinebreak
	NodeStrong
	NodeEmph
	NodeRaw
	NodeHeading
	NodeListItem
	NodeCode
)

func (k NodeKind) String() string {
	switch k {
	case NodeText:
		return "text"
	case NodeSpace:
		return "space"
	case NodeParbreak:
		return "parbreak"
	case NodeLinebreak:
		return "linebreak"
	case NodeStrong:
		return "strong"
	case NodeEmph:
		return "emph"
	case NodeRaw:
		return "raw"
	case NodeHeading:
		return "heading"
	case NodeListItem:
		return "list-item"
	case NodeCode:
		return "code"
	}
	return "unknown"
}

// Node 是标记树中的一个节点。Text 用于 text/raw，Level 用于 heading，
// Children 用于 strong/emph/heading/list-item，Code 用于 code。
type Node struct {
	Kind     NodeKind    `json:"kind"`
	Span     source.Span `json:"-"`
	Text     string      `json:"text,omitempty"`
	Level    int         `json:"level,omitempty"`
	Children []*Node     `json:"children,omitempty"`
	Code     *Code       `json:"code,omitempty"`
}

// Markup 是整份文档解析后的节点序列。
type Markup struct {
	Nodes []*Node `json:"nodes"`
}

// Parse 解析整份源文本。语法错误不会中止解析，而是作为诊断返回，
// 以便同一次编译能报告尽可能多的问题。
func Parse(src *source.Source) (*Markup, []diag.SourceDiagnostic) {
	p := &parser{text: src.Text(), file: src.ID(), lineStart: true}
	nodes, _ := p.inlines(0, false)
	return &Markup{Nodes: nodes}, p.diags
}

// ParseString is a convenience wrapper that parses text under a fresh fake id.
func ParseString(text string) (*Markup, []diag.SourceDiagnostic) {
	id := source.NewFakeID(source.NewVirtualPath("/main"))
	return Parse(source.New(id, text))
}

type parser struct {
	text      string
	pos       int
	file      source.FileID
	lineStart bool
	open      []byte // 当前打开的 strong/emph 定界符
	diags     []diag.SourceDiagnostic
}

func (p *parser) eof() bool { return p.pos >= len(p.text) }

func (p *parser) peek(off int) byte {
	if p.pos+off >= len(p.text) || p.pos+off < 0 {
		return 0
	}
	return p.text[p.pos+off]
}

func (p *parser) span(start, end int) source.Span { return source.NewSpan(p.file, start, end) }

func (p *parser) errorAt(start, end int, msg string) {
	p.diags = append(p.diags, diag.Error(p.span(start, end), "%s", msg))
}

func (p *parser) warnAt(start, end int, msg string) {
	p.diags = append(p.diags, diag.Warning(p.span(start, end), "%s", msg))
}

func (p *parser) isOpen(c byte) bool {
	for _, o := range p.open {
		if o == c {
			return true
		}
	}
	return false
}

// push 追加节点并合并相邻空白。
func push(nodes []*Node, n *Node) []*Node {
	if n.Kind == NodeSpace && len(nodes) > 0 && nodes[len(nodes)-1].Kind == NodeSpace {
		last := nodes[len(nodes)-1]
		last.Span = last.Span.Cover(n.Span)
		return nodes
	}
	return append(nodes, n)
}

// inlines 解析到 closer（strong/emph 的结束符）为止；closer 为 0 表示顶层。
// inLine 为 true 时遇到换行即停止（标题与列表项）。返回值 closed 表示是否遇到了 closer。
func (p *parser) inlines(closer byte, inLine bool) (nodes []*Node, closed bool) {
	top := closer == 0 && !inLine
	for !p.eof() {
		c := p.text[p.pos]

		if top && p.lineStart {
			p.lineStart = false
			if n := p.lineItem(); n != nil {
				nodes = append(nodes, n)
				continue
			}
			c = p.text[p.pos]
		}

		switch {
		case c == '\n' || c == '\r':
			if inLine {
				return nodes, false
			}
			start := p.pos
			if p.newline() {
				if closer != 0 {
					p.pos = start
					return nodes, false
				}
				nodes = append(nodes, &Node{Kind: NodeParbreak, Span: p.span(start, p.pos)})
			} else {
				nodes = push(nodes, &Node{Kind: NodeSpace, Span: p.span(start, p.pos)})
			}
			p.lineStart = top

		case c == ' ' || c == '\t':
			start := p.pos
			for !p.eof() && (p.text[p.pos] == ' ' || p.text[p.pos] == '\t') {
				p.pos++
			}
			nodes = push(nodes, &Node{Kind: NodeSpace, Span: p.span(start, p.pos)})

		case closer != 0 && c == closer:
			p.pos++
			return nodes, true

		case (c == '*' || c == '_') && p.intraWord(c):
			nodes = p.appendText(nodes, p.pos, p.pos+1)
			p.pos++

		case c == '*' || c == '_':
			if p.isOpen(c) {
				// 外层的同类定界符：交给外层关闭，本层视为未闭合。
				return nodes, false
			}
			nodes = append(nodes, p.delimited(c, inLine))

		case c == '`':
			nodes = append(nodes, p.raw())

		case c == '\\':
			nodes = p.escape(nodes)

		case c == '~':
			nodes = append(nodes, &Node{Kind: NodeText, Text: "\u00a0", Span: p.span(p.pos, p.pos+1)})
			p.pos++

		case c == '/' && p.peek(1) == '/':
			for !p.eof() && p.text[p.pos] != '\n' && p.text[p.pos] != '\r' {
				p.pos++
			}

		case c == '/' && p.peek(1) == '*':
			p.blockComment()

		case c == '#' && isIdentStart(p.peek(1)):
			if n := p.code(); n != nil {
				nodes = append(nodes, n)
			}

		default:
			start := p.pos
			p.pos++
			for !p.eof() && !isSpecial(p.text[p.pos]) {
				p.pos++
			}
			nodes = p.appendText(nodes, start, p.pos)
		}
	}
	return nodes, false
}

func (p *parser) appendText(nodes []*Node, start, end int) []*Node {
	return p.appendLiteral(nodes, p.text[start:end], start, end)
}

// appendLiteral 追加文本；与紧邻的上一个文本节点合并。
func (p *parser) appendLiteral(nodes []*Node, text string, start, end int) []*Node {
	if len(nodes) > 0 {
		last := nodes[len(nodes)-1]
		if last.Kind == NodeText && int(last.Span.End) == start {
			last.Text += text
			last.Span = last.Span.Cover(p.span(start, end))
			return nodes
		}
	}
	return append(nodes, &Node{Kind: NodeText, Text: text, Span: p.span(start, end)})
}

// newline 消费一个换行；若其后紧跟空白行则一并消费并返回 true（段落分隔）。
func (p *parser) newline() bool {
	p.eatNewline()
	par := false
	for {
		save := p.pos
		for !p.eof() && (p.text[p.pos] == ' ' || p.text[p.pos] == '\t') {
			p.pos++
		}
		if !p.eof() && (p.text[p.pos] == '\n' || p.text[p.pos] == '\r') {
			p.eatNewline()
			par = true
			continue
		}
		p.pos = save
		return par
	}
}

func (p *parser) eatNewline() {
	if p.text[p.pos] == '\r' {
		p.pos++
		if !p.eof() && p.text[p.pos] == '\n' {
			p.pos++
		}
		return
	}
	p.pos++
}

// lineItem 识别行首的标题（= ）与列表项（- ）。
func (p *parser) lineItem() *Node {
	save := p.pos
	for !p.eof() && (p.text[p.pos] == ' ' || p.text[p.pos] == '\t') {
		p.pos++
	}
	start := p.pos
	switch p.peek(0) {
	case '=':
		level := 0
		for p.peek(level) == '=' {
			level++
		}
		if next := p.peek(level); next != ' ' && next != '\t' && next != '\n' && next != '\r' && next != 0 {
			break
		}
		p.pos += level
		p.skipBlanks()
		children, _ := p.inlines(0, true)
		return &Node{Kind: NodeHeading, Level: level, Children: trimSpaces(children), Span: p.span(start, p.pos)}
	case '-':
		if next := p.peek(1); next != ' ' && next != '\t' {
			break
		}
		p.pos++
		p.skipBlanks()
		children, _ := p.inlines(0, true)
		return &Node{Kind: NodeListItem, Children: trimSpaces(children), Span: p.span(start, p.pos)}
	}
	p.pos = save
	return nil
}

func (p *parser) skipBlanks() {
	for !p.eof() && (p.text[p.pos] == ' ' || p.text[p.pos] == '\t') {
		p.pos++
	}
}

func (p *parser) delimited(c byte, inLine bool) *Node {
	start := p.pos
	p.pos++
	p.open = append(p.open, c)
	children, closed := p.inlines(c, inLine)
	p.open = p.open[:len(p.open)-1]

	kind, what := NodeStrong, "stars"
	if c == '_' {
		kind, what = NodeEmph, "underscores"
	}
	if !closed {
		p.errorAt(start, start+1, "unclosed delimiter")
	} else if len(trimSpaces(children)) == 0 {
		p.warnAt(start, p.pos, "no text within "+what)
	}
	return &Node{Kind: kind, Children: children, Span: p.span(start, p.pos)}
}

func (p *parser) raw() *Node {
	start := p.pos
	p.pos++
	end := strings.IndexByte(p.text[p.pos:], '`')
	if end < 0 {
		p.errorAt(start, start+1, "unclosed raw text")
		text := p.text[p.pos:]
		p.pos = len(p.text)
		return &Node{Kind: NodeRaw, Text: text, Span: p.span(start, p.pos)}
	}
	text := p.text[p.pos : p.pos+end]
	p.pos += end + 1
	return &Node{Kind: NodeRaw, Text: text, Span: p.span(start, p.pos)}
}

func (p *parser) escape(nodes []*Node) []*Node {
	start := p.pos
	p.pos++
	if p.eof() {
		return append(nodes, &Node{Kind: NodeLinebreak, Span: p.span(start, p.pos)})
	}
	r, size := utf8.DecodeRuneInString(p.text[p.pos:])
	if unicode.IsSpace(r) {
		return append(nodes, &Node{Kind: NodeLinebreak, Span: p.span(start, p.pos)})
	}
	p.pos += size
	return p.appendLiteral(nodes, string(r), start, p.pos)
}

func (p *parser) blockComment() {
	start := p.pos
	end := strings.Index(p.text[p.pos+2:], "*/")
	if end < 0 {
		p.errorAt(start, start+2, "unclosed comment")
		p.pos = len(p.text)
		return
	}
	p.pos += 2 + end + 2
}

// code 扫描 "#" 开始的嵌入代码，确定其范围后交给 participle 语法解析。
func (p *parser) code() *Node {
	hash := p.pos
	p.pos++
	name := p.ident()
	if name == "set" {
		p.skipBlanks()
		p.ident()
		p.skipBlanks()
		if p.peek(0) != '(' {
			p.errorAt(p.pos, p.pos, "expected argument list")
			return nil
		}
	}
	if p.peek(0) == '(' {
		if !p.balanced() {
			return nil
		}
	}
	if p.peek(0) == ';' {
		p.pos++
	}

	code, err := parseCode(p.text[hash+1:p.pos], hash+1, p.file)
	if err != nil {
		p.codeError(err, hash+1)
		return nil
	}
	return &Node{Kind: NodeCode, Code: code, Span: code.Span()}
}

func (p *parser) ident() string {
	start := p.pos
	if !isIdentStart(p.peek(0)) {
		return ""
	}
	for !p.eof() && isIdentContinue(p.text[p.pos]) {
		p.pos++
	}
	return p.text[start:p.pos]
}

// balanced 消费一对匹配的括号（跳过字符串）。未闭合时报告诊断并返回 false。
func (p *parser) balanced() bool {
	var opens []int
	for !p.eof() {
		switch c := p.text[p.pos]; c {
		case '(':
			opens = append(opens, p.pos)
			p.pos++
		case ')':
			opens = opens[:len(opens)-1]
			p.pos++
			if len(opens) == 0 {
				return true
			}
		case '"':
			start := p.pos
			p.pos++
			for !p.eof() && p.text[p.pos] != '"' {
				if p.text[p.pos] == '\\' {
					p.pos++
				}
				p.pos++
			}
			if p.eof() {
				p.errorAt(start, start+1, "unclosed string")
				return false
			}
			p.pos++
		default:
			p.pos++
		}
	}
	p.pos = len(p.text)
	p.errorAt(opens[0], opens[0]+1, "unclosed delimiter")
	return false
}

func (p *parser) codeError(err error, base int) {
	var perr participle.Error
	if errors.As(err, &perr) {
		off := base + perr.Position().Offset
		end := min(off+1, p.pos)
		p.errorAt(off, max(end, off), perr.Message())
		return
	}
	p.errorAt(base-1, p.pos, err.Error())
}

// intraWord 判断 "_" 是否处于单词内部（如 snake_case），此时按普通文本处理。
func (p *parser) intraWord(c byte) bool {
	if c != '_' {
		return false
	}
	before, _ := utf8.DecodeLastRuneInString(p.text[:p.pos])
	after, _ := utf8.DecodeRuneInString(p.text[p.pos+1:])
	return isAlnum(before) && isAlnum(after) && !p.isOpen('_')
}

func isAlnum(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }

func isSpecial(c byte) bool {
	switch c {
	case '\n', '\r', ' ', '\t', '*', '_', '`', '\\', '~', '/', '#':
		return true
	}
	return false
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentContinue(c byte) bool {
	return isIdentStart(c) || c == '-' || (c >= '0' && c <= '9')
}

func trimSpaces(nodes []*Node) []*Node {
	for len(nodes) > 0 && nodes[0].Kind == NodeSpace {
		nodes = nodes[1:]
	}
	for len(nodes) > 0 && nodes[len(nodes)-1].Kind == NodeSpace {
		nodes = nodes[:len(nodes)-1]
	}
	return nodes
}
