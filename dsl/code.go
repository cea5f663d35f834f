package dsl

import (
	"fmt"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/ByLCY/inkwell/source"
)

// 代码表达式（"#" 之后的部分）的词法与语法。
var (
	codeLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
		{Name: "Length", Pattern: `(?:\d+\.\d*|\.\d+|\d+)(?:pt|mm|cm|in|em)`},
		{Name: "Number", Pattern: `(?:\d+\.\d*|\.\d+|\d+)`},
		{Name: "String", Pattern: `"(?:\\.|[^"\\])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Punct", Pattern: `[(),:;]`},
	})

	codeParser = participle.MustBuild[Code](
		participle.Lexer(codeLexer),
		participle.Elide("Whitespace"),
		participle.UseLookahead(2),
	)
)

// Code 是一段嵌入式代码：set 规则或函数调用/变量引用。
type Code struct {
	Pos  lexer.Position `parser:"" json:"-"`
	Set  *SetRule       `parser:"(  'set' @@" json:"set,omitempty"`
	Call *Call          `parser:" | @@ ) ';'?" json:"call,omitempty"`

	span source.Span
}

// Span covers the whole expression including the leading "#".
func (c *Code) Span() source.Span { return c.span }

// SetRule 形如 set page(width: auto)。
type SetRule struct {
	Pos    lexer.Position `parser:"" json:"-"`
	EndPos lexer.Position `parser:"" json:"-"`
	Target string         `parser:"@Ident" json:"target"`
	Args   []*Arg         `parser:"'(' ( @@ ( ',' @@ )* ','? )? ')'" json:"args"`

	targetSpan source.Span
	span       source.Span
}

func (s *SetRule) Span() source.Span       { return s.span }
func (s *SetRule) TargetSpan() source.Span { return s.targetSpan }

// Call 是函数调用；Parens 为 false 时只是一个标识符引用（如 auto、none、red）。
type Call struct {
	Pos    lexer.Position `parser:"" json:"-"`
	EndPos lexer.Position `parser:"" json:"-"`
	Name   string         `parser:"@Ident" json:"name"`
	Parens bool           `parser:"( @'('" json:"parens,omitempty"`
	Args   []*Arg         `parser:"  ( @@ ( ',' @@ )* ','? )? ')' )?" json:"args,omitempty"`

	nameSpan source.Span
	span     source.Span
}

func (c *Call) Span() source.Span     { return c.span }
func (c *Call) NameSpan() source.Span { return c.nameSpan }

// Arg 是位置参数或具名参数。
type Arg struct {
	Pos    lexer.Position `parser:"" json:"-"`
	EndPos lexer.Position `parser:"" json:"-"`
	Name   *string        `parser:"( @Ident ':' )?" json:"name,omitempty"`
	Value  *Value         `parser:"@@" json:"value"`

	span source.Span
}

func (a *Arg) Span() source.Span { return a.span }

// Value 是参数值。
type Value struct {
	Pos    lexer.Position `parser:"" json:"-"`
	EndPos lexer.Position `parser:"" json:"-"`
	Length *string        `parser:"  @Length" json:"length,omitempty"`
	Number *float64       `parser:"| @Number" json:"number,omitempty"`
	String *StringLiteral `parser:"| @String" json:"string,omitempty"`
	Call   *Call          `parser:"| @@" json:"call,omitempty"`

	span source.Span
}

func (v *Value) Span() source.Span { return v.span }

// StringLiteral unquotes strings on capture.
type StringLiteral string

// Capture implements participle.Capture.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("string literal capture requires value")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}

// parseCode 解析 text（不含 "#"），base 为 text 在整份源文本中的字节偏移。
func parseCode(text string, base int, file source.FileID) (*Code, error) {
	code, err := codeParser.ParseString("", text)
	if err != nil {
		return nil, err
	}
	sp := func(pos, end lexer.Position) source.Span {
		return source.NewSpan(file, base+pos.Offset, base+end.Offset)
	}
	code.span = source.NewSpan(file, base-1, base+len(text))
	if code.Set != nil {
		code.Set.span = sp(code.Set.Pos, code.Set.EndPos)
		code.Set.targetSpan = source.NewSpan(file, base+code.Set.Pos.Offset, base+code.Set.Pos.Offset+len(code.Set.Target))
		for _, a := range code.Set.Args {
			fixArg(a, sp)
		}
	}
	if code.Call != nil {
		fixCall(code.Call, sp)
	}
	return code, nil
}

func fixCall(c *Call, sp func(pos, end lexer.Position) source.Span) {
	c.span = sp(c.Pos, c.EndPos)
	c.nameSpan = sp(c.Pos, c.Pos)
	c.nameSpan.End = c.nameSpan.Start + uint32(len(c.Name))
	for _, a := range c.Args {
		fixArg(a, sp)
	}
}

func fixArg(a *Arg, sp func(pos, end lexer.Position) source.Span) {
	a.span = sp(a.Pos, a.EndPos)
	if a.Value == nil {
		return
	}
	a.Value.span = sp(a.Value.Pos, a.Value.EndPos)
	if a.Value.Call != nil {
		fixCall(a.Value.Call, sp)
	}
}
