// Package library 描述标记语言识别的内置定义：可 set 的元素、函数与具名颜色。
package library

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind 是参数可接受的值类型。
type Kind uint8

const (
	KindLength Kind = iota
	KindAuto
	KindNone
	KindColor
	KindString
	KindNumber
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindLength:
		return "length"
	case KindAuto:
		return "auto"
	case KindNone:
		return "none"
	case KindColor:
		return "color"
	case KindString:
		return "string"
	case KindNumber:
		return "float"
	case KindBool:
		return "boolean"
	}
	return "unknown"
}

// Describe joins kinds the way type errors print them: "length, color or auto".
func Describe(kinds []Kind) string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	switch len(names) {
	case 0:
		return "nothing"
	case 1:
		return names[0]
	}
	return strings.Join(names[:len(names)-1], ", ") + " or " + names[len(names)-1]
}

// Param 描述一个参数；Positional 参数也可以按名称传入。
type Param struct {
	Name       string
	Accepts    []Kind
	Positional bool
	Required   bool
}

// Allows reports whether k is allowed for this parameter.
func (p Param) Allows(k Kind) bool {
	for _, a := range p.Accepts {
		if a == k {
			return true
		}
	}
	return false
}

// Signature 是元素或函数的参数表。
type Signature struct {
	Name   string
	Params []Param
}

// Param 按名称查找参数。
func (s *Signature) Param(name string) (Param, bool) {
	for _, p := range s.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// Positional 返回第 i 个位置参数。
func (s *Signature) Positional(i int) (Param, bool) {
	n := 0
	for _, p := range s.Params {
		if !p.Positional {
			continue
		}
		if n == i {
			return p, true
		}
		n++
	}
	return Param{}, false
}

// Color 采用 0-255 的 RGBA 数值。
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// ParseHex 解析 #rgb、#rrggbb 与 #rrggbbaa。
func ParseHex(value string) (Color, error) {
	v := strings.TrimPrefix(strings.TrimSpace(value), "#")
	switch len(v) {
	case 3:
		v = string([]byte{v[0], v[0], v[1], v[1], v[2], v[2]}) + "ff"
	case 6:
		v += "ff"
	case 8:
	default:
		return Color{}, fmt.Errorf("color string must be 3, 6 or 8 hex digits, got %q", value)
	}
	n, err := strconv.ParseUint(v, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("color string contains non-hexadecimal letters: %q", value)
	}
	return Color{R: uint8(n >> 24), G: uint8(n >> 16), B: uint8(n >> 8), A: uint8(n)}, nil
}

// Datetime 是 today() 的返回值。
type Datetime struct {
	Year  int
	Month int
	Day   int
}

func (d Datetime) String() string { return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day) }

// Library 在构建后只读，可被多个编译并发访问。
type Library struct {
	elements  map[string]*Signature
	functions map[string]*Signature
	colors    map[string]Color
}

// Element returns a settable element by name.
func (l *Library) Element(name string) (*Signature, bool) {
	sig, ok := l.elements[name]
	return sig, ok
}

// Function returns a callable function by name.
func (l *Library) Function(name string) (*Signature, bool) {
	sig, ok := l.functions[name]
	return sig, ok
}

// Color returns a named color.
func (l *Library) Color(name string) (Color, bool) {
	c, ok := l.colors[name]
	return c, ok
}

// Defines reports whether name is bound to anything in the library.
func (l *Library) Defines(name string) bool {
	_, e := l.elements[name]
	_, f := l.functions[name]
	_, c := l.colors[name]
	return e || f || c
}

// Names 返回全部已定义名称（排序后），用于拼写提示。
func (l *Library) Names() []string {
	out := make([]string, 0, len(l.elements)+len(l.functions)+len(l.colors))
	for n := range l.elements {
		out = append(out, n)
	}
	for n := range l.functions {
		if _, dup := l.elements[n]; !dup {
			out = append(out, n)
		}
	}
	for n := range l.colors {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
