// Package fonts 管理内置字体：解析后的字体对象与按族/样式检索的字体目录。
package fonts

import (
	"fmt"
	"image/color"

	"github.com/tdewolff/canvas"
)

// Info 是字体目录用来挑选字体的摘要信息。
type Info struct {
	Family    string `json:"family"`
	Bold      bool   `json:"bold,omitempty"`
	Italic    bool   `json:"italic,omitempty"`
	Monospace bool   `json:"monospace,omitempty"`
}

// Variant 返回 canvas 使用的字体样式位。
func (i Info) Variant() canvas.FontStyle {
	style := canvas.FontRegular
	if i.Bold {
		style = canvas.FontBold
	}
	if i.Italic {
		style |= canvas.FontItalic
	}
	return style
}

// Metrics are vertical font metrics in points at a given size.
type Metrics struct {
	Ascent     float64
	Descent    float64
	LineHeight float64
}

// Font 是一份已解析的字体。构建完成后只读。
type Font struct {
	name   string
	info   Info
	family *canvas.FontFamily
}

// Parse 把原始字体数据装入一个独立的 canvas 字体族。
func Parse(name string, data []byte, info Info) (*Font, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("字体 %s 数据为空", name)
	}
	family := canvas.NewFontFamily(name)
	if err := family.LoadFont(data, 0, info.Variant()); err != nil {
		return nil, err
	}
	return &Font{name: name, info: info, family: family}, nil
}

func (f *Font) Name() string { return f.name }
func (f *Font) Info() Info   { return f.info }

// Face 创建指定字号（pt）与颜色的字体面，用于绘制。
func (f *Font) Face(sizePt float64, col color.Color) *canvas.FontFace {
	return f.family.Face(sizePt, col, f.info.Variant(), canvas.FontNormal)
}

// Measure 返回文本在 sizePt 字号下的前进宽度（pt）。
// canvas 的度量单位为 mm，这里在边界换算回 pt。
func (f *Font) Measure(text string, sizePt float64) float64 {
	if text == "" {
		return 0
	}
	return f.Face(sizePt, canvas.Black).TextWidth(text) * mmToPt
}

// Metrics 返回 sizePt 字号下的纵向度量（pt）。
func (f *Font) Metrics(sizePt float64) Metrics {
	m := f.Face(sizePt, canvas.Black).Metrics()
	return Metrics{
		Ascent:     m.Ascent * mmToPt,
		Descent:    m.Descent * mmToPt,
		LineHeight: m.LineHeight * mmToPt,
	}
}

const mmToPt = 72 / 25.4
