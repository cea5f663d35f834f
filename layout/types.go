package layout

// 该文件定义编译结果（已排好坐标的页面），供渲染与调试 JSON 共用。
// 所有长度单位均为 pt，坐标原点位于页面左上角。

import (
	"github.com/ByLCY/inkwell/fonts"
	"github.com/ByLCY/inkwell/library"
)

// Document 是一次成功编译的产物。
type Document struct {
	Pages []Page `json:"pages"`
}

// Page 记录页面尺寸、背景与可以直接绘制的元素。
type Page struct {
	Width  float64        `json:"width"`
	Height float64        `json:"height"`
	Fill   *library.Color `json:"fill,omitempty"` // nil 表示不填充背景（透明）
	Texts  []TextItem     `json:"texts"`
	Images []ImageItem    `json:"images,omitempty"`
}

// TextItem 是一段同样式文本，X/Y 为基线起点。
type TextItem struct {
	X     float64       `json:"x"`
	Y     float64       `json:"y"`
	Width float64       `json:"width"`
	Text  string        `json:"text"`
	Font  *fonts.Font   `json:"-"`
	Face  string        `json:"font"`
	Size  float64       `json:"size"`
	Color library.Color `json:"color"`
}

// ImageItem 是一张已定位的图片，X/Y 为左上角。
type ImageItem struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Format string  `json:"format"`
	Data   []byte  `json:"-"`
}
