package fonts

import (
	"fmt"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
)

// 默认正文与等宽字体族。内置字体均为 glyf 轮廓的 TrueType。
const (
	DefaultFamily = "Go"
	MonoFamily    = "Go Mono"
)

// blob 是一份随程序打包的字体数据及其声明的族/样式。
type blob struct {
	name string
	info Info
	data []byte
}

// embedded 的顺序即 Font 的索引顺序，索引是字体在整个进程中的稳定标识。
var embedded = []blob{
	{name: "go-regular", info: Info{Family: DefaultFamily}, data: goregular.TTF},
	{name: "go-bold", info: Info{Family: DefaultFamily, Bold: true}, data: gobold.TTF},
	{name: "go-italic", info: Info{Family: DefaultFamily, Italic: true}, data: goitalic.TTF},
	{name: "go-bolditalic", info: Info{Family: DefaultFamily, Bold: true, Italic: true}, data: gobolditalic.TTF},
	{name: "gomono-regular", info: Info{Family: MonoFamily, Monospace: true}, data: gomono.TTF},
	{name: "gomono-bold", info: Info{Family: MonoFamily, Monospace: true, Bold: true}, data: gomonobold.TTF},
	{name: "gomono-italic", info: Info{Family: MonoFamily, Monospace: true, Italic: true}, data: gomonoitalic.TTF},
	{name: "gomono-bolditalic", info: Info{Family: MonoFamily, Monospace: true, Bold: true, Italic: true}, data: gomonobolditalic.TTF},
}

// Count 返回内置字体数量。
func Count() int { return len(embedded) }

// Load 解析全部内置字体。任何一份失败都意味着打包缺陷，直接返回错误。
func Load() ([]*Font, error) {
	out := make([]*Font, 0, len(embedded))
	for _, b := range embedded {
		f, err := Parse(b.name, b.data, b.info)
		if err != nil {
			return nil, fmt.Errorf("解析内置字体 %s 失败: %w", b.name, err)
		}
		out = append(out, f)
	}
	return out, nil
}
