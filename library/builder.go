package library

// Builder 组装 Library。零定制调用 NewBuilder().Build() 即得到默认库。
type Builder struct {
	elements  map[string]*Signature
	functions map[string]*Signature
	colors    map[string]Color
}

var lengthOrAuto = []Kind{KindLength, KindAuto}

// NewBuilder 返回预置了全部默认定义的 Builder。
func NewBuilder() *Builder {
	b := &Builder{
		elements:  map[string]*Signature{},
		functions: map[string]*Signature{},
		colors:    map[string]Color{},
	}
	b.element("page",
		Param{Name: "width", Accepts: lengthOrAuto},
		Param{Name: "height", Accepts: lengthOrAuto},
		Param{Name: "margin", Accepts: lengthOrAuto},
		Param{Name: "fill", Accepts: []Kind{KindColor, KindNone}},
	)
	b.element("text",
		Param{Name: "size", Accepts: []Kind{KindLength}},
		Param{Name: "fill", Accepts: []Kind{KindColor}},
		Param{Name: "font", Accepts: []Kind{KindString}},
	)
	b.element("par",
		Param{Name: "leading", Accepts: []Kind{KindLength}},
		Param{Name: "justify", Accepts: []Kind{KindBool}},
	)

	b.function("v", Param{Name: "amount", Accepts: []Kind{KindLength}, Positional: true, Required: true})
	b.function("h", Param{Name: "amount", Accepts: []Kind{KindLength}, Positional: true, Required: true})
	b.function("linebreak")
	b.function("pagebreak")
	b.function("today")
	b.function("image",
		Param{Name: "path", Accepts: []Kind{KindString}, Positional: true, Required: true},
		Param{Name: "width", Accepts: lengthOrAuto},
	)
	b.function("include", Param{Name: "path", Accepts: []Kind{KindString}, Positional: true, Required: true})
	b.function("rgb", Param{Name: "hex", Accepts: []Kind{KindString}, Positional: true, Required: true})

	for name, hex := range map[string]string{
		"black":  "#000000",
		"white":  "#ffffff",
		"gray":   "#aaaaaa",
		"silver": "#dddddd",
		"red":    "#ff4136",
		"green":  "#2ecc40",
		"blue":   "#0074d9",
		"navy":   "#001f3f",
		"maroon": "#85144b",
		"orange": "#ff851b",
		"yellow": "#ffdc00",
		"purple": "#b10dc9",
		"teal":   "#39cccc",
		"aqua":   "#7fdbff",
	} {
		c, err := ParseHex(hex)
		if err != nil {
			panic(err)
		}
		b.colors[name] = c
	}
	return b
}

func (b *Builder) element(name string, params ...Param) {
	b.elements[name] = &Signature{Name: name, Params: params}
}

func (b *Builder) function(name string, params ...Param) {
	b.functions[name] = &Signature{Name: name, Params: params}
}

// WithColor 增加或覆盖一个具名颜色。
func (b *Builder) WithColor(name string, c Color) *Builder {
	b.colors[name] = c
	return b
}

// WithoutFunction 移除一个内置函数。
func (b *Builder) WithoutFunction(name string) *Builder {
	delete(b.functions, name)
	return b
}

// Build 拷贝当前定义并生成只读 Library；之后对 Builder 的修改不会影响它。
func (b *Builder) Build() *Library {
	lib := &Library{
		elements:  make(map[string]*Signature, len(b.elements)),
		functions: make(map[string]*Signature, len(b.functions)),
		colors:    make(map[string]Color, len(b.colors)),
	}
	for k, v := range b.elements {
		sig := *v
		sig.Params = append([]Param(nil), v.Params...)
		lib.elements[k] = &sig
	}
	for k, v := range b.functions {
		sig := *v
		sig.Params = append([]Param(nil), v.Params...)
		lib.functions[k] = &sig
	}
	for k, v := range b.colors {
		lib.colors[k] = v
	}
	return lib
}
