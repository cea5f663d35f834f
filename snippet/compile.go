package snippet

import (
	"errors"
	"fmt"
	"image"
	"math"

	"go.uber.org/zap"

	"github.com/ByLCY/inkwell/diag"
	"github.com/ByLCY/inkwell/layout"
	"github.com/ByLCY/inkwell/renderer"
	canvasrenderer "github.com/ByLCY/inkwell/renderer/canvas"
)

// Options 控制一次编译。Scale 为每 pt 的像素数，必须为正。
type Options struct {
	Scale       float64 `json:"scale" msgpack:"scale"`
	Autosize    bool    `json:"autosize" msgpack:"autosize"`
	Transparent bool    `json:"transparent" msgpack:"transparent"`
}

// CompileResult 是一次编译的结果。Image 非空当且仅当没有 error 级别的诊断。
// Diagnostics 中 warning 在前，error 在后，各自保持引擎给出的顺序。
type CompileResult struct {
	Image       []byte       `json:"image,omitempty" msgpack:"image,omitempty"`
	Diagnostics []Diagnostic `json:"diagnostics" msgpack:"diagnostics"`
}

// HasErrors reports whether any diagnostic is an error.
func (r *CompileResult) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

var defaultRenderer renderer.Renderer = canvasrenderer.NewRenderer()

// Compile 编译 text 并渲染为 PNG。用户文档中的问题以 Diagnostic 返回；
// 返回的 error 一定是 *Fault，表示非法参数或内部缺陷。
func Compile(env *Environment, text string, opts Options) (*CompileResult, error) {
	if opts.Scale <= 0 || math.IsNaN(opts.Scale) || math.IsInf(opts.Scale, 0) {
		return nil, fault(PhaseInput, KindInvalidInput, nil, fmt.Sprintf("scale must be a positive number, got %g", opts.Scale))
	}
	doc, diags, err := typeset(env, text, opts)
	if err != nil {
		return nil, err
	}
	result := &CompileResult{Diagnostics: diags}
	if doc == nil {
		return result, nil
	}

	img, err := render(defaultRenderer, doc, opts.Scale)
	if err != nil {
		return nil, err
	}
	png, err := renderer.EncodePNG(img)
	if err != nil {
		return nil, fault(PhaseEncode, KindEncode, err, "")
	}
	result.Image = png
	Logger().Debug("compiled snippet",
		zap.Int("pages", len(doc.Pages)),
		zap.Int("bytes", len(png)),
		zap.Int("diagnostics", len(diags)))
	return result, nil
}

// render 调用渲染器；渲染器内部的 panic 也转换为 *Fault，不会越过 Compile。
func render(r renderer.Renderer, doc *layout.Document, scale float64) (img *image.RGBA, err error) {
	defer func() {
		if v := recover(); v != nil {
			img, err = nil, fault(PhaseRender, KindRender, nil, fmt.Sprintf("renderer panicked: %v", v))
		}
	}()
	img, err = r.Render(doc, scale)
	if err != nil {
		return nil, fault(PhaseRender, KindRender, err, "")
	}
	return img, nil
}

// Typeset 只做排版，不渲染。文档为 nil 当且仅当存在 error 级别的诊断。
func Typeset(env *Environment, text string, opts Options) (*layout.Document, []Diagnostic, error) {
	return typeset(env, text, opts)
}

func typeset(env *Environment, text string, opts Options) (*layout.Document, []Diagnostic, error) {
	full, prefixLen := BuildSource(text, opts.Autosize, opts.Transparent)
	world := NewWorld(env, full)

	doc, warnings, err := layout.Compile(world)
	diags := translateAll(world, prefixLen, warnings, make([]Diagnostic, 0, len(warnings)))
	if err == nil {
		return doc, diags, nil
	}
	var list diag.List
	if !errors.As(err, &list) {
		return nil, nil, fault(PhaseCompile, KindEngine, err, "")
	}
	diags = translateAll(world, prefixLen, list, diags)
	Logger().Debug("snippet failed to compile", zap.Int("errors", len(list)))
	return nil, diags, nil
}
