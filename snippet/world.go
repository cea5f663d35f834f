package snippet

import (
	"github.com/ByLCY/inkwell/diag"
	"github.com/ByLCY/inkwell/fonts"
	"github.com/ByLCY/inkwell/layout"
	"github.com/ByLCY/inkwell/library"
	"github.com/ByLCY/inkwell/source"
)

// World 是一次编译的上下文：共享环境加上本次的文本。
// 只有文档本身可见，其他任何文件都被拒绝。
type World struct {
	shared *Environment
	text   string
	doc    *source.Source
}

var _ layout.World = (*World)(nil)

// NewWorld 基于 env 为 text 创建编译上下文。
func NewWorld(env *Environment, text string) *World {
	return &World{shared: env, text: text, doc: source.New(env.root, text)}
}

func (w *World) Library() *library.Library { return w.shared.library }
func (w *World) Book() *fonts.Book         { return w.shared.book }
func (w *World) Main() source.FileID       { return w.shared.root }

func (w *World) Source(id source.FileID) (*source.Source, error) {
	if id == w.shared.root {
		return w.doc, nil
	}
	return nil, &diag.FileError{Err: diag.ErrAccessDenied}
}

func (w *World) File(source.FileID) ([]byte, error) {
	return nil, &diag.FileError{Err: diag.ErrAccessDenied}
}

func (w *World) Font(index int) *fonts.Font {
	if index < 0 || index >= len(w.shared.fonts) {
		return nil
	}
	return w.shared.fonts[index]
}

// Today 总是返回不可用，文档因此不依赖编译时刻。
func (w *World) Today(*int64) (library.Datetime, bool) {
	return library.Datetime{}, false
}

// Range 把 span 解析为文本中的字节区间；不属于文档的 span 返回 false。
func (w *World) Range(span source.Span) (start, end int, ok bool) {
	if span.File != w.shared.root {
		return 0, 0, false
	}
	return w.doc.Range(span)
}
