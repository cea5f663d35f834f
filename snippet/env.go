// Package snippet 把一段标记文本编译成 PNG 与一组诊断信息。
//
// 宿主在启动时调用一次 Setup 构造共享的 Environment，之后每次 Compile
// 都只读取它；多个 goroutine 可以同时对同一个 Environment 调用 Compile。
package snippet

import (
	"github.com/ByLCY/inkwell/fonts"
	"github.com/ByLCY/inkwell/library"
	"github.com/ByLCY/inkwell/source"
)

// rootPath 是用户文档的虚拟路径。
const rootPath = "/root"

// Environment 是进程级共享、构建后只读的编译资源。
type Environment struct {
	fonts   []*fonts.Font
	book    *fonts.Book
	library *library.Library
	root    source.FileID
}

// Setup 解析全部内置字体并构建字体目录与标准库。
// 字体解析失败属于打包缺陷，返回 PhaseSetup 的 *Fault。
func Setup() (*Environment, error) {
	log := Logger()
	log.Info("parsing fonts")
	parsed, err := fonts.Load()
	if err != nil {
		return nil, fault(PhaseSetup, KindFontParse, err, "embedded font data is corrupt")
	}
	log.Info("finished parsing fonts")

	return &Environment{
		fonts:   parsed,
		book:    fonts.NewBook(parsed),
		library: library.NewBuilder().Build(),
		root:    source.NewFakeID(source.NewVirtualPath(rootPath)),
	}, nil
}

// MustSetup is like Setup but panics on failure.
func MustSetup() *Environment {
	env, err := Setup()
	if err != nil {
		panic(err)
	}
	return env
}

// Fonts 返回已解析字体的数量。
func (e *Environment) Fonts() int { return len(e.fonts) }

// Book returns the font catalog.
func (e *Environment) Book() *fonts.Book { return e.book }

// Root 返回用户文档的文件标识。
func (e *Environment) Root() source.FileID { return e.root }
