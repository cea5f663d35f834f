package layout

import (
	"github.com/ByLCY/inkwell/fonts"
	"github.com/ByLCY/inkwell/library"
	"github.com/ByLCY/inkwell/source"
)

// World 是编译期间引擎向外部查询资源的唯一途径。
// 实现方决定哪些文件可见、字体从哪来以及“今天”是哪一天。
type World interface {
	// Library 返回标记语言可用的内置定义。
	Library() *library.Library
	// Book 返回字体目录，索引与 Font 一致。
	Book() *fonts.Book
	// Main 返回主文档的文件标识。
	Main() source.FileID
	// Source 返回某个文件的源文本。
	Source(id source.FileID) (*source.Source, error)
	// File 返回某个文件的原始字节（图片等）。
	File(id source.FileID) ([]byte, error)
	// Font 返回第 index 个字体，不存在时返回 nil。
	Font(index int) *fonts.Font
	// Today 返回当前日期；offset 为相对 UTC 的小时偏移，nil 表示本地时区。
	Today(offset *int64) (library.Datetime, bool)
}
