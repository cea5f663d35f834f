package source

import (
	"fmt"
	"path"
	"strings"
	"sync/atomic"
)

// FileID 唯一标识一个文件：虚拟路径加上区分同路径伪文件的序号。
// 零值表示“无文件”（detached）。FileID 是可比较的值，不需要全局登记。
type FileID struct {
	path VirtualPath
	fake uint64
}

// VirtualPath 是项目内的虚拟路径，始终以 "/" 开头，不对应真实文件系统。
type VirtualPath string

// NewVirtualPath 规范化路径：统一分隔符、补齐前导斜杠并清理 "." 与 "..".
func NewVirtualPath(p string) VirtualPath {
	p = strings.ReplaceAll(p, "\\", "/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return VirtualPath(path.Clean(p))
}

func (p VirtualPath) String() string { return string(p) }

// Join 相对当前路径所在目录解析 rel。
func (p VirtualPath) Join(rel string) VirtualPath {
	if strings.HasPrefix(rel, "/") {
		return NewVirtualPath(rel)
	}
	return NewVirtualPath(path.Join(path.Dir(string(p)), rel))
}

var fakeSeq atomic.Uint64

// IDFor 返回 path 对应的 FileID，相同路径总是得到相同 ID。
func IDFor(p VirtualPath) FileID { return FileID{path: p} }

// NewFakeID 总是分配一个新的 FileID，即使 path 已被某个 ID 使用。
// 这样得到的 ID 不会与 IDFor 产生的 ID 相等。
func NewFakeID(p VirtualPath) FileID { return FileID{path: p, fake: fakeSeq.Add(1)} }

// Path 返回 ID 对应的虚拟路径；detached 返回空串。
func (id FileID) Path() VirtualPath { return id.path }

// IsDetached reports whether the id refers to no file.
func (id FileID) IsDetached() bool { return id == FileID{} }

func (id FileID) String() string {
	switch {
	case id.IsDetached():
		return "detached"
	case id.fake != 0:
		return fmt.Sprintf("%s#%d", id.path, id.fake)
	}
	return string(id.path)
}
