package source

import (
	"fmt"

	"fortio.org/safecast"
)

// Span 标记某个文件里的半开字节区间 [Start, End)。
type Span struct {
	File  FileID
	Start uint32 // 字节偏移，包含
	End   uint32 // 字节偏移，不包含
}

// Detached 返回不指向任何位置的 span。
func Detached() Span { return Span{} }

// NewSpan builds a span from int offsets. Offsets that do not fit into uint32
// are clamped so the span can never wrap.
func NewSpan(file FileID, start, end int) Span {
	s := clampOffset(start)
	e := clampOffset(end)
	if e < s {
		e = s
	}
	return Span{File: file, Start: s, End: e}
}

func clampOffset(v int) uint32 {
	if v < 0 {
		return 0
	}
	out, err := safecast.Conv[uint32](v)
	if err != nil {
		return ^uint32(0)
	}
	return out
}

func (s Span) IsDetached() bool { return s.File.IsDetached() }

func (s Span) Empty() bool { return s.Start == s.End }

func (s Span) Len() uint32 { return s.End - s.Start }

// Shift moves both ends by delta bytes, used when a sub-string was parsed on its own.
func (s Span) Shift(delta int) Span {
	return NewSpan(s.File, int(s.Start)+delta, int(s.End)+delta)
}

// Cover returns the smallest span containing both s and other.
func (s Span) Cover(other Span) Span {
	if s.File != other.File {
		return s
	}
	if other.Start < s.Start {
		s.Start = other.Start
	}
	if other.End > s.End {
		s.End = other.End
	}
	return s
}

func (s Span) String() string {
	if s.IsDetached() {
		return "detached"
	}
	return fmt.Sprintf("%s:%d-%d", s.File, s.Start, s.End)
}
