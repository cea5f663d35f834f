package source

import "sort"

// Source 是一份已加载的源文本及其行索引。
type Source struct {
	id      FileID
	text    string
	lineIdx []int // 每行起始字节偏移
}

// New 创建 Source，并预先计算行首偏移。
func New(id FileID, text string) *Source {
	idx := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			idx = append(idx, i+1)
		}
	}
	return &Source{id: id, text: text, lineIdx: idx}
}

func (s *Source) ID() FileID   { return s.id }
func (s *Source) Text() string { return s.text }
func (s *Source) Len() int     { return len(s.text) }

// Range resolves a span that belongs to this source into byte offsets.
// The result is clamped to the text length.
func (s *Source) Range(span Span) (start, end int, ok bool) {
	if span.IsDetached() || span.File != s.id {
		return 0, 0, false
	}
	start = min(int(span.Start), len(s.text))
	end = min(int(span.End), len(s.text))
	return start, end, true
}

// LineCol 把字节偏移转为 0 起始的行号与行内字节偏移。
func (s *Source) LineCol(offset int) (line, col int) {
	offset = max(0, min(offset, len(s.text)))
	line = sort.Search(len(s.lineIdx), func(i int) bool { return s.lineIdx[i] > offset }) - 1
	return line, offset - s.lineIdx[line]
}

// Line 返回第 line 行（不含换行符）。
func (s *Source) Line(line int) string {
	if line < 0 || line >= len(s.lineIdx) {
		return ""
	}
	start := s.lineIdx[line]
	end := len(s.text)
	if line+1 < len(s.lineIdx) {
		end = s.lineIdx[line+1] - 1
	}
	if end > start && s.text[end-1] == '\r' {
		end--
	}
	return s.text[start:end]
}

// LineCount returns the number of lines, counting a trailing empty line.
func (s *Source) LineCount() int { return len(s.lineIdx) }
