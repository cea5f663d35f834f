package fonts

import (
	"sort"
	"strings"
)

// Book 是字体目录：按族名与样式挑选字体，无需重新扫描字体数据。
type Book struct {
	infos    []Info
	byFamily map[string][]int // 小写族名 -> 字体索引
}

// NewBook 扫描 fonts 生成目录，索引与 fonts 中的位置一致。
func NewBook(fonts []*Font) *Book {
	b := &Book{byFamily: map[string][]int{}}
	for i, f := range fonts {
		info := f.Info()
		b.infos = append(b.infos, info)
		key := strings.ToLower(info.Family)
		b.byFamily[key] = append(b.byFamily[key], i)
	}
	return b
}

func (b *Book) Len() int { return len(b.infos) }

// Info returns the catalog entry at index i.
func (b *Book) Info(i int) (Info, bool) {
	if i < 0 || i >= len(b.infos) {
		return Info{}, false
	}
	return b.infos[i], true
}

// HasFamily 大小写不敏感地判断族是否存在。
func (b *Book) HasFamily(family string) bool {
	_, ok := b.byFamily[strings.ToLower(strings.TrimSpace(family))]
	return ok
}

// Families 返回排序后的族名。
func (b *Book) Families() []string {
	seen := map[string]bool{}
	var out []string
	for _, info := range b.infos {
		if !seen[info.Family] {
			seen[info.Family] = true
			out = append(out, info.Family)
		}
	}
	sort.Strings(out)
	return out
}

// Select 在族内挑选与 bold/italic 最接近的字体；族不存在时返回 false。
func (b *Book) Select(family string, bold, italic bool) (int, bool) {
	candidates := b.byFamily[strings.ToLower(strings.TrimSpace(family))]
	if len(candidates) == 0 {
		return 0, false
	}
	best, bestScore := candidates[0], -1
	for _, idx := range candidates {
		info := b.infos[idx]
		score := 0
		if info.Bold == bold {
			score += 2
		}
		if info.Italic == italic {
			score++
		}
		if score > bestScore {
			best, bestScore = idx, score
		}
	}
	return best, true
}
