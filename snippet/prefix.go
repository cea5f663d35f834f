package snippet

import "strings"

const (
	autosizePrefix    = "#set page(width: auto, height: auto, margin: 0.5cm)\n"
	transparentPrefix = "#set page(fill: none)\n"
)

// BuildSource 在用户文本前拼接页面指令，返回完整文本与前缀的字节长度。
// 顺序固定为 autosize 在前、transparent 在后。
func BuildSource(user string, autosize, transparent bool) (string, int) {
	var b strings.Builder
	if autosize {
		b.WriteString(autosizePrefix)
	}
	if transparent {
		b.WriteString(transparentPrefix)
	}
	prefixLen := b.Len()
	b.WriteString(user)
	return b.String(), prefixLen
}
