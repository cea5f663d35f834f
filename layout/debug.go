package layout

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// EncodeDebugJSON 把排版结果（页面尺寸、文本与图片位置）以缩进 JSON 写入 w。
func EncodeDebugJSON(w io.Writer, doc *Document) error {
	if doc == nil {
		return fmt.Errorf("no document to encode")
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// WriteDebugJSON 写入 path；path 为 "-" 时写到标准输出。
func WriteDebugJSON(doc *Document, path string) error {
	if path == "-" {
		return EncodeDebugJSON(os.Stdout, doc)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeDebugJSON(f, doc); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
