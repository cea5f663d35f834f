package renderer

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/ByLCY/inkwell/layout"
)

// Renderer 将排版结果光栅化为一张位图。多页文档按顺序纵向拼接，页间无间隙。
// pxPerPt 为每个 pt 对应的像素数。
type Renderer interface {
	Render(doc *layout.Document, pxPerPt float64) (*image.RGBA, error)
}

// EncodePNG 把位图编码为 PNG。
func EncodePNG(img image.Image) ([]byte, error) {
	if img == nil {
		return nil, fmt.Errorf("位图为空")
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("编码 PNG 失败: %w", err)
	}
	return buf.Bytes(), nil
}
