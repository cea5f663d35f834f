package canvasrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"

	"github.com/ByLCY/inkwell/layout"
	"github.com/ByLCY/inkwell/library"
	"github.com/ByLCY/inkwell/renderer"
)

// Renderer rasterizes layout documents via github.com/tdewolff/canvas.
// It holds no state and is safe for concurrent use.
type Renderer struct{}

var _ renderer.Renderer = (*Renderer)(nil)

// NewRenderer creates a canvas-based renderer.
func NewRenderer() *Renderer { return &Renderer{} }

// Render 把全部页面纵向拼接到一块画布上再光栅化。
// 画布宽度取最宽页面，窄页面右侧与无背景页面保持透明。
// 字体轮廓或路径数据异常导致的 panic 以 error 返回。
func (r *Renderer) Render(doc *layout.Document, pxPerPt float64) (img *image.RGBA, err error) {
	defer func() {
		if v := recover(); v != nil {
			img, err = nil, fmt.Errorf("光栅化失败: %v", v)
		}
	}()
	if doc == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if len(doc.Pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}
	if pxPerPt <= 0 || math.IsNaN(pxPerPt) || math.IsInf(pxPerPt, 0) {
		return nil, fmt.Errorf("无效的缩放比例: %g", pxPerPt)
	}

	width, height := 0.0, 0.0
	for _, p := range doc.Pages {
		width = math.Max(width, p.Width)
		height += p.Height
	}
	c := canvas.New(toMm(width), toMm(height))
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点

	offset := 0.0
	for i, page := range doc.Pages {
		if err := r.drawPage(ctx, page, offset); err != nil {
			return nil, fmt.Errorf("绘制第 %d 页失败: %w", i+1, err)
		}
		offset += page.Height
	}
	return rasterizer.Draw(c, canvas.DPMM(pxPerPt*layout.MmToPt), canvas.DefaultColorSpace), nil
}

// drawPage 绘制一页；offset 为页面顶部在拼接画布上的位置（pt）。
func (r *Renderer) drawPage(ctx *canvas.Context, page layout.Page, offset float64) error {
	if page.Fill != nil {
		ctx.SetFillColor(colorFromLibrary(*page.Fill))
		ctx.SetStrokeColor(canvas.Transparent)
		ctx.DrawPath(0, toMm(offset), canvas.Rectangle(toMm(page.Width), toMm(page.Height)))
	}
	for _, item := range page.Images {
		if err := r.drawImage(ctx, item, offset); err != nil {
			return err
		}
	}
	for _, item := range page.Texts {
		r.drawText(ctx, item, offset)
	}
	return nil
}

// drawText 在基线位置绘制一段文本。
func (r *Renderer) drawText(ctx *canvas.Context, item layout.TextItem, offset float64) {
	if item.Font == nil || item.Text == "" {
		return
	}
	face := item.Font.Face(item.Size, colorFromLibrary(item.Color))
	line := canvas.NewTextLine(face, item.Text, canvas.Left)
	ctx.DrawText(toMm(item.X), toMm(offset+item.Y), line)
}

func (r *Renderer) drawImage(ctx *canvas.Context, item layout.ImageItem, offset float64) error {
	if item.Width <= 0 || item.Height <= 0 {
		return nil
	}
	img, _, err := image.Decode(bytes.NewReader(item.Data))
	if err != nil {
		return fmt.Errorf("解码图片失败: %w", err)
	}
	px := img.Bounds().Dx()
	if px <= 0 {
		return nil
	}
	dpmm := float64(px) / toMm(item.Width)
	ctx.DrawImage(toMm(item.X), toMm(offset+item.Y), img, canvas.DPMM(dpmm))
	return nil
}

func colorFromLibrary(c library.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, float64(c.A)/255.0)
}

// toMm 将点(pt)转换为毫米(mm)。
func toMm(pt float64) float64 { return pt * layout.PtToMm }
