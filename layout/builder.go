package layout

import (
	"bytes"
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/ByLCY/inkwell/diag"
	"github.com/ByLCY/inkwell/dsl"
	"github.com/ByLCY/inkwell/fonts"
	"github.com/ByLCY/inkwell/library"
	"github.com/ByLCY/inkwell/source"
)

// 默认排版参数（pt）。
const (
	a4Width         = 595.28
	a4Height        = 841.89
	defaultTextSize = 11.0
	maxIncludeDepth = 16
	pxToPt          = 0.75 // 图片按 96dpi 换算
)

var (
	defaultLeading    = Length{Value: 0.65, Unit: UnitEM}
	defaultParSpacing = Length{Value: 1.2, Unit: UnitEM}
	headingScale      = []float64{1.4, 1.2, 1.0}
)

// Compile 编译 world 的主文档。成功时返回文档与 warning；失败时返回的
// error 一定是 diag.List（全部 error 级别诊断），warning 依然会返回。
func Compile(w World) (*Document, []diag.SourceDiagnostic, error) {
	src, err := w.Source(w.Main())
	if err != nil {
		return nil, nil, diag.List{diag.Error(source.Detached(), "%v", err)}
	}
	e := newEngine(w)
	e.realize(src, 0)
	doc := e.finish()
	if e.sink.HasErrors() {
		return nil, e.sink.Warnings(), e.sink.Errors()
	}
	return doc, e.sink.Warnings(), nil
}

type textStyle struct {
	family string
	size   float64
	fill   library.Color
	bold   bool
	italic bool
	mono   bool
}

type parStyle struct {
	leading Length
	justify bool
}

type pageStyle struct {
	width  *Length // nil 表示 auto
	height *Length
	margin *Length
	fill   *library.Color
}

type blockKind uint8

const (
	blockNone blockKind = iota
	blockPar
	blockHeading
	blockList
	blockImage
)

type fontKey struct {
	family string
	bold   bool
	italic bool
}

type engine struct {
	world World
	lib   *library.Library
	book  *fonts.Book
	sink  *diag.Sink

	text textStyle
	par  parStyle
	page pageStyle

	fonts   map[fontKey]*fonts.Font
	pending []piece // 当前段落尚未排版的行内内容
	pages   []Page
	cur     *pageBuilder
	last    blockKind
}

func newEngine(w World) *engine {
	white := library.Color{R: 255, G: 255, B: 255, A: 255}
	width := Length{Value: a4Width, Unit: UnitPT}
	height := Length{Value: a4Height, Unit: UnitPT}
	e := &engine{
		world: w,
		lib:   w.Library(),
		book:  w.Book(),
		sink:  &diag.Sink{},
		text: textStyle{
			family: fonts.DefaultFamily,
			size:   defaultTextSize,
			fill:   library.Color{A: 255},
		},
		par:   parStyle{leading: defaultLeading},
		page:  pageStyle{width: &width, height: &height, fill: &white},
		fonts: map[fontKey]*fonts.Font{},
	}
	e.cur = e.newPage(e.page)
	return e
}

// realize 遍历一份源文本的标记树，把内容送入当前段落或直接生成块。
func (e *engine) realize(src *source.Source, depth int) {
	markup, diags := dsl.Parse(src)
	for _, d := range diags {
		e.sink.Add(d)
	}
	e.nodes(markup.Nodes, src, depth)
}

func (e *engine) nodes(nodes []*dsl.Node, src *source.Source, depth int) {
	for _, n := range nodes {
		e.node(n, src, depth)
	}
}

func (e *engine) node(n *dsl.Node, src *source.Source, depth int) {
	switch n.Kind {
	case dsl.NodeText:
		e.pending = append(e.pending, piece{kind: pieceText, text: n.Text, style: e.text})
	case dsl.NodeSpace:
		e.pending = append(e.pending, piece{kind: pieceSpace, style: e.text})
	case dsl.NodeLinebreak:
		e.pending = append(e.pending, piece{kind: pieceBreak, style: e.text})
	case dsl.NodeParbreak:
		e.flushPar()
	case dsl.NodeStrong:
		saved := e.text
		e.text.bold = true
		e.nodes(n.Children, src, depth)
		e.text = saved
	case dsl.NodeEmph:
		saved := e.text
		e.text.italic = !e.text.italic
		e.nodes(n.Children, src, depth)
		e.text = saved
	case dsl.NodeRaw:
		saved := e.text
		e.text.mono = true
		e.rawPieces(n.Text)
		e.text = saved
	case dsl.NodeHeading:
		e.heading(n, src, depth)
	case dsl.NodeListItem:
		e.listItem(n, src, depth)
	case dsl.NodeCode:
		e.code(n.Code, src, depth)
	}
}

func (e *engine) rawPieces(text string) {
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			e.pending = append(e.pending, piece{kind: pieceBreak, style: e.text})
		}
		for j, word := range strings.Split(line, " ") {
			if j > 0 {
				e.pending = append(e.pending, piece{kind: pieceSpace, style: e.text, hard: true})
			}
			if word != "" {
				e.pending = append(e.pending, piece{kind: pieceText, text: word, style: e.text})
			}
		}
	}
}

func (e *engine) code(c *dsl.Code, src *source.Source, depth int) {
	if c.Set != nil {
		e.applySet(c.Set)
		return
	}
	call := c.Call
	if call == nil {
		return
	}
	if !call.Parens {
		switch call.Name {
		case "auto", "none":
			return
		}
		if _, ok := e.lib.Color(call.Name); ok {
			e.sink.Add(diag.Error(call.Span(), "%s", describeNonContent(library.KindColor)))
			return
		}
	}
	if _, ok := e.lib.Element(call.Name); ok {
		e.sink.Add(diag.Error(call.NameSpan(), "%s can only be configured with a set rule", call.Name))
		return
	}
	sig, ok := e.lib.Function(call.Name)
	if !ok || call.Name == "rgb" {
		if !e.lib.Defines(call.Name) {
			e.sink.Add(diag.Error(call.NameSpan(), "unknown variable: %s", call.Name))
		} else {
			e.sink.Add(diag.Error(call.Span(), "%s", describeNonContent(library.KindColor)))
		}
		return
	}
	args, ok := e.bind(sig, call.Args, call.Span())
	if !ok {
		return
	}
	switch call.Name {
	case "v":
		e.flushPar()
		e.cur.advance(args["amount"].length.Resolve(e.text.size))
	case "h":
		e.pending = append(e.pending, piece{kind: pieceGlue, width: args["amount"].length.Resolve(e.text.size), style: e.text})
	case "linebreak":
		e.pending = append(e.pending, piece{kind: pieceBreak, style: e.text})
	case "pagebreak":
		e.flushPar()
		e.finishPage()
		e.cur = e.newPage(e.page)
	case "today":
		date, ok := e.world.Today(nil)
		if !ok {
			e.sink.Add(diag.Error(call.Span(), "unable to get the current date"))
			return
		}
		e.pending = append(e.pending, piece{kind: pieceText, text: date.String(), style: e.text})
	case "image":
		e.image(src, args)
	case "include":
		e.include(src, args, depth)
	}
}

func (e *engine) include(from *source.Source, args map[string]value, depth int) {
	arg := args["path"]
	if depth >= maxIncludeDepth {
		e.sink.Add(diag.Error(arg.span, "maximum include depth exceeded"))
		return
	}
	path := from.ID().Path().Join(arg.str)
	src, err := e.world.Source(source.IDFor(path))
	if err != nil {
		e.sink.Add(fileDiagnostic(arg.span, path, err))
		return
	}
	e.realize(src, depth+1)
}

func (e *engine) image(from *source.Source, args map[string]value) {
	arg := args["path"]
	path := from.ID().Path().Join(arg.str)
	data, err := e.world.File(source.IDFor(path))
	if err != nil {
		e.sink.Add(fileDiagnostic(arg.span, path, err))
		return
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		e.sink.Add(diag.Error(arg.span, "failed to decode image (%v)", err))
		return
	}
	w := float64(cfg.Width) * pxToPt
	h := float64(cfg.Height) * pxToPt
	if v, has := args["width"]; has && v.kind == library.KindLength && w > 0 {
		scale := v.length.Resolve(e.text.size) / w
		w, h = w*scale, h*scale
	}
	if limit := e.cur.contentWidth(); !math.IsInf(limit, 1) && w > limit && w > 0 {
		scale := limit / w
		w, h = w*scale, h*scale
	}
	e.flushPar()
	e.blockGap(e.text.size, blockImage)
	e.cur.fit(h)
	e.cur.images = append(e.cur.images, ImageItem{X: 0, Y: e.cur.y, Width: w, Height: h, Format: format, Data: data})
	e.cur.extend(w)
	e.cur.y += h
	e.cur.content = true
}

// fileDiagnostic 报告资源加载失败；world 给出的 FileError 原样使用。
func fileDiagnostic(span source.Span, path source.VirtualPath, err error) diag.SourceDiagnostic {
	var fe *diag.FileError
	if errors.As(err, &fe) {
		return diag.Error(span, "%v", fe)
	}
	return diag.Error(span, "%v", &diag.FileError{Path: path, Err: err})
}

func (e *engine) heading(n *dsl.Node, src *source.Source, depth int) {
	e.flushPar()
	saved := e.text
	base := e.text.size
	scale := 1.0
	if n.Level-1 < len(headingScale) {
		scale = headingScale[n.Level-1]
	}
	e.text.size = base * scale
	e.text.bold = true
	e.nodes(n.Children, src, depth)
	lines := e.breakLines(e.takePending(), e.cur.contentWidth(), false)
	e.text = saved

	e.blockGap(base*1.4, blockHeading)
	e.placeLines(lines, 0, base)
	e.spacingAfter(base * 0.75)
}

func (e *engine) listItem(n *dsl.Node, src *source.Source, depth int) {
	e.flushPar()
	e.nodes(n.Children, src, depth)
	bullet := e.fontFor(e.text)
	ascentGap := e.text.size * 0.5
	marker := "\u2022"
	markerWidth := 0.0
	if bullet != nil {
		markerWidth = bullet.Measure(marker, e.text.size)
	}
	indent := markerWidth + ascentGap
	width := e.cur.contentWidth() - indent
	lines := e.breakLines(e.takePending(), width, e.par.justify)
	if len(lines) == 0 {
		lines = []line{e.emptyLine()}
	}

	gap := defaultParSpacing.Resolve(e.text.size)
	if e.last == blockList {
		gap = e.par.leading.Resolve(e.text.size)
	}
	e.blockGap(gap, blockList)
	first := e.placeLines(lines, indent, e.text.size)
	if bullet != nil {
		e.cur.texts = append(e.cur.texts, TextItem{
			X: 0, Y: first, Width: markerWidth, Text: marker,
			Font: bullet, Face: bullet.Name(), Size: e.text.size, Color: e.text.fill,
		})
	}
}

// flushPar 把当前段落排版进页面。
func (e *engine) flushPar() {
	pieces := e.takePending()
	if !hasText(pieces) {
		return
	}
	lines := e.breakLines(pieces, e.cur.contentWidth(), e.par.justify)
	e.blockGap(defaultParSpacing.Resolve(e.text.size), blockPar)
	e.placeLines(lines, 0, e.text.size)
}

func (e *engine) takePending() []piece {
	p := e.pending
	e.pending = nil
	return p
}

// blockGap 在块之间插入间距；页首不插入，相邻间距取最大值。
func (e *engine) blockGap(gap float64, kind blockKind) {
	if e.cur.content {
		e.cur.y += math.Max(gap, e.cur.trailing)
	}
	e.cur.trailing = 0
	e.last = kind
}

func (e *engine) spacingAfter(gap float64) { e.cur.trailing = gap }

// placeLines 逐行放置，必要时换页；返回首行基线位置。
func (e *engine) placeLines(lines []line, indent, em float64) float64 {
	leading := e.par.leading.Resolve(em)
	first := 0.0
	for i, ln := range lines {
		if i > 0 {
			e.cur.y += leading
		}
		if e.cur.fit(ln.ascent + ln.descent) {
			e.last = blockNone
		}
		baseline := e.cur.y + ln.ascent
		if i == 0 {
			first = baseline
		}
		for _, f := range ln.frags {
			if f.text == "" || f.font == nil {
				continue
			}
			e.cur.texts = append(e.cur.texts, TextItem{
				X: indent + f.x, Y: baseline, Width: f.width, Text: f.text,
				Font: f.font, Face: f.font.Name(), Size: f.style.size, Color: f.style.fill,
			})
		}
		e.cur.extend(indent + ln.width)
		e.cur.y = baseline + ln.descent
		e.cur.content = true
	}
	return first
}

// changePage 应用新的页面样式；当前页已有内容时先结束当前页（与分页语义一致）。
func (e *engine) changePage(next pageStyle) {
	e.flushPar()
	e.page = next
	if e.cur.content {
		e.finishPage()
	}
	e.cur = e.newPage(next)
}

func (e *engine) finishPage() {
	e.pages = append(e.pages, e.cur.build()...)
}

func (e *engine) finish() *Document {
	e.flushPar()
	e.finishPage()
	return &Document{Pages: e.pages}
}

func (e *engine) newPage(style pageStyle) *pageBuilder {
	pb := &pageBuilder{fill: style.fill}
	if style.width != nil {
		w := style.width.Resolve(e.text.size)
		pb.width = &w
	}
	if style.height != nil {
		h := style.height.Resolve(e.text.size)
		pb.height = &h
	}
	if style.margin != nil {
		pb.margin = style.margin.Resolve(e.text.size)
	} else {
		w, h := a4Width, a4Height
		if pb.width != nil {
			w = *pb.width
		}
		if pb.height != nil {
			h = *pb.height
		}
		pb.margin = 2.5 / 21 * math.Min(w, h)
	}
	return pb
}

// fontFor 按样式挑选字体；族缺失时回退到默认族，再回退到第一个字体。
func (e *engine) fontFor(style textStyle) *fonts.Font {
	family := style.family
	if style.mono {
		family = fonts.MonoFamily
	}
	key := fontKey{family: lower(family), bold: style.bold, italic: style.italic}
	if f, ok := e.fonts[key]; ok {
		return f
	}
	idx, ok := e.book.Select(family, style.bold, style.italic)
	if !ok {
		idx, ok = e.book.Select(fonts.DefaultFamily, style.bold, style.italic)
	}
	var f *fonts.Font
	if ok {
		f = e.world.Font(idx)
	}
	if f == nil {
		f = e.world.Font(0)
	}
	e.fonts[key] = f
	return f
}

func lower(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func hasText(pieces []piece) bool {
	for _, p := range pieces {
		if p.kind == pieceText || p.kind == pieceGlue {
			return true
		}
	}
	return false
}

// pageBuilder 累积一页的内容；坐标相对内容区左上角，build 时加上页边距。
type pageBuilder struct {
	width    *float64
	height   *float64
	margin   float64
	fill     *library.Color
	texts    []TextItem
	images   []ImageItem
	y        float64
	maxX     float64
	trailing float64
	content  bool
	overflow []Page
}

func (pb *pageBuilder) contentWidth() float64 {
	if pb.width == nil {
		return math.Inf(1)
	}
	return math.Max(*pb.width-2*pb.margin, 0)
}

func (pb *pageBuilder) contentHeight() float64 {
	if pb.height == nil {
		return math.Inf(1)
	}
	return math.Max(*pb.height-2*pb.margin, 0)
}

func (pb *pageBuilder) advance(dy float64) {
	pb.y += dy
	pb.content = true
}

func (pb *pageBuilder) extend(x float64) {
	if x > pb.maxX {
		pb.maxX = x
	}
}

// fit 在高度固定的页面上检查剩余空间；放不下且本页已有内容时换到新页，返回是否换页。
func (pb *pageBuilder) fit(h float64) bool {
	if pb.y+h <= pb.contentHeight() || !pb.content {
		return false
	}
	pb.overflow = append(pb.overflow, pb.snapshot())
	pb.texts, pb.images = nil, nil
	pb.y, pb.maxX, pb.trailing = 0, 0, 0
	pb.content = false
	return true
}

func (pb *pageBuilder) snapshot() Page {
	width := 2*pb.margin + pb.maxX
	if pb.width != nil {
		width = *pb.width
	}
	height := 2*pb.margin + pb.y
	if pb.height != nil {
		height = *pb.height
	}
	page := Page{Width: width, Height: height}
	if pb.fill != nil {
		c := *pb.fill
		page.Fill = &c
	}
	for _, t := range pb.texts {
		t.X += pb.margin
		t.Y += pb.margin
		page.Texts = append(page.Texts, t)
	}
	for _, img := range pb.images {
		img.X += pb.margin
		img.Y += pb.margin
		page.Images = append(page.Images, img)
	}
	return page
}

func (pb *pageBuilder) build() []Page {
	return append(pb.overflow, pb.snapshot())
}
