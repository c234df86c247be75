package rondo

import (
	"bytes"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/gofont/goregular"
)

// rect is an absolute pixel rectangle computed during layout.
type rect struct {
	x, y, w, h int
}

func (r rect) contains(px, py int) bool {
	return px >= r.x && px < r.x+r.w && py >= r.y && py < r.y+r.h
}

// Drawer walks the widget tree once per frame: a layout pass that assigns
// absolute rects, then a paint pass. It also keeps the rect table the input
// layer hit-tests against.
type Drawer struct {
	rt      *Runtime
	face    *text.GoTextFaceSource
	white   *ebiten.Image
	elapsed float64
	rects   map[*Widget]rect
}

// NewDrawer creates a drawer for a runtime. Panics if the built-in font
// fails to load, which would be a build defect.
func NewDrawer(rt *Runtime) *Drawer {
	src, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		panic("rondo: load built-in font: " + err.Error())
	}
	white := ebiten.NewImage(1, 1)
	white.Fill(color.White)
	return &Drawer{
		rt:    rt,
		face:  src,
		white: white,
		rects: make(map[*Widget]rect),
	}
}

// Draw lays out and paints the whole tree onto screen. Must be called with
// the runtime lock held by the caller (the Game wrapper does this).
func (d *Drawer) Draw(screen *ebiten.Image, dt float64) {
	d.elapsed += dt
	clear(d.rects)

	root := d.rt.root
	rw := root.W.Resolve(d.rt.screenW, d.rt.screenW)
	rh := root.H.Resolve(d.rt.screenH, d.rt.screenH)
	rr := rect{
		x: (d.rt.screenW - rw) / 2,
		y: (d.rt.screenH - rh) / 2,
		w: rw,
		h: rh,
	}
	d.layout(root, rr)
	d.paint(screen, root, 1.0)
}

// hitTest returns the topmost widget with actions at a screen point, using
// the rects of the last layout pass.
func (d *Drawer) hitTest(px, py int) *Widget {
	return d.hitWalk(d.rt.root, px, py)
}

func (d *Drawer) hitWalk(w *Widget, px, py int) *Widget {
	if w.Hidden {
		return nil
	}
	r, ok := d.rects[w]
	if !ok || !r.contains(px, py) {
		return nil
	}
	// Later siblings paint on top, so search them first.
	for i := len(w.children) - 1; i >= 0; i-- {
		if hit := d.hitWalk(w.children[i], px, py); hit != nil {
			return hit
		}
	}
	if w.actions != nil {
		return w
	}
	return nil
}

// layout assigns w's rect and positions its children inside it. Animation
// offsets shift the widget and, because children lay out relative to it, its
// whole subtree.
func (d *Drawer) layout(w *Widget, r rect) {
	r.x += int(w.OffsetX)
	r.y += int(w.OffsetY)
	d.rects[w] = r

	inner := rect{x: r.x + w.Pad, y: r.y + w.Pad, w: r.w - 2*w.Pad, h: r.h - 2*w.Pad}
	if len(w.children) == 0 {
		return
	}

	if w.FlexEnabled {
		d.layoutFlex(w, inner)
		return
	}
	for _, child := range w.children {
		cw, ch := d.sizeOf(child, inner.w, inner.h)
		cx, cy := anchor(child.Align, inner, cw, ch)
		d.layout(child, rect{x: cx + child.XOfs, y: cy + child.YOfs, w: cw, h: ch})
	}
}

// layoutFlex stacks children along the container's flow axis.
func (d *Drawer) layoutFlex(w *Widget, inner rect) {
	type sized struct {
		child *Widget
		w, h  int
	}
	items := make([]sized, 0, len(w.children))
	main := 0
	for _, child := range w.children {
		cw, ch := d.sizeOf(child, inner.w, inner.h)
		items = append(items, sized{child, cw, ch})
		if w.Flow == FlexRow {
			main += cw
		} else {
			main += ch
		}
	}
	main += w.Gap * (len(items) - 1)

	axis := inner.h
	if w.Flow == FlexRow {
		axis = inner.w
	}
	cursor, gap := flexStart(w.Justify, axis, main, w.Gap, len(items))

	for _, it := range items {
		var cr rect
		if w.Flow == FlexRow {
			cy := crossPos(w.AlignItems, inner.y, inner.h, it.h)
			cr = rect{x: inner.x + cursor, y: cy, w: it.w, h: it.h}
			cursor += it.w + gap
		} else {
			cx := crossPos(w.AlignItems, inner.x, inner.w, it.w)
			cr = rect{x: cx, y: inner.y + cursor, w: it.w, h: it.h}
			cursor += it.h + gap
		}
		cr.x += it.child.XOfs
		cr.y += it.child.YOfs
		d.layout(it.child, cr)
	}
}

// flexStart resolves the main-axis start offset and effective gap for a
// justify mode.
func flexStart(j FlexAlign, axis, content, gap, n int) (int, int) {
	switch j {
	case FlexCenter:
		return (axis - content) / 2, gap
	case FlexEnd:
		return axis - content, gap
	case FlexSpaceBetween:
		if n > 1 {
			return 0, gap + (axis-content)/(n-1)
		}
		return (axis - content) / 2, gap
	case FlexSpaceEvenly:
		slot := (axis - content) / (n + 1)
		return slot, gap + slot
	case FlexSpaceAround:
		slot := (axis - content) / n
		return slot / 2, gap + slot
	default:
		return 0, gap
	}
}

func crossPos(a FlexAlign, start, axis, size int) int {
	switch a {
	case FlexCenter:
		return start + (axis-size)/2
	case FlexEnd:
		return start + axis - size
	default:
		return start
	}
}

// anchor places a child of the given size at its alignment point inside r.
func anchor(a Align, r rect, cw, ch int) (int, int) {
	cx := r.x + (r.w-cw)/2
	cy := r.y + (r.h-ch)/2
	switch a {
	case AlignTopLeft, AlignLeftMid, AlignBottomLeft:
		cx = r.x
	case AlignTopRight, AlignRightMid, AlignBottomRight:
		cx = r.x + r.w - cw
	}
	switch a {
	case AlignTopLeft, AlignTopMid, AlignTopRight:
		cy = r.y
	case AlignBottomLeft, AlignBottomMid, AlignBottomRight:
		cy = r.y + r.h - ch
	}
	return cx, cy
}

// sizeOf resolves a widget's dimensions against the parent extent, using a
// per-kind intrinsic size for content-sized dimensions.
func (d *Drawer) sizeOf(w *Widget, parentW, parentH int) (int, int) {
	cw, ch := d.contentSize(w, parentW, parentH)
	return w.W.Resolve(parentW, cw), w.H.Resolve(parentH, ch)
}

func (d *Drawer) contentSize(w *Widget, parentW, parentH int) (int, int) {
	switch w.Kind {
	case KindLabel:
		tw, th := text.Measure(w.Text, d.faceFor(w), 0)
		return int(tw) + 1, int(th) + 1
	case KindButton:
		cw, ch := 0, 0
		if w.NumChildren() > 0 {
			cw, ch = d.contentSize(w.ChildAt(0), parentW, parentH)
		}
		return cw + 2*w.Pad + 24, ch + 2*w.Pad + 12
	case KindImage:
		if w.Img != nil {
			b := w.Img.Bounds()
			return b.Dx(), b.Dy()
		}
		return 64, 64
	case KindBar, KindSlider:
		return 200, 16
	case KindParticle:
		if w.Emitter != nil {
			rw, rh := w.Emitter.RasterSize()
			return rw, rh
		}
		return defaultRasterW, defaultRasterH
	default:
		return parentW, parentH
	}
}

func (d *Drawer) faceFor(w *Widget) *text.GoTextFace {
	size := w.FontSize
	if size <= 0 {
		size = 14
	}
	return &text.GoTextFace{Source: d.face, Size: float64(size)}
}

// paint draws one widget and recurses. alpha accumulates Opa down the tree.
func (d *Drawer) paint(dst *ebiten.Image, w *Widget, alpha float64) {
	if w.Hidden {
		return
	}
	alpha *= float64(w.Opa) / 255
	if alpha <= 0 {
		return
	}
	r := d.rects[w]

	if w.BgOpa > 0 {
		a := alpha * float64(w.BgOpa) / 255
		d.fillRect(dst, r, w.BgColor, a)
	}
	if w.BorderW > 0 {
		vector.StrokeRect(dst, float32(r.x), float32(r.y), float32(r.w), float32(r.h),
			float32(w.BorderW), scaled(w.BorderColor, alpha), true)
	}

	switch w.Kind {
	case KindLabel:
		d.paintLabel(dst, w, r, alpha)
	case KindBar, KindSlider:
		d.paintRange(dst, w, r, alpha)
	case KindImage:
		d.paintImage(dst, w, r, alpha)
	case KindParticle:
		d.paintParticle(dst, w, r, alpha)
	}

	for _, child := range w.children {
		d.paint(dst, child, alpha)
	}
}

func (d *Drawer) paintLabel(dst *ebiten.Image, w *Widget, r rect, alpha float64) {
	face := d.faceFor(w)
	op := &text.DrawOptions{}
	op.GeoM.Translate(float64(r.x), float64(r.y))

	if w.LongMode == LongScroll {
		tw, _ := text.Measure(w.Text, face, 0)
		if int(tw) > r.w {
			// Marquee: wrap the text position over the overflow span.
			span := tw - float64(r.w) + marqueeLead
			phase := d.elapsed * marqueeSpeed
			ofs := phase - float64(int(phase/span))*span
			op.GeoM.Translate(-ofs, 0)
		}
	}

	op.ColorScale.ScaleWithColor(scaled(w.TextColor, alpha))
	text.Draw(dst, w.Text, face, op)
}

const (
	marqueeSpeed = 40.0 // px/s
	marqueeLead  = 24.0 // gap before the text re-enters
)

func (d *Drawer) paintRange(dst *ebiten.Image, w *Widget, r rect, alpha float64) {
	span := w.Max - w.Min
	frac := 0.0
	if span > 0 {
		frac = float64(w.Value-w.Min) / float64(span)
	}
	fill := rect{x: r.x, y: r.y, w: int(float64(r.w) * frac), h: r.h}
	d.fillRect(dst, fill, w.IndicColor, alpha)

	if w.Kind == KindSlider {
		kr := float32(r.h)*0.75 + 4
		kx := float32(r.x) + float32(r.w)*float32(frac)
		ky := float32(r.y) + float32(r.h)/2
		vector.DrawFilledCircle(dst, kx, ky, kr, scaled(w.IndicColor, alpha), true)
	}
}

func (d *Drawer) paintImage(dst *ebiten.Image, w *Widget, r rect, alpha float64) {
	if w.Img == nil {
		return
	}
	if w.tex == nil {
		w.tex = ebiten.NewImageFromImage(w.Img)
	}
	b := w.tex.Bounds()
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(-float64(b.Dx())/2, -float64(b.Dy())/2)
	if r.w != b.Dx() || r.h != b.Dy() {
		op.GeoM.Scale(float64(r.w)/float64(b.Dx()), float64(r.h)/float64(b.Dy()))
	}
	op.GeoM.Rotate(w.Rotation)
	op.GeoM.Translate(float64(r.x)+float64(r.w)/2, float64(r.y)+float64(r.h)/2)
	op.ColorScale.ScaleAlpha(float32(alpha))
	dst.DrawImage(w.tex, op)
}

func (d *Drawer) paintParticle(dst *ebiten.Image, w *Widget, r rect, alpha float64) {
	em := w.Emitter
	if em == nil {
		return
	}
	rw, rh := em.RasterSize()
	if w.tex == nil {
		w.tex = ebiten.NewImage(rw, rh)
	}
	w.tex.WritePixels(em.Raster())
	op := &ebiten.DrawImageOptions{}
	if r.w != rw || r.h != rh {
		op.GeoM.Scale(float64(r.w)/float64(rw), float64(r.h)/float64(rh))
	}
	op.GeoM.Translate(float64(r.x), float64(r.y))
	op.ColorScale.ScaleAlpha(float32(alpha))
	dst.DrawImage(w.tex, op)
}

func (d *Drawer) fillRect(dst *ebiten.Image, r rect, c Color, alpha float64) {
	if r.w <= 0 || r.h <= 0 {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(r.w), float64(r.h))
	op.GeoM.Translate(float64(r.x), float64(r.y))
	a := float32(alpha)
	op.ColorScale.Scale(float32(c.R)/255*a, float32(c.G)/255*a, float32(c.B)/255*a, a)
	dst.DrawImage(d.white, op)
}

func scaled(c Color, alpha float64) color.Color {
	return color.RGBA{
		R: uint8(float64(c.R) * alpha),
		G: uint8(float64(c.G) * alpha),
		B: uint8(float64(c.B) * alpha),
		A: uint8(255 * alpha),
	}
}
