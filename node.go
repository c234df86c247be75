package rondo

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"
)

// Widget is the fundamental scene tree element. A single flat struct is used
// for all widget kinds to avoid interface dispatch on the hot path; Kind
// selects behavior.
type Widget struct {
	Kind Kind
	ID   string

	Parent   *Widget
	children []*Widget

	// Geometry and style (the enumerated document property set).
	W, H        Dim
	Align       Align
	XOfs, YOfs  int
	BgColor     Color
	BgOpa       uint8 // 0 transparent .. 255 opaque
	Pad         int
	Radius      int
	Gap         int
	BorderW     int
	BorderColor Color
	TextColor   Color
	FontSize    int
	Hidden      bool
	Opa         uint8 // whole-widget opacity, multiplied down the tree

	// Flex layout (containers and the root).
	FlexEnabled bool
	Flow        FlexFlow
	Justify     FlexAlign
	AlignItems  FlexAlign

	// Label fields.
	Text     string
	LongMode LongMode

	// Bar/slider fields.
	Min, Max, Value int
	IndicColor      Color

	// Image fields.
	Img image.Image
	tex *ebiten.Image // draw-pass cache, lazily created

	// Particle fields.
	Emitter *Emitter

	// Animation side-state, written by the animation engine.
	OffsetX, OffsetY float64 // translation from rest position
	Rotation         float64 // radians, image widgets only

	actions  *actionSet
	disposed bool
}

func widgetDefaults(w *Widget) {
	w.Opa = 255
	w.BgColor = ColorWhite
	w.TextColor = ColorWhite
	w.IndicColor = ColorWhite
	w.FontSize = 14
}

// newWidget creates a widget of the given kind with per-kind defaults.
func newWidget(kind Kind) *Widget {
	w := &Widget{Kind: kind}
	widgetDefaults(w)
	switch kind {
	case KindContainer:
		// Containers render nothing by default and size to content.
		w.BgOpa = 0
	case KindButton:
		w.BgOpa = 255
		w.BgColor = Color{0x2f, 0x54, 0x8b}
	case KindBar, KindSlider:
		w.Max = 100
		w.BgOpa = 255
		w.BgColor = Color{0x3a, 0x3a, 0x3a}
	}
	return w
}

// AddChild appends child in document order. Panics on nil or cycle; those are
// programmer errors, not data errors.
func (w *Widget) AddChild(child *Widget) {
	if child == nil {
		panic("rondo: cannot add nil child")
	}
	for p := w; p != nil; p = p.Parent {
		if p == child {
			panic("rondo: adding child would create a cycle")
		}
	}
	if child.Parent != nil {
		child.Parent.removeChildByPtr(child)
	}
	child.Parent = w
	w.children = append(w.children, child)
}

// Children returns the child list in rendering order. The returned slice MUST
// NOT be mutated by the caller.
func (w *Widget) Children() []*Widget {
	return w.children
}

// NumChildren returns the number of children.
func (w *Widget) NumChildren() int {
	return len(w.children)
}

// ChildAt returns the child at the given index.
func (w *Widget) ChildAt(index int) *Widget {
	return w.children[index]
}

// RemoveFromParent detaches this widget. No-op when already detached.
func (w *Widget) RemoveFromParent() {
	if w.Parent == nil {
		return
	}
	w.Parent.removeChildByPtr(w)
	w.Parent = nil
}

// IsDisposed reports whether this widget has been destroyed. Handles held
// past destruction must fail lookups safely, never dereference freed state.
func (w *Widget) IsDisposed() bool {
	return w.disposed
}

// dispose recursively destroys the subtree, releasing every per-widget side
// resource exactly once: the particle pool and raster, the decoded image and
// its texture cache, and action bindings. Animation instances are released by
// the runtime, which observes the disposed flag.
func (w *Widget) dispose() {
	if w.disposed {
		return
	}
	w.disposed = true
	for _, child := range w.children {
		child.Parent = nil
		child.dispose()
	}
	w.children = nil
	w.Parent = nil
	if w.Emitter != nil {
		w.Emitter.release()
		w.Emitter = nil
	}
	if w.tex != nil {
		w.tex.Deallocate()
		w.tex = nil
	}
	w.Img = nil
	w.actions = nil
}

// removeChildByPtr removes child from w.children without clearing
// child.Parent. Uses copy+nil to avoid retaining a dangling pointer in the
// backing array.
func (w *Widget) removeChildByPtr(child *Widget) {
	for i, c := range w.children {
		if c == child {
			copy(w.children[i:], w.children[i+1:])
			w.children[len(w.children)-1] = nil
			w.children = w.children[:len(w.children)-1]
			return
		}
	}
}
