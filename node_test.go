package rondo

import "testing"

func TestAddChildOrderAndReparent(t *testing.T) {
	parent := newWidget(KindContainer)
	a := newWidget(KindLabel)
	b := newWidget(KindLabel)
	parent.AddChild(a)
	parent.AddChild(b)

	if parent.NumChildren() != 2 || parent.ChildAt(0) != a || parent.ChildAt(1) != b {
		t.Fatal("children not in document order")
	}

	other := newWidget(KindContainer)
	other.AddChild(a)
	if parent.NumChildren() != 1 || parent.ChildAt(0) != b {
		t.Error("reparent did not detach from the old parent")
	}
	if a.Parent != other {
		t.Error("reparent did not attach to the new parent")
	}
}

func TestAddChildPanics(t *testing.T) {
	assertPanics := func(name string, fn func()) {
		t.Helper()
		defer func() {
			if recover() == nil {
				t.Errorf("%s did not panic", name)
			}
		}()
		fn()
	}

	w := newWidget(KindContainer)
	assertPanics("nil child", func() { w.AddChild(nil) })

	child := newWidget(KindContainer)
	w.AddChild(child)
	assertPanics("cycle", func() { child.AddChild(w) })
	assertPanics("self", func() { w.AddChild(w) })
}

func TestDisposeReleasesSubtree(t *testing.T) {
	top := newWidget(KindContainer)
	mid := newWidget(KindContainer)
	leaf := newWidget(KindParticle)
	leaf.Emitter = newEmitter(10, 32, 32, ColorWhite)
	top.AddChild(mid)
	mid.AddChild(leaf)

	em := leaf.Emitter
	top.dispose()

	for _, w := range []*Widget{top, mid, leaf} {
		if !w.IsDisposed() {
			t.Fatal("widget not marked disposed")
		}
	}
	if leaf.Emitter != nil {
		t.Error("emitter not released")
	}
	if em.Raster() != nil || em.pool != nil {
		t.Error("emitter buffers not dropped")
	}
	if top.NumChildren() != 0 {
		t.Error("children retained after dispose")
	}

	// Double dispose is a safe no-op.
	top.dispose()
}

func TestRemoveFromParent(t *testing.T) {
	parent := newWidget(KindContainer)
	child := newWidget(KindLabel)
	parent.AddChild(child)

	child.RemoveFromParent()
	if parent.NumChildren() != 0 || child.Parent != nil {
		t.Error("child still attached")
	}
	// Detached twice is fine.
	child.RemoveFromParent()
}

func TestNewWidgetDefaults(t *testing.T) {
	c := newWidget(KindContainer)
	if c.BgOpa != 0 {
		t.Error("container should default transparent")
	}
	if c.Opa != 255 {
		t.Error("widget opacity should default opaque")
	}

	b := newWidget(KindBar)
	if b.Max != 100 || b.Min != 0 {
		t.Errorf("bar range = [%d,%d], want [0,100]", b.Min, b.Max)
	}

	l := newWidget(KindLabel)
	if l.FontSize != 14 || l.TextColor != ColorWhite {
		t.Error("label text defaults wrong")
	}
}
