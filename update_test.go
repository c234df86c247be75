package rondo

import "testing"

func TestApplyPatchText(t *testing.T) {
	rt, _ := newTestRuntime(t)
	rt.RenderLayout(`[{"type":"label","id":"clock","text":"--:--"}]`)

	rt.ApplyPatch(`{"id":"clock","text":"12:34"}`)

	w, _ := rt.FindByID("clock")
	if w == nil || w.Text != "12:34" {
		t.Errorf("label text not patched: %+v", w)
	}
}

func TestApplyPatchButtonTextGoesToCaption(t *testing.T) {
	rt, _ := newTestRuntime(t)
	rt.RenderLayout(`[{"type":"button","id":"talk","text":"Talk"}]`)

	rt.ApplyPatch(`{"id":"talk","text":"Listening"}`)

	w, _ := rt.FindByID("talk")
	if w == nil || w.NumChildren() == 0 {
		t.Fatal("button lost its caption")
	}
	if w.ChildAt(0).Text != "Listening" {
		t.Errorf("caption = %q, want Listening", w.ChildAt(0).Text)
	}
	if w.Text != "" {
		t.Error("text patch landed on the button itself")
	}
}

func TestApplyPatchHiddenAndColor(t *testing.T) {
	rt, _ := newTestRuntime(t)
	rt.RenderLayout(`[{"type":"label","id":"x","text":"v"}]`)

	rt.ApplyPatch(`{"id":"x","hidden":true,"bg_color":"#102030"}`)

	w, _ := rt.FindByID("x")
	if !w.Hidden {
		t.Error("hidden not applied")
	}
	if w.BgColor != (Color{0x10, 0x20, 0x30}) || w.BgOpa != 255 {
		t.Errorf("bg_color not applied: %+v opa %d", w.BgColor, w.BgOpa)
	}
}

func TestApplyPatchValue(t *testing.T) {
	rt, _ := newTestRuntime(t)
	rt.RenderLayout(`[
		{"type":"bar","id":"b","min":0,"max":100,"value":10},
		{"type":"label","id":"l","text":"not a range"}
	]`)

	rt.ApplyPatch(`{"id":"b","value":140}`)
	b, _ := rt.FindByID("b")
	if b.Value != 100 {
		t.Errorf("bar value = %d, want clamped 100", b.Value)
	}

	rt.ApplyPatch(`{"id":"b","value":-5}`)
	if b.Value != 0 {
		t.Errorf("bar value = %d, want clamped 0", b.Value)
	}

	// A value patch on a non-range widget is ignored.
	rt.ApplyPatch(`{"id":"l","value":50}`)
	l, _ := rt.FindByID("l")
	if l.Value != 0 {
		t.Error("value patch mutated a label")
	}
}

func TestApplyPatchOpacity(t *testing.T) {
	rt, _ := newTestRuntime(t)
	rt.RenderLayout(`[{"type":"label","id":"x","text":"v"}]`)

	rt.ApplyPatch(`{"id":"x","opa":300}`)
	w, _ := rt.FindByID("x")
	if w.Opa != 255 {
		t.Errorf("opa = %d, want clamped 255", w.Opa)
	}

	rt.ApplyPatch(`{"id":"x","opa":0}`)
	if w.Opa != 0 {
		t.Errorf("opa = %d, want 0", w.Opa)
	}
}

func TestApplyPatchUnknownID(t *testing.T) {
	rt, _ := newTestRuntime(t)
	rt.RenderLayout(`[{"type":"label","id":"x","text":"v"}]`)

	// Must not panic or mutate anything.
	rt.ApplyPatch(`{"id":"ghost","text":"boo"}`)
	rt.ApplyPatch(`{"text":"no id"}`)
	rt.ApplyPatch("garbage")

	w, _ := rt.FindByID("x")
	if w.Text != "v" {
		t.Error("unrelated widget mutated")
	}
}

func TestApplyPatchStartsAnimation(t *testing.T) {
	rt, _ := newTestRuntime(t)
	rt.RenderLayout(`[{"type":"label","id":"x","text":"v"}]`)
	rt.Step(0.3) // let the render fade finish

	rt.ApplyPatch(`{"id":"x","anim":{"type":"blink","duration":1000}}`)
	w, _ := rt.FindByID("x")

	rt.Step(0.25) // quarter way through: mid first leg, opacity well below max
	if w.Opa == 255 {
		t.Error("blink did not move the widget's opacity")
	}
}
