package rondo

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestStepDrivesEmitters(t *testing.T) {
	rt, _ := newTestRuntime(t)
	rt.RenderLayout(`[{"type":"particle","id":"p","w":64,"h":64,"count":10}]`)

	p, _ := rt.FindByID("p")
	rt.Step(0.05)
	if p.Emitter.ActiveCount() == 0 {
		t.Error("runtime step did not advance the emitter")
	}
}

func TestStepSkipsHiddenEmitters(t *testing.T) {
	rt, _ := newTestRuntime(t)
	rt.RenderLayout(`[{"type":"particle","id":"p","w":64,"h":64,"count":10,"hidden":true}]`)

	p, _ := rt.FindByID("p")
	rt.Step(0.1)
	if p.Emitter.ActiveCount() != 0 {
		t.Error("hidden emitter was simulated")
	}
}

func TestParticleGateBlocksSimulation(t *testing.T) {
	rt, _ := newTestRuntime(t)
	rt.RenderLayout(`[{"type":"particle","id":"p","w":64,"h":64,"count":10}]`)
	rt.SetParticleGate(func() bool { return true })

	p, _ := rt.FindByID("p")
	rt.Step(1.0)
	if p.Emitter.ActiveCount() != 0 {
		t.Error("gated emitter was simulated")
	}
}

func TestRemove(t *testing.T) {
	rt, _ := newTestRuntime(t)
	rt.RenderLayout(`[
		{"type":"label","id":"keep","text":"a"},
		{"type":"container","id":"box","children":[{"type":"label","id":"inner","text":"b"}]}
	]`)

	if !rt.Remove("box") {
		t.Fatal("Remove returned false for a live id")
	}
	if _, ok := rt.FindByID("inner"); ok {
		t.Error("removed subtree still addressable")
	}
	if _, ok := rt.FindByID("keep"); !ok {
		t.Error("unrelated widget removed")
	}
	if rt.Root().NumChildren() != 1 {
		t.Errorf("root has %d children, want 1", rt.Root().NumChildren())
	}
	if rt.Remove("box") {
		t.Error("Remove succeeded twice for the same id")
	}
}

func TestIdleDimAndWake(t *testing.T) {
	bus := NewBus(zerolog.Nop())
	rt := NewRuntime(bus, Config{
		ScreenW:     466,
		ScreenH:     466,
		IdleTimeout: 10 * time.Millisecond,
		Logger:      zerolog.Nop(),
	})

	var levels []int
	rt.SetBrightnessFunc(func(p int) { levels = append(levels, p) })

	rt.RenderLayout(`[{"type":"label","id":"x","text":"v"}]`)
	time.Sleep(20 * time.Millisecond)
	rt.Step(0.016)

	if len(levels) != 1 || levels[0] != 0 {
		t.Fatalf("expected a dim call, got %v", levels)
	}

	// Any downlink activity wakes the display.
	rt.ApplyPatch(`{"id":"x","text":"w"}`)
	if len(levels) != 2 || levels[1] != 100 {
		t.Fatalf("expected a wake call, got %v", levels)
	}

	// Still awake: no second dim before the timeout elapses again.
	rt.Step(0.016)
	if len(levels) != 2 {
		t.Errorf("unexpected brightness calls: %v", levels)
	}
}

func TestRuntimeSubscribesCoreTopics(t *testing.T) {
	rt, bus := newTestRuntime(t)

	bus.RouteDown(`{"topic":"ui/layout","payload":[{"type":"label","id":"via-bus","text":"hi"}]}`)
	if _, ok := rt.FindByID("via-bus"); !ok {
		t.Fatal("layout frame on the bus did not render")
	}

	bus.RouteDown(`{"topic":"ui/update","payload":{"id":"via-bus","text":"patched"}}`)
	w, _ := rt.FindByID("via-bus")
	if w.Text != "patched" {
		t.Error("update frame on the bus did not apply")
	}
}
