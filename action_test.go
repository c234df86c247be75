package rondo

import "testing"

func TestFireEventServerRoute(t *testing.T) {
	rt, bus := newTestRuntime(t)
	tr := &captureTransport{}
	bus.AttachTransport(tr)

	rt.RenderLayout(`[{"type":"button","id":"ack","text":"OK","on_click":"server://telemetry/ack"}]`)
	w, _ := rt.FindByID("ack")

	rt.FireEvent(w, EventClick)

	frames := tr.sent()
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	want := `{"topic":"telemetry/ack","payload":{"id":"ack"}}`
	if frames[0] != want {
		t.Errorf("frame = %s, want %s", frames[0], want)
	}
}

func TestFireEventLocalRoute(t *testing.T) {
	rt, bus := newTestRuntime(t)
	tr := &captureTransport{}
	bus.AttachTransport(tr)

	got := ""
	_ = bus.Subscribe("audio/record-start", func(payload string) { got = payload })

	rt.RenderLayout(`[{"type":"button","id":"talk","text":"Talk","on_press":"local://audio/record-start"}]`)
	w, _ := rt.FindByID("talk")

	rt.FireEvent(w, EventPress)

	if got != `{"id":"talk"}` {
		t.Errorf("local handler payload = %q", got)
	}
	if len(tr.sent()) != 0 {
		t.Error("local action leaked to the transport")
	}
}

func TestFireEventLegacyRoutes(t *testing.T) {
	rt, bus := newTestRuntime(t)
	tr := &captureTransport{}
	bus.AttachTransport(tr)

	rt.RenderLayout(`[
		{"type":"button","id":"b","text":"B","on_click":"tap"},
		{"type":"slider","id":"s","min":0,"max":100,"value":40,"on_change":"adjust"}
	]`)

	b, _ := rt.FindByID("b")
	rt.FireEvent(b, EventClick)

	s, _ := rt.FindByID("s")
	rt.FireEvent(s, EventChange)

	frames := tr.sent()
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	if frames[0] != `{"topic":"ui/click","payload":{"id":"b"}}` {
		t.Errorf("click frame = %s", frames[0])
	}
	if frames[1] != `{"topic":"ui/action","payload":{"id":"s","value":40}}` {
		t.Errorf("change frame = %s", frames[1])
	}
}

func TestFireEventSliderCarriesCurrentValue(t *testing.T) {
	rt, bus := newTestRuntime(t)
	tr := &captureTransport{}
	bus.AttachTransport(tr)

	rt.RenderLayout(`[{"type":"slider","id":"dim","min":0,"max":100,"value":10,"on_change":"server://device/brightness"}]`)
	w, _ := rt.FindByID("dim")

	rt.ApplyPatch(`{"id":"dim","value":75}`)
	rt.FireEvent(w, EventChange)

	frames := tr.sent()
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	want := `{"topic":"device/brightness","payload":{"id":"dim","value":75}}`
	if frames[0] != want {
		t.Errorf("frame = %s, want %s", frames[0], want)
	}
}

func TestFireEventNoBindingNoPublish(t *testing.T) {
	rt, bus := newTestRuntime(t)
	tr := &captureTransport{}
	bus.AttachTransport(tr)

	rt.RenderLayout(`[{"type":"button","id":"b","text":"B","on_click":"server://x"}]`)
	w, _ := rt.FindByID("b")

	// Release has no binding on this widget.
	rt.FireEvent(w, EventRelease)

	if len(tr.sent()) != 0 {
		t.Error("unbound event published")
	}
}

func TestFireEventUnregisteredWidgetUsesUnknownID(t *testing.T) {
	rt, bus := newTestRuntime(t)
	tr := &captureTransport{}
	bus.AttachTransport(tr)

	rt.RenderLayout(`[{"type":"button","text":"anon","on_click":"tap"}]`)
	w := rt.Root().ChildAt(0)

	rt.FireEvent(w, EventClick)

	frames := tr.sent()
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	if frames[0] != `{"topic":"ui/click","payload":{"id":"unknown"}}` {
		t.Errorf("frame = %s", frames[0])
	}
}

func TestFireEventDisposedWidget(t *testing.T) {
	rt, bus := newTestRuntime(t)
	tr := &captureTransport{}
	bus.AttachTransport(tr)

	rt.RenderLayout(`[{"type":"button","id":"b","text":"B","on_click":"server://x"}]`)
	w, _ := rt.FindByID("b")
	rt.RenderLayout(`[{"type":"label","text":"replaced"}]`)

	rt.FireEvent(w, EventClick)
	if len(tr.sent()) != 0 {
		t.Error("disposed widget dispatched an event")
	}

	rt.FireEvent(nil, EventClick)
}
