package rondo

import (
	"fmt"
	"testing"
)

func TestRegistryRegisterAndFind(t *testing.T) {
	reg := newRegistry()
	w := newWidget(KindLabel)
	if !reg.register("clock", w) {
		t.Fatal("register rejected")
	}
	got, ok := reg.Find("clock")
	if !ok || got != w {
		t.Error("Find did not return the registered widget")
	}
	if _, ok := reg.Find("missing"); ok {
		t.Error("Find returned a widget for an unknown id")
	}
}

func TestRegistryDuplicateLastWins(t *testing.T) {
	reg := newRegistry()
	first := newWidget(KindLabel)
	second := newWidget(KindLabel)
	reg.register("x", first)
	reg.register("x", second)
	if got, _ := reg.Find("x"); got != second {
		t.Error("duplicate id should resolve to the last registration")
	}
	if reg.Len() != 1 {
		t.Errorf("Len = %d, want 1", reg.Len())
	}
}

func TestRegistryCapacity(t *testing.T) {
	reg := newRegistry()
	for i := 0; i < maxIDEntries; i++ {
		if !reg.register(fmt.Sprintf("id%d", i), newWidget(KindLabel)) {
			t.Fatalf("register %d rejected below capacity", i)
		}
	}
	if reg.register("overflow", newWidget(KindLabel)) {
		t.Error("register beyond capacity should fail")
	}
	// Replacing an existing entry still works at capacity.
	if !reg.register("id0", newWidget(KindLabel)) {
		t.Error("replacement at capacity rejected")
	}
}

func TestRegistryDisposedWidgetNotFound(t *testing.T) {
	reg := newRegistry()
	w := newWidget(KindLabel)
	reg.register("stale", w)
	w.dispose()
	if _, ok := reg.Find("stale"); ok {
		t.Error("Find handed out a disposed widget")
	}
}

func TestRegistryIDOf(t *testing.T) {
	reg := newRegistry()
	w := newWidget(KindButton)
	reg.register("talk", w)
	if got := reg.idOf(w); got != "talk" {
		t.Errorf("idOf = %q, want talk", got)
	}
	if got := reg.idOf(newWidget(KindButton)); got != "unknown" {
		t.Errorf("idOf unregistered = %q, want unknown", got)
	}
}
