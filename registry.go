package rondo

// maxIDEntries bounds the id table per render pass. Exceeding it degrades
// gracefully: the widget is built but unaddressable by id.
const maxIDEntries = 32

// Registry maps logical widget ids to live handles for one render pass. It is
// rebuilt from empty on every full render and never preserved across passes.
type Registry struct {
	entries map[string]*Widget
}

func newRegistry() *Registry {
	return &Registry{entries: make(map[string]*Widget)}
}

// register adds or replaces an id binding. Duplicate ids within one pass are
// last-registration-wins. Returns false when the table is full.
func (r *Registry) register(id string, w *Widget) bool {
	if _, exists := r.entries[id]; !exists && len(r.entries) >= maxIDEntries {
		return false
	}
	r.entries[id] = w
	return true
}

// Find returns the live widget for id. Ids bound to destroyed widgets report
// not-found rather than handing out a stale handle.
func (r *Registry) Find(id string) (*Widget, bool) {
	w, ok := r.entries[id]
	if !ok || w.IsDisposed() {
		return nil, false
	}
	return w, true
}

// idOf reverse-looks-up the id registered for w, or "unknown" when the widget
// was never registered. Interaction dispatch never fails on a missing id.
func (r *Registry) idOf(w *Widget) string {
	for id, cand := range r.entries {
		if cand == w {
			return id
		}
	}
	return "unknown"
}

// clear drops every binding. Called at the start of each full render.
func (r *Registry) clear() {
	clear(r.entries)
}

// Len returns the number of registered ids.
func (r *Registry) Len() int {
	return len(r.entries)
}
