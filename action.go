package rondo

import (
	"encoding/json"
	"strings"
)

// actionSet holds the action URIs bound to one widget, one slot per
// interaction event. Empty slots mean no binding.
type actionSet struct {
	onClick   string
	onPress   string
	onRelease string
	onChange  string
}

func (a *actionSet) uriFor(ev Event) string {
	switch ev {
	case EventClick:
		return a.onClick
	case EventPress:
		return a.onPress
	case EventRelease:
		return a.onRelease
	case EventChange:
		return a.onChange
	}
	return ""
}

// eventPayload is the uplink body of every dispatched interaction. Value is
// present only for sliders.
type eventPayload struct {
	ID    string `json:"id"`
	Value *int   `json:"value,omitempty"`
}

// FireEvent dispatches the interaction event on a widget through its bound
// action URI, if any. The scheme of the URI picks the route:
//
//	local://<topic>   published on the local bus only
//	server://<topic>  published uplink
//	anything else     legacy: uplink on ui/click, or ui/action for changes
//
// The publish happens with the runtime lock released, so local handlers may
// re-enter the runtime (a local action that triggers a re-render is fine).
func (rt *Runtime) FireEvent(w *Widget, ev Event) {
	if w == nil || w.IsDisposed() {
		return
	}

	rt.mu.Lock()
	rt.markActivityLocked()
	var uri string
	if w.actions != nil {
		uri = w.actions.uriFor(ev)
	}
	id := rt.reg.idOf(w)
	var value *int
	if w.Kind == KindSlider {
		v := w.Value
		value = &v
	}
	rt.mu.Unlock()

	if uri == "" {
		return
	}

	body, err := json.Marshal(eventPayload{ID: id, Value: value})
	if err != nil {
		rt.log.Error().Err(err).Msg("event payload encode")
		return
	}

	if topic, ok := strings.CutPrefix(uri, "local://"); ok {
		rt.log.Debug().Str("id", id).Str("topic", topic).Msg("local action")
		rt.bus.PublishLocal(topic, string(body))
		return
	}
	if topic, ok := strings.CutPrefix(uri, "server://"); ok {
		rt.log.Debug().Str("id", id).Str("topic", topic).Msg("server action")
		rt.bus.PublishUp(topic, string(body))
		return
	}

	topic := TopicClick
	if ev == EventChange {
		topic = TopicAction
	}
	rt.log.Debug().Str("id", id).Str("topic", topic).Msg("legacy action")
	rt.bus.PublishUp(topic, string(body))
}
