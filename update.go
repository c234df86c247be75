package rondo

// ApplyPatch applies an incremental update to one widget of the live tree.
// Subscribed on ui/update; payload is the patch JSON. A patch addressing an
// unknown or stale id is a logged no-op.
func (rt *Runtime) ApplyPatch(payload string) {
	patch, err := DecodePatch([]byte(payload))
	if err != nil {
		rt.log.Error().Err(err).Msg("patch rejected")
		return
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	rt.markActivityLocked()

	w, ok := rt.reg.Find(patch.ID)
	if !ok {
		rt.log.Warn().Str("id", patch.ID).Msg("patch target not found")
		return
	}

	if patch.Text != nil {
		// Composite widgets carry their caption in the first child.
		target := w
		if w.NumChildren() > 0 {
			target = w.ChildAt(0)
		}
		target.Text = *patch.Text
	}
	if patch.Hidden != nil {
		w.Hidden = *patch.Hidden
	}
	if patch.BgColor != "" {
		w.BgColor = rt.parseColor(patch.BgColor)
		w.BgOpa = 255
	}
	if patch.Value != nil {
		if w.Kind == KindBar || w.Kind == KindSlider {
			w.Value = clampInt(*patch.Value, w.Min, w.Max)
		} else {
			rt.log.Debug().Str("id", patch.ID).Str("kind", w.Kind.String()).Msg("value patch on non-range widget ignored")
		}
	}
	if patch.IndicCol != "" {
		if w.Kind == KindBar || w.Kind == KindSlider {
			w.IndicColor = rt.parseColor(patch.IndicCol)
		}
	}
	if patch.Opa != nil {
		w.Opa = uint8(clampInt(*patch.Opa, 0, 255))
	}
	if patch.Anim != nil {
		rt.startAnim(w, patch.Anim)
	}

	rt.log.Debug().Str("id", patch.ID).Msg("patch applied")
}
