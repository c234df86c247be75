package rondo

import (
	"bytes"
	"encoding/base64"
	"image"
	_ "image/jpeg"
	_ "image/png"
)

// rootFadeMS is the duration of the fade-in applied to every fresh layout.
const rootFadeMS = 200

// RenderLayout replaces the whole widget tree from a layout document.
// Subscribed on ui/layout; payload is the document JSON. A document that
// fails to decode leaves the current tree untouched.
func (rt *Runtime) RenderLayout(payload string) {
	doc, err := DecodeLayout([]byte(payload))
	if err != nil {
		rt.log.Error().Err(err).Msg("layout rejected")
		return
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	rt.markActivityLocked()

	// Full replacement: tear the old tree down before building the new one.
	for _, child := range rt.root.children {
		child.dispose()
	}
	rt.root.children = nil
	rt.anims = rt.anims[:0]
	rt.spinCount = 0
	rt.reg.clear()

	rt.applyRootDefaults(rt.root)
	if doc.RootStyle != nil {
		rt.applyCommon(doc.RootStyle, rt.root)
	}

	for i := range doc.Nodes {
		rt.buildNode(&doc.Nodes[i], rt.root)
	}

	rt.startFadeIn(rt.root, rootFadeMS)

	rt.log.Info().
		Int("widgets", countWidgets(rt.root)-1).
		Int("ids", rt.reg.Len()).
		Msg("layout rendered")
}

// buildNode creates a widget for one node spec, attaches it, and recurses
// into its children. Unknown widget types are skipped with their subtree.
func (rt *Runtime) buildNode(spec *NodeSpec, parent *Widget) {
	kind, ok := KindFromString(spec.Type)
	if !ok {
		rt.log.Warn().Str("type", spec.Type).Msg("unknown widget type, skipped")
		return
	}

	w := newWidget(kind)
	parent.AddChild(w)

	if spec.ID != "" {
		w.ID = spec.ID
		if !rt.reg.register(spec.ID, w) {
			rt.log.Warn().Str("id", spec.ID).Msg("id table full, widget not addressable")
		}
	}

	rt.applyCommon(spec, w)

	switch kind {
	case KindLabel:
		if spec.Text != nil {
			w.Text = *spec.Text
		}
		if spec.LongMode != "" {
			w.LongMode = ParseLongMode(spec.LongMode)
		}

	case KindButton:
		// A button carries its caption as an implicit first child label, so
		// text patches address the same slot the builder fills here.
		if spec.Text != nil {
			caption := newWidget(KindLabel)
			caption.Text = *spec.Text
			caption.TextColor = w.TextColor
			caption.FontSize = w.FontSize
			caption.Align = AlignCenter
			w.AddChild(caption)
		}

	case KindImage:
		if spec.Src != "" {
			w.Img = rt.decodeImage(spec.Src)
		}

	case KindBar, KindSlider:
		if spec.Min != nil {
			w.Min = *spec.Min
		}
		if spec.Max != nil {
			w.Max = *spec.Max
		}
		if spec.Value != nil {
			w.Value = clampInt(*spec.Value, w.Min, w.Max)
		}
		if spec.IndicCol != "" {
			w.IndicColor = rt.parseColor(spec.IndicCol)
		}

	case KindParticle:
		count := MaxParticles
		if spec.Count != nil {
			count = *spec.Count
		}
		color := ColorWhite
		if spec.Color != "" {
			color = rt.parseColor(spec.Color)
		}
		rw := w.W.Resolve(rt.screenW, defaultRasterW)
		rh := w.H.Resolve(rt.screenH, defaultRasterH)
		w.Emitter = newEmitter(count, rw, rh, color)
	}

	if spec.HasActions() {
		w.actions = &actionSet{
			onClick:   spec.OnClick,
			onPress:   spec.OnPress,
			onRelease: spec.OnRelease,
			onChange:  spec.OnChange,
		}
	}

	if spec.Anim != nil {
		rt.startAnim(w, spec.Anim)
	}

	for i := range spec.Children {
		rt.buildNode(&spec.Children[i], w)
	}
}

// applyCommon copies the shared style fields of a node spec onto a widget.
// Absent fields keep the widget's kind defaults.
func (rt *Runtime) applyCommon(spec *NodeSpec, w *Widget) {
	if spec.W != nil {
		w.W = *spec.W
	}
	if spec.H != nil {
		w.H = *spec.H
	}
	if spec.Align != "" {
		w.Align = ParseAlign(spec.Align)
	}
	if spec.X != 0 {
		w.XOfs = spec.X
	}
	if spec.Y != 0 {
		w.YOfs = spec.Y
	}
	if spec.BgColor != "" {
		w.BgColor = rt.parseColor(spec.BgColor)
		w.BgOpa = 255
	}
	if spec.BgOpa != nil {
		w.BgOpa = uint8(clampInt(*spec.BgOpa, 0, 255))
	}
	if spec.Pad != nil {
		w.Pad = *spec.Pad
	}
	if spec.Radius != nil {
		w.Radius = *spec.Radius
	}
	if spec.Gap != nil {
		w.Gap = *spec.Gap
	}
	if spec.BorderW != nil {
		w.BorderW = *spec.BorderW
	}
	if spec.BorderColor != "" {
		w.BorderColor = rt.parseColor(spec.BorderColor)
	}
	if spec.TextColor != "" {
		w.TextColor = rt.parseColor(spec.TextColor)
	}
	if spec.FontSize != nil {
		w.FontSize = *spec.FontSize
	}
	if spec.Hidden {
		w.Hidden = true
	}
	if spec.Flex != "" {
		w.FlexEnabled = true
		w.Flow = ParseFlexFlow(spec.Flex)
	}
	if spec.Justify != "" {
		w.FlexEnabled = true
		w.Justify = ParseFlexAlign(spec.Justify)
	}
	if spec.AlignItems != "" {
		w.FlexEnabled = true
		w.AlignItems = ParseFlexAlign(spec.AlignItems)
	}
}

// parseColor parses a #RRGGBB string, logging and falling back to white on
// malformed input.
func (rt *Runtime) parseColor(s string) Color {
	c, ok := ParseColor(s)
	if !ok {
		rt.log.Debug().Str("color", s).Msg("bad color, using white")
	}
	return c
}

// decodeImage decodes a base64 PNG or JPEG payload. Failures produce a nil
// image: the widget keeps its box but draws nothing.
func (rt *Runtime) decodeImage(src string) image.Image {
	raw, err := base64.StdEncoding.DecodeString(src)
	if err != nil {
		rt.log.Warn().Err(err).Msg("image src is not valid base64")
		return nil
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		rt.log.Warn().Err(err).Msg("image src did not decode")
		return nil
	}
	return img
}

func countWidgets(w *Widget) int {
	n := 1
	for _, child := range w.children {
		n += countWidgets(child)
	}
	return n
}
