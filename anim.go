package rondo

import (
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// maxSpinAnims caps concurrent spin animations device-wide. Rotation redraws
// are the most expensive thing the display does; the cap keeps frame pacing
// stable. Requests beyond the cap are rejected with a log, never an error.
const maxSpinAnims = 2

// defaultAnimMS is used when a spec omits duration.
const defaultAnimMS = 1000

type animKind uint8

const (
	animBlink animKind = iota
	animBreathe
	animSpin
	animSlideIn
	animShake
	animColorPulse
	animFade // internal: root fade-in after a full render
)

// leg is one straight tween segment of an animation's driver value.
type leg struct {
	from, to float32
	dur      float32 // seconds
	fn       ease.TweenFunc
}

// animation is one running instance. The driver value produced by the current
// tween is applied to the target according to kind. Auxiliary state (the
// color_pulse endpoints, the slide axis) lives here and dies with the
// instance; the runtime drops instances whose target has been disposed.
type animation struct {
	kind   animKind
	target *Widget

	legs   []leg
	legIx  int
	tween  *gween.Tween
	cycles int // full leg-sequence repetitions remaining; -1 means forever

	vertical       bool // slide_in top/bottom
	colorA, colorB Color
}

func newAnimation(kind animKind, target *Widget, cycles int, legs ...leg) *animation {
	a := &animation{kind: kind, target: target, legs: legs, cycles: cycles}
	a.tween = gween.New(legs[0].from, legs[0].to, legs[0].dur, legs[0].fn)
	return a
}

// step advances the driver by dt seconds and applies it. Returns true when
// the animation has terminated. Leg boundaries swallow the tick remainder;
// at 30+ ticks per second the error is below perception.
func (a *animation) step(dt float64) bool {
	v, finished := a.tween.Update(float32(dt))
	a.apply(v)
	if !finished {
		return false
	}
	a.legIx++
	if a.legIx >= len(a.legs) {
		if a.cycles > 0 {
			a.cycles--
		}
		if a.cycles == 0 {
			return true
		}
		a.legIx = 0
	}
	next := a.legs[a.legIx]
	a.tween = gween.New(next.from, next.to, next.dur, next.fn)
	return false
}

func (a *animation) apply(v float32) {
	w := a.target
	switch a.kind {
	case animBlink, animBreathe, animFade:
		w.Opa = uint8(clampInt(int(v), 0, 255))
	case animSpin:
		w.Rotation = float64(v)
	case animSlideIn:
		if a.vertical {
			w.OffsetY = float64(v)
		} else {
			w.OffsetX = float64(v)
		}
	case animShake:
		w.OffsetX = float64(v)
	case animColorPulse:
		w.BgColor = a.colorA.Blend(a.colorB, uint8(clampInt(int(v), 0, 255)))
	}
}

// resolveCycles maps the document repeat field onto a cycle count. Absent or
// negative means infinite. Zero is infinite for types whose default is
// indefinite oscillation and "run once" for one-shot types; the server
// protocol depends on this duality, so it is preserved per type rather than
// unified.
func resolveCycles(repeat *int, oneShot bool) int {
	if repeat == nil || *repeat < 0 {
		return -1
	}
	if *repeat == 0 {
		if oneShot {
			return 1
		}
		return -1
	}
	return *repeat
}

// startAnim validates a spec against the target and registers a running
// instance. Unknown types and type/kind mismatches log and no-op: a bad
// animation never takes down a render pass. Caller holds the tree lock.
func (rt *Runtime) startAnim(w *Widget, spec *AnimSpec) {
	if w == nil || spec == nil {
		return
	}
	durMS := spec.Duration
	if durMS <= 0 {
		durMS = defaultAnimMS
	}
	d := float32(durMS) / 1000

	switch spec.Type {
	case "blink":
		cycles := resolveCycles(spec.Repeat, false)
		a := newAnimation(animBlink, w, cycles,
			leg{255, 0, d / 2, ease.InOutQuad},
			leg{0, 255, d / 2, ease.InOutQuad},
		)
		rt.anims = append(rt.anims, a)

	case "breathe":
		lo, hi := 80, 255
		if spec.Min != nil {
			lo = clampInt(*spec.Min, 0, 255)
		}
		if spec.Max != nil {
			hi = clampInt(*spec.Max, 0, 255)
		}
		cycles := resolveCycles(spec.Repeat, false)
		a := newAnimation(animBreathe, w, cycles,
			leg{float32(hi), float32(lo), d / 2, ease.InOutQuad},
			leg{float32(lo), float32(hi), d / 2, ease.InOutQuad},
		)
		rt.anims = append(rt.anims, a)

	case "spin":
		if w.Kind != KindImage {
			rt.log.Warn().Str("kind", w.Kind.String()).Msg("spin requires an image widget")
			return
		}
		if rt.spinCount >= maxSpinAnims {
			rt.log.Warn().Int("cap", maxSpinAnims).Msg("spin rejected: concurrency cap reached")
			return
		}
		rt.spinCount++
		full := float32(2 * math.Pi)
		if spec.Dir == "ccw" {
			full = -full
		}
		cycles := resolveCycles(spec.Repeat, false)
		a := newAnimation(animSpin, w, cycles, leg{0, full, d, ease.Linear})
		rt.anims = append(rt.anims, a)

	case "slide_in":
		var start float32
		vertical := false
		switch spec.Dir {
		case "right":
			start = float32(rt.screenW)
		case "top":
			start = float32(-rt.screenH)
			vertical = true
		case "bottom":
			start = float32(rt.screenH)
			vertical = true
		default: // left
			start = float32(-rt.screenW)
		}
		a := newAnimation(animSlideIn, w, 1, leg{start, 0, d, ease.OutCubic})
		a.vertical = vertical
		rt.anims = append(rt.anims, a)

	case "shake":
		amp := float32(8)
		if spec.Amp != nil {
			amp = float32(*spec.Amp)
		}
		// The extreme-to-extreme swing is a half-cycle and takes a quarter
		// of the configured duration. Repeat count is fixed at 2.
		a := newAnimation(animShake, w, 2,
			leg{0, amp, d / 8, ease.InOutQuad},
			leg{amp, -amp, d / 4, ease.InOutQuad},
			leg{-amp, 0, d / 8, ease.InOutQuad},
		)
		rt.anims = append(rt.anims, a)

	case "color_pulse":
		from := w.BgColor
		if c, ok := ParseColor(spec.ColorA); ok {
			from = c
		}
		to := ColorWhite
		if c, ok := ParseColor(spec.ColorB); ok {
			to = c
		}
		cycles := resolveCycles(spec.Repeat, false)
		a := newAnimation(animColorPulse, w, cycles,
			leg{0, 255, d / 2, ease.InOutQuad},
			leg{255, 0, d / 2, ease.InOutQuad},
		)
		a.colorA = from
		a.colorB = to
		rt.anims = append(rt.anims, a)

	case "marquee":
		if w.Kind != KindLabel {
			rt.log.Warn().Str("kind", w.Kind.String()).Msg("marquee requires a label widget")
			return
		}
		// A mode switch, not a timed animation.
		w.LongMode = LongScroll

	default:
		rt.log.Warn().Str("type", spec.Type).Msg("unknown animation type")
	}
}

// startFadeIn runs the cosmetic post-render fade on the root.
func (rt *Runtime) startFadeIn(w *Widget, durMS int) {
	w.Opa = 0
	d := float32(durMS) / 1000
	rt.anims = append(rt.anims, newAnimation(animFade, w, 1, leg{0, 255, d, ease.Linear}))
}

// stepAnims advances every instance and drops terminated ones. Caller holds
// the tree lock.
func (rt *Runtime) stepAnims(dt float64) {
	kept := rt.anims[:0]
	for _, a := range rt.anims {
		if a.target.IsDisposed() || a.step(dt) {
			if a.kind == animSpin {
				rt.spinCount--
			}
			continue
		}
		kept = append(kept, a)
	}
	for i := len(kept); i < len(rt.anims); i++ {
		rt.anims[i] = nil
	}
	rt.anims = kept
}

// pruneAnims drops instances whose target has been disposed, releasing their
// spin slots immediately. Called from teardown paths so a follow-up spin
// request in the same pass is admitted.
func (rt *Runtime) pruneAnims() {
	kept := rt.anims[:0]
	for _, a := range rt.anims {
		if a.target.IsDisposed() {
			if a.kind == animSpin {
				rt.spinCount--
			}
			continue
		}
		kept = append(kept, a)
	}
	for i := len(kept); i < len(rt.anims); i++ {
		rt.anims[i] = nil
	}
	rt.anims = kept
}

// ActiveSpins reports the number of running spin animations.
func (rt *Runtime) ActiveSpins() int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.spinCount
}
