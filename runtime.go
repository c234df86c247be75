package rondo

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Core bus topics.
const (
	TopicLayout = "ui/layout" // downlink: full render document
	TopicUpdate = "ui/update" // downlink: incremental patch
	TopicClick  = "ui/click"  // uplink: legacy generic interaction
	TopicAction = "ui/action" // uplink: legacy slider value change
)

// Config sizes the runtime for the target display.
type Config struct {
	ScreenW     int
	ScreenH     int
	SafePadding int           // inset of the root, keeps content off the round bezel
	IdleTimeout time.Duration // dim the display after this much inactivity; 0 disables
	Logger      zerolog.Logger
}

// Runtime is the one live UI runtime of the device. It owns the widget tree,
// the id registry, the animation scheduler, and the single coarse lock that
// serializes every structural operation on the tree: full renders and
// incremental updates arriving on the transport goroutine, and the animation
// and particle ticks arriving on the display goroutine. Render passes are
// short and infrequent relative to display refresh, so one whole-tree mutex
// is the correctness/simplicity trade this device wants.
type Runtime struct {
	mu   sync.Mutex
	bus  *Bus
	reg  *Registry
	root *Widget

	anims     []*animation
	spinCount int
	gate      func() bool // particle backpressure, true while audio capture runs

	screenW, screenH int
	safePad          int

	idleTimeout  time.Duration
	lastActivity time.Time
	dimmed       bool
	brightness   func(percent int)

	log zerolog.Logger
}

// NewRuntime builds the runtime, creates the root widget, and subscribes the
// core downlink topics on the bus.
func NewRuntime(bus *Bus, cfg Config) *Runtime {
	if cfg.ScreenW <= 0 {
		cfg.ScreenW = 466
	}
	if cfg.ScreenH <= 0 {
		cfg.ScreenH = 466
	}
	rt := &Runtime{
		bus:          bus,
		reg:          newRegistry(),
		screenW:      cfg.ScreenW,
		screenH:      cfg.ScreenH,
		safePad:      cfg.SafePadding,
		idleTimeout:  cfg.IdleTimeout,
		lastActivity: time.Now(),
		log:          cfg.Logger.With().Str("component", "runtime").Logger(),
	}
	rt.root = rt.newRoot()

	if err := bus.Subscribe(TopicLayout, rt.RenderLayout); err != nil {
		rt.log.Error().Err(err).Msg("subscribe ui/layout")
	}
	if err := bus.Subscribe(TopicUpdate, rt.ApplyPatch); err != nil {
		rt.log.Error().Err(err).Msg("subscribe ui/update")
	}
	return rt
}

// newRoot creates the root container: inset by the safe padding, centered,
// flex column with centered children.
func (rt *Runtime) newRoot() *Widget {
	root := newWidget(KindContainer)
	rt.applyRootDefaults(root)
	return root
}

func (rt *Runtime) applyRootDefaults(root *Widget) {
	root.W = Px(rt.screenW - 2*rt.safePad)
	root.H = Px(rt.screenH - 2*rt.safePad)
	root.Align = AlignCenter
	root.BgOpa = 0
	root.Opa = 255
	root.FlexEnabled = true
	root.Flow = FlexColumn
	root.Justify = FlexCenter
	root.AlignItems = FlexCenter
}

// Root returns the root container widget.
func (rt *Runtime) Root() *Widget {
	return rt.root
}

// Bus returns the runtime's message bus.
func (rt *Runtime) Bus() *Bus {
	return rt.bus
}

// FindByID looks an id up in the current registry.
func (rt *Runtime) FindByID(id string) (*Widget, bool) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.reg.Find(id)
}

// RegisteredIDs returns the number of ids in the current registry.
func (rt *Runtime) RegisteredIDs() int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.reg.Len()
}

// Remove disposes the widget with the given id together with its subtree,
// releasing its animations, registry entries, and spin slots.
func (rt *Runtime) Remove(id string) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	w, ok := rt.reg.Find(id)
	if !ok {
		return false
	}
	w.RemoveFromParent()
	w.dispose()
	rt.pruneAnims()
	return true
}

// SetParticleGate installs the backpressure probe consulted before each
// particle step. The audio capture path is the designated higher-priority
// subsystem; while it reports busy, particle steps are skipped entirely.
func (rt *Runtime) SetParticleGate(busy func() bool) {
	rt.mu.Lock()
	rt.gate = busy
	rt.mu.Unlock()
}

// SetBrightnessFunc installs the display brightness callback used by the
// idle dimmer. percent is 0 (dimmed) or 100 (awake).
func (rt *Runtime) SetBrightnessFunc(f func(percent int)) {
	rt.mu.Lock()
	rt.brightness = f
	rt.mu.Unlock()
}

// Step advances the runtime by dt seconds: animations, particle simulation,
// and the idle-dim check. Called from the display tick; safe to run
// concurrently with transport callbacks.
func (rt *Runtime) Step(dt float64) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	rt.stepAnims(dt)
	rt.stepEmitters(rt.root, dt)
	rt.checkIdle()
}

func (rt *Runtime) stepEmitters(w *Widget, dt float64) {
	if w.Hidden {
		return
	}
	if w.Emitter != nil {
		w.Emitter.advance(dt, rt.gate)
	}
	for _, child := range w.children {
		rt.stepEmitters(child, dt)
	}
}

// checkIdle dims the display after the configured inactivity window and
// restores it when activity resumes. Caller holds the lock.
func (rt *Runtime) checkIdle() {
	if rt.idleTimeout <= 0 || rt.brightness == nil {
		return
	}
	idle := time.Since(rt.lastActivity) > rt.idleTimeout
	if idle && !rt.dimmed {
		rt.log.Info().Msg("display idle, dimming")
		rt.brightness(0)
		rt.dimmed = true
	}
}

// markActivityLocked records activity and wakes a dimmed display. Caller
// holds the lock.
func (rt *Runtime) markActivityLocked() {
	rt.lastActivity = time.Now()
	if rt.dimmed {
		if rt.brightness != nil {
			rt.log.Info().Msg("activity, waking display")
			rt.brightness(100)
		}
		rt.dimmed = false
	}
}
