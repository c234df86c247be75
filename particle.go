package rondo

import (
	"math/rand/v2"
)

const (
	// MaxParticles caps the pool of one particle widget. Requested counts
	// are clamped, never rejected.
	MaxParticles = 30

	// particleStepMS is the simulation period (~30 Hz).
	particleStepMS = 33

	defaultRasterW = 128
	defaultRasterH = 128

	particleGravity   = 0.18 // downward acceleration per step
	particleFadeDecay = 6    // alpha lost per step
	spawnJitter       = 6.0  // max offset from raster center at respawn
)

// sprite holds per-particle simulation state.
type sprite struct {
	x, y   float64
	vx, vy float64
	fade   int // 255 at spawn, deactivated at 0
	active bool
}

// Emitter owns the particle pool and offscreen raster of one particle
// widget. The pool and raster live and die with the widget. All mutation
// happens under the runtime's tree lock, on the display tick.
type Emitter struct {
	pool   []sprite
	raster []byte // RGBA, w*h*4
	w, h   int
	color  Color
	accum  float64 // seconds since the last simulation step
}

// newEmitter preallocates the pool (clamped to MaxParticles) and the raster.
func newEmitter(count, w, h int, color Color) *Emitter {
	count = clampInt(count, 1, MaxParticles)
	if w <= 0 {
		w = defaultRasterW
	}
	if h <= 0 {
		h = defaultRasterH
	}
	return &Emitter{
		pool:   make([]sprite, count),
		raster: make([]byte, w*h*4),
		w:      w,
		h:      h,
		color:  color,
	}
}

// PoolSize returns the clamped pool capacity.
func (e *Emitter) PoolSize() int {
	return len(e.pool)
}

// Raster exposes the RGBA buffer for the draw pass. The returned slice MUST
// NOT be mutated by the caller.
func (e *Emitter) Raster() []byte {
	return e.raster
}

// RasterSize returns the raster dimensions in pixels.
func (e *Emitter) RasterSize() (w, h int) {
	return e.w, e.h
}

// ActiveCount returns the number of live particles.
func (e *Emitter) ActiveCount() int {
	n := 0
	for i := range e.pool {
		if e.pool[i].active {
			n++
		}
	}
	return n
}

// advance accumulates frame time and runs whole simulation steps. While busy
// reports true the audio path owns the memory bus; the step is skipped with
// no raster write and no state mutation of any kind.
func (e *Emitter) advance(dt float64, busy func() bool) {
	if busy != nil && busy() {
		return
	}
	e.accum += dt
	const period = float64(particleStepMS) / 1000
	for e.accum >= period {
		e.accum -= period
		e.step()
	}
}

// step runs one simulation tick: respawn inactive slots near the raster
// center, integrate velocity and gravity, decay fade, and redraw the raster.
func (e *Emitter) step() {
	cx := float64(e.w) / 2
	cy := float64(e.h) / 2

	for i := range e.pool {
		p := &e.pool[i]
		if !p.active {
			p.x = cx + (rand.Float64()*2-1)*spawnJitter
			p.y = cy + (rand.Float64()*2-1)*spawnJitter
			p.vx = (rand.Float64()*2 - 1) * 1.5
			p.vy = -0.5 - rand.Float64()*2.0
			p.fade = 255
			p.active = true
			continue
		}
		p.x += p.vx
		p.y += p.vy
		p.vy += particleGravity
		p.fade -= particleFadeDecay
		if p.fade <= 0 {
			p.fade = 0
			p.active = false
		}
	}

	e.redraw()
}

// redraw clears the raster and stamps each active particle as a filled dot.
func (e *Emitter) redraw() {
	clear(e.raster)
	for i := range e.pool {
		p := &e.pool[i]
		if !p.active {
			continue
		}
		e.stamp(int(p.x), int(p.y), uint8(p.fade))
	}
}

// stamp draws a 3x3 dot centered at (x, y), skipping out-of-bounds pixels.
func (e *Emitter) stamp(x, y int, alpha uint8) {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			px, py := x+dx, y+dy
			if px < 0 || px >= e.w || py < 0 || py >= e.h {
				continue
			}
			o := (py*e.w + px) * 4
			e.raster[o] = e.color.R
			e.raster[o+1] = e.color.G
			e.raster[o+2] = e.color.B
			e.raster[o+3] = alpha
		}
	}
}

// release drops the pool and raster. Called exactly once, from the owning
// widget's disposal.
func (e *Emitter) release() {
	e.pool = nil
	e.raster = nil
}
