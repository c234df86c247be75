package rondo

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Game adapts a Runtime to the ebiten game loop: it steps the runtime,
// translates pointer input into widget events, and drives the drawer.
type Game struct {
	rt     *Runtime
	drawer *Drawer

	pressed *Widget
	touchID ebiten.TouchID
	touches []ebiten.TouchID
}

// NewGame wraps a runtime for ebiten.RunGame.
func NewGame(rt *Runtime) *Game {
	return &Game{
		rt:      rt,
		drawer:  NewDrawer(rt),
		touchID: -1,
	}
}

func (g *Game) Update() error {
	dt := 1.0 / float64(ebiten.TPS())
	g.rt.Step(dt)

	px, py, down := g.pointer()

	if down && g.pressed == nil {
		g.rt.mu.Lock()
		hit := g.drawer.hitTest(px, py)
		g.rt.mu.Unlock()
		if hit != nil {
			g.pressed = hit
			g.rt.FireEvent(hit, EventPress)
		}
	}

	if down && g.pressed != nil && g.pressed.Kind == KindSlider {
		g.dragSlider(g.pressed, px)
	}

	if !down && g.pressed != nil {
		w := g.pressed
		g.pressed = nil
		g.rt.FireEvent(w, EventRelease)
		g.rt.mu.Lock()
		r, ok := g.drawer.rects[w]
		g.rt.mu.Unlock()
		stillOver := ok && r.contains(px, py)
		if w.Kind == KindSlider {
			g.rt.FireEvent(w, EventChange)
		} else if stillOver {
			g.rt.FireEvent(w, EventClick)
		}
	}
	return nil
}

// pointer reports the active pointer position and whether it is down,
// preferring touch over mouse.
func (g *Game) pointer() (int, int, bool) {
	if g.touchID >= 0 {
		if inpututil.IsTouchJustReleased(g.touchID) {
			x, y := inpututil.TouchPositionInPreviousTick(g.touchID)
			g.touchID = -1
			return x, y, false
		}
		x, y := ebiten.TouchPosition(g.touchID)
		return x, y, true
	}
	g.touches = inpututil.AppendJustPressedTouchIDs(g.touches[:0])
	if len(g.touches) > 0 {
		g.touchID = g.touches[0]
		x, y := ebiten.TouchPosition(g.touchID)
		return x, y, true
	}
	x, y := ebiten.CursorPosition()
	return x, y, ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
}

// dragSlider maps the pointer x onto the slider's range and fires nothing;
// the change event is emitted on release.
func (g *Game) dragSlider(w *Widget, px int) {
	g.rt.mu.Lock()
	defer g.rt.mu.Unlock()
	r, ok := g.drawer.rects[w]
	if !ok || r.w <= 0 {
		return
	}
	frac := float64(px-r.x) / float64(r.w)
	if frac < 0 {
		frac = 0
	} else if frac > 1 {
		frac = 1
	}
	w.Value = w.Min + int(frac*float64(w.Max-w.Min)+0.5)
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.Black)
	g.rt.mu.Lock()
	g.drawer.Draw(screen, 1.0/float64(ebiten.TPS()))
	g.rt.mu.Unlock()
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.rt.screenW, g.rt.screenH
}

// Run opens the window and blocks in the ebiten loop until the window
// closes or the game errors.
func Run(rt *Runtime, title string) error {
	ebiten.SetWindowSize(rt.screenW, rt.screenH)
	ebiten.SetWindowTitle(title)
	return ebiten.RunGame(NewGame(rt))
}
