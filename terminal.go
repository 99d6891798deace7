package main

import (
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

// keyHoldTicks is how long a steering key counts as held after its last
// press. Terminals send no key-up, so auto-repeat keeps it alive.
const keyHoldTicks = 12

var (
	styleHUD      = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	styleDim      = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleCraft    = tcell.StyleDefault.Foreground(tcell.ColorAqua).Bold(true)
	styleShield   = tcell.StyleDefault.Foreground(tcell.ColorBlue)
	styleAsteroid = tcell.StyleDefault.Foreground(tcell.ColorOlive)
	styleSaucer   = tcell.StyleDefault.Foreground(tcell.ColorFuchsia).Bold(true)
	styleMissile  = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleEnemyMsl = tcell.StyleDefault.Foreground(tcell.ColorRed)
	styleBanner   = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorAqua)
)

var craftGlyphs = [4]rune{'^', '>', 'v', '<'}

// Renderer draws a Game onto a tcell screen. Row 0 is the HUD; the rest
// of the screen is the play field with +Z pointing up.
type Renderer struct {
	screen tcell.Screen
	field  Bounds
}

func NewRenderer(screen tcell.Screen, field Bounds) *Renderer {
	return &Renderer{screen: screen, field: field}
}

// cell maps a ground-plane position to a screen cell
func (r *Renderer) cell(p Vec3) (int, int) {
	w, h := r.screen.Size()
	rows := h - 1
	fx := (p.X - r.field.MinX) / (r.field.MaxX - r.field.MinX)
	fz := (r.field.MaxZ - p.Z) / (r.field.MaxZ - r.field.MinZ)
	x := int(Clamp(math.Floor(fx*float64(w)), 0, float64(w-1)))
	y := 1 + int(Clamp(math.Floor(fz*float64(rows)), 0, float64(rows-1)))
	return x, y
}

// craftGlyph picks the arrow closest to the craft's heading
func craftGlyph(yaw float64) rune {
	q := int(math.Round(NormalizeAngle(yaw) / (math.Pi / 2)))
	return craftGlyphs[((q%4)+4)%4]
}

// Draw renders one frame and shows it
func (r *Renderer) Draw(g *Game) {
	r.screen.Clear()
	w := g.World

	// shields first so the craft glyph lands on top
	for _, id := range w.WithFaction(FactionShield) {
		x, y := r.cell(w.Transform(id).Position)
		r.screen.SetContent(x-1, y, '(', nil, styleShield)
		r.screen.SetContent(x+1, y, ')', nil, styleShield)
	}
	for _, id := range w.Entities() {
		tf := w.Transform(id)
		x, y := r.cell(tf.Position)
		switch w.Faction(id) {
		case FactionAsteroid:
			r.screen.SetContent(x, y, 'O', nil, styleAsteroid)
		case FactionSaucer:
			r.screen.SetContent(x, y, '@', nil, styleSaucer)
		case FactionCraftMissile:
			r.screen.SetContent(x, y, '|', nil, styleMissile)
		case FactionSaucerMissile:
			r.screen.SetContent(x, y, '*', nil, styleEnemyMsl)
		case FactionCraft:
			r.screen.SetContent(x, y, craftGlyph(tf.Yaw), nil, styleCraft)
		}
	}

	r.drawHUD(g)
	r.screen.Show()
}

func (r *Renderer) drawHUD(g *Game) {
	width, height := r.screen.Size()
	gl := g.Globals
	left := fmt.Sprintf(" SCORE %d  HI %d  LAST %d  LVL %d", gl.Score, gl.HighScore, gl.LastScore, gl.Level)
	drawText(r.screen, 0, 0, left, styleHUD)

	state, cd := g.ShieldStatus()
	right := "SHIELD " + state.String()
	if state == ShieldCooldown {
		right = fmt.Sprintf("SHIELD %.1fs", cd.Seconds())
	}
	right += " "
	drawText(r.screen, width-runewidth.StringWidth(right), 0, right, styleDim)

	var banner string
	switch g.State {
	case StatePaused:
		banner = " PAUSED  p to resume "
	case StateGameOver:
		banner = fmt.Sprintf(" GAME OVER  score %d  r to restart ", gl.LastScore)
	}
	if banner != "" {
		drawText(r.screen, (width-runewidth.StringWidth(banner))/2, height/2, banner, styleBanner)
	}
}

// drawText writes text at (x, y), advancing by each rune's cell width
func drawText(screen tcell.Screen, x, y int, text string, style tcell.Style) {
	col := x
	for _, ch := range text {
		screen.SetContent(col, y, ch, nil, style)
		col += runewidth.RuneWidth(ch)
	}
}

// axisHold is a steering axis that lapses keyHoldTicks after its last press
type axisHold struct {
	value int
	ttl   int
}

func (a *axisHold) press(v int) {
	a.value = v
	a.ttl = keyHoldTicks
}

func (a *axisHold) next() int {
	if a.ttl <= 0 {
		return 0
	}
	a.ttl--
	return a.value
}

// KeyInput turns terminal key presses into per-tick intents
type KeyInput struct {
	thrust, turn, roll axisHold
	fire               axisHold
	edges              Intents
	Quit               bool
}

// Key records one key event
func (k *KeyInput) Key(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyUp:
		k.thrust.press(1)
		return
	case tcell.KeyDown:
		k.thrust.press(-1)
		return
	case tcell.KeyLeft:
		k.turn.press(1)
		return
	case tcell.KeyRight:
		k.turn.press(-1)
		return
	case tcell.KeyEscape, tcell.KeyCtrlC:
		k.Quit = true
		return
	}

	switch ev.Rune() {
	case 'w', 'W':
		k.thrust.press(1)
	case 's', 'S':
		k.thrust.press(-1)
	case 'a', 'A':
		k.turn.press(1)
	case 'd', 'D':
		k.turn.press(-1)
	case 'z', 'Z':
		k.roll.press(1)
	case 'x', 'X':
		k.roll.press(-1)
	case ' ':
		k.fire.press(1)
	case 'e', 'E':
		k.edges.Shield = true
	case 'p', 'P':
		k.edges.Pause = true
	case 'r', 'R':
		k.edges.Restart = true
	case 'q', 'Q':
		k.Quit = true
	}
}

// Next returns the intents for the coming tick. Edge intents are handed
// out once.
func (k *KeyInput) Next() Intents {
	in := k.edges
	k.edges = Intents{}
	in.Thrust = k.thrust.next()
	in.Turn = k.turn.next()
	in.Roll = k.roll.next()
	in.Fire = k.fire.next() != 0
	return in
}
