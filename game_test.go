package main

import (
	"math/rand"
	"testing"
	"time"
)

func newTestGame(t *testing.T, seed int64) *Game {
	t.Helper()
	return NewGame(DefaultConfig(), rand.New(rand.NewSource(seed)))
}

// step runs one tick on the default field and returns its notifications
func (g *Game) step(in Intents) []Notification {
	return g.Step(g.cfg.TickDuration(), in, g.cfg.Bounds())
}

func countNotes(notes []Notification, kind NoteKind) int {
	n := 0
	for _, note := range notes {
		if note.Kind == kind {
			n++
		}
	}
	return n
}

func TestNewGame(t *testing.T) {
	g := newTestGame(t, 1)
	if g.State != StateInGame {
		t.Errorf("expected in_game, got %v", g.State)
	}
	if g.Globals.Level != 1 || g.Globals.Score != 0 {
		t.Errorf("unexpected globals %+v", g.Globals)
	}
	if !g.World.Alive(g.Craft) {
		t.Fatal("expected a craft")
	}
	if st, rem := g.ShieldStatus(); st != ShieldReady || rem != 0 {
		t.Errorf("shield %v %v", st, rem)
	}
}

func TestMissileKillsAsteroidInFourHits(t *testing.T) {
	g := newTestGame(t, 2)
	w := g.World
	rock := w.Spawn(Bundle{
		Faction:   FactionAsteroid,
		Transform: Transform{Position: V3(20, 0, 10)},
		Moving:    true,
		Radius:    1.5,
		Health:    20,
		Damage:    35,
	})

	want := []float64{15, 10, 5, 0}
	for i, h := range want {
		w.Spawn(Bundle{
			Faction:   FactionCraftMissile,
			Transform: Transform{Position: V3(20.5, 0, 10)},
			Moving:    true,
			Radius:    0.5,
			Health:    1,
			Damage:    5,
		})
		g.step(Intents{})
		if got := w.Health(rock).Value; got != h {
			t.Fatalf("hit %d: expected health %v, got %v", i+1, h, got)
		}
	}
	if !w.Alive(rock) {
		t.Fatal("removal waits for the next sweep")
	}
	if g.Globals.Score != 0 {
		t.Fatalf("score before sweep %d", g.Globals.Score)
	}

	g.step(Intents{})
	if w.Alive(rock) {
		t.Error("dead asteroid should be swept")
	}
	if g.Globals.Score != 1 {
		t.Errorf("expected score 1, got %d", g.Globals.Score)
	}
	if n := w.Count(FactionCraftMissile); n != 0 {
		t.Errorf("spent missiles should be swept too, %d left", n)
	}
}

func TestClearedWaveBringsNextWave(t *testing.T) {
	g := newTestGame(t, 3)
	w := g.World

	runUntilWave := func() []Notification {
		t.Helper()
		for i := 0; i < 300; i++ {
			notes := g.step(Intents{})
			if countNotes(notes, NoteWave) > 0 {
				return notes
			}
		}
		t.Fatal("no wave within 5s")
		return nil
	}

	runUntilWave()
	if n := w.Count(FactionAsteroid); n != 10 {
		t.Fatalf("expected 10 asteroids, got %d", n)
	}
	if g.Globals.Level != 2 {
		t.Fatalf("expected level 2, got %d", g.Globals.Level)
	}

	for _, id := range w.WithFaction(FactionAsteroid) {
		w.Health(id).Value = 0
	}
	g.step(Intents{})
	if n := w.Count(FactionAsteroid); n != 0 {
		t.Fatalf("%d asteroids survived the sweep", n)
	}
	if g.Globals.Score != 10 {
		t.Errorf("expected score 10, got %d", g.Globals.Score)
	}

	runUntilWave()
	if n := w.Count(FactionAsteroid); n != 10 {
		t.Errorf("expected exactly 10 new asteroids, got %d", n)
	}
	if g.Globals.Level != 3 {
		t.Errorf("expected level 3, got %d", g.Globals.Level)
	}
}

func TestCraftDeathEndsRun(t *testing.T) {
	g := newTestGame(t, 4)
	g.Globals.Score = 7
	g.SeedHighScore(5)
	spawnBody(g.World, FactionAsteroid, V3(30, 0, 20), 1.5, 20, 35)

	g.World.Health(g.Craft).Value = 0
	notes := g.step(Intents{})

	if g.State != StateGameOver {
		t.Fatalf("expected game_over, got %v", g.State)
	}
	if countNotes(notes, NoteGameOver) != 1 {
		t.Fatalf("expected one game_over note, got %+v", notes)
	}
	over := notes[len(notes)-1]
	if over.Score != 7 || over.HighScore != 7 {
		t.Errorf("game over note %+v", over)
	}
	if g.Globals.LastScore != 7 || g.Globals.HighScore != 7 || g.Globals.Score != 0 || g.Globals.Level != 1 {
		t.Errorf("scores not rolled: %+v", g.Globals)
	}
	if n := g.World.Count(FactionAsteroid); n != 0 {
		t.Errorf("game over should wipe the field, %d asteroids left", n)
	}

	// game over holds until restart
	g.step(Intents{Thrust: 1, Fire: true})
	if g.State != StateGameOver {
		t.Fatal("left game over without a restart")
	}
	g.step(Intents{Restart: true})
	if g.State != StateInGame || !g.World.Alive(g.Craft) {
		t.Errorf("restart should spawn a new craft, state %v", g.State)
	}
}

func TestAutoRestart(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.AutoRestart = true
	g := NewGame(cfg, rand.New(rand.NewSource(5)))
	g.World.Despawn(g.Craft)

	g.step(Intents{})
	if g.State != StateGameOver {
		t.Fatalf("expected game_over, got %v", g.State)
	}
	g.step(Intents{})
	if g.State != StateInGame {
		t.Errorf("expected an automatic restart, got %v", g.State)
	}
}

func TestPauseFreezesSimulation(t *testing.T) {
	g := newTestGame(t, 6)
	g.step(Intents{})
	before := g.World.Transform(g.Craft).Position
	run := g.RunTime

	g.step(Intents{Pause: true})
	if g.State != StatePaused {
		t.Fatalf("expected paused, got %v", g.State)
	}
	for i := 0; i < 30; i++ {
		g.step(Intents{Thrust: 1})
	}
	if p := g.World.Transform(g.Craft).Position; p != before || g.RunTime != run {
		t.Error("paused game moved")
	}

	g.step(Intents{Pause: true})
	if g.State != StateInGame {
		t.Fatalf("expected resume, got %v", g.State)
	}
	g.step(Intents{})
	if g.World.Transform(g.Craft).Position == before {
		t.Error("resumed game should move again")
	}
}

func TestShieldedCraftSurvivesContact(t *testing.T) {
	g := newTestGame(t, 7)
	w := g.World
	notes := g.step(Intents{Shield: true})
	if countNotes(notes, NoteShieldUp) != 1 {
		t.Fatalf("expected shield_up, got %+v", notes)
	}

	pos := w.Transform(g.Craft).Position
	rock := spawnBody(w, FactionAsteroid, pos, 1.5, 20, 35)
	w.Velocity(rock).Z = 1

	for i := 0; i < 10; i++ {
		g.step(Intents{})
	}
	if h := w.Health(g.Craft).Value; h != 100 {
		t.Errorf("shielded craft took damage: %v", h)
	}
	if w.Alive(rock) {
		t.Error("the asteroid should have broken on the craft")
	}
}

func TestShieldStatusReportsCooldown(t *testing.T) {
	g := newTestGame(t, 8)
	g.step(Intents{Shield: true})
	if st, _ := g.ShieldStatus(); st != ShieldActive {
		t.Fatalf("expected active, got %v", st)
	}
	g.World.Health(g.World.Shields()[0]).Value = 0
	g.step(Intents{})
	st, rem := g.ShieldStatus()
	if st != ShieldCooldown || rem <= 3*time.Second || rem > 4*time.Second {
		t.Errorf("expected a fresh cooldown, got %v %v", st, rem)
	}
}

func TestGridBroadphaseMatchesNaive(t *testing.T) {
	play := func(broadphase string) (Globals, int) {
		cfg := DefaultConfig()
		cfg.Server.Broadphase = broadphase
		g := NewGame(cfg, rand.New(rand.NewSource(42)))
		for i := 0; i < 60*20; i++ {
			in := Intents{Fire: true, Turn: 1}
			if i%60 < 20 {
				in.Thrust = 1
			}
			g.step(in)
		}
		return g.Globals, g.World.Len()
	}

	gn, nn := play("naive")
	gg, ng := play("grid")
	if gn != gg || nn != ng {
		t.Errorf("grid run diverged: naive %+v/%d, grid %+v/%d", gn, nn, gg, ng)
	}
}

func TestHealthNeverRises(t *testing.T) {
	g := newTestGame(t, 3)
	nose := g.World.Transform(g.Craft).Position.Add(V3(0, 0, 3))
	for _, dx := range []float64{-2, 0, 2} {
		spawnBody(g.World, FactionAsteroid, nose.Add(V3(dx, 0, 0)), 1.5, 20, 35)
	}

	last := make(map[EntityID]float64)
	contacts := 0
	for tick := 0; tick < 180; tick++ {
		notes := g.step(Intents{Fire: true, Shield: tick == 0})
		contacts += countNotes(notes, NoteCollision)
		for _, id := range g.World.Entities() {
			h := g.World.Health(id)
			if h == nil {
				continue
			}
			if prev, ok := last[id]; ok && h.Value > prev {
				t.Fatalf("tick %d: entity %d health rose %v -> %v", tick, id, prev, h.Value)
			}
			last[id] = h.Value
		}
	}
	if contacts == 0 {
		t.Fatal("no contact damage landed")
	}
}
