package main

import (
	"log"
	"math/rand"
	"time"
)

// GameState gates which systems run on a tick
type GameState int

const (
	StateInGame GameState = iota
	StatePaused
	StateGameOver
)

func (s GameState) String() string {
	switch s {
	case StateInGame:
		return "in_game"
	case StatePaused:
		return "paused"
	case StateGameOver:
		return "game_over"
	}
	return "unknown"
}

// Globals is the score and level bookkeeping for a run. Level starts at 1
// and goes up with every wave.
type Globals struct {
	Score     int
	HighScore int
	LastScore int
	Level     int
}

// finalScoreUpdate rolls the finished run into LastScore and HighScore and
// resets the counters for the next one.
func (g *Globals) finalScoreUpdate() {
	g.LastScore = g.Score
	if g.Score > g.HighScore {
		g.HighScore = g.Score
	}
	g.Score = 0
	g.Level = 1
}

// Game is one arena: the entity world, the run's game state and scores,
// and the systems that advance them. It is not safe for concurrent use;
// the host serializes calls to Step.
type Game struct {
	cfg     Config
	World   *World
	State   GameState
	Globals Globals
	Craft   EntityID
	Ticks   uint64
	RunTime time.Duration

	rng      *rand.Rand
	detector CollisionDetector
	controls *CraftControls
	shields  *ShieldSystem
	waves    *WaveSpawner
	saucers  *SaucerController
	out      outbox
}

// NewGame builds an arena and starts the first run. rng drives every
// random spawn decision; pass a seeded source for repeatable runs.
func NewGame(cfg Config, rng *rand.Rand) *Game {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	area := SpawnArea{
		MinX: cfg.Asteroid.SpawnMinX, MaxX: cfg.Asteroid.SpawnMaxX,
		MinZ: cfg.Asteroid.SpawnMinZ, MaxZ: cfg.Asteroid.SpawnMaxZ,
	}
	g := &Game{
		cfg:      cfg,
		World:    NewWorld(),
		rng:      rng,
		detector: CollisionDetector{UseGrid: cfg.Server.Broadphase == "grid"},
		controls: NewCraftControls(cfg.Craft, cfg.Missile),
		shields:  NewShieldSystem(cfg.Shield, cfg.Craft.Radius),
		waves:    NewWaveSpawner(cfg.Asteroid, cfg.Craft.Radius),
		saucers:  NewSaucerController(cfg.Saucer, area),
	}
	g.Globals.Level = 1
	g.startRun()
	return g
}

func (g *Game) startRun() {
	g.Craft = SpawnCraft(g.World, g.cfg.Craft, seconds(g.cfg.Shield.Cooldown))
	g.controls.Reset()
	g.waves.Reset()
	g.saucers.Reset()
	g.RunTime = 0
	g.State = StateInGame
}

// Config returns the tunables the game was built with
func (g *Game) Config() Config { return g.cfg }

// Step advances the arena by one tick and returns the notifications raised
// during it, in order. field is the current play-field rectangle.
func (g *Game) Step(dt time.Duration, in Intents, field Bounds) []Notification {
	g.Ticks++

	switch g.State {
	case StatePaused:
		if in.Pause {
			g.State = StateInGame
		}
		return g.out.drain()
	case StateGameOver:
		if in.Restart || g.cfg.Server.AutoRestart {
			g.startRun()
		}
		return g.out.drain()
	}
	if in.Pause {
		g.State = StatePaused
		return g.out.drain()
	}

	w := g.World

	g.Globals.Score += SweepLifecycle(w, g.cfg.Arena.DespawnDistance)
	if !w.Alive(g.Craft) {
		g.gameOver()
		return g.out.drain()
	}

	// intents
	if in.Shield {
		if ctrl := w.Controller(g.Craft); ctrl != nil {
			ctrl.Request()
		}
	}
	g.shields.HandleRequest(w, g.Craft, &g.out)
	g.controls.Steer(w, g.Craft, in, dt)
	g.controls.Fire(w, g.Craft, in, dt, &g.out)

	// entity updates
	g.saucers.Steer(w)
	Integrate(w, dt, field)
	g.shields.Update(w, g.Craft, dt, &g.out)
	g.waves.Update(w, g.Craft, dt, g.rng, &g.Globals, &g.out)
	g.saucers.Spawn(w, g.Craft, dt, g.rng, &g.out)
	g.saucers.Fire(w, g.Craft, dt, g.rng, &g.out)

	g.detector.Detect(w)
	ResolveCombat(w, DispatchCollisions(w), &g.out)

	g.RunTime += dt
	return g.out.drain()
}

func (g *Game) gameOver() {
	WipeHealth(g.World)
	score, level := g.Globals.Score, g.Globals.Level
	g.Globals.finalScoreUpdate()
	g.State = StateGameOver
	g.Craft = NoEntity
	g.out.emit(Notification{Kind: NoteGameOver, Score: score, HighScore: g.Globals.HighScore, Level: level})
	log.Printf("game over: score %d, high score %d, run %s", score, g.Globals.HighScore, g.RunTime.Round(time.Second))
}

// ShieldStatus reports the craft's shield state and the cooldown left, or
// Ready with zero when there is no craft.
func (g *Game) ShieldStatus() (ShieldState, time.Duration) {
	ctrl := g.World.Controller(g.Craft)
	if ctrl == nil {
		return ShieldReady, 0
	}
	if ctrl.State != ShieldCooldown {
		return ctrl.State, 0
	}
	return ctrl.State, ctrl.Cooldown.Remaining()
}

// SeedHighScore raises the high score to a stored best
func (g *Game) SeedHighScore(best int) {
	if best > g.Globals.HighScore {
		g.Globals.HighScore = best
	}
}
