package main

import (
	"log"
	"math/rand"
	"time"
)

// SpawnArea is a rectangle on the ground plane, max edges exclusive
type SpawnArea struct {
	MinX, MaxX float64
	MinZ, MaxZ float64
}

func (a SpawnArea) sample(rng *rand.Rand) Vec3 {
	return Vec3{X: randRange(rng, a.MinX, a.MaxX), Z: randRange(rng, a.MinZ, a.MaxZ)}
}

// SafeSpawnPoint samples a point in area, resampling up to retries times
// while it lands closer than minDist to avoid. When retries run out the last
// sample is used anyway.
func SafeSpawnPoint(rng *rand.Rand, area SpawnArea, avoid Vec3, minDist float64, retries int) Vec3 {
	p := area.sample(rng)
	for i := 0; i < retries; i++ {
		if p.Distance(avoid) >= minDist {
			break
		}
		p = area.sample(rng)
	}
	return p
}

// WaveSpawner sends a new batch of asteroids once the field is clear
type WaveSpawner struct {
	cfg         AsteroidConfig
	craftRadius float64
	timer       *Timer
}

func NewWaveSpawner(cfg AsteroidConfig, craftRadius float64) *WaveSpawner {
	return &WaveSpawner{
		cfg:         cfg,
		craftRadius: craftRadius,
		timer:       NewTimer(seconds(cfg.WaveInterval), true),
	}
}

func (s *WaveSpawner) area() SpawnArea {
	return SpawnArea{MinX: s.cfg.SpawnMinX, MaxX: s.cfg.SpawnMaxX, MinZ: s.cfg.SpawnMinZ, MaxZ: s.cfg.SpawnMaxZ}
}

// Update advances the wave timer. When it fires and no asteroid is left,
// the level goes up and a full wave spawns away from the craft. It returns
// the number of asteroids spawned.
func (s *WaveSpawner) Update(w *World, craft EntityID, dt time.Duration, rng *rand.Rand, g *Globals, out *outbox) int {
	ctf := w.Transform(craft)
	if ctf == nil {
		return 0
	}
	s.timer.Tick(dt)
	if !s.timer.JustFinished() || w.Count(FactionAsteroid) > 0 {
		return 0
	}

	g.Level++
	boss := g.Level%s.cfg.BossEvery == 0
	out.emit(Notification{Kind: NoteWave, Level: g.Level, Boss: boss})
	log.Printf("wave %d starting (boss=%v)", g.Level, boss)

	minDist := s.craftRadius * s.cfg.SafeRadiusMul
	for i := 0; i < s.cfg.WaveSize; i++ {
		p := SafeSpawnPoint(rng, s.area(), ctf.Position, minDist, s.cfg.SpawnRetries)
		s.spawnAsteroid(w, p, rng)
	}
	return s.cfg.WaveSize
}

func (s *WaveSpawner) spawnAsteroid(w *World, p Vec3, rng *rand.Rand) EntityID {
	return w.Spawn(Bundle{
		Faction:      FactionAsteroid,
		Transform:    Transform{Position: p},
		Moving:       true,
		Velocity:     randUnitVec(rng).Scale(s.cfg.VelocityScale),
		Acceleration: randUnitVec(rng).Scale(s.cfg.AccelScale),
		Spin:         randSpin(rng, s.cfg.MaxSpin),
		Radius:       s.cfg.Radius,
		Health:       s.cfg.Health,
		Damage:       s.cfg.Damage,
	})
}

// Reset restarts the wave timer for a new run
func (s *WaveSpawner) Reset() {
	s.timer.Reset()
}
