package main

import (
	"log"
	"math"
	"math/rand"
	"time"
)

// SaucerController spawns the roaming enemy saucer on a long timer, steers
// every saucer and fires their missiles at the craft.
type SaucerController struct {
	cfg        SaucerConfig
	area       SpawnArea
	spawnTimer *Timer
	rateTimer  *Timer
}

func NewSaucerController(cfg SaucerConfig, area SpawnArea) *SaucerController {
	return &SaucerController{
		cfg:        cfg,
		area:       area,
		spawnTimer: NewTimer(seconds(cfg.SpawnInterval), true),
		rateTimer:  NewTimer(seconds(1/cfg.MissileRate), true),
	}
}

// Spawn advances the spawn timer and, when it fires, places one saucer at a
// safe distance from the craft. It returns the new saucer or NoEntity.
func (s *SaucerController) Spawn(w *World, craft EntityID, dt time.Duration, rng *rand.Rand, out *outbox) EntityID {
	ctf := w.Transform(craft)
	if ctf == nil {
		return NoEntity
	}
	s.spawnTimer.Tick(dt)
	if !s.spawnTimer.JustFinished() {
		return NoEntity
	}

	p := SafeSpawnPoint(rng, s.area, ctf.Position, s.cfg.Radius*s.cfg.SafeRadiusMul, s.cfg.SpawnRetries)
	id := w.Spawn(Bundle{
		Faction:   FactionSaucer,
		Transform: Transform{Position: p, Pitch: math.Pi / 2},
		Moving:    true,
		Velocity:  s.cfg.StartVelocity,
		Radius:    s.cfg.Radius,
		Health:    s.cfg.Health,
		Damage:    s.cfg.Damage,
	})
	out.emit(Notification{Kind: NoteSaucerSpawned, Entity: id})
	log.Printf("saucer %d spawned at (%.1f, %.1f)", id, p.X, p.Z)
	return id
}

// Steer sets each saucer's acceleration: a pull toward the field center,
// a push away from the closest asteroid or other saucer, and braking above
// the speed limit.
func (s *SaucerController) Steer(w *World) {
	saucers := w.WithFaction(FactionSaucer)
	if len(saucers) == 0 {
		return
	}
	obstacles := append(w.WithFaction(FactionAsteroid), saucers...)

	for _, id := range saucers {
		pos := w.Transform(id).Position
		acc := pos.Scale(-1).NormalizeOrZero()

		closest := math.MaxFloat64
		var repel Vec3
		for _, o := range obstacles {
			if o == id {
				continue
			}
			op := w.Transform(o).Position
			if d := op.Distance(pos); d < closest {
				closest = d
				repel = op.Sub(pos).NormalizeOrZero().Scale(s.cfg.Repel)
			}
		}
		acc = acc.Sub(repel)

		vel := w.Velocity(id)
		if vel.Len() > s.cfg.MaxSpeed {
			acc = acc.Sub(*vel)
		}
		*w.Acceleration(id) = acc
	}
}

// Fire rolls once per saucer each time the rate timer fires; a hit
// launches a missile at the craft. On average each saucer fires about once
// a second.
func (s *SaucerController) Fire(w *World, craft EntityID, dt time.Duration, rng *rand.Rand, out *outbox) {
	ctf := w.Transform(craft)
	if ctf == nil {
		return
	}
	s.rateTimer.Tick(dt)
	if !s.rateTimer.JustFinished() {
		return
	}
	target := int(s.cfg.MissileRate) / 2
	for _, id := range w.WithFaction(FactionSaucer) {
		if int(randRange(rng, 0, s.cfg.MissileRate)) != target {
			continue
		}
		m := SpawnSaucerMissile(w, id, ctf.Position, s.cfg)
		out.emit(Notification{Kind: NoteSaucerShooting, Entity: m})
	}
}

// Reset restarts both timers for a new run
func (s *SaucerController) Reset() {
	s.spawnTimer.Reset()
	s.rateTimer.Reset()
}
