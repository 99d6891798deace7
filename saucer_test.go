package main

import (
	"math"
	"math/rand"
	"testing"
	"time"
)

func newSaucerFixture() (*World, *SaucerController, EntityID) {
	cfg := DefaultConfig()
	w := NewWorld()
	craft := SpawnCraft(w, cfg.Craft, seconds(cfg.Shield.Cooldown))
	area := SpawnArea{MinX: -25, MaxX: 25, MinZ: -25, MaxZ: 25}
	return w, NewSaucerController(cfg.Saucer, area), craft
}

func TestSaucerSpawnsOnTimer(t *testing.T) {
	w, s, craft := newSaucerFixture()
	rng := rand.New(rand.NewSource(1))
	var out outbox

	if id := s.Spawn(w, craft, 44*time.Second, rng, &out); id != NoEntity {
		t.Fatal("saucer spawned early")
	}
	id := s.Spawn(w, craft, time.Second, rng, &out)
	if id == NoEntity {
		t.Fatal("expected a saucer at 45s")
	}
	if w.Faction(id) != FactionSaucer {
		t.Errorf("wrong faction %v", w.Faction(id))
	}
	if tf := w.Transform(id); tf.Pitch != math.Pi/2 {
		t.Errorf("saucer should be pitched flat, got %v", tf.Pitch)
	}
	if v := *w.Velocity(id); v != V3(1, 0, -1) {
		t.Errorf("unexpected start velocity %v", v)
	}
	if w.Health(id).Value != 100 || w.Damage(id).Amount != 100 {
		t.Error("saucer stats wrong")
	}
	notes := out.drain()
	if len(notes) != 1 || notes[0].Kind != NoteSaucerSpawned || notes[0].Entity != id {
		t.Errorf("unexpected notes %+v", notes)
	}
}

func TestSaucerSpawnNeedsCraft(t *testing.T) {
	w, s, _ := newSaucerFixture()
	rng := rand.New(rand.NewSource(2))
	var out outbox
	if id := s.Spawn(w, NoEntity, time.Minute, rng, &out); id != NoEntity {
		t.Error("saucer spawned without a craft")
	}
}

func TestSaucerSteering(t *testing.T) {
	tests := []struct {
		name     string
		pos      Vec3
		vel      Vec3
		obstacle *Vec3
		want     Vec3
	}{
		{"pulled to center", V3(10, 0, 0), V3(0, 0, 0), nil, V3(-1, 0, 0)},
		{"pushed off asteroid", V3(10, 0, 0), V3(0, 0, 0), &Vec3{X: 12}, V3(-17, 0, 0)},
		{"brakes over max speed", V3(0, 0, 10), V3(30, 0, 0), nil, V3(-30, 0, -1)},
		{"at center", V3(0, 0, 0), V3(0, 0, 0), nil, V3(0, 0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, s, _ := newSaucerFixture()
			id := w.Spawn(Bundle{
				Faction:   FactionSaucer,
				Transform: Transform{Position: tt.pos},
				Moving:    true,
				Velocity:  tt.vel,
				Radius:    2.5,
				Health:    100,
			})
			if tt.obstacle != nil {
				spawnBody(w, FactionAsteroid, *tt.obstacle, 1.5, 20, 35)
			}

			s.Steer(w)
			got := *w.Acceleration(id)
			if !approx(got.X, tt.want.X) || !approx(got.Z, tt.want.Z) {
				t.Errorf("acceleration %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSaucerIgnoresCraftWhenSteering(t *testing.T) {
	w, s, _ := newSaucerFixture()
	// the craft sits at (0,0,-20); only asteroids and saucers repel
	id := w.Spawn(Bundle{
		Faction:   FactionSaucer,
		Transform: Transform{Position: V3(0, 0, -18)},
		Moving:    true,
		Radius:    2.5,
		Health:    100,
	})
	s.Steer(w)
	if got := *w.Acceleration(id); !approx(got.Z, 1) || !approx(got.X, 0) {
		t.Errorf("expected only the center pull, got %v", got)
	}
}

func TestSaucerFireRate(t *testing.T) {
	w, s, craft := newSaucerFixture()
	rng := rand.New(rand.NewSource(3))
	var out outbox
	spawnBody(w, FactionSaucer, V3(10, 0, 10), 2.5, 100, 100)

	tick := seconds(1.0 / 60)
	shots := 0
	for i := 0; i < 60*100; i++ {
		s.Fire(w, craft, tick, rng, &out)
		for _, n := range out.drain() {
			if n.Kind == NoteSaucerShooting {
				shots++
			}
		}
	}
	// about once per second over 100 seconds
	if shots < 50 || shots > 150 {
		t.Errorf("expected roughly 100 shots, got %d", shots)
	}
	if got := w.Count(FactionSaucerMissile); got != shots {
		t.Errorf("every shot should spawn a missile: %d notes, %d missiles", shots, got)
	}
}

func TestSaucerHoldsFireWithoutCraft(t *testing.T) {
	w, s, craft := newSaucerFixture()
	rng := rand.New(rand.NewSource(4))
	var out outbox
	spawnBody(w, FactionSaucer, V3(10, 0, 10), 2.5, 100, 100)
	w.Despawn(craft)

	for i := 0; i < 600; i++ {
		s.Fire(w, NoEntity, seconds(1.0/60), rng, &out)
	}
	if n := w.Count(FactionSaucerMissile); n != 0 {
		t.Errorf("fired %d missiles at nothing", n)
	}
}
