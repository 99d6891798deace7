package main

import (
	"math/rand"
	"slices"
	"testing"
)

// spawnBody places a moving, colliding entity for tests
func spawnBody(w *World, f Faction, pos Vec3, radius, health, damage float64) EntityID {
	return w.Spawn(Bundle{
		Faction:   f,
		Transform: Transform{Position: pos},
		Moving:    true,
		Radius:    radius,
		Health:    health,
		Damage:    damage,
	})
}

func TestCheckCollision(t *testing.T) {
	tests := []struct {
		name string
		d    float64
		want bool
	}{
		{"overlapping", 2.9, true},
		{"touching", 3.0, false},
		{"apart", 3.5, false},
		{"same position", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckCollision(V3(0, 0, 0), 1.5, V3(tt.d, 0, 0), 1.5)
			if got != tt.want {
				t.Errorf("distance %.1f: got %v, want %v", tt.d, got, tt.want)
			}
		})
	}
}

func TestDetectOverlapThreshold(t *testing.T) {
	w := NewWorld()
	a := spawnBody(w, FactionAsteroid, V3(0, 0, 0), 1.5, 20, 35)
	b := spawnBody(w, FactionAsteroid, V3(2.9, 0, 0), 1.5, 20, 35)
	c := spawnBody(w, FactionAsteroid, V3(2.9, 0, 3.0), 1.5, 20, 35)

	var d CollisionDetector
	d.Detect(w)

	if !w.Collider(a).Has(b) || !w.Collider(b).Has(a) {
		t.Error("a and b at 2.9 should overlap")
	}
	if w.Collider(b).Has(c) || w.Collider(c).Has(b) {
		t.Error("b and c at exactly 3.0 should not overlap")
	}
	if w.Collider(a).Has(c) {
		t.Error("a and c are far apart")
	}
}

func TestDetectReplacesStaleOverlaps(t *testing.T) {
	w := NewWorld()
	a := spawnBody(w, FactionCraft, V3(0, 0, 0), 2.5, 100, 100)
	b := spawnBody(w, FactionAsteroid, V3(1, 0, 0), 1.5, 20, 35)

	var d CollisionDetector
	d.Detect(w)
	if !w.Collider(a).Has(b) {
		t.Fatal("expected overlap on first pass")
	}

	w.Transform(b).Position = V3(30, 0, 0)
	d.Detect(w)
	if len(w.Collider(a).Overlaps) != 0 || len(w.Collider(b).Overlaps) != 0 {
		t.Errorf("stale overlaps survived: a=%v b=%v", w.Collider(a).Overlaps, w.Collider(b).Overlaps)
	}
}

func TestDetectSkipsDespawned(t *testing.T) {
	w := NewWorld()
	a := spawnBody(w, FactionCraft, V3(0, 0, 0), 2.5, 100, 100)
	b := spawnBody(w, FactionAsteroid, V3(1, 0, 0), 1.5, 20, 35)
	w.Despawn(b)

	var d CollisionDetector
	d.Detect(w)
	if w.Collider(a).Has(b) {
		t.Error("despawned entity still listed as overlapping")
	}
}

func randomWorld(rng *rand.Rand, n int) *World {
	w := NewWorld()
	factions := []Faction{FactionAsteroid, FactionCraftMissile, FactionSaucer, FactionSaucerMissile}
	for i := 0; i < n; i++ {
		p := V3(randRange(rng, -40, 40), 0, randRange(rng, -40, 40))
		spawnBody(w, factions[i%len(factions)], p, randRange(rng, 0.5, 3), 10, 1)
	}
	// a few stragglers outside the grid's square
	spawnBody(w, FactionAsteroid, V3(150, 0, -150), 2, 10, 1)
	spawnBody(w, FactionAsteroid, V3(151, 0, -151), 2, 10, 1)
	return w
}

func TestDetectSymmetricNoSelf(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	w := randomWorld(rng, 120)

	var d CollisionDetector
	d.Detect(w)

	for _, a := range w.Entities() {
		ca := w.Collider(a)
		if ca.Has(a) {
			t.Fatalf("entity %d lists itself", a)
		}
		for _, b := range ca.Overlaps {
			if !w.Collider(b).Has(a) {
				t.Fatalf("%d lists %d but not the reverse", a, b)
			}
		}
	}
}

func TestDetectGridMatchesNaive(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		naiveWorld := randomWorld(rand.New(rand.NewSource(seed)), 150)
		gridWorld := randomWorld(rand.New(rand.NewSource(seed)), 150)

		naive := CollisionDetector{}
		grid := CollisionDetector{UseGrid: true}
		naive.Detect(naiveWorld)
		grid.Detect(gridWorld)

		for _, id := range naiveWorld.Entities() {
			want := naiveWorld.Collider(id).Overlaps
			got := gridWorld.Collider(id).Overlaps
			if !slices.Equal(want, got) {
				t.Fatalf("seed %d entity %d: grid %v, naive %v", seed, id, got, want)
			}
		}
	}
}
