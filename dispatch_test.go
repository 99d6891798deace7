package main

import (
	"slices"
	"testing"
)

func TestDispatchSuppressesSameFaction(t *testing.T) {
	w := NewWorld()
	spawnBody(w, FactionAsteroid, V3(0, 0, 0), 1.5, 20, 35)
	spawnBody(w, FactionAsteroid, V3(1, 0, 0), 1.5, 20, 35)

	var d CollisionDetector
	d.Detect(w)
	if events := DispatchCollisions(w); len(events) != 0 {
		t.Errorf("asteroids should not fight each other, got %v", events)
	}
}

func TestDispatchEmitsBothSides(t *testing.T) {
	w := NewWorld()
	missile := spawnBody(w, FactionCraftMissile, V3(0, 0, 0), 0.5, 1, 5)
	rock := spawnBody(w, FactionAsteroid, V3(1, 0, 0), 1.5, 20, 35)

	var d CollisionDetector
	d.Detect(w)
	events := DispatchCollisions(w)

	// asteroid is declared before craft missile, so its event comes first
	want := []CombatEvent{
		{Victim: rock, Source: missile},
		{Victim: missile, Source: rock},
	}
	if !slices.Equal(events, want) {
		t.Errorf("got %v, want %v", events, want)
	}
}

func TestDispatchOrderIsStable(t *testing.T) {
	w := NewWorld()
	saucer := spawnBody(w, FactionSaucer, V3(0, 0, 0), 2.5, 100, 100)
	craft := spawnBody(w, FactionCraft, V3(1, 0, 0), 2.5, 100, 100)
	rockB := spawnBody(w, FactionAsteroid, V3(0, 0, 1), 1.5, 20, 35)
	rockA := spawnBody(w, FactionAsteroid, V3(0, 0, -1), 1.5, 20, 35)

	var d CollisionDetector
	d.Detect(w)
	events := DispatchCollisions(w)

	var victims []EntityID
	for _, ev := range events {
		victims = append(victims, ev.Victim)
	}
	// asteroids by id, then craft, then saucer
	want := []EntityID{rockB, rockB, rockA, rockA, craft, craft, craft, saucer, saucer, saucer}
	if !slices.Equal(victims, want) {
		t.Errorf("victim order %v, want %v", victims, want)
	}
}

func TestDispatchIncludesUntaggedSources(t *testing.T) {
	w := NewWorld()
	craft := spawnBody(w, FactionCraft, V3(0, 0, 0), 2.5, 100, 100)
	debris := spawnBody(w, FactionNone, V3(1, 0, 0), 1, 0, 0)

	var d CollisionDetector
	d.Detect(w)
	events := DispatchCollisions(w)
	if len(events) != 1 || events[0] != (CombatEvent{Victim: craft, Source: debris}) {
		t.Errorf("got %v", events)
	}
}
