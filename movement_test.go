package main

import (
	"math"
	"testing"
	"time"
)

var testField = Bounds{MinX: -48, MaxX: 48, MinZ: -27, MaxZ: 27}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestIntegrateEuler(t *testing.T) {
	w := NewWorld()
	id := w.Spawn(Bundle{
		Faction:      FactionAsteroid,
		Moving:       true,
		Velocity:     V3(1, 0, 2),
		Acceleration: V3(2, 0, 0),
		Radius:       1,
		Health:       1,
	})

	Integrate(w, 500*time.Millisecond, testField)

	// v = (1,0,2) + (2,0,0)*0.5 = (2,0,2); p = v*0.5 = (1,0,1)
	if v := *w.Velocity(id); v != V3(2, 0, 2) {
		t.Errorf("velocity %v", v)
	}
	if p := w.Transform(id).Position; p != V3(1, 0, 1) {
		t.Errorf("position %v", p)
	}
}

func TestWrapPreservesOvershoot(t *testing.T) {
	tests := []struct {
		name string
		in   Vec3
		want Vec3
	}{
		{"past max x", V3(50, 0, 0), V3(-46, 0, 0)},
		{"past min x", V3(-50, 0, 0), V3(46, 0, 0)},
		{"past max z", V3(0, 0, 29), V3(0, 0, -25)},
		{"past min z", V3(0, 0, -29), V3(0, 0, 25)},
		{"both axes", V3(50, 0, -29), V3(-46, 0, 25)},
		{"inside", V3(10, 0, 10), V3(10, 0, 10)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := testField.Wrap(tt.in)
			if !approx(got.X, tt.want.X) || !approx(got.Z, tt.want.Z) {
				t.Errorf("Wrap(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestIntegrateWrapsAsteroidAndCraft(t *testing.T) {
	w := NewWorld()
	rock := w.Spawn(Bundle{
		Faction:   FactionAsteroid,
		Transform: Transform{Position: V3(47, 0, 0)},
		Moving:    true,
		Velocity:  V3(3, 0, 0), // ends at max_x + 2
		Radius:    1.5,
		Health:    20,
	})
	craft := w.Spawn(Bundle{
		Faction:   FactionCraft,
		Transform: Transform{Position: V3(-47, 0, -26)},
		Moving:    true,
		Velocity:  V3(-3, 0, -3),
		Radius:    2.5,
		Health:    100,
	})

	Integrate(w, time.Second, testField)

	if p := w.Transform(rock).Position; !approx(p.X, testField.MinX+2) {
		t.Errorf("asteroid x = %v, want %v", p.X, testField.MinX+2)
	}
	p := w.Transform(craft).Position
	if !approx(p.X, testField.MaxX-2) || !approx(p.Z, testField.MaxZ-2) {
		t.Errorf("craft should wrap on both axes, got %v", p)
	}
}

func TestIntegrateRemovesProjectilesOutside(t *testing.T) {
	w := NewWorld()
	inside := spawnBody(w, FactionCraftMissile, V3(0, 0, 0), 0.5, 1, 5)
	w.Velocity(inside).X = 10
	out := spawnBody(w, FactionSaucerMissile, V3(0, 0, 26), 0.5, 1, 7)
	w.Velocity(out).Z = 10

	Integrate(w, 500*time.Millisecond, testField)

	if !w.Alive(inside) {
		t.Error("missile inside the field was removed")
	}
	if w.Alive(out) {
		t.Error("saucer missile past the edge should be removed")
	}
}

func TestIntegrateLeavesSaucerUnwrapped(t *testing.T) {
	w := NewWorld()
	s := spawnBody(w, FactionSaucer, V3(47, 0, 0), 2.5, 100, 100)
	w.Velocity(s).X = 5

	Integrate(w, time.Second, testField)
	if p := w.Transform(s).Position; p.X != 52 || !w.Alive(s) {
		t.Errorf("saucer should drift past the edge untouched, got %v alive=%v", p, w.Alive(s))
	}
}

func TestIntegrateSpinsPresentationAngles(t *testing.T) {
	w := NewWorld()
	id := w.Spawn(Bundle{Faction: FactionAsteroid, Moving: true, Spin: Spin{X: 1, Y: -1, Z: 0.5}})

	Integrate(w, 500*time.Millisecond, testField)
	tf := w.Transform(id)
	if !approx(tf.Pitch, 0.5) || !approx(tf.Yaw, -0.5) || !approx(tf.Roll, 0.25) {
		t.Errorf("unexpected angles %+v", tf)
	}
}
