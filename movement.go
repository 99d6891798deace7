package main

import "time"

// Bounds is the visible play field on the ground plane. The host supplies
// it every tick; the simulation never derives it.
type Bounds struct {
	MinX, MaxX float64
	MinZ, MaxZ float64
}

// Contains reports whether p lies inside the field on both ground axes
func (b Bounds) Contains(p Vec3) bool {
	return p.X >= b.MinX && p.X <= b.MaxX && p.Z >= b.MinZ && p.Z <= b.MaxZ
}

// Wrap moves p back into the field, re-entering from the opposite edge by
// the same amount it overshot. Each axis wraps on its own.
func (b Bounds) Wrap(p Vec3) Vec3 {
	p.X = wrapAxis(p.X, b.MinX, b.MaxX)
	p.Z = wrapAxis(p.Z, b.MinZ, b.MaxZ)
	return p
}

func wrapAxis(v, min, max float64) float64 {
	if v < min {
		return max - (min - v)
	}
	if v > max {
		return min + (v - max)
	}
	return v
}

// Integrate steps every moving entity by dt with explicit Euler, spins
// presentation angles, then applies the field policy: craft and asteroids
// wrap, projectiles outside the field are removed.
func Integrate(w *World, dt time.Duration, field Bounds) {
	secs := dt.Seconds()
	for _, id := range w.Entities() {
		vel := w.Velocity(id)
		if vel == nil {
			continue
		}
		tf := w.Transform(id)
		if acc := w.Acceleration(id); acc != nil {
			*vel = vel.Add(acc.Scale(secs))
		}
		tf.Position = tf.Position.Add(vel.Scale(secs))

		if s := w.Spin(id); s != nil {
			tf.Pitch = NormalizeAngle(tf.Pitch + s.X*secs)
			tf.Yaw = NormalizeAngle(tf.Yaw + s.Y*secs)
			tf.Roll = NormalizeAngle(tf.Roll + s.Z*secs)
		}

		f := w.Faction(id)
		switch {
		case f.Wraps():
			tf.Position = field.Wrap(tf.Position)
		case f.IsProjectile():
			if !field.Contains(tf.Position) {
				w.Despawn(id)
			}
		}
	}
}
