package main

// SweepLifecycle removes every entity farther than maxDist from the origin
// and every entity whose health is at or below zero. Shields are left to
// the shield system even when dead. It returns how many asteroids died, for
// scoring.
func SweepLifecycle(w *World, maxDist float64) (deadAsteroids int) {
	for _, id := range w.Entities() {
		dead := false
		if h := w.Health(id); h != nil && h.Value <= 0 && w.Shield(id) == nil {
			dead = true
			if w.Faction(id) == FactionAsteroid {
				deadAsteroids++
			}
		}
		far := w.Transform(id).Position.Len() > maxDist
		if dead || far {
			w.Despawn(id)
		}
	}
	return deadAsteroids
}

// WipeHealth removes every entity that carries health, shields included
func WipeHealth(w *World) {
	for _, id := range w.Entities() {
		if w.Health(id) != nil {
			w.Despawn(id)
		}
	}
}
