package main

import "slices"

// CheckCollision checks if two circles overlap. Circles that exactly touch
// do not.
func CheckCollision(a Vec3, ra float64, b Vec3, rb float64) bool {
	return a.Distance(b) < ra+rb
}

// CollisionDetector rebuilds every collider's overlap set from scratch.
// With UseGrid set it narrows candidates through a SpatialGrid first; the
// sets it produces are the same either way.
type CollisionDetector struct {
	UseGrid bool

	grid *SpatialGrid
	buf  []EntityID
}

// Detect replaces the overlap set of every entity that has both a
// transform and a collider.
func (d *CollisionDetector) Detect(w *World) {
	ids := collidables(w)
	for _, id := range ids {
		w.Collider(id).Overlaps = nil
	}
	if d.UseGrid {
		d.detectGrid(w, ids)
		return
	}
	for _, a := range ids {
		ta, ca := w.Transform(a), w.Collider(a)
		for _, b := range ids {
			if a == b {
				continue
			}
			if CheckCollision(ta.Position, ca.Radius(), w.Transform(b).Position, w.Collider(b).Radius()) {
				ca.Overlaps = append(ca.Overlaps, b)
			}
		}
	}
}

func (d *CollisionDetector) detectGrid(w *World, ids []EntityID) {
	if d.grid == nil {
		d.grid = &SpatialGrid{}
	}
	d.grid.Clear()
	for _, id := range ids {
		d.grid.InsertCircle(w.Transform(id).Position, w.Collider(id).Radius(), id)
	}

	for _, a := range ids {
		ta, ca := w.Transform(a), w.Collider(a)
		d.buf = d.grid.QueryBuf(ta.Position, ca.Radius(), d.buf[:0])
		slices.Sort(d.buf)
		d.buf = slices.Compact(d.buf)
		for _, b := range d.buf {
			if a == b {
				continue
			}
			if CheckCollision(ta.Position, ca.Radius(), w.Transform(b).Position, w.Collider(b).Radius()) {
				ca.Overlaps = append(ca.Overlaps, b)
			}
		}
	}
}

func collidables(w *World) []EntityID {
	var ids []EntityID
	for _, id := range w.Entities() {
		if w.Collider(id) != nil {
			ids = append(ids, id)
		}
	}
	return ids
}
