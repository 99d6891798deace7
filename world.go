package main

// EntityID identifies an entity in a World. IDs are never reused, so a
// stale id simply fails every lookup once its entity is gone.
type EntityID uint64

// NoEntity is the zero id; it never names a live entity
const NoEntity EntityID = 0

// Transform is an entity's placement. Only Position takes part in
// collision; the angles are carried for presentation.
type Transform struct {
	Position Vec3
	Yaw      float64
	Pitch    float64
	Roll     float64
	Scale    float64
}

// Spin is a rotation rate in radians per second about each axis
type Spin struct {
	X, Y, Z float64
}

// Collider is a circular overlap region. Overlaps holds the ids touching it
// as of the last detection pass, ascending.
type Collider struct {
	radius   float64
	Overlaps []EntityID
}

func NewCollider(radius float64) *Collider {
	return &Collider{radius: radius}
}

func (c *Collider) Radius() float64 { return c.radius }

// Has reports whether id is in the overlap set
func (c *Collider) Has(id EntityID) bool {
	for _, o := range c.Overlaps {
		if o == id {
			return true
		}
	}
	return false
}

type Health struct {
	Value float64
}

// Damage is the amount an entity deals on contact
type Damage struct {
	Amount float64
}

// Shield marks a shield entity and records the craft that raised it
type Shield struct {
	Craft EntityID
}

// Bundle describes a new entity. Zero Radius, Health and Damage leave the
// matching component off.
type Bundle struct {
	Faction      Faction
	Transform    Transform
	Moving       bool
	Velocity     Vec3
	Acceleration Vec3
	Spin         Spin
	Radius       float64
	Health       float64
	Damage       float64
}

// World is the entity arena. Components live in maps keyed by id and the
// order slice keeps live ids ascending so every walk is deterministic.
type World struct {
	nextID EntityID
	order  []EntityID

	factions     map[EntityID]Faction
	transforms   map[EntityID]*Transform
	velocities   map[EntityID]*Vec3
	accels       map[EntityID]*Vec3
	spins        map[EntityID]*Spin
	colliders    map[EntityID]*Collider
	healths      map[EntityID]*Health
	damages      map[EntityID]*Damage
	shields      map[EntityID]*Shield
	hitCooldowns map[EntityID]*Timer
	controllers  map[EntityID]*ShieldController
}

func NewWorld() *World {
	return &World{
		factions:     make(map[EntityID]Faction),
		transforms:   make(map[EntityID]*Transform),
		velocities:   make(map[EntityID]*Vec3),
		accels:       make(map[EntityID]*Vec3),
		spins:        make(map[EntityID]*Spin),
		colliders:    make(map[EntityID]*Collider),
		healths:      make(map[EntityID]*Health),
		damages:      make(map[EntityID]*Damage),
		shields:      make(map[EntityID]*Shield),
		hitCooldowns: make(map[EntityID]*Timer),
		controllers:  make(map[EntityID]*ShieldController),
	}
}

// Spawn creates an entity from b and returns its id
func (w *World) Spawn(b Bundle) EntityID {
	w.nextID++
	id := w.nextID
	w.order = append(w.order, id)

	w.factions[id] = b.Faction
	tf := b.Transform
	if tf.Scale == 0 {
		tf.Scale = 1
	}
	w.transforms[id] = &tf
	if b.Moving {
		v, a, s := b.Velocity, b.Acceleration, b.Spin
		w.velocities[id] = &v
		w.accels[id] = &a
		w.spins[id] = &s
	}
	if b.Radius > 0 {
		w.colliders[id] = NewCollider(b.Radius)
	}
	if b.Health > 0 {
		w.healths[id] = &Health{Value: b.Health}
	}
	if b.Damage > 0 {
		w.damages[id] = &Damage{Amount: b.Damage}
	}
	return id
}

// Despawn removes an entity and all of its components. Unknown ids are ignored.
func (w *World) Despawn(id EntityID) {
	if _, ok := w.transforms[id]; !ok {
		return
	}
	for i, e := range w.order {
		if e == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	delete(w.factions, id)
	delete(w.transforms, id)
	delete(w.velocities, id)
	delete(w.accels, id)
	delete(w.spins, id)
	delete(w.colliders, id)
	delete(w.healths, id)
	delete(w.damages, id)
	delete(w.shields, id)
	delete(w.hitCooldowns, id)
	delete(w.controllers, id)
}

func (w *World) Alive(id EntityID) bool {
	_, ok := w.transforms[id]
	return ok
}

// Len returns the number of live entities
func (w *World) Len() int { return len(w.order) }

// Entities returns a copy of the live ids, ascending
func (w *World) Entities() []EntityID {
	out := make([]EntityID, len(w.order))
	copy(out, w.order)
	return out
}

// WithFaction returns the live ids carrying tag f, ascending
func (w *World) WithFaction(f Faction) []EntityID {
	var out []EntityID
	for _, id := range w.order {
		if w.factions[id] == f {
			out = append(out, id)
		}
	}
	return out
}

// Count returns how many live entities carry tag f
func (w *World) Count(f Faction) int {
	n := 0
	for _, id := range w.order {
		if w.factions[id] == f {
			n++
		}
	}
	return n
}

// Faction returns the tag of id, FactionNone if it has none or is gone
func (w *World) Faction(id EntityID) Faction { return w.factions[id] }

func (w *World) Transform(id EntityID) *Transform { return w.transforms[id] }
func (w *World) Velocity(id EntityID) *Vec3 { return w.velocities[id] }
func (w *World) Acceleration(id EntityID) *Vec3 { return w.accels[id] }
func (w *World) Spin(id EntityID) *Spin { return w.spins[id] }
func (w *World) Collider(id EntityID) *Collider { return w.colliders[id] }
func (w *World) Health(id EntityID) *Health { return w.healths[id] }
func (w *World) Damage(id EntityID) *Damage { return w.damages[id] }
func (w *World) Shield(id EntityID) *Shield { return w.shields[id] }
func (w *World) HitCooldown(id EntityID) *Timer { return w.hitCooldowns[id] }
func (w *World) Controller(id EntityID) *ShieldController { return w.controllers[id] }

// AttachShield marks id as a shield raised by craft, gated by a hit cooldown
func (w *World) AttachShield(id, craft EntityID, hitCooldown *Timer) {
	if !w.Alive(id) {
		return
	}
	w.shields[id] = &Shield{Craft: craft}
	if hitCooldown != nil {
		w.hitCooldowns[id] = hitCooldown
	}
}

// AttachController gives a craft its shield controller
func (w *World) AttachController(id EntityID, c *ShieldController) {
	if !w.Alive(id) {
		return
	}
	w.controllers[id] = c
}

// Shields returns the live shield entity ids, ascending
func (w *World) Shields() []EntityID {
	var out []EntityID
	for _, id := range w.order {
		if _, ok := w.shields[id]; ok {
			out = append(out, id)
		}
	}
	return out
}
