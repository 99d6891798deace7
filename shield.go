package main

import (
	"log"
	"time"
)

// ShieldState is where a craft's shield controller sits in its cycle
type ShieldState int

const (
	ShieldReady ShieldState = iota
	ShieldActive
	ShieldCooldown
)

func (s ShieldState) String() string {
	switch s {
	case ShieldReady:
		return "ready"
	case ShieldActive:
		return "active"
	case ShieldCooldown:
		return "cooldown"
	}
	return "unknown"
}

// ShieldController tracks one craft's shield: Ready -> Active on request,
// Active -> Cooldown when the shield entity dies or goes missing,
// Cooldown -> Ready when the timer runs out.
type ShieldController struct {
	State     ShieldState
	Cooldown  *Timer
	Requested bool // latched by input capture, consumed the same tick
}

func NewShieldController(cooldown time.Duration) *ShieldController {
	return &ShieldController{
		State:    ShieldReady,
		Cooldown: NewFinishedTimer(cooldown),
	}
}

// Request asks for the shield on the next intent pass
func (c *ShieldController) Request() { c.Requested = true }

func (c *ShieldController) enterCooldown() {
	c.State = ShieldCooldown
	c.Cooldown.Reset()
}

// ShieldSystem runs the shield controller and the shield entities it spawns
type ShieldSystem struct {
	cfg         ShieldConfig
	craftRadius float64
}

func NewShieldSystem(cfg ShieldConfig, craftRadius float64) *ShieldSystem {
	return &ShieldSystem{cfg: cfg, craftRadius: craftRadius}
}

// Radius is the collider radius of a raised shield
func (s *ShieldSystem) Radius() float64 {
	return s.craftRadius * s.cfg.RadiusScale
}

// HandleRequest consumes a pending activation request on the craft's
// controller. Only a Ready controller raises a shield.
func (s *ShieldSystem) HandleRequest(w *World, craft EntityID, out *outbox) {
	ctrl := w.Controller(craft)
	if ctrl == nil || !ctrl.Requested {
		return
	}
	ctrl.Requested = false

	switch ctrl.State {
	case ShieldReady:
		id := s.spawn(w, craft)
		ctrl.State = ShieldActive
		out.emit(Notification{Kind: NoteShieldUp, Entity: id})
		log.Printf("shield %d up for craft %d", id, craft)
	case ShieldActive:
		// TODO: second request should drop the shield early once a toggle is designed
		log.Printf("shield toggle TBD (craft %d)", craft)
	case ShieldCooldown:
	}
}

func (s *ShieldSystem) spawn(w *World, craft EntityID) EntityID {
	tf := *w.Transform(craft)
	tf.Scale = s.Radius()
	id := w.Spawn(Bundle{
		Faction:   FactionShield,
		Transform: tf,
		Radius:    s.Radius(),
		Health:    s.cfg.Health,
	})
	w.AttachShield(id, craft, NewFinishedTimer(seconds(s.cfg.HitCooldown)))
	return id
}

// Update advances every shield entity and the craft's controller by dt.
// craft may be NoEntity; shields whose craft is gone are removed.
func (s *ShieldSystem) Update(w *World, craft EntityID, dt time.Duration, out *outbox) {
	decay := s.cfg.DecayPerSec * dt.Seconds()

	for _, id := range w.Shields() {
		owner := w.Shield(id).Craft
		otf := w.Transform(owner)
		if otf == nil {
			w.Despawn(id)
			continue
		}

		tf := w.Transform(id)
		scale := tf.Scale
		*tf = *otf
		tf.Scale = scale

		w.HitCooldown(id).Tick(dt)
		w.Health(id).Value -= decay
	}

	for _, id := range w.Shields() {
		if w.Health(id).Value > 0 {
			continue
		}
		owner := w.Shield(id).Craft
		w.Despawn(id)
		out.emit(Notification{Kind: NoteShieldDown, Entity: id})
		if ctrl := w.Controller(owner); ctrl != nil && ctrl.State == ShieldActive {
			ctrl.enterCooldown()
			log.Printf("shield %d broken, craft %d cooling down", id, owner)
		}
	}

	ctrl := w.Controller(craft)
	if ctrl == nil {
		return
	}

	if ctrl.State == ShieldActive && !s.hasShield(w, craft) {
		ctrl.enterCooldown()
		log.Printf("craft %d shield missing while active, forcing cooldown", craft)
	}

	if ctrl.State == ShieldCooldown {
		ctrl.Cooldown.Tick(dt)
		if ctrl.Cooldown.Finished() {
			ctrl.State = ShieldReady
			out.emit(Notification{Kind: NoteShieldReady, Entity: craft})
			log.Printf("craft %d shield ready", craft)
		}
	}
}

func (s *ShieldSystem) hasShield(w *World, craft EntityID) bool {
	for _, id := range w.Shields() {
		if w.Shield(id).Craft == craft {
			return true
		}
	}
	return false
}
