package main

// Verdict is the outcome of resolving one combat event. Every value other
// than Applied names the guard that stopped the event.
type Verdict int

const (
	Applied Verdict = iota
	SkipShieldedCraft
	SkipOwnShield
	SkipHitCooldown
	SkipNoHealth
	SkipHarmless
)

func (v Verdict) String() string {
	switch v {
	case Applied:
		return "applied"
	case SkipShieldedCraft:
		return "shielded_craft"
	case SkipOwnShield:
		return "own_shield"
	case SkipHitCooldown:
		return "hit_cooldown"
	case SkipNoHealth:
		return "no_health"
	case SkipHarmless:
		return "harmless"
	}
	return "unknown"
}

// combatGuard returns Applied to let the event through
type combatGuard func(w *World, ev CombatEvent) Verdict

// combatGuards run in this exact order; the first one that does not return
// Applied ends resolution for the event.
var combatGuards = []combatGuard{
	guardShieldedCraft,
	guardOwnShield,
	guardHitCooldown,
	guardHealth,
	guardDamage,
}

// A craft whose shield is up takes no hull damage.
func guardShieldedCraft(w *World, ev CombatEvent) Verdict {
	if w.Faction(ev.Victim) != FactionCraft {
		return Applied
	}
	if c := w.Controller(ev.Victim); c != nil && c.State == ShieldActive {
		return SkipShieldedCraft
	}
	return Applied
}

func guardOwnShield(w *World, ev CombatEvent) Verdict {
	if s := w.Shield(ev.Victim); s != nil && s.Craft == ev.Source {
		return SkipOwnShield
	}
	return Applied
}

// guardHitCooldown starts a fresh cooldown window when it lets a hit through.
func guardHitCooldown(w *World, ev CombatEvent) Verdict {
	t := w.HitCooldown(ev.Victim)
	if t == nil {
		return Applied
	}
	if !t.Finished() {
		return SkipHitCooldown
	}
	t.Reset()
	return Applied
}

func guardHealth(w *World, ev CombatEvent) Verdict {
	if w.Health(ev.Victim) == nil {
		return SkipNoHealth
	}
	return Applied
}

func guardDamage(w *World, ev CombatEvent) Verdict {
	if w.Damage(ev.Source) == nil {
		return SkipHarmless
	}
	return Applied
}

// ApplyDamage subtracts the source's contact damage from the victim.
// Health may go negative; removal is left to the lifecycle sweep.
func ApplyDamage(w *World, ev CombatEvent, out *outbox) {
	w.Health(ev.Victim).Value -= w.Damage(ev.Source).Amount
	out.emit(Notification{Kind: NoteCollision, Entity: ev.Victim})

	switch w.Faction(ev.Victim) {
	case FactionCraft, FactionCraftMissile:
	default:
		return
	}
	vel, acc := w.Velocity(ev.Source), w.Acceleration(ev.Source)
	if vel == nil || acc == nil {
		return
	}
	tf := *w.Transform(ev.Victim)
	out.emit(Notification{
		Kind:         NoteCollisionAnimation,
		Entity:       ev.Victim,
		Transform:    tf,
		Position:     tf.Position,
		Velocity:     *vel,
		Acceleration: *acc,
	})
}

// ResolveEvent runs one event through the guards and applies damage if
// every guard passes.
func ResolveEvent(w *World, ev CombatEvent, out *outbox) Verdict {
	for _, g := range combatGuards {
		if v := g(w, ev); v != Applied {
			return v
		}
	}
	ApplyDamage(w, ev, out)
	return Applied
}

// ResolveCombat resolves events in order. Damage stacks when several
// sources touch the same victim in one tick.
func ResolveCombat(w *World, events []CombatEvent, out *outbox) {
	for _, ev := range events {
		ResolveEvent(w, ev, out)
	}
}
