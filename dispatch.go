package main

// Faction tags what side an entity fights on. Entities of the same faction
// never generate combat events against each other.
type Faction uint8

const (
	FactionNone Faction = iota
	FactionAsteroid
	FactionShield
	FactionCraft
	FactionCraftMissile
	FactionSaucer
	FactionSaucerMissile
)

// DispatchOrder is the order factions are walked when turning overlaps into
// combat events. It fixes which of two complementary events resolves first.
var DispatchOrder = []Faction{
	FactionAsteroid,
	FactionShield,
	FactionCraft,
	FactionCraftMissile,
	FactionSaucer,
	FactionSaucerMissile,
}

var factionNames = map[Faction]string{
	FactionNone:          "none",
	FactionAsteroid:      "asteroid",
	FactionShield:        "shield",
	FactionCraft:         "craft",
	FactionCraftMissile:  "craft_missile",
	FactionSaucer:        "saucer",
	FactionSaucerMissile: "saucer_missile",
}

func (f Faction) String() string {
	if s, ok := factionNames[f]; ok {
		return s
	}
	return "unknown"
}

// IsProjectile reports whether f is removed, rather than wrapped, at the
// field edge.
func (f Faction) IsProjectile() bool {
	return f == FactionCraftMissile || f == FactionSaucerMissile
}

// Wraps reports whether f re-enters from the opposite field edge
func (f Faction) Wraps() bool {
	return f == FactionCraft || f == FactionAsteroid
}

// CombatEvent is one contact as seen from the victim's side
type CombatEvent struct {
	Victim EntityID
	Source EntityID
}

// DispatchCollisions walks every faction in DispatchOrder, each entity of
// that faction by ascending id, and each entry of its overlap set, and emits
// one event per contact with an entity of a different faction.
func DispatchCollisions(w *World) []CombatEvent {
	var events []CombatEvent
	for _, f := range DispatchOrder {
		for _, victim := range w.WithFaction(f) {
			c := w.Collider(victim)
			if c == nil {
				continue
			}
			for _, src := range c.Overlaps {
				if w.Faction(src) == f {
					continue
				}
				events = append(events, CombatEvent{Victim: victim, Source: src})
			}
		}
	}
	return events
}
