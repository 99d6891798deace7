package main

import "time"

// Intents is the logical input for one tick. Shield, Pause and Restart are
// edge-triggered: the host sets them only on the tick the key went down.
type Intents struct {
	Thrust  int  `json:"th"` // +1 forward, -1 reverse
	Turn    int  `json:"tu"` // +1 left, -1 right
	Roll    int  `json:"ro"`
	Fire    bool `json:"f"`
	Shield  bool `json:"s"`
	Pause   bool `json:"p"`
	Restart bool `json:"r"`
}

// Merge folds a newer sample into i. Held controls take the newer value;
// edge-triggered ones stay set until the tick consumes them.
func (i Intents) Merge(n Intents) Intents {
	return Intents{
		Thrust:  clampAxis(n.Thrust),
		Turn:    clampAxis(n.Turn),
		Roll:    clampAxis(n.Roll),
		Fire:    n.Fire,
		Shield:  i.Shield || n.Shield,
		Pause:   i.Pause || n.Pause,
		Restart: i.Restart || n.Restart,
	}
}

func clampAxis(v int) int {
	if v > 0 {
		return 1
	}
	if v < 0 {
		return -1
	}
	return 0
}

// SpawnCraft places a fresh player craft with a Ready shield controller
func SpawnCraft(w *World, cfg CraftConfig, shieldCooldown time.Duration) EntityID {
	id := w.Spawn(Bundle{
		Faction:   FactionCraft,
		Transform: Transform{Position: cfg.Start},
		Moving:    true,
		Velocity:  cfg.StartVelocity,
		Radius:    cfg.Radius,
		Health:    cfg.Health,
		Damage:    cfg.Damage,
	})
	w.AttachController(id, NewShieldController(shieldCooldown))
	return id
}

// CraftControls turns intents into craft steering and missile fire
type CraftControls struct {
	craft     CraftConfig
	missile   MissileConfig
	fireTimer *Timer
}

func NewCraftControls(craft CraftConfig, missile MissileConfig) *CraftControls {
	return &CraftControls{
		craft:     craft,
		missile:   missile,
		fireTimer: NewFinishedTimer(seconds(1 / missile.Rate)),
	}
}

// Steer yaws and rolls the craft and sets its thrust. Velocity carries
// over between ticks; releasing thrust only stops accelerating.
func (c *CraftControls) Steer(w *World, craft EntityID, in Intents, dt time.Duration) {
	tf, acc := w.Transform(craft), w.Acceleration(craft)
	if tf == nil || acc == nil {
		return
	}
	secs := dt.Seconds()
	tf.Yaw = NormalizeAngle(tf.Yaw + float64(clampAxis(in.Turn))*c.craft.RotationSpeed*secs)
	tf.Roll = NormalizeAngle(tf.Roll + float64(clampAxis(in.Roll))*c.craft.RollSpeed*secs)
	*acc = Heading(tf.Yaw).Scale(float64(clampAxis(in.Thrust)) * c.craft.Speed)
}

// Fire launches a missile when the trigger is held, the rate timer has run
// out and fewer than the allowed number of craft missiles are in flight.
// The rate timer advances even when there is no craft.
func (c *CraftControls) Fire(w *World, craft EntityID, in Intents, dt time.Duration, out *outbox) {
	c.fireTimer.Tick(dt)
	if !w.Alive(craft) || !in.Fire || !c.fireTimer.Finished() {
		return
	}
	if w.Count(FactionCraftMissile) >= c.missile.Max {
		return
	}
	c.fireTimer.Reset()
	id := SpawnCraftMissile(w, craft, c.missile)
	out.emit(Notification{Kind: NoteShooting, Entity: id})
}

// Reset readies the weapon for a new run
func (c *CraftControls) Reset() {
	c.fireTimer = NewFinishedTimer(seconds(1 / c.missile.Rate))
}
