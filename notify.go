package main

// NoteKind names a fire-and-forget notification raised by the simulation
// for audio, presentation and scoring observers.
type NoteKind string

const (
	NoteShooting           NoteKind = "shooting"
	NoteSaucerShooting     NoteKind = "saucer_shooting"
	NoteCollision          NoteKind = "collision"
	NoteCollisionAnimation NoteKind = "collision_anim"
	NoteShieldUp           NoteKind = "shield_up"
	NoteShieldDown         NoteKind = "shield_down"
	NoteShieldReady        NoteKind = "shield_ready"
	NoteWave               NoteKind = "wave"
	NoteSaucerSpawned      NoteKind = "saucer"
	NoteGameOver           NoteKind = "game_over"
)

// Notification carries the payload for one NoteKind. Fields a kind does not
// use stay zero.
type Notification struct {
	Kind   NoteKind `json:"k" msgpack:"k"`
	Entity EntityID `json:"e,omitempty" msgpack:"e,omitempty"`

	// collision animation
	Transform    Transform `json:"-" msgpack:"-"`
	Position     Vec3      `json:"p,omitempty" msgpack:"p,omitempty"`
	Velocity     Vec3      `json:"v,omitempty" msgpack:"v,omitempty"`
	Acceleration Vec3      `json:"a,omitempty" msgpack:"a,omitempty"`

	// wave
	Level int  `json:"lvl,omitempty" msgpack:"lvl,omitempty"`
	Boss  bool `json:"boss,omitempty" msgpack:"boss,omitempty"`

	// game over
	Score     int `json:"sc,omitempty" msgpack:"sc,omitempty"`
	HighScore int `json:"hi,omitempty" msgpack:"hi,omitempty"`
}

// outbox collects notifications in emission order for one tick
type outbox struct {
	notes []Notification
}

func (o *outbox) emit(n Notification) {
	o.notes = append(o.notes, n)
}

// drain hands back everything emitted since the last drain
func (o *outbox) drain() []Notification {
	out := o.notes
	o.notes = nil
	return out
}
