package main

import "encoding/json"

// Client -> Server message types
const (
	MsgList     = "list"    // list sessions
	MsgCreate   = "create"  // create session
	MsgJoin     = "join"    // pilot or spectate
	MsgInput    = "input"   // intents
	MsgLeave    = "leave"
	MsgControl  = "control" // phone controller attach
	MsgRegister = "register"
	MsgLogin    = "login"
	MsgAuth     = "auth"   // resume with a token
	MsgScores   = "scores" // top runs
)

// Server -> Client message types
const (
	MsgState     = "state" // binary msgpack StateFrame
	MsgSessions  = "sessions"
	MsgCreated   = "created"
	MsgJoined    = "joined"
	MsgError     = "error"
	MsgEvent     = "event" // notifications raised during a tick
	MsgAuthOK    = "auth_ok"
	MsgControlOK = "control_ok"
)

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages; RawMessage defers the payload decode
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

type JoinMsg struct {
	Name      string `json:"name"`
	SessionID string `json:"sid"`
}

type CreateMsg struct {
	Name        string `json:"name"`
	SessionName string `json:"sname"`
}

// JoinedMsg confirms a join. Role is "pilot" or "spectator".
type JoinedMsg struct {
	SID  string `json:"sid"`
	ID   string `json:"id"`
	Role string `json:"role"`
}

type SessionInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Pilot      string `json:"pilot"`
	Spectators int    `json:"spectators"`
	Level      int    `json:"level"`
	Score      int    `json:"score"`
}

type ErrorMsg struct {
	Msg string `json:"msg"`
}

// ControlMsg attaches a phone controller to a session's pilot
type ControlMsg struct {
	SID string `json:"sid"`
}

type RegisterMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthMsg struct {
	Token string `json:"token"`
}

type AuthOKMsg struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	PlayerID int64  `json:"pid"`
	Best     int    `json:"best"`
}

// EventMsg carries one tick's notifications in emission order
type EventMsg struct {
	Tick  uint64         `json:"tick"`
	Notes []Notification `json:"notes"`
}

// EntityState is one entity in a StateFrame
type EntityState struct {
	ID     EntityID `msgpack:"id"`
	Kind   string   `msgpack:"k"`
	X      float64  `msgpack:"x"`
	Z      float64  `msgpack:"z"`
	Yaw    float64  `msgpack:"yaw"`
	Pitch  float64  `msgpack:"pitch,omitempty"`
	Roll   float64  `msgpack:"roll,omitempty"`
	Radius float64  `msgpack:"r,omitempty"`
	Health float64  `msgpack:"hp,omitempty"`
}

// StateFrame is the full snapshot broadcast as a binary msgpack message
type StateFrame struct {
	Tick           uint64        `msgpack:"tick"`
	State          string        `msgpack:"state"`
	Score          int           `msgpack:"score"`
	HighScore      int           `msgpack:"hi"`
	LastScore      int           `msgpack:"last"`
	Level          int           `msgpack:"lvl"`
	Shield         string        `msgpack:"shield"`
	ShieldCooldown float64       `msgpack:"shield_cd"` // seconds
	Entities       []EntityState `msgpack:"e"`
}

// BuildFrame snapshots g. The caller holds whatever lock guards g.
func BuildFrame(g *Game) StateFrame {
	shield, cd := g.ShieldStatus()
	w := g.World
	frame := StateFrame{
		Tick:           g.Ticks,
		State:          g.State.String(),
		Score:          g.Globals.Score,
		HighScore:      g.Globals.HighScore,
		LastScore:      g.Globals.LastScore,
		Level:          g.Globals.Level,
		Shield:         shield.String(),
		ShieldCooldown: cd.Seconds(),
		Entities:       make([]EntityState, 0, w.Len()),
	}
	for _, id := range w.Entities() {
		tf := w.Transform(id)
		es := EntityState{
			ID:    id,
			Kind:  w.Faction(id).String(),
			X:     tf.Position.X,
			Z:     tf.Position.Z,
			Yaw:   tf.Yaw,
			Pitch: tf.Pitch,
			Roll:  tf.Roll,
		}
		if c := w.Collider(id); c != nil {
			es.Radius = c.Radius()
		}
		if h := w.Health(id); h != nil {
			es.Health = h.Value
		}
		frame.Entities = append(frame.Entities, es)
	}
	return frame
}

// Binary input: [0x01, flags, axes]
//
//	flags: bit0 fire, bit1 shield, bit2 pause, bit3 restart
//	axes:  two bits each for thrust, turn, roll (0 none, 1 positive, 2 negative)
const (
	binInputTag  = 0x01
	binInputSize = 3

	flagFire    = 0x01
	flagShield  = 0x02
	flagPause   = 0x04
	flagRestart = 0x08
)

// EncodeBinaryInput packs intents into the compact binary form
func EncodeBinaryInput(in Intents) []byte {
	var flags byte
	if in.Fire {
		flags |= flagFire
	}
	if in.Shield {
		flags |= flagShield
	}
	if in.Pause {
		flags |= flagPause
	}
	if in.Restart {
		flags |= flagRestart
	}
	axes := packAxis(in.Thrust) | packAxis(in.Turn)<<2 | packAxis(in.Roll)<<4
	return []byte{binInputTag, flags, axes}
}

// DecodeBinaryInput unpacks a binary input message. ok is false when msg
// is not one.
func DecodeBinaryInput(msg []byte) (in Intents, ok bool) {
	if len(msg) != binInputSize || msg[0] != binInputTag {
		return Intents{}, false
	}
	flags, axes := msg[1], msg[2]
	return Intents{
		Thrust:  unpackAxis(axes),
		Turn:    unpackAxis(axes >> 2),
		Roll:    unpackAxis(axes >> 4),
		Fire:    flags&flagFire != 0,
		Shield:  flags&flagShield != 0,
		Pause:   flags&flagPause != 0,
		Restart: flags&flagRestart != 0,
	}, true
}

func packAxis(v int) byte {
	switch clampAxis(v) {
	case 1:
		return 1
	case -1:
		return 2
	}
	return 0
}

func unpackAxis(b byte) int {
	switch b & 0x03 {
	case 1:
		return 1
	case 2:
		return -1
	}
	return 0
}
