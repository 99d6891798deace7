package main

import (
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

const maxSpectatorsPerArena = 20

// Broadcaster sends messages to one connected client
type Broadcaster interface {
	SendJSON(msg interface{})
	SendBinary(data []byte)
}

// Role is how a client takes part in an arena
type Role string

const (
	RolePilot      Role = "pilot"
	RoleSpectator  Role = "spectator"
	RoleController Role = "controller"
)

type member struct {
	name   string
	role   Role
	authID int64
	client Broadcaster
}

// Arena runs one Game on its own ticker and fans its output out to the
// session's clients. The pilot's intents drive the craft; spectators only
// watch.
type Arena struct {
	mu        sync.Mutex
	sessionID string
	cfg       Config
	game      *Game
	field     Bounds
	pending   Intents
	members   map[string]*member
	pilotID   string
	runID     string
	runAuth   int64 // pilot account the current run belongs to, 0 for guests
	stopped   bool
	stop      chan struct{}

	db        *DB
	analytics *Analytics
}

// NewArena builds an arena for a session. db and analytics may be nil.
func NewArena(sessionID string, cfg Config, db *DB, analytics *Analytics) *Arena {
	return &Arena{
		sessionID: sessionID,
		cfg:       cfg,
		game:      NewGame(cfg, rand.New(rand.NewSource(time.Now().UnixNano()))),
		field:     cfg.Bounds(),
		members:   make(map[string]*member),
		runID:     GenerateID(),
		stop:      make(chan struct{}),
		db:        db,
		analytics: analytics,
	}
}

// Run drives the tick loop until Stop
func (a *Arena) Run() {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	a.mu.Unlock()

	ticker := time.NewTicker(a.cfg.TickDuration())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.tick()
		case <-a.stop:
			return
		}
	}
}

// Stop ends the loop. It is safe to call before Run or more than once.
func (a *Arena) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	a.stopped = true
	close(a.stop)
}

// Join adds a client. The first client with no pilot present pilots the
// craft and starts a fresh run; everyone else spectates. It returns the
// role given, or "" when the arena is full.
func (a *Arena) Join(clientID, name string, authID int64, c Broadcaster) Role {
	a.mu.Lock()
	defer a.mu.Unlock()

	role := RoleSpectator
	if a.pilotID == "" {
		role = RolePilot
	} else if a.spectatorsLocked() >= maxSpectatorsPerArena {
		return ""
	}
	a.members[clientID] = &member{name: name, role: role, authID: authID, client: c}
	if role == RolePilot {
		a.pilotID = clientID
		a.newRunLocked(authID)
		a.analytics.Track(EvtRunStart, authID, a.sessionID, nil)
	}
	return role
}

// AttachController lets a second device steer for the pilot
func (a *Arena) AttachController(clientID string, c Broadcaster) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pilotID == "" {
		return false
	}
	a.members[clientID] = &member{role: RoleController, client: c}
	return true
}

// Leave removes a client. A departing pilot frees the seat for the next
// joiner and the craft coasts on empty intents until then.
func (a *Arena) Leave(clientID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.members, clientID)
	if a.pilotID == clientID {
		a.pilotID = ""
		a.pending = Intents{}
	}
}

// MemberCount returns the number of attached clients of any role
func (a *Arena) MemberCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.members)
}

// HandleInput merges intents from the pilot or a controller; anyone else
// is ignored.
func (a *Arena) HandleInput(clientID string, in Intents) {
	a.mu.Lock()
	defer a.mu.Unlock()
	m, ok := a.members[clientID]
	if !ok || (m.role != RolePilot && m.role != RoleController) {
		return
	}
	a.pending = a.pending.Merge(in)
}

// Info summarizes the arena for the session list
func (a *Arena) Info() (pilot string, spectators, level, score int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if p, ok := a.members[a.pilotID]; ok {
		pilot = p.name
	}
	return pilot, a.spectatorsLocked(), a.game.Globals.Level, a.game.Globals.Score
}

func (a *Arena) spectatorsLocked() int {
	n := 0
	for _, m := range a.members {
		if m.role == RoleSpectator {
			n++
		}
	}
	return n
}

// newRunLocked hands the arena to a new pilot: a fresh game whose high
// score is that pilot's stored best, under a new run id
func (a *Arena) newRunLocked(authID int64) {
	fresh := NewGame(a.cfg, a.game.rng)
	fresh.Ticks = a.game.Ticks
	a.game = fresh
	a.pending = Intents{}
	a.runID = GenerateID()
	a.runAuth = authID
	a.seedHighScoreLocked(authID)
}

func (a *Arena) seedHighScoreLocked(authID int64) {
	if a.db == nil {
		return
	}
	best, err := a.db.BestScore(authID)
	if err != nil {
		log.Printf("arena %s: load best score: %v", a.sessionID, err)
		return
	}
	a.game.SeedHighScore(best)
}

// tick advances the game once, then broadcasts events and, at the
// broadcast rate, a state frame.
func (a *Arena) tick() {
	a.mu.Lock()
	in := a.pending
	// held controls persist until the next input; edges fire once
	a.pending = Intents{Thrust: in.Thrust, Turn: in.Turn, Roll: in.Roll, Fire: in.Fire}

	notes := a.game.Step(a.cfg.TickDuration(), in, a.field)
	tick := a.game.Ticks

	var finished *RunRow
	runAuth := a.runAuth
	for _, n := range notes {
		if n.Kind == NoteGameOver {
			finished = &RunRow{
				RunID:     a.runID,
				SessionID: a.sessionID,
				PilotID:   runAuth,
				Score:     n.Score,
				Level:     n.Level,
				Duration:  a.game.RunTime,
			}
			a.runID = GenerateID()
		}
	}

	var frame []byte
	every := uint64(a.cfg.Server.TickRate / a.cfg.Server.BroadcastRate)
	if every == 0 || tick%every == 0 {
		data, err := msgpack.Marshal(BuildFrame(a.game))
		if err != nil {
			log.Printf("arena %s: encode frame: %v", a.sessionID, err)
		} else {
			frame = data
		}
	}
	clients := make([]Broadcaster, 0, len(a.members))
	for _, m := range a.members {
		clients = append(clients, m.client)
	}
	a.mu.Unlock()

	if len(notes) > 0 {
		a.analytics.TrackNotes(runAuth, a.sessionID, notes)
		env := Envelope{T: MsgEvent, Data: EventMsg{Tick: tick, Notes: notes}}
		for _, c := range clients {
			c.SendJSON(env)
		}
	}
	if frame != nil {
		for _, c := range clients {
			c.SendBinary(frame)
		}
	}
	if finished != nil {
		a.recordRun(*finished)
	}
}

func (a *Arena) recordRun(r RunRow) {
	log.Printf("arena %s: run %s over, score %d level %d", a.sessionID, r.RunID, r.Score, r.Level)
	if a.db == nil {
		return
	}
	if err := a.db.RecordRun(r); err != nil {
		log.Printf("arena %s: record run: %v", a.sessionID, err)
	}
}
