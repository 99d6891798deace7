package main

import (
	"cmp"
	"log"
	"slices"
	"sync"
	"time"
)

// a client may hold this many sessions that nobody has joined yet
const maxIdleSessionsPerClient = 2

// Session is one named arena that clients can join
type Session struct {
	ID    string
	Name  string
	Arena *Arena
	seq   uint64

	// owner is the client that created the session; lastActive moves on
	// create and join
	owner      string
	lastActive time.Time
}

// SessionManager handles creation and lookup of sessions
type SessionManager struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	cfg       Config
	db        *DB
	analytics *Analytics
	created   uint64
}

func NewSessionManager(cfg Config, db *DB, analytics *Analytics) *SessionManager {
	return &SessionManager{
		sessions:  make(map[string]*Session),
		cfg:       cfg,
		db:        db,
		analytics: analytics,
	}
}

// CreateSession starts a new arena on behalf of owner. Returns nil if the
// server limit is reached or owner already holds too many unjoined sessions.
// An empty owner is not counted against any client.
func (sm *SessionManager) CreateSession(name, owner string) *Session {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if len(sm.sessions) >= sm.cfg.Server.MaxSessions {
		return nil
	}
	if owner != "" && sm.idleOwnedLocked(owner) >= maxIdleSessionsPerClient {
		return nil
	}

	id := GenerateID()
	sm.created++
	sess := &Session{
		ID:    id,
		Name:  name,
		Arena: NewArena(id, sm.cfg, sm.db, sm.analytics),
		seq:   sm.created,

		owner:      owner,
		lastActive: time.Now(),
	}
	sm.sessions[id] = sess
	go sess.Arena.Run()

	sm.analytics.Track(EvtSessionStart, 0, id, map[string]string{"name": name})
	sm.analytics.SetActiveSessions(len(sm.sessions))
	return sess
}

func (sm *SessionManager) GetSession(id string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[id]
}

func (sm *SessionManager) idleOwnedLocked(owner string) int {
	n := 0
	for _, sess := range sm.sessions {
		if sess.owner == owner && sess.Arena.MemberCount() == 0 {
			n++
		}
	}
	return n
}

// MarkActive refreshes a session's idle clock
func (sm *SessionManager) MarkActive(id string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sess, ok := sm.sessions[id]; ok {
		sess.lastActive = time.Now()
	}
}

// Leave detaches a client from a session and closes the session once
// nobody is left in it.
func (sm *SessionManager) Leave(sessionID, clientID string) {
	sm.mu.RLock()
	sess, ok := sm.sessions[sessionID]
	sm.mu.RUnlock()
	if !ok {
		return
	}
	sess.Arena.Leave(clientID)
	if sess.Arena.MemberCount() > 0 {
		return
	}

	sm.close(sess)
}

// Abandon closes the sessions owner created that nobody joined, once the
// owner disconnects
func (sm *SessionManager) Abandon(owner string) {
	sm.mu.RLock()
	var orphans []*Session
	for _, sess := range sm.sessions {
		if sess.owner == owner && sess.Arena.MemberCount() == 0 {
			orphans = append(orphans, sess)
		}
	}
	sm.mu.RUnlock()

	for _, sess := range orphans {
		sm.close(sess)
	}
}

// ReapIdle closes empty sessions that have been idle for at least idle and
// returns how many went
func (sm *SessionManager) ReapIdle(idle time.Duration) int {
	cutoff := time.Now().Add(-idle)
	sm.mu.RLock()
	var stale []*Session
	for _, sess := range sm.sessions {
		if sess.Arena.MemberCount() == 0 && !sess.lastActive.After(cutoff) {
			stale = append(stale, sess)
		}
	}
	sm.mu.RUnlock()

	for _, sess := range stale {
		log.Printf("session %s: idle, closing", sess.ID)
		sm.close(sess)
	}
	return len(stale)
}

func (sm *SessionManager) close(sess *Session) {
	sess.Arena.Stop()
	sm.mu.Lock()
	if sm.sessions[sess.ID] != sess {
		sm.mu.Unlock()
		return
	}
	delete(sm.sessions, sess.ID)
	n := len(sm.sessions)
	sm.mu.Unlock()

	sm.analytics.Track(EvtSessionEnd, 0, sess.ID, nil)
	sm.analytics.SetActiveSessions(n)
}

// ListSessions returns info about all active sessions, oldest first
func (sm *SessionManager) ListSessions() []SessionInfo {
	sm.mu.RLock()
	sessions := make([]*Session, 0, len(sm.sessions))
	for _, sess := range sm.sessions {
		sessions = append(sessions, sess)
	}
	sm.mu.RUnlock()

	slices.SortFunc(sessions, func(a, b *Session) int { return cmp.Compare(a.seq, b.seq) })

	list := make([]SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		pilot, spectators, level, score := sess.Arena.Info()
		list = append(list, SessionInfo{
			ID:         sess.ID,
			Name:       sess.Name,
			Pilot:      pilot,
			Spectators: spectators,
			Level:      level,
			Score:      score,
		})
	}
	return list
}

// Count returns the number of live sessions
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// StopAll halts every arena loop, for shutdown
func (sm *SessionManager) StopAll() {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	for _, sess := range sm.sessions {
		sess.Arena.Stop()
	}
}
