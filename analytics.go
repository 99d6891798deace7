package main

import (
	"database/sql"
	"encoding/json"
	"log"
	"sync"
	"time"
)

// Event types for analytics tracking
const (
	EvtSessionStart = "session_start"
	EvtSessionEnd   = "session_end"
	EvtRunStart     = "run_start"
	EvtWave         = "wave"
	EvtBossWave     = "boss_wave"
	EvtSaucer       = "saucer"
	EvtGameOver     = "game_over"
	EvtLogin        = "login"
)

const (
	analyticsQueueSize = 1024
	analyticsBatchSize = 50
	analyticsFlushRate = 5 * time.Second
)

// AnalyticsEvent is a single trackable event
type AnalyticsEvent struct {
	Type      string
	PlayerID  int64
	SessionID string
	Data      string // JSON metadata (optional)
	Timestamp time.Time
}

// Analytics records events with batched background writes
type Analytics struct {
	db     *DB
	events chan AnalyticsEvent
	stop   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup

	mu              sync.RWMutex
	concurrentPeers int
	activeSessions  int
}

// NewAnalytics starts the background writer. A nil db keeps the live
// metrics and drops the events.
func NewAnalytics(db *DB) *Analytics {
	a := &Analytics{
		db:     db,
		events: make(chan AnalyticsEvent, analyticsQueueSize),
		stop:   make(chan struct{}),
	}
	a.wg.Add(1)
	go a.writer(analyticsFlushRate)
	return a
}

// Track enqueues an event without blocking. data, if non-nil, is stored
// as JSON.
func (a *Analytics) Track(evtType string, playerID int64, sessionID string, data interface{}) {
	if a == nil {
		return
	}
	var meta string
	if data != nil {
		if b, err := json.Marshal(data); err == nil {
			meta = string(b)
		}
	}
	select {
	case a.events <- AnalyticsEvent{
		Type:      evtType,
		PlayerID:  playerID,
		SessionID: sessionID,
		Data:      meta,
		Timestamp: time.Now().UTC(),
	}:
	default:
		// queue full, drop rather than stall an arena tick
	}
}

// TrackNotes turns the notifications of one tick into run events
func (a *Analytics) TrackNotes(pilotID int64, sessionID string, notes []Notification) {
	for _, n := range notes {
		switch n.Kind {
		case NoteWave:
			evt := EvtWave
			if n.Boss {
				evt = EvtBossWave
			}
			a.Track(evt, pilotID, sessionID, map[string]int{"level": n.Level})
		case NoteSaucerSpawned:
			a.Track(EvtSaucer, pilotID, sessionID, nil)
		case NoteGameOver:
			a.Track(EvtGameOver, pilotID, sessionID, map[string]int{"score": n.Score, "level": n.Level})
		}
	}
}

func (a *Analytics) SetConcurrentPeers(n int) {
	if a == nil {
		return
	}
	a.mu.Lock()
	a.concurrentPeers = n
	a.mu.Unlock()
}

func (a *Analytics) SetActiveSessions(n int) {
	if a == nil {
		return
	}
	a.mu.Lock()
	a.activeSessions = n
	a.mu.Unlock()
}

// LiveMetrics returns (connected peers, active sessions)
func (a *Analytics) LiveMetrics() (int, int) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.concurrentPeers, a.activeSessions
}

// Stop flushes what is queued and shuts the writer down
func (a *Analytics) Stop() {
	a.once.Do(func() { close(a.stop) })
	a.wg.Wait()
}

func (a *Analytics) writer(every time.Duration) {
	defer a.wg.Done()

	batch := make([]AnalyticsEvent, 0, analyticsBatchSize)
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case evt := <-a.events:
			batch = append(batch, evt)
			if len(batch) >= analyticsBatchSize {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-a.stop:
			for {
				select {
				case evt := <-a.events:
					batch = append(batch, evt)
				default:
					a.flush(batch)
					return
				}
			}
		}
	}
}

// flush writes a batch of events in one transaction
func (a *Analytics) flush(events []AnalyticsEvent) {
	if a.db == nil || len(events) == 0 {
		return
	}
	tx, err := a.db.conn.Begin()
	if err != nil {
		log.Printf("analytics: begin tx error: %v", err)
		return
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO analytics_events (event_type, player_id, session_id, data, created_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		log.Printf("analytics: prepare error: %v", err)
		return
	}
	defer stmt.Close()

	for _, evt := range events {
		pid := sql.NullInt64{Int64: evt.PlayerID, Valid: evt.PlayerID > 0}
		sid := sql.NullString{String: evt.SessionID, Valid: evt.SessionID != ""}
		data := sql.NullString{String: evt.Data, Valid: evt.Data != ""}
		if _, err := stmt.Exec(evt.Type, pid, sid, data, evt.Timestamp.Format(time.RFC3339)); err != nil {
			log.Printf("analytics: insert error: %v", err)
		}
	}
	if err := tx.Commit(); err != nil {
		log.Printf("analytics: commit error: %v", err)
	}
}

// EventCounts returns counts of each event type for the last N days
func (a *Analytics) EventCounts(days int) (map[string]int, error) {
	if a.db == nil {
		return map[string]int{}, nil
	}
	rows, err := a.db.conn.Query(`
		SELECT event_type, COUNT(*) FROM analytics_events
		WHERE created_at >= date('now', '-' || ? || ' days')
		GROUP BY event_type ORDER BY COUNT(*) DESC
	`, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var evtType string
		var count int
		if err := rows.Scan(&evtType, &count); err != nil {
			continue
		}
		result[evtType] = count
	}
	return result, rows.Err()
}

// DeepestLevel returns the highest level any run reached in the last N days
func (a *Analytics) DeepestLevel(days int) (int, error) {
	if a.db == nil {
		return 0, nil
	}
	var level sql.NullInt64
	err := a.db.conn.QueryRow(`
		SELECT MAX(CAST(json_extract(data, '$.level') AS INTEGER)) FROM analytics_events
		WHERE event_type IN (?, ?) AND json_valid(data)
			AND created_at >= date('now', '-' || ? || ' days')
	`, EvtWave, EvtBossWave, days).Scan(&level)
	return int(level.Int64), err
}
