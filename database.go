package main

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
}

// PilotRow is a registered pilot account
type PilotRow struct {
	ID        int64
	Username  string
	PassHash  string
	Best      int
	CreatedAt time.Time
}

// RunRow is one finished run. PilotID is 0 for guests.
type RunRow struct {
	RunID     string
	SessionID string
	PilotID   int64
	Score     int
	Level     int
	Duration  time.Duration
	CreatedAt time.Time
}

// ScoreEntry is one row of the high score table
type ScoreEntry struct {
	Rank     int     `json:"rank"`
	Pilot    string  `json:"pilot"`
	Score    int     `json:"score"`
	Level    int     `json:"level"`
	Duration float64 `json:"duration"` // seconds
}

// OpenDB opens (or creates) the SQLite database
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	// analytics writes alongside the arena loops
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates tables if they don't exist
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS pilots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		pass_hash TEXT NOT NULL DEFAULT '',
		best INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL DEFAULT '',
		pilot_id INTEGER REFERENCES pilots(id),
		score INTEGER NOT NULL DEFAULT 0,
		level INTEGER NOT NULL DEFAULT 1,
		duration REAL NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS analytics_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_type TEXT NOT NULL,
		player_id INTEGER,
		session_id TEXT,
		data TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_pilot ON runs(pilot_id);
	CREATE INDEX IF NOT EXISTS idx_runs_score ON runs(score DESC);
	CREATE INDEX IF NOT EXISTS idx_events_type ON analytics_events(event_type, created_at);
	`
	_, err := db.conn.Exec(schema)
	if err != nil {
		log.Printf("DB migration error: %v", err)
	}
	return err
}

// CreatePilot creates a new pilot account and returns its id
func (db *DB) CreatePilot(username, passHash string) (int64, error) {
	res, err := db.conn.Exec(
		"INSERT INTO pilots (username, pass_hash) VALUES (?, ?)",
		username, passHash,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetPilotByUsername returns a pilot, or nil if there is none
func (db *DB) GetPilotByUsername(username string) (*PilotRow, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, pass_hash, best, created_at FROM pilots WHERE username = ?",
		username,
	)
	p := &PilotRow{}
	err := row.Scan(&p.ID, &p.Username, &p.PassHash, &p.Best, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// GetPilotByID returns a pilot, or nil if there is none
func (db *DB) GetPilotByID(id int64) (*PilotRow, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, pass_hash, best, created_at FROM pilots WHERE id = ?",
		id,
	)
	p := &PilotRow{}
	err := row.Scan(&p.ID, &p.Username, &p.PassHash, &p.Best, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// UsernameExists checks if a username is taken
func (db *DB) UsernameExists(username string) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM pilots WHERE username = ?", username).Scan(&count)
	return count > 0, err
}

// RecordRun stores a finished run and raises the pilot's best score. Both
// writes share one transaction.
func (db *DB) RecordRun(r RunRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	pilot := sql.NullInt64{Int64: r.PilotID, Valid: r.PilotID > 0}
	_, err = tx.Exec(
		"INSERT INTO runs (run_id, session_id, pilot_id, score, level, duration) VALUES (?, ?, ?, ?, ?, ?)",
		r.RunID, r.SessionID, pilot, r.Score, r.Level, r.Duration.Seconds(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	if pilot.Valid {
		_, err = tx.Exec("UPDATE pilots SET best = MAX(best, ?) WHERE id = ?", r.Score, r.PilotID)
		if err != nil {
			return fmt.Errorf("update best: %w", err)
		}
	}
	return tx.Commit()
}

// BestScore returns the stored best for a pilot, or the best guest run
// when pilotID is 0.
func (db *DB) BestScore(pilotID int64) (int, error) {
	var best sql.NullInt64
	var err error
	if pilotID > 0 {
		err = db.conn.QueryRow("SELECT best FROM pilots WHERE id = ?", pilotID).Scan(&best)
	} else {
		err = db.conn.QueryRow("SELECT MAX(score) FROM runs WHERE pilot_id IS NULL").Scan(&best)
	}
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return int(best.Int64), err
}

// TopScores returns the best runs, highest first
func (db *DB) TopScores(limit int) ([]ScoreEntry, error) {
	rows, err := db.conn.Query(`
		SELECT COALESCE(p.username, 'guest'), r.score, r.level, r.duration
		FROM runs r LEFT JOIN pilots p ON p.id = r.pilot_id
		ORDER BY r.score DESC, r.created_at ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]ScoreEntry, 0, limit)
	rank := 1
	for rows.Next() {
		var e ScoreEntry
		if err := rows.Scan(&e.Pilot, &e.Score, &e.Level, &e.Duration); err != nil {
			return nil, err
		}
		e.Rank = rank
		rank++
		result = append(result, e)
	}
	return result, rows.Err()
}

// RunsForPilot returns a pilot's most recent runs
func (db *DB) RunsForPilot(pilotID int64, limit int) ([]RunRow, error) {
	rows, err := db.conn.Query(`
		SELECT run_id, session_id, score, level, duration, created_at
		FROM runs WHERE pilot_id = ?
		ORDER BY created_at DESC, run_id DESC
		LIMIT ?`, pilotID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []RunRow
	for rows.Next() {
		r := RunRow{PilotID: pilotID}
		var secs float64
		if err := rows.Scan(&r.RunID, &r.SessionID, &r.Score, &r.Level, &secs, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Duration = time.Duration(secs * float64(time.Second))
		result = append(result, r)
	}
	return result, rows.Err()
}

// GetSetting returns a stored value, or "" when unset
func (db *DB) GetSetting(key string) string {
	var v string
	if err := db.conn.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&v); err != nil {
		return ""
	}
	return v
}

func (db *DB) SetSetting(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}
