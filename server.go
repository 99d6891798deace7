package main

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/skip2/go-qrcode"
)

const (
	qrSize      = 256
	statsDays   = 7
	recentRuns  = 20
	scoresLimit = 50
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Non-browser clients don't send Origin
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write json: %v", err)
	}
}

// PilotProfile is the body of GET /pilots/{id}
type PilotProfile struct {
	ID       int64        `json:"id"`
	Username string       `json:"username"`
	Best     int          `json:"best"`
	Online   bool         `json:"online"`
	Runs     []RunSummary `json:"runs"`
}

type RunSummary struct {
	RunID    string  `json:"run_id"`
	Score    int     `json:"score"`
	Level    int     `json:"level"`
	Duration float64 `json:"duration"`
}

// Stats is the body of GET /stats
type Stats struct {
	Clients      int            `json:"clients"`
	Peers        int            `json:"peers"`
	Sessions     int            `json:"sessions"`
	DeepestLevel int            `json:"deepest_level"`
	Events       map[string]int `json:"events"`
}

// SetupRoutes configures HTTP routes. clientDir, if set, is served at /.
func SetupRoutes(hub *Hub, clientDir string) *http.ServeMux {
	mux := http.NewServeMux()

	if clientDir != "" {
		fs := http.FileServer(http.Dir(clientDir))
		mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "no-cache")
			fs.ServeHTTP(w, r)
		}))
	}

	// WebSocket endpoint
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ip := extractIP(r)
		if !hub.CanAccept(ip) {
			http.Error(w, "too many connections", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("upgrade error: %v", err)
			return
		}

		hub.TrackConnect(ip)

		client := NewClient(hub, conn, ip)
		hub.register <- client

		go client.WritePump()
		go client.ReadPump()
	})

	// QR code a phone scans to become the session's controller
	mux.HandleFunc("GET /qr/{sid}", func(w http.ResponseWriter, r *http.Request) {
		sid := r.PathValue("sid")
		if hub.sessions.GetSession(sid) == nil {
			http.NotFound(w, r)
			return
		}
		png, err := qrcode.Encode(hub.cfg.Server.PublicURL+"/?control="+url.QueryEscape(sid), qrcode.Medium, qrSize)
		if err != nil {
			log.Printf("qr %s: %v", sid, err)
			http.Error(w, "qr encode failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(png)
	})

	mux.HandleFunc("GET /scores", func(w http.ResponseWriter, r *http.Request) {
		if hub.db == nil {
			writeJSON(w, []ScoreEntry{})
			return
		}
		scores, err := hub.db.TopScores(scoresLimit)
		if err != nil {
			log.Printf("top scores: %v", err)
			http.Error(w, "scores unavailable", http.StatusInternalServerError)
			return
		}
		writeJSON(w, scores)
	})

	mux.HandleFunc("GET /pilots/{id}", func(w http.ResponseWriter, r *http.Request) {
		if hub.db == nil {
			http.NotFound(w, r)
			return
		}
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil || id <= 0 {
			http.Error(w, "bad pilot id", http.StatusBadRequest)
			return
		}
		pilot, err := hub.db.GetPilotByID(id)
		if err != nil {
			log.Printf("pilot %d: %v", id, err)
			http.Error(w, "lookup failed", http.StatusInternalServerError)
			return
		}
		if pilot == nil {
			http.NotFound(w, r)
			return
		}
		runs, err := hub.db.RunsForPilot(id, recentRuns)
		if err != nil {
			log.Printf("runs for %d: %v", id, err)
		}
		profile := PilotProfile{
			ID:       pilot.ID,
			Username: pilot.Username,
			Best:     pilot.Best,
			Online:   hub.IsOnline(pilot.ID),
			Runs:     make([]RunSummary, 0, len(runs)),
		}
		for _, run := range runs {
			profile.Runs = append(profile.Runs, RunSummary{
				RunID:    run.RunID,
				Score:    run.Score,
				Level:    run.Level,
				Duration: run.Duration.Seconds(),
			})
		}
		writeJSON(w, profile)
	})

	mux.HandleFunc("GET /stats", func(w http.ResponseWriter, r *http.Request) {
		peers, _ := hub.analytics.LiveMetrics()
		stats := Stats{
			Clients:  hub.ClientCount(),
			Peers:    peers,
			Sessions: hub.sessions.Count(),
		}
		var err error
		if stats.Events, err = hub.analytics.EventCounts(statsDays); err != nil {
			log.Printf("event counts: %v", err)
		}
		if stats.DeepestLevel, err = hub.analytics.DeepestLevel(statsDays); err != nil {
			log.Printf("deepest level: %v", err)
		}
		writeJSON(w, stats)
	})

	return mux
}
