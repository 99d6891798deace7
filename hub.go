package main

import (
	"sync"
	"time"
)

const (
	maxConnsPerIP = 5
	maxTotalConns = 1000
)

// Hub manages all connected clients and routes them to sessions
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	sessions   *SessionManager
	cfg        Config
	// connection limits, touched from HTTP handlers
	connMu     sync.Mutex
	ipConns    map[string]int
	totalConns int
	// db and auth are nil when persistence is off
	db        *DB
	auth      *Auth
	analytics *Analytics
	// authenticated pilots currently connected
	onlineMu    sync.RWMutex
	onlineUsers map[int64]*Client
}

// NewHub creates a Hub. db may be nil, which disables accounts and run
// history.
func NewHub(cfg Config, db *DB) *Hub {
	analytics := NewAnalytics(db)
	h := &Hub{
		clients:     make(map[*Client]bool),
		register:    make(chan *Client, 64),
		unregister:  make(chan *Client, 64),
		sessions:    NewSessionManager(cfg, db, analytics),
		cfg:         cfg,
		ipConns:     make(map[string]int),
		db:          db,
		analytics:   analytics,
		onlineUsers: make(map[int64]*Client),
	}
	if db != nil {
		h.auth = NewAuth(db)
	}
	return h
}

func (h *Hub) CanAccept(ip string) bool {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if h.totalConns >= maxTotalConns {
		return false
	}
	if h.ipConns[ip] >= maxConnsPerIP {
		return false
	}
	return true
}

func (h *Hub) TrackConnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]++
	h.totalConns++
}

func (h *Hub) TrackDisconnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]--
	if h.ipConns[ip] <= 0 {
		delete(h.ipConns, ip)
	}
	h.totalConns--
}

// Run processes register/unregister events and closes idle sessions
func (h *Hub) Run() {
	idle := seconds(h.cfg.Server.IdleSession)
	if idle <= 0 {
		idle = time.Minute
	}
	reap := time.NewTicker(idle / 2)
	defer reap.Stop()

	for {
		select {
		case <-reap.C:
			h.sessions.ReapIdle(idle)

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mu.Unlock()
			h.analytics.SetConcurrentPeers(n)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.analytics.SetConcurrentPeers(n)

			if client.sessionID != "" {
				h.sessions.Leave(client.sessionID, client.id)
			}
			h.sessions.Abandon(client.id)
			if client.authPlayerID != 0 {
				h.SetOffline(client.authPlayerID, client)
			}
		}
	}
}

// SetOnline marks an authenticated pilot as connected
func (h *Hub) SetOnline(playerID int64, client *Client) {
	h.onlineMu.Lock()
	defer h.onlineMu.Unlock()
	h.onlineUsers[playerID] = client
}

// SetOffline clears the pilot's entry if it still points at client
func (h *Hub) SetOffline(playerID int64, client *Client) {
	h.onlineMu.Lock()
	defer h.onlineMu.Unlock()
	if h.onlineUsers[playerID] == client {
		delete(h.onlineUsers, playerID)
	}
}

func (h *Hub) IsOnline(playerID int64) bool {
	h.onlineMu.RLock()
	defer h.onlineMu.RUnlock()
	_, ok := h.onlineUsers[playerID]
	return ok
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown stops every arena and flushes analytics
func (h *Hub) Shutdown() {
	h.sessions.StopAll()
	h.analytics.Stop()
}
