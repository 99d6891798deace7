package main

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 4096
	sendBufSize       = 256
	maxMessagesPerSec = 50
	maxNameLen        = 16
	maxSessionNameLen = 30
	topScoresLimit    = 10
)

// Client represents a WebSocket connection
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	id         string
	sessionID  string
	role       Role
	remoteAddr string
	msgCount   int
	msgResetAt time.Time
	// Auth state
	authPlayerID int64  // 0 = guest
	authUsername string // "" = guest
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		id:         GenerateID(),
		remoteAddr: remoteAddr,
	}
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws error: %v", err)
			}
			break
		}

		// Rate limiting
		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > maxMessagesPerSec {
			log.Printf("rate limit exceeded for %s, disconnecting", c.remoteAddr)
			break
		}

		if msgType == websocket.BinaryMessage {
			c.handleBinaryInput(message)
		} else {
			c.handleMessage(message)
		}
	}
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// Check for binary marker (0xFF prefix from SendBinary)
			var err error
			if len(message) > 0 && message[0] == 0xFF {
				err = c.conn.WriteMessage(websocket.BinaryMessage, message[1:])
			} else {
				err = c.conn.WriteMessage(websocket.TextMessage, message)
			}
			if err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendJSON sends a JSON message to the client
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("marshal error: %v", err)
		return
	}
	c.SendRaw(data)
}

// SendRaw sends pre-marshaled bytes as a text message to the client
func (c *Client) SendRaw(data []byte) {
	defer func() { recover() }()
	select {
	case c.send <- data:
	default:
		// Client too slow, drop message
	}
}

// SendBinary sends pre-marshaled bytes as a binary WebSocket message.
// The 0xFF prefix tells WritePump it is not text.
func (c *Client) SendBinary(data []byte) {
	defer func() { recover() }()
	msg := make([]byte, len(data)+1)
	msg[0] = 0xFF
	copy(msg[1:], data)
	select {
	case c.send <- msg:
	default:
	}
}

func (c *Client) sendError(msg string) {
	c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: msg}})
}

// handleMessage routes incoming messages (single-pass decode via InEnvelope)
func (c *Client) handleMessage(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("unmarshal error: %v", err)
		return
	}

	switch env.T {
	case MsgList:
		c.handleList()
	case MsgCreate:
		c.handleCreate(env.D)
	case MsgJoin:
		c.handleJoin(env.D)
	case MsgInput:
		c.handleInput(env.D)
	case MsgLeave:
		c.handleLeave()
	case MsgControl:
		c.handleControl(env.D)
	case MsgRegister:
		c.handleRegister(env.D)
	case MsgLogin:
		c.handleLogin(env.D)
	case MsgAuth:
		c.handleAuth(env.D)
	case MsgScores:
		c.handleScores()
	}
}

func (c *Client) handleList() {
	c.SendJSON(Envelope{T: MsgSessions, Data: c.hub.sessions.ListSessions()})
}

func clip(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func (c *Client) handleCreate(data json.RawMessage) {
	var msg CreateMsg
	if len(data) > 0 {
		if err := json.Unmarshal(data, &msg); err != nil {
			return
		}
	}
	sname := msg.SessionName
	if sname == "" {
		sname = "Asteroid Field"
	}
	sess := c.hub.sessions.CreateSession(clip(sname, maxSessionNameLen), c.id)
	if sess == nil {
		c.sendError("too many active sessions")
		return
	}
	c.SendJSON(Envelope{T: MsgCreated, Data: map[string]string{"sid": sess.ID}})
}

func (c *Client) handleJoin(data json.RawMessage) {
	var msg JoinMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	if c.sessionID != "" {
		c.handleLeave()
	}
	name := msg.Name
	if c.authUsername != "" {
		name = c.authUsername
	}
	if name == "" {
		name = GenerateGuestName()
	}

	sess := c.hub.sessions.GetSession(msg.SessionID)
	if sess == nil {
		c.sendError("session not found")
		return
	}
	role := sess.Arena.Join(c.id, clip(name, maxNameLen), c.authPlayerID, c)
	if role == "" {
		c.sendError("session full")
		return
	}
	c.hub.sessions.MarkActive(sess.ID)
	c.sessionID = sess.ID
	c.role = role
	c.SendJSON(Envelope{T: MsgJoined, Data: JoinedMsg{SID: sess.ID, ID: c.id, Role: string(role)}})
}

func (c *Client) arena() *Arena {
	if c.sessionID == "" {
		return nil
	}
	sess := c.hub.sessions.GetSession(c.sessionID)
	if sess == nil {
		return nil
	}
	return sess.Arena
}

// handleBinaryInput decodes the compact 3-byte input form
func (c *Client) handleBinaryInput(msg []byte) {
	in, ok := DecodeBinaryInput(msg)
	if !ok {
		return
	}
	if a := c.arena(); a != nil {
		a.HandleInput(c.id, in)
	}
}

func (c *Client) handleInput(data json.RawMessage) {
	var in Intents
	if err := json.Unmarshal(data, &in); err != nil {
		return
	}
	if a := c.arena(); a != nil {
		a.HandleInput(c.id, in)
	}
}

func (c *Client) handleLeave() {
	if c.sessionID == "" {
		return
	}
	c.hub.sessions.Leave(c.sessionID, c.id)
	c.sessionID = ""
	c.role = ""
}

func (c *Client) handleControl(data json.RawMessage) {
	var msg ControlMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	sess := c.hub.sessions.GetSession(msg.SID)
	if sess == nil {
		c.sendError("session not found")
		return
	}
	if c.sessionID != "" {
		c.handleLeave()
	}
	if !sess.Arena.AttachController(c.id, c) {
		c.sendError("no pilot to control")
		return
	}
	c.sessionID = sess.ID
	c.role = RoleController
	c.SendJSON(Envelope{T: MsgControlOK, Data: map[string]string{"sid": sess.ID}})
}

func (c *Client) authenticated(claims PilotClaims, token string) {
	if c.authPlayerID != 0 {
		c.hub.SetOffline(c.authPlayerID, c)
	}
	c.authPlayerID = claims.PilotID
	c.authUsername = claims.Callsign
	c.hub.SetOnline(claims.PilotID, c)
	c.hub.analytics.Track(EvtLogin, claims.PilotID, "", nil)

	c.SendJSON(Envelope{T: MsgAuthOK, Data: AuthOKMsg{
		Token:    token,
		Username: claims.Callsign,
		PlayerID: claims.PilotID,
		Best:     claims.Best,
	}})
}

func (c *Client) handleRegister(data json.RawMessage) {
	if c.hub.auth == nil {
		c.sendError("accounts disabled")
		return
	}
	var msg RegisterMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	claims, token, err := c.hub.auth.Register(msg.Username, msg.Password)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.authenticated(claims, token)
}

func (c *Client) handleLogin(data json.RawMessage) {
	if c.hub.auth == nil {
		c.sendError("accounts disabled")
		return
	}
	var msg LoginMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	claims, token, err := c.hub.auth.Login(msg.Username, msg.Password, c.remoteAddr)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.authenticated(claims, token)
}

func (c *Client) handleAuth(data json.RawMessage) {
	if c.hub.auth == nil {
		c.sendError("accounts disabled")
		return
	}
	var msg AuthMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	claims, token, err := c.hub.auth.Resume(msg.Token)
	if err != nil {
		c.sendError("invalid token")
		return
	}
	c.authenticated(claims, token)
}

func (c *Client) handleScores() {
	if c.hub.db == nil {
		c.SendJSON(Envelope{T: MsgScores, Data: []ScoreEntry{}})
		return
	}
	scores, err := c.hub.db.TopScores(topScoresLimit)
	if err != nil {
		log.Printf("top scores: %v", err)
		c.sendError("scores unavailable")
		return
	}
	c.SendJSON(Envelope{T: MsgScores, Data: scores})
}
