package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenIssuer      = "arena-server"
	jwtExpiry        = 7 * 24 * time.Hour
	bcryptCost       = 12
	minPasswordLen   = 4
	minUsernameLen   = 2
	maxUsernameLen   = 16
	loginRateWindow  = 60 * time.Second
	maxLoginAttempts = 10
)

// Auth handles pilot accounts
type Auth struct {
	db        *DB
	jwtSecret []byte
	cost      int

	// login attempts per IP
	rateMu  sync.Mutex
	rateMap map[string]*rateEntry
}

type rateEntry struct {
	Count   int
	ResetAt time.Time
}

func NewAuth(db *DB) *Auth {
	return &Auth{
		db:        db,
		jwtSecret: loadOrCreateSecret(db),
		cost:      bcryptCost,
		rateMap:   make(map[string]*rateEntry),
	}
}

// loadOrCreateSecret loads the JWT secret from the database, or generates
// and persists a new one if none exists.
func loadOrCreateSecret(db *DB) []byte {
	if db != nil {
		if h := db.GetSetting("jwt_secret"); h != "" {
			if b, err := hex.DecodeString(h); err == nil && len(b) == 32 {
				return b
			}
		}
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic("failed to generate JWT secret: " + err.Error())
	}
	if db != nil {
		if err := db.SetSetting("jwt_secret", hex.EncodeToString(secret)); err != nil {
			log.Printf("warning: could not persist JWT secret: %v", err)
		}
	}
	return secret
}

// PilotClaims is what a pilot token carries: who is flying and the best
// score on record when the token was issued
type PilotClaims struct {
	PilotID  int64  `json:"pid"`
	Callsign string `json:"cs"`
	Best     int    `json:"best"`
	jwt.RegisteredClaims
}

// Register creates a new pilot and returns its claims and a token
func (a *Auth) Register(callsign, password string) (PilotClaims, string, error) {
	callsign = strings.TrimSpace(callsign)

	if len(callsign) < minUsernameLen || len(callsign) > maxUsernameLen {
		return PilotClaims{}, "", fmt.Errorf("callsign must be %d-%d characters", minUsernameLen, maxUsernameLen)
	}
	if len(password) < minPasswordLen {
		return PilotClaims{}, "", fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}

	exists, err := a.db.UsernameExists(callsign)
	if err != nil {
		return PilotClaims{}, "", fmt.Errorf("database error")
	}
	if exists {
		return PilotClaims{}, "", fmt.Errorf("callsign already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return PilotClaims{}, "", fmt.Errorf("internal error")
	}
	id, err := a.db.CreatePilot(callsign, string(hash))
	if err != nil {
		return PilotClaims{}, "", fmt.Errorf("failed to create account")
	}
	return a.issue(PilotRow{ID: id, Username: callsign})
}

// Login checks a password and issues a token for the stored pilot
func (a *Auth) Login(callsign, password, ip string) (PilotClaims, string, error) {
	if !a.checkRate(ip) {
		return PilotClaims{}, "", fmt.Errorf("too many login attempts, try again later")
	}

	pilot, err := a.db.GetPilotByUsername(strings.TrimSpace(callsign))
	if err != nil {
		return PilotClaims{}, "", fmt.Errorf("database error")
	}
	if pilot == nil || pilot.PassHash == "" {
		return PilotClaims{}, "", fmt.Errorf("invalid callsign or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(pilot.PassHash), []byte(password)); err != nil {
		return PilotClaims{}, "", fmt.Errorf("invalid callsign or password")
	}
	return a.issue(*pilot)
}

// Resume trades a valid token for a fresh one. The pilot must still exist,
// and the new token carries the current best score.
func (a *Auth) Resume(tokenStr string) (PilotClaims, string, error) {
	claims, err := a.ValidateToken(tokenStr)
	if err != nil {
		return PilotClaims{}, "", err
	}
	pilot, err := a.db.GetPilotByID(claims.PilotID)
	if err != nil {
		return PilotClaims{}, "", fmt.Errorf("database error")
	}
	if pilot == nil {
		return PilotClaims{}, "", fmt.Errorf("pilot no longer exists")
	}
	return a.issue(*pilot)
}

// ValidateToken checks signature, issuer and expiry and returns the claims
func (a *Auth) ValidateToken(tokenStr string) (*PilotClaims, error) {
	claims := &PilotClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return a.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.PilotID <= 0 || claims.Callsign == "" {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

func (a *Auth) issue(p PilotRow) (PilotClaims, string, error) {
	now := time.Now()
	claims := PilotClaims{
		PilotID:  p.ID,
		Callsign: p.Username,
		Best:     p.Best,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatInt(p.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(jwtExpiry)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.jwtSecret)
	if err != nil {
		return PilotClaims{}, "", fmt.Errorf("internal error")
	}
	return claims, token, nil
}

func (a *Auth) checkRate(ip string) bool {
	a.rateMu.Lock()
	defer a.rateMu.Unlock()

	now := time.Now()
	entry, ok := a.rateMap[ip]
	if !ok || now.After(entry.ResetAt) {
		a.rateMap[ip] = &rateEntry{Count: 1, ResetAt: now.Add(loginRateWindow)}
		return true
	}
	entry.Count++
	return entry.Count <= maxLoginAttempts
}

// GenerateGuestName creates a guest callsign like "Guest_a3f2c1"
func GenerateGuestName() string {
	b := make([]byte, 3)
	rand.Read(b)
	return "Guest_" + hex.EncodeToString(b)
}
