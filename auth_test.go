package main

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

func newTestAuth(t *testing.T, db *DB) *Auth {
	t.Helper()
	a := NewAuth(db)
	a.cost = bcrypt.MinCost
	return a
}

func TestRegisterAndLogin(t *testing.T) {
	db := newTestDB(t)
	a := newTestAuth(t, db)

	reg, token, err := a.Register("  ace  ", "hunter22")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if reg.PilotID <= 0 || reg.Callsign != "ace" || token == "" {
		t.Fatalf("Register = %+v, %q", reg, token)
	}

	got, _, err := a.Login("ace", "hunter22", "10.0.0.1")
	if err != nil || got.PilotID != reg.PilotID {
		t.Errorf("Login = %+v, %v; want pilot %d", got, err, reg.PilotID)
	}
	if _, _, err := a.Login("ace", "wrong", "10.0.0.1"); err == nil {
		t.Error("wrong password accepted")
	}
	if _, _, err := a.Login("nobody", "hunter22", "10.0.0.1"); err == nil {
		t.Error("unknown pilot accepted")
	}
}

func TestRegisterValidation(t *testing.T) {
	a := newTestAuth(t, newTestDB(t))
	a.Register("ace", "hunter22")

	tests := []struct {
		name, user, pass string
	}{
		{"short name", "a", "hunter22"},
		{"long name", strings.Repeat("a", maxUsernameLen+1), "hunter22"},
		{"short password", "bee", "abc"},
		{"taken", "ace", "hunter22"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := a.Register(tt.user, tt.pass); err == nil {
				t.Errorf("Register(%q, %q) succeeded", tt.user, tt.pass)
			}
		})
	}
}

func TestTokenSurvivesRestart(t *testing.T) {
	db := newTestDB(t)
	reg, token, err := newTestAuth(t, db).Register("ace", "hunter22")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	// a second Auth on the same database reuses the stored secret
	claims, err := newTestAuth(t, db).ValidateToken(token)
	if err != nil || claims.PilotID != reg.PilotID || claims.Callsign != "ace" {
		t.Errorf("ValidateToken = %+v, %v", claims, err)
	}
	if claims != nil && claims.Issuer != tokenIssuer {
		t.Errorf("issuer = %q", claims.Issuer)
	}

	if _, err := newTestAuth(t, db).ValidateToken(token + "x"); err == nil {
		t.Error("tampered token accepted")
	}
}

func TestTokenCarriesBestScore(t *testing.T) {
	db := newTestDB(t)
	a := newTestAuth(t, db)
	reg, token, err := a.Register("ace", "hunter22")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if reg.Best != 0 {
		t.Errorf("new pilot best = %d", reg.Best)
	}

	db.RecordRun(RunRow{RunID: GenerateID(), PilotID: reg.PilotID, Score: 42})

	// the old token still says 0; resuming reissues with the stored best
	old, err := a.ValidateToken(token)
	if err != nil || old.Best != 0 {
		t.Fatalf("old token = %+v, %v", old, err)
	}
	resumed, fresh, err := a.Resume(token)
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if resumed.Best != 42 {
		t.Errorf("resumed best = %d, want 42", resumed.Best)
	}
	if claims, err := a.ValidateToken(fresh); err != nil || claims.Best != 42 {
		t.Errorf("fresh token = %+v, %v", claims, err)
	}

	logged, _, err := a.Login("ace", "hunter22", "10.0.0.1")
	if err != nil || logged.Best != 42 {
		t.Errorf("Login best = %+v, %v", logged, err)
	}
}

func TestValidateTokenRejectsForeignTokens(t *testing.T) {
	a := newTestAuth(t, newTestDB(t))
	now := time.Now()

	sign := func(method jwt.SigningMethod, key interface{}, c PilotClaims) string {
		s, err := jwt.NewWithClaims(method, c).SignedString(key)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return s
	}
	valid := PilotClaims{
		PilotID:  1,
		Callsign: "ace",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	wrongIssuer := valid
	wrongIssuer.Issuer = "elsewhere"
	expired := valid
	expired.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Hour))
	noExpiry := valid
	noExpiry.ExpiresAt = nil

	if _, err := a.ValidateToken(sign(jwt.SigningMethodHS256, a.jwtSecret, valid)); err != nil {
		t.Fatalf("valid token refused: %v", err)
	}
	tests := map[string]string{
		"wrong issuer": sign(jwt.SigningMethodHS256, a.jwtSecret, wrongIssuer),
		"expired":      sign(jwt.SigningMethodHS256, a.jwtSecret, expired),
		"no expiry":    sign(jwt.SigningMethodHS256, a.jwtSecret, noExpiry),
		"wrong key":    sign(jwt.SigningMethodHS256, []byte("not the secret"), valid),
		"unsigned":     sign(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, valid),
	}
	for name, token := range tests {
		if _, err := a.ValidateToken(token); err == nil {
			t.Errorf("%s: token accepted", name)
		}
	}
}

func TestLoginRateLimit(t *testing.T) {
	a := newTestAuth(t, newTestDB(t))
	for i := 0; i < maxLoginAttempts; i++ {
		if !a.checkRate("1.1.1.1") {
			t.Fatalf("attempt %d refused", i+1)
		}
	}
	if a.checkRate("1.1.1.1") {
		t.Error("attempt past the limit allowed")
	}
	if !a.checkRate("2.2.2.2") {
		t.Error("limit leaked across IPs")
	}
}

func TestGenerateGuestName(t *testing.T) {
	name := GenerateGuestName()
	if !strings.HasPrefix(name, "Guest_") || len(name) != len("Guest_")+6 {
		t.Errorf("GenerateGuestName = %q", name)
	}
	if len(name) > maxNameLen {
		t.Errorf("guest name longer than %d", maxNameLen)
	}
}
