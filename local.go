package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
)

const localSessionID = "local"

// Local runs one Game in the terminal: keys in, frames and sounds out.
// A non-nil db seeds the high score and keeps finished runs as guest runs.
type Local struct {
	cfg      Config
	game     *Game
	field    Bounds
	input    KeyInput
	renderer *Renderer
	audio    *Audio
	db       *DB
	runID    string
}

func NewLocal(cfg Config, screen tcell.Screen, audio *Audio, db *DB) *Local {
	l := &Local{
		cfg:      cfg,
		game:     NewGame(cfg, nil),
		field:    cfg.Bounds(),
		renderer: NewRenderer(screen, cfg.Bounds()),
		audio:    audio,
		db:       db,
		runID:    GenerateID(),
	}
	if db != nil {
		best, err := db.BestScore(0)
		if err != nil {
			log.Printf("local: load best score: %v", err)
		}
		l.game.SeedHighScore(best)
	}
	return l
}

// HandleEvent feeds one terminal event in
func (l *Local) HandleEvent(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		l.input.Key(ev)
	case *tcell.EventResize:
		l.renderer.screen.Sync()
	}
}

// Tick advances the game once and draws it. It returns false once the
// player has asked to quit.
func (l *Local) Tick() bool {
	if l.input.Quit {
		return false
	}
	notes := l.game.Step(l.cfg.TickDuration(), l.input.Next(), l.field)
	l.audio.Play(notes)
	for _, n := range notes {
		if n.Kind == NoteGameOver {
			l.recordRun(n, l.game.RunTime)
		}
	}
	l.renderer.Draw(l.game)
	return true
}

func (l *Local) recordRun(n Notification, d time.Duration) {
	run := RunRow{RunID: l.runID, SessionID: localSessionID, Score: n.Score, Level: n.Level, Duration: d}
	l.runID = GenerateID()
	if l.db == nil {
		return
	}
	if err := l.db.RecordRun(run); err != nil {
		log.Printf("local: record run: %v", err)
	}
}

// redirectLog points the std logger at w and returns a func that puts the
// previous writer back
func redirectLog(w io.Writer) (restore func()) {
	prev := log.Writer()
	log.SetOutput(w)
	return func() { log.SetOutput(prev) }
}

// RunLocal plays in the current terminal until the player quits. The
// screen owns the tty, so log output goes to logPath, or nowhere when it
// is empty.
func RunLocal(cfg Config, db *DB, logPath string) error {
	var logOut io.Writer = io.Discard
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log: %w", err)
		}
		defer f.Close()
		logOut = f
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("open terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init terminal: %w", err)
	}
	defer redirectLog(logOut)()
	defer screen.Fini()
	screen.HideCursor()

	audio := NewAudio(cfg.Audio)
	if cfg.Audio.Enabled {
		if err := audio.Start(); err != nil {
			log.Printf("audio disabled: %v", err)
		}
		defer audio.Stop()
	}

	l := NewLocal(cfg, screen, audio, db)

	events := make(chan tcell.Event, 32)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	ticker := time.NewTicker(cfg.TickDuration())
	defer ticker.Stop()
	for {
		select {
		case ev := <-events:
			l.HandleEvent(ev)
		case <-ticker.C:
			if !l.Tick() {
				return nil
			}
		}
	}
}
