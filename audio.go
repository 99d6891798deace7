package main

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"
)

const (
	cueAttack     = 5 * time.Millisecond
	speakerBuffer = 100 * time.Millisecond
)

type waveShape int

const (
	waveSine waveShape = iota
	waveSquare
	waveSaw
	waveNoise
)

// tone is a fixed-length single-voice waveform
type tone struct {
	freq     float64
	phase    float64
	length   int
	position int
	shape    waveShape
	rate     beep.SampleRate
	rng      *rand.Rand
}

func newTone(freq float64, d time.Duration, shape waveShape, rate beep.SampleRate) *tone {
	return &tone{
		freq:   freq,
		length: rate.N(d),
		shape:  shape,
		rate:   rate,
		rng:    rand.New(rand.NewSource(int64(freq))),
	}
}

func (t *tone) Stream(samples [][2]float64) (int, bool) {
	for i := range samples {
		if t.position >= t.length {
			return i, false
		}
		var v float64
		switch t.shape {
		case waveSine:
			v = math.Sin(2 * math.Pi * t.phase)
		case waveSquare:
			v = 1
			if t.phase >= 0.5 {
				v = -1
			}
		case waveSaw:
			v = 2 * (t.phase - 0.5)
		case waveNoise:
			v = t.rng.Float64()*2 - 1
		}
		samples[i][0], samples[i][1] = v, v

		t.phase += t.freq / float64(t.rate)
		t.phase -= math.Floor(t.phase)
		t.position++
	}
	return len(samples), true
}

func (t *tone) Err() error { return nil }

// fade ramps a stream in over attack and out over release
type fade struct {
	streamer beep.Streamer
	position int
	attack   int
	release  int
	total    int
}

func newFade(s beep.Streamer, d, attack, release time.Duration, rate beep.SampleRate) *fade {
	return &fade{
		streamer: s,
		attack:   rate.N(attack),
		release:  rate.N(release),
		total:    rate.N(d),
	}
}

func (f *fade) Stream(samples [][2]float64) (int, bool) {
	n, ok := f.streamer.Stream(samples)
	releaseAt := f.total - f.release
	for i := 0; i < n; i++ {
		if f.position >= f.total {
			return i, false
		}
		gain := 1.0
		if f.position < f.attack {
			gain = float64(f.position) / float64(f.attack)
		}
		if f.release > 0 && f.position >= releaseAt {
			gain = math.Max(0, float64(f.total-f.position)/float64(f.release))
		}
		samples[i][0] *= gain
		samples[i][1] *= gain
		f.position++
	}
	return n, ok
}

func (f *fade) Err() error { return f.streamer.Err() }

// withVolume scales s by a linear volume. Zero or less is silence, since
// log2(0) is -Inf.
func withVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol)}
}

// cue is the sound played for one notification
type cue struct {
	freq  float64
	dur   time.Duration
	shape waveShape
}

var cues = map[NoteKind]cue{
	NoteShooting:       {freq: 880, dur: 60 * time.Millisecond, shape: waveSquare},
	NoteSaucerShooting: {freq: 440, dur: 80 * time.Millisecond, shape: waveSaw},
	NoteCollision:      {freq: 1, dur: 120 * time.Millisecond, shape: waveNoise},
	NoteShieldUp:       {freq: 660, dur: 150 * time.Millisecond, shape: waveSine},
	NoteShieldDown:     {freq: 330, dur: 200 * time.Millisecond, shape: waveSine},
	NoteShieldReady:    {freq: 990, dur: 100 * time.Millisecond, shape: waveSine},
	NoteWave:           {freq: 523, dur: 250 * time.Millisecond, shape: waveSine},
	NoteSaucerSpawned:  {freq: 220, dur: 300 * time.Millisecond, shape: waveSquare},
	NoteGameOver:       {freq: 110, dur: 800 * time.Millisecond, shape: waveSaw},
}

var bossCue = cue{freq: 196, dur: 400 * time.Millisecond, shape: waveSaw}

// Audio plays a one-shot cue per notification through a shared mixer. It
// stays silent until Start succeeds.
type Audio struct {
	mu      sync.Mutex
	rate    beep.SampleRate
	volume  float64
	mixer   *beep.Mixer
	started bool
}

func NewAudio(cfg AudioConfig) *Audio {
	return &Audio{
		rate:   beep.SampleRate(cfg.SampleRate),
		volume: cfg.Volume,
		mixer:  &beep.Mixer{},
	}
}

// Start opens the speaker and begins playing the mixer
func (a *Audio) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started {
		return nil
	}
	if err := speaker.Init(a.rate, a.rate.N(speakerBuffer)); err != nil {
		return err
	}
	speaker.Play(a.mixer)
	a.started = true
	return nil
}

// Stop silences anything still playing
func (a *Audio) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.started {
		return
	}
	speaker.Clear()
	a.started = false
}

// streamFor builds the cue for n, or nil when n makes no sound
func (a *Audio) streamFor(n Notification) beep.Streamer {
	c, ok := cues[n.Kind]
	if n.Kind == NoteWave && n.Boss {
		c, ok = bossCue, true
	}
	if !ok {
		return nil
	}
	src := newTone(c.freq, c.dur, c.shape, a.rate)
	return withVolume(newFade(src, c.dur, cueAttack, c.dur/3, a.rate), a.volume)
}

// Play queues one cue per notification
func (a *Audio) Play(notes []Notification) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.started {
		return
	}
	for _, n := range notes {
		s := a.streamFor(n)
		if s == nil {
			continue
		}
		speaker.Lock()
		a.mixer.Add(s)
		speaker.Unlock()
	}
}
