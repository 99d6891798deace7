package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds every tunable. Durations are in seconds.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Arena    ArenaConfig    `toml:"arena"`
	Craft    CraftConfig    `toml:"craft"`
	Shield   ShieldConfig   `toml:"shield"`
	Missile  MissileConfig  `toml:"missile"`
	Asteroid AsteroidConfig `toml:"asteroid"`
	Saucer   SaucerConfig   `toml:"saucer"`
	Audio    AudioConfig    `toml:"audio"`
}

type ServerConfig struct {
	Addr          string  `toml:"addr"`
	DBPath        string  `toml:"db_path"`
	PublicURL     string  `toml:"public_url"` // base URL encoded in controller QR codes
	TickRate      int     `toml:"tick_rate"`
	BroadcastRate int     `toml:"broadcast_rate"`
	MaxSessions   int     `toml:"max_sessions"`
	IdleSession   float64 `toml:"idle_session"` // unjoined sessions close after this long
	AutoRestart   bool    `toml:"auto_restart"`
	Broadphase    string  `toml:"broadphase"` // "grid" or "naive"
}

type ArenaConfig struct {
	MinX            float64 `toml:"min_x"`
	MaxX            float64 `toml:"max_x"`
	MinZ            float64 `toml:"min_z"`
	MaxZ            float64 `toml:"max_z"`
	DespawnDistance float64 `toml:"despawn_distance"`
}

type CraftConfig struct {
	Start         Vec3    `toml:"start"`
	StartVelocity Vec3    `toml:"start_velocity"`
	Radius        float64 `toml:"radius"`
	Speed         float64 `toml:"speed"`
	RotationSpeed float64 `toml:"rotation_speed"`
	RollSpeed     float64 `toml:"roll_speed"`
	Health        float64 `toml:"health"`
	Damage        float64 `toml:"damage"`
}

type ShieldConfig struct {
	Health      float64 `toml:"health"`
	RadiusScale float64 `toml:"radius_scale"` // multiple of the craft radius
	HitCooldown float64 `toml:"hit_cooldown"`
	Cooldown    float64 `toml:"cooldown"`
	DecayPerSec float64 `toml:"decay_per_sec"`
}

type MissileConfig struct {
	Speed       float64 `toml:"speed"`
	Radius      float64 `toml:"radius"`
	Health      float64 `toml:"health"`
	Damage      float64 `toml:"damage"`
	Rate        float64 `toml:"rate"` // shots per second
	Max         int     `toml:"max"`
	SpawnOffset float64 `toml:"spawn_offset"`
}

type AsteroidConfig struct {
	WaveInterval  float64 `toml:"wave_interval"`
	WaveSize      int     `toml:"wave_size"`
	SpawnMinX     float64 `toml:"spawn_min_x"`
	SpawnMaxX     float64 `toml:"spawn_max_x"`
	SpawnMinZ     float64 `toml:"spawn_min_z"`
	SpawnMaxZ     float64 `toml:"spawn_max_z"`
	SafeRadiusMul float64 `toml:"safe_radius_mul"`
	SpawnRetries  int     `toml:"spawn_retries"`
	VelocityScale float64 `toml:"velocity_scale"`
	AccelScale    float64 `toml:"accel_scale"`
	MaxSpin       float64 `toml:"max_spin"`
	Radius        float64 `toml:"radius"`
	Health        float64 `toml:"health"`
	Damage        float64 `toml:"damage"`
	BossEvery     int     `toml:"boss_every"`
}

type SaucerConfig struct {
	SpawnInterval      float64 `toml:"spawn_interval"`
	StartVelocity      Vec3    `toml:"start_velocity"`
	Radius             float64 `toml:"radius"`
	Health             float64 `toml:"health"`
	Damage             float64 `toml:"damage"`
	SafeRadiusMul      float64 `toml:"safe_radius_mul"`
	SpawnRetries       int     `toml:"spawn_retries"`
	MaxSpeed           float64 `toml:"max_speed"`
	Repel              float64 `toml:"repel"`
	MissileRate        float64 `toml:"missile_rate"` // rolls per second
	MissileSpeed       float64 `toml:"missile_speed"`
	MissileRadius      float64 `toml:"missile_radius"`
	MissileHealth      float64 `toml:"missile_health"`
	MissileDamage      float64 `toml:"missile_damage"`
	MissileSpawnOffset float64 `toml:"missile_spawn_offset"`
}

type AudioConfig struct {
	Enabled    bool    `toml:"enabled"`
	Volume     float64 `toml:"volume"`
	SampleRate int     `toml:"sample_rate"`
}

// DefaultConfig returns the stock arena
func DefaultConfig() Config {
	const craftRadius = 2.5
	return Config{
		Server: ServerConfig{
			Addr:          ":8080",
			DBPath:        "arena.db",
			PublicURL:     "http://localhost:8080",
			TickRate:      60,
			BroadcastRate: 30,
			MaxSessions:   100,
			IdleSession:   30,
			AutoRestart:   false,
			Broadphase:    "naive",
		},
		Arena: ArenaConfig{
			MinX: -48, MaxX: 48,
			MinZ: -27, MaxZ: 27,
			DespawnDistance: 100,
		},
		Craft: CraftConfig{
			Start:         V3(0, 0, -20),
			StartVelocity: V3(0, 0, 1),
			Radius:        craftRadius,
			Speed:         25,
			RotationSpeed: 2.5,
			RollSpeed:     2.5,
			Health:        100,
			Damage:        100,
		},
		Shield: ShieldConfig{
			Health:      60,
			RadiusScale: 1.35,
			HitCooldown: 0.20,
			Cooldown:    4.0,
			DecayPerSec: 6,
		},
		Missile: MissileConfig{
			Speed:       50,
			Radius:      0.5,
			Health:      1,
			Damage:      5,
			Rate:        4,
			Max:         3,
			SpawnOffset: 5,
		},
		Asteroid: AsteroidConfig{
			WaveInterval:  4,
			WaveSize:      10,
			SpawnMinX:     -25,
			SpawnMaxX:     25,
			SpawnMinZ:     -25,
			SpawnMaxZ:     25,
			SafeRadiusMul: 4,
			SpawnRetries:  2,
			VelocityScale: 5,
			AccelScale:    1,
			MaxSpin:       3,
			Radius:        1.5,
			Health:        20,
			Damage:        35,
			BossEvery:     4,
		},
		Saucer: SaucerConfig{
			SpawnInterval:      45,
			StartVelocity:      V3(1, 0, -1),
			Radius:             2.5,
			Health:             100,
			Damage:             100,
			SafeRadiusMul:      4,
			SpawnRetries:       2,
			MaxSpeed:           20,
			Repel:              16,
			MissileRate:        60,
			MissileSpeed:       40,
			MissileRadius:      0.5,
			MissileHealth:      1,
			MissileDamage:      7,
			MissileSpawnOffset: 4,
		},
		Audio: AudioConfig{
			Enabled:    false,
			Volume:     0.8,
			SampleRate: 44100,
		},
	}
}

// LoadConfig reads a TOML file over the defaults. An empty path returns
// the defaults untouched.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects values the simulation cannot run with
func (c Config) Validate() error {
	switch {
	case c.Server.TickRate <= 0:
		return fmt.Errorf("server.tick_rate must be positive")
	case c.Server.BroadcastRate <= 0 || c.Server.BroadcastRate > c.Server.TickRate:
		return fmt.Errorf("server.broadcast_rate must be in 1..tick_rate")
	case c.Server.Broadphase != "grid" && c.Server.Broadphase != "naive":
		return fmt.Errorf("server.broadphase must be grid or naive, got %q", c.Server.Broadphase)
	case c.Arena.MinX >= c.Arena.MaxX || c.Arena.MinZ >= c.Arena.MaxZ:
		return fmt.Errorf("arena bounds are empty")
	case c.Craft.Radius <= 0 || c.Asteroid.Radius <= 0 || c.Saucer.Radius <= 0 ||
		c.Missile.Radius <= 0 || c.Saucer.MissileRadius <= 0 || c.Shield.RadiusScale <= 0:
		return fmt.Errorf("collider radii must be positive")
	case c.Craft.Health <= 0 || c.Shield.Health <= 0 || c.Asteroid.Health <= 0 ||
		c.Saucer.Health <= 0 || c.Missile.Health <= 0 || c.Saucer.MissileHealth <= 0:
		return fmt.Errorf("starting health must be positive")
	case c.Missile.Rate <= 0 || c.Saucer.MissileRate <= 0:
		return fmt.Errorf("fire rates must be positive")
	case c.Asteroid.WaveInterval <= 0 || c.Saucer.SpawnInterval <= 0:
		return fmt.Errorf("spawn intervals must be positive")
	case c.Asteroid.SpawnMinX >= c.Asteroid.SpawnMaxX || c.Asteroid.SpawnMinZ >= c.Asteroid.SpawnMaxZ:
		return fmt.Errorf("asteroid spawn range is empty")
	case c.Asteroid.BossEvery <= 0:
		return fmt.Errorf("asteroid.boss_every must be positive")
	case c.Asteroid.WaveSize <= 0:
		return fmt.Errorf("asteroid.wave_size must be positive")
	case c.Missile.Max <= 0:
		return fmt.Errorf("missile.max must be positive")
	case c.Shield.HitCooldown <= 0 || c.Shield.Cooldown <= 0:
		return fmt.Errorf("shield cooldowns must be positive")
	case c.Arena.DespawnDistance <= 0:
		return fmt.Errorf("arena.despawn_distance must be positive")
	case c.Server.MaxSessions <= 0 || c.Server.IdleSession <= 0:
		return fmt.Errorf("server.max_sessions and server.idle_session must be positive")
	}
	return nil
}

// Bounds returns the play field the movement step wraps against
func (c Config) Bounds() Bounds {
	return Bounds{MinX: c.Arena.MinX, MaxX: c.Arena.MaxX, MinZ: c.Arena.MinZ, MaxZ: c.Arena.MaxZ}
}

// TickDuration is the fixed simulation step
func (c Config) TickDuration() time.Duration {
	return time.Second / time.Duration(c.Server.TickRate)
}

// seconds converts a config duration to time.Duration
func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
