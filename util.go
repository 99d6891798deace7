package main

import (
	"math"
	"math/rand"

	"github.com/segmentio/ksuid"
)

// GenerateID returns a new sortable unique id for sessions and runs
func GenerateID() string {
	return ksuid.New().String()
}

// Clamp restricts v to [min, max]
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// NormalizeAngle wraps angle to [-PI, PI]
func NormalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// randRange returns a value in [lo, hi)
func randRange(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// randUnitVec returns a random ground-plane direction, or zero in the rare
// case both components come out zero.
func randUnitVec(rng *rand.Rand) Vec3 {
	return Vec3{X: randRange(rng, -1, 1), Z: randRange(rng, -1, 1)}.NormalizeOrZero()
}

// randSpin returns a rotation-rate triple with each axis in [-max, max)
func randSpin(rng *rand.Rand, max float64) Spin {
	return Spin{
		X: randRange(rng, -max, max),
		Y: randRange(rng, -max, max),
		Z: randRange(rng, -max, max),
	}
}
