package main

import "math"

// Vec3 is a position or direction in arena space. The play field is the
// X/Z ground plane; Y is up and stays 0 for everything that moves.
type Vec3 struct {
	X float64 `msgpack:"x" json:"x" toml:"x"`
	Y float64 `msgpack:"y" json:"y" toml:"y"`
	Z float64 `msgpack:"z" json:"z" toml:"z"`
}

func V3(x, y, z float64) Vec3 { return Vec3{X: x, Y: y, Z: z} }

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

func (v Vec3) Len() float64 { return math.Sqrt(v.Dot(v)) }

// Distance returns the Euclidean distance between two points
func (v Vec3) Distance(o Vec3) float64 { return v.Sub(o).Len() }

// NormalizeOrZero returns v scaled to unit length, or the zero vector when v
// has no usable direction.
func (v Vec3) NormalizeOrZero() Vec3 {
	l := v.Len()
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// Heading returns the ground-plane unit vector a craft with the given yaw
// points along. Yaw 0 faces +Z.
func Heading(yaw float64) Vec3 {
	return Vec3{X: math.Sin(yaw), Z: math.Cos(yaw)}
}

// YawToward returns the yaw that points from one point at another.
func YawToward(from, to Vec3) float64 {
	d := to.Sub(from)
	return math.Atan2(d.X, d.Z)
}
