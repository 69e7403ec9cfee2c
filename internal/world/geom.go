package world

import (
	"fmt"
	"math"
	"math/rand"
)

// Vec2 is a point or offset in world space.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{X: v.X + o.X, Y: v.Y + o.Y} }

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{X: v.X - o.X, Y: v.Y - o.Y} }

// Scale returns v * k.
func (v Vec2) Scale(k float64) Vec2 { return Vec2{X: v.X * k, Y: v.Y * k} }

// Len returns the Euclidean length of v.
func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }

// Distance returns the Euclidean distance between two points.
func Distance(a, b Vec2) float64 {
	return b.Sub(a).Len()
}

// Near reports whether two points are strictly closer than radius.
func Near(a, b Vec2, radius float64) bool {
	return Distance(a, b) < radius
}

func (v Vec2) String() string {
	return fmt.Sprintf("(%.2f, %.2f)", v.X, v.Y)
}

// Rect is an axis-aligned rectangle described by its center and size.
type Rect struct {
	Center Vec2 `json:"center"`
	Size   Vec2 `json:"size"`
}

// RectFromOrigin returns the rectangle spanning [0,w] x [0,h].
func RectFromOrigin(w, h float64) Rect {
	return Rect{Center: Vec2{X: w / 2, Y: h / 2}, Size: Vec2{X: w, Y: h}}
}

// Min returns the lower-left corner.
func (r Rect) Min() Vec2 { return r.Center.Sub(r.Size.Scale(0.5)) }

// Max returns the upper-right corner.
func (r Rect) Max() Vec2 { return r.Center.Add(r.Size.Scale(0.5)) }

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Vec2) bool {
	lo, hi := r.Min(), r.Max()
	return p.X >= lo.X && p.X <= hi.X && p.Y >= lo.Y && p.Y <= hi.Y
}

// Clamp returns the point of r closest to p.
func (r Rect) Clamp(p Vec2) Vec2 {
	lo, hi := r.Min(), r.Max()
	return Vec2{X: math.Min(math.Max(p.X, lo.X), hi.X), Y: math.Min(math.Max(p.Y, lo.Y), hi.Y)}
}

// RandomPoint returns a uniformly distributed point inside r.
func (r Rect) RandomPoint(rng *rand.Rand) Vec2 {
	lo := r.Min()
	return Vec2{
		X: lo.X + rng.Float64()*r.Size.X,
		Y: lo.Y + rng.Float64()*r.Size.Y,
	}
}
