package meshing

import (
	"sort"
)

// HeightCurve remaps a normalized height before it is scaled into an elevation.
// It should be monotonic non-decreasing and safe for concurrent use.
type HeightCurve interface {
	Evaluate(t float64) float64
}

// LinearCurve is the identity response.
type LinearCurve struct{}

func (LinearCurve) Evaluate(t float64) float64 { return t }

// Keyframe is one control point of a KeyframeCurve.
type Keyframe struct {
	Time  float64
	Value float64
}

// KeyframeCurve interpolates linearly between keyframes and holds the end values outside them.
type KeyframeCurve struct {
	keys []Keyframe
}

// NewKeyframeCurve copies and sorts keys by Time. With no keys the curve behaves like LinearCurve.
func NewKeyframeCurve(keys ...Keyframe) *KeyframeCurve {
	k := make([]Keyframe, len(keys))
	copy(k, keys)
	sort.SliceStable(k, func(i, j int) bool { return k[i].Time < k[j].Time })
	return &KeyframeCurve{keys: k}
}

// Keys returns a copy of the control points.
func (c *KeyframeCurve) Keys() []Keyframe {
	out := make([]Keyframe, len(c.keys))
	copy(out, c.keys)
	return out
}

func (c *KeyframeCurve) Evaluate(t float64) float64 {
	n := len(c.keys)
	switch {
	case n == 0:
		return t
	case t <= c.keys[0].Time:
		return c.keys[0].Value
	case t >= c.keys[n-1].Time:
		return c.keys[n-1].Value
	}
	i := sort.Search(n, func(i int) bool { return c.keys[i].Time >= t })
	a, b := c.keys[i-1], c.keys[i]
	if b.Time == a.Time {
		return b.Value
	}
	f := (t - a.Time) / (b.Time - a.Time)
	return a.Value + f*(b.Value-a.Value)
}

// Monotonic reports whether the keyframe values never decrease.
func (c *KeyframeCurve) Monotonic() bool {
	for i := 1; i < len(c.keys); i++ {
		if c.keys[i].Value < c.keys[i-1].Value {
			return false
		}
	}
	return true
}
