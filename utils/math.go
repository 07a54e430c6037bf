package utils

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

func Align4(v uint32) uint32 {
	return (v + 3) &^ 3
}

// MaxComponentDiff returns the largest absolute per-component difference.
func MaxComponentDiff(a, b []float32) float32 {
	var max float32
	for i := range a {
		if d := math32.Abs(a[i] - b[i]); d > max {
			max = d
		}
	}
	return max
}

// Rejection returns the component of v perpendicular to the unit vector n.
func Rejection(n, v mgl32.Vec3) mgl32.Vec3 {
	return v.Sub(n.Mul(n.Dot(v)))
}

// AllBelow reports whether every component magnitude of v is below eps.
func AllBelow(v mgl32.Vec3, eps float32) bool {
	return math32.Abs(v[0]) < eps && math32.Abs(v[1]) < eps && math32.Abs(v[2]) < eps
}

func SafeNormalize(v mgl32.Vec3) mgl32.Vec3 {
	if l := v.Len(); l > 0 && !math32.IsInf(l, 0) && !math32.IsNaN(l) {
		return v.Mul(1.0 / l)
	}
	return mgl32.Vec3{}
}

func FloatArray32to64(in []float32) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}
