// Package scoring turns a guess distance into points.
package scoring

import "math"

const (
	// MaxScore is awarded for a perfect guess.
	MaxScore = 5000
	// DecayKm is the e-folding distance of the score curve.
	DecayKm = 1000.0
	// CutoffKm is half of Earth's circumference; anything at or past it scores 0.
	CutoffKm = 20000.0
)

// Score maps a distance in kilometers to an integer in [0, MaxScore]:
// round(MaxScore * exp(-d / DecayKm)), with a hard zero from CutoffKm on.
func Score(distanceKm float64) int {
	if math.IsNaN(distanceKm) || distanceKm >= CutoffKm {
		return 0
	}
	if distanceKm <= 0 {
		return MaxScore
	}
	s := int(math.Round(MaxScore * math.Exp(-distanceKm/DecayKm)))
	if s < 0 {
		return 0
	}
	if s > MaxScore {
		return MaxScore
	}
	return s
}
