package service

import (
	"math"

	"github.com/quantprep/backend/internal/model"
)

// Base point awards per completed session.
const (
	mockBasePoints     = 50
	practiceBasePoints = 10
)

// PointsEarned converts a final score into the points credited for a
// completed session. Higher scores multiply the mode's base award; scores
// under 60 earn half the base, rounded down.
func PointsEarned(score float64, mode model.SessionMode) int {
	base := practiceBasePoints
	if mode == model.SessionModeMock {
		base = mockBasePoints
	}

	switch {
	case score >= 90:
		return base * 3
	case score >= 80:
		return base * 2
	case score >= 70:
		return int(math.Floor(float64(base) * 1.5))
	case score >= 60:
		return base
	default:
		return int(math.Floor(float64(base) * 0.5))
	}
}
