package service

import (
	"testing"

	"github.com/quantprep/backend/internal/model"
)

func TestPointsEarned(t *testing.T) {
	tests := []struct {
		name  string
		score float64
		mode  model.SessionMode
		want  int
	}{
		{"mock perfect", 100, model.SessionModeMock, 150},
		{"mock at 90 boundary", 90, model.SessionModeMock, 150},
		{"mock just under 90", 89.9, model.SessionModeMock, 100},
		{"mock at 80 boundary", 80, model.SessionModeMock, 100},
		{"mock at 70 boundary", 70, model.SessionModeMock, 75},
		{"mock at 60 boundary", 60, model.SessionModeMock, 50},
		{"mock below 60", 59.9, model.SessionModeMock, 25},
		{"mock zero", 0, model.SessionModeMock, 25},
		{"practice perfect", 100, model.SessionModePractice, 30},
		{"practice at 70", 70, model.SessionModePractice, 15},
		{"practice at 60", 60, model.SessionModePractice, 10},
		{"practice below 60", 33.3, model.SessionModePractice, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PointsEarned(tt.score, tt.mode); got != tt.want {
				t.Errorf("PointsEarned(%v, %s) = %d, want %d", tt.score, tt.mode, got, tt.want)
			}
		})
	}
}
