package database

import (
	"math"
	"testing"
)

func TestCosineDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{0.3, 0.4}, []float32{0.3, 0.4}, 0},
		{"scaled", []float32{1, 2, 3}, []float32{2, 4, 6}, 0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 1},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, 2},
		{"dimension mismatch", []float32{1, 0}, []float32{1, 0, 0}, MaxSampleDistance},
		{"empty", nil, nil, MaxSampleDistance},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, MaxSampleDistance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineDistance(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("CosineDistance() = %v, want %v", got, tt.want)
			}
		})
	}
}
