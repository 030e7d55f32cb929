package database

import "math"

// MaxSampleDistance is returned for embeddings that cannot be compared.
const MaxSampleDistance = 2.0

// CosineDistance returns 1 - cos(a, b) for two face embeddings, in [0, 2].
// Embeddings of different dimensions or with zero norm are MaxSampleDistance apart.
func CosineDistance(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return MaxSampleDistance
	}

	var dot, sumA, sumB float64
	for i, x := range a {
		y := float64(b[i])
		dot += float64(x) * y
		sumA += float64(x) * float64(x)
		sumB += y * y
	}
	if sumA == 0 || sumB == 0 {
		return MaxSampleDistance
	}

	cos := dot / math.Sqrt(sumA*sumB)
	return 1 - math.Max(-1, math.Min(1, cos))
}
