package database

import "math"

// maxCosineDistance is returned for vectors that cannot be compared.
const maxCosineDistance = 2.0

// CosineDistance returns 1 - cos(a, b), from 0 (same direction) to 2 (opposite).
// Vectors of different or zero length, and zero vectors, are maximally distant.
func CosineDistance(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return maxCosineDistance
	}

	var dot, sumA, sumB float64
	for i, x := range a {
		y := float64(b[i])
		dot += float64(x) * y
		sumA += float64(x) * float64(x)
		sumB += y * y
	}
	if sumA == 0 || sumB == 0 {
		return maxCosineDistance
	}

	// Rounding can push the cosine slightly outside [-1, 1].
	cos := max(-1, min(1, dot/math.Sqrt(sumA*sumB)))
	return 1 - cos
}

// SimilarityPercent converts a cosine distance into a match confidence in
// percent, 100 for identical embeddings and 0 for orthogonal ones.
func SimilarityPercent(distance float64) float64 {
	return max(0, (1-distance)*100)
}
