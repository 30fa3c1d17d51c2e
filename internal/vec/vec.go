// Package vec holds the small amount of vector arithmetic shared by the
// in-memory index, the reranker and the theme engine.
package vec

import "math"

// Cosine computes the cosine similarity of two vectors. Mismatched or
// zero vectors score zero.
func Cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

// Centroid computes the component-wise mean of the vectors. Returns nil
// for an empty input.
func Centroid(vectors [][]float32) []float32 {
	if len(vectors) == 0 {
		return nil
	}
	dim := len(vectors[0])
	sum := make([]float64, dim)
	for _, v := range vectors {
		for i := 0; i < dim && i < len(v); i++ {
			sum[i] += float64(v[i])
		}
	}
	out := make([]float32, dim)
	for i := range sum {
		out[i] = float32(sum[i] / float64(len(vectors)))
	}
	return out
}
