// Package embedding turns text into vectors. Catalog items and queries must go
// through the same Embedder so their vectors share one space.
package embedding

import (
	"context"
	"math"
)

// Embedder encodes texts into vectors, one per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
	// Model identifies the vector space. Vectors from different models are
	// not comparable.
	Model() string
}

// Normalize scales v to unit length in place. A zero vector is left as is.
func Normalize(v []float64) []float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return v
	}
	n := math.Sqrt(sum)
	for i := range v {
		v[i] /= n
	}
	return v
}
