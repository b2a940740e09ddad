// Package index holds the per-domain embedding indexes and answers
// nearest-neighbour queries against them.
package index

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/MikeSquared-Agency/concierge/internal/catalog"
	"github.com/MikeSquared-Agency/concierge/internal/embedding"
)

var (
	ErrInvalidK          = errors.New("k must be at least 1")
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// Match is a catalog item with its similarity to the query.
type Match struct {
	Item  catalog.Item `json:"item"`
	Score float64      `json:"score"`
}

// Index is an immutable set of item vectors for one domain. It is safe for
// concurrent queries.
type Index struct {
	domain  catalog.Domain
	model   string
	dim     int
	items   []catalog.Item
	vectors [][]float64
}

// Build embeds every item's EmbeddingText with e in a single batch.
func Build(ctx context.Context, domain catalog.Domain, items []catalog.Item, e embedding.Embedder) (*Index, error) {
	idx := &Index{domain: domain, model: e.Model()}
	if len(items) == 0 {
		return idx, nil
	}

	texts := make([]string, len(items))
	for i, it := range items {
		texts[i] = it.EmbeddingText
	}
	vecs, err := e.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed %s catalog: %w", domain, err)
	}
	if len(vecs) != len(items) {
		return nil, fmt.Errorf("embed %s catalog: got %d vectors for %d items", domain, len(vecs), len(items))
	}

	idx.dim = len(vecs[0])
	idx.items = make([]catalog.Item, len(items))
	idx.vectors = make([][]float64, len(items))
	for i, v := range vecs {
		if len(v) != idx.dim {
			return nil, fmt.Errorf("%w: item %s has %d, want %d", ErrDimensionMismatch, items[i].ID, len(v), idx.dim)
		}
		idx.items[i] = items[i]
		idx.vectors[i] = append([]float64(nil), v...)
	}
	return idx, nil
}

func (x *Index) Domain() catalog.Domain { return x.domain }

// Model is the embedding model the index was built with.
func (x *Index) Model() string { return x.model }

func (x *Index) Len() int { return len(x.items) }

// Query returns up to k items ordered by descending cosine similarity to v.
// Equal scores keep catalog order.
func (x *Index) Query(v []float64, k int) ([]Match, error) {
	if k < 1 {
		return nil, ErrInvalidK
	}
	if len(x.items) == 0 {
		return []Match{}, nil
	}
	if len(v) != x.dim {
		return nil, fmt.Errorf("%w: query has %d, index has %d", ErrDimensionMismatch, len(v), x.dim)
	}

	matches := make([]Match, len(x.items))
	for i, it := range x.items {
		matches[i] = Match{Item: it, Score: cosineSimilarity(v, x.vectors[i])}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// cosineSimilarity calculates cosine similarity between two vectors
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}

	var dotProduct, normA, normB float64
	for i := 0; i < len(a); i++ {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0.0 || normB == 0.0 {
		return 0.0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
