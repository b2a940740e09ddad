package index

import (
	"context"
	"fmt"
	"strings"

	"github.com/MikeSquared-Agency/concierge/internal/catalog"
	"github.com/MikeSquared-Agency/concierge/internal/embedding"
	"github.com/MikeSquared-Agency/concierge/internal/extractor"
)

// Set is the three per-domain indexes built from one catalog.
type Set struct {
	indexes map[catalog.Domain]*Index
}

// BuildSet builds an index for every domain of c.
func BuildSet(ctx context.Context, c *catalog.Catalog, e embedding.Embedder) (*Set, error) {
	s := &Set{indexes: make(map[catalog.Domain]*Index, len(catalog.Domains))}
	for _, d := range catalog.Domains {
		idx, err := Build(ctx, d, c.Items(d), e)
		if err != nil {
			return nil, fmt.Errorf("build %s index: %w", d, err)
		}
		s.indexes[d] = idx
	}
	return s, nil
}

// Get returns the index for d. A set built by BuildSet has all domains.
func (s *Set) Get(d catalog.Domain) (*Index, bool) {
	idx, ok := s.indexes[d]
	return idx, ok
}

// Counts reports the item count per domain.
func (s *Set) Counts() map[catalog.Domain]int {
	out := make(map[catalog.Domain]int, len(s.indexes))
	for d, idx := range s.indexes {
		out[d] = idx.Len()
	}
	return out
}

// QueryText builds the text a domain query is embedded from: mood, occasion,
// location, the domain's hints and finally the raw request.
func QueryText(p extractor.Preferences, d catalog.Domain) string {
	var parts []string
	if p.Mood != nil {
		parts = append(parts, "mood: "+*p.Mood)
	}
	if p.Occasion != nil {
		parts = append(parts, "occasion: "+string(*p.Occasion))
	}
	if p.Location != nil {
		parts = append(parts, "location: "+*p.Location)
	}

	var hints []string
	switch d {
	case catalog.Movie:
		hints = p.MovieGenres
	case catalog.Restaurant:
		hints = p.Cuisines
	case catalog.Activity:
		hints = p.ActivityTypes
	}
	if len(hints) > 0 {
		parts = append(parts, strings.Join(hints, ", "))
	}

	parts = append(parts, p.RawText)
	return strings.Join(parts, ". ")
}
