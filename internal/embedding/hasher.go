package embedding

import (
	"context"
	"hash/fnv"
	"strconv"
	"strings"
	"unicode"
)

const DefaultDimension = 384

var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "the": true, "with": true, "my": true,
	"i": true, "im": true, "i'm": true, "we": true, "our": true, "of": true,
	"for": true, "to": true, "in": true, "on": true, "at": true, "is": true,
	"are": true, "be": true, "some": true, "me": true, "want": true, "looking": true,
}

// Hasher is a deterministic local embedder: unigrams and bigrams are hashed
// into a fixed number of signed buckets and the result is L2-normalised. It
// needs no backend, so it serves offline runs and tests.
type Hasher struct {
	dim int
}

// NewHasher returns a hasher producing vectors of dim dimensions
// (DefaultDimension when dim < 1).
func NewHasher(dim int) *Hasher {
	if dim < 1 {
		dim = DefaultDimension
	}
	return &Hasher{dim: dim}
}

func (h *Hasher) Model() string { return "hashing-" + strconv.Itoa(h.dim) }

func (h *Hasher) Embed(_ context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = h.vector(t)
	}
	return out, nil
}

func (h *Hasher) vector(text string) []float64 {
	v := make([]float64, h.dim)
	tokens := tokenize(text)
	for i, tok := range tokens {
		h.add(v, tok, 1)
		if i > 0 {
			h.add(v, tokens[i-1]+" "+tok, 0.5)
		}
	}
	return Normalize(v)
}

func (h *Hasher) add(v []float64, feature string, weight float64) {
	f := fnv.New64a()
	f.Write([]byte(feature))
	sum := f.Sum64()
	idx := int(sum % uint64(h.dim))
	if sum>>63 == 1 {
		weight = -weight
	}
	v[idx] += weight
}

func tokenize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	out := words[:0]
	for _, w := range words {
		w = strings.Trim(w, "'")
		if w == "" || stopWords[w] {
			continue
		}
		out = append(out, stem(w))
	}
	return out
}

// stem strips a plural "s" so "friends" and "friend" hash alike.
func stem(w string) string {
	if len(w) > 4 && strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss") {
		return w[:len(w)-1]
	}
	return w
}
