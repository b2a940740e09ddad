package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault_LoadsAllDomains(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, d := range Domains {
		items := c.Items(d)
		if len(items) == 0 {
			t.Fatalf("expected %s items in built-in catalog", d)
		}
		for _, it := range items {
			if it.Domain != d {
				t.Errorf("item %s: expected domain %s, got %s", it.ID, d, it.Domain)
			}
			if it.EmbeddingText == "" {
				t.Errorf("item %s: expected derived embedding text", it.ID)
			}
		}
	}
}

func TestParse_DerivesEmbeddingText(t *testing.T) {
	doc := `
restaurants:
  - id: r1
    title: Taco Libre
    description: Street tacos
    tags: [mexican]
    ambiance: [casual]
    price_range: $
    group_size: [1, 6]
    location: " Downtown "
`
	c, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	it := c.Restaurants[0]
	if it.Location != "downtown" {
		t.Errorf("expected normalised location downtown, got %q", it.Location)
	}
	for _, want := range []string{"Taco Libre", "Street tacos", "mexican", "ambiance: casual", "location: downtown"} {
		if !strings.Contains(it.EmbeddingText, want) {
			t.Errorf("expected embedding text to contain %q, got %q", want, it.EmbeddingText)
		}
	}
	if it.GroupSize.Min != 1 || it.GroupSize.Max != 6 {
		t.Errorf("expected group size 1-6, got %s", it.GroupSize)
	}
}

func TestParse_KeepsExplicitEmbeddingText(t *testing.T) {
	doc := `
movies:
  - id: m1
    title: Coco
    embedding_text: music family afterlife
`
	c, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Movies[0].EmbeddingText != "music family afterlife" {
		t.Errorf("expected explicit embedding text, got %q", c.Movies[0].EmbeddingText)
	}
}

func TestParse_GroupSizeList(t *testing.T) {
	doc := `
activities:
  - id: a1
    title: Bowling
    group_size: [4, 2, 8, 6]
`
	c, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	gs := c.Activities[0].GroupSize
	if gs.Min != 2 || gs.Max != 8 {
		t.Errorf("expected range 2-8, got %s", gs)
	}
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing id", "movies:\n  - title: X\n"},
		{"missing title", "movies:\n  - id: m1\n"},
		{"bad price tier", "restaurants:\n  - id: r1\n    title: X\n    price_range: cheap\n"},
		{"negative cost", "activities:\n  - id: a1\n    title: X\n    cost_per_person: -5\n"},
		{"rating out of range", "movies:\n  - id: m1\n    title: X\n    rating: 11\n"},
		{"not yaml", "movies: [unclosed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.doc)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestParse_DuplicateIDAcrossDomains(t *testing.T) {
	doc := `
movies:
  - id: dup
    title: A
activities:
  - id: dup
    title: B
`
	_, err := Parse([]byte(doc))
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
}

func TestGroupSizeRange(t *testing.T) {
	tests := []struct {
		r    GroupSizeRange
		n    int
		want bool
	}{
		{GroupSizeRange{}, 50, true},
		{GroupSizeRange{Min: 2, Max: 6}, 2, true},
		{GroupSizeRange{Min: 2, Max: 6}, 6, true},
		{GroupSizeRange{Min: 2, Max: 6}, 7, false},
		{GroupSizeRange{Min: 2, Max: 6}, 1, false},
	}
	for _, tt := range tests {
		if got := tt.r.Contains(tt.n); got != tt.want {
			t.Errorf("%s contains %d: expected %v, got %v", tt.r, tt.n, tt.want, got)
		}
	}
}

func TestGroupSizeRange_JSON(t *testing.T) {
	it := Item{ID: "a", Title: "A", GroupSize: GroupSizeRange{Min: 2, Max: 4}}
	b, err := json.Marshal(it)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"group_size":[2,4]`) {
		t.Errorf("expected group_size array, got %s", b)
	}

	b, _ = json.Marshal(Item{ID: "b", Title: "B"})
	if !strings.Contains(string(b), `"group_size":null`) {
		t.Errorf("expected null group_size, got %s", b)
	}
}

func TestFileLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte("movies:\n  - id: m1\n    title: Heat\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	c, err := FileLoader{Path: path}.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Len() != 1 || c.Movies[0].Title != "Heat" {
		t.Errorf("unexpected catalog: %+v", c)
	}

	if _, err := (FileLoader{Path: filepath.Join(t.TempDir(), "missing.yaml")}).Load(context.Background()); err == nil {
		t.Fatal("expected error for missing file")
	}
}
