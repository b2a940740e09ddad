package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/MikeSquared-Agency/concierge/internal/anthropic"
	"github.com/MikeSquared-Agency/concierge/internal/catalog"
	"github.com/MikeSquared-Agency/concierge/internal/cost"
	"github.com/MikeSquared-Agency/concierge/internal/embedding"
	"github.com/MikeSquared-Agency/concierge/internal/extractor"
	"github.com/MikeSquared-Agency/concierge/internal/reasoning"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr[T any](v T) *T { return &v }

// fixedExtractor returns prefs with the raw text filled in.
type fixedExtractor struct {
	prefs extractor.Preferences
	calls atomic.Int32
	panic bool
}

func (f *fixedExtractor) Extract(_ context.Context, rawText string) extractor.Preferences {
	f.calls.Add(1)
	if f.panic {
		panic("extractor exploded")
	}
	p := f.prefs
	p.RawText = rawText
	return p
}

type staticExplainer struct{}

func (staticExplainer) Explain(_ context.Context, p extractor.Preferences, m, r, a *catalog.Item) string {
	return reasoning.Fallback(p, m, r, a)
}

// switchEmbedder delegates to a hasher until failing or panicking is set.
type switchEmbedder struct {
	inner embedding.Embedder
	fail  atomic.Bool
	panic atomic.Bool
}

func (s *switchEmbedder) Model() string { return s.inner.Model() }

func (s *switchEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if s.panic.Load() {
		panic("embedder exploded")
	}
	if s.fail.Load() {
		return nil, errors.New("connection refused")
	}
	return s.inner.Embed(ctx, texts)
}

func newEngine(t *testing.T, loader catalog.Loader, ext PreferenceExtractor, emb embedding.Embedder, topK int) *Engine {
	t.Helper()
	e, err := New(Options{
		Loader:    loader,
		Embedder:  emb,
		Extractor: ext,
		Explainer: staticExplainer{},
		Prices:    cost.DefaultTable(),
		TopK:      topK,
		Logger:    discardLogger(),
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return e
}

func adventurousFriends() *fixedExtractor {
	occ := extractor.FriendsHangout
	return &fixedExtractor{prefs: extractor.Preferences{
		Mood:      ptr("adventurous"),
		Occasion:  &occ,
		Budget:    ptr(50.0),
		GroupSize: ptr(4),
		Location:  ptr("downtown"),
	}}
}

func assertErrorShape(t *testing.T, res Result, msg string) {
	t.Helper()
	if res.Status != StatusError {
		t.Fatalf("expected error status, got %s", res.Status)
	}
	if res.Message != msg {
		t.Errorf("expected message %q, got %q", msg, res.Message)
	}
	if res.Movie != nil || res.Restaurant != nil || res.Activity != nil {
		t.Error("error result must not carry items")
	}
	if res.EstimatedCost != 0 {
		t.Errorf("error result must have zero cost, got %v", res.EstimatedCost)
	}
	if res.RequestID == "" {
		t.Error("expected request id")
	}
}

func TestGetRecommendations_AdventurousFriendsDowntown(t *testing.T) {
	// Every item is a candidate so a constraint-satisfying pick always exists.
	e := newEngine(t, catalog.FileLoader{}, adventurousFriends(), embedding.NewHasher(embedding.DefaultDimension), 100)

	res := e.GetRecommendations(context.Background(), "I'm feeling adventurous with my 3 friends downtown with $50 budget")

	if res.Status != StatusOK {
		t.Fatalf("expected ok, got %s: %s", res.Status, res.Message)
	}
	if res.Movie == nil || res.Restaurant == nil || res.Activity == nil {
		t.Fatalf("expected a pick in every domain, got %+v", res)
	}

	prices := cost.DefaultTable()
	for _, it := range []*catalog.Item{res.Restaurant, res.Activity} {
		if p, ok := prices.PerPerson(it); ok && p > 50 {
			t.Errorf("%s costs %.0f per person, over budget", it.ID, p)
		}
		if !it.GroupSize.Contains(4) {
			t.Errorf("%s does not fit a group of 4 (%s)", it.ID, it.GroupSize)
		}
		if it.HasLocation() && !strings.EqualFold(it.Location, "downtown") {
			t.Errorf("%s is in %s, not downtown", it.ID, it.Location)
		}
	}

	want := prices.Estimate(res.Movie, res.Restaurant, res.Activity, ptr(4))
	if res.EstimatedCost != want || res.EstimatedCost <= 0 {
		t.Errorf("expected cost %.2f, got %.2f", want, res.EstimatedCost)
	}
	if res.Reasoning == "" {
		t.Error("expected reasoning")
	}
	if res.Preferences == nil || res.Preferences.RawText == "" {
		t.Error("expected preferences with raw text on the result")
	}
}

func TestGetRecommendations_FamilyGatheringSuburban(t *testing.T) {
	occ := extractor.FamilyGathering
	ext := &fixedExtractor{prefs: extractor.Preferences{
		Mood:          ptr("relaxed"),
		Occasion:      &occ,
		GroupSize:     ptr(6),
		Location:      ptr("suburban"),
		MovieGenres:   []string{"family"},
		ActivityTypes: []string{"outdoor"},
	}}
	e := newEngine(t, catalog.FileLoader{}, ext, embedding.NewHasher(embedding.DefaultDimension), 0)

	res := e.GetRecommendations(context.Background(), "Family gathering, relaxed, suburban area, 6 people")

	if res.Status != StatusOK {
		t.Fatalf("expected ok, got %s: %s", res.Status, res.Message)
	}
	if res.Restaurant == nil || res.Activity == nil {
		t.Fatalf("expected restaurant and activity picks, got %+v", res)
	}
	for _, it := range []*catalog.Item{res.Movie, res.Restaurant, res.Activity} {
		if it == nil {
			continue
		}
		if !it.GroupSize.Contains(6) {
			t.Errorf("%s does not fit a group of 6 (%s)", it.ID, it.GroupSize)
		}
		if it.HasLocation() && !strings.EqualFold(it.Location, "suburban") {
			t.Errorf("%s is in %s, not suburban", it.ID, it.Location)
		}
	}

	want := cost.DefaultTable().Estimate(res.Movie, res.Restaurant, res.Activity, ptr(6))
	if res.EstimatedCost != want {
		t.Errorf("expected cost %.2f, got %.2f", want, res.EstimatedCost)
	}
}

func TestGetRecommendations_Idempotent(t *testing.T) {
	e := newEngine(t, catalog.FileLoader{}, adventurousFriends(), embedding.NewHasher(embedding.DefaultDimension), 0)
	ctx := context.Background()

	a := e.GetRecommendations(ctx, "quiet dinner and a film")
	b := e.GetRecommendations(ctx, "quiet dinner and a film")

	if a.Status != StatusOK || b.Status != StatusOK {
		t.Fatalf("expected ok results, got %s and %s", a.Status, b.Status)
	}
	if itemID(a.Movie) != itemID(b.Movie) || itemID(a.Restaurant) != itemID(b.Restaurant) || itemID(a.Activity) != itemID(b.Activity) {
		t.Error("expected identical picks for identical input")
	}
	if a.EstimatedCost != b.EstimatedCost {
		t.Errorf("expected identical cost, got %v and %v", a.EstimatedCost, b.EstimatedCost)
	}
	if a.RequestID == b.RequestID {
		t.Error("expected distinct request ids")
	}
}

func TestGetRecommendations_CostGrowsWithGroup(t *testing.T) {
	// One unconstrained item per domain keeps the selection fixed.
	c := &catalog.Catalog{
		Movies:      []catalog.Item{{ID: "m", Title: "Feature"}},
		Restaurants: []catalog.Item{{ID: "r", Title: "Bistro", PriceRange: "$$"}},
		Activities:  []catalog.Item{{ID: "a", Title: "Bowling", CostPerPerson: ptr(12.5)}},
	}
	if err := c.Prepare(); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	loader := catalog.LoaderFunc(func(context.Context) (*catalog.Catalog, error) { return c, nil })

	prev := -1.0
	for n := 1; n <= 12; n++ {
		ext := &fixedExtractor{prefs: extractor.Preferences{GroupSize: ptr(n)}}
		e := newEngine(t, loader, ext, embedding.NewHasher(32), 0)
		res := e.GetRecommendations(context.Background(), "night out")
		if res.Status != StatusOK {
			t.Fatalf("group %d: %s", n, res.Message)
		}
		if res.EstimatedCost < prev {
			t.Fatalf("cost fell from %.2f to %.2f at group %d", prev, res.EstimatedCost, n)
		}
		prev = res.EstimatedCost
	}
	if prev != 12*(15+30+12.5) {
		t.Errorf("unexpected cost for 12 people: %.2f", prev)
	}
}

func TestGetRecommendations_EmptyCatalog(t *testing.T) {
	loader := catalog.LoaderFunc(func(context.Context) (*catalog.Catalog, error) { return &catalog.Catalog{}, nil })
	e := newEngine(t, loader, adventurousFriends(), embedding.NewHasher(16), 0)

	res := e.GetRecommendations(context.Background(), "anything")

	if res.Status != StatusOK {
		t.Fatalf("expected ok for empty catalog, got %s: %s", res.Status, res.Message)
	}
	if res.Movie != nil || res.Restaurant != nil || res.Activity != nil {
		t.Error("expected no picks")
	}
	if res.EstimatedCost != 0 {
		t.Errorf("expected zero cost, got %v", res.EstimatedCost)
	}
	if !strings.Contains(res.Reasoning, "could not find a good match") {
		t.Errorf("unexpected reasoning %q", res.Reasoning)
	}
}

func TestGetRecommendations_CatalogFailureIsSticky(t *testing.T) {
	var loads atomic.Int32
	loader := catalog.LoaderFunc(func(context.Context) (*catalog.Catalog, error) {
		loads.Add(1)
		return nil, errors.New("file not found")
	})
	ext := adventurousFriends()
	e := newEngine(t, loader, ext, embedding.NewHasher(16), 0)

	if err := e.Load(context.Background()); err == nil {
		t.Fatal("expected load error")
	}
	for i := 0; i < 2; i++ {
		assertErrorShape(t, e.GetRecommendations(context.Background(), "date night"), MsgCatalogUnavailable)
	}
	if loads.Load() != 1 {
		t.Errorf("expected one load attempt, got %d", loads.Load())
	}
	if ext.calls.Load() != 0 {
		t.Error("extractor should not run without a catalog")
	}
	if e.Stats().Loaded {
		t.Error("stats should report not loaded")
	}
}

func TestLoad_PanicIsRemembered(t *testing.T) {
	var loads atomic.Int32
	loader := catalog.LoaderFunc(func(context.Context) (*catalog.Catalog, error) {
		loads.Add(1)
		panic("decoder exploded")
	})
	e := newEngine(t, loader, adventurousFriends(), embedding.NewHasher(16), 0)

	if err := e.Load(context.Background()); !errors.Is(err, errPanic) {
		t.Fatalf("expected panic load error, got %v", err)
	}
	for i := 0; i < 2; i++ {
		assertErrorShape(t, e.GetRecommendations(context.Background(), "date night"), MsgCatalogUnavailable)
	}
	if loads.Load() != 1 {
		t.Errorf("expected one load attempt, got %d", loads.Load())
	}
	if e.Stats().Loaded {
		t.Error("stats should report not loaded")
	}
}

func TestGetRecommendations_EmbeddingBackendDown(t *testing.T) {
	emb := &switchEmbedder{inner: embedding.NewHasher(16)}
	e := newEngine(t, catalog.FileLoader{}, adventurousFriends(), emb, 0)
	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	emb.fail.Store(true)
	assertErrorShape(t, e.GetRecommendations(context.Background(), "pizza and a movie"), MsgRetrievalFailed)
}

func TestGetRecommendations_IndexBuildFailure(t *testing.T) {
	emb := &switchEmbedder{inner: embedding.NewHasher(16)}
	emb.fail.Store(true)
	e := newEngine(t, catalog.FileLoader{}, adventurousFriends(), emb, 0)

	assertErrorShape(t, e.GetRecommendations(context.Background(), "pizza"), MsgCatalogUnavailable)
}

func TestGetRecommendations_RecoversPanics(t *testing.T) {
	t.Run("extractor", func(t *testing.T) {
		ext := adventurousFriends()
		ext.panic = true
		e := newEngine(t, catalog.FileLoader{}, ext, embedding.NewHasher(16), 0)
		assertErrorShape(t, e.GetRecommendations(context.Background(), "boom"), MsgUnexpected)
	})

	t.Run("domain goroutine", func(t *testing.T) {
		emb := &switchEmbedder{inner: embedding.NewHasher(16)}
		e := newEngine(t, catalog.FileLoader{}, adventurousFriends(), emb, 0)
		if err := e.Load(context.Background()); err != nil {
			t.Fatalf("load: %v", err)
		}
		emb.panic.Store(true)
		assertErrorShape(t, e.GetRecommendations(context.Background(), "boom"), MsgUnexpected)
	})
}

func TestGetRecommendations_EmptyInput(t *testing.T) {
	ext := adventurousFriends()
	e := newEngine(t, catalog.FileLoader{}, ext, embedding.NewHasher(16), 0)

	assertErrorShape(t, e.GetRecommendations(context.Background(), "  \n\t"), MsgEmptyInput)
	if ext.calls.Load() != 0 {
		t.Error("extractor should not run for empty input")
	}
	if !errors.Is(ValidateInput(" "), ErrEmptyInput) {
		t.Error("expected ErrEmptyInput")
	}
	if ValidateInput("hi") != nil {
		t.Error("expected non-empty text to validate")
	}
}

// downLLM fails every call, so extraction and reasoning both degrade.
type downLLM struct{}

func (downLLM) Complete(context.Context, string, []anthropic.Message, int) (string, error) {
	return "", errors.New("503 overloaded")
}

func TestGetRecommendations_ModelOutageDegrades(t *testing.T) {
	e, err := New(Options{
		Loader:    catalog.FileLoader{},
		Embedder:  embedding.NewHasher(embedding.DefaultDimension),
		Extractor: extractor.New(downLLM{}, 0, discardLogger()),
		Explainer: reasoning.New(downLLM{}, 0, discardLogger()),
		Prices:    cost.DefaultTable(),
		Logger:    discardLogger(),
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	res := e.GetRecommendations(context.Background(), "romantic date night")

	if res.Status != StatusOK {
		t.Fatalf("expected ok despite model outage, got %s: %s", res.Status, res.Message)
	}
	if res.Preferences.Mood != nil || res.Preferences.RawText != "romantic date night" {
		t.Errorf("expected raw-text-only preferences, got %+v", res.Preferences)
	}
	if !strings.HasPrefix(res.Reasoning, "Based on your preferences, we selected") {
		t.Errorf("expected template reasoning, got %q", res.Reasoning)
	}
}

func TestStats(t *testing.T) {
	e := newEngine(t, catalog.FileLoader{}, adventurousFriends(), embedding.NewHasher(16), 0)
	if st := e.Stats(); st.Loaded || st.EmbeddingModel != "hashing-16" {
		t.Errorf("unexpected stats before load: %+v", st)
	}
	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	st := e.Stats()
	if !st.Loaded || st.Items[catalog.Movie] != 10 || st.Items[catalog.Restaurant] != 10 || st.Items[catalog.Activity] != 10 {
		t.Errorf("unexpected stats after load: %+v", st)
	}
}
