// Package engine runs the recommendation pipeline: extract preferences,
// retrieve and select one item per domain, then price and explain the picks.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/concierge/internal/catalog"
	"github.com/MikeSquared-Agency/concierge/internal/cost"
	"github.com/MikeSquared-Agency/concierge/internal/embedding"
	"github.com/MikeSquared-Agency/concierge/internal/extractor"
	"github.com/MikeSquared-Agency/concierge/internal/index"
	"github.com/MikeSquared-Agency/concierge/internal/metrics"
	"github.com/MikeSquared-Agency/concierge/internal/selector"
)

// DefaultTopK is how many candidates each domain query retrieves.
const DefaultTopK = 5

var (
	ErrEmptyInput = errors.New("empty input")

	errPanic = errors.New("panic")
)

// PreferenceExtractor turns free text into preferences. It must not fail.
type PreferenceExtractor interface {
	Extract(ctx context.Context, rawText string) extractor.Preferences
}

// Explainer writes the reasoning for a set of picks. It must not fail.
type Explainer interface {
	Explain(ctx context.Context, p extractor.Preferences, movie, restaurant, activity *catalog.Item) string
}

type Options struct {
	Loader    catalog.Loader
	Embedder  embedding.Embedder
	Extractor PreferenceExtractor
	Explainer Explainer
	Selector  *selector.Selector // nil: constraints only, no rules
	Prices    cost.Table
	TopK      int
	Logger    *slog.Logger
}

// Engine owns the catalog indexes and serves recommendations. It is safe for
// concurrent use once constructed.
type Engine struct {
	loader    catalog.Loader
	embedder  embedding.Embedder
	extractor PreferenceExtractor
	explainer Explainer
	selector  *selector.Selector
	prices    cost.Table
	topK      int
	logger    *slog.Logger

	loadOnce sync.Once
	loadErr  error
	set      atomic.Pointer[index.Set]
}

func New(o Options) (*Engine, error) {
	if o.Selector == nil {
		s, err := selector.New(o.Prices, nil)
		if err != nil {
			return nil, fmt.Errorf("create selector: %w", err)
		}
		o.Selector = s
	}
	if o.TopK < 1 {
		o.TopK = DefaultTopK
	}
	return &Engine{
		loader:    o.Loader,
		embedder:  o.Embedder,
		extractor: o.Extractor,
		explainer: o.Explainer,
		selector:  o.Selector,
		prices:    o.Prices,
		topK:      o.TopK,
		logger:    o.Logger,
	}, nil
}

// ValidateInput rejects text that is empty after trimming.
func ValidateInput(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyInput
	}
	return nil
}

// Load loads the catalog and builds the domain indexes. It runs once; a
// failure is remembered and returned by every later call.
func (e *Engine) Load(ctx context.Context) error {
	e.loadOnce.Do(func() {
		defer func() {
			if r := recover(); r != nil {
				e.loadErr = fmt.Errorf("%w while loading catalog: %v", errPanic, r)
				e.logger.Error("catalog load panicked",
					"panic", fmt.Sprint(r),
					"stack", string(debug.Stack()),
				)
			}
		}()

		// A cancelled request must not poison the shared build.
		ctx := context.WithoutCancel(ctx)
		start := time.Now()

		c, err := e.loader.Load(ctx)
		if err != nil {
			e.loadErr = fmt.Errorf("load catalog: %w", err)
			e.logger.Error("catalog load failed", "error", err)
			return
		}
		set, err := index.BuildSet(ctx, c, e.embedder)
		if err != nil {
			e.loadErr = fmt.Errorf("build indexes: %w", err)
			e.logger.Error("index build failed", "error", err)
			return
		}
		e.set.Store(set)

		for _, d := range catalog.Domains {
			if idx, ok := set.Get(d); ok {
				e.logger.Debug("index built", "domain", idx.Domain(), "items", idx.Len(), "model", idx.Model())
			}
		}
		metrics.StageDuration.WithLabelValues("load").Observe(time.Since(start).Seconds())
		e.logger.Info("catalog indexed",
			"movies", len(c.Movies),
			"restaurants", len(c.Restaurants),
			"activities", len(c.Activities),
			"embedding_model", e.embedder.Model(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
	return e.loadErr
}

// Stats reports the indexed item counts. Before a successful Load it reports
// Loaded false.
func (e *Engine) Stats() Stats {
	st := Stats{EmbeddingModel: e.embedder.Model()}
	if set := e.set.Load(); set != nil {
		st.Loaded = true
		st.Items = set.Counts()
	}
	return st
}

// GetRecommendations runs the whole pipeline for rawText. It never panics
// and never returns an error; failures are reported in the result.
func (e *Engine) GetRecommendations(ctx context.Context, rawText string) (res Result) {
	start := time.Now()
	requestID := uuid.NewString()

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("recommendation panicked",
				"request_id", requestID,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
			res = errorResult(requestID, MsgUnexpected)
		}
		metrics.RecommendationsTotal.WithLabelValues(string(res.Status)).Inc()
		metrics.StageDuration.WithLabelValues("total").Observe(time.Since(start).Seconds())
	}()

	return e.recommend(ctx, requestID, rawText)
}

func (e *Engine) recommend(ctx context.Context, requestID, rawText string) Result {
	if err := ValidateInput(rawText); err != nil {
		return errorResult(requestID, MsgEmptyInput)
	}
	if err := e.Load(ctx); err != nil {
		return errorResult(requestID, MsgCatalogUnavailable)
	}
	set := e.set.Load()

	stage := time.Now()
	prefs := e.extractor.Extract(ctx, rawText)
	metrics.StageDuration.WithLabelValues("extract").Observe(time.Since(stage).Seconds())

	stage = time.Now()
	picks, err := e.retrieve(ctx, set, prefs)
	metrics.StageDuration.WithLabelValues("retrieve").Observe(time.Since(stage).Seconds())
	if err != nil {
		e.logger.Error("retrieval failed", "request_id", requestID, "error", err)
		if errors.Is(err, errPanic) {
			return errorResult(requestID, MsgUnexpected)
		}
		return errorResult(requestID, MsgRetrievalFailed)
	}
	movie, restaurant, activity := picks[0], picks[1], picks[2]

	total := e.prices.Estimate(movie, restaurant, activity, prefs.GroupSize)

	stage = time.Now()
	reasoning := e.explainer.Explain(ctx, prefs, movie, restaurant, activity)
	metrics.StageDuration.WithLabelValues("reason").Observe(time.Since(stage).Seconds())

	e.logger.Info("recommendation ready",
		"request_id", requestID,
		"movie", itemID(movie),
		"restaurant", itemID(restaurant),
		"activity", itemID(activity),
		"estimated_cost", total,
	)

	return Result{
		Status:        StatusOK,
		RequestID:     requestID,
		Preferences:   &prefs,
		Movie:         movie,
		Restaurant:    restaurant,
		Activity:      activity,
		EstimatedCost: total,
		Reasoning:     reasoning,
	}
}

// retrieve runs one query-and-select pipeline per domain concurrently. Every
// domain runs to completion; the picks are in catalog.Domains order.
func (e *Engine) retrieve(ctx context.Context, set *index.Set, prefs extractor.Preferences) ([]*catalog.Item, error) {
	picks := make([]*catalog.Item, len(catalog.Domains))

	var g errgroup.Group
	for i, d := range catalog.Domains {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					e.logger.Error("domain pipeline panicked",
						"domain", d,
						"panic", fmt.Sprint(r),
						"stack", string(debug.Stack()),
					)
					err = fmt.Errorf("%s: %w: %v", d, errPanic, r)
				}
			}()

			item, err := e.pick(ctx, set, d, prefs)
			if err != nil {
				return fmt.Errorf("%s: %w", d, err)
			}
			picks[i] = item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return picks, nil
}

func (e *Engine) pick(ctx context.Context, set *index.Set, d catalog.Domain, prefs extractor.Preferences) (*catalog.Item, error) {
	idx, ok := set.Get(d)
	if !ok {
		return nil, errors.New("no index for domain")
	}
	if idx.Len() == 0 {
		metrics.EmptyDomains.WithLabelValues(string(d)).Inc()
		return nil, nil
	}

	vecs, err := e.embedder.Embed(ctx, []string{index.QueryText(prefs, d)})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embed query: got %d vectors", len(vecs))
	}

	matches, err := idx.Query(vecs[0], e.topK)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}

	item := e.selector.Select(matches, prefs)
	if item == nil {
		metrics.EmptyDomains.WithLabelValues(string(d)).Inc()
	}
	e.logger.Debug("domain selected", "domain", d, "candidates", len(matches), "pick", itemID(item))
	return item, nil
}

func itemID(it *catalog.Item) string {
	if it == nil {
		return ""
	}
	return it.ID
}
