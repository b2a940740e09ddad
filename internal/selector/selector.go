// Package selector picks one item per domain from ranked matches, applying
// the request's hard constraints.
package selector

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"

	"github.com/MikeSquared-Agency/concierge/internal/catalog"
	"github.com/MikeSquared-Agency/concierge/internal/cost"
	"github.com/MikeSquared-Agency/concierge/internal/extractor"
	"github.com/MikeSquared-Agency/concierge/internal/index"
	"github.com/MikeSquared-Agency/concierge/internal/metrics"
)

// Selector applies budget, group size, location and optional per-domain rules
// to ranked candidates. It is safe for concurrent use.
type Selector struct {
	prices cost.Table
	rules  map[catalog.Domain]cel.Program
}

// New compiles rules, keyed by domain. Blank rules are skipped.
func New(prices cost.Table, rules map[catalog.Domain]string) (*Selector, error) {
	s := &Selector{prices: prices, rules: make(map[catalog.Domain]cel.Program)}

	var env *cel.Env
	for d, expr := range rules {
		expr = strings.TrimSpace(expr)
		if expr == "" {
			continue
		}
		if env == nil {
			var err error
			if env, err = newEnv(); err != nil {
				return nil, fmt.Errorf("create rule env: %w", err)
			}
		}
		prg, err := compileRule(env, expr)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d, err)
		}
		s.rules[d] = prg
	}
	return s, nil
}

// Select returns the highest-scoring match that satisfies every stated
// constraint. When none does it returns the top match unfiltered. An empty
// match list yields nil.
func (s *Selector) Select(matches []index.Match, p extractor.Preferences) *catalog.Item {
	if len(matches) == 0 {
		return nil
	}
	for i := range matches {
		if s.Accepts(matches[i].Item, p) {
			item := matches[i].Item
			return &item
		}
	}
	metrics.SelectorFallbacks.WithLabelValues(string(matches[0].Item.Domain)).Inc()
	item := matches[0].Item
	return &item
}

// Accepts reports whether item satisfies p and the item's domain rule.
func (s *Selector) Accepts(item catalog.Item, p extractor.Preferences) bool {
	if p.Budget != nil && item.Domain != catalog.Movie {
		// Items without price information are not excluded by budget.
		if price, ok := s.prices.PerPerson(&item); ok && price > *p.Budget {
			return false
		}
	}
	if p.GroupSize != nil && !item.GroupSize.Contains(*p.GroupSize) {
		return false
	}
	if p.Location != nil && item.HasLocation() && !strings.EqualFold(item.Location, *p.Location) {
		return false
	}
	if prg, ok := s.rules[item.Domain]; ok {
		pass, err := evalRule(prg, item, p)
		if err != nil || !pass {
			return false
		}
	}
	return true
}
