// Package reasoning writes the short explanation shown with a recommendation.
package reasoning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/concierge/internal/anthropic"
	"github.com/MikeSquared-Agency/concierge/internal/catalog"
	"github.com/MikeSquared-Agency/concierge/internal/extractor"
	"github.com/MikeSquared-Agency/concierge/internal/metrics"
)

const maxTokens = 300

type Generator struct {
	llm     anthropic.Completer
	timeout time.Duration
	logger  *slog.Logger
}

func New(llm anthropic.Completer, timeout time.Duration, logger *slog.Logger) *Generator {
	return &Generator{llm: llm, timeout: timeout, logger: logger}
}

// Explain asks the model why the picks fit p. Any model failure, including a
// blank reply, falls back to a templated sentence; Explain never fails.
func (g *Generator) Explain(ctx context.Context, p extractor.Preferences, movie, restaurant, activity *catalog.Item) string {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	messages := []anthropic.Message{
		{Role: "user", Content: fmt.Sprintf(userPrompt, p.RawText, describePreferences(p), describePicks(movie, restaurant, activity))},
	}

	text, err := g.llm.Complete(ctx, systemPrompt, messages, maxTokens)
	text = strings.TrimSpace(text)
	if err == nil && text == "" {
		err = errors.New("empty reasoning")
	}
	if err != nil {
		g.logger.Warn("reasoning degraded to template", "error", err)
		metrics.Degradations.WithLabelValues("reason").Inc()
		return Fallback(p, movie, restaurant, activity)
	}
	return text
}

// Fallback is the templated explanation used when the model is unavailable.
func Fallback(p extractor.Preferences, movie, restaurant, activity *catalog.Item) string {
	var titles []string
	for _, it := range []*catalog.Item{movie, restaurant, activity} {
		if it != nil {
			titles = append(titles, it.Title)
		}
	}

	lead := "Based on your preferences"
	switch {
	case p.Mood != nil && p.Occasion != nil:
		lead = fmt.Sprintf("Based on your %s mood and your %s plans", *p.Mood, strings.ToLower(string(*p.Occasion)))
	case p.Mood != nil:
		lead = fmt.Sprintf("Based on your %s mood", *p.Mood)
	case p.Occasion != nil:
		lead = fmt.Sprintf("Based on your %s plans", strings.ToLower(string(*p.Occasion)))
	}

	if len(titles) == 0 {
		return lead + ", we could not find a good match this time."
	}
	return fmt.Sprintf("%s, we selected %s.", lead, joinTitles(titles))
}

func joinTitles(t []string) string {
	switch len(t) {
	case 1:
		return t[0]
	case 2:
		return t[0] + " and " + t[1]
	}
	return strings.Join(t[:len(t)-1], ", ") + ", and " + t[len(t)-1]
}

func describePreferences(p extractor.Preferences) string {
	var b strings.Builder
	line := func(k, v string) { fmt.Fprintf(&b, "- %s: %s\n", k, v) }
	if p.Mood != nil {
		line("mood", *p.Mood)
	}
	if p.Occasion != nil {
		line("occasion", string(*p.Occasion))
	}
	if p.Budget != nil {
		line("budget per person", fmt.Sprintf("$%.0f", *p.Budget))
	}
	if p.GroupSize != nil {
		line("group size", fmt.Sprintf("%d", *p.GroupSize))
	}
	if p.Location != nil {
		line("location", *p.Location)
	}
	if b.Len() == 0 {
		return "- none stated"
	}
	return strings.TrimRight(b.String(), "\n")
}

func describePicks(movie, restaurant, activity *catalog.Item) string {
	var b strings.Builder
	for _, pick := range []struct {
		label string
		item  *catalog.Item
	}{{"Movie", movie}, {"Restaurant", restaurant}, {"Activity", activity}} {
		if pick.item == nil {
			fmt.Fprintf(&b, "- %s: none found\n", pick.label)
			continue
		}
		fmt.Fprintf(&b, "- %s: %s", pick.label, pick.item.Title)
		if pick.item.Description != "" {
			fmt.Fprintf(&b, " (%s)", pick.item.Description)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
