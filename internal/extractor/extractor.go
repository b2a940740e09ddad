package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MikeSquared-Agency/concierge/internal/anthropic"
	"github.com/MikeSquared-Agency/concierge/internal/metrics"
)

const maxTokens = 512

type Extractor struct {
	llm     anthropic.Completer
	timeout time.Duration
	logger  *slog.Logger
}

// New returns an extractor that gives every model call at most timeout.
// A zero timeout leaves the caller's context in charge.
func New(llm anthropic.Completer, timeout time.Duration, logger *slog.Logger) *Extractor {
	return &Extractor{llm: llm, timeout: timeout, logger: logger}
}

// Extract reads preferences out of free text. A failed or unparseable model
// reply is retried once with a stricter prompt; if that also fails the result
// carries only RawText. Extract never fails.
func (e *Extractor) Extract(ctx context.Context, rawText string) Preferences {
	e.logger.Info("extracting preferences", "text_len", len(rawText))

	resp, err := e.attempt(ctx, systemPrompt, rawText)
	if err != nil {
		e.logger.Warn("preference extraction failed, retrying with strict prompt", "error", err)
		resp, err = e.attempt(ctx, systemPrompt+strictSuffix, rawText)
	}
	if err != nil {
		e.logger.Warn("preference extraction degraded to raw text", "error", err)
		metrics.Degradations.WithLabelValues("extract").Inc()
		return Preferences{RawText: rawText}
	}

	prefs := resp.toPreferences(rawText)
	e.logger.Info("extraction complete",
		"mood", deref(prefs.Mood),
		"occasion", derefOccasion(prefs.Occasion),
		"has_budget", prefs.Budget != nil,
		"group_size", prefs.Party(),
		"location", deref(prefs.Location),
	)
	return prefs
}

func (e *Extractor) attempt(ctx context.Context, system, rawText string) (llmResponse, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	messages := []anthropic.Message{
		{Role: "user", Content: fmt.Sprintf(userPrompt, rawText)},
	}

	raw, err := e.llm.Complete(ctx, system, messages, maxTokens)
	if err != nil {
		return llmResponse{}, fmt.Errorf("llm extraction: %w", err)
	}

	resp, err := decode(raw)
	if err != nil {
		e.logger.Debug("unparseable extraction response", "raw", raw)
		return llmResponse{}, fmt.Errorf("parse extraction: %w", err)
	}
	return resp, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefOccasion(o *Occasion) string {
	if o == nil {
		return ""
	}
	return string(*o)
}
