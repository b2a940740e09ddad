package engine

import (
	"github.com/MikeSquared-Agency/concierge/internal/catalog"
	"github.com/MikeSquared-Agency/concierge/internal/extractor"
)

type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// User-facing error messages.
const (
	MsgEmptyInput         = "Please enter your preferences"
	MsgCatalogUnavailable = "recommendation catalog is unavailable"
	MsgRetrievalFailed    = "could not search the catalog right now, please try again"
	MsgUnexpected         = "an unexpected error occurred"
)

// Result is what one recommendation request produces. An error result has
// a message, no items and zero cost. An ok result may still leave a domain
// empty when nothing in it matched.
type Result struct {
	Status        Status                 `json:"status"`
	Message       string                 `json:"message,omitempty"`
	RequestID     string                 `json:"request_id"`
	Preferences   *extractor.Preferences `json:"preferences,omitempty"`
	Movie         *catalog.Item          `json:"movie"`
	Restaurant    *catalog.Item          `json:"restaurant"`
	Activity      *catalog.Item          `json:"activity"`
	EstimatedCost float64                `json:"estimated_cost"`
	Reasoning     string                 `json:"reasoning,omitempty"`
}

func errorResult(requestID, msg string) Result {
	return Result{Status: StatusError, Message: msg, RequestID: requestID}
}

// Stats describes the loaded catalog.
type Stats struct {
	Loaded         bool                   `json:"loaded"`
	Items          map[catalog.Domain]int `json:"items,omitempty"`
	EmbeddingModel string                 `json:"embedding_model"`
}
