package hermes

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
)

// SubjectRecommendationServed is published once per answered recommendation
// request.
const SubjectRecommendationServed = "concierge.recommendation.served"

// RecommendationServed summarises one served result for downstream analytics.
// It carries ids and coarse preferences only, never the raw request text.
type RecommendationServed struct {
	EventID       string    `json:"event_id"`
	RequestID     string    `json:"request_id"`
	Status        string    `json:"status"`
	Message       string    `json:"message,omitempty"`
	MovieID       string    `json:"movie_id,omitempty"`
	RestaurantID  string    `json:"restaurant_id,omitempty"`
	ActivityID    string    `json:"activity_id,omitempty"`
	EstimatedCost float64   `json:"estimated_cost"`
	Occasion      string    `json:"occasion,omitempty"`
	GroupSize     int       `json:"group_size,omitempty"`
	Location      string    `json:"location,omitempty"`
	DurationMS    int64     `json:"duration_ms"`
	ServedAt      time.Time `json:"served_at"`
}

type Client struct {
	conn   *nats.Conn
	logger *slog.Logger
}

func NewClient(ctx context.Context, url, token string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.Name("concierge"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Client{conn: nc, logger: logger}, nil
}

func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.conn.Publish(subject, payload)
}

// PublishRecommendationServed publishes evt on SubjectRecommendationServed.
func (c *Client) PublishRecommendationServed(evt RecommendationServed) error {
	if err := c.Publish(SubjectRecommendationServed, evt); err != nil {
		return fmt.Errorf("publish %s: %w", SubjectRecommendationServed, err)
	}
	return nil
}

// Close flushes pending events and closes the connection.
func (c *Client) Close() {
	if err := c.conn.Drain(); err != nil {
		c.conn.Close()
	}
}
