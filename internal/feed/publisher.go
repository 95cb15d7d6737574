package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"TradeJournal/internal/core"
	"TradeJournal/internal/observability"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"
)

// Publisher pushes committed journal mutations onto NATS JetStream for
// downstream consumers. Subjects follow the pattern
// journal.events.{kind}. Publish failures are logged and counted, never
// surfaced to the originating operation; consumers that need a complete
// history read the database.
type Publisher struct {
	js      jetstream.JetStream
	log     zerolog.Logger
	metrics *observability.Metrics
}

var _ core.EventSink = (*Publisher)(nil)

func NewPublisher(js jetstream.JetStream, log zerolog.Logger, metrics *observability.Metrics) *Publisher {
	return &Publisher{js: js, log: log, metrics: metrics}
}

// Publish emits one event. Best effort.
func (p *Publisher) Publish(ctx context.Context, evt core.Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		p.drop(evt, err)
		return
	}

	subject := fmt.Sprintf("journal.events.%s", evt.Kind)
	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		p.drop(evt, err)
		return
	}
	if p.metrics != nil {
		p.metrics.FeedPublished.Inc()
	}
}

func (p *Publisher) drop(evt core.Event, err error) {
	if p.metrics != nil {
		p.metrics.FeedDropped.Inc()
	}
	p.log.Warn().Err(err).
		Str("kind", string(evt.Kind)).
		Str("account_id", evt.AccountID.String()).
		Msg("event publish failed")
}

// EnsureStream creates or updates the journal events stream.
func EnsureStream(ctx context.Context, js jetstream.JetStream) error {
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      "JOURNAL_EVENTS",
		Subjects:  []string{"journal.events.>"},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    72 * time.Hour,
		Replicas:  1,
	})
	if err != nil {
		return fmt.Errorf("create journal events stream: %w", err)
	}
	return nil
}
