package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"

	"EscrowDesk/internal/event"
)

// Publisher publishes engine notifications to NATS for off-engine indexers.
// Subjects follow the pattern: escrow.events.{event_type}
type Publisher struct {
	js        jetstream.JetStream
	inputChan <-chan event.Envelope
	log       zerolog.Logger
}

func NewPublisher(js jetstream.JetStream, inputChan <-chan event.Envelope, log zerolog.Logger) *Publisher {
	return &Publisher{
		js:        js,
		inputChan: inputChan,
		log:       log,
	}
}

// Run starts the publisher loop. Publish failures are non-fatal: consumers
// can always rebuild from the Postgres event log.
func (p *Publisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case env, ok := <-p.inputChan:
			if !ok {
				return nil
			}

			if err := p.publish(ctx, env); err != nil {
				p.log.Warn().Err(err).
					Uint64("sequence", env.Sequence).
					Str("type", env.Type.String()).
					Msg("outbound publish failed")
			}
		}
	}
}

func (p *Publisher) publish(ctx context.Context, env event.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	subject := fmt.Sprintf("escrow.events.%s", env.Type)
	_, err = p.js.Publish(ctx, subject, data)
	return err
}

// EnsureStream creates the outbound events stream.
func EnsureStream(ctx context.Context, js jetstream.JetStream) error {
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      "ESCROW_EVENTS",
		Subjects:  []string{"escrow.events.>"},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    72 * time.Hour,
		Replicas:  1,
	})
	if err != nil {
		return fmt.Errorf("create outbound stream: %w", err)
	}
	return nil
}
