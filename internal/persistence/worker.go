package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog"

	"EscrowDesk/internal/event"
	"EscrowDesk/internal/observability"
)

// Worker drains the persist channel and batch-writes to Postgres. The engine
// sends on that channel with BLOCKING semantics: if this worker falls
// behind, the engine stalls rather than lose a notification.
type Worker struct {
	writer       *EventLogWriter
	inputChan    <-chan event.Envelope
	batchSize    int
	flushTimeout time.Duration
	log          zerolog.Logger
	metrics      *observability.Metrics
}

func NewWorker(
	db *sql.DB,
	inputChan <-chan event.Envelope,
	batchSize int,
	flushTimeout time.Duration,
	log zerolog.Logger,
	metrics *observability.Metrics,
) *Worker {
	return &Worker{
		writer:       NewEventLogWriter(db),
		inputChan:    inputChan,
		batchSize:    batchSize,
		flushTimeout: flushTimeout,
		log:          log,
		metrics:      metrics,
	}
}

// Writer returns the underlying writer for schema setup.
func (w *Worker) Writer() *EventLogWriter {
	return w.writer
}

// Run batches incoming notifications and flushes either when the batch is
// full or the flush timeout expires. Blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	batch := make([]EventRow, 0, w.batchSize)

	timer := time.NewTimer(w.flushTimeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			// Graceful shutdown: flush remaining with a fresh context.
			if len(batch) > 0 {
				if err := w.writer.WriteBatch(context.Background(), batch); err != nil {
					w.log.Error().Err(err).Msg("final flush failed")
				}
			}
			return ctx.Err()

		case env, ok := <-w.inputChan:
			if !ok {
				if len(batch) > 0 {
					if err := w.writer.WriteBatch(context.Background(), batch); err != nil {
						w.log.Error().Err(err).Msg("final flush failed")
					}
				}
				return nil
			}

			row, err := RowFromEnvelope(env)
			if err != nil {
				w.log.Error().Err(err).
					Uint64("sequence", env.Sequence).
					Msg("unencodable notification dropped")
				continue
			}
			batch = append(batch, row)

			if len(batch) >= w.batchSize {
				w.flushWithRetry(ctx, batch)
				batch = batch[:0]
				timer.Reset(w.flushTimeout)
			}

		case <-timer.C:
			if len(batch) > 0 {
				w.flushWithRetry(ctx, batch)
				batch = batch[:0]
			}
			timer.Reset(w.flushTimeout)
		}
	}
}

// flushWithRetry retries with exponential backoff. The worker never drops a
// batch: it retries until the write succeeds or the context is cancelled,
// in which case it attempts one final flush.
func (w *Worker) flushWithRetry(ctx context.Context, batch []EventRow) {
	backoff := 100 * time.Millisecond
	const maxBackoff = 30 * time.Second

	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			w.log.Warn().
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Int("rows", len(batch)).
				Msg("persistence retry")
			select {
			case <-ctx.Done():
				if err := w.writer.WriteBatch(context.Background(), batch); err != nil {
					w.log.Error().Err(err).Msg("final flush on shutdown failed")
				}
				return
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}

		start := time.Now()
		err := w.writer.WriteBatch(ctx, batch)
		if err == nil {
			if w.metrics != nil {
				w.metrics.PersistBatchDur.Observe(time.Since(start).Seconds())
				w.metrics.PersistBatchSize.Observe(float64(len(batch)))
				w.metrics.PersistEventsWritten.Add(float64(len(batch)))
				w.metrics.PersistLastSequence.Set(float64(batch[len(batch)-1].Sequence))
			}
			return
		}

		if w.metrics != nil {
			w.metrics.PersistErrors.WithLabelValues("write").Inc()
		}
	}
}
