package queue

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/hostedid/accounts/internal/config"
	"github.com/hostedid/accounts/internal/logger"
	"golang.org/x/sync/errgroup"
)

// Worker consumes a RedisQueue with a fixed number of goroutines.
type Worker struct {
	queue       *RedisQueue
	registry    *Registry
	log         *logger.Logger
	workers     int
	maxAttempts uint
	backoff     time.Duration
	pollTimeout time.Duration
}

// NewWorker creates a Worker
func NewWorker(q *RedisQueue, registry *Registry, cfg config.QueueConfig, log *logger.Logger) *Worker {
	return &Worker{
		queue:       q,
		registry:    registry,
		log:         log.WithComponent("queue_worker"),
		workers:     max(cfg.Workers, 1),
		maxAttempts: max(cfg.MaxAttempts, 1),
		backoff:     cfg.Backoff,
		pollTimeout: cfg.PollTimeout,
	}
}

// Run consumes until ctx is cancelled. A job that is running when ctx is
// cancelled finishes its current attempt; if that attempt fails the job is
// put back on the queue instead of waiting out its backoff.
func (w *Worker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < w.workers; i++ {
		g.Go(func() error {
			w.consume(ctx)
			return nil
		})
	}
	return g.Wait()
}

func (w *Worker) consume(ctx context.Context) {
	for ctx.Err() == nil {
		d, err := w.queue.Dequeue(ctx, w.pollTimeout)
		switch {
		case err == nil:
			w.Process(ctx, d)
		case errors.Is(err, ErrEmpty):
		case ctx.Err() != nil:
			return
		case errors.Is(err, ErrMalformed):
			w.log.Error().Err(err).Msg("dropped malformed descriptor to dead letters")
		default:
			w.log.Error().Err(err).Msg("dequeue failed")
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
	}
}

// Process runs one descriptor to completion: success, requeue on shutdown,
// or dead letter once its attempts are used up.
func (w *Worker) Process(ctx context.Context, d Descriptor) {
	log := w.log.WithJob(d.ID, d.Name)
	// Redis writes below must survive shutdown.
	bg := context.WithoutCancel(ctx)

	job, err := w.registry.Build(d)
	if err != nil {
		d.LastError = err.Error()
		w.deadLetter(bg, log, d)
		return
	}

	if d.Attempts >= w.maxAttempts {
		w.deadLetter(bg, log, d)
		return
	}

	err = retry.Do(
		func() error {
			d.Attempts++
			return job.Run(bg)
		},
		retry.Context(ctx),
		retry.Attempts(w.maxAttempts-d.Attempts),
		retry.Delay(w.backoff),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			// also called after the final attempt
			if d.Attempts >= w.maxAttempts {
				return
			}
			log.Warn().Err(err).Uint("attempt", d.Attempts).Msg("job failed, retrying")
		}),
	)
	if err == nil {
		log.Info().Uint("attempts", d.Attempts).Msg("job completed")
		return
	}

	d.LastError = err.Error()
	if ctx.Err() != nil && d.Attempts < w.maxAttempts {
		if err := w.queue.Enqueue(bg, d); err != nil {
			log.Error().Err(err).Msg("failed to requeue job on shutdown")
			return
		}
		log.Warn().Uint("attempts", d.Attempts).Msg("job requeued on shutdown")
		return
	}

	w.deadLetter(bg, log, d)
}

func (w *Worker) deadLetter(ctx context.Context, log *logger.Logger, d Descriptor) {
	if err := w.queue.DeadLetter(ctx, d); err != nil {
		log.Error().Err(err).Msg("failed to dead-letter job")
		return
	}
	log.Error().Uint("attempts", d.Attempts).Str("last_error", d.LastError).Msg("job dead-lettered")
}
