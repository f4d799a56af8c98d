package embedding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hoardhq/hoard/ai"
	"github.com/panjf2000/ants/v2"
)

// Defaults tuned for hosted embedding APIs: moderate batches, a few
// in-flight requests, and a pause between batches to respect rate limits.
const (
	DefaultBatchSize   = 100
	DefaultMaxParallel = 4
	DefaultBatchPause  = 500 * time.Millisecond
)

// Progress receives a callback after every completed batch.
type Progress func(processed, total int)

// Orchestrator maps chunk texts to embedding vectors via batched calls to
// the external embedding capability. Output order matches input order.
// It never retries: any provider failure aborts the in-flight call and is
// surfaced to the caller, which treats it as fatal for the item.
type Orchestrator struct {
	embedder    ai.Embedder
	pool        *ants.Pool
	batchSize   int
	maxParallel int
	pause       time.Duration
	progress    Progress
	logger      *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithBatchSize sets the number of texts per batch. Default is 100.
func WithBatchSize(size int) Option {
	return func(o *Orchestrator) {
		if size > 0 {
			o.batchSize = size
		}
	}
}

// WithMaxParallel sets the number of concurrent requests per batch.
// Default is 4.
func WithMaxParallel(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxParallel = n
		}
	}
}

// WithBatchPause sets the pause between batches. Default is 500ms;
// zero disables pacing.
func WithBatchPause(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d >= 0 {
			o.pause = d
		}
	}
}

// WithProgress sets the per-batch progress callback.
func WithProgress(fn Progress) Option {
	return func(o *Orchestrator) {
		o.progress = fn
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewOrchestrator creates a new embedding orchestrator.
func NewOrchestrator(embedder ai.Embedder, opts ...Option) (*Orchestrator, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	o := &Orchestrator{
		embedder:    embedder,
		batchSize:   DefaultBatchSize,
		maxParallel: DefaultMaxParallel,
		pause:       DefaultBatchPause,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}

	pool, err := ants.NewPool(o.maxParallel)
	if err != nil {
		return nil, err
	}
	o.pool = pool

	return o, nil
}

// EmbedAll embeds all texts and returns one vector per input, positionally
// aligned. Texts are processed in fixed-size batches with up to maxParallel
// concurrent requests per batch and a fixed pause between batches. The
// progress callback, if set, fires after each batch with cumulative counts.
func (o *Orchestrator) EmbedAll(ctx context.Context, texts []string) ([][]float32, error) {
	total := len(texts)
	if total == 0 {
		return nil, nil
	}

	o.logger.Debug("embedding texts", "count", total, "batchSize", o.batchSize, "maxParallel", o.maxParallel)

	vectors := make([][]float32, total)
	for start := 0; start < total; start += o.batchSize {
		if start > 0 {
			if err := o.pauseBetweenBatches(ctx); err != nil {
				return nil, err
			}
		}

		end := start + o.batchSize
		if end > total {
			end = total
		}

		if err := o.embedBatch(ctx, texts, vectors, start, end); err != nil {
			o.logger.Error("embedding batch failed", "start", start, "end", end, "err", err)
			return nil, fmt.Errorf("%w: texts %d-%d: %w", ErrEmbedFailed, start, end, err)
		}

		if o.progress != nil {
			o.progress(end, total)
		}
	}

	return vectors, nil
}

// embedBatch splits one batch into up to maxParallel contiguous requests,
// runs them concurrently and writes the results into their slots. A failed
// request fails the whole batch; nothing is silently dropped.
func (o *Orchestrator) embedBatch(ctx context.Context, texts []string, vectors [][]float32, start, end int) error {
	n := end - start
	parts := o.maxParallel
	if parts > n {
		parts = n
	}
	size := (n + parts - 1) / parts

	errs := make([]error, parts)
	var wg sync.WaitGroup
	for i := 0; i < parts; i++ {
		from := start + i*size
		to := from + size
		if to > end {
			to = end
		}
		if from >= to {
			break
		}

		wg.Add(1)
		part := i
		submitErr := o.pool.Submit(func() {
			defer wg.Done()
			got, err := o.embedder.EmbedTexts(ctx, texts[from:to])
			if err != nil {
				errs[part] = err
				return
			}
			if len(got) != to-from {
				errs[part] = fmt.Errorf("%w: expected %d, received %d", ErrCountMismatch, to-from, len(got))
				return
			}
			copy(vectors[from:to], got)
		})
		if submitErr != nil {
			wg.Done()
			errs[part] = submitErr
		}
	}
	wg.Wait()

	return errors.Join(errs...)
}

// pauseBetweenBatches sleeps for the configured pause, honoring context
// cancellation.
func (o *Orchestrator) pauseBetweenBatches(ctx context.Context) error {
	if o.pause <= 0 {
		return nil
	}
	timer := time.NewTimer(o.pause)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Release frees the worker pool. The orchestrator should not be used after
// calling Release.
func (o *Orchestrator) Release() {
	if o.pool != nil {
		o.pool.Release()
	}
}
