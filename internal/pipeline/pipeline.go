package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rodovia-segura/radar-priority-etl/internal/domain"
	"github.com/rodovia-segura/radar-priority-etl/internal/observability"
	"github.com/rodovia-segura/radar-priority-etl/internal/scoring"
)

// BatchExtractor reads up to batchSize raw events from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Normalizer converts a raw event into a validated accident event.
type Normalizer interface {
	Normalize(ctx context.Context, raw domain.RawEvent) (domain.AccidentEvent, error)
}

// CatalogueLoader writes a full scored catalogue to the destination.
type CatalogueLoader interface {
	LoadCatalogue(ctx context.Context, catalogue scoring.Catalogue) error
}

// Pipeline orchestrates the consume-normalize-score loop. Events accumulate
// in an in-memory store deduplicated by event ID, and every batch triggers a
// wholesale catalogue rebuild over the full set. There is no incremental
// mutation and no partial catalogue.
type Pipeline struct {
	extractor  BatchExtractor
	normalizer Normalizer
	loader     CatalogueLoader
	logger     *slog.Logger
	metrics    *observability.Metrics
	opts       scoring.Options
	batchSize  int

	ready atomic.Bool
	store map[string]domain.AccidentEvent

	mu     sync.RWMutex
	latest *scoring.Catalogue
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, n Normalizer, l CatalogueLoader, logger *slog.Logger, metrics *observability.Metrics, opts scoring.Options, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:  e,
		normalizer: n,
		loader:     l,
		logger:     logger,
		metrics:    metrics,
		opts:       opts,
		batchSize:  batchSize,
		store:      make(map[string]domain.AccidentEvent),
	}
}

// CheckReadiness returns nil once the pipeline has published at least one
// catalogue.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not published a catalogue yet")
	}
	return nil
}

// Latest returns the most recently published catalogue.
func (p *Pipeline) Latest() (scoring.Catalogue, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.latest == nil {
		return scoring.Catalogue{}, false
	}
	return *p.latest, true
}

// Run executes the batch loop until the context is cancelled. Configuration
// errors surface here, before any message is consumed.
func (p *Pipeline) Run(ctx context.Context) error {
	if err := p.opts.Validate(); err != nil {
		return err
	}

	p.logger.Info("pipeline started",
		"batch_size", p.batchSize,
		"bin_size_km", p.opts.BinSizeKm,
		"scope", p.opts.Scope,
		"weighting", p.opts.WeightingEnabled,
	)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	// Keeps retry storms short while avoiding tight loops during Kafka outages.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff, maxBackoff) {
			return nil
		}
	}
}

// processBatch runs one consume-normalize-score cycle. Returns false if the
// pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	rawBatch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	if len(rawBatch) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.RecordsConsumed.Add(float64(len(rawBatch)))
	p.metrics.BatchSize.Observe(float64(len(rawBatch)))
	*backoff = 200 * time.Millisecond

	accepted := p.normalizeBatch(ctx, rawBatch)
	if accepted == 0 {
		return true
	}

	buildStart := time.Now()
	catalogue, err := scoring.Score(p.eventSlice(), p.opts)
	if err != nil {
		// Options were validated at startup; this is unreachable short of a bug.
		p.logger.Error("catalogue build failed", "error", err)
		return false
	}
	p.metrics.CatalogueBuildSeconds.Observe(time.Since(buildStart).Seconds())

	if catalogue.DegenerateScopes > 0 {
		p.logger.Info("degenerate normalization scopes mapped to priority 0",
			"build_id", catalogue.BuildID,
			"degenerate_scopes", catalogue.DegenerateScopes,
		)
	}

	// Publish is retried with backoff until it succeeds or the context ends.
	for {
		err := p.loader.LoadCatalogue(ctx, catalogue)
		if err == nil {
			break
		}
		p.logger.Error("catalogue publish failed", "error", err, "segments", len(catalogue.Segments))
		if !p.backoffOrStop(ctx, backoff, maxBackoff) {
			return false
		}
	}
	p.recordPublished(catalogue)

	// Commit only after the catalogue containing these events is published.
	for _, raw := range rawBatch {
		p.commitOffset(ctx, raw)
	}
	return true
}

// normalizeBatch validates each record, counting and skipping rejects, and
// merges the survivors into the deduplicated event store. Returns the number
// of new or updated events.
func (p *Pipeline) normalizeBatch(ctx context.Context, rawBatch []domain.RawEvent) int {
	accepted := 0
	for _, raw := range rawBatch {
		event, err := p.normalizer.Normalize(ctx, raw)
		if err != nil {
			reason := domain.RejectReason(err)
			if reason == "" {
				reason = "unknown"
			}
			p.logger.Warn("record rejected",
				"reason", reason,
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.metrics.RecordsRejected.WithLabelValues(reason).Inc()
			// A malformed record is consumed, not retried.
			p.commitOffset(ctx, raw)
			continue
		}
		p.store[event.ID] = event
		accepted++
	}
	p.metrics.EventsStored.Set(float64(len(p.store)))
	return accepted
}

// recordPublished updates metrics and the latest-catalogue snapshot after a
// successful publish.
func (p *Pipeline) recordPublished(catalogue scoring.Catalogue) {
	p.metrics.CataloguesBuilt.Inc()
	p.metrics.SegmentsPublished.Add(float64(len(catalogue.Segments)))
	p.metrics.SegmentsScored.Set(float64(len(catalogue.Segments)))
	p.metrics.DegenerateScopes.Set(float64(catalogue.DegenerateScopes))

	p.mu.Lock()
	p.latest = &catalogue
	p.mu.Unlock()
	p.ready.Store(true)

	p.logger.Info("catalogue published",
		"build_id", catalogue.BuildID,
		"segments", len(catalogue.Segments),
		"events", len(p.store),
	)
}

// eventSlice snapshots the store in ID order so scoring input is
// deterministic regardless of map iteration.
func (p *Pipeline) eventSlice() []domain.AccidentEvent {
	ids := make([]string, 0, len(p.store))
	for id := range p.store {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	events := make([]domain.AccidentEvent, len(ids))
	for i, id := range ids {
		events[i] = p.store[id]
	}
	return events
}

// backoffOrStop checks for context cancellation, sleeps with the current
// backoff, and advances the backoff. Returns false if the pipeline should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

// commitOffset commits the message offset if a commit function is available.
func (p *Pipeline) commitOffset(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
