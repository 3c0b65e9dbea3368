package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"shopify-variant-cleanup/internal/domain"
	"shopify-variant-cleanup/internal/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// VariantDeleter issues one delete per flagged variant, independently of each other
type VariantDeleter struct {
	logger    zerolog.Logger
	metrics   ports.PipelineMetrics
	publisher ports.OutcomePublisher
	timeout   time.Duration
}

// NewVariantDeleter creates a new deletion executor. publisher may be nil.
func NewVariantDeleter(
	logger zerolog.Logger,
	metrics ports.PipelineMetrics,
	publisher ports.OutcomePublisher,
	timeout time.Duration,
) *VariantDeleter {
	return &VariantDeleter{
		logger:    logger,
		metrics:   metrics,
		publisher: publisher,
		timeout:   timeout,
	}
}

// DeletionBatch tracks the deletes started for one order event
type DeletionBatch struct {
	ID       string
	wg       sync.WaitGroup
	outcomes []*domain.DeletionOutcome
}

// Wait blocks until every delete in the batch has finished and returns their outcomes
func (b *DeletionBatch) Wait() []*domain.DeletionOutcome {
	b.wg.Wait()
	return b.outcomes
}

// Size returns the number of deletes in the batch
func (b *DeletionBatch) Size() int {
	return len(b.outcomes)
}

// Execute starts the deletes and returns without waiting for them.
// The deletes outlive ctx cancellation; each call is bounded by the configured timeout.
func (d *VariantDeleter) Execute(ctx context.Context, admin ports.VariantAdmin, shop string, flagged []domain.FlaggedVariant) *DeletionBatch {
	batch := &DeletionBatch{
		ID:       uuid.NewString(),
		outcomes: make([]*domain.DeletionOutcome, len(flagged)),
	}
	detached := context.WithoutCancel(ctx)

	for i, variant := range flagged {
		batch.wg.Add(1)
		go func(i int, variant domain.FlaggedVariant) {
			defer batch.wg.Done()
			batch.outcomes[i] = d.deleteOne(detached, admin, shop, batch.ID, variant)
		}(i, variant)
	}

	d.logger.Info().
		Str("shop", shop).
		Str("batchId", batch.ID).
		Int("variants", len(flagged)).
		Msg("Started variant deletion batch")

	return batch
}

func (d *VariantDeleter) deleteOne(ctx context.Context, admin ports.VariantAdmin, shop, batchID string, variant domain.FlaggedVariant) (outcome *domain.DeletionOutcome) {
	outcome = &domain.DeletionOutcome{
		BatchID:   batchID,
		Shop:      shop,
		VariantID: variant.ID,
		Kind:      domain.DeletionPlain,
	}
	if variant.HasImage() {
		outcome.Kind = domain.DeletionWithImage
		outcome.ProductID = variant.ProductID
		outcome.ImageID = variant.ImageID
	}

	defer func() {
		if r := recover(); r != nil {
			outcome.Success = false
			outcome.Error = fmt.Sprintf("panic: %v", r)
		}
		outcome.CompletedAt = time.Now().UTC()
		d.record(outcome)
	}()

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	var (
		result *domain.MutationResult
		err    error
	)
	if outcome.Kind == domain.DeletionWithImage {
		result, err = admin.DeleteVariantWithImage(ctx, variant.ID, variant.ProductID, variant.ImageID)
	} else {
		result, err = admin.DeleteVariant(ctx, variant.ID)
	}

	if result != nil {
		outcome.Raw = result.Raw
		outcome.Success = result.Success
	}
	switch {
	case err != nil:
		outcome.Success = false
		outcome.Error = err.Error()
	case result == nil:
		outcome.Error = "empty mutation result"
	case !result.Success:
		outcome.Error = "mutation returned user errors"
	}
	return outcome
}

func (d *VariantDeleter) record(outcome *domain.DeletionOutcome) {
	if d.metrics != nil {
		d.metrics.VariantDeletion(outcome.Kind, outcome.Success)
	}

	if outcome.Success {
		d.logger.Info().
			Str("shop", outcome.Shop).
			Str("batchId", outcome.BatchID).
			Str("variantId", outcome.VariantID).
			Str("kind", string(outcome.Kind)).
			RawJSON("result", rawOrNull(outcome.Raw)).
			Msg("Deleted variant after purchase")
	} else {
		d.logger.Error().
			Str("shop", outcome.Shop).
			Str("batchId", outcome.BatchID).
			Str("variantId", outcome.VariantID).
			Str("kind", string(outcome.Kind)).
			Str("error", outcome.Error).
			RawJSON("result", rawOrNull(outcome.Raw)).
			Msg("Failed to delete variant after purchase")
	}

	if d.publisher != nil {
		d.publisher.Publish(outcome)
	}
}

func rawOrNull(raw []byte) []byte {
	if len(raw) == 0 {
		return []byte("null")
	}
	return raw
}
