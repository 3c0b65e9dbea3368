package application

import (
	"context"
	"fmt"

	"shopify-variant-cleanup/internal/domain"
	"shopify-variant-cleanup/internal/ports"

	"github.com/rs/zerolog"
)

// VariantResolver finds the purchased variants flagged for deletion
type VariantResolver struct {
	logger zerolog.Logger
}

// NewVariantResolver creates a new flagged-variant resolver
func NewVariantResolver(logger zerolog.Logger) *VariantResolver {
	return &VariantResolver{logger: logger}
}

// Resolve reads all variants in one batched request and keeps those whose
// delete-after-purchase value is exactly "true". An empty id list makes no request.
// Each variant appears at most once in the result.
func (r *VariantResolver) Resolve(ctx context.Context, admin ports.VariantAdmin, ids []string) ([]domain.FlaggedVariant, error) {
	unique := uniqueIDs(ids)
	if len(unique) == 0 {
		return nil, nil
	}

	records, err := admin.FetchVariants(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch variants: %w", err)
	}

	var flagged []domain.FlaggedVariant
	seen := make(map[string]struct{}, len(records))
	for _, record := range records {
		if !record.IsFlagged() {
			continue
		}
		if _, dup := seen[record.ID]; dup {
			continue
		}
		seen[record.ID] = struct{}{}
		flagged = append(flagged, domain.FlaggedVariant{
			ID:        record.ID,
			ImageID:   record.ImageID,
			ProductID: record.ProductID,
		})
	}

	r.logger.Debug().
		Int("requested", len(unique)).
		Int("returned", len(records)).
		Int("flagged", len(flagged)).
		Msg("Resolved flagged variants")

	return flagged, nil
}

// uniqueIDs drops repeated ids, keeping first-seen order
func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}
