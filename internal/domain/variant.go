package domain

import (
	"encoding/json"
	"time"
)

// DeleteAfterPurchaseValue is the only metafield value that flags a variant for deletion.
// The comparison is exact string equality; the field is not coerced to a boolean.
const DeleteAfterPurchaseValue = "true"

// VariantRecord is a product variant as returned by the batched metadata read
type VariantRecord struct {
	ID                  string
	DeleteAfterPurchase *string // nil when the metafield is absent
	ImageID             string
	ProductID           string
}

// IsFlagged reports whether the variant is marked for deletion after purchase
func (v VariantRecord) IsFlagged() bool {
	return v.DeleteAfterPurchase != nil && *v.DeleteAfterPurchase == DeleteAfterPurchaseValue
}

// FlaggedVariant describes a variant that must be deleted
type FlaggedVariant struct {
	ID        string `json:"id"`
	ImageID   string `json:"image_id,omitempty"`
	ProductID string `json:"product_id,omitempty"`
}

// HasImage reports whether the variant must be deleted together with its image
func (f FlaggedVariant) HasImage() bool {
	return f.ImageID != "" && f.ProductID != ""
}

// MutationResult is the outcome of a single admin API mutation
type MutationResult struct {
	Success bool
	Raw     json.RawMessage
}

// DeletionKind distinguishes plain variant deletes from variant-with-image deletes
type DeletionKind string

const (
	DeletionPlain     DeletionKind = "variant"
	DeletionWithImage DeletionKind = "variant_with_image"
)

// DeletionOutcome is the per-variant result of a deletion batch. Used for logging only.
type DeletionOutcome struct {
	BatchID     string          `json:"batch_id"`
	Shop        string          `json:"shop"`
	VariantID   string          `json:"variant_id"`
	ProductID   string          `json:"product_id,omitempty"`
	ImageID     string          `json:"image_id,omitempty"`
	Kind        DeletionKind    `json:"kind"`
	Success     bool            `json:"success"`
	Raw         json.RawMessage `json:"raw,omitempty"`
	Error       string          `json:"error,omitempty"`
	CompletedAt time.Time       `json:"completed_at"`
}
