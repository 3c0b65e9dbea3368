package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const variantGIDPrefix = "gid://shopify/ProductVariant/"

// OrderEvent is the subset of an orders/create payload the app reads
type OrderEvent struct {
	ID        int64           `json:"id"`
	LineItems []OrderLineItem `json:"line_items"`
}

// OrderLineItem is a purchased line item
type OrderLineItem struct {
	VariantID VariantRef `json:"variant_id"`
}

// VariantRef holds a variant identifier as delivered in a webhook payload.
// Shopify sends numeric ids; GraphQL ids and digit strings are accepted too.
type VariantRef struct {
	GID   string
	Valid bool // false for null ids (custom line items)
}

// UnmarshalJSON decodes a numeric, string, or null variant id
func (v *VariantRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = VariantRef{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		gid, err := VariantGID(s)
		if err != nil {
			return err
		}
		*v = VariantRef{GID: gid, Valid: true}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("variant_id: %w", err)
	}
	gid, err := VariantGID(n.String())
	if err != nil {
		return err
	}
	*v = VariantRef{GID: gid, Valid: true}
	return nil
}

// VariantGID converts a variant id to its GraphQL global id form
func VariantGID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if strings.HasPrefix(id, "gid://") {
		return id, nil
	}
	if _, err := strconv.ParseUint(id, 10, 64); err != nil {
		return "", fmt.Errorf("invalid variant id %q", id)
	}
	return variantGIDPrefix + id, nil
}

// ParseOrderEvent decodes an orders/create payload. Malformed payloads are an error;
// callers drop the event.
func ParseOrderEvent(payload []byte) (*OrderEvent, error) {
	var order OrderEvent
	if err := json.Unmarshal(payload, &order); err != nil {
		return nil, fmt.Errorf("failed to parse order payload: %w", err)
	}
	return &order, nil
}

// VariantIDs returns the variant ids of all line items in order, duplicates preserved
func (o *OrderEvent) VariantIDs() []string {
	ids := make([]string, 0, len(o.LineItems))
	for _, item := range o.LineItems {
		if item.VariantID.Valid {
			ids = append(ids, item.VariantID.GID)
		}
	}
	return ids
}
