package shopify

import (
	"context"
	"encoding/json"
	"fmt"

	"shopify-variant-cleanup/internal/domain"

	goshopify "github.com/bold-commerce/go-shopify/v4"
)

// MetafieldRef names the variant metafield holding the delete-after-purchase flag
type MetafieldRef struct {
	Namespace string
	Key       string
}

// VariantAdmin runs the variant pipeline's Admin GraphQL calls for one shop
type VariantAdmin struct {
	client    *goshopify.Client
	shop      string
	metafield MetafieldRef
}

// NewVariantAdmin wraps an authenticated go-shopify client
func NewVariantAdmin(client *goshopify.Client, shop string, metafield MetafieldRef) *VariantAdmin {
	return &VariantAdmin{
		client:    client,
		shop:      shop,
		metafield: metafield,
	}
}

type variantNode struct {
	ID                  string `json:"id"`
	DeleteAfterPurchase *struct {
		Value *string `json:"value"`
	} `json:"deleteAfterPurchase"`
	Image *struct {
		ID string `json:"id"`
	} `json:"image"`
	Product *struct {
		ID string `json:"id"`
	} `json:"product"`
}

type fetchVariantsResponse struct {
	Nodes []*variantNode `json:"nodes"`
}

type userError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

type variantDeletePayload struct {
	DeletedProductVariantID *string     `json:"deletedProductVariantId"`
	UserErrors              []userError `json:"userErrors"`
}

type deleteImagesPayload struct {
	DeletedImageIDs []string    `json:"deletedImageIds"`
	UserErrors      []userError `json:"userErrors"`
}

type deleteVariantResponse struct {
	ProductVariantDelete *variantDeletePayload `json:"productVariantDelete"`
	ProductDeleteImages  *deleteImagesPayload  `json:"productDeleteImages,omitempty"`
}

// FetchVariants reads every requested variant in a single nodes query.
// Ids that resolve to nothing, or to something other than a variant, are dropped.
func (a *VariantAdmin) FetchVariants(ctx context.Context, ids []string) ([]domain.VariantRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	vars := map[string]interface{}{
		"ids":       ids,
		"namespace": a.metafield.Namespace,
		"key":       a.metafield.Key,
	}
	var resp fetchVariantsResponse
	if err := a.client.GraphQL.Query(ctx, fetchVariantsQuery, vars, &resp); err != nil {
		return nil, fmt.Errorf("failed to query variants: %w", err)
	}

	records := make([]domain.VariantRecord, 0, len(resp.Nodes))
	for _, node := range resp.Nodes {
		if node == nil || node.ID == "" {
			continue
		}
		record := domain.VariantRecord{ID: node.ID}
		if node.DeleteAfterPurchase != nil {
			record.DeleteAfterPurchase = node.DeleteAfterPurchase.Value
		}
		if node.Image != nil {
			record.ImageID = node.Image.ID
		}
		if node.Product != nil {
			record.ProductID = node.Product.ID
		}
		records = append(records, record)
	}
	return records, nil
}

// DeleteVariant deletes a single variant
func (a *VariantAdmin) DeleteVariant(ctx context.Context, variantID string) (*domain.MutationResult, error) {
	vars := map[string]interface{}{"id": variantID}

	var resp deleteVariantResponse
	if err := a.client.GraphQL.Query(ctx, deleteVariantMutation, vars, &resp); err != nil {
		return nil, fmt.Errorf("failed to delete variant %s: %w", variantID, err)
	}
	return mutationResult(&resp, false)
}

// DeleteVariantWithImage deletes the variant and its product image in one request
func (a *VariantAdmin) DeleteVariantWithImage(ctx context.Context, variantID, productID, imageID string) (*domain.MutationResult, error) {
	vars := map[string]interface{}{
		"id":        variantID,
		"productId": productID,
		"imageId":   imageID,
	}

	var resp deleteVariantResponse
	if err := a.client.GraphQL.Query(ctx, deleteVariantWithImageMutation, vars, &resp); err != nil {
		return nil, fmt.Errorf("failed to delete variant %s with image %s: %w", variantID, imageID, err)
	}
	return mutationResult(&resp, true)
}

func mutationResult(resp *deleteVariantResponse, withImage bool) (*domain.MutationResult, error) {
	raw, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to encode mutation result: %w", err)
	}

	success := resp.ProductVariantDelete != nil && len(resp.ProductVariantDelete.UserErrors) == 0
	if withImage {
		success = success && resp.ProductDeleteImages != nil && len(resp.ProductDeleteImages.UserErrors) == 0
	}

	return &domain.MutationResult{Success: success, Raw: raw}, nil
}
