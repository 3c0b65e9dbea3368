package shopify

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// Admin API documents. Each one is parsed at startup so a typo fails the
// process instead of the first order webhook.
var (
	fetchVariantsQuery = mustParse("FetchVariants", `
query FetchVariants($ids: [ID!]!, $namespace: String!, $key: String!) {
  nodes(ids: $ids) {
    ... on ProductVariant {
      id
      deleteAfterPurchase: metafield(namespace: $namespace, key: $key) {
        value
      }
      image {
        id
      }
      product {
        id
      }
    }
  }
}`)

	deleteVariantMutation = mustParse("DeleteVariant", `
mutation DeleteVariant($id: ID!) {
  productVariantDelete(id: $id) {
    deletedProductVariantId
    userErrors {
      field
      message
    }
  }
}`)

	deleteVariantWithImageMutation = mustParse("DeleteVariantWithImage", `
mutation DeleteVariantWithImage($id: ID!, $productId: ID!, $imageId: ID!) {
  productVariantDelete(id: $id) {
    deletedProductVariantId
    userErrors {
      field
      message
    }
  }
  productDeleteImages(id: $productId, imageIds: [$imageId]) {
    deletedImageIds
    userErrors {
      field
      message
    }
  }
}`)
)

// parseDocument parses a GraphQL executable document without a schema
func parseDocument(name, query string) (*ast.QueryDocument, error) {
	doc, err := parser.ParseQuery(&ast.Source{Name: name, Input: query})
	if err != nil {
		return nil, fmt.Errorf("invalid GraphQL document %s: %w", name, err)
	}
	return doc, nil
}

func mustParse(name, query string) string {
	if _, err := parseDocument(name, query); err != nil {
		panic(err)
	}
	return query
}
