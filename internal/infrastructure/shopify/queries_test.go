package shopify

import "testing"

func TestDocumentsParse(t *testing.T) {
	docs := map[string]string{
		"FetchVariants":          fetchVariantsQuery,
		"DeleteVariant":          deleteVariantMutation,
		"DeleteVariantWithImage": deleteVariantWithImageMutation,
	}
	for name, query := range docs {
		doc, err := parseDocument(name, query)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if len(doc.Operations) != 1 || doc.Operations[0].Name != name {
			t.Fatalf("%s: expected one operation named %s", name, name)
		}
	}
}

func TestDeleteWithImageIsOneOperationTwoMutations(t *testing.T) {
	doc, err := parseDocument("DeleteVariantWithImage", deleteVariantWithImageMutation)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	op := doc.Operations[0]
	if op.Operation != "mutation" {
		t.Fatalf("expected a mutation, got %s", op.Operation)
	}
	if len(op.SelectionSet) != 2 {
		t.Fatalf("expected two root fields, got %d", len(op.SelectionSet))
	}
}

func TestParseDocumentRejectsInvalid(t *testing.T) {
	if _, err := parseDocument("Broken", "query { nodes(ids: $ids) { id "); err == nil {
		t.Fatalf("expected parse error")
	}
}
