package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"shopify-variant-cleanup/internal/domain"

	"github.com/rs/zerolog"
)

type staticVerifier struct {
	ok   bool
	body string
}

func (v *staticVerifier) Verify(r *http.Request) bool {
	b, _ := io.ReadAll(r.Body)
	v.body = string(b)
	return v.ok
}

type seenGuard struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func (g *seenGuard) FirstDelivery(_ context.Context, id string) (bool, error) {
	if g.err != nil {
		return true, g.err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.seen[id] {
		return false, nil
	}
	g.seen[id] = true
	return true, nil
}

type eventLog struct {
	events []*domain.WebhookEvent
	err    error
}

func (l *eventLog) ProcessWebhook(_ context.Context, event *domain.WebhookEvent) error {
	l.events = append(l.events, event)
	return l.err
}

type captureDispatcher struct {
	events  []*domain.WebhookEvent
	handled bool
}

func (d *captureDispatcher) Dispatch(_ context.Context, event *domain.WebhookEvent) bool {
	d.events = append(d.events, event)
	return d.handled
}

type statusCounter struct {
	counts map[string]int
}

func (c *statusCounter) WebhookReceived(topic, status string) { c.counts[topic+" "+status]++ }

func (c *statusCounter) PipelineFailed(string) {}

func (c *statusCounter) VariantDeletion(domain.DeletionKind, bool) {}

type harness struct {
	verifier   *staticVerifier
	guard      *seenGuard
	log        *eventLog
	dispatcher *captureDispatcher
	metrics    *statusCounter
	api        *WebhookAPI
}

func newHarness(valid bool) *harness {
	h := &harness{
		verifier:   &staticVerifier{ok: valid},
		guard:      &seenGuard{seen: map[string]bool{}},
		log:        &eventLog{},
		dispatcher: &captureDispatcher{handled: true},
		metrics:    &statusCounter{counts: map[string]int{}},
	}
	h.api = NewWebhookAPI(h.verifier, h.guard, h.log, h.dispatcher, h.metrics, zerolog.Nop())
	return h
}

func webhookRequest(topic, shop, id, body string) *http.Request {
	req := httptest.NewRequest("POST", "/webhooks", strings.NewReader(body))
	if topic != "" {
		req.Header.Set("X-Shopify-Topic", topic)
	}
	if shop != "" {
		req.Header.Set("X-Shopify-Shop-Domain", shop)
	}
	if id != "" {
		req.Header.Set("X-Shopify-Webhook-Id", id)
	}
	req.Header.Set("X-Shopify-Hmac-Sha256", "sig")
	return req
}

func TestWebhookAcceptedAndDispatched(t *testing.T) {
	h := newHarness(true)
	body := `{"line_items":[]}`

	rec := httptest.NewRecorder()
	h.api.HandleWebhook(rec, webhookRequest("ORDERS_CREATE", "Demo.myshopify.com", "w1", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d want 200", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp["received"] != "true" {
		t.Fatalf("unexpected response body: %s", rec.Body.String())
	}
	if h.verifier.body != body {
		t.Fatalf("verifier did not see the raw body: %q", h.verifier.body)
	}

	if len(h.dispatcher.events) != 1 {
		t.Fatalf("expected one dispatch, got %d", len(h.dispatcher.events))
	}
	event := h.dispatcher.events[0]
	if event.Topic != domain.TopicOrdersCreate || event.Shop != "demo.myshopify.com" || string(event.Payload) != body {
		t.Fatalf("unexpected event: %+v", event)
	}
	if !event.Verified || event.WebhookID != "w1" {
		t.Fatalf("event metadata mismatch: %+v", event)
	}
	if len(h.log.events) != 1 {
		t.Fatalf("event not recorded in the webhook log")
	}
	if h.metrics.counts["orders/create dispatched"] != 1 {
		t.Fatalf("unexpected metrics: %v", h.metrics.counts)
	}
}

func TestWebhookMissingHeaders(t *testing.T) {
	h := newHarness(true)

	for _, req := range []*http.Request{
		webhookRequest("", "demo.myshopify.com", "", "{}"),
		webhookRequest("orders/create", "", "", "{}"),
	} {
		rec := httptest.NewRecorder()
		h.api.HandleWebhook(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status: got %d want 400", rec.Code)
		}
	}
	if len(h.dispatcher.events) != 0 {
		t.Fatalf("invalid request was dispatched")
	}
}

func TestWebhookInvalidSignature(t *testing.T) {
	h := newHarness(false)

	rec := httptest.NewRecorder()
	h.api.HandleWebhook(rec, webhookRequest("app/uninstalled", "demo.myshopify.com", "w1", "{}"))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d want 401", rec.Code)
	}
	if len(h.dispatcher.events) != 0 || len(h.log.events) != 0 {
		t.Fatalf("unverified webhook was processed")
	}
}

func TestWebhookDuplicateDelivery(t *testing.T) {
	h := newHarness(true)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.api.HandleWebhook(rec, webhookRequest("orders/create", "demo.myshopify.com", "dup-1", "{}"))
		if rec.Code != http.StatusOK {
			t.Fatalf("delivery %d: got status %d want 200", i, rec.Code)
		}
	}

	if len(h.dispatcher.events) != 1 {
		t.Fatalf("duplicate delivery re-dispatched: %d dispatches", len(h.dispatcher.events))
	}
	if h.metrics.counts["orders/create duplicate"] != 1 {
		t.Fatalf("unexpected metrics: %v", h.metrics.counts)
	}
}

func TestWebhookContinuesWhenGuardAndLogFail(t *testing.T) {
	h := newHarness(true)
	h.guard.err = errors.New("redis down")
	h.log.err = errors.New("mongo down")

	rec := httptest.NewRecorder()
	h.api.HandleWebhook(rec, webhookRequest("orders/create", "demo.myshopify.com", "w1", "{}"))

	if rec.Code != http.StatusOK || len(h.dispatcher.events) != 1 {
		t.Fatalf("expected dispatch despite failures: status=%d dispatches=%d", rec.Code, len(h.dispatcher.events))
	}
}

func TestWebhookUnknownTopicAcknowledged(t *testing.T) {
	h := newHarness(true)
	h.dispatcher.handled = false

	rec := httptest.NewRecorder()
	h.api.HandleWebhook(rec, webhookRequest("products/update", "demo.myshopify.com", "", "{}"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d want 200", rec.Code)
	}
	if h.metrics.counts["products/update unhandled"] != 1 {
		t.Fatalf("unexpected metrics: %v", h.metrics.counts)
	}
}
