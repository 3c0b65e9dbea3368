package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"shopify-variant-cleanup/internal/domain"
	"shopify-variant-cleanup/internal/ports"

	"github.com/rs/zerolog"
)

const maxWebhookBody = 5 << 20

// SignatureVerifier checks a webhook request's HMAC header against its body
type SignatureVerifier interface {
	Verify(r *http.Request) bool
}

// WebhookRecorder stores a delivery in the webhook event log
type WebhookRecorder interface {
	ProcessWebhook(ctx context.Context, event *domain.WebhookEvent) error
}

// EventDispatcher hands a verified event to its topic handler
type EventDispatcher interface {
	Dispatch(ctx context.Context, event *domain.WebhookEvent) bool
}

// WebhookAPI serves POST /webhooks
type WebhookAPI struct {
	verifier   SignatureVerifier
	guard      ports.DeliveryGuard
	recorder   WebhookRecorder
	dispatcher EventDispatcher
	metrics    ports.PipelineMetrics
	logger     zerolog.Logger
}

// NewWebhookAPI creates the webhook endpoint. guard, recorder and metrics may be nil.
func NewWebhookAPI(
	verifier SignatureVerifier,
	guard ports.DeliveryGuard,
	recorder WebhookRecorder,
	dispatcher EventDispatcher,
	metrics ports.PipelineMetrics,
	logger zerolog.Logger,
) *WebhookAPI {
	return &WebhookAPI{
		verifier:   verifier,
		guard:      guard,
		recorder:   recorder,
		dispatcher: dispatcher,
		metrics:    metrics,
		logger:     logger,
	}
}

// HandleWebhook godoc
// @Summary Receive a Shopify webhook
// @Description Verifies the HMAC signature, acknowledges, and processes the event asynchronously.
// @Tags webhooks
// @Accept json
// @Produce json
// @Param X-Shopify-Topic header string true "Webhook topic"
// @Param X-Shopify-Shop-Domain header string true "Shop domain"
// @Param X-Shopify-Hmac-Sha256 header string true "Base64 HMAC-SHA256 of the body"
// @Param X-Shopify-Webhook-Id header string false "Delivery id"
// @Success 200 {object} map[string]string
// @Failure 400 {string} string
// @Failure 401 {string} string
// @Router /webhooks [post]
func (a *WebhookAPI) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	topic := domain.NormalizeTopic(r.Header.Get("X-Shopify-Topic"))
	shop := domain.NormalizeShopDomain(r.Header.Get("X-Shopify-Shop-Domain"))
	webhookID := r.Header.Get("X-Shopify-Webhook-Id")

	if topic == "" || shop == "" {
		a.logger.Warn().Str("topic", topic).Str("shop", shop).Msg("Missing webhook topic or shop header")
		a.count(topic, "invalid")
		http.Error(w, "Missing X-Shopify-Topic or X-Shopify-Shop-Domain header", http.StatusBadRequest)
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		a.logger.Error().Err(err).Str("topic", topic).Str("shop", shop).Msg("Failed to read webhook payload")
		a.count(topic, "invalid")
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(payload))

	if !a.verifier.Verify(r) {
		a.logger.Warn().Str("topic", topic).Str("shop", shop).Msg("Webhook signature verification failed")
		a.count(topic, "rejected")
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	if a.guard != nil {
		first, err := a.guard.FirstDelivery(ctx, webhookID)
		if err != nil {
			// Fail open
			a.logger.Warn().Err(err).Str("webhookId", webhookID).Msg("Webhook dedup check failed")
		} else if !first {
			a.logger.Info().Str("topic", topic).Str("shop", shop).Str("webhookId", webhookID).Msg("Duplicate webhook delivery ignored")
			a.count(topic, "duplicate")
			writeReceived(w)
			return
		}
	}

	event := &domain.WebhookEvent{
		WebhookID:  webhookID,
		Topic:      topic,
		Shop:       shop,
		Payload:    payload,
		Verified:   true,
		ReceivedAt: time.Now().UTC(),
	}

	if a.recorder != nil {
		if err := a.recorder.ProcessWebhook(ctx, event); err != nil {
			// Continue processing even if logging fails
			a.logger.Error().Err(err).Str("topic", topic).Str("shop", shop).Msg("Failed to log webhook event")
		}
	}

	if a.dispatcher.Dispatch(ctx, event) {
		a.count(topic, "dispatched")
	} else {
		a.count(topic, "unhandled")
	}

	writeReceived(w)
}

func (a *WebhookAPI) count(topic, status string) {
	if a.metrics != nil {
		a.metrics.WebhookReceived(topic, status)
	}
}

func writeReceived(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"received": "true",
	})
}
