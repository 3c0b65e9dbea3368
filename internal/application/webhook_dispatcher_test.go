package application

import (
	"context"
	"errors"
	"sync"
	"testing"

	"shopify-variant-cleanup/internal/domain"

	"github.com/rs/zerolog"
)

type recordingHandler struct {
	topic string
	err   error
	panic bool

	mu     sync.Mutex
	events []*domain.WebhookEvent
	ctxErr []error
}

func (h *recordingHandler) CanHandle(topic string) bool { return topic == h.topic }

func (h *recordingHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	h.mu.Lock()
	h.events = append(h.events, event)
	h.ctxErr = append(h.ctxErr, ctx.Err())
	h.mu.Unlock()
	if h.panic {
		panic("handler blew up")
	}
	return h.err
}

func TestDispatchNormalizesTopic(t *testing.T) {
	handler := &recordingHandler{topic: domain.TopicOrdersCreate}
	d := NewWebhookDispatcher(zerolog.Nop())
	d.RegisterHandler(handler)

	for _, topic := range []string{"orders/create", "ORDERS_CREATE"} {
		if !d.Dispatch(context.Background(), &domain.WebhookEvent{Topic: topic, Shop: testShop}) {
			t.Fatalf("topic %q was not dispatched", topic)
		}
	}
	d.Wait()

	if len(handler.events) != 2 {
		t.Fatalf("expected two handled events, got %d", len(handler.events))
	}
}

func TestDispatchUnknownTopic(t *testing.T) {
	d := NewWebhookDispatcher(zerolog.Nop())
	d.RegisterHandler(&recordingHandler{topic: domain.TopicOrdersCreate})

	if d.Dispatch(context.Background(), &domain.WebhookEvent{Topic: "products/update", Shop: testShop}) {
		t.Fatalf("unknown topic reported as dispatched")
	}
	d.Wait()
}

func TestDispatchDetachesFromRequestContext(t *testing.T) {
	handler := &recordingHandler{topic: domain.TopicAppUninstalled, err: errors.New("purge failed")}
	d := NewWebhookDispatcher(zerolog.Nop())
	d.RegisterHandler(handler)

	ctx, cancel := context.WithCancel(context.Background())
	d.Dispatch(ctx, &domain.WebhookEvent{Topic: "APP_UNINSTALLED", Shop: testShop})
	cancel()
	d.Wait()

	if len(handler.ctxErr) != 1 || handler.ctxErr[0] != nil {
		t.Fatalf("handler saw a cancelled context: %v", handler.ctxErr)
	}
}

func TestDispatchRecoversHandlerPanic(t *testing.T) {
	d := NewWebhookDispatcher(zerolog.Nop())
	d.RegisterHandler(&recordingHandler{topic: domain.TopicOrdersCreate, panic: true})

	d.Dispatch(context.Background(), &domain.WebhookEvent{Topic: domain.TopicOrdersCreate, Shop: testShop})
	d.Wait()
}
