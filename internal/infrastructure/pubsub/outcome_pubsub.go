package pubsub

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"shopify-variant-cleanup/internal/domain"

	"github.com/rs/zerolog"
)

// OutcomeChannel represents a subscription channel
type OutcomeChannel struct {
	ID      string
	Filter  *OutcomeFilter
	Events  chan *domain.DeletionOutcome
	Done    chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc
	dropped atomic.Int64
}

// OutcomeFilter filters deletion outcomes
type OutcomeFilter struct {
	Shop       string // Filter by shop domain
	FailedOnly bool
}

// OutcomePubSub fans deletion outcomes out to in-process subscribers
type OutcomePubSub struct {
	mu       sync.RWMutex
	channels map[string]*OutcomeChannel
	logger   zerolog.Logger
	nextID   int64
	idMu     sync.Mutex
	buffer   int
}

// NewOutcomePubSub creates a new outcome pub/sub with the given per-subscriber buffer
func NewOutcomePubSub(logger zerolog.Logger, buffer int) *OutcomePubSub {
	if buffer <= 0 {
		buffer = 10
	}
	return &OutcomePubSub{
		channels: make(map[string]*OutcomeChannel),
		logger:   logger,
		buffer:   buffer,
	}
}

// Subscribe creates a new subscription channel. It is removed when ctx is done.
func (ps *OutcomePubSub) Subscribe(ctx context.Context, filter *OutcomeFilter) *OutcomeChannel {
	ps.idMu.Lock()
	id := ps.generateID()
	ps.idMu.Unlock()

	subCtx, cancel := context.WithCancel(ctx)

	channel := &OutcomeChannel{
		ID:     id,
		Filter: filter,
		Events: make(chan *domain.DeletionOutcome, ps.buffer),
		Done:   make(chan struct{}),
		ctx:    subCtx,
		cancel: cancel,
	}

	ps.mu.Lock()
	ps.channels[id] = channel
	ps.mu.Unlock()

	ps.logger.Info().
		Str("channelId", id).
		Interface("filter", filter).
		Msg("Outcome subscription created")

	go func() {
		<-subCtx.Done()
		ps.Unsubscribe(id)
	}()

	return channel
}

// Unsubscribe removes a subscription channel
func (ps *OutcomePubSub) Unsubscribe(channelID string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	channel, exists := ps.channels[channelID]
	if !exists {
		return
	}

	close(channel.Events)
	close(channel.Done)
	channel.cancel()
	delete(ps.channels, channelID)

	ps.logger.Info().
		Str("channelId", channelID).
		Int64("dropped", channel.dropped.Load()).
		Msg("Outcome subscription removed")
}

// Publish broadcasts an outcome to all matching subscribers without blocking
func (ps *OutcomePubSub) Publish(outcome *domain.DeletionOutcome) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	for _, channel := range ps.channels {
		if !matchesFilter(outcome, channel.Filter) {
			continue
		}
		select {
		case channel.Events <- outcome:
		case <-channel.ctx.Done():
		default:
			channel.dropped.Add(1)
			ps.logger.Warn().
				Str("channelId", channel.ID).
				Str("variantId", outcome.VariantID).
				Msg("Channel buffer full, dropping outcome")
		}
	}
}

func matchesFilter(outcome *domain.DeletionOutcome, filter *OutcomeFilter) bool {
	if filter == nil {
		return true
	}
	if filter.Shop != "" && outcome.Shop != filter.Shop {
		return false
	}
	if filter.FailedOnly && outcome.Success {
		return false
	}
	return true
}

func (ps *OutcomePubSub) generateID() string {
	ps.nextID++
	return fmt.Sprintf("channel-%d", ps.nextID)
}

// Subscribers returns the number of active subscriptions
func (ps *OutcomePubSub) Subscribers() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.channels)
}
